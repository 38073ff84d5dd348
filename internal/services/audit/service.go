package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/coinmews/coinmews/internal/domain/enums"
	"github.com/coinmews/coinmews/internal/domain/model"
	pgrepo "github.com/coinmews/coinmews/internal/repo/postgres"
)

const (
	defaultMaxBatchSize = 100
	defaultPageSize     = 50
	maxPageSize         = 200
)

var ErrValidation = errors.New("validation error")

type Store interface {
	InsertBatch(ctx context.Context, records []pgrepo.AuditWriteRecord) error
	List(ctx context.Context, action enums.AuditAction, limit, offset int) ([]model.AuditEntry, error)
}

type Config struct {
	MaxBatchSize int
	Timeout      time.Duration
}

type Service struct {
	store  Store
	cfg    Config
	logger *zap.Logger
}

type Entry struct {
	ActorID *int64
	Action  enums.AuditAction
	Payload map[string]any
}

func NewService(store Store, cfg Config, logger *zap.Logger) *Service {
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = defaultMaxBatchSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		store:  store,
		cfg:    cfg,
		logger: logger,
	}
}

// Record writes entries best effort: failures are logged and never returned.
// The write is detached from ctx cancellation so a finished request still leaves a trail.
func (s *Service) Record(ctx context.Context, entries ...Entry) {
	if s == nil || len(entries) == 0 {
		return
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Timeout)
	defer cancel()

	if err := s.RecordBatch(writeCtx, entries); err != nil {
		fields := []zap.Field{zap.Error(err), zap.Int("entries", len(entries))}
		if len(entries) > 0 {
			fields = append(fields, zap.String("action", string(entries[0].Action)))
		}
		s.logger.Warn("audit write failed", fields...)
	}
}

func (s *Service) RecordBatch(ctx context.Context, entries []Entry) error {
	if s.store == nil {
		return fmt.Errorf("audit store is nil")
	}
	if len(entries) == 0 || len(entries) > s.cfg.MaxBatchSize {
		return ErrValidation
	}

	rows := make([]pgrepo.AuditWriteRecord, 0, len(entries))
	for _, entry := range entries {
		if entry.Action == "" {
			return ErrValidation
		}
		rows = append(rows, pgrepo.AuditWriteRecord{
			ActorID: entry.ActorID,
			Action:  entry.Action,
			Payload: clonePayload(entry.Payload),
		})
	}

	if err := s.store.InsertBatch(ctx, rows); err != nil {
		return fmt.Errorf("insert audit batch: %w", err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, action enums.AuditAction, limit, offset int) ([]model.AuditEntry, error) {
	if s.store == nil {
		return nil, fmt.Errorf("audit store is nil")
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.List(ctx, action, limit, offset)
}

func clonePayload(payload map[string]any) map[string]any {
	if len(payload) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(payload))
	for key, value := range payload {
		out[key] = value
	}
	return out
}
