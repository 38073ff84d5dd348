package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coinmews/coinmews/internal/domain/model"
	"github.com/coinmews/coinmews/internal/services/rate"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrTooLarge        = errors.New("upload too large")
	ErrUnsupportedType = errors.New("unsupported content type")
)

const (
	defaultPresignTTL = 15 * time.Minute
	defaultMaxBytes   = 5 << 20
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type Store interface {
	Create(ctx context.Context, upload model.MediaUpload) (model.MediaUpload, error)
	ListOrphans(ctx context.Context, before time.Time, limit int) ([]model.MediaUpload, error)
	Delete(ctx context.Context, id int64) error
}

type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type RateLimiter interface {
	Check(ctx context.Context, rule rate.Rule, userID int64) error
}

type Config struct {
	MaxUploadBytes int64
	PresignTTL     time.Duration
	UploadsPerHour int
}

type Service struct {
	store      Store
	storage    ObjectStorage
	limiter    RateLimiter
	uploadRule rate.Rule
	maxBytes   int64
	presignTTL time.Duration
	logger     *zap.Logger
	now        func() time.Time
	newKey     func(ownerID int64, ext string) string
}

type Upload struct {
	ID          int64     `json:"id"`
	ObjectKey   string    `json:"object_key"`
	URL         string    `json:"url"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewService(store Store, storage ObjectStorage, limiter RateLimiter, cfg Config, logger *zap.Logger) *Service {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxBytes
	}
	if cfg.PresignTTL <= 0 {
		cfg.PresignTTL = defaultPresignTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		store:      store,
		storage:    storage,
		limiter:    limiter,
		uploadRule: rate.UploadsRule(cfg.UploadsPerHour),
		maxBytes:   cfg.MaxUploadBytes,
		presignTTL: cfg.PresignTTL,
		logger:     logger,
		now:        time.Now,
		newKey:     buildObjectKey,
	}
}

func (s *Service) MaxUploadBytes() int64 {
	return s.maxBytes
}

func (s *Service) UploadImage(ctx context.Context, ownerID int64, fileName, contentType string, body io.Reader, size int64) (Upload, error) {
	if ownerID <= 0 || body == nil || size <= 0 {
		return Upload{}, ErrValidation
	}
	if size > s.maxBytes {
		return Upload{}, ErrTooLarge
	}
	if s.store == nil || s.storage == nil {
		return Upload{}, fmt.Errorf("media dependencies are not configured")
	}

	contentType = normalizeContentType(contentType)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return Upload{}, ErrUnsupportedType
	}
	if contentType == "image/jpeg" && strings.EqualFold(path.Ext(strings.TrimSpace(fileName)), ".jpeg") {
		ext = ".jpeg"
	}

	if s.limiter != nil {
		if err := s.limiter.Check(ctx, s.uploadRule, ownerID); err != nil {
			return Upload{}, err
		}
	}

	if err := s.storage.EnsureBucket(ctx); err != nil {
		return Upload{}, fmt.Errorf("ensure bucket: %w", err)
	}

	objectKey := s.newKey(ownerID, ext)
	if err := s.storage.Put(ctx, objectKey, io.LimitReader(body, size), size, contentType); err != nil {
		return Upload{}, fmt.Errorf("put object: %w", err)
	}

	record, err := s.store.Create(ctx, model.MediaUpload{
		OwnerID:     ownerID,
		ObjectKey:   objectKey,
		ContentType: contentType,
		Size:        size,
	})
	if err != nil {
		if delErr := s.storage.Delete(ctx, objectKey); delErr != nil {
			s.logger.Warn("remove object after failed insert", zap.String("object_key", objectKey), zap.Error(delErr))
		}
		return Upload{}, fmt.Errorf("create media record: %w", err)
	}

	url, err := s.storage.PresignGet(ctx, record.ObjectKey, s.presignTTL)
	if err != nil {
		return Upload{}, fmt.Errorf("presign media url: %w", err)
	}

	return Upload{
		ID:          record.ID,
		ObjectKey:   record.ObjectKey,
		URL:         url,
		ContentType: record.ContentType,
		Size:        record.Size,
		CreatedAt:   record.CreatedAt,
	}, nil
}

func (s *Service) URL(ctx context.Context, objectKey string) (string, error) {
	if strings.TrimSpace(objectKey) == "" {
		return "", ErrValidation
	}
	return s.storage.PresignGet(ctx, objectKey, s.presignTTL)
}

// PurgeOrphans removes uploads that were never attached to content and are
// older than retention. It returns how many were removed.
func (s *Service) PurgeOrphans(ctx context.Context, retention time.Duration, batchSize int) (int, error) {
	if retention <= 0 {
		return 0, ErrValidation
	}

	orphans, err := s.store.ListOrphans(ctx, s.now().UTC().Add(-retention), batchSize)
	if err != nil {
		return 0, fmt.Errorf("list orphan media: %w", err)
	}

	removed := 0
	for _, item := range orphans {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if err := s.storage.Delete(ctx, item.ObjectKey); err != nil {
			s.logger.Warn("delete orphan object", zap.String("object_key", item.ObjectKey), zap.Error(err))
			continue
		}
		if err := s.store.Delete(ctx, item.ID); err != nil {
			return removed, fmt.Errorf("delete media record %d: %w", item.ID, err)
		}
		removed++
	}

	return removed, nil
}

func normalizeContentType(contentType string) string {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	return contentType
}

func buildObjectKey(ownerID int64, ext string) string {
	stamp := time.Now().UTC().Format("2006/01/02")
	return fmt.Sprintf("uploads/%s/%d/%s%s", stamp, ownerID, uuid.NewString(), ext)
}
