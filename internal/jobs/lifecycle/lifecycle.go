package lifecycle

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/coinmews/coinmews/internal/domain/enums"
	"github.com/coinmews/coinmews/internal/domain/rules"
	pgrepo "github.com/coinmews/coinmews/internal/repo/postgres"
)

const (
	Name         = "content_lifecycle"
	defaultBatch = 1000
)

var datedModelTypes = []enums.ModelType{enums.ModelTypeAirdrop, enums.ModelTypePresale, enums.ModelTypeEvent}

// stageRank orders approved timeline statuses; rows only ever move forward.
var stageRank = map[string]int{
	"upcoming":                         0,
	"ongoing":                          1,
	string(enums.TokenSaleStatusEnded): 2,
	string(enums.EventStatusCompleted): 2,
}

type TimelineStore interface {
	ListDue(ctx context.Context, modelType enums.ModelType, now time.Time, afterID int64, limit int) ([]pgrepo.TimelineRecord, error)
	Advance(ctx context.Context, modelType enums.ModelType, id int64, from, to string) (bool, error)
}

type CacheInvalidator interface {
	Invalidate(ctx context.Context, kinds ...enums.ContentKind)
}

// Job moves approved airdrops, presales and events along their start/end window.
// Every status it writes maps to an approved submission, so tracking rows never change.
type Job struct {
	store  TimelineStore
	cache  CacheInvalidator
	batch  int
	logger *zap.Logger
	now    func() time.Time
}

func New(store TimelineStore, cache CacheInvalidator, logger *zap.Logger) *Job {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Job{
		store:  store,
		cache:  cache,
		batch:  defaultBatch,
		logger: logger,
		now:    time.Now,
	}
}

func (j *Job) Name() string {
	return Name
}

func (j *Job) Run(ctx context.Context) error {
	now := j.now().UTC()
	changed := make([]enums.ContentKind, 0, len(datedModelTypes))

	for _, modelType := range datedModelTypes {
		advanced, err := j.advanceKind(ctx, modelType, now)
		if err != nil {
			return err
		}
		if advanced > 0 {
			changed = append(changed, enums.ContentKindFor(modelType))
			j.logger.Info("content lifecycle advanced",
				zap.String("model_type", string(modelType)),
				zap.Int("advanced", advanced),
			)
		}
	}

	if len(changed) > 0 && j.cache != nil {
		j.cache.Invalidate(ctx, changed...)
	}
	return nil
}

func (j *Job) advanceKind(ctx context.Context, modelType enums.ModelType, now time.Time) (int, error) {
	advanced := 0
	var afterID int64
	for {
		records, err := j.store.ListDue(ctx, modelType, now, afterID, j.batch)
		if err != nil {
			return advanced, fmt.Errorf("list due %s: %w", modelType, err)
		}

		for _, record := range records {
			afterID = record.ID
			next := rules.TimelineStatus(modelType, record.StartDate, record.EndDate, now)
			if stageRank[next] <= stageRank[record.Status] {
				continue
			}
			if rules.SubmissionStatusFor(modelType, next) != rules.SubmissionStatusFor(modelType, record.Status) {
				continue
			}

			ok, err := j.store.Advance(ctx, modelType, record.ID, record.Status, next)
			if err != nil {
				return advanced, fmt.Errorf("advance %s %d: %w", modelType, record.ID, err)
			}
			if ok {
				advanced++
			}
		}

		if len(records) < j.batch {
			return advanced, nil
		}
		if err := ctx.Err(); err != nil {
			return advanced, err
		}
	}
}
