package cleanup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	Name             = "media_cleanup"
	defaultRetention = 24 * time.Hour
	defaultBatchSize = 200
)

type OrphanPurger interface {
	PurgeOrphans(ctx context.Context, retention time.Duration, batchSize int) (int, error)
}

// Job deletes uploads that were never attached to a submission or content row.
type Job struct {
	purger    OrphanPurger
	retention time.Duration
	batchSize int
	logger    *zap.Logger
}

func New(purger OrphanPurger, retention time.Duration, batchSize int, logger *zap.Logger) *Job {
	if retention <= 0 {
		retention = defaultRetention
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		purger:    purger,
		retention: retention,
		batchSize: batchSize,
		logger:    logger,
	}
}

func (j *Job) Name() string {
	return Name
}

// Run purges batches until a short batch signals the backlog is drained.
func (j *Job) Run(ctx context.Context) error {
	if j.purger == nil {
		return nil
	}

	total := 0
	for {
		removed, err := j.purger.PurgeOrphans(ctx, j.retention, j.batchSize)
		total += removed
		if err != nil {
			return fmt.Errorf("purge orphan media: %w", err)
		}
		if removed < j.batchSize {
			break
		}
	}

	if total > 0 {
		j.logger.Info("cleanup orphan media completed", zap.Int("deleted", total))
	}
	return nil
}
