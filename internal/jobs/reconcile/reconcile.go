package reconcile

import (
	"context"

	"go.uber.org/zap"

	"github.com/coinmews/coinmews/internal/services/submissions"
)

const Name = "submissions_reconcile"

type Reconciler interface {
	Reconcile(ctx context.Context) (submissions.Report, error)
}

// Job runs the submission backfill and resync on a schedule.
type Job struct {
	reconciler Reconciler
	logger     *zap.Logger
}

func New(reconciler Reconciler, logger *zap.Logger) *Job {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Job{reconciler: reconciler, logger: logger}
}

func (j *Job) Name() string {
	return Name
}

func (j *Job) Run(ctx context.Context) error {
	report, err := j.reconciler.Reconcile(ctx)
	if err != nil {
		return err
	}
	j.logger.Debug("reconcile pass finished",
		zap.Int("created", report.Created),
		zap.Int("updated", report.Updated),
		zap.Duration("duration", report.Duration),
	)
	return nil
}
