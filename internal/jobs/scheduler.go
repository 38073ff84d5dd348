package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

type Runner interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler runs background jobs on fixed intervals. A job never overlaps with itself:
// a run that is still in progress when the next tick fires pushes that tick back.
type Scheduler struct {
	scheduler gocron.Scheduler
	timeout   time.Duration
	logger    *zap.Logger
}

func NewScheduler(runTimeout time.Duration, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &Scheduler{scheduler: s, timeout: runTimeout, logger: logger}, nil
}

// Register schedules runner every interval. Runs get ctx, bounded by the scheduler's run timeout.
func (s *Scheduler) Register(ctx context.Context, runner Runner, interval time.Duration, runNow bool) error {
	if interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", runner.Name())
	}

	options := []gocron.JobOption{
		gocron.WithName(runner.Name()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}
	if runNow {
		options = append(options, gocron.WithStartAt(gocron.WithStartImmediately()))
	}

	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { s.run(ctx, runner) }),
		options...,
	)
	if err != nil {
		return fmt.Errorf("register job %s: %w", runner.Name(), err)
	}
	s.logger.Info("job registered", zap.String("job", runner.Name()), zap.Duration("interval", interval))
	return nil
}

func (s *Scheduler) Start() {
	s.scheduler.Start()
}

func (s *Scheduler) Shutdown() error {
	if err := s.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("shutdown scheduler: %w", err)
	}
	return nil
}

func (s *Scheduler) run(ctx context.Context, runner Runner) {
	if ctx.Err() != nil {
		return
	}
	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	started := time.Now()
	if err := runner.Run(runCtx); err != nil {
		s.logger.Error("job failed", zap.String("job", runner.Name()), zap.Duration("elapsed", time.Since(started)), zap.Error(err))
		return
	}
	s.logger.Debug("job finished", zap.String("job", runner.Name()), zap.Duration("elapsed", time.Since(started)))
}
