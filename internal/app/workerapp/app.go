package workerapp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/coinmews/coinmews/internal/app/appcore"
	"github.com/coinmews/coinmews/internal/config"
	tginfra "github.com/coinmews/coinmews/internal/infra/telegram"
	"github.com/coinmews/coinmews/internal/jobs"
	"github.com/coinmews/coinmews/internal/jobs/cleanup"
	"github.com/coinmews/coinmews/internal/jobs/lifecycle"
	"github.com/coinmews/coinmews/internal/jobs/reconcile"
)

const jobRunTimeout = 5 * time.Minute

// App runs the Telegram moderation listener next to the background jobs.
type App struct {
	cfg       config.Config
	logger    *zap.Logger
	core      *appcore.Core
	scheduler *jobs.Scheduler
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	core, err := appcore.Build(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	scheduler, err := jobs.NewScheduler(jobRunTimeout, logger.Named("jobs"))
	if err != nil {
		_ = core.Close()
		return nil, err
	}

	return &App{
		cfg:       cfg,
		logger:    logger,
		core:      core,
		scheduler: scheduler,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	if err := a.registerJobs(ctx); err != nil {
		return err
	}
	a.scheduler.Start()
	a.logger.Info("worker started")

	errCh := make(chan error, 1)
	if a.core.Bot != nil {
		go func() {
			errCh <- a.core.Bot.Listen(ctx, tginfra.Handlers{
				OnCommand:  a.core.Moderation.HandleCommand,
				OnCallback: a.core.Moderation.HandleCallback,
			})
		}()
	} else {
		a.logger.Warn("telegram bot token is empty, moderation listener disabled")
	}

	select {
	case <-ctx.Done():
		a.logger.Info("worker stopped")
		return nil
	case err := <-errCh:
		if err == nil || errors.Is(err, context.Canceled) {
			<-ctx.Done()
			return nil
		}
		return fmt.Errorf("telegram listener: %w", err)
	}
}

func (a *App) registerJobs(ctx context.Context) error {
	log := a.logger.Named("jobs")

	if err := a.scheduler.Register(ctx, reconcile.New(a.core.Submissions, log), a.cfg.Reconcile.Interval, true); err != nil {
		return err
	}
	if err := a.scheduler.Register(ctx, lifecycle.New(a.core.Timeline, a.core.Catalog, log), a.cfg.Lifecycle.Interval, true); err != nil {
		return err
	}
	purge := cleanup.New(a.core.Media, a.cfg.Cleanup.OrphanRetention, a.cfg.Cleanup.BatchSize, log)
	if err := a.scheduler.Register(ctx, purge, a.cfg.Cleanup.Interval, false); err != nil {
		return err
	}
	return nil
}

func (a *App) Close() error {
	var closeErr error
	if err := a.scheduler.Shutdown(); err != nil {
		closeErr = err
	}
	if err := a.core.Close(); err != nil && closeErr == nil {
		closeErr = err
	}
	return closeErr
}
