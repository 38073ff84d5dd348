package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/coinmews/coinmews/internal/app/appcore"
	"github.com/coinmews/coinmews/internal/config"
	"github.com/coinmews/coinmews/internal/transport/http/handlers"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	core       *appcore.Core
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	core, err := appcore.Build(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log, cfg.HTTP.RequestTimeout)

	health := handlers.NewHealthHandler()
	health.AddCheck("postgres", core.PingPostgres)
	health.AddCheck("redis", core.PingRedis)

	RegisterRoutes(r, Dependencies{
		AuthService:       core.Auth,
		CatalogService:    core.Catalog,
		SubmissionService: core.Submissions,
		VoteService:       core.Votes,
		MediaService:      core.Media,
		EditorialService:  core.Editorial,
		AuditService:      core.Audit,
		ModerationService: core.Moderation,
		SitemapService:    core.Sitemap,
		Health:            health,
		Logger:            log,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		core:       core,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	shutdownErr := a.server.Shutdown(ctx)
	if err := a.core.Close(); err != nil && shutdownErr == nil {
		shutdownErr = err
	}
	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
