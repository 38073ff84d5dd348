package appcore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/coinmews/coinmews/internal/config"
	s3infra "github.com/coinmews/coinmews/internal/infra/s3"
	tginfra "github.com/coinmews/coinmews/internal/infra/telegram"
	pgrepo "github.com/coinmews/coinmews/internal/repo/postgres"
	redrepo "github.com/coinmews/coinmews/internal/repo/redis"
	auditsvc "github.com/coinmews/coinmews/internal/services/audit"
	authsvc "github.com/coinmews/coinmews/internal/services/auth"
	"github.com/coinmews/coinmews/internal/services/catalog"
	editorialsvc "github.com/coinmews/coinmews/internal/services/editorial"
	mediasvc "github.com/coinmews/coinmews/internal/services/media"
	moderationsvc "github.com/coinmews/coinmews/internal/services/moderation"
	ratesvc "github.com/coinmews/coinmews/internal/services/rate"
	sitemapsvc "github.com/coinmews/coinmews/internal/services/sitemap"
	submissionsvc "github.com/coinmews/coinmews/internal/services/submissions"
	votesvc "github.com/coinmews/coinmews/internal/services/votes"
)

// Core holds the connections, repositories and services shared by the api and
// worker processes.
type Core struct {
	Postgres *pgxpool.Pool
	Redis    *goredis.Client
	S3       *minio.Client
	Bot      *tginfra.Bot

	Users    *pgrepo.UserRepo
	Timeline *pgrepo.TimelineRepo

	Auth        *authsvc.Service
	Audit       *auditsvc.Service
	Catalog     *catalog.Service
	Submissions *submissionsvc.Service
	Votes       *votesvc.Service
	Media       *mediasvc.Service
	Editorial   *editorialsvc.Service
	Moderation  *moderationsvc.Service
	Sitemap     *sitemapsvc.Service

	logger *zap.Logger
}

// Build connects to the backing stores and wires every service. Redis is required;
// Postgres, S3 and Telegram failures leave the process running in degraded mode.
func Build(ctx context.Context, cfg config.Config, log *zap.Logger) (*Core, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}
	c := &Core{logger: log}

	redisClient, err := redrepo.NewClient(ctx, redrepo.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("init redis: %w", err)
	}
	c.Redis = redisClient

	if pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		c.Postgres = pool
		if cfg.Postgres.AutoMigrate {
			if err := pgrepo.Migrate(ctx, pool); err != nil {
				c.Close()
				return nil, fmt.Errorf("apply migrations: %w", err)
			}
		}
	}

	if client, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		Region:    cfg.S3.Region,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, continuing in degraded mode", zap.Error(err))
	} else {
		c.S3 = client
	}

	if cfg.Telegram.BotToken != "" {
		if bot, err := tginfra.NewBot(cfg.Telegram.BotToken, cfg.Telegram.PollTimeoutSecond); err != nil {
			log.Warn("telegram bot init failed, moderation notices disabled", zap.Error(err))
		} else {
			c.Bot = bot
		}
	}

	c.wire(cfg)
	return c, nil
}

func (c *Core) wire(cfg config.Config) {
	log := c.logger

	c.Users = pgrepo.NewUserRepo(c.Postgres)
	c.Timeline = pgrepo.NewTimelineRepo(c.Postgres)
	submissionRepo := pgrepo.NewSubmissionRepo(c.Postgres)
	mediaRepo := pgrepo.NewMediaRepo(c.Postgres)
	catalogRepo := pgrepo.NewCatalogRepo(c.Postgres)
	articleRepo := pgrepo.NewArticleRepo(c.Postgres)
	exchangeRepo := pgrepo.NewExchangeRepo(c.Postgres)
	memeRepo := pgrepo.NewMemeRepo(c.Postgres)

	cacheRepo := redrepo.NewCacheRepo(c.Redis)
	rateLimiter := ratesvc.NewLimiter(redrepo.NewRateRepo(c.Redis))

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	c.Auth = authsvc.NewService(jwtManager, redrepo.NewSessionRepo(c.Redis), c.Users, authsvc.Config{
		RefreshTTL: cfg.Auth.RefreshTTL,
		TOTPIssuer: cfg.Auth.TOTPIssuer,
	}, log.Named("auth"))

	c.Audit = auditsvc.NewService(pgrepo.NewAuditRepo(c.Postgres), auditsvc.Config{}, log.Named("audit"))

	c.Catalog = catalog.NewService(catalog.Sources{
		Articles:  articleRepo,
		Airdrops:  pgrepo.NewAirdropRepo(c.Postgres),
		Presales:  pgrepo.NewPresaleRepo(c.Postgres),
		Events:    pgrepo.NewEventRepo(c.Postgres),
		Exchanges: exchangeRepo,
		Memes:     memeRepo,
	}, cacheRepo, redrepo.NewViewRepo(c.Redis), catalogRepo, catalog.Config{
		CacheTTL:   cfg.Catalog.CacheTTL,
		ViewWindow: cfg.Catalog.ViewWindow,
		PageSize:   cfg.Catalog.PageSize,
	}, log.Named("catalog"))

	var sender moderationsvc.Sender
	if c.Bot != nil {
		sender = c.Bot
	}
	c.Moderation = moderationsvc.NewService(sender, cfg.Telegram.ModerationChatID, cfg.PublicURL, log.Named("moderation"))

	c.Submissions = submissionsvc.NewService(submissionRepo, rateLimiter, mediaRepo, submissionsvc.Config{
		PerUserPerHour:   cfg.Submissions.PerUserPerHour,
		ReconcileOnIndex: cfg.Submissions.ReconcileOnIndex,
		PageSize:         cfg.Submissions.PageSize,
	}, log.Named("submissions"))
	c.Submissions.AttachNotifier(c.Moderation)
	c.Submissions.AttachAudit(c.Audit)
	c.Submissions.AttachCache(c.Catalog)

	c.Moderation.AttachReviewer(c.Users, c.Submissions)
	c.Moderation.AttachLinker(c.Users, c.Audit)

	c.Votes = votesvc.NewService(pgrepo.NewVoteRepo(c.Postgres), rateLimiter, c.Catalog, cfg.Votes.PerUserPerMinute, log.Named("votes"))

	c.Media = mediasvc.NewService(mediaRepo, mediasvc.NewS3Storage(c.S3, cfg.S3.Bucket), rateLimiter, mediasvc.Config{
		MaxUploadBytes: cfg.Media.MaxUploadBytes,
		PresignTTL:     cfg.S3.PresignTTL,
		UploadsPerHour: cfg.Media.UploadsPerHour,
	}, log.Named("media"))

	c.Editorial = editorialsvc.NewService(editorialsvc.Stores{
		Articles:  articleRepo,
		Exchanges: exchangeRepo,
		Memes:     memeRepo,
	}, mediaRepo, c.Audit, c.Catalog, log.Named("editorial"))

	c.Sitemap = sitemapsvc.NewService(catalogRepo, cacheRepo, cfg.PublicURL, cfg.Sitemap.TTL, log.Named("sitemap"))
}

func (c *Core) PingPostgres(ctx context.Context) error {
	if c.Postgres == nil {
		return errors.New("postgres is not connected")
	}
	return c.Postgres.Ping(ctx)
}

func (c *Core) PingRedis(ctx context.Context) error {
	if c.Redis == nil {
		return errors.New("redis is not connected")
	}
	return c.Redis.Ping(ctx).Err()
}

func (c *Core) Close() error {
	var closeErr error
	if c.Postgres != nil {
		c.Postgres.Close()
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	return closeErr
}
