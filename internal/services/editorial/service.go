package editorial

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/coinmews/coinmews/internal/domain/enums"
	"github.com/coinmews/coinmews/internal/domain/model"
	"github.com/coinmews/coinmews/internal/pkg/validate"
	"github.com/coinmews/coinmews/internal/services/audit"
)

type ArticleStore interface {
	CreateEditorial(ctx context.Context, article model.Article, now time.Time) (model.Article, *model.Submission, error)
}

type ExchangeStore interface {
	Create(ctx context.Context, exchange model.Exchange) (model.Exchange, error)
}

type MemeStore interface {
	Create(ctx context.Context, meme model.Meme, ownerID int64) (model.Meme, error)
}

type MediaLibrary interface {
	OwnedKeys(ctx context.Context, ownerID int64, keys []string) ([]string, error)
	MarkAttached(ctx context.Context, ownerID int64, keys []string) error
}

type AuditRecorder interface {
	Record(ctx context.Context, entries ...audit.Entry)
}

type CacheInvalidator interface {
	Invalidate(ctx context.Context, kinds ...enums.ContentKind)
}

type Stores struct {
	Articles  ArticleStore
	Exchanges ExchangeStore
	Memes     MemeStore
}

// Service creates staff-authored content that bypasses the submission queue.
type Service struct {
	stores Stores
	media  MediaLibrary
	audit  AuditRecorder
	cache  CacheInvalidator
	logger *zap.Logger
	now    func() time.Time
}

func NewService(stores Stores, media MediaLibrary, auditRecorder AuditRecorder, cache CacheInvalidator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		stores: stores,
		media:  media,
		audit:  auditRecorder,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
}

// CreateArticle stores an article; press releases, guest posts and sponsored content also get a
// tracking submission. The returned submission is nil for editorial-only types.
func (s *Service) CreateArticle(ctx context.Context, actorID int64, in ArticleInput) (model.Article, *model.Submission, error) {
	article, err := buildArticle(in, actorID)
	if err != nil {
		return model.Article{}, nil, err
	}
	if err := s.checkMedia(ctx, actorID, "cover_image_key", article.CoverImageKey); err != nil {
		return model.Article{}, nil, err
	}

	created, tracked, err := s.stores.Articles.CreateEditorial(ctx, article, s.now().UTC())
	if err != nil {
		return model.Article{}, nil, err
	}

	s.attach(ctx, actorID, created.CoverImageKey)
	payload := map[string]any{"kind": string(enums.ContentKindArticle), "id": created.ID, "status": string(created.Status)}
	if tracked != nil {
		payload["submission_id"] = tracked.ID
	}
	s.created(ctx, actorID, enums.ContentKindArticle, payload)
	return created, tracked, nil
}

func (s *Service) CreateExchange(ctx context.Context, actorID int64, in ExchangeInput) (model.Exchange, error) {
	exchange, err := buildExchange(in)
	if err != nil {
		return model.Exchange{}, err
	}
	if err := s.checkMedia(ctx, actorID, "logo_key", exchange.LogoKey); err != nil {
		return model.Exchange{}, err
	}

	created, err := s.stores.Exchanges.Create(ctx, exchange)
	if err != nil {
		return model.Exchange{}, err
	}

	s.attach(ctx, actorID, created.LogoKey)
	s.created(ctx, actorID, enums.ContentKindExchange, map[string]any{"kind": string(enums.ContentKindExchange), "id": created.ID})
	return created, nil
}

// CreateMeme stores a meme; the repository marks its media key attached in the same transaction.
func (s *Service) CreateMeme(ctx context.Context, actorID int64, in MemeInput) (model.Meme, error) {
	meme, err := buildMeme(in)
	if err != nil {
		return model.Meme{}, err
	}
	if err := s.checkMedia(ctx, actorID, "media_key", meme.MediaKey); err != nil {
		return model.Meme{}, err
	}

	created, err := s.stores.Memes.Create(ctx, meme, actorID)
	if err != nil {
		return model.Meme{}, err
	}

	s.created(ctx, actorID, enums.ContentKindMeme, map[string]any{"kind": string(enums.ContentKindMeme), "id": created.ID})
	return created, nil
}

func (s *Service) checkMedia(ctx context.Context, actorID int64, field string, key *string) error {
	if key == nil || s.media == nil {
		return nil
	}
	owned, err := s.media.OwnedKeys(ctx, actorID, []string{*key})
	if err != nil {
		return fmt.Errorf("check media ownership: %w", err)
	}
	if len(owned) == 0 {
		return validate.Errors{field: "unknown upload"}
	}
	return nil
}

func (s *Service) attach(ctx context.Context, actorID int64, key *string) {
	if key == nil || s.media == nil {
		return
	}
	if err := s.media.MarkAttached(ctx, actorID, []string{*key}); err != nil {
		s.logger.Warn("mark media attached failed", zap.String("object_key", *key), zap.Error(err))
	}
}

func (s *Service) created(ctx context.Context, actorID int64, kind enums.ContentKind, payload map[string]any) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, kind)
	}
	if s.audit != nil {
		s.audit.Record(ctx, audit.Entry{ActorID: &actorID, Action: enums.AuditActionContentCreated, Payload: payload})
	}
	s.logger.Info("editorial content created", zap.String("kind", string(kind)), zap.Int64("actor_id", actorID))
}
