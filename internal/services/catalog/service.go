package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/coinmews/coinmews/internal/domain/enums"
	"github.com/coinmews/coinmews/internal/domain/model"
	pgrepo "github.com/coinmews/coinmews/internal/repo/postgres"
	redrepo "github.com/coinmews/coinmews/internal/repo/redis"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxQueryLength  = 100

	// SitemapNamespace is bumped together with every content kind.
	SitemapNamespace = "sitemap"
)

var ErrNotFound = errors.New("content not found")

type Cache interface {
	Key(ctx context.Context, namespace, suffix string) (string, error)
	GetJSON(ctx context.Context, key string, dst any) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	BumpGeneration(ctx context.Context, namespace string) (int64, error)
}

type ViewDeduper interface {
	MarkViewed(ctx context.Context, kind string, id int64, viewer string, window time.Duration) (bool, error)
}

type ViewCounter interface {
	IncrementViews(ctx context.Context, kind enums.ContentKind, id int64) error
}

type Source[T any] interface {
	ListVisible(ctx context.Context, filter pgrepo.CatalogFilter) ([]T, int, error)
	GetVisibleBySlug(ctx context.Context, slug string) (T, error)
}

type Config struct {
	CacheTTL   time.Duration
	ViewWindow time.Duration
	PageSize   int
}

type Query struct {
	Status      string
	Category    string
	ContentType string
	EventType   string
	Kind        string
	Blockchain  string
	Q           string
	Limit       int
	Offset      int
}

type Page[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type Sources struct {
	Articles  Source[model.Article]
	Airdrops  Source[model.Airdrop]
	Presales  Source[model.Presale]
	Events    Source[model.Event]
	Exchanges Source[model.Exchange]
	Memes     Source[model.Meme]
}

// Service serves the public collections through a Redis cache-aside layer.
type Service struct {
	cache   Cache
	deduper ViewDeduper
	counter ViewCounter
	cfg     Config
	logger  *zap.Logger

	Articles  *Collection[model.Article]
	Airdrops  *Collection[model.Airdrop]
	Presales  *Collection[model.Presale]
	Events    *Collection[model.Event]
	Exchanges *Collection[model.Exchange]
	Memes     *Collection[model.Meme]
}

func NewService(sources Sources, cache Cache, deduper ViewDeduper, counter ViewCounter, cfg Config, logger *zap.Logger) *Service {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.ViewWindow <= 0 {
		cfg.ViewWindow = 24 * time.Hour
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		cache:   cache,
		deduper: deduper,
		counter: counter,
		cfg:     cfg,
		logger:  logger,
	}
	s.Articles = newCollection(s, enums.ContentKindArticle, sources.Articles, func(a model.Article) int64 { return a.ID })
	s.Airdrops = newCollection(s, enums.ContentKindAirdrop, sources.Airdrops, func(a model.Airdrop) int64 { return a.ID })
	s.Presales = newCollection(s, enums.ContentKindPresale, sources.Presales, func(p model.Presale) int64 { return p.ID })
	s.Events = newCollection(s, enums.ContentKindEvent, sources.Events, func(e model.Event) int64 { return e.ID })
	s.Exchanges = newCollection(s, enums.ContentKindExchange, sources.Exchanges, func(e model.Exchange) int64 { return e.ID })
	s.Memes = newCollection(s, enums.ContentKindMeme, sources.Memes, func(m model.Meme) int64 { return m.ID })
	return s
}

// Invalidate drops every cached page of kinds by moving to a new generation.
// The sitemap follows, since published or removed rows change its URL set.
func (s *Service) Invalidate(ctx context.Context, kinds ...enums.ContentKind) {
	namespaces := make([]string, 0, len(kinds)+1)
	for _, kind := range kinds {
		namespaces = append(namespaces, string(kind))
	}
	s.bump(ctx, append(namespaces, SitemapNamespace))
}

// InvalidateListings drops cached pages of kinds but keeps the sitemap, for
// changes such as vote scores that never add or remove a URL.
func (s *Service) InvalidateListings(ctx context.Context, kinds ...enums.ContentKind) {
	namespaces := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		namespaces = append(namespaces, string(kind))
	}
	s.bump(ctx, namespaces)
}

func (s *Service) bump(ctx context.Context, namespaces []string) {
	if s.cache == nil {
		return
	}
	for _, namespace := range namespaces {
		if _, err := s.cache.BumpGeneration(context.WithoutCancel(ctx), namespace); err != nil {
			s.logger.Warn("bump cache generation", zap.String("namespace", namespace), zap.Error(err))
		}
	}
}

type Collection[T any] struct {
	svc    *Service
	kind   enums.ContentKind
	source Source[T]
	idOf   func(T) int64
}

func newCollection[T any](svc *Service, kind enums.ContentKind, source Source[T], idOf func(T) int64) *Collection[T] {
	return &Collection[T]{svc: svc, kind: kind, source: source, idOf: idOf}
}

func (c *Collection[T]) Kind() enums.ContentKind {
	return c.kind
}

func (c *Collection[T]) List(ctx context.Context, q Query) (Page[T], error) {
	if c.source == nil {
		return Page[T]{}, fmt.Errorf("%s source is not configured", c.kind)
	}
	filter := c.svc.normalize(q)

	var page Page[T]
	err := c.svc.remember(ctx, string(c.kind), listCacheSuffix(filter), &page, func() error {
		items, total, err := c.source.ListVisible(ctx, filter)
		if err != nil {
			return fmt.Errorf("list %s: %w", c.kind, err)
		}
		page = Page[T]{Items: items, Total: total, Limit: filter.Limit, Offset: filter.Offset}
		return nil
	})
	if err != nil {
		return Page[T]{}, err
	}
	return page, nil
}

// Get loads a visible item by slug. A non-empty viewer counts one view per
// view window.
func (c *Collection[T]) Get(ctx context.Context, slug, viewer string) (T, error) {
	var item T
	if c.source == nil {
		return item, fmt.Errorf("%s source is not configured", c.kind)
	}
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return item, ErrNotFound
	}

	err := c.svc.remember(ctx, string(c.kind), "slug:"+slug, &item, func() error {
		found, err := c.source.GetVisibleBySlug(ctx, slug)
		if err != nil {
			if isNotFound(err) {
				return ErrNotFound
			}
			return fmt.Errorf("get %s: %w", c.kind, err)
		}
		item = found
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	c.svc.countView(ctx, c.kind, c.idOf(item), viewer)
	return item, nil
}

// remember is cache-aside: a hit fills dst, a miss runs load and stores dst.
func (s *Service) remember(ctx context.Context, namespace, suffix string, dst any, load func() error) error {
	if s.cache == nil {
		return load()
	}

	key, err := s.cache.Key(ctx, namespace, suffix)
	if err != nil {
		s.logger.Warn("build cache key", zap.String("namespace", namespace), zap.Error(err))
		return load()
	}

	err = s.cache.GetJSON(ctx, key, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, redrepo.ErrCacheMiss) {
		s.logger.Warn("read cache", zap.String("key", key), zap.Error(err))
	}

	if err := load(); err != nil {
		return err
	}
	if err := s.cache.SetJSON(ctx, key, dst, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("write cache", zap.String("key", key), zap.Error(err))
	}
	return nil
}

func (s *Service) countView(ctx context.Context, kind enums.ContentKind, id int64, viewer string) {
	if viewer == "" || id <= 0 || s.deduper == nil || s.counter == nil {
		return
	}

	first, err := s.deduper.MarkViewed(ctx, string(kind), id, viewer, s.cfg.ViewWindow)
	if err != nil {
		s.logger.Warn("mark view", zap.String("kind", string(kind)), zap.Int64("id", id), zap.Error(err))
		return
	}
	if !first {
		return
	}
	if err := s.counter.IncrementViews(ctx, kind, id); err != nil {
		s.logger.Warn("increment views", zap.String("kind", string(kind)), zap.Int64("id", id), zap.Error(err))
	}
}

func (s *Service) normalize(q Query) pgrepo.CatalogFilter {
	limit := q.Limit
	if limit <= 0 {
		limit = s.cfg.PageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	query := strings.TrimSpace(q.Q)
	if len([]rune(query)) > maxQueryLength {
		query = string([]rune(query)[:maxQueryLength])
	}

	return pgrepo.CatalogFilter{
		Status:      strings.ToLower(strings.TrimSpace(q.Status)),
		Category:    strings.TrimSpace(q.Category),
		ContentType: strings.ToLower(strings.TrimSpace(q.ContentType)),
		EventType:   strings.ToLower(strings.TrimSpace(q.EventType)),
		Kind:        strings.ToLower(strings.TrimSpace(q.Kind)),
		Blockchain:  strings.TrimSpace(q.Blockchain),
		Query:       query,
		Limit:       limit,
		Offset:      offset,
	}
}

func listCacheSuffix(f pgrepo.CatalogFilter) string {
	raw := strings.Join([]string{
		f.Status, f.Category, f.ContentType, f.EventType, f.Kind, f.Blockchain, strings.ToLower(f.Query),
		strconv.Itoa(f.Limit), strconv.Itoa(f.Offset),
	}, "\x1f")
	sum := sha256.Sum256([]byte(raw))
	return "list:" + hex.EncodeToString(sum[:12])
}

func isNotFound(err error) bool {
	for _, target := range []error{
		pgrepo.ErrArticleNotFound,
		pgrepo.ErrAirdropNotFound,
		pgrepo.ErrPresaleNotFound,
		pgrepo.ErrEventNotFound,
		pgrepo.ErrExchangeNotFound,
		pgrepo.ErrMemeNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ViewerFingerprint identifies a viewer by user id, or by a hash of address and agent.
func ViewerFingerprint(userID int64, remoteIP, userAgent string) string {
	if userID > 0 {
		return "u:" + strconv.FormatInt(userID, 10)
	}
	if strings.TrimSpace(remoteIP) == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(remoteIP + "|" + userAgent))
	return "a:" + hex.EncodeToString(sum[:16])
}
