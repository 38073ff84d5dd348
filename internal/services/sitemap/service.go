package sitemap

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/coinmews/coinmews/internal/domain/enums"
	pgrepo "github.com/coinmews/coinmews/internal/repo/postgres"
	redrepo "github.com/coinmews/coinmews/internal/repo/redis"
	"github.com/coinmews/coinmews/internal/services/catalog"
)

const (
	xmlns        = "http://www.sitemaps.org/schemas/sitemap/0.9"
	entriesLimit = 5000
	cacheSuffix  = "urlset"
)

// Kinds with detail pages in the sitemap; memes have none.
var sitemapKinds = slices.DeleteFunc(enums.AllContentKinds(), func(k enums.ContentKind) bool {
	return k == enums.ContentKindMeme
})

var staticPages = listingPages()

func listingPages() []string {
	pages := []string{"/"}
	for _, kind := range enums.AllContentKinds() {
		pages = append(pages, "/"+string(kind))
	}
	return append(pages, "/submit")
}

type EntrySource interface {
	ListSitemapEntries(ctx context.Context, kind enums.ContentKind, limit int) ([]pgrepo.SitemapEntry, error)
}

type Cache interface {
	Key(ctx context.Context, namespace, suffix string) (string, error)
	GetBytes(ctx context.Context, key string) ([]byte, error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type urlset struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []urlEntry
}

type urlEntry struct {
	XMLName    xml.Name `xml:"url"`
	Loc        string   `xml:"loc"`
	LastMod    string   `xml:"lastmod,omitempty"`
	ChangeFreq string   `xml:"changefreq,omitempty"`
}

type Service struct {
	source  EntrySource
	cache   Cache
	baseURL string
	ttl     time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

func NewService(source EntrySource, cache Cache, baseURL string, ttl time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{
		source:  source,
		cache:   cache,
		baseURL: strings.TrimRight(baseURL, "/"),
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
	}
}

// XML returns the rendered urlset, served from cache when possible.
func (s *Service) XML(ctx context.Context) ([]byte, error) {
	var key string
	if s.cache != nil {
		k, err := s.cache.Key(ctx, catalog.SitemapNamespace, cacheSuffix)
		if err != nil {
			s.logger.Warn("sitemap cache key failed", zap.Error(err))
		} else {
			key = k
			raw, err := s.cache.GetBytes(ctx, key)
			if err == nil {
				return raw, nil
			}
			if !errors.Is(err, redrepo.ErrCacheMiss) {
				s.logger.Warn("sitemap cache read failed", zap.Error(err))
			}
		}
	}

	raw, err := s.build(ctx)
	if err != nil {
		return nil, err
	}

	if key != "" {
		if err := s.cache.SetBytes(ctx, key, raw, s.ttl); err != nil {
			s.logger.Warn("sitemap cache write failed", zap.Error(err))
		}
	}
	return raw, nil
}

func (s *Service) build(ctx context.Context) ([]byte, error) {
	perKind := make([][]pgrepo.SitemapEntry, len(sitemapKinds))

	group, groupCtx := errgroup.WithContext(ctx)
	for i, kind := range sitemapKinds {
		i, kind := i, kind
		group.Go(func() error {
			entries, err := s.source.ListSitemapEntries(groupCtx, kind, entriesLimit)
			if err != nil {
				return fmt.Errorf("list %s: %w", kind, err)
			}
			perKind[i] = entries
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	today := s.now().UTC().Format("2006-01-02")
	set := urlset{Xmlns: xmlns}
	for _, page := range staticPages {
		set.URLs = append(set.URLs, urlEntry{Loc: s.baseURL + page, LastMod: today, ChangeFreq: "daily"})
	}
	for _, entries := range perKind {
		for _, entry := range entries {
			set.URLs = append(set.URLs, urlEntry{
				Loc:     s.baseURL + "/" + string(entry.Kind) + "/" + entry.Slug,
				LastMod: entry.LastMod.UTC().Format("2006-01-02"),
			})
		}
	}

	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode sitemap: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}
