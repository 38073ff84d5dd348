package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coinmews/coinmews/internal/domain/enums"
	"github.com/coinmews/coinmews/internal/domain/model"
	"github.com/coinmews/coinmews/internal/domain/rules"
)

var ErrArticleNotFound = errors.New("article not found")

const articleColumns = `id, slug, title, excerpt, content, content_type, status, category, tags, cover_image_key,
	source_url, sponsor_name, author_id, view_count, published_at, created_at, updated_at`

type ArticleRepo struct {
	pool *pgxpool.Pool
}

func NewArticleRepo(pool *pgxpool.Pool) *ArticleRepo {
	return &ArticleRepo{pool: pool}
}

func (r *ArticleRepo) ListVisible(ctx context.Context, filter CatalogFilter) ([]model.Article, int, error) {
	if r.pool == nil {
		return nil, 0, errNilPool
	}

	w := newWhere(catalogTables[enums.ContentKindArticle].visibility)
	w.eq("category", filter.Category)
	w.eq("content_type", filter.ContentType)
	w.contains("title", filter.Query)

	total, err := countRows(ctx, r.pool, "articles", w)
	if err != nil {
		return nil, 0, err
	}

	page := w.page(filter.Limit, filter.Offset)
	rows, err := r.pool.Query(ctx, `
SELECT `+articleColumns+`
FROM articles
WHERE `+w.sql()+`
ORDER BY published_at DESC NULLS LAST, id DESC
`+page, w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	items := make([]model.Article, 0)
	for rows.Next() {
		item, err := scanArticle(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan article: %w", err)
		}
		items = append(items, item)
	}
	if rows.Err() != nil {
		return nil, 0, fmt.Errorf("iterate articles: %w", rows.Err())
	}

	return items, total, nil
}

func (r *ArticleRepo) GetVisibleBySlug(ctx context.Context, slug string) (model.Article, error) {
	if r.pool == nil {
		return model.Article{}, errNilPool
	}

	item, err := scanArticle(r.pool.QueryRow(ctx, `
SELECT `+articleColumns+`
FROM articles
WHERE slug = $1 AND `+catalogTables[enums.ContentKindArticle].visibility, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Article{}, ErrArticleNotFound
		}
		return model.Article{}, fmt.Errorf("get article by slug: %w", err)
	}

	return item, nil
}

// CreateEditorial stores a staff-written article. Submittable content types get their
// tracking submission in the same transaction.
func (r *ArticleRepo) CreateEditorial(ctx context.Context, article model.Article, now time.Time) (model.Article, *model.Submission, error) {
	if r.pool == nil {
		return model.Article{}, nil, errNilPool
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	if article.Status == "" {
		article.Status = enums.ArticleStatusDraft
	}

	var (
		created model.Article
		tracked *model.Submission
	)
	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		id, _, err := insertWithSlug(ctx, tx, article.Title, func(ctx context.Context, db DBTX, s string) (int64, error) {
			return insertArticleRow(ctx, db, &article, s, string(article.Status), article.AuthorID, now)
		})
		if err != nil {
			return fmt.Errorf("insert article: %w", err)
		}

		created, err = scanArticle(tx.QueryRow(ctx, `SELECT `+articleColumns+` FROM articles WHERE id = $1`, id))
		if err != nil {
			return fmt.Errorf("reload article: %w", err)
		}

		submissionType, ok := rules.SubmissionTypeForArticle(created.ContentType)
		if !ok {
			return nil
		}
		modelType := enums.ModelTypeArticle
		sub, inserted, err := insertTracked(ctx, tx, model.Submission{
			Type:        submissionType,
			Status:      rules.SubmissionStatusFor(modelType, string(created.Status)),
			ModelType:   &modelType,
			ModelID:     &created.ID,
			Title:       created.Title,
			SubmittedBy: created.AuthorID,
			CreatedAt:   now,
		})
		if err != nil {
			return err
		}
		if inserted {
			tracked = &sub
		}
		return nil
	})
	if err != nil {
		return model.Article{}, nil, err
	}

	return created, tracked, nil
}

func insertArticleRow(ctx context.Context, db DBTX, a *model.Article, slug, status string, authorID *int64, now time.Time) (int64, error) {
	tags := a.Tags
	if tags == nil {
		tags = []string{}
	}

	var publishedAt *time.Time
	if status == string(enums.ArticleStatusPublished) {
		publishedAt = &now
	}

	var id int64
	err := db.QueryRow(ctx, `
INSERT INTO articles (
	slug, title, excerpt, content, content_type, status, category, tags, cover_image_key,
	source_url, sponsor_name, author_id, published_at, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)
RETURNING id
`, slug, a.Title, a.Excerpt, a.Content, string(a.ContentType), status, a.Category, tags, a.CoverImageKey,
		a.SourceURL, a.SponsorName, authorID, publishedAt, now).Scan(&id)
	return id, err
}

func scanArticle(row pgx.Row) (model.Article, error) {
	var (
		item                model.Article
		contentType, status string
	)
	if err := row.Scan(
		&item.ID,
		&item.Slug,
		&item.Title,
		&item.Excerpt,
		&item.Content,
		&contentType,
		&status,
		&item.Category,
		&item.Tags,
		&item.CoverImageKey,
		&item.SourceURL,
		&item.SponsorName,
		&item.AuthorID,
		&item.ViewCount,
		&item.PublishedAt,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return model.Article{}, err
	}
	item.ContentType = enums.ArticleContentType(contentType)
	item.Status = enums.ArticleStatus(status)
	return item, nil
}
