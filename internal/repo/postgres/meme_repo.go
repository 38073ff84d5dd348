package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coinmews/coinmews/internal/domain/enums"
	"github.com/coinmews/coinmews/internal/domain/model"
)

var ErrMemeNotFound = errors.New("meme not found")

const memeColumns = `id, slug, title, kind, media_key, video_url, upvotes, is_published, view_count, created_at`

type MemeRepo struct {
	pool *pgxpool.Pool
}

func NewMemeRepo(pool *pgxpool.Pool) *MemeRepo {
	return &MemeRepo{pool: pool}
}

// Create stores a meme and marks its uploaded media as attached.
func (r *MemeRepo) Create(ctx context.Context, meme model.Meme, ownerID int64) (model.Meme, error) {
	if r.pool == nil {
		return model.Meme{}, errNilPool
	}
	if meme.Kind == "" {
		meme.Kind = enums.MediaKindMeme
	}

	var created model.Meme
	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		id, _, err := insertWithSlug(ctx, tx, meme.Title, func(ctx context.Context, db DBTX, s string) (int64, error) {
			var id int64
			err := db.QueryRow(ctx, `
INSERT INTO memes (slug, title, kind, media_key, video_url, is_published, created_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW())
RETURNING id
`, s, meme.Title, string(meme.Kind), meme.MediaKey, meme.VideoURL, meme.IsPublished).Scan(&id)
			return id, err
		})
		if err != nil {
			return fmt.Errorf("insert meme: %w", err)
		}

		if meme.MediaKey != nil {
			if err := attachMedia(ctx, tx, ownerID, []string{*meme.MediaKey}); err != nil {
				return err
			}
		}

		created, err = scanMeme(tx.QueryRow(ctx, `SELECT `+memeColumns+` FROM memes WHERE id = $1`, id))
		if err != nil {
			return fmt.Errorf("reload meme: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Meme{}, err
	}

	return created, nil
}

func (r *MemeRepo) ListVisible(ctx context.Context, filter CatalogFilter) ([]model.Meme, int, error) {
	if r.pool == nil {
		return nil, 0, errNilPool
	}

	w := newWhere(catalogTables[enums.ContentKindMeme].visibility)
	w.eq("kind", filter.Kind)
	w.contains("title", filter.Query)

	total, err := countRows(ctx, r.pool, "memes", w)
	if err != nil {
		return nil, 0, err
	}

	page := w.page(filter.Limit, filter.Offset)
	rows, err := r.pool.Query(ctx, `
SELECT `+memeColumns+`
FROM memes
WHERE `+w.sql()+`
ORDER BY created_at DESC, id DESC
`+page, w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list memes: %w", err)
	}
	defer rows.Close()

	items := make([]model.Meme, 0)
	for rows.Next() {
		item, err := scanMeme(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan meme: %w", err)
		}
		items = append(items, item)
	}
	if rows.Err() != nil {
		return nil, 0, fmt.Errorf("iterate memes: %w", rows.Err())
	}

	return items, total, nil
}

func (r *MemeRepo) GetVisibleBySlug(ctx context.Context, slug string) (model.Meme, error) {
	if r.pool == nil {
		return model.Meme{}, errNilPool
	}

	item, err := scanMeme(r.pool.QueryRow(ctx, `
SELECT `+memeColumns+`
FROM memes
WHERE slug = $1 AND is_published
`, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Meme{}, ErrMemeNotFound
		}
		return model.Meme{}, fmt.Errorf("get meme by slug: %w", err)
	}

	return item, nil
}

func scanMeme(row pgx.Row) (model.Meme, error) {
	var (
		item model.Meme
		kind string
	)
	if err := row.Scan(
		&item.ID,
		&item.Slug,
		&item.Title,
		&kind,
		&item.MediaKey,
		&item.VideoURL,
		&item.Upvotes,
		&item.IsPublished,
		&item.ViewCount,
		&item.CreatedAt,
	); err != nil {
		return model.Meme{}, err
	}
	item.Kind = enums.MediaKind(kind)
	return item, nil
}
