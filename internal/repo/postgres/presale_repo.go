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

var ErrPresaleNotFound = errors.New("presale not found")

const presaleColumns = `id, slug, project_name, token_symbol, blockchain, description, token_price, soft_cap, hard_cap,
	website_url, logo_key, start_date, end_date, status, submitted_by, view_count, score, created_at, updated_at`

type PresaleRepo struct {
	pool *pgxpool.Pool
}

func NewPresaleRepo(pool *pgxpool.Pool) *PresaleRepo {
	return &PresaleRepo{pool: pool}
}

func (r *PresaleRepo) ListVisible(ctx context.Context, filter CatalogFilter) ([]model.Presale, int, error) {
	if r.pool == nil {
		return nil, 0, errNilPool
	}

	w := newWhere(catalogTables[enums.ContentKindPresale].visibility)
	w.eq("status", filter.Status)
	w.eq("blockchain", filter.Blockchain)
	w.contains("project_name", filter.Query)

	total, err := countRows(ctx, r.pool, "presales", w)
	if err != nil {
		return nil, 0, err
	}

	page := w.page(filter.Limit, filter.Offset)
	rows, err := r.pool.Query(ctx, `
SELECT `+presaleColumns+`
FROM presales
WHERE `+w.sql()+`
ORDER BY CASE status WHEN 'ongoing' THEN 0 WHEN 'upcoming' THEN 1 ELSE 2 END, start_date DESC, id DESC
`+page, w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list presales: %w", err)
	}
	defer rows.Close()

	items := make([]model.Presale, 0)
	for rows.Next() {
		item, err := scanPresale(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan presale: %w", err)
		}
		items = append(items, item)
	}
	if rows.Err() != nil {
		return nil, 0, fmt.Errorf("iterate presales: %w", rows.Err())
	}

	return items, total, nil
}

func (r *PresaleRepo) GetVisibleBySlug(ctx context.Context, slug string) (model.Presale, error) {
	if r.pool == nil {
		return model.Presale{}, errNilPool
	}

	item, err := scanPresale(r.pool.QueryRow(ctx, `
SELECT `+presaleColumns+`
FROM presales
WHERE slug = $1 AND `+catalogTables[enums.ContentKindPresale].visibility, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Presale{}, ErrPresaleNotFound
		}
		return model.Presale{}, fmt.Errorf("get presale by slug: %w", err)
	}

	return item, nil
}

func scanPresale(row pgx.Row) (model.Presale, error) {
	var (
		item   model.Presale
		status string
	)
	if err := row.Scan(
		&item.ID,
		&item.Slug,
		&item.ProjectName,
		&item.TokenSymbol,
		&item.Blockchain,
		&item.Description,
		&item.TokenPrice,
		&item.SoftCap,
		&item.HardCap,
		&item.WebsiteURL,
		&item.LogoKey,
		&item.StartDate,
		&item.EndDate,
		&status,
		&item.SubmittedBy,
		&item.ViewCount,
		&item.Score,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return model.Presale{}, err
	}
	item.Status = enums.TokenSaleStatus(status)
	return item, nil
}
