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

var ErrAirdropNotFound = errors.New("airdrop not found")

const airdropColumns = `id, slug, project_name, token_symbol, blockchain, description, requirements, reward_amount,
	total_supply, website_url, logo_key, start_date, end_date, status, submitted_by, view_count, score, created_at, updated_at`

type AirdropRepo struct {
	pool *pgxpool.Pool
}

func NewAirdropRepo(pool *pgxpool.Pool) *AirdropRepo {
	return &AirdropRepo{pool: pool}
}

func (r *AirdropRepo) ListVisible(ctx context.Context, filter CatalogFilter) ([]model.Airdrop, int, error) {
	if r.pool == nil {
		return nil, 0, errNilPool
	}

	w := newWhere(catalogTables[enums.ContentKindAirdrop].visibility)
	w.eq("status", filter.Status)
	w.eq("blockchain", filter.Blockchain)
	w.contains("project_name", filter.Query)

	total, err := countRows(ctx, r.pool, "airdrops", w)
	if err != nil {
		return nil, 0, err
	}

	page := w.page(filter.Limit, filter.Offset)
	rows, err := r.pool.Query(ctx, `
SELECT `+airdropColumns+`
FROM airdrops
WHERE `+w.sql()+`
ORDER BY CASE status WHEN 'ongoing' THEN 0 WHEN 'upcoming' THEN 1 ELSE 2 END, start_date DESC, id DESC
`+page, w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list airdrops: %w", err)
	}
	defer rows.Close()

	items := make([]model.Airdrop, 0)
	for rows.Next() {
		item, err := scanAirdrop(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan airdrop: %w", err)
		}
		items = append(items, item)
	}
	if rows.Err() != nil {
		return nil, 0, fmt.Errorf("iterate airdrops: %w", rows.Err())
	}

	return items, total, nil
}

func (r *AirdropRepo) GetVisibleBySlug(ctx context.Context, slug string) (model.Airdrop, error) {
	if r.pool == nil {
		return model.Airdrop{}, errNilPool
	}

	item, err := scanAirdrop(r.pool.QueryRow(ctx, `
SELECT `+airdropColumns+`
FROM airdrops
WHERE slug = $1 AND `+catalogTables[enums.ContentKindAirdrop].visibility, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Airdrop{}, ErrAirdropNotFound
		}
		return model.Airdrop{}, fmt.Errorf("get airdrop by slug: %w", err)
	}

	return item, nil
}

func scanAirdrop(row pgx.Row) (model.Airdrop, error) {
	var (
		item   model.Airdrop
		status string
	)
	if err := row.Scan(
		&item.ID,
		&item.Slug,
		&item.ProjectName,
		&item.TokenSymbol,
		&item.Blockchain,
		&item.Description,
		&item.Requirements,
		&item.RewardAmount,
		&item.TotalSupply,
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
		return model.Airdrop{}, err
	}
	item.Status = enums.TokenSaleStatus(status)
	return item, nil
}
