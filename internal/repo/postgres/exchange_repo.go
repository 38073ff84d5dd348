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

var ErrExchangeNotFound = errors.New("exchange not found")

const exchangeColumns = `id, slug, name, url, logo_key, country, trading_volume_24h, trust_score, is_active, view_count, created_at, updated_at`

type ExchangeRepo struct {
	pool *pgxpool.Pool
}

func NewExchangeRepo(pool *pgxpool.Pool) *ExchangeRepo {
	return &ExchangeRepo{pool: pool}
}

func (r *ExchangeRepo) Create(ctx context.Context, exchange model.Exchange) (model.Exchange, error) {
	if r.pool == nil {
		return model.Exchange{}, errNilPool
	}

	var created model.Exchange
	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		id, _, err := insertWithSlug(ctx, tx, exchange.Name, func(ctx context.Context, db DBTX, s string) (int64, error) {
			var id int64
			err := db.QueryRow(ctx, `
INSERT INTO exchanges (slug, name, url, logo_key, country, trading_volume_24h, trust_score, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
RETURNING id
`, s, exchange.Name, exchange.URL, exchange.LogoKey, exchange.Country, exchange.TradingVolume24h,
				exchange.TrustScore, exchange.IsActive).Scan(&id)
			return id, err
		})
		if err != nil {
			return fmt.Errorf("insert exchange: %w", err)
		}

		created, err = scanExchange(tx.QueryRow(ctx, `SELECT `+exchangeColumns+` FROM exchanges WHERE id = $1`, id))
		if err != nil {
			return fmt.Errorf("reload exchange: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Exchange{}, err
	}

	return created, nil
}

func (r *ExchangeRepo) ListVisible(ctx context.Context, filter CatalogFilter) ([]model.Exchange, int, error) {
	if r.pool == nil {
		return nil, 0, errNilPool
	}

	w := newWhere(catalogTables[enums.ContentKindExchange].visibility)
	w.contains("name", filter.Query)

	total, err := countRows(ctx, r.pool, "exchanges", w)
	if err != nil {
		return nil, 0, err
	}

	page := w.page(filter.Limit, filter.Offset)
	rows, err := r.pool.Query(ctx, `
SELECT `+exchangeColumns+`
FROM exchanges
WHERE `+w.sql()+`
ORDER BY trust_score DESC, trading_volume_24h DESC, id ASC
`+page, w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list exchanges: %w", err)
	}
	defer rows.Close()

	items := make([]model.Exchange, 0)
	for rows.Next() {
		item, err := scanExchange(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan exchange: %w", err)
		}
		items = append(items, item)
	}
	if rows.Err() != nil {
		return nil, 0, fmt.Errorf("iterate exchanges: %w", rows.Err())
	}

	return items, total, nil
}

func (r *ExchangeRepo) GetVisibleBySlug(ctx context.Context, slug string) (model.Exchange, error) {
	if r.pool == nil {
		return model.Exchange{}, errNilPool
	}

	item, err := scanExchange(r.pool.QueryRow(ctx, `
SELECT `+exchangeColumns+`
FROM exchanges
WHERE slug = $1 AND is_active
`, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Exchange{}, ErrExchangeNotFound
		}
		return model.Exchange{}, fmt.Errorf("get exchange by slug: %w", err)
	}

	return item, nil
}

func scanExchange(row pgx.Row) (model.Exchange, error) {
	var item model.Exchange
	if err := row.Scan(
		&item.ID,
		&item.Slug,
		&item.Name,
		&item.URL,
		&item.LogoKey,
		&item.Country,
		&item.TradingVolume24h,
		&item.TrustScore,
		&item.IsActive,
		&item.ViewCount,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return model.Exchange{}, err
	}
	return item, nil
}
