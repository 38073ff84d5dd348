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

var ErrEventNotFound = errors.New("event not found")

const eventColumns = `id, slug, title, description, event_type, location, is_virtual, url, banner_key,
	start_date, end_date, status, organizer_id, view_count, created_at, updated_at`

type EventRepo struct {
	pool *pgxpool.Pool
}

func NewEventRepo(pool *pgxpool.Pool) *EventRepo {
	return &EventRepo{pool: pool}
}

func (r *EventRepo) ListVisible(ctx context.Context, filter CatalogFilter) ([]model.Event, int, error) {
	if r.pool == nil {
		return nil, 0, errNilPool
	}

	w := newWhere(catalogTables[enums.ContentKindEvent].visibility)
	w.eq("status", filter.Status)
	w.eq("event_type", filter.EventType)
	w.contains("title", filter.Query)

	total, err := countRows(ctx, r.pool, "events", w)
	if err != nil {
		return nil, 0, err
	}

	page := w.page(filter.Limit, filter.Offset)
	rows, err := r.pool.Query(ctx, `
SELECT `+eventColumns+`
FROM events
WHERE `+w.sql()+`
ORDER BY start_date ASC, id ASC
`+page, w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	items := make([]model.Event, 0)
	for rows.Next() {
		item, err := scanEvent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan event: %w", err)
		}
		items = append(items, item)
	}
	if rows.Err() != nil {
		return nil, 0, fmt.Errorf("iterate events: %w", rows.Err())
	}

	return items, total, nil
}

func (r *EventRepo) GetVisibleBySlug(ctx context.Context, slug string) (model.Event, error) {
	if r.pool == nil {
		return model.Event{}, errNilPool
	}

	item, err := scanEvent(r.pool.QueryRow(ctx, `
SELECT `+eventColumns+`
FROM events
WHERE slug = $1 AND `+catalogTables[enums.ContentKindEvent].visibility, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Event{}, ErrEventNotFound
		}
		return model.Event{}, fmt.Errorf("get event by slug: %w", err)
	}

	return item, nil
}

func scanEvent(row pgx.Row) (model.Event, error) {
	var (
		item              model.Event
		eventType, status string
	)
	if err := row.Scan(
		&item.ID,
		&item.Slug,
		&item.Title,
		&item.Description,
		&eventType,
		&item.Location,
		&item.IsVirtual,
		&item.URL,
		&item.BannerKey,
		&item.StartDate,
		&item.EndDate,
		&status,
		&item.OrganizerID,
		&item.ViewCount,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return model.Event{}, err
	}
	item.EventType = enums.EventType(eventType)
	item.Status = enums.EventStatus(status)
	return item, nil
}
