package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coinmews/coinmews/internal/domain/enums"
)

// TimelineRecord is an approved dated row whose status may need to advance.
type TimelineRecord struct {
	ID        int64
	Status    string
	StartDate time.Time
	EndDate   time.Time
}

type TimelineRepo struct {
	pool *pgxpool.Pool
}

func NewTimelineRepo(pool *pgxpool.Pool) *TimelineRepo {
	return &TimelineRepo{pool: pool}
}

// ListDue pages through upcoming rows whose window has opened and ongoing rows
// whose window has closed, ordered by id after afterID.
func (r *TimelineRepo) ListDue(ctx context.Context, modelType enums.ModelType, now time.Time, afterID int64, limit int) ([]TimelineRecord, error) {
	if r.pool == nil {
		return nil, errNilPool
	}
	table, err := tableFor(modelType)
	if err != nil {
		return nil, err
	}
	if !table.dated {
		return nil, nil
	}
	if limit <= 0 {
		limit = 1000
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, status, start_date, end_date
FROM `+table.name+`
WHERE id > $2
  AND ((status = 'upcoming' AND start_date <= $1) OR (status = 'ongoing' AND end_date < $1))
ORDER BY id
LIMIT $3
`, now, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list due %s: %w", modelType, err)
	}
	defer rows.Close()

	items := make([]TimelineRecord, 0)
	for rows.Next() {
		var item TimelineRecord
		if err := rows.Scan(&item.ID, &item.Status, &item.StartDate, &item.EndDate); err != nil {
			return nil, fmt.Errorf("scan due %s: %w", modelType, err)
		}
		items = append(items, item)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate due %s: %w", modelType, rows.Err())
	}

	return items, nil
}

// Advance moves a row from one approved status to another only if it still has from.
func (r *TimelineRepo) Advance(ctx context.Context, modelType enums.ModelType, id int64, from, to string) (bool, error) {
	if r.pool == nil {
		return false, errNilPool
	}
	table, err := tableFor(modelType)
	if err != nil {
		return false, err
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE `+table.name+` SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2
`, id, from, to)
	if err != nil {
		return false, fmt.Errorf("advance %s status: %w", modelType, err)
	}

	return tag.RowsAffected() > 0, nil
}
