package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coinmews/coinmews/internal/domain/enums"
	"github.com/coinmews/coinmews/internal/domain/model"
)

type AuditRepo struct {
	pool *pgxpool.Pool
}

type AuditWriteRecord struct {
	ActorID *int64
	Action  enums.AuditAction
	Payload map[string]any
}

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

func (r *AuditRepo) InsertBatch(ctx context.Context, records []AuditWriteRecord) error {
	if len(records) == 0 {
		return nil
	}
	if r.pool == nil {
		return errNilPool
	}

	batch := &pgx.Batch{}
	for _, record := range records {
		payload := record.Payload
		if payload == nil {
			payload = map[string]any{}
		}
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal audit payload: %w", err)
		}
		batch.Queue(`
INSERT INTO audit_log (actor_id, action, payload, created_at)
VALUES ($1, $2, $3::jsonb, NOW())
`, record.ActorID, string(record.Action), string(raw))
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range records {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert audit entry: %w", err)
		}
	}

	return nil
}

func (r *AuditRepo) List(ctx context.Context, action enums.AuditAction, limit, offset int) ([]model.AuditEntry, error) {
	if r.pool == nil {
		return nil, errNilPool
	}

	w := newWhere("TRUE")
	w.eq("action", string(action))
	page := w.page(limit, offset)

	rows, err := r.pool.Query(ctx, `
SELECT id, actor_id, action, payload, created_at
FROM audit_log
WHERE `+w.sql()+`
ORDER BY created_at DESC, id DESC
`+page, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	items := make([]model.AuditEntry, 0)
	for rows.Next() {
		var (
			item    model.AuditEntry
			action  string
			payload []byte
		)
		if err := rows.Scan(&item.ID, &item.ActorID, &action, &payload, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		item.Action = enums.AuditAction(action)
		item.Payload = json.RawMessage(payload)
		items = append(items, item)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", rows.Err())
	}

	return items, nil
}
