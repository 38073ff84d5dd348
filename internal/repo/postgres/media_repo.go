package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coinmews/coinmews/internal/domain/model"
)

type MediaRepo struct {
	pool *pgxpool.Pool
}

func NewMediaRepo(pool *pgxpool.Pool) *MediaRepo {
	return &MediaRepo{pool: pool}
}

func (r *MediaRepo) Create(ctx context.Context, upload model.MediaUpload) (model.MediaUpload, error) {
	if r.pool == nil {
		return model.MediaUpload{}, errNilPool
	}
	if upload.OwnerID <= 0 || upload.ObjectKey == "" {
		return model.MediaUpload{}, fmt.Errorf("invalid media upload payload")
	}

	err := r.pool.QueryRow(ctx, `
INSERT INTO media_uploads (owner_id, object_key, content_type, size, attached, created_at)
VALUES ($1, $2, $3, $4, FALSE, NOW())
RETURNING id, attached, created_at
`, upload.OwnerID, upload.ObjectKey, upload.ContentType, upload.Size).Scan(&upload.ID, &upload.Attached, &upload.CreatedAt)
	if err != nil {
		return model.MediaUpload{}, fmt.Errorf("insert media upload: %w", err)
	}

	return upload, nil
}

// OwnedKeys returns the subset of keys that were uploaded by ownerID.
func (r *MediaRepo) OwnedKeys(ctx context.Context, ownerID int64, keys []string) ([]string, error) {
	if r.pool == nil {
		return nil, errNilPool
	}
	if len(keys) == 0 {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT object_key
FROM media_uploads
WHERE owner_id = $1 AND object_key = ANY($2)
`, ownerID, keys)
	if err != nil {
		return nil, fmt.Errorf("query owned media keys: %w", err)
	}
	defer rows.Close()

	owned := make([]string, 0, len(keys))
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan owned media key: %w", err)
		}
		owned = append(owned, key)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate owned media keys: %w", rows.Err())
	}

	return owned, nil
}

func (r *MediaRepo) MarkAttached(ctx context.Context, ownerID int64, keys []string) error {
	if r.pool == nil {
		return errNilPool
	}
	return attachMedia(ctx, r.pool, ownerID, keys)
}

func attachMedia(ctx context.Context, db DBTX, ownerID int64, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	if _, err := db.Exec(ctx, `
UPDATE media_uploads
SET attached = TRUE
WHERE owner_id = $1 AND object_key = ANY($2)
`, ownerID, keys); err != nil {
		return fmt.Errorf("mark media attached: %w", err)
	}
	return nil
}

// ListOrphans returns uploads never attached to content and older than before.
func (r *MediaRepo) ListOrphans(ctx context.Context, before time.Time, limit int) ([]model.MediaUpload, error) {
	if r.pool == nil {
		return nil, errNilPool
	}
	if limit <= 0 {
		limit = 200
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, owner_id, object_key, content_type, size, attached, created_at
FROM media_uploads
WHERE attached = FALSE AND created_at < $1
ORDER BY created_at ASC
LIMIT $2
`, before, limit)
	if err != nil {
		return nil, fmt.Errorf("list orphan media: %w", err)
	}
	defer rows.Close()

	items := make([]model.MediaUpload, 0)
	for rows.Next() {
		var item model.MediaUpload
		if err := rows.Scan(&item.ID, &item.OwnerID, &item.ObjectKey, &item.ContentType, &item.Size, &item.Attached, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan orphan media: %w", err)
		}
		items = append(items, item)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate orphan media: %w", rows.Err())
	}

	return items, nil
}

func (r *MediaRepo) Delete(ctx context.Context, id int64) error {
	if r.pool == nil {
		return errNilPool
	}

	if _, err := r.pool.Exec(ctx, `DELETE FROM media_uploads WHERE id = $1 AND attached = FALSE`, id); err != nil {
		return fmt.Errorf("delete media upload: %w", err)
	}
	return nil
}
