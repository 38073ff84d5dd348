package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/coinmews/coinmews/internal/domain/enums"
	"github.com/coinmews/coinmews/internal/pkg/slug"
)

var (
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrModelNotFound      = errors.New("model not found")
	ErrModelMissing       = errors.New("submission model is missing")
	ErrInvalidTransition  = errors.New("invalid submission status transition")
	ErrUnknownModelType   = errors.New("unknown model type")
	ErrSlugExhausted      = errors.New("could not allocate unique slug")
)

const (
	pgUniqueViolation = "23505"
	maxSlugAttempts   = 50
)

type modelTable struct {
	name        string
	titleColumn string
	ownerColumn string
	contentType string
	dated       bool
}

var modelTables = map[enums.ModelType]modelTable{
	enums.ModelTypeAirdrop: {name: "airdrops", titleColumn: "project_name", ownerColumn: "submitted_by", contentType: "''", dated: true},
	enums.ModelTypePresale: {name: "presales", titleColumn: "project_name", ownerColumn: "submitted_by", contentType: "''", dated: true},
	enums.ModelTypeEvent:   {name: "events", titleColumn: "title", ownerColumn: "organizer_id", contentType: "''", dated: true},
	enums.ModelTypeArticle: {name: "articles", titleColumn: "title", ownerColumn: "author_id", contentType: "content_type"},
}

func tableFor(modelType enums.ModelType) (modelTable, error) {
	table, ok := modelTables[modelType]
	if !ok {
		return modelTable{}, fmt.Errorf("%w: %s", ErrUnknownModelType, modelType)
	}
	return table, nil
}

// modelState is the locked view of a concrete row used when a decision changes its status.
type modelState struct {
	Status      string
	Title       string
	ContentType string
	OwnerID     *int64
	StartDate   time.Time
	EndDate     time.Time
}

func lockModelState(ctx context.Context, db DBTX, modelType enums.ModelType, id int64) (modelState, error) {
	table, err := tableFor(modelType)
	if err != nil {
		return modelState{}, err
	}

	dates := "NULL::timestamptz, NULL::timestamptz"
	if table.dated {
		dates = "start_date, end_date"
	}

	var (
		state      modelState
		start, end *time.Time
	)
	err = db.QueryRow(ctx, `
SELECT status, `+table.titleColumn+`, `+table.contentType+`, `+table.ownerColumn+`, `+dates+`
FROM `+table.name+`
WHERE id = $1
FOR UPDATE
`, id).Scan(&state.Status, &state.Title, &state.ContentType, &state.OwnerID, &start, &end)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return modelState{}, ErrModelNotFound
		}
		return modelState{}, fmt.Errorf("lock %s %d: %w", modelType, id, err)
	}
	if start != nil {
		state.StartDate = *start
	}
	if end != nil {
		state.EndDate = *end
	}

	return state, nil
}

func updateModelStatus(ctx context.Context, db DBTX, modelType enums.ModelType, id int64, status string, now time.Time) error {
	table, err := tableFor(modelType)
	if err != nil {
		return err
	}

	query := `UPDATE ` + table.name + ` SET status = $2, updated_at = $3 WHERE id = $1`
	if modelType == enums.ModelTypeArticle && status == string(enums.ArticleStatusPublished) {
		query = `UPDATE articles SET status = $2, updated_at = $3, published_at = COALESCE(published_at, $3) WHERE id = $1`
	}

	tag, err := db.Exec(ctx, query, id, status, now)
	if err != nil {
		return fmt.Errorf("update %s status: %w", modelType, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrModelNotFound
	}

	return nil
}

// insertWithSlug retries insert under a savepoint until the slug derived from title is free.
func insertWithSlug(ctx context.Context, tx pgx.Tx, title string, insert func(ctx context.Context, db DBTX, slug string) (int64, error)) (int64, string, error) {
	base := slug.Make(title)

	for attempt := 1; attempt <= maxSlugAttempts; attempt++ {
		candidate := slug.WithSuffix(base, attempt)

		sp, err := tx.Begin(ctx)
		if err != nil {
			return 0, "", fmt.Errorf("begin savepoint: %w", err)
		}

		id, err := insert(ctx, sp, candidate)
		if err != nil {
			_ = sp.Rollback(ctx)
			if isSlugConflict(err) {
				continue
			}
			return 0, "", err
		}

		if err := sp.Commit(ctx); err != nil {
			return 0, "", fmt.Errorf("release savepoint: %w", err)
		}
		return id, candidate, nil
	}

	return 0, "", ErrSlugExhausted
}

func isSlugConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgUniqueViolation && strings.HasSuffix(pgErr.ConstraintName, "_slug_key")
}
