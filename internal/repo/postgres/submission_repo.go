package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coinmews/coinmews/internal/domain/enums"
	"github.com/coinmews/coinmews/internal/domain/model"
	"github.com/coinmews/coinmews/internal/domain/rules"
)

const submissionColumns = `id, type, status, model_type, model_id, title, submitted_by, reviewed_by, reviewed_at, feedback, created_at, updated_at`

type SubmissionRepo struct {
	pool *pgxpool.Pool
}

// NewSubmission carries exactly one concrete model matching Type.
type NewSubmission struct {
	Type        enums.SubmissionType
	Title       string
	SubmittedBy int64
	Airdrop     *model.Airdrop
	Presale     *model.Presale
	Event       *model.Event
	Article     *model.Article
	MediaKeys   []string
	Now         time.Time
}

type SubmissionFilter struct {
	Status      enums.SubmissionStatus
	Type        enums.SubmissionType
	SubmittedBy int64
	Limit       int
	Offset      int
}

type Decision struct {
	SubmissionID int64
	Target       enums.SubmissionStatus
	ActorID      int64
	Feedback     *string
	Now          time.Time
}

type ModelStatusChange struct {
	Ref               model.ModelRef
	Previous          string
	Status            string
	Submission        *model.Submission
	SubmissionChanged bool
}

type ModelSummary struct {
	Type   enums.ModelType `json:"type"`
	ID     int64           `json:"id"`
	Slug   string          `json:"slug"`
	Title  string          `json:"title"`
	Status string          `json:"status"`
}

// TrackedModel pairs a submission with the native status of the row it points at.
type TrackedModel struct {
	SubmissionID     int64
	SubmissionStatus enums.SubmissionStatus
	ModelID          int64
	ModelStatus      string
}

func NewSubmissionRepo(pool *pgxpool.Pool) *SubmissionRepo {
	return &SubmissionRepo{pool: pool}
}

// Create inserts the concrete row and its pending submission in one transaction.
func (r *SubmissionRepo) Create(ctx context.Context, in NewSubmission) (model.Submission, error) {
	if r.pool == nil {
		return model.Submission{}, errNilPool
	}
	modelType, ok := rules.ModelTypeFor(in.Type)
	if !ok {
		return model.Submission{}, fmt.Errorf("%w: submission type %s", ErrUnknownModelType, in.Type)
	}
	if in.Now.IsZero() {
		in.Now = time.Now().UTC()
	}

	var created model.Submission
	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		modelID, err := insertSubmittedModel(ctx, tx, modelType, in)
		if err != nil {
			return err
		}

		row := tx.QueryRow(ctx, `
INSERT INTO submissions (type, status, model_type, model_id, title, submitted_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
RETURNING `+submissionColumns,
			string(in.Type), string(enums.SubmissionStatusPending), string(modelType), modelID,
			strings.TrimSpace(in.Title), in.SubmittedBy, in.Now,
		)
		created, err = scanSubmission(row)
		if err != nil {
			return fmt.Errorf("insert submission: %w", err)
		}

		if len(in.MediaKeys) > 0 {
			if err := attachMedia(ctx, tx, in.SubmittedBy, in.MediaKeys); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return model.Submission{}, err
	}

	return created, nil
}

func insertSubmittedModel(ctx context.Context, tx pgx.Tx, modelType enums.ModelType, in NewSubmission) (int64, error) {
	var (
		id  int64
		err error
	)

	switch modelType {
	case enums.ModelTypeAirdrop:
		if in.Airdrop == nil {
			return 0, fmt.Errorf("airdrop payload is missing")
		}
		a := in.Airdrop
		id, _, err = insertWithSlug(ctx, tx, a.ProjectName+" "+a.TokenSymbol, func(ctx context.Context, db DBTX, s string) (int64, error) {
			var id int64
			err := db.QueryRow(ctx, `
INSERT INTO airdrops (
	slug, project_name, token_symbol, blockchain, description, requirements, reward_amount,
	total_supply, website_url, logo_key, start_date, end_date, status, submitted_by, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 'pending', $13, $14, $14)
RETURNING id
`, s, a.ProjectName, a.TokenSymbol, a.Blockchain, a.Description, a.Requirements, a.RewardAmount,
				a.TotalSupply, a.WebsiteURL, a.LogoKey, a.StartDate, a.EndDate, in.SubmittedBy, in.Now).Scan(&id)
			return id, err
		})
	case enums.ModelTypePresale:
		if in.Presale == nil {
			return 0, fmt.Errorf("presale payload is missing")
		}
		p := in.Presale
		id, _, err = insertWithSlug(ctx, tx, p.ProjectName+" "+p.TokenSymbol+" presale", func(ctx context.Context, db DBTX, s string) (int64, error) {
			var id int64
			err := db.QueryRow(ctx, `
INSERT INTO presales (
	slug, project_name, token_symbol, blockchain, description, token_price, soft_cap, hard_cap,
	website_url, logo_key, start_date, end_date, status, submitted_by, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 'pending', $13, $14, $14)
RETURNING id
`, s, p.ProjectName, p.TokenSymbol, p.Blockchain, p.Description, p.TokenPrice, p.SoftCap, p.HardCap,
				p.WebsiteURL, p.LogoKey, p.StartDate, p.EndDate, in.SubmittedBy, in.Now).Scan(&id)
			return id, err
		})
	case enums.ModelTypeEvent:
		if in.Event == nil {
			return 0, fmt.Errorf("event payload is missing")
		}
		e := in.Event
		id, _, err = insertWithSlug(ctx, tx, e.Title, func(ctx context.Context, db DBTX, s string) (int64, error) {
			var id int64
			err := db.QueryRow(ctx, `
INSERT INTO events (
	slug, title, description, event_type, location, is_virtual, url, banner_key,
	start_date, end_date, status, organizer_id, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 'pending', $11, $12, $12)
RETURNING id
`, s, e.Title, e.Description, string(e.EventType), e.Location, e.IsVirtual, e.URL, e.BannerKey,
				e.StartDate, e.EndDate, in.SubmittedBy, in.Now).Scan(&id)
			return id, err
		})
	case enums.ModelTypeArticle:
		if in.Article == nil {
			return 0, fmt.Errorf("article payload is missing")
		}
		a := in.Article
		id, _, err = insertWithSlug(ctx, tx, a.Title, func(ctx context.Context, db DBTX, s string) (int64, error) {
			return insertArticleRow(ctx, db, a, s, string(enums.ArticleStatusPending), &in.SubmittedBy, in.Now)
		})
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownModelType, modelType)
	}
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", modelType, err)
	}

	return id, nil
}

func (r *SubmissionRepo) Get(ctx context.Context, id int64) (model.Submission, error) {
	if r.pool == nil {
		return model.Submission{}, errNilPool
	}

	sub, err := scanSubmission(r.pool.QueryRow(ctx, `SELECT `+submissionColumns+` FROM submissions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Submission{}, ErrSubmissionNotFound
		}
		return model.Submission{}, fmt.Errorf("get submission: %w", err)
	}

	return sub, nil
}

// GetForSubmitter hides other users' rows behind ErrSubmissionNotFound.
func (r *SubmissionRepo) GetForSubmitter(ctx context.Context, id, userID int64) (model.Submission, error) {
	if r.pool == nil {
		return model.Submission{}, errNilPool
	}

	sub, err := scanSubmission(r.pool.QueryRow(ctx, `
SELECT `+submissionColumns+`
FROM submissions
WHERE id = $1 AND submitted_by = $2
`, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Submission{}, ErrSubmissionNotFound
		}
		return model.Submission{}, fmt.Errorf("get submission for submitter: %w", err)
	}

	return sub, nil
}

func (r *SubmissionRepo) List(ctx context.Context, filter SubmissionFilter) ([]model.Submission, int, error) {
	if r.pool == nil {
		return nil, 0, errNilPool
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	where := []string{"TRUE"}
	args := []any{}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Type != "" {
		args = append(args, string(filter.Type))
		where = append(where, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.SubmittedBy > 0 {
		args = append(args, filter.SubmittedBy)
		where = append(where, fmt.Sprintf("submitted_by = $%d", len(args)))
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM submissions WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count submissions: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
SELECT %s
FROM submissions
WHERE %s
ORDER BY created_at DESC, id DESC
LIMIT $%d OFFSET $%d
`, submissionColumns, clause, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	items := make([]model.Submission, 0, filter.Limit)
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan submission: %w", err)
		}
		items = append(items, sub)
	}
	if rows.Err() != nil {
		return nil, 0, fmt.Errorf("iterate submissions: %w", rows.Err())
	}

	return items, total, nil
}

// Decide moves a submission and its model to the target status under row locks.
// The bool result is false when the submission already had the target status.
func (r *SubmissionRepo) Decide(ctx context.Context, d Decision) (model.Submission, bool, error) {
	if r.pool == nil {
		return model.Submission{}, false, errNilPool
	}
	if d.Now.IsZero() {
		d.Now = time.Now().UTC()
	}

	var (
		result  model.Submission
		changed bool
	)
	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		sub, err := scanSubmission(tx.QueryRow(ctx, `SELECT `+submissionColumns+` FROM submissions WHERE id = $1 FOR UPDATE`, d.SubmissionID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrSubmissionNotFound
			}
			return fmt.Errorf("lock submission: %w", err)
		}

		switch rules.Transition(sub.Status, d.Target) {
		case rules.TransitionNoop:
			result = sub
			return nil
		case rules.TransitionInvalid:
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, sub.Status, d.Target)
		}

		ref, ok := sub.Ref()
		if !ok {
			return ErrModelMissing
		}
		state, err := lockModelState(ctx, tx, ref.Type, ref.ID)
		if err != nil {
			if errors.Is(err, ErrModelNotFound) {
				return ErrModelMissing
			}
			return err
		}

		var native string
		switch d.Target {
		case enums.SubmissionStatusApproved:
			native = rules.ApprovedStatusFor(ref.Type, state.StartDate, state.EndDate, d.Now)
		case enums.SubmissionStatusRejected:
			native = rules.RejectedStatusFor(ref.Type)
		default:
			native = rules.ReviewingStatusFor(ref.Type)
		}
		if err := updateModelStatus(ctx, tx, ref.Type, ref.ID, native, d.Now); err != nil {
			return err
		}

		query := `
UPDATE submissions
SET status = $2, reviewed_by = $3, reviewed_at = $4, feedback = $5, updated_at = $4
WHERE id = $1
RETURNING ` + submissionColumns
		args := []any{sub.ID, string(d.Target), d.ActorID, d.Now, d.Feedback}
		if d.Target == enums.SubmissionStatusReviewing {
			query = `
UPDATE submissions
SET status = $2, reviewed_by = $3, updated_at = $4
WHERE id = $1
RETURNING ` + submissionColumns
			args = args[:4]
		}

		result, err = scanSubmission(tx.QueryRow(ctx, query, args...))
		if err != nil {
			return fmt.Errorf("update submission status: %w", err)
		}
		changed = true
		return nil
	})
	if err != nil {
		return model.Submission{}, false, err
	}

	return result, changed, nil
}

// SetModelStatus writes a native status and keeps the tracking row in step within the same transaction.
func (r *SubmissionRepo) SetModelStatus(ctx context.Context, ref model.ModelRef, status string, now time.Time) (ModelStatusChange, error) {
	if r.pool == nil {
		return ModelStatusChange{}, errNilPool
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	change := ModelStatusChange{Ref: ref, Status: status}
	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		state, err := lockModelState(ctx, tx, ref.Type, ref.ID)
		if err != nil {
			return err
		}
		change.Previous = state.Status

		if err := updateModelStatus(ctx, tx, ref.Type, ref.ID, status, now); err != nil {
			return err
		}

		mapped := rules.SubmissionStatusFor(ref.Type, status)
		sub, err := scanSubmission(tx.QueryRow(ctx, `
SELECT `+submissionColumns+`
FROM submissions
WHERE model_type = $1 AND model_id = $2
FOR UPDATE
`, string(ref.Type), ref.ID))
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("lock submission by model: %w", err)
		}

		if errors.Is(err, pgx.ErrNoRows) {
			submissionType, ok := rules.SubmissionTypeFor(ref.Type, state.ContentType)
			if !ok {
				return nil
			}
			created, inserted, err := insertTracked(ctx, tx, model.Submission{
				Type:        submissionType,
				Status:      mapped,
				ModelType:   &ref.Type,
				ModelID:     &ref.ID,
				Title:       state.Title,
				SubmittedBy: state.OwnerID,
				CreatedAt:   now,
			})
			if err != nil {
				return err
			}
			if inserted {
				change.Submission = &created
				change.SubmissionChanged = true
			}
			return nil
		}

		next, changed := rules.ResyncStatus(sub.Status, mapped)
		if changed {
			sub, err = scanSubmission(tx.QueryRow(ctx, `
UPDATE submissions SET status = $2, updated_at = $3 WHERE id = $1
RETURNING `+submissionColumns, sub.ID, string(next), now))
			if err != nil {
				return fmt.Errorf("sync submission status: %w", err)
			}
		}
		change.Submission = &sub
		change.SubmissionChanged = changed
		return nil
	})
	if err != nil {
		return ModelStatusChange{}, err
	}

	return change, nil
}

// DeleteModel removes a concrete row together with its submission.
func (r *SubmissionRepo) DeleteModel(ctx context.Context, ref model.ModelRef) (bool, error) {
	if r.pool == nil {
		return false, errNilPool
	}
	table, err := tableFor(ref.Type)
	if err != nil {
		return false, err
	}

	var hadSubmission bool
	err = WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM submissions WHERE model_type = $1 AND model_id = $2`, string(ref.Type), ref.ID)
		if err != nil {
			return fmt.Errorf("delete submission: %w", err)
		}
		hadSubmission = tag.RowsAffected() > 0

		tag, err = tx.Exec(ctx, `DELETE FROM `+table.name+` WHERE id = $1`, ref.ID)
		if err != nil {
			return fmt.Errorf("delete %s: %w", ref.Type, err)
		}
		if tag.RowsAffected() == 0 {
			return ErrModelNotFound
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	return hadSubmission, nil
}

func (r *SubmissionRepo) ModelSummary(ctx context.Context, ref model.ModelRef) (ModelSummary, error) {
	if r.pool == nil {
		return ModelSummary{}, errNilPool
	}
	table, err := tableFor(ref.Type)
	if err != nil {
		return ModelSummary{}, err
	}

	summary := ModelSummary{Type: ref.Type, ID: ref.ID}
	err = r.pool.QueryRow(ctx, `
SELECT slug, `+table.titleColumn+`, status
FROM `+table.name+`
WHERE id = $1
`, ref.ID).Scan(&summary.Slug, &summary.Title, &summary.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ModelSummary{}, ErrModelNotFound
		}
		return ModelSummary{}, fmt.Errorf("get model summary: %w", err)
	}

	return summary, nil
}

// ListUntracked pages through concrete rows of modelType that no submission points at.
func (r *SubmissionRepo) ListUntracked(ctx context.Context, modelType enums.ModelType, afterID int64, limit int) ([]model.ModelSnapshot, error) {
	if r.pool == nil {
		return nil, errNilPool
	}
	table, err := tableFor(modelType)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 500
	}

	rows, err := r.pool.Query(ctx, `
SELECT m.id, m.status, m.`+table.titleColumn+`, `+table.contentType+`, m.`+table.ownerColumn+`, m.created_at
FROM `+table.name+` m
WHERE m.id > $2 AND NOT EXISTS (
	SELECT 1 FROM submissions s WHERE s.model_type = $1 AND s.model_id = m.id
)
ORDER BY m.id
LIMIT $3
`, string(modelType), afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list untracked %s: %w", modelType, err)
	}
	defer rows.Close()

	items := make([]model.ModelSnapshot, 0)
	for rows.Next() {
		snapshot := model.ModelSnapshot{Type: modelType}
		if err := rows.Scan(&snapshot.ID, &snapshot.Status, &snapshot.Title, &snapshot.ContentType, &snapshot.OwnerID, &snapshot.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan untracked %s: %w", modelType, err)
		}
		items = append(items, snapshot)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate untracked %s: %w", modelType, rows.Err())
	}

	return items, nil
}

// InsertTracked inserts a backfilled submission; a concurrent insert for the same model wins silently.
func (r *SubmissionRepo) InsertTracked(ctx context.Context, sub model.Submission) (bool, error) {
	if r.pool == nil {
		return false, errNilPool
	}
	_, inserted, err := insertTracked(ctx, r.pool, sub)
	return inserted, err
}

func insertTracked(ctx context.Context, db DBTX, sub model.Submission) (model.Submission, bool, error) {
	ref, ok := sub.Ref()
	if !ok {
		return model.Submission{}, false, fmt.Errorf("tracked submission requires a model reference")
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}

	created, err := scanSubmission(db.QueryRow(ctx, `
INSERT INTO submissions (type, status, model_type, model_id, title, submitted_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
ON CONFLICT (model_type, model_id) DO NOTHING
RETURNING `+submissionColumns,
		string(sub.Type), string(sub.Status), string(ref.Type), ref.ID, sub.Title, sub.SubmittedBy, sub.CreatedAt,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Submission{}, false, nil
		}
		return model.Submission{}, false, fmt.Errorf("insert tracked submission: %w", err)
	}

	return created, true, nil
}

// ListTracked pages through submissions of modelType joined with their model's native status.
func (r *SubmissionRepo) ListTracked(ctx context.Context, modelType enums.ModelType, afterID int64, limit int) ([]TrackedModel, error) {
	if r.pool == nil {
		return nil, errNilPool
	}
	table, err := tableFor(modelType)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 500
	}

	rows, err := r.pool.Query(ctx, `
SELECT s.id, s.status, m.id, m.status
FROM submissions s
JOIN `+table.name+` m ON m.id = s.model_id
WHERE s.model_type = $1 AND s.id > $2
ORDER BY s.id
LIMIT $3
`, string(modelType), afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list tracked %s: %w", modelType, err)
	}
	defer rows.Close()

	items := make([]TrackedModel, 0)
	for rows.Next() {
		var (
			item   TrackedModel
			status string
		)
		if err := rows.Scan(&item.SubmissionID, &status, &item.ModelID, &item.ModelStatus); err != nil {
			return nil, fmt.Errorf("scan tracked %s: %w", modelType, err)
		}
		item.SubmissionStatus = enums.SubmissionStatus(status)
		items = append(items, item)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate tracked %s: %w", modelType, rows.Err())
	}

	return items, nil
}

// ResyncStatus updates a submission only if it still has the status the caller observed.
func (r *SubmissionRepo) ResyncStatus(ctx context.Context, id int64, from, to enums.SubmissionStatus) (bool, error) {
	if r.pool == nil {
		return false, errNilPool
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE submissions
SET status = $3, updated_at = NOW()
WHERE id = $1 AND status = $2
`, id, string(from), string(to))
	if err != nil {
		return false, fmt.Errorf("resync submission status: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func scanSubmission(row pgx.Row) (model.Submission, error) {
	var (
		sub                    model.Submission
		submissionType, status string
		modelType              *string
	)
	if err := row.Scan(
		&sub.ID,
		&submissionType,
		&status,
		&modelType,
		&sub.ModelID,
		&sub.Title,
		&sub.SubmittedBy,
		&sub.ReviewedBy,
		&sub.ReviewedAt,
		&sub.Feedback,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	); err != nil {
		return model.Submission{}, err
	}

	sub.Type = enums.SubmissionType(submissionType)
	sub.Status = enums.SubmissionStatus(status)
	if modelType != nil {
		mt := enums.ModelType(*modelType)
		sub.ModelType = &mt
	}

	return sub, nil
}
