package submissions

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/coinmews/coinmews/internal/domain/enums"
	"github.com/coinmews/coinmews/internal/domain/model"
	"github.com/coinmews/coinmews/internal/domain/rules"
)

type KindReport struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

type Report struct {
	Kinds    map[enums.ModelType]KindReport `json:"kinds"`
	Created  int                            `json:"created"`
	Updated  int                            `json:"updated"`
	Duration time.Duration                  `json:"duration_ns"`
}

// Reconcile backfills submissions for untracked concrete rows and resyncs
// submission statuses that drifted from their row. Each model type runs in
// its own goroutine; the unique (model_type, model_id) index keeps
// concurrent runs from inserting duplicates.
func (s *Service) Reconcile(ctx context.Context) (Report, error) {
	started := s.now()
	report := Report{Kinds: make(map[enums.ModelType]KindReport, len(enums.AllModelTypes()))}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, modelType := range enums.AllModelTypes() {
		modelType := modelType
		g.Go(func() error {
			kindReport, err := s.reconcileKind(gctx, modelType)
			if err != nil {
				return fmt.Errorf("reconcile %s: %w", modelType, err)
			}
			mu.Lock()
			report.Kinds[modelType] = kindReport
			report.Created += kindReport.Created
			report.Updated += kindReport.Updated
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}
	report.Duration = s.now().Sub(started)

	if report.Created > 0 || report.Updated > 0 {
		s.logger.Info("submissions reconciled",
			zap.Int("created", report.Created),
			zap.Int("updated", report.Updated),
			zap.Duration("duration", report.Duration),
		)
		payload := map[string]any{"created": report.Created, "updated": report.Updated}
		for modelType, kindReport := range report.Kinds {
			payload[string(modelType)] = kindReport
		}
		s.record(ctx, nil, enums.AuditActionReconcile, payload)
	}

	return report, nil
}

func (s *Service) reconcileKind(ctx context.Context, modelType enums.ModelType) (KindReport, error) {
	var report KindReport

	if err := s.backfill(ctx, modelType, &report); err != nil {
		return report, err
	}
	if err := s.resync(ctx, modelType, &report); err != nil {
		return report, err
	}
	return report, nil
}

func (s *Service) backfill(ctx context.Context, modelType enums.ModelType, report *KindReport) error {
	var afterID int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		rows, err := s.store.ListUntracked(ctx, modelType, afterID, s.cfg.ReconcileBatch)
		if err != nil {
			return err
		}

		for _, row := range rows {
			afterID = row.ID

			sub, ok := trackedFor(row)
			if !ok {
				report.Skipped++
				continue
			}
			inserted, err := s.store.InsertTracked(ctx, sub)
			if err != nil {
				return err
			}
			if inserted {
				report.Created++
			}
		}

		if len(rows) < s.cfg.ReconcileBatch {
			return nil
		}
	}
}

func (s *Service) resync(ctx context.Context, modelType enums.ModelType, report *KindReport) error {
	var afterID int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		rows, err := s.store.ListTracked(ctx, modelType, afterID, s.cfg.ReconcileBatch)
		if err != nil {
			return err
		}

		for _, row := range rows {
			afterID = row.SubmissionID

			mapped := rules.SubmissionStatusFor(modelType, row.ModelStatus)
			next, changed := rules.ResyncStatus(row.SubmissionStatus, mapped)
			if !changed {
				continue
			}
			updated, err := s.store.ResyncStatus(ctx, row.SubmissionID, row.SubmissionStatus, next)
			if err != nil {
				return err
			}
			if updated {
				report.Updated++
			}
		}

		if len(rows) < s.cfg.ReconcileBatch {
			return nil
		}
	}
}

// trackedFor synthesizes the submission a concrete row should have had.
// Editorial articles are never tracked.
func trackedFor(row model.ModelSnapshot) (model.Submission, bool) {
	submissionType, ok := rules.SubmissionTypeFor(row.Type, row.ContentType)
	if !ok {
		return model.Submission{}, false
	}

	modelType := row.Type
	modelID := row.ID
	createdAt := row.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	return model.Submission{
		Type:        submissionType,
		Status:      rules.SubmissionStatusFor(row.Type, row.Status),
		ModelType:   &modelType,
		ModelID:     &modelID,
		Title:       row.Title,
		SubmittedBy: row.OwnerID,
		CreatedAt:   createdAt,
	}, true
}
