package submissions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/coinmews/coinmews/internal/domain/enums"
	"github.com/coinmews/coinmews/internal/domain/model"
	"github.com/coinmews/coinmews/internal/domain/rules"
	"github.com/coinmews/coinmews/internal/pkg/validate"
	pgrepo "github.com/coinmews/coinmews/internal/repo/postgres"
	"github.com/coinmews/coinmews/internal/services/audit"
	"github.com/coinmews/coinmews/internal/services/rate"
)

const (
	defaultPageSize   = 20
	maxPageSize       = 100
	maxFeedbackLength = 2000
	sideEffectTimeout = 5 * time.Second
)

var (
	ErrNotFound          = errors.New("submission not found")
	ErrModelNotFound     = errors.New("model not found")
	ErrModelMissing      = errors.New("submission has no backing model")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUnknownKind       = errors.New("unknown content kind")
)

type Store interface {
	Create(ctx context.Context, in pgrepo.NewSubmission) (model.Submission, error)
	Get(ctx context.Context, id int64) (model.Submission, error)
	GetForSubmitter(ctx context.Context, id, userID int64) (model.Submission, error)
	List(ctx context.Context, filter pgrepo.SubmissionFilter) ([]model.Submission, int, error)
	Decide(ctx context.Context, d pgrepo.Decision) (model.Submission, bool, error)
	SetModelStatus(ctx context.Context, ref model.ModelRef, status string, now time.Time) (pgrepo.ModelStatusChange, error)
	DeleteModel(ctx context.Context, ref model.ModelRef) (bool, error)
	ModelSummary(ctx context.Context, ref model.ModelRef) (pgrepo.ModelSummary, error)
	ListUntracked(ctx context.Context, modelType enums.ModelType, afterID int64, limit int) ([]model.ModelSnapshot, error)
	InsertTracked(ctx context.Context, sub model.Submission) (bool, error)
	ListTracked(ctx context.Context, modelType enums.ModelType, afterID int64, limit int) ([]pgrepo.TrackedModel, error)
	ResyncStatus(ctx context.Context, id int64, from, to enums.SubmissionStatus) (bool, error)
}

type RateLimiter interface {
	Check(ctx context.Context, rule rate.Rule, userID int64) error
}

type MediaOwnership interface {
	OwnedKeys(ctx context.Context, ownerID int64, keys []string) ([]string, error)
}

type Notifier interface {
	NotifySubmission(ctx context.Context, sub model.Submission) error
}

type AuditRecorder interface {
	Record(ctx context.Context, entries ...audit.Entry)
}

type CacheInvalidator interface {
	Invalidate(ctx context.Context, kinds ...enums.ContentKind)
}

type Config struct {
	PerUserPerHour   int
	ReconcileOnIndex bool
	PageSize         int
	ReconcileBatch   int
}

type Service struct {
	store    Store
	limiter  RateLimiter
	media    MediaOwnership
	notifier Notifier
	audit    AuditRecorder
	cache    CacheInvalidator
	cfg      Config
	logger   *zap.Logger
	now      func() time.Time
}

type Page struct {
	Items  []model.Submission `json:"items"`
	Total  int                `json:"total"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}

type Detail struct {
	Submission model.Submission     `json:"submission"`
	Model      *pgrepo.ModelSummary `json:"model,omitempty"`
}

type ReviewFilter struct {
	Status enums.SubmissionStatus
	Type   enums.SubmissionType
	Limit  int
	Offset int
}

func NewService(store Store, limiter RateLimiter, media MediaOwnership, cfg Config, logger *zap.Logger) *Service {
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.ReconcileBatch <= 0 {
		cfg.ReconcileBatch = 500
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		store:   store,
		limiter: limiter,
		media:   media,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *Service) AttachNotifier(notifier Notifier) {
	s.notifier = notifier
}

func (s *Service) AttachAudit(recorder AuditRecorder) {
	s.audit = recorder
}

func (s *Service) AttachCache(cache CacheInvalidator) {
	s.cache = cache
}

// Store validates and persists a user submission together with its concrete row.
func (s *Service) Store(ctx context.Context, userID int64, in StoreInput) (model.Submission, error) {
	if userID <= 0 {
		return model.Submission{}, fmt.Errorf("invalid user id")
	}

	now := s.now().UTC()
	payload, err := buildSubmission(in, userID, now)
	if err != nil {
		return model.Submission{}, err
	}

	if err := s.checkMediaOwnership(ctx, userID, in); err != nil {
		return model.Submission{}, err
	}

	if s.limiter != nil {
		if err := s.limiter.Check(ctx, rate.SubmissionsRule(s.cfg.PerUserPerHour), userID); err != nil {
			if errors.Is(err, rate.ErrLimitExceeded) {
				return model.Submission{}, err
			}
			return model.Submission{}, fmt.Errorf("check submission rate: %w", err)
		}
	}

	sub, err := s.store.Create(ctx, payload)
	if err != nil {
		return model.Submission{}, fmt.Errorf("create submission: %w", err)
	}

	s.logger.Info("submission created",
		zap.Int64("submission_id", sub.ID),
		zap.String("type", string(sub.Type)),
		zap.Int64("user_id", userID),
	)

	s.notify(ctx, sub)
	s.record(ctx, &userID, enums.AuditActionSubmissionCreated, submissionPayload(sub))

	return sub, nil
}

func (s *Service) ListMine(ctx context.Context, userID int64, limit, offset int) (Page, error) {
	if userID <= 0 {
		return Page{}, fmt.Errorf("invalid user id")
	}
	return s.list(ctx, pgrepo.SubmissionFilter{SubmittedBy: userID}, limit, offset)
}

// GetMine hides submissions of other users behind ErrNotFound.
func (s *Service) GetMine(ctx context.Context, userID, id int64) (Detail, error) {
	sub, err := s.store.GetForSubmitter(ctx, id, userID)
	if err != nil {
		return Detail{}, mapStoreError(err)
	}
	return s.detail(ctx, sub), nil
}

func (s *Service) ListForReview(ctx context.Context, filter ReviewFilter) (Page, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return Page{}, validate.Errors{"status": "must be one of pending, reviewing, approved, rejected"}
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return Page{}, validate.Errors{"type": "unknown submission type"}
	}

	if s.cfg.ReconcileOnIndex {
		if _, err := s.Reconcile(ctx); err != nil {
			s.logger.Warn("reconcile on index failed", zap.Error(err))
		}
	}

	return s.list(ctx, pgrepo.SubmissionFilter{Status: filter.Status, Type: filter.Type}, filter.Limit, filter.Offset)
}

func (s *Service) Get(ctx context.Context, id int64) (Detail, error) {
	sub, err := s.store.Get(ctx, id)
	if err != nil {
		return Detail{}, mapStoreError(err)
	}
	return s.detail(ctx, sub), nil
}

func (s *Service) MarkReviewing(ctx context.Context, id, actorID int64) (model.Submission, error) {
	return s.decide(ctx, id, actorID, enums.SubmissionStatusReviewing, nil)
}

func (s *Service) Approve(ctx context.Context, id, actorID int64, feedback string) (model.Submission, error) {
	var note *string
	if trimmedFeedback := strings.TrimSpace(feedback); trimmedFeedback != "" {
		note = &trimmedFeedback
	}
	if note != nil && !validate.MaxLength(*note, maxFeedbackLength) {
		return model.Submission{}, validate.Errors{"feedback": fmt.Sprintf("must be at most %d characters", maxFeedbackLength)}
	}
	return s.decide(ctx, id, actorID, enums.SubmissionStatusApproved, note)
}

// Reject requires a feedback message for the submitter.
func (s *Service) Reject(ctx context.Context, id, actorID int64, feedback string) (model.Submission, error) {
	feedback = strings.TrimSpace(feedback)
	errs := validate.Errors{}
	errs.Check(feedback != "", "feedback", "is required when rejecting")
	errs.Check(validate.MaxLength(feedback, maxFeedbackLength), "feedback", fmt.Sprintf("must be at most %d characters", maxFeedbackLength))
	if err := errs.Err(); err != nil {
		return model.Submission{}, err
	}
	return s.decide(ctx, id, actorID, enums.SubmissionStatusRejected, &feedback)
}

// SetModelStatus changes a concrete row's native status and syncs its submission.
func (s *Service) SetModelStatus(ctx context.Context, actorID int64, kind enums.ContentKind, id int64, status string) (pgrepo.ModelStatusChange, error) {
	modelType, ok := enums.ModelTypeForKind(kind)
	if !ok {
		return pgrepo.ModelStatusChange{}, ErrUnknownKind
	}
	status = strings.ToLower(strings.TrimSpace(status))
	if !rules.ValidNativeStatus(modelType, status) {
		return pgrepo.ModelStatusChange{}, validate.Errors{
			"status": "must be one of " + strings.Join(rules.NativeStatuses(modelType), ", "),
		}
	}

	ref := model.ModelRef{Type: modelType, ID: id}
	change, err := s.store.SetModelStatus(ctx, ref, status, s.now().UTC())
	if err != nil {
		return pgrepo.ModelStatusChange{}, mapStoreError(err)
	}

	payload := map[string]any{
		"model_type": string(modelType),
		"model_id":   id,
		"from":       change.Previous,
		"to":         change.Status,
	}
	if change.Submission != nil {
		payload["submission_id"] = change.Submission.ID
		payload["submission_status"] = string(change.Submission.Status)
	}
	s.invalidate(ctx, kind)
	s.record(ctx, &actorID, enums.AuditActionModelStatusChanged, payload)

	return change, nil
}

// DeleteModel is the only path that removes a submission row.
func (s *Service) DeleteModel(ctx context.Context, actorID int64, kind enums.ContentKind, id int64) error {
	modelType, ok := enums.ModelTypeForKind(kind)
	if !ok {
		return ErrUnknownKind
	}

	hadSubmission, err := s.store.DeleteModel(ctx, model.ModelRef{Type: modelType, ID: id})
	if err != nil {
		return mapStoreError(err)
	}

	s.logger.Info("model deleted", zap.String("model_type", string(modelType)), zap.Int64("model_id", id), zap.Int64("actor_id", actorID))
	s.invalidate(ctx, kind)
	s.record(ctx, &actorID, enums.AuditActionModelDeleted, map[string]any{
		"model_type":     string(modelType),
		"model_id":       id,
		"had_submission": hadSubmission,
	})
	return nil
}

func (s *Service) decide(ctx context.Context, id, actorID int64, target enums.SubmissionStatus, feedback *string) (model.Submission, error) {
	if id <= 0 {
		return model.Submission{}, ErrNotFound
	}

	sub, changed, err := s.store.Decide(ctx, pgrepo.Decision{
		SubmissionID: id,
		Target:       target,
		ActorID:      actorID,
		Feedback:     feedback,
		Now:          s.now().UTC(),
	})
	if err != nil {
		return model.Submission{}, mapStoreError(err)
	}
	if !changed {
		return sub, nil
	}

	s.logger.Info("submission decided",
		zap.Int64("submission_id", sub.ID),
		zap.String("status", string(sub.Status)),
		zap.Int64("actor_id", actorID),
	)

	if ref, ok := sub.Ref(); ok && target != enums.SubmissionStatusReviewing {
		s.invalidate(ctx, enums.ContentKindFor(ref.Type))
	}

	action := enums.AuditActionSubmissionReviewing
	switch target {
	case enums.SubmissionStatusApproved:
		action = enums.AuditActionSubmissionApproved
	case enums.SubmissionStatusRejected:
		action = enums.AuditActionSubmissionRejected
	}
	payload := submissionPayload(sub)
	if feedback != nil {
		payload["feedback"] = *feedback
	}
	s.record(ctx, &actorID, action, payload)

	return sub, nil
}

func (s *Service) list(ctx context.Context, filter pgrepo.SubmissionFilter, limit, offset int) (Page, error) {
	if limit <= 0 {
		limit = s.cfg.PageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	filter.Limit = limit
	filter.Offset = offset

	items, total, err := s.store.List(ctx, filter)
	if err != nil {
		return Page{}, fmt.Errorf("list submissions: %w", err)
	}
	return Page{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *Service) detail(ctx context.Context, sub model.Submission) Detail {
	out := Detail{Submission: sub}
	ref, ok := sub.Ref()
	if !ok {
		return out
	}

	summary, err := s.store.ModelSummary(ctx, ref)
	if err != nil {
		if !errors.Is(err, pgrepo.ErrModelNotFound) {
			s.logger.Warn("load model summary", zap.Int64("submission_id", sub.ID), zap.Error(err))
		}
		return out
	}
	out.Model = &summary
	return out
}

func (s *Service) checkMediaOwnership(ctx context.Context, userID int64, in StoreInput) error {
	keys := in.MediaKeys()
	if len(keys) == 0 || s.media == nil {
		return nil
	}

	owned, err := s.media.OwnedKeys(ctx, userID, keys)
	if err != nil {
		return fmt.Errorf("check media ownership: %w", err)
	}
	ownedSet := make(map[string]struct{}, len(owned))
	for _, key := range owned {
		ownedSet[key] = struct{}{}
	}

	errs := validate.Errors{}
	fields := []struct {
		name string
		key  *string
	}{
		{"logo_key", in.LogoKey},
		{"banner_key", in.BannerKey},
		{"cover_image_key", in.CoverImageKey},
	}
	for _, field := range fields {
		if field.key == nil || strings.TrimSpace(*field.key) == "" {
			continue
		}
		if _, ok := ownedSet[strings.TrimSpace(*field.key)]; !ok {
			errs.Add(field.name, "unknown upload")
		}
	}
	return errs.Err()
}

func (s *Service) notify(ctx context.Context, sub model.Submission) {
	if s.notifier == nil {
		return
	}
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	if err := s.notifier.NotifySubmission(notifyCtx, sub); err != nil {
		s.logger.Warn("notify moderators failed", zap.Int64("submission_id", sub.ID), zap.Error(err))
	}
}

func (s *Service) record(ctx context.Context, actorID *int64, action enums.AuditAction, payload map[string]any) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, audit.Entry{ActorID: actorID, Action: action, Payload: payload})
}

func (s *Service) invalidate(ctx context.Context, kinds ...enums.ContentKind) {
	if s.cache == nil {
		return
	}
	s.cache.Invalidate(ctx, kinds...)
}

func submissionPayload(sub model.Submission) map[string]any {
	payload := map[string]any{
		"submission_id": sub.ID,
		"type":          string(sub.Type),
		"status":        string(sub.Status),
	}
	if ref, ok := sub.Ref(); ok {
		payload["model_type"] = string(ref.Type)
		payload["model_id"] = ref.ID
	}
	return payload
}

func mapStoreError(err error) error {
	switch {
	case errors.Is(err, pgrepo.ErrSubmissionNotFound):
		return ErrNotFound
	case errors.Is(err, pgrepo.ErrModelMissing):
		return ErrModelMissing
	case errors.Is(err, pgrepo.ErrModelNotFound):
		return ErrModelNotFound
	case errors.Is(err, pgrepo.ErrInvalidTransition):
		return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	default:
		return err
	}
}
