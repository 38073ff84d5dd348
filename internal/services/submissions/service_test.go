package submissions

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/coinmews/coinmews/internal/domain/enums"
	"github.com/coinmews/coinmews/internal/domain/model"
	"github.com/coinmews/coinmews/internal/pkg/validate"
	"github.com/coinmews/coinmews/internal/services/audit"
	"github.com/coinmews/coinmews/internal/services/rate"
)

var fixedNow = time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

type limiterStub struct {
	allow      bool
	retryAfter int64
	calls      int
	lastRule   rate.Rule
}

func (l *limiterStub) Check(_ context.Context, rule rate.Rule, _ int64) error {
	l.calls++
	l.lastRule = rule
	if !l.allow {
		return &rate.LimitError{Rule: rule.Name, RetryAfterSec: l.retryAfter}
	}
	return nil
}

type mediaStub struct {
	owned map[string]bool
}

func (m *mediaStub) OwnedKeys(_ context.Context, _ int64, keys []string) ([]string, error) {
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		if m.owned[key] {
			out = append(out, key)
		}
	}
	return out, nil
}

type notifierStub struct {
	sent []int64
	err  error
}

func (n *notifierStub) NotifySubmission(_ context.Context, sub model.Submission) error {
	n.sent = append(n.sent, sub.ID)
	return n.err
}

type auditStub struct {
	actions []enums.AuditAction
}

func (a *auditStub) Record(_ context.Context, entries ...audit.Entry) {
	for _, entry := range entries {
		a.actions = append(a.actions, entry.Action)
	}
}

type cacheStub struct {
	kinds []enums.ContentKind
}

func (c *cacheStub) Invalidate(_ context.Context, kinds ...enums.ContentKind) {
	c.kinds = append(c.kinds, kinds...)
}

type testDeps struct {
	store    *memoryStore
	limiter  *limiterStub
	notifier *notifierStub
	audit    *auditStub
	cache    *cacheStub
}

func newTestService(cfg Config) (*Service, testDeps) {
	deps := testDeps{
		store:    newMemoryStore(),
		limiter:  &limiterStub{allow: true},
		notifier: &notifierStub{},
		audit:    &auditStub{},
		cache:    &cacheStub{},
	}
	svc := NewService(deps.store, deps.limiter, &mediaStub{owned: map[string]bool{"uploads/logo.png": true}}, cfg, nil)
	svc.AttachNotifier(deps.notifier)
	svc.AttachAudit(deps.audit)
	svc.AttachCache(deps.cache)
	svc.now = func() time.Time { return fixedNow }
	return svc, deps
}

func validAirdrop() StoreInput {
	return StoreInput{
		Type:        enums.SubmissionTypeAirdrop,
		Title:       "Free ABC tokens",
		ProjectName: "ABC Protocol",
		TokenSymbol: "abc",
		Blockchain:  "Ethereum",
		Description: "A community airdrop for early ABC users.",
		WebsiteURL:  "https://abc.example",
		StartDate:   "2025-01-10",
		EndDate:     "2025-02-10",
	}
}

func TestStoreCreatesPendingSubmission(t *testing.T) {
	svc, deps := newTestService(Config{PerUserPerHour: 10})

	sub, err := svc.Store(context.Background(), 7, validAirdrop())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if sub.Status != enums.SubmissionStatusPending {
		t.Fatalf("unexpected status: got %s want pending", sub.Status)
	}
	ref, ok := sub.Ref()
	if !ok || ref.Type != enums.ModelTypeAirdrop {
		t.Fatalf("unexpected model reference: %+v", ref)
	}
	if got := deps.store.modelStatus(ref); got != "pending" {
		t.Fatalf("unexpected model status: got %s want pending", got)
	}
	if len(deps.notifier.sent) != 1 || deps.notifier.sent[0] != sub.ID {
		t.Fatalf("expected moderators to be notified, got %v", deps.notifier.sent)
	}
	if len(deps.audit.actions) != 1 || deps.audit.actions[0] != enums.AuditActionSubmissionCreated {
		t.Fatalf("unexpected audit actions: %v", deps.audit.actions)
	}
	if deps.limiter.lastRule.Limit != 10 || deps.limiter.lastRule.Window != time.Hour {
		t.Fatalf("unexpected rate rule: %+v", deps.limiter.lastRule)
	}
}

func TestStoreSurvivesNotifierFailure(t *testing.T) {
	svc, deps := newTestService(Config{})
	deps.notifier.err = errors.New("telegram down")

	if _, err := svc.Store(context.Background(), 7, validAirdrop()); err != nil {
		t.Fatalf("store should not fail when notification fails: %v", err)
	}
}

func TestStoreRateLimited(t *testing.T) {
	svc, deps := newTestService(Config{PerUserPerHour: 1})
	deps.limiter.allow = false
	deps.limiter.retryAfter = 120

	_, err := svc.Store(context.Background(), 7, validAirdrop())
	if !errors.Is(err, rate.ErrLimitExceeded) {
		t.Fatalf("expected rate.ErrLimitExceeded, got %v", err)
	}
	var rateErr *rate.LimitError
	if !errors.As(err, &rateErr) || rateErr.RetryAfterSec != 120 {
		t.Fatalf("unexpected rate limit error: %v", err)
	}
	if deps.store.creates != 0 {
		t.Fatalf("store must not be called when rate limited")
	}
}

func TestStoreRejectsForeignUploads(t *testing.T) {
	svc, deps := newTestService(Config{})

	in := validAirdrop()
	foreign := "uploads/someone-else.png"
	in.LogoKey = &foreign

	_, err := svc.Store(context.Background(), 7, in)
	var fields validate.Errors
	if !errors.As(err, &fields) || fields["logo_key"] == "" {
		t.Fatalf("expected logo_key field error, got %v", err)
	}
	if deps.store.creates != 0 {
		t.Fatalf("store must not be called for invalid input")
	}

	owned := "uploads/logo.png"
	in.LogoKey = &owned
	if _, err := svc.Store(context.Background(), 7, in); err != nil {
		t.Fatalf("store with owned upload: %v", err)
	}
}

func TestApproveUpdatesBothRowsAndIsIdempotent(t *testing.T) {
	svc, deps := newTestService(Config{})
	ctx := context.Background()

	sub, err := svc.Store(ctx, 7, validAirdrop())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	ref, _ := sub.Ref()

	approved, err := svc.Approve(ctx, sub.ID, 99, "looks good")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != enums.SubmissionStatusApproved || approved.ReviewedBy == nil || *approved.ReviewedBy != 99 {
		t.Fatalf("unexpected approved submission: %+v", approved)
	}
	if approved.Feedback == nil || *approved.Feedback != "looks good" {
		t.Fatalf("feedback was not stored")
	}
	if got := deps.store.modelStatus(ref); got != "ongoing" {
		t.Fatalf("unexpected airdrop status after approve: got %s want ongoing", got)
	}

	auditCount := len(deps.audit.actions)
	again, err := svc.Approve(ctx, sub.ID, 100, "")
	if err != nil {
		t.Fatalf("repeated approve: %v", err)
	}
	if *again.ReviewedBy != 99 {
		t.Fatalf("repeated approve must not overwrite reviewer")
	}
	if len(deps.audit.actions) != auditCount {
		t.Fatalf("repeated approve must not write audit entries")
	}
	if len(deps.cache.kinds) != 1 || deps.cache.kinds[0] != enums.ContentKindAirdrop {
		t.Fatalf("unexpected cache invalidations: %v", deps.cache.kinds)
	}
}

func TestRejectRequiresFeedback(t *testing.T) {
	svc, deps := newTestService(Config{})
	ctx := context.Background()

	sub, err := svc.Store(ctx, 7, validAirdrop())
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	_, err = svc.Reject(ctx, sub.ID, 99, "   ")
	var fields validate.Errors
	if !errors.As(err, &fields) || fields["feedback"] == "" {
		t.Fatalf("expected feedback field error, got %v", err)
	}

	rejected, err := svc.Reject(ctx, sub.ID, 99, "spam")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != enums.SubmissionStatusRejected {
		t.Fatalf("unexpected status: got %s want rejected", rejected.Status)
	}
	ref, _ := sub.Ref()
	if got := deps.store.modelStatus(ref); got != "rejected" {
		t.Fatalf("unexpected airdrop status after reject: got %s want rejected", got)
	}
}

func TestReviewOnlyFromPending(t *testing.T) {
	svc, _ := newTestService(Config{})
	ctx := context.Background()

	in := StoreInput{
		Type:    enums.SubmissionTypeGuestPost,
		Title:   "Why L2s matter",
		Content: strings.Repeat("layer two ", 20),
	}
	sub, err := svc.Store(ctx, 7, in)
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	reviewing, err := svc.MarkReviewing(ctx, sub.ID, 99)
	if err != nil {
		t.Fatalf("mark reviewing: %v", err)
	}
	if reviewing.Status != enums.SubmissionStatusReviewing {
		t.Fatalf("unexpected status: got %s want reviewing", reviewing.Status)
	}

	if _, err := svc.Approve(ctx, sub.ID, 99, ""); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := svc.MarkReviewing(ctx, sub.ID, 99); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestApproveWithMissingModel(t *testing.T) {
	svc, deps := newTestService(Config{})
	ctx := context.Background()

	sub, err := svc.Store(ctx, 7, validAirdrop())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	ref, _ := sub.Ref()
	deps.store.mu.Lock()
	delete(deps.store.models, ref)
	deps.store.mu.Unlock()

	if _, err := svc.Approve(ctx, sub.ID, 99, ""); !errors.Is(err, ErrModelMissing) {
		t.Fatalf("expected ErrModelMissing, got %v", err)
	}
	if _, err := svc.Approve(ctx, 12345, 99, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetMineHidesOtherUsers(t *testing.T) {
	svc, _ := newTestService(Config{})
	ctx := context.Background()

	sub, err := svc.Store(ctx, 7, validAirdrop())
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	detail, err := svc.GetMine(ctx, 7, sub.ID)
	if err != nil {
		t.Fatalf("get mine: %v", err)
	}
	if detail.Model == nil || detail.Model.Status != "pending" {
		t.Fatalf("expected model summary, got %+v", detail.Model)
	}
	if _, err := svc.GetMine(ctx, 8, sub.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for another user, got %v", err)
	}

	page, err := svc.ListMine(ctx, 7, 0, 0)
	if err != nil {
		t.Fatalf("list mine: %v", err)
	}
	if page.Total != 1 || len(page.Items) != 1 || page.Limit != defaultPageSize {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestSetModelStatusSyncsSubmission(t *testing.T) {
	svc, deps := newTestService(Config{})
	ctx := context.Background()

	ref := deps.store.addModel(enums.ModelTypeEvent, "pending", "", nil)
	sub := deps.store.addSubmission(ref, enums.SubmissionStatusPending)

	if _, err := svc.SetModelStatus(ctx, 1, enums.ContentKindEvent, ref.ID, "finished"); err == nil {
		t.Fatalf("expected validation error for unknown event status")
	}

	change, err := svc.SetModelStatus(ctx, 1, enums.ContentKindEvent, ref.ID, "Cancelled")
	if err != nil {
		t.Fatalf("set model status: %v", err)
	}
	if change.Previous != "pending" || change.Status != "cancelled" {
		t.Fatalf("unexpected change: %+v", change)
	}
	if got, _ := deps.store.submissionFor(ref); got.ID != sub.ID || got.Status != enums.SubmissionStatusRejected {
		t.Fatalf("unexpected synced submission: %+v", got)
	}

	if _, err := svc.SetModelStatus(ctx, 1, enums.ContentKindExchange, 1, "active"); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestDeleteModelRemovesSubmission(t *testing.T) {
	svc, deps := newTestService(Config{})
	ctx := context.Background()

	ref := deps.store.addModel(enums.ModelTypePresale, "upcoming", "", nil)
	deps.store.addSubmission(ref, enums.SubmissionStatusApproved)

	if err := svc.DeleteModel(ctx, 1, enums.ContentKindPresale, ref.ID); err != nil {
		t.Fatalf("delete model: %v", err)
	}
	if _, ok := deps.store.submissionFor(ref); ok {
		t.Fatalf("submission should be deleted with its model")
	}
	if err := svc.DeleteModel(ctx, 1, enums.ContentKindPresale, ref.ID); !errors.Is(err, ErrModelNotFound) {
		t.Fatalf("expected ErrModelNotFound, got %v", err)
	}
}
