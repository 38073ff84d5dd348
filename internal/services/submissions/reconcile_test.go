package submissions

import (
	"context"
	"testing"

	"github.com/coinmews/coinmews/internal/domain/enums"
)

func TestReconcileBackfillsAndResyncs(t *testing.T) {
	svc, deps := newTestService(Config{ReconcileBatch: 2})
	ctx := context.Background()
	owner := int64(5)

	ongoing := deps.store.addModel(enums.ModelTypeAirdrop, "ongoing", "", nil)
	rejected := deps.store.addModel(enums.ModelTypePresale, "rejected", "", &owner)
	cancelled := deps.store.addModel(enums.ModelTypeEvent, "cancelled", "", nil)
	draftPR := deps.store.addModel(enums.ModelTypeArticle, "draft", "press_release", &owner)
	news := deps.store.addModel(enums.ModelTypeArticle, "published", "news", nil)
	inReview := deps.store.addModel(enums.ModelTypeArticle, "review", "guest_post", nil)

	drifted := deps.store.addModel(enums.ModelTypeAirdrop, "ended", "", nil)
	driftedSub := deps.store.addSubmission(drifted, enums.SubmissionStatusPending)

	stillReviewing := deps.store.addModel(enums.ModelTypeArticle, "pending", "sponsored_content", nil)
	reviewingSub := deps.store.addSubmission(stillReviewing, enums.SubmissionStatusReviewing)

	report, err := svc.Reconcile(ctx)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if report.Created != 5 {
		t.Fatalf("unexpected created count: got %d want 5", report.Created)
	}
	if report.Updated != 1 {
		t.Fatalf("unexpected updated count: got %d want 1", report.Updated)
	}
	if report.Kinds[enums.ModelTypeArticle].Skipped != 1 {
		t.Fatalf("expected the news article to be skipped, got %+v", report.Kinds[enums.ModelTypeArticle])
	}

	want := map[string]enums.SubmissionStatus{
		"ongoing airdrop":   enums.SubmissionStatusApproved,
		"rejected presale":  enums.SubmissionStatusRejected,
		"cancelled event":   enums.SubmissionStatusRejected,
		"draft release":     enums.SubmissionStatusPending,
		"article in review": enums.SubmissionStatusReviewing,
	}
	checks := []struct {
		name string
		got  func() (enums.SubmissionStatus, bool)
	}{
		{"ongoing airdrop", func() (enums.SubmissionStatus, bool) { s, ok := deps.store.submissionFor(ongoing); return s.Status, ok }},
		{"rejected presale", func() (enums.SubmissionStatus, bool) {
			s, ok := deps.store.submissionFor(rejected)
			return s.Status, ok
		}},
		{"cancelled event", func() (enums.SubmissionStatus, bool) {
			s, ok := deps.store.submissionFor(cancelled)
			return s.Status, ok
		}},
		{"draft release", func() (enums.SubmissionStatus, bool) { s, ok := deps.store.submissionFor(draftPR); return s.Status, ok }},
		{"article in review", func() (enums.SubmissionStatus, bool) {
			s, ok := deps.store.submissionFor(inReview)
			return s.Status, ok
		}},
	}
	for _, check := range checks {
		got, ok := check.got()
		if !ok {
			t.Fatalf("%s: expected a backfilled submission", check.name)
		}
		if got != want[check.name] {
			t.Fatalf("%s: unexpected status: got %s want %s", check.name, got, want[check.name])
		}
	}

	if sub, ok := deps.store.submissionFor(draftPR); !ok || sub.SubmittedBy == nil || *sub.SubmittedBy != owner {
		t.Fatalf("backfilled submission should keep the model owner")
	}
	if _, ok := deps.store.submissionFor(news); ok {
		t.Fatalf("editorial articles must not be backfilled")
	}
	if got := deps.store.subs[driftedSub.ID].Status; got != enums.SubmissionStatusApproved {
		t.Fatalf("drifted submission: got %s want approved", got)
	}
	if got := deps.store.subs[reviewingSub.ID].Status; got != enums.SubmissionStatusReviewing {
		t.Fatalf("reviewing submission must not be downgraded: got %s", got)
	}

	second, err := svc.Reconcile(ctx)
	if err != nil {
		t.Fatalf("second reconcile: %v", err)
	}
	if second.Created != 0 || second.Updated != 0 {
		t.Fatalf("second reconcile should be a no-op, got %+v", second)
	}
}

func TestListForReviewReconcilesWhenEnabled(t *testing.T) {
	svc, deps := newTestService(Config{ReconcileOnIndex: true})
	deps.store.addModel(enums.ModelTypeAirdrop, "upcoming", "", nil)

	page, err := svc.ListForReview(context.Background(), ReviewFilter{Status: enums.SubmissionStatusApproved})
	if err != nil {
		t.Fatalf("list for review: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("expected the backfilled submission in the index, got %d", page.Total)
	}
}

func TestListForReviewSkipsReconcileByDefault(t *testing.T) {
	svc, deps := newTestService(Config{})
	deps.store.addModel(enums.ModelTypeAirdrop, "upcoming", "", nil)

	page, err := svc.ListForReview(context.Background(), ReviewFilter{})
	if err != nil {
		t.Fatalf("list for review: %v", err)
	}
	if page.Total != 0 {
		t.Fatalf("expected an empty index without reconcile, got %d", page.Total)
	}
}
