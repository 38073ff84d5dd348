package moderation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/coinmews/coinmews/internal/domain/enums"
	"github.com/coinmews/coinmews/internal/domain/model"
	tginfra "github.com/coinmews/coinmews/internal/infra/telegram"
	pgrepo "github.com/coinmews/coinmews/internal/repo/postgres"
	"github.com/coinmews/coinmews/internal/services/submissions"
)

type sentNotice struct {
	chatID       int64
	text         string
	submissionID int64
	rejects      []tginfra.RejectOption
}

type fakeSender struct {
	notices []sentNotice
	texts   []string
	answers []string
	decided []string
}

func (f *fakeSender) SendText(_ context.Context, _ int64, text string) error {
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeSender) SendSubmissionNotice(_ context.Context, chatID int64, text string, submissionID int64, rejects []tginfra.RejectOption) error {
	f.notices = append(f.notices, sentNotice{chatID: chatID, text: text, submissionID: submissionID, rejects: rejects})
	return nil
}

func (f *fakeSender) MarkDecided(_ context.Context, _ int64, _ int, text string) error {
	f.decided = append(f.decided, text)
	return nil
}

func (f *fakeSender) AnswerCallback(_ context.Context, _ string, text string) error {
	f.answers = append(f.answers, text)
	return nil
}

type fakeStaff map[int64]model.User

func (f fakeStaff) FindByTelegramID(_ context.Context, telegramID int64) (model.User, error) {
	user, ok := f[telegramID]
	if !ok {
		return model.User{}, pgrepo.ErrUserNotFound
	}
	return user, nil
}

type decision struct {
	id       int64
	actorID  int64
	approve  bool
	feedback string
}

type fakeReviewer struct {
	decisions []decision
	err       error
}

func (f *fakeReviewer) Approve(_ context.Context, id, actorID int64, feedback string) (model.Submission, error) {
	return f.decide(id, actorID, true, feedback)
}

func (f *fakeReviewer) Reject(_ context.Context, id, actorID int64, feedback string) (model.Submission, error) {
	return f.decide(id, actorID, false, feedback)
}

func (f *fakeReviewer) decide(id, actorID int64, approve bool, feedback string) (model.Submission, error) {
	if f.err != nil {
		return model.Submission{}, f.err
	}
	f.decisions = append(f.decisions, decision{id: id, actorID: actorID, approve: approve, feedback: feedback})
	status := enums.SubmissionStatusApproved
	if !approve {
		status = enums.SubmissionStatusRejected
	}
	sub := model.Submission{ID: id, Title: "Zk Drop", Status: status}
	if feedback != "" {
		sub.Feedback = &feedback
	}
	return sub, nil
}

const moderatorTelegramID = 555

func newModerationForTest() (*Service, *fakeSender, *fakeReviewer) {
	sender := &fakeSender{}
	reviewer := &fakeReviewer{}
	svc := NewService(sender, -100, "https://coinmews.test/", nil)
	svc.AttachReviewer(fakeStaff{
		moderatorTelegramID: {ID: 3, DisplayName: "Mod", Role: enums.RoleModerator, IsActive: true},
		777:                 {ID: 4, Role: enums.RoleUser, IsActive: true},
	}, reviewer)
	return svc, sender, reviewer
}

func TestNotifySubmissionPostsNoticeWithReasons(t *testing.T) {
	svc, sender, _ := newModerationForTest()
	owner := int64(12)
	modelType := enums.ModelTypeAirdrop
	modelID := int64(40)

	err := svc.NotifySubmission(context.Background(), model.Submission{
		ID: 9, Type: enums.SubmissionTypeAirdrop, Title: "Zk Drop", SubmittedBy: &owner, ModelType: &modelType, ModelID: &modelID,
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sender.notices) != 1 {
		t.Fatalf("expected one notice, got %d", len(sender.notices))
	}
	notice := sender.notices[0]
	if notice.chatID != -100 || notice.submissionID != 9 {
		t.Fatalf("unexpected notice target: %+v", notice)
	}
	for _, want := range []string{"#9", "Zk Drop", "user #12", "airdrop #40", "https://coinmews.test/admin/submissions/9"} {
		if !strings.Contains(notice.text, want) {
			t.Fatalf("notice text %q does not contain %q", notice.text, want)
		}
	}
	if len(notice.rejects) != len(RejectReasons()) {
		t.Fatalf("unexpected reject options: %+v", notice.rejects)
	}
}

func TestNotifySubmissionWithoutChatIsNoop(t *testing.T) {
	sender := &fakeSender{}
	svc := NewService(sender, 0, "", nil)
	if err := svc.NotifySubmission(context.Background(), model.Submission{ID: 1}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sender.notices) != 0 {
		t.Fatalf("expected no notices")
	}
}

func TestHandleCallbackApproveAndReject(t *testing.T) {
	svc, sender, reviewer := newModerationForTest()
	ctx := context.Background()

	if err := svc.HandleCallback(ctx, tginfra.CallbackUpdate{CallbackID: "a", ChatID: -100, MessageID: 1, UserID: moderatorTelegramID, Data: tginfra.CallbackData(true, 9)}); err != nil {
		t.Fatalf("approve callback: %v", err)
	}
	if err := svc.HandleCallback(ctx, tginfra.CallbackUpdate{CallbackID: "b", ChatID: -100, MessageID: 2, UserID: moderatorTelegramID, Data: tginfra.RejectCallbackData(10, "DUPLICATE")}); err != nil {
		t.Fatalf("reject callback: %v", err)
	}

	if len(reviewer.decisions) != 2 {
		t.Fatalf("unexpected decisions: %+v", reviewer.decisions)
	}
	if d := reviewer.decisions[0]; !d.approve || d.id != 9 || d.actorID != 3 {
		t.Fatalf("unexpected approve decision: %+v", d)
	}
	if d := reviewer.decisions[1]; d.approve || d.id != 10 || d.feedback != RejectFeedback("DUPLICATE") {
		t.Fatalf("unexpected reject decision: %+v", d)
	}
	if sender.answers[0] != "Approved" || sender.answers[1] != "Rejected" {
		t.Fatalf("unexpected answers: %v", sender.answers)
	}
	if len(sender.decided) != 2 || !strings.Contains(sender.decided[1], "Feedback:") {
		t.Fatalf("unexpected decided texts: %v", sender.decided)
	}
}

func TestHandleCallbackRefusesUnknownAccounts(t *testing.T) {
	svc, sender, reviewer := newModerationForTest()
	ctx := context.Background()

	for _, telegramID := range []int64{1, 777} {
		if err := svc.HandleCallback(ctx, tginfra.CallbackUpdate{CallbackID: "x", UserID: telegramID, Data: tginfra.CallbackData(true, 9)}); err != nil {
			t.Fatalf("callback: %v", err)
		}
	}
	if len(reviewer.decisions) != 0 {
		t.Fatalf("expected no decisions, got %+v", reviewer.decisions)
	}
	if len(sender.answers) != 2 || sender.answers[1] != "Not allowed" {
		t.Fatalf("unexpected answers: %v", sender.answers)
	}
}

func TestHandleCallbackReportsDecisionErrors(t *testing.T) {
	svc, sender, reviewer := newModerationForTest()
	reviewer.err = submissions.ErrInvalidTransition

	if err := svc.HandleCallback(context.Background(), tginfra.CallbackUpdate{CallbackID: "x", UserID: moderatorTelegramID, Data: tginfra.CallbackData(false, 9)}); err != nil {
		t.Fatalf("callback: %v", err)
	}
	if sender.answers[0] != "Submission is already decided" {
		t.Fatalf("unexpected answer: %v", sender.answers)
	}

	reviewer.err = errors.New("db down")
	if err := svc.HandleCallback(context.Background(), tginfra.CallbackUpdate{CallbackID: "y", UserID: moderatorTelegramID, Data: tginfra.CallbackData(true, 9)}); err != nil {
		t.Fatalf("callback: %v", err)
	}
	if sender.answers[1] != "Action failed" {
		t.Fatalf("unexpected answer: %v", sender.answers)
	}
	if len(sender.decided) != 0 {
		t.Fatalf("failed decisions must not edit the notice")
	}
}

func TestRejectReasons(t *testing.T) {
	reasons := RejectReasons()
	if reasons[len(reasons)-1].Code != defaultRejectReason {
		t.Fatalf("expected OTHER last, got %+v", reasons)
	}
	seen := map[string]bool{}
	for _, reason := range reasons {
		if seen[reason.Code] || reason.Label == "" || reason.Feedback == "" {
			t.Fatalf("bad reason: %+v", reason)
		}
		seen[reason.Code] = true
		if len(tginfra.RejectCallbackData(1<<40, reason.Code)) > 64 {
			t.Fatalf("callback data for %s exceeds telegram limit", reason.Code)
		}
	}
	if RejectFeedback("nope") != rejectReasons[defaultRejectReason].Feedback {
		t.Fatalf("unknown codes should fall back to OTHER")
	}
	if RejectFeedback("spam") != rejectReasons["SPAM"].Feedback {
		t.Fatalf("codes should be case-insensitive")
	}
}
