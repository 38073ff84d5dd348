package telegram

import "testing"

func TestCallbackDataRoundTrip(t *testing.T) {
	action, ok := ParseCallbackData(CallbackData(true, 42))
	if !ok || !action.Approve || action.SubmissionID != 42 {
		t.Fatalf("unexpected approve action: %+v ok=%v", action, ok)
	}

	action, ok = ParseCallbackData(CallbackData(false, 7))
	if !ok || action.Approve || action.SubmissionID != 7 || action.ReasonCode != "" {
		t.Fatalf("unexpected reject action: %+v ok=%v", action, ok)
	}

	action, ok = ParseCallbackData(RejectCallbackData(9, "SCAM_SUSPECTED"))
	if !ok || action.Approve || action.SubmissionID != 9 || action.ReasonCode != "SCAM_SUSPECTED" {
		t.Fatalf("unexpected reject-with-reason action: %+v ok=%v", action, ok)
	}
}

func TestParseCallbackDataRejectsGarbage(t *testing.T) {
	for _, data := range []string{"", "sub:approve", "mod:approve:1", "sub:ban:1", "sub:approve:x", "sub:reject:-3", "sub:approve:1:SPAM", "sub:reject:1:", "sub:reject:1:a:b"} {
		if _, ok := ParseCallbackData(data); ok {
			t.Fatalf("expected %q to be rejected", data)
		}
	}
}

func TestSubmissionKeyboardLayout(t *testing.T) {
	markup := submissionKeyboard(5, nil)
	if len(markup.InlineKeyboard) != 1 || len(markup.InlineKeyboard[0]) != 2 {
		t.Fatalf("expected single approve/reject row, got %+v", markup.InlineKeyboard)
	}

	markup = submissionKeyboard(5, []RejectOption{{Code: "SPAM", Label: "Spam"}, {Code: "DUPLICATE", Label: "Duplicate"}, {Code: "OTHER", Label: "Other"}})
	if len(markup.InlineKeyboard) != 3 {
		t.Fatalf("unexpected row count: got %d want 3", len(markup.InlineKeyboard))
	}
	last := markup.InlineKeyboard[2]
	if len(last) != 1 || last[0].CallbackData == nil || *last[0].CallbackData != "sub:reject:5:OTHER" {
		t.Fatalf("unexpected last row: %+v", last)
	}
}
