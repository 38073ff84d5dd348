package rules

import (
	"testing"

	"github.com/coinmews/coinmews/internal/domain/enums"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		current enums.SubmissionStatus
		target  enums.SubmissionStatus
		want    TransitionResult
	}{
		{current: enums.SubmissionStatusPending, target: enums.SubmissionStatusReviewing, want: TransitionApply},
		{current: enums.SubmissionStatusReviewing, target: enums.SubmissionStatusReviewing, want: TransitionNoop},
		{current: enums.SubmissionStatusApproved, target: enums.SubmissionStatusReviewing, want: TransitionInvalid},
		{current: enums.SubmissionStatusPending, target: enums.SubmissionStatusApproved, want: TransitionApply},
		{current: enums.SubmissionStatusReviewing, target: enums.SubmissionStatusApproved, want: TransitionApply},
		{current: enums.SubmissionStatusApproved, target: enums.SubmissionStatusApproved, want: TransitionNoop},
		{current: enums.SubmissionStatusRejected, target: enums.SubmissionStatusApproved, want: TransitionApply},
		{current: enums.SubmissionStatusApproved, target: enums.SubmissionStatusRejected, want: TransitionApply},
		{current: enums.SubmissionStatusRejected, target: enums.SubmissionStatusRejected, want: TransitionNoop},
		{current: enums.SubmissionStatusApproved, target: enums.SubmissionStatusPending, want: TransitionInvalid},
		{current: "bogus", target: enums.SubmissionStatusApproved, want: TransitionInvalid},
	}

	for _, tt := range tests {
		if got := Transition(tt.current, tt.target); got != tt.want {
			t.Fatalf("Transition(%s, %s) = %d want %d", tt.current, tt.target, got, tt.want)
		}
	}
}
