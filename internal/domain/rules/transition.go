package rules

import "github.com/coinmews/coinmews/internal/domain/enums"

type TransitionResult int

const (
	TransitionApply TransitionResult = iota
	TransitionNoop
	TransitionInvalid
)

// Transition decides what a moderator action does to a submission in the given status.
// Repeating a decision is a no-op; review can only start from pending.
func Transition(current, target enums.SubmissionStatus) TransitionResult {
	if !current.Valid() || !target.Valid() {
		return TransitionInvalid
	}
	if current == target {
		return TransitionNoop
	}

	switch target {
	case enums.SubmissionStatusReviewing:
		if current == enums.SubmissionStatusPending {
			return TransitionApply
		}
		return TransitionInvalid
	case enums.SubmissionStatusApproved, enums.SubmissionStatusRejected:
		return TransitionApply
	}
	return TransitionInvalid
}
