package enums

type SubmissionStatus string

const (
	SubmissionStatusPending   SubmissionStatus = "pending"
	SubmissionStatusReviewing SubmissionStatus = "reviewing"
	SubmissionStatusApproved  SubmissionStatus = "approved"
	SubmissionStatusRejected  SubmissionStatus = "rejected"
)

func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionStatusPending, SubmissionStatusReviewing, SubmissionStatusApproved, SubmissionStatusRejected:
		return true
	}
	return false
}

// Decided reports whether a moderator has already ruled on the submission.
func (s SubmissionStatus) Decided() bool {
	return s == SubmissionStatusApproved || s == SubmissionStatusRejected
}
