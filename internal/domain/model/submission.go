package model

import (
	"time"

	"github.com/coinmews/coinmews/internal/domain/enums"
)

type Submission struct {
	ID          int64                  `json:"id"`
	Type        enums.SubmissionType   `json:"type"`
	Status      enums.SubmissionStatus `json:"status"`
	ModelType   *enums.ModelType       `json:"model_type,omitempty"`
	ModelID     *int64                 `json:"model_id,omitempty"`
	Title       string                 `json:"title"`
	SubmittedBy *int64                 `json:"submitted_by,omitempty"`
	ReviewedBy  *int64                 `json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time             `json:"reviewed_at,omitempty"`
	Feedback    *string                `json:"feedback,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// ModelRef is the polymorphic pointer of a submission.
type ModelRef struct {
	Type enums.ModelType
	ID   int64
}

func (s Submission) Ref() (ModelRef, bool) {
	if s.ModelType == nil || s.ModelID == nil {
		return ModelRef{}, false
	}
	return ModelRef{Type: *s.ModelType, ID: *s.ModelID}, true
}

// ModelSnapshot is the (id, status) view of a concrete row used by reconciliation.
type ModelSnapshot struct {
	Type        enums.ModelType
	ID          int64
	Status      string
	Title       string
	ContentType string
	OwnerID     *int64
	CreatedAt   time.Time
}
