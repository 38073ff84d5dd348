package dto

import "github.com/coinmews/coinmews/internal/domain/model"

type DecisionRequest struct {
	Feedback string `json:"feedback"`
}

type ModelStatusRequest struct {
	Status string `json:"status"`
}

type ModelStatusResponse struct {
	ModelType         string            `json:"model_type"`
	ModelID           int64             `json:"model_id"`
	Previous          string            `json:"previous"`
	Status            string            `json:"status"`
	Submission        *model.Submission `json:"submission,omitempty"`
	SubmissionChanged bool              `json:"submission_changed"`
}

type DeletedResponse struct {
	Deleted bool `json:"deleted"`
}
