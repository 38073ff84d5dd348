package dto

import "github.com/coinmews/coinmews/internal/domain/model"

type LinkTelegramRequest struct {
	TelegramID int64 `json:"telegram_id"`
}

type AuditListResponse struct {
	Items  []model.AuditEntry `json:"items"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}

type ArticleCreatedResponse struct {
	Article    model.Article     `json:"article"`
	Submission *model.Submission `json:"submission,omitempty"`
}
