package model

import (
	"time"

	"github.com/coinmews/coinmews/internal/domain/enums"
)

type Presale struct {
	ID          int64                 `json:"id"`
	Slug        string                `json:"slug"`
	ProjectName string                `json:"project_name"`
	TokenSymbol string                `json:"token_symbol"`
	Blockchain  string                `json:"blockchain"`
	Description string                `json:"description"`
	TokenPrice  float64               `json:"token_price"`
	SoftCap     float64               `json:"soft_cap"`
	HardCap     float64               `json:"hard_cap"`
	WebsiteURL  string                `json:"website_url"`
	LogoKey     *string               `json:"logo_key,omitempty"`
	StartDate   time.Time             `json:"start_date"`
	EndDate     time.Time             `json:"end_date"`
	Status      enums.TokenSaleStatus `json:"status"`
	SubmittedBy *int64                `json:"submitted_by,omitempty"`
	ViewCount   int64                 `json:"view_count"`
	Score       int64                 `json:"score"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}
