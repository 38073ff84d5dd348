package model

import "time"

type Exchange struct {
	ID               int64     `json:"id"`
	Slug             string    `json:"slug"`
	Name             string    `json:"name"`
	URL              string    `json:"url"`
	LogoKey          *string   `json:"logo_key,omitempty"`
	Country          string    `json:"country"`
	TradingVolume24h float64   `json:"trading_volume_24h"`
	TrustScore       int       `json:"trust_score"`
	IsActive         bool      `json:"is_active"`
	ViewCount        int64     `json:"view_count"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
