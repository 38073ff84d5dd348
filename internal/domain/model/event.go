package model

import (
	"time"

	"github.com/coinmews/coinmews/internal/domain/enums"
)

type Event struct {
	ID          int64             `json:"id"`
	Slug        string            `json:"slug"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	EventType   enums.EventType   `json:"event_type"`
	Location    string            `json:"location"`
	IsVirtual   bool              `json:"is_virtual"`
	URL         *string           `json:"url,omitempty"`
	BannerKey   *string           `json:"banner_key,omitempty"`
	StartDate   time.Time         `json:"start_date"`
	EndDate     time.Time         `json:"end_date"`
	Status      enums.EventStatus `json:"status"`
	OrganizerID *int64            `json:"organizer_id,omitempty"`
	ViewCount   int64             `json:"view_count"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}
