package model

import (
	"time"

	"github.com/coinmews/coinmews/internal/domain/enums"
)

type Meme struct {
	ID          int64           `json:"id"`
	Slug        string          `json:"slug"`
	Title       string          `json:"title"`
	Kind        enums.MediaKind `json:"kind"`
	MediaKey    *string         `json:"media_key,omitempty"`
	VideoURL    *string         `json:"video_url,omitempty"`
	Upvotes     int64           `json:"upvotes"`
	IsPublished bool            `json:"is_published"`
	ViewCount   int64           `json:"view_count"`
	CreatedAt   time.Time       `json:"created_at"`
}
