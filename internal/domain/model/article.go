package model

import (
	"time"

	"github.com/coinmews/coinmews/internal/domain/enums"
)

type Article struct {
	ID            int64                    `json:"id"`
	Slug          string                   `json:"slug"`
	Title         string                   `json:"title"`
	Excerpt       string                   `json:"excerpt"`
	Content       string                   `json:"content"`
	ContentType   enums.ArticleContentType `json:"content_type"`
	Status        enums.ArticleStatus      `json:"status"`
	Category      string                   `json:"category"`
	Tags          []string                 `json:"tags"`
	CoverImageKey *string                  `json:"cover_image_key,omitempty"`
	SourceURL     *string                  `json:"source_url,omitempty"`
	SponsorName   *string                  `json:"sponsor_name,omitempty"`
	AuthorID      *int64                   `json:"author_id,omitempty"`
	ViewCount     int64                    `json:"view_count"`
	PublishedAt   *time.Time               `json:"published_at,omitempty"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
}
