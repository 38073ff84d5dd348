package model

import "time"

type MediaUpload struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	ObjectKey   string    `json:"object_key"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Attached    bool      `json:"attached"`
	CreatedAt   time.Time `json:"created_at"`
}
