package dto

type MediaUploadResponse struct {
	ID          int64  `json:"id"`
	ObjectKey   string `json:"object_key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}
