package handlers

import (
	"errors"
	"net/http"

	authsvc "github.com/coinmews/coinmews/internal/services/auth"
	mediasvc "github.com/coinmews/coinmews/internal/services/media"
	"github.com/coinmews/coinmews/internal/transport/http/dto"
	httperrors "github.com/coinmews/coinmews/internal/transport/http/errors"
)

// multipartOverhead leaves room for boundaries and form fields around the file.
const multipartOverhead = 1 << 20

type MediaHandler struct {
	service *mediasvc.Service
}

func NewMediaHandler(service *mediasvc.Service) *MediaHandler {
	return &MediaHandler{service: service}
}

func (h *MediaHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MEDIA_SERVICE_UNAVAILABLE", "media service is unavailable")
		return
	}

	limit := h.service.MaxUploadBytes() + multipartOverhead
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeTooLarge(w)
			return
		}
		writeBadRequest(w, "VALIDATION_ERROR", "invalid multipart form")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "file is required")
		return
	}
	defer file.Close()

	if header == nil || header.Size <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "file is empty")
		return
	}

	upload, err := h.service.UploadImage(r.Context(), identity.UserID, header.Filename, header.Header.Get("Content-Type"), file, header.Size)
	if err != nil {
		if writeCommonError(w, err) {
			return
		}
		switch {
		case errors.Is(err, mediasvc.ErrTooLarge):
			writeTooLarge(w)
		case errors.Is(err, mediasvc.ErrUnsupportedType):
			httperrors.Write(w, http.StatusUnsupportedMediaType, httperrors.APIError{
				Code:    "UNSUPPORTED_MEDIA_TYPE",
				Message: "only jpeg, png, gif and webp images are accepted",
			})
		case errors.Is(err, mediasvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid upload")
		default:
			writeFailure(w, r, "failed to store upload", err)
		}
		return
	}

	httperrors.Write(w, http.StatusCreated, dto.MediaUploadResponse{
		ID:          upload.ID,
		ObjectKey:   upload.ObjectKey,
		URL:         upload.URL,
		ContentType: upload.ContentType,
		Size:        upload.Size,
	})
}

func writeTooLarge(w http.ResponseWriter) {
	httperrors.Write(w, http.StatusRequestEntityTooLarge, httperrors.APIError{
		Code:    "PAYLOAD_TOO_LARGE",
		Message: "upload exceeds the size limit",
	})
}
