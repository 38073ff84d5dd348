package handlers

import (
	"errors"
	"net/http"

	authsvc "github.com/coinmews/coinmews/internal/services/auth"
	submissionsvc "github.com/coinmews/coinmews/internal/services/submissions"
	httperrors "github.com/coinmews/coinmews/internal/transport/http/errors"
)

type SubmissionsHandler struct {
	service *submissionsvc.Service
}

func NewSubmissionsHandler(service *submissionsvc.Service) *SubmissionsHandler {
	return &SubmissionsHandler{service: service}
}

func (h *SubmissionsHandler) Store(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "SUBMISSIONS_SERVICE_UNAVAILABLE", "submissions service is unavailable")
		return
	}

	var req submissionsvc.StoreInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	sub, err := h.service.Store(r.Context(), identity.UserID, req)
	if err != nil {
		handleSubmissionError(w, r, err)
		return
	}
	httperrors.Write(w, http.StatusCreated, sub)
}

func (h *SubmissionsHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "SUBMISSIONS_SERVICE_UNAVAILABLE", "submissions service is unavailable")
		return
	}

	limit, offset := pageParams(r)
	page, err := h.service.ListMine(r.Context(), identity.UserID, limit, offset)
	if err != nil {
		handleSubmissionError(w, r, err)
		return
	}
	httperrors.Write(w, http.StatusOK, page)
}

func (h *SubmissionsHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "SUBMISSIONS_SERVICE_UNAVAILABLE", "submissions service is unavailable")
		return
	}

	id, ok := idParam(r, "id")
	if !ok {
		writeNotFound(w, "submission not found")
		return
	}

	detail, err := h.service.GetMine(r.Context(), identity.UserID, id)
	if err != nil {
		handleSubmissionError(w, r, err)
		return
	}
	httperrors.Write(w, http.StatusOK, detail)
}

func handleSubmissionError(w http.ResponseWriter, r *http.Request, err error) {
	if writeCommonError(w, err) {
		return
	}
	switch {
	case errors.Is(err, submissionsvc.ErrNotFound):
		writeNotFound(w, "submission not found")
	case errors.Is(err, submissionsvc.ErrModelNotFound):
		writeNotFound(w, "content not found")
	case errors.Is(err, submissionsvc.ErrUnknownKind):
		writeNotFound(w, "unknown content kind")
	case errors.Is(err, submissionsvc.ErrModelMissing):
		writeConflict(w, "MODEL_MISSING", "submission has no backing record")
	case errors.Is(err, submissionsvc.ErrInvalidTransition):
		writeConflict(w, "INVALID_TRANSITION", "submission cannot move to that status")
	default:
		writeFailure(w, r, "failed to process submission", err)
	}
}
