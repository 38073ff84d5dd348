package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/coinmews/coinmews/internal/domain/enums"
	"github.com/coinmews/coinmews/internal/domain/model"
	auditsvc "github.com/coinmews/coinmews/internal/services/audit"
	authsvc "github.com/coinmews/coinmews/internal/services/auth"
	editorialsvc "github.com/coinmews/coinmews/internal/services/editorial"
	moderationsvc "github.com/coinmews/coinmews/internal/services/moderation"
	submissionsvc "github.com/coinmews/coinmews/internal/services/submissions"
	"github.com/coinmews/coinmews/internal/transport/http/dto"
	httperrors "github.com/coinmews/coinmews/internal/transport/http/errors"
)

// AdminHandler serves the staff back office: the review queue, native status
// edits, editorial creation, the audit trail and Telegram account links.
type AdminHandler struct {
	submissions *submissionsvc.Service
	editorial   *editorialsvc.Service
	audit       *auditsvc.Service
	moderation  *moderationsvc.Service
}

func NewAdminHandler(submissions *submissionsvc.Service, editorial *editorialsvc.Service) *AdminHandler {
	return &AdminHandler{
		submissions: submissions,
		editorial:   editorial,
	}
}

func (h *AdminHandler) AttachAudit(service *auditsvc.Service) {
	h.audit = service
}

func (h *AdminHandler) AttachModeration(service *moderationsvc.Service) {
	h.moderation = service
}

func (h *AdminHandler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	if !h.submissionsReady(w) {
		return
	}

	limit, offset := pageParams(r)
	query := r.URL.Query()
	page, err := h.submissions.ListForReview(r.Context(), submissionsvc.ReviewFilter{
		Status: enums.SubmissionStatus(strings.ToLower(strings.TrimSpace(query.Get("status")))),
		Type:   enums.SubmissionType(strings.ToLower(strings.TrimSpace(query.Get("type")))),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		handleSubmissionError(w, r, err)
		return
	}
	httperrors.Write(w, http.StatusOK, page)
}

func (h *AdminHandler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	if !h.submissionsReady(w) {
		return
	}
	id, ok := idParam(r, "id")
	if !ok {
		writeNotFound(w, "submission not found")
		return
	}

	detail, err := h.submissions.Get(r.Context(), id)
	if err != nil {
		handleSubmissionError(w, r, err)
		return
	}
	httperrors.Write(w, http.StatusOK, detail)
}

func (h *AdminHandler) ReviewSubmission(w http.ResponseWriter, r *http.Request) {
	identity, id, ok := h.decisionTarget(w, r)
	if !ok {
		return
	}

	sub, err := h.submissions.MarkReviewing(r.Context(), id, identity.UserID)
	if err != nil {
		handleSubmissionError(w, r, err)
		return
	}
	httperrors.Write(w, http.StatusOK, sub)
}

func (h *AdminHandler) ApproveSubmission(w http.ResponseWriter, r *http.Request) {
	identity, id, ok := h.decisionTarget(w, r)
	if !ok {
		return
	}
	req, ok := decodeDecision(w, r)
	if !ok {
		return
	}

	sub, err := h.submissions.Approve(r.Context(), id, identity.UserID, req.Feedback)
	if err != nil {
		handleSubmissionError(w, r, err)
		return
	}
	httperrors.Write(w, http.StatusOK, sub)
}

func (h *AdminHandler) RejectSubmission(w http.ResponseWriter, r *http.Request) {
	identity, id, ok := h.decisionTarget(w, r)
	if !ok {
		return
	}
	req, ok := decodeDecision(w, r)
	if !ok {
		return
	}

	sub, err := h.submissions.Reject(r.Context(), id, identity.UserID, req.Feedback)
	if err != nil {
		handleSubmissionError(w, r, err)
		return
	}
	httperrors.Write(w, http.StatusOK, sub)
}

func (h *AdminHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	if _, ok := authsvc.IdentityFromContext(r.Context()); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if !h.submissionsReady(w) {
		return
	}

	report, err := h.submissions.Reconcile(r.Context())
	if err != nil {
		writeFailure(w, r, "reconcile failed", err)
		return
	}
	httperrors.Write(w, http.StatusOK, report)
}

func (h *AdminHandler) SetModelStatus(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if !h.submissionsReady(w) {
		return
	}

	kind := enums.ContentKind(strings.ToLower(chi.URLParam(r, "kind")))
	id, ok := idParam(r, "id")
	if !ok {
		writeNotFound(w, "content not found")
		return
	}

	var req dto.ModelStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	change, err := h.submissions.SetModelStatus(r.Context(), identity.UserID, kind, id, req.Status)
	if err != nil {
		handleSubmissionError(w, r, err)
		return
	}
	httperrors.Write(w, http.StatusOK, dto.ModelStatusResponse{
		ModelType:         string(change.Ref.Type),
		ModelID:           change.Ref.ID,
		Previous:          change.Previous,
		Status:            change.Status,
		Submission:        change.Submission,
		SubmissionChanged: change.SubmissionChanged,
	})
}

func (h *AdminHandler) DeleteModel(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if !h.submissionsReady(w) {
		return
	}

	kind := enums.ContentKind(strings.ToLower(chi.URLParam(r, "kind")))
	id, ok := idParam(r, "id")
	if !ok {
		writeNotFound(w, "content not found")
		return
	}

	if err := h.submissions.DeleteModel(r.Context(), identity.UserID, kind, id); err != nil {
		handleSubmissionError(w, r, err)
		return
	}
	httperrors.Write(w, http.StatusOK, dto.DeletedResponse{Deleted: true})
}

func (h *AdminHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	if h.audit == nil {
		writeInternal(w, "AUDIT_SERVICE_UNAVAILABLE", "audit service is unavailable")
		return
	}

	limit, offset := pageParams(r)
	action := enums.AuditAction(strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("action"))))
	items, err := h.audit.List(r.Context(), action, limit, offset)
	if err != nil {
		writeFailure(w, r, "failed to load audit log", err)
		return
	}
	if items == nil {
		items = []model.AuditEntry{}
	}
	httperrors.Write(w, http.StatusOK, dto.AuditListResponse{Items: items, Limit: limit, Offset: offset})
}

func (h *AdminHandler) LinkTelegram(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.moderation == nil {
		writeInternal(w, "MODERATION_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	userID, ok := idParam(r, "id")
	if !ok {
		writeNotFound(w, "user not found")
		return
	}
	var req dto.LinkTelegramRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	user, err := h.moderation.LinkStaffAccount(r.Context(), identity.UserID, userID, req.TelegramID)
	if err != nil {
		if writeCommonError(w, err) {
			return
		}
		switch {
		case errors.Is(err, moderationsvc.ErrStaffNotFound):
			writeNotFound(w, "user not found")
		case errors.Is(err, moderationsvc.ErrNotStaff):
			writeConflict(w, "NOT_STAFF", "only staff accounts can be linked")
		case errors.Is(err, moderationsvc.ErrAlreadyLinked):
			writeConflict(w, "TELEGRAM_LINKED", "telegram account is linked to another user")
		case errors.Is(err, moderationsvc.ErrLinkingOffline):
			writeInternal(w, "MODERATION_UNAVAILABLE", "account linking is not configured")
		default:
			writeFailure(w, r, "failed to link telegram account", err)
		}
		return
	}
	httperrors.Write(w, http.StatusOK, dto.NewUserResponse(user))
}

func (h *AdminHandler) submissionsReady(w http.ResponseWriter) bool {
	if h.submissions != nil {
		return true
	}
	writeInternal(w, "SUBMISSIONS_SERVICE_UNAVAILABLE", "submissions service is unavailable")
	return false
}

func (h *AdminHandler) decisionTarget(w http.ResponseWriter, r *http.Request) (authsvc.Identity, int64, bool) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return authsvc.Identity{}, 0, false
	}
	if !h.submissionsReady(w) {
		return authsvc.Identity{}, 0, false
	}
	id, ok := idParam(r, "id")
	if !ok {
		writeNotFound(w, "submission not found")
		return authsvc.Identity{}, 0, false
	}
	return identity, id, true
}

// decodeDecision accepts an empty body as an empty feedback.
func decodeDecision(w http.ResponseWriter, r *http.Request) (dto.DecisionRequest, bool) {
	var req dto.DecisionRequest
	if r.Body == nil || r.ContentLength == 0 {
		return req, true
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return req, false
	}
	return req, true
}
