package handlers

import (
	"net/http"

	authsvc "github.com/coinmews/coinmews/internal/services/auth"
	editorialsvc "github.com/coinmews/coinmews/internal/services/editorial"
	"github.com/coinmews/coinmews/internal/transport/http/dto"
	httperrors "github.com/coinmews/coinmews/internal/transport/http/errors"
)

func (h *AdminHandler) CreateArticle(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.editorialActor(w, r)
	if !ok {
		return
	}
	var req editorialsvc.ArticleInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	article, sub, err := h.editorial.CreateArticle(r.Context(), identity.UserID, req)
	if err != nil {
		handleEditorialError(w, r, err)
		return
	}
	httperrors.Write(w, http.StatusCreated, dto.ArticleCreatedResponse{Article: article, Submission: sub})
}

func (h *AdminHandler) CreateExchange(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.editorialActor(w, r)
	if !ok {
		return
	}
	var req editorialsvc.ExchangeInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	exchange, err := h.editorial.CreateExchange(r.Context(), identity.UserID, req)
	if err != nil {
		handleEditorialError(w, r, err)
		return
	}
	httperrors.Write(w, http.StatusCreated, exchange)
}

func (h *AdminHandler) CreateMeme(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.editorialActor(w, r)
	if !ok {
		return
	}
	var req editorialsvc.MemeInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	meme, err := h.editorial.CreateMeme(r.Context(), identity.UserID, req)
	if err != nil {
		handleEditorialError(w, r, err)
		return
	}
	httperrors.Write(w, http.StatusCreated, meme)
}

func (h *AdminHandler) editorialActor(w http.ResponseWriter, r *http.Request) (authsvc.Identity, bool) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return authsvc.Identity{}, false
	}
	if h.editorial == nil {
		writeInternal(w, "EDITORIAL_SERVICE_UNAVAILABLE", "editorial service is unavailable")
		return authsvc.Identity{}, false
	}
	return identity, true
}

func handleEditorialError(w http.ResponseWriter, r *http.Request, err error) {
	if writeCommonError(w, err) {
		return
	}
	writeFailure(w, r, "failed to create content", err)
}
