package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/coinmews/coinmews/internal/domain/model"
	authsvc "github.com/coinmews/coinmews/internal/services/auth"
	votesvc "github.com/coinmews/coinmews/internal/services/votes"
	"github.com/coinmews/coinmews/internal/transport/http/dto"
	httperrors "github.com/coinmews/coinmews/internal/transport/http/errors"
)

type VotesHandler struct {
	service *votesvc.Service
}

func NewVotesHandler(service *votesvc.Service) *VotesHandler {
	return &VotesHandler{service: service}
}

func (h *VotesHandler) UpvoteMeme(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "VOTES_SERVICE_UNAVAILABLE", "votes service is unavailable")
		return
	}

	memeID, ok := idParam(r, "id")
	if !ok {
		writeNotFound(w, "meme not found")
		return
	}

	result, err := h.service.UpvoteMeme(r.Context(), identity.UserID, memeID)
	if err != nil {
		handleVoteError(w, r, err)
		return
	}
	httperrors.Write(w, http.StatusOK, dto.VoteResponse{Score: result.Score, UserValue: result.UserValue})
}

func (h *VotesHandler) VoteAirdrop(w http.ResponseWriter, r *http.Request) {
	h.vote(w, r, model.VoteTargetAirdrop)
}

func (h *VotesHandler) VotePresale(w http.ResponseWriter, r *http.Request) {
	h.vote(w, r, model.VoteTargetPresale)
}

func (h *VotesHandler) vote(w http.ResponseWriter, r *http.Request, target model.VoteTarget) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "VOTES_SERVICE_UNAVAILABLE", "votes service is unavailable")
		return
	}

	targetID, ok := idParam(r, "id")
	if !ok {
		writeNotFound(w, string(target)+" not found")
		return
	}

	var req dto.VoteRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}
	value := 1
	if req.Value != nil {
		value = *req.Value
	}

	result, err := h.service.Vote(r.Context(), identity.UserID, target, targetID, value)
	if err != nil {
		handleVoteError(w, r, err)
		return
	}
	httperrors.Write(w, http.StatusOK, dto.VoteResponse{Score: result.Score, UserValue: result.UserValue})
}

func handleVoteError(w http.ResponseWriter, r *http.Request, err error) {
	if writeCommonError(w, err) {
		return
	}
	switch {
	case errors.Is(err, votesvc.ErrNotFound):
		writeNotFound(w, "vote target not found")
	case errors.Is(err, votesvc.ErrInvalidValue):
		writeBadRequest(w, "INVALID_VOTE", "vote value must be 1 or -1")
	default:
		writeFailure(w, r, "failed to record vote", err)
	}
}
