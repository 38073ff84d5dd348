package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/coinmews/coinmews/internal/domain/enums"
	authsvc "github.com/coinmews/coinmews/internal/services/auth"
	httperrors "github.com/coinmews/coinmews/internal/transport/http/errors"
)

func withURLParams(req *http.Request, pairs ...string) *http.Request {
	routeCtx := chi.NewRouteContext()
	for i := 0; i+1 < len(pairs); i += 2 {
		routeCtx.URLParams.Add(pairs[i], pairs[i+1])
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func withIdentity(req *http.Request, userID int64, role enums.Role) *http.Request {
	return req.WithContext(authsvc.WithIdentity(req.Context(), authsvc.Identity{
		UserID: userID,
		SID:    "sid-test",
		Role:   role,
	}))
}

func decodeAPIError(t *testing.T, rr *httptest.ResponseRecorder) httperrors.APIError {
	t.Helper()
	var apiErr httperrors.APIError
	if err := json.NewDecoder(rr.Body).Decode(&apiErr); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return apiErr
}
