package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/coinmews/coinmews/internal/pkg/validate"
	"github.com/coinmews/coinmews/internal/services/rate"
	httperrors "github.com/coinmews/coinmews/internal/transport/http/errors"
)

const (
	maxJSONBody     = 1 << 20
	defaultPageSize = 20
	maxPageSize     = 100
)

func decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusBadRequest, httperrors.APIError{Code: code, Message: message})
}

func writeUnauthorized(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{Code: code, Message: message})
}

func writeForbidden(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusForbidden, httperrors.APIError{Code: code, Message: message})
}

func writeNotFound(w http.ResponseWriter, message string) {
	httperrors.Write(w, http.StatusNotFound, httperrors.APIError{Code: "NOT_FOUND", Message: message})
}

func writeConflict(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusConflict, httperrors.APIError{Code: code, Message: message})
}

func writeInternal(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{Code: code, Message: message})
}

// writeFailure records err for the request logger and answers 500.
func writeFailure(w http.ResponseWriter, r *http.Request, message string, err error) {
	httperrors.RecordCause(r.Context(), err)
	writeInternal(w, "INTERNAL_ERROR", message)
}

// writeCommonError answers validation and rate limit errors. It reports false for anything else.
func writeCommonError(w http.ResponseWriter, err error) bool {
	var fields validate.Errors
	if errors.As(err, &fields) {
		httperrors.Write(w, http.StatusUnprocessableEntity, httperrors.APIError{
			Code:    "VALIDATION_ERROR",
			Message: "request validation failed",
			Fields:  fields,
		})
		return true
	}

	var limited *rate.LimitError
	if errors.As(err, &limited) {
		httperrors.WriteRateLimited(w, limited.RetryAfterSec, "too many requests")
		return true
	}
	return false
}

func idParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(chi.URLParam(r, name)), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// pageParams reads limit/offset; out of range values are clamped, garbage falls back to defaults.
func pageParams(r *http.Request) (int, int) {
	query := r.URL.Query()

	limit, err := strconv.Atoi(query.Get("limit"))
	if err != nil || limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	offset, err := strconv.Atoi(query.Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	if page, err := strconv.Atoi(query.Get("page")); err == nil && page > 1 && query.Get("offset") == "" {
		offset = (page - 1) * limit
	}
	return limit, offset
}
