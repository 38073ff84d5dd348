package errors

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
)

type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type RateLimitError struct {
	Code          string `json:"code"`
	Message       string `json:"message"`
	RetryAfterSec int64  `json:"retry_after_sec"`
}

func Write(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteRateLimited(w http.ResponseWriter, retryAfterSec int64, message string) {
	if retryAfterSec < 1 {
		retryAfterSec = 1
	}
	w.Header().Set("Retry-After", strconv.FormatInt(retryAfterSec, 10))
	Write(w, http.StatusTooManyRequests, RateLimitError{
		Code:          "RATE_LIMITED",
		Message:       message,
		RetryAfterSec: retryAfterSec,
	})
}

type causeKey struct{}

type causeSlot struct {
	err error
}

// WithCauseSlot prepares ctx so handlers can attach the error behind a 5xx for the request logger.
func WithCauseSlot(ctx context.Context) context.Context {
	return context.WithValue(ctx, causeKey{}, &causeSlot{})
}

func RecordCause(ctx context.Context, err error) {
	if slot, ok := ctx.Value(causeKey{}).(*causeSlot); ok && err != nil {
		slot.err = err
	}
}

func Cause(ctx context.Context) error {
	if slot, ok := ctx.Value(causeKey{}).(*causeSlot); ok {
		return slot.err
	}
	return nil
}
