package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthWithoutChecks(t *testing.T) {
	rr := httptest.NewRecorder()
	NewHealthHandler().Get(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}
}

func TestHealthReportsFailingDependency(t *testing.T) {
	handler := NewHealthHandler()
	handler.AddCheck("postgres", func(context.Context) error { return nil })
	handler.AddCheck("redis", func(context.Context) error { return errors.New("connection refused") })
	handler.AddCheck("ignored", nil)

	rr := httptest.NewRecorder()
	handler.Get(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusServiceUnavailable)
	}
	var res healthResponse
	if err := json.NewDecoder(rr.Body).Decode(&res); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if res.OK || res.Checks["postgres"] != "ok" || res.Checks["redis"] != "connection refused" {
		t.Fatalf("unexpected health body: %+v", res)
	}
	if _, ok := res.Checks["ignored"]; ok {
		t.Fatalf("nil check must not be registered")
	}
}
