package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	httperrors "github.com/coinmews/coinmews/internal/transport/http/errors"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck reports whether one dependency answers.
type HealthCheck func(ctx context.Context) error

type HealthHandler struct {
	checks map[string]HealthCheck
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{checks: map[string]HealthCheck{}}
}

// AddCheck registers a dependency check; a nil check is ignored.
func (h *HealthHandler) AddCheck(name string, check HealthCheck) {
	if check == nil {
		return
	}
	h.checks[name] = check
}

type healthResponse struct {
	OK     bool              `json:"ok"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	res := healthResponse{OK: true}
	if len(names) > 0 {
		res.Checks = make(map[string]string, len(names))
	}
	for _, name := range names {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		err := h.checks[name](ctx)
		cancel()
		if err != nil {
			res.OK = false
			res.Checks[name] = err.Error()
			continue
		}
		res.Checks[name] = "ok"
	}

	status := http.StatusOK
	if !res.OK {
		status = http.StatusServiceUnavailable
	}
	httperrors.Write(w, status, res)
}
