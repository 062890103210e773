package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"
)

// HealthCheck checks one dependency.
type HealthCheck func(ctx context.Context) error

// HealthHandler reports process liveness plus the state of optional
// dependencies such as Redis and the audit database.
type HealthHandler struct {
	checks  map[string]HealthCheck
	active  func() int
	timeout time.Duration
}

// NewHealthHandler builds the handler. active may be nil.
func NewHealthHandler(checks map[string]HealthCheck, active func() int) *HealthHandler {
	return &HealthHandler{checks: checks, active: active, timeout: 2 * time.Second}
}

type healthResponse struct {
	Status         string            `json:"status"`
	Checks         map[string]string `json:"checks,omitempty"`
	ActiveBookings int               `json:"activeBookings"`
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if h.active != nil {
		resp.ActiveBookings = h.active()
	}
	status := http.StatusOK

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if resp.Checks == nil {
			resp.Checks = make(map[string]string, len(names))
		}
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		err := h.checks[name](ctx)
		cancel()
		if err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	writeJSON(w, status, resp)
}
