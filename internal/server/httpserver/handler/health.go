package handler

import (
	"net/http"
	"time"

	"github.com/derfian/httpkom/internal/infra/buildinfo"
)

// handleHealth handles GET /health.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Time:    time.Now().UTC().Format(time.RFC3339),
		Version: buildinfo.Version,
	})
}

// handleReady handles GET /ready. It reports 503 once shutdown has begun.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	n := h.svc.Count()
	resp := HealthResponse{
		Status:   "ready",
		Time:     time.Now().UTC().Format(time.RFC3339),
		Sessions: &n,
	}
	status := http.StatusOK
	if !h.ready.Load() {
		resp.Status = "shutting down"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, r, status, resp)
}
