package handler

import (
	"context"
	"net/http"

	"github.com/view360/provisioning/internal/api/response"
)

// Pinger is anything with a liveness check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewHealthHandler returns an http.HandlerFunc for GET /api/v1/health.
func NewHealthHandler(db, cache Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{"database": "ok", "cache": "ok"}
		healthy := true

		if err := db.Ping(r.Context()); err != nil {
			checks["database"] = err.Error()
			healthy = false
		}
		if err := cache.Ping(r.Context()); err != nil {
			checks["cache"] = err.Error()
			healthy = false
		}

		if !healthy {
			response.Error(w, http.StatusServiceUnavailable, "UNHEALTHY", "Dependency check failed", checks)
			return
		}
		response.JSON(w, map[string]any{"status": "ok", "checks": checks})
	}
}
