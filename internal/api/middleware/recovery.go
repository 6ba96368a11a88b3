package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/view360/provisioning/internal/api/response"
)

// Recovery turns panics into 500 responses. A panic mid-approval still runs
// the orchestrator's deferred lock release and pool close before landing here.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("panic recovered",
					"error", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"client_ip", clientIP(r),
					"stack", string(debug.Stack()),
				)
				response.Error(w, http.StatusInternalServerError,
					"INTERNAL_ERROR", "An unexpected error occurred", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
