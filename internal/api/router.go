// Package api assembles the HTTP surface of the provisioning server.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	mw "github.com/view360/provisioning/internal/api/middleware"
	"github.com/view360/provisioning/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth      *mw.Auth
	RateLimit *mw.RateLimit

	HealthHandler       http.HandlerFunc
	SignupHandler       http.HandlerFunc
	VerifySignupHandler http.HandlerFunc
	ListRequestsHandler http.HandlerFunc
	ApproveHandler      http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	// Public health check
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))

	// Public signup flow, throttled per client IP
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimit.Limit)

		r.Post("/api/v1/signup", orNotImplemented(deps.SignupHandler))
		r.Post("/api/v1/signup/verify", orNotImplemented(deps.VerifySignupHandler))
	})

	// Admin routes
	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.RequireAdmin)

		r.Get("/api/v1/requests", orNotImplemented(deps.ListRequestsHandler))
		r.Post("/api/v1/requests/{requestID}/approve", orNotImplemented(deps.ApproveHandler))
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
