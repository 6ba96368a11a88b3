package middleware

import (
	"net/http"
	"strings"

	"github.com/view360/provisioning/internal/api/response"
	"golang.org/x/crypto/bcrypt"
)

// Auth guards the administrative endpoints. The approval API is operated by
// a small internal team sharing one token, so a single configured bcrypt
// hash is compared against the presented bearer token.
type Auth struct {
	adminTokenHash string
}

// NewAuth creates an Auth middleware from the configured bcrypt token hash.
func NewAuth(adminTokenHash string) *Auth {
	return &Auth{adminTokenHash: adminTokenHash}
}

// RequireAdmin rejects requests whose bearer token does not match the
// configured admin token.
func (a *Auth) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			response.Error(w, http.StatusUnauthorized,
				"INVALID_TOKEN", "Missing or invalid Authorization header", nil)
			return
		}

		if bcrypt.CompareHashAndPassword([]byte(a.adminTokenHash), []byte(token)) != nil {
			response.Error(w, http.StatusUnauthorized,
				"INVALID_TOKEN", "Invalid admin token", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
