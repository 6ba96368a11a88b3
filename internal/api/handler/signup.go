package handler

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"log/slog"
	"math/big"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/view360/provisioning/internal/api/response"
	"github.com/view360/provisioning/internal/cache"
	"github.com/view360/provisioning/internal/store"
	"github.com/view360/provisioning/pkg/models"
	"golang.org/x/crypto/bcrypt"
)

// SignupStore is the slice of the meta store the signup handlers depend on.
type SignupStore interface {
	CreateOnboardingRequest(ctx context.Context, req *models.OnboardingRequest) error
	EmailOrUsernameExists(ctx context.Context, email, username string) (bool, error)
	MarkRequestVerified(ctx context.Context, id uuid.UUID) error
}

// NewSignupHandler returns an http.HandlerFunc for POST /api/v1/signup.
// It records a PENDING onboarding request and issues a short-lived
// verification code for the submitted email address.
func NewSignupHandler(s SignupStore, c cache.Cache, otpTTL time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			CompanyName string `json:"company_name"`
			FirstName   string `json:"first_name"`
			LastName    string `json:"last_name"`
			Email       string `json:"email"`
			Mobile      string `json:"mobile"`
			Gender      string `json:"gender"`
			DateOfBirth string `json:"date_of_birth"`
			Username    string `json:"username"`
			Password    string `json:"password"`
			LogoPath    string `json:"logo_path"`
			PlanID      int    `json:"plan_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		required := map[string]string{
			"company_name": req.CompanyName,
			"first_name":   req.FirstName,
			"last_name":    req.LastName,
			"email":        req.Email,
			"username":     req.Username,
			"password":     req.Password,
		}
		for field, val := range required {
			if val == "" {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", field+" is required", nil)
				return
			}
		}
		if req.PlanID <= 0 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "plan_id is required", nil)
			return
		}

		var dob time.Time
		if req.DateOfBirth != "" {
			var err error
			dob, err = time.Parse("2006-01-02", req.DateOfBirth)
			if err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
					"date_of_birth must be YYYY-MM-DD", nil)
				return
			}
		}

		exists, err := s.EmailOrUsernameExists(r.Context(), req.Email, req.Username)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to check identity", nil)
			return
		}
		if exists {
			response.Error(w, http.StatusConflict, "DUPLICATE_IDENTITY",
				"Email or username is already registered", nil)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process password", nil)
			return
		}

		onboarding := &models.OnboardingRequest{
			ID:           uuid.New(),
			CompanyName:  req.CompanyName,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			Email:        req.Email,
			Mobile:       req.Mobile,
			Gender:       req.Gender,
			DateOfBirth:  dob,
			Username:     req.Username,
			PasswordHash: string(hash),
			PlanID:       req.PlanID,
			Status:       models.RequestStatusPending,
		}
		if req.LogoPath != "" {
			onboarding.LogoPath = &req.LogoPath
		}

		if err := s.CreateOnboardingRequest(r.Context(), onboarding); err != nil {
			if errors.Is(err, store.ErrDuplicateKey) {
				response.Error(w, http.StatusConflict, "DUPLICATE_IDENTITY",
					"Email or username is already registered", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create request", nil)
			return
		}

		code := newVerificationCode()
		if err := c.SetSignupCode(r.Context(), onboarding.ID, code, otpTTL); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to issue verification code", nil)
			return
		}

		// Stands in for the mailer until outbound email is wired up.
		slog.Debug("signup verification code issued",
			"request_id", onboarding.ID, "email", req.Email, "code", code)

		response.Created(w, map[string]any{
			"id":     onboarding.ID,
			"status": onboarding.Status,
		})
	}
}

// NewVerifySignupHandler returns an http.HandlerFunc for
// POST /api/v1/signup/verify.
func NewVerifySignupHandler(s SignupStore, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			RequestID string `json:"request_id"`
			Code      string `json:"code"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		id, err := uuid.Parse(req.RequestID)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "request_id must be a UUID", nil)
			return
		}
		if req.Code == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "code is required", nil)
			return
		}

		code, found, err := c.GetSignupCode(r.Context(), id)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to look up code", nil)
			return
		}
		if !found {
			response.Error(w, http.StatusGone, "CODE_EXPIRED",
				"Verification code expired or never issued", nil)
			return
		}
		if code != req.Code {
			response.Error(w, http.StatusBadRequest, "INVALID_CODE", "Verification code does not match", nil)
			return
		}

		if err := s.MarkRequestVerified(r.Context(), id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Request not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to mark request verified", nil)
			return
		}

		if err := c.DeleteSignupCode(r.Context(), id); err != nil {
			slog.Warn("failed to delete consumed signup code", "request_id", id, "error", err)
		}

		response.JSON(w, map[string]any{"id": id, "email_verified": true})
	}
}

const verificationCodeLen = 6

func newVerificationCode() string {
	digits := make([]byte, verificationCodeLen)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			// crypto/rand only fails if the OS entropy source is broken.
			panic(err)
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits)
}
