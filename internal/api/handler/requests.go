package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/view360/provisioning/internal/api/response"
	"github.com/view360/provisioning/internal/provision"
	"github.com/view360/provisioning/internal/store"
	"github.com/view360/provisioning/pkg/models"
)

// RequestDirectory is the slice of the meta store the admin request
// endpoints depend on.
type RequestDirectory interface {
	ListPendingRequests(ctx context.Context) ([]*models.OnboardingRequest, error)
	GetOnboardingRequest(ctx context.Context, id uuid.UUID) (*models.OnboardingRequest, error)
}

// Approver runs the provisioning sequence for one pending request.
type Approver interface {
	Approve(ctx context.Context, req *models.OnboardingRequest) (*provision.Result, error)
}

// NewListRequestsHandler returns an http.HandlerFunc for GET /api/v1/requests.
func NewListRequestsHandler(s RequestDirectory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requests, err := s.ListPendingRequests(r.Context())
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list requests", nil)
			return
		}
		if requests == nil {
			requests = []*models.OnboardingRequest{}
		}
		response.Collection(w, requests, response.CollectionMeta{Total: len(requests)})
	}
}

// NewApproveHandler returns an http.HandlerFunc for
// POST /api/v1/requests/{requestID}/approve. A failed approval leaves the
// request PENDING; the error message carries the phase the run failed in.
func NewApproveHandler(s RequestDirectory, approver Approver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "requestID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "requestID must be a UUID", nil)
			return
		}

		req, err := s.GetOnboardingRequest(r.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Request not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load request", nil)
			return
		}

		if req.Status != models.RequestStatusPending {
			response.Error(w, http.StatusConflict, "REQUEST_NOT_PENDING",
				"Request has already been settled", nil)
			return
		}
		if !req.EmailVerified {
			response.Error(w, http.StatusConflict, "EMAIL_NOT_VERIFIED",
				"Signup email has not been verified", nil)
			return
		}

		result, err := approver.Approve(r.Context(), req)
		if err != nil {
			if errors.Is(err, provision.ErrApprovalInProgress) {
				response.Error(w, http.StatusConflict, "APPROVAL_IN_PROGRESS",
					"Another approval is already running for this request", nil)
				return
			}
			var perr *provision.Error
			if errors.As(err, &perr) {
				response.Error(w, http.StatusInternalServerError, "PROVISIONING_FAILED",
					perr.Error(), map[string]any{"phase": string(perr.Phase)})
				return
			}
			response.Error(w, http.StatusInternalServerError, "PROVISIONING_FAILED", err.Error(), nil)
			return
		}

		response.JSON(w, result)
	}
}
