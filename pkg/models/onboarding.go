// Package models contains shared data models used across the provisioning codebase.
package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RequestStatusPending  = "PENDING"
	RequestStatusApproved = "APPROVED"
)

// OnboardingRequest is a pending signup awaiting administrative approval.
// It is created on signup submission, consumed exactly once by the
// provisioning orchestrator, and never mutated again after approval.
type OnboardingRequest struct {
	ID            uuid.UUID  `db:"id"             json:"id"`
	CompanyName   string     `db:"company_name"   json:"company_name"`
	FirstName     string     `db:"first_name"     json:"first_name"`
	LastName      string     `db:"last_name"      json:"last_name"`
	Email         string     `db:"email"          json:"email"`
	Mobile        string     `db:"mobile"         json:"mobile"`
	Gender        string     `db:"gender"         json:"gender"`
	DateOfBirth   time.Time  `db:"date_of_birth"  json:"date_of_birth"`
	Username      string     `db:"username"       json:"username"`
	PasswordHash  string     `db:"password_hash"  json:"-"`
	LogoPath      *string    `db:"logo_path"      json:"logo_path,omitempty"`
	PlanID        int        `db:"plan_id"        json:"plan_id"`
	EmailVerified bool       `db:"email_verified" json:"email_verified"`
	Status        string     `db:"status"         json:"status"`
	ApprovedAt    *time.Time `db:"approved_at"    json:"approved_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at"     json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"     json:"updated_at"`
}

// TenantCredentials are the derived, ephemeral resources for a new tenant
// database. Regenerated on every approval attempt; the password is written
// into the subscriber plan record for administrative reference.
type TenantCredentials struct {
	Database string `json:"database"`
	User     string `json:"user"`
	Password string `json:"-"`
}
