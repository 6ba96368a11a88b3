package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/view360/provisioning/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// MetaStore is the data access interface for the shared meta directory
// database. All meta database operations go through here.
//
// The *Tx writers run inside an explicit transaction obtained from Begin;
// the orchestrator owns commit/rollback so the four provisioning inserts
// land or vanish together.
type MetaStore interface {
	Ping(ctx context.Context) error

	CreateOnboardingRequest(ctx context.Context, req *models.OnboardingRequest) error
	GetOnboardingRequest(ctx context.Context, id uuid.UUID) (*models.OnboardingRequest, error)
	ListPendingRequests(ctx context.Context) ([]*models.OnboardingRequest, error)
	MarkRequestVerified(ctx context.Context, id uuid.UUID) error
	MarkRequestApproved(ctx context.Context, id uuid.UUID) error
	EmailOrUsernameExists(ctx context.Context, email, username string) (bool, error)

	ListActiveMenus(ctx context.Context) ([]*models.Menu, error)
	ListActiveSubmenus(ctx context.Context) ([]*models.Submenu, error)

	Begin(ctx context.Context) (pgx.Tx, error)
	InsertOrganizationTx(ctx context.Context, tx pgx.Tx, name string) (int64, error)
	InsertSubscriberTx(ctx context.Context, tx pgx.Tx, sub *models.Subscriber) (int64, error)
	InsertSubscriberPlanTx(ctx context.Context, tx pgx.Tx, plan *models.SubscriberPlan) error
	InsertDirectoryEmployeeTx(ctx context.Context, tx pgx.Tx, emp *models.DirectoryEmployee) error
}
