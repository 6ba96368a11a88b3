// Package provision drives the approval of an onboarding request from
// PENDING to APPROVED: control-panel database creation, schema cloning,
// meta directory writes, and tenant database seeding, in that order.
package provision

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/view360/provisioning/internal/cache"
	"github.com/view360/provisioning/internal/config"
	"github.com/view360/provisioning/internal/cpanel"
	"github.com/view360/provisioning/internal/credentials"
	"github.com/view360/provisioning/internal/schema"
	"github.com/view360/provisioning/internal/store"
	"github.com/view360/provisioning/internal/tenantseed"
	"github.com/view360/provisioning/pkg/models"
)

const (
	// approvalLockTTL bounds how long a crashed approval can block retries.
	approvalLockTTL = 10 * time.Minute
	// phaseRecordTTL keeps the last reached phase around long enough for an
	// operator to reconcile a run that died between the two stores.
	phaseRecordTTL = 7 * 24 * time.Hour
)

// TenantConnector opens pooled connections to tenant databases by name.
// *store.TenantConnector satisfies it; tests substitute fakes.
type TenantConnector interface {
	ConnectWithRetry(ctx context.Context, dbName string) (store.TenantPool, error)
}

// TenantSeeder writes the initial rows of a new tenant database inside the
// given transaction. *tenantseed.Seeder satisfies it.
type TenantSeeder interface {
	Seed(ctx context.Context, tx pgx.Tx, p tenantseed.SeedParams) (*tenantseed.SeedResult, error)
}

// Settings are the provisioning knobs the orchestrator needs from config.
type Settings struct {
	RemoteAccessHost string
	PrivilegedUser   string
	SettleDelay      time.Duration
	TemplateSchema   string
}

// SettingsFromConfig extracts orchestrator settings from the loaded config.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		RemoteAccessHost: cfg.ControlPanel.RemoteAccessHost,
		PrivilegedUser:   cfg.ControlPanel.PrivilegedUser,
		SettleDelay:      cfg.ControlPanel.SettleDelay,
		TemplateSchema:   cfg.Provisioning.TemplateSchema,
	}
}

// Result reports what an approval created.
type Result struct {
	OrgID      int64   `json:"orgid"`
	Database   string  `json:"database"`
	EmployeeID string  `json:"empid"`
	RoleID     string  `json:"roleid"`
	LogoURL    *string `json:"logo_url,omitempty"`
}

// Orchestrator coordinates the provisioning collaborators. It holds no
// per-request state and is safe for concurrent use.
type Orchestrator struct {
	meta     store.MetaStore
	panel    cpanel.Client
	cloner   schema.Cloner
	tenants  TenantConnector
	seeder   TenantSeeder
	cache    cache.Cache
	settings Settings
	logger   *slog.Logger
}

// NewOrchestrator wires an Orchestrator from its collaborators.
func NewOrchestrator(meta store.MetaStore, panel cpanel.Client, cloner schema.Cloner,
	tenants TenantConnector, seeder TenantSeeder, c cache.Cache,
	settings Settings, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		meta:     meta,
		panel:    panel,
		cloner:   cloner,
		tenants:  tenants,
		seeder:   seeder,
		cache:    c,
		settings: settings,
		logger:   logger,
	}
}

// Approve provisions a tenant for the given pending request. On success the
// request is APPROVED in the meta store and the new tenant database is fully
// seeded. On failure the returned error carries the phase it failed in;
// completed phases are not rolled back across store boundaries.
func (o *Orchestrator) Approve(ctx context.Context, req *models.OnboardingRequest) (*Result, error) {
	if req.Status != models.RequestStatusPending {
		return nil, fmt.Errorf("request %s is %s, not %s", req.ID, req.Status, models.RequestStatusPending)
	}

	acquired, err := o.cache.AcquireApprovalLock(ctx, req.ID, approvalLockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire approval lock: %w", err)
	}
	if !acquired {
		return nil, fmt.Errorf("%w for request %s", ErrApprovalInProgress, req.ID)
	}
	defer func() {
		if err := o.cache.ReleaseApprovalLock(context.WithoutCancel(ctx), req.ID); err != nil {
			o.logger.Warn("failed to release approval lock", "request_id", req.ID, "error", err)
		}
	}()

	creds := credentials.Derive(req.CompanyName)
	log := o.logger.With("request_id", req.ID, "company", req.CompanyName, "database", creds.Database)
	log.Info("approving onboarding request")

	if err := o.panel.CreateDatabase(ctx, creds.Database, creds.User, creds.Password); err != nil {
		return nil, phaseErr(PhaseDBCreation, err)
	}
	o.recordPhase(ctx, req, StateInfraProvisioned)

	if err := o.openInfrastructure(ctx, creds); err != nil {
		return nil, err
	}

	if err := o.cloner.CloneSchema(ctx, o.settings.TemplateSchema, creds.Database); err != nil {
		return nil, phaseErr(PhaseSchemaClone, err)
	}
	log.Info("tenant schema cloned")

	orgID, err := o.commitMetaRecords(ctx, req, creds)
	if err != nil {
		return nil, err
	}
	o.recordPhase(ctx, req, StateMetaCommitted)
	log.Info("meta records committed", "orgid", orgID)

	seeded, err := o.seedTenant(ctx, req, orgID, creds)
	if err != nil {
		return nil, err
	}
	o.recordPhase(ctx, req, StateTenantSeeded)
	log.Info("tenant database seeded",
		"empid", seeded.EmployeeID,
		"permissions", seeded.Permissions,
		"catalog_rows", seeded.CatalogRows)

	// Both stores are written at this point. A failure here leaves the
	// request PENDING with a live tenant behind it; the phase record is the
	// operator's breadcrumb.
	if err := o.meta.MarkRequestApproved(ctx, req.ID); err != nil {
		return nil, fmt.Errorf("mark request approved: %w", err)
	}
	o.recordPhase(ctx, req, StateApproved)
	log.Info("onboarding request approved", "orgid", orgID)

	return &Result{
		OrgID:      orgID,
		Database:   creds.Database,
		EmployeeID: seeded.EmployeeID,
		RoleID:     seeded.RoleID,
		LogoURL:    seeded.LogoURL,
	}, nil
}

// openInfrastructure makes the freshly created tenant database reachable:
// remote access for the configured host and a grant for the privileged
// operational user. The settle delay gives the panel time to finish
// materializing the database before anything touches it.
func (o *Orchestrator) openInfrastructure(ctx context.Context, creds models.TenantCredentials) error {
	if err := sleepCtx(ctx, o.settings.SettleDelay); err != nil {
		return phaseErr(PhaseDBCreation, err)
	}

	if err := o.panel.AllowRemoteAccess(ctx, o.settings.RemoteAccessHost); err != nil {
		return phaseErr(PhaseDBCreation, fmt.Errorf("allow remote access: %w", err))
	}
	if err := o.panel.GrantPrivilegedUser(ctx, creds.Database, o.settings.PrivilegedUser); err != nil {
		return phaseErr(PhaseDBCreation, fmt.Errorf("grant privileged user: %w", err))
	}
	return nil
}

// commitMetaRecords writes the organization, subscriber, subscriber plan, and
// directory employee rows in one meta-store transaction and returns the
// generated org id.
func (o *Orchestrator) commitMetaRecords(ctx context.Context, req *models.OnboardingRequest, creds models.TenantCredentials) (int64, error) {
	tx, err := o.meta.Begin(ctx)
	if err != nil {
		return 0, phaseErr(PhaseMetaWrite, err)
	}
	defer tx.Rollback(ctx)

	orgID, err := o.meta.InsertOrganizationTx(ctx, tx, req.CompanyName)
	if err != nil {
		return 0, phaseErr(PhaseMetaWrite, fmt.Errorf("insert organization: %w", err))
	}

	subscriberID, err := o.meta.InsertSubscriberTx(ctx, tx, &models.Subscriber{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		OrgID:     orgID,
		Active:    true,
	})
	if err != nil {
		return 0, phaseErr(PhaseMetaWrite, fmt.Errorf("insert subscriber: %w", err))
	}

	if err := o.meta.InsertSubscriberPlanTx(ctx, tx, &models.SubscriberPlan{
		SubscriberID: subscriberID,
		PlanID:       req.PlanID,
		Database:     creds.Database,
		DBUser:       creds.User,
		DBPassword:   creds.Password,
		StartDate:    time.Now().UTC(),
		Active:       true,
	}); err != nil {
		return 0, phaseErr(PhaseMetaWrite, fmt.Errorf("insert subscriber plan: %w", err))
	}

	if err := o.meta.InsertDirectoryEmployeeTx(ctx, tx, &models.DirectoryEmployee{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		OrgID:     orgID,
		Username:  req.Username,
		PlanID:    req.PlanID,
		Email:     req.Email,
		Active:    true,
	}); err != nil {
		return 0, phaseErr(PhaseMetaWrite, fmt.Errorf("insert directory employee: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, phaseErr(PhaseMetaWrite, fmt.Errorf("commit: %w", err))
	}
	return orgID, nil
}

// seedTenant connects to the freshly created tenant database and runs the
// full seed inside one transaction.
func (o *Orchestrator) seedTenant(ctx context.Context, req *models.OnboardingRequest, orgID int64, creds models.TenantCredentials) (*tenantseed.SeedResult, error) {
	menus, err := o.meta.ListActiveMenus(ctx)
	if err != nil {
		return nil, phaseErr(PhaseTenantWrite, fmt.Errorf("load menu catalog: %w", err))
	}
	submenus, err := o.meta.ListActiveSubmenus(ctx)
	if err != nil {
		return nil, phaseErr(PhaseTenantWrite, fmt.Errorf("load submenu catalog: %w", err))
	}

	pool, err := o.tenants.ConnectWithRetry(ctx, creds.Database)
	if err != nil {
		return nil, phaseErr(PhaseTenantConnect, err)
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, phaseErr(PhaseTenantWrite, err)
	}
	defer tx.Rollback(ctx)

	seeded, err := o.seeder.Seed(ctx, tx, tenantseed.SeedParams{
		OrgID:    orgID,
		Request:  req,
		Menus:    menus,
		Submenus: submenus,
	})
	if err != nil {
		return nil, phaseErr(PhaseTenantWrite, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, phaseErr(PhaseTenantWrite, fmt.Errorf("commit: %w", err))
	}
	return seeded, nil
}

// recordPhase is best effort. Losing a phase record never fails the run.
func (o *Orchestrator) recordPhase(ctx context.Context, req *models.OnboardingRequest, phase string) {
	if err := o.cache.SetProvisioningPhase(ctx, req.ID, phase, phaseRecordTTL); err != nil {
		o.logger.Warn("failed to record provisioning phase",
			"request_id", req.ID, "phase", phase, "error", err)
	}
}

// sleepCtx waits for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
