package provision

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/view360/provisioning/internal/store"
	"github.com/view360/provisioning/internal/tenantseed"
	"github.com/view360/provisioning/pkg/models"
)

// recorder collects the order of collaborator calls so tests can assert the
// provisioning sequence.
type recorder struct {
	calls []string
}

func (r *recorder) add(call string) {
	r.calls = append(r.calls, call)
}

type fakePanel struct {
	rec       *recorder
	createErr error
	accessErr error
	grantErr  error

	createdDB   string
	createdUser string
	grantedUser string
	allowedHost string
}

func (p *fakePanel) CreateDatabase(_ context.Context, name, user, _ string) error {
	p.rec.add("panel.CreateDatabase")
	p.createdDB, p.createdUser = name, user
	return p.createErr
}

func (p *fakePanel) AllowRemoteAccess(_ context.Context, host string) error {
	p.rec.add("panel.AllowRemoteAccess")
	p.allowedHost = host
	return p.accessErr
}

func (p *fakePanel) GrantPrivilegedUser(_ context.Context, _, user string) error {
	p.rec.add("panel.GrantPrivilegedUser")
	p.grantedUser = user
	return p.grantErr
}

type fakeCloner struct {
	rec    *recorder
	err    error
	source string
	dest   string
}

func (c *fakeCloner) CloneSchema(_ context.Context, sourceSchema, destDB string) error {
	c.rec.add("cloner.CloneSchema")
	c.source, c.dest = sourceSchema, destDB
	return c.err
}

// fakeTx satisfies the two pgx.Tx methods the orchestrator calls. The
// embedded interface panics on anything else, which is what we want: the
// orchestrator must not touch transaction internals.
type fakeTx struct {
	pgx.Tx
	rec        *recorder
	label      string
	commitErr  error
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Commit(_ context.Context) error {
	t.rec.add(t.label + ".Commit")
	if t.commitErr != nil {
		return t.commitErr
	}
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(_ context.Context) error {
	if t.committed {
		return pgx.ErrTxClosed
	}
	t.rolledBack = true
	return nil
}

type fakeMeta struct {
	store.MetaStore
	rec *recorder

	tx           *fakeTx
	beginErr     error
	orgID        int64
	insertOrgErr error
	insertSubErr error
	planErr      error
	dirErr       error
	approveErr   error

	menus    []*models.Menu
	submenus []*models.Submenu

	plan     *models.SubscriberPlan
	dirEmp   *models.DirectoryEmployee
	approved []uuid.UUID
}

func (m *fakeMeta) Begin(_ context.Context) (pgx.Tx, error) {
	m.rec.add("meta.Begin")
	if m.beginErr != nil {
		return nil, m.beginErr
	}
	return m.tx, nil
}

func (m *fakeMeta) InsertOrganizationTx(_ context.Context, _ pgx.Tx, _ string) (int64, error) {
	m.rec.add("meta.InsertOrganization")
	return m.orgID, m.insertOrgErr
}

func (m *fakeMeta) InsertSubscriberTx(_ context.Context, _ pgx.Tx, _ *models.Subscriber) (int64, error) {
	m.rec.add("meta.InsertSubscriber")
	return 7001, m.insertSubErr
}

func (m *fakeMeta) InsertSubscriberPlanTx(_ context.Context, _ pgx.Tx, plan *models.SubscriberPlan) error {
	m.rec.add("meta.InsertSubscriberPlan")
	m.plan = plan
	return m.planErr
}

func (m *fakeMeta) InsertDirectoryEmployeeTx(_ context.Context, _ pgx.Tx, emp *models.DirectoryEmployee) error {
	m.rec.add("meta.InsertDirectoryEmployee")
	m.dirEmp = emp
	return m.dirErr
}

func (m *fakeMeta) ListActiveMenus(_ context.Context) ([]*models.Menu, error) {
	return m.menus, nil
}

func (m *fakeMeta) ListActiveSubmenus(_ context.Context) ([]*models.Submenu, error) {
	return m.submenus, nil
}

func (m *fakeMeta) MarkRequestApproved(_ context.Context, id uuid.UUID) error {
	m.rec.add("meta.MarkRequestApproved")
	if m.approveErr != nil {
		return m.approveErr
	}
	m.approved = append(m.approved, id)
	return nil
}

type fakePool struct {
	rec    *recorder
	tx     *fakeTx
	closed bool
}

func (p *fakePool) Begin(_ context.Context) (pgx.Tx, error) {
	p.rec.add("tenant.Begin")
	return p.tx, nil
}

func (p *fakePool) Ping(_ context.Context) error { return nil }

func (p *fakePool) Close() {
	p.rec.add("tenant.Close")
	p.closed = true
}

type fakeConnector struct {
	rec    *recorder
	pool   *fakePool
	err    error
	dbName string
}

func (c *fakeConnector) ConnectWithRetry(_ context.Context, dbName string) (store.TenantPool, error) {
	c.rec.add("tenants.Connect")
	c.dbName = dbName
	if c.err != nil {
		return nil, c.err
	}
	return c.pool, nil
}

type fakeSeeder struct {
	rec    *recorder
	err    error
	params tenantseed.SeedParams
}

func (s *fakeSeeder) Seed(_ context.Context, _ pgx.Tx, p tenantseed.SeedParams) (*tenantseed.SeedResult, error) {
	s.rec.add("seeder.Seed")
	s.params = p
	if s.err != nil {
		return nil, s.err
	}
	return &tenantseed.SeedResult{
		EmployeeID:  "9001_1",
		RoleID:      "9001-1",
		SubOrgID:    "9001-1",
		Permissions: 24,
		CatalogRows: 506,
	}, nil
}

type fakeCache struct {
	lockHeld   bool
	lockErr    error
	acquired   []uuid.UUID
	released   []uuid.UUID
	phases     []string
	phaseErr   error
	signupCode string
}

func (c *fakeCache) Ping(context.Context) error { return nil }

func (c *fakeCache) SetSignupCode(_ context.Context, _ uuid.UUID, code string, _ time.Duration) error {
	c.signupCode = code
	return nil
}

func (c *fakeCache) GetSignupCode(context.Context, uuid.UUID) (string, bool, error) {
	return c.signupCode, c.signupCode != "", nil
}

func (c *fakeCache) DeleteSignupCode(context.Context, uuid.UUID) error { return nil }

func (c *fakeCache) AcquireApprovalLock(_ context.Context, id uuid.UUID, _ time.Duration) (bool, error) {
	if c.lockErr != nil {
		return false, c.lockErr
	}
	if c.lockHeld {
		return false, nil
	}
	c.acquired = append(c.acquired, id)
	return true, nil
}

func (c *fakeCache) ReleaseApprovalLock(_ context.Context, id uuid.UUID) error {
	c.released = append(c.released, id)
	return nil
}

func (c *fakeCache) SetProvisioningPhase(_ context.Context, _ uuid.UUID, phase string, _ time.Duration) error {
	if c.phaseErr != nil {
		return c.phaseErr
	}
	c.phases = append(c.phases, phase)
	return nil
}

func (c *fakeCache) GetProvisioningPhase(context.Context, uuid.UUID) (string, bool, error) {
	if len(c.phases) == 0 {
		return "", false, nil
	}
	return c.phases[len(c.phases)-1], true, nil
}

func (c *fakeCache) IncrWithExpiry(context.Context, string, time.Duration) (int64, error) {
	return 1, nil
}

// harness bundles the orchestrator with all its fakes.
type harness struct {
	rec       *recorder
	orch      *Orchestrator
	panel     *fakePanel
	cloner    *fakeCloner
	meta      *fakeMeta
	connector *fakeConnector
	pool      *fakePool
	seeder    *fakeSeeder
	cache     *fakeCache
	metaTx    *fakeTx
	tenantTx  *fakeTx
}

func newHarness() *harness {
	rec := &recorder{}
	h := &harness{
		rec:      rec,
		panel:    &fakePanel{rec: rec},
		cloner:   &fakeCloner{rec: rec},
		metaTx:   &fakeTx{rec: rec, label: "metaTx"},
		tenantTx: &fakeTx{rec: rec, label: "tenantTx"},
		seeder:   &fakeSeeder{rec: rec},
		cache:    &fakeCache{},
	}
	h.meta = &fakeMeta{
		rec:   rec,
		tx:    h.metaTx,
		orgID: 9001,
		menus: []*models.Menu{
			{ID: 1, Name: "Dashboard", Active: true},
			{ID: 6, Name: "Service Requests", Active: true},
		},
	}
	h.pool = &fakePool{rec: rec, tx: h.tenantTx}
	h.connector = &fakeConnector{rec: rec, pool: h.pool}

	h.orch = NewOrchestrator(h.meta, h.panel, h.cloner, h.connector, h.seeder, h.cache,
		Settings{
			RemoteAccessHost: "%",
			PrivilegedUser:   "view360_ops",
			SettleDelay:      time.Millisecond,
			TemplateSchema:   "tenant_template",
		},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	return h
}

func pendingRequest() *models.OnboardingRequest {
	return &models.OnboardingRequest{
		ID:            uuid.New(),
		CompanyName:   "Acme Corp",
		FirstName:     "Ada",
		LastName:      "Lovelace",
		Email:         "ada@acme.example",
		Mobile:        "+1-555-0100",
		Gender:        "Female",
		DateOfBirth:   time.Date(1990, 12, 10, 0, 0, 0, 0, time.UTC),
		Username:      "ada.lovelace",
		PasswordHash:  "$2a$10$abcdefghijklmnopqrstuv",
		PlanID:        2,
		EmailVerified: true,
		Status:        models.RequestStatusPending,
	}
}

func TestApprove_FullSequence(t *testing.T) {
	h := newHarness()
	req := pendingRequest()

	res, err := h.orch.Approve(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, int64(9001), res.OrgID)
	assert.Equal(t, "AcmeCorp360view", res.Database)
	assert.Equal(t, "9001_1", res.EmployeeID)
	assert.Equal(t, "9001-1", res.RoleID)

	assert.Equal(t, []string{
		"panel.CreateDatabase",
		"panel.AllowRemoteAccess",
		"panel.GrantPrivilegedUser",
		"cloner.CloneSchema",
		"meta.Begin",
		"meta.InsertOrganization",
		"meta.InsertSubscriber",
		"meta.InsertSubscriberPlan",
		"meta.InsertDirectoryEmployee",
		"metaTx.Commit",
		"tenants.Connect",
		"tenant.Begin",
		"seeder.Seed",
		"tenantTx.Commit",
		"meta.MarkRequestApproved",
		"tenant.Close",
	}, h.rec.calls)

	assert.Equal(t, []string{
		StateInfraProvisioned,
		StateMetaCommitted,
		StateTenantSeeded,
		StateApproved,
	}, h.cache.phases)

	// Lock held for the run, released after.
	assert.Equal(t, []uuid.UUID{req.ID}, h.cache.acquired)
	assert.Equal(t, []uuid.UUID{req.ID}, h.cache.released)

	// Derived credentials flow to every collaborator.
	assert.Equal(t, "AcmeCorp360view", h.panel.createdDB)
	assert.Equal(t, "AcmeCorp360u", h.panel.createdUser)
	assert.Equal(t, "%", h.panel.allowedHost)
	assert.Equal(t, "view360_ops", h.panel.grantedUser)
	assert.Equal(t, "tenant_template", h.cloner.source)
	assert.Equal(t, "AcmeCorp360view", h.cloner.dest)
	assert.Equal(t, "AcmeCorp360view", h.connector.dbName)

	// The meta org id is handed to the seeder verbatim.
	assert.Equal(t, int64(9001), h.seeder.params.OrgID)
	assert.Same(t, req, h.seeder.params.Request)

	require.NotNil(t, h.meta.plan)
	assert.Equal(t, "AcmeCorp360view", h.meta.plan.Database)
	assert.Equal(t, 2, h.meta.plan.PlanID)
	assert.NotEmpty(t, h.meta.plan.DBPassword)

	require.NotNil(t, h.meta.dirEmp)
	assert.Equal(t, "ada.lovelace", h.meta.dirEmp.Username)

	assert.Equal(t, []uuid.UUID{req.ID}, h.meta.approved)
	assert.True(t, h.pool.closed)
}

func TestApprove_RejectsNonPendingRequest(t *testing.T) {
	h := newHarness()
	req := pendingRequest()
	req.Status = models.RequestStatusApproved

	_, err := h.orch.Approve(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not PENDING")
	assert.Empty(t, h.rec.calls, "no collaborator should be touched")
	assert.Empty(t, h.cache.acquired, "lock must not be taken for a settled request")
}

func TestApprove_LockContention(t *testing.T) {
	h := newHarness()
	h.cache.lockHeld = true

	_, err := h.orch.Approve(context.Background(), pendingRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already in progress")
	assert.Empty(t, h.rec.calls)
	assert.Empty(t, h.cache.released, "a lock we never took must not be released")
}

func TestApprove_DatabaseCreationFailure(t *testing.T) {
	h := newHarness()
	h.panel.createErr = errors.New("quota exceeded")

	_, err := h.orch.Approve(context.Background(), pendingRequest())
	require.Error(t, err)
	assert.Equal(t, "DB Creation: quota exceeded", err.Error())

	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, PhaseDBCreation, perr.Phase)

	assert.Equal(t, []string{"panel.CreateDatabase"}, h.rec.calls)
	assert.Empty(t, h.cache.phases, "no phase reached")
	assert.Equal(t, 1, len(h.cache.released), "lock released even on failure")
}

func TestApprove_SchemaCloneFailure(t *testing.T) {
	h := newHarness()
	h.cloner.err = errors.New("dirty database version 1")

	_, err := h.orch.Approve(context.Background(), pendingRequest())
	require.Error(t, err)
	assert.Equal(t, "Schema Clone: dirty database version 1", err.Error())

	assert.NotContains(t, h.rec.calls, "meta.Begin", "meta writes must not start after a failed clone")
	assert.Equal(t, []string{StateInfraProvisioned}, h.cache.phases)
}

func TestApprove_MetaWriteFailureRollsBack(t *testing.T) {
	h := newHarness()
	h.meta.planErr = errors.New("duplicate key violation")

	_, err := h.orch.Approve(context.Background(), pendingRequest())
	require.Error(t, err)

	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, PhaseMetaWrite, perr.Phase)

	assert.True(t, h.metaTx.rolledBack, "failed meta transaction must roll back")
	assert.False(t, h.metaTx.committed)
	assert.NotContains(t, h.rec.calls, "tenants.Connect")
	assert.Equal(t, []string{StateInfraProvisioned}, h.cache.phases)
}

func TestApprove_TenantConnectFailure(t *testing.T) {
	h := newHarness()
	h.connector.err = errors.New("after 5 attempts: connection refused")

	_, err := h.orch.Approve(context.Background(), pendingRequest())
	require.Error(t, err)
	assert.Equal(t, "Tenant Connect: after 5 attempts: connection refused", err.Error())

	// Meta records stay committed; only the phase record and error tell the
	// operator where the run stopped.
	assert.True(t, h.metaTx.committed)
	assert.Equal(t, []string{StateInfraProvisioned, StateMetaCommitted}, h.cache.phases)
	assert.NotContains(t, h.rec.calls, "meta.MarkRequestApproved")
}

func TestApprove_SeedFailureRollsBackTenantOnly(t *testing.T) {
	h := newHarness()
	h.seeder.err = errors.New("insert admin role: connection reset")

	_, err := h.orch.Approve(context.Background(), pendingRequest())
	require.Error(t, err)

	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, PhaseTenantWrite, perr.Phase)

	assert.True(t, h.metaTx.committed, "meta commit is not undone by a tenant failure")
	assert.True(t, h.tenantTx.rolledBack)
	assert.True(t, h.pool.closed, "tenant pool closed on the failure path")
	assert.NotContains(t, h.rec.calls, "meta.MarkRequestApproved")
	assert.Equal(t, []string{StateInfraProvisioned, StateMetaCommitted}, h.cache.phases)
}

func TestApprove_StatusUpdateFailureAfterSeed(t *testing.T) {
	h := newHarness()
	h.meta.approveErr = errors.New("connection reset")

	_, err := h.orch.Approve(context.Background(), pendingRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mark request approved")

	// Both stores are written; the phase record shows how far the run got.
	assert.True(t, h.metaTx.committed)
	assert.True(t, h.tenantTx.committed)
	assert.Equal(t, []string{
		StateInfraProvisioned,
		StateMetaCommitted,
		StateTenantSeeded,
	}, h.cache.phases)
}

func TestApprove_MissingLogoIsNotFatal(t *testing.T) {
	h := newHarness()
	req := pendingRequest()
	path := "/nonexistent/staged-logo.png"
	req.LogoPath = &path

	res, err := h.orch.Approve(context.Background(), req)
	require.NoError(t, err, "a lost logo never fails provisioning")
	assert.Nil(t, res.LogoURL)
}

func TestApprove_PhaseRecordLossIsNotFatal(t *testing.T) {
	h := newHarness()
	h.cache.phaseErr = errors.New("redis: connection pool timeout")

	res, err := h.orch.Approve(context.Background(), pendingRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(9001), res.OrgID)
}
