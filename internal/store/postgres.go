package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/view360/provisioning/pkg/models"
)

// PostgresMetaStore implements the MetaStore interface using pgx/v5.
type PostgresMetaStore struct {
	pool *pgxpool.Pool
}

// NewPostgresMetaStore creates a new PostgresMetaStore.
func NewPostgresMetaStore(pool *pgxpool.Pool) *PostgresMetaStore {
	return &PostgresMetaStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresMetaStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Begin opens an explicit transaction on the meta database.
func (s *PostgresMetaStore) Begin(ctx context.Context) (pgx.Tx, error) {
	return s.pool.Begin(ctx)
}

// --- Onboarding requests ---

const onboardingColumns = `id, company_name, first_name, last_name, email, mobile, gender,
	date_of_birth, username, password_hash, logo_path, plan_id, email_verified,
	status, approved_at, created_at, updated_at`

func (s *PostgresMetaStore) CreateOnboardingRequest(ctx context.Context, req *models.OnboardingRequest) error {
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	if req.UpdatedAt.IsZero() {
		req.UpdatedAt = req.CreatedAt
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO c_org_onboarding_requests
		   (id, company_name, first_name, last_name, email, mobile, gender,
		    date_of_birth, username, password_hash, logo_path, plan_id,
		    email_verified, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		req.ID, req.CompanyName, req.FirstName, req.LastName, req.Email, req.Mobile,
		req.Gender, req.DateOfBirth, req.Username, req.PasswordHash, req.LogoPath,
		req.PlanID, req.EmailVerified, req.Status, req.CreatedAt, req.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create onboarding request: %w", err)
	}
	return nil
}

func (s *PostgresMetaStore) GetOnboardingRequest(ctx context.Context, id uuid.UUID) (*models.OnboardingRequest, error) {
	var r models.OnboardingRequest
	err := s.pool.QueryRow(ctx,
		`SELECT `+onboardingColumns+` FROM c_org_onboarding_requests WHERE id = $1`, id,
	).Scan(&r.ID, &r.CompanyName, &r.FirstName, &r.LastName, &r.Email, &r.Mobile,
		&r.Gender, &r.DateOfBirth, &r.Username, &r.PasswordHash, &r.LogoPath,
		&r.PlanID, &r.EmailVerified, &r.Status, &r.ApprovedAt, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get onboarding request: %w", err)
	}
	return &r, nil
}

func (s *PostgresMetaStore) ListPendingRequests(ctx context.Context) ([]*models.OnboardingRequest, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+onboardingColumns+` FROM c_org_onboarding_requests
		 WHERE status = $1 ORDER BY created_at ASC`, models.RequestStatusPending)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	defer rows.Close()

	var reqs []*models.OnboardingRequest
	for rows.Next() {
		var r models.OnboardingRequest
		if err := rows.Scan(&r.ID, &r.CompanyName, &r.FirstName, &r.LastName, &r.Email,
			&r.Mobile, &r.Gender, &r.DateOfBirth, &r.Username, &r.PasswordHash,
			&r.LogoPath, &r.PlanID, &r.EmailVerified, &r.Status, &r.ApprovedAt,
			&r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan onboarding request: %w", err)
		}
		reqs = append(reqs, &r)
	}
	return reqs, rows.Err()
}

func (s *PostgresMetaStore) MarkRequestVerified(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE c_org_onboarding_requests SET email_verified = TRUE, updated_at = NOW()
		 WHERE id = $1 AND status = $2`, id, models.RequestStatusPending)
	if err != nil {
		return fmt.Errorf("mark request verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresMetaStore) MarkRequestApproved(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE c_org_onboarding_requests
		 SET status = $2, approved_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND status = $3`,
		id, models.RequestStatusApproved, models.RequestStatusPending)
	if err != nil {
		return fmt.Errorf("mark request approved: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresMetaStore) EmailOrUsernameExists(ctx context.Context, email, username string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM c_emp WHERE email = $1 OR username = $2
		   UNION
		   SELECT 1 FROM c_org_onboarding_requests WHERE email = $1 OR username = $2
		 )`, email, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email/username: %w", err)
	}
	return exists, nil
}

// --- Menu catalog ---

func (s *PostgresMetaStore) ListActiveMenus(ctx context.Context) ([]*models.Menu, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT menuid, menuname, has_submenus, active FROM c_menu
		 WHERE active ORDER BY menuid`)
	if err != nil {
		return nil, fmt.Errorf("list active menus: %w", err)
	}
	defer rows.Close()

	var menus []*models.Menu
	for rows.Next() {
		var m models.Menu
		if err := rows.Scan(&m.ID, &m.Name, &m.HasSubmenus, &m.Active); err != nil {
			return nil, fmt.Errorf("scan menu: %w", err)
		}
		menus = append(menus, &m)
	}
	return menus, rows.Err()
}

func (s *PostgresMetaStore) ListActiveSubmenus(ctx context.Context) ([]*models.Submenu, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT submenuid, menuid, submenuname, active FROM c_submenu
		 WHERE active ORDER BY menuid, submenuid`)
	if err != nil {
		return nil, fmt.Errorf("list active submenus: %w", err)
	}
	defer rows.Close()

	var subs []*models.Submenu
	for rows.Next() {
		var sm models.Submenu
		if err := rows.Scan(&sm.ID, &sm.MenuID, &sm.Name, &sm.Active); err != nil {
			return nil, fmt.Errorf("scan submenu: %w", err)
		}
		subs = append(subs, &sm)
	}
	return subs, rows.Err()
}

// --- Transactional provisioning writers ---

func (s *PostgresMetaStore) InsertOrganizationTx(ctx context.Context, tx pgx.Tx, name string) (int64, error) {
	var orgID int64
	err := tx.QueryRow(ctx,
		`INSERT INTO c_org (orgname, active, created_at) VALUES ($1, TRUE, NOW())
		 RETURNING orgid`, name).Scan(&orgID)
	if err != nil {
		return 0, fmt.Errorf("insert organization: %w", err)
	}
	return orgID, nil
}

func (s *PostgresMetaStore) InsertSubscriberTx(ctx context.Context, tx pgx.Tx, sub *models.Subscriber) (int64, error) {
	var subscriberID int64
	err := tx.QueryRow(ctx,
		`INSERT INTO c_subscriber (first_name, last_name, orgid, active)
		 VALUES ($1, $2, $3, $4) RETURNING subscriberid`,
		sub.FirstName, sub.LastName, sub.OrgID, sub.Active).Scan(&subscriberID)
	if err != nil {
		return 0, fmt.Errorf("insert subscriber: %w", err)
	}
	return subscriberID, nil
}

func (s *PostgresMetaStore) InsertSubscriberPlanTx(ctx context.Context, tx pgx.Tx, plan *models.SubscriberPlan) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO c_subscriber_plan
		   (subscriberid, planid, subscriber_database, db_user, db_password, plan_start_date, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		plan.SubscriberID, plan.PlanID, plan.Database, plan.DBUser, plan.DBPassword,
		plan.StartDate, plan.Active)
	if err != nil {
		return fmt.Errorf("insert subscriber plan: %w", err)
	}
	return nil
}

func (s *PostgresMetaStore) InsertDirectoryEmployeeTx(ctx context.Context, tx pgx.Tx, emp *models.DirectoryEmployee) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO c_emp (first_name, last_name, orgid, username, planid, email, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		emp.FirstName, emp.LastName, emp.OrgID, emp.Username, emp.PlanID, emp.Email, emp.Active)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("insert directory employee: %w", err)
	}
	return nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

// Compile-time check that PostgresMetaStore implements MetaStore.
var _ MetaStore = (*PostgresMetaStore)(nil)
