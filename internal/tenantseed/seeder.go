// Package tenantseed populates a freshly cloned tenant database with its
// initial organization, admin user, role grants, navigation ordering, and
// reference catalog. Everything runs inside one transaction owned by the
// caller; the whole seed lands or none of it does.
package tenantseed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/view360/provisioning/pkg/models"
)

// Seeder writes the initial rows of a new tenant database.
type Seeder struct {
	logoUploadDir string
	logoStoreDir  string
}

// NewSeeder creates a Seeder using the given logo staging and storage
// directories.
func NewSeeder(logoUploadDir, logoStoreDir string) *Seeder {
	return &Seeder{logoUploadDir: logoUploadDir, logoStoreDir: logoStoreDir}
}

// SeedParams carries everything the seeder needs: the org id assigned by the
// meta store, the originating request, and the global menu catalog.
type SeedParams struct {
	OrgID    int64
	Request  *models.OnboardingRequest
	Menus    []*models.Menu
	Submenus []*models.Submenu
}

// SeedResult reports what was created, for logging and assertions.
type SeedResult struct {
	EmployeeID  string
	RoleID      string
	SubOrgID    string
	LogoURL     *string
	Permissions int
	CatalogRows int
}

// Seed runs the full tenant seeding sequence inside the given transaction.
// The org id is taken from the meta store verbatim; the tenant schema never
// assigns its own.
func (s *Seeder) Seed(ctx context.Context, tx pgx.Tx, p SeedParams) (*SeedResult, error) {
	req := p.Request
	empID := fmt.Sprintf("%d_1", p.OrgID)
	roleID := fmt.Sprintf("%d-1", p.OrgID)
	subOrgID := fmt.Sprintf("%d-1", p.OrgID)

	logoURL, logoSet := s.relocateLogo(p.OrgID, req.LogoPath)

	if _, err := tx.Exec(ctx,
		`INSERT INTO c_org (orgid, orgname, status, logo_url, is_logo_set)
		 VALUES ($1, $2, $3, $4, $5)`,
		p.OrgID, req.CompanyName, models.OrgStatusActive, logoURL, logoSet); err != nil {
		return nil, fmt.Errorf("insert tenant organization: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO c_emp (empid, first_name, last_name, email, mobile, gender, date_of_birth, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)`,
		empID, req.FirstName, req.LastName, req.Email, req.Mobile, req.Gender, req.DateOfBirth); err != nil {
		return nil, fmt.Errorf("insert first employee: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO c_user (username, empid, password_hash, email, active)
		 VALUES ($1, $2, $3, $4, TRUE)`,
		req.Username, empID, req.PasswordHash, req.Email); err != nil {
		return nil, fmt.Errorf("insert admin user: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO c_org_role_table (roleid, rolename, isadmin, active)
		 VALUES ($1, 'Administrator', TRUE, TRUE)`, roleID); err != nil {
		return nil, fmt.Errorf("insert admin role: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO c_emp_role_assign (empid, roleid) VALUES ($1, $2)`,
		empID, roleID); err != nil {
		return nil, fmt.Errorf("assign admin role: %w", err)
	}

	perms := BuildPermissions(roleID, p.Menus, p.Submenus)
	for _, perm := range perms {
		if _, err := tx.Exec(ctx,
			`INSERT INTO c_role_menu_permissions (roleid, menuid, submenuid, all_data, team_data, self_data)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			perm.RoleID, perm.MenuID, perm.SubmenuID, perm.AllData, perm.TeamData, perm.SelfData); err != nil {
			return nil, fmt.Errorf("insert permission for menu %d: %w", perm.MenuID, err)
		}
	}

	for _, prio := range BuildMenuPriorities(p.OrgID, p.Menus, p.Submenus) {
		if _, err := tx.Exec(ctx,
			`INSERT INTO c_org_menu_priority (orgid, menuid, submenuid, priority)
			 VALUES ($1, $2, $3, $4)`,
			prio.OrgID, prio.MenuID, prio.SubmenuID, prio.Priority); err != nil {
			return nil, fmt.Errorf("insert menu priority %d: %w", prio.Priority, err)
		}
	}

	catalog, err := CatalogRows(p.OrgID)
	if err != nil {
		return nil, err
	}
	copied, err := tx.CopyFrom(ctx,
		pgx.Identifier{"c_generic_values"},
		[]string{"gv_id", "g_id", "gv_name", "active", "is_default", "parent_gv_id", "display_order", "orgid"},
		pgx.CopyFromSlice(len(catalog), func(i int) ([]any, error) {
			row := catalog[i]
			return []any{row.ID, row.GroupID, row.Name, row.Active, row.IsDefault,
				row.ParentID, row.DisplayOrder, row.OrgID}, nil
		}))
	if err != nil {
		return nil, fmt.Errorf("copy generic values: %w", err)
	}
	if int(copied) != len(catalog) {
		return nil, fmt.Errorf("copy generic values: copied %d of %d rows", copied, len(catalog))
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO c_sub_org (suborgid, suborgname, active) VALUES ($1, $2, TRUE)`,
		subOrgID, req.CompanyName); err != nil {
		return nil, fmt.Errorf("insert first sub-organization: %w", err)
	}

	return &SeedResult{
		EmployeeID:  empID,
		RoleID:      roleID,
		SubOrgID:    subOrgID,
		LogoURL:     logoURL,
		Permissions: len(perms),
		CatalogRows: len(catalog),
	}, nil
}
