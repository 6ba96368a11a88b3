package models

import "time"

const OrgStatusActive = "ACTIVE"

// TenantOrganization mirrors the meta organization inside the tenant's own
// database. Its ID is assigned from the meta row, never autogenerated.
type TenantOrganization struct {
	ID      int64   `db:"orgid"       json:"orgid"`
	Name    string  `db:"orgname"     json:"orgname"`
	Status  string  `db:"status"      json:"status"`
	LogoURL *string `db:"logo_url"    json:"logo_url,omitempty"`
	LogoSet bool    `db:"is_logo_set" json:"is_logo_set"`
}

// Employee is the first administrative employee of a tenant,
// keyed by the composite id "<orgid>_<sequence>".
type Employee struct {
	ID          string    `db:"empid"         json:"empid"`
	FirstName   string    `db:"first_name"    json:"first_name"`
	LastName    string    `db:"last_name"     json:"last_name"`
	Email       string    `db:"email"         json:"email"`
	Mobile      string    `db:"mobile"        json:"mobile"`
	Gender      string    `db:"gender"        json:"gender"`
	DateOfBirth time.Time `db:"date_of_birth" json:"date_of_birth"`
	Active      bool      `db:"active"        json:"active"`
}

// User is a tenant login credential referencing an employee.
// The password hash is carried over from the onboarding request.
type User struct {
	Username     string `db:"username"      json:"username"`
	EmployeeID   string `db:"empid"         json:"empid"`
	PasswordHash string `db:"password_hash" json:"-"`
	Email        string `db:"email"         json:"email"`
	Active       bool   `db:"active"        json:"active"`
}

// Role is a tenant role, keyed by "<orgid>-<sequence>".
type Role struct {
	ID      string `db:"roleid"   json:"roleid"`
	Name    string `db:"rolename" json:"rolename"`
	IsAdmin bool   `db:"isadmin"  json:"isadmin"`
	Active  bool   `db:"active"   json:"active"`
}

// RoleAssignment links an employee to a role.
type RoleAssignment struct {
	EmployeeID string `db:"empid"  json:"empid"`
	RoleID     string `db:"roleid" json:"roleid"`
}

// Permission is a per-role grant for one menu or submenu. The three scope
// columns control data visibility: all rows, team rows, or own rows only.
type Permission struct {
	RoleID    string `db:"roleid"     json:"roleid"`
	MenuID    int    `db:"menuid"     json:"menuid"`
	SubmenuID *int   `db:"submenuid"  json:"submenuid,omitempty"`
	AllData   int    `db:"all_data"   json:"all_data"`
	TeamData  int    `db:"team_data"  json:"team_data"`
	SelfData  int    `db:"self_data"  json:"self_data"`
}

// MenuPriority orders menu/submenu entries for a tenant's navigation.
// Priorities form a strictly increasing sequence starting at 1.
type MenuPriority struct {
	OrgID     int64 `db:"orgid"     json:"orgid"`
	MenuID    int   `db:"menuid"    json:"menuid"`
	SubmenuID *int  `db:"submenuid" json:"submenuid,omitempty"`
	Priority  int   `db:"priority"  json:"priority"`
}

// GenericValue is one row of the fixed reference/lookup catalog copied into
// every tenant. IDs and group IDs are global constants shared by all tenants;
// only the org id column differs per tenant.
type GenericValue struct {
	ID           int    `db:"gv_id"         json:"gv_id"`
	GroupID      int    `db:"g_id"          json:"g_id"`
	Name         string `db:"gv_name"       json:"gv_name"`
	Active       bool   `db:"active"        json:"active"`
	IsDefault    bool   `db:"is_default"    json:"is_default"`
	ParentID     *int   `db:"parent_gv_id"  json:"parent_gv_id,omitempty"`
	DisplayOrder int    `db:"display_order" json:"display_order"`
	OrgID        int64  `db:"orgid"         json:"orgid"`
}

// SubOrg is a tenant sub-organization, keyed by "<orgid>-<sequence>".
type SubOrg struct {
	ID     string `db:"suborgid"   json:"suborgid"`
	Name   string `db:"suborgname" json:"suborgname"`
	Active bool   `db:"active"     json:"active"`
}
