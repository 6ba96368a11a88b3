package tenantseed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/view360/provisioning/pkg/models"
)

func testMenus() []*models.Menu {
	return []*models.Menu{
		{ID: 1, Name: "Dashboard", Active: true},
		{ID: 2, Name: "Contacts", Active: true},
		{ID: 6, Name: "Service Requests", Active: true},
		{ID: 7, Name: "Interviews", HasSubmenus: true, Active: true},
		{ID: 8, Name: "Invoicing", HasSubmenus: true, Active: true},
	}
}

func testSubmenus() []*models.Submenu {
	return []*models.Submenu{
		{ID: 701, MenuID: 7, Name: "Interview Scheduling", Active: true},
		{ID: 702, MenuID: 7, Name: "Interview Feedback", Active: true},
		{ID: 801, MenuID: 8, Name: "Invoices", Active: true},
		{ID: 802, MenuID: 8, Name: "Payments", Active: true},
	}
}

func TestBuildPermissions_OnePerMenuAndSubmenu(t *testing.T) {
	menus, submenus := testMenus(), testSubmenus()
	perms := BuildPermissions("9-1", menus, submenus)

	assert.Len(t, perms, len(menus)+len(submenus))
	for _, p := range perms {
		assert.Equal(t, "9-1", p.RoleID)
	}
}

func TestBuildPermissions_VisibilityAllowList(t *testing.T) {
	perms := BuildPermissions("9-1", testMenus(), testSubmenus())

	for _, p := range perms {
		switch {
		case p.SubmenuID == nil && p.MenuID == 6:
			assert.Equal(t, 1, p.AllData, "service requests menu gets full visibility")
		case p.SubmenuID != nil && *p.SubmenuID == 701:
			assert.Equal(t, 1, p.AllData, "interview scheduling gets full visibility")
		default:
			assert.Equal(t, 0, p.AllData, "menu %d submenu %v", p.MenuID, p.SubmenuID)
		}
		assert.Equal(t, 0, p.TeamData)
		assert.Equal(t, 0, p.SelfData)
	}
}

func TestBuildPermissions_SkipsInactive(t *testing.T) {
	menus := []*models.Menu{
		{ID: 1, Active: true},
		{ID: 2, Active: false},
	}
	submenus := []*models.Submenu{
		{ID: 201, MenuID: 2, Active: false},
	}
	perms := BuildPermissions("1-1", menus, submenus)
	require.Len(t, perms, 1)
	assert.Equal(t, 1, perms[0].MenuID)
}

func TestBuildMenuPriorities_StrictlyIncreasingFromOne(t *testing.T) {
	rows := BuildMenuPriorities(9, testMenus(), testSubmenus())

	// 3 plain menus + 2 submenus each under two submenu-bearing menus.
	require.Len(t, rows, 7)
	for i, row := range rows {
		assert.Equal(t, i+1, row.Priority, "priorities must be gap-free from 1")
		assert.Equal(t, int64(9), row.OrgID)
	}
}

func TestBuildMenuPriorities_SubmenuExpansion(t *testing.T) {
	rows := BuildMenuPriorities(9, testMenus(), testSubmenus())

	// Menus without submenus contribute themselves; submenu-bearing menus
	// contribute one row per submenu in id order.
	type entry struct {
		menu int
		sub  int
	}
	var got []entry
	for _, row := range rows {
		e := entry{menu: row.MenuID}
		if row.SubmenuID != nil {
			e.sub = *row.SubmenuID
		}
		got = append(got, e)
	}
	want := []entry{
		{1, 0}, {2, 0}, {6, 0},
		{7, 701}, {7, 702},
		{8, 801}, {8, 802},
	}
	assert.Equal(t, want, got)
}

func TestBuildMenuPriorities_SubmenuMenuWithNoActiveSubmenus(t *testing.T) {
	menus := []*models.Menu{
		{ID: 1, Active: true},
		{ID: 3, HasSubmenus: true, Active: true},
		{ID: 4, Active: true},
	}
	rows := BuildMenuPriorities(9, menus, nil)

	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].Priority)
	assert.Equal(t, 2, rows[1].Priority)
}
