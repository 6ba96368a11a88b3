package tenantseed

import "github.com/view360/provisioning/pkg/models"

// visibilityGrant identifies a (menu, submenu) pair whose admin permission
// gets full data visibility on day one. Submenu 0 means the grant targets
// the menu itself.
type visibilityGrant struct {
	MenuID    int
	SubmenuID int
}

// allDataGrants lists the features where the first admin must see all rows
// immediately: service requests and interview scheduling.
var allDataGrants = map[visibilityGrant]bool{
	{MenuID: 6, SubmenuID: 0}:   true,
	{MenuID: 7, SubmenuID: 701}: true,
}

// BuildPermissions generates one permission grant per active menu and per
// active submenu for the given role. All scope flags default to 0; pairs in
// the visibility allow-list get all_data = 1.
func BuildPermissions(roleID string, menus []*models.Menu, submenus []*models.Submenu) []models.Permission {
	perms := make([]models.Permission, 0, len(menus)+len(submenus))

	for _, m := range menus {
		if !m.Active {
			continue
		}
		p := models.Permission{RoleID: roleID, MenuID: m.ID}
		if allDataGrants[visibilityGrant{MenuID: m.ID}] {
			p.AllData = 1
		}
		perms = append(perms, p)
	}

	for _, sm := range submenus {
		if !sm.Active {
			continue
		}
		id := sm.ID
		p := models.Permission{RoleID: roleID, MenuID: sm.MenuID, SubmenuID: &id}
		if allDataGrants[visibilityGrant{MenuID: sm.MenuID, SubmenuID: sm.ID}] {
			p.AllData = 1
		}
		perms = append(perms, p)
	}

	return perms
}
