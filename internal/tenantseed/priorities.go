package tenantseed

import "github.com/view360/provisioning/pkg/models"

// BuildMenuPriorities derives the tenant's navigation ordering: menus in id
// order, each submenu-bearing menu expanded into one row per submenu (in id
// order), plain menus contributing a single row. Priorities are a strictly
// increasing counter starting at 1.
//
// Callers pass menus and submenus as returned by the meta store, which
// orders them by id already.
func BuildMenuPriorities(orgID int64, menus []*models.Menu, submenus []*models.Submenu) []models.MenuPriority {
	byMenu := make(map[int][]*models.Submenu, len(menus))
	for _, sm := range submenus {
		if sm.Active {
			byMenu[sm.MenuID] = append(byMenu[sm.MenuID], sm)
		}
	}

	var rows []models.MenuPriority
	priority := 1
	for _, m := range menus {
		if !m.Active {
			continue
		}
		if m.HasSubmenus {
			for _, sm := range byMenu[m.ID] {
				id := sm.ID
				rows = append(rows, models.MenuPriority{
					OrgID:     orgID,
					MenuID:    m.ID,
					SubmenuID: &id,
					Priority:  priority,
				})
				priority++
			}
			continue
		}
		rows = append(rows, models.MenuPriority{
			OrgID:    orgID,
			MenuID:   m.ID,
			Priority: priority,
		})
		priority++
	}
	return rows
}
