package models

// Menu is a global navigation menu entry. Menus are shared reference data,
// not tenant-scoped; tenants get per-role grants and per-tenant ordering.
type Menu struct {
	ID          int    `db:"menuid"       json:"menuid"`
	Name        string `db:"menuname"     json:"menuname"`
	HasSubmenus bool   `db:"has_submenus" json:"has_submenus"`
	Active      bool   `db:"active"       json:"active"`
}

// Submenu is a global navigation entry under a menu.
type Submenu struct {
	ID     int    `db:"submenuid"   json:"submenuid"`
	MenuID int    `db:"menuid"      json:"menuid"`
	Name   string `db:"submenuname" json:"submenuname"`
	Active bool   `db:"active"      json:"active"`
}
