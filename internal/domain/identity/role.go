// Package identity holds roles and the capability policy the console uses
// to decide which actions to offer. The upstream API enforces
// authorization again on every call; this policy only shapes the UI.
package identity

import "strings"

// Role is the user role carried in the bearer token.
type Role string

const (
	RoleSuperAdmin      Role = "SUPER_ADMIN"
	RoleAdmin           Role = "ADMIN"
	RoleManager         Role = "MANAGER"
	RoleCashier         Role = "CASHIER"
	RoleWarehouseKeeper Role = "WAREHOUSE_KEEPER"
	RoleViewer          Role = "VIEWER"
)

// Roles in descending privilege.
var Roles = []Role{RoleSuperAdmin, RoleAdmin, RoleManager, RoleCashier, RoleWarehouseKeeper, RoleViewer}

// ParseRole accepts any casing and dashes or spaces for underscores.
// Unknown roles parse to "" which has no capabilities.
func ParseRole(s string) Role {
	r := Role(strings.ToUpper(strings.NewReplacer("-", "_", " ", "_").Replace(strings.TrimSpace(s))))
	for _, known := range Roles {
		if r == known {
			return r
		}
	}
	return ""
}

func (r Role) Valid() bool {
	return ParseRole(string(r)) != ""
}

// IsAdmin covers both admin tiers.
func (r Role) IsAdmin() bool {
	return r == RoleSuperAdmin || r == RoleAdmin
}
