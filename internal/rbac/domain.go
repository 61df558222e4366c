package rbac

import (
	"slices"

	"github.com/hydrospark/hydrodash/internal/hydro"
)

// Permissions gating dashboard routes.
const (
	PermUsageOwn     = "usage.view.own"
	PermUsageAll     = "usage.view.all"
	PermChargesView  = "charges.view"
	PermAdminActions = "admin.actions"
)

var rolePermissions = map[hydro.Role][]string{
	hydro.RoleAdmin:    {PermAdminActions, PermChargesView, PermUsageAll},
	hydro.RoleBilling:  {PermAdminActions, PermChargesView, PermUsageAll},
	hydro.RoleCustomer: {PermUsageOwn},
}

// PermissionsFor returns the permissions granted to role, sorted.
func PermissionsFor(role hydro.Role) []string {
	granted := slices.Clone(rolePermissions[role])
	slices.Sort(granted)
	return granted
}
