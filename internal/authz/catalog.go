package authz

import "fmt"

// Role is the closed set of business roles ordered by privilege.
type Role uint8

const (
	// RoleNone is the zero value; it never appears on a stored user.
	RoleNone Role = iota
	// RoleStaff covers day-to-day operational input.
	RoleStaff
	// RoleManager adds reporting and supplier oversight.
	RoleManager
	// RoleAdmin adds user and finance administration.
	RoleAdmin
	// RoleSuperAdmin holds every grant, including destructive system tools.
	RoleSuperAdmin
)

var roleNames = map[Role]string{
	RoleStaff:      "staff",
	RoleManager:    "manager",
	RoleAdmin:      "admin",
	RoleSuperAdmin: "super_admin",
}

// String returns the wire representation of the role.
func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "unknown"
}

// Rank returns the hierarchy level. Unknown roles rank 0 and therefore
// fail every minimum-role check.
func (r Role) Rank() int {
	switch r {
	case RoleStaff, RoleManager, RoleAdmin, RoleSuperAdmin:
		return int(r)
	default:
		return 0
	}
}

// ParseRole converts a stored role string into a Role.
func ParseRole(s string) (Role, error) {
	for role, name := range roleNames {
		if name == s {
			return role, nil
		}
	}
	return RoleNone, fmt.Errorf("authz: unknown role %q", s)
}

// Permission is an atomic capability grant.
type Permission string

// The full permission catalog. Grouped by functional domain.
const (
	PermViewDashboard Permission = "view_dashboard"

	PermManageUsers Permission = "manage_users"

	PermManageEmployees Permission = "manage_employees"
	PermViewEmployees   Permission = "view_employees"

	PermManageRawMaterials Permission = "manage_raw_materials"
	PermManageProducts     Permission = "manage_products"

	PermManageSuppliers   Permission = "manage_suppliers"
	PermManageCustomers   Permission = "manage_customers"
	PermManagePurchases   Permission = "manage_purchases"
	PermManageProductions Permission = "manage_productions"

	PermManageSales      Permission = "manage_sales"
	PermViewSalesReports Permission = "view_sales_reports"
	PermManagePriceTiers Permission = "manage_price_tiers"

	PermManageFinancial      Permission = "manage_financial"
	PermManageBankAccounts   Permission = "manage_bank_accounts"
	PermManagePettyCash      Permission = "manage_petty_cash"
	PermViewFinancialReports Permission = "view_financial_reports"

	PermSystemSettings Permission = "system_settings"
	PermResetData      Permission = "reset_data"
)

// allPermissions enumerates every catalog entry.
var allPermissions = []Permission{
	PermViewDashboard,
	PermManageUsers,
	PermManageEmployees,
	PermViewEmployees,
	PermManageRawMaterials,
	PermManageProducts,
	PermManageSuppliers,
	PermManageCustomers,
	PermManagePurchases,
	PermManageProductions,
	PermManageSales,
	PermViewSalesReports,
	PermManagePriceTiers,
	PermManageFinancial,
	PermManageBankAccounts,
	PermManagePettyCash,
	PermViewFinancialReports,
	PermSystemSettings,
	PermResetData,
}

var permissionSet = func() map[Permission]struct{} {
	set := make(map[Permission]struct{}, len(allPermissions))
	for _, p := range allPermissions {
		set[p] = struct{}{}
	}
	return set
}()

// AllPermissions returns a copy of the full catalog.
func AllPermissions() []Permission {
	perms := make([]Permission, len(allPermissions))
	copy(perms, allPermissions)
	return perms
}

// ParsePermission validates a permission string against the catalog.
func ParsePermission(s string) (Permission, error) {
	p := Permission(s)
	if _, ok := permissionSet[p]; !ok {
		return "", fmt.Errorf("authz: unknown permission %q", s)
	}
	return p, nil
}

// rolePermissions lists the grants for each role. The lists are enumerated
// by hand on purpose: they are not a superset chain (manager holds
// view_employees, admin holds manage_employees instead), and must stay
// exactly as written.
var rolePermissions = map[Role][]Permission{
	RoleStaff: {
		PermViewDashboard,
		PermManageRawMaterials,
		PermManageProducts,
		PermManageCustomers,
		PermManagePurchases,
		PermManageProductions,
		PermManageSales,
		PermManagePettyCash,
	},
	RoleManager: {
		PermViewDashboard,
		PermManageRawMaterials,
		PermManageProducts,
		PermManageCustomers,
		PermManagePurchases,
		PermManageProductions,
		PermManageSales,
		PermManagePettyCash,
		PermViewEmployees,
		PermManageSuppliers,
		PermViewSalesReports,
		PermManagePriceTiers,
		PermViewFinancialReports,
	},
	RoleAdmin: {
		PermViewDashboard,
		PermManageUsers,
		PermManageEmployees,
		PermManageRawMaterials,
		PermManageProducts,
		PermManageSuppliers,
		PermManageCustomers,
		PermManagePurchases,
		PermManageProductions,
		PermManageSales,
		PermViewSalesReports,
		PermManagePriceTiers,
		PermManageFinancial,
		PermManageBankAccounts,
		PermManagePettyCash,
		PermViewFinancialReports,
	},
	RoleSuperAdmin: allPermissions,
}

// RolePermissions returns the literal grant list for a role. Unknown roles
// get nothing (fail closed).
func RolePermissions(r Role) []Permission {
	perms, ok := rolePermissions[r]
	if !ok {
		return nil
	}
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

// roleGrants is the lookup form of rolePermissions.
var roleGrants = func() map[Role]map[Permission]struct{} {
	grants := make(map[Role]map[Permission]struct{}, len(rolePermissions))
	for role, perms := range rolePermissions {
		set := make(map[Permission]struct{}, len(perms))
		for _, p := range perms {
			set[p] = struct{}{}
		}
		grants[role] = set
	}
	return grants
}()

// MenuRootKey is the dashboard route, reachable by every authenticated
// identity regardless of role.
const MenuRootKey = "/"

// menuPermissions maps a navigation key to the permissions any one of which
// grants access. Keys absent from the map are open to all authenticated
// users; that default is deliberate and differs from the fail-closed
// permission lookup.
var menuPermissions = map[string][]Permission{
	"/users":          {PermManageUsers},
	"/employees":      {PermManageEmployees, PermViewEmployees},
	"/raw-materials":  {PermManageRawMaterials},
	"/products":       {PermManageProducts},
	"/suppliers":      {PermManageSuppliers},
	"/customers":      {PermManageCustomers},
	"/purchases":      {PermManagePurchases},
	"/productions":    {PermManageProductions},
	"/sales":          {PermManageSales},
	"/reports/sales":  {PermViewSalesReports},
	"/price-tiers":    {PermManagePriceTiers},
	"/finance":        {PermManageFinancial, PermViewFinancialReports},
	"/bank-accounts":  {PermManageBankAccounts},
	"/petty-cash":     {PermManagePettyCash},
	"/settings":       {PermSystemSettings},
	"/access-control": {PermManageUsers, PermSystemSettings},
	"/reset-data":     {PermResetData},
}

// MenuPermissions returns the OR-set guarding a menu key. ok is false when
// the key is unmapped.
func MenuPermissions(key string) (perms []Permission, ok bool) {
	stored, ok := menuPermissions[key]
	if !ok {
		return nil, false
	}
	perms = make([]Permission, len(stored))
	copy(perms, stored)
	return perms, true
}

// bootstrapPermissions is granted to an authenticated identity with no
// application user yet, so the very first admin can provision the user
// table. Flagged for product review: manage_users and system_settings are
// high privilege for an unprovisioned account.
var bootstrapPermissions = map[Permission]struct{}{
	PermViewDashboard:  {},
	PermManageUsers:    {},
	PermSystemSettings: {},
}

// bootstrapMenuKeys are the only navigation targets open to an
// authenticated identity with no application user.
var bootstrapMenuKeys = map[string]struct{}{
	MenuRootKey:       {},
	"/users":          {},
	"/access-control": {},
}

// BootstrapPermissions returns the fixed grant set for unprovisioned
// identities.
func BootstrapPermissions() []Permission {
	return []Permission{PermViewDashboard, PermManageUsers, PermSystemSettings}
}
