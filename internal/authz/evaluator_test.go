package authz

import "testing"

func subjectFor(role Role, active bool) Subject {
	return Subject{
		Identity: &Identity{ID: "id-1", Email: "user@ovaprima.id", Name: "Pengguna"},
		User: &User{
			ID:         1,
			IdentityID: "id-1",
			Email:      "user@ovaprima.id",
			Name:       "Pengguna",
			Role:       role,
			IsActive:   active,
		},
	}
}

func TestSubjectStates(t *testing.T) {
	var anon Subject
	if anon.Authenticated() || anon.Provisioned() {
		t.Fatalf("zero subject must be unauthenticated and unprovisioned")
	}

	pending := Subject{Identity: &Identity{ID: "id-1"}}
	if !pending.Authenticated() || pending.Provisioned() {
		t.Fatalf("identity without user must be authenticated but unprovisioned")
	}

	full := subjectFor(RoleStaff, true)
	if !full.Authenticated() || !full.Provisioned() {
		t.Fatalf("bound subject must be authenticated and provisioned")
	}
}

func TestHasPermission(t *testing.T) {
	var anon Subject
	if anon.HasPermission(PermViewDashboard) {
		t.Fatalf("unauthenticated subject must hold nothing")
	}

	staff := subjectFor(RoleStaff, true)
	if !staff.HasPermission(PermManageSales) {
		t.Fatalf("active staff must hold manage_sales")
	}
	if staff.HasPermission(PermManageFinancial) {
		t.Fatalf("staff must not hold manage_financial")
	}

	inactive := subjectFor(RoleSuperAdmin, false)
	if inactive.HasPermission(PermViewDashboard) {
		t.Fatalf("inactive user must hold nothing, even as super_admin")
	}

	unknown := subjectFor(Role(42), true)
	if unknown.HasPermission(PermViewDashboard) {
		t.Fatalf("unknown role must fail closed")
	}
}

func TestHasPermissionBootstrap(t *testing.T) {
	pending := Subject{Identity: &Identity{ID: "id-1"}}
	if !pending.HasPermission(PermManageUsers) {
		t.Fatalf("unprovisioned identity must hold bootstrap manage_users")
	}
	if !pending.HasPermission(PermViewDashboard) {
		t.Fatalf("unprovisioned identity must hold bootstrap view_dashboard")
	}
	if pending.HasPermission(PermManageSales) {
		t.Fatalf("unprovisioned identity must not hold catalog grants outside bootstrap")
	}
	if pending.HasPermission(PermResetData) {
		t.Fatalf("unprovisioned identity must never hold reset_data")
	}
}

func TestHasAnyPermission(t *testing.T) {
	staff := subjectFor(RoleStaff, true)
	if !staff.HasAnyPermission(PermManageFinancial, PermManageSales) {
		t.Fatalf("expected one matching grant to suffice")
	}
	if staff.HasAnyPermission(PermManageFinancial, PermManageUsers) {
		t.Fatalf("expected no grant to match")
	}
	// An empty list answers false; "empty means unrestricted" is the
	// guard's convention, not the evaluator's.
	if staff.HasAnyPermission() {
		t.Fatalf("empty permission list must answer false")
	}
}

func TestCanAccessMenu(t *testing.T) {
	staff := subjectFor(RoleStaff, true)
	if !staff.CanAccessMenu(MenuRootKey) {
		t.Fatalf("authenticated subject must reach the dashboard")
	}
	if !staff.CanAccessMenu("/sales") {
		t.Fatalf("staff must reach /sales")
	}
	if staff.CanAccessMenu("/employees") {
		t.Fatalf("staff must not reach /employees")
	}
	if staff.CanAccessMenu("/reset-data") {
		t.Fatalf("staff must not reach /reset-data")
	}
	// Unmapped keys are deliberately open.
	if !staff.CanAccessMenu("/help") {
		t.Fatalf("unmapped key must be open")
	}

	manager := subjectFor(RoleManager, true)
	if !manager.CanAccessMenu("/employees") {
		t.Fatalf("manager must reach /employees via view_employees")
	}

	var anon Subject
	if anon.CanAccessMenu(MenuRootKey) {
		t.Fatalf("unauthenticated subject must not reach the dashboard")
	}
	if anon.CanAccessMenu("/sales") {
		t.Fatalf("unauthenticated subject must not reach mapped keys")
	}
}

func TestCanAccessMenuBootstrap(t *testing.T) {
	pending := Subject{Identity: &Identity{ID: "id-1"}}
	for _, key := range []string{MenuRootKey, "/users", "/access-control"} {
		if !pending.CanAccessMenu(key) {
			t.Fatalf("unprovisioned identity must reach %s", key)
		}
	}
	for _, key := range []string{"/sales", "/settings", "/reset-data"} {
		if pending.CanAccessMenu(key) {
			t.Fatalf("unprovisioned identity must not reach %s", key)
		}
	}
}

func TestMeetsRole(t *testing.T) {
	pending := Subject{Identity: &Identity{ID: "id-1"}}
	if pending.MeetsRole(RoleStaff) {
		t.Fatalf("identity without user must fail every role check")
	}

	roles := []Role{RoleStaff, RoleManager, RoleAdmin, RoleSuperAdmin}
	for i, held := range roles {
		subject := subjectFor(held, true)
		for j, required := range roles {
			got := subject.MeetsRole(required)
			want := i >= j
			if got != want {
				t.Fatalf("role %v vs required %v: got %v, want %v", held, required, got, want)
			}
		}
	}
}

func TestAdminHelpers(t *testing.T) {
	if subjectFor(RoleManager, true).IsAdmin() {
		t.Fatalf("manager is not admin")
	}
	if !subjectFor(RoleAdmin, true).IsAdmin() {
		t.Fatalf("admin is admin")
	}
	if !subjectFor(RoleSuperAdmin, true).IsAdmin() {
		t.Fatalf("super_admin is admin")
	}
	if subjectFor(RoleAdmin, true).IsSuperAdmin() {
		t.Fatalf("admin is not super_admin")
	}
	if !subjectFor(RoleSuperAdmin, true).IsSuperAdmin() {
		t.Fatalf("super_admin is super_admin")
	}
}
