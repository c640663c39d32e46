package authz

import "testing"

func menuKeys(entries []MenuEntry) []string {
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.Key)
	}
	return keys
}

func TestAccessibleMenuSuperAdmin(t *testing.T) {
	entries := AccessibleMenu(subjectFor(RoleSuperAdmin, true))
	if len(entries) != len(navigation) {
		t.Fatalf("super_admin must see the whole menu, got %d of %d", len(entries), len(navigation))
	}
	if entries[0].Key != MenuRootKey || entries[0].Label != "Dasbor" {
		t.Fatalf("expected dashboard first, got %+v", entries[0])
	}
}

func TestAccessibleMenuStaff(t *testing.T) {
	keys := menuKeys(AccessibleMenu(subjectFor(RoleStaff, true)))
	want := map[string]bool{
		MenuRootKey:      true,
		"/raw-materials": true,
		"/products":      true,
		"/customers":     true,
		"/purchases":     true,
		"/productions":   true,
		"/sales":         true,
		"/petty-cash":    true,
	}
	if len(keys) != len(want) {
		t.Fatalf("expected %d entries for staff, got %v", len(want), keys)
	}
	for _, key := range keys {
		if !want[key] {
			t.Fatalf("staff must not see %s", key)
		}
	}
}

func TestAccessibleMenuPendingSetup(t *testing.T) {
	pending := Subject{Identity: &Identity{ID: "ident-1"}}
	keys := menuKeys(AccessibleMenu(pending))
	want := []string{MenuRootKey, "/users", "/access-control"}
	if len(keys) != len(want) {
		t.Fatalf("expected %v for unprovisioned identity, got %v", want, keys)
	}
	for i, key := range want {
		if keys[i] != key {
			t.Fatalf("expected %v in order, got %v", want, keys)
		}
	}
}

func TestAccessibleMenuUnauthenticated(t *testing.T) {
	if entries := AccessibleMenu(Subject{}); len(entries) != 0 {
		t.Fatalf("unauthenticated subject must see no menu, got %v", menuKeys(entries))
	}
}
