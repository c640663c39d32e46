package authz

// Identity is the authenticated principal as seen by the evaluator.
type Identity struct {
	ID    string
	Email string
	Name  string
}

// User is the application-side authorization record bound to an identity.
type User struct {
	ID         int64
	IdentityID string
	Email      string
	Name       string
	Role       Role
	IsActive   bool
}

// Subject bundles everything the evaluator needs about the caller. Both
// fields may be nil: no Identity means unauthenticated, an Identity without
// a User means authenticated but not yet provisioned.
type Subject struct {
	Identity *Identity
	User     *User
}

// Authenticated reports whether an identity is present.
func (s Subject) Authenticated() bool {
	return s.Identity != nil
}

// Provisioned reports whether an application user is bound.
func (s Subject) Provisioned() bool {
	return s.User != nil
}

// HasPermission reports whether the subject holds the permission. An
// authenticated identity without a bound user receives only the bootstrap
// set; an inactive user receives nothing.
func (s Subject) HasPermission(p Permission) bool {
	if s.Identity == nil {
		return false
	}
	if s.User == nil {
		_, ok := bootstrapPermissions[p]
		return ok
	}
	if !s.User.IsActive {
		return false
	}
	grants, ok := roleGrants[s.User.Role]
	if !ok {
		return false
	}
	_, ok = grants[p]
	return ok
}

// HasAnyPermission reports whether at least one permission is held. An
// empty list yields false here; the "empty list means unrestricted"
// convention belongs to the guard, not the evaluator.
func (s Subject) HasAnyPermission(perms ...Permission) bool {
	for _, p := range perms {
		if s.HasPermission(p) {
			return true
		}
	}
	return false
}

// CanAccessMenu decides whether the subject may open a navigation target.
// Unmapped keys are open to everyone; the root key is open to any
// authenticated identity; an unprovisioned identity sees only the bootstrap
// keys.
func (s Subject) CanAccessMenu(key string) bool {
	required, mapped := MenuPermissions(key)
	if !mapped && key != MenuRootKey {
		return true
	}
	if s.Identity == nil {
		return false
	}
	if key == MenuRootKey {
		return true
	}
	if s.User == nil {
		_, ok := bootstrapMenuKeys[key]
		return ok
	}
	return s.HasAnyPermission(required...)
}

// MeetsRole reports whether the bound user's role ranks at or above the
// required role. False without a bound user, regardless of identity.
func (s Subject) MeetsRole(required Role) bool {
	if s.User == nil {
		return false
	}
	return s.User.Role.Rank() >= required.Rank()
}

// IsAdmin reports whether the bound user is admin or super_admin.
func (s Subject) IsAdmin() bool {
	if s.User == nil {
		return false
	}
	return s.User.Role == RoleAdmin || s.User.Role == RoleSuperAdmin
}

// IsSuperAdmin reports whether the bound user is super_admin.
func (s Subject) IsSuperAdmin() bool {
	return s.User != nil && s.User.Role == RoleSuperAdmin
}
