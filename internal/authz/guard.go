package authz

// Outcome is the guard's verdict.
type Outcome int

const (
	// OutcomePending means the authorization state is still being resolved;
	// callers must neither allow nor deny yet.
	OutcomePending Outcome = iota
	// OutcomeDenied means the requirement failed.
	OutcomeDenied
	// OutcomeAllowed means the protected resource may be served.
	OutcomeAllowed
)

// DenyReason explains a denial for display purposes.
type DenyReason int

const (
	// DenyNone accompanies pending and allowed decisions.
	DenyNone DenyReason = iota
	// DenyUnauthenticated means no identity is present.
	DenyUnauthenticated
	// DenyRoleInsufficient means a minimum-role check failed.
	DenyRoleInsufficient
	// DenyPermissionInsufficient means no required permission is held.
	DenyPermissionInsufficient
)

// String returns a short label for logs and problem responses.
func (r DenyReason) String() string {
	switch r {
	case DenyUnauthenticated:
		return "unauthenticated"
	case DenyRoleInsufficient:
		return "role_insufficient"
	case DenyPermissionInsufficient:
		return "permission_insufficient"
	default:
		return "none"
	}
}

// Requirement describes what a protected boundary demands. An empty
// permission list places no permission restriction; MinRole of RoleNone
// places no role restriction.
type Requirement struct {
	Permissions []Permission
	MinRole     Role
}

// State is the caller's authorization snapshot. Resolved is false while the
// subject is still being fetched.
type State struct {
	Subject  Subject
	Resolved bool
}

// Decision is the guard's single answer for a boundary.
type Decision struct {
	Outcome Outcome
	Reason  DenyReason
}

// Allowed reports whether the decision permits access.
func (d Decision) Allowed() bool { return d.Outcome == OutcomeAllowed }

// Evaluate resolves a requirement against the current state. Checks run in
// a fixed order so the surfaced deny reason is deterministic when several
// conditions fail at once: pending, then authentication, then role, then
// permissions.
func Evaluate(st State, req Requirement) Decision {
	if !st.Resolved {
		return Decision{Outcome: OutcomePending}
	}
	if !st.Subject.Authenticated() {
		return Decision{Outcome: OutcomeDenied, Reason: DenyUnauthenticated}
	}
	if req.MinRole != RoleNone && !st.Subject.MeetsRole(req.MinRole) {
		return Decision{Outcome: OutcomeDenied, Reason: DenyRoleInsufficient}
	}
	if len(req.Permissions) > 0 && !st.Subject.HasAnyPermission(req.Permissions...) {
		return Decision{Outcome: OutcomeDenied, Reason: DenyPermissionInsufficient}
	}
	return Decision{Outcome: OutcomeAllowed}
}
