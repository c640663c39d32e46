package authz_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ovaprima-erp/ovaprima-erp/internal/authz"
	"github.com/ovaprima-erp/ovaprima-erp/internal/shared"
	_ "github.com/ovaprima-erp/ovaprima-erp/testing"
)

type stubResolver struct {
	subject authz.Subject
	err     error
	calls   int
}

func (s *stubResolver) Resolve(ctx context.Context, identityID string) (authz.Subject, error) {
	s.calls++
	if s.err != nil {
		return authz.Subject{}, s.err
	}
	return s.subject, nil
}

type stubRecorder struct {
	outcomes []string
	reasons  []string
}

func (s *stubRecorder) RecordDecision(outcome, reason string) {
	s.outcomes = append(s.outcomes, outcome)
	s.reasons = append(s.reasons, reason)
}

func adminSubject() authz.Subject {
	return authz.Subject{
		Identity: &authz.Identity{ID: "ident-1", Email: "admin@ovaprima.id", Name: "Admin"},
		User: &authz.User{
			ID:         1,
			IdentityID: "ident-1",
			Role:       authz.RoleAdmin,
			IsActive:   true,
		},
	}
}

func requestWithSession(t *testing.T, identityID string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	sess := &shared.Session{ID: "sess-1"}
	if identityID != "" {
		sess.SetIdentity(identityID)
	}
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddlewareAllowsAndInjectsSubject(t *testing.T) {
	resolver := &stubResolver{subject: adminSubject()}
	recorder := &stubRecorder{}
	mw := authz.Middleware{Resolver: resolver, Recorder: recorder}

	var seen authz.Subject
	handler := mw.RequireAny(authz.PermManageUsers)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = authz.SubjectFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, requestWithSession(t, "ident-1"))

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if !seen.Provisioned() || seen.User.Role != authz.RoleAdmin {
		t.Fatalf("expected resolved subject in context")
	}
	if len(recorder.outcomes) != 1 || recorder.outcomes[0] != "allowed" {
		t.Fatalf("expected one allowed decision, got %v", recorder.outcomes)
	}
}

func TestMiddlewareUnauthenticated(t *testing.T) {
	resolver := &stubResolver{subject: adminSubject()}
	recorder := &stubRecorder{}
	mw := authz.Middleware{Resolver: resolver, Recorder: recorder}

	handler := mw.RequireAny(authz.PermManageUsers)(okHandler())

	// No identity bound to the session.
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, requestWithSession(t, ""))

	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
	if resolver.calls != 0 {
		t.Fatalf("resolver must not be called without a bound identity")
	}
	if len(recorder.reasons) != 1 || recorder.reasons[0] != "unauthenticated" {
		t.Fatalf("expected unauthenticated reason, got %v", recorder.reasons)
	}
}

func TestMiddlewarePermissionDenied(t *testing.T) {
	staff := adminSubject()
	staff.User.Role = authz.RoleStaff
	mw := authz.Middleware{Resolver: &stubResolver{subject: staff}}

	handler := mw.RequireAny(authz.PermManageUsers)(okHandler())

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, requestWithSession(t, "ident-1"))

	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "permission_insufficient") {
		t.Fatalf("expected permission_insufficient detail, got %s", res.Body.String())
	}
}

func TestMiddlewareSuperAdminGate(t *testing.T) {
	admin := adminSubject()
	mw := authz.Middleware{Resolver: &stubResolver{subject: admin}}

	handler := mw.RequireSuperAdmin()(okHandler())

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, requestWithSession(t, "ident-1"))

	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for admin on super-admin gate, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "role_insufficient") {
		t.Fatalf("expected role_insufficient detail, got %s", res.Body.String())
	}
}

func TestMiddlewareResolverFailureIsPending(t *testing.T) {
	recorder := &stubRecorder{}
	mw := authz.Middleware{
		Resolver: &stubResolver{err: errors.New("directory unavailable")},
		Recorder: recorder,
	}

	handler := mw.RequireAny(authz.PermManageUsers)(okHandler())

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, requestWithSession(t, "ident-1"))

	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
	if res.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header on pending response")
	}
	if len(recorder.outcomes) != 1 || recorder.outcomes[0] != "pending" {
		t.Fatalf("expected pending decision, got %v", recorder.outcomes)
	}
}
