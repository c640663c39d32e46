package authz

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ovaprima-erp/ovaprima-erp/internal/platform/httpx"
	"github.com/ovaprima-erp/ovaprima-erp/internal/shared"
)

// SubjectResolver turns a session's identity reference into a full Subject.
type SubjectResolver interface {
	Resolve(ctx context.Context, identityID string) (Subject, error)
}

// DecisionRecorder receives one call per guard decision, for metrics.
type DecisionRecorder interface {
	RecordDecision(outcome, reason string)
}

type subjectContextKey struct{}

// ContextWithSubject stores the resolved subject in context.
func ContextWithSubject(ctx context.Context, s Subject) context.Context {
	return context.WithValue(ctx, subjectContextKey{}, s)
}

// SubjectFromContext extracts the subject placed by the middleware. The
// zero Subject means unauthenticated.
func SubjectFromContext(ctx context.Context) Subject {
	s, _ := ctx.Value(subjectContextKey{}).(Subject)
	return s
}

// Middleware wires guard decisions into HTTP handlers.
type Middleware struct {
	Resolver SubjectResolver
	Logger   *slog.Logger
	Recorder DecisionRecorder
}

// Require applies a full requirement to the wrapped handler.
func (m Middleware) Require(req Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			st, ok := m.resolveState(w, r)
			if !ok {
				return
			}
			decision := Evaluate(st, req)
			m.record(decision)
			switch decision.Outcome {
			case OutcomeAllowed:
				next.ServeHTTP(w, r.WithContext(ContextWithSubject(r.Context(), st.Subject)))
			case OutcomePending:
				w.Header().Set("Retry-After", "1")
				httpx.Problem(w, http.StatusServiceUnavailable, "Authorization Pending", "authorization state not yet resolved")
			default:
				m.respondDenied(w, decision.Reason)
			}
		})
	}
}

// RequireAny demands at least one of the permissions. With no permissions
// it only demands authentication.
func (m Middleware) RequireAny(perms ...Permission) func(http.Handler) http.Handler {
	return m.Require(Requirement{Permissions: perms})
}

// RequireRole demands a minimum role rank.
func (m Middleware) RequireRole(min Role) func(http.Handler) http.Handler {
	return m.Require(Requirement{MinRole: min})
}

// RequireSuperAdmin gates the destructive system surface.
func (m Middleware) RequireSuperAdmin() func(http.Handler) http.Handler {
	return m.Require(Requirement{MinRole: RoleSuperAdmin})
}

// ResolveSubject exposes the middleware's resolution for handlers mounted
// outside a guarded group, such as the session endpoint.
func (m Middleware) ResolveSubject(ctx context.Context) (Subject, error) {
	sess := shared.SessionFromContext(ctx)
	if sess == nil || sess.Identity() == "" {
		return Subject{}, nil
	}
	return m.Resolver.Resolve(ctx, sess.Identity())
}

func (m Middleware) resolveState(w http.ResponseWriter, r *http.Request) (State, bool) {
	subject, err := m.ResolveSubject(r.Context())
	if err != nil {
		if m.Logger != nil {
			m.Logger.Error("resolve subject", slog.Any("error", err))
		}
		m.record(Decision{Outcome: OutcomePending})
		w.Header().Set("Retry-After", "1")
		httpx.Problem(w, http.StatusServiceUnavailable, "Authorization Pending", "authorization state not yet resolved")
		return State{}, false
	}
	return State{Subject: subject, Resolved: true}, true
}

func (m Middleware) respondDenied(w http.ResponseWriter, reason DenyReason) {
	if reason == DenyUnauthenticated {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", reason.String())
		return
	}
	httpx.Problem(w, http.StatusForbidden, "Forbidden", reason.String())
}

func (m Middleware) record(d Decision) {
	if m.Recorder == nil {
		return
	}
	outcome := "allowed"
	switch d.Outcome {
	case OutcomePending:
		outcome = "pending"
	case OutcomeDenied:
		outcome = "denied"
	}
	m.Recorder.RecordDecision(outcome, d.Reason.String())
}
