package directory

import (
	"context"
	"errors"
	"sync"

	"github.com/ovaprima-erp/ovaprima-erp/internal/authz"
	"github.com/ovaprima-erp/ovaprima-erp/internal/shared"
)

// IdentitySource resolves an identity by its opaque ID. The auth service
// satisfies this.
type IdentitySource interface {
	IdentityByID(ctx context.Context, id string) (authz.Identity, error)
}

// Snapshots caches the resolved subject per identity. A snapshot is built
// once and reused until the identity logs in or out, or an administrator
// mutation touches the record; a role change made elsewhere therefore takes
// effect only after the affected client re-authenticates or refreshes.
// That staleness window is unbounded and accepted for this class of tool.
type Snapshots struct {
	identities IdentitySource
	repo       Repository

	mu    sync.RWMutex
	cache map[string]authz.Subject
}

// NewSnapshots constructs the snapshot resolver.
func NewSnapshots(identities IdentitySource, repo Repository) *Snapshots {
	return &Snapshots{
		identities: identities,
		repo:       repo,
		cache:      make(map[string]authz.Subject),
	}
}

// Resolve returns the subject for an identity ID, building and caching it
// on first use. A missing directory record yields a subject with a nil
// User: pending setup, not an error.
func (s *Snapshots) Resolve(ctx context.Context, identityID string) (authz.Subject, error) {
	s.mu.RLock()
	cached, ok := s.cache[identityID]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	ident, err := s.identities.IdentityByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			// Session references a deleted identity; treat as unauthenticated.
			return authz.Subject{}, nil
		}
		return authz.Subject{}, err
	}

	subject := authz.Subject{Identity: &ident}
	user, err := s.repo.FindByIdentity(ctx, identityID)
	switch {
	case err == nil:
		subject.User = user.AuthzUser()
	case errors.Is(err, shared.ErrNotFound):
		// pending setup
	default:
		return authz.Subject{}, err
	}

	s.mu.Lock()
	s.cache[identityID] = subject
	s.mu.Unlock()
	return subject, nil
}

// Invalidate drops the cached snapshot for an identity.
func (s *Snapshots) Invalidate(identityID string) {
	s.mu.Lock()
	delete(s.cache, identityID)
	s.mu.Unlock()
}

var _ authz.SubjectResolver = (*Snapshots)(nil)
