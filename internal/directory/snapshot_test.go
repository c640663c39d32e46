package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/ovaprima-erp/ovaprima-erp/internal/authz"
	"github.com/ovaprima-erp/ovaprima-erp/internal/shared"
	_ "github.com/ovaprima-erp/ovaprima-erp/testing"
)

type stubIdentities struct {
	identities map[string]authz.Identity
	err        error
	calls      int
}

func (s *stubIdentities) IdentityByID(ctx context.Context, id string) (authz.Identity, error) {
	s.calls++
	if s.err != nil {
		return authz.Identity{}, s.err
	}
	ident, ok := s.identities[id]
	if !ok {
		return authz.Identity{}, shared.ErrNotFound
	}
	return ident, nil
}

type mockRepo struct {
	byIdentity map[string]*User
	byID       map[int64]*User
	err        error
	finds      int
}

func newMockRepo(users ...User) *mockRepo {
	m := &mockRepo{byIdentity: make(map[string]*User), byID: make(map[int64]*User)}
	for i := range users {
		u := users[i]
		m.byIdentity[u.IdentityID] = &u
		m.byID[u.ID] = &u
	}
	return m
}

func (m *mockRepo) FindByIdentity(ctx context.Context, identityID string) (*User, error) {
	m.finds++
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.byIdentity[identityID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (m *mockRepo) FindByID(ctx context.Context, id int64) (*User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (m *mockRepo) List(ctx context.Context) ([]User, error) {
	out := make([]User, 0, len(m.byID))
	for _, u := range m.byID {
		out = append(out, *u)
	}
	return out, nil
}

func (m *mockRepo) Create(ctx context.Context, u User) (*User, error) {
	if _, exists := m.byIdentity[u.IdentityID]; exists {
		return nil, ErrAlreadyBound
	}
	u.ID = int64(len(m.byID) + 1)
	m.byIdentity[u.IdentityID] = &u
	m.byID[u.ID] = &u
	return &u, nil
}

func (m *mockRepo) UpdateRole(ctx context.Context, id int64, role authz.Role) (*User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	u.Role = role
	return u, nil
}

func (m *mockRepo) SetActive(ctx context.Context, id int64, active bool) (*User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	u.IsActive = active
	return u, nil
}

var _ Repository = (*mockRepo)(nil)

func testIdentity(id string) authz.Identity {
	return authz.Identity{ID: id, Email: id + "@ovaprima.id", Name: "Pengguna " + id}
}

func TestSnapshotsResolveBoundUser(t *testing.T) {
	identities := &stubIdentities{identities: map[string]authz.Identity{"ident-1": testIdentity("ident-1")}}
	repo := newMockRepo(User{ID: 1, IdentityID: "ident-1", Role: authz.RoleManager, IsActive: true})
	snapshots := NewSnapshots(identities, repo)

	subject, err := snapshots.Resolve(context.Background(), "ident-1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !subject.Provisioned() {
		t.Fatalf("expected provisioned subject")
	}
	if subject.User.Role != authz.RoleManager {
		t.Fatalf("expected manager role, got %v", subject.User.Role)
	}
}

func TestSnapshotsResolvePendingSetup(t *testing.T) {
	identities := &stubIdentities{identities: map[string]authz.Identity{"ident-1": testIdentity("ident-1")}}
	snapshots := NewSnapshots(identities, newMockRepo())

	subject, err := snapshots.Resolve(context.Background(), "ident-1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !subject.Authenticated() {
		t.Fatalf("expected authenticated subject")
	}
	if subject.Provisioned() {
		t.Fatalf("missing directory record must mean pending setup, not an error")
	}
	if !subject.HasPermission(authz.PermManageUsers) {
		t.Fatalf("pending-setup subject must hold the bootstrap grants")
	}
}

func TestSnapshotsResolveDeletedIdentity(t *testing.T) {
	snapshots := NewSnapshots(&stubIdentities{identities: map[string]authz.Identity{}}, newMockRepo())

	subject, err := snapshots.Resolve(context.Background(), "gone")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if subject.Authenticated() {
		t.Fatalf("deleted identity must resolve as unauthenticated")
	}
}

func TestSnapshotsResolvePropagatesInfraErrors(t *testing.T) {
	snapshots := NewSnapshots(&stubIdentities{err: errors.New("timeout")}, newMockRepo())

	if _, err := snapshots.Resolve(context.Background(), "ident-1"); err == nil {
		t.Fatalf("infrastructure failure must surface, not masquerade as anonymous")
	}
}

func TestSnapshotsCacheAndInvalidate(t *testing.T) {
	identities := &stubIdentities{identities: map[string]authz.Identity{"ident-1": testIdentity("ident-1")}}
	repo := newMockRepo(User{ID: 1, IdentityID: "ident-1", Role: authz.RoleStaff, IsActive: true})
	snapshots := NewSnapshots(identities, repo)

	for i := 0; i < 3; i++ {
		if _, err := snapshots.Resolve(context.Background(), "ident-1"); err != nil {
			t.Fatalf("resolve %d: %v", i, err)
		}
	}
	if repo.finds != 1 {
		t.Fatalf("expected a single repository lookup, got %d", repo.finds)
	}

	// A role change elsewhere stays invisible until invalidated.
	repo.byIdentity["ident-1"].Role = authz.RoleAdmin
	subject, _ := snapshots.Resolve(context.Background(), "ident-1")
	if subject.User.Role != authz.RoleStaff {
		t.Fatalf("cached snapshot must not see the new role yet")
	}

	snapshots.Invalidate("ident-1")
	subject, err := snapshots.Resolve(context.Background(), "ident-1")
	if err != nil {
		t.Fatalf("resolve after invalidate: %v", err)
	}
	if subject.User.Role != authz.RoleAdmin {
		t.Fatalf("expected fresh snapshot after invalidate, got %v", subject.User.Role)
	}
}
