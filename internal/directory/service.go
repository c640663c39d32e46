package directory

import (
	"context"
	"strings"

	"github.com/ovaprima-erp/ovaprima-erp/internal/authz"
)

// Service orchestrates directory operations and keeps subject snapshots in
// step with record mutations.
type Service struct {
	repo      Repository
	snapshots *Snapshots
}

// NewService constructs a Service.
func NewService(repo Repository, snapshots *Snapshots) *Service {
	return &Service{repo: repo, snapshots: snapshots}
}

// ByIdentity fetches the record bound to an identity.
func (s *Service) ByIdentity(ctx context.Context, identityID string) (*User, error) {
	return s.repo.FindByIdentity(ctx, identityID)
}

// List returns all directory records.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// CreateInput carries the fields for provisioning a user.
type CreateInput struct {
	IdentityID string
	Email      string
	Name       string
	Role       authz.Role
	IsActive   bool
}

// Create provisions an application user for an identity.
func (s *Service) Create(ctx context.Context, in CreateInput) (*User, error) {
	user, err := s.repo.Create(ctx, User{
		IdentityID: strings.TrimSpace(in.IdentityID),
		Email:      strings.TrimSpace(in.Email),
		Name:       strings.TrimSpace(in.Name),
		Role:       in.Role,
		IsActive:   in.IsActive,
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(user)
	return user, nil
}

// UpdateRole changes a record's role. The affected identity's snapshot is
// dropped here; other live sessions keep their stale snapshot until they
// refresh.
func (s *Service) UpdateRole(ctx context.Context, id int64, role authz.Role) (*User, error) {
	user, err := s.repo.UpdateRole(ctx, id, role)
	if err != nil {
		return nil, err
	}
	s.invalidate(user)
	return user, nil
}

// SetActive flips a record's active flag.
func (s *Service) SetActive(ctx context.Context, id int64, active bool) (*User, error) {
	user, err := s.repo.SetActive(ctx, id, active)
	if err != nil {
		return nil, err
	}
	s.invalidate(user)
	return user, nil
}

// Refresh drops the cached snapshot for an identity on explicit request.
func (s *Service) Refresh(identityID string) {
	if s.snapshots != nil {
		s.snapshots.Invalidate(identityID)
	}
}

func (s *Service) invalidate(u *User) {
	if s.snapshots != nil && u != nil {
		s.snapshots.Invalidate(u.IdentityID)
	}
}
