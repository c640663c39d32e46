package auth

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ovaprima-erp/ovaprima-erp/internal/authz"
	"github.com/ovaprima-erp/ovaprima-erp/internal/shared"
)

// Service wraps the identity provider business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Identity, error) {
	ident, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(ident.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return ident, nil
}

// IdentityByID resolves a stored identity. Satisfies the directory's
// identity source so subject snapshots can be rebuilt from a session.
func (s *Service) IdentityByID(ctx context.Context, id string) (authz.Identity, error) {
	ident, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return authz.Identity{}, err
	}
	return authz.Identity{ID: ident.ID, Email: ident.Email, Name: ident.Name}, nil
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id string, identityID string, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, identityID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}
