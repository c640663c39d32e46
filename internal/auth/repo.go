package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ovaprima-erp/ovaprima-erp/internal/shared"
)

// Repository defines persistence operations for the identity provider.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*Identity, error)
	FindByID(ctx context.Context, id string) (*Identity, error)
	CreateSession(ctx context.Context, id string, identityID string, expiresAt time.Time, ip, ua string) error
	DeleteSession(ctx context.Context, id string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByEmail fetches an identity by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*Identity, error) {
	return r.scanIdentity(ctx,
		`SELECT id, email, name, password_hash, created_at FROM identities WHERE email = $1`, email)
}

// FindByID fetches an identity by its opaque ID.
func (r *PGRepository) FindByID(ctx context.Context, id string) (*Identity, error) {
	return r.scanIdentity(ctx,
		`SELECT id, email, name, password_hash, created_at FROM identities WHERE id = $1`, id)
}

func (r *PGRepository) scanIdentity(ctx context.Context, query string, arg any) (*Identity, error) {
	var ident Identity
	err := r.pool.QueryRow(ctx, query, arg).
		Scan(&ident.ID, &ident.Email, &ident.Name, &ident.PasswordHash, &ident.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &ident, nil
}

// CreateSession persists a login session row for auditing.
func (r *PGRepository) CreateSession(ctx context.Context, id string, identityID string, expiresAt time.Time, ip, ua string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO sessions (id, identity_id, created_at, expires_at, ip, ua) VALUES ($1, $2, NOW(), $3, NULLIF($4,''), NULLIF($5,''))`,
		id, identityID, expiresAt.UTC(), ip, ua)
	return err
}

// DeleteSession removes a session record.
func (r *PGRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

var _ Repository = (*PGRepository)(nil)
