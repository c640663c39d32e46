package directory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ovaprima-erp/ovaprima-erp/internal/authz"
	"github.com/ovaprima-erp/ovaprima-erp/internal/shared"
)

// Repository defines persistence operations for the user directory.
type Repository interface {
	FindByIdentity(ctx context.Context, identityID string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	List(ctx context.Context) ([]User, error)
	Create(ctx context.Context, u User) (*User, error)
	UpdateRole(ctx context.Context, id int64, role authz.Role) (*User, error)
	SetActive(ctx context.Context, id int64, active bool) (*User, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, identity_id, email, name, role, is_active, created_at, updated_at`

// FindByIdentity fetches the record bound to an identity.
func (r *PGRepository) FindByIdentity(ctx context.Context, identityID string) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM app_users WHERE identity_id = $1`, identityID)
	return scanUser(row)
}

// FindByID fetches a record by primary key.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM app_users WHERE id = $1`, id)
	return scanUser(row)
}

// List returns all records ordered by name.
func (r *PGRepository) List(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM app_users ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// Create inserts a new record. A second record for the same identity maps
// to ErrAlreadyBound.
func (r *PGRepository) Create(ctx context.Context, u User) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO app_users (identity_id, email, name, role, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
RETURNING `+userColumns,
		u.IdentityID, u.Email, u.Name, u.Role.String(), u.IsActive)
	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrAlreadyBound
		}
		return nil, err
	}
	return created, nil
}

// UpdateRole changes the business role of a record.
func (r *PGRepository) UpdateRole(ctx context.Context, id int64, role authz.Role) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE app_users SET role = $2, updated_at = NOW() WHERE id = $1 RETURNING `+userColumns,
		id, role.String())
	return scanUser(row)
}

// SetActive flips the active flag of a record.
func (r *PGRepository) SetActive(ctx context.Context, id int64, active bool) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE app_users SET is_active = $2, updated_at = NOW() WHERE id = $1 RETURNING `+userColumns,
		id, active)
	return scanUser(row)
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var role string
	err := row.Scan(&u.ID, &u.IdentityID, &u.Email, &u.Name, &role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	parsed, err := authz.ParseRole(role)
	if err != nil {
		return nil, err
	}
	u.Role = parsed
	return &u, nil
}

var _ Repository = (*PGRepository)(nil)
