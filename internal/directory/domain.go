// Package directory manages application user records: the local
// authorization side of an authenticated identity. Identities without a
// directory record are in "pending setup", which is a legitimate state.
package directory

import (
	"errors"
	"time"

	"github.com/ovaprima-erp/ovaprima-erp/internal/authz"
)

// User is an application user record. At most one record binds to any
// identity; the unique index on identity_id enforces that.
type User struct {
	ID         int64
	IdentityID string
	Email      string
	Name       string
	Role       authz.Role
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AuthzUser converts the record into the evaluator's view of it.
func (u User) AuthzUser() *authz.User {
	return &authz.User{
		ID:         u.ID,
		IdentityID: u.IdentityID,
		Email:      u.Email,
		Name:       u.Name,
		Role:       u.Role,
		IsActive:   u.IsActive,
	}
}

// ErrAlreadyBound indicates the identity already has a user record.
var ErrAlreadyBound = errors.New("directory: identity already bound")
