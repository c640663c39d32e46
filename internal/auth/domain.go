package auth

import "time"

// Identity is an authenticated principal. Authorization data lives on the
// directory side; an identity alone only proves who is calling.
type Identity struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}
