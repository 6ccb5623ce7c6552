package domain

import "github.com/google/uuid"

// User is the authenticated profile fetched for a bearer token. It is
// immutable for the lifetime of that token: re-authentication replaces the
// whole value, individual fields are never patched.
type User struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	IsAdmin bool      `json:"is_admin"`
}
