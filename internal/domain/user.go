// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"time"
)

// User represents a registered account.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Identity is the minimal authenticated-user record attached to a request
// after session validation. It never carries the password hash.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// UserRepository defines the port for user persistence operations.
// Lookups return (nil, nil) when no matching user exists.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	// Create returns ErrDuplicateUsername when the username is already taken.
	Create(ctx context.Context, username, passwordHash string) (*User, error)
}
