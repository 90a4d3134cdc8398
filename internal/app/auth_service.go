// Package app holds the application services and business logic.
package app

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"microblog/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials indicates that the provided username or password was
// incorrect. The same sentinel covers unknown usernames so the response never
// reveals whether an account exists.
var ErrInvalidCredentials = errors.New("invalid username or password")

const (
	minUsernameLen = 3
	minPasswordLen = 6

	// bcrypt work factor for newly created password hashes.
	hashCost = 12
)

// timingPad is compared against when a login names an unknown user, so that
// missing accounts cost the same as a wrong password.
var timingPad, _ = bcrypt.GenerateFromPassword([]byte("microblog.timing.pad"), hashCost)

// AuthService handles registration and credential verification.
type AuthService struct {
	users domain.UserRepository
}

// NewAuthService creates a new authentication service.
func NewAuthService(users domain.UserRepository) *AuthService {
	return &AuthService{users: users}
}

// Register validates the credentials, hashes the password and persists the
// user. Returns ErrDuplicateUsername when the username is taken, whether
// detected by the pre-insert lookup or by the storage unique constraint.
func (s *AuthService) Register(ctx context.Context, username, password string) error {
	// Minimums are in characters, not bytes.
	if utf8.RuneCountInString(username) < minUsernameLen {
		return &ValidationError{Msg: fmt.Sprintf("username must be at least %d characters", minUsernameLen)}
	}
	if utf8.RuneCountInString(password) < minPasswordLen {
		return &ValidationError{Msg: fmt.Sprintf("password must be at least %d characters", minPasswordLen)}
	}

	// Fast path for a friendly error. The unique constraint on
	// users.username remains the authoritative guard against a concurrent
	// registration winning between this check and the insert.
	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if existing != nil {
		return domain.ErrDuplicateUsername
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return err
	}

	_, err = s.users.Create(ctx, username, string(hash))
	return err
}

// Verify checks a username/password pair and returns the minimal identity on
// success. The password hash never leaves this service.
func (s *AuthService) Verify(ctx context.Context, username, password string) (domain.Identity, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return domain.Identity{}, err
	}
	if user == nil || user.PasswordHash == "" {
		// SSO-provisioned users have no password hash; they cannot log in
		// with credentials either.
		_ = bcrypt.CompareHashAndPassword(timingPad, []byte(password))
		return domain.Identity{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.Identity{}, ErrInvalidCredentials
	}

	return domain.Identity{ID: user.ID, Username: user.Username}, nil
}

// EnsureUser returns the identity for the given username, provisioning the
// account if it does not exist yet. Used by SSO logins, where the provider
// has already authenticated the user; such accounts carry no password hash.
func (s *AuthService) EnsureUser(ctx context.Context, username string) (domain.Identity, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return domain.Identity{}, err
	}
	if user == nil {
		user, err = s.users.Create(ctx, username, "")
		if errors.Is(err, domain.ErrDuplicateUsername) {
			// Lost a provisioning race; the user exists now.
			user, err = s.users.GetByUsername(ctx, username)
		}
		if err != nil {
			return domain.Identity{}, err
		}
		if user == nil {
			return domain.Identity{}, domain.ErrNotFound
		}
	}
	return domain.Identity{ID: user.ID, Username: user.Username}, nil
}
