package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"microblog/internal/domain"
)

type userRow struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r userRow) toDomain() *domain.User {
	return &domain.User{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
	}
}

// GetByUsername retrieves a user by exact username match.
func (s *Store) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var row userRow
	err := s.db.GetContext(ctx, &row,
		s.db.Rebind("SELECT id, username, password_hash, created_at FROM users WHERE username = ?"),
		username,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return row.toDomain(), nil
}

// GetByID retrieves a user by ID.
func (s *Store) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var row userRow
	err := s.db.GetContext(ctx, &row,
		s.db.Rebind("SELECT id, username, password_hash, created_at FROM users WHERE id = ?"),
		id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return row.toDomain(), nil
}

// Create inserts a new user. The unique constraint on username is the
// authoritative duplicate guard; violations map to ErrDuplicateUsername.
func (s *Store) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	defer s.lockWrites()()

	createdAt := time.Now().UTC()
	id, err := s.insertID(ctx,
		"INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)",
		username, passwordHash, createdAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %v", domain.ErrDuplicateUsername, err)
		}
		return nil, storeErr(err)
	}

	return &domain.User{ID: id, Username: username, PasswordHash: passwordHash, CreatedAt: createdAt}, nil
}
