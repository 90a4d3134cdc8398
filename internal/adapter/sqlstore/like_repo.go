package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"microblog/internal/domain"
)

type likeRow struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	PostID    int64     `db:"post_id"`
	CreatedAt time.Time `db:"created_at"`
}

// GetLike retrieves the like for a (user, post) pair, (nil, nil) when absent.
func (s *Store) GetLike(ctx context.Context, userID, postID int64) (*domain.Like, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var row likeRow
	err := s.db.GetContext(ctx, &row,
		s.db.Rebind("SELECT id, user_id, post_id, created_at FROM likes WHERE user_id = ? AND post_id = ?"),
		userID, postID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return &domain.Like{ID: row.ID, UserID: row.UserID, PostID: row.PostID, CreatedAt: row.CreatedAt}, nil
}

// CreateLike inserts a like. The unique constraint on (user_id, post_id) is
// the authoritative toggle guard; violations map to ErrDuplicateLike.
func (s *Store) CreateLike(ctx context.Context, userID, postID int64, createdAt time.Time) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	defer s.lockWrites()()

	_, err := s.db.ExecContext(ctx,
		s.db.Rebind("INSERT INTO likes (user_id, post_id, created_at) VALUES (?, ?, ?)"),
		userID, postID, createdAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %v", domain.ErrDuplicateLike, err)
		}
		return storeErr(err)
	}
	return nil
}

// DeleteLike removes a user's like from a post.
func (s *Store) DeleteLike(ctx context.Context, userID, postID int64) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	defer s.lockWrites()()

	_, err := s.db.ExecContext(ctx,
		s.db.Rebind("DELETE FROM likes WHERE user_id = ? AND post_id = ?"),
		userID, postID,
	)
	return storeErr(err)
}

// DeleteLikesForPost removes all likes referencing a post.
func (s *Store) DeleteLikesForPost(ctx context.Context, postID int64) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	defer s.lockWrites()()

	_, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM likes WHERE post_id = ?"), postID)
	return storeErr(err)
}
