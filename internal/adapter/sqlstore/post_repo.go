package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"microblog/internal/domain"
)

type postRow struct {
	ID        int64     `db:"id"`
	AuthorID  int64     `db:"user_id"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
}

// CreatePost inserts a post and returns its id.
func (s *Store) CreatePost(ctx context.Context, authorID int64, content string, createdAt time.Time) (int64, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	defer s.lockWrites()()

	id, err := s.insertID(ctx,
		"INSERT INTO posts (user_id, content, created_at) VALUES (?, ?, ?)",
		authorID, content, createdAt.UTC(),
	)
	return id, storeErr(err)
}

// GetPost retrieves a post by ID, (nil, nil) when absent.
func (s *Store) GetPost(ctx context.Context, id int64) (*domain.Post, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var row postRow
	err := s.db.GetContext(ctx, &row,
		s.db.Rebind("SELECT id, user_id, content, created_at FROM posts WHERE id = ?"),
		id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return &domain.Post{ID: row.ID, AuthorID: row.AuthorID, Content: row.Content, CreatedAt: row.CreatedAt}, nil
}

// ListPostViews returns all posts joined with author username and aggregate
// like/reply counts, newest first with id as the tiebreak.
func (s *Store) ListPostViews(ctx context.Context) ([]domain.PostView, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	views := []domain.PostView{}
	err := s.db.SelectContext(ctx, &views, `
		SELECT
			p.id,
			p.content,
			p.created_at,
			u.username,
			COUNT(DISTINCT l.id) AS like_count,
			COUNT(DISTINCT r.id) AS reply_count
		FROM posts p
		JOIN users u ON p.user_id = u.id
		LEFT JOIN likes l ON l.post_id = p.id
		LEFT JOIN replies r ON r.post_id = p.id
		GROUP BY p.id, p.content, p.created_at, u.username
		ORDER BY p.created_at DESC, p.id DESC`,
	)
	if err != nil {
		return nil, storeErr(err)
	}
	return views, nil
}

// DeletePost removes the post row only; the caller deletes dependents first.
func (s *Store) DeletePost(ctx context.Context, id int64) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	defer s.lockWrites()()

	_, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM posts WHERE id = ?"), id)
	return storeErr(err)
}
