package sqlstore

import (
	"context"
	"time"

	"microblog/internal/domain"
)

// CreateReply inserts a reply and returns its id.
func (s *Store) CreateReply(ctx context.Context, authorID, postID int64, content string, createdAt time.Time) (int64, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	defer s.lockWrites()()

	id, err := s.insertID(ctx,
		"INSERT INTO replies (user_id, post_id, content, created_at) VALUES (?, ?, ?, ?)",
		authorID, postID, content, createdAt.UTC(),
	)
	return id, storeErr(err)
}

// ListReplyViews returns a post's replies joined with author username, in
// conversational order (oldest first, id as the tiebreak).
func (s *Store) ListReplyViews(ctx context.Context, postID int64) ([]domain.ReplyView, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	views := []domain.ReplyView{}
	err := s.db.SelectContext(ctx, &views, s.db.Rebind(`
		SELECT r.id, r.content, r.created_at, u.username
		FROM replies r
		JOIN users u ON r.user_id = u.id
		WHERE r.post_id = ?
		ORDER BY r.created_at ASC, r.id ASC`),
		postID,
	)
	if err != nil {
		return nil, storeErr(err)
	}
	return views, nil
}

// DeleteRepliesForPost removes all replies referencing a post.
func (s *Store) DeleteRepliesForPost(ctx context.Context, postID int64) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	defer s.lockWrites()()

	_, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM replies WHERE post_id = ?"), postID)
	return storeErr(err)
}
