package domain

import (
	"context"
	"time"
)

// Post is a short message authored by a user.
type Post struct {
	ID        int64
	AuthorID  int64
	Content   string
	CreatedAt time.Time
}

// Like is a junction record marking that a user liked a post. At most one
// like exists per (user, post) pair.
type Like struct {
	ID        int64
	UserID    int64
	PostID    int64
	CreatedAt time.Time
}

// Reply is a short message attached to a post.
type Reply struct {
	ID        int64
	AuthorID  int64
	PostID    int64
	Content   string
	CreatedAt time.Time
}

// PostView is the read model for the timeline: a post joined with its author
// username and aggregate like/reply counts.
type PostView struct {
	ID         int64     `db:"id" json:"id"`
	Content    string    `db:"content" json:"content"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	Username   string    `db:"username" json:"username"`
	LikeCount  int64     `db:"like_count" json:"like_count"`
	ReplyCount int64     `db:"reply_count" json:"reply_count"`
}

// ReplyView is the read model for a post's replies, joined with the author
// username.
type ReplyView struct {
	ID        int64     `db:"id" json:"id"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	Username  string    `db:"username" json:"username"`
}

// PostRepository is the port for post persistence.
type PostRepository interface {
	CreatePost(ctx context.Context, authorID int64, content string, createdAt time.Time) (int64, error)
	// GetPost returns (nil, nil) when the post does not exist.
	GetPost(ctx context.Context, id int64) (*Post, error)
	// ListPostViews returns all posts newest first (created_at descending,
	// id descending for equal timestamps).
	ListPostViews(ctx context.Context) ([]PostView, error)
	DeletePost(ctx context.Context, id int64) error
}

// LikeRepository is the port for like persistence.
type LikeRepository interface {
	// GetLike returns (nil, nil) when the user has not liked the post.
	GetLike(ctx context.Context, userID, postID int64) (*Like, error)
	// CreateLike returns ErrDuplicateLike when the (user, post) pair already
	// has a like.
	CreateLike(ctx context.Context, userID, postID int64, createdAt time.Time) error
	DeleteLike(ctx context.Context, userID, postID int64) error
	DeleteLikesForPost(ctx context.Context, postID int64) error
}

// ReplyRepository is the port for reply persistence.
type ReplyRepository interface {
	CreateReply(ctx context.Context, authorID, postID int64, content string, createdAt time.Time) (int64, error)
	// ListReplyViews returns a post's replies oldest first (created_at
	// ascending, id ascending for equal timestamps).
	ListReplyViews(ctx context.Context, postID int64) ([]ReplyView, error)
	DeleteRepliesForPost(ctx context.Context, postID int64) error
}
