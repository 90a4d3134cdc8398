package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"microblog/internal/domain"
)

func newSQLiteStore(t *testing.T, timeout time.Duration) *Store {
	t.Helper()
	store, err := Open(Config{
		Driver:  DriverSQLite,
		DSN:     filepath.Join(t.TempDir(), "test.db"),
		Timeout: timeout,
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_RoundTrip(t *testing.T) {
	store := newSQLiteStore(t, 5*time.Second)
	ctx := context.Background()

	missing, err := store.GetByUsername(ctx, "alice")
	if err != nil || missing != nil {
		t.Fatalf("expected (nil, nil) for missing user, got %+v, %v", missing, err)
	}

	u, err := store.Create(ctx, "alice", "hash")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.Create(ctx, "alice", "otherhash"); !errors.Is(err, domain.ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}

	postID, err := store.CreatePost(ctx, u.ID, "hello", time.Now())
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if err := store.CreateLike(ctx, u.ID, postID, time.Now()); err != nil {
		t.Fatalf("CreateLike: %v", err)
	}
	if err := store.CreateLike(ctx, u.ID, postID, time.Now()); !errors.Is(err, domain.ErrDuplicateLike) {
		t.Fatalf("expected ErrDuplicateLike, got %v", err)
	}
	if _, err := store.CreateReply(ctx, u.ID, postID, "hi", time.Now()); err != nil {
		t.Fatalf("CreateReply: %v", err)
	}

	views, err := store.ListPostViews(ctx)
	if err != nil {
		t.Fatalf("ListPostViews: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 view, got %d", len(views))
	}
	v := views[0]
	if v.ID != postID || v.Username != "alice" || v.LikeCount != 1 || v.ReplyCount != 1 {
		t.Fatalf("unexpected view: %+v", v)
	}

	if err := store.DeleteRepliesForPost(ctx, postID); err != nil {
		t.Fatalf("DeleteRepliesForPost: %v", err)
	}
	if err := store.DeleteLikesForPost(ctx, postID); err != nil {
		t.Fatalf("DeleteLikesForPost: %v", err)
	}
	if err := store.DeletePost(ctx, postID); err != nil {
		t.Fatalf("DeletePost: %v", err)
	}
	if post, err := store.GetPost(ctx, postID); err != nil || post != nil {
		t.Fatalf("expected post gone, got %+v, %v", post, err)
	}
}

func TestStore_OperationTimeout(t *testing.T) {
	store := newSQLiteStore(t, time.Nanosecond)
	ctx := context.Background()

	// A deadline hit maps to ErrStorageTimeout on both read and write paths.
	if _, err := store.GetByUsername(ctx, "alice"); !errors.Is(err, domain.ErrStorageTimeout) {
		t.Fatalf("read: expected ErrStorageTimeout, got %v", err)
	}
	if _, err := store.Create(ctx, "alice", "hash"); !errors.Is(err, domain.ErrStorageTimeout) {
		t.Fatalf("write: expected ErrStorageTimeout, got %v", err)
	}
}
