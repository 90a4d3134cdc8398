package app

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"microblog/internal/domain"
)

const maxContentLen = 280

// ContentService encapsulates the post, like and reply use cases. All
// mutations are scoped to an authenticated identity.
type ContentService struct {
	posts   domain.PostRepository
	likes   domain.LikeRepository
	replies domain.ReplyRepository
}

// NewContentService creates a ContentService backed by the given repositories.
func NewContentService(posts domain.PostRepository, likes domain.LikeRepository, replies domain.ReplyRepository) *ContentService {
	return &ContentService{posts: posts, likes: likes, replies: replies}
}

// CreatePost validates and persists a post authored by the identity.
func (s *ContentService) CreatePost(ctx context.Context, identity domain.Identity, content string) (int64, error) {
	content, err := validateContent(content)
	if err != nil {
		return 0, err
	}
	return s.posts.CreatePost(ctx, identity.ID, content, time.Now())
}

// ListPosts returns the timeline, newest first.
func (s *ContentService) ListPosts(ctx context.Context) ([]domain.PostView, error) {
	return s.posts.ListPostViews(ctx)
}

// ToggleLike flips the identity's like state for the post and reports the
// resulting state. Returns ErrNotFound when the post does not exist.
func (s *ContentService) ToggleLike(ctx context.Context, identity domain.Identity, postID int64) (bool, error) {
	post, err := s.posts.GetPost(ctx, postID)
	if err != nil {
		return false, err
	}
	if post == nil {
		return false, domain.ErrNotFound
	}

	existing, err := s.likes.GetLike(ctx, identity.ID, postID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		if err := s.likes.DeleteLike(ctx, identity.ID, postID); err != nil {
			return false, err
		}
		return false, nil
	}

	err = s.likes.CreateLike(ctx, identity.ID, postID, time.Now())
	if errors.Is(err, domain.ErrDuplicateLike) {
		// Lost a double-click race against ourselves; the like exists.
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// DeletePost removes a post authored by the identity together with its likes
// and replies. The store does not cascade, so dependents are deleted first:
// replies, then likes, then the post.
func (s *ContentService) DeletePost(ctx context.Context, identity domain.Identity, postID int64) error {
	post, err := s.posts.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return domain.ErrNotFound
	}
	if post.AuthorID != identity.ID {
		return ErrForbidden
	}

	if err := s.replies.DeleteRepliesForPost(ctx, postID); err != nil {
		return err
	}
	if err := s.likes.DeleteLikesForPost(ctx, postID); err != nil {
		return err
	}
	return s.posts.DeletePost(ctx, postID)
}

// CreateReply validates and persists a reply to an existing post. Returns
// ErrNotFound when the target post does not exist.
func (s *ContentService) CreateReply(ctx context.Context, identity domain.Identity, postID int64, content string) (int64, error) {
	content, err := validateContent(content)
	if err != nil {
		return 0, err
	}

	post, err := s.posts.GetPost(ctx, postID)
	if err != nil {
		return 0, err
	}
	if post == nil {
		return 0, domain.ErrNotFound
	}

	return s.replies.CreateReply(ctx, identity.ID, postID, content, time.Now())
}

// ListReplies returns a post's replies in conversational order, oldest first.
func (s *ContentService) ListReplies(ctx context.Context, postID int64) ([]domain.ReplyView, error) {
	return s.replies.ListReplyViews(ctx, postID)
}

func validateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", &ValidationError{Msg: "content is required"}
	}
	if utf8.RuneCountInString(content) > maxContentLen {
		return "", &ValidationError{Msg: "content must be 280 characters or less"}
	}
	return content, nil
}
