// Package memory implements in-memory repositories for development and
// testing. Ordering matches the SQL adapter: timelines newest first, replies
// oldest first, id as the tiebreak for equal timestamps.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"microblog/internal/domain"
)

// Store implements every domain repository port in memory.
type Store struct {
	mu      sync.Mutex
	users   []domain.User
	posts   []domain.Post
	likes   []domain.Like
	replies []domain.Reply

	userIDCounter  int64
	postIDCounter  int64
	likeIDCounter  int64
	replyIDCounter int64
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{}
}

// Ensure interfaces are met.
var (
	_ domain.UserRepository  = (*Store)(nil)
	_ domain.PostRepository  = (*Store)(nil)
	_ domain.LikeRepository  = (*Store)(nil)
	_ domain.ReplyRepository = (*Store)(nil)
)

// --- UserRepository ---

// GetByUsername retrieves a user by exact username match. Returns a copy so
// callers cannot mutate store state.
func (s *Store) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.users {
		if s.users[i].Username == username {
			u := s.users[i]
			return &u, nil
		}
	}
	return nil, nil
}

// GetByID retrieves a user by ID.
func (s *Store) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.users {
		if s.users[i].ID == id {
			u := s.users[i]
			return &u, nil
		}
	}
	return nil, nil
}

// Create creates a new user, enforcing username uniqueness.
func (s *Store) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == username {
			return nil, domain.ErrDuplicateUsername
		}
	}

	s.userIDCounter++
	u := domain.User{
		ID:           s.userIDCounter,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	s.users = append(s.users, u)
	return &u, nil
}

// --- PostRepository ---

// CreatePost adds a post.
func (s *Store) CreatePost(ctx context.Context, authorID int64, content string, createdAt time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.postIDCounter++
	s.posts = append(s.posts, domain.Post{
		ID:        s.postIDCounter,
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: createdAt.UTC(),
	})
	return s.postIDCounter, nil
}

// GetPost retrieves a post by ID, (nil, nil) when absent.
func (s *Store) GetPost(ctx context.Context, id int64) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.posts {
		if s.posts[i].ID == id {
			p := s.posts[i]
			return &p, nil
		}
	}
	return nil, nil
}

// ListPostViews returns all posts with author username and counts, newest
// first.
func (s *Store) ListPostViews(ctx context.Context) ([]domain.PostView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	views := make([]domain.PostView, 0, len(s.posts))
	for _, p := range s.posts {
		v := domain.PostView{
			ID:        p.ID,
			Content:   p.Content,
			CreatedAt: p.CreatedAt,
		}
		for _, u := range s.users {
			if u.ID == p.AuthorID {
				v.Username = u.Username
				break
			}
		}
		for _, l := range s.likes {
			if l.PostID == p.ID {
				v.LikeCount++
			}
		}
		for _, r := range s.replies {
			if r.PostID == p.ID {
				v.ReplyCount++
			}
		}
		views = append(views, v)
	}

	sort.Slice(views, func(i, j int) bool {
		if !views[i].CreatedAt.Equal(views[j].CreatedAt) {
			return views[i].CreatedAt.After(views[j].CreatedAt)
		}
		return views[i].ID > views[j].ID
	})
	return views, nil
}

// DeletePost removes a post row; dependents are the caller's responsibility.
func (s *Store) DeletePost(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.posts {
		if s.posts[i].ID == id {
			s.posts = append(s.posts[:i], s.posts[i+1:]...)
			return nil
		}
	}
	return nil
}

// --- LikeRepository ---

// GetLike retrieves the like for a (user, post) pair, (nil, nil) when absent.
func (s *Store) GetLike(ctx context.Context, userID, postID int64) (*domain.Like, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.likes {
		if s.likes[i].UserID == userID && s.likes[i].PostID == postID {
			l := s.likes[i]
			return &l, nil
		}
	}
	return nil, nil
}

// CreateLike adds a like, enforcing (user, post) uniqueness.
func (s *Store) CreateLike(ctx context.Context, userID, postID int64, createdAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range s.likes {
		if l.UserID == userID && l.PostID == postID {
			return domain.ErrDuplicateLike
		}
	}

	s.likeIDCounter++
	s.likes = append(s.likes, domain.Like{
		ID:        s.likeIDCounter,
		UserID:    userID,
		PostID:    postID,
		CreatedAt: createdAt.UTC(),
	})
	return nil
}

// DeleteLike removes a user's like from a post.
func (s *Store) DeleteLike(ctx context.Context, userID, postID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.likes {
		if s.likes[i].UserID == userID && s.likes[i].PostID == postID {
			s.likes = append(s.likes[:i], s.likes[i+1:]...)
			return nil
		}
	}
	return nil
}

// DeleteLikesForPost removes all likes referencing a post.
func (s *Store) DeleteLikesForPost(ctx context.Context, postID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.likes[:0]
	for _, l := range s.likes {
		if l.PostID != postID {
			kept = append(kept, l)
		}
	}
	s.likes = kept
	return nil
}

// --- ReplyRepository ---

// CreateReply adds a reply.
func (s *Store) CreateReply(ctx context.Context, authorID, postID int64, content string, createdAt time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.replyIDCounter++
	s.replies = append(s.replies, domain.Reply{
		ID:        s.replyIDCounter,
		AuthorID:  authorID,
		PostID:    postID,
		Content:   content,
		CreatedAt: createdAt.UTC(),
	})
	return s.replyIDCounter, nil
}

// ListReplyViews returns a post's replies with author username, oldest first.
func (s *Store) ListReplyViews(ctx context.Context, postID int64) ([]domain.ReplyView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	views := []domain.ReplyView{}
	for _, r := range s.replies {
		if r.PostID != postID {
			continue
		}
		v := domain.ReplyView{
			ID:        r.ID,
			Content:   r.Content,
			CreatedAt: r.CreatedAt,
		}
		for _, u := range s.users {
			if u.ID == r.AuthorID {
				v.Username = u.Username
				break
			}
		}
		views = append(views, v)
	}

	sort.Slice(views, func(i, j int) bool {
		if !views[i].CreatedAt.Equal(views[j].CreatedAt) {
			return views[i].CreatedAt.Before(views[j].CreatedAt)
		}
		return views[i].ID < views[j].ID
	})
	return views, nil
}

// DeleteRepliesForPost removes all replies referencing a post.
func (s *Store) DeleteRepliesForPost(ctx context.Context, postID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.replies[:0]
	for _, r := range s.replies {
		if r.PostID != postID {
			kept = append(kept, r)
		}
	}
	s.replies = kept
	return nil
}
