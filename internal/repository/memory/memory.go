// Package memory provides an in-process store with the same contract as
// the PostgreSQL repository.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/micropost/micropost/internal/model"
	"github.com/micropost/micropost/internal/repository"
)

// Store keeps users, follow edges and posts in maps guarded by one lock.
// Edges are indexed by follower and by followed so both directions cost
// O(result).
type Store struct {
	mu sync.RWMutex

	users   map[string]*model.User
	byEmail map[string]string

	following map[string]map[string]time.Time // follower -> followed -> created
	followers map[string]map[string]time.Time // followed -> follower -> created

	posts    map[string]*model.Post
	byAuthor map[string][]string
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		users:     make(map[string]*model.User),
		byEmail:   make(map[string]string),
		following: make(map[string]map[string]time.Time),
		followers: make(map[string]map[string]time.Time),
		posts:     make(map[string]*model.Post),
		byAuthor:  make(map[string][]string),
	}
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// ============================================================================
// Users
// ============================================================================

// CreateUser stores a copy of user.
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := user.NormalizedEmail()
	if _, ok := s.byEmail[email]; ok {
		return repository.ErrEmailExists
	}

	stored := *user
	s.users[user.ID] = &stored
	s.byEmail[email] = user.ID
	return nil
}

// GetUserByID returns a copy of the user with id.
func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

// GetUserByEmail returns a copy of the user with email, ignoring case.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[model.NormalizeEmail(email)]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	clone := *s.users[id]
	return &clone, nil
}

// GetUsersByIDs returns copies of the known users among ids, ordered by ID.
func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) ([]*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*model.User, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if user, ok := s.users[id]; ok {
			clone := *user
			users = append(users, &clone)
		}
	}

	slices.SortFunc(users, func(a, b *model.User) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return users, nil
}

// UpdatePasswordHash replaces the stored hash of userID.
func (s *Store) UpdatePasswordHash(ctx context.Context, userID, hash string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.PasswordHash = hash
	user.UpdatedAt = at
	return nil
}

// SetAdmin toggles the admin flag of userID.
func (s *Store) SetAdmin(ctx context.Context, userID string, admin bool, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.Admin = admin
	user.UpdatedAt = at
	return nil
}

// DeleteUser removes userID together with every edge touching it and
// every post it wrote.
func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}

	for followed := range s.following[userID] {
		delete(s.followers[followed], userID)
	}
	for follower := range s.followers[userID] {
		delete(s.following[follower], userID)
	}
	delete(s.following, userID)
	delete(s.followers, userID)

	for _, postID := range s.byAuthor[userID] {
		delete(s.posts, postID)
	}
	delete(s.byAuthor, userID)

	delete(s.byEmail, user.NormalizedEmail())
	delete(s.users, userID)
	return nil
}

// ============================================================================
// Follows
// ============================================================================

// InsertFollow records edge and reports whether it was new.
func (s *Store) InsertFollow(ctx context.Context, edge model.FollowEdge) (bool, error) {
	if edge.IsSelfLoop() {
		return false, repository.ErrSelfFollow
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[edge.FollowerID]; !ok {
		return false, repository.ErrUserNotFound
	}
	if _, ok := s.users[edge.FollowedID]; !ok {
		return false, repository.ErrUserNotFound
	}

	if _, exists := s.following[edge.FollowerID][edge.FollowedID]; exists {
		return false, nil
	}

	if s.following[edge.FollowerID] == nil {
		s.following[edge.FollowerID] = make(map[string]time.Time)
	}
	if s.followers[edge.FollowedID] == nil {
		s.followers[edge.FollowedID] = make(map[string]time.Time)
	}
	s.following[edge.FollowerID][edge.FollowedID] = edge.CreatedAt
	s.followers[edge.FollowedID][edge.FollowerID] = edge.CreatedAt
	return true, nil
}

// DeleteFollow removes the edge and reports whether it existed.
func (s *Store) DeleteFollow(ctx context.Context, followerID, followedID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.following[followerID][followedID]; !exists {
		return false, nil
	}
	delete(s.following[followerID], followedID)
	delete(s.followers[followedID], followerID)
	return true, nil
}

// FollowExists reports whether followerID follows followedID.
func (s *Store) FollowExists(ctx context.Context, followerID, followedID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.following[followerID][followedID]
	return exists, nil
}

// ListFollowing returns the IDs userID follows, sorted.
func (s *Store) ListFollowing(ctx context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return sortedKeys(s.following[userID]), nil
}

// ListFollowers returns the IDs following userID, sorted.
func (s *Store) ListFollowers(ctx context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return sortedKeys(s.followers[userID]), nil
}

// ============================================================================
// Posts
// ============================================================================

// CreatePost stores a copy of post.
func (s *Store) CreatePost(ctx context.Context, post *model.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[post.AuthorID]; !ok {
		return repository.ErrUserNotFound
	}

	stored := *post
	s.posts[post.ID] = &stored
	s.byAuthor[post.AuthorID] = append(s.byAuthor[post.AuthorID], post.ID)
	return nil
}

// PostsByAuthors returns copies of every post by authorIDs, newest first.
func (s *Store) PostsByAuthors(ctx context.Context, authorIDs []string) ([]*model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	posts := make([]*model.Post, 0)
	seen := make(map[string]struct{}, len(authorIDs))
	for _, authorID := range authorIDs {
		if _, dup := seen[authorID]; dup {
			continue
		}
		seen[authorID] = struct{}{}
		for _, postID := range s.byAuthor[authorID] {
			clone := *s.posts[postID]
			posts = append(posts, &clone)
		}
	}

	slices.SortFunc(posts, func(a, b *model.Post) int {
		switch {
		case a.NewerThan(b):
			return -1
		case b.NewerThan(a):
			return 1
		}
		return 0
	})
	return posts, nil
}

func sortedKeys(m map[string]time.Time) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
