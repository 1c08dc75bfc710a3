package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/micropost/micropost/internal/auth"
	"github.com/micropost/micropost/internal/cache"
	"github.com/micropost/micropost/internal/metrics"
	"github.com/micropost/micropost/internal/model"
	"github.com/micropost/micropost/internal/repository/memory"
)

// Cheap argon2 parameters keep the suite fast.
var testParams = auth.Params{Time: 1, MemoryKB: 8 * 1024, Threads: 1}

var errStoreDown = errors.New("connection refused")

type testEnv struct {
	store    *memory.Store
	recorder *metrics.InMemoryRecorder
	logs     *bytes.Buffer

	creds *CredentialService
	graph *RelationshipService
	feed  *FeedService
	users *UserService
	posts *PostService
}

type envOption func(*envConfig)

type envConfig struct {
	cache       FollowCache
	limiter     LoginLimiter
	postStore   PostStore
	wrapFollows func(FollowStore) FollowStore
}

func withCache(c FollowCache) envOption    { return func(cfg *envConfig) { cfg.cache = c } }
func withLimiter(l LoginLimiter) envOption { return func(cfg *envConfig) { cfg.limiter = l } }
func withPostStore(p PostStore) envOption  { return func(cfg *envConfig) { cfg.postStore = p } }

// withFollowStore wraps the memory store seen by the relationship service.
func withFollowStore(wrap func(FollowStore) FollowStore) envOption {
	return func(cfg *envConfig) { cfg.wrapFollows = wrap }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	var cfg envConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	store := memory.New()
	if cfg.postStore == nil {
		cfg.postStore = store
	}

	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(&syncWriter{w: logs}, &slog.HandlerOptions{Level: slog.LevelDebug}))
	recorder := metrics.NewInMemory()

	creds := NewCredentialService(store, auth.NewHasher(testParams), cfg.limiter, logger, recorder)
	var follows FollowStore = store
	if cfg.wrapFollows != nil {
		follows = cfg.wrapFollows(store)
	}
	graph := NewRelationshipService(follows, store, cfg.cache, logger, recorder)

	return &testEnv{
		store:    store,
		recorder: recorder,
		logs:     logs,
		creds:    creds,
		graph:    graph,
		feed:     NewFeedService(graph, cfg.postStore, logger, recorder),
		users:    NewUserService(store, creds, cfg.cache, logger),
		posts:    NewPostService(cfg.postStore, logger, recorder),
	}
}

// register creates a user through the directory with a valid password.
func (e *testEnv) register(t *testing.T, name, email, password string) *model.User {
	t.Helper()
	user, err := e.users.Register(context.Background(), RegisterInput{
		Name:                 name,
		Email:                email,
		Password:             password,
		PasswordConfirmation: password,
	})
	require.NoError(t, err)
	return user
}

// publishAt stores a post with an explicit timestamp.
func (e *testEnv) publishAt(t *testing.T, author *model.User, content string, at time.Time) *model.Post {
	t.Helper()
	e.posts.now = func() time.Time { return at }
	post, err := e.posts.Publish(context.Background(), author.ID, content)
	require.NoError(t, err)
	return post
}

func contents(posts []*model.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.Content
	}
	return out
}

func userIDs(users []*model.User) []string {
	out := make([]string, len(users))
	for i, u := range users {
		out[i] = u.ID
	}
	return out
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// ============================================================================
// Fakes
// ============================================================================

// failingPostStore simulates an unavailable post repository.
type failingPostStore struct{}

func (failingPostStore) CreatePost(context.Context, *model.Post) error { return errStoreDown }
func (failingPostStore) PostsByAuthors(context.Context, []string) ([]*model.Post, error) {
	return nil, errStoreDown
}

// mapCache is an in-process FollowCache with the same versioned fills as
// the Redis cache.
type mapCache struct {
	mu        sync.Mutex
	following map[string][]string
	followers map[string][]string
	versions  map[string]int64
	readErr   error
}

func newMapCache() *mapCache {
	return &mapCache{
		following: map[string][]string{},
		followers: map[string][]string{},
		versions:  map[string]int64{},
	}
}

func (c *mapCache) get(m map[string][]string, kind, id string) ([]string, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readErr != nil {
		return nil, 0, c.readErr
	}
	version := c.versions[kind+id]
	ids, ok := m[id]
	if !ok {
		return nil, version, cache.ErrCacheMiss
	}
	return append([]string(nil), ids...), version, nil
}

func (c *mapCache) set(m map[string][]string, kind, id string, ids []string, version int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.versions[kind+id] != version {
		return nil
	}
	m[id] = append([]string{}, ids...)
	return nil
}

func (c *mapCache) drop(m map[string][]string, kind, id string) {
	c.versions[kind+id]++
	delete(m, id)
}

func (c *mapCache) GetFollowing(_ context.Context, id string) ([]string, int64, error) {
	return c.get(c.following, "following:", id)
}

func (c *mapCache) SetFollowing(_ context.Context, id string, ids []string, version int64) error {
	return c.set(c.following, "following:", id, ids, version)
}

func (c *mapCache) GetFollowers(_ context.Context, id string) ([]string, int64, error) {
	return c.get(c.followers, "followers:", id)
}

func (c *mapCache) SetFollowers(_ context.Context, id string, ids []string, version int64) error {
	return c.set(c.followers, "followers:", id, ids, version)
}

func (c *mapCache) InvalidateFollow(_ context.Context, followerID, followedID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drop(c.following, "following:", followerID)
	c.drop(c.followers, "followers:", followedID)
	return nil
}

func (c *mapCache) InvalidateUser(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drop(c.following, "following:", id)
	c.drop(c.followers, "followers:", id)
	return nil
}

func (c *mapCache) has(m map[string][]string, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := m[id]
	return ok
}

// hookedFollowStore runs afterList once, after the first ListFollowing
// returns and before the caller sees the result.
type hookedFollowStore struct {
	FollowStore
	once      sync.Once
	afterList func()
}

func (s *hookedFollowStore) ListFollowing(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.FollowStore.ListFollowing(ctx, userID)
	s.once.Do(s.afterList)
	return ids, err
}

// stubLimiter allows a fixed number of attempts per key.
type stubLimiter struct {
	mu      sync.Mutex
	allowed int
	seen    map[string]int
	err     error
}

func (l *stubLimiter) AllowLogin(_ context.Context, key string) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return true, 0, l.err
	}
	if l.seen == nil {
		l.seen = map[string]int{}
	}
	l.seen[key]++
	if l.seen[key] <= l.allowed {
		return true, 0, nil
	}
	return false, time.Minute, nil
}
