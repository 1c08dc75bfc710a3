package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/micropost/micropost/internal/model"
)

func TestRelationshipService_FollowIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.register(t, "A", "a@x.com", "secret1")
	b := env.register(t, "B", "b@x.com", "secret1")

	require.NoError(t, env.graph.Follow(ctx, a.ID, b.ID))
	require.NoError(t, env.graph.Follow(ctx, a.ID, b.ID))

	following, err := env.graph.FollowingIDs(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, following)

	assert.Equal(t, uint64(1), env.recorder.Snapshot().FollowsCreated)
}

func TestRelationshipService_UnfollowIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.register(t, "A", "a@x.com", "secret1")
	b := env.register(t, "B", "b@x.com", "secret1")

	// Never followed
	require.NoError(t, env.graph.Unfollow(ctx, a.ID, b.ID))

	require.NoError(t, env.graph.Follow(ctx, a.ID, b.ID))
	require.NoError(t, env.graph.Unfollow(ctx, a.ID, b.ID))
	require.NoError(t, env.graph.Unfollow(ctx, a.ID, b.ID))

	ok, err := env.graph.IsFollowing(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, uint64(1), env.recorder.Snapshot().FollowsRemoved)
}

func TestRelationshipService_SelfFollowRejected(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.register(t, "A", "a@x.com", "secret1")

	err := env.graph.Follow(ctx, a.ID, a.ID)
	assert.ErrorIs(t, err, ErrInvalidOperation)
	assert.ErrorIs(t, err, ErrSelfFollow)

	following, err := env.graph.FollowingIDs(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, following)
}

func TestRelationshipService_FollowUnknownUser(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	a := env.register(t, "A", "a@x.com", "secret1")

	err := env.graph.Follow(context.Background(), a.ID, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

// is_following(a,b) iff b in following(a) iff a in followers(b).
func TestRelationshipService_DirectionSymmetry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	users := make([]*model.User, 5)
	for i := range users {
		users[i] = env.register(t, fmt.Sprintf("U%d", i), fmt.Sprintf("u%d@x.com", i), "secret1")
	}

	// A small irregular graph
	edges := [][2]int{{0, 1}, {0, 2}, {1, 2}, {2, 0}, {3, 0}, {4, 3}}
	for _, e := range edges {
		require.NoError(t, env.graph.Follow(ctx, users[e[0]].ID, users[e[1]].ID))
	}

	for _, a := range users {
		following, err := env.graph.Following(ctx, a.ID)
		require.NoError(t, err)
		for _, b := range users {
			isFollowing, err := env.graph.IsFollowing(ctx, a.ID, b.ID)
			require.NoError(t, err)

			followers, err := env.graph.Followers(ctx, b.ID)
			require.NoError(t, err)

			inFollowing := slices.Contains(userIDs(following), b.ID)
			inFollowers := slices.Contains(userIDs(followers), a.ID)

			assert.Equal(t, isFollowing, inFollowing, "%s -> %s following()", a.Name, b.Name)
			assert.Equal(t, isFollowing, inFollowers, "%s -> %s followers()", a.Name, b.Name)
		}
	}

	// Directed: 1 follows 2 but 2 does not follow 1.
	ok, err := env.graph.IsFollowing(ctx, users[2].ID, users[1].ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRelationshipService_ConcurrentFollow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.register(t, "A", "a@x.com", "secret1")
	b := env.register(t, "B", "b@x.com", "secret1")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, env.graph.Follow(ctx, a.ID, b.ID))
		}()
	}
	wg.Wait()

	followers, err := env.graph.FollowerIDs(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, followers)
	assert.Equal(t, uint64(1), env.recorder.Snapshot().FollowsCreated)
}

func TestRelationshipService_ConcurrentFollowUnfollowSerializes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.register(t, "A", "a@x.com", "secret1")
	b := env.register(t, "B", "b@x.com", "secret1")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, env.graph.Follow(ctx, a.ID, b.ID))
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, env.graph.Unfollow(ctx, a.ID, b.ID))
		}()
	}
	wg.Wait()

	// Whatever the interleaving, both indices agree.
	isFollowing, err := env.graph.IsFollowing(ctx, a.ID, b.ID)
	require.NoError(t, err)
	following, err := env.store.ListFollowing(ctx, a.ID)
	require.NoError(t, err)
	followers, err := env.store.ListFollowers(ctx, b.ID)
	require.NoError(t, err)

	assert.Equal(t, isFollowing, slices.Contains(following, b.ID))
	assert.Equal(t, isFollowing, slices.Contains(followers, a.ID))
}

func TestRelationshipService_CacheReadThroughAndInvalidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := newMapCache()
	env := newTestEnv(t, withCache(c))
	a := env.register(t, "A", "a@x.com", "secret1")
	b := env.register(t, "B", "b@x.com", "secret1")

	// Miss then hit
	ids, err := env.graph.FollowingIDs(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
	_, err = env.graph.FollowingIDs(ctx, a.ID)
	require.NoError(t, err)

	snap := env.recorder.Snapshot()
	assert.Equal(t, uint64(1), snap.FollowCacheMisses)
	assert.Equal(t, uint64(1), snap.FollowCacheHits)

	// Prime followers:b, then follow invalidates both sides.
	_, err = env.graph.FollowerIDs(ctx, b.ID)
	require.NoError(t, err)
	require.NoError(t, env.graph.Follow(ctx, a.ID, b.ID))
	assert.False(t, c.has(c.following, a.ID))
	assert.False(t, c.has(c.followers, b.ID))

	ids, err = env.graph.FollowingIDs(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, ids)

	followers, err := env.graph.FollowerIDs(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, followers)

	require.NoError(t, env.graph.Unfollow(ctx, a.ID, b.ID))
	ids, err = env.graph.FollowingIDs(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRelationshipService_FollowDuringCacheFillIsNotLost(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := newMapCache()

	var graph *RelationshipService
	var a, b *model.User
	hooked := &hookedFollowStore{}
	hooked.afterList = func() {
		// The reader holds the pre-follow list when the follow commits.
		require.NoError(t, graph.Follow(ctx, a.ID, b.ID))
	}
	env := newTestEnv(t, withCache(c), withFollowStore(func(fs FollowStore) FollowStore {
		hooked.FollowStore = fs
		return hooked
	}))
	graph = env.graph
	a = env.register(t, "A", "a@x.com", "secret1")
	b = env.register(t, "B", "b@x.com", "secret1")
	env.publishAt(t, b, "hello", t0)

	stale, err := graph.FollowingIDs(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, stale)

	following, err := graph.IsFollowing(ctx, a.ID, b.ID)
	require.NoError(t, err)
	require.True(t, following)

	ids, err := graph.FollowingIDs(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, ids)

	feed, err := env.feed.Feed(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, contents(feed))
}

func TestRelationshipService_CacheErrorFallsBackToStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := newMapCache()
	c.readErr = errors.New("redis timeout")
	env := newTestEnv(t, withCache(c))
	a := env.register(t, "A", "a@x.com", "secret1")
	b := env.register(t, "B", "b@x.com", "secret1")

	require.NoError(t, env.graph.Follow(ctx, a.ID, b.ID))

	ids, err := env.graph.FollowingIDs(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, ids)
	assert.Contains(t, env.logs.String(), "follow_cache_read_failed")
}

func TestRelationshipService_StoreFailureIsRepositoryError(t *testing.T) {
	t.Parallel()

	graph := NewRelationshipService(brokenFollowStore{}, nil, nil, nil, nil)
	ctx := context.Background()

	_, err := graph.FollowingIDs(ctx, "a")
	assert.ErrorIs(t, err, ErrRepository)

	_, err = graph.IsFollowing(ctx, "a", "b")
	assert.ErrorIs(t, err, ErrRepository)

	err = graph.Follow(ctx, "a", "b")
	assert.ErrorIs(t, err, ErrRepository)

	err = graph.Unfollow(ctx, "a", "b")
	assert.ErrorIs(t, err, ErrRepository)
}

type brokenFollowStore struct{}

func (brokenFollowStore) InsertFollow(context.Context, model.FollowEdge) (bool, error) {
	return false, errStoreDown
}

func (brokenFollowStore) DeleteFollow(context.Context, string, string) (bool, error) {
	return false, errStoreDown
}

func (brokenFollowStore) FollowExists(context.Context, string, string) (bool, error) {
	return false, errStoreDown
}

func (brokenFollowStore) ListFollowing(context.Context, string) ([]string, error) {
	return nil, errStoreDown
}

func (brokenFollowStore) ListFollowers(context.Context, string) ([]string, error) {
	return nil, errStoreDown
}
