package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	LoginSuccesses      uint64
	LoginFailures       uint64
	LoginThrottled      uint64
	PasswordsChanged    uint64
	FollowsCreated      uint64
	FollowsRemoved      uint64
	FollowCacheHits     uint64
	FollowCacheMisses   uint64
	FeedCount           uint64
	FeedDurationTotalNs int64
	FeedPostsTotal      uint64
	PostsCreated        uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	loginSuccesses      uint64
	loginFailures       uint64
	loginThrottled      uint64
	passwordsChanged    uint64
	followsCreated      uint64
	followsRemoved      uint64
	followCacheHits     uint64
	followCacheMisses   uint64
	feedCount           uint64
	feedDurationTotalNs int64
	feedPostsTotal      uint64
	postsCreated        uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		LoginSuccesses:      atomic.LoadUint64(&m.loginSuccesses),
		LoginFailures:       atomic.LoadUint64(&m.loginFailures),
		LoginThrottled:      atomic.LoadUint64(&m.loginThrottled),
		PasswordsChanged:    atomic.LoadUint64(&m.passwordsChanged),
		FollowsCreated:      atomic.LoadUint64(&m.followsCreated),
		FollowsRemoved:      atomic.LoadUint64(&m.followsRemoved),
		FollowCacheHits:     atomic.LoadUint64(&m.followCacheHits),
		FollowCacheMisses:   atomic.LoadUint64(&m.followCacheMisses),
		FeedCount:           atomic.LoadUint64(&m.feedCount),
		FeedDurationTotalNs: atomic.LoadInt64(&m.feedDurationTotalNs),
		FeedPostsTotal:      atomic.LoadUint64(&m.feedPostsTotal),
		PostsCreated:        atomic.LoadUint64(&m.postsCreated),
	}
}

// IncLoginAttempt increments the counter for the given outcome.
func (m *InMemoryRecorder) IncLoginAttempt(result string) {
	switch result {
	case LoginSuccess:
		atomic.AddUint64(&m.loginSuccesses, 1)
	case LoginThrottled:
		atomic.AddUint64(&m.loginThrottled, 1)
	default:
		atomic.AddUint64(&m.loginFailures, 1)
	}
}

// IncPasswordChanged increments password change counter.
func (m *InMemoryRecorder) IncPasswordChanged() {
	atomic.AddUint64(&m.passwordsChanged, 1)
}

// IncFollowCreated increments follow created counter.
func (m *InMemoryRecorder) IncFollowCreated() {
	atomic.AddUint64(&m.followsCreated, 1)
}

// IncFollowRemoved increments follow removed counter.
func (m *InMemoryRecorder) IncFollowRemoved() {
	atomic.AddUint64(&m.followsRemoved, 1)
}

// IncFollowCacheHit increments follow cache hit counter.
func (m *InMemoryRecorder) IncFollowCacheHit() {
	atomic.AddUint64(&m.followCacheHits, 1)
}

// IncFollowCacheMiss increments follow cache miss counter.
func (m *InMemoryRecorder) IncFollowCacheMiss() {
	atomic.AddUint64(&m.followCacheMisses, 1)
}

// ObserveFeedDuration records feed computation duration.
func (m *InMemoryRecorder) ObserveFeedDuration(duration time.Duration) {
	atomic.AddUint64(&m.feedCount, 1)
	atomic.AddInt64(&m.feedDurationTotalNs, duration.Nanoseconds())
}

// ObserveFeedSize records the number of posts in a feed.
func (m *InMemoryRecorder) ObserveFeedSize(size int) {
	atomic.AddUint64(&m.feedPostsTotal, uint64(size))
}

// IncPostCreated increments post created counter.
func (m *InMemoryRecorder) IncPostCreated() {
	atomic.AddUint64(&m.postsCreated, 1)
}
