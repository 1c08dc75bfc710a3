// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Login attempt outcomes.
const (
	LoginSuccess   = "success"
	LoginFailure   = "failure"
	LoginThrottled = "throttled"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Credential metrics
	IncLoginAttempt(result string) // result: "success", "failure", "throttled"
	IncPasswordChanged()

	// Relationship graph metrics
	IncFollowCreated()
	IncFollowRemoved()
	IncFollowCacheHit()
	IncFollowCacheMiss()

	// Feed metrics
	ObserveFeedDuration(duration time.Duration)
	ObserveFeedSize(size int)

	// Content metrics
	IncPostCreated()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
