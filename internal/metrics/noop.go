package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncLoginAttempt is a no-op.
func (n *NoopRecorder) IncLoginAttempt(result string) {}

// IncPasswordChanged is a no-op.
func (n *NoopRecorder) IncPasswordChanged() {}

// IncFollowCreated is a no-op.
func (n *NoopRecorder) IncFollowCreated() {}

// IncFollowRemoved is a no-op.
func (n *NoopRecorder) IncFollowRemoved() {}

// IncFollowCacheHit is a no-op.
func (n *NoopRecorder) IncFollowCacheHit() {}

// IncFollowCacheMiss is a no-op.
func (n *NoopRecorder) IncFollowCacheMiss() {}

// ObserveFeedDuration is a no-op.
func (n *NoopRecorder) ObserveFeedDuration(duration time.Duration) {}

// ObserveFeedSize is a no-op.
func (n *NoopRecorder) ObserveFeedSize(size int) {}

// IncPostCreated is a no-op.
func (n *NoopRecorder) IncPostCreated() {}
