package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "micropost"

// PrometheusRecorder exports metric events as Prometheus collectors.
type PrometheusRecorder struct {
	loginAttempts     *prometheus.CounterVec
	passwordsChanged  prometheus.Counter
	followChanges     *prometheus.CounterVec
	followCacheLookup *prometheus.CounterVec
	feedDuration      prometheus.Histogram
	feedSize          prometheus.Histogram
	postsCreated      prometheus.Counter
}

// NewPrometheus registers all collectors with reg and returns a Recorder.
// Pass a fresh prometheus.NewRegistry() in tests to avoid duplicate registration.
func NewPrometheus(reg prometheus.Registerer) *PrometheusRecorder {
	factory := promauto.With(reg)

	return &PrometheusRecorder{
		loginAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "login_attempts_total",
				Help:      "Total number of authentication attempts, by result.",
			},
			[]string{"result"},
		),
		passwordsChanged: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "passwords_changed_total",
			Help:      "Total number of stored credentials replaced.",
		}),
		followChanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "follow_changes_total",
				Help:      "Total number of follow edges created or removed.",
			},
			[]string{"action"},
		),
		followCacheLookup: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "follow_cache_lookups_total",
				Help:      "Follow cache lookups, labelled by result (hit/miss).",
			},
			[]string{"result"},
		),
		feedDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "feed_duration_seconds",
			Help:      "Time to compute a user's feed.",
			Buckets:   prometheus.DefBuckets,
		}),
		feedSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "feed_posts",
			Help:      "Number of posts returned per feed.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		postsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "posts_created_total",
			Help:      "Total number of posts published.",
		}),
	}
}

// IncLoginAttempt counts an authentication attempt.
func (p *PrometheusRecorder) IncLoginAttempt(result string) {
	p.loginAttempts.WithLabelValues(result).Inc()
}

// IncPasswordChanged counts a credential replacement.
func (p *PrometheusRecorder) IncPasswordChanged() {
	p.passwordsChanged.Inc()
}

// IncFollowCreated counts a new follow edge.
func (p *PrometheusRecorder) IncFollowCreated() {
	p.followChanges.WithLabelValues("created").Inc()
}

// IncFollowRemoved counts a removed follow edge.
func (p *PrometheusRecorder) IncFollowRemoved() {
	p.followChanges.WithLabelValues("removed").Inc()
}

// IncFollowCacheHit counts a follow cache hit.
func (p *PrometheusRecorder) IncFollowCacheHit() {
	p.followCacheLookup.WithLabelValues("hit").Inc()
}

// IncFollowCacheMiss counts a follow cache miss.
func (p *PrometheusRecorder) IncFollowCacheMiss() {
	p.followCacheLookup.WithLabelValues("miss").Inc()
}

// ObserveFeedDuration records feed computation time.
func (p *PrometheusRecorder) ObserveFeedDuration(duration time.Duration) {
	p.feedDuration.Observe(duration.Seconds())
}

// ObserveFeedSize records the number of posts in a feed.
func (p *PrometheusRecorder) ObserveFeedSize(size int) {
	p.feedSize.Observe(float64(size))
}

// IncPostCreated counts a published post.
func (p *PrometheusRecorder) IncPostCreated() {
	p.postsCreated.Inc()
}
