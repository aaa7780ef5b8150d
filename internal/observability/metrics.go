package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PostMutations counts post operations by operation and outcome.
	PostMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "huddle_post_mutations_total",
		Help: "Total number of post operations by operation and outcome",
	}, []string{"operation", "outcome"})

	// FlaggedPosts counts successfully created flags.
	FlaggedPosts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "huddle_flagged_posts_total",
		Help: "Total number of posts flagged for moderation",
	})

	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "huddle_redis_errors_total",
		Help: "Total number of Redis errors by operation",
	}, []string{"operation"})

	// Uploads counts processed upload files by outcome.
	Uploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "huddle_uploads_total",
		Help: "Total number of uploaded files by outcome",
	}, []string{"outcome"})

	// StoreLatency records store call latency by operation.
	StoreLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "huddle_store_latency_seconds",
		Help:    "Store call latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)

// TrackStore returns a function that records the store latency of operation
// when called (e.g. defer).
func TrackStore(operation string) func() {
	start := time.Now()
	return func() {
		StoreLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

// RecordMutation increments the post operation counter.
func RecordMutation(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	PostMutations.WithLabelValues(operation, outcome).Inc()
}
