package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FeedCacheRequests counts feed page cache lookups by cache name and result (hit, miss, error).
	FeedCacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_feed_cache_requests_total",
		Help: "Feed page cache lookups by result",
	}, []string{"cache", "result"})

	// FeedCacheClears counts explicit clear-all operations on a feed cache.
	FeedCacheClears = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_feed_cache_clears_total",
		Help: "Explicit feed page cache clears",
	}, []string{"cache"})

	// FollowOutcomes counts follow requests by outcome (created, duplicate, self).
	FollowOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_follow_outcomes_total",
		Help: "Follow requests by outcome",
	}, []string{"outcome"})

	// ContentWrites counts successful writes by entity and operation.
	ContentWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_content_writes_total",
		Help: "Successful content writes by entity and operation",
	}, []string{"entity", "operation"})

	// DatabaseQueryLatency records repository query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "yatube_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// RecordCacheLookup increments the lookup counter for the named cache.
func RecordCacheLookup(cache, result string) {
	FeedCacheRequests.WithLabelValues(cache, result).Inc()
}

// RecordWrite increments the write counter for an entity.
func RecordWrite(entity, operation string) {
	ContentWrites.WithLabelValues(entity, operation).Inc()
}
