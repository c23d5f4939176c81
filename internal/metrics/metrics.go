// Package metrics exposes Prometheus instruments for the catalog gateway, the
// detail cache, the recommendation pipeline, and conversation sessions.
//
// Metrics Categories:
//   - Catalog: request counts by endpoint and outcome, latency histograms, breaker state
//   - Detail cache: hits, misses, evictions, current size
//   - Pipeline: recommendation runs by strategy and outcome
//   - Sessions: offers, accepts, rejects, ratings, live session count
//   - Memory: query and write outcomes
//   - HTTP API: requests by route and status
//   - Agent tools: calls by tool and outcome
//
// Usage:
//
//	metrics.RecordTMDBRequest("search_movie", "ok", 120*time.Millisecond)
//	metrics.RecordCacheEvent(metrics.CacheHit)
//	metrics.RecordSessionEvent("offer")
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache event labels.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheEvict = "evict"
)

var (
	// TMDBRequestsTotal counts catalog requests by endpoint and outcome.
	TMDBRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinepick_tmdb_requests_total",
			Help: "Total number of TMDB API requests",
		},
		[]string{"endpoint", "outcome"},
	)

	// TMDBRequestDuration tracks catalog request latency.
	TMDBRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cinepick_tmdb_request_duration_seconds",
			Help:    "Duration of TMDB API requests in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 0.8, 1, 2, 3, 5},
		},
		[]string{"endpoint"},
	)

	// TMDBBreakerState reports the breaker state (0 closed, 1 half-open, 2 open).
	TMDBBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cinepick_tmdb_breaker_state",
			Help: "TMDB circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
	)

	// DetailCacheEventsTotal counts detail cache hits, misses, and evictions.
	DetailCacheEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinepick_detail_cache_events_total",
			Help: "Total number of detail cache events",
		},
		[]string{"event"},
	)

	// DetailCacheEntries reports the current number of cached detail records.
	DetailCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cinepick_detail_cache_entries",
			Help: "Number of movie detail records currently cached",
		},
	)

	// RecommendationsTotal counts pipeline runs by strategy and outcome.
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinepick_recommendations_total",
			Help: "Total number of recommendation pipeline runs",
		},
		[]string{"strategy", "outcome"},
	)

	// RecommendationDuration tracks end-to-end pipeline latency.
	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cinepick_recommendation_duration_seconds",
			Help:    "Duration of recommendation pipeline runs in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// SessionEventsTotal counts state machine transitions.
	SessionEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinepick_session_events_total",
			Help: "Total number of session events",
		},
		[]string{"event"},
	)

	// ActiveSessions reports live conversation sessions.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cinepick_active_sessions",
			Help: "Number of conversation sessions held in memory",
		},
	)

	// MemoryRequestsTotal counts memory store calls by operation and outcome.
	MemoryRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinepick_memory_requests_total",
			Help: "Total number of memory store requests",
		},
		[]string{"operation", "outcome"},
	)

	// HTTPRequestsTotal counts API requests by route pattern and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinepick_http_requests_total",
			Help: "Total number of HTTP API requests",
		},
		[]string{"route", "method", "status"},
	)

	// HTTPRequestDuration tracks API request latency by route pattern.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cinepick_http_request_duration_seconds",
			Help:    "Duration of HTTP API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	// AgentToolCallsTotal counts agent tool invocations by tool and outcome.
	AgentToolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinepick_agent_tool_calls_total",
			Help: "Total number of agent tool calls",
		},
		[]string{"tool", "outcome"},
	)
)

// RecordTMDBRequest records one catalog request.
func RecordTMDBRequest(endpoint, outcome string, duration time.Duration) {
	TMDBRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	TMDBRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// SetBreakerState records the breaker state as a number.
func SetBreakerState(state float64) {
	TMDBBreakerState.Set(state)
}

// RecordCacheEvent records a detail cache hit, miss, or eviction.
func RecordCacheEvent(event string) {
	DetailCacheEventsTotal.WithLabelValues(event).Inc()
}

// SetCacheEntries records the detail cache size.
func SetCacheEntries(n int) {
	DetailCacheEntries.Set(float64(n))
}

// RecordRecommendation records one pipeline run.
func RecordRecommendation(strategy, outcome string, duration time.Duration) {
	RecommendationsTotal.WithLabelValues(strategy, outcome).Inc()
	RecommendationDuration.Observe(duration.Seconds())
}

// RecordSessionEvent records one session transition.
func RecordSessionEvent(event string) {
	SessionEventsTotal.WithLabelValues(event).Inc()
}

// SetActiveSessions records the live session count.
func SetActiveSessions(n int) {
	ActiveSessions.Set(float64(n))
}

// RecordMemoryRequest records one memory store call.
func RecordMemoryRequest(operation, outcome string) {
	MemoryRequestsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordHTTPRequest records one API request.
func RecordHTTPRequest(route, method string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordToolCall records one agent tool invocation.
func RecordToolCall(tool, outcome string) {
	AgentToolCallsTotal.WithLabelValues(tool, outcome).Inc()
}
