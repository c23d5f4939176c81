package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"cinepick/internal/metrics"
)

func TestRecordTMDBRequestIncrementsCounter(t *testing.T) {
	before := testutil.ToFloat64(metrics.TMDBRequestsTotal.WithLabelValues("search_movie", "ok"))
	metrics.RecordTMDBRequest("search_movie", "ok", 150*time.Millisecond)
	after := testutil.ToFloat64(metrics.TMDBRequestsTotal.WithLabelValues("search_movie", "ok"))
	if after != before+1 {
		t.Fatalf("expected counter to increase by 1, got %v -> %v", before, after)
	}
}

func TestCacheGaugesAndEvents(t *testing.T) {
	metrics.SetCacheEntries(42)
	if got := testutil.ToFloat64(metrics.DetailCacheEntries); got != 42 {
		t.Fatalf("expected 42 entries, got %v", got)
	}
	before := testutil.ToFloat64(metrics.DetailCacheEventsTotal.WithLabelValues(metrics.CacheEvict))
	metrics.RecordCacheEvent(metrics.CacheEvict)
	if got := testutil.ToFloat64(metrics.DetailCacheEventsTotal.WithLabelValues(metrics.CacheEvict)); got != before+1 {
		t.Fatalf("expected eviction counter to increase, got %v", got)
	}
}

func TestRecordHTTPRequestLabelsStatus(t *testing.T) {
	counter := metrics.HTTPRequestsTotal.WithLabelValues("/v1/conversations/{id}", "GET", "404")
	before := testutil.ToFloat64(counter)
	metrics.RecordHTTPRequest("/v1/conversations/{id}", "GET", 404, 5*time.Millisecond)
	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Fatalf("expected request counter to increase, got %v -> %v", before, got)
	}
}
