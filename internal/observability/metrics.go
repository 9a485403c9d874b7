package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits counts cache hits by named query.
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "folio_cache_hits_total",
		Help: "Total number of cache hits by named query",
	}, []string{"query"})

	// CacheMisses counts cache misses by named query.
	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "folio_cache_misses_total",
		Help: "Total number of cache misses by named query",
	}, []string{"query"})

	// CacheBackendErrors counts Redis errors by command.
	CacheBackendErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "folio_cache_backend_errors_total",
		Help: "Total number of cache backend errors by command",
	}, []string{"operation"})

	// StoreRequestLatency records content store request latency by endpoint.
	StoreRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "folio_store_request_latency_seconds",
		Help:    "Content store request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	// StoreErrors counts failed content store requests by endpoint.
	StoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "folio_store_errors_total",
		Help: "Total number of failed content store requests by endpoint",
	}, []string{"endpoint"})

	// SubscriptionsTotal counts newsletter subscription attempts by outcome.
	SubscriptionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "folio_subscriptions_total",
		Help: "Total newsletter subscription attempts by outcome",
	}, []string{"outcome"})
)

// StoreMetrics records content store request metrics.
type StoreMetrics struct{}

// NewStoreMetrics returns a new StoreMetrics instance.
func NewStoreMetrics() *StoreMetrics {
	return &StoreMetrics{}
}

// TrackRequest returns a function that records request latency when
// called (e.g. defer).
func (m *StoreMetrics) TrackRequest(endpoint string) func() {
	start := time.Now()
	return func() {
		StoreRequestLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}
}

// RecordError increments the store error counter for the endpoint.
func (m *StoreMetrics) RecordError(endpoint string) {
	StoreErrors.WithLabelValues(endpoint).Inc()
}
