// Package metrics provides Prometheus metrics for authentication operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the authentication pipeline.
// A nil *Metrics is a valid no-op instance, so instrumented code never has
// to branch on whether metrics are configured.
type Metrics struct {
	// Authentication metrics
	authRequestsTotal prometheus.Counter
	authFailuresTotal *prometheus.CounterVec
	authDuration      prometheus.Histogram

	// Key cache metrics
	keySetFetchTotal *prometheus.CounterVec
	keySetCacheHits  prometheus.Counter
	keySetCacheMiss  prometheus.Counter
}

// New creates and registers Prometheus metrics on the default registerer.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates and registers Prometheus metrics on the given registerer.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		authRequestsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "auth_requests_total",
			Help: "Total authentication requests",
		}),
		authFailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_failures_total",
			Help: "Total authentication failures",
		}, []string{"reason"}),
		authDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "auth_request_duration_seconds",
			Help:    "Authentication duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		keySetFetchTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_keyset_fetch_total",
			Help: "Total key set fetches from the identity provider",
		}, []string{"result"}),
		keySetCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "auth_keyset_cache_hits_total",
			Help: "Total key set cache hits",
		}),
		keySetCacheMiss: factory.NewCounter(prometheus.CounterOpts{
			Name: "auth_keyset_cache_misses_total",
			Help: "Total key set cache misses",
		}),
	}
}

// RecordAuth records an authentication attempt and its duration.
func (m *Metrics) RecordAuth(durationSeconds float64) {
	if m == nil {
		return
	}
	m.authRequestsTotal.Inc()
	m.authDuration.Observe(durationSeconds)
}

// RecordAuthFailure records a failed authentication with its failure reason.
func (m *Metrics) RecordAuthFailure(reason string) {
	if m == nil {
		return
	}
	m.authFailuresTotal.WithLabelValues(reason).Inc()
}

// KeySetFetch records an outbound key set fetch.
func (m *Metrics) KeySetFetch(ok bool) {
	if m == nil {
		return
	}
	result := "error"
	if ok {
		result = "success"
	}
	m.keySetFetchTotal.WithLabelValues(result).Inc()
}

// KeySetCacheHit records a key set served from cache.
func (m *Metrics) KeySetCacheHit() {
	if m == nil {
		return
	}
	m.keySetCacheHits.Inc()
}

// KeySetCacheMiss records a key set cache miss.
func (m *Metrics) KeySetCacheMiss() {
	if m == nil {
		return
	}
	m.keySetCacheMiss.Inc()
}
