// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"moodflix/internal/util"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodflix_http_requests_total",
			Help: "HTTP requests by route and status code.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moodflix_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// UpstreamRequests counts calls to the catalog and LLM APIs.
	// outcome is one of success, failure, rejected (breaker open).
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodflix_upstream_requests_total",
			Help: "Calls to external APIs by upstream, operation and outcome.",
		},
		[]string{"upstream", "operation", "outcome"},
	)

	// BreakerState is 0 closed, 1 half-open, 2 open.
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "moodflix_circuit_breaker_state",
			Help: "Circuit breaker state per upstream (0 closed, 1 half-open, 2 open).",
		},
		[]string{"name"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodflix_catalog_cache_lookups_total",
			Help: "Catalog cache lookups by kind and result.",
		},
		[]string{"kind", "result"},
	)

	MailJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodflix_mail_jobs_total",
			Help: "Password reset mail jobs by outcome.",
		},
		[]string{"outcome"},
	)

	Recommendations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodflix_recommendations_total",
			Help: "Recommendation requests by source (input or history) and outcome.",
		},
		[]string{"source", "outcome"},
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument records request count and latency. route must be a fixed label
// (the mux pattern), never a raw path, to keep cardinality bounded.
func Instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &util.StatusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.StatusCode())).Inc()
		HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
