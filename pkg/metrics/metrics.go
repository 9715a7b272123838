// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for UpstreamRequests.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

var UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sparks_upstream_requests_total",
	Help: "Requests sent to the photo API, by remote method and outcome",
}, []string{"method", "outcome"})

var UpstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "sparks_upstream_duration_seconds",
	Help:    "Latency of photo API requests in seconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5},
}, []string{"method"})

var SearchFallbacks = promauto.NewCounter(prometheus.CounterOpts{
	Name: "sparks_search_fallbacks_total",
	Help: "Searches where the preferred source was empty and the global source was queried",
})

var WordFetchFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "sparks_word_fetch_failures_total",
	Help: "Inspiration words degraded to an empty candidate set after a failed fetch",
})

var APIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sparks_http_requests_total",
	Help: "HTTP requests served, by route and status code",
}, []string{"route", "code"})
