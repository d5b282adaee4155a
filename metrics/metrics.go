// Package metrics exposes Prometheus counters for the route proxy and visitor tracking.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RouteCacheLookups counts route cache lookups by result (hit, miss).
	RouteCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unimap_route_cache_lookups_total",
			Help: "Route cache lookups by result",
		},
		[]string{"result"},
	)

	// RouteUpstreamRequests counts calls to the routing provider by outcome.
	RouteUpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unimap_route_upstream_requests_total",
			Help: "Requests sent to the routing provider by outcome",
		},
		[]string{"outcome"},
	)

	// RouteUpstreamDuration observes routing provider latency.
	RouteUpstreamDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "unimap_route_upstream_duration_seconds",
			Help:    "Routing provider request latency",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	// VisitorsCounted counts daily visitor increments.
	VisitorsCounted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "unimap_visitors_counted_total",
			Help: "Sessions counted toward the daily visitor total",
		},
	)

	// TrackingErrors counts absorbed visit-tracking failures by stage.
	TrackingErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unimap_tracking_errors_total",
			Help: "Visit tracking failures absorbed without failing the request",
		},
		[]string{"stage"},
	)
)

// RecordCacheLookup records a route cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		RouteCacheLookups.WithLabelValues("hit").Inc()
		return
	}
	RouteCacheLookups.WithLabelValues("miss").Inc()
}

// RecordUpstream records one routing provider call.
func RecordUpstream(outcome string, seconds float64) {
	RouteUpstreamRequests.WithLabelValues(outcome).Inc()
	RouteUpstreamDuration.Observe(seconds)
}
