// Package metrics exposes the Prometheus collectors of the preference service.
//
// Collectors are registered on the default registry and served at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PreferenceSaves counts save calls by outcome code ("ok" on success).
	PreferenceSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripprefs_preference_saves_total",
			Help: "Total number of preference save calls by result",
		},
		[]string{"result"},
	)

	// PreferenceSaveDuration observes the full replace-flag-rebuild transaction.
	PreferenceSaveDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tripprefs_preference_save_duration_seconds",
			Help:    "Duration of preference save transactions in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// ProfileDroppedReferences counts selected ids that did not resolve to an active catalog item.
	ProfileDroppedReferences = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tripprefs_profile_dropped_references_total",
			Help: "Selected preference ids dropped while building profiles",
		},
	)

	// OnboardingChecks counts onboarding checks by resolved state.
	OnboardingChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripprefs_onboarding_checks_total",
			Help: "Total number of onboarding checks by state",
		},
		[]string{"state"},
	)

	// HTTPRequestDuration observes API latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tripprefs_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		},
		[]string{"method", "route", "status"},
	)
)

// RecordHTTPRequest records one served HTTP request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}
