// Package observability exposes the service's Prometheus metrics.
package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"method", "route", "status"},
	)

	storeQueryDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_query_duration_seconds",
			Help:    "Duration of segment store queries in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
		[]string{"op", "outcome"},
	)

	coordCacheEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coordinate_cache_events_total",
			Help: "Coordinate-parse cache events by outcome.",
		},
		[]string{"outcome"},
	)

	coordCacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "coordinate_cache_entries",
			Help: "Current number of entries in the coordinate-parse cache.",
		},
	)

	statusEvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "status_evaluations_total",
			Help: "Sweeping status evaluations by resulting kind.",
		},
		[]string{"kind"},
	)

	alertsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sweep_alerts_published_total",
			Help: "Notification alerts published by outcome.",
		},
		[]string{"outcome"},
	)

	invalidationEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataset_invalidation_events_total",
			Help: "Dataset invalidation events by outcome.",
		},
		[]string{"outcome"},
	)

	buildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_build_info",
			Help: "Build information for the binary.",
		},
		[]string{"version"},
	)
)

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func ObserveStoreQuery(op string, err error, durationSeconds float64) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	storeQueryDurationSeconds.WithLabelValues(op, outcome).Observe(durationSeconds)
}

func IncCoordCacheHit()   { coordCacheEvents.WithLabelValues("hit").Inc() }
func IncCoordCacheMiss()  { coordCacheEvents.WithLabelValues("miss").Inc() }
func IncCoordCacheClear() { coordCacheEvents.WithLabelValues("clear").Inc() }

func SetCoordCacheSize(n int) { coordCacheSize.Set(float64(n)) }

func IncStatusEvaluation(kind string) {
	statusEvaluationsTotal.WithLabelValues(kind).Inc()
}

func IncAlertPublished(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	alertsPublishedTotal.WithLabelValues(outcome).Inc()
}

func IncInvalidation(outcome string) {
	invalidationEventsTotal.WithLabelValues(outcome).Inc()
}

func ExposeBuildInfo(version string) {
	if version == "" {
		version = "dev"
	}
	buildInfo.WithLabelValues(version).Set(1)
}
