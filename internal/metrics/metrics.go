// Package metrics provides Prometheus metrics for the admin console.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "trackadmin"
)

// Remote client metrics
var (
	// ClientRequestsTotal counts backend calls by operation and outcome kind.
	ClientRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Total number of backend requests by operation and outcome",
		},
		[]string{"op", "outcome"},
	)

	// ClientRequestDuration tracks backend call latency.
	ClientRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Backend request latency in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"op"},
	)

	// ClientRequestsInFlight tracks concurrent backend calls.
	ClientRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "requests_in_flight",
			Help:      "Number of backend requests awaiting a response",
		},
	)

	// DocumentUploadsTotal counts attachment uploads by result.
	DocumentUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "document_uploads_total",
			Help:      "Total attachment uploads by result",
		},
		[]string{"result"},
	)
)

// Session metrics
var (
	// SessionInvalidationsTotal counts session teardowns by cause.
	SessionInvalidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "invalidations_total",
			Help:      "Total session invalidation signals by cause",
		},
		[]string{"cause"},
	)
)

// Console metrics
var (
	// ListLoadsTotal counts collection fetches per entity and result.
	ListLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "console",
			Name:      "list_loads_total",
			Help:      "Total list loads by entity and result",
		},
		[]string{"entity", "result"},
	)

	// SubmissionsTotal counts modal submissions per entity, flow and result.
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "console",
			Name:      "submissions_total",
			Help:      "Total modal submissions by entity, flow and result",
		},
		[]string{"entity", "flow", "result"},
	)

	// NotificationsTotal counts notifications by level.
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "console",
			Name:      "notifications_total",
			Help:      "Total user notifications by level",
		},
		[]string{"level"},
	)

	// NotificationsDroppedTotal counts notifications dropped by rate limiting.
	NotificationsDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "console",
			Name:      "notifications_dropped_total",
			Help:      "Total notifications dropped due to rate limiting",
		},
	)
)

// Fake backend metrics
var (
	// HTTPRequestsTotal counts fake backend requests by method, route, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fakeapi",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests served by the fake backend",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration tracks fake backend latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fakeapi",
			Name:      "request_duration_seconds",
			Help:      "Fake backend request latency in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "route"},
	)
)
