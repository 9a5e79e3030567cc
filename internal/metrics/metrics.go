// Package metrics exposes Prometheus collectors for the HTTP layer and the fill-in flow.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP requests by route template, method and status class
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datalingua_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "datalingua_http_request_duration_seconds",
			Help:    "Time spent serving HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	SessionsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "datalingua_fill_sessions_started_total",
			Help: "Fill-in sessions started",
		},
	)

	SessionsAbandoned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "datalingua_fill_sessions_abandoned_total",
			Help: "Fill-in sessions abandoned",
		},
	)

	ResponsesSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "datalingua_responses_submitted_total",
			Help: "Responses stored",
		},
	)

	// Submissions refused because required visible questions were unanswered
	SubmissionsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "datalingua_submissions_rejected_total",
			Help: "Submissions rejected for missing required answers",
		},
	)

	TelemetryDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "datalingua_telemetry_dropped_total",
			Help: "Session telemetry steps dropped because the queue was full",
		},
	)

	DashboardClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "datalingua_dashboard_clients",
			Help: "Connected dashboard websocket clients",
		},
	)
)

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
