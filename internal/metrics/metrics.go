// Package metrics exposes client-side counters for the venue client.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestsTotal counts backend calls by operation and outcome.
	RequestsTotal *prometheus.CounterVec

	// RequestDuration tracks backend call latency.
	RequestDuration *prometheus.HistogramVec

	// HeartbeatsTotal counts heartbeat decisions (sent, skipped_hidden, ...).
	HeartbeatsTotal *prometheus.CounterVec

	// SearchesTotal counts debounced search executions by result.
	SearchesTotal *prometheus.CounterVec

	// SubmissionsTotal counts song request submissions by result.
	SubmissionsTotal *prometheus.CounterVec

	// SessionTransitions counts lifecycle transitions by target state.
	SessionTransitions *prometheus.CounterVec
)

func init() {
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "venue",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Total backend requests issued by the client",
		},
		[]string{"operation", "outcome"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "venue",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Backend request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15},
		},
		[]string{"operation"},
	)

	HeartbeatsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "venue",
			Subsystem: "client",
			Name:      "heartbeats_total",
			Help:      "Heartbeat ticks by decision",
		},
		[]string{"result"},
	)

	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "venue",
			Subsystem: "client",
			Name:      "searches_total",
			Help:      "Debounced catalog searches by result",
		},
		[]string{"result"},
	)

	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "venue",
			Subsystem: "client",
			Name:      "submissions_total",
			Help:      "Song request submissions by result",
		},
		[]string{"result"},
	)

	SessionTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "venue",
			Subsystem: "client",
			Name:      "session_transitions_total",
			Help:      "Session lifecycle transitions by target state",
		},
		[]string{"state"},
	)

	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		HeartbeatsTotal,
		SearchesTotal,
		SubmissionsTotal,
		SessionTransitions,
	)
}

// RecordRequest records one backend call.
func RecordRequest(operation, outcome string, elapsed time.Duration) {
	RequestsTotal.WithLabelValues(operation, outcome).Inc()
	RequestDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// RecordHeartbeat records one heartbeat decision.
func RecordHeartbeat(result string) {
	HeartbeatsTotal.WithLabelValues(result).Inc()
}

// RecordSearch records one search execution.
func RecordSearch(result string) {
	SearchesTotal.WithLabelValues(result).Inc()
}

// RecordSubmission records one submission attempt.
func RecordSubmission(result string) {
	SubmissionsTotal.WithLabelValues(result).Inc()
}

// RecordTransition records a lifecycle transition.
func RecordTransition(state string) {
	SessionTransitions.WithLabelValues(state).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
