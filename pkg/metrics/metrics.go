// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Explanation outcomes.
const (
	OutcomeGenerated = "generated"
	OutcomeFallback  = "fallback"
	OutcomeUnparsed  = "unparsed"
)

// Persistence steps that may fail without failing the request.
const (
	StepCreateChat = "create_chat"
	StepSaveTurn   = "save_turn"
	StepPublish    = "publish_turn"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// ExplanationDuration tracks time spent producing an explanation.
	ExplanationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "explanation_duration_seconds",
			Help:    "Explanation generation duration",
			Buckets: []float64{.1, .5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"backend", "outcome"},
	)

	// ExplanationsTotal counts explanations by backend and outcome.
	ExplanationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "explanations_total",
			Help: "Total explanations produced",
		},
		[]string{"backend", "outcome"},
	)

	// OCRDuration tracks OCR engine latency.
	OCRDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ocr_duration_seconds",
			Help:    "OCR extraction duration",
			Buckets: []float64{.1, .25, .5, 1, 2, 5, 10, 30},
		},
	)

	// ChatsTotal tracks chats created, by origin.
	ChatsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chats_total",
			Help: "Total chats created",
		},
		[]string{"origin"},
	)

	// MessagesTotal tracks persisted messages.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_total",
			Help: "Total messages persisted",
		},
		[]string{"sender"},
	)

	// PersistenceFailuresTotal counts swallowed persistence failures.
	PersistenceFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "persistence_failures_total",
			Help: "Persistence failures absorbed by the pipelines",
		},
		[]string{"step"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordExplanation records one explanation attempt.
func RecordExplanation(backend, outcome string, duration float64) {
	ExplanationDuration.WithLabelValues(backend, outcome).Observe(duration)
	ExplanationsTotal.WithLabelValues(backend, outcome).Inc()
}

// RecordPersistenceFailure records a failure that was logged and swallowed.
func RecordPersistenceFailure(step string) {
	PersistenceFailuresTotal.WithLabelValues(step).Inc()
}
