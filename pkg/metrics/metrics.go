// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
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

	// EngineCallDuration tracks completion engine call duration.
	EngineCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "completion_engine_call_duration_seconds",
			Help:    "Completion engine call duration",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"provider", "flow", "status"},
	)

	// EngineTokensTotal tracks tokens reported by the completion engine.
	EngineTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "completion_engine_tokens_total",
			Help: "Total completion engine tokens processed",
		},
		[]string{"provider", "direction"},
	)

	// InterpretOutcomes counts how engine output was interpreted.
	InterpretOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interpret_outcomes_total",
			Help: "Completion engine outputs by interpretation outcome",
		},
		[]string{"outcome"},
	)

	// DecisionsTotal counts decisions returned to clients.
	DecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_conversation_decisions_total",
			Help: "Event conversation decisions by kind",
		},
		[]string{"kind"},
	)

	// AnalyzerDuration tracks banner analysis duration.
	AnalyzerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analyzer_duration_seconds",
			Help:    "Banner analyzer call duration",
			Buckets: []float64{.1, .25, .5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"backend", "status"},
	)

	// AnalyzerCacheLookups counts analyzer cache hits and misses.
	AnalyzerCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyzer_cache_lookups_total",
			Help: "Analyzer result cache lookups",
		},
		[]string{"result"},
	)

	// DraftsPublished counts event drafts published to NATS.
	DraftsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_drafts_published_total",
			Help: "Event drafts published to the draft stream",
		},
		[]string{"status"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordEngineCall records metrics for a completion engine call.
func RecordEngineCall(provider, flow, status string, duration float64, tokensIn, tokensOut int) {
	EngineCallDuration.WithLabelValues(provider, flow, status).Observe(duration)
	if tokensIn > 0 {
		EngineTokensTotal.WithLabelValues(provider, "in").Add(float64(tokensIn))
	}
	if tokensOut > 0 {
		EngineTokensTotal.WithLabelValues(provider, "out").Add(float64(tokensOut))
	}
}

// RecordAnalyzer records metrics for an analyzer call.
func RecordAnalyzer(backend, status string, duration float64) {
	AnalyzerDuration.WithLabelValues(backend, status).Observe(duration)
}
