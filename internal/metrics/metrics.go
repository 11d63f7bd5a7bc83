// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for:
// - API endpoint latency and throughput
// - Sync engine actions and sync firings
// - Request/response bridging
// - Action log delivery
// - External services (Gemini, YouTube) and their circuit breakers

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Sync Engine Metrics
	EngineActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_actions_total",
			Help: "Total number of concept actions executed by the sync engine",
		},
		[]string{"action", "outcome"}, // outcome: "success", "error", "internal_error"
	)

	EngineActionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "engine_action_duration_seconds",
			Help:    "Concept action duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"action"},
	)

	EngineSyncFirings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_sync_firings_total",
			Help: "Total number of times a sync fired its then clause",
		},
		[]string{"sync"},
	)

	EngineSyncErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_sync_errors_total",
			Help: "Total number of sync evaluations that failed",
		},
		[]string{"sync", "stage"}, // stage: "where", "then"
	)

	EngineActiveFlows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "engine_active_flows",
			Help: "Current number of flows being driven by the engine",
		},
	)

	// Request Bridge Metrics
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "requesting_requests_total",
			Help: "Total number of bridged requests by outcome",
		},
		[]string{"path", "outcome"}, // outcome: "responded", "timeout", "error"
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "requesting_request_duration_seconds",
			Help:    "Time from request to response in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"path"},
	)

	// Action Log Metrics
	ActionLogPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "action_log_published_total",
			Help: "Total number of action records published to the event bus",
		},
		[]string{"result"},
	)

	ActionLogPersisted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "action_log_persisted_total",
			Help: "Total number of action records persisted by the consumer",
		},
		[]string{"result"},
	)

	// Session Metrics
	SessionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_created_total",
			Help: "Total number of sessions created",
		},
	)

	SessionsPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_purged_total",
			Help: "Total number of expired sessions removed",
		},
	)

	// External Service Metrics
	ExternalCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "external_call_duration_seconds",
			Help:    "Duration of calls to external services in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"service", "outcome"},
	)

	RecommendationsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendations_generated_total",
			Help: "Total number of recommendations stored, by type",
		},
		[]string{"rec_type"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Application Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordAction records one concept action execution.
func RecordAction(action, outcome string, duration time.Duration) {
	EngineActionsTotal.WithLabelValues(action, outcome).Inc()
	EngineActionDuration.WithLabelValues(action).Observe(duration.Seconds())
}

// RecordSyncFiring records a sync firing its then clause.
func RecordSyncFiring(sync string) {
	EngineSyncFirings.WithLabelValues(sync).Inc()
}

// RecordSyncError records a failed where or then evaluation.
func RecordSyncError(sync, stage string) {
	EngineSyncErrors.WithLabelValues(sync, stage).Inc()
}

// RecordRequest records the outcome of a bridged request.
func RecordRequest(path, outcome string, duration time.Duration) {
	RequestsTotal.WithLabelValues(path, outcome).Inc()
	RequestDuration.WithLabelValues(path).Observe(duration.Seconds())
}

// RecordExternalCall records a call to Gemini, YouTube or another upstream.
func RecordExternalCall(service string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	ExternalCallDuration.WithLabelValues(service, outcome).Observe(duration.Seconds())
}

// resultLabel maps an error to the "success"/"error" label pair.
func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordActionLogPublish records an attempt to publish an action record.
func RecordActionLogPublish(err error) {
	ActionLogPublished.WithLabelValues(resultLabel(err)).Inc()
}

// RecordActionLogPersist records an attempt to persist an action record.
func RecordActionLogPersist(err error) {
	ActionLogPersisted.WithLabelValues(resultLabel(err)).Inc()
}
