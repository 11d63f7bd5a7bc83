// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package authz

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthzDecisionsTotal counts decisions by role, request path and outcome.
	AuthzDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_decisions_total",
			Help: "Total number of authorization decisions",
		},
		[]string{"role", "path", "action", "decision"},
	)

	// AuthzDecisionDuration tracks decision latency.
	AuthzDecisionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "authz_decision_duration_seconds",
			Help:    "Duration of authorization decisions in seconds",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
		[]string{"cache_hit"},
	)

	AuthzCacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "authz_cache_hits_total",
			Help: "Total number of authorization cache hits",
		},
	)

	AuthzCacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "authz_cache_misses_total",
			Help: "Total number of authorization cache misses",
		},
	)

	AuthzCacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "authz_cache_entries",
			Help: "Current number of entries in the authorization cache",
		},
	)

	AuthzCacheEvictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "authz_cache_evictions_total",
			Help: "Total number of authorization cache evictions (TTL expiry)",
		},
	)

	AuthzCacheInvalidationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "authz_cache_invalidations_total",
			Help: "Total number of authorization cache invalidations after role changes",
		},
	)

	// AuthzRoleAssignmentsTotal counts role assignments.
	AuthzRoleAssignmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_role_assignments_total",
			Help: "Total number of role assignments",
		},
		[]string{"role"},
	)

	// AuthzErrorsTotal counts enforcement errors, not denials.
	AuthzErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_errors_total",
			Help: "Total number of authorization errors",
		},
		[]string{"error_type"},
	)
)

// RecordAuthzDecision records one decision and whether it came from the cache.
func RecordAuthzDecision(role, path, action string, allowed bool, duration time.Duration, cacheHit bool) {
	decision := "denied"
	if allowed {
		decision = "allowed"
	}
	AuthzDecisionsTotal.WithLabelValues(role, path, action, decision).Inc()

	cacheHitLabel := "false"
	if cacheHit {
		cacheHitLabel = "true"
		AuthzCacheHitsTotal.Inc()
	} else {
		AuthzCacheMissesTotal.Inc()
	}
	AuthzDecisionDuration.WithLabelValues(cacheHitLabel).Observe(duration.Seconds())
}

// RecordRoleAssignment records a role assignment.
func RecordRoleAssignment(role string) {
	AuthzRoleAssignmentsTotal.WithLabelValues(role).Inc()
}

// RecordAuthzError records an enforcement error.
func RecordAuthzError(errorType string) {
	AuthzErrorsTotal.WithLabelValues(errorType).Inc()
}
