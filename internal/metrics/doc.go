// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered on the default registry through promauto at
package initialization, so importing the package is enough to expose them.

# Overview

The package provides metrics for:
  - HTTP request latency and throughput
  - Sync engine action executions and sync firings
  - Request/response bridge outcomes, including timeouts
  - Action log publishing and persistence
  - Gemini and YouTube call latency
  - Circuit breaker state transitions

# Metrics Endpoint

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8000/metrics

# Usage

	start := time.Now()
	out, err := run(ctx, input)
	metrics.RecordAction("Playlist.createPlaylist", "success", time.Since(start))

Label values must stay low-cardinality: actions, syncs and paths come from
the fixed set registered at startup, never from user input.
*/
package metrics
