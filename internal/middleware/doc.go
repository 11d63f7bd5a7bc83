// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

/*
Package middleware provides HTTP middleware for the API server.

All middleware has the chi signature func(http.Handler) http.Handler and is
installed with r.Use:

	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(time.Second))
	r.Use(middleware.PrometheusMetrics)

Components:

  - RequestID: reuses or generates X-Request-ID and stores it in the
    logging context so every log line of the request carries request_id
  - AccessLog: one zerolog line per request, raised to warn level when the
    request is slower than the threshold
  - PrometheusMetrics: api_requests_total and api_request_duration_seconds,
    labelled with the chi route pattern rather than the raw path
*/
package middleware
