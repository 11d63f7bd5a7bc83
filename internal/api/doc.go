// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

/*
Package api exposes the sync engine over HTTP using the Chi router.

Every concept action and query is reachable through one route:

	POST /api/{concept}/{action}

The JSON body plus the path "/{concept}/{action}" become the input of a
Requesting.request action. The syncs registered for that path decide what
happens and eventually respond; the response fields are returned as data.

Responses use one envelope:

	{"success": true,  "data": {...}, "meta": {"request_id": "...", "timestamp": "...", "duration_ms": 3}}
	{"success": false, "error": {"code": "VALIDATION_ERROR", "message": "Playlist with ID 'x' not found."}, "meta": {...}}

Status codes:

  - 200: the syncs responded without an error field
  - 400 VALIDATION_ERROR: the syncs responded with an error, or the path or
    body failed validation
  - 401 UNAUTHORIZED: the session was missing or invalid
  - 403 FORBIDDEN: the user's role may not invoke the path
  - 413 PAYLOAD_TOO_LARGE: the body exceeded the configured limit
  - 429 TOO_MANY_REQUESTS: rate limit exceeded
  - 504 GATEWAY_TIMEOUT: no sync responded in time

Operational endpoints are GET /api/health/live, GET /api/health/ready and
GET /metrics.
*/
package api
