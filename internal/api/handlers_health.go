// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package api

import (
	"context"
	"net/http"
	"time"
)

// readyTimeout bounds the store ping of the readiness probe.
const readyTimeout = 2 * time.Second

// HealthLive reports that the process is serving HTTP.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady returns 200 only when the document store answers a ping.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()
	storeConnected := h.store != nil && h.store.Ping(ctx) == nil

	data := map[string]interface{}{
		"store_connected": storeConnected,
		"ready_to_serve":  storeConnected,
		"uptime":          time.Since(h.startTime).Seconds(),
	}
	if !storeConnected {
		rw.Write(http.StatusServiceUnavailable, APIResponse{
			Data:  data,
			Error: &APIError{Code: ErrCodeUnavailable, Message: "Document store is not reachable"},
		})
		return
	}
	rw.Success(data)
}
