// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/songpassport/internal/authz"
	"github.com/tomtom215/songpassport/internal/concepts/requesting"
	"github.com/tomtom215/songpassport/internal/engine"
	"github.com/tomtom215/songpassport/internal/logging"
	"github.com/tomtom215/songpassport/internal/syncs"
	"github.com/tomtom215/songpassport/internal/validation"
)

// DefaultMaxBodyBytes limits request bodies when no limit is configured.
const DefaultMaxBodyBytes int64 = 1 << 20

// Requester runs a request through the sync engine.
type Requester interface {
	Request(ctx context.Context, input engine.Args) (engine.Args, error)
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the API endpoints.
type Handler struct {
	requests     Requester
	store        Pinger
	maxBodyBytes int64
	startTime    time.Time
}

// NewHandler creates the handler. store is checked by the readiness probe.
func NewHandler(requests Requester, store Pinger, maxBodyBytes int64) *Handler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &Handler{
		requests:     requests,
		store:        store,
		maxBodyBytes: maxBodyBytes,
		startTime:    time.Now(),
	}
}

type invokeRequest struct {
	Concept string      `validate:"required,concept"`
	Action  string      `validate:"required,action"`
	Body    engine.Args `validate:"max=64"`
}

// Invoke handles POST /api/{concept}/{action}.
func (h *Handler) Invoke(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	req := invokeRequest{
		Concept: chi.URLParam(r, "concept"),
		Action:  chi.URLParam(r, "action"),
	}

	body, err := h.readBody(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			rw.Error(http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge,
				fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit), nil)
			return
		}
		rw.Error(http.StatusBadRequest, ErrCodeBadRequest, "Request body must be a JSON object", nil)
		return
	}
	req.Body = body

	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.Error(http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return
	}

	path := "/" + req.Concept + "/" + req.Action
	input := req.Body
	input["path"] = path

	resp, err := h.requests.Request(r.Context(), input)
	if err != nil {
		h.requestFailed(rw, r, path, err)
		return
	}

	if msg, failed := resp["error"]; failed {
		status, code := errorStatus(fmt.Sprint(msg))
		rw.Error(status, code, fmt.Sprint(msg), nil)
		return
	}
	rw.Success(resp)
}

// readBody decodes the JSON object body. An empty body is an empty object.
func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) (engine.Args, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		return nil, err
	}
	body := engine.Args{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return body, nil
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}
	if body == nil {
		body = engine.Args{}
	}
	return body, nil
}

func (h *Handler) requestFailed(rw *ResponseWriter, r *http.Request, path string, err error) {
	switch {
	case errors.Is(err, requesting.ErrNoHandler):
		rw.Error(http.StatusNotFound, ErrCodeNotFound, "No handler for "+path, nil)
	case errors.Is(err, requesting.ErrTimeout):
		rw.Error(http.StatusGatewayTimeout, ErrCodeTimeout, "Request timed out", nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		rw.Error(http.StatusServiceUnavailable, ErrCodeUnavailable, "Request cancelled", nil)
	default:
		logging.Ctx(r.Context()).Error().Err(err).Str("path", path).Msg("Request failed")
		rw.Error(http.StatusInternalServerError, ErrCodeInternal, "Internal server error", nil)
	}
}

// errorStatus maps a sync error message to an HTTP status and error code.
func errorStatus(msg string) (int, string) {
	switch msg {
	case syncs.InvalidSessionMessage:
		return http.StatusUnauthorized, ErrCodeUnauthorized
	case authz.ForbiddenMessage:
		return http.StatusForbidden, ErrCodeForbidden
	case engine.InternalErrorMessage:
		return http.StatusInternalServerError, ErrCodeInternal
	default:
		return http.StatusBadRequest, ErrCodeValidation
	}
}
