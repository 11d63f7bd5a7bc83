// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	flowKey      contextKey = "flow"
)

// GenerateRequestID creates a new unique request ID.
func GenerateRequestID() string {
	return uuid.New().String()
}

// ContextWithRequestID returns a new context with the given HTTP request ID.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext retrieves the request ID from context, or "".
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithFlow returns a new context carrying a sync engine flow token.
// All actions triggered by one request share the same flow.
func ContextWithFlow(ctx context.Context, flow string) context.Context {
	return context.WithValue(ctx, flowKey, flow)
}

// FlowFromContext retrieves the flow token from context, or "".
func FlowFromContext(ctx context.Context) string {
	if flow, ok := ctx.Value(flowKey).(string); ok {
		return flow
	}
	return ""
}

// Ctx returns the global logger with request_id and flow fields added when
// they are present in ctx.
//
//	logging.Ctx(ctx).Info().Str("path", path).Msg("Request received")
func Ctx(ctx context.Context) *zerolog.Logger {
	logCtx := With()
	if requestID := RequestIDFromContext(ctx); requestID != "" {
		logCtx = logCtx.Str("request_id", requestID)
	}
	if flow := FlowFromContext(ctx); flow != "" {
		logCtx = logCtx.Str("flow", flow)
	}
	logger := logCtx.Logger()
	return &logger
}
