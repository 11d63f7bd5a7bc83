// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package engine

import (
	"errors"
	"fmt"
)

// InternalErrorMessage is the error output for failures that are not
// action errors. The underlying error is logged, never returned to clients.
const InternalErrorMessage = "An internal error occurred."

var (
	// ErrUnknownAction is returned when invoking an unregistered action.
	ErrUnknownAction = errors.New("unknown action")

	// ErrCascadeLimit is returned when a flow exceeds the configured number of
	// actions, which indicates syncs that trigger each other without end.
	ErrCascadeLimit = errors.New("flow exceeded action limit")

	// ErrUnboundVar is returned when a template refers to a variable that no
	// pattern or where clause bound.
	ErrUnboundVar = errors.New("unbound variable")
)

// ActionError is an expected, user-facing action failure. Its message is
// returned to the client verbatim.
type ActionError struct {
	Msg string
}

func (e *ActionError) Error() string { return e.Msg }

// Failf creates an ActionError.
func Failf(format string, args ...any) error {
	return &ActionError{Msg: fmt.Sprintf(format, args...)}
}

// AsActionError reports whether err is or wraps an ActionError.
func AsActionError(err error) (*ActionError, bool) {
	var ae *ActionError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// ErrorOutput converts an action error into the error output form.
func ErrorOutput(err error) Args {
	if ae, ok := AsActionError(err); ok {
		return Args{"error": ae.Msg}
	}
	return Args{"error": InternalErrorMessage}
}
