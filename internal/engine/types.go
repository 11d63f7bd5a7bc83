// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package engine

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Var is a logical variable in a pattern or template. It binds to the value
// found at its position the first time it is matched, and must equal that
// value everywhere else in the same sync.
type Var string

// Args is the input or output of an action or query row.
type Args map[string]any

// P is a pattern or template. Values are either a Var or a literal.
type P map[string]any

// Frame is one consistent set of variable bindings.
type Frame map[Var]any

// Frames is the set of bindings flowing through a sync's where clause.
type Frames []Frame

// ActionRef names a concept action, such as Playlist.createPlaylist.
type ActionRef struct {
	Concept string
	Action  string
}

// Ref builds an ActionRef.
func Ref(concept, action string) ActionRef {
	return ActionRef{Concept: concept, Action: action}
}

// String returns "Concept.action".
func (r ActionRef) String() string {
	return r.Concept + "." + r.Action
}

// MarshalText encodes the ref as "Concept.action".
func (r ActionRef) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText decodes "Concept.action".
func (r *ActionRef) UnmarshalText(text []byte) error {
	concept, action, ok := strings.Cut(string(text), ".")
	if !ok || concept == "" || action == "" {
		return fmt.Errorf("invalid action reference %q", text)
	}
	r.Concept, r.Action = concept, action
	return nil
}

// ActionFunc executes a concept action. A returned *ActionError becomes the
// output {"error": message}; any other error is logged and reported to the
// caller as an internal error.
type ActionFunc func(ctx context.Context, input Args) (Args, error)

// QueryFunc reads concept state. Queries never change state and are called
// from where clauses, not through the engine.
type QueryFunc func(ctx context.Context, input Args) ([]Args, error)

// Pattern matches one completed action.
type Pattern struct {
	Action ActionRef
	Input  P
	Output P
}

// On builds a Pattern.
func On(action ActionRef, input, output P) Pattern {
	return Pattern{Action: action, Input: input, Output: output}
}

// Invocation is an action to fire with a template input.
type Invocation struct {
	Action ActionRef
	Input  P
}

// Do builds an Invocation.
func Do(action ActionRef, input P) Invocation {
	return Invocation{Action: action, Input: input}
}

// WhereFunc filters or enriches the frames of a sync.
type WhereFunc func(ctx context.Context, frames Frames) (Frames, error)

// Sync is a declarative rule: when every pattern in When has matched a
// completed action in the same flow, Where refines the bindings, and each
// Invocation in Then fires once per resulting frame.
type Sync struct {
	Name  string
	When  []Pattern
	Where WhereFunc
	Then  []Invocation
}

// Record is one completed action.
type Record struct {
	ID     string    `json:"id"`
	Flow   string    `json:"flow"`
	Seq    uint64    `json:"seq"`
	Action ActionRef `json:"action"`
	Input  Args      `json:"input"`
	Output Args      `json:"output"`

	// Sync is the sync that fired the action, empty for the flow's first action.
	Sync     string        `json:"sync,omitempty"`
	Time     time.Time     `json:"time"`
	Duration time.Duration `json:"duration_ns"`
}

// IsError reports whether the action returned an error output.
func (r *Record) IsError() bool {
	_, ok := r.Output["error"]
	return ok
}

// Redacted returns a copy of the record with password fields masked, for
// writing to the action log.
func (r *Record) Redacted() Record {
	out := *r
	out.Input = RedactArgs(r.Input)
	out.Output = RedactArgs(r.Output)
	return out
}

var sensitiveKeys = map[string]struct{}{
	"password":     {},
	"passwordHash": {},
}

// RedactArgs returns a copy of a with password fields masked.
func RedactArgs(a Args) Args {
	if a == nil {
		return nil
	}
	out := make(Args, len(a))
	for k, v := range a {
		if _, ok := sensitiveKeys[k]; ok {
			out[k] = "[REDACTED]"
			continue
		}
		out[k] = v
	}
	return out
}

// Sink receives every completed action record.
type Sink interface {
	Publish(ctx context.Context, rec Record) error
}
