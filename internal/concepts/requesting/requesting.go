// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

// Package requesting implements the Requesting concept, the bridge between
// HTTP requests and the sync engine.
//
// Request records a pending request and starts a flow with the request
// action. Syncs matching the request's path drive concept actions and
// eventually fire respond, which hands the response back to the waiting
// caller. The flow itself keeps running on a detached context after the
// response is delivered, bounded by the same timeout.
package requesting

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/songpassport/internal/docstore"
	"github.com/tomtom215/songpassport/internal/engine"
	"github.com/tomtom215/songpassport/internal/logging"
	"github.com/tomtom215/songpassport/internal/metrics"
)

const requestsCollection = "Requesting.requests"

// DefaultTimeout bounds a request when none is configured.
const DefaultTimeout = 10 * time.Second

// ErrTimeout is returned when no sync responds to a request in time.
var ErrTimeout = errors.New("request timed out")

// ErrNoHandler is returned for a path no sync reacts to.
var ErrNoHandler = errors.New("no handler for path")

// errNotRegistered is returned by Request before RegisterActions is called.
var errNotRegistered = errors.New("requesting: actions not registered with an engine")

// StoredRequest is the stored form of a request.
type StoredRequest struct {
	ID          string      `json:"_id"`
	Path        string      `json:"path"`
	Input       engine.Args `json:"input"`
	Response    engine.Args `json:"response,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	RespondedAt *time.Time  `json:"respondedAt,omitempty"`
}

type requestIDKey struct{}

// Concept tracks pending requests and their responses.
type Concept struct {
	requests docstore.Collection
	timeout  time.Duration
	engine   *engine.Engine

	mu      sync.Mutex
	pending map[string]chan engine.Args
}

// New creates the concept. A non-positive timeout uses DefaultTimeout.
func New(store docstore.Store, timeout time.Duration) *Concept {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Concept{
		requests: store.Collection(requestsCollection),
		timeout:  timeout,
		pending:  make(map[string]chan engine.Args),
	}
}

// Request runs a request through the engine and waits for its response.
// input must contain a string "path"; the other fields are matched by the
// syncs for that path.
func (c *Concept) Request(ctx context.Context, input engine.Args) (engine.Args, error) {
	if c.engine == nil {
		return nil, errNotRegistered
	}
	path, err := input.String("path")
	if err != nil {
		return nil, err
	}
	if !c.engine.Triggers(Request, input) {
		metrics.RecordRequest("unmatched", "no_handler", 0)
		return nil, fmt.Errorf("%w %s", ErrNoHandler, path)
	}

	id := uuid.NewString()
	ch := make(chan engine.Args, 1)
	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	start := time.Now()
	flowCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	flowCtx = context.WithValue(flowCtx, requestIDKey{}, id)

	done := make(chan error, 1)
	go func() {
		defer cancel()
		_, err := c.engine.Invoke(flowCtx, id, Request, input)
		done <- err
	}()

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	for {
		select {
		case resp := <-ch:
			outcome := "responded"
			if _, isErr := resp["error"]; isErr {
				outcome = "error"
			}
			metrics.RecordRequest(path, outcome, time.Since(start))
			return resp, nil

		case err := <-done:
			done = nil
			// respond may have fired as the flow's last action
			select {
			case resp := <-ch:
				ch <- resp
				continue
			default:
			}
			if err != nil {
				logging.Ctx(ctx).Warn().Err(err).Str("path", path).Msg("Request flow ended without a response")
			}
			metrics.RecordRequest(path, "timeout", time.Since(start))
			return nil, fmt.Errorf("%w: no sync responded to %s", ErrTimeout, path)

		case <-timer.C:
			metrics.RecordRequest(path, "timeout", time.Since(start))
			logging.Ctx(ctx).Warn().Str("path", path).Dur("timeout", c.timeout).Msg("Request timed out")
			return nil, ErrTimeout

		case <-ctx.Done():
			metrics.RecordRequest(path, "cancelled", time.Since(start))
			return nil, ctx.Err()
		}
	}
}

// request records a pending request. The id comes from Request when the
// action was started there.
func (c *Concept) request(ctx context.Context, in engine.Args) (engine.Args, error) {
	path, err := in.String("path")
	if err != nil {
		return nil, err
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	if id == "" {
		id = uuid.NewString()
	}

	doc := StoredRequest{
		ID:        id,
		Path:      path,
		Input:     engine.RedactArgs(in),
		CreatedAt: time.Now().UTC(),
	}
	if err := c.requests.Insert(ctx, id, &doc); err != nil {
		return nil, fmt.Errorf("failed to record request: %w", err)
	}
	return engine.Args{"request": id}, nil
}

// respond stores the response and delivers it to the waiting caller. Only
// the first response for a request is delivered.
func (c *Concept) respond(ctx context.Context, in engine.Args) (engine.Args, error) {
	id, err := in.String("request")
	if err != nil {
		return nil, err
	}
	resp := make(engine.Args, len(in))
	for k, v := range in {
		if k != "request" {
			resp[k] = v
		}
	}

	var doc StoredRequest
	err = c.requests.Update(ctx, id, &doc, func() error {
		if doc.RespondedAt != nil {
			return engine.Failf("Request '%s' already responded", id)
		}
		now := time.Now().UTC()
		doc.RespondedAt = &now
		doc.Response = engine.RedactArgs(resp)
		return nil
	})
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, engine.Failf("Request '%s' not found", id)
	}
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	ch, waiting := c.pending[id]
	c.mu.Unlock()
	if waiting {
		select {
		case ch <- resp:
		default:
		}
	}
	return engine.Args{"request": id}, nil
}

// Get returns a stored request, or nil.
func (c *Concept) Get(ctx context.Context, id string) (*StoredRequest, error) {
	var doc StoredRequest
	err := c.requests.Get(ctx, id, &doc)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}
