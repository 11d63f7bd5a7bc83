// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/songpassport/internal/logging"
	"github.com/tomtom215/songpassport/internal/metrics"
)

// DefaultMaxActions bounds the number of actions one flow may execute.
const DefaultMaxActions = 256

// Engine executes concept actions and the syncs that react to them.
//
// Each call to Invoke drives one flow to completion on the calling
// goroutine: the invoked action runs, every sync it triggers is evaluated,
// and the actions those syncs fire are run in breadth-first order until
// nothing is left to do. Flow state lives only for the duration of Invoke.
type Engine struct {
	mu      sync.RWMutex
	actions map[ActionRef]ActionFunc
	syncs   map[string]*Sync
	order   []*Sync

	// byTrigger indexes syncs by the action of their last when pattern. A
	// sync can only fire when the newest completion matches that pattern.
	byTrigger map[ActionRef][]*Sync

	sink       Sink
	maxActions int
}

// Option configures an Engine.
type Option func(*Engine)

// WithSink publishes every completed action to s.
func WithSink(s Sink) Option {
	return func(e *Engine) { e.sink = s }
}

// WithMaxActions sets the per-flow action limit.
func WithMaxActions(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxActions = n
		}
	}
}

// New creates an empty engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		actions:    make(map[ActionRef]ActionFunc),
		syncs:      make(map[string]*Sync),
		byTrigger:  make(map[ActionRef][]*Sync),
		maxActions: DefaultMaxActions,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Register adds an action implementation.
func (e *Engine) Register(ref ActionRef, fn ActionFunc) error {
	if ref.Concept == "" || ref.Action == "" {
		return fmt.Errorf("invalid action reference %q", ref.String())
	}
	if fn == nil {
		return fmt.Errorf("action %s: nil function", ref)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.actions[ref]; exists {
		return fmt.Errorf("action %s already registered", ref)
	}
	e.actions[ref] = fn

	logging.Debug().Str("action", ref.String()).Msg("registered action")
	return nil
}

// AddSync registers syncs. Names must be unique.
func (e *Engine) AddSync(syncs ...*Sync) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, s := range syncs {
		if err := checkSync(s); err != nil {
			return err
		}
		if _, exists := e.syncs[s.Name]; exists {
			return fmt.Errorf("sync %s already registered", s.Name)
		}
		e.syncs[s.Name] = s
		e.order = append(e.order, s)
		trigger := s.When[len(s.When)-1].Action
		e.byTrigger[trigger] = append(e.byTrigger[trigger], s)
	}
	return nil
}

func checkSync(s *Sync) error {
	if s == nil {
		return errors.New("nil sync")
	}
	if s.Name == "" {
		return errors.New("sync has no name")
	}
	if len(s.When) == 0 {
		return fmt.Errorf("sync %s: no when patterns", s.Name)
	}
	if len(s.Then) == 0 {
		return fmt.Errorf("sync %s: no then invocations", s.Name)
	}
	return nil
}

// Validate checks that every action named by a sync is registered.
func (e *Engine) Validate() error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var errs []error
	for _, s := range e.order {
		for _, p := range s.When {
			if _, ok := e.actions[p.Action]; !ok {
				errs = append(errs, fmt.Errorf("sync %s: when %w %s", s.Name, ErrUnknownAction, p.Action))
			}
		}
		for _, inv := range s.Then {
			if _, ok := e.actions[inv.Action]; !ok {
				errs = append(errs, fmt.Errorf("sync %s: then %w %s", s.Name, ErrUnknownAction, inv.Action))
			}
		}
	}
	return errors.Join(errs...)
}

// Actions lists the registered actions, sorted.
func (e *Engine) Actions() []ActionRef {
	e.mu.RLock()
	defer e.mu.RUnlock()

	refs := make([]ActionRef, 0, len(e.actions))
	for ref := range e.actions {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].String() < refs[j].String() })
	return refs
}

// Syncs lists the registered sync names in registration order.
func (e *Engine) Syncs() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, len(e.order))
	for i, s := range e.order {
		names[i] = s.Name
	}
	return names
}

// flow is the state of one Invoke call.
type flow struct {
	id       string
	seq      uint64
	records  []*Record
	fired    map[firingKey]struct{}
	queue    []pendingAction
	executed int
}

type pendingAction struct {
	action ActionRef
	input  Args
	sync   string
}

// Invoke runs an action in a new flow and drives every sync it triggers to
// completion. It returns the output of the invoked action. An empty flowID
// gets a generated one.
//
// A cancelled context stops the cascade between actions; actions already
// started receive the same context.
func (e *Engine) Invoke(ctx context.Context, flowID string, ref ActionRef, input Args) (Args, error) {
	fn, ok := e.lookup(ref)
	if !ok {
		return nil, fmt.Errorf("%w %s", ErrUnknownAction, ref)
	}
	if flowID == "" {
		flowID = uuid.NewString()
	}
	ctx = logging.ContextWithFlow(ctx, flowID)

	metrics.EngineActiveFlows.Inc()
	defer metrics.EngineActiveFlows.Dec()

	fl := &flow{id: flowID, fired: make(map[firingKey]struct{})}
	first := e.execute(ctx, fl, ref, fn, input, "")
	e.react(ctx, fl, first)

	for len(fl.queue) > 0 {
		if err := ctx.Err(); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Int("pending", len(fl.queue)).Msg("flow cancelled with pending actions")
			return first.Output, err
		}
		if fl.executed >= e.maxActions {
			logging.Ctx(ctx).Error().Int("limit", e.maxActions).Msg("flow exceeded action limit")
			return first.Output, ErrCascadeLimit
		}

		next := fl.queue[0]
		fl.queue = fl.queue[1:]

		fn, ok := e.lookup(next.action)
		if !ok {
			logging.Ctx(ctx).Error().
				Str("sync", next.sync).
				Str("action", next.action.String()).
				Msg("sync fired unknown action")
			metrics.RecordSyncError(next.sync, "then")
			continue
		}
		rec := e.execute(ctx, fl, next.action, fn, next.input, next.sync)
		e.react(ctx, fl, rec)
	}

	return first.Output, nil
}

func (e *Engine) lookup(ref ActionRef) (ActionFunc, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	fn, ok := e.actions[ref]
	return fn, ok
}

func (e *Engine) triggeredBy(ref ActionRef) []*Sync {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.byTrigger[ref]
}

// Triggers reports whether a completion of ref with the given input would
// match the last when pattern of at least one sync. Output patterns and
// where clauses are not considered.
func (e *Engine) Triggers(ref ActionRef, input Args) bool {
	for _, s := range e.triggeredBy(ref) {
		last := s.When[len(s.When)-1]
		if unify(last.Input, input, Frame{}, true) {
			return true
		}
	}
	return false
}

// execute runs one action and records its completion.
func (e *Engine) execute(ctx context.Context, fl *flow, ref ActionRef, fn ActionFunc, input Args, firedBy string) *Record {
	start := time.Now()
	output, err := callAction(ctx, fn, input.Clone())
	duration := time.Since(start)

	outcome := "success"
	switch {
	case err == nil:
		if output == nil {
			output = Args{}
		}
	default:
		if _, ok := AsActionError(err); ok {
			outcome = "error"
		} else {
			outcome = "internal_error"
			logging.Ctx(ctx).Error().Err(err).Str("action", ref.String()).Msg("action failed")
		}
		output = ErrorOutput(err)
	}
	metrics.RecordAction(ref.String(), outcome, duration)

	fl.seq++
	fl.executed++
	rec := &Record{
		ID:       uuid.NewString(),
		Flow:     fl.id,
		Seq:      fl.seq,
		Action:   ref,
		Input:    input.Clone(),
		Output:   output,
		Sync:     firedBy,
		Time:     start,
		Duration: duration,
	}
	fl.records = append(fl.records, rec)

	logging.Ctx(ctx).Debug().
		Str("action", ref.String()).
		Uint64("seq", rec.Seq).
		Str("sync", firedBy).
		Str("outcome", outcome).
		Dur("duration", duration).
		Msg("action completed")

	if e.sink != nil {
		if err := e.sink.Publish(ctx, *rec); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("action", ref.String()).Msg("failed to publish action record")
		}
	}
	return rec
}

// callAction runs fn, converting a panic into an internal error.
func callAction(ctx context.Context, fn ActionFunc, input Args) (output Args, err error) {
	defer func() {
		if r := recover(); r != nil {
			output = nil
			err = fmt.Errorf("action panicked: %v", r)
		}
	}()
	return fn(ctx, input)
}

// react evaluates every sync the record can trigger and queues their
// invocations.
func (e *Engine) react(ctx context.Context, fl *flow, rec *Record) {
	for _, s := range e.triggeredBy(rec.Action) {
		frames := fl.match(s.When, rec)
		if len(frames) == 0 {
			continue
		}

		if s.Where != nil {
			var err error
			frames, err = s.Where(ctx, frames)
			if err != nil {
				logging.Ctx(ctx).Error().Err(err).Str("sync", s.Name).Msg("sync where clause failed")
				metrics.RecordSyncError(s.Name, "where")
				continue
			}
		}

		for _, frame := range frames {
			key := firingKey{trigger: rec.ID, sync: s.Name, binding: hashFrame(frame)}
			if _, done := fl.fired[key]; done {
				continue
			}
			fl.fired[key] = struct{}{}
			e.fire(ctx, fl, s, frame)
		}
	}
}

func (e *Engine) fire(ctx context.Context, fl *flow, s *Sync, frame Frame) {
	metrics.RecordSyncFiring(s.Name)
	logging.Ctx(ctx).Debug().Str("sync", s.Name).Msg("sync fired")

	for _, inv := range s.Then {
		input, err := substitute(inv.Input, frame)
		if err != nil {
			logging.Ctx(ctx).Error().Err(err).
				Str("sync", s.Name).
				Str("action", inv.Action.String()).
				Msg("skipping invocation")
			metrics.RecordSyncError(s.Name, "then")
			continue
		}
		fl.queue = append(fl.queue, pendingAction{action: inv.Action, input: input, sync: s.Name})
	}
}

// match returns every frame that binds the when patterns to records of this
// flow, with rec matching the last pattern and the other patterns matching
// earlier records in increasing sequence order.
func (fl *flow) match(when []Pattern, rec *Record) Frames {
	last := len(when) - 1
	frame, ok := matchRecord(when[last], rec, Frame{})
	if !ok {
		return nil
	}
	var out Frames
	fl.join(when, last-1, rec.Seq, frame, &out)
	return out
}

func (fl *flow) join(when []Pattern, i int, before uint64, frame Frame, out *Frames) {
	if i < 0 {
		*out = append(*out, frame)
		return
	}
	for _, r := range fl.records {
		if r.Seq >= before {
			break
		}
		if next, ok := matchRecord(when[i], r, frame); ok {
			fl.join(when, i-1, r.Seq, next, out)
		}
	}
}
