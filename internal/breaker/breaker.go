// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

// Package breaker wraps sony/gobreaker with the service's circuit breaker
// settings and Prometheus metrics. The Gemini and YouTube clients share it.
package breaker

import (
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/songpassport/internal/logging"
	"github.com/tomtom215/songpassport/internal/metrics"
)

// Settings tune a breaker. Zero values use the defaults listed on Defaults.
type Settings struct {
	// MaxRequests is the number of trial requests allowed while half-open.
	MaxRequests uint32
	// Interval resets the failure counts while closed.
	Interval time.Duration
	// Timeout is how long the breaker stays open before going half-open.
	Timeout time.Duration
	// MinRequests and FailureRatio decide when a closed breaker opens.
	MinRequests  uint32
	FailureRatio float64
	// IsSuccessful marks errors that do not count against the breaker,
	// such as an upstream "not found". A nil error is always a success.
	IsSuccessful func(err error) bool
}

// Defaults: 3 half-open requests, 1 minute window, 2 minute open timeout,
// opening at a 60% failure rate over at least 10 requests.
func Defaults() Settings {
	return Settings{
		MaxRequests:  3,
		Interval:     time.Minute,
		Timeout:      2 * time.Minute,
		MinRequests:  10,
		FailureRatio: 0.6,
	}
}

// Breaker protects calls to one upstream service.
type Breaker[T any] struct {
	cb           *gobreaker.CircuitBreaker[T]
	name         string
	isSuccessful func(err error) bool
}

// New creates a breaker named name with the default settings.
func New[T any](name string) *Breaker[T] {
	return NewWithSettings[T](name, Defaults())
}

// NewWithSettings creates a breaker with explicit settings.
func NewWithSettings[T any](name string, s Settings) *Breaker[T] {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)

	isSuccessful := func(err error) bool { return err == nil }
	if s.IsSuccessful != nil {
		isSuccessful = func(err error) bool { return err == nil || s.IsSuccessful(err) }
	}

	cb := gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:         name,
		MaxRequests:  s.MaxRequests,
		Interval:     s.Interval,
		Timeout:      s.Timeout,
		IsSuccessful: isSuccessful,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= s.FailureRatio {
				logging.Warn().Str("breaker", name).Uint32("failures", counts.TotalFailures).Float64("failure_rate", ratio*100).Msg("[CIRCUIT BREAKER] Opening circuit")
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := StateString(from), StateString(to)
			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})
	return &Breaker[T]{cb: cb, name: name, isSuccessful: isSuccessful}
}

// Execute runs fn through the breaker. When the circuit is open fn is not
// called and the returned error satisfies IsRejected.
func (b *Breaker[T]) Execute(fn func() (T, error)) (T, error) {
	result, err := b.cb.Execute(fn)
	if err != nil && !b.isSuccessful(err) {
		if IsRejected(err) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
			logging.Warn().Str("breaker", b.name).Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
			metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(float64(b.cb.Counts().ConsecutiveFailures))
		}
		return result, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(0)
	return result, err
}

// State reports the breaker's current state.
func (b *Breaker[T]) State() gobreaker.State {
	return b.cb.State()
}

func (b *Breaker[T]) Name() string { return b.name }

// IsRejected reports whether err came from an open or saturated breaker
// rather than from the protected call.
func IsRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// StateString names a state for logs and metric labels.
func StateString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
