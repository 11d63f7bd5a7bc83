// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package engine

import (
	"fmt"
	"reflect"
)

// matchRecord unifies a pattern with a completed action, extending frame.
// It returns the extended copy and true on success; frame is never modified.
func matchRecord(p Pattern, rec *Record, frame Frame) (Frame, bool) {
	if p.Action != rec.Action {
		return nil, false
	}
	// Success patterns never see error outputs, so a sync declares which
	// outcome it handles by naming "error" or not.
	if rec.IsError() {
		if _, wantsError := p.Output["error"]; !wantsError {
			return nil, false
		}
	}
	next := frame.clone()
	if !unify(p.Input, rec.Input, next, true) {
		return nil, false
	}
	if !unify(p.Output, rec.Output, next, false) {
		return nil, false
	}
	return next, true
}

// unify matches pattern entries against values, binding variables in frame.
// With absentBindsNil, a variable whose key is missing binds nil so the
// receiving action can report the missing field; otherwise the key must be
// present.
func unify(pattern P, values Args, frame Frame, absentBindsNil bool) bool {
	for key, want := range pattern {
		got, present := values[key]
		if v, isVar := want.(Var); isVar {
			if !present && !absentBindsNil {
				return false
			}
			if !frame.bind(v, got) {
				return false
			}
			continue
		}
		if !present || !equalValues(want, got) {
			return false
		}
	}
	return true
}

// bind assigns value to v, or checks it against an existing binding.
func (f Frame) bind(v Var, value any) bool {
	if existing, ok := f[v]; ok {
		return equalValues(existing, value)
	}
	f[v] = value
	return true
}

func (f Frame) clone() Frame {
	out := make(Frame, len(f)+4)
	for k, v := range f {
		out[k] = v
	}
	return out
}

// substitute fills a template from frame.
func substitute(template P, frame Frame) (Args, error) {
	out := make(Args, len(template))
	for key, value := range template {
		v, isVar := value.(Var)
		if !isVar {
			out[key] = value
			continue
		}
		bound, ok := frame[v]
		if !ok {
			return nil, fmt.Errorf("%w %q for field %q", ErrUnboundVar, v, key)
		}
		out[key] = bound
	}
	return out, nil
}

// equalValues compares two values, treating numbers of different Go types
// as equal when their values are, since decoded JSON numbers are float64.
func equalValues(a, b any) bool {
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return af == bf
		}
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
