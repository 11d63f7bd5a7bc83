// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package engine

// String returns a required string field.
func (a Args) String(key string) (string, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return "", Failf("Missing required field '%s'.", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", Failf("Field '%s' must be a string.", key)
	}
	return s, nil
}

// OptionalString returns a string field, or "" when it is absent or null.
func (a Args) OptionalString(key string) (string, error) {
	if v, ok := a[key]; !ok || v == nil {
		return "", nil
	}
	return a.String(key)
}

// Strings returns a required list of strings. JSON decoded lists arrive as
// []any and are converted element by element.
func (a Args) Strings(key string) ([]string, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return nil, Failf("Missing required field '%s'.", key)
	}
	switch list := v.(type) {
	case []string:
		return append([]string(nil), list...), nil
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, Failf("Field '%s' must be a list of strings.", key)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, Failf("Field '%s' must be a list of strings.", key)
	}
}

// Clone returns a shallow copy.
func (a Args) Clone() Args {
	if a == nil {
		return Args{}
	}
	out := make(Args, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}
