// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package engine

import (
	"context"
	"fmt"
)

// Query calls q once per frame with input filled from the frame, and returns
// one frame per result row with the output pattern's variables bound. Frames
// whose query returns no matching rows drop out.
//
//	frames, err = frames.Query(ctx, sessions.GetUser, P{"session": session}, P{"user": user})
func (fs Frames) Query(ctx context.Context, q QueryFunc, input, output P) (Frames, error) {
	out := make(Frames, 0, len(fs))
	for _, frame := range fs {
		rows, err := runQuery(ctx, q, input, frame)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			next := frame.clone()
			if unify(output, row, next, false) {
				out = append(out, next)
			}
		}
	}
	return out, nil
}

// QueryAll calls q once per frame and binds the full result list, possibly
// empty, to as. Unlike Query it never drops a frame.
func (fs Frames) QueryAll(ctx context.Context, q QueryFunc, input P, as Var) (Frames, error) {
	out := make(Frames, 0, len(fs))
	for _, frame := range fs {
		rows, err := runQuery(ctx, q, input, frame)
		if err != nil {
			return nil, err
		}
		if rows == nil {
			rows = []Args{}
		}
		next := frame.clone()
		next[as] = rows
		out = append(out, next)
	}
	return out, nil
}

// Absent keeps the frames for which q returns no rows.
func (fs Frames) Absent(ctx context.Context, q QueryFunc, input P) (Frames, error) {
	out := make(Frames, 0, len(fs))
	for _, frame := range fs {
		rows, err := runQuery(ctx, q, input, frame)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			out = append(out, frame)
		}
	}
	return out, nil
}

// Filter keeps the frames for which keep returns true.
func (fs Frames) Filter(keep func(Frame) bool) Frames {
	out := make(Frames, 0, len(fs))
	for _, frame := range fs {
		if keep(frame) {
			out = append(out, frame)
		}
	}
	return out
}

// Bind sets v to value in every frame.
func (fs Frames) Bind(v Var, value any) Frames {
	out := make(Frames, 0, len(fs))
	for _, frame := range fs {
		next := frame.clone()
		next[v] = value
		out = append(out, next)
	}
	return out
}

func runQuery(ctx context.Context, q QueryFunc, input P, frame Frame) ([]Args, error) {
	args, err := substitute(input, frame)
	if err != nil {
		return nil, err
	}
	rows, err := q(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return rows, nil
}
