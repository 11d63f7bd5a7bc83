// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package syncs

import (
	"context"

	"github.com/tomtom215/songpassport/internal/authz"
	"github.com/tomtom215/songpassport/internal/concepts/countryrec"
	"github.com/tomtom215/songpassport/internal/concepts/passport"
	"github.com/tomtom215/songpassport/internal/concepts/playlist"
	"github.com/tomtom215/songpassport/internal/concepts/reporting"
	"github.com/tomtom215/songpassport/internal/concepts/requesting"
	"github.com/tomtom215/songpassport/internal/concepts/sessioning"
	"github.com/tomtom215/songpassport/internal/concepts/userauth"
	"github.com/tomtom215/songpassport/internal/engine"
)

// InvalidSessionMessage is the error for requests whose session does not
// resolve to a user.
const InvalidSessionMessage = "Invalid session"

// Variables shared by the sync declarations.
const (
	request engine.Var = "request"
	session engine.Var = "session"
	user    engine.Var = "user"
	errMsg  engine.Var = "error"

	username        engine.Var = "username"
	password        engine.Var = "password"
	countryName     engine.Var = "countryName"
	title           engine.Var = "title"
	artist          engine.Var = "artist"
	genre           engine.Var = "genre"
	language        engine.Var = "language"
	url             engine.Var = "url"
	recID           engine.Var = "recId"
	recommendation  engine.Var = "recommendation"
	recommendations engine.Var = "recommendations"
	countries       engine.Var = "countries"
	objectID        engine.Var = "objectId"
	count           engine.Var = "count"
	reporters       engine.Var = "reporters"
	song            engine.Var = "song"
	songs           engine.Var = "songs"
	country         engine.Var = "country"
	entry           engine.Var = "entry"
	history         engine.Var = "history"
	playlistID      engine.Var = "playlist"
	playlists       engine.Var = "playlists"
	name            engine.Var = "name"
	newName         engine.Var = "newName"
	owner           engine.Var = "owner"
	foundUser       engine.Var = "foundUser"
	rows            engine.Var = "rows"
)

// Concepts holds the concept instances the syncs read from in where clauses.
type Concepts struct {
	Sessions   *sessioning.Concept
	Users      *userauth.Concept
	Recs       *countryrec.Concept
	Playlists  *playlist.Concept
	Reports    *reporting.Concept
	Passport   *passport.Concept
	Authorizer *authz.Authorizer
}

// Register adds every sync to e.
func Register(e *engine.Engine, c Concepts) error {
	return e.AddSync(All(c)...)
}

// All returns every sync in registration order.
func All(c Concepts) []*engine.Sync {
	var all []*engine.Sync
	all = append(all, authSyncs(c)...)
	all = append(all, countryRecSyncs(c)...)
	all = append(all, reportingSyncs(c)...)
	all = append(all, passportSyncs(c)...)
	all = append(all, playlistSyncs(c)...)
	return all
}

// requested matches Requesting.request for path, binding each field to the
// variable of the same name.
func requested(path string, fields ...engine.Var) engine.Pattern {
	in := engine.P{"path": path}
	for _, f := range fields {
		in[string(f)] = f
	}
	return engine.On(requesting.Request, in, engine.P{"request": request})
}

func respond(fields ...engine.Var) engine.Invocation {
	in := engine.P{"request": request}
	for _, f := range fields {
		in[string(f)] = f
	}
	return engine.Do(requesting.Respond, in)
}

// chain runs where clauses in order.
func chain(steps ...engine.WhereFunc) engine.WhereFunc {
	return func(ctx context.Context, frames engine.Frames) (engine.Frames, error) {
		var err error
		for _, step := range steps {
			if len(frames) == 0 {
				return frames, nil
			}
			if frames, err = step(ctx, frames); err != nil {
				return nil, err
			}
		}
		return frames, nil
	}
}

// bindEach sets v in every frame to the value computed from that frame.
func bindEach(v engine.Var, value func(engine.Frame) any) engine.WhereFunc {
	return func(_ context.Context, frames engine.Frames) (engine.Frames, error) {
		out := make(engine.Frames, 0, len(frames))
		for _, f := range frames {
			next := make(engine.Frame, len(f)+1)
			for k, val := range f {
				next[k] = val
			}
			next[v] = value(f)
			out = append(out, next)
		}
		return out, nil
	}
}

// gate holds the session and permission checks shared by every
// authenticated path.
type gate struct {
	sessions   *sessioning.Concept
	authorizer *authz.Authorizer
}

func (g gate) sessionUser(ctx context.Context, frames engine.Frames) (engine.Frames, error) {
	return frames.Query(ctx, g.sessions.GetUserQuery, engine.P{"session": session}, engine.P{"user": user})
}

func (g gate) noSessionUser(ctx context.Context, frames engine.Frames) (engine.Frames, error) {
	return frames.Absent(ctx, g.sessions.GetUserQuery, engine.P{"session": session})
}

// allowed keeps frames whose user may invoke path.
func (g gate) allowed(path string) engine.WhereFunc {
	return func(ctx context.Context, frames engine.Frames) (engine.Frames, error) {
		return frames.Query(ctx, g.authorizer.AllowedQuery, engine.P{"user": user, "path": path}, engine.P{})
	}
}

// denied keeps frames whose user may not invoke path.
func (g gate) denied(path string) engine.WhereFunc {
	return func(ctx context.Context, frames engine.Frames) (engine.Frames, error) {
		return frames.Query(ctx, g.authorizer.DeniedQuery, engine.P{"user": user, "path": path}, engine.P{})
	}
}

// authorize resolves the session user and checks the permission for path.
func (g gate) authorize(path string) engine.WhereFunc {
	return chain(g.sessionUser, g.allowed(path))
}

// rejections returns the Unauthorized and Forbidden syncs for path.
func (g gate) rejections(name, path string) []*engine.Sync {
	return []*engine.Sync{
		{
			Name:  name + "Unauthorized",
			When:  []engine.Pattern{requested(path, session)},
			Where: g.noSessionUser,
			Then: []engine.Invocation{engine.Do(requesting.Respond, engine.P{
				"request": request,
				"error":   InvalidSessionMessage,
			})},
		},
		{
			Name:  name + "Forbidden",
			When:  []engine.Pattern{requested(path, session)},
			Where: chain(g.sessionUser, g.denied(path)),
			Then: []engine.Invocation{engine.Do(requesting.Respond, engine.P{
				"request": request,
				"error":   authz.ForbiddenMessage,
			})},
		},
	}
}

// route is an authenticated path served by one concept action.
type route struct {
	name   string
	path   string
	action engine.ActionRef
	// fields are the request fields bound to variables.
	fields []engine.Var
	// input is the action input template; it may use user.
	input engine.P
	// outputs are forwarded from the action output to the response.
	outputs []engine.Var
}

func (g gate) route(r route) []*engine.Sync {
	fields := append([]engine.Var{session}, r.fields...)
	out := engine.P{}
	for _, o := range r.outputs {
		out[string(o)] = o
	}

	syncs := []*engine.Sync{
		{
			Name:  r.name + "Request",
			When:  []engine.Pattern{requested(r.path, fields...)},
			Where: g.authorize(r.path),
			Then:  []engine.Invocation{engine.Do(r.action, r.input)},
		},
		{
			Name: r.name + "Response",
			When: []engine.Pattern{requested(r.path), engine.On(r.action, engine.P{}, out)},
			Then: []engine.Invocation{respond(r.outputs...)},
		},
		{
			Name: r.name + "ResponseError",
			When: []engine.Pattern{requested(r.path), engine.On(r.action, engine.P{}, engine.P{"error": errMsg})},
			Then: []engine.Invocation{respond(errMsg)},
		},
	}
	return append(syncs, g.rejections(r.name, r.path)...)
}

// query is an authenticated path answered from concept state without
// invoking an action.
type query struct {
	name   string
	path   string
	fields []engine.Var
	// lookup binds the response variables. Frames it drops get no
	// response unless missing handles them.
	lookup engine.WhereFunc
	// missing, if set, keeps the frames lookup would drop and binds errMsg.
	missing engine.WhereFunc
	// response lists the variables sent back.
	response []engine.Var
	// output, if set, replaces response as the respond input template for
	// results whose key collides with a gate variable.
	output engine.P
}

func (g gate) query(q query) []*engine.Sync {
	fields := append([]engine.Var{session}, q.fields...)
	syncs := []*engine.Sync{
		{
			Name:  q.name + "Request",
			When:  []engine.Pattern{requested(q.path, fields...)},
			Where: chain(g.authorize(q.path), complete(q.fields), q.lookup),
			Then:  []engine.Invocation{q.respond()},
		},
		{
			Name:  q.name + "Invalid",
			When:  []engine.Pattern{requested(q.path, fields...)},
			Where: chain(g.authorize(q.path), incomplete(q.fields)),
			Then:  []engine.Invocation{respond(errMsg)},
		},
	}
	if q.missing != nil {
		syncs = append(syncs, &engine.Sync{
			Name:  q.name + "NotFound",
			When:  []engine.Pattern{requested(q.path, fields...)},
			Where: chain(g.authorize(q.path), complete(q.fields), q.missing),
			Then:  []engine.Invocation{respond(errMsg)},
		})
	}
	return append(syncs, g.rejections(q.name, q.path)...)
}

func (q query) respond() engine.Invocation {
	if q.output == nil {
		return respond(q.response...)
	}
	in := engine.P{"request": request}
	for k, v := range q.output {
		in[k] = v
	}
	return engine.Do(requesting.Respond, in)
}

// firstMissing returns the first field not bound to a non-empty string.
func firstMissing(f engine.Frame, fields []engine.Var) (engine.Var, bool) {
	for _, v := range fields {
		if stringAt(f, v) == "" {
			return v, true
		}
	}
	return "", false
}

// complete keeps frames whose fields are all non-empty strings.
func complete(fields []engine.Var) engine.WhereFunc {
	return func(_ context.Context, frames engine.Frames) (engine.Frames, error) {
		return frames.Filter(func(f engine.Frame) bool {
			_, missing := firstMissing(f, fields)
			return !missing
		}), nil
	}
}

// incomplete keeps the frames complete drops and binds errMsg.
func incomplete(fields []engine.Var) engine.WhereFunc {
	return func(ctx context.Context, frames engine.Frames) (engine.Frames, error) {
		frames = frames.Filter(func(f engine.Frame) bool {
			_, missing := firstMissing(f, fields)
			return missing
		})
		return bindEach(errMsg, func(f engine.Frame) any {
			v, _ := firstMissing(f, fields)
			return "Missing required field '" + string(v) + "'."
		})(ctx, frames)
	}
}

// stringAt returns the frame's value for v as a string, or "".
func stringAt(f engine.Frame, v engine.Var) string {
	s, _ := f[v].(string)
	return s
}

// column collects one field of every row bound to rows.
func column(field string) func(engine.Frame) any {
	return func(f engine.Frame) any {
		list, _ := f[rows].([]engine.Args)
		out := make([]any, 0, len(list))
		for _, row := range list {
			out = append(out, row[field])
		}
		return out
	}
}

func (c Concepts) gate() gate {
	return gate{sessions: c.Sessions, authorizer: c.Authorizer}
}
