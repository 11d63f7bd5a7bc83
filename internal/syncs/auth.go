// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package syncs

import (
	"context"

	"github.com/tomtom215/songpassport/internal/concepts/requesting"
	"github.com/tomtom215/songpassport/internal/concepts/sessioning"
	"github.com/tomtom215/songpassport/internal/concepts/userauth"
	"github.com/tomtom215/songpassport/internal/engine"
)

const (
	registerPath = "/UserAuthentication/register"
	loginPath    = "/UserAuthentication/login"
	logoutPath   = "/UserAuthentication/logout"
)

func authSyncs(c Concepts) []*engine.Sync {
	syncs := []*engine.Sync{
		// Registration
		{
			Name: "RegisterRequest",
			When: []engine.Pattern{requested(registerPath, username, password)},
			Then: []engine.Invocation{engine.Do(userauth.Register, engine.P{"username": username, "password": password})},
		},
		{
			Name: "RegisterResponse",
			When: []engine.Pattern{
				requested(registerPath),
				engine.On(userauth.Register, engine.P{}, engine.P{"user": user}),
			},
			Then: []engine.Invocation{engine.Do(sessioning.Create, engine.P{"user": user})},
		},
		{
			Name: "RegisterRespondWithSession",
			When: []engine.Pattern{
				requested(registerPath),
				engine.On(userauth.Register, engine.P{}, engine.P{"user": user}),
				engine.On(sessioning.Create, engine.P{"user": user}, engine.P{"session": session}),
			},
			Then: []engine.Invocation{respond(user, session)},
		},
		{
			Name: "RegisterResponseError",
			When: []engine.Pattern{
				requested(registerPath),
				engine.On(userauth.Register, engine.P{}, engine.P{"error": errMsg}),
			},
			Then: []engine.Invocation{respond(errMsg)},
		},

		// Login
		{
			Name: "LoginRequest",
			When: []engine.Pattern{requested(loginPath, username, password)},
			Then: []engine.Invocation{engine.Do(userauth.Login, engine.P{"username": username, "password": password})},
		},
		{
			Name: "LoginResponse",
			When: []engine.Pattern{
				requested(loginPath),
				engine.On(userauth.Login, engine.P{}, engine.P{"user": user}),
			},
			Then: []engine.Invocation{engine.Do(sessioning.Create, engine.P{"user": user})},
		},
		{
			Name: "LoginRespondWithSession",
			When: []engine.Pattern{
				requested(loginPath),
				engine.On(userauth.Login, engine.P{}, engine.P{"user": user}),
				engine.On(sessioning.Create, engine.P{"user": user}, engine.P{"session": session}),
			},
			Then: []engine.Invocation{respond(user, session)},
		},
		{
			Name: "LoginResponseError",
			When: []engine.Pattern{
				requested(loginPath),
				engine.On(userauth.Login, engine.P{}, engine.P{"error": errMsg}),
			},
			Then: []engine.Invocation{respond(errMsg)},
		},

		// Logout
		{
			Name: "LogoutRequest",
			When: []engine.Pattern{requested(logoutPath, session)},
			Then: []engine.Invocation{engine.Do(sessioning.Delete, engine.P{"session": session})},
		},
		{
			Name: "LogoutResponse",
			When: []engine.Pattern{
				requested(logoutPath),
				engine.On(sessioning.Delete, engine.P{}, engine.P{}),
			},
			Then: []engine.Invocation{engine.Do(requesting.Respond, engine.P{"request": request, "status": "logged_out"})},
		},
		{
			Name: "LogoutResponseError",
			When: []engine.Pattern{
				requested(logoutPath),
				engine.On(sessioning.Delete, engine.P{}, engine.P{"error": errMsg}),
			},
			Then: []engine.Invocation{respond(errMsg)},
		},
	}

	g := c.gate()
	syncs = append(syncs, g.query(query{
		name: "GetUsername",
		path: "/UserAuthentication/_getUsername",
		lookup: func(ctx context.Context, frames engine.Frames) (engine.Frames, error) {
			return frames.Query(ctx, c.Users.GetUsernameQuery, engine.P{"user": user}, engine.P{"username": username})
		},
		response: []engine.Var{user, username},
	})...)

	// user is the caller here, so the result is bound to foundUser.
	return append(syncs, g.query(query{
		name:   "GetUserByUsername",
		path:   "/UserAuthentication/_getUserByUsername",
		fields: []engine.Var{username},
		lookup: func(ctx context.Context, frames engine.Frames) (engine.Frames, error) {
			return frames.Query(ctx, c.Users.GetUserByUsernameQuery, engine.P{"username": username}, engine.P{"user": foundUser})
		},
		missing: chain(
			func(ctx context.Context, frames engine.Frames) (engine.Frames, error) {
				return frames.Absent(ctx, c.Users.GetUserByUsernameQuery, engine.P{"username": username})
			},
			bindEach(errMsg, func(f engine.Frame) any {
				return "User '" + stringAt(f, username) + "' not found."
			}),
		),
		output: engine.P{"user": foundUser, "username": username},
	})...)
}
