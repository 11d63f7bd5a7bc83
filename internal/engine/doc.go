// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

/*
Package engine implements the synchronization engine that composes concepts.

Concepts are independent: none of them calls another. The application's
behavior lives in syncs, declarative rules of the form

	when  these actions have completed in the same flow
	where these lookups hold
	then  invoke these actions

# Flows and Records

Every HTTP request starts a flow. Each action completed within the flow is a
Record carrying its input, output and a per-flow sequence number. Records
are also published to a Sink (the action log).

# Matching

A sync is evaluated whenever a completed action matches its last when
pattern. The earlier patterns are then joined against the flow's earlier
records in increasing sequence order, each record used at most once. Every
consistent combination produces a Frame of variable bindings:

	const (
		request engine.Var = "request"
		user    engine.Var = "user"
	)

	&engine.Sync{
		Name: "LoginResponse",
		When: []engine.Pattern{
			engine.On(requesting.Request, engine.P{"path": "/UserAuthentication/login"}, engine.P{"request": request}),
			engine.On(userauth.Login, engine.P{}, engine.P{"user": user}),
		},
		Then: []engine.Invocation{
			engine.Do(sessioning.Create, engine.P{"user": user}),
		},
	}

Literal pattern values must be equal to the recorded value. A Var binds the
value on first use and must be equal to it afterwards. In input patterns a
Var whose field is absent binds nil, so the invoked action reports the
missing field; output patterns require the field to be present. An output
pattern that does not name "error" never matches an error output, so every
action has disjoint success and error syncs.

# Where Clauses

Where receives the frames and may narrow or extend them with concept
queries through Frames.Query, Frames.QueryAll, Frames.Absent and
Frames.Filter.

# Firing

Each (completion, sync, bindings) triple fires at most once. The bindings
are identified by the SHA-256 of their canonical JSON encoding. Fired
invocations are queued and executed breadth-first on the goroutine that
called Invoke.

# Errors

Actions return *ActionError (see Failf) for expected failures; the message
becomes the output {"error": message}. Any other error is logged and
reported as InternalErrorMessage.
*/
package engine
