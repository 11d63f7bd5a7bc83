// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

/*
Package syncs declares the rules that turn HTTP requests into concept
actions and concept results into responses.

A request to /Concept/action arrives as a Requesting.request completion.
For each path there is a family of syncs:

  - <Name>Request: resolves the session, checks the user's permission for
    the path, and invokes the concept action
  - <Name>Response: responds with the action's outputs once it succeeds
  - <Name>ResponseError: responds with {error} when it fails
  - <Name>Unauthorized: responds {error: "Invalid session"} when the
    session does not resolve
  - <Name>Forbidden: responds {error: "Forbidden"} when the user lacks the
    permission

Paths starting with an underscore are queries. Their Request sync reads
concept state in its where clause and responds directly, and a NotFound
sync answers lookups that find nothing.

Registration and login are unauthenticated; on success they chain into
Sessioning.create and respond with both the user and the new session.
*/
package syncs
