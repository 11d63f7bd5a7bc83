// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

// Package services wraps components as suture services.
//
// A suture service is anything with Serve(ctx) error; a String method names
// it in supervisor logs. Services return ctx.Err() when cancelled and an
// error when they should be restarted.
package services
