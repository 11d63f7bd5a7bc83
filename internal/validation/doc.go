// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is created on first use with the custom tags
// used by the API layer:
//
//   - concept: a concept name such as "Playlist" or "UserAuthentication"
//   - action: an action or query name such as "createPlaylist" or "_getPlaylist"
//
// Failures are returned as *RequestValidationError, which converts to the
// API's VALIDATION_ERROR code with human readable messages:
//
//	type invokeRequest struct {
//	    Concept string `validate:"required,concept"`
//	    Action  string `validate:"required,action"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    // respond 400 with apiErr.Code and apiErr.Message
//	}
package validation
