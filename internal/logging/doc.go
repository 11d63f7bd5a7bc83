// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

// Package logging provides zerolog-based structured logging for Song Passport.
//
// A single global logger is configured at startup from the logging section
// of the configuration:
//
//	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
//	logging.Info().Str("backend", cfg.Storage.Backend).Msg("Document store opened")
//
// Request handlers and the sync engine log through Ctx, which adds the HTTP
// request id and the engine flow token when present:
//
//	logging.Ctx(ctx).Debug().Str("action", "Playlist.addSong").Msg("Action completed")
//
// The slog adapter lets suture's sutureslog hook write through the same
// logger.
package logging
