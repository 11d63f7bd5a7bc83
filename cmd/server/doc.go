// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

/*
Command server runs the Song Passport API.

Song Passport recommends country music from around the world. Users register,
ask for songs from a country (generated by Gemini and linked to YouTube),
share community recommendations, report bad ones, build playlists and keep
a passport of the countries they have explored.

# Process Layout

	RootSupervisor ("songpassport")
	├── DataSupervisor ("data-layer")
	│   └── session-purge
	├── MessagingSupervisor ("messaging-layer")
	│   └── action-log-consumer (ACTION_LOG=true)
	└── APISupervisor ("api-layer")
	    └── http-server

Startup order:

 1. Configuration: Koanf v2 (defaults, config.yaml, environment)
 2. Logging: zerolog from the logging section
 3. Document store: BadgerDB, MongoDB or in-memory
 4. External clients: Gemini (optional) and YouTube
 5. Concepts, Casbin enforcer and syncs registered on one engine
 6. Action log bus (optional): watermill gochannel or NATS
 7. Supervisor tree serving until SIGINT or SIGTERM

# Configuration

Common environment variables:

	JWT_SECRET        32+ character secret for session tokens (required)
	HTTP_PORT         listen port (default 8000)
	STORAGE_BACKEND   badger, mongo or memory
	GEMINI_API_KEY    enables recommendation generation
	YOUTUBE_API_KEY   resolves songs to video links instead of search URLs
	CASBIN_ADMINS     comma separated admin usernames

# Example

	export JWT_SECRET=$(openssl rand -base64 32)
	export GEMINI_API_KEY=...
	./server
*/
package main
