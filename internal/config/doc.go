// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

/*
Package config provides layered configuration loading for Song Passport.

Configuration is assembled with Koanf v2 from three sources, later sources
overriding earlier ones:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file (config.yaml, or the path in CONFIG_PATH)
 3. Environment variables, mapped explicitly by envTransformFunc

# Environment Variables

Server:
  - HTTP_PORT, HTTP_HOST, HTTP_TIMEOUT, ENVIRONMENT

Storage:
  - STORAGE_BACKEND: badger (default), mongo or memory
  - STORAGE_PATH: BadgerDB directory
  - MONGO_URL, MONGO_DATABASE, MONGO_TIMEOUT

Security:
  - JWT_SECRET: session token signing secret (min 32 chars, required)
  - SESSION_TIMEOUT, SESSION_CLEANUP_INTERVAL, BCRYPT_COST
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT
  - CORS_ORIGINS, MAX_BODY_BYTES
  - CASBIN_DEFAULT_ROLE, CASBIN_ADMINS, CASBIN_MODERATORS (comma-separated usernames)

Recommendations:
  - RECOMMEND_QUERY_QUANTITY (3), RECOMMEND_BASELINE_MULTIPLIER (3),
    RECOMMEND_LLM_CALL_SCALE (20)
  - LLM_ENABLED, GEMINI_API_KEY, GEMINI_MODEL, LLM_MAX_OUTPUT_TOKENS, LLM_TIMEOUT
  - YOUTUBE_API_KEY, YOUTUBE_REQUESTS_PER_SECOND, YOUTUBE_BURST, YOUTUBE_TIMEOUT

Engine and events:
  - REQUEST_TIMEOUT, ACTION_LOG
  - EVENTS_BACKEND: gochannel (default) or nats
  - NATS_URL, EVENTS_TOPIC, EVENTS_BUFFER_SIZE

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

# Validation

Load returns an error when JWT_SECRET is missing or short, when the LLM is
enabled without GEMINI_API_KEY, or when a backend name is unknown.
*/
package config
