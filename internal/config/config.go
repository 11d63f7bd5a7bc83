// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: built-in values from defaultConfig()
//  2. Config File: optional YAML file (config.yaml or CONFIG_PATH)
//  3. Environment Variables: explicit names such as JWT_SECRET or GEMINI_API_KEY
//
// Config is immutable after Load() and safe for concurrent reads.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Storage   StorageConfig   `koanf:"storage"`
	Security  SecurityConfig  `koanf:"security"`
	Engine    EngineConfig    `koanf:"engine"`
	Recommend RecommendConfig `koanf:"recommend"`
	LLM       LLMConfig       `koanf:"llm"`
	YouTube   YouTubeConfig   `koanf:"youtube"`
	Events    EventsConfig    `koanf:"events"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig selects and configures the document store backend.
type StorageConfig struct {
	// Backend is one of "badger", "mongo" or "memory".
	Backend string `koanf:"backend"`

	// Path is the BadgerDB data directory.
	Path string `koanf:"path"`

	MongoURL      string        `koanf:"mongo_url"`
	MongoDatabase string        `koanf:"mongo_database"`
	MongoTimeout  time.Duration `koanf:"mongo_timeout"`
}

// SecurityConfig holds authentication, session and request limits.
type SecurityConfig struct {
	JWTSecret              string        `koanf:"jwt_secret"`
	SessionTimeout         time.Duration `koanf:"session_timeout"`
	SessionCleanupInterval time.Duration `koanf:"session_cleanup_interval"`
	BcryptCost             int           `koanf:"bcrypt_cost"`
	RateLimitReqs          int           `koanf:"rate_limit_reqs"`
	RateLimitWindow        time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled      bool          `koanf:"rate_limit_disabled"`
	CORSOrigins            []string      `koanf:"cors_origins"`
	MaxBodyBytes           int64         `koanf:"max_body_bytes"`
	Casbin                 CasbinConfig  `koanf:"casbin"`
}

// CasbinConfig configures role-based authorization.
type CasbinConfig struct {
	// DefaultRole is assigned to every user without an explicit role.
	DefaultRole string `koanf:"default_role"`

	// Admins and Moderators list usernames granted those roles.
	Admins     []string `koanf:"admins"`
	Moderators []string `koanf:"moderators"`

	CacheEnabled bool          `koanf:"cache_enabled"`
	CacheTTL     time.Duration `koanf:"cache_ttl"`
}

// EngineConfig configures the sync engine and request bridge.
type EngineConfig struct {
	// RequestTimeout bounds how long an HTTP request waits for a response.
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// ActionLog persists every completed action to the engine.actions collection.
	ActionLog bool `koanf:"action_log"`
}

// RecommendConfig holds the country recommendation constants.
type RecommendConfig struct {
	// QueryQuantity is how many recommendations a get call returns.
	QueryQuantity int `koanf:"query_quantity"`

	// BaselineMultiplier: while stored system recommendations number at most
	// QueryQuantity*BaselineMultiplier, every request asks the LLM for more.
	BaselineMultiplier int `koanf:"baseline_multiplier"`

	// LLMCallScale controls how fast the LLM call probability decays.
	LLMCallScale float64 `koanf:"llm_call_scale"`
}

// LLMConfig configures the Gemini client.
type LLMConfig struct {
	Enabled         bool          `koanf:"enabled"`
	APIKey          string        `koanf:"api_key"`
	Model           string        `koanf:"model"`
	MaxOutputTokens int           `koanf:"max_output_tokens"`
	Timeout         time.Duration `koanf:"timeout"`
}

// YouTubeConfig configures video lookups.
type YouTubeConfig struct {
	APIKey            string        `koanf:"api_key"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Burst             int           `koanf:"burst"`
	Timeout           time.Duration `koanf:"timeout"`
}

// EventsConfig configures the action log bus.
type EventsConfig struct {
	// Backend is "gochannel" (in-process) or "nats".
	Backend    string `koanf:"backend"`
	NATSURL    string `koanf:"nats_url"`
	Topic      string `koanf:"topic"`
	BufferSize int64  `koanf:"buffer_size"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from defaults, an optional config file and the
// environment, then validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
