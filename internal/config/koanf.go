// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/songpassport/config.yaml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with every default applied. Defaults are
// loaded first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8000,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Storage: StorageConfig{
			Backend:       "badger",
			Path:          "/data/songpassport",
			MongoURL:      "mongodb://127.0.0.1:27017",
			MongoDatabase: "songpassport",
			MongoTimeout:  10 * time.Second,
		},
		Security: SecurityConfig{
			JWTSecret:              "",
			SessionTimeout:         24 * time.Hour,
			SessionCleanupInterval: 15 * time.Minute,
			BcryptCost:             12,
			RateLimitReqs:          100,
			RateLimitWindow:        time.Minute,
			RateLimitDisabled:      false,
			CORSOrigins:            []string{"*"},
			MaxBodyBytes:           1 << 20, // 1MB
			Casbin: CasbinConfig{
				DefaultRole:  "user",
				CacheEnabled: true,
				CacheTTL:     5 * time.Minute,
			},
		},
		Engine: EngineConfig{
			RequestTimeout: 10 * time.Second,
			ActionLog:      true,
		},
		Recommend: RecommendConfig{
			QueryQuantity:      3,
			BaselineMultiplier: 3,
			LLMCallScale:       20,
		},
		LLM: LLMConfig{
			Enabled:         true,
			Model:           "gemini-2.5-flash-lite",
			MaxOutputTokens: 1000,
			Timeout:         30 * time.Second,
		},
		YouTube: YouTubeConfig{
			RequestsPerSecond: 5,
			Burst:             5,
			Timeout:           10 * time.Second,
		},
		Events: EventsConfig{
			Backend:    "gochannel",
			NATSURL:    "nats://127.0.0.1:4222",
			Topic:      "engine.actions",
			BufferSize: 1024,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults
//  2. Config file (optional)
//  3. Environment variables (highest priority)
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file found, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths are parsed as comma-separated lists when set from env vars.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"security.casbin.admins",
	"security.casbin.moderators",
}

// processSliceFields converts comma-separated strings to slices for known
// slice fields. Env vars always arrive as strings.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lowercased environment variable names to koanf paths.
var envMappings = map[string]string{
	"http_port":    "server.port",
	"http_host":    "server.host",
	"http_timeout": "server.timeout",
	"environment":  "server.environment",

	"storage_backend": "storage.backend",
	"storage_path":    "storage.path",
	"mongo_url":       "storage.mongo_url",
	"mongo_database":  "storage.mongo_database",
	"mongo_timeout":   "storage.mongo_timeout",

	"jwt_secret":               "security.jwt_secret",
	"session_timeout":          "security.session_timeout",
	"session_cleanup_interval": "security.session_cleanup_interval",
	"bcrypt_cost":              "security.bcrypt_cost",
	"rate_limit_requests":      "security.rate_limit_reqs",
	"rate_limit_window":        "security.rate_limit_window",
	"disable_rate_limit":       "security.rate_limit_disabled",
	"cors_origins":             "security.cors_origins",
	"max_body_bytes":           "security.max_body_bytes",

	"casbin_default_role":  "security.casbin.default_role",
	"casbin_admins":        "security.casbin.admins",
	"casbin_moderators":    "security.casbin.moderators",
	"casbin_cache_enabled": "security.casbin.cache_enabled",
	"casbin_cache_ttl":     "security.casbin.cache_ttl",

	"request_timeout": "engine.request_timeout",
	"action_log":      "engine.action_log",

	"recommend_query_quantity":      "recommend.query_quantity",
	"recommend_baseline_multiplier": "recommend.baseline_multiplier",
	"recommend_llm_call_scale":      "recommend.llm_call_scale",

	"llm_enabled":           "llm.enabled",
	"gemini_api_key":        "llm.api_key",
	"gemini_model":          "llm.model",
	"llm_max_output_tokens": "llm.max_output_tokens",
	"llm_timeout":           "llm.timeout",

	"youtube_api_key":             "youtube.api_key",
	"youtube_requests_per_second": "youtube.requests_per_second",
	"youtube_burst":               "youtube.burst",
	"youtube_timeout":             "youtube.timeout",

	"events_backend":     "events.backend",
	"nats_url":           "events.nats_url",
	"events_topic":       "events.topic",
	"events_buffer_size": "events.buffer_size",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps environment variable names to koanf paths.
// Unmapped variables return "" and are skipped so unrelated environment
// does not leak into the configuration.
//
// Examples:
//   - GEMINI_API_KEY -> llm.api_key
//   - HTTP_PORT -> server.port
//   - STORAGE_BACKEND -> storage.backend
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}

// Defaults returns the built-in configuration without reading any file or
// environment variable.
func Defaults() *Config {
	return defaultConfig()
}
