// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// minJWTSecretLength is the shortest accepted HMAC secret.
const minJWTSecretLength = 32

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateRecommend(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateEvents(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if c.Engine.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case "badger":
		if c.Storage.Path == "" {
			return fmt.Errorf("STORAGE_PATH is required when STORAGE_BACKEND=badger")
		}
	case "mongo":
		if c.Storage.MongoURL == "" {
			return fmt.Errorf("MONGO_URL is required when STORAGE_BACKEND=mongo")
		}
		if _, err := url.Parse(c.Storage.MongoURL); err != nil {
			return fmt.Errorf("MONGO_URL is invalid: %w", err)
		}
		if c.Storage.MongoDatabase == "" {
			return fmt.Errorf("MONGO_DATABASE is required when STORAGE_BACKEND=mongo")
		}
	case "memory":
	default:
		return fmt.Errorf("STORAGE_BACKEND must be one of badger, mongo, memory; got %q", c.Storage.Backend)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if len(c.Security.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLength)
	}
	if c.Security.SessionTimeout <= 0 {
		return fmt.Errorf("SESSION_TIMEOUT must be positive")
	}
	if c.Security.BcryptCost < 4 || c.Security.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.Security.BcryptCost)
	}
	if !c.Security.RateLimitDisabled && c.Security.RateLimitReqs <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive when rate limiting is enabled")
	}
	if c.Security.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive")
	}
	if c.Security.Casbin.DefaultRole == "" {
		return fmt.Errorf("CASBIN_DEFAULT_ROLE cannot be empty")
	}
	return nil
}

func (c *Config) validateRecommend() error {
	if c.Recommend.QueryQuantity <= 0 {
		return fmt.Errorf("RECOMMEND_QUERY_QUANTITY must be positive")
	}
	if c.Recommend.BaselineMultiplier < 0 {
		return fmt.Errorf("RECOMMEND_BASELINE_MULTIPLIER cannot be negative")
	}
	if c.Recommend.LLMCallScale <= 0 {
		return fmt.Errorf("RECOMMEND_LLM_CALL_SCALE must be positive")
	}
	return nil
}

func (c *Config) validateLLM() error {
	if !c.LLM.Enabled {
		return nil
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required when LLM_ENABLED=true")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("GEMINI_MODEL cannot be empty")
	}
	if c.LLM.MaxOutputTokens <= 0 {
		return fmt.Errorf("LLM_MAX_OUTPUT_TOKENS must be positive")
	}
	return nil
}

func (c *Config) validateEvents() error {
	switch c.Events.Backend {
	case "gochannel":
	case "nats":
		if c.Events.NATSURL == "" {
			return fmt.Errorf("NATS_URL is required when EVENTS_BACKEND=nats")
		}
	default:
		return fmt.Errorf("EVENTS_BACKEND must be gochannel or nats; got %q", c.Events.Backend)
	}
	if c.Events.Topic == "" {
		return fmt.Errorf("EVENTS_TOPIC cannot be empty")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console; got %q", c.Logging.Format)
	}
	return nil
}
