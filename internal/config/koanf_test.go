// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// setRequiredEnv sets the minimum environment for a valid configuration.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("LLM_ENABLED", "false")
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 8000 {
		t.Errorf("Server.Port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.Storage.Backend != "badger" {
		t.Errorf("Storage.Backend = %q, want badger", cfg.Storage.Backend)
	}
	if cfg.Security.BcryptCost != 12 {
		t.Errorf("Security.BcryptCost = %d, want 12", cfg.Security.BcryptCost)
	}
	if cfg.Recommend.QueryQuantity != 3 || cfg.Recommend.BaselineMultiplier != 3 || cfg.Recommend.LLMCallScale != 20 {
		t.Errorf("Recommend = %+v, want 3/3/20", cfg.Recommend)
	}
	if cfg.LLM.Model != "gemini-2.5-flash-lite" {
		t.Errorf("LLM.Model = %q", cfg.LLM.Model)
	}
	if cfg.LLM.MaxOutputTokens != 1000 {
		t.Errorf("LLM.MaxOutputTokens = %d, want 1000", cfg.LLM.MaxOutputTokens)
	}
	if cfg.Engine.RequestTimeout != 10*time.Second {
		t.Errorf("Engine.RequestTimeout = %v, want 10s", cfg.Engine.RequestTimeout)
	}
	if cfg.Events.Backend != "gochannel" {
		t.Errorf("Events.Backend = %q, want gochannel", cfg.Events.Backend)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"GEMINI_API_KEY", "llm.api_key"},
		{"HTTP_PORT", "server.port"},
		{"STORAGE_BACKEND", "storage.backend"},
		{"CASBIN_ADMINS", "security.casbin.admins"},
		{"log_level", "logging.level"},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		if got := envTransformFunc(tt.env); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}

func TestFindConfigFile(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("CONFIG_PATH takes precedence", func(t *testing.T) {
		customPath := filepath.Join(tmpDir, "custom.yaml")
		if err := os.WriteFile(customPath, []byte("server:\n  port: 9000\n"), 0o600); err != nil {
			t.Fatalf("write config: %v", err)
		}
		t.Setenv(ConfigPathEnvVar, customPath)

		if got := findConfigFile(); got != customPath {
			t.Errorf("findConfigFile() = %q, want %q", got, customPath)
		}
	})

	t.Run("missing CONFIG_PATH falls back", func(t *testing.T) {
		t.Setenv(ConfigPathEnvVar, filepath.Join(tmpDir, "nope.yaml"))
		got := findConfigFile()
		if got == filepath.Join(tmpDir, "nope.yaml") {
			t.Errorf("findConfigFile() returned a missing file")
		}
	})
}

func TestLoadWithKoanfEnvVars(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("SESSION_TIMEOUT", "2h")
	t.Setenv("CASBIN_ADMINS", "alice, bob")
	t.Setenv("RECOMMEND_QUERY_QUANTITY", "5")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Storage.Backend != "memory" {
		t.Errorf("Storage.Backend = %q, want memory", cfg.Storage.Backend)
	}
	if cfg.Security.SessionTimeout != 2*time.Hour {
		t.Errorf("Security.SessionTimeout = %v, want 2h", cfg.Security.SessionTimeout)
	}
	if strings.Join(cfg.Security.Casbin.Admins, ",") != "alice,bob" {
		t.Errorf("Casbin.Admins = %v, want [alice bob]", cfg.Security.Casbin.Admins)
	}
	if cfg.Recommend.QueryQuantity != 5 {
		t.Errorf("Recommend.QueryQuantity = %d, want 5", cfg.Recommend.QueryQuantity)
	}

	// Defaults survive for unset values
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0", cfg.Server.Host)
	}
	if cfg.Recommend.LLMCallScale != 20 {
		t.Errorf("Recommend.LLMCallScale = %v, want 20", cfg.Recommend.LLMCallScale)
	}
}

func TestLoadWithKoanfConfigFile(t *testing.T) {
	configContent := `
server:
  port: 8888
  host: "127.0.0.1"
storage:
  backend: "memory"
security:
  jwt_secret: "` + testSecret + `"
  casbin:
    moderators: ["carol"]
llm:
  enabled: false
logging:
  level: "warn"
`
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, configPath)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 8888 {
		t.Errorf("Server.Port = %d, want 8888", cfg.Server.Port)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}
	if len(cfg.Security.Casbin.Moderators) != 1 || cfg.Security.Casbin.Moderators[0] != "carol" {
		t.Errorf("Casbin.Moderators = %v, want [carol]", cfg.Security.Casbin.Moderators)
	}
}

func TestLoadWithKoanfEnvOverridesFile(t *testing.T) {
	configContent := "server:\n  port: 8888\nsecurity:\n  jwt_secret: \"" + testSecret + "\"\nllm:\n  enabled: false\n"
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, configPath)
	t.Setenv("HTTP_PORT", "7777")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Server.Port != 7777 {
		t.Errorf("Server.Port = %d, want 7777 (env overrides file)", cfg.Server.Port)
	}
}

func TestLoadWithKoanfValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "short jwt secret",
			env:     map[string]string{"JWT_SECRET": "short"},
			wantErr: "JWT_SECRET",
		},
		{
			name:    "llm enabled without key",
			env:     map[string]string{"LLM_ENABLED": "true"},
			wantErr: "GEMINI_API_KEY",
		},
		{
			name:    "unknown storage backend",
			env:     map[string]string{"STORAGE_BACKEND": "postgres"},
			wantErr: "STORAGE_BACKEND",
		},
		{
			name:    "unknown events backend",
			env:     map[string]string{"EVENTS_BACKEND": "kafka"},
			wantErr: "EVENTS_BACKEND",
		},
		{
			name:    "zero query quantity",
			env:     map[string]string{"RECOMMEND_QUERY_QUANTITY": "0"},
			wantErr: "RECOMMEND_QUERY_QUANTITY",
		},
		{
			name:    "bad log format",
			env:     map[string]string{"LOG_FORMAT": "xml"},
			wantErr: "LOG_FORMAT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadWithKoanf()
			if err == nil {
				t.Fatalf("LoadWithKoanf() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestServerAddr(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 8000}
	if got := s.Addr(); got != "127.0.0.1:8000" {
		t.Errorf("Addr() = %q, want 127.0.0.1:8000", got)
	}
}
