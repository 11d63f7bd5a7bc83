// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/songpassport/internal/config"
	"github.com/tomtom215/songpassport/internal/events"
)

func testConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Storage.Backend = "memory"
	cfg.Security.JWTSecret = "test-secret-with-at-least-32-characters"
	cfg.Security.BcryptCost = 4
	cfg.Security.RateLimitDisabled = true
	cfg.LLM.Enabled = false
	cfg.YouTube.APIKey = ""
	cfg.Engine.RequestTimeout = 5 * time.Second
	return cfg
}

func post(t *testing.T, h http.Handler, path, body string) map[string]interface{} {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("%s: decode %q: %v", path, rec.Body.String(), err)
	}
	return resp
}

func TestNewAppServesRequests(t *testing.T) {
	a, err := newApp(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer a.Close()

	resp := post(t, a.handler, "/api/UserAuthentication/register", `{"username":"dolly","password":"jolene"}`)
	if resp["success"] != true {
		t.Fatalf("register = %v", resp)
	}
	data := resp["data"].(map[string]interface{})
	session, _ := data["session"].(string)
	if session == "" {
		t.Fatalf("register returned no session: %v", data)
	}

	resp = post(t, a.handler, "/api/Playlist/createPlaylist", `{"session":"`+session+`","name":"Road trip"}`)
	if resp["success"] != true {
		t.Errorf("createPlaylist = %v", resp)
	}

	resp = post(t, a.handler, "/api/Playlist/createPlaylist", `{"session":"bogus","name":"x"}`)
	if errObj, _ := resp["error"].(map[string]interface{}); errObj == nil || errObj["code"] != "UNAUTHORIZED" {
		t.Errorf("invalid session = %v", resp)
	}
}

func TestNewAppActionLog(t *testing.T) {
	cfg := testConfig()
	cfg.Engine.ActionLog = true
	cfg.Events.Backend = "gochannel"

	a, err := newApp(context.Background(), cfg)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer a.Close()
	if a.consumer == nil {
		t.Fatal("action log enabled but no consumer")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = a.consumer.Serve(ctx) }()
	// gochannel drops messages published before the subscription exists
	time.Sleep(50 * time.Millisecond)

	post(t, a.handler, "/api/UserAuthentication/register", `{"username":"loretta","password":"coal"}`)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		var n int
		docs, err := a.store.Collection(events.ActionsCollection).Find(context.Background(), nil)
		if err == nil {
			n = len(docs)
		}
		if n > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("no action records persisted")
}

func TestNewAppRejectsBadStorage(t *testing.T) {
	cfg := testConfig()
	cfg.Storage.Backend = "floppy"
	if _, err := newApp(context.Background(), cfg); err == nil {
		t.Error("expected an error for an unknown storage backend")
	}
}
