// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package sessioning

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/songpassport/internal/config"
	"github.com/tomtom215/songpassport/internal/docstore"
	"github.com/tomtom215/songpassport/internal/engine"
)

const testSecret = "test-secret-key-with-at-least-32-characters"

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newConcept(t *testing.T) (*Concept, *clock) {
	t.Helper()
	c, err := New(docstore.NewMemory(), &config.SecurityConfig{
		JWTSecret:      testSecret,
		SessionTimeout: time.Hour,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	clk := &clock{t: time.Now().Truncate(time.Second)}
	c.now = clk.now
	return c, clk
}

func TestNewRequiresSecret(t *testing.T) {
	if _, err := New(docstore.NewMemory(), &config.SecurityConfig{}); err == nil {
		t.Error("expected error for empty JWT secret")
	}
}

func TestCreateAndResolve(t *testing.T) {
	ctx := context.Background()
	c, _ := newConcept(t)

	token, err := c.Create(ctx, "user-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Errorf("token %q is not a JWT", token)
	}

	user, err := c.GetUser(ctx, token)
	if err != nil || user != "user-1" {
		t.Errorf("GetUser() = %q, %v; want user-1", user, err)
	}
}

func TestGetUserRejects(t *testing.T) {
	ctx := context.Background()
	c, _ := newConcept(t)
	valid, err := c.Create(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}

	other, err := New(docstore.NewMemory(), &config.SecurityConfig{JWTSecret: "another-secret-key-that-is-32-chars-long"})
	if err != nil {
		t.Fatal(err)
	}
	foreign, err := other.Create(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{User: "user-1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"tampered", valid + "x"},
		{"wrong secret", foreign},
		{"alg none", unsigned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := c.GetUser(ctx, tt.token)
			if err != nil || user != "" {
				t.Errorf("GetUser() = %q, %v; want empty", user, err)
			}
		})
	}
}

func TestExpiry(t *testing.T) {
	ctx := context.Background()
	c, clk := newConcept(t)
	token, err := c.Create(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}

	clk.advance(59 * time.Minute)
	if user, _ := c.GetUser(ctx, token); user != "user-1" {
		t.Errorf("session expired early")
	}
	clk.advance(2 * time.Minute)
	if user, _ := c.GetUser(ctx, token); user != "" {
		t.Errorf("expired session resolved to %q", user)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	c, _ := newConcept(t)
	token, err := c.Create(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Delete(ctx, token); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if user, _ := c.GetUser(ctx, token); user != "" {
		t.Errorf("deleted session resolved to %q", user)
	}

	for _, tok := range []string{token, "", "garbage"} {
		err := c.Delete(ctx, tok)
		if err == nil || err.Error() != "Session not found" {
			t.Errorf("Delete(%q) error = %v, want Session not found", tok, err)
		}
	}
}

func TestPurgeExpired(t *testing.T) {
	ctx := context.Background()
	c, clk := newConcept(t)

	old, err := c.Create(ctx, "old")
	if err != nil {
		t.Fatal(err)
	}
	clk.advance(30 * time.Minute)
	fresh, err := c.Create(ctx, "fresh")
	if err != nil {
		t.Fatal(err)
	}
	clk.advance(45 * time.Minute)

	n, err := c.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("PurgeExpired: %v", err)
	}
	if n != 1 {
		t.Errorf("purged %d sessions, want 1", n)
	}
	if err := c.Delete(ctx, old); err == nil {
		t.Error("expired session still stored")
	}
	if user, _ := c.GetUser(ctx, fresh); user != "fresh" {
		t.Errorf("fresh session resolved to %q", user)
	}
}

func TestActions(t *testing.T) {
	ctx := context.Background()
	c, _ := newConcept(t)
	e := engine.New()
	if err := c.RegisterActions(e); err != nil {
		t.Fatal(err)
	}

	out, err := e.Invoke(ctx, "", Create, engine.Args{"user": "u"})
	if err != nil {
		t.Fatal(err)
	}
	token, _ := out["session"].(string)
	if token == "" {
		t.Fatalf("create output = %v", out)
	}

	rows, err := c.GetUserQuery(ctx, engine.Args{"session": token})
	if err != nil || len(rows) != 1 || rows[0]["user"] != "u" {
		t.Errorf("_getUser = %v, %v", rows, err)
	}
	for _, in := range []engine.Args{{}, {"session": nil}, {"session": 42}} {
		rows, err := c.GetUserQuery(ctx, in)
		if err != nil || len(rows) != 0 {
			t.Errorf("_getUser(%v) = %v, %v; want no rows", in, rows, err)
		}
	}

	out, _ = e.Invoke(ctx, "", Delete, engine.Args{"session": token})
	if len(out) != 0 {
		t.Errorf("delete output = %v, want {}", out)
	}
	out, _ = e.Invoke(ctx, "", Delete, engine.Args{"session": token})
	if out["error"] != "Session not found" {
		t.Errorf("second delete output = %v", out)
	}
}
