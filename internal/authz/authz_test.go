// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package authz

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/songpassport/internal/config"
	"github.com/tomtom215/songpassport/internal/engine"
)

func newTestEnforcer(t *testing.T, cacheEnabled bool) *Enforcer {
	t.Helper()
	e, err := NewEnforcer(config.CasbinConfig{
		Admins:       []string{"root"},
		Moderators:   []string{"mod"},
		CacheEnabled: cacheEnabled,
		CacheTTL:     time.Minute,
	})
	if err != nil {
		t.Fatalf("NewEnforcer: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func TestEnforcerRoles(t *testing.T) {
	for _, cached := range []bool{false, true} {
		e := newTestEnforcer(t, cached)
		tests := []struct {
			username string
			path     string
			want     bool
		}{
			{"alice", "/Playlist/createPlaylist", true},
			{"alice", "/Passport/logExploration", true},
			{"alice", "/Reporting/InitializeObject", true},
			{"alice", "/CountryRecommendation/getNewRecs", true},
			{"alice", "/CountryRecommendation/addCommunityRec", true},
			{"alice", "/CountryRecommendation/removeCommunityRec", false},
			{"mod", "/CountryRecommendation/removeCommunityRec", true},
			{"mod", "/Playlist/addSong", true},
			{"alice", "/Reporting/_getReporters", false},
			{"mod", "/Reporting/_getReporters", true},
			{"root", "/CountryRecommendation/removeCommunityRec", true},
			{"root", "/Anything/else", true},
			{"alice", "/Anything/else", false},
			{"admin", "/Anything/else", false},
			{"moderator", "/CountryRecommendation/removeCommunityRec", false},
			{"user", "/Playlist/addSong", true},
		}
		for _, tt := range tests {
			// twice, so the cached path answers the second call
			for i := 0; i < 2; i++ {
				got, err := e.Allowed(context.Background(), tt.username, tt.path, ActionInvoke)
				if err != nil {
					t.Fatalf("Allowed(%s, %s): %v", tt.username, tt.path, err)
				}
				if got != tt.want {
					t.Errorf("cache=%v Allowed(%s, %s) = %v, want %v", cached, tt.username, tt.path, got, tt.want)
				}
			}
		}
	}
}

func TestAddRoleForUserInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	e := newTestEnforcer(t, true)
	const path = "/CountryRecommendation/removeCommunityRec"

	if ok, _ := e.Allowed(ctx, "bob", path, ActionInvoke); ok {
		t.Fatal("bob allowed before promotion")
	}
	if _, err := e.AddRoleForUser("bob", RoleModerator); err != nil {
		t.Fatal(err)
	}
	if ok, _ := e.Allowed(ctx, "bob", path, ActionInvoke); !ok {
		t.Error("bob denied after promotion")
	}
	roles, err := e.RolesForUser("bob")
	if err != nil || len(roles) != 1 || roles[0] != RoleModerator {
		t.Errorf("roles = %v, %v", roles, err)
	}
}

func TestCacheExpiry(t *testing.T) {
	c := newEnforcementCache(time.Minute)
	defer c.stop()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.set("user", "/Playlist/addSong", ActionInvoke, true)
	if allowed, ok := c.get("user", "/Playlist/addSong", ActionInvoke); !ok || !allowed {
		t.Fatalf("get = %v, %v", allowed, ok)
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.get("user", "/Playlist/addSong", ActionInvoke); ok {
		t.Error("expired entry still returned")
	}
	if n := c.evictExpired(); n != 1 {
		t.Errorf("evicted %d, want 1", n)
	}
	c.stop()
}

func TestAllowedQuery(t *testing.T) {
	names := map[string]string{"u1": "alice", "u2": "mod"}
	a := NewAuthorizer(newTestEnforcer(t, false), func(_ context.Context, id string) (string, error) {
		return names[id], nil
	})
	ctx := context.Background()
	const path = "/CountryRecommendation/removeCommunityRec"

	tests := []struct {
		user string
		rows int
	}{
		{"u1", 0},
		{"u2", 1},
		{"unknown", 0},
	}
	for _, tt := range tests {
		rows, err := a.AllowedQuery(ctx, engine.Args{"user": tt.user, "path": path})
		if err != nil {
			t.Fatalf("AllowedQuery(%s): %v", tt.user, err)
		}
		if len(rows) != tt.rows {
			t.Errorf("AllowedQuery(%s) = %d rows, want %d", tt.user, len(rows), tt.rows)
		}
	}

	if _, err := a.AllowedQuery(ctx, engine.Args{"path": path}); err == nil {
		t.Error("missing user accepted")
	}

	for _, tt := range tests {
		rows, err := a.DeniedQuery(ctx, engine.Args{"user": tt.user, "path": path})
		if err != nil {
			t.Fatalf("DeniedQuery(%s): %v", tt.user, err)
		}
		if len(rows) != 1-tt.rows {
			t.Errorf("DeniedQuery(%s) = %d rows, want %d", tt.user, len(rows), 1-tt.rows)
		}
	}
	if _, err := a.DeniedQuery(ctx, engine.Args{"user": "u1"}); err == nil {
		t.Error("missing path accepted")
	}
}
