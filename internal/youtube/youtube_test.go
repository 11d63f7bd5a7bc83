// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package youtube

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/songpassport/internal/breaker"
	"github.com/tomtom215/songpassport/internal/config"
)

func TestSearchURL(t *testing.T) {
	got := SearchURL("Gangnam Style", "PSY")
	want := "https://www.youtube.com/results?search_query=Gangnam+Style+PSY"
	if got != want {
		t.Errorf("SearchURL() = %q, want %q", got, want)
	}
}

func TestNewWithoutKeyUsesSearchURL(t *testing.T) {
	c, err := New(context.Background(), config.YouTubeConfig{})
	if err != nil {
		t.Fatal(err)
	}
	got, err := c.Resolve(context.Background(), "Despacito", "Luis Fonsi")
	if err != nil || got != SearchURL("Despacito", "Luis Fonsi") {
		t.Errorf("Resolve() = %q, %v", got, err)
	}
}

func TestResolve(t *testing.T) {
	var queries []string
	c := newClient(config.YouTubeConfig{RequestsPerSecond: 1000, Burst: 10}, func(_ context.Context, q string) (string, error) {
		queries = append(queries, q)
		if q == "missing song" {
			return "", ErrNoResults
		}
		return "abc123", nil
	})

	got, err := c.Resolve(context.Background(), "Song", "Artist")
	if err != nil || got != "https://www.youtube.com/watch?v=abc123" {
		t.Errorf("Resolve() = %q, %v", got, err)
	}
	if len(queries) != 1 || queries[0] != "Song Artist" {
		t.Errorf("queries = %v", queries)
	}

	if _, err := c.Resolve(context.Background(), "missing", "song"); !errors.Is(err, ErrNoResults) {
		t.Errorf("err = %v, want ErrNoResults", err)
	}

	got, err = c.Resolve(context.Background(), "song", "ARTIST")
	if err != nil || got != "https://www.youtube.com/watch?v=abc123" {
		t.Errorf("cached Resolve() = %q, %v", got, err)
	}
	if len(queries) != 2 {
		t.Errorf("queries = %v, want the repeated song served from cache", queries)
	}
}

func TestResolveNoResultsKeepsBreakerClosed(t *testing.T) {
	c := newClient(config.YouTubeConfig{RequestsPerSecond: 1000, Burst: 50}, func(_ context.Context, q string) (string, error) {
		if strings.HasPrefix(q, "obscure") {
			return "", ErrNoResults
		}
		return "xyz", nil
	})

	for i := 0; i < 20; i++ {
		if _, err := c.Resolve(context.Background(), fmt.Sprintf("obscure %d", i), "nobody"); !errors.Is(err, ErrNoResults) {
			t.Fatalf("Resolve %d: err = %v, want ErrNoResults", i, err)
		}
	}
	if got := c.breaker.State(); got != gobreaker.StateClosed {
		t.Fatalf("breaker = %s after empty searches, want closed", breaker.StateString(got))
	}
	got, err := c.Resolve(context.Background(), "Jolene", "Dolly Parton")
	if err != nil || got != "https://www.youtube.com/watch?v=xyz" {
		t.Errorf("Resolve() = %q, %v", got, err)
	}
}

func TestResolveRespectsCancelledContext(t *testing.T) {
	c := newClient(config.YouTubeConfig{RequestsPerSecond: 0.001, Burst: 1}, func(context.Context, string) (string, error) {
		return "id", nil
	})
	// drain the single token
	if _, err := c.Resolve(context.Background(), "a", "b"); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Resolve(ctx, "c", "d"); err == nil {
		t.Error("expected rate limiter error on cancelled context")
	}
}

type stubResolver struct {
	url string
	err error
}

func (s stubResolver) Resolve(context.Context, string, string) (string, error) { return s.url, s.err }

func TestResolveOrSearch(t *testing.T) {
	ctx := context.Background()
	fallback := SearchURL("t", "a")

	tests := []struct {
		name string
		r    Resolver
		want string
	}{
		{"nil resolver", nil, fallback},
		{"resolved", stubResolver{url: "https://www.youtube.com/watch?v=x"}, "https://www.youtube.com/watch?v=x"},
		{"failed", stubResolver{err: errors.New("quota")}, fallback},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveOrSearch(ctx, tt.r, "t", "a"); got != tt.want {
				t.Errorf("ResolveOrSearch() = %q, want %q", got, tt.want)
			}
		})
	}
}
