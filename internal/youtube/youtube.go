// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

// Package youtube resolves songs to YouTube video URLs with the YouTube Data
// API. Lookups are rate limited and go through a circuit breaker; when no
// API key is configured or a lookup fails, callers get a search URL instead.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"

	"github.com/tomtom215/songpassport/internal/breaker"
	"github.com/tomtom215/songpassport/internal/cache"
	"github.com/tomtom215/songpassport/internal/config"
	"github.com/tomtom215/songpassport/internal/logging"
	"github.com/tomtom215/songpassport/internal/metrics"
)

const (
	watchURL    = "https://www.youtube.com/watch?v="
	searchURL   = "https://www.youtube.com/results?search_query="
	serviceName = "youtube"

	// A search costs 100 quota units, so resolved songs are remembered.
	cacheSize = 4096
	cacheTTL  = 24 * time.Hour
)

// ErrNoResults is returned when a search finds no video.
var ErrNoResults = errors.New("no matching video")

// Resolver finds a URL for a song.
type Resolver interface {
	Resolve(ctx context.Context, title, artist string) (string, error)
}

type searchFunc func(ctx context.Context, query string) (string, error)

// Client searches YouTube for the first video matching "<title> <artist>".
type Client struct {
	search  searchFunc
	limiter *rate.Limiter
	breaker *breaker.Breaker[string]
	videos  *cache.LRU[string]
	timeout time.Duration
}

// New creates a client. Without an API key the client only builds search
// URLs and never calls the API.
func New(ctx context.Context, cfg config.YouTubeConfig) (*Client, error) {
	if cfg.APIKey == "" {
		logging.Warn().Msg("YouTube API key not set, recommendations will use search URLs")
		return newClient(cfg, nil), nil
	}

	svc, err := ytapi.NewService(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube client: %w", err)
	}

	logging.Info().Str("api_key", logging.MaskSecret(cfg.APIKey)).Msg("YouTube client initialized")
	return newClient(cfg, func(ctx context.Context, query string) (string, error) {
		resp, err := svc.Search.List([]string{"id"}).
			Q(query).
			Type("video").
			MaxResults(1).
			Context(ctx).
			Do()
		if err != nil {
			return "", err
		}
		for _, item := range resp.Items {
			if item.Id != nil && item.Id.VideoId != "" {
				return item.Id.VideoId, nil
			}
		}
		return "", ErrNoResults
	}), nil
}

func newClient(cfg config.YouTubeConfig, fn searchFunc) *Client {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		search:  fn,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		breaker: newBreaker(),
		videos:  cache.NewLRU[string](cacheSize, cacheTTL),
		timeout: cfg.Timeout,
	}
}

// newBreaker trips on upstream failures only; songs without a video are a
// normal answer.
func newBreaker() *breaker.Breaker[string] {
	s := breaker.Defaults()
	s.IsSuccessful = func(err error) bool { return errors.Is(err, ErrNoResults) }
	return breaker.NewWithSettings[string](serviceName, s)
}

// SearchURL returns the YouTube search page for a song.
func SearchURL(title, artist string) string {
	return searchURL + url.QueryEscape(query(title, artist))
}

func query(title, artist string) string {
	return strings.TrimSpace(title + " " + artist)
}

// Resolve returns the watch URL of the best match for the song.
// Successful lookups are cached.
func (c *Client) Resolve(ctx context.Context, title, artist string) (string, error) {
	if c.search == nil {
		return SearchURL(title, artist), nil
	}
	q := query(title, artist)
	if id, ok := c.videos.Get(strings.ToLower(q)); ok {
		return watchURL + id, nil
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("youtube rate limit: %w", err)
	}

	start := time.Now()
	id, err := c.breaker.Execute(func() (string, error) {
		return c.search(ctx, q)
	})
	metrics.RecordExternalCall(serviceName, time.Since(start), err)
	if err != nil {
		return "", fmt.Errorf("youtube search for %q: %w", q, err)
	}
	c.videos.Add(strings.ToLower(q), id)
	return watchURL + id, nil
}

// ResolveOrSearch is Resolve with the search URL as the fallback.
func ResolveOrSearch(ctx context.Context, r Resolver, title, artist string) string {
	if r == nil {
		return SearchURL(title, artist)
	}
	u, err := r.Resolve(ctx, title, artist)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("title", title).Str("artist", artist).Msg("YouTube lookup failed, using search URL")
		return SearchURL(title, artist)
	}
	return u
}
