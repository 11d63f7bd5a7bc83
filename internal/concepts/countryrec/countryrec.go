// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

// Package countryrec implements the CountryRecommendation concept: curated
// (system) and user-added (community) song recommendations per country.
//
// System recommendations come from an LLM. While a country has few of them,
// every request asks the LLM for more; once the pool is larger, the chance
// of another LLM call decays as LLMCallScale / (n + LLMCallScale) and the
// remaining requests sample from the stored pool.
//
// Each country document embeds its recommendations. A second collection
// holds one document per recommendation so they can be found by id.
package countryrec

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/songpassport/internal/config"
	"github.com/tomtom215/songpassport/internal/docstore"
	"github.com/tomtom215/songpassport/internal/engine"
	"github.com/tomtom215/songpassport/internal/llm"
	"github.com/tomtom215/songpassport/internal/logging"
	"github.com/tomtom215/songpassport/internal/metrics"
	"github.com/tomtom215/songpassport/internal/youtube"
)

const (
	countriesCollection       = "CountryRecommendation.countries"
	recommendationsCollection = "CountryRecommendation.recommendations"
)

// RecType distinguishes LLM-curated from user-added recommendations.
type RecType string

const (
	System    RecType = "SYSTEM"
	Community RecType = "COMMUNITY"
)

// Recommendation is one song recommended for a country.
type Recommendation struct {
	ID         string  `json:"_id"`
	SongTitle  string  `json:"songTitle"`
	Artist     string  `json:"artist"`
	Language   string  `json:"language"`
	YouTubeURL string  `json:"youtubeURL"`
	RecType    RecType `json:"recType"`
	Genre      string  `json:"genre,omitempty"`
}

// Country is a country and its recommendations.
type Country struct {
	Name            string           `json:"_id"`
	Recommendations []Recommendation `json:"recommendations"`
}

// recDoc is the per-recommendation lookup document.
type recDoc struct {
	Recommendation
	Country string `json:"country"`
}

// Settings are the selection constants.
type Settings struct {
	QueryQuantity      int
	BaselineMultiplier int
	LLMCallScale       float64
}

// DefaultSettings returns QueryQuantity 3, BaselineMultiplier 3 and
// LLMCallScale 20.
func DefaultSettings() Settings {
	return Settings{QueryQuantity: 3, BaselineMultiplier: 3, LLMCallScale: 20}
}

// SettingsFromConfig fills unset values from DefaultSettings.
func SettingsFromConfig(cfg config.RecommendConfig) Settings {
	s := DefaultSettings()
	if cfg.QueryQuantity > 0 {
		s.QueryQuantity = cfg.QueryQuantity
	}
	if cfg.BaselineMultiplier > 0 {
		s.BaselineMultiplier = cfg.BaselineMultiplier
	}
	if cfg.LLMCallScale > 0 {
		s.LLMCallScale = cfg.LLMCallScale
	}
	return s
}

// Concept stores recommendations and generates new ones.
type Concept struct {
	countries docstore.Collection
	recs      docstore.Collection
	gen       llm.Generator
	resolver  youtube.Resolver
	settings  Settings

	rng   *rand.Rand
	rngMu sync.Mutex
}

// Option configures a Concept.
type Option func(*Concept)

// WithSeed makes random selection deterministic.
func WithSeed(seed int64) Option {
	return func(c *Concept) {
		c.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // math/rand is fine for recommendation shuffling
	}
}

// WithSettings overrides the selection constants.
func WithSettings(s Settings) Option {
	return func(c *Concept) { c.settings = s }
}

// New creates the concept. gen may be nil, in which case generating new
// recommendations fails; resolver may be nil, in which case songs get
// YouTube search URLs.
func New(store docstore.Store, gen llm.Generator, resolver youtube.Resolver, opts ...Option) *Concept {
	c := &Concept{
		countries: store.Collection(countriesCollection),
		recs:      store.Collection(recommendationsCollection),
		gen:       gen,
		resolver:  resolver,
		settings:  DefaultSettings(),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // math/rand is fine for recommendation shuffling
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// createCountry adds an empty country.
func (c *Concept) createCountry(ctx context.Context, name string) error {
	err := c.countries.Insert(ctx, name, &Country{Name: name, Recommendations: []Recommendation{}})
	if errors.Is(err, docstore.ErrDuplicate) {
		return engine.Failf("Country %s already exists", name)
	}
	if err != nil {
		return fmt.Errorf("failed to create country %s: %w", name, err)
	}
	logging.Ctx(ctx).Info().Str("country", name).Msg("Created country")
	return nil
}

var errEmptyCountry = engine.Failf("Country name cannot be empty.")

// country loads a country, creating it on first use.
func (c *Concept) country(ctx context.Context, name string) (*Country, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errEmptyCountry
	}
	var country Country
	err := c.countries.Get(ctx, name, &country)
	if errors.Is(err, docstore.ErrNotFound) {
		if err := c.createCountry(ctx, name); err != nil {
			if _, exists := engine.AsActionError(err); !exists {
				return nil, err
			}
		}
		err = c.countries.Get(ctx, name, &country)
	}
	if err != nil {
		return nil, err
	}
	return &country, nil
}

// GetSystemRecs returns system recommendations for a country, sometimes
// generating new ones.
func (c *Concept) GetSystemRecs(ctx context.Context, countryName string) ([]Recommendation, error) {
	country, err := c.country(ctx, countryName)
	if err != nil {
		return nil, engine.Failf("Error retrieving system recommendations. ERROR: %v", err)
	}

	systemRecs := filterType(country.Recommendations, System)
	if len(systemRecs) <= c.settings.QueryQuantity*c.settings.BaselineMultiplier {
		return c.GetNewRecs(ctx, countryName)
	}

	p := c.settings.LLMCallScale / (float64(len(systemRecs)) + c.settings.LLMCallScale)
	if c.float64() < p {
		return c.GetNewRecs(ctx, countryName)
	}
	return c.sample(systemRecs), nil
}

// GetCommunityRecs returns up to QueryQuantity community recommendations.
func (c *Concept) GetCommunityRecs(ctx context.Context, countryName string) ([]Recommendation, error) {
	country, err := c.country(ctx, countryName)
	if err != nil {
		return nil, engine.Failf("Error retrieving community recommendations. ERROR: %v", err)
	}

	communityRecs := filterType(country.Recommendations, Community)
	if len(communityRecs) <= c.settings.QueryQuantity {
		return communityRecs, nil
	}
	return c.sample(communityRecs), nil
}

// AddCommunityRec stores a user-added recommendation and returns its id.
// An empty url is resolved through YouTube.
func (c *Concept) AddCommunityRec(ctx context.Context, countryName, title, artist, language, url, genre string) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", engine.Failf("Song title cannot be empty.")
	}
	if strings.TrimSpace(artist) == "" {
		return "", engine.Failf("Artist cannot be empty.")
	}
	if strings.TrimSpace(countryName) == "" {
		return "", errEmptyCountry
	}
	if _, err := c.country(ctx, countryName); err != nil {
		return "", fmt.Errorf("failed to load country %s: %w", countryName, err)
	}
	if url == "" {
		url = youtube.ResolveOrSearch(ctx, c.resolver, title, artist)
	}

	rec := Recommendation{
		ID:         uuid.NewString(),
		SongTitle:  title,
		Artist:     artist,
		Language:   language,
		YouTubeURL: url,
		RecType:    Community,
		Genre:      genre,
	}

	var country Country
	err := c.countries.Update(ctx, countryName, &country, func() error {
		country.Recommendations = append(country.Recommendations, rec)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to add recommendation: %w", err)
	}
	if err := c.recs.Insert(ctx, rec.ID, &recDoc{Recommendation: rec, Country: countryName}); err != nil {
		return "", fmt.Errorf("failed to index recommendation: %w", err)
	}
	metrics.RecommendationsGenerated.WithLabelValues(string(Community)).Inc()
	return rec.ID, nil
}

// RemoveCommunityRec deletes a community recommendation.
func (c *Concept) RemoveCommunityRec(ctx context.Context, recID string) error {
	var doc recDoc
	err := c.recs.Get(ctx, recID, &doc)
	if errors.Is(err, docstore.ErrNotFound) {
		return engine.Failf("Recommendation '%s' not found.", recID)
	}
	if err != nil {
		return fmt.Errorf("failed to load recommendation: %w", err)
	}
	if doc.RecType != Community {
		return engine.Failf("Recommendation '%s' is not a community recommendation.", recID)
	}

	var country Country
	err = c.countries.Update(ctx, doc.Country, &country, func() error {
		kept := country.Recommendations[:0]
		for _, r := range country.Recommendations {
			if r.ID != recID {
				kept = append(kept, r)
			}
		}
		country.Recommendations = kept
		return nil
	})
	if err != nil && !errors.Is(err, docstore.ErrNotFound) {
		return fmt.Errorf("failed to remove recommendation: %w", err)
	}
	if err := c.recs.Delete(ctx, recID); err != nil && !errors.Is(err, docstore.ErrNotFound) {
		return fmt.Errorf("failed to remove recommendation: %w", err)
	}
	return nil
}

// GetRecommendation returns a recommendation by id, or nil.
func (c *Concept) GetRecommendation(ctx context.Context, recID string) (*Recommendation, error) {
	var doc recDoc
	err := c.recs.Get(ctx, recID, &doc)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc.Recommendation, nil
}

// Countries lists every known country name in order.
func (c *Concept) Countries(ctx context.Context) ([]string, error) {
	all, err := docstore.FindAll[Country](ctx, c.countries, nil)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(all))
	for _, country := range all {
		names = append(names, country.Name)
	}
	return names, nil
}

func filterType(recs []Recommendation, t RecType) []Recommendation {
	out := make([]Recommendation, 0, len(recs))
	for _, r := range recs {
		if r.RecType == t {
			out = append(out, r)
		}
	}
	return out
}

func (c *Concept) float64() float64 {
	c.rngMu.Lock()
	defer c.rngMu.Unlock()
	return c.rng.Float64()
}

// sample returns QueryQuantity recommendations chosen uniformly at random.
func (c *Concept) sample(recs []Recommendation) []Recommendation {
	shuffled := make([]Recommendation, len(recs))
	copy(shuffled, recs)

	c.rngMu.Lock()
	c.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	c.rngMu.Unlock()

	if len(shuffled) > c.settings.QueryQuantity {
		shuffled = shuffled[:c.settings.QueryQuantity]
	}
	return shuffled
}
