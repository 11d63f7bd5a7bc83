// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package countryrec

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/songpassport/internal/engine"
	"github.com/tomtom215/songpassport/internal/logging"
	"github.com/tomtom215/songpassport/internal/metrics"
	"github.com/tomtom215/songpassport/internal/youtube"
)

// maxPromptExclusions bounds how many stored songs are listed in the prompt.
const maxPromptExclusions = 100

var errLLMDisabled = errors.New("LLM is disabled")

// candidate is one song as returned by the LLM.
type candidate struct {
	SongTitle string `json:"songTitle"`
	Artist    string `json:"artist"`
	Language  string `json:"language"`
	Genre     string `json:"genre"`
}

// GetNewRecs asks the LLM for QueryQuantity new songs from the country,
// stores the ones not already known as system recommendations and returns
// them.
func (c *Concept) GetNewRecs(ctx context.Context, countryName string) ([]Recommendation, error) {
	recs, err := c.getNewRecs(ctx, countryName)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("country", countryName).Msg("Failed to generate recommendations")
		return nil, engine.Failf("Error generating new recommendations. ERROR: %v", err)
	}
	return recs, nil
}

func (c *Concept) getNewRecs(ctx context.Context, countryName string) ([]Recommendation, error) {
	if c.gen == nil {
		return nil, errLLMDisabled
	}
	country, err := c.country(ctx, countryName)
	if err != nil {
		return nil, err
	}
	known := filterType(country.Recommendations, System)

	text, err := c.gen.Generate(ctx, buildPrompt(countryName, c.settings.QueryQuantity, known), len(known))
	if err != nil {
		return nil, err
	}
	candidates, err := parseCandidates(text)
	if err != nil {
		return nil, err
	}

	fresh := make([]Recommendation, 0, len(candidates))
	seen := songKeys(country.Recommendations)
	for _, cand := range candidates {
		if len(fresh) == c.settings.QueryQuantity {
			break
		}
		key := songKey(cand.SongTitle, cand.Artist)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		fresh = append(fresh, Recommendation{
			ID:         uuid.NewString(),
			SongTitle:  strings.TrimSpace(cand.SongTitle),
			Artist:     strings.TrimSpace(cand.Artist),
			Language:   cand.Language,
			YouTubeURL: youtube.ResolveOrSearch(ctx, c.resolver, cand.SongTitle, cand.Artist),
			RecType:    System,
			Genre:      cand.Genre,
		})
	}
	if len(fresh) == 0 {
		return fresh, nil
	}

	// Another request may have stored some of the same songs meanwhile.
	var added []Recommendation
	var doc Country
	err = c.countries.Update(ctx, countryName, &doc, func() error {
		stored := songKeys(doc.Recommendations)
		added = added[:0]
		for _, r := range fresh {
			if _, dup := stored[songKey(r.SongTitle, r.Artist)]; !dup {
				added = append(added, r)
			}
		}
		doc.Recommendations = append(doc.Recommendations, added...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store recommendations: %w", err)
	}

	for _, r := range added {
		if err := c.recs.Insert(ctx, r.ID, &recDoc{Recommendation: r, Country: countryName}); err != nil {
			return nil, fmt.Errorf("failed to index recommendation: %w", err)
		}
	}
	metrics.RecommendationsGenerated.WithLabelValues(string(System)).Add(float64(len(added)))
	logging.Ctx(ctx).Info().Str("country", countryName).Int("added", len(added)).Msg("Stored new system recommendations")
	return added, nil
}

func buildPrompt(country string, n int, known []Recommendation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Recommend %d songs by artists from %s that a listener exploring music from %s should hear. ", n, country, country)
	b.WriteString("Prefer a mix of eras and genres, and songs in the country's own languages. ")
	b.WriteString(`Respond with a JSON array of objects with the string fields "songTitle", "artist", "language" and "genre". `)
	b.WriteString("Return only the JSON array.")

	if len(known) > 0 {
		b.WriteString("\nDo not recommend any of these songs:\n")
		start := 0
		if len(known) > maxPromptExclusions {
			start = len(known) - maxPromptExclusions
		}
		for _, r := range known[start:] {
			fmt.Fprintf(&b, "- %s by %s\n", r.SongTitle, r.Artist)
		}
	}
	return b.String()
}

// parseCandidates decodes the LLM's JSON, tolerating a markdown code fence
// and a wrapping object, and drops entries without a title or artist.
func parseCandidates(text string) ([]candidate, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var list []candidate
	if err := json.Unmarshal([]byte(text), &list); err != nil {
		var wrapped struct {
			Songs           []candidate `json:"songs"`
			Recommendations []candidate `json:"recommendations"`
		}
		if werr := json.Unmarshal([]byte(text), &wrapped); werr != nil {
			return nil, fmt.Errorf("invalid LLM response: %w", err)
		}
		list = append(wrapped.Songs, wrapped.Recommendations...)
	}

	out := list[:0]
	for _, cand := range list {
		if strings.TrimSpace(cand.SongTitle) == "" || strings.TrimSpace(cand.Artist) == "" {
			continue
		}
		out = append(out, cand)
	}
	if len(out) == 0 {
		return nil, errors.New("LLM response contained no songs")
	}
	return out, nil
}

func songKey(title, artist string) string {
	return strings.ToLower(strings.TrimSpace(title)) + "\x00" + strings.ToLower(strings.TrimSpace(artist))
}

func songKeys(recs []Recommendation) map[string]struct{} {
	keys := make(map[string]struct{}, len(recs))
	for _, r := range recs {
		keys[songKey(r.SongTitle, r.Artist)] = struct{}{}
	}
	return keys
}
