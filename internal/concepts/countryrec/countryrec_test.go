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
	"sync"
	"testing"

	"github.com/tomtom215/songpassport/internal/config"
	"github.com/tomtom215/songpassport/internal/docstore"
	"github.com/tomtom215/songpassport/internal/engine"
	"github.com/tomtom215/songpassport/internal/llm"
	"github.com/tomtom215/songpassport/internal/youtube"
)

type fakeGenerator struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   int
	vocab   []int
	prompts []string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string, vocabSize int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.vocab = append(f.vocab, vocabSize)
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "[]", nil
	}
	r := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return r, nil
}

// songsJSON renders n distinct songs starting at index from.
func songsJSON(from, n int) string {
	parts := make([]string, 0, n)
	for i := from; i < from+n; i++ {
		parts = append(parts, fmt.Sprintf(`{"songTitle":"Song %d","artist":"Artist %d","language":"Japanese","genre":"Pop"}`, i, i))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

type fakeResolver struct{}

func (fakeResolver) Resolve(_ context.Context, title, _ string) (string, error) {
	if title == "Song 1" {
		return "", errors.New("quota exceeded")
	}
	return "https://www.youtube.com/watch?v=" + strings.ReplaceAll(title, " ", ""), nil
}

func newConcept(t *testing.T, gen *fakeGenerator, opts ...Option) (*Concept, docstore.Store) {
	t.Helper()
	store := docstore.NewMemory()
	opts = append([]Option{WithSeed(1)}, opts...)
	var g llm.Generator
	if gen != nil {
		g = gen
	}
	return New(store, g, fakeResolver{}, opts...), store
}

// seedCountry stores a country with n system and m community recs.
func seedCountry(t *testing.T, store docstore.Store, name string, n, m int) {
	t.Helper()
	ctx := context.Background()
	country := Country{Name: name}
	for i := 0; i < n+m; i++ {
		rec := Recommendation{
			ID:        fmt.Sprintf("%s-rec-%d", name, i),
			SongTitle: fmt.Sprintf("Stored %d", i),
			Artist:    "Someone",
			RecType:   System,
		}
		if i >= n {
			rec.RecType = Community
		}
		country.Recommendations = append(country.Recommendations, rec)
		if err := store.Collection(recommendationsCollection).Insert(ctx, rec.ID, &recDoc{Recommendation: rec, Country: name}); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.Collection(countriesCollection).Insert(ctx, name, &country); err != nil {
		t.Fatal(err)
	}
}

func TestGetSystemRecsBelowBaselineCallsLLM(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{replies: []string{songsJSON(0, 3)}}
	c, _ := newConcept(t, gen)

	recs, err := c.GetSystemRecs(ctx, "Japan")
	if err != nil {
		t.Fatalf("GetSystemRecs: %v", err)
	}
	if gen.calls != 1 || gen.vocab[0] != 0 {
		t.Errorf("LLM calls = %d, vocab = %v", gen.calls, gen.vocab)
	}
	if len(recs) != 3 {
		t.Fatalf("got %d recs, want 3", len(recs))
	}
	for _, r := range recs {
		if r.RecType != System || r.ID == "" {
			t.Errorf("rec = %+v", r)
		}
	}
	if recs[0].YouTubeURL != "https://www.youtube.com/watch?v=Song0" {
		t.Errorf("resolved url = %q", recs[0].YouTubeURL)
	}
	if recs[1].YouTubeURL != youtube.SearchURL("Song 1", "Artist 1") {
		t.Errorf("fallback url = %q", recs[1].YouTubeURL)
	}

	countries, _ := c.Countries(ctx)
	if len(countries) != 1 || countries[0] != "Japan" {
		t.Errorf("countries = %v", countries)
	}
	got, err := c.GetRecommendation(ctx, recs[2].ID)
	if err != nil || got == nil || got.SongTitle != "Song 2" {
		t.Errorf("GetRecommendation = %+v, %v", got, err)
	}
}

func TestGetSystemRecsAtBaselineStillCallsLLM(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{replies: []string{songsJSON(100, 3)}}
	c, store := newConcept(t, gen)
	seedCountry(t, store, "Peru", 9, 0)

	if _, err := c.GetSystemRecs(ctx, "Peru"); err != nil {
		t.Fatal(err)
	}
	if gen.calls != 1 || gen.vocab[0] != 9 {
		t.Errorf("LLM calls = %d, vocab = %v; want one call with vocab 9", gen.calls, gen.vocab)
	}
	if !strings.Contains(gen.prompts[0], "Stored 3 by Someone") {
		t.Errorf("prompt does not list known songs:\n%s", gen.prompts[0])
	}
}

func TestGetSystemRecsAboveBaseline(t *testing.T) {
	ctx := context.Background()

	t.Run("samples stored recs when p is tiny", func(t *testing.T) {
		gen := &fakeGenerator{}
		c, store := newConcept(t, gen, WithSettings(Settings{QueryQuantity: 3, BaselineMultiplier: 3, LLMCallScale: 1e-9}))
		seedCountry(t, store, "Kenya", 10, 2)

		for i := 0; i < 20; i++ {
			recs, err := c.GetSystemRecs(ctx, "Kenya")
			if err != nil {
				t.Fatal(err)
			}
			if len(recs) != 3 {
				t.Fatalf("got %d recs, want 3", len(recs))
			}
			seen := map[string]bool{}
			for _, r := range recs {
				if r.RecType != System || seen[r.ID] {
					t.Fatalf("bad sample %+v", recs)
				}
				seen[r.ID] = true
			}
		}
		if gen.calls != 0 {
			t.Errorf("LLM called %d times", gen.calls)
		}
	})

	t.Run("calls LLM when p is near one", func(t *testing.T) {
		gen := &fakeGenerator{replies: []string{songsJSON(0, 3)}}
		c, store := newConcept(t, gen, WithSettings(Settings{QueryQuantity: 3, BaselineMultiplier: 3, LLMCallScale: 1e12}))
		seedCountry(t, store, "Chile", 10, 0)

		if _, err := c.GetSystemRecs(ctx, "Chile"); err != nil {
			t.Fatal(err)
		}
		if gen.calls != 1 {
			t.Errorf("LLM called %d times, want 1", gen.calls)
		}
	})
}

func TestGetNewRecsSkipsKnownSongs(t *testing.T) {
	ctx := context.Background()
	reply := `[
		{"songTitle":"Stored 0","artist":"someone","language":"Spanish","genre":"Rock"},
		{"songTitle":"New A","artist":"X","language":"Spanish"},
		{"songTitle":"New A","artist":"X","language":"Spanish"},
		{"songTitle":"","artist":"Nobody"},
		{"songTitle":"New B","artist":"Y","language":"Spanish"}
	]`
	gen := &fakeGenerator{replies: []string{reply}}
	c, store := newConcept(t, gen)
	seedCountry(t, store, "Spain", 1, 0)

	recs, err := c.GetNewRecs(ctx, "Spain")
	if err != nil {
		t.Fatal(err)
	}
	var titles []string
	for _, r := range recs {
		titles = append(titles, r.SongTitle)
	}
	if len(titles) != 2 || titles[0] != "New A" || titles[1] != "New B" {
		t.Errorf("new titles = %v, want [New A New B]", titles)
	}
}

func TestGetNewRecsErrors(t *testing.T) {
	ctx := context.Background()
	const prefix = "Error generating new recommendations. ERROR: "

	tests := []struct {
		name string
		gen  *fakeGenerator
		want string
	}{
		{"disabled", nil, prefix + "LLM is disabled"},
		{"upstream", &fakeGenerator{err: errors.New("503")}, prefix + "503"},
		{"bad json", &fakeGenerator{replies: []string{"not json"}}, prefix + "invalid LLM response"},
		{"no songs", &fakeGenerator{replies: []string{"[]"}}, prefix + "LLM response contained no songs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newConcept(t, tt.gen)
			_, err := c.GetSystemRecs(ctx, "Japan")
			if err == nil || !strings.HasPrefix(err.Error(), tt.want) {
				t.Fatalf("error = %v, want prefix %q", err, tt.want)
			}
			if _, ok := engine.AsActionError(err); !ok {
				t.Errorf("%v is not an action error", err)
			}
		})
	}
}

func TestGetSystemRecsEmptyCountry(t *testing.T) {
	c, _ := newConcept(t, &fakeGenerator{})
	_, err := c.GetSystemRecs(context.Background(), " ")
	if err == nil || !strings.HasPrefix(err.Error(), "Error retrieving system recommendations. ERROR: ") {
		t.Errorf("error = %v", err)
	}
	_, err = c.GetCommunityRecs(context.Background(), "")
	if err == nil || !strings.HasPrefix(err.Error(), "Error retrieving community recommendations. ERROR: ") {
		t.Errorf("error = %v", err)
	}
}

func TestCreateCountryTwice(t *testing.T) {
	ctx := context.Background()
	c, _ := newConcept(t, nil)
	if err := c.createCountry(ctx, "Japan"); err != nil {
		t.Fatal(err)
	}
	err := c.createCountry(ctx, "Japan")
	if err == nil || err.Error() != "Country Japan already exists" {
		t.Errorf("error = %v", err)
	}
}

func TestCommunityRecs(t *testing.T) {
	ctx := context.Background()
	c, _ := newConcept(t, nil)

	recs, err := c.GetCommunityRecs(ctx, "Brazil")
	if err != nil || len(recs) != 0 {
		t.Fatalf("GetCommunityRecs on new country = %v, %v", recs, err)
	}

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := c.AddCommunityRec(ctx, "Brazil", fmt.Sprintf("Samba %d", i), "Band", "Portuguese", "https://youtu.be/x", "")
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}
	recs, _ = c.GetCommunityRecs(ctx, "Brazil")
	if len(recs) != 3 {
		t.Errorf("got %d recs, want all 3", len(recs))
	}

	if _, err := c.AddCommunityRec(ctx, "Brazil", "Samba 3", "Band", "Portuguese", "", "Samba"); err != nil {
		t.Fatal(err)
	}
	recs, _ = c.GetCommunityRecs(ctx, "Brazil")
	if len(recs) != 3 {
		t.Errorf("got %d recs, want a sample of 3", len(recs))
	}

	rec, _ := c.GetRecommendation(ctx, ids[0])
	if rec == nil || rec.RecType != Community || rec.YouTubeURL != "https://youtu.be/x" {
		t.Errorf("stored rec = %+v", rec)
	}
}

func TestAddCommunityRecValidation(t *testing.T) {
	ctx := context.Background()
	c, _ := newConcept(t, nil)

	if _, err := c.AddCommunityRec(ctx, "Japan", "", "A", "", "", ""); err == nil || err.Error() != "Song title cannot be empty." {
		t.Errorf("empty title error = %v", err)
	}
	if _, err := c.AddCommunityRec(ctx, "Japan", "T", " ", "", "", ""); err == nil || err.Error() != "Artist cannot be empty." {
		t.Errorf("empty artist error = %v", err)
	}
	for _, country := range []string{"", "  "} {
		_, err := c.AddCommunityRec(ctx, country, "Lemon", "Kenshi Yonezu", "", "", "")
		if err == nil || err.Error() != "Country name cannot be empty." {
			t.Errorf("country %q error = %v", country, err)
		}
		if _, ok := engine.AsActionError(err); !ok {
			t.Errorf("country %q: %v is not an action error", country, err)
		}
	}

	id, err := c.AddCommunityRec(ctx, "Japan", "Lemon", "Kenshi Yonezu", "Japanese", "", "")
	if err != nil {
		t.Fatal(err)
	}
	rec, _ := c.GetRecommendation(ctx, id)
	if rec.YouTubeURL != "https://www.youtube.com/watch?v=Lemon" {
		t.Errorf("resolved url = %q", rec.YouTubeURL)
	}
}

func TestRemoveCommunityRec(t *testing.T) {
	ctx := context.Background()
	c, store := newConcept(t, nil)
	seedCountry(t, store, "India", 1, 1)

	tests := []struct {
		id      string
		wantErr string
	}{
		{"missing", "Recommendation 'missing' not found."},
		{"India-rec-0", "Recommendation 'India-rec-0' is not a community recommendation."},
		{"India-rec-1", ""},
		{"India-rec-1", "Recommendation 'India-rec-1' not found."},
	}
	for _, tt := range tests {
		err := c.RemoveCommunityRec(ctx, tt.id)
		if tt.wantErr == "" {
			if err != nil {
				t.Fatalf("RemoveCommunityRec(%s): %v", tt.id, err)
			}
			continue
		}
		if err == nil || err.Error() != tt.wantErr {
			t.Errorf("RemoveCommunityRec(%s) error = %v, want %q", tt.id, err, tt.wantErr)
		}
	}

	recs, _ := c.GetCommunityRecs(ctx, "India")
	if len(recs) != 0 {
		t.Errorf("community recs after removal = %v", recs)
	}
}

func TestParseCandidates(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    int
		wantErr bool
	}{
		{"array", `[{"songTitle":"a","artist":"b"}]`, 1, false},
		{"fenced", "```json\n[{\"songTitle\":\"a\",\"artist\":\"b\"}]\n```", 1, false},
		{"wrapped", `{"songs":[{"songTitle":"a","artist":"b"},{"songTitle":"c","artist":"d"}]}`, 2, false},
		{"missing fields", `[{"songTitle":"a"}]`, 0, true},
		{"garbage", `hello`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCandidates(tt.text)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != tt.want {
				t.Errorf("got %d candidates, want %d", len(got), tt.want)
			}
		})
	}
}

func TestSettingsFromConfig(t *testing.T) {
	s := SettingsFromConfig(config.RecommendConfig{QueryQuantity: 5})
	if s.QueryQuantity != 5 || s.BaselineMultiplier != 3 || s.LLMCallScale != 20 {
		t.Errorf("settings = %+v", s)
	}
}

func TestActions(t *testing.T) {
	ctx := context.Background()
	c, _ := newConcept(t, &fakeGenerator{replies: []string{songsJSON(0, 3)}})
	e := engine.New()
	if err := c.RegisterActions(e); err != nil {
		t.Fatal(err)
	}

	out, err := e.Invoke(ctx, "", GetSystemRecs, engine.Args{"countryName": "Japan"})
	if err != nil {
		t.Fatal(err)
	}
	if recs, ok := out["recommendations"].([]Recommendation); !ok || len(recs) != 3 {
		t.Errorf("getSystemRecs output = %v", out)
	}

	out, _ = e.Invoke(ctx, "", AddCommunityRec, engine.Args{
		"countryName": "Japan", "title": "Lemon", "artist": "Kenshi Yonezu",
		"language": "Japanese", "url": "https://youtu.be/lemon", "genre": nil,
	})
	recID, _ := out["recId"].(string)
	if recID == "" {
		t.Fatalf("addCommunityRec output = %v", out)
	}

	rows, err := c.GetRecommendationQuery(ctx, engine.Args{"recId": recID})
	if err != nil || len(rows) != 1 {
		t.Fatalf("_getRecommendation = %v, %v", rows, err)
	}
	rows, _ = c.GetCountriesQuery(ctx, nil)
	if len(rows) != 1 || rows[0]["countryName"] != "Japan" {
		t.Errorf("_getCountries = %v", rows)
	}

	out, _ = e.Invoke(ctx, "", RemoveCommunityRec, engine.Args{"recId": recID})
	if len(out) != 0 {
		t.Errorf("removeCommunityRec output = %v", out)
	}
	out, _ = e.Invoke(ctx, "", RemoveCommunityRec, engine.Args{"recId": recID})
	if out["error"] != "Recommendation '"+recID+"' not found." {
		t.Errorf("second removeCommunityRec output = %v", out)
	}
}
