// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

// Package passport implements the Passport concept: a per-user log of songs
// listened to while exploring countries.
package passport

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/songpassport/internal/docstore"
	"github.com/tomtom215/songpassport/internal/engine"
)

const entriesCollection = "Passport.entries"

// Entry is one logged exploration.
type Entry struct {
	ID       string    `json:"_id"`
	User     string    `json:"user"`
	Song     string    `json:"song"`
	Country  string    `json:"country"`
	LoggedAt time.Time `json:"loggedAt"`
}

type Concept struct {
	entries docstore.Collection
	now     func() time.Time
}

func New(store docstore.Store) *Concept {
	return &Concept{
		entries: store.Collection(entriesCollection),
		now:     time.Now,
	}
}

// LogExploration records that user listened to song from country.
func (c *Concept) LogExploration(ctx context.Context, user, song, country string) (string, error) {
	if strings.TrimSpace(song) == "" {
		return "", engine.Failf("Song cannot be empty.")
	}
	if strings.TrimSpace(country) == "" {
		return "", engine.Failf("Country cannot be empty.")
	}

	e := Entry{
		ID:       uuid.NewString(),
		User:     user,
		Song:     song,
		Country:  country,
		LoggedAt: c.now().UTC(),
	}
	if err := c.entries.Insert(ctx, e.ID, &e); err != nil {
		return "", fmt.Errorf("failed to log exploration: %w", err)
	}
	return e.ID, nil
}

// History returns the user's entries, oldest first.
func (c *Concept) History(ctx context.Context, user string) ([]Entry, error) {
	entries, err := docstore.FindAll[Entry](ctx, c.entries, docstore.Filter{"user": user})
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].LoggedAt.Before(entries[j].LoggedAt)
	})
	return entries, nil
}

// ExploredCountries returns the distinct countries in the user's history,
// sorted by name.
func (c *Concept) ExploredCountries(ctx context.Context, user string) ([]string, error) {
	entries, err := c.History(ctx, user)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(entries))
	countries := make([]string, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.Country]; ok {
			continue
		}
		seen[e.Country] = struct{}{}
		countries = append(countries, e.Country)
	}
	sort.Strings(countries)
	return countries, nil
}
