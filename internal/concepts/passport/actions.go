// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package passport

import (
	"context"
	"time"

	"github.com/tomtom215/songpassport/internal/engine"
)

const Name = "Passport"

var LogExploration = engine.Ref(Name, "logExploration")

// RegisterActions adds logExploration to e.
func (c *Concept) RegisterActions(e *engine.Engine) error {
	return e.Register(LogExploration, c.logExplorationAction)
}

func (c *Concept) logExplorationAction(ctx context.Context, in engine.Args) (engine.Args, error) {
	user, err := in.String("user")
	if err != nil {
		return nil, err
	}
	song, err := in.OptionalString("song")
	if err != nil {
		return nil, err
	}
	country, err := in.OptionalString("country")
	if err != nil {
		return nil, err
	}
	id, err := c.LogExploration(ctx, user, song, country)
	if err != nil {
		return nil, err
	}
	return engine.Args{"entry": id}, nil
}

// GetHistoryQuery returns [{entry, song, country, loggedAt}] for input {user}.
func (c *Concept) GetHistoryQuery(ctx context.Context, in engine.Args) ([]engine.Args, error) {
	user, err := in.String("user")
	if err != nil {
		return nil, err
	}
	entries, err := c.History(ctx, user)
	if err != nil {
		return nil, err
	}
	rows := make([]engine.Args, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, engine.Args{
			"entry":    e.ID,
			"song":     e.Song,
			"country":  e.Country,
			"loggedAt": e.LoggedAt.Format(time.RFC3339Nano),
		})
	}
	return rows, nil
}

// GetExploredCountriesQuery returns [{country}] for input {user}.
func (c *Concept) GetExploredCountriesQuery(ctx context.Context, in engine.Args) ([]engine.Args, error) {
	user, err := in.String("user")
	if err != nil {
		return nil, err
	}
	countries, err := c.ExploredCountries(ctx, user)
	if err != nil {
		return nil, err
	}
	rows := make([]engine.Args, 0, len(countries))
	for _, country := range countries {
		rows = append(rows, engine.Args{"country": country})
	}
	return rows, nil
}
