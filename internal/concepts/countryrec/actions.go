// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package countryrec

import (
	"context"

	"github.com/tomtom215/songpassport/internal/engine"
)

const Name = "CountryRecommendation"

// Action references.
var (
	GetNewRecs         = engine.Ref(Name, "getNewRecs")
	GetSystemRecs      = engine.Ref(Name, "getSystemRecs")
	GetCommunityRecs   = engine.Ref(Name, "getCommunityRecs")
	AddCommunityRec    = engine.Ref(Name, "addCommunityRec")
	RemoveCommunityRec = engine.Ref(Name, "removeCommunityRec")
)

// RegisterActions adds the concept's actions to e.
func (c *Concept) RegisterActions(e *engine.Engine) error {
	actions := map[engine.ActionRef]engine.ActionFunc{
		GetNewRecs:         c.listAction(c.GetNewRecs),
		GetSystemRecs:      c.listAction(c.GetSystemRecs),
		GetCommunityRecs:   c.listAction(c.GetCommunityRecs),
		AddCommunityRec:    c.addCommunityRecAction,
		RemoveCommunityRec: c.removeCommunityRecAction,
	}
	for ref, fn := range actions {
		if err := e.Register(ref, fn); err != nil {
			return err
		}
	}
	return nil
}

// listAction adapts a {countryName} -> {recommendations} method.
func (c *Concept) listAction(get func(context.Context, string) ([]Recommendation, error)) engine.ActionFunc {
	return func(ctx context.Context, in engine.Args) (engine.Args, error) {
		country, err := in.String("countryName")
		if err != nil {
			return nil, err
		}
		recs, err := get(ctx, country)
		if err != nil {
			return nil, err
		}
		return engine.Args{"recommendations": recs}, nil
	}
}

func (c *Concept) addCommunityRecAction(ctx context.Context, in engine.Args) (engine.Args, error) {
	country, err := in.String("countryName")
	if err != nil {
		return nil, err
	}
	fields := map[string]string{}
	for _, key := range []string{"title", "artist", "language", "url", "genre"} {
		v, err := in.OptionalString(key)
		if err != nil {
			return nil, err
		}
		fields[key] = v
	}
	id, err := c.AddCommunityRec(ctx, country, fields["title"], fields["artist"], fields["language"], fields["url"], fields["genre"])
	if err != nil {
		return nil, err
	}
	return engine.Args{"recId": id}, nil
}

func (c *Concept) removeCommunityRecAction(ctx context.Context, in engine.Args) (engine.Args, error) {
	id, err := in.String("recId")
	if err != nil {
		return nil, err
	}
	return engine.Args{}, c.RemoveCommunityRec(ctx, id)
}

// GetRecommendationQuery returns [{recommendation}] for input {recId}.
func (c *Concept) GetRecommendationQuery(ctx context.Context, in engine.Args) ([]engine.Args, error) {
	id, err := in.String("recId")
	if err != nil {
		return nil, err
	}
	rec, err := c.GetRecommendation(ctx, id)
	if err != nil || rec == nil {
		return nil, err
	}
	return []engine.Args{{"recommendation": *rec}}, nil
}

// GetCountriesQuery returns [{countryName}] for every stored country.
func (c *Concept) GetCountriesQuery(ctx context.Context, _ engine.Args) ([]engine.Args, error) {
	names, err := c.Countries(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]engine.Args, 0, len(names))
	for _, n := range names {
		rows = append(rows, engine.Args{"countryName": n})
	}
	return rows, nil
}
