// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package syncs

import (
	"context"

	"github.com/tomtom215/songpassport/internal/concepts/countryrec"
	"github.com/tomtom215/songpassport/internal/concepts/reporting"
	"github.com/tomtom215/songpassport/internal/engine"
)

func countryRecSyncs(c Concepts) []*engine.Sync {
	g := c.gate()

	// Community recommendations can be reported as soon as they exist.
	// Registered ahead of the response syncs so the report object is in
	// place before the client sees the recId.
	syncs := []*engine.Sync{{
		Name: "TrackCommunityRec",
		When: []engine.Pattern{engine.On(countryrec.AddCommunityRec, engine.P{}, engine.P{"recId": recID})},
		Then: []engine.Invocation{engine.Do(reporting.InitializeObject, engine.P{"objectId": recID})},
	}}

	for _, r := range []route{
		{
			name:    "GetNewRecs",
			path:    "/CountryRecommendation/getNewRecs",
			action:  countryrec.GetNewRecs,
			fields:  []engine.Var{countryName},
			input:   engine.P{"countryName": countryName},
			outputs: []engine.Var{recommendations},
		},
		{
			name:    "GetSystemRecs",
			path:    "/CountryRecommendation/getSystemRecs",
			action:  countryrec.GetSystemRecs,
			fields:  []engine.Var{countryName},
			input:   engine.P{"countryName": countryName},
			outputs: []engine.Var{recommendations},
		},
		{
			name:    "GetCommunityRecs",
			path:    "/CountryRecommendation/getCommunityRecs",
			action:  countryrec.GetCommunityRecs,
			fields:  []engine.Var{countryName},
			input:   engine.P{"countryName": countryName},
			outputs: []engine.Var{recommendations},
		},
		{
			name:   "AddCommunityRec",
			path:   "/CountryRecommendation/addCommunityRec",
			action: countryrec.AddCommunityRec,
			fields: []engine.Var{countryName, title, artist, genre, language, url},
			input: engine.P{
				"countryName": countryName,
				"title":       title,
				"artist":      artist,
				"genre":       genre,
				"language":    language,
				"url":         url,
			},
			outputs: []engine.Var{recID},
		},
		{
			name:   "RemoveCommunityRec",
			path:   "/CountryRecommendation/removeCommunityRec",
			action: countryrec.RemoveCommunityRec,
			fields: []engine.Var{recID},
			input:  engine.P{"recId": recID},
		},
	} {
		syncs = append(syncs, g.route(r)...)
	}

	syncs = append(syncs, g.query(query{
		name:   "GetRecommendation",
		path:   "/CountryRecommendation/_getRecommendation",
		fields: []engine.Var{recID},
		lookup: func(ctx context.Context, frames engine.Frames) (engine.Frames, error) {
			return frames.Query(ctx, c.Recs.GetRecommendationQuery, engine.P{"recId": recID}, engine.P{"recommendation": recommendation})
		},
		missing: chain(
			func(ctx context.Context, frames engine.Frames) (engine.Frames, error) {
				return frames.Absent(ctx, c.Recs.GetRecommendationQuery, engine.P{"recId": recID})
			},
			bindEach(errMsg, func(f engine.Frame) any {
				return "Recommendation '" + stringAt(f, recID) + "' not found."
			}),
		),
		response: []engine.Var{recommendation},
	})...)

	syncs = append(syncs, g.query(query{
		name: "GetCountries",
		path: "/CountryRecommendation/_getCountries",
		lookup: chain(
			func(ctx context.Context, frames engine.Frames) (engine.Frames, error) {
				return frames.QueryAll(ctx, c.Recs.GetCountriesQuery, engine.P{}, rows)
			},
			bindEach(countries, column("countryName")),
		),
		response: []engine.Var{countries},
	})...)

	return syncs
}
