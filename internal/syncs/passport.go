// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package syncs

import (
	"context"

	"github.com/tomtom215/songpassport/internal/concepts/passport"
	"github.com/tomtom215/songpassport/internal/engine"
)

func passportSyncs(c Concepts) []*engine.Sync {
	g := c.gate()

	syncs := g.route(route{
		name:    "LogExploration",
		path:    "/Passport/logExploration",
		action:  passport.LogExploration,
		fields:  []engine.Var{song, country},
		input:   engine.P{"user": user, "song": song, "country": country},
		outputs: []engine.Var{entry},
	})

	syncs = append(syncs, g.query(query{
		name: "GetHistory",
		path: "/Passport/_getHistory",
		lookup: func(ctx context.Context, frames engine.Frames) (engine.Frames, error) {
			return frames.QueryAll(ctx, c.Passport.GetHistoryQuery, engine.P{"user": user}, history)
		},
		response: []engine.Var{history},
	})...)

	syncs = append(syncs, g.query(query{
		name: "GetExploredCountries",
		path: "/Passport/_getExploredCountries",
		lookup: chain(
			func(ctx context.Context, frames engine.Frames) (engine.Frames, error) {
				return frames.QueryAll(ctx, c.Passport.GetExploredCountriesQuery, engine.P{"user": user}, rows)
			},
			bindEach(countries, column("country")),
		),
		response: []engine.Var{countries},
	})...)

	return syncs
}
