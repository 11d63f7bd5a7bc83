// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package syncs

import (
	"context"

	"github.com/tomtom215/songpassport/internal/concepts/reporting"
	"github.com/tomtom215/songpassport/internal/engine"
)

func reportingSyncs(c Concepts) []*engine.Sync {
	g := c.gate()
	var syncs []*engine.Sync

	for _, r := range []route{
		{
			name:    "InitializeObject",
			path:    "/Reporting/InitializeObject",
			action:  reporting.InitializeObject,
			fields:  []engine.Var{objectID},
			input:   engine.P{"objectId": objectID},
			outputs: []engine.Var{objectID},
		},
		{
			name:   "Report",
			path:   "/Reporting/Report",
			action: reporting.Report,
			fields: []engine.Var{objectID},
			input:  engine.P{"objectId": objectID, "userId": user},
		},
		{
			name:   "Unreport",
			path:   "/Reporting/Unreport",
			action: reporting.Unreport,
			fields: []engine.Var{objectID},
			input:  engine.P{"objectId": objectID, "userId": user},
		},
	} {
		syncs = append(syncs, g.route(r)...)
	}

	notTracked := bindEach(errMsg, func(f engine.Frame) any {
		return "Report for objectId '" + stringAt(f, objectID) + "' does not exist."
	})
	absent := func(ctx context.Context, frames engine.Frames) (engine.Frames, error) {
		return frames.Absent(ctx, c.Reports.GetReportCountQuery, engine.P{"objectId": objectID})
	}

	syncs = append(syncs, g.query(query{
		name:   "GetReportCount",
		path:   "/Reporting/_getReportCount",
		fields: []engine.Var{objectID},
		lookup: func(ctx context.Context, frames engine.Frames) (engine.Frames, error) {
			return frames.Query(ctx, c.Reports.GetReportCountQuery, engine.P{"objectId": objectID}, engine.P{"count": count})
		},
		missing:  chain(absent, notTracked),
		response: []engine.Var{objectID, count},
	})...)

	syncs = append(syncs, g.query(query{
		name:   "GetReporters",
		path:   "/Reporting/_getReporters",
		fields: []engine.Var{objectID},
		lookup: func(ctx context.Context, frames engine.Frames) (engine.Frames, error) {
			return frames.Query(ctx, c.Reports.GetReportersQuery, engine.P{"objectId": objectID}, engine.P{"reporters": reporters})
		},
		missing:  chain(absent, notTracked),
		response: []engine.Var{objectID, reporters},
	})...)

	return syncs
}
