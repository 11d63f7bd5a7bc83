// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package reporting

import (
	"context"

	"github.com/tomtom215/songpassport/internal/engine"
)

// Name is the concept name.
const Name = "Reporting"

// Action references.
var (
	InitializeObject = engine.Ref(Name, "InitializeObject")
	Report           = engine.Ref(Name, "Report")
	Unreport         = engine.Ref(Name, "Unreport")
)

// RegisterActions adds the concept's actions to e.
func (c *Concept) RegisterActions(e *engine.Engine) error {
	if err := e.Register(InitializeObject, c.initializeObjectAction); err != nil {
		return err
	}
	if err := e.Register(Report, c.reportAction); err != nil {
		return err
	}
	return e.Register(Unreport, c.unreportAction)
}

func (c *Concept) initializeObjectAction(ctx context.Context, in engine.Args) (engine.Args, error) {
	objectID, err := in.String("objectId")
	if err != nil {
		return nil, err
	}
	if err := c.InitializeObject(ctx, objectID); err != nil {
		return nil, err
	}
	return engine.Args{"objectId": objectID}, nil
}

func (c *Concept) reportAction(ctx context.Context, in engine.Args) (engine.Args, error) {
	objectID, userID, err := objectAndUser(in)
	if err != nil {
		return nil, err
	}
	return engine.Args{}, c.Report(ctx, objectID, userID)
}

func (c *Concept) unreportAction(ctx context.Context, in engine.Args) (engine.Args, error) {
	objectID, userID, err := objectAndUser(in)
	if err != nil {
		return nil, err
	}
	return engine.Args{}, c.Unreport(ctx, objectID, userID)
}

func objectAndUser(in engine.Args) (string, string, error) {
	objectID, err := in.String("objectId")
	if err != nil {
		return "", "", err
	}
	userID, err := in.String("userId")
	if err != nil {
		return "", "", err
	}
	return objectID, userID, nil
}

// GetReportCountQuery returns [{count}] for input {objectId}, or no rows
// when the object is not tracked.
func (c *Concept) GetReportCountQuery(ctx context.Context, in engine.Args) ([]engine.Args, error) {
	r, err := c.lookup(ctx, in)
	if err != nil || r == nil {
		return nil, err
	}
	return []engine.Args{{"count": r.Count}}, nil
}

// GetReportersQuery returns [{reporters}] for input {objectId}.
func (c *Concept) GetReportersQuery(ctx context.Context, in engine.Args) ([]engine.Args, error) {
	r, err := c.lookup(ctx, in)
	if err != nil || r == nil {
		return nil, err
	}
	return []engine.Args{{"reporters": r.Reporters}}, nil
}

func (c *Concept) lookup(ctx context.Context, in engine.Args) (*ObjectReport, error) {
	objectID, err := in.String("objectId")
	if err != nil {
		return nil, err
	}
	return c.Get(ctx, objectID)
}
