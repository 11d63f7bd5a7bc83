// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package sessioning

import (
	"context"

	"github.com/tomtom215/songpassport/internal/engine"
)

const Name = "Sessioning"

var (
	Create = engine.Ref(Name, "create")
	Delete = engine.Ref(Name, "delete")
)

// RegisterActions adds create and delete to e.
func (c *Concept) RegisterActions(e *engine.Engine) error {
	if err := e.Register(Create, c.createAction); err != nil {
		return err
	}
	return e.Register(Delete, c.deleteAction)
}

func (c *Concept) createAction(ctx context.Context, in engine.Args) (engine.Args, error) {
	user, err := in.String("user")
	if err != nil {
		return nil, err
	}
	token, err := c.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	return engine.Args{"session": token}, nil
}

func (c *Concept) deleteAction(ctx context.Context, in engine.Args) (engine.Args, error) {
	token, err := in.OptionalString("session")
	if err != nil {
		return nil, err
	}
	return engine.Args{}, c.Delete(ctx, token)
}

// GetUserQuery returns [{user}] for input {session}, and no rows when the
// session does not resolve. A missing or non-string session also yields no
// rows so that unauthenticated requests reach the Unauthorized syncs.
func (c *Concept) GetUserQuery(ctx context.Context, in engine.Args) ([]engine.Args, error) {
	token, ok := in["session"].(string)
	if !ok || token == "" {
		return nil, nil
	}
	user, err := c.GetUser(ctx, token)
	if err != nil || user == "" {
		return nil, err
	}
	return []engine.Args{{"user": user}}, nil
}
