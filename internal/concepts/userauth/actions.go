// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package userauth

import (
	"context"

	"github.com/tomtom215/songpassport/internal/engine"
)

// Name is the concept name.
const Name = "UserAuthentication"

// Action references.
var (
	Register = engine.Ref(Name, "register")
	Login    = engine.Ref(Name, "login")
)

// RegisterActions adds the concept's actions to e.
func (c *Concept) RegisterActions(e *engine.Engine) error {
	if err := e.Register(Register, c.registerAction); err != nil {
		return err
	}
	return e.Register(Login, c.loginAction)
}

func (c *Concept) registerAction(ctx context.Context, in engine.Args) (engine.Args, error) {
	username, password, err := credentials(in)
	if err != nil {
		return nil, err
	}
	id, err := c.Register(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return engine.Args{"user": id}, nil
}

func (c *Concept) loginAction(ctx context.Context, in engine.Args) (engine.Args, error) {
	username, password, err := credentials(in)
	if err != nil {
		return nil, err
	}
	id, err := c.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return engine.Args{"user": id}, nil
}

func credentials(in engine.Args) (string, string, error) {
	username, err := in.OptionalString("username")
	if err != nil {
		return "", "", err
	}
	password, err := in.OptionalString("password")
	if err != nil {
		return "", "", err
	}
	return username, password, nil
}

// GetUsernameQuery returns [{username}] for input {user}.
func (c *Concept) GetUsernameQuery(ctx context.Context, in engine.Args) ([]engine.Args, error) {
	user, err := in.String("user")
	if err != nil {
		return nil, err
	}
	name, err := c.GetUsername(ctx, user)
	if err != nil || name == "" {
		return nil, err
	}
	return []engine.Args{{"username": name}}, nil
}

// GetUserByUsernameQuery returns [{user}] for input {username}.
func (c *Concept) GetUserByUsernameQuery(ctx context.Context, in engine.Args) ([]engine.Args, error) {
	username, err := in.String("username")
	if err != nil {
		return nil, err
	}
	id, err := c.GetUserByUsername(ctx, username)
	if err != nil || id == "" {
		return nil, err
	}
	return []engine.Args{{"user": id}}, nil
}
