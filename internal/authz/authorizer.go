// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package authz

import (
	"context"
	"fmt"

	"github.com/tomtom215/songpassport/internal/engine"
	"github.com/tomtom215/songpassport/internal/logging"
)

// ForbiddenMessage is the error returned to users lacking a permission.
const ForbiddenMessage = "Forbidden"

// UsernameFunc resolves a user id to a username. It returns "" for an
// unknown user.
type UsernameFunc func(ctx context.Context, userID string) (string, error)

// Authorizer checks request paths for user ids.
type Authorizer struct {
	enforcer *Enforcer
	username UsernameFunc
}

// NewAuthorizer creates an Authorizer. Policies are written for usernames,
// so user ids are resolved with username first.
func NewAuthorizer(enforcer *Enforcer, username UsernameFunc) *Authorizer {
	return &Authorizer{enforcer: enforcer, username: username}
}

// CanInvoke reports whether the user may call path.
func (a *Authorizer) CanInvoke(ctx context.Context, userID, path string) (bool, error) {
	name, err := a.username(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("resolve username: %w", err)
	}
	if name == "" {
		return false, nil
	}
	return a.enforcer.Allowed(ctx, name, path, ActionInvoke)
}

// AllowedQuery returns one empty row for input {user, path} when the user
// may invoke path, and no rows otherwise.
func (a *Authorizer) AllowedQuery(ctx context.Context, in engine.Args) ([]engine.Args, error) {
	user, path, err := userPath(in)
	if err != nil {
		return nil, err
	}
	ok, err := a.CanInvoke(ctx, user, path)
	if err != nil || !ok {
		return nil, err
	}
	return []engine.Args{{}}, nil
}

// DeniedQuery is the complement of AllowedQuery: one empty row when the
// user may not invoke path. Each denial is logged here, once per check.
func (a *Authorizer) DeniedQuery(ctx context.Context, in engine.Args) ([]engine.Args, error) {
	user, path, err := userPath(in)
	if err != nil {
		return nil, err
	}
	ok, err := a.CanInvoke(ctx, user, path)
	if err != nil || ok {
		return nil, err
	}
	logging.Ctx(ctx).Info().
		Str("user_id", user).
		Str("path", path).
		Msg("Authorization denied")
	return []engine.Args{{}}, nil
}

func userPath(in engine.Args) (string, string, error) {
	user, err := in.String("user")
	if err != nil {
		return "", "", err
	}
	path, err := in.String("path")
	if err != nil {
		return "", "", err
	}
	return user, path, nil
}
