// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

// Package authz decides which request paths a user may invoke, using Casbin
// RBAC with an embedded model and policy.
//
// Users enter Casbin as "user:<name>" so that no username can collide with
// a role name. Roles come from configuration (admins and moderators by
// username); everyone else has the default role. Roles form the hierarchy
// admin > moderator > user declared in policy.csv.
package authz

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/tomtom215/songpassport/internal/config"
	"github.com/tomtom215/songpassport/internal/logging"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// ActionInvoke is the Casbin action for calling a request path.
const ActionInvoke = "invoke"

// Role names used by the embedded policy.
const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
	RoleUser      = "user"
)

// userSubject is the Casbin subject for a username.
func userSubject(username string) string {
	return "user:" + username
}

// Enforcer wraps a Casbin enforcer with a decision cache.
type Enforcer struct {
	enforcer    *casbin.SyncedEnforcer
	cache       *enforcementCache
	defaultRole string
}

// NewEnforcer loads the embedded model and policy and assigns the roles
// listed in cfg.
func NewEnforcer(cfg config.CasbinConfig) (*Enforcer, error) {
	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}
	if err := loadPolicy(enforcer, embeddedPolicy); err != nil {
		return nil, err
	}

	defaultRole := cfg.DefaultRole
	if defaultRole == "" {
		defaultRole = RoleUser
	}
	e := &Enforcer{enforcer: enforcer, defaultRole: defaultRole}
	if cfg.CacheEnabled {
		e.cache = newEnforcementCache(cfg.CacheTTL)
	}

	for role, users := range map[string][]string{RoleAdmin: cfg.Admins, RoleModerator: cfg.Moderators} {
		for _, u := range users {
			if _, err := e.AddRoleForUser(u, role); err != nil {
				return nil, err
			}
		}
	}

	logging.Info().
		Int("admins", len(cfg.Admins)).
		Int("moderators", len(cfg.Moderators)).
		Str("default_role", defaultRole).
		Msg("Authorization enforcer initialized")
	return e, nil
}

// loadPolicy adds the p and g lines of a policy CSV.
func loadPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		switch {
		case parts[0] == "p" && len(parts) == 4:
			if _, err := enforcer.AddPolicy(parts[1], parts[2], parts[3]); err != nil {
				return fmt.Errorf("failed to add policy %v: %w", parts[1:], err)
			}
		case parts[0] == "g" && len(parts) == 3:
			if _, err := enforcer.AddGroupingPolicy(parts[1], parts[2]); err != nil {
				return fmt.Errorf("failed to add grouping policy %v: %w", parts[1:], err)
			}
		default:
			return fmt.Errorf("invalid policy line %q", line)
		}
	}
	return nil
}

// Allowed reports whether username may perform action on object. Users
// without an assigned role are checked as the default role.
func (e *Enforcer) Allowed(_ context.Context, username, object, action string) (bool, error) {
	start := time.Now()
	subject := userSubject(username)
	roles, err := e.enforcer.GetRolesForUser(subject)
	if err != nil {
		RecordAuthzError("roles")
		return false, fmt.Errorf("failed to load roles: %w", err)
	}
	role := e.defaultRole
	if len(roles) == 0 {
		subject = e.defaultRole
	} else {
		role = roles[0]
	}

	if e.cache != nil {
		if allowed, ok := e.cache.get(subject, object, action); ok {
			RecordAuthzDecision(role, object, action, allowed, time.Since(start), true)
			return allowed, nil
		}
	}

	allowed, err := e.enforcer.Enforce(subject, object, action)
	if err != nil {
		RecordAuthzError("enforce")
		return false, fmt.Errorf("enforcement failed: %w", err)
	}
	if e.cache != nil {
		e.cache.set(subject, object, action, allowed)
	}
	RecordAuthzDecision(role, object, action, allowed, time.Since(start), false)
	return allowed, nil
}

// AddRoleForUser assigns a role to a username.
func (e *Enforcer) AddRoleForUser(username, role string) (bool, error) {
	subject := userSubject(username)
	added, err := e.enforcer.AddGroupingPolicy(subject, role)
	if err != nil {
		return false, fmt.Errorf("failed to add role: %w", err)
	}
	if e.cache != nil {
		e.cache.invalidateSubject(subject)
	}
	RecordRoleAssignment(role)
	return added, nil
}

// RolesForUser returns the roles directly assigned to username.
func (e *Enforcer) RolesForUser(username string) ([]string, error) {
	return e.enforcer.GetRolesForUser(userSubject(username))
}

// Close stops the cache's cleanup goroutine.
func (e *Enforcer) Close() {
	if e.cache != nil {
		e.cache.stop()
	}
}
