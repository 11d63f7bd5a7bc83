// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

// Package sessioning implements the Sessioning concept, which maps session
// tokens to the users that own them.
//
// A session token is an HS256-signed JWT whose jti claim is the id of a
// document in the Sessioning.sessions collection. The signature and expiry
// are checked first; the document lookup then lets a session be revoked
// before the token expires.
package sessioning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tomtom215/songpassport/internal/config"
	"github.com/tomtom215/songpassport/internal/docstore"
	"github.com/tomtom215/songpassport/internal/engine"
	"github.com/tomtom215/songpassport/internal/logging"
	"github.com/tomtom215/songpassport/internal/metrics"
)

const sessionsCollection = "Sessioning.sessions"

const issuer = "songpassport"

// Session is the stored side of a session token.
type Session struct {
	ID        string    `json:"_id"`
	User      string    `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Claims are the JWT claims of a session token.
type Claims struct {
	User string `json:"user"`
	jwt.RegisteredClaims
}

// Concept issues and resolves session tokens.
type Concept struct {
	sessions docstore.Collection
	secret   []byte
	timeout  time.Duration
	now      func() time.Time
}

// New creates the concept from the security configuration. The JWT secret is
// required.
func New(store docstore.Store, cfg *config.SecurityConfig) (*Concept, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but was empty")
	}
	timeout := cfg.SessionTimeout
	if timeout <= 0 {
		timeout = 24 * time.Hour
	}
	return &Concept{
		sessions: store.Collection(sessionsCollection),
		secret:   []byte(cfg.JWTSecret),
		timeout:  timeout,
		now:      time.Now,
	}, nil
}

// Create starts a session for user and returns its token.
func (c *Concept) Create(ctx context.Context, user string) (string, error) {
	if user == "" {
		return "", engine.Failf("User cannot be empty.")
	}

	now := c.now().UTC()
	s := Session{
		ID:        uuid.NewString(),
		User:      user,
		CreatedAt: now,
		ExpiresAt: now.Add(c.timeout),
	}

	claims := &Claims{
		User: user,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.ID,
			Issuer:    issuer,
			Subject:   user,
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	if err := c.sessions.Insert(ctx, s.ID, &s); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}
	metrics.SessionsCreated.Inc()
	return token, nil
}

// Delete revokes the session behind token. Expired tokens with a valid
// signature can still be deleted.
func (c *Concept) Delete(ctx context.Context, token string) error {
	claims, err := c.parse(token, jwt.WithoutClaimsValidation())
	if err != nil {
		return engine.Failf("Session not found")
	}
	err = c.sessions.Delete(ctx, claims.ID)
	if errors.Is(err, docstore.ErrNotFound) {
		return engine.Failf("Session not found")
	}
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// GetUser returns the user owning token, or "" when the token is invalid,
// expired or revoked.
func (c *Concept) GetUser(ctx context.Context, token string) (string, error) {
	claims, err := c.parse(token)
	if err != nil {
		logging.Ctx(ctx).Debug().Err(err).Msg("Rejected session token")
		return "", nil
	}

	var s Session
	err = c.sessions.Get(ctx, claims.ID, &s)
	if errors.Is(err, docstore.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load session: %w", err)
	}
	if !c.now().Before(s.ExpiresAt) || s.User != claims.User {
		return "", nil
	}
	return s.User, nil
}

// PurgeExpired deletes every stored session whose expiry has passed and
// returns how many were removed.
func (c *Concept) PurgeExpired(ctx context.Context) (int, error) {
	all, err := docstore.FindAll[Session](ctx, c.sessions, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to list sessions: %w", err)
	}

	now := c.now()
	purged := 0
	for _, s := range all {
		if now.Before(s.ExpiresAt) {
			continue
		}
		if err := c.sessions.Delete(ctx, s.ID); err != nil && !errors.Is(err, docstore.ErrNotFound) {
			return purged, fmt.Errorf("failed to purge session %s: %w", s.ID, err)
		}
		purged++
	}
	if purged > 0 {
		metrics.SessionsPurged.Add(float64(purged))
	}
	return purged, nil
}

func (c *Concept) parse(token string, opts ...jwt.ParserOption) (*Claims, error) {
	if token == "" {
		return nil, errors.New("empty token")
	}
	opts = append(opts,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(c.now),
	)
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.ID == "" {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
