// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

// Package userauth implements the UserAuthentication concept: registering
// users with a username and password and verifying those credentials.
//
// Passwords are stored as bcrypt hashes. Username uniqueness is enforced by
// a second collection keyed by username, so two concurrent registrations of
// the same name cannot both succeed on any docstore backend.
package userauth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/songpassport/internal/docstore"
	"github.com/tomtom215/songpassport/internal/engine"
	"github.com/tomtom215/songpassport/internal/logging"
)

const (
	usersCollection     = "UserAuthentication.users"
	usernamesCollection = "UserAuthentication.usernames"
)

// User is a registered account.
type User struct {
	ID           string    `json:"_id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// usernameEntry reserves a username for a user id.
type usernameEntry struct {
	Username string `json:"_id"`
	User     string `json:"user"`
}

// Concept stores users in document collections.
type Concept struct {
	users     docstore.Collection
	usernames docstore.Collection
	cost      int

	// dummyHash is compared against on unknown usernames so that login
	// takes the same time whether or not the user exists.
	dummyOnce sync.Once
	dummyHash []byte
}

// New creates the concept. cost is the bcrypt work factor; values outside
// bcrypt's range fall back to bcrypt.DefaultCost.
func New(store docstore.Store, cost int) *Concept {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Concept{
		users:     store.Collection(usersCollection),
		usernames: store.Collection(usernamesCollection),
		cost:      cost,
	}
}

// Register creates a user and returns its id.
func (c *Concept) Register(ctx context.Context, username, password string) (string, error) {
	if strings.TrimSpace(username) == "" {
		return "", engine.Failf("Username cannot be empty.")
	}
	if password == "" {
		return "", engine.Failf("Password cannot be empty.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), c.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", engine.Failf("Password must be at most 72 bytes.")
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	id := uuid.NewString()
	err = c.usernames.Insert(ctx, username, &usernameEntry{Username: username, User: id})
	if errors.Is(err, docstore.ErrDuplicate) {
		return "", engine.Failf("Username already exists")
	}
	if err != nil {
		return "", fmt.Errorf("reserve username: %w", err)
	}

	user := &User{ID: id, Username: username, PasswordHash: string(hash), CreatedAt: time.Now().UTC()}
	if err := c.users.Insert(ctx, id, user); err != nil {
		if delErr := c.usernames.Delete(ctx, username); delErr != nil {
			logging.Ctx(ctx).Error().Err(delErr).Str("username", username).Msg("failed to release username reservation")
		}
		return "", fmt.Errorf("insert user: %w", err)
	}

	logging.Ctx(ctx).Info().Str("user", id).Msg("user registered")
	return id, nil
}

// Login verifies credentials and returns the user id.
func (c *Concept) Login(ctx context.Context, username, password string) (string, error) {
	invalid := engine.Failf("Invalid username or password")

	user, err := c.byUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if user == nil {
		_ = bcrypt.CompareHashAndPassword(c.dummy(), []byte(password))
		return "", invalid
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", invalid
	}
	return user.ID, nil
}

// GetUsername returns the username of a user id, or "" if unknown.
func (c *Concept) GetUsername(ctx context.Context, userID string) (string, error) {
	var user User
	if err := c.users.Get(ctx, userID, &user); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("get user: %w", err)
	}
	return user.Username, nil
}

// GetUserByUsername returns the id for a username, or "" if unknown.
func (c *Concept) GetUserByUsername(ctx context.Context, username string) (string, error) {
	user, err := c.byUsername(ctx, username)
	if err != nil || user == nil {
		return "", err
	}
	return user.ID, nil
}

func (c *Concept) byUsername(ctx context.Context, username string) (*User, error) {
	var entry usernameEntry
	if err := c.usernames.Get(ctx, username, &entry); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get username: %w", err)
	}
	var user User
	if err := c.users.Get(ctx, entry.User, &user); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

func (c *Concept) dummy() []byte {
	c.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), c.cost)
		if err == nil {
			c.dummyHash = hash
		}
	})
	return c.dummyHash
}
