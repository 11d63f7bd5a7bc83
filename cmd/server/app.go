// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/tomtom215/songpassport/internal/api"
	"github.com/tomtom215/songpassport/internal/authz"
	"github.com/tomtom215/songpassport/internal/concepts/countryrec"
	"github.com/tomtom215/songpassport/internal/concepts/passport"
	"github.com/tomtom215/songpassport/internal/concepts/playlist"
	"github.com/tomtom215/songpassport/internal/concepts/reporting"
	"github.com/tomtom215/songpassport/internal/concepts/requesting"
	"github.com/tomtom215/songpassport/internal/concepts/sessioning"
	"github.com/tomtom215/songpassport/internal/concepts/userauth"
	"github.com/tomtom215/songpassport/internal/config"
	"github.com/tomtom215/songpassport/internal/docstore"
	"github.com/tomtom215/songpassport/internal/engine"
	"github.com/tomtom215/songpassport/internal/events"
	"github.com/tomtom215/songpassport/internal/llm"
	"github.com/tomtom215/songpassport/internal/logging"
	"github.com/tomtom215/songpassport/internal/syncs"
	"github.com/tomtom215/songpassport/internal/youtube"
)

// app holds the wired components of the server.
type app struct {
	store    docstore.Store
	engine   *engine.Engine
	requests *requesting.Concept
	sessions *sessioning.Concept
	enforcer *authz.Enforcer
	bus      *events.Bus
	consumer *events.Consumer
	handler  http.Handler
	server   *http.Server

	closeOnce sync.Once
}

// newApp opens the store and external clients and registers every concept
// and sync on one engine.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}
	ready := false
	defer func() {
		if !ready {
			a.Close()
		}
	}()

	var err error
	a.store, err = docstore.Open(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open document store: %w", err)
	}

	gen, err := newGenerator(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}
	resolver, err := youtube.New(ctx, cfg.YouTube)
	if err != nil {
		return nil, err
	}

	var opts []engine.Option
	if cfg.Engine.ActionLog {
		a.bus, err = events.New(cfg.Events)
		if err != nil {
			return nil, fmt.Errorf("failed to create action log bus: %w", err)
		}
		a.consumer = events.NewConsumer(a.bus, a.store)
		opts = append(opts, engine.WithSink(a.bus))
	}
	a.engine = engine.New(opts...)

	users := userauth.New(a.store, cfg.Security.BcryptCost)
	a.sessions, err = sessioning.New(a.store, &cfg.Security)
	if err != nil {
		return nil, err
	}
	a.enforcer, err = authz.NewEnforcer(cfg.Security.Casbin)
	if err != nil {
		return nil, err
	}
	concepts := syncs.Concepts{
		Sessions: a.sessions,
		Users:    users,
		Recs: countryrec.New(a.store, gen, resolver,
			countryrec.WithSettings(countryrec.SettingsFromConfig(cfg.Recommend))),
		Playlists:  playlist.New(a.store),
		Reports:    reporting.New(a.store),
		Passport:   passport.New(a.store),
		Authorizer: authz.NewAuthorizer(a.enforcer, users.GetUsername),
	}
	a.requests = requesting.New(a.store, cfg.Engine.RequestTimeout)

	for _, c := range []interface{ RegisterActions(*engine.Engine) error }{
		a.requests, concepts.Sessions, concepts.Users, concepts.Recs,
		concepts.Playlists, concepts.Reports, concepts.Passport,
	} {
		if err := c.RegisterActions(a.engine); err != nil {
			return nil, fmt.Errorf("failed to register actions: %w", err)
		}
	}
	if err := syncs.Register(a.engine, concepts); err != nil {
		return nil, fmt.Errorf("failed to register syncs: %w", err)
	}
	if err := a.engine.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sync configuration: %w", err)
	}

	handler := api.NewHandler(a.requests, a.store, cfg.Security.MaxBodyBytes)
	mw := api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(cfg.Security))
	a.handler = api.NewRouter(handler, mw).Setup()
	a.server = &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Requests may wait for the LLM up to the engine timeout.
		WriteTimeout: cfg.Engine.RequestTimeout + 10*time.Second,
		IdleTimeout:  2 * time.Minute,
	}
	ready = true
	return a, nil
}

// newGenerator returns the Gemini client, or nil when generation is
// disabled. The nil is an untyped interface so countryrec sees no generator.
func newGenerator(ctx context.Context, cfg config.LLMConfig) (llm.Generator, error) {
	if !cfg.Enabled || cfg.APIKey == "" {
		logging.Warn().Msg("LLM disabled, new recommendations cannot be generated")
		return nil, nil
	}
	client, err := llm.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return client, nil
}

// Close releases the bus, enforcer and store.
func (a *app) Close() {
	a.closeOnce.Do(func() {
		if a.bus != nil {
			if err := a.bus.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing action log bus")
			}
		}
		if a.enforcer != nil {
			a.enforcer.Close()
		}
		if a.store != nil {
			if err := a.store.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing document store")
			}
		}
	})
}
