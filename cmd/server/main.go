// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/tomtom215/songpassport/internal/config"
	"github.com/tomtom215/songpassport/internal/logging"
	"github.com/tomtom215/songpassport/internal/metrics"
	"github.com/tomtom215/songpassport/internal/supervisor"
	"github.com/tomtom215/songpassport/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("storage", cfg.Storage.Backend).
		Bool("llm_enabled", cfg.LLM.Enabled).
		Bool("action_log", cfg.Engine.ActionLog).
		Msg("Starting Song Passport")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer app.Close()

	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
	go trackUptime(ctx, time.Now())

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}
	tree.AddDataService(services.NewSessionPurgeService(app.sessions, cfg.Security.SessionCleanupInterval))
	if app.consumer != nil {
		tree.AddMessagingService(app.consumer)
	}
	tree.AddAPIService(services.NewHTTPServerService(app.server, cfg.Server.Timeout))

	logging.Info().Str("addr", cfg.Server.Addr()).Msg("HTTP server listening")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree stopped with error")
		app.Close()
		os.Exit(1)
	}

	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop within the shutdown timeout")
		}
	}
	logging.Info().Msg("Song Passport stopped")
}

func trackUptime(ctx context.Context, start time.Time) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.AppUptime.Set(time.Since(start).Seconds())
		}
	}
}
