// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/songpassport/internal/logging"
)

// SessionPurger deletes expired sessions.
type SessionPurger interface {
	PurgeExpired(ctx context.Context) (int, error)
}

// SessionPurgeService purges expired sessions on startup and then on every
// interval tick. Purge failures are logged and retried on the next tick.
type SessionPurgeService struct {
	sessions SessionPurger
	interval time.Duration
	logger   zerolog.Logger
}

// NewSessionPurgeService creates the service. A non-positive interval
// means 15 minutes.
func NewSessionPurgeService(sessions SessionPurger, interval time.Duration) *SessionPurgeService {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &SessionPurgeService{
		sessions: sessions,
		interval: interval,
		logger:   logging.WithComponent("session-purge"),
	}
}

// Serve implements suture.Service.
func (s *SessionPurgeService) Serve(ctx context.Context) error {
	s.logger.Info().Dur("interval", s.interval).Msg("Session purge service starting")
	s.purge(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.purge(ctx)
		}
	}
}

func (s *SessionPurgeService) purge(ctx context.Context) {
	n, err := s.sessions.PurgeExpired(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Int("purged", n).Msg("Session purge failed")
		return
	}
	if n > 0 {
		s.logger.Info().Int("purged", n).Msg("Expired sessions purged")
	}
}

func (s *SessionPurgeService) String() string {
	return "session-purge"
}
