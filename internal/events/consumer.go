// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/songpassport/internal/docstore"
	"github.com/tomtom215/songpassport/internal/logging"
	"github.com/tomtom215/songpassport/internal/metrics"
)

// ActionsCollection stores the persisted action log.
const ActionsCollection = "engine.actions"

// Consumer stores every record published on a Bus.
type Consumer struct {
	bus     *Bus
	actions docstore.Collection
}

// NewConsumer creates a consumer writing to store's engine.actions collection.
func NewConsumer(bus *Bus, store docstore.Store) *Consumer {
	return &Consumer{bus: bus, actions: store.Collection(ActionsCollection)}
}

// Serve consumes until ctx is cancelled. It implements suture.Service.
func (c *Consumer) Serve(ctx context.Context) error {
	messages, err := c.bus.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", c.bus.Topic(), err)
	}
	logging.Info().Str("topic", c.bus.Topic()).Msg("Action log consumer started")
	return c.consume(ctx, messages)
}

// String names the service in supervisor logs.
func (c *Consumer) String() string {
	return "action-log-consumer"
}

func (c *Consumer) consume(ctx context.Context, messages <-chan *message.Message) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			// The action log is best effort: a record that cannot be
			// stored is logged and acknowledged.
			if err := c.handle(ctx, msg); err != nil {
				logging.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Action record not persisted")
			}
			msg.Ack()
		}
	}
}

// handle persists one message. Redelivered records are acknowledged
// without writing twice. Undecodable messages are dropped.
func (c *Consumer) handle(ctx context.Context, msg *message.Message) error {
	rec, err := DecodeRecord(msg)
	if err != nil {
		metrics.RecordActionLogPersist(err)
		logging.Error().Err(err).Msg("Dropping malformed action record")
		return nil
	}

	err = c.actions.Insert(ctx, rec.ID, &rec)
	if errors.Is(err, docstore.ErrDuplicate) {
		err = nil
	}
	metrics.RecordActionLogPersist(err)
	return err
}
