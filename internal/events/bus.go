// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/songpassport/internal/config"
	"github.com/tomtom215/songpassport/internal/engine"
	"github.com/tomtom215/songpassport/internal/logging"
	"github.com/tomtom215/songpassport/internal/metrics"
)

// DefaultTopic is used when no topic is configured.
const DefaultTopic = "songpassport.actions"

// Metadata keys set on every published message.
const (
	MetadataFlow   = "flow"
	MetadataAction = "action"
)

// ErrClosed is returned by Publish and Subscribe after Close.
var ErrClosed = errors.New("event bus is closed")

// Bus publishes action records and hands out subscriptions to them.
// It implements engine.Sink.
type Bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	topic      string
	logger     watermill.LoggerAdapter

	mu     sync.RWMutex
	closed bool
}

// New creates a Bus for cfg.Backend.
func New(cfg config.EventsConfig) (*Bus, error) {
	logger := watermill.NewSlogLogger(logging.NewSlogLogger().With("component", "events"))
	topic := cfg.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	switch cfg.Backend {
	case "", "gochannel":
		ch := gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: cfg.BufferSize,
		}, logger)
		return newBus(ch, ch, topic, logger), nil

	case "nats":
		pub, sub, err := newNATS(cfg.NATSURL, logger)
		if err != nil {
			return nil, err
		}
		return newBus(pub, sub, topic, logger), nil

	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}
}

func newBus(pub message.Publisher, sub message.Subscriber, topic string, logger watermill.LoggerAdapter) *Bus {
	logging.Info().Str("topic", topic).Msg("Action log bus initialized")
	return &Bus{publisher: pub, subscriber: sub, topic: topic, logger: logger}
}

// newNATS connects a core NATS publisher and subscriber. JetStream is not
// used: the action log is a best-effort stream.
func newNATS(url string, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	natsOpts := []natsgo.Option{
		natsgo.Name("songpassport"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}
	marshaler := &wmNats.NATSMarshaler{}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOpts,
		Marshaler:   marshaler,
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("create nats publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              url,
		QueueGroupPrefix: "songpassport",
		SubscribersCount: 1,
		AckWaitTimeout:   30 * time.Second,
		CloseTimeout:     10 * time.Second,
		NatsOptions:      natsOpts,
		Unmarshaler:      marshaler,
		JetStream:        wmNats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		_ = pub.Close()
		return nil, nil, fmt.Errorf("create nats subscriber: %w", err)
	}
	return pub, sub, nil
}

// Topic returns the topic records are published on.
func (b *Bus) Topic() string {
	return b.topic
}

// Publish sends rec as a JSON message. Password fields are redacted.
func (b *Bus) Publish(_ context.Context, rec engine.Record) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	payload, err := json.Marshal(rec.Redacted())
	if err != nil {
		metrics.RecordActionLogPublish(err)
		return fmt.Errorf("encode action record: %w", err)
	}
	msg := message.NewMessage(rec.ID, payload)
	msg.Metadata.Set(MetadataFlow, rec.Flow)
	msg.Metadata.Set(MetadataAction, rec.Action.String())

	err = b.publisher.Publish(b.topic, msg)
	metrics.RecordActionLogPublish(err)
	if err != nil {
		return fmt.Errorf("publish action record: %w", err)
	}
	return nil
}

// Subscribe returns the messages published on the bus topic. The channel
// closes when ctx is cancelled or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrClosed
	}
	return b.subscriber.Subscribe(ctx, b.topic)
}

// Close shuts down the publisher and subscriber.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	var errs []error
	if err := b.publisher.Close(); err != nil {
		errs = append(errs, err)
	}
	// gochannel is both sides of the bus
	if any(b.subscriber) != any(b.publisher) {
		if err := b.subscriber.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DecodeRecord parses a message published by Bus.
func DecodeRecord(msg *message.Message) (engine.Record, error) {
	var rec engine.Record
	if err := json.Unmarshal(msg.Payload, &rec); err != nil {
		return engine.Record{}, fmt.Errorf("decode action record %s: %w", msg.UUID, err)
	}
	return rec, nil
}
