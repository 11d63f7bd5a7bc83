// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package events

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"

	"github.com/tomtom215/songpassport/internal/config"
	"github.com/tomtom215/songpassport/internal/docstore"
	"github.com/tomtom215/songpassport/internal/engine"
)

// startNATS runs an in-process NATS server on a random local port.
func startNATS(t *testing.T) string {
	t.Helper()
	ns, err := server.NewServer(&server.Options{
		ServerName: "songpassport-test",
		Host:       "127.0.0.1",
		Port:       server.RANDOM_PORT,
		NoLog:      true,
		NoSigs:     true,
	})
	if err != nil {
		t.Fatalf("create NATS server: %v", err)
	}
	go ns.Start()
	if !ns.ReadyForConnections(10 * time.Second) {
		ns.Shutdown()
		t.Fatal("NATS server not ready")
	}
	t.Cleanup(func() {
		ns.Shutdown()
		ns.WaitForShutdown()
	})
	return ns.ClientURL()
}

func TestNATSBackendRoundTrip(t *testing.T) {
	bus, err := New(config.EventsConfig{Backend: "nats", NATSURL: startNATS(t), Topic: "songpassport.test"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = bus.Close() })

	store := docstore.NewMemory()
	c := NewConsumer(bus, store)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- c.Serve(ctx) }()

	// Core NATS drops messages published before the subscription reaches
	// the server, so publish until the consumer has stored one.
	var recs []engine.Record
	for i := 1; len(recs) == 0; i++ {
		if ctx.Err() != nil {
			t.Fatal("no record consumed over NATS")
		}
		if err := bus.Publish(ctx, testRecord(fmt.Sprintf("r%d", i), uint64(i))); err != nil {
			t.Fatalf("Publish: %v", err)
		}
		time.Sleep(50 * time.Millisecond)
		recs = flowRecords(t, store, "flow-1")
	}

	rec := recs[0]
	if rec.Action != engine.Ref("UserAuthentication", "register") {
		t.Errorf("action = %v", rec.Action)
	}
	if rec.Input["password"] != "[REDACTED]" {
		t.Errorf("password stored as %v", rec.Input["password"])
	}
	if rec.Output["user"] != "u1" {
		t.Errorf("output = %v", rec.Output)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Error("consumer did not stop")
	}
}
