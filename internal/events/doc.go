// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

/*
Package events carries the engine's action log over Watermill.

Every completed action becomes an engine.Record. The Bus publishes each
record as a JSON message on the configured topic, and the Consumer
subscribes to that topic and stores the records in the engine.actions
collection, where they can be inspected after a flow has finished.

Two backends are available:

  - gochannel: in-process Go channels (default, no external services)
  - nats: a NATS server through watermill-nats, for running the consumer
    out of process or fanning the log out to other tools

Publishing never blocks a flow on the consumer. A failed publish is logged
and counted, and the flow continues.
*/
package events
