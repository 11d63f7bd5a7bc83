// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package requesting

import "github.com/tomtom215/songpassport/internal/engine"

const Name = "Requesting"

var (
	Request = engine.Ref(Name, "request")
	Respond = engine.Ref(Name, "respond")
)

// RegisterActions adds request and respond to e. Request runs its flows on e.
func (c *Concept) RegisterActions(e *engine.Engine) error {
	if err := e.Register(Request, c.request); err != nil {
		return err
	}
	if err := e.Register(Respond, c.respond); err != nil {
		return err
	}
	c.engine = e
	return nil
}
