// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/goccy/go-json"
)

// firingKey identifies one firing of a sync: the completion that triggered
// it, the sync, and the bindings it fired with.
type firingKey struct {
	trigger string
	sync    string
	binding string
}

// hashFrame returns the SHA-256 of the frame's canonical JSON encoding.
// Map keys are sorted by the encoder, so equal frames hash equally.
func hashFrame(frame Frame) string {
	data, err := json.Marshal(frame)
	if err != nil {
		data = []byte(fmt.Sprintf("%v", map[Var]any(frame)))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
