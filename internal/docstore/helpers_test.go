// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package docstore

import "github.com/tomtom215/songpassport/internal/config"

func configFor(backend string) config.StorageConfig {
	return config.StorageConfig{Backend: backend}
}
