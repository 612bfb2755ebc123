// SPDX-License-Identifier: Apache-2.0

package config

import "time"

// Built-in fallbacks, merged last so any explicit source wins.
func defaults() *StructuredConfig {
	return &StructuredConfig{
		Storage: Storage{
			DB: DB{
				DSN: "chainpass.db",
			},
		},
		Bridge: Bridge{
			Mode:           BridgeModeNative,
			HTTPAddress:    "localhost:8590",
			RequestTimeout: 30 * time.Second,
		},
	}
}
