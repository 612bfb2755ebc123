// SPDX-License-Identifier: Apache-2.0

package config

import "errors"

// Validation errors returned by [StructuredConfig.validate] when required
// configuration groups are incomplete or invalid.
var (
	// ErrInvalidBridgeConfigs indicates invalid bridge transport settings
	// (for example, an unknown mode or a missing HTTP address).
	ErrInvalidBridgeConfigs = errors.New("invalid bridge configuration")
	// ErrInvalidStorageConfigs indicates invalid storage settings
	// (for example, an empty database path).
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
)
