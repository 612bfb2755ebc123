// SPDX-License-Identifier: Apache-2.0

package config

// validate checks that the final merged [StructuredConfig] satisfies the
// startup invariants of the daemon.
//
// Returns nil if the configuration is valid, or a sentinel error otherwise.
func (cfg *StructuredConfig) validate() error {
	if cfg.Bridge.Mode != BridgeModeNative && cfg.Bridge.Mode != BridgeModeHTTP {
		return ErrInvalidBridgeConfigs
	}
	if cfg.Bridge.Mode == BridgeModeHTTP && cfg.Bridge.HTTPAddress == "" {
		return ErrInvalidBridgeConfigs
	}
	if cfg.Bridge.RequestTimeout <= 0 {
		return ErrInvalidBridgeConfigs
	}

	if cfg.Storage.DB.DSN == "" {
		return ErrInvalidStorageConfigs
	}

	return nil
}
