// SPDX-License-Identifier: Apache-2.0

package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container for chainpass.
// It aggregates all sub-configurations and is populated by merging values
// from environment variables, command-line flags, and an optional JSON
// file.
//
// Struct tags:
//   - envPrefix — prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       — direct environment variable name for scalar fields.
type StructuredConfig struct {
	// Ledger holds the chain connection bootstrap: node URL, contract
	// address, and signing key.
	Ledger Ledger `envPrefix:"LEDGER_"`

	// Storage holds configuration for the local profile database.
	Storage Storage `envPrefix:"STORAGE_"`

	// Bridge holds the transport settings of the RPC bridge the daemon
	// serves.
	Bridge Bridge `envPrefix:"BRIDGE_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged on top of the values
	// already loaded from environment variables and flags.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// Ledger holds the chain connection bootstrap values. Either the triple is
// given directly, or Profile names a stored profile to load it from.
type Ledger struct {
	// NodeURL is the chain node RPC endpoint (ws://, wss://, http://).
	// Env: LEDGER_NODE_URL
	NodeURL string `env:"NODE_URL"`

	// Contract is the SS58 address of the deployed vault contract.
	// Env: LEDGER_CONTRACT
	Contract string `env:"CONTRACT"`

	// PrivateKey is the raw 32-byte signing key in hex. Deliberately has no
	// command-line flag so the key never appears in process listings.
	// Env: LEDGER_PRIVATE_KEY
	PrivateKey string `env:"PRIVATE_KEY"`

	// Profile is the name of a stored connection profile to load the
	// bootstrap triple from; explicit values above take precedence over
	// profile fields.
	// Env: LEDGER_PROFILE
	Profile string `env:"PROFILE"`
}

// Storage groups the configuration for the persistence backends.
type Storage struct {
	// DB holds the profile database settings.
	DB DB `envPrefix:"DB_"`
}

// DB holds connection settings for the local SQLite profile database.
type DB struct {
	// DSN is the SQLite database path (e.g. "~/.chainpass/profiles.db" or
	// ":memory:" for throwaway runs).
	// Env: STORAGE_DB_DATABASE_URI
	DSN string `env:"DATABASE_URI"`
}

// Bridge transport modes served by the daemon.
const (
	// BridgeModeNative serves length-prefixed JSON frames over stdio, the
	// framing browsers use for native-messaging hosts.
	BridgeModeNative = "native"

	// BridgeModeHTTP serves the same envelopes over an HTTP endpoint.
	BridgeModeHTTP = "http"
)

// Bridge holds the transport settings of the RPC bridge.
type Bridge struct {
	// Mode selects the serving transport: "native" or "http".
	// Env: BRIDGE_MODE
	Mode string `env:"MODE"`

	// HTTPAddress is the TCP address the HTTP bridge listens on, in
	// "host:port" format. Only used in http mode.
	// Env: BRIDGE_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout is the maximum duration allowed for a single bridge
	// request before it is cancelled (e.g. "30s", "1m").
	// Env: BRIDGE_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// GetStructuredConfig loads, merges, and validates the application
// configuration from all available sources in the following priority order
// (earliest source wins for non-zero fields):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON file (path resolved from sources 1 and 2)
//  4. Built-in defaults
//
// Returns a fully populated *StructuredConfig or an error if any source
// fails to load or the final config fails validation.
func GetStructuredConfig() (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags().
		withJSON().
		withDefaults().
		build()
}

// GetEnvConfig loads the configuration from environment variables, an
// optional JSON file, and built-in defaults, skipping command-line flags.
// The CLI uses it because it parses its own subcommand flags.
func GetEnvConfig() (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withJSON().
		withDefaults().
		build()
}
