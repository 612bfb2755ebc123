// SPDX-License-Identifier: Apache-2.0

// Package config loads the chainpass configuration from environment
// variables, command-line flags, an optional JSON file, and built-in
// defaults, merging them in that priority order.
package config
