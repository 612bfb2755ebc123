// SPDX-License-Identifier: Apache-2.0

// Package app contains the application-layer wiring shared by the chainpass
// binaries: resolving the connection bootstrap from configuration and
// stored profiles, and opening the initial session.
package app

import (
	"context"
	"fmt"

	"github.com/elewad/chainpass/internal/config"
	"github.com/elewad/chainpass/internal/logger"
	"github.com/elewad/chainpass/internal/session"
	"github.com/elewad/chainpass/internal/store"
	"github.com/elewad/chainpass/models"
)

// ResolveConnectOptions builds the CONNECT body from configuration. A named
// profile supplies the base values; explicit configuration fields override
// profile fields one by one. An empty result (no node URL) is not an error:
// the session then simply starts disconnected.
func ResolveConnectOptions(ctx context.Context, cfg *config.StructuredConfig, profiles store.ProfileRepository) (models.ConnectOptions, error) {
	var opts models.ConnectOptions

	if cfg.Ledger.Profile != "" {
		profile, err := profiles.GetProfile(ctx, cfg.Ledger.Profile)
		if err != nil {
			return opts, fmt.Errorf("load profile %q: %w", cfg.Ledger.Profile, err)
		}
		opts = profile.ConnectOptions()
	}

	if cfg.Ledger.NodeURL != "" {
		opts.NodeURL = cfg.Ledger.NodeURL
	}
	if cfg.Ledger.Contract != "" {
		opts.Contract = cfg.Ledger.Contract
	}
	if cfg.Ledger.PrivateKey != "" {
		opts.PrivateKey = cfg.Ledger.PrivateKey
	}

	return opts, nil
}

// Connect opens the bootstrap session when a node URL is configured. A
// failed connect is logged and swallowed: the daemon still serves the
// bridge, and the far side can retry with an explicit CONNECT.
func Connect(ctx context.Context, mgr *session.Manager, opts models.ConnectOptions, log *logger.Logger) {
	if opts.NodeURL == "" {
		log.Info().Msg("no node configured; starting disconnected")
		return
	}

	if err := mgr.Connect(ctx, opts); err != nil {
		log.Warn().Err(err).Str("node", opts.NodeURL).Msg("bootstrap connect failed")
		return
	}
	log.Info().Str("node", opts.NodeURL).Msg("bootstrap session opened")
}
