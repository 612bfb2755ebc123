// SPDX-License-Identifier: Apache-2.0

// chainpass is the command-line vault client. It runs a full in-process
// session and talks to it over the bridge's local transport, so every
// subcommand exercises the same dispatch path the browser extension uses.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/elewad/chainpass/internal/app"
	"github.com/elewad/chainpass/internal/bridge"
	"github.com/elewad/chainpass/internal/client"
	"github.com/elewad/chainpass/internal/config"
	"github.com/elewad/chainpass/internal/ledger/rpcnode"
	"github.com/elewad/chainpass/internal/logger"
	"github.com/elewad/chainpass/internal/session"
	"github.com/elewad/chainpass/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "chainpass:", err)
		os.Exit(1)
	}
}

func run() error {
	// Subcommands own their flag sets, so the global flag registry stays
	// untouched: configuration comes from env, JSON and defaults only.
	log := logger.NewHostLogger("chainpass")

	cfg, err := config.GetEnvConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx := context.Background()

	db, err := store.NewConnectSQLite(ctx, cfg.Storage.DB.DSN, log)
	if err != nil {
		return fmt.Errorf("open profile database: %w", err)
	}
	defer db.Close()

	if err = db.Migrate(); err != nil {
		return fmt.Errorf("migrate profile database: %w", err)
	}
	profiles := store.NewProfileRepository(db, log)

	mgr := session.NewManager(rpcnode.Dialer(log), log)
	defer func() { _ = mgr.Disconnect(context.Background()) }()

	opts, err := app.ResolveConnectOptions(ctx, cfg, profiles)
	if err != nil {
		return err
	}
	app.Connect(ctx, mgr, opts, log)

	dispatcher := bridge.NewDispatcher(mgr, log)
	transport := bridge.NewLocalTransport()
	transport.AddListener(dispatcher.Dispatch)

	return client.NewApp(profiles, transport, log).Run(ctx, os.Args[1:])
}
