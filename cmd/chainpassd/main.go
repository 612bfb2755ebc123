// SPDX-License-Identifier: Apache-2.0

// chainpassd is the privileged background daemon: it owns the session and
// serves the RPC bridge, either as a browser native-messaging host over
// stdio or as a local HTTP endpoint.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/elewad/chainpass/internal/app"
	"github.com/elewad/chainpass/internal/bridge"
	"github.com/elewad/chainpass/internal/config"
	"github.com/elewad/chainpass/internal/ledger/rpcnode"
	"github.com/elewad/chainpass/internal/logger"
	"github.com/elewad/chainpass/internal/session"
	"github.com/elewad/chainpass/internal/store"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	// stdout may carry native-messaging frames, so all logging goes to
	// stderr.
	log := logger.NewHostLogger("chainpassd")

	cfg, err := config.GetStructuredConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}
	log.Debug().Any("config", cfg).Msg("received configs")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.NewConnectSQLite(ctx, cfg.Storage.DB.DSN, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error opening profile database")
	}
	defer db.Close()

	if err = db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("error migrating profile database")
	}
	profiles := store.NewProfileRepository(db, log)

	mgr := session.NewManager(rpcnode.Dialer(log), log)
	defer func() { _ = mgr.Disconnect(context.Background()) }()

	opts, err := app.ResolveConnectOptions(ctx, cfg, profiles)
	if err != nil {
		log.Fatal().Err(err).Msg("error resolving connection bootstrap")
	}
	app.Connect(ctx, mgr, opts, log)

	dispatcher := bridge.NewDispatcher(mgr, log)

	switch cfg.Bridge.Mode {
	case config.BridgeModeNative:
		err = serveNative(ctx, dispatcher, log)
	case config.BridgeModeHTTP:
		err = serveHTTP(ctx, dispatcher, cfg.Bridge, log)
	default:
		err = fmt.Errorf("unknown bridge mode %q", cfg.Bridge.Mode)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("bridge stopped")
	}
	log.Info().Msg("bridge stopped")
}

func serveNative(ctx context.Context, dispatcher *bridge.Dispatcher, log *logger.Logger) error {
	host := bridge.NewNativeHost(dispatcher.Dispatch, log)
	return host.Serve(ctx, os.Stdin, os.Stdout)
}

func serveHTTP(ctx context.Context, dispatcher *bridge.Dispatcher, cfg config.Bridge, log *logger.Logger) error {
	srv := &http.Server{
		Addr:         cfg.HTTPAddress,
		Handler:      bridge.NewRouter(dispatcher.Dispatch, log),
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("address", cfg.HTTPAddress).Msg("serving http bridge")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}
	if buildDate == "" {
		buildDate = "N/A"
	}
	if buildCommit == "" {
		buildCommit = "N/A"
	}

	// stderr: stdout may belong to the native-messaging channel.
	fmt.Fprintf(os.Stderr, "Build version: %s\n", buildVersion)
	fmt.Fprintf(os.Stderr, "Build date: %s\n", buildDate)
	fmt.Fprintf(os.Stderr, "Build commit: %s\n", buildCommit)
}
