// SPDX-License-Identifier: Apache-2.0

// Package client implements the chainpass command-line application: a set
// of vault subcommands that talk to an in-process session through the
// bridge's local transport, exactly the path the extension popup takes.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/atotto/clipboard"

	"github.com/elewad/chainpass/internal/bridge"
	"github.com/elewad/chainpass/internal/logger"
	"github.com/elewad/chainpass/internal/store"
)

// ErrUnknownCommand is returned when the first argument names no
// subcommand.
var ErrUnknownCommand = errors.New("unknown command")

// App is the CLI application. Output and the clipboard hook are injectable
// for tests.
type App struct {
	profiles  store.ProfileRepository
	transport *bridge.LocalTransport
	log       *logger.Logger

	out  io.Writer
	clip func(string) error
}

// NewApp wires the CLI over the given profile store and local transport.
func NewApp(profiles store.ProfileRepository, transport *bridge.LocalTransport, log *logger.Logger) *App {
	return &App{
		profiles:  profiles,
		transport: transport,
		log:       log,
		out:       os.Stdout,
		clip:      clipboard.WriteAll,
	}
}

// Run executes one subcommand. args is the command line after the binary
// name.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.usage()
		return ErrUnknownCommand
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "creds":
		return a.runCreds(ctx, rest)
	case "notes":
		return a.runNotes(ctx, rest)
	case "get":
		return a.runGet(ctx, rest)
	case "balance":
		return a.runBalance(ctx)
	case "status":
		return a.runStatus(ctx)
	case "profile":
		return a.runProfile(ctx, rest)
	case "help", "-h", "--help":
		a.usage()
		return nil
	default:
		a.usage()
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
	}
}

func (a *App) usage() {
	fmt.Fprint(a.out, `chainpass — vault client

Usage:
  chainpass creds ls
  chainpass creds add -host <host> -login <login> -password <password> [-group <group>]
  chainpass creds rm -id <id>
  chainpass get -url <page url> [-copy]
  chainpass notes ls
  chainpass notes add -text <text>
  chainpass notes rm -id <id>
  chainpass balance
  chainpass status
  chainpass profile ls
  chainpass profile save -name <name> -n <node url> [-contract <address>]
  chainpass profile rm -name <name>

The signing key is read from the LEDGER_PRIVATE_KEY environment variable
or a stored profile; it is never accepted as a flag.
`)
}
