// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/elewad/chainpass/models"
)

var errMissingFlag = errors.New("missing required flag")

// flagSet builds a silent flag set for a subcommand; errors surface through
// Parse's return value instead of the default os.Exit behaviour.
func flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

// ─────────────────────────────────────────────
// creds
// ─────────────────────────────────────────────

func (a *App) runCreds(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: creds needs ls, add or rm", ErrUnknownCommand)
	}

	switch args[0] {
	case "ls":
		return a.credsList(ctx)
	case "add":
		return a.credsAdd(ctx, args[1:])
	case "rm":
		return a.credsRemove(ctx, args[1:])
	default:
		return fmt.Errorf("%w: creds %q", ErrUnknownCommand, args[0])
	}
}

func (a *App) credsList(ctx context.Context) error {
	creds, err := send[[]models.Credential](ctx, a, models.MethodGetCredentials, nil)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tGROUP\tHOST\tLOGIN")
	for _, c := range creds {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.ID, c.Group, c.Payload.Host, c.Payload.Login)
	}
	return w.Flush()
}

func (a *App) credsAdd(ctx context.Context, args []string) error {
	fs := flagSet("creds add")
	host := fs.String("host", "", "site host")
	login := fs.String("login", "", "login")
	password := fs.String("password", "", "password")
	group := fs.String("group", "Default", "credential group")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *host == "" || *login == "" || *password == "" {
		return fmt.Errorf("%w: -host, -login and -password", errMissingFlag)
	}

	created, err := send[models.Credential](ctx, a, models.MethodAddCredential, models.AddCredentialPayload{
		Group: *group,
		Payload: models.CredentialPayload{
			Host:     *host,
			Login:    *login,
			Password: *password,
		},
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "created %s\n", created.ID)
	return nil
}

func (a *App) credsRemove(ctx context.Context, args []string) error {
	fs := flagSet("creds rm")
	id := fs.String("id", "", "credential id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("%w: -id", errMissingFlag)
	}

	removed, err := send[string](ctx, a, models.MethodDeleteCredential, models.DeleteCredentialPayload{ID: *id})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "removed %s\n", removed)
	return nil
}

// ─────────────────────────────────────────────
// get
// ─────────────────────────────────────────────

// runGet resolves the credentials matching a page URL. With -copy the first
// match's password goes to the clipboard and is never printed.
func (a *App) runGet(ctx context.Context, args []string) error {
	fs := flagSet("get")
	url := fs.String("url", "", "page url to match")
	copyFlag := fs.Bool("copy", false, "copy the first matched password to the clipboard")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *url == "" {
		return fmt.Errorf("%w: -url", errMissingFlag)
	}

	result, err := send[models.SelectPasswordResult](ctx, a, models.MethodSelectPassword, models.SelectPasswordOptions{
		URL: *url,
	})
	if err != nil {
		return err
	}

	if len(result.Matched) == 0 {
		fmt.Fprintln(a.out, "no matches")
		return nil
	}

	if *copyFlag {
		if err := a.clip(result.Matched[0].Password); err != nil {
			return fmt.Errorf("clipboard: %w", err)
		}
		fmt.Fprintf(a.out, "password for %s copied to clipboard\n", result.Matched[0].Login)
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LOGIN\tPASSWORD")
	for _, m := range result.Matched {
		fmt.Fprintf(w, "%s\t%s\n", m.Login, m.Password)
	}
	return w.Flush()
}

// ─────────────────────────────────────────────
// notes
// ─────────────────────────────────────────────

func (a *App) runNotes(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: notes needs ls, add or rm", ErrUnknownCommand)
	}

	switch args[0] {
	case "ls":
		return a.notesList(ctx)
	case "add":
		return a.notesAdd(ctx, args[1:])
	case "rm":
		return a.notesRemove(ctx, args[1:])
	default:
		return fmt.Errorf("%w: notes %q", ErrUnknownCommand, args[0])
	}
}

func (a *App) notesList(ctx context.Context) error {
	notes, err := send[[]models.Note](ctx, a, models.MethodGetNotes, nil)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tTEXT")
	for _, n := range notes {
		fmt.Fprintf(w, "%s\t%s\t%s\n", n.ID, n.Payload.Title, n.Payload.Text)
	}
	return w.Flush()
}

func (a *App) notesAdd(ctx context.Context, args []string) error {
	fs := flagSet("notes add")
	title := fs.String("title", "", "note title")
	text := fs.String("text", "", "note text")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *text == "" {
		return fmt.Errorf("%w: -text", errMissingFlag)
	}

	created, err := send[models.Note](ctx, a, models.MethodAddNote, models.AddNotePayload{
		Payload: models.NotePayload{Title: *title, Text: *text},
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "created %s\n", created.ID)
	return nil
}

func (a *App) notesRemove(ctx context.Context, args []string) error {
	fs := flagSet("notes rm")
	id := fs.String("id", "", "note id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("%w: -id", errMissingFlag)
	}

	removed, err := send[string](ctx, a, models.MethodDeleteNote, models.DeleteNotePayload{ID: *id})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "removed %s\n", removed)
	return nil
}

// ─────────────────────────────────────────────
// balance / status
// ─────────────────────────────────────────────

func (a *App) runBalance(ctx context.Context) error {
	balance, err := send[string](ctx, a, models.MethodBalance, nil)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s pico\n", balance)
	return nil
}

func (a *App) runStatus(ctx context.Context) error {
	unlocked, err := send[bool](ctx, a, models.MethodIsUnlocked, nil)
	if err != nil {
		return err
	}

	if unlocked {
		fmt.Fprintln(a.out, "session: unlocked")
	} else {
		fmt.Fprintln(a.out, "session: locked")
	}
	return nil
}

// ─────────────────────────────────────────────
// profile
// ─────────────────────────────────────────────

func (a *App) runProfile(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: profile needs ls, save or rm", ErrUnknownCommand)
	}

	switch args[0] {
	case "ls":
		return a.profileList(ctx)
	case "save":
		return a.profileSave(ctx, args[1:])
	case "rm":
		return a.profileRemove(ctx, args[1:])
	default:
		return fmt.Errorf("%w: profile %q", ErrUnknownCommand, args[0])
	}
}

func (a *App) profileList(ctx context.Context) error {
	profiles, err := a.profiles.ListProfiles(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tNODE\tCONTRACT\tKEY")
	for _, p := range profiles {
		key := "-"
		if p.PrivateKey != "" {
			key = "set"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Name, p.NodeURL, p.Contract, key)
	}
	return w.Flush()
}

// profileSave stores a connection profile. The signing key is taken from
// the LEDGER_PRIVATE_KEY environment variable so it never shows up in
// shell history.
func (a *App) profileSave(ctx context.Context, args []string) error {
	fs := flagSet("profile save")
	name := fs.String("name", "", "profile name")
	nodeURL := fs.String("n", "", "node RPC endpoint URL")
	contract := fs.String("contract", "", "vault contract SS58 address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" || *nodeURL == "" {
		return fmt.Errorf("%w: -name and -n", errMissingFlag)
	}

	err := a.profiles.SaveProfile(ctx, models.Profile{
		Name:       *name,
		NodeURL:    *nodeURL,
		Contract:   *contract,
		PrivateKey: os.Getenv("LEDGER_PRIVATE_KEY"),
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "profile %s saved\n", *name)
	return nil
}

func (a *App) profileRemove(ctx context.Context, args []string) error {
	fs := flagSet("profile rm")
	name := fs.String("name", "", "profile name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return fmt.Errorf("%w: -name", errMissingFlag)
	}

	if err := a.profiles.DeleteProfile(ctx, *name); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "profile %s removed\n", *name)
	return nil
}
