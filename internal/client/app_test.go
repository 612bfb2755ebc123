// SPDX-License-Identifier: Apache-2.0

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elewad/chainpass/internal/bridge"
	"github.com/elewad/chainpass/internal/logger"
	"github.com/elewad/chainpass/models"
)

// stubProfiles scripts the profile store with plain function fields.
type stubProfiles struct {
	saved   []models.Profile
	listed  []models.Profile
	deleted []string
}

func (s *stubProfiles) SaveProfile(_ context.Context, p models.Profile) error {
	s.saved = append(s.saved, p)
	return nil
}

func (s *stubProfiles) GetProfile(context.Context, string) (models.Profile, error) {
	return models.Profile{}, nil
}

func (s *stubProfiles) ListProfiles(context.Context) ([]models.Profile, error) {
	return s.listed, nil
}

func (s *stubProfiles) DeleteProfile(_ context.Context, name string) error {
	s.deleted = append(s.deleted, name)
	return nil
}

// newTestApp wires an App over a local transport whose listener replies
// from a canned per-method table.
func newTestApp(t *testing.T, replies map[models.Method]any) (*App, *bytes.Buffer, *[]string) {
	t.Helper()

	transport := bridge.NewLocalTransport()
	transport.AddListener(func(_ context.Context, msg models.Message) models.Response {
		reply, ok := replies[msg.Type]
		if !ok {
			return models.Response{Type: msg.Type, Error: "NOT_CONNECTED"}
		}
		data, err := json.Marshal(reply)
		require.NoError(t, err)
		return models.Response{Type: msg.Type, Data: data}
	})

	app := NewApp(&stubProfiles{}, transport, logger.Nop())

	var out bytes.Buffer
	app.out = &out

	var copied []string
	app.clip = func(s string) error {
		copied = append(copied, s)
		return nil
	}

	return app, &out, &copied
}

func TestRun_CredsList(t *testing.T) {
	app, out, _ := newTestApp(t, map[models.Method]any{
		models.MethodGetCredentials: []models.Credential{
			{ID: "c1", Group: "Default", Payload: models.CredentialPayload{Host: "example.com", Login: "alice"}},
			{ID: "c2", Group: "Work", Payload: models.CredentialPayload{Host: "corp.example", Login: "bob"}},
		},
	})

	require.NoError(t, app.Run(context.Background(), []string{"creds", "ls"}))

	assert.Contains(t, out.String(), "example.com")
	assert.Contains(t, out.String(), "alice")
	assert.Contains(t, out.String(), "Work")
}

func TestRun_GetCopiesPasswordWithoutPrintingIt(t *testing.T) {
	app, out, copied := newTestApp(t, map[models.Method]any{
		models.MethodSelectPassword: models.SelectPasswordResult{
			Matched: []models.MatchedCredential{{Login: "alice", Password: "s3cret"}},
		},
	})

	require.NoError(t, app.Run(context.Background(), []string{"get", "-url", "https://example.com/login", "-copy"}))

	require.Equal(t, []string{"s3cret"}, *copied)
	assert.NotContains(t, out.String(), "s3cret", "password never reaches stdout with -copy")
	assert.Contains(t, out.String(), "alice")
}

func TestRun_GetNoMatches(t *testing.T) {
	app, out, copied := newTestApp(t, map[models.Method]any{
		models.MethodSelectPassword: models.SelectPasswordResult{},
	})

	require.NoError(t, app.Run(context.Background(), []string{"get", "-url", "https://nowhere.example"}))
	assert.Contains(t, out.String(), "no matches")
	assert.Empty(t, *copied)
}

func TestRun_GuardErrorSurfaces(t *testing.T) {
	app, _, _ := newTestApp(t, map[models.Method]any{})

	err := app.Run(context.Background(), []string{"creds", "ls"})
	require.Error(t, err)
	assert.Equal(t, "NOT_CONNECTED", err.Error())
}

func TestRun_UnknownCommand(t *testing.T) {
	app, _, _ := newTestApp(t, nil)

	err := app.Run(context.Background(), []string{"teleport"})
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestRun_NotesAddRequiresText(t *testing.T) {
	app, _, _ := newTestApp(t, nil)

	err := app.Run(context.Background(), []string{"notes", "add"})
	assert.ErrorIs(t, err, errMissingFlag)
}

func TestRun_Balance(t *testing.T) {
	app, out, _ := newTestApp(t, map[models.Method]any{
		models.MethodBalance: "1000000000000",
	})

	require.NoError(t, app.Run(context.Background(), []string{"balance"}))
	assert.Contains(t, out.String(), "1000000000000 pico")
}

func TestRun_Status(t *testing.T) {
	app, out, _ := newTestApp(t, map[models.Method]any{
		models.MethodIsUnlocked: true,
	})

	require.NoError(t, app.Run(context.Background(), []string{"status"}))
	assert.Contains(t, out.String(), "unlocked")
}

func TestRun_ProfileSaveReadsKeyFromEnv(t *testing.T) {
	t.Setenv("LEDGER_PRIVATE_KEY", strings.Repeat("ab", 32))

	profiles := &stubProfiles{}
	app, out, _ := newTestApp(t, nil)
	app.profiles = profiles

	err := app.Run(context.Background(), []string{
		"profile", "save", "-name", "dev", "-n", "ws://127.0.0.1:9944", "-contract", "5Gr...",
	})
	require.NoError(t, err)

	require.Len(t, profiles.saved, 1)
	assert.Equal(t, "dev", profiles.saved[0].Name)
	assert.Equal(t, strings.Repeat("ab", 32), profiles.saved[0].PrivateKey)
	assert.Contains(t, out.String(), "profile dev saved")
}

func TestRun_ProfileList(t *testing.T) {
	profiles := &stubProfiles{listed: []models.Profile{
		{Name: "dev", NodeURL: "ws://a", PrivateKey: "ab"},
		{Name: "prod", NodeURL: "wss://b"},
	}}
	app, out, _ := newTestApp(t, nil)
	app.profiles = profiles

	require.NoError(t, app.Run(context.Background(), []string{"profile", "ls"}))

	assert.Contains(t, out.String(), "dev")
	assert.Contains(t, out.String(), "set", "key presence is shown, never the key")
	assert.NotContains(t, out.String(), "ab\t")
}
