// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elewad/chainpass/internal/logger"
	"github.com/elewad/chainpass/internal/session"
	"github.com/elewad/chainpass/models"
)

// The session manager is the production Service.
var _ Service = (*session.Manager)(nil)

// stubService scripts the privileged side of the bridge and records which
// handlers were actually invoked.
type stubService struct {
	checkConnectErr  error
	checkUserErr     error
	checkContractErr error

	connectErr  error
	unlocked    bool
	balance     string
	balanceErr  error
	credentials []models.Credential
	getCredsErr error
	saved       *models.Credential

	invoked []string
}

func (s *stubService) record(name string) { s.invoked = append(s.invoked, name) }

func (s *stubService) Connect(_ context.Context, _ models.ConnectOptions) error {
	s.record("connect")
	return s.connectErr
}

func (s *stubService) Disconnect(context.Context) error {
	s.record("disconnect")
	return nil
}

func (s *stubService) IsUnlocked(context.Context) bool {
	s.record("isUnlocked")
	return s.unlocked
}

func (s *stubService) Balance(context.Context) (string, error) {
	s.record("balance")
	return s.balance, s.balanceErr
}

func (s *stubService) GetCredentials(context.Context) ([]models.Credential, error) {
	s.record("getCredentials")
	return s.credentials, s.getCredsErr
}

func (s *stubService) AddCredential(_ context.Context, p models.AddCredentialPayload) (models.Credential, error) {
	s.record("addCredential")
	return models.Credential{ID: "new", Group: p.Group, Payload: p.Payload}, nil
}

func (s *stubService) UpdateCredential(_ context.Context, p models.UpdateCredentialPayload) (models.Credential, error) {
	s.record("updateCredential")
	return models.Credential{ID: p.ID, Group: p.Group, Payload: p.Payload}, nil
}

func (s *stubService) DeleteCredential(_ context.Context, p models.DeleteCredentialPayload) (string, error) {
	s.record("deleteCredential")
	return p.ID, nil
}

func (s *stubService) SaveCredential(_ context.Context, _ models.SaveCredentialOptions) (*models.Credential, error) {
	s.record("saveCredential")
	return s.saved, nil
}

func (s *stubService) SelectPassword(_ context.Context, opts models.SelectPasswordOptions) (models.SelectPasswordResult, error) {
	s.record("selectPassword")
	return models.SelectPasswordResult{Selectors: opts.Selectors}, nil
}

func (s *stubService) GetNotes(context.Context) ([]models.Note, error) {
	s.record("getNotes")
	return nil, nil
}

func (s *stubService) AddNote(_ context.Context, p models.AddNotePayload) (models.Note, error) {
	s.record("addNote")
	return models.Note{ID: "note", Payload: p.Payload}, nil
}

func (s *stubService) UpdateNote(_ context.Context, p models.UpdateNotePayload) (models.Note, error) {
	s.record("updateNote")
	return models.Note{ID: p.ID, Payload: p.Payload}, nil
}

func (s *stubService) DeleteNote(_ context.Context, p models.DeleteNotePayload) (string, error) {
	s.record("deleteNote")
	return p.ID, nil
}

func (s *stubService) CheckConnect() error  { return s.checkConnectErr }
func (s *stubService) CheckUser() error     { return s.checkUserErr }
func (s *stubService) CheckContract() error { return s.checkContractErr }

func dispatch(t *testing.T, svc *stubService, method models.Method, body any) models.Response {
	t.Helper()

	var raw json.RawMessage
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(t, err)
	}

	d := NewDispatcher(svc, logger.Nop())
	return d.Dispatch(context.Background(), models.Message{Type: method, Data: raw})
}

func TestDispatch_GuardedMethodBlockedBeforeConnect(t *testing.T) {
	svc := &stubService{checkConnectErr: session.ErrNotConnected}

	resp := dispatch(t, svc, models.MethodGetCredentials, nil)

	assert.Equal(t, "NOT_CONNECTED", resp.Error, "guard token crosses the bridge verbatim")
	assert.Empty(t, resp.Data)
	assert.Empty(t, svc.invoked, "the underlying handler must not run")
}

func TestDispatch_GuardOrder(t *testing.T) {
	svc := &stubService{
		checkUserErr:     session.ErrSignerNotFound,
		checkContractErr: session.ErrContractNotFound,
	}

	resp := dispatch(t, svc, models.MethodAddNote, models.AddNotePayload{})
	assert.Equal(t, "SIGNER_NOT_FOUND", resp.Error)
}

func TestDispatch_LifecycleMethodsBypassGuards(t *testing.T) {
	svc := &stubService{checkConnectErr: session.ErrNotConnected, unlocked: false}

	resp := dispatch(t, svc, models.MethodIsUnlocked, nil)
	assert.Empty(t, resp.Error)
	assert.JSONEq(t, `false`, string(resp.Data))

	resp = dispatch(t, svc, models.MethodConnect, models.ConnectOptions{NodeURL: "ws://x"})
	assert.Empty(t, resp.Error)
	assert.JSONEq(t, `true`, string(resp.Data))

	resp = dispatch(t, svc, models.MethodDisconnect, nil)
	assert.Empty(t, resp.Error)

	assert.Equal(t, []string{"isUnlocked", "connect", "disconnect"}, svc.invoked)
}

func TestDispatch_UnknownMethod(t *testing.T) {
	svc := &stubService{}

	resp := dispatch(t, svc, models.Method("FORMAT_DISK"), nil)
	assert.Contains(t, resp.Error, "unknown method")
	assert.Empty(t, resp.Data)
}

func TestDispatch_HandlerErrorIsFlattened(t *testing.T) {
	svc := &stubService{balanceErr: errors.New("balance: node exploded")}

	resp := dispatch(t, svc, models.MethodBalance, nil)
	assert.Equal(t, models.MethodBalance, resp.Type)
	assert.Equal(t, "balance: node exploded", resp.Error)
	assert.Empty(t, resp.Data)
}

func TestDispatch_BadBody(t *testing.T) {
	d := NewDispatcher(&stubService{}, logger.Nop())

	resp := d.Dispatch(context.Background(), models.Message{
		Type: models.MethodAddCredential,
		Data: json.RawMessage(`{"group": 7}`),
	})
	assert.Contains(t, resp.Error, "bad request body")
}

func TestDispatch_SuccessEnvelope(t *testing.T) {
	svc := &stubService{credentials: []models.Credential{{ID: "a"}, {ID: "b"}}}

	resp := dispatch(t, svc, models.MethodGetCredentials, nil)
	require.Empty(t, resp.Error)
	assert.Equal(t, models.MethodGetCredentials, resp.Type)

	var list []models.Credential
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	assert.Len(t, list, 2)
}

// SAVE_CREDENTIAL answers with an empty body when the capture was a no-op.
func TestDispatch_SaveCredentialNoOp(t *testing.T) {
	resp := dispatch(t, &stubService{}, models.MethodSaveCredential, models.SaveCredentialOptions{
		Host: "example.com", Login: "a", Password: "b",
	})
	assert.Empty(t, resp.Error)
	assert.Empty(t, resp.Data)
}

func TestDispatch_RoundTripThroughEveryMutator(t *testing.T) {
	svc := &stubService{}

	for _, tc := range []struct {
		method models.Method
		body   any
	}{
		{models.MethodAddCredential, models.AddCredentialPayload{Group: "g"}},
		{models.MethodUpdateCredential, models.UpdateCredentialPayload{ID: "1"}},
		{models.MethodDeleteCredential, models.DeleteCredentialPayload{ID: "1"}},
		{models.MethodAddNote, models.AddNotePayload{}},
		{models.MethodUpdateNote, models.UpdateNotePayload{ID: "n"}},
		{models.MethodDeleteNote, models.DeleteNotePayload{ID: "n"}},
		{models.MethodSelectPassword, models.SelectPasswordOptions{URL: "https://example.com"}},
		{models.MethodGetNotes, nil},
	} {
		resp := dispatch(t, svc, tc.method, tc.body)
		assert.Emptyf(t, resp.Error, "method %s", tc.method)
		assert.Equal(t, tc.method, resp.Type)
	}
}
