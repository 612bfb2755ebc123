// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"

	"github.com/elewad/chainpass/models"
)

// Service is the privileged surface the bridge exposes to the unprivileged
// contexts. It is the session manager seen from the other side of the
// process boundary: no signing key, no contract handle, only operations.
type Service interface {
	Connect(ctx context.Context, opts models.ConnectOptions) error
	Disconnect(ctx context.Context) error
	IsUnlocked(ctx context.Context) bool
	Balance(ctx context.Context) (string, error)

	GetCredentials(ctx context.Context) ([]models.Credential, error)
	AddCredential(ctx context.Context, p models.AddCredentialPayload) (models.Credential, error)
	UpdateCredential(ctx context.Context, p models.UpdateCredentialPayload) (models.Credential, error)
	DeleteCredential(ctx context.Context, p models.DeleteCredentialPayload) (string, error)
	SaveCredential(ctx context.Context, opts models.SaveCredentialOptions) (*models.Credential, error)
	SelectPassword(ctx context.Context, opts models.SelectPasswordOptions) (models.SelectPasswordResult, error)

	GetNotes(ctx context.Context) ([]models.Note, error)
	AddNote(ctx context.Context, p models.AddNotePayload) (models.Note, error)
	UpdateNote(ctx context.Context, p models.UpdateNotePayload) (models.Note, error)
	DeleteNote(ctx context.Context, p models.DeleteNotePayload) (string, error)

	// Guard checks, run by the dispatcher before every method except
	// CONNECT / DISCONNECT / IS_UNLOCKED.
	CheckConnect() error
	CheckUser() error
	CheckContract() error
}

// Handler processes one request envelope into one response envelope. Both
// the dispatcher and the transports speak this shape, so transports are
// interchangeable and callers cannot tell which one served them.
type Handler func(ctx context.Context, msg models.Message) models.Response
