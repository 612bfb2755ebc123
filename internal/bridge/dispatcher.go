// SPDX-License-Identifier: Apache-2.0

// Package bridge is the method-dispatch transport between the privileged
// session manager and the unprivileged UI and page-agent contexts. It
// provides request/response correlation, the per-method guard chain, and
// the single point where every failure — of any kind, from any layer — is
// flattened to the response envelope's error string. Callers on the far
// side never receive a structured error, only text.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/elewad/chainpass/internal/logger"
	"github.com/elewad/chainpass/models"
)

// Dispatcher routes request envelopes to the service. Method tokens form a
// closed set matched exhaustively; an unknown token is a request error, not
// a missing table entry.
type Dispatcher struct {
	service Service
	log     *logger.Logger
}

// NewDispatcher constructs a Dispatcher over the privileged service.
func NewDispatcher(service Service, log *logger.Logger) *Dispatcher {
	return &Dispatcher{service: service, log: log}
}

// Dispatch handles one request. It never returns an error: failures are
// flattened into the response envelope, which always carries the request's
// method token for correlation.
func (d *Dispatcher) Dispatch(ctx context.Context, msg models.Message) models.Response {
	resp := models.Response{Type: msg.Type}

	if !msg.Type.Unguarded() {
		if err := d.guard(); err != nil {
			resp.Error = err.Error()
			return resp
		}
	}

	data, err := d.invoke(ctx, msg)
	if err != nil {
		d.log.Error().Err(err).Str("method", string(msg.Type)).Msg("rpc method failed")
		resp.Error = err.Error()
		return resp
	}

	resp.Data = data
	return resp
}

// guard runs the full session guard chain. Guard failures cross the bridge
// verbatim: their text is the stable token the UI matches on.
func (d *Dispatcher) guard() error {
	if err := d.service.CheckConnect(); err != nil {
		return err
	}
	if err := d.service.CheckUser(); err != nil {
		return err
	}
	return d.service.CheckContract()
}

func (d *Dispatcher) invoke(ctx context.Context, msg models.Message) (json.RawMessage, error) {
	switch msg.Type {
	case models.MethodConnect:
		opts, err := decode[models.ConnectOptions](msg.Data)
		if err != nil {
			return nil, err
		}
		if err := d.service.Connect(ctx, opts); err != nil {
			return nil, err
		}
		return marshal(true)

	case models.MethodDisconnect:
		if err := d.service.Disconnect(ctx); err != nil {
			return nil, err
		}
		return marshal(true)

	case models.MethodIsUnlocked:
		return marshal(d.service.IsUnlocked(ctx))

	case models.MethodBalance:
		balance, err := d.service.Balance(ctx)
		if err != nil {
			return nil, err
		}
		return marshal(balance)

	case models.MethodGetCredentials:
		list, err := d.service.GetCredentials(ctx)
		if err != nil {
			return nil, err
		}
		return marshal(list)

	case models.MethodAddCredential:
		p, err := decode[models.AddCredentialPayload](msg.Data)
		if err != nil {
			return nil, err
		}
		created, err := d.service.AddCredential(ctx, p)
		if err != nil {
			return nil, err
		}
		return marshal(created)

	case models.MethodUpdateCredential:
		p, err := decode[models.UpdateCredentialPayload](msg.Data)
		if err != nil {
			return nil, err
		}
		updated, err := d.service.UpdateCredential(ctx, p)
		if err != nil {
			return nil, err
		}
		return marshal(updated)

	case models.MethodDeleteCredential:
		p, err := decode[models.DeleteCredentialPayload](msg.Data)
		if err != nil {
			return nil, err
		}
		id, err := d.service.DeleteCredential(ctx, p)
		if err != nil {
			return nil, err
		}
		return marshal(id)

	case models.MethodSaveCredential:
		opts, err := decode[models.SaveCredentialOptions](msg.Data)
		if err != nil {
			return nil, err
		}
		created, err := d.service.SaveCredential(ctx, opts)
		if err != nil {
			return nil, err
		}
		if created == nil {
			// capture was a no-op: an equal (host, login) already exists
			return nil, nil
		}
		return marshal(created)

	case models.MethodSelectPassword:
		opts, err := decode[models.SelectPasswordOptions](msg.Data)
		if err != nil {
			return nil, err
		}
		result, err := d.service.SelectPassword(ctx, opts)
		if err != nil {
			return nil, err
		}
		return marshal(result)

	case models.MethodGetNotes:
		list, err := d.service.GetNotes(ctx)
		if err != nil {
			return nil, err
		}
		return marshal(list)

	case models.MethodAddNote:
		p, err := decode[models.AddNotePayload](msg.Data)
		if err != nil {
			return nil, err
		}
		created, err := d.service.AddNote(ctx, p)
		if err != nil {
			return nil, err
		}
		return marshal(created)

	case models.MethodUpdateNote:
		p, err := decode[models.UpdateNotePayload](msg.Data)
		if err != nil {
			return nil, err
		}
		updated, err := d.service.UpdateNote(ctx, p)
		if err != nil {
			return nil, err
		}
		return marshal(updated)

	case models.MethodDeleteNote:
		p, err := decode[models.DeleteNotePayload](msg.Data)
		if err != nil {
			return nil, err
		}
		id, err := d.service.DeleteNote(ctx, p)
		if err != nil {
			return nil, err
		}
		return marshal(id)

	default:
		return nil, fmt.Errorf("unknown method %q", msg.Type)
	}
}

// decode unmarshals a request body. A missing body decodes to the zero
// value so that methods with optional payloads keep working.
func decode[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("bad request body: %w", err)
	}
	return v, nil
}

func marshal(v any) (json.RawMessage, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return raw, nil
}
