// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/elewad/chainpass/models"
)

// send performs one typed round trip over the local transport: marshal the
// body, send the envelope, decode the reply into T. A nil body sends an
// empty envelope.
func send[T any](ctx context.Context, a *App, method models.Method, body any) (T, error) {
	var result T

	var raw json.RawMessage
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return result, fmt.Errorf("%s: encode request: %w", method, err)
		}
		raw = data
	}

	reply, err := a.transport.Send(ctx, models.Message{Type: method, Data: raw})
	if err != nil {
		return result, err
	}

	if len(reply) == 0 {
		return result, nil
	}
	if err := json.Unmarshal(reply, &result); err != nil {
		return result, fmt.Errorf("%s: decode reply: %w", method, err)
	}
	return result, nil
}
