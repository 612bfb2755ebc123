// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/elewad/chainpass/models"
)

// defaultCallTimeout bounds every round trip on the local transport. The
// native-messaging transport has no such bound; the host channel's own
// lifecycle is trusted instead.
const defaultCallTimeout = 6 * time.Second

// ErrResponseTimedOut is returned when a local-transport call receives no
// response within the timeout. The text is the stable message the UI
// already knows from the extension build.
var ErrResponseTimedOut = errors.New("Response timed-out")

// ErrNoListener is returned when Send is called before any handler was
// registered.
var ErrNoListener = errors.New("no rpc listener registered")

// LocalTransport is the in-process bridge used by non-extension embeddings
// (the CLI, tests, a web build served next to the daemon). It keeps a
// single callback registry: registering a new listener silently replaces
// the previous one.
type LocalTransport struct {
	mu      sync.RWMutex
	handler Handler
	timeout time.Duration
}

// LocalOption customizes a LocalTransport.
type LocalOption func(*LocalTransport)

// WithCallTimeout overrides the round-trip timeout; tests use this to avoid
// multi-second waits.
func WithCallTimeout(d time.Duration) LocalOption {
	return func(t *LocalTransport) { t.timeout = d }
}

// NewLocalTransport constructs a LocalTransport with the 6 second default
// call timeout.
func NewLocalTransport(opts ...LocalOption) *LocalTransport {
	t := &LocalTransport{timeout: defaultCallTimeout}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// AddListener installs the handler serving subsequent calls. Last
// registered wins.
func (t *LocalTransport) AddListener(h Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handler = h
}

// Send performs one request/response round trip. The handler runs in its
// own goroutine and races against the transport timeout and ctx; a handler
// that never resolves leaks no caller. A response with a non-empty error
// field is surfaced as a plain error, exactly as the far side flattened it.
func (t *LocalTransport) Send(ctx context.Context, msg models.Message) (json.RawMessage, error) {
	t.mu.RLock()
	handler := t.handler
	t.mu.RUnlock()

	if handler == nil {
		return nil, ErrNoListener
	}

	done := make(chan models.Response, 1)
	go func() {
		done <- handler(ctx, msg)
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(t.timeout):
		return nil, ErrResponseTimedOut
	case resp := <-done:
		if resp.Error != "" {
			return nil, errors.New(resp.Error)
		}
		return resp.Data, nil
	}
}
