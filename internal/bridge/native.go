// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/elewad/chainpass/internal/logger"
	"github.com/elewad/chainpass/models"
)

// maxFrameSize is the browser's limit for a single message sent to a
// native-messaging host.
const maxFrameSize = 1 << 20

// ErrFrameTooLarge is returned when a frame header announces a payload
// beyond the native-messaging limit.
var ErrFrameTooLarge = errors.New("native messaging frame too large")

// NativeHost serves the browser's native-messaging channel: JSON frames
// over stdio, each prefixed with a 4-byte little-endian length. Requests
// are handled strictly in arrival order, matching the single-threaded
// cooperative model of the extension's background context. There is no
// transport timeout here — the browser owns the channel lifecycle and
// closes stdin when the extension goes away.
type NativeHost struct {
	handler Handler
	log     *logger.Logger
}

// NewNativeHost constructs a host serving h.
func NewNativeHost(h Handler, log *logger.Logger) *NativeHost {
	return &NativeHost{handler: h, log: log}
}

// Serve reads frames from r and writes responses to w until r is closed or
// ctx is cancelled. A clean close of r returns nil.
func (n *NativeHost) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg, err := readFrame(r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				n.log.Info().Msg("native messaging channel closed")
				return nil
			}
			return fmt.Errorf("read frame: %w", err)
		}

		resp := n.handler(ctx, msg)
		if err := writeFrame(w, resp); err != nil {
			return fmt.Errorf("write frame: %w", err)
		}
	}
}

func readFrame(r io.Reader) (models.Message, error) {
	var msg models.Message

	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return msg, err
	}

	size := binary.LittleEndian.Uint32(header[:])
	if size > maxFrameSize {
		return msg, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, size)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return msg, err
	}

	if err := json.Unmarshal(payload, &msg); err != nil {
		return msg, fmt.Errorf("decode frame: %w", err)
	}
	return msg, nil
}

func writeFrame(w io.Writer, resp models.Response) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	if len(payload) > maxFrameSize {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(payload))
	}

	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}
