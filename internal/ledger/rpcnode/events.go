// SPDX-License-Identifier: Apache-2.0

package rpcnode

import (
	"context"
	"fmt"

	"github.com/elewad/chainpass/internal/ledger"
	"github.com/elewad/chainpass/internal/ledger/scale"
)

// System.Events decoding. Without runtime metadata only the System pallet's
// own event records have a known layout, so the scan walks records until it
// either finds the verdict for the wanted extrinsic or hits an event it
// cannot size, in which case it reports an error and the caller treats the
// outcome as unknown.

const (
	phaseApplyExtrinsic = 0
	phaseFinalization   = 1
	phaseInitialization = 2
)

const (
	eventExtrinsicSuccess = 0
	eventExtrinsicFailed  = 1
)

// extrinsicDispatchError reads the event log of a block and returns the
// dispatch error of the extrinsic at extIndex, or nil when it succeeded.
func (c *Client) extrinsicDispatchError(ctx context.Context, blockHash hexString, extIndex uint32) (*ledger.DispatchError, error) {
	var value *hexString
	params := []any{toHex(systemEventsKey()), blockHash}
	if err := c.call(ctx, "state_getStorage", params, &value); err != nil {
		return nil, fmt.Errorf("event log read: %w", err)
	}
	if value == nil {
		return nil, fmt.Errorf("event log read: block has no event record")
	}
	raw, err := value.bytes()
	if err != nil {
		return nil, fmt.Errorf("event log read: %w", err)
	}

	count, off, err := scale.DecodeCompact(raw)
	if err != nil {
		return nil, fmt.Errorf("event log decode: %w", err)
	}

	for rec := uint64(0); rec < count; rec++ {
		if off >= len(raw) {
			return nil, fmt.Errorf("event log decode: truncated at record %d", rec)
		}

		phase := raw[off]
		off++
		var phaseIndex uint32
		if phase == phaseApplyExtrinsic {
			v, read, err := scale.DecodeU32(raw[off:])
			if err != nil {
				return nil, fmt.Errorf("event log decode: record %d: %w", rec, err)
			}
			phaseIndex = v
			off += read
		} else if phase != phaseFinalization && phase != phaseInitialization {
			return nil, fmt.Errorf("event log decode: record %d: unknown phase %d", rec, phase)
		}

		if off+2 > len(raw) {
			return nil, fmt.Errorf("event log decode: truncated at record %d", rec)
		}
		pallet, variant := raw[off], raw[off+1]
		off += 2

		if pallet != systemPalletIndex {
			return nil, fmt.Errorf("event log decode: record %d: pallet %d has no known layout", rec, pallet)
		}

		var dispatchErr *ledger.DispatchError
		switch variant {
		case eventExtrinsicSuccess:
			read, err := decodeDispatchInfo(raw[off:])
			if err != nil {
				return nil, fmt.Errorf("event log decode: record %d: %w", rec, err)
			}
			off += read

		case eventExtrinsicFailed:
			var read int
			dispatchErr, read, err = decodeDispatchErrorValue(raw[off:])
			if err != nil {
				return nil, fmt.Errorf("event log decode: record %d: %w", rec, err)
			}
			off += read
			read, err = decodeDispatchInfo(raw[off:])
			if err != nil {
				return nil, fmt.Errorf("event log decode: record %d: %w", rec, err)
			}
			off += read

		default:
			return nil, fmt.Errorf("event log decode: record %d: system event %d has no known layout", rec, variant)
		}

		// topics: Vec<Hash>
		topics, read, err := scale.DecodeCompact(raw[off:])
		if err != nil {
			return nil, fmt.Errorf("event log decode: record %d: %w", rec, err)
		}
		off += read + int(topics)*32

		if phase == phaseApplyExtrinsic && phaseIndex == extIndex {
			return dispatchErr, nil
		}
	}
	return nil, fmt.Errorf("event log decode: no record for extrinsic %d", extIndex)
}

// decodeDispatchInfo skips over a DispatchInfo value: a two-part weight,
// the dispatch class, and the pays-fee marker.
func decodeDispatchInfo(b []byte) (int, error) {
	off := 0
	for i := 0; i < 2; i++ {
		_, read, err := scale.DecodeCompact(b[off:])
		if err != nil {
			return 0, fmt.Errorf("dispatch info: %w", err)
		}
		off += read
	}
	if off+2 > len(b) {
		return 0, fmt.Errorf("dispatch info: %w", scale.ErrShortBuffer)
	}
	return off + 2, nil
}

// decodeDispatchErrorValue decodes a runtime DispatchError enum value.
// Module errors keep their pallet and error indices for metadata lookup;
// every other variant flattens to text.
func decodeDispatchErrorValue(b []byte) (*ledger.DispatchError, int, error) {
	if len(b) == 0 {
		return nil, 0, scale.ErrShortBuffer
	}
	switch tag := b[0]; tag {
	case 0:
		return &ledger.DispatchError{Other: "unspecified dispatch error"}, 1, nil
	case 1:
		return &ledger.DispatchError{Other: "cannot lookup origin"}, 1, nil
	case 2:
		return &ledger.DispatchError{Other: "bad origin"}, 1, nil
	case 3:
		// Module { index: u8, error: [u8; 4] }; only the first error byte
		// is significant for the pallets this client knows.
		if len(b) < 6 {
			return nil, 0, scale.ErrShortBuffer
		}
		return &ledger.DispatchError{
			Module: &ledger.ModuleError{Index: b[1], Error: b[2]},
		}, 6, nil
	case 4:
		return &ledger.DispatchError{Other: "consumer references remaining"}, 1, nil
	case 5:
		return &ledger.DispatchError{Other: "no providers"}, 1, nil
	case 6:
		return &ledger.DispatchError{Other: "too many consumers"}, 1, nil
	case 7:
		if len(b) < 2 {
			return nil, 0, scale.ErrShortBuffer
		}
		return &ledger.DispatchError{Other: fmt.Sprintf("token error %d", b[1])}, 2, nil
	case 8:
		if len(b) < 2 {
			return nil, 0, scale.ErrShortBuffer
		}
		return &ledger.DispatchError{Other: fmt.Sprintf("arithmetic error %d", b[1])}, 2, nil
	case 9:
		if len(b) < 2 {
			return nil, 0, scale.ErrShortBuffer
		}
		return &ledger.DispatchError{Other: fmt.Sprintf("transactional error %d", b[1])}, 2, nil
	default:
		return nil, 0, fmt.Errorf("dispatch error variant %d has no known layout", tag)
	}
}
