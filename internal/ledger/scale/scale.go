// SPDX-License-Identifier: Apache-2.0

// Package scale implements the small subset of the SCALE codec this client
// needs on its contract-call boundary: compact length prefixes, UTF-8
// strings and byte vectors, and little-endian unsigned integers up to u128.
//
// Full generality (enums, tuples, metadata-driven decoding) is deliberately
// out of scope; the contract ABI this client speaks exchanges strings only.
package scale

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/crypto/blake2b"
)

var (
	// ErrShortBuffer is returned when a decode runs past the end of input.
	ErrShortBuffer = errors.New("scale: short buffer")

	// ErrCompactTooLarge is returned for compact values beyond uint64.
	ErrCompactTooLarge = errors.New("scale: compact value too large")
)

// AppendCompact appends the SCALE compact encoding of n to dst.
func AppendCompact(dst []byte, n uint64) []byte {
	switch {
	case n < 1<<6:
		return append(dst, byte(n)<<2)
	case n < 1<<14:
		v := uint16(n)<<2 | 0b01
		return binary.LittleEndian.AppendUint16(dst, v)
	case n < 1<<30:
		v := uint32(n)<<2 | 0b10
		return binary.LittleEndian.AppendUint32(dst, v)
	default:
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], n)
		size := 8
		for size > 4 && buf[size-1] == 0 {
			size--
		}
		dst = append(dst, byte(size-4)<<2|0b11)
		return append(dst, buf[:size]...)
	}
}

// DecodeCompact reads a compact-encoded unsigned integer from the front of
// b, returning the value and the number of bytes consumed.
func DecodeCompact(b []byte) (uint64, int, error) {
	if len(b) == 0 {
		return 0, 0, ErrShortBuffer
	}

	switch b[0] & 0b11 {
	case 0b00:
		return uint64(b[0] >> 2), 1, nil
	case 0b01:
		if len(b) < 2 {
			return 0, 0, ErrShortBuffer
		}
		return uint64(binary.LittleEndian.Uint16(b[:2]) >> 2), 2, nil
	case 0b10:
		if len(b) < 4 {
			return 0, 0, ErrShortBuffer
		}
		return uint64(binary.LittleEndian.Uint32(b[:4]) >> 2), 4, nil
	default:
		size := int(b[0]>>2) + 4
		if size > 8 {
			return 0, 0, ErrCompactTooLarge
		}
		if len(b) < 1+size {
			return 0, 0, ErrShortBuffer
		}
		var buf [8]byte
		copy(buf[:], b[1:1+size])
		return binary.LittleEndian.Uint64(buf[:]), 1 + size, nil
	}
}

// AppendString appends the SCALE encoding of s (compact byte length
// followed by the raw bytes) to dst.
func AppendString(dst []byte, s string) []byte {
	dst = AppendCompact(dst, uint64(len(s)))
	return append(dst, s...)
}

// DecodeString reads a length-prefixed string from the front of b,
// returning the value and the number of bytes consumed.
func DecodeString(b []byte) (string, int, error) {
	n, read, err := DecodeCompact(b)
	if err != nil {
		return "", 0, err
	}
	end := read + int(n)
	if n > uint64(len(b)) || end > len(b) {
		return "", 0, fmt.Errorf("%w: string of %d bytes", ErrShortBuffer, n)
	}
	return string(b[read:end]), end, nil
}

// DecodeU32 reads a little-endian u32 from the front of b.
func DecodeU32(b []byte) (uint32, int, error) {
	if len(b) < 4 {
		return 0, 0, ErrShortBuffer
	}
	return binary.LittleEndian.Uint32(b[:4]), 4, nil
}

// DecodeU64 reads a little-endian u64 from the front of b.
func DecodeU64(b []byte) (uint64, int, error) {
	if len(b) < 8 {
		return 0, 0, ErrShortBuffer
	}
	return binary.LittleEndian.Uint64(b[:8]), 8, nil
}

// DecodeU128 reads a little-endian u128 from the front of b into a big.Int.
func DecodeU128(b []byte) (*big.Int, int, error) {
	if len(b) < 16 {
		return nil, 0, ErrShortBuffer
	}
	be := make([]byte, 16)
	for i := 0; i < 16; i++ {
		be[i] = b[15-i]
	}
	return new(big.Int).SetBytes(be), 16, nil
}

// Selector computes the 4-byte ink! message selector for a method name:
// the first four bytes of blake2b-256 over the name.
func Selector(method string) [4]byte {
	sum := blake2b.Sum256([]byte(method))
	var sel [4]byte
	copy(sel[:], sum[:4])
	return sel
}
