// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// ErrInvalidSignerKey is returned when a signer key is not 32 bytes of hex.
var ErrInvalidSignerKey = errors.New("invalid signer key")

// SignerFactory builds a Signer capability from a raw 32-byte key in hex.
// The session manager is configured with one so that the actual signature
// scheme (sr25519 on the production chains) stays outside this core.
type SignerFactory func(keyHex string) (Signer, error)

// devSigner is a stand-in Signer for tests and embeddings that run against
// nodes with signature verification disabled. It is NOT sr25519: the
// account identifier is the blake2b-256 hash of the seed and signatures are
// keyed blake2b digests. Production embeddings must install a real signer
// through the SignerFactory hook.
type devSigner struct {
	seed    [32]byte
	account AccountID
}

// NewDevSigner parses a 32-byte hex seed (0x prefix optional) into a dev
// Signer. See the devSigner note on its security properties.
func NewDevSigner(keyHex string) (Signer, error) {
	raw, err := ParseKeyHex(keyHex)
	if err != nil {
		return nil, err
	}

	s := &devSigner{}
	copy(s.seed[:], raw)
	s.account = AccountID(blake2b.Sum256(raw))
	return s, nil
}

func (s *devSigner) Address() AccountID {
	return s.account
}

func (s *devSigner) Sign(payload []byte) ([]byte, error) {
	h, err := blake2b.New512(s.seed[:])
	if err != nil {
		return nil, err
	}
	h.Write(payload)
	return h.Sum(nil), nil
}

// ParseKeyHex decodes a raw 32-byte signing key from hex, accepting an
// optional 0x prefix.
func ParseKeyHex(keyHex string) ([]byte, error) {
	trimmed := strings.TrimPrefix(keyHex, "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignerKey, err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("%w: got %d bytes, want 32", ErrInvalidSignerKey, len(raw))
	}
	return raw, nil
}
