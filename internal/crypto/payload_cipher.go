// SPDX-License-Identifier: Apache-2.0

// Package crypto implements the payload cipher that protects credential and
// note payloads stored in the vault contract.
//
// Two properties of the scheme are compatibility constraints inherited from
// the ciphertext already stored on chain, not recommended practice:
//
//   - The nonce is deterministic: the first 12 bytes of the contract
//     account id. Every payload encrypted for the same contract reuses the
//     same (key, nonce) pair, so the cipher only resists passive observers
//     who hold neither the key nor a known plaintext.
//   - There is no integrity tag. Corrupted ciphertext decrypts to garbage
//     bytes instead of failing closed; the JSON parse after decryption is
//     the only (incidental) corruption check.
package crypto

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20"

	"github.com/elewad/chainpass/internal/ledger"
)

// ErrDecryptionFailed is returned for every decrypt failure regardless of
// cause, so callers cannot distinguish a wrong key from corrupted data.
var ErrDecryptionFailed = errors.New("decryption failed")

// payloadCipher is the private implementation of [PayloadCipher].
type payloadCipher struct{}

// NewPayloadCipher constructs the ChaCha20 [PayloadCipher] used by the
// session manager.
func NewPayloadCipher() PayloadCipher {
	return &payloadCipher{}
}

// EncryptPayload implements [PayloadCipher].
func (c *payloadCipher) EncryptPayload(account ledger.AccountID, keyHex string, v any) (string, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	out, err := transform(account, keyHex, plaintext)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(out), nil
}

// DecryptPayload implements [PayloadCipher].
func (c *payloadCipher) DecryptPayload(account ledger.AccountID, keyHex string, payload string, target any) error {
	raw, err := hex.DecodeString(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	plaintext, err := transform(account, keyHex, raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	// ChaCha20 has no authentication: a wrong key or corrupted ciphertext
	// yields garbage here, and the JSON parse below is what catches it.
	if err := json.Unmarshal(plaintext, target); err != nil {
		return fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	return nil
}

// transform applies the ChaCha20 keystream; encryption and decryption are
// the same operation.
func transform(account ledger.AccountID, keyHex string, data []byte) ([]byte, error) {
	key, err := ledger.ParseKeyHex(keyHex)
	if err != nil {
		return nil, err
	}

	nonce := account.Bytes()[:chacha20.NonceSize]

	cipher, err := chacha20.NewUnauthenticatedCipher(key, nonce)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}

	out := make([]byte, len(data))
	cipher.XORKeyStream(out, data)
	return out, nil
}
