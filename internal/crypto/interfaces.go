// SPDX-License-Identifier: Apache-2.0

package crypto

import "github.com/elewad/chainpass/internal/ledger"

// PayloadCipher encrypts and decrypts the structured payloads of
// credentials and notes before they cross the ledger boundary. It knows
// nothing about the network or the contract; its only inputs are the
// contract account (nonce source), the raw signing key, and the payload.
//
// Scheme, fixed by the on-ledger ciphertext format:
//
//	plaintext  = canonical JSON of the payload object
//	nonce      = first 12 bytes of the contract's raw account id
//	ciphertext = ChaCha20(key, nonce, plaintext), lowercase hex
type PayloadCipher interface {
	// EncryptPayload serializes v to JSON and encrypts it, returning
	// lowercase hex.
	EncryptPayload(account ledger.AccountID, keyHex string, v any) (string, error)

	// DecryptPayload reverses EncryptPayload into target (a non-nil
	// pointer, as for json.Unmarshal). Any failure — bad hex, wrong key,
	// ciphertext that does not decrypt to valid JSON — is reported as
	// ErrDecryptionFailed.
	DecryptPayload(account ledger.AccountID, keyHex string, payload string, target any) error
}
