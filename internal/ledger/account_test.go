// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Well-known dev account (Alice): sr25519 public key and its SS58 form
// under the generic prefix 42.
const (
	alicePubHex  = "d43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d"
	aliceAddress = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
)

func TestDecodeSS58_KnownAccount(t *testing.T) {
	id, err := DecodeSS58(aliceAddress)
	require.NoError(t, err)
	assert.Equal(t, alicePubHex, hex.EncodeToString(id.Bytes()))
}

func TestSS58_RoundTrip(t *testing.T) {
	var id AccountID
	for i := range id {
		id[i] = byte(i * 7)
	}

	decoded, err := DecodeSS58(id.SS58(SS58Prefix))
	require.NoError(t, err)
	assert.Equal(t, id, decoded)
}

func TestDecodeSS58_RejectsGarbage(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "empty", in: ""},
		{name: "not base58", in: "0OIl"},
		{name: "too short", in: "5Grwva"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSS58(tt.in)
			assert.ErrorIs(t, err, ErrInvalidAddress)
		})
	}
}

func TestDecodeSS58_RejectsBadChecksum(t *testing.T) {
	// Flip the last character; base58 still decodes to 35 bytes but the
	// blake2b checksum no longer matches.
	corrupted := aliceAddress[:len(aliceAddress)-1] + "Z"

	_, err := DecodeSS58(corrupted)
	assert.Error(t, err)
}

func TestNewDevSigner(t *testing.T) {
	seed := "0x" + alicePubHex // any 32 bytes of hex works as a seed

	signer, err := NewDevSigner(seed)
	require.NoError(t, err)

	sigA, err := signer.Sign([]byte("payload"))
	require.NoError(t, err)
	sigB, err := signer.Sign([]byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, sigA, sigB)

	other, err := NewDevSigner(alicePubHex)
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), other.Address())
}

func TestParseKeyHex_Rejects(t *testing.T) {
	_, err := ParseKeyHex("zz")
	assert.ErrorIs(t, err, ErrInvalidSignerKey)

	_, err = ParseKeyHex("abcd")
	assert.ErrorIs(t, err, ErrInvalidSignerKey)
}
