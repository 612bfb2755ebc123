// SPDX-License-Identifier: Apache-2.0

package rpcnode

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"golang.org/x/crypto/blake2b"

	"github.com/elewad/chainpass/internal/ledger"
	"github.com/elewad/chainpass/internal/ledger/scale"
)

// Indices of the target runtime. A chain upgrade that reorders pallets
// breaks these; they are constants rather than metadata lookups because the
// client is pinned to the vault chain anyway.
const (
	systemPalletIndex    = 0
	contractsPalletIndex = 8
	contractsCallIndex   = 6
)

const (
	extrinsicVersionSigned = 0x84 // format version 4, signed bit set
	multiAddressIDTag      = 0x00
	signatureSr25519Tag    = 0x01
	optionNoneTag          = 0x00
	eraImmortal            = 0x00
)

// encodeContractsCall encodes a Contracts.call dispatchable: pallet and
// call index, MultiAddress dest, value 0, the gas limit, no storage
// deposit limit, and the selector-prefixed input data.
func encodeContractsCall(dest ledger.AccountID, gasLimit *big.Int, input []byte) []byte {
	out := []byte{contractsPalletIndex, contractsCallIndex, multiAddressIDTag}
	out = append(out, dest.Bytes()...)
	out = scale.AppendCompact(out, 0)
	out = scale.AppendCompact(out, gasLimit.Uint64())
	out = append(out, optionNoneTag)
	out = scale.AppendCompact(out, uint64(len(input)))
	return append(out, input...)
}

// encodeSignedExtra encodes the signed extensions the runtime checks
// alongside the call: an immortal era, the account nonce, and a zero tip.
func encodeSignedExtra(nonce uint64) []byte {
	out := []byte{eraImmortal}
	out = scale.AppendCompact(out, nonce)
	return scale.AppendCompact(out, 0)
}

// buildExtrinsic assembles and signs a version-4 extrinsic around the given
// call, returning the length-prefixed bytes ready for author_submitExtrinsic.
//
// The signing payload is call ++ extra ++ spec/tx version ++ genesis hash
// twice (immortal transactions checkpoint at genesis); payloads over 256
// bytes are blake2b-256 hashed before signing, as the runtime expects.
func (c *Client) buildExtrinsic(signer ledger.Signer, call []byte, nonce uint64) ([]byte, error) {
	extra := encodeSignedExtra(nonce)

	payload := append(append([]byte(nil), call...), extra...)
	payload = binary.LittleEndian.AppendUint32(payload, c.specVersion)
	payload = binary.LittleEndian.AppendUint32(payload, c.txVersion)
	payload = append(payload, c.genesisHash...)
	payload = append(payload, c.genesisHash...)
	if len(payload) > 256 {
		sum := blake2b.Sum256(payload)
		payload = sum[:]
	}

	sig, err := signer.Sign(payload)
	if err != nil {
		return nil, fmt.Errorf("sign extrinsic: %w", err)
	}
	if len(sig) < 64 {
		return nil, fmt.Errorf("sign extrinsic: signature too short (%d bytes)", len(sig))
	}

	addr := signer.Address()
	body := []byte{extrinsicVersionSigned, multiAddressIDTag}
	body = append(body, addr.Bytes()...)
	body = append(body, signatureSr25519Tag)
	body = append(body, sig[:64]...)
	body = append(body, extra...)
	body = append(body, call...)

	out := scale.AppendCompact(nil, uint64(len(body)))
	return append(out, body...), nil
}
