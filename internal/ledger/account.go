// SPDX-License-Identifier: Apache-2.0

// Package ledger defines the chain-facing capability the chainpass core is
// built against: account identifiers, balance units, transaction status
// events, dispatch-error metadata, and the client interfaces the contract
// call executor and session manager depend on.
//
// The package deliberately knows nothing about how a node is reached or how
// extrinsics are signed; those live behind the ContractClient, NodeClient
// and Signer interfaces so the core stays testable against stubs.
package ledger

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
	"golang.org/x/crypto/blake2b"
)

// SS58Prefix is the generic Substrate network prefix used when encoding
// addresses. Dev chains and contract test networks use 42.
const SS58Prefix = 42

// ss58Preimage is the domain-separation tag prepended to the checksum input
// of every SS58 address.
var ss58Preimage = []byte("SS58PRE")

var (
	// ErrInvalidAddress is returned when an SS58 string cannot be decoded
	// into a 32-byte account identifier.
	ErrInvalidAddress = errors.New("invalid ss58 address")

	// ErrAddressChecksum is returned when an SS58 string decodes but its
	// blake2b checksum does not match.
	ErrAddressChecksum = errors.New("ss58 address checksum mismatch")
)

// AccountID is the raw 32-byte account identifier underlying an SS58
// address. Both signer accounts and deployed contracts are addressed this
// way; the payload cipher derives its nonce from the first 12 bytes of the
// contract's AccountID.
type AccountID [32]byte

// Bytes returns the account identifier as a fresh byte slice.
func (a AccountID) Bytes() []byte {
	out := make([]byte, len(a))
	copy(out, a[:])
	return out
}

// String returns the SS58 encoding under the generic network prefix.
func (a AccountID) String() string {
	return a.SS58(SS58Prefix)
}

// SS58 encodes the account identifier under the given one-byte network
// prefix: base58(prefix ‖ id ‖ blake2b-512("SS58PRE" ‖ prefix ‖ id)[:2]).
func (a AccountID) SS58(prefix byte) string {
	body := append([]byte{prefix}, a[:]...)
	sum := ss58Checksum(body)
	return base58.Encode(append(body, sum...))
}

// DecodeSS58 parses an SS58 address with a one-byte network prefix and
// verifies its checksum. Multi-byte prefixes (network ids >= 64) are not
// used by the chains this client targets and are rejected.
func DecodeSS58(s string) (AccountID, error) {
	var id AccountID

	raw := base58.Decode(s)
	// 1 prefix byte + 32 id bytes + 2 checksum bytes
	if len(raw) != 35 {
		return id, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	if raw[0] >= 64 {
		return id, fmt.Errorf("%w: multi-byte prefix in %q", ErrInvalidAddress, s)
	}

	body, sum := raw[:33], raw[33:]
	if want := ss58Checksum(body); want[0] != sum[0] || want[1] != sum[1] {
		return id, fmt.Errorf("%w: %q", ErrAddressChecksum, s)
	}

	copy(id[:], body[1:])
	return id, nil
}

func ss58Checksum(body []byte) []byte {
	h, _ := blake2b.New512(nil)
	h.Write(ss58Preimage)
	h.Write(body)
	return h.Sum(nil)[:2]
}
