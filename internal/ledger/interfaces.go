// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"context"
	"encoding/json"
	"math/big"
)

// SystemInfo is the node identification banner fetched right after a
// successful connect.
type SystemInfo struct {
	Chain   string
	Name    string
	Version string
}

// DryRunResult is the outcome of a read-only contract execution.
//
// Output holds the JSON form of the contract's Result::Ok value. Revert is
// non-empty when the contract itself rejected the call (Result::Err); the
// dry run then consumed no on-chain resources and nothing must be
// submitted. A node-level failure of the dry run itself (e.g. the origin
// cannot pay storage deposits) is reported as an error by DryRun, not here.
type DryRunResult struct {
	GasConsumed *big.Int
	Output      json.RawMessage
	Revert      string
}

// Signer is the opaque signing capability installed into a session. Key
// derivation and the signature scheme live outside this core; the session
// only forwards the capability to the contract client.
type Signer interface {
	// Address returns the account identifier the signer signs for.
	Address() AccountID

	// Sign produces a signature over the given payload bytes.
	Sign(payload []byte) ([]byte, error)
}

// ContractClient is a bound handle to one deployed contract instance,
// driven by the contract call executor.
type ContractClient interface {
	// DryRun executes method read-only with an unbounded gas allowance and
	// returns the consumed gas plus the contract's result.
	DryRun(ctx context.Context, method string, args []string) (DryRunResult, error)

	// SignAndSubmit signs the mutating call with the session signer, sets
	// the given gas limit, broadcasts it and returns a stream of status
	// updates. The stream is closed after a terminal update or when the
	// underlying link drops; it is never re-established.
	SignAndSubmit(ctx context.Context, method string, args []string, gasLimit *big.Int) (<-chan TxStatus, error)

	// DecodeDispatchError resolves a module-indexed dispatch error against
	// the chain metadata.
	DecodeDispatchError(mod ModuleError) (ErrorMeta, error)
}

// NodeClient is one live link to a chain node. The session manager holds at
// most one and tears it down before opening the next.
type NodeClient interface {
	// Ready performs a single readiness check against the node. It is
	// called once after the connect settle delay; a failure means the
	// connect attempt as a whole failed.
	Ready(ctx context.Context) error

	// SystemInfo fetches the chain/name/version banner.
	SystemInfo(ctx context.Context) (SystemInfo, error)

	// Balance returns the free balance of the account in pico-units.
	Balance(ctx context.Context, account AccountID) (*big.Int, error)

	// Contract binds a contract handle for the given deployed instance,
	// submitting with the given signer.
	Contract(address AccountID, signer Signer) ContractClient

	// Close releases the link. Safe to call more than once.
	Close() error
}

// Dialer opens a NodeClient for a node URL. The session manager is handed a
// Dialer instead of a concrete client so tests and alternative transports
// can substitute their own.
type Dialer func(ctx context.Context, nodeURL string) (NodeClient, error)
