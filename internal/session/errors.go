// SPDX-License-Identifier: Apache-2.0

package session

import "errors"

// Guard sentinels. Their text is the stable token the UI matches on, so it
// must never change; the bridge forwards it verbatim across the context
// boundary.
var (
	// ErrNotConnected is returned by privileged operations while no node
	// link is held.
	ErrNotConnected = errors.New("NOT_CONNECTED")

	// ErrSignerNotFound is returned while no signing key is installed.
	ErrSignerNotFound = errors.New("SIGNER_NOT_FOUND")

	// ErrContractNotFound is returned while no contract handle is bound.
	ErrContractNotFound = errors.New("CONTRACT_NOT_FOUND")
)

var (
	// ErrNodeURLRequired is returned by Connect when neither the options
	// nor the previous session carry a node URL.
	ErrNodeURLRequired = errors.New("rpc url for connection required")

	// ErrConnectionFailed is returned when the node cannot be reached or
	// fails its readiness check within the connect window.
	ErrConnectionFailed = errors.New("connection failed")
)
