// SPDX-License-Identifier: Apache-2.0

package ledger

import "strings"

// StatusFlag names one boolean of a transaction status update. The executor
// accepts a caller-supplied set of flags that must all be true before a
// finality wait is considered terminal.
type StatusFlag string

const (
	StatusReady     StatusFlag = "ready"
	StatusBroadcast StatusFlag = "broadcast"
	StatusInBlock   StatusFlag = "inBlock"
	StatusFinalized StatusFlag = "finalized"
	StatusDropped   StatusFlag = "dropped"
	StatusInvalid   StatusFlag = "invalid"
)

// TxStatus is one event of a submitted transaction's status stream.
//
// DispatchError is populated only once the transaction reached a block and
// the runtime reported a dispatch-level failure for it.
type TxStatus struct {
	Ready     bool
	Broadcast bool
	InBlock   bool
	Finalized bool
	Dropped   bool
	Invalid   bool

	// BlockHash is the including block once InBlock or Finalized is set.
	BlockHash string

	DispatchError *DispatchError
}

// Is reports whether the named status flag is set on this update.
func (s TxStatus) Is(flag StatusFlag) bool {
	switch flag {
	case StatusReady:
		return s.Ready
	case StatusBroadcast:
		return s.Broadcast
	case StatusInBlock:
		return s.InBlock
	case StatusFinalized:
		return s.Finalized
	case StatusDropped:
		return s.Dropped
	case StatusInvalid:
		return s.Invalid
	default:
		return false
	}
}

// DispatchError is the runtime-level failure attached to a finalized
// transaction. Module is set for module-indexed errors that can be decoded
// against the chain metadata; Other carries the raw text for everything
// else (BadOrigin, arithmetic, token errors, ...).
type DispatchError struct {
	Module *ModuleError
	Other  string
}

// ModuleError identifies a dispatch error by pallet index and error index
// within that pallet, exactly as the runtime encodes it.
type ModuleError struct {
	Index uint8
	Error uint8
}

// ErrorMeta is a ModuleError decoded against chain metadata into the
// human-facing triple the UI shows.
type ErrorMeta struct {
	Section string
	Name    string
	Docs    []string
}

// String renders the decoded error the way the extension surfaces it:
// "section.name: docs joined with spaces".
func (m ErrorMeta) String() string {
	return m.Section + "." + m.Name + ": " + strings.Join(m.Docs, " ")
}
