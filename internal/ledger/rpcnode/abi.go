// SPDX-License-Identifier: Apache-2.0

package rpcnode

import (
	"encoding/json"
	"fmt"

	"github.com/elewad/chainpass/internal/ledger/scale"
)

// The vault contract's ABI, fixed at build time. Message selectors are
// derived from the message name ([scale.Selector]), every argument is a
// SCALE string, and the output shape per message is listed below — the Go
// analog of shipping the contract metadata next to the client.

// outputKind names the decoded shape of a message's return value.
type outputKind int

const (
	outputUnit outputKind = iota
	outputString
	outputCredentialList
	outputNoteList
)

// messageOutputs maps each vault message to its output shape. A message
// missing here cannot be dry-run, which catches drift between the client
// and a redeployed contract early.
var messageOutputs = map[string]outputKind{
	"getCredentials":   outputCredentialList,
	"addCredential":    outputUnit,
	"updateCredential": outputUnit,
	"deleteCredential": outputUnit,
	"getNotes":         outputNoteList,
	"addNote":          outputUnit,
	"updateNote":       outputUnit,
	"deleteNote":       outputUnit,
}

// errorVariants names the contract's error enum in declaration order; the
// SCALE encoding of a revert carries only the variant index.
var errorVariants = []string{
	"NotFound",
	"AlreadyExists",
	"AccessDenied",
	"StorageFull",
}

// encodeCallInput builds the input data of a contract call: the 4-byte
// message selector followed by each argument as a SCALE string.
func encodeCallInput(method string, args []string) ([]byte, error) {
	if _, ok := messageOutputs[method]; !ok {
		return nil, fmt.Errorf("unknown contract message %q", method)
	}
	sel := scale.Selector(method)
	out := append([]byte(nil), sel[:]...)
	for _, arg := range args {
		out = scale.AppendString(out, arg)
	}
	return out, nil
}

// decodeRevert turns the SCALE payload of a contract-level Err into the
// variant name the caller sees as the revert reason.
func decodeRevert(data []byte) string {
	if len(data) == 0 {
		return "UnknownError"
	}
	idx := int(data[0])
	if idx >= len(errorVariants) {
		return fmt.Sprintf("UnknownError(%d)", idx)
	}
	return errorVariants[idx]
}

// Stored records as the contract lays them out. Field order here is the
// SCALE field order; the JSON names match the wire schema of the bridge.
type abiCredential struct {
	ID      string `json:"id"`
	Payload string `json:"payload"`
	Group   string `json:"group"`
}

type abiNote struct {
	ID      string `json:"id"`
	Payload string `json:"payload"`
}

// decodeOutput decodes a message's Ok payload per its declared shape and
// re-expresses it as JSON for the caller.
func decodeOutput(method string, data []byte) (json.RawMessage, error) {
	switch messageOutputs[method] {
	case outputUnit:
		return json.RawMessage("null"), nil

	case outputString:
		s, _, err := scale.DecodeString(data)
		if err != nil {
			return nil, fmt.Errorf("decode %s output: %w", method, err)
		}
		return json.Marshal(s)

	case outputCredentialList:
		n, off, err := scale.DecodeCompact(data)
		if err != nil {
			return nil, fmt.Errorf("decode %s output: %w", method, err)
		}
		list := make([]abiCredential, 0, n)
		for i := uint64(0); i < n; i++ {
			var rec abiCredential
			fields := []*string{&rec.ID, &rec.Payload, &rec.Group}
			for _, field := range fields {
				s, read, err := scale.DecodeString(data[off:])
				if err != nil {
					return nil, fmt.Errorf("decode %s output: record %d: %w", method, i, err)
				}
				*field = s
				off += read
			}
			list = append(list, rec)
		}
		return json.Marshal(list)

	case outputNoteList:
		n, off, err := scale.DecodeCompact(data)
		if err != nil {
			return nil, fmt.Errorf("decode %s output: %w", method, err)
		}
		list := make([]abiNote, 0, n)
		for i := uint64(0); i < n; i++ {
			var rec abiNote
			fields := []*string{&rec.ID, &rec.Payload}
			for _, field := range fields {
				s, read, err := scale.DecodeString(data[off:])
				if err != nil {
					return nil, fmt.Errorf("decode %s output: record %d: %w", method, i, err)
				}
				*field = s
				off += read
			}
			list = append(list, rec)
		}
		return json.Marshal(list)
	}
	return nil, fmt.Errorf("unknown contract message %q", method)
}
