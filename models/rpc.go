// SPDX-License-Identifier: Apache-2.0

package models

import "encoding/json"

// Method is a stable RPC method token. Tokens are part of the wire format
// shared with the UI and page-agent contexts and must never change.
type Method string

const (
	MethodIsUnlocked Method = "IS_UNLOCKED"
	MethodDisconnect Method = "DISCONNECT"
	MethodConnect    Method = "CONNECT"
	MethodBalance    Method = "BALANCE"

	MethodGetCredentials   Method = "GET_CREDENTIALS"
	MethodUpdateCredential Method = "UPDATE_CREDENTIAL"
	MethodDeleteCredential Method = "DELETE_CREDENTIAL"
	MethodSelectPassword   Method = "SELECT_PASSWORD"
	MethodAddCredential    Method = "ADD_CREDENTIAL"
	MethodSaveCredential   Method = "SAVE_CREDENTIAL"

	MethodGetNotes   Method = "GET_NOTES"
	MethodUpdateNote Method = "UPDATE_NOTE"
	MethodDeleteNote Method = "DELETE_NOTE"
	MethodAddNote    Method = "ADD_NOTE"
)

// Methods lists every known method token. The bridge dispatcher matches
// against this closed set; an unknown token is a request error, not a
// missing handler.
var Methods = []Method{
	MethodIsUnlocked, MethodDisconnect, MethodConnect, MethodBalance,
	MethodGetCredentials, MethodUpdateCredential, MethodDeleteCredential,
	MethodSelectPassword, MethodAddCredential, MethodSaveCredential,
	MethodGetNotes, MethodUpdateNote, MethodDeleteNote, MethodAddNote,
}

// Unguarded reports whether m bypasses the session guard chain. Only the
// three session-lifecycle methods may run against a locked session.
func (m Method) Unguarded() bool {
	return m == MethodConnect || m == MethodDisconnect || m == MethodIsUnlocked
}

// Message is the request envelope carried by every bridge transport.
type Message struct {
	Type Method          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Response is the reply envelope. Exactly one of Data and Error is set.
// Error is always a flat string: the bridge is the single point where
// structured failures from any layer are flattened before crossing the
// context boundary.
type Response struct {
	Type  Method          `json:"type"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// ConnectOptions is the request body of CONNECT. All fields are optional:
// a missing NodeURL reuses the previous one, and contract/private key are
// installed only when both are supplied.
type ConnectOptions struct {
	NodeURL    string `json:"apiUrl,omitempty"`
	Contract   string `json:"contract,omitempty"`
	PrivateKey string `json:"privateKey,omitempty"`
}
