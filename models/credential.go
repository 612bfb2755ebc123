// SPDX-License-Identifier: Apache-2.0

// Package models defines the data types shared between the privileged
// background service and the unprivileged surfaces (UI, page agent, CLI).
// Everything here crosses the RPC bridge as JSON, so field names mirror the
// on-wire envelope exactly.
package models

// CredentialPayload is the secret part of a credential. It exists in
// decrypted form only inside the background service; the ledger stores the
// ChaCha20-encrypted hex produced from its canonical JSON encoding.
type CredentialPayload struct {
	Host     string `json:"host"`
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Credential is the denormalized view of a single saved login.
//
// ID is client-generated (UUIDv4) and immutable after creation. Group is a
// free-text label used purely for client-side partitioning; uniqueness is
// not enforced. Encrypted carries the authoritative on-ledger hex
// representation of Payload.
type Credential struct {
	ID        string            `json:"id"`
	Group     string            `json:"group"`
	Payload   CredentialPayload `json:"payload"`
	Encrypted string            `json:"_encrypted,omitempty"`
}

// AddCredentialPayload is the request body of ADD_CREDENTIAL.
type AddCredentialPayload struct {
	Group   string            `json:"group"`
	Payload CredentialPayload `json:"payload"`
}

// UpdateCredentialPayload is the request body of UPDATE_CREDENTIAL.
type UpdateCredentialPayload struct {
	ID      string            `json:"id"`
	Group   string            `json:"group"`
	Payload CredentialPayload `json:"payload"`
}

// DeleteCredentialPayload is the request body of DELETE_CREDENTIAL.
type DeleteCredentialPayload struct {
	ID string `json:"id"`
}

// SaveCredentialOptions is the request body of SAVE_CREDENTIAL, the
// autofill-capture path driven by the page agent after a submitted login
// form.
type SaveCredentialOptions struct {
	Host     string `json:"host"`
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Selectors is the opaque pair of CSS selectors the page agent uses to
// locate the login and password inputs. The background service passes it
// through SELECT_PASSWORD untouched.
type Selectors struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// SelectPasswordOptions is the request body of SELECT_PASSWORD.
type SelectPasswordOptions struct {
	URL       string    `json:"url"`
	Selectors Selectors `json:"selectors"`
}

// MatchedCredential is one autofill candidate: the decrypted login/password
// pair of a credential whose registrable domain equals the query URL's.
type MatchedCredential struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// SelectPasswordResult is the response body of SELECT_PASSWORD. Selectors
// is the caller's value echoed back so the page agent can pair the match
// list with the form it asked about.
type SelectPasswordResult struct {
	Selectors Selectors           `json:"selectors"`
	Matched   []MatchedCredential `json:"matched"`
}
