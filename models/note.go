// SPDX-License-Identifier: Apache-2.0

package models

// NotePayload is the secret part of a note, encrypted the same way as
// CredentialPayload before it reaches the ledger.
type NotePayload struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Note is the denormalized view of a single secure note. Same lifecycle as
// Credential, minus the group label.
type Note struct {
	ID        string      `json:"id"`
	Payload   NotePayload `json:"payload"`
	Encrypted string      `json:"_encrypted,omitempty"`
}

// AddNotePayload is the request body of ADD_NOTE.
type AddNotePayload struct {
	Payload NotePayload `json:"payload"`
}

// UpdateNotePayload is the request body of UPDATE_NOTE.
type UpdateNotePayload struct {
	ID      string      `json:"id"`
	Payload NotePayload `json:"payload"`
}

// DeleteNotePayload is the request body of DELETE_NOTE.
type DeleteNotePayload struct {
	ID string `json:"id"`
}
