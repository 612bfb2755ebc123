// SPDX-License-Identifier: Apache-2.0

package models

import "time"

// Profile is a named connection bootstrap persisted on disk: everything
// needed to re-open a session after a restart. The JSON field names of the
// connection triple match ConnectOptions so a profile can cross the bridge
// unchanged.
type Profile struct {
	Name       string    `json:"name"`
	NodeURL    string    `json:"apiUrl"`
	Contract   string    `json:"contract,omitempty"`
	PrivateKey string    `json:"privateKey,omitempty"`
	CreatedAt  time.Time `json:"createdAt,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt,omitempty"`
}

// ConnectOptions projects the profile onto a CONNECT request body.
func (p Profile) ConnectOptions() ConnectOptions {
	return ConnectOptions{
		NodeURL:    p.NodeURL,
		Contract:   p.Contract,
		PrivateKey: p.PrivateKey,
	}
}
