// SPDX-License-Identifier: Apache-2.0

// Package store persists connection profiles in a local SQLite database.
// A profile is the bootstrap triple (node URL, contract address, signing
// key) plus bookkeeping timestamps; the daemon loads one at startup to
// re-open its session, and the CLI edits them.
package store

import (
	"context"

	"github.com/elewad/chainpass/models"
)

// ProfileRepository is the persistence surface for connection profiles.
type ProfileRepository interface {
	// SaveProfile inserts the profile or, when the name exists, replaces
	// its connection triple.
	SaveProfile(ctx context.Context, profile models.Profile) error

	// GetProfile returns the named profile or ErrProfileNotFound.
	GetProfile(ctx context.Context, name string) (models.Profile, error)

	// ListProfiles returns every stored profile ordered by name.
	ListProfiles(ctx context.Context) ([]models.Profile, error)

	// DeleteProfile removes the named profile; deleting an absent name is
	// ErrProfileNotFound.
	DeleteProfile(ctx context.Context, name string) error
}
