// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/elewad/chainpass/internal/logger"
	"github.com/elewad/chainpass/models"
)

var profileColumns = []string{"name", "node_url", "contract", "private_key", "created_at", "updated_at"}

// profileRepository is the SQLite-backed implementation of
// [ProfileRepository]. Every public method obtains a context-scoped logger
// via [logger.FromContext] so database interactions are traced with
// structured fields.
type profileRepository struct {
	*DB
	logger *logger.Logger
}

// NewProfileRepository constructs a [ProfileRepository] backed by the given
// database connection and logger.
func NewProfileRepository(db *DB, logger *logger.Logger) ProfileRepository {
	return &profileRepository{
		DB:     db,
		logger: logger,
	}
}

func buildSaveProfileQuery(profile models.Profile) (string, []any, error) {
	return sq.Insert("profiles").
		Columns("name", "node_url", "contract", "private_key").
		Values(profile.Name, profile.NodeURL, profile.Contract, profile.PrivateKey).
		Suffix(`ON CONFLICT(name) DO UPDATE SET
			node_url = excluded.node_url,
			contract = excluded.contract,
			private_key = excluded.private_key,
			updated_at = CURRENT_TIMESTAMP`).
		ToSql()
}

func buildGetProfileQuery(name string) (string, []any, error) {
	return sq.Select(profileColumns...).
		From("profiles").
		Where(sq.Eq{"name": name}).
		ToSql()
}

func buildListProfilesQuery() (string, []any, error) {
	return sq.Select(profileColumns...).
		From("profiles").
		OrderBy("name").
		ToSql()
}

func buildDeleteProfileQuery(name string) (string, []any, error) {
	return sq.Delete("profiles").
		Where(sq.Eq{"name": name}).
		ToSql()
}

// SaveProfile inserts the profile or replaces the connection triple of an
// existing name.
func (p *profileRepository) SaveProfile(ctx context.Context, profile models.Profile) error {
	log := logger.FromContext(ctx)

	query, args, err := buildSaveProfileQuery(profile)
	if err != nil {
		log.Err(err).
			Str("func", "profileRepository.SaveProfile").
			Str("profile", profile.Name).
			Msg("failed to build query")
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = p.DB.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).
			Str("func", "profileRepository.SaveProfile").
			Str("profile", profile.Name).
			Msg("failed to save profile")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	log.Debug().
		Str("func", "profileRepository.SaveProfile").
		Str("profile", profile.Name).
		Msg("profile saved")
	return nil
}

// GetProfile returns the named profile.
func (p *profileRepository) GetProfile(ctx context.Context, name string) (models.Profile, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildGetProfileQuery(name)
	if err != nil {
		log.Err(err).
			Str("func", "profileRepository.GetProfile").
			Str("profile", name).
			Msg("failed to build query")
		return models.Profile{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var profile models.Profile
	row := p.DB.QueryRowContext(ctx, query, args...)
	err = row.Scan(
		&profile.Name,
		&profile.NodeURL,
		&profile.Contract,
		&profile.PrivateKey,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, ErrProfileNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "profileRepository.GetProfile").
			Str("profile", name).
			Msg("failed to scan profile row")
		return models.Profile{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return profile, nil
}

// ListProfiles returns every stored profile ordered by name.
func (p *profileRepository) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildListProfilesQuery()
	if err != nil {
		log.Err(err).
			Str("func", "profileRepository.ListProfiles").
			Msg("failed to build query")
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := p.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "profileRepository.ListProfiles").
			Msg("failed to execute query")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	profiles := make([]models.Profile, 0, 4)
	for rows.Next() {
		var profile models.Profile
		scanErr := rows.Scan(
			&profile.Name,
			&profile.NodeURL,
			&profile.Contract,
			&profile.PrivateKey,
			&profile.CreatedAt,
			&profile.UpdatedAt,
		)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", "profileRepository.ListProfiles").
				Msg("failed to scan profile row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}
		profiles = append(profiles, profile)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "profileRepository.ListProfiles").
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, rowsErr)
	}

	return profiles, nil
}

// DeleteProfile removes the named profile.
func (p *profileRepository) DeleteProfile(ctx context.Context, name string) error {
	log := logger.FromContext(ctx)

	query, args, err := buildDeleteProfileQuery(name)
	if err != nil {
		log.Err(err).
			Str("func", "profileRepository.DeleteProfile").
			Str("profile", name).
			Msg("failed to build query")
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	res, err := p.DB.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "profileRepository.DeleteProfile").
			Str("profile", name).
			Msg("failed to delete profile")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	if affected == 0 {
		return ErrProfileNotFound
	}

	return nil
}
