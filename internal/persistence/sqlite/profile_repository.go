package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/roombooking/internal/persistence"
)

// ProfileRepository implements persistence.ProfileRepository backed by SQLite.
type ProfileRepository struct {
	pool *ConnectionPool
}

// NewProfileRepository creates a SQLite profile repository.
func NewProfileRepository(pool *ConnectionPool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

// GetProfile retrieves the profile attached to a user id.
func (r *ProfileRepository) GetProfile(ctx context.Context, userID string) (persistence.Profile, error) {
	if userID == "" {
		return persistence.Profile{}, persistence.ErrNotFound
	}

	query := `
		SELECT id, first_name, last_name, avatar_url, updated_at
		FROM profiles
		WHERE id = ?
	`

	var (
		profile   persistence.Profile
		firstName sql.NullString
		lastName  sql.NullString
		avatarURL sql.NullString
		updatedAt string
	)
	err := r.pool.db.QueryRowContext(ctx, query, userID).Scan(&profile.ID, &firstName, &lastName, &avatarURL, &updatedAt)
	if err != nil {
		return persistence.Profile{}, mapError(err)
	}

	profile.FirstName = optionalColumn(firstName)
	profile.LastName = optionalColumn(lastName)
	profile.AvatarURL = optionalColumn(avatarURL)
	if profile.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Profile{}, err
	}
	return profile, nil
}

// UpsertProfile inserts or replaces the stored profile in one statement.
func (r *ProfileRepository) UpsertProfile(ctx context.Context, profile persistence.Profile) error {
	if profile.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO profiles (id, first_name, last_name, avatar_url, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			avatar_url = excluded.avatar_url,
			updated_at = excluded.updated_at
	`
	_, err := r.pool.db.ExecContext(ctx, query,
		profile.ID,
		nullableString(profile.FirstName),
		nullableString(profile.LastName),
		nullableString(profile.AvatarURL),
		formatTime(profile.UpdatedAt),
	)
	return mapError(err)
}
