package sqlite

import (
	"context"
	"fmt"
)

// Timestamps are stored as RFC 3339 UTC text, so lexicographic comparison in
// SQL matches chronological order.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE COLLATE NOCASE,
	password_hash TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS profiles (
	id         TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
	first_name TEXT,
	last_name  TEXT,
	avatar_url TEXT,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS rooms (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL UNIQUE,
	capacity    INTEGER NOT NULL CHECK (capacity > 0),
	location    TEXT,
	description TEXT,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS bookings (
	id         TEXT PRIMARY KEY,
	room_id    TEXT NOT NULL REFERENCES rooms(id),
	user_id    TEXT NOT NULL REFERENCES users(id),
	title      TEXT NOT NULL,
	organizer  TEXT NOT NULL,
	start_at   TEXT NOT NULL,
	end_at     TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	CHECK (end_at > start_at)
);

CREATE INDEX IF NOT EXISTS idx_bookings_room_start ON bookings(room_id, start_at);
CREATE INDEX IF NOT EXISTS idx_bookings_user_start ON bookings(user_id, start_at);

CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	token      TEXT NOT NULL UNIQUE,
	expires_at TEXT NOT NULL,
	created_at TEXT NOT NULL,
	revoked_at TEXT
);

CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);
`

// Migrate creates the schema. Statements are idempotent so running it on an
// already-initialized database is safe.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	if _, err := cp.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}
