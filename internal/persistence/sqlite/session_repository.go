package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/example/roombooking/internal/persistence"
)

// SessionRepository implements persistence.SessionRepository backed by SQLite.
type SessionRepository struct {
	pool *ConnectionPool
}

// NewSessionRepository creates a SQLite session repository.
func NewSessionRepository(pool *ConnectionPool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// CreateSession stores an issued session and returns it as persisted.
func (r *SessionRepository) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	if session.ID == "" || session.Token == "" {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO sessions (id, user_id, token, expires_at, created_at, revoked_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.pool.db.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		session.Token,
		formatTime(session.ExpiresAt),
		formatTime(session.CreatedAt),
		formatNullableTime(session.RevokedAt),
	)
	if err != nil {
		return persistence.Session{}, mapError(err)
	}
	return session, nil
}

// GetSession retrieves a session by token.
func (r *SessionRepository) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	if token == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}

	query := `
		SELECT id, user_id, token, expires_at, created_at, revoked_at
		FROM sessions
		WHERE token = ?
	`
	return scanSession(r.pool.db.QueryRowContext(ctx, query, token))
}

// RevokeSession stamps the session revoked and returns the updated record.
// The update and the read-back run in one transaction so a concurrent
// expired-session sweep cannot drop the row between the two statements.
func (r *SessionRepository) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	var session persistence.Session

	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE sessions
			SET revoked_at = ?
			WHERE token = ?
		`
		result, err := tx.ExecContext(ctx, query, formatTime(revokedAt), token)
		if err != nil {
			return mapError(err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return mapError(err)
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}

		row := tx.QueryRowContext(ctx, `
			SELECT id, user_id, token, expires_at, created_at, revoked_at
			FROM sessions
			WHERE token = ?
		`, token)
		session, err = scanSession(row)
		return err
	})
	if err != nil {
		return persistence.Session{}, err
	}
	return session, nil
}

// DeleteExpiredSessions drops sessions whose expiry precedes the reference
// instant.
func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	_, err := r.pool.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, formatTime(reference))
	return mapError(err)
}

func scanSession(row rowScanner) (persistence.Session, error) {
	var (
		session   persistence.Session
		expiresAt string
		createdAt string
		revokedAt sql.NullString
	)

	if err := row.Scan(&session.ID, &session.UserID, &session.Token, &expiresAt, &createdAt, &revokedAt); err != nil {
		return persistence.Session{}, mapError(err)
	}

	var err error
	if session.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return persistence.Session{}, err
	}
	if session.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Session{}, err
	}
	if session.RevokedAt, err = parseNullableTime(revokedAt); err != nil {
		return persistence.Session{}, err
	}
	return session, nil
}
