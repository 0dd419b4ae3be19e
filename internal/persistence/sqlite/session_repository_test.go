package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/roombooking/internal/persistence"
)

func sessionFixture(id, token string, expiresAt time.Time) persistence.Session {
	return persistence.Session{
		ID:        id,
		UserID:    "user-1",
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedAt: testStamp,
	}
}

func setupSessionRepositoryTest(t *testing.T) *SessionRepository {
	t.Helper()
	pool := newTestPool(t)
	seedUser(t, pool, "user-1", "alice@example.com")
	return NewSessionRepository(pool)
}

func TestSessionRepository_CreateAndGet(t *testing.T) {
	repo := setupSessionRepositoryTest(t)
	ctx := context.Background()

	expiresAt := testStamp.Add(8 * time.Hour)
	if _, err := repo.CreateSession(ctx, sessionFixture("session-1", "token-1", expiresAt)); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	retrieved, err := repo.GetSession(ctx, "token-1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if retrieved.UserID != "user-1" || !retrieved.ExpiresAt.Equal(expiresAt) {
		t.Errorf("unexpected session %+v", retrieved)
	}
	if retrieved.RevokedAt != nil {
		t.Errorf("expected fresh session not revoked, got %v", retrieved.RevokedAt)
	}
}

func TestSessionRepository_DuplicateToken(t *testing.T) {
	repo := setupSessionRepositoryTest(t)
	ctx := context.Background()

	expiresAt := testStamp.Add(8 * time.Hour)
	if _, err := repo.CreateSession(ctx, sessionFixture("session-1", "token-1", expiresAt)); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if _, err := repo.CreateSession(ctx, sessionFixture("session-2", "token-1", expiresAt)); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestSessionRepository_Revoke(t *testing.T) {
	repo := setupSessionRepositoryTest(t)
	ctx := context.Background()

	expiresAt := testStamp.Add(8 * time.Hour)
	if _, err := repo.CreateSession(ctx, sessionFixture("session-1", "token-1", expiresAt)); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	revokedAt := testStamp.Add(time.Hour)
	revoked, err := repo.RevokeSession(ctx, "token-1", revokedAt)
	if err != nil {
		t.Fatalf("RevokeSession failed: %v", err)
	}
	if revoked.RevokedAt == nil || !revoked.RevokedAt.Equal(revokedAt) {
		t.Errorf("expected revoked_at %v, got %v", revokedAt, revoked.RevokedAt)
	}

	if _, err := repo.RevokeSession(ctx, "token-9", revokedAt); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown token, got %v", err)
	}
}

func TestSessionRepository_RevokeExpiredBeforeSweep(t *testing.T) {
	repo := setupSessionRepositoryTest(t)
	ctx := context.Background()

	if _, err := repo.CreateSession(ctx, sessionFixture("session-1", "token-1", testStamp.Add(time.Hour))); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	// Logout lands after the session expired but before the cleanup job
	// pruned it. The revocation must still report the stamped record.
	revokedAt := testStamp.Add(2 * time.Hour)
	revoked, err := repo.RevokeSession(ctx, "token-1", revokedAt)
	if err != nil {
		t.Fatalf("RevokeSession failed: %v", err)
	}
	if revoked.RevokedAt == nil || !revoked.RevokedAt.Equal(revokedAt) {
		t.Errorf("expected revoked_at %v, got %v", revokedAt, revoked.RevokedAt)
	}

	if err := repo.DeleteExpiredSessions(ctx, revokedAt); err != nil {
		t.Fatalf("DeleteExpiredSessions failed: %v", err)
	}
	if _, err := repo.GetSession(ctx, "token-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected swept session gone, got %v", err)
	}
}

func TestSessionRepository_DeleteExpired(t *testing.T) {
	repo := setupSessionRepositoryTest(t)
	ctx := context.Background()

	if _, err := repo.CreateSession(ctx, sessionFixture("session-1", "token-1", testStamp.Add(time.Hour))); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if _, err := repo.CreateSession(ctx, sessionFixture("session-2", "token-2", testStamp.Add(10*time.Hour))); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	if err := repo.DeleteExpiredSessions(ctx, testStamp.Add(2*time.Hour)); err != nil {
		t.Fatalf("DeleteExpiredSessions failed: %v", err)
	}

	if _, err := repo.GetSession(ctx, "token-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected expired session pruned, got %v", err)
	}
	if _, err := repo.GetSession(ctx, "token-2"); err != nil {
		t.Fatalf("expected live session kept, got %v", err)
	}
}
