package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/roombooking/internal/persistence"
)

var testStamp = time.Date(2026, time.March, 9, 8, 0, 0, 0, time.UTC)

func newTestPool(t *testing.T) *ConnectionPool {
	t.Helper()

	pool, err := Open(DefaultConfig(filepath.Join(t.TempDir(), "roombooking.db")))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() {
		if err := pool.Close(); err != nil {
			t.Errorf("close database: %v", err)
		}
	})

	if err := pool.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return pool
}

func seedUser(t *testing.T, pool *ConnectionPool, id, email string) {
	t.Helper()
	repo := NewUserRepository(pool)
	user := persistence.User{
		ID:           id,
		Email:        email,
		PasswordHash: "$argon2id$v=19$m=8192,t=1,p=1$c2FsdA$aGFzaA",
		CreatedAt:    testStamp,
		UpdatedAt:    testStamp,
	}
	if err := repo.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
}

func seedRoom(t *testing.T, pool *ConnectionPool, id, name string) {
	t.Helper()
	repo := NewRoomRepository(pool)
	room := persistence.Room{
		ID:        id,
		Name:      name,
		Capacity:  8,
		CreatedAt: testStamp,
		UpdatedAt: testStamp,
	}
	if err := repo.CreateRoom(context.Background(), room); err != nil {
		t.Fatalf("seed room %s: %v", id, err)
	}
}

func TestWithTransactionCommitsAndRollsBack(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()

	err := pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO rooms (id, name, capacity, location, created_at, updated_at)
			VALUES ('room-1', 'Aurora', 8, '', ?, ?)
		`, formatTime(testStamp), formatTime(testStamp))
		return err
	})
	if err != nil {
		t.Fatalf("transaction failed: %v", err)
	}
	if _, err := NewRoomRepository(pool).GetRoom(ctx, "room-1"); err != nil {
		t.Fatalf("expected committed room, got %v", err)
	}

	sentinel := errors.New("abort")
	err = pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO rooms (id, name, capacity, location, created_at, updated_at)
			VALUES ('room-2', 'Borealis', 4, '', ?, ?)
		`, formatTime(testStamp), formatTime(testStamp)); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}
	if _, err := NewRoomRepository(pool).GetRoom(ctx, "room-2"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected rolled back insert, got %v", err)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	pool := newTestPool(t)

	if err := pool.Migrate(context.Background()); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
