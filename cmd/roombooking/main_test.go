package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/example/roombooking/internal/store"
)

const seedDocument = `rooms:
  - id: room-1
    name: Aurora
    capacity: 8
    location: 3F west wing
    description: Large projector
  - id: room-2
    name: Borealis
    capacity: 4
    location: 3F east wing
users:
  - id: user-1
    email: alice@example.com
    password: correct horse battery
`

func writeSeedFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("failed to write seed file: %v", err)
	}
	return path
}

func TestLoadSeedFile(t *testing.T) {
	seed, err := loadSeedFile(writeSeedFile(t, seedDocument))
	if err != nil {
		t.Fatalf("loadSeedFile returned error: %v", err)
	}

	if len(seed.Rooms) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(seed.Rooms))
	}
	if seed.Rooms[0].Name != "Aurora" || seed.Rooms[0].Capacity != 8 {
		t.Errorf("unexpected first room: %+v", seed.Rooms[0])
	}
	if seed.Rooms[1].Description != "" {
		t.Errorf("expected empty description, got %q", seed.Rooms[1].Description)
	}
	if len(seed.Users) != 1 || seed.Users[0].Email != "alice@example.com" {
		t.Fatalf("unexpected users: %+v", seed.Users)
	}
}

func TestLoadSeedFileRejectsMalformedYAML(t *testing.T) {
	if _, err := loadSeedFile(writeSeedFile(t, "rooms: [")); err == nil {
		t.Fatal("expected error for malformed seed file")
	}
}

func TestApplySeedIsIdempotent(t *testing.T) {
	path := writeSeedFile(t, seedDocument)
	backing := store.New(nil)
	repos := repositories{
		Rooms:    backing,
		Bookings: backing,
		Profiles: backing,
		Users:    backing,
		Sessions: backing,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx := context.Background()
	if err := applySeed(ctx, path, repos, logger); err != nil {
		t.Fatalf("first apply returned error: %v", err)
	}
	if err := applySeed(ctx, path, repos, logger); err != nil {
		t.Fatalf("second apply returned error: %v", err)
	}

	rooms, err := backing.ListRooms(ctx)
	if err != nil {
		t.Fatalf("ListRooms returned error: %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("expected 2 rooms after reapply, got %d", len(rooms))
	}

	user, err := backing.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail returned error: %v", err)
	}
	if user.PasswordHash == "" || user.PasswordHash == "correct horse battery" {
		t.Errorf("password was not hashed: %q", user.PasswordHash)
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"unknown": slog.LevelInfo,
	}
	for input, want := range cases {
		if got := parseLogLevel(input); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", input, got, want)
		}
	}
}
