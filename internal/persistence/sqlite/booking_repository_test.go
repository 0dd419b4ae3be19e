package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/roombooking/internal/persistence"
)

func bookingFixture(id, roomID, userID string, start, end time.Time) persistence.Booking {
	return persistence.Booking{
		ID:        id,
		RoomID:    roomID,
		UserID:    userID,
		Title:     "Sprint Review",
		Organizer: "Alice Rossi",
		Start:     start,
		End:       end,
		CreatedAt: testStamp,
		UpdatedAt: testStamp,
	}
}

func setupBookingRepositoryTest(t *testing.T) (*BookingRepository, *ConnectionPool) {
	t.Helper()
	pool := newTestPool(t)
	seedUser(t, pool, "user-1", "alice@example.com")
	seedUser(t, pool, "user-2", "marco@example.com")
	seedRoom(t, pool, "room-1", "Aurora")
	seedRoom(t, pool, "room-2", "Borealis")
	return NewBookingRepository(pool), pool
}

func TestBookingRepository_CreateAndGet(t *testing.T) {
	repo, _ := setupBookingRepositoryTest(t)
	ctx := context.Background()

	start := testStamp.Add(2 * time.Hour)
	booking := bookingFixture("booking-1", "room-1", "user-1", start, start.Add(time.Hour))
	if err := repo.CreateBooking(ctx, booking); err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}

	retrieved, err := repo.GetBooking(ctx, "booking-1")
	if err != nil {
		t.Fatalf("GetBooking failed: %v", err)
	}
	if retrieved.RoomID != "room-1" || retrieved.UserID != "user-1" {
		t.Errorf("unexpected booking %+v", retrieved)
	}
	if !retrieved.Start.Equal(start) || !retrieved.End.Equal(start.Add(time.Hour)) {
		t.Errorf("expected interval %v-%v, got %v-%v", start, start.Add(time.Hour), retrieved.Start, retrieved.End)
	}
}

func TestBookingRepository_Create_DuplicateID(t *testing.T) {
	repo, _ := setupBookingRepositoryTest(t)
	ctx := context.Background()

	start := testStamp.Add(2 * time.Hour)
	booking := bookingFixture("booking-1", "room-1", "user-1", start, start.Add(time.Hour))
	if err := repo.CreateBooking(ctx, booking); err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}
	if err := repo.CreateBooking(ctx, booking); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestBookingRepository_Create_UnknownRoom(t *testing.T) {
	repo, _ := setupBookingRepositoryTest(t)

	start := testStamp.Add(2 * time.Hour)
	booking := bookingFixture("booking-1", "room-9", "user-1", start, start.Add(time.Hour))
	if err := repo.CreateBooking(context.Background(), booking); !errors.Is(err, persistence.ErrForeignKeyViolation) {
		t.Fatalf("expected ErrForeignKeyViolation, got %v", err)
	}
}

func TestBookingRepository_Create_EndBeforeStart(t *testing.T) {
	repo, _ := setupBookingRepositoryTest(t)

	start := testStamp.Add(2 * time.Hour)
	booking := bookingFixture("booking-1", "room-1", "user-1", start, start.Add(-time.Hour))
	if err := repo.CreateBooking(context.Background(), booking); !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation, got %v", err)
	}
}

func TestBookingRepository_Update(t *testing.T) {
	repo, _ := setupBookingRepositoryTest(t)
	ctx := context.Background()

	start := testStamp.Add(2 * time.Hour)
	booking := bookingFixture("booking-1", "room-1", "user-1", start, start.Add(time.Hour))
	if err := repo.CreateBooking(ctx, booking); err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}

	booking.Title = "Retrospective"
	booking.Start = start.Add(3 * time.Hour)
	booking.End = start.Add(4 * time.Hour)
	if err := repo.UpdateBooking(ctx, booking); err != nil {
		t.Fatalf("UpdateBooking failed: %v", err)
	}

	retrieved, err := repo.GetBooking(ctx, "booking-1")
	if err != nil {
		t.Fatalf("GetBooking failed: %v", err)
	}
	if retrieved.Title != "Retrospective" || !retrieved.Start.Equal(start.Add(3*time.Hour)) {
		t.Errorf("unexpected booking after update: %+v", retrieved)
	}
}

func TestBookingRepository_Update_NotFound(t *testing.T) {
	repo, _ := setupBookingRepositoryTest(t)

	start := testStamp.Add(2 * time.Hour)
	booking := bookingFixture("booking-9", "room-1", "user-1", start, start.Add(time.Hour))
	if err := repo.UpdateBooking(context.Background(), booking); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBookingRepository_Delete(t *testing.T) {
	repo, _ := setupBookingRepositoryTest(t)
	ctx := context.Background()

	start := testStamp.Add(2 * time.Hour)
	if err := repo.CreateBooking(ctx, bookingFixture("booking-1", "room-1", "user-1", start, start.Add(time.Hour))); err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}

	if err := repo.DeleteBooking(ctx, "booking-1"); err != nil {
		t.Fatalf("DeleteBooking failed: %v", err)
	}
	if _, err := repo.GetBooking(ctx, "booking-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	// Deleting again is a no-op.
	if err := repo.DeleteBooking(ctx, "booking-1"); err != nil {
		t.Fatalf("expected idempotent delete, got %v", err)
	}
}

func TestBookingRepository_ListBookings(t *testing.T) {
	repo, _ := setupBookingRepositoryTest(t)
	ctx := context.Background()

	fixtures := []persistence.Booking{
		bookingFixture("booking-1", "room-1", "user-1", testStamp.Add(1*time.Hour), testStamp.Add(2*time.Hour)),
		bookingFixture("booking-2", "room-2", "user-1", testStamp.Add(3*time.Hour), testStamp.Add(4*time.Hour)),
		bookingFixture("booking-3", "room-1", "user-2", testStamp.Add(5*time.Hour), testStamp.Add(6*time.Hour)),
	}
	for _, fixture := range fixtures {
		if err := repo.CreateBooking(ctx, fixture); err != nil {
			t.Fatalf("CreateBooking %s failed: %v", fixture.ID, err)
		}
	}

	t.Run("no filter returns everything start ascending", func(t *testing.T) {
		listed, err := repo.ListBookings(ctx, persistence.BookingFilter{})
		if err != nil {
			t.Fatalf("ListBookings failed: %v", err)
		}
		if len(listed) != 3 {
			t.Fatalf("expected 3 bookings, got %d", len(listed))
		}
		if listed[0].ID != "booking-1" || listed[2].ID != "booking-3" {
			t.Errorf("unexpected order: %s, %s, %s", listed[0].ID, listed[1].ID, listed[2].ID)
		}
	})

	t.Run("filters by room", func(t *testing.T) {
		listed, err := repo.ListBookings(ctx, persistence.BookingFilter{RoomID: "room-1"})
		if err != nil {
			t.Fatalf("ListBookings failed: %v", err)
		}
		if len(listed) != 2 {
			t.Fatalf("expected 2 bookings, got %d", len(listed))
		}
	})

	t.Run("filters by user", func(t *testing.T) {
		listed, err := repo.ListBookings(ctx, persistence.BookingFilter{UserID: "user-2"})
		if err != nil {
			t.Fatalf("ListBookings failed: %v", err)
		}
		if len(listed) != 1 || listed[0].ID != "booking-3" {
			t.Fatalf("expected booking-3, got %+v", listed)
		}
	})

	t.Run("ends-after drops finished bookings", func(t *testing.T) {
		cutoff := testStamp.Add(2 * time.Hour)
		listed, err := repo.ListBookings(ctx, persistence.BookingFilter{EndsAfter: &cutoff})
		if err != nil {
			t.Fatalf("ListBookings failed: %v", err)
		}
		if len(listed) != 2 {
			t.Fatalf("expected 2 bookings, got %d", len(listed))
		}
		for _, b := range listed {
			if b.ID == "booking-1" {
				t.Errorf("expected booking-1 excluded, got %+v", listed)
			}
		}
	})

	t.Run("date window bounds the start", func(t *testing.T) {
		from := testStamp.Add(2 * time.Hour)
		to := testStamp.Add(5 * time.Hour)
		listed, err := repo.ListBookings(ctx, persistence.BookingFilter{StartsAfter: &from, EndsBefore: &to})
		if err != nil {
			t.Fatalf("ListBookings failed: %v", err)
		}
		if len(listed) != 1 || listed[0].ID != "booking-2" {
			t.Fatalf("expected booking-2 only, got %+v", listed)
		}
	})
}
