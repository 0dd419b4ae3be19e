package testfixtures

import (
	"context"
	"testing"
	"time"
)

func TestFixturesAreDistinct(t *testing.T) {
	first := NewRoomFixture()
	second := NewRoomFixture(WithRoomName("Aurora"), WithRoomCapacity(12))

	if first.ID == second.ID {
		t.Fatalf("expected distinct room IDs, both %q", first.ID)
	}
	if second.Name != "Aurora" || second.Capacity != 12 {
		t.Errorf("overrides not applied: %+v", second)
	}

	a := NewBookingFixture()
	b := NewBookingFixture()
	if a.ID == b.ID {
		t.Fatalf("expected distinct booking IDs, both %q", a.ID)
	}
	if a.End.After(b.Start) && b.End.After(a.Start) {
		t.Errorf("generated bookings overlap: %v-%v and %v-%v", a.Start, a.End, b.Start, b.End)
	}
}

func TestSQLiteHarnessRoundTrip(t *testing.T) {
	harness := NewSQLiteHarness(t)
	ctx := context.Background()

	user := NewUserFixture()
	if err := harness.Users.CreateUser(ctx, user.Persistence()); err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}

	room := NewRoomFixture()
	if err := harness.Rooms.CreateRoom(ctx, room.Persistence()); err != nil {
		t.Fatalf("CreateRoom returned error: %v", err)
	}

	start := ReferenceTime().AddDate(0, 0, 7).Add(2 * time.Hour)
	booking := NewBookingFixture(
		WithBookingRoom(room.ID),
		WithBookingUser(user.ID),
		WithBookingInterval(start, start.Add(time.Hour)),
	)
	if err := harness.Bookings.CreateBooking(ctx, booking.Persistence()); err != nil {
		t.Fatalf("CreateBooking returned error: %v", err)
	}

	stored, err := harness.Bookings.GetBooking(ctx, booking.ID)
	if err != nil {
		t.Fatalf("GetBooking returned error: %v", err)
	}
	if stored.RoomID != room.ID || stored.UserID != user.ID {
		t.Errorf("unexpected booking ownership: %+v", stored)
	}
	if !stored.Start.Equal(start) {
		t.Errorf("expected start %v, got %v", start, stored.Start)
	}
}
