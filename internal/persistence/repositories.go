package persistence

import (
	"context"
	"time"
)

// RoomRepository exposes read access to the room catalog plus the seeding
// operations used at startup.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
}

// BookingFilter narrows booking queries. Zero-valued fields are ignored.
type BookingFilter struct {
	RoomID      string
	UserID      string
	EndsAfter   *time.Time
	StartsAfter *time.Time
	EndsBefore  *time.Time
}

// BookingRepository stores reservations.
//
// DeleteBooking is idempotent: deleting an id that is absent is not an error
// and leaves the collection unchanged.
type BookingRepository interface {
	CreateBooking(ctx context.Context, booking Booking) error
	GetBooking(ctx context.Context, id string) (Booking, error)
	UpdateBooking(ctx context.Context, booking Booking) error
	DeleteBooking(ctx context.Context, id string) error
	ListBookings(ctx context.Context, filter BookingFilter) ([]Booking, error)
}

// ProfileRepository stores per-user display attributes.
type ProfileRepository interface {
	GetProfile(ctx context.Context, userID string) (Profile, error)
	UpsertProfile(ctx context.Context, profile Profile) error
}

// UserRepository exposes account lookup for the authentication collaborator.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}
