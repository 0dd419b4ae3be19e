package persistence

import "time"

// Room represents a bookable meeting room catalog entry. Rooms are read-only
// through the public API; the catalog is seeded out of band.
type Room struct {
	ID          string
	Name        string
	Capacity    int
	Location    string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Booking represents a reserved time interval on a room.
type Booking struct {
	ID        string
	RoomID    string
	UserID    string
	Title     string
	Organizer string
	Start     time.Time
	End       time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Profile carries the display attributes attached to a user account. The
// profile ID is the owning user's ID.
type Profile struct {
	ID        string
	FirstName *string
	LastName  *string
	AvatarURL *string
	UpdatedAt time.Time
}

// User represents an account able to authenticate against the service.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session represents an authentication session issued to a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}
