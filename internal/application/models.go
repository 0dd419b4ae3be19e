package application

import "time"

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID string
	Email  string
}

// Room represents a catalog entry for a bookable meeting room.
type Room struct {
	ID          string
	Name        string
	Capacity    int
	Location    string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Booking represents a stored reservation.
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

// BookingInput captures the booking form fields: a calendar day plus
// wall-clock "HH:MM" start and end values.
type BookingInput struct {
	RoomID    string
	Date      time.Time
	StartTime string
	EndTime   string
	Title     string
	Organizer string
}

// CreateBookingParams wraps the data required to create a booking.
type CreateBookingParams struct {
	Principal Principal
	Input     BookingInput
}

// UpdateBookingParams wraps the data required to edit an existing booking.
type UpdateBookingParams struct {
	Principal Principal
	BookingID string
	Input     BookingInput
}

// ListBookingsParams narrows and orders the "my bookings" view.
type ListBookingsParams struct {
	Principal Principal
	Organizer string
	From      *time.Time
	To        *time.Time
	Sort      string
}

// Profile carries the display attributes attached to a user account.
type Profile struct {
	ID        string
	FirstName *string
	LastName  *string
	AvatarURL *string
	UpdatedAt time.Time
}

// ProfileInput captures caller provided profile fields.
type ProfileInput struct {
	FirstName string
	LastName  string
	AvatarURL string
}

// User represents an account able to authenticate.
type User struct {
	ID    string
	Email string
}

// Session represents an authenticated session issued to a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult captures the outcome of a successful sign-in.
type AuthenticateResult struct {
	User    User
	Session Session
}
