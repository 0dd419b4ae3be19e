// Package store provides the in-memory booking collection backing the
// session-scoped deployment mode. It holds the current room and booking
// snapshots, applies mutations, and fans changes out to subscribers so
// dependent views can recompute.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/roombooking/internal/persistence"
)

// EventType labels a booking collection change.
type EventType string

const (
	// EventBookingAdded signals a newly appended booking.
	EventBookingAdded EventType = "booking_added"
	// EventBookingUpdated signals an in-place replacement by id.
	EventBookingUpdated EventType = "booking_updated"
	// EventBookingDeleted signals a removal by id.
	EventBookingDeleted EventType = "booking_deleted"
)

// Event describes a single store mutation delivered to observers.
type Event struct {
	Type    EventType
	Booking persistence.Booking
}

// Observer receives store mutation events. Observers are invoked
// synchronously, in subscription order, after the mutation has been applied.
type Observer func(Event)

// Store is an explicitly owned, injected collection of rooms and bookings.
// All accessors return copies; internal slices are never shared with callers.
type Store struct {
	mu          sync.RWMutex
	idGenerator func() string

	rooms    []persistence.Room
	bookings []persistence.Booking
	users    map[string]persistence.User
	profiles map[string]persistence.Profile
	sessions map[string]persistence.Session

	observerMu   sync.Mutex
	observers    map[int]Observer
	nextObserver int
}

// New constructs an empty store. The idGenerator supplies identifiers for
// bookings added without one; nil falls back to an empty id.
func New(idGenerator func() string) *Store {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	return &Store{
		idGenerator: idGenerator,
		users:       make(map[string]persistence.User),
		profiles:    make(map[string]persistence.Profile),
		sessions:    make(map[string]persistence.Session),
		observers:   make(map[int]Observer),
	}
}

// LoadRooms replaces the room snapshot. Rooms are immutable afterwards; the
// catalog is loaded once at startup and only read from then on.
func (s *Store) LoadRooms(rooms []persistence.Room) {
	snapshot := make([]persistence.Room, len(rooms))
	copy(snapshot, rooms)

	s.mu.Lock()
	s.rooms = snapshot
	s.mu.Unlock()
}

// LoadBookings replaces the booking snapshot without notifying observers.
// Used to seed initial data.
func (s *Store) LoadBookings(bookings []persistence.Booking) {
	snapshot := make([]persistence.Booking, len(bookings))
	copy(snapshot, bookings)

	s.mu.Lock()
	s.bookings = snapshot
	s.mu.Unlock()
}

// Rooms returns the current room snapshot. The slice is empty, not nil-error,
// when nothing has been loaded yet.
func (s *Store) Rooms() []persistence.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]persistence.Room, len(s.rooms))
	copy(out, s.rooms)
	return out
}

// Bookings returns the current booking snapshot.
func (s *Store) Bookings() []persistence.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]persistence.Booking, len(s.bookings))
	copy(out, s.bookings)
	return out
}

// Add appends a booking and returns the stored record. A fresh identifier is
// assigned when the input carries none. The store trusts its input: overlap
// and structural validation belong to the service layer in front of it.
func (s *Store) Add(b persistence.Booking) persistence.Booking {
	s.mu.Lock()
	if b.ID == "" {
		b.ID = s.idGenerator()
	}
	s.bookings = append(s.bookings, b)
	s.mu.Unlock()

	s.notify(Event{Type: EventBookingAdded, Booking: b})
	return b
}

// Update replaces the booking matching the input's id. It returns
// persistence.ErrNotFound when no such booking exists.
func (s *Store) Update(b persistence.Booking) (persistence.Booking, error) {
	s.mu.Lock()
	replaced := false
	for i := range s.bookings {
		if s.bookings[i].ID == b.ID {
			s.bookings[i] = b
			replaced = true
			break
		}
	}
	s.mu.Unlock()

	if !replaced {
		return persistence.Booking{}, persistence.ErrNotFound
	}

	s.notify(Event{Type: EventBookingUpdated, Booking: b})
	return b, nil
}

// Delete removes the booking matching id. Deleting an absent id is a no-op,
// not an error.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	var removed persistence.Booking
	found := false
	kept := s.bookings[:0]
	for _, b := range s.bookings {
		if b.ID == id {
			removed = b
			found = true
			continue
		}
		kept = append(kept, b)
	}
	s.bookings = kept
	s.mu.Unlock()

	if found {
		s.notify(Event{Type: EventBookingDeleted, Booking: removed})
	}
}

// Subscribe registers an observer and returns its cancel function.
func (s *Store) Subscribe(observer Observer) (cancel func()) {
	s.observerMu.Lock()
	id := s.nextObserver
	s.nextObserver++
	s.observers[id] = observer
	s.observerMu.Unlock()

	return func() {
		s.observerMu.Lock()
		delete(s.observers, id)
		s.observerMu.Unlock()
	}
}

// notify delivers an event to every observer outside the collection lock so
// observers may read the store.
func (s *Store) notify(event Event) {
	s.observerMu.Lock()
	ids := make([]int, 0, len(s.observers))
	for id := range s.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	observers := make([]Observer, 0, len(ids))
	for _, id := range ids {
		observers = append(observers, s.observers[id])
	}
	s.observerMu.Unlock()

	for _, observer := range observers {
		if observer != nil {
			observer(event)
		}
	}
}

// --- persistence.RoomRepository ---

// CreateRoom appends a room to the catalog. Duplicate ids are rejected.
func (s *Store) CreateRoom(ctx context.Context, room persistence.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.rooms {
		if s.rooms[i].ID == room.ID {
			return persistence.ErrDuplicate
		}
	}
	s.rooms = append(s.rooms, room)
	return nil
}

// GetRoom retrieves a room by id.
func (s *Store) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.rooms {
		if s.rooms[i].ID == id {
			return s.rooms[i], nil
		}
	}
	return persistence.Room{}, persistence.ErrNotFound
}

// ListRooms returns the room snapshot.
func (s *Store) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	return s.Rooms(), nil
}

// --- persistence.BookingRepository ---

// CreateBooking stores a booking with its caller-assigned id.
func (s *Store) CreateBooking(ctx context.Context, b persistence.Booking) error {
	s.mu.Lock()
	for i := range s.bookings {
		if s.bookings[i].ID == b.ID {
			s.mu.Unlock()
			return persistence.ErrDuplicate
		}
	}
	if b.ID == "" {
		b.ID = s.idGenerator()
	}
	s.bookings = append(s.bookings, b)
	s.mu.Unlock()

	s.notify(Event{Type: EventBookingAdded, Booking: b})
	return nil
}

// GetBooking retrieves a booking by id.
func (s *Store) GetBooking(ctx context.Context, id string) (persistence.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.bookings {
		if s.bookings[i].ID == id {
			return s.bookings[i], nil
		}
	}
	return persistence.Booking{}, persistence.ErrNotFound
}

// UpdateBooking replaces a booking by id.
func (s *Store) UpdateBooking(ctx context.Context, b persistence.Booking) error {
	_, err := s.Update(b)
	return err
}

// DeleteBooking removes a booking by id; absent ids are ignored.
func (s *Store) DeleteBooking(ctx context.Context, id string) error {
	s.Delete(id)
	return nil
}

// ListBookings returns bookings matching the filter, ordered by start time.
func (s *Store) ListBookings(ctx context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	s.mu.RLock()
	matched := make([]persistence.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		if matchesFilter(b, filter) {
			matched = append(matched, b)
		}
	}
	s.mu.RUnlock()

	sortBookings(matched, SortDateAsc)
	return matched, nil
}

func matchesFilter(b persistence.Booking, filter persistence.BookingFilter) bool {
	if filter.RoomID != "" && b.RoomID != filter.RoomID {
		return false
	}
	if filter.UserID != "" && b.UserID != filter.UserID {
		return false
	}
	if filter.EndsAfter != nil && !b.End.After(*filter.EndsAfter) {
		return false
	}
	if filter.StartsAfter != nil && b.Start.Before(*filter.StartsAfter) {
		return false
	}
	if filter.EndsBefore != nil && !b.Start.Before(*filter.EndsBefore) {
		return false
	}
	return true
}

// --- persistence.ProfileRepository ---

// GetProfile retrieves a profile by user id.
func (s *Store) GetProfile(ctx context.Context, userID string) (persistence.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[userID]
	if !ok {
		return persistence.Profile{}, persistence.ErrNotFound
	}
	return profile, nil
}

// UpsertProfile stores a profile keyed by its user id.
func (s *Store) UpsertProfile(ctx context.Context, profile persistence.Profile) error {
	s.mu.Lock()
	s.profiles[profile.ID] = profile
	s.mu.Unlock()
	return nil
}

// --- persistence.UserRepository ---

// CreateUser stores a new account.
func (s *Store) CreateUser(ctx context.Context, user persistence.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; ok {
		return persistence.ErrDuplicate
	}
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return persistence.ErrDuplicate
		}
	}
	s.users[user.ID] = user
	return nil
}

// GetUser retrieves an account by id.
func (s *Store) GetUser(ctx context.Context, id string) (persistence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return persistence.User{}, persistence.ErrNotFound
	}
	return user, nil
}

// GetUserByEmail retrieves an account by email, case-insensitively.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return persistence.User{}, persistence.ErrNotFound
}

// --- persistence.SessionRepository ---

// CreateSession stores a session keyed by token.
func (s *Store) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[session.Token]; ok {
		return persistence.Session{}, persistence.ErrDuplicate
	}
	s.sessions[session.Token] = session
	return session, nil
}

// GetSession retrieves a session by token.
func (s *Store) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[token]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return session, nil
}

// RevokeSession marks a session revoked at the supplied instant.
func (s *Store) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	session.RevokedAt = &revokedAt
	s.sessions[token] = session
	return session, nil
}

// DeleteExpiredSessions drops sessions whose expiry precedes the reference.
func (s *Store) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, session := range s.sessions {
		if session.ExpiresAt.Before(reference) {
			delete(s.sessions, token)
		}
	}
	return nil
}
