package store

import (
	"sort"
	"strings"
	"time"

	"github.com/example/roombooking/internal/persistence"
)

// SortKey selects the ordering applied to a filtered booking view.
type SortKey string

const (
	// SortDateAsc orders by start time, earliest first. Default.
	SortDateAsc SortKey = "date_asc"
	// SortDateDesc orders by start time, latest first.
	SortDateDesc SortKey = "date_desc"
	// SortTitle orders by title, case-insensitively.
	SortTitle SortKey = "title"
)

// ParseSortKey maps a request value to a SortKey, defaulting to SortDateAsc.
func ParseSortKey(value string) SortKey {
	switch SortKey(strings.TrimSpace(strings.ToLower(value))) {
	case SortDateDesc:
		return SortDateDesc
	case SortTitle:
		return SortTitle
	default:
		return SortDateAsc
	}
}

// Filter narrows and orders a booking view. Zero-valued fields are ignored.
type Filter struct {
	// Organizer matches bookings whose organizer contains the value,
	// case-insensitively.
	Organizer string
	// UserID restricts the view to one owner.
	UserID string
	// From keeps bookings starting at or after the instant.
	From *time.Time
	// To keeps bookings starting strictly before the instant.
	To   *time.Time
	Sort SortKey
}

// Upcoming returns the bookings still in progress or ahead of now (end after
// now), ordered by start time ascending.
func (s *Store) Upcoming(now time.Time) []persistence.Booking {
	s.mu.RLock()
	out := make([]persistence.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		if b.End.After(now) {
			out = append(out, b)
		}
	}
	s.mu.RUnlock()

	sortBookings(out, SortDateAsc)
	return out
}

// ForRoom returns the room's bookings ordered by start time ascending.
func (s *Store) ForRoom(roomID string) []persistence.Booking {
	s.mu.RLock()
	out := make([]persistence.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		if b.RoomID == roomID {
			out = append(out, b)
		}
	}
	s.mu.RUnlock()

	sortBookings(out, SortDateAsc)
	return out
}

// Search returns the bookings matching the filter in the requested order.
func (s *Store) Search(filter Filter) []persistence.Booking {
	organizer := strings.ToLower(strings.TrimSpace(filter.Organizer))

	s.mu.RLock()
	out := make([]persistence.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		if filter.UserID != "" && b.UserID != filter.UserID {
			continue
		}
		if organizer != "" && !strings.Contains(strings.ToLower(b.Organizer), organizer) {
			continue
		}
		if filter.From != nil && b.Start.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !b.Start.Before(*filter.To) {
			continue
		}
		out = append(out, b)
	}
	s.mu.RUnlock()

	sortBookings(out, filter.Sort)
	return out
}

// sortBookings orders bookings in place. Ties fall back to id so the order is
// deterministic.
func sortBookings(bookings []persistence.Booking, key SortKey) {
	sort.SliceStable(bookings, func(i, j int) bool {
		a, b := bookings[i], bookings[j]
		switch key {
		case SortDateDesc:
			if !a.Start.Equal(b.Start) {
				return a.Start.After(b.Start)
			}
		case SortTitle:
			at, bt := strings.ToLower(a.Title), strings.ToLower(b.Title)
			if at != bt {
				return at < bt
			}
		default:
			if !a.Start.Equal(b.Start) {
				return a.Start.Before(b.Start)
			}
		}
		return a.ID < b.ID
	})
}
