package booking

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Booking carries the fields the validator inspects on an existing reservation.
type Booking struct {
	ID     string
	RoomID string
	Start  time.Time
	End    time.Time
}

// Candidate describes a reservation request as collected by the booking form:
// a calendar day plus wall-clock start and end times.
type Candidate struct {
	RoomID    string
	Date      time.Time
	StartTime string
	EndTime   string
	Title     string
	Organizer string
	// ExcludeBookingID names the booking being edited so it does not
	// conflict with itself. Empty for new bookings.
	ExcludeBookingID string
}

// Field identifiers used to attribute validation failures to form fields.
const (
	FieldTitle     = "title"
	FieldOrganizer = "organizer"
	FieldDate      = "date"
	FieldStartTime = "start_time"
	FieldEndTime   = "end_time"
)

const (
	msgTitleTooShort     = "title must be at least 2 characters"
	msgOrganizerTooShort = "organizer must be at least 2 characters"
	msgDateRequired      = "a booking date is required"
	msgBadTimeFormat     = "invalid time format (HH:MM)"
	msgEndNotAfterStart  = "end time must be after start time"
	msgRoomAlreadyBooked = "the room is already booked for this time slot"
)

// timePattern accepts strict 24-hour wall-clock times. A single-digit hour is
// tolerated ("9:30"), minutes are always two digits.
var timePattern = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)

// FieldErrors maps form field identifiers to human-readable rejection reasons.
type FieldErrors map[string]string

// Valid reports whether no field was rejected.
func (f FieldErrors) Valid() bool { return len(f) == 0 }

// Validate decides whether the candidate may be committed against the given
// set of existing bookings. Checks run in stages: structural field checks
// first, then interval ordering, then room overlap. Later stages are skipped
// while earlier ones fail, matching the form's progressive disclosure.
//
// The overlap test uses half-open interval semantics: a booking ending at
// 10:00 does not conflict with one starting at 10:00. Existing bookings are
// matched by room alone rather than by calendar day, so a reservation
// spanning midnight still blocks candidates on the following day.
func Validate(candidate Candidate, existing []Booking) FieldErrors {
	errs := FieldErrors{}

	if len(strings.TrimSpace(candidate.Title)) < 2 {
		errs[FieldTitle] = msgTitleTooShort
	}
	if len(strings.TrimSpace(candidate.Organizer)) < 2 {
		errs[FieldOrganizer] = msgOrganizerTooShort
	}
	if candidate.Date.IsZero() {
		errs[FieldDate] = msgDateRequired
	}
	if !timePattern.MatchString(candidate.StartTime) {
		errs[FieldStartTime] = msgBadTimeFormat
	}
	if !timePattern.MatchString(candidate.EndTime) {
		errs[FieldEndTime] = msgBadTimeFormat
	}
	if len(errs) > 0 {
		return errs
	}

	start := CombineDateTime(candidate.Date, candidate.StartTime)
	end := CombineDateTime(candidate.Date, candidate.EndTime)

	if !end.After(start) {
		errs[FieldEndTime] = msgEndNotAfterStart
		return errs
	}

	for _, other := range existing {
		if other.RoomID != candidate.RoomID {
			continue
		}
		if candidate.ExcludeBookingID != "" && other.ID == candidate.ExcludeBookingID {
			continue
		}
		if Overlaps(start, end, other.Start, other.End) {
			errs[FieldStartTime] = msgRoomAlreadyBooked
			return errs
		}
	}

	return errs
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// CombineDateTime merges a calendar day with a wall-clock "HH:MM" value in
// the day's location. A malformed time yields the start of the day.
func CombineDateTime(date time.Time, hhmm string) time.Time {
	hour, minute := splitTime(hhmm)
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location())
}

// SameDay reports whether two instants fall on the same calendar day in the
// first instant's location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

func splitTime(hhmm string) (hour, minute int) {
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	hour, _ = strconv.Atoi(parts[0])
	minute, _ = strconv.Atoi(parts[1])
	return hour, minute
}
