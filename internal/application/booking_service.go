package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/roombooking/internal/booking"
	"github.com/example/roombooking/internal/persistence"
	"github.com/example/roombooking/internal/store"
)

// BookingRepository captures the persistence interactions needed by the service.
type BookingRepository interface {
	CreateBooking(ctx context.Context, booking persistence.Booking) error
	GetBooking(ctx context.Context, id string) (persistence.Booking, error)
	UpdateBooking(ctx context.Context, booking persistence.Booking) error
	DeleteBooking(ctx context.Context, id string) error
	ListBookings(ctx context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error)
}

// RoomCatalog exposes the room lookups the service needs.
type RoomCatalog interface {
	GetRoom(ctx context.Context, id string) (persistence.Room, error)
	ListRooms(ctx context.Context) ([]persistence.Room, error)
}

// BookingService orchestrates validation, persistence, and the in-memory
// mirror for reservation operations.
//
// The mirror is the session-scoped cache the views read from: conflict
// validation runs against its current snapshot, the repository round trip is
// made, and only on success is the mirror synchronized. There is no
// compare-and-swap against the backing store, so the overlap invariant is a
// best-effort gate rather than a cross-request guarantee.
type BookingService struct {
	bookings    BookingRepository
	rooms       RoomCatalog
	mirror      *store.Store
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewBookingService wires dependencies for booking operations.
func NewBookingService(bookings BookingRepository, rooms RoomCatalog, mirror *store.Store, idGenerator func() string, now func() time.Time) *BookingService {
	return NewBookingServiceWithLogger(bookings, rooms, mirror, idGenerator, now, nil)
}

// NewBookingServiceWithLogger constructs a booking service with a specified logger.
func NewBookingServiceWithLogger(bookings BookingRepository, rooms RoomCatalog, mirror *store.Store, idGenerator func() string, now func() time.Time, logger *slog.Logger) *BookingService {
	if mirror == nil {
		mirror = store.New(idGenerator)
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &BookingService{
		bookings:    bookings,
		rooms:       rooms,
		mirror:      mirror,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *BookingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BookingService", operation, attrs...)
}

// Hydrate loads the room catalog and booking collection from persistence into
// the mirror. Called once at startup; list views serve stale data until then.
func (s *BookingService) Hydrate(ctx context.Context) error {
	if s == nil || s.bookings == nil {
		return fmt.Errorf("booking repository not configured")
	}

	if s.rooms != nil {
		rooms, err := s.rooms.ListRooms(ctx)
		if err != nil {
			return mapRepoError(err)
		}
		s.mirror.LoadRooms(rooms)
	}

	bookings, err := s.bookings.ListBookings(ctx, persistence.BookingFilter{})
	if err != nil {
		return mapRepoError(err)
	}
	s.mirror.LoadBookings(bookings)

	s.loggerWith(ctx, "Hydrate").InfoContext(ctx, "mirror hydrated",
		"rooms", len(s.mirror.Rooms()),
		"bookings", len(bookings),
	)
	return nil
}

// Mirror exposes the in-memory collection, primarily so callers can subscribe
// to change notifications.
func (s *BookingService) Mirror() *store.Store {
	if s == nil {
		return nil
	}
	return s.mirror
}

// CreateBooking validates the candidate against the room's current bookings
// and persists it on success. The acting principal becomes the owner.
func (s *BookingService) CreateBooking(ctx context.Context, params CreateBookingParams) (result Booking, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}
	if s.bookings == nil {
		err = fmt.Errorf("booking repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateBooking",
		"principal_id", params.Principal.UserID,
		"room_id", params.Input.RoomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create booking", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("booking_id", result.ID).InfoContext(ctx, "booking created")
	}()

	if err = s.validateCandidate(ctx, params.Input, ""); err != nil {
		return
	}

	createdAt := s.now()
	record := persistence.Booking{
		ID:        s.idGenerator(),
		RoomID:    params.Input.RoomID,
		UserID:    params.Principal.UserID,
		Title:     strings.TrimSpace(params.Input.Title),
		Organizer: strings.TrimSpace(params.Input.Organizer),
		Start:     booking.CombineDateTime(params.Input.Date, params.Input.StartTime),
		End:       booking.CombineDateTime(params.Input.Date, params.Input.EndTime),
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}

	if err = s.bookings.CreateBooking(ctx, record); err != nil {
		err = mapRepoError(err)
		return
	}

	s.mirror.Add(record)
	result = toApplicationBooking(record)
	return
}

// UpdateBooking replaces the booking matching the id after re-validating the
// candidate with the edited booking excluded from the conflict set. Only the
// owner may edit a booking.
func (s *BookingService) UpdateBooking(ctx context.Context, params UpdateBookingParams) (result Booking, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}
	if s.bookings == nil {
		err = fmt.Errorf("booking repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateBooking",
		"principal_id", params.Principal.UserID,
		"booking_id", params.BookingID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update booking", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "booking updated")
	}()

	var existing persistence.Booking
	existing, err = s.bookings.GetBooking(ctx, params.BookingID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	if existing.UserID != params.Principal.UserID {
		err = ErrUnauthorized
		return
	}

	if err = s.validateCandidate(ctx, params.Input, params.BookingID); err != nil {
		return
	}

	updated := existing
	updated.RoomID = params.Input.RoomID
	updated.Title = strings.TrimSpace(params.Input.Title)
	updated.Organizer = strings.TrimSpace(params.Input.Organizer)
	updated.Start = booking.CombineDateTime(params.Input.Date, params.Input.StartTime)
	updated.End = booking.CombineDateTime(params.Input.Date, params.Input.EndTime)
	updated.UpdatedAt = s.now()

	if err = s.bookings.UpdateBooking(ctx, updated); err != nil {
		err = mapRepoError(err)
		return
	}

	s.syncMirror(updated)
	result = toApplicationBooking(updated)
	return
}

// DeleteBooking removes the booking matching the id. Deleting an id that is
// already absent succeeds without touching the collection.
func (s *BookingService) DeleteBooking(ctx context.Context, principal Principal, bookingID string) (err error) {
	if s == nil {
		return fmt.Errorf("BookingService is nil")
	}
	if s.bookings == nil {
		return fmt.Errorf("booking repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteBooking",
		"principal_id", principal.UserID,
		"booking_id", bookingID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete booking", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "booking deleted")
	}()

	existing, getErr := s.bookings.GetBooking(ctx, bookingID)
	if getErr != nil {
		if errors.Is(getErr, persistence.ErrNotFound) {
			return nil
		}
		err = mapRepoError(getErr)
		return
	}

	if existing.UserID != principal.UserID {
		err = ErrUnauthorized
		return
	}

	if err = s.bookings.DeleteBooking(ctx, bookingID); err != nil {
		err = mapRepoError(err)
		return
	}

	s.mirror.Delete(bookingID)
	return nil
}

// GetBooking returns a single booking by id.
func (s *BookingService) GetBooking(ctx context.Context, id string) (Booking, error) {
	if s == nil || s.bookings == nil {
		return Booking{}, fmt.Errorf("booking repository not configured")
	}

	record, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		return Booking{}, mapRepoError(err)
	}
	return toApplicationBooking(record), nil
}

// ListUpcoming returns the bookings that have not yet ended, start ascending.
func (s *BookingService) ListUpcoming(ctx context.Context) ([]Booking, error) {
	if s == nil {
		return nil, fmt.Errorf("BookingService is nil")
	}
	return toApplicationBookings(s.mirror.Upcoming(s.now())), nil
}

// ListForRoom returns a room's bookings, start ascending. The room must exist.
func (s *BookingService) ListForRoom(ctx context.Context, roomID string) ([]Booking, error) {
	if s == nil {
		return nil, fmt.Errorf("BookingService is nil")
	}

	if s.rooms != nil {
		if _, err := s.rooms.GetRoom(ctx, roomID); err != nil {
			return nil, mapRepoError(err)
		}
	}
	return toApplicationBookings(s.mirror.ForRoom(roomID)), nil
}

// ListBookings returns the principal's bookings narrowed by organizer
// substring and date range, in the requested order.
func (s *BookingService) ListBookings(ctx context.Context, params ListBookingsParams) ([]Booking, error) {
	if s == nil {
		return nil, fmt.Errorf("BookingService is nil")
	}

	filter := store.Filter{
		UserID:    params.Principal.UserID,
		Organizer: params.Organizer,
		From:      params.From,
		To:        params.To,
		Sort:      store.ParseSortKey(params.Sort),
	}
	return toApplicationBookings(s.mirror.Search(filter)), nil
}

// validateCandidate runs the structural and overlap checks against the
// mirror's current snapshot for the target room.
func (s *BookingService) validateCandidate(ctx context.Context, input BookingInput, excludeID string) error {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.RoomID) == "" {
		vErr.add("room_id", "a room is required")
	} else if s.rooms != nil {
		if _, err := s.rooms.GetRoom(ctx, input.RoomID); err != nil {
			if errors.Is(err, persistence.ErrNotFound) {
				vErr.add("room_id", "room does not exist")
			} else {
				return mapRepoError(err)
			}
		}
	}

	candidate := booking.Candidate{
		RoomID:           input.RoomID,
		Date:             input.Date,
		StartTime:        strings.TrimSpace(input.StartTime),
		EndTime:          strings.TrimSpace(input.EndTime),
		Title:            input.Title,
		Organizer:        input.Organizer,
		ExcludeBookingID: excludeID,
	}

	existing := toValidatorBookings(s.mirror.ForRoom(input.RoomID))
	for field, message := range booking.Validate(candidate, existing) {
		vErr.add(field, message)
	}

	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

// syncMirror applies a successful round trip result to the cache. A booking
// missing from the mirror (for example created by another instance) is
// inserted rather than dropped.
func (s *BookingService) syncMirror(record persistence.Booking) {
	if _, err := s.mirror.Update(record); errors.Is(err, persistence.ErrNotFound) {
		s.mirror.Add(record)
	}
}

func toValidatorBookings(records []persistence.Booking) []booking.Booking {
	if len(records) == 0 {
		return nil
	}
	out := make([]booking.Booking, 0, len(records))
	for _, record := range records {
		out = append(out, booking.Booking{
			ID:     record.ID,
			RoomID: record.RoomID,
			Start:  record.Start,
			End:    record.End,
		})
	}
	return out
}

func toApplicationBooking(record persistence.Booking) Booking {
	return Booking{
		ID:        record.ID,
		RoomID:    record.RoomID,
		UserID:    record.UserID,
		Title:     record.Title,
		Organizer: record.Organizer,
		Start:     record.Start,
		End:       record.End,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}

func toApplicationBookings(records []persistence.Booking) []Booking {
	out := make([]Booking, 0, len(records))
	for _, record := range records {
		out = append(out, toApplicationBooking(record))
	}
	return out
}

func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		return newValidationError(booking.FieldErrors{booking.FieldEndTime: "end time must be after start time"})
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		return newValidationError(booking.FieldErrors{"room_id": "room does not exist"})
	}
	return fmt.Errorf("%w: %v", ErrRemote, err)
}
