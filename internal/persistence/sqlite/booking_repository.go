package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/roombooking/internal/persistence"
)

// BookingRepository implements persistence.BookingRepository backed by SQLite.
type BookingRepository struct {
	pool *ConnectionPool
}

// NewBookingRepository creates a SQLite booking repository.
func NewBookingRepository(pool *ConnectionPool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

const bookingColumns = "id, room_id, user_id, title, organizer, start_at, end_at, created_at, updated_at"

// CreateBooking inserts a reservation.
func (r *BookingRepository) CreateBooking(ctx context.Context, booking persistence.Booking) error {
	if booking.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.pool.db.ExecContext(ctx, query,
		booking.ID,
		booking.RoomID,
		booking.UserID,
		booking.Title,
		booking.Organizer,
		formatTime(booking.Start),
		formatTime(booking.End),
		formatTime(booking.CreatedAt),
		formatTime(booking.UpdatedAt),
	)
	return mapError(err)
}

// GetBooking retrieves a reservation by id.
func (r *BookingRepository) GetBooking(ctx context.Context, id string) (persistence.Booking, error) {
	if id == "" {
		return persistence.Booking{}, persistence.ErrNotFound
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	return scanBooking(r.pool.db.QueryRowContext(ctx, query, id))
}

// UpdateBooking replaces the stored reservation matching the id.
func (r *BookingRepository) UpdateBooking(ctx context.Context, booking persistence.Booking) error {
	query := `
		UPDATE bookings
		SET room_id = ?, user_id = ?, title = ?, organizer = ?, start_at = ?, end_at = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.pool.db.ExecContext(ctx, query,
		booking.RoomID,
		booking.UserID,
		booking.Title,
		booking.Organizer,
		formatTime(booking.Start),
		formatTime(booking.End),
		formatTime(booking.UpdatedAt),
		booking.ID,
	)
	if err != nil {
		return mapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// DeleteBooking removes a reservation. Deleting an absent id is not an error.
func (r *BookingRepository) DeleteBooking(ctx context.Context, id string) error {
	_, err := r.pool.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	return mapError(err)
}

// ListBookings returns reservations matching the filter, start ascending with
// id as the tiebreak.
func (r *BookingRepository) ListBookings(ctx context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.RoomID != "" {
		conditions = append(conditions, "room_id = ?")
		args = append(args, filter.RoomID)
	}
	if filter.UserID != "" {
		conditions = append(conditions, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.EndsAfter != nil {
		conditions = append(conditions, "end_at > ?")
		args = append(args, formatTime(*filter.EndsAfter))
	}
	if filter.StartsAfter != nil {
		conditions = append(conditions, "start_at >= ?")
		args = append(args, formatTime(*filter.StartsAfter))
	}
	if filter.EndsBefore != nil {
		conditions = append(conditions, "start_at < ?")
		args = append(args, formatTime(*filter.EndsBefore))
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_at ASC, id ASC"

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var bookings []persistence.Booking
	for rows.Next() {
		booking, scanErr := scanBooking(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return bookings, nil
}

func scanBooking(row rowScanner) (persistence.Booking, error) {
	var (
		booking   persistence.Booking
		startAt   string
		endAt     string
		createdAt string
		updatedAt string
	)

	if err := row.Scan(
		&booking.ID,
		&booking.RoomID,
		&booking.UserID,
		&booking.Title,
		&booking.Organizer,
		&startAt,
		&endAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.Booking{}, mapError(err)
	}

	var err error
	if booking.Start, err = parseTime(startAt); err != nil {
		return persistence.Booking{}, err
	}
	if booking.End, err = parseTime(endAt); err != nil {
		return persistence.Booking{}, err
	}
	if booking.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Booking{}, err
	}
	if booking.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Booking{}, err
	}
	return booking, nil
}
