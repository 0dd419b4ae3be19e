package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/roombooking/internal/persistence"
)

// RoomRepository implements persistence.RoomRepository backed by SQLite.
type RoomRepository struct {
	pool *ConnectionPool
}

// NewRoomRepository creates a SQLite room repository.
func NewRoomRepository(pool *ConnectionPool) *RoomRepository {
	return &RoomRepository{pool: pool}
}

// CreateRoom inserts a catalog entry.
func (r *RoomRepository) CreateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" || room.Capacity <= 0 {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO rooms (id, name, capacity, location, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.pool.db.ExecContext(ctx, query,
		room.ID,
		room.Name,
		room.Capacity,
		room.Location,
		nullableString(room.Description),
		formatTime(room.CreatedAt),
		formatTime(room.UpdatedAt),
	)
	return mapError(err)
}

// GetRoom retrieves a room by id.
func (r *RoomRepository) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	if id == "" {
		return persistence.Room{}, persistence.ErrNotFound
	}

	query := `
		SELECT id, name, capacity, location, description, created_at, updated_at
		FROM rooms
		WHERE id = ?
	`
	return scanRoom(r.pool.db.QueryRowContext(ctx, query, id))
}

// ListRooms returns the catalog ordered by name then id.
func (r *RoomRepository) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	query := `
		SELECT id, name, capacity, location, description, created_at, updated_at
		FROM rooms
		ORDER BY name ASC, id ASC
	`
	rows, err := r.pool.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var rooms []persistence.Room
	for rows.Next() {
		room, scanErr := scanRoom(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return rooms, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (persistence.Room, error) {
	var (
		room        persistence.Room
		location    sql.NullString
		description sql.NullString
		createdAt   string
		updatedAt   string
	)

	if err := row.Scan(&room.ID, &room.Name, &room.Capacity, &location, &description, &createdAt, &updatedAt); err != nil {
		return persistence.Room{}, mapError(err)
	}

	if location.Valid {
		room.Location = location.String
	}
	room.Description = optionalColumn(description)

	var err error
	if room.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Room{}, err
	}
	if room.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Room{}, err
	}
	return room, nil
}
