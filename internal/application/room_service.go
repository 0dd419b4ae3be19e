package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/roombooking/internal/persistence"
)

// RoomService exposes read access to the room catalog. Rooms have no mutation
// surface through the public API; the catalog is seeded at startup.
type RoomService struct {
	rooms  RoomCatalog
	logger *slog.Logger
}

// NewRoomService constructs a room service with the provided catalog.
func NewRoomService(rooms RoomCatalog) *RoomService {
	return NewRoomServiceWithLogger(rooms, nil)
}

// NewRoomServiceWithLogger constructs a room service with a specified logger.
func NewRoomServiceWithLogger(rooms RoomCatalog, logger *slog.Logger) *RoomService {
	return &RoomService{rooms: rooms, logger: defaultLogger(logger)}
}

func (s *RoomService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RoomService", operation, attrs...)
}

// ListRooms enumerates the room catalog.
func (s *RoomService) ListRooms(ctx context.Context) ([]Room, error) {
	if s == nil || s.rooms == nil {
		return nil, fmt.Errorf("room catalog not configured")
	}

	records, err := s.rooms.ListRooms(ctx)
	if err != nil {
		err = mapRepoError(err)
		s.loggerWith(ctx, "ListRooms").ErrorContext(ctx, "failed to list rooms", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}

	rooms := make([]Room, 0, len(records))
	for _, record := range records {
		rooms = append(rooms, toApplicationRoom(record))
	}
	return rooms, nil
}

// GetRoom returns a single room by id.
func (s *RoomService) GetRoom(ctx context.Context, id string) (Room, error) {
	if s == nil || s.rooms == nil {
		return Room{}, fmt.Errorf("room catalog not configured")
	}

	record, err := s.rooms.GetRoom(ctx, id)
	if err != nil {
		err = mapRepoError(err)
		s.loggerWith(ctx, "GetRoom", "room_id", id).ErrorContext(ctx, "failed to get room", "error", err, "error_kind", ErrorKind(err))
		return Room{}, err
	}
	return toApplicationRoom(record), nil
}

func toApplicationRoom(record persistence.Room) Room {
	return Room{
		ID:          record.ID,
		Name:        record.Name,
		Capacity:    record.Capacity,
		Location:    record.Location,
		Description: cloneString(record.Description),
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
