package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/example/roombooking/internal/application"
)

type roomService interface {
	ListRooms(ctx context.Context) ([]application.Room, error)
	GetRoom(ctx context.Context, id string) (application.Room, error)
}

type roomBookingLister interface {
	ListForRoom(ctx context.Context, roomID string) ([]application.Booking, error)
}

type RoomHandler struct {
	service   roomService
	bookings  roomBookingLister
	responder responder
	logger    *slog.Logger
}

func NewRoomHandler(service roomService, bookings roomBookingLister, logger *slog.Logger) *RoomHandler {
	base := defaultLogger(logger)
	return &RoomHandler{service: service, bookings: bookings, responder: newResponder(base), logger: base}
}

func (h *RoomHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "RoomHandler", operation, attrs...)
}

// List serves the room catalog.
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.service.ListRooms(r.Context())
	if err != nil {
		h.log(r.Context(), "List").ErrorContext(r.Context(), "failed to list rooms", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]roomDTO, 0, len(rooms))
	for _, room := range rooms {
		dtos = append(dtos, toRoomDTO(room))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, dtos)
}

// Get serves a single room by id.
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := RoomIDFromContext(r.Context())
	if !ok || id == "" {
		http.NotFound(w, r)
		return
	}

	room, err := h.service.GetRoom(r.Context(), id)
	if err != nil {
		h.log(r.Context(), "Get", "room_id", id).ErrorContext(r.Context(), "failed to get room", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toRoomDTO(room))
}

// Bookings serves a room's reservations, start ascending.
func (h *RoomHandler) Bookings(w http.ResponseWriter, r *http.Request) {
	id, ok := RoomIDFromContext(r.Context())
	if !ok || id == "" {
		http.NotFound(w, r)
		return
	}

	bookings, err := h.bookings.ListForRoom(r.Context(), id)
	if err != nil {
		h.log(r.Context(), "Bookings", "room_id", id).ErrorContext(r.Context(), "failed to list room bookings", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toBookingDTOs(bookings))
}

// Calendar serves a room's reservations as an iCalendar feed so the schedule
// can be subscribed to from desktop calendar clients.
func (h *RoomHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	id, ok := RoomIDFromContext(r.Context())
	if !ok || id == "" {
		http.NotFound(w, r)
		return
	}

	room, err := h.service.GetRoom(r.Context(), id)
	if err != nil {
		h.log(r.Context(), "Calendar", "room_id", id).ErrorContext(r.Context(), "failed to get room", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	bookings, err := h.bookings.ListForRoom(r.Context(), id)
	if err != nil {
		h.log(r.Context(), "Calendar", "room_id", id).ErrorContext(r.Context(), "failed to list room bookings", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	calendar := ics.NewCalendar()
	calendar.SetMethod(ics.MethodPublish)
	calendar.SetProductId("-//roombooking//room calendar//EN")
	calendar.SetName(room.Name)

	for _, booking := range bookings {
		event := calendar.AddEvent(booking.ID)
		event.SetCreatedTime(booking.CreatedAt)
		event.SetDtStampTime(booking.UpdatedAt)
		event.SetStartAt(booking.Start)
		event.SetEndAt(booking.End)
		event.SetSummary(booking.Title)
		event.SetLocation(room.Name)
		event.SetDescription(fmt.Sprintf("Organized by %s", booking.Organizer))
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", room.ID+".ics"))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(calendar.Serialize())); err != nil {
		h.log(r.Context(), "Calendar", "room_id", id).ErrorContext(r.Context(), "failed to write calendar", "error", err)
	}
}

type roomDTO struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Capacity    int     `json:"capacity"`
	Location    string  `json:"location,omitempty"`
	Description *string `json:"description,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func toRoomDTO(room application.Room) roomDTO {
	return roomDTO{
		ID:          room.ID,
		Name:        room.Name,
		Capacity:    room.Capacity,
		Location:    room.Location,
		Description: room.Description,
		CreatedAt:   room.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:   room.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}
