package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/roombooking/internal/application"
)

type bookingService interface {
	CreateBooking(ctx context.Context, params application.CreateBookingParams) (application.Booking, error)
	UpdateBooking(ctx context.Context, params application.UpdateBookingParams) (application.Booking, error)
	DeleteBooking(ctx context.Context, principal application.Principal, bookingID string) error
	GetBooking(ctx context.Context, id string) (application.Booking, error)
	ListUpcoming(ctx context.Context) ([]application.Booking, error)
	ListBookings(ctx context.Context, params application.ListBookingsParams) ([]application.Booking, error)
}

type BookingHandler struct {
	service   bookingService
	responder responder
	logger    *slog.Logger
}

func NewBookingHandler(service bookingService, logger *slog.Logger) *BookingHandler {
	base := defaultLogger(logger)
	return &BookingHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *BookingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "BookingHandler", operation, attrs...)
}

// List serves the "my bookings" view: the principal's bookings narrowed by
// organizer substring and date window, ordered by the sort query parameter.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, nil)
		return
	}

	query := r.URL.Query()
	params := application.ListBookingsParams{
		Principal: principal,
		Organizer: strings.TrimSpace(query.Get("organizer")),
		Sort:      query.Get("sort"),
	}

	if raw := query.Get("from"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
			return
		}
		params.From = &from
	}
	if raw := query.Get("to"); raw != "" {
		day, err := time.Parse("2006-01-02", raw)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
			return
		}
		// The "to" day is included in the window.
		end := day.AddDate(0, 0, 1)
		params.To = &end
	}

	bookings, err := h.service.ListBookings(r.Context(), params)
	if err != nil {
		h.log(r.Context(), "List").ErrorContext(r.Context(), "failed to list bookings", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toBookingDTOs(bookings))
}

// Upcoming serves the dashboard feed of bookings that have not yet ended.
func (h *BookingHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.service.ListUpcoming(r.Context())
	if err != nil {
		h.log(r.Context(), "Upcoming").ErrorContext(r.Context(), "failed to list upcoming bookings", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toBookingDTOs(bookings))
}

// Get serves a single booking by id.
func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := BookingIDFromContext(r.Context())
	if !ok || id == "" {
		http.NotFound(w, r)
		return
	}

	booking, err := h.service.GetBooking(r.Context(), id)
	if err != nil {
		h.log(r.Context(), "Get", "booking_id", id).ErrorContext(r.Context(), "failed to get booking", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toBookingDTO(booking))
}

// Create reserves a room slot for the authenticated principal.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, nil)
		return
	}

	input, err := decodeBookingForm(r)
	if err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode booking request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID, "room_id", input.RoomID)

	created, err := h.service.CreateBooking(r.Context(), application.CreateBookingParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to create booking", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("booking_id", created.ID).InfoContext(r.Context(), "booking created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toBookingDTO(created))
}

// Update edits the identified booking; the service rejects non-owners.
func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, nil)
		return
	}

	id, ok := BookingIDFromContext(r.Context())
	if !ok || id == "" {
		http.NotFound(w, r)
		return
	}

	input, err := decodeBookingForm(r)
	if err != nil {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode booking request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "booking_id", id)

	updated, err := h.service.UpdateBooking(r.Context(), application.UpdateBookingParams{
		Principal: principal,
		BookingID: id,
		Input:     input,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to update booking", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "booking updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toBookingDTO(updated))
}

// Delete removes the identified booking; deleting an absent id succeeds.
func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, nil)
		return
	}

	id, ok := BookingIDFromContext(r.Context())
	if !ok || id == "" {
		http.NotFound(w, r)
		return
	}

	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "booking_id", id)

	if err := h.service.DeleteBooking(r.Context(), principal, id); err != nil {
		logger.ErrorContext(r.Context(), "failed to delete booking", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "booking deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type bookingForm struct {
	RoomID    string `json:"room_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Title     string `json:"title"`
	Organizer string `json:"organizer"`
}

func decodeBookingForm(r *http.Request) (application.BookingInput, error) {
	var form bookingForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		return application.BookingInput{}, errBadRequestBody
	}

	input := application.BookingInput{
		RoomID:    strings.TrimSpace(form.RoomID),
		StartTime: form.StartTime,
		EndTime:   form.EndTime,
		Title:     form.Title,
		Organizer: form.Organizer,
	}

	if raw := strings.TrimSpace(form.Date); raw != "" {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return application.BookingInput{}, errInvalidDate
		}
		input.Date = date
	}
	return input, nil
}

type bookingDTO struct {
	ID        string `json:"id"`
	RoomID    string `json:"room_id"`
	UserID    string `json:"user_id"`
	Title     string `json:"title"`
	Organizer string `json:"organizer"`
	Start     string `json:"start"`
	End       string `json:"end"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toBookingDTO(booking application.Booking) bookingDTO {
	return bookingDTO{
		ID:        booking.ID,
		RoomID:    booking.RoomID,
		UserID:    booking.UserID,
		Title:     booking.Title,
		Organizer: booking.Organizer,
		Start:     booking.Start.UTC().Format(time.RFC3339Nano),
		End:       booking.End.UTC().Format(time.RFC3339Nano),
		CreatedAt: booking.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: booking.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toBookingDTOs(bookings []application.Booking) []bookingDTO {
	dtos := make([]bookingDTO, 0, len(bookings))
	for _, booking := range bookings {
		dtos = append(dtos, toBookingDTO(booking))
	}
	return dtos
}
