package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/roombooking/internal/application"
	"github.com/example/roombooking/internal/persistence"
	"github.com/example/roombooking/internal/store"
)

var handlerTestStamp = time.Date(2026, time.March, 9, 8, 0, 0, 0, time.UTC)

type testServer struct {
	handler http.Handler
	backing *store.Store
}

func sequentialIDs(prefix string) func() string {
	counter := 0
	return func() string {
		counter++
		return fmt.Sprintf("%s-%d", prefix, counter)
	}
}

// newTestServer assembles the full router backed by in-memory storage with
// two accounts and two rooms seeded.
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	backing := store.New(nil)
	ctx := context.Background()

	rooms := []persistence.Room{
		{ID: "room-1", Name: "Aurora", Capacity: 8, CreatedAt: handlerTestStamp, UpdatedAt: handlerTestStamp},
		{ID: "room-2", Name: "Borealis", Capacity: 4, CreatedAt: handlerTestStamp, UpdatedAt: handlerTestStamp},
	}
	for _, room := range rooms {
		if err := backing.CreateRoom(ctx, room); err != nil {
			t.Fatalf("seed room: %v", err)
		}
	}

	cheap := application.Argon2Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
	for i, email := range []string{"alice@example.com", "marco@example.com"} {
		hash, err := application.HashPassword("correct horse", cheap)
		if err != nil {
			t.Fatalf("hash password: %v", err)
		}
		user := persistence.User{
			ID:           fmt.Sprintf("user-%d", i+1),
			Email:        email,
			PasswordHash: hash,
			CreatedAt:    handlerTestStamp,
			UpdatedAt:    handlerTestStamp,
		}
		if err := backing.CreateUser(ctx, user); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}

	now := func() time.Time { return handlerTestStamp }
	authService := application.NewAuthService(backing, backing, nil, sequentialIDs("session"), sequentialIDs("token"), now, 8*time.Hour)
	bookingService := application.NewBookingService(backing, backing, nil, sequentialIDs("booking"), now)
	if err := bookingService.Hydrate(ctx); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	roomService := application.NewRoomService(backing)
	profileService := application.NewProfileService(backing, now)

	handler := NewRouter(RouterConfig{
		Auth:           NewAuthHandler(authService, nil),
		Rooms:          NewRoomHandler(roomService, bookingService, nil),
		Bookings:       NewBookingHandler(bookingService, nil),
		Profile:        NewProfileHandler(profileService, nil),
		RequireSession: RequireSession(authService, nil),
	})

	return &testServer{handler: handler, backing: backing}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	ts.handler.ServeHTTP(recorder, req)
	return recorder
}

func (ts *testServer) login(t *testing.T, email string) string {
	t.Helper()

	recorder := ts.do(t, http.MethodPost, "/login", "", map[string]string{
		"email":    email,
		"password": "correct horse",
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("login returned %d: %s", recorder.Code, recorder.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp.Token == "" {
		t.Fatalf("expected a session token in the login response")
	}
	return resp.Token
}

func decodeError(t *testing.T, recorder *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v (%s)", err, recorder.Body.String())
	}
	return resp
}

func validBookingBody() map[string]string {
	return map[string]string{
		"room_id":    "room-1",
		"date":       "2026-03-09",
		"start_time": "10:00",
		"end_time":   "11:00",
		"title":      "Sprint Review",
		"organizer":  "Alice Rossi",
	}
}

func TestAuthHandlers(t *testing.T) {
	t.Run("login issues session token via body, header, and cookie", func(t *testing.T) {
		ts := newTestServer(t)

		recorder := ts.do(t, http.MethodPost, "/login", "", map[string]string{
			"email":    "alice@example.com",
			"password": "correct horse",
		})
		if recorder.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
		}
		if recorder.Header().Get("X-Session-Token") == "" {
			t.Errorf("expected X-Session-Token header")
		}
		if !strings.Contains(recorder.Header().Get("Set-Cookie"), "session_token=") {
			t.Errorf("expected session cookie, got %q", recorder.Header().Get("Set-Cookie"))
		}
	})

	t.Run("login rejects bad credentials", func(t *testing.T) {
		ts := newTestServer(t)

		recorder := ts.do(t, http.MethodPost, "/login", "", map[string]string{
			"email":    "alice@example.com",
			"password": "wrong",
		})
		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", recorder.Code)
		}
		if resp := decodeError(t, recorder); resp.ErrorCode != "AUTH_INVALID_CREDENTIALS" {
			t.Errorf("expected AUTH_INVALID_CREDENTIALS, got %q", resp.ErrorCode)
		}
	})

	t.Run("login rejects a malformed body", func(t *testing.T) {
		ts := newTestServer(t)

		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("{not json"))
		recorder := httptest.NewRecorder()
		ts.handler.ServeHTTP(recorder, req)
		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", recorder.Code)
		}
	})

	t.Run("logout revokes the session", func(t *testing.T) {
		ts := newTestServer(t)
		token := ts.login(t, "alice@example.com")

		if recorder := ts.do(t, http.MethodPost, "/logout", token, nil); recorder.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", recorder.Code)
		}

		// The revoked token no longer grants access.
		if recorder := ts.do(t, http.MethodGet, "/rooms", token, nil); recorder.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 after logout, got %d", recorder.Code)
		}
	})
}

func TestRouterRequiresSession(t *testing.T) {
	ts := newTestServer(t)

	paths := []string{"/rooms", "/bookings", "/bookings/upcoming", "/profile"}
	for _, path := range paths {
		if recorder := ts.do(t, http.MethodGet, path, "", nil); recorder.Code != http.StatusUnauthorized {
			t.Errorf("expected 401 for %s without token, got %d", path, recorder.Code)
		}
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	ts := newTestServer(t)

	recorder := ts.do(t, http.MethodGet, "/nonsense", "", nil)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", recorder.Code)
	}
	if ct := recorder.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("expected JSON content type, got %q", ct)
	}
	if resp := decodeError(t, recorder); resp.Message != "the requested resource was not found" {
		t.Errorf("unexpected message %q", resp.Message)
	}

	token := ts.login(t, "alice@example.com")
	recorder = ts.do(t, http.MethodGet, "/rooms/room-1/unknown", token, nil)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown subresource, got %d", recorder.Code)
	}
	decodeError(t, recorder)
}

func TestRoomHandlers(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, "alice@example.com")

	t.Run("lists the catalog", func(t *testing.T) {
		recorder := ts.do(t, http.MethodGet, "/rooms", token, nil)
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}

		var rooms []roomDTO
		if err := json.Unmarshal(recorder.Body.Bytes(), &rooms); err != nil {
			t.Fatalf("decode rooms: %v", err)
		}
		if len(rooms) != 2 || rooms[0].Name != "Aurora" {
			t.Errorf("unexpected rooms %+v", rooms)
		}
	})

	t.Run("returns a room by id", func(t *testing.T) {
		recorder := ts.do(t, http.MethodGet, "/rooms/room-2", token, nil)
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}

		var room roomDTO
		if err := json.Unmarshal(recorder.Body.Bytes(), &room); err != nil {
			t.Fatalf("decode room: %v", err)
		}
		if room.Name != "Borealis" {
			t.Errorf("expected Borealis, got %q", room.Name)
		}
	})

	t.Run("unknown room is a 404", func(t *testing.T) {
		if recorder := ts.do(t, http.MethodGet, "/rooms/room-9", token, nil); recorder.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", recorder.Code)
		}
	})

	t.Run("serves the calendar feed", func(t *testing.T) {
		if recorder := ts.do(t, http.MethodPost, "/bookings", token, validBookingBody()); recorder.Code != http.StatusCreated {
			t.Fatalf("seed booking returned %d: %s", recorder.Code, recorder.Body.String())
		}

		recorder := ts.do(t, http.MethodGet, "/rooms/room-1/calendar", token, nil)
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}
		if contentType := recorder.Header().Get("Content-Type"); !strings.HasPrefix(contentType, "text/calendar") {
			t.Errorf("expected text/calendar, got %q", contentType)
		}
		body := recorder.Body.String()
		if !strings.Contains(body, "BEGIN:VCALENDAR") || !strings.Contains(body, "SUMMARY:Sprint Review") {
			t.Errorf("unexpected calendar payload:\n%s", body)
		}
	})
}

func TestBookingHandlers(t *testing.T) {
	t.Run("create round trips the booking", func(t *testing.T) {
		ts := newTestServer(t)
		token := ts.login(t, "alice@example.com")

		recorder := ts.do(t, http.MethodPost, "/bookings", token, validBookingBody())
		if recorder.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
		}

		var created bookingDTO
		if err := json.Unmarshal(recorder.Body.Bytes(), &created); err != nil {
			t.Fatalf("decode booking: %v", err)
		}
		if created.Start != "2026-03-09T10:00:00Z" || created.End != "2026-03-09T11:00:00Z" {
			t.Errorf("unexpected interval %s-%s", created.Start, created.End)
		}
		if created.UserID != "user-1" {
			t.Errorf("expected owner user-1, got %q", created.UserID)
		}

		listed := ts.do(t, http.MethodGet, "/rooms/room-1/bookings", token, nil)
		if listed.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", listed.Code)
		}
		var bookings []bookingDTO
		if err := json.Unmarshal(listed.Body.Bytes(), &bookings); err != nil {
			t.Fatalf("decode bookings: %v", err)
		}
		if len(bookings) != 1 || bookings[0].ID != created.ID {
			t.Errorf("unexpected room bookings %+v", bookings)
		}
	})

	t.Run("conflicting slot returns field errors", func(t *testing.T) {
		ts := newTestServer(t)
		token := ts.login(t, "alice@example.com")

		if recorder := ts.do(t, http.MethodPost, "/bookings", token, validBookingBody()); recorder.Code != http.StatusCreated {
			t.Fatalf("seed booking returned %d", recorder.Code)
		}

		overlap := validBookingBody()
		overlap["start_time"] = "10:30"
		overlap["end_time"] = "11:30"

		recorder := ts.do(t, http.MethodPost, "/bookings", token, overlap)
		if recorder.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d: %s", recorder.Code, recorder.Body.String())
		}
		resp := decodeError(t, recorder)
		if resp.Errors["start_time"] != "the room is already booked for this time slot" {
			t.Errorf("expected overlap message, got %v", resp.Errors)
		}
	})

	t.Run("malformed date is a 400", func(t *testing.T) {
		ts := newTestServer(t)
		token := ts.login(t, "alice@example.com")

		body := validBookingBody()
		body["date"] = "03/09/2026"

		if recorder := ts.do(t, http.MethodPost, "/bookings", token, body); recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", recorder.Code)
		}
	})

	t.Run("only the owner can update or delete", func(t *testing.T) {
		ts := newTestServer(t)
		owner := ts.login(t, "alice@example.com")
		other := ts.login(t, "marco@example.com")

		recorder := ts.do(t, http.MethodPost, "/bookings", owner, validBookingBody())
		if recorder.Code != http.StatusCreated {
			t.Fatalf("seed booking returned %d", recorder.Code)
		}
		var created bookingDTO
		if err := json.Unmarshal(recorder.Body.Bytes(), &created); err != nil {
			t.Fatalf("decode booking: %v", err)
		}

		if r := ts.do(t, http.MethodPut, "/bookings/"+created.ID, other, validBookingBody()); r.Code != http.StatusForbidden {
			t.Errorf("expected 403 for foreign update, got %d", r.Code)
		}
		if r := ts.do(t, http.MethodDelete, "/bookings/"+created.ID, other, nil); r.Code != http.StatusForbidden {
			t.Errorf("expected 403 for foreign delete, got %d", r.Code)
		}

		update := validBookingBody()
		update["title"] = "Retrospective"
		updated := ts.do(t, http.MethodPut, "/bookings/"+created.ID, owner, update)
		if updated.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", updated.Code, updated.Body.String())
		}

		if r := ts.do(t, http.MethodDelete, "/bookings/"+created.ID, owner, nil); r.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", r.Code)
		}
		// Idempotent: deleting again still succeeds.
		if r := ts.do(t, http.MethodDelete, "/bookings/"+created.ID, owner, nil); r.Code != http.StatusNoContent {
			t.Fatalf("expected 204 for repeat delete, got %d", r.Code)
		}
	})

	t.Run("list supports organizer filter and sort", func(t *testing.T) {
		ts := newTestServer(t)
		token := ts.login(t, "alice@example.com")

		seeds := []map[string]string{
			{"room_id": "room-1", "date": "2026-03-09", "start_time": "09:00", "end_time": "10:00", "title": "Standup", "organizer": "Alice Rossi"},
			{"room_id": "room-2", "date": "2026-03-09", "start_time": "11:00", "end_time": "12:00", "title": "Planning", "organizer": "Marco Bianchi"},
			{"room_id": "room-1", "date": "2026-03-10", "start_time": "09:00", "end_time": "10:00", "title": "Review", "organizer": "Alice Neri"},
		}
		for _, seed := range seeds {
			if recorder := ts.do(t, http.MethodPost, "/bookings", token, seed); recorder.Code != http.StatusCreated {
				t.Fatalf("seed booking returned %d: %s", recorder.Code, recorder.Body.String())
			}
		}

		recorder := ts.do(t, http.MethodGet, "/bookings?organizer=alice&sort=date_desc", token, nil)
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}
		var bookings []bookingDTO
		if err := json.Unmarshal(recorder.Body.Bytes(), &bookings); err != nil {
			t.Fatalf("decode bookings: %v", err)
		}
		if len(bookings) != 2 || bookings[0].Title != "Review" || bookings[1].Title != "Standup" {
			t.Errorf("unexpected filtered list %+v", bookings)
		}

		windowed := ts.do(t, http.MethodGet, "/bookings?from=2026-03-10&to=2026-03-10", token, nil)
		if windowed.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", windowed.Code)
		}
		bookings = nil
		if err := json.Unmarshal(windowed.Body.Bytes(), &bookings); err != nil {
			t.Fatalf("decode bookings: %v", err)
		}
		if len(bookings) != 1 || bookings[0].Title != "Review" {
			t.Errorf("unexpected windowed list %+v", bookings)
		}
	})

	t.Run("upcoming serves the dashboard feed", func(t *testing.T) {
		ts := newTestServer(t)
		token := ts.login(t, "alice@example.com")

		if recorder := ts.do(t, http.MethodPost, "/bookings", token, validBookingBody()); recorder.Code != http.StatusCreated {
			t.Fatalf("seed booking returned %d", recorder.Code)
		}

		recorder := ts.do(t, http.MethodGet, "/bookings/upcoming", token, nil)
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}
		var bookings []bookingDTO
		if err := json.Unmarshal(recorder.Body.Bytes(), &bookings); err != nil {
			t.Fatalf("decode bookings: %v", err)
		}
		if len(bookings) != 1 {
			t.Errorf("expected 1 upcoming booking, got %d", len(bookings))
		}
	})
}

func TestProfileHandlers(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, "alice@example.com")

	t.Run("new account yields an empty profile with email fallback", func(t *testing.T) {
		recorder := ts.do(t, http.MethodGet, "/profile", token, nil)
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}

		var profile profileDTO
		if err := json.Unmarshal(recorder.Body.Bytes(), &profile); err != nil {
			t.Fatalf("decode profile: %v", err)
		}
		if profile.DisplayName != "alice@example.com" {
			t.Errorf("expected email fallback, got %q", profile.DisplayName)
		}
	})

	t.Run("update round trips the display name", func(t *testing.T) {
		recorder := ts.do(t, http.MethodPut, "/profile", token, map[string]string{
			"first_name": "Alice",
			"last_name":  "Rossi",
		})
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
		}

		var profile profileDTO
		if err := json.Unmarshal(recorder.Body.Bytes(), &profile); err != nil {
			t.Fatalf("decode profile: %v", err)
		}
		if profile.DisplayName != "Alice Rossi" {
			t.Errorf("expected Alice Rossi, got %q", profile.DisplayName)
		}
	})

	t.Run("malformed avatar url returns field errors", func(t *testing.T) {
		recorder := ts.do(t, http.MethodPut, "/profile", token, map[string]string{
			"avatar_url": "not a url",
		})
		if recorder.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", recorder.Code)
		}
		if resp := decodeError(t, recorder); resp.Errors["avatar_url"] == "" {
			t.Errorf("expected avatar_url error, got %v", resp.Errors)
		}
	})
}
