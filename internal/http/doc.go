// Package http provides the HTTP handlers and middleware for the room
// booking API.
//
// The router exposes the following endpoints:
//   - POST /login: issues a session token. Body: {"email","password"}.
//     Response: {"token","expires_at","user"} with the token also surfaced via
//     the `X-Session-Token` header and a `session_token` cookie.
//   - POST /logout: revokes the session token extracted from the Authorization
//     header or session cookie. Returns 204 No Content and clears the cookie.
//   - GET /rooms, GET /rooms/{id}: the read-only room catalog exchanging the
//     `roomDTO` payload defined in room_handler.go.
//   - GET /rooms/{id}/bookings: the room's reservations, start ascending.
//   - GET /rooms/{id}/calendar: the room's reservations as an iCalendar feed.
//   - GET /bookings?organizer=&from=&to=&sort=: the caller's reservations
//     narrowed by organizer substring and date window. `sort` is one of
//     date_asc (default), date_desc, or title.
//   - GET /bookings/upcoming: reservations that have not yet ended.
//   - POST /bookings, GET /bookings/{id}, PUT /bookings/{id},
//     DELETE /bookings/{id}: reservation management exchanging the
//     `bookingDTO` payload defined in booking_handler.go. Edits and deletes
//     are restricted to the reservation owner.
//   - GET /profile, PUT /profile: the caller's display attributes.
//
// All routes except /login require a session token. Request/response DTOs
// live alongside their respective handlers so tests and documentation share
// the same ground truth.
package http
