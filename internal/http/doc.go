// Package http provides HTTP handlers and middleware for the dashboard API.
//
// The router exposes the following endpoints:
//   - POST /login: issues a session token. Body: {"email","password"}. The
//     token is returned in the body and mirrored via the `X-Session-Token`
//     header and a `session_token` cookie.
//   - POST /logout: revokes the current session token and clears the cookie.
//   - GET /rooms, POST /rooms, PUT /rooms/{id}, DELETE /rooms/{id}: room
//     catalog endpoints. Mutations require admin privileges.
//   - POST /rooms/{id}/archive: snapshots and retires a room (admin only).
//   - GET /rooms/{id}/sessions: the room's schedule; `?relation=current` or
//     `?relation=next` narrows to the in-progress or upcoming session.
//   - GET /rooms/overview: per-room occupancy with status buckets.
//   - GET /sessions, POST /sessions, PUT /sessions/{id}, DELETE
//     /sessions/{id}: schedule management. Overlapping bookings in a room
//     are rejected with 409 and the conflicting session's identity.
//   - GET /attendees, POST /attendees, PUT /attendees/{id}, DELETE
//     /attendees/{id}: attendee registration records.
//   - POST /attendees/{id}/checkout: clears the attendee's live presence.
//   - GET /attendees/{id}/log: the attendee's attendance history.
//   - POST /checkins: resolves a scanned QR payload into a check-in.
//   - GET /speakers, POST /speakers, PUT /speakers/{id}, DELETE
//     /speakers/{id}: speaker profiles. Mutations require admin privileges.
//   - GET /alerts, POST /alerts, POST /alerts/{id}/deactivate: room alerts.
//   - GET /photos, POST /photos, DELETE /photos/{id}: the photo feed.
//   - GET /analytics/overview: event-wide totals and demographics.
//   - GET /archives, GET /archives/{id}: saved room snapshots.
//   - GET /events: server-sent change events, one per committed mutation.
//
// All routes except /login and /events require a session token. Request and
// response DTOs live alongside their handlers.
package http
