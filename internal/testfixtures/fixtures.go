package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/event-dashboard/internal/persistence"
)

var (
	roomCounter     uint64
	attendeeCounter uint64
	sessionCounter  uint64
)

var referenceTime = time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// RoomOption configures a generated room fixture.
type RoomOption func(*persistence.Room)

// NewRoomFixture returns a deterministic room record with optional overrides.
func NewRoomFixture(opts ...RoomOption) persistence.Room {
	idx := atomic.AddUint64(&roomCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	room := persistence.Room{
		ID:        fmt.Sprintf("room-%03d", idx),
		Name:      fmt.Sprintf("Room %03d", idx),
		Capacity:  50,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&room)
	}
	return room
}

// WithRoomID overrides the generated room ID.
func WithRoomID(id string) RoomOption {
	return func(r *persistence.Room) { r.ID = id }
}

// WithRoomCapacity overrides the generated capacity.
func WithRoomCapacity(capacity int) RoomOption {
	return func(r *persistence.Room) { r.Capacity = capacity }
}

// WithRoomArchived marks the room archived.
func WithRoomArchived() RoomOption {
	return func(r *persistence.Room) { r.IsArchived = true }
}

// AttendeeOption configures a generated attendee fixture.
type AttendeeOption func(*persistence.Attendee)

// NewAttendeeFixture returns a deterministic attendee record with optional
// overrides. Attendees start checked out with no room assignment.
func NewAttendeeFixture(opts ...AttendeeOption) persistence.Attendee {
	idx := atomic.AddUint64(&attendeeCounter, 1)
	registered := referenceTime.Add(time.Duration(idx) * time.Minute)
	attendee := persistence.Attendee{
		ID:           fmt.Sprintf("attendee-%03d", idx),
		Name:         fmt.Sprintf("Attendee %03d", idx),
		Email:        fmt.Sprintf("attendee-%03d@example.com", idx),
		QRCode:       fmt.Sprintf("qr-%03d", idx),
		RegisteredAt: registered,
		UpdatedAt:    registered,
	}
	for _, opt := range opts {
		opt(&attendee)
	}
	return attendee
}

// WithAttendeeID overrides the generated attendee ID.
func WithAttendeeID(id string) AttendeeOption {
	return func(a *persistence.Attendee) { a.ID = id }
}

// CheckedInto places the attendee in the given room, counting toward its
// analytics.
func CheckedInto(roomID string) AttendeeOption {
	return func(a *persistence.Attendee) {
		room := roomID
		a.CurrentRoomID = &room
		a.AnalyticsRoomID = &room
		a.IsCheckedIn = true
		if a.ScanCount == 0 {
			a.ScanCount = 1
		}
	}
}

// WithDemographics sets the attendee's age and gender.
func WithDemographics(age int, gender string) AttendeeOption {
	return func(a *persistence.Attendee) {
		value := age
		a.Age = &value
		a.Gender = gender
	}
}

// SessionOption configures a generated session fixture.
type SessionOption func(*persistence.Session)

// NewSessionFixture returns a deterministic session record with optional
// overrides. Sessions are one hour long, scheduled back to back from the
// reference time.
func NewSessionFixture(roomID string, opts ...SessionOption) persistence.Session {
	idx := atomic.AddUint64(&sessionCounter, 1)
	start := referenceTime.Add(time.Duration(idx) * time.Hour)
	session := persistence.Session{
		ID:        fmt.Sprintf("session-%03d", idx),
		Title:     fmt.Sprintf("Session %03d", idx),
		RoomID:    roomID,
		Start:     start,
		End:       start.Add(time.Hour),
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&session)
	}
	return session
}

// WithSessionWindow overrides the session's start and end times.
func WithSessionWindow(start, end time.Time) SessionOption {
	return func(s *persistence.Session) {
		s.Start = start
		s.End = end
	}
}

// WithSessionID overrides the generated session ID.
func WithSessionID(id string) SessionOption {
	return func(s *persistence.Session) { s.ID = id }
}
