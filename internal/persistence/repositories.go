package persistence

import (
	"context"
	"time"
)

// RoomRepository exposes CRUD operations for rooms.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	UpdateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	// ListRooms returns non-archived rooms ordered by name then ID.
	ListRooms(ctx context.Context) ([]Room, error)
	DeleteRoom(ctx context.Context, id string) error
}

// AttendeeRepository exposes CRUD and check-in lookups for attendees.
type AttendeeRepository interface {
	CreateAttendee(ctx context.Context, attendee Attendee) error
	UpdateAttendee(ctx context.Context, attendee Attendee) error
	GetAttendee(ctx context.Context, id string) (Attendee, error)
	// FindAttendeeByBadge resolves an attendee by QR code, falling back to
	// email. Returns ErrNotFound when neither matches.
	FindAttendeeByBadge(ctx context.Context, qrCode, email string) (Attendee, error)
	// ListAttendees returns attendees ordered by registration time then ID.
	ListAttendees(ctx context.Context) ([]Attendee, error)
	DeleteAttendee(ctx context.Context, id string) error
}

// SessionFilter narrows session queries. StartsBefore and EndsAfter bound
// the fetch to sessions touching a half-open window: a session overlaps
// [from, to) exactly when it starts before to and ends after from.
type SessionFilter struct {
	RoomID          string
	IncludeArchived bool
	StartsBefore    *time.Time
	EndsAfter       *time.Time
}

// SessionRepository stores conference sessions and their tags.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) error
	UpdateSession(ctx context.Context, session Session) error
	GetSession(ctx context.Context, id string) (Session, error)
	// ListSessions returns sessions ordered by start time then ID.
	ListSessions(ctx context.Context, filter SessionFilter) ([]Session, error)
	DeleteSession(ctx context.Context, id string) error
}

// SpeakerRepository exposes CRUD operations for speakers.
type SpeakerRepository interface {
	CreateSpeaker(ctx context.Context, speaker Speaker) error
	UpdateSpeaker(ctx context.Context, speaker Speaker) error
	GetSpeaker(ctx context.Context, id string) (Speaker, error)
	// ListSpeakers returns speakers ordered by name then ID.
	ListSpeakers(ctx context.Context) ([]Speaker, error)
	DeleteSpeaker(ctx context.Context, id string) error
}

// AlertRepository stores room alerts.
type AlertRepository interface {
	CreateAlert(ctx context.Context, alert Alert) error
	GetAlert(ctx context.Context, id string) (Alert, error)
	// ListActiveAlerts returns active alerts ordered by creation time
	// descending. An empty roomID lists across all rooms.
	ListActiveAlerts(ctx context.Context, roomID string) ([]Alert, error)
	DeactivateAlert(ctx context.Context, id string) error
}

// CheckinResult describes the outcome of a transactional check-in.
type CheckinResult struct {
	Attendee Attendee
	Created  bool
	Action   string
}

// CheckinRepository applies the QR check-in resolution atomically: the
// attendee upsert and the attendance log append commit or roll back together.
type CheckinRepository interface {
	ApplyCheckin(ctx context.Context, attendee Attendee, created bool, logEntry AttendanceLogEntry) (CheckinResult, error)
	// ListAttendanceLog returns entries ordered by creation time descending.
	ListAttendanceLog(ctx context.Context, attendeeID string) ([]AttendanceLogEntry, error)
}

// ArchiveRepository captures room archival and snapshot access.
type ArchiveRepository interface {
	// ArchiveRoom atomically stores the snapshot, marks the room and its
	// sessions archived, deactivates the room's active alerts, and resets
	// the affected attendees (checked out, room references cleared).
	ArchiveRoom(ctx context.Context, snapshot SavedRoom) error
	GetSavedRoom(ctx context.Context, id string) (SavedRoom, error)
	// ListSavedRooms returns snapshots ordered by archival time descending.
	ListSavedRooms(ctx context.Context) ([]SavedRoom, error)
}

// PhotoRepository stores photo feed records.
type PhotoRepository interface {
	CreatePhoto(ctx context.Context, photo Photo) error
	GetPhoto(ctx context.Context, id string) (Photo, error)
	// ListPhotos returns photos ordered by creation time descending.
	ListPhotos(ctx context.Context) ([]Photo, error)
	DeletePhoto(ctx context.Context, id string) error
}

// StaffRepository stores staff accounts.
type StaffRepository interface {
	CreateStaffUser(ctx context.Context, user StaffUser) error
	GetStaffUser(ctx context.Context, id string) (StaffUser, error)
	GetStaffUserByEmail(ctx context.Context, email string) (StaffUser, error)
	ListStaffUsers(ctx context.Context) ([]StaffUser, error)
}

// AuthSessionRepository stores issued staff session tokens.
type AuthSessionRepository interface {
	CreateAuthSession(ctx context.Context, session AuthSession) (AuthSession, error)
	GetAuthSession(ctx context.Context, token string) (AuthSession, error)
	RevokeAuthSession(ctx context.Context, token string, revokedAt time.Time) (AuthSession, error)
	DeleteExpiredAuthSessions(ctx context.Context, reference time.Time) error
}
