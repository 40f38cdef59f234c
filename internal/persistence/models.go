package persistence

import "time"

// Room represents a venue room catalog entry.
type Room struct {
	ID         string
	Name       string
	Capacity   int
	IsArchived bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Attendee represents a registered event attendee.
//
// CurrentRoomID tracks where the attendee is right now; AnalyticsRoomID
// tracks which room their historical statistics count toward and survives
// check-out. Only archival clears it.
type Attendee struct {
	ID              string
	Name            string
	Email           string
	QRCode          string
	Age             *int
	Gender          string
	CurrentRoomID   *string
	AnalyticsRoomID *string
	IsCheckedIn     bool
	ScanCount       int
	RegisteredAt    time.Time
	UpdatedAt       time.Time
}

// Session represents a scheduled conference session in a room.
type Session struct {
	ID          string
	Title       string
	Description *string
	RoomID      string
	SpeakerID   *string
	Start       time.Time
	End         time.Time
	Tags        []string
	IsArchived  bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Speaker represents a session speaker profile.
type Speaker struct {
	ID        string
	Name      string
	PhotoURL  *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Alert represents a room-scoped operational alert.
type Alert struct {
	ID        string
	RoomID    string
	Type      string
	Severity  string
	Message   string
	IsActive  bool
	CreatedAt time.Time
}

// AttendanceLogEntry is an append-only record of a check-in action.
type AttendanceLogEntry struct {
	ID         string
	AttendeeID string
	RoomID     string
	Action     string
	CreatedAt  time.Time
}

// SavedRoom is a point-in-time archival snapshot of a room.
type SavedRoom struct {
	ID            string
	RoomID        string
	RoomName      string
	Capacity      int
	AttendeeCount int
	GenderCounts  map[string]int
	AgeBuckets    map[string]int
	Attendees     []SavedAttendee
	ArchivedAt    time.Time
}

// SavedAttendee is the per-attendee slice of a SavedRoom snapshot.
type SavedAttendee struct {
	AttendeeID string
	Name       string
	Age        *int
	Gender     string
	ScanCount  int
}

// Photo references a feed image stored in external object storage.
type Photo struct {
	ID         string
	AttendeeID *string
	RoomID     *string
	URL        string
	Caption    string
	CreatedAt  time.Time
}

// StaffUser represents a dashboard staff account with stored credentials.
type StaffUser struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	IsAdmin      bool
	Disabled     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AuthSession represents an issued staff session token.
type AuthSession struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}
