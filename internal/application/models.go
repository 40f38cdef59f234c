package application

import (
	"time"

	"github.com/example/event-dashboard/internal/occupancy"
)

// Principal represents the authenticated staff member invoking a service method.
type Principal struct {
	UserID  string
	IsAdmin bool
}

// RoomInput captures caller provided room fields.
type RoomInput struct {
	Name     string
	Capacity int
}

// Room represents a venue room exposed by the application services.
type Room struct {
	ID         string
	Name       string
	Capacity   int
	IsArchived bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// RoomOccupancy joins a room with its derived occupancy figures.
type RoomOccupancy struct {
	Room             Room
	CurrentOccupancy int
	Status           occupancy.Status
}

// CreateRoomParams wraps the data required to create a room.
type CreateRoomParams struct {
	Principal Principal
	Input     RoomInput
}

// UpdateRoomParams wraps the data required to update a room.
type UpdateRoomParams struct {
	Principal Principal
	RoomID    string
	Input     RoomInput
}

// SessionInput captures caller provided session fields.
type SessionInput struct {
	Title       string
	Description string
	RoomID      string
	SpeakerID   *string
	Start       time.Time
	End         time.Time
	Tags        []string
}

// Session represents a scheduled conference session.
type Session struct {
	ID          string
	Title       string
	Description string
	RoomID      string
	SpeakerID   *string
	Start       time.Time
	End         time.Time
	Tags        []string
	IsArchived  bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateSessionParams wraps the data required to create a session.
type CreateSessionParams struct {
	Principal Principal
	Input     SessionInput
}

// UpdateSessionParams wraps the data required to update an existing session.
type UpdateSessionParams struct {
	Principal Principal
	SessionID string
	Input     SessionInput
}

// AttendeeInput captures caller provided attendee fields.
type AttendeeInput struct {
	Name   string
	Email  string
	QRCode string
	Age    *int
	Gender string
}

// Attendee represents a registered event attendee.
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

// SpeakerInput captures caller provided speaker fields.
type SpeakerInput struct {
	Name     string
	PhotoURL *string
}

// Speaker represents a session speaker profile.
type Speaker struct {
	ID        string
	Name      string
	PhotoURL  *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AlertType identifies the category of a room alert.
type AlertType string

const (
	// AlertTypeTechnical flags equipment or facility problems in a room.
	AlertTypeTechnical AlertType = "technical"
	// AlertTypeOvercrowding flags occupancy above safe thresholds.
	AlertTypeOvercrowding AlertType = "overcrowding"
)

// AlertSeverity grades how urgent an alert is.
type AlertSeverity string

const (
	// SeverityMedium marks an alert staff should look at soon.
	SeverityMedium AlertSeverity = "medium"
	// SeverityHigh marks an alert that needs immediate attention.
	SeverityHigh AlertSeverity = "high"
)

// AlertInput captures caller provided alert fields.
type AlertInput struct {
	RoomID   string
	Type     AlertType
	Severity AlertSeverity
	Message  string
}

// Alert represents a room-scoped operational alert.
type Alert struct {
	ID        string
	RoomID    string
	Type      AlertType
	Severity  AlertSeverity
	Message   string
	IsActive  bool
	CreatedAt time.Time
}

// CheckinAction identifies which attendance log action a scan produced.
type CheckinAction string

const (
	// ActionCheckIn marks an attendee's first room assignment.
	ActionCheckIn CheckinAction = "check_in"
	// ActionRoomChange marks a move by an attendee already counted elsewhere.
	ActionRoomChange CheckinAction = "room_change"
)

// ScanParams wraps a raw QR payload scanned at a room entrance.
type ScanParams struct {
	Principal  Principal
	RoomID     string
	RawPayload string
}

// ScanResult captures the outcome of a QR check-in.
type ScanResult struct {
	Attendee Attendee
	Created  bool
	Action   CheckinAction
}

// AttendanceLogEntry is an append-only record of a check-in action.
type AttendanceLogEntry struct {
	ID         string
	AttendeeID string
	RoomID     string
	Action     CheckinAction
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

// PhotoInput captures caller provided photo feed fields.
type PhotoInput struct {
	AttendeeID *string
	RoomID     *string
	URL        string
	Caption    string
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

// EventOverview aggregates the dashboard's top-line analytics.
type EventOverview struct {
	TotalAttendees int
	CheckedIn      int
	TotalRooms     int
	TotalSessions  int
	Rooms          []RoomOccupancy
	GenderCounts   map[string]int
	AgeBuckets     map[string]int
	GeneratedAt    time.Time
}

// StaffUser represents a dashboard staff account.
type StaffUser struct {
	ID          string
	Email       string
	DisplayName string
	IsAdmin     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
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

// AuthenticateParams captures the data required to authenticate a staff member.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult captures the outcome of a successful authentication attempt.
type AuthenticateResult struct {
	User    StaffUser
	Session AuthSession
}
