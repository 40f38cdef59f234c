package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/event-dashboard/internal/persistence"
)

// badgePayload is the JSON document encoded in an attendee's QR badge.
type badgePayload struct {
	QRCode string `json:"qr_code"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Age    *int   `json:"age"`
	Gender string `json:"gender"`
}

// CheckinService resolves scanned QR payloads into attendee check-ins. A
// scan never hard-fails on bad payload data; unparseable badges degrade to a
// synthetic guest record so the door keeps moving.
type CheckinService struct {
	attendees   persistence.AttendeeRepository
	rooms       persistence.RoomRepository
	checkins    persistence.CheckinRepository
	notifier    Notifier
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewCheckinService constructs a check-in service with the provided dependencies.
func NewCheckinService(attendees persistence.AttendeeRepository, rooms persistence.RoomRepository, checkins persistence.CheckinRepository, notifier Notifier, idGenerator func() string, now func() time.Time) *CheckinService {
	return NewCheckinServiceWithLogger(attendees, rooms, checkins, notifier, idGenerator, now, nil)
}

// NewCheckinServiceWithLogger constructs a check-in service with a specified logger.
func NewCheckinServiceWithLogger(attendees persistence.AttendeeRepository, rooms persistence.RoomRepository, checkins persistence.CheckinRepository, notifier Notifier, idGenerator func() string, now func() time.Time, logger *slog.Logger) *CheckinService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &CheckinService{
		attendees:   attendees,
		rooms:       rooms,
		checkins:    checkins,
		notifier:    notifier,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *CheckinService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "CheckinService", operation, attrs...)
}

// parseBadge decodes the scanned payload. Unparseable or empty payloads
// yield a synthetic guest badge keyed by the raw payload text so repeated
// scans of the same bad badge resolve to the same attendee.
func parseBadge(raw string) badgePayload {
	trimmed := strings.TrimSpace(raw)

	var payload badgePayload
	if trimmed != "" && json.Unmarshal([]byte(trimmed), &payload) == nil {
		payload.QRCode = strings.TrimSpace(payload.QRCode)
		payload.Email = strings.TrimSpace(payload.Email)
		payload.Name = strings.TrimSpace(payload.Name)
		payload.Gender = strings.TrimSpace(payload.Gender)
		if payload.QRCode != "" || payload.Email != "" {
			return payload
		}
	}

	return badgePayload{
		QRCode: trimmed,
		Name:   "Guest",
	}
}

// Scan resolves a raw QR payload scanned at a room entrance.
//
// Existing attendees are moved to the scanned room and their scan count is
// incremented; the analytics room assignment is set only when previously
// empty, so the first room an attendee enters keeps their statistics for the
// whole event. Unknown badges create a new attendee on the spot. The
// attendee write and the attendance log append commit in one transaction.
func (s *CheckinService) Scan(ctx context.Context, params ScanParams) (result ScanResult, err error) {
	if s == nil {
		err = fmt.Errorf("CheckinService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Scan",
		"principal_id", params.Principal.UserID,
		"room_id", params.RoomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to process scan", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"attendee_id", result.Attendee.ID,
			"action", string(result.Action),
			"created", result.Created,
		).InfoContext(ctx, "scan processed")
	}()

	if s.attendees == nil || s.rooms == nil || s.checkins == nil {
		err = fmt.Errorf("checkin service not fully configured")
		return
	}

	if params.RoomID == "" {
		vErr := &ValidationError{}
		vErr.add("room_id", "room is required")
		err = vErr
		return
	}

	room, roomErr := s.rooms.GetRoom(ctx, params.RoomID)
	if roomErr != nil {
		if isNotFoundError(roomErr) {
			vErr := &ValidationError{}
			vErr.add("room_id", "room does not exist")
			err = vErr
			return
		}
		err = mapRepoError(roomErr)
		return
	}
	if room.IsArchived {
		err = ErrRoomArchived
		return
	}

	badge := parseBadge(params.RawPayload)
	if badge.QRCode == "" && badge.Email == "" {
		vErr := &ValidationError{}
		vErr.add("payload", "scan payload is empty")
		err = vErr
		return
	}

	scannedAt := s.now().UTC()
	roomID := params.RoomID

	record, findErr := s.attendees.FindAttendeeByBadge(ctx, badge.QRCode, badge.Email)
	created := false
	switch {
	case findErr == nil:
	case isNotFoundError(findErr):
		created = true
		name := badge.Name
		if name == "" {
			name = "Guest"
		}
		record = persistence.Attendee{
			ID:           s.idGenerator(),
			Name:         name,
			Email:        badge.Email,
			QRCode:       badge.QRCode,
			Age:          cloneIntPtr(badge.Age),
			Gender:       badge.Gender,
			RegisteredAt: scannedAt,
		}
	default:
		err = mapRepoError(findErr)
		return
	}

	action := ActionRoomChange
	if record.AnalyticsRoomID == nil {
		action = ActionCheckIn
		record.AnalyticsRoomID = &roomID
	}
	record.CurrentRoomID = &roomID
	record.IsCheckedIn = true
	record.ScanCount++
	record.UpdatedAt = scannedAt

	logEntry := persistence.AttendanceLogEntry{
		ID:         s.idGenerator(),
		AttendeeID: record.ID,
		RoomID:     roomID,
		Action:     string(action),
		CreatedAt:  scannedAt,
	}

	applied, applyErr := s.checkins.ApplyCheckin(ctx, record, created, logEntry)
	if applyErr != nil {
		err = mapRepoError(applyErr)
		return
	}

	result = ScanResult{
		Attendee: attendeeFromRecord(applied.Attendee),
		Created:  applied.Created,
		Action:   CheckinAction(applied.Action),
	}

	if result.Created {
		notify(s.notifier, "attendees", "created", result.Attendee.ID)
	} else {
		notify(s.notifier, "attendees", "updated", result.Attendee.ID)
	}
	notify(s.notifier, "attendance_log", "created", logEntry.ID)
	return
}
