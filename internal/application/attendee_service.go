package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/event-dashboard/internal/persistence"
)

// AttendeeService orchestrates validation and persistence for registered
// attendees, including the staff-initiated check-out flow.
type AttendeeService struct {
	attendees   persistence.AttendeeRepository
	checkins    persistence.CheckinRepository
	notifier    Notifier
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewAttendeeService constructs an attendee service with the provided dependencies.
func NewAttendeeService(attendees persistence.AttendeeRepository, checkins persistence.CheckinRepository, notifier Notifier, idGenerator func() string, now func() time.Time) *AttendeeService {
	return NewAttendeeServiceWithLogger(attendees, checkins, notifier, idGenerator, now, nil)
}

// NewAttendeeServiceWithLogger constructs an attendee service with a specified logger.
func NewAttendeeServiceWithLogger(attendees persistence.AttendeeRepository, checkins persistence.CheckinRepository, notifier Notifier, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AttendeeService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AttendeeService{
		attendees:   attendees,
		checkins:    checkins,
		notifier:    notifier,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *AttendeeService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AttendeeService", operation, attrs...)
}

func validateAttendeeInput(input AttendeeInput) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if email := strings.TrimSpace(input.Email); email != "" && !strings.Contains(email, "@") {
		vErr.add("email", "email must be a valid address")
	}
	if input.Age != nil && *input.Age < 0 {
		vErr.add("age", "age must not be negative")
	}
	return vErr
}

// RegisterAttendee validates input and persists a new attendee record. New
// registrations start checked out with no room assignment.
func (s *AttendeeService) RegisterAttendee(ctx context.Context, principal Principal, input AttendeeInput) (attendee Attendee, err error) {
	if s == nil {
		err = fmt.Errorf("AttendeeService is nil")
		return
	}

	logger := s.loggerWith(ctx, "RegisterAttendee",
		"principal_id", principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to register attendee", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("attendee_id", attendee.ID).InfoContext(ctx, "attendee registered")
	}()

	if s.attendees == nil {
		err = fmt.Errorf("attendee repository not configured")
		return
	}

	vErr := validateAttendeeInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	attendee = Attendee{
		ID:           s.idGenerator(),
		Name:         strings.TrimSpace(input.Name),
		Email:        strings.TrimSpace(input.Email),
		QRCode:       strings.TrimSpace(input.QRCode),
		Age:          cloneIntPtr(input.Age),
		Gender:       strings.TrimSpace(input.Gender),
		RegisteredAt: s.now().UTC(),
	}
	attendee.UpdatedAt = attendee.RegisteredAt

	if err = s.attendees.CreateAttendee(ctx, attendeeToRecord(attendee)); err != nil {
		err = mapRepoError(err)
		attendee = Attendee{}
		return
	}

	notify(s.notifier, "attendees", "created", attendee.ID)
	return
}

// UpdateAttendee validates input and updates an attendee's registration
// fields. Check-in state and room assignments are owned by the check-in and
// archival flows and are left untouched here.
func (s *AttendeeService) UpdateAttendee(ctx context.Context, principal Principal, id string, input AttendeeInput) (attendee Attendee, err error) {
	if s == nil {
		err = fmt.Errorf("AttendeeService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateAttendee",
		"principal_id", principal.UserID,
		"attendee_id", id,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update attendee", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "attendee updated")
	}()

	if s.attendees == nil {
		err = fmt.Errorf("attendee repository not configured")
		return
	}

	vErr := validateAttendeeInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	record, getErr := s.attendees.GetAttendee(ctx, id)
	if getErr != nil {
		err = mapRepoError(getErr)
		return
	}

	attendee = attendeeFromRecord(record)
	attendee.Name = strings.TrimSpace(input.Name)
	attendee.Email = strings.TrimSpace(input.Email)
	attendee.QRCode = strings.TrimSpace(input.QRCode)
	attendee.Age = cloneIntPtr(input.Age)
	attendee.Gender = strings.TrimSpace(input.Gender)
	attendee.UpdatedAt = s.now().UTC()

	if err = s.attendees.UpdateAttendee(ctx, attendeeToRecord(attendee)); err != nil {
		err = mapRepoError(err)
		attendee = Attendee{}
		return
	}

	notify(s.notifier, "attendees", "updated", attendee.ID)
	return
}

// Checkout marks an attendee as having left the venue. The checked-in flag
// and current room are cleared; the analytics room assignment survives so
// historical statistics keep counting the attendee toward the room where
// they first checked in.
func (s *AttendeeService) Checkout(ctx context.Context, principal Principal, id string) (attendee Attendee, err error) {
	if s == nil {
		err = fmt.Errorf("AttendeeService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Checkout",
		"principal_id", principal.UserID,
		"attendee_id", id,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to check out attendee", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "attendee checked out")
	}()

	if s.attendees == nil {
		err = fmt.Errorf("attendee repository not configured")
		return
	}

	record, getErr := s.attendees.GetAttendee(ctx, id)
	if getErr != nil {
		err = mapRepoError(getErr)
		return
	}

	attendee = attendeeFromRecord(record)
	attendee.IsCheckedIn = false
	attendee.CurrentRoomID = nil
	attendee.UpdatedAt = s.now().UTC()

	if err = s.attendees.UpdateAttendee(ctx, attendeeToRecord(attendee)); err != nil {
		err = mapRepoError(err)
		attendee = Attendee{}
		return
	}

	notify(s.notifier, "attendees", "updated", attendee.ID)
	return
}

// GetAttendee returns a single attendee by id.
func (s *AttendeeService) GetAttendee(ctx context.Context, id string) (Attendee, error) {
	if s == nil || s.attendees == nil {
		return Attendee{}, fmt.Errorf("attendee repository not configured")
	}
	record, err := s.attendees.GetAttendee(ctx, id)
	if err != nil {
		return Attendee{}, mapRepoError(err)
	}
	return attendeeFromRecord(record), nil
}

// ListAttendees returns all attendees ordered by registration time.
func (s *AttendeeService) ListAttendees(ctx context.Context) ([]Attendee, error) {
	if s == nil || s.attendees == nil {
		return nil, fmt.Errorf("attendee repository not configured")
	}
	records, err := s.attendees.ListAttendees(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	attendees := make([]Attendee, 0, len(records))
	for _, record := range records {
		attendees = append(attendees, attendeeFromRecord(record))
	}
	return attendees, nil
}

// DeleteAttendee removes an attendee and their attendance history.
func (s *AttendeeService) DeleteAttendee(ctx context.Context, principal Principal, id string) (err error) {
	if s == nil {
		return fmt.Errorf("AttendeeService is nil")
	}

	logger := s.loggerWith(ctx, "DeleteAttendee",
		"principal_id", principal.UserID,
		"attendee_id", id,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete attendee", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "attendee deleted")
	}()

	if s.attendees == nil {
		err = fmt.Errorf("attendee repository not configured")
		return
	}

	if err = s.attendees.DeleteAttendee(ctx, id); err != nil {
		err = mapRepoError(err)
		return
	}

	notify(s.notifier, "attendees", "deleted", id)
	return
}

// AttendanceLog returns an attendee's check-in history, newest first.
func (s *AttendeeService) AttendanceLog(ctx context.Context, attendeeID string) ([]AttendanceLogEntry, error) {
	if s == nil || s.checkins == nil {
		return nil, fmt.Errorf("checkin repository not configured")
	}
	records, err := s.checkins.ListAttendanceLog(ctx, attendeeID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	entries := make([]AttendanceLogEntry, 0, len(records))
	for _, record := range records {
		entries = append(entries, logEntryFromRecord(record))
	}
	return entries, nil
}
