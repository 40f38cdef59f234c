package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/event-dashboard/internal/persistence"
)

// AlertService orchestrates validation and persistence for room alerts.
type AlertService struct {
	alerts      persistence.AlertRepository
	rooms       persistence.RoomRepository
	notifier    Notifier
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewAlertService constructs an alert service with the provided dependencies.
func NewAlertService(alerts persistence.AlertRepository, rooms persistence.RoomRepository, notifier Notifier, idGenerator func() string, now func() time.Time) *AlertService {
	return NewAlertServiceWithLogger(alerts, rooms, notifier, idGenerator, now, nil)
}

// NewAlertServiceWithLogger constructs an alert service with a specified logger.
func NewAlertServiceWithLogger(alerts persistence.AlertRepository, rooms persistence.RoomRepository, notifier Notifier, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AlertService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AlertService{
		alerts:      alerts,
		rooms:       rooms,
		notifier:    notifier,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *AlertService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AlertService", operation, attrs...)
}

func validateAlertInput(input AlertInput) *ValidationError {
	vErr := &ValidationError{}
	if input.RoomID == "" {
		vErr.add("room_id", "room is required")
	}
	switch input.Type {
	case AlertTypeTechnical, AlertTypeOvercrowding:
	default:
		vErr.add("type", "type must be technical or overcrowding")
	}
	switch input.Severity {
	case SeverityMedium, SeverityHigh:
	default:
		vErr.add("severity", "severity must be medium or high")
	}
	if strings.TrimSpace(input.Message) == "" {
		vErr.add("message", "message is required")
	}
	return vErr
}

// RaiseAlert validates input and records a new active alert for a room.
func (s *AlertService) RaiseAlert(ctx context.Context, principal Principal, input AlertInput) (alert Alert, err error) {
	if s == nil {
		err = fmt.Errorf("AlertService is nil")
		return
	}

	logger := s.loggerWith(ctx, "RaiseAlert",
		"principal_id", principal.UserID,
		"room_id", input.RoomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to raise alert", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("alert_id", alert.ID, "severity", string(alert.Severity)).InfoContext(ctx, "alert raised")
	}()

	if s.alerts == nil {
		err = fmt.Errorf("alert repository not configured")
		return
	}

	vErr := validateAlertInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if s.rooms != nil {
		room, roomErr := s.rooms.GetRoom(ctx, input.RoomID)
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
	}

	alert = Alert{
		ID:        s.idGenerator(),
		RoomID:    input.RoomID,
		Type:      input.Type,
		Severity:  input.Severity,
		Message:   strings.TrimSpace(input.Message),
		IsActive:  true,
		CreatedAt: s.now().UTC(),
	}

	if err = s.alerts.CreateAlert(ctx, alertToRecord(alert)); err != nil {
		err = mapRepoError(err)
		alert = Alert{}
		return
	}

	notify(s.notifier, "alerts", "created", alert.ID)
	return
}

// DeactivateAlert marks an alert as resolved.
func (s *AlertService) DeactivateAlert(ctx context.Context, principal Principal, id string) (err error) {
	if s == nil {
		return fmt.Errorf("AlertService is nil")
	}

	logger := s.loggerWith(ctx, "DeactivateAlert",
		"principal_id", principal.UserID,
		"alert_id", id,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to deactivate alert", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "alert deactivated")
	}()

	if s.alerts == nil {
		err = fmt.Errorf("alert repository not configured")
		return
	}

	if err = s.alerts.DeactivateAlert(ctx, id); err != nil {
		err = mapRepoError(err)
		return
	}

	notify(s.notifier, "alerts", "updated", id)
	return
}

// ListActiveAlerts returns active alerts, newest first. An empty roomID
// lists across all rooms.
func (s *AlertService) ListActiveAlerts(ctx context.Context, roomID string) ([]Alert, error) {
	if s == nil || s.alerts == nil {
		return nil, fmt.Errorf("alert repository not configured")
	}
	records, err := s.alerts.ListActiveAlerts(ctx, roomID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	alerts := make([]Alert, 0, len(records))
	for _, record := range records {
		alerts = append(alerts, alertFromRecord(record))
	}
	return alerts, nil
}

func alertToRecord(alert Alert) persistence.Alert {
	return persistence.Alert{
		ID:        alert.ID,
		RoomID:    alert.RoomID,
		Type:      string(alert.Type),
		Severity:  string(alert.Severity),
		Message:   alert.Message,
		IsActive:  alert.IsActive,
		CreatedAt: alert.CreatedAt,
	}
}
