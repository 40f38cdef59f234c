package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/event-dashboard/internal/application"
	"github.com/example/event-dashboard/internal/occupancy"
)

// occupancyReader is the slice of RoomService the watcher needs.
type occupancyReader interface {
	ListRoomOccupancy(ctx context.Context) ([]application.RoomOccupancy, error)
}

// alertWriter is the slice of AlertService the watcher needs.
type alertWriter interface {
	ListActiveAlerts(ctx context.Context, roomID string) ([]application.Alert, error)
	RaiseAlert(ctx context.Context, principal application.Principal, input application.AlertInput) (application.Alert, error)
}

// OccupancyWatch sweeps room occupancy and raises an overcrowding alert for
// every room above its warning threshold that does not already carry an
// active overcrowding alert. Critical rooms get a high severity alert,
// warning rooms a medium one.
type OccupancyWatch struct {
	rooms  occupancyReader
	alerts alertWriter
	logger *slog.Logger
}

// watchPrincipal attributes auto-raised alerts to the system itself.
var watchPrincipal = application.Principal{UserID: "system:occupancy-watch", IsAdmin: true}

// NewOccupancyWatch constructs the watcher.
func NewOccupancyWatch(rooms occupancyReader, alerts alertWriter, logger *slog.Logger) *OccupancyWatch {
	if logger == nil {
		logger = slog.Default()
	}
	return &OccupancyWatch{rooms: rooms, alerts: alerts, logger: logger}
}

// Run performs one sweep.
func (w *OccupancyWatch) Run(ctx context.Context) error {
	if w == nil || w.rooms == nil || w.alerts == nil {
		return fmt.Errorf("occupancy watch not fully configured")
	}

	overview, err := w.rooms.ListRoomOccupancy(ctx)
	if err != nil {
		return fmt.Errorf("list room occupancy: %w", err)
	}

	for _, row := range overview {
		severity, crowded := severityFor(row.Status)
		if !crowded {
			continue
		}

		active, listErr := w.alerts.ListActiveAlerts(ctx, row.Room.ID)
		if listErr != nil {
			return fmt.Errorf("list alerts for room %s: %w", row.Room.ID, listErr)
		}
		if hasActiveOvercrowding(active) {
			continue
		}

		message := fmt.Sprintf("%s is at %d of %d capacity", row.Room.Name, row.CurrentOccupancy, row.Room.Capacity)
		alert, raiseErr := w.alerts.RaiseAlert(ctx, watchPrincipal, application.AlertInput{
			RoomID:   row.Room.ID,
			Type:     application.AlertTypeOvercrowding,
			Severity: severity,
			Message:  message,
		})
		if raiseErr != nil {
			return fmt.Errorf("raise alert for room %s: %w", row.Room.ID, raiseErr)
		}

		w.logger.Info("overcrowding alert raised",
			"room_id", row.Room.ID,
			"alert_id", alert.ID,
			"severity", string(severity),
			"occupancy", row.CurrentOccupancy,
			"capacity", row.Room.Capacity,
		)
	}
	return nil
}

func severityFor(status occupancy.Status) (application.AlertSeverity, bool) {
	switch status {
	case occupancy.StatusCritical:
		return application.SeverityHigh, true
	case occupancy.StatusWarning:
		return application.SeverityMedium, true
	default:
		return "", false
	}
}

func hasActiveOvercrowding(alerts []application.Alert) bool {
	for _, alert := range alerts {
		if alert.Type == application.AlertTypeOvercrowding && alert.IsActive {
			return true
		}
	}
	return false
}
