package jobs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/event-dashboard/internal/application"
	"github.com/example/event-dashboard/internal/occupancy"
)

type occupancyReaderStub struct {
	rows []application.RoomOccupancy
	err  error
}

func (s *occupancyReaderStub) ListRoomOccupancy(ctx context.Context) ([]application.RoomOccupancy, error) {
	return s.rows, s.err
}

type alertWriterStub struct {
	active map[string][]application.Alert
	raised []application.AlertInput
}

func (s *alertWriterStub) ListActiveAlerts(ctx context.Context, roomID string) ([]application.Alert, error) {
	return s.active[roomID], nil
}

func (s *alertWriterStub) RaiseAlert(ctx context.Context, principal application.Principal, input application.AlertInput) (application.Alert, error) {
	s.raised = append(s.raised, input)
	return application.Alert{ID: "alert-new", RoomID: input.RoomID, Type: input.Type, Severity: input.Severity, IsActive: true}, nil
}

func occupancyRow(id, name string, capacity, current int, status occupancy.Status) application.RoomOccupancy {
	return application.RoomOccupancy{
		Room:             application.Room{ID: id, Name: name, Capacity: capacity},
		CurrentOccupancy: current,
		Status:           status,
	}
}

func TestOccupancyWatchRaisesAlertsByStatus(t *testing.T) {
	rooms := &occupancyReaderStub{rows: []application.RoomOccupancy{
		occupancyRow("room-critical", "Main Hall", 100, 95, occupancy.StatusCritical),
		occupancyRow("room-warning", "Workshop", 30, 24, occupancy.StatusWarning),
		occupancyRow("room-ok", "Lounge", 50, 10, occupancy.StatusNormal),
	}}
	alerts := &alertWriterStub{active: map[string][]application.Alert{}}
	watch := NewOccupancyWatch(rooms, alerts, nil)

	require.NoError(t, watch.Run(context.Background()))

	require.Len(t, alerts.raised, 2)
	assert.Equal(t, "room-critical", alerts.raised[0].RoomID)
	assert.Equal(t, application.SeverityHigh, alerts.raised[0].Severity)
	assert.Equal(t, "Main Hall is at 95 of 100 capacity", alerts.raised[0].Message)
	assert.Equal(t, "room-warning", alerts.raised[1].RoomID)
	assert.Equal(t, application.SeverityMedium, alerts.raised[1].Severity)
}

func TestOccupancyWatchSkipsRoomsWithActiveOvercrowdingAlert(t *testing.T) {
	rooms := &occupancyReaderStub{rows: []application.RoomOccupancy{
		occupancyRow("room-critical", "Main Hall", 100, 95, occupancy.StatusCritical),
	}}
	alerts := &alertWriterStub{active: map[string][]application.Alert{
		"room-critical": {{ID: "alert-1", RoomID: "room-critical", Type: application.AlertTypeOvercrowding, IsActive: true}},
	}}
	watch := NewOccupancyWatch(rooms, alerts, nil)

	require.NoError(t, watch.Run(context.Background()))
	assert.Empty(t, alerts.raised)
}

func TestOccupancyWatchIgnoresOtherAlertTypes(t *testing.T) {
	rooms := &occupancyReaderStub{rows: []application.RoomOccupancy{
		occupancyRow("room-critical", "Main Hall", 100, 95, occupancy.StatusCritical),
	}}
	alerts := &alertWriterStub{active: map[string][]application.Alert{
		"room-critical": {{ID: "alert-1", RoomID: "room-critical", Type: application.AlertTypeTechnical, IsActive: true}},
	}}
	watch := NewOccupancyWatch(rooms, alerts, nil)

	require.NoError(t, watch.Run(context.Background()))
	require.Len(t, alerts.raised, 1)
	assert.Equal(t, application.AlertTypeOvercrowding, alerts.raised[0].Type)
}
