package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/event-dashboard/internal/occupancy"
	"github.com/example/event-dashboard/internal/persistence"
)

// RoomService orchestrates validation, authorization, and persistence for
// rooms, including the dashboard occupancy overview and archival snapshots.
type RoomService struct {
	rooms       persistence.RoomRepository
	attendees   persistence.AttendeeRepository
	archives    persistence.ArchiveRepository
	notifier    Notifier
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewRoomService constructs a room service with the provided dependencies.
func NewRoomService(rooms persistence.RoomRepository, attendees persistence.AttendeeRepository, archives persistence.ArchiveRepository, notifier Notifier, idGenerator func() string, now func() time.Time) *RoomService {
	return NewRoomServiceWithLogger(rooms, attendees, archives, notifier, idGenerator, now, nil)
}

// NewRoomServiceWithLogger constructs a room service with a specified logger.
func NewRoomServiceWithLogger(rooms persistence.RoomRepository, attendees persistence.AttendeeRepository, archives persistence.ArchiveRepository, notifier Notifier, idGenerator func() string, now func() time.Time, logger *slog.Logger) *RoomService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &RoomService{
		rooms:       rooms,
		attendees:   attendees,
		archives:    archives,
		notifier:    notifier,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *RoomService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RoomService", operation, attrs...)
}

func validateRoomInput(input RoomInput) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if input.Capacity <= 0 {
		vErr.add("capacity", "capacity must be a positive number")
	}
	return vErr
}

// CreateRoom validates input and persists a new room for administrators.
func (s *RoomService) CreateRoom(ctx context.Context, params CreateRoomParams) (room Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateRoom",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("room_id", room.ID).InfoContext(ctx, "room created")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	vErr := validateRoomInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if s.rooms == nil {
		err = fmt.Errorf("room repository not configured")
		return
	}

	room = Room{
		ID:        s.idGenerator(),
		Name:      strings.TrimSpace(params.Input.Name),
		Capacity:  params.Input.Capacity,
		CreatedAt: s.now().UTC(),
	}
	room.UpdatedAt = room.CreatedAt

	if err = s.rooms.CreateRoom(ctx, roomToRecord(room)); err != nil {
		err = mapRepoError(err)
		room = Room{}
		return
	}

	notify(s.notifier, "rooms", "created", room.ID)
	return
}

// UpdateRoom validates input and updates an existing room for administrators.
// Archived rooms reject further edits.
func (s *RoomService) UpdateRoom(ctx context.Context, params UpdateRoomParams) (room Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateRoom",
		"principal_id", params.Principal.UserID,
		"room_id", params.RoomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "room updated")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}
	if s.rooms == nil {
		err = fmt.Errorf("room repository not configured")
		return
	}

	vErr := validateRoomInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	record, getErr := s.rooms.GetRoom(ctx, params.RoomID)
	if getErr != nil {
		err = mapRepoError(getErr)
		return
	}
	if record.IsArchived {
		err = ErrRoomArchived
		return
	}

	room = roomFromRecord(record)
	room.Name = strings.TrimSpace(params.Input.Name)
	room.Capacity = params.Input.Capacity
	room.UpdatedAt = s.now().UTC()

	if err = s.rooms.UpdateRoom(ctx, roomToRecord(room)); err != nil {
		err = mapRepoError(err)
		room = Room{}
		return
	}

	notify(s.notifier, "rooms", "updated", room.ID)
	return
}

// GetRoom returns a single room by id.
func (s *RoomService) GetRoom(ctx context.Context, id string) (Room, error) {
	if s == nil || s.rooms == nil {
		return Room{}, fmt.Errorf("room repository not configured")
	}
	record, err := s.rooms.GetRoom(ctx, id)
	if err != nil {
		return Room{}, mapRepoError(err)
	}
	return roomFromRecord(record), nil
}

// ListRooms returns all non-archived rooms ordered by name.
func (s *RoomService) ListRooms(ctx context.Context) ([]Room, error) {
	if s == nil || s.rooms == nil {
		return nil, fmt.Errorf("room repository not configured")
	}
	records, err := s.rooms.ListRooms(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	rooms := make([]Room, 0, len(records))
	for _, record := range records {
		rooms = append(rooms, roomFromRecord(record))
	}
	return rooms, nil
}

// DeleteRoom removes a room for administrators. Sessions, alerts, and
// attendee references pointing at the room are detached by the repository.
func (s *RoomService) DeleteRoom(ctx context.Context, principal Principal, id string) (err error) {
	if s == nil {
		return fmt.Errorf("RoomService is nil")
	}

	logger := s.loggerWith(ctx, "DeleteRoom",
		"principal_id", principal.UserID,
		"room_id", id,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "room deleted")
	}()

	if !principal.IsAdmin {
		err = ErrUnauthorized
		return
	}
	if s.rooms == nil {
		err = fmt.Errorf("room repository not configured")
		return
	}

	if err = s.rooms.DeleteRoom(ctx, id); err != nil {
		err = mapRepoError(err)
		return
	}

	notify(s.notifier, "rooms", "deleted", id)
	return
}

// ListRoomOccupancy returns the live overview row for every non-archived
// room: the room itself, how many attendees are checked in, and the derived
// status bucket.
func (s *RoomService) ListRoomOccupancy(ctx context.Context) ([]RoomOccupancy, error) {
	if s == nil || s.rooms == nil || s.attendees == nil {
		return nil, fmt.Errorf("room service not fully configured")
	}

	records, err := s.rooms.ListRooms(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	attendeeRecords, err := s.attendees.ListAttendees(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}

	presences := make([]occupancy.Presence, 0, len(attendeeRecords))
	for _, attendee := range attendeeRecords {
		roomID := ""
		if attendee.CurrentRoomID != nil {
			roomID = *attendee.CurrentRoomID
		}
		presences = append(presences, occupancy.Presence{RoomID: roomID, CheckedIn: attendee.IsCheckedIn})
	}

	overview := make([]RoomOccupancy, 0, len(records))
	for _, record := range records {
		report := occupancy.ReportFor(record.ID, record.Capacity, presences)
		overview = append(overview, RoomOccupancy{
			Room:             roomFromRecord(record),
			CurrentOccupancy: report.CurrentOccupancy,
			Status:           report.Status,
		})
	}
	return overview, nil
}

// ArchiveRoom snapshots the room's analytics population and retires the room
// for administrators. The snapshot insert, room and session archival, alert
// deactivation, and attendee resets commit as one transaction in the
// repository.
func (s *RoomService) ArchiveRoom(ctx context.Context, principal Principal, roomID string) (snapshot SavedRoom, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ArchiveRoom",
		"principal_id", principal.UserID,
		"room_id", roomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to archive room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("saved_room_id", snapshot.ID, "attendee_count", snapshot.AttendeeCount).InfoContext(ctx, "room archived")
	}()

	if !principal.IsAdmin {
		err = ErrUnauthorized
		return
	}
	if s.rooms == nil || s.attendees == nil || s.archives == nil {
		err = fmt.Errorf("room service not fully configured")
		return
	}

	record, getErr := s.rooms.GetRoom(ctx, roomID)
	if getErr != nil {
		err = mapRepoError(getErr)
		return
	}
	if record.IsArchived {
		err = ErrRoomArchived
		return
	}

	attendeeRecords, listErr := s.attendees.ListAttendees(ctx)
	if listErr != nil {
		err = mapRepoError(listErr)
		return
	}

	snapshot = buildRoomSnapshot(s.idGenerator(), record, attendeeRecords, s.now().UTC())

	if err = s.archives.ArchiveRoom(ctx, savedRoomToRecord(snapshot)); err != nil {
		err = mapRepoError(err)
		snapshot = SavedRoom{}
		return
	}

	notify(s.notifier, "rooms", "archived", roomID)
	notify(s.notifier, "saved_rooms", "created", snapshot.ID)
	return
}

// buildRoomSnapshot aggregates the attendees counted toward the room's
// analytics into a SavedRoom. Each attendee falls into exactly one gender
// bucket and one age bucket, so both partitions sum to AttendeeCount.
func buildRoomSnapshot(id string, room persistence.Room, attendees []persistence.Attendee, archivedAt time.Time) SavedRoom {
	snapshot := SavedRoom{
		ID:           id,
		RoomID:       room.ID,
		RoomName:     room.Name,
		Capacity:     room.Capacity,
		GenderCounts: map[string]int{},
		AgeBuckets:   map[string]int{},
		ArchivedAt:   archivedAt,
	}

	for _, attendee := range attendees {
		if attendee.AnalyticsRoomID == nil || *attendee.AnalyticsRoomID != room.ID {
			continue
		}
		snapshot.AttendeeCount++
		snapshot.GenderCounts[genderBucket(attendee.Gender)]++
		snapshot.AgeBuckets[ageBucket(attendee.Age)]++
		snapshot.Attendees = append(snapshot.Attendees, SavedAttendee{
			AttendeeID: attendee.ID,
			Name:       attendee.Name,
			Age:        cloneIntPtr(attendee.Age),
			Gender:     attendee.Gender,
			ScanCount:  attendee.ScanCount,
		})
	}
	return snapshot
}

func savedRoomToRecord(snapshot SavedRoom) persistence.SavedRoom {
	attendees := make([]persistence.SavedAttendee, 0, len(snapshot.Attendees))
	for _, attendee := range snapshot.Attendees {
		attendees = append(attendees, persistence.SavedAttendee{
			AttendeeID: attendee.AttendeeID,
			Name:       attendee.Name,
			Age:        cloneIntPtr(attendee.Age),
			Gender:     attendee.Gender,
			ScanCount:  attendee.ScanCount,
		})
	}
	return persistence.SavedRoom{
		ID:            snapshot.ID,
		RoomID:        snapshot.RoomID,
		RoomName:      snapshot.RoomName,
		Capacity:      snapshot.Capacity,
		AttendeeCount: snapshot.AttendeeCount,
		GenderCounts:  copyCountMap(snapshot.GenderCounts),
		AgeBuckets:    copyCountMap(snapshot.AgeBuckets),
		Attendees:     attendees,
		ArchivedAt:    snapshot.ArchivedAt,
	}
}

// ListSavedRooms returns archival snapshots, newest first.
func (s *RoomService) ListSavedRooms(ctx context.Context) ([]SavedRoom, error) {
	if s == nil || s.archives == nil {
		return nil, fmt.Errorf("archive repository not configured")
	}
	records, err := s.archives.ListSavedRooms(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	snapshots := make([]SavedRoom, 0, len(records))
	for _, record := range records {
		snapshots = append(snapshots, savedRoomFromRecord(record))
	}
	return snapshots, nil
}

// GetSavedRoom returns a single archival snapshot by id.
func (s *RoomService) GetSavedRoom(ctx context.Context, id string) (SavedRoom, error) {
	if s == nil || s.archives == nil {
		return SavedRoom{}, fmt.Errorf("archive repository not configured")
	}
	record, err := s.archives.GetSavedRoom(ctx, id)
	if err != nil {
		return SavedRoom{}, mapRepoError(err)
	}
	return savedRoomFromRecord(record), nil
}
