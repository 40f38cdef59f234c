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

// AnalyticsService computes the dashboard's aggregate views and manages the
// photo feed records that back the analytics surface.
type AnalyticsService struct {
	rooms       persistence.RoomRepository
	attendees   persistence.AttendeeRepository
	sessions    persistence.SessionRepository
	photos      persistence.PhotoRepository
	notifier    Notifier
	idGenerator func() string
	now         func() time.Time
	cache       *overviewCache
	logger      *slog.Logger
}

// NewAnalyticsService constructs an analytics service with the provided dependencies.
func NewAnalyticsService(rooms persistence.RoomRepository, attendees persistence.AttendeeRepository, sessions persistence.SessionRepository, photos persistence.PhotoRepository, notifier Notifier, idGenerator func() string, now func() time.Time) *AnalyticsService {
	return NewAnalyticsServiceWithLogger(rooms, attendees, sessions, photos, notifier, idGenerator, now, nil)
}

// NewAnalyticsServiceWithLogger constructs an analytics service with a specified logger.
func NewAnalyticsServiceWithLogger(rooms persistence.RoomRepository, attendees persistence.AttendeeRepository, sessions persistence.SessionRepository, photos persistence.PhotoRepository, notifier Notifier, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AnalyticsService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AnalyticsService{
		rooms:       rooms,
		attendees:   attendees,
		sessions:    sessions,
		photos:      photos,
		notifier:    notifier,
		idGenerator: idGenerator,
		now:         now,
		cache:       newOverviewCache(5*time.Second, now),
		logger:      defaultLogger(logger),
	}
}

func (s *AnalyticsService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AnalyticsService", operation, attrs...)
}

// InvalidateOverview drops the cached overview so the next read recomputes.
// Wired as a notifier callback after mutations.
func (s *AnalyticsService) InvalidateOverview() {
	if s == nil {
		return
	}
	s.cache.Invalidate()
}

// EventOverview computes the dashboard's top-line aggregates: attendance
// totals, per-room occupancy, and the demographic breakdown of everyone
// counted toward a room's analytics. Results are cached for a few seconds.
func (s *AnalyticsService) EventOverview(ctx context.Context) (overview EventOverview, err error) {
	if s == nil {
		err = fmt.Errorf("AnalyticsService is nil")
		return
	}

	logger := s.loggerWith(ctx, "EventOverview")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to compute event overview", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if s.rooms == nil || s.attendees == nil || s.sessions == nil {
		err = fmt.Errorf("analytics service not fully configured")
		return
	}

	if cached, ok := s.cache.Get(); ok {
		overview = cached
		return
	}

	roomRecords, roomsErr := s.rooms.ListRooms(ctx)
	if roomsErr != nil {
		err = mapRepoError(roomsErr)
		return
	}
	attendeeRecords, attendeesErr := s.attendees.ListAttendees(ctx)
	if attendeesErr != nil {
		err = mapRepoError(attendeesErr)
		return
	}
	sessionRecords, sessionsErr := s.sessions.ListSessions(ctx, persistence.SessionFilter{})
	if sessionsErr != nil {
		err = mapRepoError(sessionsErr)
		return
	}

	overview = buildOverview(roomRecords, attendeeRecords, len(sessionRecords), s.now().UTC())
	s.cache.Store(overview)
	return
}

func buildOverview(rooms []persistence.Room, attendees []persistence.Attendee, sessionCount int, generatedAt time.Time) EventOverview {
	overview := EventOverview{
		TotalAttendees: len(attendees),
		TotalRooms:     len(rooms),
		TotalSessions:  sessionCount,
		GenderCounts:   map[string]int{},
		AgeBuckets:     map[string]int{},
		GeneratedAt:    generatedAt,
	}

	presences := make([]occupancy.Presence, 0, len(attendees))
	for _, attendee := range attendees {
		if attendee.IsCheckedIn {
			overview.CheckedIn++
		}
		roomID := ""
		if attendee.CurrentRoomID != nil {
			roomID = *attendee.CurrentRoomID
		}
		presences = append(presences, occupancy.Presence{RoomID: roomID, CheckedIn: attendee.IsCheckedIn})

		// Demographics count the analytics population, not just whoever
		// happens to be in a room right now.
		if attendee.AnalyticsRoomID == nil {
			continue
		}
		overview.GenderCounts[genderBucket(attendee.Gender)]++
		overview.AgeBuckets[ageBucket(attendee.Age)]++
	}

	overview.Rooms = make([]RoomOccupancy, 0, len(rooms))
	for _, room := range rooms {
		report := occupancy.ReportFor(room.ID, room.Capacity, presences)
		overview.Rooms = append(overview.Rooms, RoomOccupancy{
			Room:             roomFromRecord(room),
			CurrentOccupancy: report.CurrentOccupancy,
			Status:           report.Status,
		})
	}
	return overview
}

func validatePhotoInput(input PhotoInput) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.URL) == "" {
		vErr.add("url", "url is required")
	}
	return vErr
}

// AddPhoto records a new photo feed entry pointing at an already uploaded
// object.
func (s *AnalyticsService) AddPhoto(ctx context.Context, principal Principal, input PhotoInput) (photo Photo, err error) {
	if s == nil {
		err = fmt.Errorf("AnalyticsService is nil")
		return
	}

	logger := s.loggerWith(ctx, "AddPhoto",
		"principal_id", principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to add photo", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("photo_id", photo.ID).InfoContext(ctx, "photo added")
	}()

	if s.photos == nil {
		err = fmt.Errorf("photo repository not configured")
		return
	}

	vErr := validatePhotoInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	photo = Photo{
		ID:         s.idGenerator(),
		AttendeeID: normalizeOptionalString(input.AttendeeID),
		RoomID:     normalizeOptionalString(input.RoomID),
		URL:        strings.TrimSpace(input.URL),
		Caption:    strings.TrimSpace(input.Caption),
		CreatedAt:  s.now().UTC(),
	}

	if err = s.photos.CreatePhoto(ctx, photoToRecord(photo)); err != nil {
		err = mapRepoError(err)
		photo = Photo{}
		return
	}

	notify(s.notifier, "photos", "created", photo.ID)
	return
}

// ListPhotos returns the photo feed, newest first.
func (s *AnalyticsService) ListPhotos(ctx context.Context) ([]Photo, error) {
	if s == nil || s.photos == nil {
		return nil, fmt.Errorf("photo repository not configured")
	}
	records, err := s.photos.ListPhotos(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	photos := make([]Photo, 0, len(records))
	for _, record := range records {
		photos = append(photos, photoFromRecord(record))
	}
	return photos, nil
}

// DeletePhoto removes a photo feed record. The stored object itself is not
// touched; its lifecycle belongs to the uploader.
func (s *AnalyticsService) DeletePhoto(ctx context.Context, principal Principal, id string) (err error) {
	if s == nil {
		return fmt.Errorf("AnalyticsService is nil")
	}

	logger := s.loggerWith(ctx, "DeletePhoto",
		"principal_id", principal.UserID,
		"photo_id", id,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete photo", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "photo deleted")
	}()

	if s.photos == nil {
		err = fmt.Errorf("photo repository not configured")
		return
	}

	if err = s.photos.DeletePhoto(ctx, id); err != nil {
		err = mapRepoError(err)
		return
	}

	notify(s.notifier, "photos", "deleted", id)
	return
}

func photoToRecord(photo Photo) persistence.Photo {
	return persistence.Photo{
		ID:         photo.ID,
		AttendeeID: cloneStringPtr(photo.AttendeeID),
		RoomID:     cloneStringPtr(photo.RoomID),
		URL:        photo.URL,
		Caption:    photo.Caption,
		CreatedAt:  photo.CreatedAt,
	}
}
