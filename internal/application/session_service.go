package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/event-dashboard/internal/persistence"
	"github.com/example/event-dashboard/internal/schedule"
)

// SessionService orchestrates validation, conflict detection, and
// persistence for conference sessions.
type SessionService struct {
	sessions    persistence.SessionRepository
	rooms       persistence.RoomRepository
	speakers    persistence.SpeakerRepository
	notifier    Notifier
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewSessionService constructs a session service with the provided dependencies.
func NewSessionService(sessions persistence.SessionRepository, rooms persistence.RoomRepository, speakers persistence.SpeakerRepository, notifier Notifier, idGenerator func() string, now func() time.Time) *SessionService {
	return NewSessionServiceWithLogger(sessions, rooms, speakers, notifier, idGenerator, now, nil)
}

// NewSessionServiceWithLogger constructs a session service with a specified logger.
func NewSessionServiceWithLogger(sessions persistence.SessionRepository, rooms persistence.RoomRepository, speakers persistence.SpeakerRepository, notifier Notifier, idGenerator func() string, now func() time.Time, logger *slog.Logger) *SessionService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &SessionService{
		sessions:    sessions,
		rooms:       rooms,
		speakers:    speakers,
		notifier:    notifier,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *SessionService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SessionService", operation, attrs...)
}

func validateSessionInput(input SessionInput) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Title) == "" {
		vErr.add("title", "title is required")
	}
	if input.RoomID == "" {
		vErr.add("room_id", "room is required")
	}
	if input.Start.IsZero() {
		vErr.add("start_time", "start time is required")
	}
	if input.End.IsZero() {
		vErr.add("end_time", "end time is required")
	}
	if !input.Start.IsZero() && !input.End.IsZero() && !input.End.After(input.Start) {
		vErr.add("end_time", "end time must be after start time")
	}
	return vErr
}

// checkSessionTarget verifies that the target room exists and is not
// archived, and that the referenced speaker, if any, exists.
func (s *SessionService) checkSessionTarget(ctx context.Context, input SessionInput) error {
	if s.rooms != nil {
		room, err := s.rooms.GetRoom(ctx, input.RoomID)
		if err != nil {
			if isNotFoundError(err) {
				vErr := &ValidationError{}
				vErr.add("room_id", "room does not exist")
				return vErr
			}
			return mapRepoError(err)
		}
		if room.IsArchived {
			return ErrRoomArchived
		}
	}
	if input.SpeakerID != nil && s.speakers != nil {
		if _, err := s.speakers.GetSpeaker(ctx, *input.SpeakerID); err != nil {
			if isNotFoundError(err) {
				vErr := &ValidationError{}
				vErr.add("speaker_id", "speaker does not exist")
				return vErr
			}
			return mapRepoError(err)
		}
	}
	return nil
}

// findConflict loads the room's sessions touching the candidate's window and
// runs the overlap check, returning a ConflictError when the candidate
// collides.
func (s *SessionService) findConflict(ctx context.Context, candidate Session, excludeID string) error {
	records, err := s.sessions.ListSessions(ctx, persistence.SessionFilter{
		RoomID:       candidate.RoomID,
		StartsBefore: &candidate.End,
		EndsAfter:    &candidate.Start,
	})
	if err != nil {
		return mapRepoError(err)
	}

	existing := make([]schedule.Session, 0, len(records))
	for _, record := range records {
		existing = append(existing, schedule.Session{
			ID:     record.ID,
			RoomID: record.RoomID,
			Title:  record.Title,
			Start:  record.Start,
			End:    record.End,
		})
	}

	conflict, found := schedule.FindConflict(existing, schedule.Session{
		ID:     candidate.ID,
		RoomID: candidate.RoomID,
		Start:  candidate.Start,
		End:    candidate.End,
	}, excludeID)
	if found {
		return &ConflictError{SessionID: conflict.ID, SessionTitle: conflict.Title}
	}
	return nil
}

// CreateSession validates input, rejects overlapping bookings in the same
// room, and persists a new session.
func (s *SessionService) CreateSession(ctx context.Context, params CreateSessionParams) (session Session, err error) {
	if s == nil {
		err = fmt.Errorf("SessionService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateSession",
		"principal_id", params.Principal.UserID,
		"room_id", params.Input.RoomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create session", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("session_id", session.ID).InfoContext(ctx, "session created")
	}()

	if s.sessions == nil {
		err = fmt.Errorf("session repository not configured")
		return
	}

	vErr := validateSessionInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}
	if err = s.checkSessionTarget(ctx, params.Input); err != nil {
		return
	}

	session = Session{
		ID:          s.idGenerator(),
		Title:       strings.TrimSpace(params.Input.Title),
		Description: strings.TrimSpace(params.Input.Description),
		RoomID:      params.Input.RoomID,
		SpeakerID:   cloneStringPtr(params.Input.SpeakerID),
		Start:       params.Input.Start.UTC(),
		End:         params.Input.End.UTC(),
		Tags:        normalizeTags(params.Input.Tags),
		CreatedAt:   s.now().UTC(),
	}
	session.UpdatedAt = session.CreatedAt

	if err = s.findConflict(ctx, session, ""); err != nil {
		session = Session{}
		return
	}

	if err = s.sessions.CreateSession(ctx, sessionToRecord(session)); err != nil {
		err = mapRepoError(err)
		session = Session{}
		return
	}

	notify(s.notifier, "sessions", "created", session.ID)
	return
}

// UpdateSession validates input and updates an existing session. The session
// being edited is excluded from the conflict check so a session never
// conflicts with itself.
func (s *SessionService) UpdateSession(ctx context.Context, params UpdateSessionParams) (session Session, err error) {
	if s == nil {
		err = fmt.Errorf("SessionService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateSession",
		"principal_id", params.Principal.UserID,
		"session_id", params.SessionID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update session", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "session updated")
	}()

	if s.sessions == nil {
		err = fmt.Errorf("session repository not configured")
		return
	}

	vErr := validateSessionInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	record, getErr := s.sessions.GetSession(ctx, params.SessionID)
	if getErr != nil {
		err = mapRepoError(getErr)
		return
	}
	if record.IsArchived {
		err = ErrRoomArchived
		return
	}

	if err = s.checkSessionTarget(ctx, params.Input); err != nil {
		return
	}

	session = sessionFromRecord(record)
	session.Title = strings.TrimSpace(params.Input.Title)
	session.Description = strings.TrimSpace(params.Input.Description)
	session.RoomID = params.Input.RoomID
	session.SpeakerID = cloneStringPtr(params.Input.SpeakerID)
	session.Start = params.Input.Start.UTC()
	session.End = params.Input.End.UTC()
	session.Tags = normalizeTags(params.Input.Tags)
	session.UpdatedAt = s.now().UTC()

	if err = s.findConflict(ctx, session, session.ID); err != nil {
		session = Session{}
		return
	}

	if err = s.sessions.UpdateSession(ctx, sessionToRecord(session)); err != nil {
		err = mapRepoError(err)
		session = Session{}
		return
	}

	notify(s.notifier, "sessions", "updated", session.ID)
	return
}

// DeleteSession removes a session.
func (s *SessionService) DeleteSession(ctx context.Context, principal Principal, id string) (err error) {
	if s == nil {
		return fmt.Errorf("SessionService is nil")
	}

	logger := s.loggerWith(ctx, "DeleteSession",
		"principal_id", principal.UserID,
		"session_id", id,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete session", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "session deleted")
	}()

	if s.sessions == nil {
		err = fmt.Errorf("session repository not configured")
		return
	}

	if err = s.sessions.DeleteSession(ctx, id); err != nil {
		err = mapRepoError(err)
		return
	}

	notify(s.notifier, "sessions", "deleted", id)
	return
}

// GetSession returns a single session by id.
func (s *SessionService) GetSession(ctx context.Context, id string) (Session, error) {
	if s == nil || s.sessions == nil {
		return Session{}, fmt.Errorf("session repository not configured")
	}
	record, err := s.sessions.GetSession(ctx, id)
	if err != nil {
		return Session{}, mapRepoError(err)
	}
	return sessionFromRecord(record), nil
}

// ListSessions returns non-archived sessions ordered by start time. An empty
// roomID lists across all rooms.
func (s *SessionService) ListSessions(ctx context.Context, roomID string) ([]Session, error) {
	if s == nil || s.sessions == nil {
		return nil, fmt.Errorf("session repository not configured")
	}
	records, err := s.sessions.ListSessions(ctx, persistence.SessionFilter{RoomID: roomID})
	if err != nil {
		return nil, mapRepoError(err)
	}
	sessions := make([]Session, 0, len(records))
	for _, record := range records {
		sessions = append(sessions, sessionFromRecord(record))
	}
	return sessions, nil
}

// CurrentSession returns the session in the room spanning now, if any.
func (s *SessionService) CurrentSession(ctx context.Context, roomID string) (Session, bool, error) {
	return s.sessionByRelation(ctx, roomID, schedule.CurrentForRoom)
}

// NextSession returns the next upcoming session in the room, if any.
func (s *SessionService) NextSession(ctx context.Context, roomID string) (Session, bool, error) {
	return s.sessionByRelation(ctx, roomID, schedule.NextForRoom)
}

func (s *SessionService) sessionByRelation(ctx context.Context, roomID string, pick func([]schedule.Session, string, time.Time) (schedule.Session, bool)) (Session, bool, error) {
	if s == nil || s.sessions == nil {
		return Session{}, false, fmt.Errorf("session repository not configured")
	}
	now := s.now().UTC()
	// Sessions already over can be neither current nor next.
	records, err := s.sessions.ListSessions(ctx, persistence.SessionFilter{RoomID: roomID, EndsAfter: &now})
	if err != nil {
		return Session{}, false, mapRepoError(err)
	}

	candidates := make([]schedule.Session, 0, len(records))
	byID := make(map[string]persistence.Session, len(records))
	for _, record := range records {
		byID[record.ID] = record
		candidates = append(candidates, schedule.Session{
			ID:     record.ID,
			RoomID: record.RoomID,
			Title:  record.Title,
			Start:  record.Start,
			End:    record.End,
		})
	}

	picked, found := pick(candidates, roomID, now)
	if !found {
		return Session{}, false, nil
	}
	return sessionFromRecord(byID[picked.ID]), true, nil
}

func normalizeTags(tags []string) []string {
	normalized := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		normalized = append(normalized, trimmed)
	}
	return normalized
}
