package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/event-dashboard/internal/persistence"
)

// SpeakerService orchestrates validation and persistence for speaker
// profiles. Mutations are admin-only.
type SpeakerService struct {
	speakers    persistence.SpeakerRepository
	notifier    Notifier
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewSpeakerService constructs a speaker service with the provided dependencies.
func NewSpeakerService(speakers persistence.SpeakerRepository, notifier Notifier, idGenerator func() string, now func() time.Time) *SpeakerService {
	return NewSpeakerServiceWithLogger(speakers, notifier, idGenerator, now, nil)
}

// NewSpeakerServiceWithLogger constructs a speaker service with a specified logger.
func NewSpeakerServiceWithLogger(speakers persistence.SpeakerRepository, notifier Notifier, idGenerator func() string, now func() time.Time, logger *slog.Logger) *SpeakerService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &SpeakerService{
		speakers:    speakers,
		notifier:    notifier,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *SpeakerService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SpeakerService", operation, attrs...)
}

func validateSpeakerInput(input SpeakerInput) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	return vErr
}

// CreateSpeaker validates input and persists a new speaker for administrators.
func (s *SpeakerService) CreateSpeaker(ctx context.Context, principal Principal, input SpeakerInput) (speaker Speaker, err error) {
	if s == nil {
		err = fmt.Errorf("SpeakerService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateSpeaker",
		"principal_id", principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create speaker", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("speaker_id", speaker.ID).InfoContext(ctx, "speaker created")
	}()

	if !principal.IsAdmin {
		err = ErrUnauthorized
		return
	}
	if s.speakers == nil {
		err = fmt.Errorf("speaker repository not configured")
		return
	}

	vErr := validateSpeakerInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	speaker = Speaker{
		ID:        s.idGenerator(),
		Name:      strings.TrimSpace(input.Name),
		PhotoURL:  normalizeOptionalString(input.PhotoURL),
		CreatedAt: s.now().UTC(),
	}
	speaker.UpdatedAt = speaker.CreatedAt

	if err = s.speakers.CreateSpeaker(ctx, speakerToRecord(speaker)); err != nil {
		err = mapRepoError(err)
		speaker = Speaker{}
		return
	}

	notify(s.notifier, "speakers", "created", speaker.ID)
	return
}

// UpdateSpeaker validates input and updates an existing speaker for administrators.
func (s *SpeakerService) UpdateSpeaker(ctx context.Context, principal Principal, id string, input SpeakerInput) (speaker Speaker, err error) {
	if s == nil {
		err = fmt.Errorf("SpeakerService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateSpeaker",
		"principal_id", principal.UserID,
		"speaker_id", id,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update speaker", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "speaker updated")
	}()

	if !principal.IsAdmin {
		err = ErrUnauthorized
		return
	}
	if s.speakers == nil {
		err = fmt.Errorf("speaker repository not configured")
		return
	}

	vErr := validateSpeakerInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	record, getErr := s.speakers.GetSpeaker(ctx, id)
	if getErr != nil {
		err = mapRepoError(getErr)
		return
	}

	speaker = speakerFromRecord(record)
	speaker.Name = strings.TrimSpace(input.Name)
	speaker.PhotoURL = normalizeOptionalString(input.PhotoURL)
	speaker.UpdatedAt = s.now().UTC()

	if err = s.speakers.UpdateSpeaker(ctx, speakerToRecord(speaker)); err != nil {
		err = mapRepoError(err)
		speaker = Speaker{}
		return
	}

	notify(s.notifier, "speakers", "updated", speaker.ID)
	return
}

// GetSpeaker returns a single speaker by id.
func (s *SpeakerService) GetSpeaker(ctx context.Context, id string) (Speaker, error) {
	if s == nil || s.speakers == nil {
		return Speaker{}, fmt.Errorf("speaker repository not configured")
	}
	record, err := s.speakers.GetSpeaker(ctx, id)
	if err != nil {
		return Speaker{}, mapRepoError(err)
	}
	return speakerFromRecord(record), nil
}

// ListSpeakers returns all speakers ordered by name.
func (s *SpeakerService) ListSpeakers(ctx context.Context) ([]Speaker, error) {
	if s == nil || s.speakers == nil {
		return nil, fmt.Errorf("speaker repository not configured")
	}
	records, err := s.speakers.ListSpeakers(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	speakers := make([]Speaker, 0, len(records))
	for _, record := range records {
		speakers = append(speakers, speakerFromRecord(record))
	}
	return speakers, nil
}

// DeleteSpeaker removes a speaker for administrators. Sessions keep running
// with their speaker reference detached by the repository.
func (s *SpeakerService) DeleteSpeaker(ctx context.Context, principal Principal, id string) (err error) {
	if s == nil {
		return fmt.Errorf("SpeakerService is nil")
	}

	logger := s.loggerWith(ctx, "DeleteSpeaker",
		"principal_id", principal.UserID,
		"speaker_id", id,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete speaker", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "speaker deleted")
	}()

	if !principal.IsAdmin {
		err = ErrUnauthorized
		return
	}
	if s.speakers == nil {
		err = fmt.Errorf("speaker repository not configured")
		return
	}

	if err = s.speakers.DeleteSpeaker(ctx, id); err != nil {
		err = mapRepoError(err)
		return
	}

	notify(s.notifier, "speakers", "deleted", id)
	return
}

func speakerToRecord(speaker Speaker) persistence.Speaker {
	return persistence.Speaker{
		ID:        speaker.ID,
		Name:      speaker.Name,
		PhotoURL:  cloneStringPtr(speaker.PhotoURL),
		CreatedAt: speaker.CreatedAt,
		UpdatedAt: speaker.UpdatedAt,
	}
}
