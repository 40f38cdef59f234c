package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/event-dashboard/internal/application"
)

var errInvalidArchiveID = errors.New("a snapshot identifier is required")

type archiveReader interface {
	ListSavedRooms(ctx context.Context) ([]application.SavedRoom, error)
	GetSavedRoom(ctx context.Context, id string) (application.SavedRoom, error)
}

// ArchiveHandler serves read access to saved room snapshots.
type ArchiveHandler struct {
	service   archiveReader
	responder responder
	logger    *slog.Logger
}

// NewArchiveHandler constructs the handler.
func NewArchiveHandler(service archiveReader, logger *slog.Logger) *ArchiveHandler {
	base := defaultLogger(logger)
	return &ArchiveHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ArchiveHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ArchiveHandler", operation, attrs...)
}

// List handles GET /archives.
func (h *ArchiveHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "List")

	snapshots, err := h.service.ListSavedRooms(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "snapshot listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]savedRoomDTO, 0, len(snapshots))
	for _, snapshot := range snapshots {
		dtos = append(dtos, toSavedRoomDTO(snapshot))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, savedRoomListResponse{SavedRooms: dtos})
}

// Get handles GET /archives/{id}.
func (h *ArchiveHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	archiveID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(archiveID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidArchiveID)
		return
	}

	snapshot, err := h.service.GetSavedRoom(r.Context(), archiveID)
	if err != nil {
		h.log(r.Context(), "Get", "saved_room_id", archiveID).ErrorContext(r.Context(), "snapshot lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, savedRoomResponse{SavedRoom: toSavedRoomDTO(snapshot)})
}

type savedAttendeeDTO struct {
	AttendeeID string `json:"attendee_id"`
	Name       string `json:"name"`
	Age        *int   `json:"age,omitempty"`
	Gender     string `json:"gender,omitempty"`
	ScanCount  int    `json:"scan_count"`
}

type savedRoomDTO struct {
	ID            string             `json:"id"`
	RoomID        string             `json:"room_id"`
	RoomName      string             `json:"room_name"`
	Capacity      int                `json:"capacity"`
	AttendeeCount int                `json:"attendee_count"`
	GenderCounts  map[string]int     `json:"gender_counts"`
	AgeBuckets    map[string]int     `json:"age_buckets"`
	Attendees     []savedAttendeeDTO `json:"attendees"`
	ArchivedAt    string             `json:"archived_at"`
}

func toSavedRoomDTO(snapshot application.SavedRoom) savedRoomDTO {
	attendees := make([]savedAttendeeDTO, 0, len(snapshot.Attendees))
	for _, attendee := range snapshot.Attendees {
		attendees = append(attendees, savedAttendeeDTO{
			AttendeeID: attendee.AttendeeID,
			Name:       attendee.Name,
			Age:        attendee.Age,
			Gender:     attendee.Gender,
			ScanCount:  attendee.ScanCount,
		})
	}
	return savedRoomDTO{
		ID:            snapshot.ID,
		RoomID:        snapshot.RoomID,
		RoomName:      snapshot.RoomName,
		Capacity:      snapshot.Capacity,
		AttendeeCount: snapshot.AttendeeCount,
		GenderCounts:  snapshot.GenderCounts,
		AgeBuckets:    snapshot.AgeBuckets,
		Attendees:     attendees,
		ArchivedAt:    snapshot.ArchivedAt.UTC().Format(time.RFC3339Nano),
	}
}

type savedRoomResponse struct {
	SavedRoom savedRoomDTO `json:"saved_room"`
}

type savedRoomListResponse struct {
	SavedRooms []savedRoomDTO `json:"saved_rooms"`
}
