package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/event-dashboard/internal/application"
)

var errInvalidPhotoID = errors.New("a photo identifier is required")

type analyticsService interface {
	EventOverview(ctx context.Context) (application.EventOverview, error)
	AddPhoto(ctx context.Context, principal application.Principal, input application.PhotoInput) (application.Photo, error)
	ListPhotos(ctx context.Context) ([]application.Photo, error)
	DeletePhoto(ctx context.Context, principal application.Principal, id string) error
}

// AnalyticsHandler serves the event overview and the photo feed.
type AnalyticsHandler struct {
	service   analyticsService
	responder responder
	logger    *slog.Logger
}

// NewAnalyticsHandler constructs the handler.
func NewAnalyticsHandler(service analyticsService, logger *slog.Logger) *AnalyticsHandler {
	base := defaultLogger(logger)
	return &AnalyticsHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AnalyticsHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AnalyticsHandler", operation, attrs...)
}

// Overview handles GET /analytics/overview.
func (h *AnalyticsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "Overview")

	overview, err := h.service.EventOverview(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "overview computation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	rooms := make([]roomOccupancyDTO, 0, len(overview.Rooms))
	for _, row := range overview.Rooms {
		rooms = append(rooms, toRoomOccupancyDTO(row))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, overviewResponse{
		TotalAttendees: overview.TotalAttendees,
		CheckedIn:      overview.CheckedIn,
		TotalRooms:     overview.TotalRooms,
		TotalSessions:  overview.TotalSessions,
		Rooms:          rooms,
		GenderCounts:   overview.GenderCounts,
		AgeBuckets:     overview.AgeBuckets,
		GeneratedAt:    overview.GeneratedAt.UTC().Format(time.RFC3339Nano),
	})
}

// CreatePhoto handles POST /photos.
func (h *AnalyticsHandler) CreatePhoto(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req photoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "CreatePhoto", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode photo request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "CreatePhoto", "principal_id", principal.UserID)

	photo, err := h.service.AddPhoto(r.Context(), principal, application.PhotoInput{
		AttendeeID: req.AttendeeID,
		RoomID:     req.RoomID,
		URL:        req.URL,
		Caption:    req.Caption,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "photo creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("photo_id", photo.ID).InfoContext(r.Context(), "photo added")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, photoResponse{Photo: toPhotoDTO(photo)})
}

// ListPhotos handles GET /photos.
func (h *AnalyticsHandler) ListPhotos(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "ListPhotos")

	photos, err := h.service.ListPhotos(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "photo listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]photoDTO, 0, len(photos))
	for _, photo := range photos {
		dtos = append(dtos, toPhotoDTO(photo))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, photoListResponse{Photos: dtos})
}

// DeletePhoto handles DELETE /photos/{id}.
func (h *AnalyticsHandler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	photoID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(photoID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidPhotoID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "DeletePhoto", "principal_id", principal.UserID, "photo_id", photoID)

	if err := h.service.DeletePhoto(r.Context(), principal, photoID); err != nil {
		logger.ErrorContext(r.Context(), "photo deletion failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "photo deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type overviewResponse struct {
	TotalAttendees int                `json:"total_attendees"`
	CheckedIn      int                `json:"checked_in"`
	TotalRooms     int                `json:"total_rooms"`
	TotalSessions  int                `json:"total_sessions"`
	Rooms          []roomOccupancyDTO `json:"rooms"`
	GenderCounts   map[string]int     `json:"gender_counts"`
	AgeBuckets     map[string]int     `json:"age_buckets"`
	GeneratedAt    string             `json:"generated_at"`
}

type photoRequest struct {
	AttendeeID *string `json:"attendee_id"`
	RoomID     *string `json:"room_id"`
	URL        string  `json:"url"`
	Caption    string  `json:"caption"`
}

type photoDTO struct {
	ID         string  `json:"id"`
	AttendeeID *string `json:"attendee_id,omitempty"`
	RoomID     *string `json:"room_id,omitempty"`
	URL        string  `json:"url"`
	Caption    string  `json:"caption,omitempty"`
	CreatedAt  string  `json:"created_at"`
}

func toPhotoDTO(photo application.Photo) photoDTO {
	return photoDTO{
		ID:         photo.ID,
		AttendeeID: photo.AttendeeID,
		RoomID:     photo.RoomID,
		URL:        photo.URL,
		Caption:    photo.Caption,
		CreatedAt:  photo.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

type photoResponse struct {
	Photo photoDTO `json:"photo"`
}

type photoListResponse struct {
	Photos []photoDTO `json:"photos"`
}
