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

var errInvalidSpeakerID = errors.New("a speaker identifier is required")

type speakerService interface {
	CreateSpeaker(ctx context.Context, principal application.Principal, input application.SpeakerInput) (application.Speaker, error)
	UpdateSpeaker(ctx context.Context, principal application.Principal, id string, input application.SpeakerInput) (application.Speaker, error)
	GetSpeaker(ctx context.Context, id string) (application.Speaker, error)
	ListSpeakers(ctx context.Context) ([]application.Speaker, error)
	DeleteSpeaker(ctx context.Context, principal application.Principal, id string) error
}

// SpeakerHandler serves the speaker profile endpoints.
type SpeakerHandler struct {
	service   speakerService
	responder responder
	logger    *slog.Logger
}

// NewSpeakerHandler constructs the handler.
func NewSpeakerHandler(service speakerService, logger *slog.Logger) *SpeakerHandler {
	base := defaultLogger(logger)
	return &SpeakerHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *SpeakerHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "SpeakerHandler", operation, attrs...)
}

// Create handles POST /speakers.
func (h *SpeakerHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req speakerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode speaker request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	speaker, err := h.service.CreateSpeaker(r.Context(), principal, req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "speaker creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("speaker_id", speaker.ID).InfoContext(r.Context(), "speaker created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, speakerResponse{Speaker: toSpeakerDTO(speaker)})
}

// Update handles PUT /speakers/{id}.
func (h *SpeakerHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	speakerID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(speakerID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSpeakerID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req speakerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.UserID, "speaker_id", speakerID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode speaker update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "speaker_id", speakerID)

	speaker, err := h.service.UpdateSpeaker(r.Context(), principal, speakerID, req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "speaker update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "speaker updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, speakerResponse{Speaker: toSpeakerDTO(speaker)})
}

// List handles GET /speakers.
func (h *SpeakerHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "List")

	speakers, err := h.service.ListSpeakers(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "speaker listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]speakerDTO, 0, len(speakers))
	for _, speaker := range speakers {
		dtos = append(dtos, toSpeakerDTO(speaker))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, speakerListResponse{Speakers: dtos})
}

// Get handles GET /speakers/{id}.
func (h *SpeakerHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	speakerID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(speakerID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSpeakerID)
		return
	}

	speaker, err := h.service.GetSpeaker(r.Context(), speakerID)
	if err != nil {
		h.log(r.Context(), "Get", "speaker_id", speakerID).ErrorContext(r.Context(), "speaker lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, speakerResponse{Speaker: toSpeakerDTO(speaker)})
}

// Delete handles DELETE /speakers/{id}.
func (h *SpeakerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	speakerID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(speakerID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSpeakerID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "speaker_id", speakerID)

	if err := h.service.DeleteSpeaker(r.Context(), principal, speakerID); err != nil {
		logger.ErrorContext(r.Context(), "speaker deletion failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "speaker deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type speakerRequest struct {
	Name     string  `json:"name"`
	PhotoURL *string `json:"photo_url"`
}

func (r speakerRequest) toInput() application.SpeakerInput {
	return application.SpeakerInput{Name: r.Name, PhotoURL: r.PhotoURL}
}

type speakerDTO struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	PhotoURL  *string `json:"photo_url,omitempty"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

func toSpeakerDTO(speaker application.Speaker) speakerDTO {
	return speakerDTO{
		ID:        speaker.ID,
		Name:      speaker.Name,
		PhotoURL:  speaker.PhotoURL,
		CreatedAt: speaker.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: speaker.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

type speakerResponse struct {
	Speaker speakerDTO `json:"speaker"`
}

type speakerListResponse struct {
	Speakers []speakerDTO `json:"speakers"`
}
