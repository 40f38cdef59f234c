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

var errInvalidAttendeeID = errors.New("an attendee identifier is required")

type attendeeService interface {
	RegisterAttendee(ctx context.Context, principal application.Principal, input application.AttendeeInput) (application.Attendee, error)
	UpdateAttendee(ctx context.Context, principal application.Principal, id string, input application.AttendeeInput) (application.Attendee, error)
	Checkout(ctx context.Context, principal application.Principal, id string) (application.Attendee, error)
	GetAttendee(ctx context.Context, id string) (application.Attendee, error)
	ListAttendees(ctx context.Context) ([]application.Attendee, error)
	DeleteAttendee(ctx context.Context, principal application.Principal, id string) error
	AttendanceLog(ctx context.Context, attendeeID string) ([]application.AttendanceLogEntry, error)
}

// AttendeeHandler serves the attendee registration, check-out, and
// attendance history endpoints.
type AttendeeHandler struct {
	service   attendeeService
	responder responder
	logger    *slog.Logger
}

// NewAttendeeHandler constructs the handler.
func NewAttendeeHandler(service attendeeService, logger *slog.Logger) *AttendeeHandler {
	base := defaultLogger(logger)
	return &AttendeeHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AttendeeHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AttendeeHandler", operation, attrs...)
}

// Create handles POST /attendees.
func (h *AttendeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req attendeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode attendee request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	attendee, err := h.service.RegisterAttendee(r.Context(), principal, req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "attendee registration failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("attendee_id", attendee.ID).InfoContext(r.Context(), "attendee registered")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, attendeeResponse{Attendee: toAttendeeDTO(attendee)})
}

// Update handles PUT /attendees/{id}.
func (h *AttendeeHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	attendeeID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(attendeeID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidAttendeeID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req attendeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.UserID, "attendee_id", attendeeID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode attendee update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "attendee_id", attendeeID)

	attendee, err := h.service.UpdateAttendee(r.Context(), principal, attendeeID, req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "attendee update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "attendee updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, attendeeResponse{Attendee: toAttendeeDTO(attendee)})
}

// Checkout handles POST /attendees/{id}/checkout.
func (h *AttendeeHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	attendeeID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(attendeeID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidAttendeeID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Checkout", "principal_id", principal.UserID, "attendee_id", attendeeID)

	attendee, err := h.service.Checkout(r.Context(), principal, attendeeID)
	if err != nil {
		logger.ErrorContext(r.Context(), "attendee checkout failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "attendee checked out")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, attendeeResponse{Attendee: toAttendeeDTO(attendee)})
}

// List handles GET /attendees.
func (h *AttendeeHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "List")

	attendees, err := h.service.ListAttendees(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "attendee listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]attendeeDTO, 0, len(attendees))
	for _, attendee := range attendees {
		dtos = append(dtos, toAttendeeDTO(attendee))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, attendeeListResponse{Attendees: dtos})
}

// Get handles GET /attendees/{id}.
func (h *AttendeeHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	attendeeID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(attendeeID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidAttendeeID)
		return
	}

	attendee, err := h.service.GetAttendee(r.Context(), attendeeID)
	if err != nil {
		h.log(r.Context(), "Get", "attendee_id", attendeeID).ErrorContext(r.Context(), "attendee lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, attendeeResponse{Attendee: toAttendeeDTO(attendee)})
}

// Delete handles DELETE /attendees/{id}.
func (h *AttendeeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	attendeeID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(attendeeID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidAttendeeID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "attendee_id", attendeeID)

	if err := h.service.DeleteAttendee(r.Context(), principal, attendeeID); err != nil {
		logger.ErrorContext(r.Context(), "attendee deletion failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "attendee deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// Log handles GET /attendees/{id}/log.
func (h *AttendeeHandler) Log(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	attendeeID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(attendeeID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidAttendeeID)
		return
	}

	entries, err := h.service.AttendanceLog(r.Context(), attendeeID)
	if err != nil {
		h.log(r.Context(), "Log", "attendee_id", attendeeID).ErrorContext(r.Context(), "attendance log query failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]attendanceLogDTO, 0, len(entries))
	for _, entry := range entries {
		dtos = append(dtos, attendanceLogDTO{
			ID:         entry.ID,
			AttendeeID: entry.AttendeeID,
			RoomID:     entry.RoomID,
			Action:     string(entry.Action),
			CreatedAt:  entry.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, attendanceLogResponse{Entries: dtos})
}

type attendeeRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	QRCode string `json:"qr_code"`
	Age    *int   `json:"age"`
	Gender string `json:"gender"`
}

func (r attendeeRequest) toInput() application.AttendeeInput {
	return application.AttendeeInput{
		Name:   r.Name,
		Email:  r.Email,
		QRCode: r.QRCode,
		Age:    r.Age,
		Gender: r.Gender,
	}
}

type attendeeDTO struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Email           string  `json:"email,omitempty"`
	QRCode          string  `json:"qr_code,omitempty"`
	Age             *int    `json:"age,omitempty"`
	Gender          string  `json:"gender,omitempty"`
	CurrentRoomID   *string `json:"current_room_id"`
	AnalyticsRoomID *string `json:"analytics_room_id"`
	IsCheckedIn     bool    `json:"is_checked_in"`
	ScanCount       int     `json:"scan_count"`
	RegisteredAt    string  `json:"registered_at"`
	UpdatedAt       string  `json:"updated_at"`
}

func toAttendeeDTO(attendee application.Attendee) attendeeDTO {
	return attendeeDTO{
		ID:              attendee.ID,
		Name:            attendee.Name,
		Email:           attendee.Email,
		QRCode:          attendee.QRCode,
		Age:             attendee.Age,
		Gender:          attendee.Gender,
		CurrentRoomID:   attendee.CurrentRoomID,
		AnalyticsRoomID: attendee.AnalyticsRoomID,
		IsCheckedIn:     attendee.IsCheckedIn,
		ScanCount:       attendee.ScanCount,
		RegisteredAt:    attendee.RegisteredAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:       attendee.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

type attendeeResponse struct {
	Attendee attendeeDTO `json:"attendee"`
}

type attendeeListResponse struct {
	Attendees []attendeeDTO `json:"attendees"`
}

type attendanceLogDTO struct {
	ID         string `json:"id"`
	AttendeeID string `json:"attendee_id"`
	RoomID     string `json:"room_id"`
	Action     string `json:"action"`
	CreatedAt  string `json:"created_at"`
}

type attendanceLogResponse struct {
	Entries []attendanceLogDTO `json:"entries"`
}
