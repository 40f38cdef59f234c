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

var errInvalidAlertID = errors.New("an alert identifier is required")

type alertService interface {
	RaiseAlert(ctx context.Context, principal application.Principal, input application.AlertInput) (application.Alert, error)
	DeactivateAlert(ctx context.Context, principal application.Principal, id string) error
	ListActiveAlerts(ctx context.Context, roomID string) ([]application.Alert, error)
}

// AlertHandler serves the room alert endpoints.
type AlertHandler struct {
	service   alertService
	responder responder
	logger    *slog.Logger
}

// NewAlertHandler constructs the handler.
func NewAlertHandler(service alertService, logger *slog.Logger) *AlertHandler {
	base := defaultLogger(logger)
	return &AlertHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AlertHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AlertHandler", operation, attrs...)
}

// Create handles POST /alerts.
func (h *AlertHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req alertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode alert request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID, "room_id", req.RoomID)

	alert, err := h.service.RaiseAlert(r.Context(), principal, application.AlertInput{
		RoomID:   req.RoomID,
		Type:     application.AlertType(req.Type),
		Severity: application.AlertSeverity(req.Severity),
		Message:  req.Message,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "alert creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("alert_id", alert.ID).InfoContext(r.Context(), "alert raised")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, alertResponse{Alert: toAlertDTO(alert)})
}

// Deactivate handles POST /alerts/{id}/deactivate.
func (h *AlertHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	alertID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(alertID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidAlertID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Deactivate", "principal_id", principal.UserID, "alert_id", alertID)

	if err := h.service.DeactivateAlert(r.Context(), principal, alertID); err != nil {
		logger.ErrorContext(r.Context(), "alert deactivation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "alert deactivated")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// List handles GET /alerts, optionally filtered with ?room_id=.
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID := strings.TrimSpace(r.URL.Query().Get("room_id"))
	logger := h.log(r.Context(), "List", "room_id", roomID)

	alerts, err := h.service.ListActiveAlerts(r.Context(), roomID)
	if err != nil {
		logger.ErrorContext(r.Context(), "alert listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]alertDTO, 0, len(alerts))
	for _, alert := range alerts {
		dtos = append(dtos, toAlertDTO(alert))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, alertListResponse{Alerts: dtos})
}

type alertRequest struct {
	RoomID   string `json:"room_id"`
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

type alertDTO struct {
	ID        string `json:"id"`
	RoomID    string `json:"room_id"`
	Type      string `json:"type"`
	Severity  string `json:"severity"`
	Message   string `json:"message"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
}

func toAlertDTO(alert application.Alert) alertDTO {
	return alertDTO{
		ID:        alert.ID,
		RoomID:    alert.RoomID,
		Type:      string(alert.Type),
		Severity:  string(alert.Severity),
		Message:   alert.Message,
		IsActive:  alert.IsActive,
		CreatedAt: alert.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

type alertResponse struct {
	Alert alertDTO `json:"alert"`
}

type alertListResponse struct {
	Alerts []alertDTO `json:"alerts"`
}
