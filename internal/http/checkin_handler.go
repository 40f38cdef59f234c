package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/example/event-dashboard/internal/application"
)

type checkinService interface {
	Scan(ctx context.Context, params application.ScanParams) (application.ScanResult, error)
}

// CheckinHandler serves the QR scan endpoint used at room entrances.
type CheckinHandler struct {
	service   checkinService
	responder responder
	logger    *slog.Logger
}

// NewCheckinHandler constructs the handler.
func NewCheckinHandler(service checkinService, logger *slog.Logger) *CheckinHandler {
	base := defaultLogger(logger)
	return &CheckinHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *CheckinHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "CheckinHandler", operation, attrs...)
}

// Scan handles POST /checkins.
func (h *CheckinHandler) Scan(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Scan", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode scan request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Scan", "principal_id", principal.UserID, "room_id", req.RoomID)

	result, err := h.service.Scan(r.Context(), application.ScanParams{
		Principal:  principal,
		RoomID:     req.RoomID,
		RawPayload: req.Payload,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "scan failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With(
		"attendee_id", result.Attendee.ID,
		"action", string(result.Action),
	).InfoContext(r.Context(), "scan processed")

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	h.responder.writeJSON(r.Context(), w, status, scanResponse{
		Attendee: toAttendeeDTO(result.Attendee),
		Created:  result.Created,
		Action:   string(result.Action),
	})
}

type scanRequest struct {
	RoomID  string `json:"room_id"`
	Payload string `json:"payload"`
}

type scanResponse struct {
	Attendee attendeeDTO `json:"attendee"`
	Created  bool        `json:"created"`
	Action   string      `json:"action"`
}
