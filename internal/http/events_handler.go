package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/example/event-dashboard/internal/notify"
)

// EventsHandler streams change events to dashboard clients over server-sent
// events. Clients receive one `change` event per committed mutation and are
// expected to re-fetch the named collection.
type EventsHandler struct {
	hub    *notify.Hub
	logger *slog.Logger
}

// NewEventsHandler constructs the handler.
func NewEventsHandler(hub *notify.Hub, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{hub: hub, logger: defaultLogger(logger)}
}

func (h *EventsHandler) log(ctx context.Context, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "EventsHandler", "Stream", attrs...)
}

// Stream handles GET /events.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.hub == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	// An empty table streams every collection.
	table := r.URL.Query().Get("table")
	logger := h.log(r.Context(), "table", table)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	sub := h.hub.Subscribe(32)
	defer sub.Close()

	// The initial comment confirms the subscription is registered: events
	// published after the client reads it are guaranteed to be delivered.
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	logger.InfoContext(r.Context(), "event stream opened")

	for {
		select {
		case <-r.Context().Done():
			logger.InfoContext(r.Context(), "event stream closed")
			return
		case event, open := <-sub.C:
			if !open {
				return
			}
			if table != "" && event.Table != table {
				continue
			}
			payload, err := json.Marshal(event)
			if err != nil {
				logger.ErrorContext(r.Context(), "failed to encode change event", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: change\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
