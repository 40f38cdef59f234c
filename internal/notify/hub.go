// Package notify fans change events out to dashboard clients. Services
// publish an event after every successful mutation; subscribers (the SSE
// endpoint, the analytics cache, an optional Redis bridge) react by
// re-fetching whatever collection changed.
package notify

import (
	"log/slog"
	"sync"
	"time"
)

// Event describes one committed mutation.
type Event struct {
	Table      string    `json:"table"`
	Action     string    `json:"action"`
	RecordID   string    `json:"record_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Subscription is a registered listener. Receive from C; call Close when done.
type Subscription struct {
	C      <-chan Event
	ch     chan Event
	cancel func()
	once   sync.Once
}

// Close unregisters the subscription and releases its channel.
func (s *Subscription) Close() {
	if s == nil {
		return
	}
	s.once.Do(s.cancel)
}

// Hub is an in-process broadcast bus. Publishing never blocks: slow
// subscribers drop events rather than stall the mutation path, which is fine
// because events only signal "re-fetch this table", not the data itself.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[int]chan Event
	nextID      int
	now         func() time.Time
	logger      *slog.Logger
	sinks       []func(Event)
}

// NewHub constructs an empty hub.
func NewHub(now func() time.Time, logger *slog.Logger) *Hub {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subscribers: make(map[int]chan Event),
		now:         now,
		logger:      logger,
	}
}

// AddSink registers a synchronous callback invoked for every published
// event. Sinks must be fast and must not panic; they run on the publisher's
// goroutine. Register sinks during wiring, before traffic starts.
func (h *Hub) AddSink(sink func(Event)) {
	if h == nil || sink == nil {
		return
	}
	h.mu.Lock()
	h.sinks = append(h.sinks, sink)
	h.mu.Unlock()
}

// Subscribe registers a listener with a buffered channel. Events are dropped
// for a subscriber whose buffer is full.
func (h *Hub) Subscribe(buffer int) *Subscription {
	if h == nil {
		return nil
	}
	if buffer <= 0 {
		buffer = 16
	}

	ch := make(chan Event, buffer)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subscribers[id] = ch
	h.mu.Unlock()

	return &Subscription{
		C:  ch,
		ch: ch,
		cancel: func() {
			h.mu.Lock()
			delete(h.subscribers, id)
			h.mu.Unlock()
		},
	}
}

// Notify implements the application layer's Notifier interface.
func (h *Hub) Notify(table, action, id string) {
	if h == nil {
		return
	}
	h.Publish(Event{Table: table, Action: action, RecordID: id, OccurredAt: h.now().UTC()})
}

// Publish broadcasts an event to all current subscribers and sinks.
func (h *Hub) Publish(event Event) {
	if h == nil {
		return
	}

	h.mu.RLock()
	sinks := h.sinks
	channels := make([]chan Event, 0, len(h.subscribers))
	for _, ch := range h.subscribers {
		channels = append(channels, ch)
	}
	h.mu.RUnlock()

	for _, sink := range sinks {
		sink(event)
	}

	dropped := 0
	for _, ch := range channels {
		select {
		case ch <- event:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		h.logger.Warn("dropped change events for slow subscribers",
			"table", event.Table,
			"action", event.Action,
			"dropped", dropped,
		)
	}
}

// SubscriberCount reports how many listeners are registered.
func (h *Hub) SubscriberCount() int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
