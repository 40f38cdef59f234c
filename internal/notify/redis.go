package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
)

// streamMaxLen caps each per-table stream so an unattended broker does not
// grow without bound.
const streamMaxLen = 1024

// publishTimeout bounds how long a broadcast may hold up the sink callback.
const publishTimeout = 2 * time.Second

// RedisPublisher mirrors hub events onto Redis streams, one stream per
// table (dashboard.events.rooms, dashboard.events.attendees, ...), so
// out-of-process consumers can follow dashboard changes.
type RedisPublisher struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// NewRedisPublisher connects a publisher to the given Redis server.
func NewRedisPublisher(addr, password string, db int, logger *slog.Logger) *RedisPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisPublisher{client: client, prefix: "dashboard.events.", logger: logger}
}

// Ping verifies the connection.
func (p *RedisPublisher) Ping(ctx context.Context) error {
	if p == nil || p.client == nil {
		return nil
	}
	return p.client.Ping(ctx).Err()
}

// Sink returns the hub callback that forwards events to Redis. Publish
// failures are logged and swallowed; the broker is an optional mirror and
// must never fail a dashboard mutation.
func (p *RedisPublisher) Sink() func(Event) {
	return func(event Event) {
		if p == nil || p.client == nil {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		payload, err := json.Marshal(event)
		if err != nil {
			p.logger.Error("failed to encode change event", "error", err)
			return
		}

		err = p.client.XAdd(ctx, &redis.XAddArgs{
			Stream: p.prefix + event.Table,
			MaxLen: streamMaxLen,
			Approx: true,
			Values: map[string]interface{}{"event": string(payload)},
		}).Err()
		if err != nil {
			p.logger.Error("failed to publish change event",
				"error", err,
				"table", event.Table,
				"action", event.Action,
			)
		}
	}
}

// Close releases the underlying connection.
func (p *RedisPublisher) Close() error {
	if p == nil || p.client == nil {
		return nil
	}
	return p.client.Close()
}
