// Package logging threads request scoped loggers through the dashboard.
// The HTTP middleware seeds a logger carrying per-request attributes;
// handlers, services, and background jobs pull it back out so every record
// emitted while serving one request shares them.
package logging

import (
	"context"
	"log/slog"
)

type loggerKey struct{}

// ContextWithLogger returns a derived context carrying logger. A nil context
// or logger is returned unchanged so callers can chain without guards.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger attached to ctx, or nil when none was set.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return nil
	}
	logger, _ := ctx.Value(loggerKey{}).(*slog.Logger)
	return logger
}

// OrDefault returns logger when non-nil and the process default otherwise.
func OrDefault(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}
