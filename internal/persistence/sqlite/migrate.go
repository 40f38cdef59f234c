package sqlite

import (
	"context"
	"log/slog"

	"github.com/example/event-dashboard/internal/persistence/sqlite/migration"
)

// Migrations is the full embedded schema history for the dashboard database.
var Migrations = []migration.Migration{
	{
		Version:     "001",
		Description: "create core entity tables",
		SQL: `
			CREATE TABLE rooms (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL UNIQUE,
				capacity INTEGER NOT NULL CHECK (capacity > 0),
				is_archived INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			);

			CREATE TABLE speakers (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				photo_url TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			);

			CREATE TABLE sessions (
				id TEXT PRIMARY KEY,
				title TEXT NOT NULL,
				description TEXT,
				room_id TEXT NOT NULL REFERENCES rooms(id),
				speaker_id TEXT REFERENCES speakers(id),
				start_time TEXT NOT NULL,
				end_time TEXT NOT NULL,
				tags TEXT NOT NULL DEFAULT '',
				is_archived INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				CHECK (end_time > start_time)
			);
			CREATE INDEX idx_sessions_room_start ON sessions(room_id, start_time);

			CREATE TABLE attendees (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				email TEXT NOT NULL DEFAULT '',
				qr_code TEXT NOT NULL DEFAULT '',
				age INTEGER,
				gender TEXT NOT NULL DEFAULT '',
				current_room_id TEXT REFERENCES rooms(id),
				analytics_room_id TEXT REFERENCES rooms(id),
				is_checked_in INTEGER NOT NULL DEFAULT 0,
				scan_count INTEGER NOT NULL DEFAULT 0,
				registered_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			);
			CREATE UNIQUE INDEX idx_attendees_qr_code ON attendees(qr_code) WHERE qr_code <> '';
			CREATE UNIQUE INDEX idx_attendees_email ON attendees(email) WHERE email <> '';

			CREATE TABLE alerts (
				id TEXT PRIMARY KEY,
				room_id TEXT NOT NULL REFERENCES rooms(id),
				type TEXT NOT NULL CHECK (type IN ('technical', 'overcrowding')),
				severity TEXT NOT NULL CHECK (severity IN ('medium', 'high')),
				message TEXT NOT NULL,
				is_active INTEGER NOT NULL DEFAULT 1,
				created_at TEXT NOT NULL
			);

			CREATE TABLE attendance_log (
				id TEXT PRIMARY KEY,
				attendee_id TEXT NOT NULL REFERENCES attendees(id),
				room_id TEXT NOT NULL REFERENCES rooms(id),
				action TEXT NOT NULL CHECK (action IN ('check_in', 'room_change')),
				created_at TEXT NOT NULL
			);
		`,
	},
	{
		Version:     "002",
		Description: "create archival snapshot tables",
		SQL: `
			CREATE TABLE saved_rooms (
				id TEXT PRIMARY KEY,
				room_id TEXT NOT NULL,
				room_name TEXT NOT NULL,
				capacity INTEGER NOT NULL,
				attendee_count INTEGER NOT NULL,
				gender_counts TEXT NOT NULL DEFAULT '{}',
				age_buckets TEXT NOT NULL DEFAULT '{}',
				archived_at TEXT NOT NULL
			);

			CREATE TABLE saved_room_attendees (
				saved_room_id TEXT NOT NULL REFERENCES saved_rooms(id) ON DELETE CASCADE,
				attendee_id TEXT NOT NULL,
				name TEXT NOT NULL,
				age INTEGER,
				gender TEXT NOT NULL DEFAULT '',
				scan_count INTEGER NOT NULL DEFAULT 0
			);
			CREATE INDEX idx_saved_room_attendees ON saved_room_attendees(saved_room_id);
		`,
	},
	{
		Version:     "003",
		Description: "create photo feed table",
		SQL: `
			CREATE TABLE photos (
				id TEXT PRIMARY KEY,
				attendee_id TEXT REFERENCES attendees(id),
				room_id TEXT REFERENCES rooms(id),
				url TEXT NOT NULL,
				caption TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL
			);
		`,
	},
	{
		Version:     "004",
		Description: "create staff auth tables",
		SQL: `
			CREATE TABLE staff_users (
				id TEXT PRIMARY KEY,
				email TEXT NOT NULL UNIQUE,
				display_name TEXT NOT NULL,
				password_hash TEXT NOT NULL,
				is_admin INTEGER NOT NULL DEFAULT 0,
				disabled INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			);

			CREATE TABLE auth_sessions (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL REFERENCES staff_users(id),
				token TEXT NOT NULL UNIQUE,
				expires_at TEXT NOT NULL,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				revoked_at TEXT
			);
		`,
	},
}

// Migrate applies all pending migrations against the pool's database.
func Migrate(ctx context.Context, pool *ConnectionPool, logger *slog.Logger) error {
	manager := migration.NewManager(migration.NewExecutor(pool.DB()), Migrations, logger)
	return manager.Run(ctx)
}
