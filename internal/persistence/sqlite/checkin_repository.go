package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/event-dashboard/internal/persistence"
)

// CheckinRepository implements persistence.CheckinRepository using SQLite.
// The attendee upsert and attendance log append share one transaction so a
// failed log write never leaves a half-applied scan.
type CheckinRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewCheckinRepository creates a new SQLite check-in repository.
func NewCheckinRepository(pool *ConnectionPool) *CheckinRepository {
	return &CheckinRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// ApplyCheckin persists the resolved attendee state and the log entry atomically.
func (r *CheckinRepository) ApplyCheckin(ctx context.Context, attendee persistence.Attendee, created bool, logEntry persistence.AttendanceLogEntry) (persistence.CheckinResult, error) {
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if created {
			query := `
				INSERT INTO attendees (` + attendeeColumns + `)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`
			if _, err := r.helper.ExecTx(tx, query, attendeeArgs(attendee)...); err != nil {
				return r.mapper.MapError(err)
			}
		} else {
			const query = `
				UPDATE attendees
				SET current_room_id = ?, analytics_room_id = ?, is_checked_in = ?,
					scan_count = ?, updated_at = ?
				WHERE id = ?
			`
			result, err := r.helper.ExecTx(tx, query,
				nullableString(attendee.CurrentRoomID),
				nullableString(attendee.AnalyticsRoomID),
				boolToInt(attendee.IsCheckedIn),
				attendee.ScanCount,
				formatTime(attendee.UpdatedAt),
				attendee.ID,
			)
			if err != nil {
				return r.mapper.MapError(err)
			}
			affected, err := result.RowsAffected()
			if err != nil {
				return err
			}
			if affected == 0 {
				return persistence.ErrNotFound
			}
		}

		const logQuery = `
			INSERT INTO attendance_log (id, attendee_id, room_id, action, created_at)
			VALUES (?, ?, ?, ?, ?)
		`
		if _, err := r.helper.ExecTx(tx, logQuery,
			logEntry.ID,
			logEntry.AttendeeID,
			logEntry.RoomID,
			logEntry.Action,
			formatTime(logEntry.CreatedAt),
		); err != nil {
			return r.mapper.MapError(err)
		}
		return nil
	})
	if err != nil {
		return persistence.CheckinResult{}, err
	}

	return persistence.CheckinResult{
		Attendee: attendee,
		Created:  created,
		Action:   logEntry.Action,
	}, nil
}

// ListAttendanceLog returns log entries, newest first, optionally scoped to
// one attendee.
func (r *CheckinRepository) ListAttendanceLog(ctx context.Context, attendeeID string) ([]persistence.AttendanceLogEntry, error) {
	query := `SELECT id, attendee_id, room_id, action, created_at FROM attendance_log`
	args := []any{}
	if attendeeID != "" {
		query += " WHERE attendee_id = ?"
		args = append(args, attendeeID)
	}
	query += " ORDER BY created_at DESC, id ASC"

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var entries []persistence.AttendanceLogEntry
	for rows.Next() {
		var entry persistence.AttendanceLogEntry
		var createdAt string
		if err := rows.Scan(&entry.ID, &entry.AttendeeID, &entry.RoomID, &entry.Action, &createdAt); err != nil {
			return nil, r.mapper.MapError(err)
		}
		if entry.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return entries, nil
}
