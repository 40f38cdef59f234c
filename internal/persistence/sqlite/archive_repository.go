package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/event-dashboard/internal/persistence"
)

// ArchiveRepository implements persistence.ArchiveRepository using SQLite.
type ArchiveRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewArchiveRepository creates a new SQLite archive repository.
func NewArchiveRepository(pool *ConnectionPool) *ArchiveRepository {
	return &ArchiveRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// ArchiveRoom stores the snapshot and retires the live room in one
// transaction: the room and its sessions are flagged archived, its active
// alerts deactivated, and affected attendees checked out with both room
// references cleared.
func (r *ArchiveRepository) ArchiveRoom(ctx context.Context, snapshot persistence.SavedRoom) error {
	if snapshot.ID == "" || snapshot.RoomID == "" {
		return persistence.ErrConstraintViolation
	}

	genderCounts, err := json.Marshal(nonNilCounts(snapshot.GenderCounts))
	if err != nil {
		return fmt.Errorf("failed to encode gender counts: %w", err)
	}
	ageBuckets, err := json.Marshal(nonNilCounts(snapshot.AgeBuckets))
	if err != nil {
		return fmt.Errorf("failed to encode age buckets: %w", err)
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		const insertSnapshot = `
			INSERT INTO saved_rooms (id, room_id, room_name, capacity, attendee_count, gender_counts, age_buckets, archived_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`
		if _, err := r.helper.ExecTx(tx, insertSnapshot,
			snapshot.ID,
			snapshot.RoomID,
			snapshot.RoomName,
			snapshot.Capacity,
			snapshot.AttendeeCount,
			string(genderCounts),
			string(ageBuckets),
			formatTime(snapshot.ArchivedAt),
		); err != nil {
			return r.mapper.MapError(err)
		}

		const insertAttendee = `
			INSERT INTO saved_room_attendees (saved_room_id, attendee_id, name, age, gender, scan_count)
			VALUES (?, ?, ?, ?, ?, ?)
		`
		for _, attendee := range snapshot.Attendees {
			if _, err := r.helper.ExecTx(tx, insertAttendee,
				snapshot.ID,
				attendee.AttendeeID,
				attendee.Name,
				nullableInt(attendee.Age),
				attendee.Gender,
				attendee.ScanCount,
			); err != nil {
				return r.mapper.MapError(err)
			}
		}

		archivedAt := formatTime(snapshot.ArchivedAt)

		result, err := r.helper.ExecTx(tx,
			"UPDATE rooms SET is_archived = 1, updated_at = ? WHERE id = ? AND is_archived = 0",
			archivedAt, snapshot.RoomID,
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

		if _, err := r.helper.ExecTx(tx,
			"UPDATE sessions SET is_archived = 1, updated_at = ? WHERE room_id = ?",
			archivedAt, snapshot.RoomID,
		); err != nil {
			return r.mapper.MapError(err)
		}

		if _, err := r.helper.ExecTx(tx,
			"UPDATE alerts SET is_active = 0 WHERE room_id = ?",
			snapshot.RoomID,
		); err != nil {
			return r.mapper.MapError(err)
		}

		// Archival is the one flow that clears analytics_room_id.
		if _, err := r.helper.ExecTx(tx,
			"UPDATE attendees SET current_room_id = NULL, is_checked_in = 0, updated_at = ? WHERE current_room_id = ?",
			archivedAt, snapshot.RoomID,
		); err != nil {
			return r.mapper.MapError(err)
		}
		if _, err := r.helper.ExecTx(tx,
			"UPDATE attendees SET analytics_room_id = NULL, updated_at = ? WHERE analytics_room_id = ?",
			archivedAt, snapshot.RoomID,
		); err != nil {
			return r.mapper.MapError(err)
		}

		return nil
	})
}

// GetSavedRoom retrieves a snapshot with its attendee rows.
func (r *ArchiveRepository) GetSavedRoom(ctx context.Context, id string) (persistence.SavedRoom, error) {
	if id == "" {
		return persistence.SavedRoom{}, persistence.ErrNotFound
	}

	const query = `
		SELECT id, room_id, room_name, capacity, attendee_count, gender_counts, age_buckets, archived_at
		FROM saved_rooms
		WHERE id = ?
	`
	snapshot, err := scanSavedRoom(r.helper.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.SavedRoom{}, persistence.ErrNotFound
		}
		return persistence.SavedRoom{}, r.mapper.MapError(err)
	}

	attendees, err := r.savedAttendees(ctx, id)
	if err != nil {
		return persistence.SavedRoom{}, err
	}
	snapshot.Attendees = attendees
	return snapshot, nil
}

// ListSavedRooms returns snapshots newest first, without attendee rows.
func (r *ArchiveRepository) ListSavedRooms(ctx context.Context) ([]persistence.SavedRoom, error) {
	const query = `
		SELECT id, room_id, room_name, capacity, attendee_count, gender_counts, age_buckets, archived_at
		FROM saved_rooms
		ORDER BY archived_at DESC, id ASC
	`
	rows, err := r.helper.Query(ctx, query)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var snapshots []persistence.SavedRoom
	for rows.Next() {
		snapshot, err := scanSavedRoom(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return snapshots, nil
}

func (r *ArchiveRepository) savedAttendees(ctx context.Context, savedRoomID string) ([]persistence.SavedAttendee, error) {
	const query = `
		SELECT attendee_id, name, age, gender, scan_count
		FROM saved_room_attendees
		WHERE saved_room_id = ?
		ORDER BY name ASC, attendee_id ASC
	`
	rows, err := r.helper.Query(ctx, query, savedRoomID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var attendees []persistence.SavedAttendee
	for rows.Next() {
		var attendee persistence.SavedAttendee
		var age sql.NullInt64
		if err := rows.Scan(&attendee.AttendeeID, &attendee.Name, &age, &attendee.Gender, &attendee.ScanCount); err != nil {
			return nil, r.mapper.MapError(err)
		}
		attendee.Age = intPtr(age)
		attendees = append(attendees, attendee)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return attendees, nil
}

func scanSavedRoom(scanner rowScanner) (persistence.SavedRoom, error) {
	var snapshot persistence.SavedRoom
	var genderCounts, ageBuckets, archivedAt string

	err := scanner.Scan(
		&snapshot.ID,
		&snapshot.RoomID,
		&snapshot.RoomName,
		&snapshot.Capacity,
		&snapshot.AttendeeCount,
		&genderCounts,
		&ageBuckets,
		&archivedAt,
	)
	if err != nil {
		return persistence.SavedRoom{}, err
	}

	if err := json.Unmarshal([]byte(genderCounts), &snapshot.GenderCounts); err != nil {
		return persistence.SavedRoom{}, fmt.Errorf("failed to decode gender counts: %w", err)
	}
	if err := json.Unmarshal([]byte(ageBuckets), &snapshot.AgeBuckets); err != nil {
		return persistence.SavedRoom{}, fmt.Errorf("failed to decode age buckets: %w", err)
	}
	if snapshot.ArchivedAt, err = parseTime(archivedAt, "archived_at"); err != nil {
		return persistence.SavedRoom{}, err
	}
	return snapshot, nil
}

func nonNilCounts(counts map[string]int) map[string]int {
	if counts == nil {
		return map[string]int{}
	}
	return counts
}
