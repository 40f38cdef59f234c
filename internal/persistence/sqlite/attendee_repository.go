package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/event-dashboard/internal/persistence"
)

// AttendeeRepository implements persistence.AttendeeRepository using SQLite.
type AttendeeRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewAttendeeRepository creates a new SQLite attendee repository.
func NewAttendeeRepository(pool *ConnectionPool) *AttendeeRepository {
	return &AttendeeRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const attendeeColumns = `id, name, email, qr_code, age, gender, current_room_id, analytics_room_id, is_checked_in, scan_count, registered_at, updated_at`

// CreateAttendee inserts a new attendee.
func (r *AttendeeRepository) CreateAttendee(ctx context.Context, attendee persistence.Attendee) error {
	if attendee.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO attendees (` + attendeeColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.helper.Exec(ctx, query, attendeeArgs(attendee)...)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// UpdateAttendee updates an existing attendee.
func (r *AttendeeRepository) UpdateAttendee(ctx context.Context, attendee persistence.Attendee) error {
	if attendee.ID == "" {
		return persistence.ErrConstraintViolation
	}

	const query = `
		UPDATE attendees
		SET name = ?, email = ?, qr_code = ?, age = ?, gender = ?,
			current_room_id = ?, analytics_room_id = ?, is_checked_in = ?,
			scan_count = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.helper.Exec(ctx, query,
		attendee.Name,
		attendee.Email,
		attendee.QRCode,
		nullableInt(attendee.Age),
		attendee.Gender,
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
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// GetAttendee retrieves an attendee by ID.
func (r *AttendeeRepository) GetAttendee(ctx context.Context, id string) (persistence.Attendee, error) {
	if id == "" {
		return persistence.Attendee{}, persistence.ErrNotFound
	}

	query := `SELECT ` + attendeeColumns + ` FROM attendees WHERE id = ?`
	attendee, err := scanAttendee(r.helper.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Attendee{}, persistence.ErrNotFound
		}
		return persistence.Attendee{}, r.mapper.MapError(err)
	}
	return attendee, nil
}

// FindAttendeeByBadge resolves an attendee by QR code first, then email.
func (r *AttendeeRepository) FindAttendeeByBadge(ctx context.Context, qrCode, email string) (persistence.Attendee, error) {
	if qrCode != "" {
		query := `SELECT ` + attendeeColumns + ` FROM attendees WHERE qr_code = ?`
		attendee, err := scanAttendee(r.helper.QueryRow(ctx, query, qrCode))
		if err == nil {
			return attendee, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return persistence.Attendee{}, r.mapper.MapError(err)
		}
	}

	if email != "" {
		query := `SELECT ` + attendeeColumns + ` FROM attendees WHERE email = ?`
		attendee, err := scanAttendee(r.helper.QueryRow(ctx, query, email))
		if err == nil {
			return attendee, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return persistence.Attendee{}, r.mapper.MapError(err)
		}
	}

	return persistence.Attendee{}, persistence.ErrNotFound
}

// ListAttendees returns attendees ordered by registration time then ID.
func (r *AttendeeRepository) ListAttendees(ctx context.Context) ([]persistence.Attendee, error) {
	query := `SELECT ` + attendeeColumns + ` FROM attendees ORDER BY registered_at ASC, id ASC`
	rows, err := r.helper.Query(ctx, query)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var attendees []persistence.Attendee
	for rows.Next() {
		attendee, err := scanAttendee(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		attendees = append(attendees, attendee)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return attendees, nil
}

// DeleteAttendee removes an attendee and their attendance log entries.
func (r *AttendeeRepository) DeleteAttendee(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := r.helper.ExecTx(tx, "DELETE FROM attendance_log WHERE attendee_id = ?", id); err != nil {
			return r.mapper.MapError(err)
		}
		if _, err := r.helper.ExecTx(tx, "UPDATE photos SET attendee_id = NULL WHERE attendee_id = ?", id); err != nil {
			return r.mapper.MapError(err)
		}

		result, err := r.helper.ExecTx(tx, "DELETE FROM attendees WHERE id = ?", id)
		if err != nil {
			return r.mapper.MapError(err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}
		return nil
	})
}

func attendeeArgs(attendee persistence.Attendee) []any {
	return []any{
		attendee.ID,
		attendee.Name,
		attendee.Email,
		attendee.QRCode,
		nullableInt(attendee.Age),
		attendee.Gender,
		nullableString(attendee.CurrentRoomID),
		nullableString(attendee.AnalyticsRoomID),
		boolToInt(attendee.IsCheckedIn),
		attendee.ScanCount,
		formatTime(attendee.RegisteredAt),
		formatTime(attendee.UpdatedAt),
	}
}

func scanAttendee(scanner rowScanner) (persistence.Attendee, error) {
	var attendee persistence.Attendee
	var age sql.NullInt64
	var currentRoom, analyticsRoom sql.NullString
	var checkedIn int
	var registeredAt, updatedAt string

	err := scanner.Scan(
		&attendee.ID,
		&attendee.Name,
		&attendee.Email,
		&attendee.QRCode,
		&age,
		&attendee.Gender,
		&currentRoom,
		&analyticsRoom,
		&checkedIn,
		&attendee.ScanCount,
		&registeredAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Attendee{}, err
	}

	attendee.Age = intPtr(age)
	attendee.CurrentRoomID = stringPtr(currentRoom)
	attendee.AnalyticsRoomID = stringPtr(analyticsRoom)
	attendee.IsCheckedIn = checkedIn != 0

	if attendee.RegisteredAt, err = parseTime(registeredAt, "registered_at"); err != nil {
		return persistence.Attendee{}, err
	}
	if attendee.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return persistence.Attendee{}, err
	}
	return attendee, nil
}
