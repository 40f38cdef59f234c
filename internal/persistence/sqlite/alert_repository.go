package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/event-dashboard/internal/persistence"
)

// AlertRepository implements persistence.AlertRepository using SQLite.
type AlertRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewAlertRepository creates a new SQLite alert repository.
func NewAlertRepository(pool *ConnectionPool) *AlertRepository {
	return &AlertRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateAlert inserts a new alert.
func (r *AlertRepository) CreateAlert(ctx context.Context, alert persistence.Alert) error {
	if alert.ID == "" {
		return persistence.ErrConstraintViolation
	}

	const query = `
		INSERT INTO alerts (id, room_id, type, severity, message, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.helper.Exec(ctx, query,
		alert.ID,
		alert.RoomID,
		alert.Type,
		alert.Severity,
		alert.Message,
		boolToInt(alert.IsActive),
		formatTime(alert.CreatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// GetAlert retrieves an alert by ID.
func (r *AlertRepository) GetAlert(ctx context.Context, id string) (persistence.Alert, error) {
	if id == "" {
		return persistence.Alert{}, persistence.ErrNotFound
	}

	const query = `SELECT id, room_id, type, severity, message, is_active, created_at FROM alerts WHERE id = ?`
	alert, err := scanAlert(r.helper.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Alert{}, persistence.ErrNotFound
		}
		return persistence.Alert{}, r.mapper.MapError(err)
	}
	return alert, nil
}

// ListActiveAlerts returns active alerts, newest first. An empty roomID
// lists alerts across all rooms.
func (r *AlertRepository) ListActiveAlerts(ctx context.Context, roomID string) ([]persistence.Alert, error) {
	query := `SELECT id, room_id, type, severity, message, is_active, created_at FROM alerts WHERE is_active = 1`
	args := []any{}
	if roomID != "" {
		query += " AND room_id = ?"
		args = append(args, roomID)
	}
	query += " ORDER BY created_at DESC, id ASC"

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var alerts []persistence.Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		alerts = append(alerts, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return alerts, nil
}

// DeactivateAlert clears an alert's active flag.
func (r *AlertRepository) DeactivateAlert(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx, "UPDATE alerts SET is_active = 0 WHERE id = ?", id)
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

func scanAlert(scanner rowScanner) (persistence.Alert, error) {
	var alert persistence.Alert
	var active int
	var createdAt string

	if err := scanner.Scan(&alert.ID, &alert.RoomID, &alert.Type, &alert.Severity, &alert.Message, &active, &createdAt); err != nil {
		return persistence.Alert{}, err
	}

	alert.IsActive = active != 0
	var err error
	if alert.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return persistence.Alert{}, err
	}
	return alert, nil
}
