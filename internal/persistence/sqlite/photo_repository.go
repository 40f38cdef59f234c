package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/event-dashboard/internal/persistence"
)

// PhotoRepository implements persistence.PhotoRepository using SQLite.
type PhotoRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewPhotoRepository creates a new SQLite photo repository.
func NewPhotoRepository(pool *ConnectionPool) *PhotoRepository {
	return &PhotoRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreatePhoto inserts a new photo record.
func (r *PhotoRepository) CreatePhoto(ctx context.Context, photo persistence.Photo) error {
	if photo.ID == "" || photo.URL == "" {
		return persistence.ErrConstraintViolation
	}

	const query = `
		INSERT INTO photos (id, attendee_id, room_id, url, caption, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.helper.Exec(ctx, query,
		photo.ID,
		nullableString(photo.AttendeeID),
		nullableString(photo.RoomID),
		photo.URL,
		photo.Caption,
		formatTime(photo.CreatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// GetPhoto retrieves a photo record by ID.
func (r *PhotoRepository) GetPhoto(ctx context.Context, id string) (persistence.Photo, error) {
	if id == "" {
		return persistence.Photo{}, persistence.ErrNotFound
	}

	const query = `SELECT id, attendee_id, room_id, url, caption, created_at FROM photos WHERE id = ?`
	photo, err := scanPhoto(r.helper.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Photo{}, persistence.ErrNotFound
		}
		return persistence.Photo{}, r.mapper.MapError(err)
	}
	return photo, nil
}

// ListPhotos returns photo records, newest first.
func (r *PhotoRepository) ListPhotos(ctx context.Context) ([]persistence.Photo, error) {
	const query = `SELECT id, attendee_id, room_id, url, caption, created_at FROM photos ORDER BY created_at DESC, id ASC`
	rows, err := r.helper.Query(ctx, query)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var photos []persistence.Photo
	for rows.Next() {
		photo, err := scanPhoto(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		photos = append(photos, photo)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return photos, nil
}

// DeletePhoto removes a photo record by ID.
func (r *PhotoRepository) DeletePhoto(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx, "DELETE FROM photos WHERE id = ?", id)
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

func scanPhoto(scanner rowScanner) (persistence.Photo, error) {
	var photo persistence.Photo
	var attendeeID, roomID sql.NullString
	var createdAt string

	if err := scanner.Scan(&photo.ID, &attendeeID, &roomID, &photo.URL, &photo.Caption, &createdAt); err != nil {
		return persistence.Photo{}, err
	}

	photo.AttendeeID = stringPtr(attendeeID)
	photo.RoomID = stringPtr(roomID)
	var err error
	if photo.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return persistence.Photo{}, err
	}
	return photo, nil
}
