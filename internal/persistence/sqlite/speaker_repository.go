package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/event-dashboard/internal/persistence"
)

// SpeakerRepository implements persistence.SpeakerRepository using SQLite.
type SpeakerRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewSpeakerRepository creates a new SQLite speaker repository.
func NewSpeakerRepository(pool *ConnectionPool) *SpeakerRepository {
	return &SpeakerRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateSpeaker inserts a new speaker.
func (r *SpeakerRepository) CreateSpeaker(ctx context.Context, speaker persistence.Speaker) error {
	if speaker.ID == "" {
		return persistence.ErrConstraintViolation
	}

	const query = `
		INSERT INTO speakers (id, name, photo_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.helper.Exec(ctx, query,
		speaker.ID,
		speaker.Name,
		nullableString(speaker.PhotoURL),
		formatTime(speaker.CreatedAt),
		formatTime(speaker.UpdatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// UpdateSpeaker updates an existing speaker.
func (r *SpeakerRepository) UpdateSpeaker(ctx context.Context, speaker persistence.Speaker) error {
	if speaker.ID == "" {
		return persistence.ErrConstraintViolation
	}

	const query = `
		UPDATE speakers
		SET name = ?, photo_url = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.helper.Exec(ctx, query,
		speaker.Name,
		nullableString(speaker.PhotoURL),
		formatTime(speaker.UpdatedAt),
		speaker.ID,
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

// GetSpeaker retrieves a speaker by ID.
func (r *SpeakerRepository) GetSpeaker(ctx context.Context, id string) (persistence.Speaker, error) {
	if id == "" {
		return persistence.Speaker{}, persistence.ErrNotFound
	}

	const query = `SELECT id, name, photo_url, created_at, updated_at FROM speakers WHERE id = ?`
	speaker, err := scanSpeaker(r.helper.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Speaker{}, persistence.ErrNotFound
		}
		return persistence.Speaker{}, r.mapper.MapError(err)
	}
	return speaker, nil
}

// ListSpeakers returns all speakers ordered by name then ID.
func (r *SpeakerRepository) ListSpeakers(ctx context.Context) ([]persistence.Speaker, error) {
	const query = `SELECT id, name, photo_url, created_at, updated_at FROM speakers ORDER BY name ASC, id ASC`
	rows, err := r.helper.Query(ctx, query)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var speakers []persistence.Speaker
	for rows.Next() {
		speaker, err := scanSpeaker(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		speakers = append(speakers, speaker)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return speakers, nil
}

// DeleteSpeaker removes a speaker, detaching any sessions first.
func (r *SpeakerRepository) DeleteSpeaker(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := r.helper.ExecTx(tx, "UPDATE sessions SET speaker_id = NULL WHERE speaker_id = ?", id); err != nil {
			return r.mapper.MapError(err)
		}

		result, err := r.helper.ExecTx(tx, "DELETE FROM speakers WHERE id = ?", id)
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

func scanSpeaker(scanner rowScanner) (persistence.Speaker, error) {
	var speaker persistence.Speaker
	var photoURL sql.NullString
	var createdAt, updatedAt string

	if err := scanner.Scan(&speaker.ID, &speaker.Name, &photoURL, &createdAt, &updatedAt); err != nil {
		return persistence.Speaker{}, err
	}

	speaker.PhotoURL = stringPtr(photoURL)
	var err error
	if speaker.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return persistence.Speaker{}, err
	}
	if speaker.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return persistence.Speaker{}, err
	}
	return speaker, nil
}
