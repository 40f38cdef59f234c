package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/example/event-dashboard/internal/persistence"
)

// StaffRepository implements persistence.StaffRepository and
// persistence.AuthSessionRepository using SQLite.
type StaffRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewStaffRepository creates a new SQLite staff repository.
func NewStaffRepository(pool *ConnectionPool) *StaffRepository {
	return &StaffRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const staffColumns = `id, email, display_name, password_hash, is_admin, disabled, created_at, updated_at`

// CreateStaffUser inserts a new staff account.
func (r *StaffRepository) CreateStaffUser(ctx context.Context, user persistence.StaffUser) error {
	if user.ID == "" || user.Email == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO staff_users (` + staffColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.helper.Exec(ctx, query,
		user.ID,
		strings.ToLower(user.Email),
		user.DisplayName,
		user.PasswordHash,
		boolToInt(user.IsAdmin),
		boolToInt(user.Disabled),
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// GetStaffUser retrieves a staff account by ID.
func (r *StaffRepository) GetStaffUser(ctx context.Context, id string) (persistence.StaffUser, error) {
	if id == "" {
		return persistence.StaffUser{}, persistence.ErrNotFound
	}
	query := `SELECT ` + staffColumns + ` FROM staff_users WHERE id = ?`
	return r.getStaffUser(ctx, query, id)
}

// GetStaffUserByEmail retrieves a staff account by email, case-insensitively.
func (r *StaffRepository) GetStaffUserByEmail(ctx context.Context, email string) (persistence.StaffUser, error) {
	if email == "" {
		return persistence.StaffUser{}, persistence.ErrNotFound
	}
	query := `SELECT ` + staffColumns + ` FROM staff_users WHERE email = ?`
	return r.getStaffUser(ctx, query, strings.ToLower(email))
}

// ListStaffUsers returns staff accounts ordered by email.
func (r *StaffRepository) ListStaffUsers(ctx context.Context) ([]persistence.StaffUser, error) {
	query := `SELECT ` + staffColumns + ` FROM staff_users ORDER BY email ASC, id ASC`
	rows, err := r.helper.Query(ctx, query)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var users []persistence.StaffUser
	for rows.Next() {
		user, err := scanStaffUser(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return users, nil
}

func (r *StaffRepository) getStaffUser(ctx context.Context, query string, arg any) (persistence.StaffUser, error) {
	user, err := scanStaffUser(r.helper.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.StaffUser{}, persistence.ErrNotFound
		}
		return persistence.StaffUser{}, r.mapper.MapError(err)
	}
	return user, nil
}

const authSessionColumns = `id, user_id, token, expires_at, created_at, updated_at, revoked_at`

// CreateAuthSession inserts a new session token.
func (r *StaffRepository) CreateAuthSession(ctx context.Context, session persistence.AuthSession) (persistence.AuthSession, error) {
	if session.ID == "" || session.Token == "" {
		return persistence.AuthSession{}, persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO auth_sessions (` + authSessionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.helper.Exec(ctx, query,
		session.ID,
		session.UserID,
		session.Token,
		formatTime(session.ExpiresAt),
		formatTime(session.CreatedAt),
		formatTime(session.UpdatedAt),
		nullableTime(session.RevokedAt),
	)
	if err != nil {
		return persistence.AuthSession{}, r.mapper.MapError(err)
	}
	return session, nil
}

// GetAuthSession retrieves a session by token.
func (r *StaffRepository) GetAuthSession(ctx context.Context, token string) (persistence.AuthSession, error) {
	if token == "" {
		return persistence.AuthSession{}, persistence.ErrNotFound
	}

	query := `SELECT ` + authSessionColumns + ` FROM auth_sessions WHERE token = ?`
	session, err := scanAuthSession(r.helper.QueryRow(ctx, query, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.AuthSession{}, persistence.ErrNotFound
		}
		return persistence.AuthSession{}, r.mapper.MapError(err)
	}
	return session, nil
}

// RevokeAuthSession stamps a session revoked and returns the updated row.
func (r *StaffRepository) RevokeAuthSession(ctx context.Context, token string, revokedAt time.Time) (persistence.AuthSession, error) {
	if token == "" {
		return persistence.AuthSession{}, persistence.ErrNotFound
	}

	const query = `UPDATE auth_sessions SET revoked_at = ?, updated_at = ? WHERE token = ?`
	result, err := r.helper.Exec(ctx, query, formatTime(revokedAt), formatTime(revokedAt), token)
	if err != nil {
		return persistence.AuthSession{}, r.mapper.MapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.AuthSession{}, err
	}
	if affected == 0 {
		return persistence.AuthSession{}, persistence.ErrNotFound
	}
	return r.GetAuthSession(ctx, token)
}

// DeleteExpiredAuthSessions prunes sessions whose expiry has passed.
func (r *StaffRepository) DeleteExpiredAuthSessions(ctx context.Context, reference time.Time) error {
	_, err := r.helper.Exec(ctx, "DELETE FROM auth_sessions WHERE expires_at <= ?", formatTime(reference))
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

func scanStaffUser(scanner rowScanner) (persistence.StaffUser, error) {
	var user persistence.StaffUser
	var admin, disabled int
	var createdAt, updatedAt string

	err := scanner.Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.PasswordHash,
		&admin,
		&disabled,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.StaffUser{}, err
	}

	user.IsAdmin = admin != 0
	user.Disabled = disabled != 0
	if user.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return persistence.StaffUser{}, err
	}
	if user.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return persistence.StaffUser{}, err
	}
	return user, nil
}

func scanAuthSession(scanner rowScanner) (persistence.AuthSession, error) {
	var session persistence.AuthSession
	var expiresAt, createdAt, updatedAt string
	var revokedAt sql.NullString

	err := scanner.Scan(
		&session.ID,
		&session.UserID,
		&session.Token,
		&expiresAt,
		&createdAt,
		&updatedAt,
		&revokedAt,
	)
	if err != nil {
		return persistence.AuthSession{}, err
	}

	if session.ExpiresAt, err = parseTime(expiresAt, "expires_at"); err != nil {
		return persistence.AuthSession{}, err
	}
	if session.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return persistence.AuthSession{}, err
	}
	if session.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return persistence.AuthSession{}, err
	}
	if session.RevokedAt, err = timePtr(revokedAt, "revoked_at"); err != nil {
		return persistence.AuthSession{}, err
	}
	return session, nil
}
