package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/event-dashboard/internal/persistence"
)

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier func(hashedPassword, password string) error

// AuthService coordinates staff authentication: login, session validation,
// and logout.
type AuthService struct {
	staff          persistence.StaffRepository
	sessions       persistence.AuthSessionRepository
	verifyPassword PasswordVerifier
	tokenGenerator func() string
	now            func() time.Time
	sessionTTL     time.Duration
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(staff persistence.StaffRepository, sessions persistence.AuthSessionRepository, verify PasswordVerifier, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration) *AuthService {
	return NewAuthServiceWithLogger(staff, sessions, verify, tokenGenerator, now, sessionTTL, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
func NewAuthServiceWithLogger(staff persistence.StaffRepository, sessions persistence.AuthSessionRepository, verify PasswordVerifier, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration, logger *slog.Logger) *AuthService {
	if verify == nil {
		verify = VerifyPassword
	}
	if tokenGenerator == nil {
		tokenGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if sessionTTL <= 0 {
		sessionTTL = 12 * time.Hour
	}
	return &AuthService{
		staff:          staff,
		sessions:       sessions,
		verifyPassword: verify,
		tokenGenerator: tokenGenerator,
		now:            now,
		sessionTTL:     sessionTTL,
		logger:         defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Authenticate validates credentials and issues a new session token.
func (s *AuthService) Authenticate(ctx context.Context, params AuthenticateParams) (result AuthenticateResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.staff == nil || s.sessions == nil {
		err = fmt.Errorf("auth service not fully configured")
		return
	}

	email := strings.TrimSpace(strings.ToLower(params.Email))
	password := params.Password

	logger := s.loggerWith(ctx, "Authenticate",
		"email", email,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "authentication failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"user_id", result.User.ID,
			"session_id", result.Session.ID,
		).InfoContext(ctx, "authentication succeeded")
	}()

	if email == "" || password == "" {
		err = ErrInvalidCredentials
		return
	}

	account, getErr := s.staff.GetStaffUserByEmail(ctx, email)
	if getErr != nil {
		if isNotFoundError(getErr) {
			err = ErrInvalidCredentials
			return
		}
		err = mapRepoError(getErr)
		return
	}

	if account.Disabled {
		err = ErrAccountDisabled
		return
	}

	if err = s.verifyPassword(account.PasswordHash, password); err != nil {
		err = ErrInvalidCredentials
		return
	}

	now := s.now().UTC()
	id := s.tokenGenerator()
	token := s.tokenGenerator()
	if token == "" {
		token = id
	}

	session := persistence.AuthSession{
		ID:        id,
		UserID:    account.ID,
		Token:     token,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}

	if err = s.sessions.DeleteExpiredAuthSessions(ctx, now); err != nil {
		err = mapRepoError(err)
		return
	}

	persisted, createErr := s.sessions.CreateAuthSession(ctx, session)
	if createErr != nil {
		err = mapRepoError(createErr)
		return
	}

	result = AuthenticateResult{
		User:    staffUserFromRecord(account),
		Session: authSessionFromRecord(persisted),
	}
	return
}

// ValidateSession verifies that the token belongs to an active session and
// returns the acting principal.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (principal Principal, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.staff == nil || s.sessions == nil {
		err = fmt.Errorf("auth service not fully configured")
		return
	}

	trimmed := strings.TrimSpace(token)
	logger := s.loggerWith(ctx, "ValidateSession", "token_provided", trimmed != "")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "session validation failed", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if trimmed == "" {
		err = ErrUnauthorized
		return
	}

	session, getErr := s.sessions.GetAuthSession(ctx, trimmed)
	if getErr != nil {
		if isNotFoundError(getErr) {
			err = ErrUnauthorized
			return
		}
		err = mapRepoError(getErr)
		return
	}

	now := s.now().UTC()
	if session.RevokedAt != nil && !session.RevokedAt.IsZero() {
		err = ErrSessionRevoked
		return
	}
	if !session.ExpiresAt.IsZero() && !session.ExpiresAt.After(now) {
		err = ErrSessionExpired
		return
	}

	account, userErr := s.staff.GetStaffUser(ctx, session.UserID)
	if userErr != nil {
		if isNotFoundError(userErr) {
			err = ErrUnauthorized
			return
		}
		err = mapRepoError(userErr)
		return
	}
	if account.Disabled {
		err = ErrAccountDisabled
		return
	}

	principal = Principal{UserID: account.ID, IsAdmin: account.IsAdmin}
	return
}

// RevokeSession invalidates an existing session token.
func (s *AuthService) RevokeSession(ctx context.Context, token string) error {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	if s.sessions == nil {
		return fmt.Errorf("session repository not configured")
	}

	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return ErrUnauthorized
	}

	logger := s.loggerWith(ctx, "RevokeSession", "token_provided", true)

	if _, err := s.sessions.RevokeAuthSession(ctx, trimmed, s.now().UTC()); err != nil {
		if isNotFoundError(err) {
			logger.ErrorContext(ctx, "failed to revoke session", "error", ErrUnauthorized, "error_kind", ErrorKind(ErrUnauthorized))
			return ErrUnauthorized
		}
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to revoke session", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "session revoked")
	return nil
}

// PruneExpiredSessions removes sessions past their expiry. Called from the
// background job runner.
func (s *AuthService) PruneExpiredSessions(ctx context.Context) error {
	if s == nil || s.sessions == nil {
		return fmt.Errorf("session repository not configured")
	}
	if err := s.sessions.DeleteExpiredAuthSessions(ctx, s.now().UTC()); err != nil {
		return mapRepoError(err)
	}
	return nil
}

// CreateStaffUser registers a staff account. Only administrators may create
// accounts; the bootstrap path in cmd seeds the first admin directly.
func (s *AuthService) CreateStaffUser(ctx context.Context, principal Principal, email, displayName, password string, isAdmin bool) (user StaffUser, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}

	email = strings.TrimSpace(strings.ToLower(email))
	logger := s.loggerWith(ctx, "CreateStaffUser",
		"principal_id", principal.UserID,
		"email", email,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create staff user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", user.ID).InfoContext(ctx, "staff user created")
	}()

	if !principal.IsAdmin {
		err = ErrUnauthorized
		return
	}
	if s.staff == nil {
		err = fmt.Errorf("staff repository not configured")
		return
	}

	vErr := &ValidationError{}
	if email == "" || !strings.Contains(email, "@") {
		vErr.add("email", "email must be a valid address")
	}
	if strings.TrimSpace(displayName) == "" {
		vErr.add("display_name", "display name is required")
	}
	if len(password) < 8 {
		vErr.add("password", "password must be at least 8 characters")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	hash, hashErr := CreatePasswordHash(password, DefaultArgon2idParams)
	if hashErr != nil {
		err = hashErr
		return
	}

	now := s.now().UTC()
	record := persistence.StaffUser{
		ID:           s.tokenGenerator(),
		Email:        email,
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: hash,
		IsAdmin:      isAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err = s.staff.CreateStaffUser(ctx, record); err != nil {
		err = mapRepoError(err)
		return
	}

	user = staffUserFromRecord(record)
	return
}
