package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/example/event-dashboard/internal/persistence"
)

func verifyStub(hash, password string) error {
	if hash == password {
		return nil
	}
	return fmt.Errorf("password mismatch")
}

func newAuthFixture(staff *staffRepoStub) *AuthService {
	return NewAuthService(staff, staff, verifyStub, sequentialIDs("token"), func() time.Time { return fixedTime }, time.Hour)
}

func staffAccount(id, email, password string, admin, disabled bool) persistence.StaffUser {
	return persistence.StaffUser{
		ID:           id,
		Email:        email,
		DisplayName:  "Staff",
		PasswordHash: password,
		IsAdmin:      admin,
		Disabled:     disabled,
		CreatedAt:    fixedTime,
		UpdatedAt:    fixedTime,
	}
}

func TestAuthService_Authenticate_IssuesSession(t *testing.T) {
	t.Parallel()

	staff := newStaffRepoStub(staffAccount("user-1", "ops@example.com", "secret", true, false))
	svc := newAuthFixture(staff)

	result, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "  Ops@Example.COM ", Password: "secret"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.User.ID != "user-1" {
		t.Errorf("expected user-1, got %s", result.User.ID)
	}
	if result.Session.Token == "" {
		t.Fatal("expected a session token")
	}
	if !result.Session.ExpiresAt.Equal(fixedTime.Add(time.Hour)) {
		t.Errorf("expected expiry one hour out, got %v", result.Session.ExpiresAt)
	}
	if _, ok := staff.sessions[result.Session.Token]; !ok {
		t.Error("expected session to be persisted")
	}
}

func TestAuthService_Authenticate_RejectsBadPassword(t *testing.T) {
	t.Parallel()

	staff := newStaffRepoStub(staffAccount("user-1", "ops@example.com", "secret", false, false))
	svc := newAuthFixture(staff)

	_, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "ops@example.com", Password: "wrong"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Authenticate_RejectsDisabledAccount(t *testing.T) {
	t.Parallel()

	staff := newStaffRepoStub(staffAccount("user-1", "ops@example.com", "secret", false, true))
	svc := newAuthFixture(staff)

	_, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "ops@example.com", Password: "secret"})
	if !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}
}

func TestAuthService_ValidateSession(t *testing.T) {
	t.Parallel()

	revokedAt := fixedTime.Add(-time.Minute)
	staff := newStaffRepoStub(
		staffAccount("user-1", "ops@example.com", "secret", true, false),
		staffAccount("user-2", "gone@example.com", "secret", false, true),
	)
	staff.sessions["token-live"] = persistence.AuthSession{ID: "s1", UserID: "user-1", Token: "token-live", ExpiresAt: fixedTime.Add(time.Hour)}
	staff.sessions["token-expired"] = persistence.AuthSession{ID: "s2", UserID: "user-1", Token: "token-expired", ExpiresAt: fixedTime.Add(-time.Hour)}
	staff.sessions["token-revoked"] = persistence.AuthSession{ID: "s3", UserID: "user-1", Token: "token-revoked", ExpiresAt: fixedTime.Add(time.Hour), RevokedAt: &revokedAt}
	staff.sessions["token-disabled"] = persistence.AuthSession{ID: "s4", UserID: "user-2", Token: "token-disabled", ExpiresAt: fixedTime.Add(time.Hour)}

	svc := newAuthFixture(staff)

	cases := []struct {
		name    string
		token   string
		wantErr error
		admin   bool
	}{
		{name: "live session", token: "token-live", admin: true},
		{name: "expired session", token: "token-expired", wantErr: ErrSessionExpired},
		{name: "revoked session", token: "token-revoked", wantErr: ErrSessionRevoked},
		{name: "disabled account", token: "token-disabled", wantErr: ErrAccountDisabled},
		{name: "unknown token", token: "token-missing", wantErr: ErrUnauthorized},
		{name: "empty token", token: "", wantErr: ErrUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			principal, err := svc.ValidateSession(context.Background(), tc.token)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if principal.UserID != "user-1" || principal.IsAdmin != tc.admin {
				t.Errorf("unexpected principal %+v", principal)
			}
		})
	}
}

func TestAuthService_RevokeSession(t *testing.T) {
	t.Parallel()

	staff := newStaffRepoStub(staffAccount("user-1", "ops@example.com", "secret", false, false))
	staff.sessions["token-live"] = persistence.AuthSession{ID: "s1", UserID: "user-1", Token: "token-live", ExpiresAt: fixedTime.Add(time.Hour)}
	svc := newAuthFixture(staff)

	if err := svc.RevokeSession(context.Background(), "token-live"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.ValidateSession(context.Background(), "token-live"); !errors.Is(err, ErrSessionRevoked) {
		t.Fatalf("expected ErrSessionRevoked after revocation, got %v", err)
	}
}

func TestAuthService_PruneExpiredSessions(t *testing.T) {
	t.Parallel()

	staff := newStaffRepoStub(staffAccount("user-1", "ops@example.com", "secret", false, false))
	staff.sessions["token-old"] = persistence.AuthSession{ID: "s1", UserID: "user-1", Token: "token-old", ExpiresAt: fixedTime.Add(-time.Hour)}
	staff.sessions["token-live"] = persistence.AuthSession{ID: "s2", UserID: "user-1", Token: "token-live", ExpiresAt: fixedTime.Add(time.Hour)}
	svc := newAuthFixture(staff)

	if err := svc.PruneExpiredSessions(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := staff.sessions["token-old"]; ok {
		t.Error("expected expired session to be removed")
	}
	if _, ok := staff.sessions["token-live"]; !ok {
		t.Error("live session must survive pruning")
	}
}

func TestAuthService_CreateStaffUser_RequiresAdmin(t *testing.T) {
	t.Parallel()

	staff := newStaffRepoStub()
	svc := newAuthFixture(staff)

	_, err := svc.CreateStaffUser(context.Background(), Principal{UserID: "user-1"}, "new@example.com", "New Staff", "longenough", false)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAuthService_CreateStaffUser_ValidatesPasswordLength(t *testing.T) {
	t.Parallel()

	staff := newStaffRepoStub()
	svc := newAuthFixture(staff)

	_, err := svc.CreateStaffUser(context.Background(), Principal{UserID: "admin-1", IsAdmin: true}, "new@example.com", "New Staff", "short", false)

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["password"]; !ok {
		t.Errorf("expected password field error, got %v", vErr.FieldErrors)
	}
}
