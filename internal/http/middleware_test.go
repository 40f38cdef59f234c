package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/event-dashboard/internal/application"
)

type sessionValidatorStub struct {
	principal application.Principal
	err       error
	lastToken string
}

func (s *sessionValidatorStub) ValidateSession(ctx context.Context, token string) (application.Principal, error) {
	s.lastToken = token
	if s.err != nil {
		return application.Principal{}, s.err
	}
	return s.principal, nil
}

func TestRequireSession(t *testing.T) {
	t.Parallel()

	t.Run("rejects requests without a token", func(t *testing.T) {
		t.Parallel()

		handler := RequireSession(&sessionValidatorStub{}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("next handler must not run without credentials")
		}))

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/rooms", nil))

		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", recorder.Code)
		}
	})

	t.Run("maps invalid sessions to 401", func(t *testing.T) {
		t.Parallel()

		cases := []struct {
			name       string
			err        error
			wantStatus int
			wantCode   string
		}{
			{name: "expired", err: application.ErrSessionExpired, wantStatus: http.StatusUnauthorized, wantCode: "AUTH_SESSION_EXPIRED"},
			{name: "revoked", err: application.ErrSessionRevoked, wantStatus: http.StatusUnauthorized, wantCode: "AUTH_SESSION_EXPIRED"},
			{name: "unknown token", err: application.ErrUnauthorized, wantStatus: http.StatusUnauthorized, wantCode: "AUTH_SESSION_EXPIRED"},
			{name: "disabled account", err: application.ErrAccountDisabled, wantStatus: http.StatusForbidden, wantCode: "AUTH_ACCOUNT_DISABLED"},
		}

		for _, tc := range cases {
			tc := tc
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				handler := RequireSession(&sessionValidatorStub{err: tc.err}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					t.Fatal("next handler must not run for invalid sessions")
				}))

				req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
				req.Header.Set("Authorization", "Bearer some-token")
				recorder := httptest.NewRecorder()
				handler.ServeHTTP(recorder, req)

				if recorder.Code != tc.wantStatus {
					t.Fatalf("expected %d, got %d", tc.wantStatus, recorder.Code)
				}
				var body errorResponse
				if err := json.NewDecoder(recorder.Body).Decode(&body); err != nil {
					t.Fatalf("failed to decode error body: %v", err)
				}
				if body.ErrorCode != tc.wantCode {
					t.Errorf("expected error code %s, got %s", tc.wantCode, body.ErrorCode)
				}
			})
		}
	})

	t.Run("attaches the principal to the request context", func(t *testing.T) {
		t.Parallel()

		validator := &sessionValidatorStub{principal: application.Principal{UserID: "user-1", IsAdmin: true}}

		var captured application.Principal
		handler := RequireSession(validator, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				t.Fatal("expected principal in context")
			}
			captured = principal
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
		req.AddCookie(&http.Cookie{Name: "session_token", Value: "cookie-token"})
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}
		if captured.UserID != "user-1" || !captured.IsAdmin {
			t.Errorf("unexpected principal %+v", captured)
		}
		if validator.lastToken != "cookie-token" {
			t.Errorf("expected cookie token to reach the validator, got %q", validator.lastToken)
		}
	})

	t.Run("prefers the bearer header over the cookie", func(t *testing.T) {
		t.Parallel()

		validator := &sessionValidatorStub{principal: application.Principal{UserID: "user-1"}}
		handler := RequireSession(validator, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
		req.Header.Set("Authorization", "Bearer header-token")
		req.AddCookie(&http.Cookie{Name: "session_token", Value: "cookie-token"})
		handler.ServeHTTP(httptest.NewRecorder(), req)

		if validator.lastToken != "header-token" {
			t.Errorf("expected header token to win, got %q", validator.lastToken)
		}
	})
}
