package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/event-dashboard/internal/persistence"
	"github.com/example/event-dashboard/internal/testfixtures"
)

func newTestPool(t *testing.T) *ConnectionPool {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "dashboard.db")
	pool, err := NewConnectionPool(dsn)
	if err != nil {
		t.Fatalf("failed to open pool: %v", err)
	}

	t.Cleanup(func() {
		_ = pool.Close()
	})

	if err := Migrate(context.Background(), pool, nil); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return pool
}

func seedRoom(t *testing.T, pool *ConnectionPool, opts ...testfixtures.RoomOption) persistence.Room {
	t.Helper()
	room := testfixtures.NewRoomFixture(opts...)
	if err := NewRoomRepository(pool).CreateRoom(context.Background(), room); err != nil {
		t.Fatalf("failed to seed room %s: %v", room.ID, err)
	}
	return room
}

func TestRoomRepository(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	repo := NewRoomRepository(pool)

	room := seedRoom(t, pool, testfixtures.WithRoomCapacity(100))

	fetched, err := repo.GetRoom(ctx, room.ID)
	if err != nil {
		t.Fatalf("GetRoom failed: %v", err)
	}
	if fetched.Name != room.Name || fetched.Capacity != 100 || fetched.IsArchived {
		t.Fatalf("unexpected room retrieved: %#v", fetched)
	}

	duplicate := testfixtures.NewRoomFixture()
	duplicate.Name = room.Name
	if err := repo.CreateRoom(ctx, duplicate); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for reused name, got %v", err)
	}

	fetched.Capacity = 120
	fetched.UpdatedAt = fetched.UpdatedAt.Add(time.Minute)
	if err := repo.UpdateRoom(ctx, fetched); err != nil {
		t.Fatalf("UpdateRoom failed: %v", err)
	}

	updated, err := repo.GetRoom(ctx, room.ID)
	if err != nil {
		t.Fatalf("GetRoom after update failed: %v", err)
	}
	if updated.Capacity != 120 {
		t.Fatalf("expected capacity 120, got %d", updated.Capacity)
	}

	if _, err := repo.GetRoom(ctx, "missing"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAttendeeRepositoryBadgeLookup(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	repo := NewAttendeeRepository(pool)

	attendee := testfixtures.NewAttendeeFixture()
	if err := repo.CreateAttendee(ctx, attendee); err != nil {
		t.Fatalf("CreateAttendee failed: %v", err)
	}

	byQR, err := repo.FindAttendeeByBadge(ctx, attendee.QRCode, "")
	if err != nil {
		t.Fatalf("FindAttendeeByBadge by QR failed: %v", err)
	}
	if byQR.ID != attendee.ID {
		t.Fatalf("expected %s, got %s", attendee.ID, byQR.ID)
	}

	byEmail, err := repo.FindAttendeeByBadge(ctx, "unknown-qr", attendee.Email)
	if err != nil {
		t.Fatalf("FindAttendeeByBadge by email failed: %v", err)
	}
	if byEmail.ID != attendee.ID {
		t.Fatalf("expected email fallback to %s, got %s", attendee.ID, byEmail.ID)
	}

	if _, err := repo.FindAttendeeByBadge(ctx, "nope", "nobody@example.com"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCheckinRepositoryAppliesAtomically(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	attendees := NewAttendeeRepository(pool)
	checkins := NewCheckinRepository(pool)
	now := testfixtures.ReferenceTime()

	room := seedRoom(t, pool)
	attendee := testfixtures.NewAttendeeFixture(testfixtures.CheckedInto(room.ID))
	logEntry := persistence.AttendanceLogEntry{
		ID:         "log-1",
		AttendeeID: attendee.ID,
		RoomID:     room.ID,
		Action:     "check_in",
		CreatedAt:  now,
	}

	result, err := checkins.ApplyCheckin(ctx, attendee, true, logEntry)
	if err != nil {
		t.Fatalf("ApplyCheckin insert failed: %v", err)
	}
	if !result.Created || result.Action != "check_in" {
		t.Fatalf("unexpected result: %#v", result)
	}

	stored, err := attendees.GetAttendee(ctx, attendee.ID)
	if err != nil {
		t.Fatalf("GetAttendee failed: %v", err)
	}
	if stored.CurrentRoomID == nil || *stored.CurrentRoomID != room.ID || stored.ScanCount != 1 {
		t.Fatalf("unexpected attendee state: %#v", stored)
	}

	stored.ScanCount = 2
	stored.UpdatedAt = now.Add(time.Minute)
	secondLog := persistence.AttendanceLogEntry{
		ID:         "log-2",
		AttendeeID: attendee.ID,
		RoomID:     room.ID,
		Action:     "room_change",
		CreatedAt:  now.Add(time.Minute),
	}
	if _, err := checkins.ApplyCheckin(ctx, stored, false, secondLog); err != nil {
		t.Fatalf("ApplyCheckin update failed: %v", err)
	}

	entries, err := checkins.ListAttendanceLog(ctx, attendee.ID)
	if err != nil {
		t.Fatalf("ListAttendanceLog failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	if entries[0].ID != "log-2" {
		t.Fatalf("expected newest entry first, got %s", entries[0].ID)
	}

	missing := stored
	missing.ID = "att-missing"
	if _, err := checkins.ApplyCheckin(ctx, missing, false, persistence.AttendanceLogEntry{
		ID: "log-3", AttendeeID: "att-missing", RoomID: room.ID, Action: "room_change", CreatedAt: now,
	}); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown attendee, got %v", err)
	}
}

func TestArchiveRepositoryRetiresRoom(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	rooms := NewRoomRepository(pool)
	attendees := NewAttendeeRepository(pool)
	sessions := NewSessionRepository(pool)
	alerts := NewAlertRepository(pool)
	archives := NewArchiveRepository(pool)
	now := testfixtures.ReferenceTime()

	room := seedRoom(t, pool, testfixtures.WithRoomCapacity(100))

	attendee := testfixtures.NewAttendeeFixture(
		testfixtures.CheckedInto(room.ID),
		testfixtures.WithDemographics(36, ""),
	)
	if err := attendees.CreateAttendee(ctx, attendee); err != nil {
		t.Fatalf("CreateAttendee failed: %v", err)
	}
	session := testfixtures.NewSessionFixture(room.ID)
	if err := sessions.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if err := alerts.CreateAlert(ctx, persistence.Alert{
		ID: "alert-1", RoomID: room.ID, Type: "overcrowding", Severity: "high",
		Message: "room is at 95 of 100 capacity", IsActive: true, CreatedAt: now,
	}); err != nil {
		t.Fatalf("CreateAlert failed: %v", err)
	}

	snapshot := persistence.SavedRoom{
		ID:            "archive-1",
		RoomID:        room.ID,
		RoomName:      room.Name,
		Capacity:      room.Capacity,
		AttendeeCount: 1,
		GenderCounts:  map[string]int{"unknown": 1},
		AgeBuckets:    map[string]int{"35-44": 1},
		Attendees: []persistence.SavedAttendee{{
			AttendeeID: attendee.ID,
			Name:       attendee.Name,
			Age:        attendee.Age,
			ScanCount:  attendee.ScanCount,
		}},
		ArchivedAt: now,
	}
	if err := archives.ArchiveRoom(ctx, snapshot); err != nil {
		t.Fatalf("ArchiveRoom failed: %v", err)
	}

	retired, err := rooms.GetRoom(ctx, room.ID)
	if err != nil {
		t.Fatalf("GetRoom failed: %v", err)
	}
	if !retired.IsArchived {
		t.Fatal("expected room to be archived")
	}

	reset, err := attendees.GetAttendee(ctx, attendee.ID)
	if err != nil {
		t.Fatalf("GetAttendee failed: %v", err)
	}
	if reset.IsCheckedIn || reset.CurrentRoomID != nil || reset.AnalyticsRoomID != nil {
		t.Fatalf("expected attendee fully reset, got %#v", reset)
	}

	active, err := alerts.ListActiveAlerts(ctx, room.ID)
	if err != nil {
		t.Fatalf("ListActiveAlerts failed: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expected no active alerts, got %d", len(active))
	}

	archivedSessions, err := sessions.ListSessions(ctx, persistence.SessionFilter{RoomID: room.ID, IncludeArchived: true})
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(archivedSessions) != 1 || !archivedSessions[0].IsArchived {
		t.Fatalf("expected archived session, got %#v", archivedSessions)
	}

	stored, err := archives.GetSavedRoom(ctx, "archive-1")
	if err != nil {
		t.Fatalf("GetSavedRoom failed: %v", err)
	}
	if stored.AttendeeCount != 1 || stored.GenderCounts["unknown"] != 1 || stored.AgeBuckets["35-44"] != 1 {
		t.Fatalf("unexpected snapshot: %#v", stored)
	}
	if len(stored.Attendees) != 1 || stored.Attendees[0].AttendeeID != attendee.ID {
		t.Fatalf("expected snapshot attendees, got %#v", stored.Attendees)
	}

	// Archiving twice fails because the live room is already retired.
	snapshot.ID = "archive-2"
	if err := archives.ArchiveRoom(ctx, snapshot); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for already archived room, got %v", err)
	}
}

func TestStaffRepositorySessionLifecycle(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	repo := NewStaffRepository(pool)
	now := testfixtures.ReferenceTime()

	user := persistence.StaffUser{
		ID:           "user-1",
		Email:        "ops@example.com",
		DisplayName:  "Ops",
		PasswordHash: "hash",
		IsAdmin:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := repo.CreateStaffUser(ctx, user); err != nil {
		t.Fatalf("CreateStaffUser failed: %v", err)
	}

	byEmail, err := repo.GetStaffUserByEmail(ctx, "ops@example.com")
	if err != nil {
		t.Fatalf("GetStaffUserByEmail failed: %v", err)
	}
	if byEmail.ID != "user-1" || !byEmail.IsAdmin {
		t.Fatalf("unexpected user: %#v", byEmail)
	}

	session := persistence.AuthSession{
		ID:        "sess-1",
		UserID:    "user-1",
		Token:     "token-abc",
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := repo.CreateAuthSession(ctx, session); err != nil {
		t.Fatalf("CreateAuthSession failed: %v", err)
	}

	fetched, err := repo.GetAuthSession(ctx, "token-abc")
	if err != nil {
		t.Fatalf("GetAuthSession failed: %v", err)
	}
	if fetched.UserID != "user-1" || fetched.RevokedAt != nil {
		t.Fatalf("unexpected session: %#v", fetched)
	}

	revoked, err := repo.RevokeAuthSession(ctx, "token-abc", now.Add(time.Minute))
	if err != nil {
		t.Fatalf("RevokeAuthSession failed: %v", err)
	}
	if revoked.RevokedAt == nil {
		t.Fatal("expected revoked timestamp")
	}

	expired := persistence.AuthSession{
		ID:        "sess-2",
		UserID:    "user-1",
		Token:     "token-old",
		ExpiresAt: now.Add(-time.Hour),
		CreatedAt: now.Add(-2 * time.Hour),
		UpdatedAt: now.Add(-2 * time.Hour),
	}
	if _, err := repo.CreateAuthSession(ctx, expired); err != nil {
		t.Fatalf("CreateAuthSession for expired failed: %v", err)
	}
	if err := repo.DeleteExpiredAuthSessions(ctx, now); err != nil {
		t.Fatalf("DeleteExpiredAuthSessions failed: %v", err)
	}
	if _, err := repo.GetAuthSession(ctx, "token-old"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected expired session removed, got %v", err)
	}
}

func TestRetryHelperRetriesLockContention(t *testing.T) {
	ctx := context.Background()
	helper := NewRetryHelper(RetryConfig{
		MaxRetries:    3,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
	})

	calls := 0
	err := helper.WithRetry(ctx, func() error {
		calls++
		if calls < 3 {
			return errors.New("database is locked")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected contention to clear, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}

	calls = 0
	err = helper.WithRetry(ctx, func() error {
		calls++
		return errors.New("UNIQUE constraint failed: rooms.name")
	})
	if !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate without retrying, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt for a constraint failure, got %d", calls)
	}
}

func TestWithTransactionRetriesLockedWrites(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)

	attempts := 0
	err := pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		attempts++
		if attempts == 1 {
			return errors.New("database is locked")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected the retried transaction to commit, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}

	notFound := pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		return persistence.ErrNotFound
	})
	if !errors.Is(notFound, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound to pass through, got %v", notFound)
	}
}

func TestSessionRepositoryWindowFilter(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	sessions := NewSessionRepository(pool)
	base := testfixtures.ReferenceTime()

	room := seedRoom(t, pool)
	early := testfixtures.NewSessionFixture(room.ID,
		testfixtures.WithSessionWindow(base, base.Add(time.Hour)))
	inside := testfixtures.NewSessionFixture(room.ID,
		testfixtures.WithSessionWindow(base.Add(90*time.Minute), base.Add(2*time.Hour)))
	late := testfixtures.NewSessionFixture(room.ID,
		testfixtures.WithSessionWindow(base.Add(3*time.Hour), base.Add(4*time.Hour)))
	for _, session := range []persistence.Session{early, inside, late} {
		if err := sessions.CreateSession(ctx, session); err != nil {
			t.Fatalf("CreateSession %s failed: %v", session.ID, err)
		}
	}

	from := base.Add(time.Hour)
	to := base.Add(3 * time.Hour)
	got, err := sessions.ListSessions(ctx, persistence.SessionFilter{
		RoomID:       room.ID,
		StartsBefore: &to,
		EndsAfter:    &from,
	})
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}

	// Half-open bounds: early ends exactly at from and late starts exactly
	// at to, so neither touches the window.
	if len(got) != 1 || got[0].ID != inside.ID {
		t.Fatalf("expected only %s inside the window, got %#v", inside.ID, got)
	}
}
