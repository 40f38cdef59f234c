package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/event-dashboard/internal/persistence"
)

func newAnalyticsFixture(rooms *roomRepoStub, attendees *attendeeRepoStub, sessions *sessionRepoStub) (*AnalyticsService, *photoRepoStub, *notifierStub) {
	photos := newPhotoRepoStub()
	notifier := &notifierStub{}
	svc := NewAnalyticsService(rooms, attendees, sessions, photos, notifier, sequentialIDs("photo"), func() time.Time { return fixedTime })
	return svc, photos, notifier
}

func TestAnalyticsService_EventOverview_CountsAnalyticsPopulation(t *testing.T) {
	t.Parallel()

	rooms := newRoomRepoStub(persistence.Room{ID: "room-1", Name: "Main Hall", Capacity: 10})
	attendees := newAttendeeRepoStub(
		persistence.Attendee{ID: "att-1", Name: "Ada", Age: intPtr(36), Gender: "female", AnalyticsRoomID: strPtr("room-1"), CurrentRoomID: strPtr("room-1"), IsCheckedIn: true, RegisteredAt: fixedTime},
		persistence.Attendee{ID: "att-2", Name: "Grace", Age: intPtr(21), Gender: "female", AnalyticsRoomID: strPtr("room-1"), RegisteredAt: fixedTime},
		persistence.Attendee{ID: "att-3", Name: "Walkup", RegisteredAt: fixedTime},
	)
	sessions := newSessionRepoStub(sessionAt("session-1", "room-1", 1, 2))
	svc, _, _ := newAnalyticsFixture(rooms, attendees, sessions)

	overview, err := svc.EventOverview(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if overview.TotalAttendees != 3 {
		t.Errorf("expected 3 attendees, got %d", overview.TotalAttendees)
	}
	if overview.CheckedIn != 1 {
		t.Errorf("expected 1 checked in, got %d", overview.CheckedIn)
	}
	if overview.TotalRooms != 1 || overview.TotalSessions != 1 {
		t.Errorf("unexpected totals: rooms=%d sessions=%d", overview.TotalRooms, overview.TotalSessions)
	}

	// Demographics cover only attendees counted toward a room; the
	// never-scanned walkup stays out of both partitions.
	if got := overview.GenderCounts["female"]; got != 2 {
		t.Errorf("expected 2 female, got %d", got)
	}
	total := 0
	for _, count := range overview.GenderCounts {
		total += count
	}
	if total != 2 {
		t.Errorf("expected demographics over 2 attendees, got %d", total)
	}
	if got := overview.AgeBuckets["18-24"]; got != 1 {
		t.Errorf("expected 1 in 18-24, got %d", got)
	}
}

func TestAnalyticsService_EventOverview_CachesUntilInvalidated(t *testing.T) {
	t.Parallel()

	rooms := newRoomRepoStub(persistence.Room{ID: "room-1", Name: "Main Hall", Capacity: 10})
	attendees := newAttendeeRepoStub()
	sessions := newSessionRepoStub()
	svc, _, _ := newAnalyticsFixture(rooms, attendees, sessions)

	first, err := svc.EventOverview(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A change behind the cache's back is not visible until invalidation.
	attendees.attendees["att-1"] = persistence.Attendee{ID: "att-1", Name: "Ada", RegisteredAt: fixedTime}

	cached, err := svc.EventOverview(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cached.TotalAttendees != first.TotalAttendees {
		t.Fatalf("expected cached overview, got %d attendees", cached.TotalAttendees)
	}

	svc.InvalidateOverview()

	fresh, err := svc.EventOverview(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fresh.TotalAttendees != 1 {
		t.Errorf("expected rebuilt overview with 1 attendee, got %d", fresh.TotalAttendees)
	}
}

func TestAnalyticsService_AddPhoto_ValidatesURL(t *testing.T) {
	t.Parallel()

	svc, _, _ := newAnalyticsFixture(newRoomRepoStub(), newAttendeeRepoStub(), newSessionRepoStub())

	_, err := svc.AddPhoto(context.Background(), Principal{UserID: "staff-1"}, PhotoInput{Caption: "no url"})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["url"]; !ok {
		t.Errorf("expected url field error, got %v", vErr.FieldErrors)
	}
}

func TestAnalyticsService_PhotoLifecycle(t *testing.T) {
	t.Parallel()

	svc, photos, notifier := newAnalyticsFixture(newRoomRepoStub(), newAttendeeRepoStub(), newSessionRepoStub())

	photo, err := svc.AddPhoto(context.Background(), Principal{UserID: "staff-1"}, PhotoInput{URL: "https://cdn.example.com/p/1.jpg", Caption: "Keynote crowd"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !notifier.saw("photos/created/" + photo.ID) {
		t.Errorf("expected photo created notification, got %v", notifier.events)
	}

	if err := svc.DeletePhoto(context.Background(), Principal{UserID: "staff-1"}, photo.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := photos.photos[photo.ID]; ok {
		t.Error("expected photo record removed")
	}
}
