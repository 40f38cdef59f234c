package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/event-dashboard/internal/persistence"
)

func newCheckinFixture(rooms *roomRepoStub, attendees *attendeeRepoStub) (*CheckinService, *checkinRepoStub, *notifierStub) {
	checkins := newCheckinRepoStub(attendees)
	notifier := &notifierStub{}
	svc := NewCheckinService(attendees, rooms, checkins, notifier, sequentialIDs("id"), func() time.Time { return fixedTime })
	return svc, checkins, notifier
}

func TestCheckinService_Scan_FirstScanCreatesAttendee(t *testing.T) {
	t.Parallel()

	rooms := newRoomRepoStub(persistence.Room{ID: "room-1", Name: "Main Hall", Capacity: 100})
	attendees := newAttendeeRepoStub()
	svc, checkins, notifier := newCheckinFixture(rooms, attendees)

	result, err := svc.Scan(context.Background(), ScanParams{
		Principal:  Principal{UserID: "staff-1"},
		RoomID:     "room-1",
		RawPayload: `{"qr_code":"qr-42","name":"Ada Lovelace","email":"ada@example.com","age":36,"gender":"female"}`,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Created {
		t.Error("expected a newly created attendee")
	}
	if result.Action != ActionCheckIn {
		t.Errorf("expected action %q, got %q", ActionCheckIn, result.Action)
	}
	if result.Attendee.AnalyticsRoomID == nil || *result.Attendee.AnalyticsRoomID != "room-1" {
		t.Errorf("expected analytics room room-1, got %v", result.Attendee.AnalyticsRoomID)
	}
	if result.Attendee.CurrentRoomID == nil || *result.Attendee.CurrentRoomID != "room-1" {
		t.Errorf("expected current room room-1, got %v", result.Attendee.CurrentRoomID)
	}
	if !result.Attendee.IsCheckedIn {
		t.Error("expected attendee to be checked in")
	}
	if result.Attendee.ScanCount != 1 {
		t.Errorf("expected scan count 1, got %d", result.Attendee.ScanCount)
	}
	if len(checkins.logs) != 1 || checkins.logs[0].Action != string(ActionCheckIn) {
		t.Fatalf("expected one check_in log entry, got %+v", checkins.logs)
	}
	if !notifier.saw("attendees/created/" + result.Attendee.ID) {
		t.Errorf("expected attendee created notification, got %v", notifier.events)
	}
}

func TestCheckinService_Scan_FirstRoomKeepsAnalyticsAssignment(t *testing.T) {
	t.Parallel()

	rooms := newRoomRepoStub(
		persistence.Room{ID: "room-1", Name: "Main Hall", Capacity: 100},
		persistence.Room{ID: "room-2", Name: "Workshop", Capacity: 30},
	)
	attendees := newAttendeeRepoStub()
	svc, checkins, _ := newCheckinFixture(rooms, attendees)

	payload := `{"qr_code":"qr-42","name":"Ada Lovelace"}`
	first, err := svc.Scan(context.Background(), ScanParams{RoomID: "room-1", RawPayload: payload})
	if err != nil {
		t.Fatalf("first scan failed: %v", err)
	}
	second, err := svc.Scan(context.Background(), ScanParams{RoomID: "room-2", RawPayload: payload})
	if err != nil {
		t.Fatalf("second scan failed: %v", err)
	}

	if second.Created {
		t.Error("second scan must reuse the existing attendee")
	}
	if second.Attendee.ID != first.Attendee.ID {
		t.Errorf("expected same attendee across scans, got %s and %s", first.Attendee.ID, second.Attendee.ID)
	}
	if second.Action != ActionRoomChange {
		t.Errorf("expected action %q, got %q", ActionRoomChange, second.Action)
	}
	if second.Attendee.AnalyticsRoomID == nil || *second.Attendee.AnalyticsRoomID != "room-1" {
		t.Errorf("analytics room must stay room-1, got %v", second.Attendee.AnalyticsRoomID)
	}
	if second.Attendee.CurrentRoomID == nil || *second.Attendee.CurrentRoomID != "room-2" {
		t.Errorf("current room must follow the scan, got %v", second.Attendee.CurrentRoomID)
	}
	if second.Attendee.ScanCount != 2 {
		t.Errorf("expected scan count 2, got %d", second.Attendee.ScanCount)
	}
	if len(checkins.logs) != 2 || checkins.logs[1].Action != string(ActionRoomChange) {
		t.Fatalf("expected room_change log entry, got %+v", checkins.logs)
	}
}

func TestCheckinService_Scan_MalformedPayloadBecomesGuest(t *testing.T) {
	t.Parallel()

	rooms := newRoomRepoStub(persistence.Room{ID: "room-1", Name: "Main Hall", Capacity: 100})
	attendees := newAttendeeRepoStub()
	svc, _, _ := newCheckinFixture(rooms, attendees)

	raw := "not json at all"
	first, err := svc.Scan(context.Background(), ScanParams{RoomID: "room-1", RawPayload: raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !first.Created {
		t.Fatal("expected a synthetic guest to be created")
	}
	if first.Attendee.Name != "Guest" {
		t.Errorf("expected guest name, got %q", first.Attendee.Name)
	}
	if first.Attendee.QRCode != raw {
		t.Errorf("expected raw payload as badge key, got %q", first.Attendee.QRCode)
	}

	// The same bad badge resolves to the same guest record.
	second, err := svc.Scan(context.Background(), ScanParams{RoomID: "room-1", RawPayload: raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Created || second.Attendee.ID != first.Attendee.ID {
		t.Errorf("expected repeated scans to reuse guest %s, got created=%v id=%s", first.Attendee.ID, second.Created, second.Attendee.ID)
	}
}

func TestCheckinService_Scan_RejectsEmptyPayload(t *testing.T) {
	t.Parallel()

	rooms := newRoomRepoStub(persistence.Room{ID: "room-1", Name: "Main Hall", Capacity: 100})
	svc, _, _ := newCheckinFixture(rooms, newAttendeeRepoStub())

	_, err := svc.Scan(context.Background(), ScanParams{RoomID: "room-1", RawPayload: "   "})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["payload"]; !ok {
		t.Errorf("expected payload field error, got %v", vErr.FieldErrors)
	}
}

func TestCheckinService_Scan_RejectsArchivedRoom(t *testing.T) {
	t.Parallel()

	rooms := newRoomRepoStub(persistence.Room{ID: "room-1", Name: "Main Hall", Capacity: 100, IsArchived: true})
	svc, _, _ := newCheckinFixture(rooms, newAttendeeRepoStub())

	_, err := svc.Scan(context.Background(), ScanParams{RoomID: "room-1", RawPayload: `{"qr_code":"qr-1"}`})
	if !errors.Is(err, ErrRoomArchived) {
		t.Fatalf("expected ErrRoomArchived, got %v", err)
	}
}

func TestCheckinService_Scan_RejectsUnknownRoom(t *testing.T) {
	t.Parallel()

	svc, _, _ := newCheckinFixture(newRoomRepoStub(), newAttendeeRepoStub())

	_, err := svc.Scan(context.Background(), ScanParams{RoomID: "missing", RawPayload: `{"qr_code":"qr-1"}`})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["room_id"]; !ok {
		t.Errorf("expected room_id field error, got %v", vErr.FieldErrors)
	}
}
