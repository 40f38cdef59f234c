package occupancy

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		name      string
		occupancy int
		capacity  int
		want      Status
	}{
		{name: "empty room is normal", occupancy: 0, capacity: 100, want: StatusNormal},
		{name: "70 of 100 stays normal", occupancy: 70, capacity: 100, want: StatusNormal},
		{name: "71 of 100 is warning", occupancy: 71, capacity: 100, want: StatusWarning},
		{name: "90 of 100 stays warning", occupancy: 90, capacity: 100, want: StatusWarning},
		{name: "91 of 100 is critical", occupancy: 91, capacity: 100, want: StatusCritical},
		{name: "over capacity is critical", occupancy: 120, capacity: 100, want: StatusCritical},
		{name: "zero capacity with occupants is critical", occupancy: 1, capacity: 0, want: StatusCritical},
		{name: "zero capacity empty is normal", occupancy: 0, capacity: 0, want: StatusNormal},
		{name: "small room boundary", occupancy: 7, capacity: 10, want: StatusNormal},
		{name: "small room warning", occupancy: 8, capacity: 10, want: StatusWarning},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.occupancy, tc.capacity); got != tc.want {
				t.Fatalf("Classify(%d, %d) = %q, want %q", tc.occupancy, tc.capacity, got, tc.want)
			}
		})
	}
}

func TestCurrentOccupancy(t *testing.T) {
	attendees := []Presence{
		{RoomID: "room-1", CheckedIn: true},
		{RoomID: "room-1", CheckedIn: true},
		{RoomID: "room-1", CheckedIn: false},
		{RoomID: "room-2", CheckedIn: true},
		{RoomID: "", CheckedIn: true},
	}

	t.Run("counts checked-in attendees in the room", func(t *testing.T) {
		if got := CurrentOccupancy("room-1", attendees); got != 2 {
			t.Fatalf("expected occupancy 2, got %d", got)
		}
	})

	t.Run("ignores other rooms and unassigned attendees", func(t *testing.T) {
		if got := CurrentOccupancy("room-2", attendees); got != 1 {
			t.Fatalf("expected occupancy 1, got %d", got)
		}
	})

	t.Run("empty room id never matches", func(t *testing.T) {
		if got := CurrentOccupancy("", attendees); got != 0 {
			t.Fatalf("expected occupancy 0, got %d", got)
		}
	})
}

func TestReportFor(t *testing.T) {
	attendees := make([]Presence, 0, 95)
	for i := 0; i < 95; i++ {
		attendees = append(attendees, Presence{RoomID: "hall", CheckedIn: true})
	}

	report := ReportFor("hall", 100, attendees)
	if report.CurrentOccupancy != 95 {
		t.Fatalf("expected occupancy 95, got %d", report.CurrentOccupancy)
	}
	if report.Status != StatusCritical {
		t.Fatalf("expected critical status, got %q", report.Status)
	}
}
