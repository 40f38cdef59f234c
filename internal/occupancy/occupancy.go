// Package occupancy derives room utilisation figures from the live attendee
// collection. All functions are pure; callers pass whatever snapshot of
// attendees they hold and recompute on demand.
package occupancy

// Status classifies how full a room is relative to its capacity.
type Status string

const (
	// StatusNormal indicates occupancy at or below 70% of capacity.
	StatusNormal Status = "normal"
	// StatusWarning indicates occupancy above 70% of capacity.
	StatusWarning Status = "warning"
	// StatusCritical indicates occupancy above 90% of capacity.
	StatusCritical Status = "critical"
)

// Presence is the attendee subset the calculator needs.
type Presence struct {
	RoomID    string
	CheckedIn bool
}

// CurrentOccupancy counts attendees currently checked in to the given room.
func CurrentOccupancy(roomID string, attendees []Presence) int {
	if roomID == "" {
		return 0
	}
	count := 0
	for _, attendee := range attendees {
		if attendee.CheckedIn && attendee.RoomID == roomID {
			count++
		}
	}
	return count
}

// Classify maps an occupancy/capacity pair onto a status bucket.
//
// The thresholds are strict: occupancy must exceed 90% (or 70%) of capacity
// to escalate, so a room at exactly 90% reports warning, not critical. The
// comparison multiplies instead of dividing so a capacity of zero classifies
// any positive occupancy as critical rather than dividing by zero.
func Classify(occupancy, capacity int) Status {
	if occupancy <= 0 {
		return StatusNormal
	}
	switch {
	case occupancy*10 > capacity*9:
		return StatusCritical
	case occupancy*10 > capacity*7:
		return StatusWarning
	default:
		return StatusNormal
	}
}

// Report bundles the derived values for a single room.
type Report struct {
	RoomID           string
	CurrentOccupancy int
	Status           Status
}

// ReportFor computes the full derived view for one room.
func ReportFor(roomID string, capacity int, attendees []Presence) Report {
	count := CurrentOccupancy(roomID, attendees)
	return Report{
		RoomID:           roomID,
		CurrentOccupancy: count,
		Status:           Classify(count, capacity),
	}
}
