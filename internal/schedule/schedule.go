// Package schedule contains the pure session-scheduling logic: conflict
// detection between room bookings and time-relation queries over a session
// collection. Callers hand in whatever snapshot of sessions they hold; the
// package keeps no state.
package schedule

import (
	"sort"
	"time"
)

// Session is the scheduling-relevant subset of a conference session.
type Session struct {
	ID     string
	RoomID string
	Title  string
	Start  time.Time
	End    time.Time
}

// Overlaps reports whether two half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Back-to-back intervals, where one ends exactly
// when the other starts, do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// FindConflict returns the session that conflicts with the candidate, if any.
// Only sessions in the candidate's room are considered, and excludeID skips
// one session so edits-in-place do not conflict with themselves.
//
// Candidates are examined in (start, id) ascending order so the earliest
// conflicting session wins regardless of how the input slice is ordered.
func FindConflict(existing []Session, candidate Session, excludeID string) (Session, bool) {
	if candidate.RoomID == "" {
		return Session{}, false
	}

	ordered := sortedByStart(existing)
	for _, session := range ordered {
		if session.RoomID != candidate.RoomID {
			continue
		}
		if excludeID != "" && session.ID == excludeID {
			continue
		}
		if Overlaps(candidate.Start, candidate.End, session.Start, session.End) {
			return session, true
		}
	}
	return Session{}, false
}

// CurrentForRoom returns the session in the room that spans now, meaning
// start <= now <= end. If overlapping sessions slipped into storage the
// earliest by (start, id) wins.
func CurrentForRoom(sessions []Session, roomID string, now time.Time) (Session, bool) {
	for _, session := range ForRoom(sessions, roomID) {
		if !session.Start.After(now) && !session.End.Before(now) {
			return session, true
		}
	}
	return Session{}, false
}

// NextForRoom returns the room's session with the smallest start time
// strictly after now, tie-broken by lowest id.
func NextForRoom(sessions []Session, roomID string, now time.Time) (Session, bool) {
	for _, session := range ForRoom(sessions, roomID) {
		if session.Start.After(now) {
			return session, true
		}
	}
	return Session{}, false
}

// ForRoom returns the room's sessions sorted ascending by start time, then id.
func ForRoom(sessions []Session, roomID string) []Session {
	if roomID == "" {
		return nil
	}
	matched := make([]Session, 0, len(sessions))
	for _, session := range sessions {
		if session.RoomID == roomID {
			matched = append(matched, session)
		}
	}
	if len(matched) == 0 {
		return nil
	}
	sortByStart(matched)
	return matched
}

func sortedByStart(sessions []Session) []Session {
	out := make([]Session, len(sessions))
	copy(out, sessions)
	sortByStart(out)
	return out
}

func sortByStart(sessions []Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		if sessions[i].Start.Equal(sessions[j].Start) {
			return sessions[i].ID < sessions[j].ID
		}
		return sessions[i].Start.Before(sessions[j].Start)
	})
}
