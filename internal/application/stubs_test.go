package application

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/example/event-dashboard/internal/persistence"
)

// fixedTime is the reference instant tests run against.
var fixedTime = time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func sequentialIDs(prefix string) func() string {
	counter := 0
	return func() string {
		counter++
		return fmt.Sprintf("%s-%d", prefix, counter)
	}
}

type notifierStub struct {
	events []string
}

func (n *notifierStub) Notify(table, action, id string) {
	n.events = append(n.events, table+"/"+action+"/"+id)
}

func (n *notifierStub) saw(event string) bool {
	for _, got := range n.events {
		if got == event {
			return true
		}
	}
	return false
}

type roomRepoStub struct {
	rooms map[string]persistence.Room
	err   error
}

func newRoomRepoStub(rooms ...persistence.Room) *roomRepoStub {
	stub := &roomRepoStub{rooms: make(map[string]persistence.Room)}
	for _, room := range rooms {
		stub.rooms[room.ID] = room
	}
	return stub
}

func (r *roomRepoStub) CreateRoom(ctx context.Context, room persistence.Room) error {
	if r.err != nil {
		return r.err
	}
	if _, ok := r.rooms[room.ID]; ok {
		return persistence.ErrDuplicate
	}
	r.rooms[room.ID] = room
	return nil
}

func (r *roomRepoStub) UpdateRoom(ctx context.Context, room persistence.Room) error {
	if r.err != nil {
		return r.err
	}
	if _, ok := r.rooms[room.ID]; !ok {
		return persistence.ErrNotFound
	}
	r.rooms[room.ID] = room
	return nil
}

func (r *roomRepoStub) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	if r.err != nil {
		return persistence.Room{}, r.err
	}
	room, ok := r.rooms[id]
	if !ok {
		return persistence.Room{}, persistence.ErrNotFound
	}
	return room, nil
}

func (r *roomRepoStub) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make([]persistence.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		if room.IsArchived {
			continue
		}
		out = append(out, room)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *roomRepoStub) DeleteRoom(ctx context.Context, id string) error {
	if r.err != nil {
		return r.err
	}
	if _, ok := r.rooms[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(r.rooms, id)
	return nil
}

type attendeeRepoStub struct {
	attendees map[string]persistence.Attendee
	err       error
}

func newAttendeeRepoStub(attendees ...persistence.Attendee) *attendeeRepoStub {
	stub := &attendeeRepoStub{attendees: make(map[string]persistence.Attendee)}
	for _, attendee := range attendees {
		stub.attendees[attendee.ID] = attendee
	}
	return stub
}

func (r *attendeeRepoStub) CreateAttendee(ctx context.Context, attendee persistence.Attendee) error {
	if r.err != nil {
		return r.err
	}
	if _, ok := r.attendees[attendee.ID]; ok {
		return persistence.ErrDuplicate
	}
	r.attendees[attendee.ID] = attendee
	return nil
}

func (r *attendeeRepoStub) UpdateAttendee(ctx context.Context, attendee persistence.Attendee) error {
	if r.err != nil {
		return r.err
	}
	if _, ok := r.attendees[attendee.ID]; !ok {
		return persistence.ErrNotFound
	}
	r.attendees[attendee.ID] = attendee
	return nil
}

func (r *attendeeRepoStub) GetAttendee(ctx context.Context, id string) (persistence.Attendee, error) {
	if r.err != nil {
		return persistence.Attendee{}, r.err
	}
	attendee, ok := r.attendees[id]
	if !ok {
		return persistence.Attendee{}, persistence.ErrNotFound
	}
	return attendee, nil
}

func (r *attendeeRepoStub) FindAttendeeByBadge(ctx context.Context, qrCode, email string) (persistence.Attendee, error) {
	if r.err != nil {
		return persistence.Attendee{}, r.err
	}
	if qrCode != "" {
		for _, attendee := range r.attendees {
			if attendee.QRCode == qrCode {
				return attendee, nil
			}
		}
	}
	if email != "" {
		for _, attendee := range r.attendees {
			if attendee.Email == email {
				return attendee, nil
			}
		}
	}
	return persistence.Attendee{}, persistence.ErrNotFound
}

func (r *attendeeRepoStub) ListAttendees(ctx context.Context) ([]persistence.Attendee, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make([]persistence.Attendee, 0, len(r.attendees))
	for _, attendee := range r.attendees {
		out = append(out, attendee)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RegisteredAt.Equal(out[j].RegisteredAt) {
			return out[i].RegisteredAt.Before(out[j].RegisteredAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *attendeeRepoStub) DeleteAttendee(ctx context.Context, id string) error {
	if r.err != nil {
		return r.err
	}
	if _, ok := r.attendees[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(r.attendees, id)
	return nil
}

type sessionRepoStub struct {
	sessions   map[string]persistence.Session
	err        error
	lastFilter persistence.SessionFilter
}

func newSessionRepoStub(sessions ...persistence.Session) *sessionRepoStub {
	stub := &sessionRepoStub{sessions: make(map[string]persistence.Session)}
	for _, session := range sessions {
		stub.sessions[session.ID] = session
	}
	return stub
}

func (r *sessionRepoStub) CreateSession(ctx context.Context, session persistence.Session) error {
	if r.err != nil {
		return r.err
	}
	if _, ok := r.sessions[session.ID]; ok {
		return persistence.ErrDuplicate
	}
	r.sessions[session.ID] = session
	return nil
}

func (r *sessionRepoStub) UpdateSession(ctx context.Context, session persistence.Session) error {
	if r.err != nil {
		return r.err
	}
	if _, ok := r.sessions[session.ID]; !ok {
		return persistence.ErrNotFound
	}
	r.sessions[session.ID] = session
	return nil
}

func (r *sessionRepoStub) GetSession(ctx context.Context, id string) (persistence.Session, error) {
	if r.err != nil {
		return persistence.Session{}, r.err
	}
	session, ok := r.sessions[id]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return session, nil
}

func (r *sessionRepoStub) ListSessions(ctx context.Context, filter persistence.SessionFilter) ([]persistence.Session, error) {
	r.lastFilter = filter
	if r.err != nil {
		return nil, r.err
	}
	out := make([]persistence.Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		if filter.RoomID != "" && session.RoomID != filter.RoomID {
			continue
		}
		if session.IsArchived && !filter.IncludeArchived {
			continue
		}
		if filter.StartsBefore != nil && !session.Start.Before(*filter.StartsBefore) {
			continue
		}
		if filter.EndsAfter != nil && !session.End.After(*filter.EndsAfter) {
			continue
		}
		out = append(out, session)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *sessionRepoStub) DeleteSession(ctx context.Context, id string) error {
	if r.err != nil {
		return r.err
	}
	if _, ok := r.sessions[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(r.sessions, id)
	return nil
}

type speakerRepoStub struct {
	speakers map[string]persistence.Speaker
	err      error
}

func newSpeakerRepoStub(speakers ...persistence.Speaker) *speakerRepoStub {
	stub := &speakerRepoStub{speakers: make(map[string]persistence.Speaker)}
	for _, speaker := range speakers {
		stub.speakers[speaker.ID] = speaker
	}
	return stub
}

func (r *speakerRepoStub) CreateSpeaker(ctx context.Context, speaker persistence.Speaker) error {
	if r.err != nil {
		return r.err
	}
	r.speakers[speaker.ID] = speaker
	return nil
}

func (r *speakerRepoStub) UpdateSpeaker(ctx context.Context, speaker persistence.Speaker) error {
	if r.err != nil {
		return r.err
	}
	if _, ok := r.speakers[speaker.ID]; !ok {
		return persistence.ErrNotFound
	}
	r.speakers[speaker.ID] = speaker
	return nil
}

func (r *speakerRepoStub) GetSpeaker(ctx context.Context, id string) (persistence.Speaker, error) {
	if r.err != nil {
		return persistence.Speaker{}, r.err
	}
	speaker, ok := r.speakers[id]
	if !ok {
		return persistence.Speaker{}, persistence.ErrNotFound
	}
	return speaker, nil
}

func (r *speakerRepoStub) ListSpeakers(ctx context.Context) ([]persistence.Speaker, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make([]persistence.Speaker, 0, len(r.speakers))
	for _, speaker := range r.speakers {
		out = append(out, speaker)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *speakerRepoStub) DeleteSpeaker(ctx context.Context, id string) error {
	if r.err != nil {
		return r.err
	}
	if _, ok := r.speakers[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(r.speakers, id)
	return nil
}

type alertRepoStub struct {
	alerts map[string]persistence.Alert
	err    error
}

func newAlertRepoStub(alerts ...persistence.Alert) *alertRepoStub {
	stub := &alertRepoStub{alerts: make(map[string]persistence.Alert)}
	for _, alert := range alerts {
		stub.alerts[alert.ID] = alert
	}
	return stub
}

func (r *alertRepoStub) CreateAlert(ctx context.Context, alert persistence.Alert) error {
	if r.err != nil {
		return r.err
	}
	r.alerts[alert.ID] = alert
	return nil
}

func (r *alertRepoStub) GetAlert(ctx context.Context, id string) (persistence.Alert, error) {
	if r.err != nil {
		return persistence.Alert{}, r.err
	}
	alert, ok := r.alerts[id]
	if !ok {
		return persistence.Alert{}, persistence.ErrNotFound
	}
	return alert, nil
}

func (r *alertRepoStub) ListActiveAlerts(ctx context.Context, roomID string) ([]persistence.Alert, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make([]persistence.Alert, 0, len(r.alerts))
	for _, alert := range r.alerts {
		if !alert.IsActive {
			continue
		}
		if roomID != "" && alert.RoomID != roomID {
			continue
		}
		out = append(out, alert)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *alertRepoStub) DeactivateAlert(ctx context.Context, id string) error {
	if r.err != nil {
		return r.err
	}
	alert, ok := r.alerts[id]
	if !ok {
		return persistence.ErrNotFound
	}
	alert.IsActive = false
	r.alerts[id] = alert
	return nil
}

type checkinRepoStub struct {
	attendees *attendeeRepoStub
	logs      []persistence.AttendanceLogEntry
	err       error
}

func newCheckinRepoStub(attendees *attendeeRepoStub) *checkinRepoStub {
	return &checkinRepoStub{attendees: attendees}
}

func (r *checkinRepoStub) ApplyCheckin(ctx context.Context, attendee persistence.Attendee, created bool, logEntry persistence.AttendanceLogEntry) (persistence.CheckinResult, error) {
	if r.err != nil {
		return persistence.CheckinResult{}, r.err
	}
	if created {
		if err := r.attendees.CreateAttendee(ctx, attendee); err != nil {
			return persistence.CheckinResult{}, err
		}
	} else {
		if err := r.attendees.UpdateAttendee(ctx, attendee); err != nil {
			return persistence.CheckinResult{}, err
		}
	}
	r.logs = append(r.logs, logEntry)
	return persistence.CheckinResult{Attendee: attendee, Created: created, Action: logEntry.Action}, nil
}

func (r *checkinRepoStub) ListAttendanceLog(ctx context.Context, attendeeID string) ([]persistence.AttendanceLogEntry, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make([]persistence.AttendanceLogEntry, 0, len(r.logs))
	for _, entry := range r.logs {
		if entry.AttendeeID == attendeeID {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type archiveRepoStub struct {
	snapshots map[string]persistence.SavedRoom
	err       error
}

func newArchiveRepoStub() *archiveRepoStub {
	return &archiveRepoStub{snapshots: make(map[string]persistence.SavedRoom)}
}

func (r *archiveRepoStub) ArchiveRoom(ctx context.Context, snapshot persistence.SavedRoom) error {
	if r.err != nil {
		return r.err
	}
	r.snapshots[snapshot.ID] = snapshot
	return nil
}

func (r *archiveRepoStub) GetSavedRoom(ctx context.Context, id string) (persistence.SavedRoom, error) {
	if r.err != nil {
		return persistence.SavedRoom{}, r.err
	}
	snapshot, ok := r.snapshots[id]
	if !ok {
		return persistence.SavedRoom{}, persistence.ErrNotFound
	}
	return snapshot, nil
}

func (r *archiveRepoStub) ListSavedRooms(ctx context.Context) ([]persistence.SavedRoom, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make([]persistence.SavedRoom, 0, len(r.snapshots))
	for _, snapshot := range r.snapshots {
		out = append(out, snapshot)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ArchivedAt.After(out[j].ArchivedAt) })
	return out, nil
}

type photoRepoStub struct {
	photos map[string]persistence.Photo
	err    error
}

func newPhotoRepoStub() *photoRepoStub {
	return &photoRepoStub{photos: make(map[string]persistence.Photo)}
}

func (r *photoRepoStub) CreatePhoto(ctx context.Context, photo persistence.Photo) error {
	if r.err != nil {
		return r.err
	}
	r.photos[photo.ID] = photo
	return nil
}

func (r *photoRepoStub) GetPhoto(ctx context.Context, id string) (persistence.Photo, error) {
	if r.err != nil {
		return persistence.Photo{}, r.err
	}
	photo, ok := r.photos[id]
	if !ok {
		return persistence.Photo{}, persistence.ErrNotFound
	}
	return photo, nil
}

func (r *photoRepoStub) ListPhotos(ctx context.Context) ([]persistence.Photo, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make([]persistence.Photo, 0, len(r.photos))
	for _, photo := range r.photos {
		out = append(out, photo)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *photoRepoStub) DeletePhoto(ctx context.Context, id string) error {
	if r.err != nil {
		return r.err
	}
	if _, ok := r.photos[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(r.photos, id)
	return nil
}

type staffRepoStub struct {
	users    map[string]persistence.StaffUser
	sessions map[string]persistence.AuthSession
	err      error
}

func newStaffRepoStub(users ...persistence.StaffUser) *staffRepoStub {
	stub := &staffRepoStub{
		users:    make(map[string]persistence.StaffUser),
		sessions: make(map[string]persistence.AuthSession),
	}
	for _, user := range users {
		stub.users[user.ID] = user
	}
	return stub
}

func (r *staffRepoStub) CreateStaffUser(ctx context.Context, user persistence.StaffUser) error {
	if r.err != nil {
		return r.err
	}
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return persistence.ErrDuplicate
		}
	}
	r.users[user.ID] = user
	return nil
}

func (r *staffRepoStub) GetStaffUser(ctx context.Context, id string) (persistence.StaffUser, error) {
	if r.err != nil {
		return persistence.StaffUser{}, r.err
	}
	user, ok := r.users[id]
	if !ok {
		return persistence.StaffUser{}, persistence.ErrNotFound
	}
	return user, nil
}

func (r *staffRepoStub) GetStaffUserByEmail(ctx context.Context, email string) (persistence.StaffUser, error) {
	if r.err != nil {
		return persistence.StaffUser{}, r.err
	}
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return persistence.StaffUser{}, persistence.ErrNotFound
}

func (r *staffRepoStub) ListStaffUsers(ctx context.Context) ([]persistence.StaffUser, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make([]persistence.StaffUser, 0, len(r.users))
	for _, user := range r.users {
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *staffRepoStub) CreateAuthSession(ctx context.Context, session persistence.AuthSession) (persistence.AuthSession, error) {
	if r.err != nil {
		return persistence.AuthSession{}, r.err
	}
	r.sessions[session.Token] = session
	return session, nil
}

func (r *staffRepoStub) GetAuthSession(ctx context.Context, token string) (persistence.AuthSession, error) {
	if r.err != nil {
		return persistence.AuthSession{}, r.err
	}
	session, ok := r.sessions[token]
	if !ok {
		return persistence.AuthSession{}, persistence.ErrNotFound
	}
	return session, nil
}

func (r *staffRepoStub) RevokeAuthSession(ctx context.Context, token string, revokedAt time.Time) (persistence.AuthSession, error) {
	if r.err != nil {
		return persistence.AuthSession{}, r.err
	}
	session, ok := r.sessions[token]
	if !ok {
		return persistence.AuthSession{}, persistence.ErrNotFound
	}
	session.RevokedAt = &revokedAt
	r.sessions[token] = session
	return session, nil
}

func (r *staffRepoStub) DeleteExpiredAuthSessions(ctx context.Context, reference time.Time) error {
	if r.err != nil {
		return r.err
	}
	for token, session := range r.sessions {
		if session.ExpiresAt.Before(reference) {
			delete(r.sessions, token)
		}
	}
	return nil
}
