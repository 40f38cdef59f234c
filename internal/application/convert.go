package application

import "github.com/example/event-dashboard/internal/persistence"

func roomFromRecord(record persistence.Room) Room {
	return Room{
		ID:         record.ID,
		Name:       record.Name,
		Capacity:   record.Capacity,
		IsArchived: record.IsArchived,
		CreatedAt:  record.CreatedAt,
		UpdatedAt:  record.UpdatedAt,
	}
}

func roomToRecord(room Room) persistence.Room {
	return persistence.Room{
		ID:         room.ID,
		Name:       room.Name,
		Capacity:   room.Capacity,
		IsArchived: room.IsArchived,
		CreatedAt:  room.CreatedAt,
		UpdatedAt:  room.UpdatedAt,
	}
}

func sessionFromRecord(record persistence.Session) Session {
	description := ""
	if record.Description != nil {
		description = *record.Description
	}
	return Session{
		ID:          record.ID,
		Title:       record.Title,
		Description: description,
		RoomID:      record.RoomID,
		SpeakerID:   cloneStringPtr(record.SpeakerID),
		Start:       record.Start,
		End:         record.End,
		Tags:        append([]string(nil), record.Tags...),
		IsArchived:  record.IsArchived,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}

func sessionToRecord(session Session) persistence.Session {
	var description *string
	if session.Description != "" {
		value := session.Description
		description = &value
	}
	return persistence.Session{
		ID:          session.ID,
		Title:       session.Title,
		Description: description,
		RoomID:      session.RoomID,
		SpeakerID:   cloneStringPtr(session.SpeakerID),
		Start:       session.Start,
		End:         session.End,
		Tags:        append([]string(nil), session.Tags...),
		IsArchived:  session.IsArchived,
		CreatedAt:   session.CreatedAt,
		UpdatedAt:   session.UpdatedAt,
	}
}

func attendeeFromRecord(record persistence.Attendee) Attendee {
	return Attendee{
		ID:              record.ID,
		Name:            record.Name,
		Email:           record.Email,
		QRCode:          record.QRCode,
		Age:             cloneIntPtr(record.Age),
		Gender:          record.Gender,
		CurrentRoomID:   cloneStringPtr(record.CurrentRoomID),
		AnalyticsRoomID: cloneStringPtr(record.AnalyticsRoomID),
		IsCheckedIn:     record.IsCheckedIn,
		ScanCount:       record.ScanCount,
		RegisteredAt:    record.RegisteredAt,
		UpdatedAt:       record.UpdatedAt,
	}
}

func attendeeToRecord(attendee Attendee) persistence.Attendee {
	return persistence.Attendee{
		ID:              attendee.ID,
		Name:            attendee.Name,
		Email:           attendee.Email,
		QRCode:          attendee.QRCode,
		Age:             cloneIntPtr(attendee.Age),
		Gender:          attendee.Gender,
		CurrentRoomID:   cloneStringPtr(attendee.CurrentRoomID),
		AnalyticsRoomID: cloneStringPtr(attendee.AnalyticsRoomID),
		IsCheckedIn:     attendee.IsCheckedIn,
		ScanCount:       attendee.ScanCount,
		RegisteredAt:    attendee.RegisteredAt,
		UpdatedAt:       attendee.UpdatedAt,
	}
}

func speakerFromRecord(record persistence.Speaker) Speaker {
	return Speaker{
		ID:        record.ID,
		Name:      record.Name,
		PhotoURL:  cloneStringPtr(record.PhotoURL),
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}

func alertFromRecord(record persistence.Alert) Alert {
	return Alert{
		ID:        record.ID,
		RoomID:    record.RoomID,
		Type:      AlertType(record.Type),
		Severity:  AlertSeverity(record.Severity),
		Message:   record.Message,
		IsActive:  record.IsActive,
		CreatedAt: record.CreatedAt,
	}
}

func logEntryFromRecord(record persistence.AttendanceLogEntry) AttendanceLogEntry {
	return AttendanceLogEntry{
		ID:         record.ID,
		AttendeeID: record.AttendeeID,
		RoomID:     record.RoomID,
		Action:     CheckinAction(record.Action),
		CreatedAt:  record.CreatedAt,
	}
}

func savedRoomFromRecord(record persistence.SavedRoom) SavedRoom {
	attendees := make([]SavedAttendee, 0, len(record.Attendees))
	for _, attendee := range record.Attendees {
		attendees = append(attendees, SavedAttendee{
			AttendeeID: attendee.AttendeeID,
			Name:       attendee.Name,
			Age:        cloneIntPtr(attendee.Age),
			Gender:     attendee.Gender,
			ScanCount:  attendee.ScanCount,
		})
	}
	return SavedRoom{
		ID:            record.ID,
		RoomID:        record.RoomID,
		RoomName:      record.RoomName,
		Capacity:      record.Capacity,
		AttendeeCount: record.AttendeeCount,
		GenderCounts:  copyCountMap(record.GenderCounts),
		AgeBuckets:    copyCountMap(record.AgeBuckets),
		Attendees:     attendees,
		ArchivedAt:    record.ArchivedAt,
	}
}

func photoFromRecord(record persistence.Photo) Photo {
	return Photo{
		ID:         record.ID,
		AttendeeID: cloneStringPtr(record.AttendeeID),
		RoomID:     cloneStringPtr(record.RoomID),
		URL:        record.URL,
		Caption:    record.Caption,
		CreatedAt:  record.CreatedAt,
	}
}

func staffUserFromRecord(record persistence.StaffUser) StaffUser {
	return StaffUser{
		ID:          record.ID,
		Email:       record.Email,
		DisplayName: record.DisplayName,
		IsAdmin:     record.IsAdmin,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}

func authSessionFromRecord(record persistence.AuthSession) AuthSession {
	return AuthSession{
		ID:        record.ID,
		UserID:    record.UserID,
		Token:     record.Token,
		ExpiresAt: record.ExpiresAt,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
		RevokedAt: record.RevokedAt,
	}
}

func copyCountMap(counts map[string]int) map[string]int {
	if counts == nil {
		return map[string]int{}
	}
	copied := make(map[string]int, len(counts))
	for key, value := range counts {
		copied[key] = value
	}
	return copied
}
