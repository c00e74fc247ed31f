package domain

import (
	"time"

	"github.com/google/uuid"
)

type NotificationKind string

const (
	NotifyEventCreated       NotificationKind = "event.created"
	NotifyEventCancelled     NotificationKind = "event.cancelled"
	NotifyAttendanceRecorded NotificationKind = "attendance.recorded"
)

// Notification is handed to the outbound dispatcher after a state change
// has committed. Delivery is best-effort.
type Notification struct {
	Kind       NotificationKind `json:"kind"`
	EventID    uuid.UUID        `json:"event_id"`
	EventName  string           `json:"event_name"`
	Location   string           `json:"location,omitempty"`
	StartTime  time.Time        `json:"start_time"`
	UserID     string           `json:"user_id,omitempty"`
	Points     int              `json:"points,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}

func NewEventNotification(kind NotificationKind, ev Event, at time.Time) Notification {
	return Notification{
		Kind:       kind,
		EventID:    ev.ID,
		EventName:  ev.Name,
		Location:   ev.Location,
		StartTime:  ev.StartTime,
		OccurredAt: at,
	}
}
