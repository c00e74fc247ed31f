package domain

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

type EventStatus string

const (
	EventUpcoming  EventStatus = "upcoming"
	EventActive    EventStatus = "active"
	EventCompleted EventStatus = "completed"
	EventCancelled EventStatus = "cancelled"
)

func (s EventStatus) IsValid() bool {
	switch s {
	case EventUpcoming, EventActive, EventCompleted, EventCancelled:
		return true
	}
	return false
}

type Event struct {
	ID             uuid.UUID   `json:"id"`
	Name           string      `json:"name"`
	Description    string      `json:"description"`
	Location       string      `json:"location"`
	StartTime      time.Time   `json:"start_time"`
	EndTime        *time.Time  `json:"end_time,omitempty"`
	PointsValue    int         `json:"points_value"`
	CreatedBy      string      `json:"created_by"`
	Status         EventStatus `json:"status"`
	AttendanceCode *string     `json:"attendance_code,omitempty"`
	CodeActive     bool        `json:"code_active"`
	Attendees      []string    `json:"attendees"`
	CleanedUp      bool        `json:"cleaned_up"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// HasStarted reports whether now is at or after the start time.
func (e Event) HasStarted(now time.Time) bool {
	return !now.Before(e.StartTime)
}

// HasEnded reports whether the event no longer accepts attendance: it is
// completed or cancelled, or its end time has been reached.
func (e Event) HasEnded(now time.Time) bool {
	if e.Status == EventCompleted || e.Status == EventCancelled {
		return true
	}
	return e.EndTime != nil && !now.Before(*e.EndTime)
}

// EffectiveStatus derives "active" for a stored upcoming event that has
// started. The stored status is never moved to active by the service.
func (e Event) EffectiveStatus(now time.Time) EventStatus {
	if e.Status == EventUpcoming && e.HasStarted(now) {
		return EventActive
	}
	return e.Status
}

func (e Event) HasAttendee(userID string) bool {
	for _, id := range e.Attendees {
		if id == userID {
			return true
		}
	}
	return false
}

// Snapshot captures the event fields an attendee keeps in their history.
func (e Event) Snapshot(attendedAt time.Time) AttendedEvent {
	return AttendedEvent{
		EventID:      e.ID,
		EventName:    e.Name,
		EventDate:    e.StartTime,
		Location:     e.Location,
		PointsEarned: e.PointsValue,
		AttendedAt:   attendedAt,
	}
}

type EventInput struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	PointsValue int        `json:"points_value"`
}

func (in EventInput) Validate() error {
	err := validation.ValidateStruct(
		&in,
		validation.Field(&in.Name, validation.Required),
		validation.Field(&in.Description, validation.Required),
		validation.Field(&in.Location, validation.Required),
		validation.Field(&in.StartTime, validation.Required),
		validation.Field(&in.EndTime, validation.By(endAfter(in.StartTime))),
		validation.Field(&in.PointsValue, validation.Min(0)),
	)
	return NewValidationError(err)
}

// EventPatch holds the editable fields of an event; nil means unchanged.
type EventPatch struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	Location    *string    `json:"location"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	PointsValue *int       `json:"points_value"`
}

func (p EventPatch) Validate() error {
	err := validation.ValidateStruct(
		&p,
		validation.Field(&p.Name, validation.NilOrNotEmpty),
		validation.Field(&p.Description, validation.NilOrNotEmpty),
		validation.Field(&p.Location, validation.NilOrNotEmpty),
		validation.Field(&p.StartTime, validation.NilOrNotEmpty),
		validation.Field(&p.PointsValue, validation.Min(0)),
	)
	return NewValidationError(err)
}

func (p EventPatch) Apply(e *Event) {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Location != nil {
		e.Location = *p.Location
	}
	if p.StartTime != nil {
		e.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		end := *p.EndTime
		e.EndTime = &end
	}
	if p.PointsValue != nil {
		e.PointsValue = *p.PointsValue
	}
}

// ValidateSchedule checks the start/end pair of an already patched event.
func (e Event) ValidateSchedule() error {
	err := validation.Errors{
		"end_time": validation.Validate(e.EndTime, validation.By(endAfter(e.StartTime))),
	}.Filter()
	return NewValidationError(err)
}

var errEndBeforeStart = errors.New("must be after start_time")

type EventFilter struct {
	Statuses         []EventStatus
	IncludeCleanedUp bool
}

func endAfter(start time.Time) validation.RuleFunc {
	return func(value interface{}) error {
		var end time.Time
		switch v := value.(type) {
		case *time.Time:
			if v == nil {
				return nil
			}
			end = *v
		case time.Time:
			end = v
		default:
			return nil
		}
		if !end.After(start) {
			return errEndBeforeStart
		}
		return nil
	}
}
