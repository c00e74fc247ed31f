package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2030, 5, 1, 10, 0, 0, 0, time.UTC)

func TestEffectiveStatus(t *testing.T) {
	end := start.Add(2 * time.Hour)

	tests := []struct {
		name   string
		status EventStatus
		now    time.Time
		want   EventStatus
	}{
		{name: "before start", status: EventUpcoming, now: start.Add(-time.Minute), want: EventUpcoming},
		{name: "at start", status: EventUpcoming, now: start, want: EventActive},
		{name: "after end still active until swept", status: EventUpcoming, now: end.Add(time.Hour), want: EventActive},
		{name: "cancelled", status: EventCancelled, now: start.Add(time.Minute), want: EventCancelled},
		{name: "completed", status: EventCompleted, now: start.Add(time.Minute), want: EventCompleted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := Event{Status: tt.status, StartTime: start, EndTime: &end}
			assert.Equal(t, tt.want, ev.EffectiveStatus(tt.now))
		})
	}
}

func TestHasEnded(t *testing.T) {
	end := start.Add(time.Hour)

	assert.False(t, Event{Status: EventUpcoming, StartTime: start}.HasEnded(start.Add(48*time.Hour)), "open ended events never end by time")
	assert.False(t, Event{Status: EventUpcoming, StartTime: start, EndTime: &end}.HasEnded(end.Add(-time.Nanosecond)))
	assert.True(t, Event{Status: EventUpcoming, StartTime: start, EndTime: &end}.HasEnded(end))
	assert.True(t, Event{Status: EventCancelled, StartTime: start}.HasEnded(start.Add(-time.Hour)))
	assert.True(t, Event{Status: EventCompleted, StartTime: start}.HasEnded(start))
}

func TestEventInputValidate(t *testing.T) {
	end := start.Add(time.Hour)
	valid := EventInput{
		Name:        "Meetup",
		Description: "Talks",
		Location:    "Hall A",
		StartTime:   start,
		EndTime:     &end,
		PointsValue: 10,
	}
	require.NoError(t, valid.Validate())

	same := start
	tests := []struct {
		name   string
		mutate func(in *EventInput)
		field  string
	}{
		{name: "missing name", mutate: func(in *EventInput) { in.Name = "" }, field: "name"},
		{name: "missing location", mutate: func(in *EventInput) { in.Location = "" }, field: "location"},
		{name: "missing start", mutate: func(in *EventInput) { in.StartTime = time.Time{} }, field: "start_time"},
		{name: "end equals start", mutate: func(in *EventInput) { in.EndTime = &same }, field: "end_time"},
		{name: "negative points", mutate: func(in *EventInput) { in.PointsValue = -1 }, field: "points_value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)

			err := in.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, []string{tt.field}, verr.Fields())
		})
	}
}

func TestEventPatch(t *testing.T) {
	empty := ""
	assert.Error(t, EventPatch{Name: &empty}.Validate())

	name := "Renamed"
	points := 0
	ev := Event{Name: "Old", PointsValue: 5, StartTime: start}
	patch := EventPatch{Name: &name, PointsValue: &points}
	require.NoError(t, patch.Validate())

	patch.Apply(&ev)
	assert.Equal(t, "Renamed", ev.Name)
	assert.Equal(t, 0, ev.PointsValue)
	assert.Equal(t, start, ev.StartTime)

	before := start.Add(-time.Hour)
	EventPatch{EndTime: &before}.Apply(&ev)
	assert.True(t, errors.Is(ev.ValidateSchedule(), ErrValidation))
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		err  error
		kind error
	}{
		{err: ErrEventNotFound, kind: ErrNotFound},
		{err: ErrUserNotFound, kind: ErrNotFound},
		{err: ErrAlreadyStarted, kind: ErrStateConflict},
		{err: ErrCodeInUse, kind: ErrStateConflict},
		{err: ErrAlreadyAttended, kind: ErrStateConflict},
		{err: ErrCodeGenerationExhausted, kind: ErrExhausted},
		{err: &StorageError{Op: "insert", Err: errors.New("boom")}, kind: ErrStorage},
	}
	kinds := []error{ErrValidation, ErrNotFound, ErrStateConflict, ErrExhausted, ErrStorage}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			for _, k := range kinds {
				assert.Equal(t, k == tt.kind, errors.Is(tt.err, k), k.Error())
			}
		})
	}

	assert.False(t, errors.Is(ErrEventNotFound, ErrUserNotFound))
}

func TestPrincipalRoles(t *testing.T) {
	assert.False(t, Principal{ID: "u"}.CanOrganize())
	assert.True(t, Principal{ID: "u", Roles: []string{RoleOrganizer}}.CanOrganize())
	assert.False(t, Principal{ID: "u", Roles: []string{RoleOrganizer}}.IsAdmin())
	assert.True(t, Principal{ID: "u", Roles: []string{RoleAdmin}}.CanOrganize())
}
