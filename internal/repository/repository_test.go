package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietanh2810/attendance-api/internal/domain"
	"github.com/vietanh2810/attendance-api/internal/repository/dao"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "event not found", err: dao.ErrEventNotFound, want: domain.ErrEventNotFound},
		{name: "user not found", err: dao.ErrUserNotFound, want: domain.ErrUserNotFound},
		{name: "code taken", err: dao.ErrCodeTaken, want: domain.ErrCodeInUse},
		{name: "exhausted", err: dao.ErrCodeAttemptsExhausted, want: domain.ErrCodeGenerationExhausted},
		{name: "duplicate attendee", err: dao.ErrAlreadyAttended, want: domain.ErrAlreadyAttended},
		{name: "domain error passes", err: domain.ErrNotStarted, want: domain.ErrNotStarted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify("op", tt.err))
		})
	}

	err := classify("r.dao.Insert", errors.New("connection reset"))
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.EqualError(t, err, "r.dao.Insert: connection reset")
	assert.NoError(t, classify("op", nil))
}

type stubLedgerDAO struct {
	stored []dao.LedgerEntry
	event  dao.Event
	user   dao.User
}

func (s *stubLedgerDAO) Attend(
	_ context.Context,
	_ uuid.UUID,
	_ string,
	apply func(ev dao.Event, user dao.User) (dao.LedgerEntry, error),
) (dao.Event, dao.User, dao.LedgerEntry, error) {
	entry, err := apply(s.event, s.user)
	if err != nil {
		return dao.Event{}, dao.User{}, dao.LedgerEntry{}, err
	}
	s.stored = append(s.stored, entry)
	s.user.Points += entry.Points
	return s.event, s.user, entry, nil
}

func (s *stubLedgerDAO) Adjust(_ context.Context, entry dao.LedgerEntry) (dao.User, error) {
	s.stored = append(s.stored, entry)
	s.user.Points += entry.Points
	return s.user, nil
}

func (s *stubLedgerDAO) Entries(context.Context, string) ([]dao.LedgerEntry, error) {
	return s.stored, nil
}

type stubUserDAO struct {
	user dao.User
}

func (s *stubUserDAO) Ensure(context.Context, dao.User) (dao.User, error) { return s.user, nil }

func (s *stubUserDAO) FindByID(_ context.Context, id string) (dao.User, error) {
	if id != s.user.ID {
		return dao.User{}, dao.ErrUserNotFound
	}
	return s.user, nil
}

func TestLedgerRepository_AttendKeepsSnapshot(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 5, 0, 0, time.UTC)
	ev := dao.Event{
		ID:          uuid.New(),
		Name:        "Workshop",
		Location:    "Hall A",
		StartTime:   at.Add(-5 * time.Minute),
		PointsValue: 10,
		Status:      string(domain.EventUpcoming),
	}
	ledger := &stubLedgerDAO{event: ev, user: dao.User{ID: "u-1", Name: "Ann"}}
	users := &stubUserDAO{user: dao.User{ID: "u-1", Name: "Ann"}}
	repo := NewLedgerRepository(ledger, users)

	entry, err := repo.Attend(context.Background(), ev.ID, "u-1", func(e domain.Event, u domain.User) (domain.LedgerEntry, error) {
		assert.Equal(t, "Workshop", e.Name)
		assert.Equal(t, "u-1", u.ID)
		return domain.NewAttendanceEntry(u.ID, e, "", "", at), nil
	})
	require.NoError(t, err)
	require.NotNil(t, entry.Snapshot)
	assert.Equal(t, "Workshop", entry.Snapshot.EventName)
	assert.Equal(t, 10, entry.Points)

	user, err := repo.FindUser(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, user.AttendedEvents, 1)
	assert.Equal(t, ev.ID, user.AttendedEvents[0].EventID)
	assert.True(t, at.Equal(user.AttendedEvents[0].AttendedAt))

	_, err = repo.Attend(context.Background(), ev.ID, "u-1", func(domain.Event, domain.User) (domain.LedgerEntry, error) {
		return domain.LedgerEntry{}, domain.ErrAlreadyAttended
	})
	assert.ErrorIs(t, err, domain.ErrAlreadyAttended)

	_, err = repo.FindUser(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
