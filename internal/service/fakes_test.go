package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vietanh2810/attendance-api/internal/domain"
)

// memStore serialises every call on one mutex, which gives each operation
// the isolation of the database transaction it stands in for.
type memStore struct {
	mu      sync.Mutex
	events  map[uuid.UUID]domain.Event
	users   map[string]domain.User
	entries []domain.LedgerEntry
}

func newMemStore() *memStore {
	return &memStore{
		events: make(map[uuid.UUID]domain.Event),
		users:  make(map[string]domain.User),
	}
}

func cloneEvent(ev domain.Event) domain.Event {
	ev.Attendees = append([]string{}, ev.Attendees...)
	if ev.AttendanceCode != nil {
		code := *ev.AttendanceCode
		ev.AttendanceCode = &code
	}
	if ev.EndTime != nil {
		end := *ev.EndTime
		ev.EndTime = &end
	}
	return ev
}

func (m *memStore) put(ev domain.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[ev.ID] = cloneEvent(ev)
}

func (m *memStore) get(id uuid.UUID) domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneEvent(m.events[id])
}

func (m *memStore) activeElsewhere(code string, id uuid.UUID) bool {
	for _, other := range m.events {
		if other.ID != id && other.CodeActive && other.AttendanceCode != nil && *other.AttendanceCode == code {
			return true
		}
	}
	return false
}

func (m *memStore) Create(_ context.Context, ev domain.Event) (domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[ev.ID] = cloneEvent(ev)
	return cloneEvent(ev), nil
}

func (m *memStore) FindByID(_ context.Context, id uuid.UUID) (domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.events[id]
	if !ok {
		return domain.Event{}, ErrEventNotFound
	}
	return cloneEvent(ev), nil
}

func (m *memStore) FindByCode(_ context.Context, code string) (domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var (
		found domain.Event
		ok    bool
	)
	for _, ev := range m.events {
		if ev.AttendanceCode == nil || *ev.AttendanceCode != code {
			continue
		}
		if !ok || (ev.CodeActive && !found.CodeActive) ||
			(ev.CodeActive == found.CodeActive && ev.UpdatedAt.After(found.UpdatedAt)) {
			found, ok = ev, true
		}
	}
	if !ok {
		return domain.Event{}, ErrEventNotFound
	}
	return cloneEvent(found), nil
}

func (m *memStore) List(_ context.Context, filter domain.EventFilter) ([]domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	statuses := make(map[domain.EventStatus]bool)
	for _, s := range filter.Statuses {
		statuses[s] = true
	}

	events := make([]domain.Event, 0)
	for _, ev := range m.events {
		if len(statuses) > 0 && !statuses[ev.Status] {
			continue
		}
		if ev.CleanedUp && !filter.IncludeCleanedUp {
			continue
		}
		events = append(events, cloneEvent(ev))
	}
	sort.Slice(events, func(i, j int) bool { return events[i].StartTime.Before(events[j].StartTime) })
	return events, nil
}

func (m *memStore) Update(_ context.Context, id uuid.UUID, apply func(ev *domain.Event) error) (domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.events[id]
	if !ok {
		return domain.Event{}, ErrEventNotFound
	}
	ev := cloneEvent(stored)
	if err := apply(&ev); err != nil {
		return domain.Event{}, err
	}
	if ev.CodeActive && ev.AttendanceCode != nil && m.activeElsewhere(*ev.AttendanceCode, id) {
		return domain.Event{}, ErrCodeInUse
	}
	m.events[id] = cloneEvent(ev)
	return ev, nil
}

func (m *memStore) AssignCode(
	_ context.Context,
	id uuid.UUID,
	attempts int,
	next func() string,
	apply func(ev *domain.Event, code string) error,
) (domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.events[id]
	if !ok {
		return domain.Event{}, ErrEventNotFound
	}
	for i := 0; i < attempts; i++ {
		code := next()
		if m.activeElsewhere(code, id) {
			continue
		}
		ev := cloneEvent(stored)
		if err := apply(&ev, code); err != nil {
			return domain.Event{}, err
		}
		m.events[id] = cloneEvent(ev)
		return ev, nil
	}
	return domain.Event{}, ErrCodeGenerationExhausted
}

func (m *memStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return ErrEventNotFound
	}
	delete(m.events, id)
	return nil
}

func (m *memStore) CompleteEnded(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for id, ev := range m.events {
		if ev.EndTime == nil || !ev.EndTime.Before(now) {
			continue
		}
		if ev.Status != domain.EventUpcoming && ev.Status != domain.EventActive {
			continue
		}
		ev.Status = domain.EventCompleted
		ev.UpdatedAt = now
		m.events[id] = ev
		count++
	}
	return count, nil
}

func (m *memStore) CleanupCompleted(_ context.Context, now, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for id, ev := range m.events {
		if ev.Status != domain.EventCompleted || ev.CleanedUp || ev.EndTime == nil || !ev.EndTime.Before(cutoff) {
			continue
		}
		ev.CleanedUp = true
		ev.UpdatedAt = now
		m.events[id] = ev
		count++
	}
	return count, nil
}

func (m *memStore) Attend(
	_ context.Context,
	eventID uuid.UUID,
	userID string,
	apply func(ev domain.Event, user domain.User) (domain.LedgerEntry, error),
) (domain.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ev, ok := m.events[eventID]
	if !ok {
		return domain.LedgerEntry{}, ErrEventNotFound
	}
	user, ok := m.users[userID]
	if !ok {
		return domain.LedgerEntry{}, ErrUserNotFound
	}

	entry, err := apply(cloneEvent(ev), user)
	if err != nil {
		return domain.LedgerEntry{}, err
	}
	if ev.HasAttendee(userID) {
		return domain.LedgerEntry{}, ErrAlreadyAttended
	}
	for _, e := range m.entries {
		if e.Source == domain.LedgerAttendance && e.UserID == userID && e.EventID != nil && *e.EventID == eventID {
			return domain.LedgerEntry{}, ErrAlreadyAttended
		}
	}

	ev.Attendees = append(append([]string{}, ev.Attendees...), userID)
	m.events[eventID] = ev
	m.entries = append(m.entries, entry)
	user.Points += entry.Points
	m.users[userID] = user

	return entry, nil
}

func (m *memStore) Adjust(_ context.Context, entry domain.LedgerEntry) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[entry.UserID]
	if !ok {
		return domain.User{}, ErrUserNotFound
	}
	m.entries = append(m.entries, entry)
	user.Points += entry.Points
	m.users[entry.UserID] = user
	return user, nil
}

func (m *memStore) Entries(_ context.Context, userID string) ([]domain.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entriesOf(userID), nil
}

func (m *memStore) entriesOf(userID string) []domain.LedgerEntry {
	entries := make([]domain.LedgerEntry, 0)
	for _, e := range m.entries {
		if e.UserID == userID {
			entries = append(entries, e)
		}
	}
	return entries
}

func (m *memStore) EnsureUser(_ context.Context, user domain.User) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if stored, ok := m.users[user.ID]; ok {
		stored.AttendedEvents = domain.AttendedEventsFrom(m.entriesOf(user.ID))
		return stored, nil
	}
	m.users[user.ID] = user
	user.AttendedEvents = []domain.AttendedEvent{}
	return user, nil
}

func (m *memStore) FindUser(_ context.Context, id string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return domain.User{}, ErrUserNotFound
	}
	user.AttendedEvents = domain.AttendedEventsFrom(m.entriesOf(id))
	return user, nil
}

func (m *memStore) addUser(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id] = domain.User{ID: id, Name: id}
}

// seqCodes hands out codes in order, wrapping around.
type seqCodes struct {
	mu    sync.Mutex
	codes []string
	i     int
}

func newSeqCodes(codes ...string) *seqCodes {
	return &seqCodes{codes: codes}
}

func (c *seqCodes) Next() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	code := c.codes[c.i%len(c.codes)]
	c.i++
	return code
}

type recordingNotifier struct {
	mu  sync.Mutex
	got []domain.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n domain.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
}

func (r *recordingNotifier) kinds() []domain.NotificationKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]domain.NotificationKind, 0, len(r.got))
	for _, n := range r.got {
		kinds = append(kinds, n.Kind)
	}
	return kinds
}
