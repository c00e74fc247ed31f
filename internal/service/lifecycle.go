package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vietanh2810/attendance-api/internal/domain"
	"github.com/vietanh2810/attendance-api/internal/pkg/clock"
)

type EventRepository interface {
	Create(ctx context.Context, ev domain.Event) (domain.Event, error)
	FindByID(ctx context.Context, id uuid.UUID) (domain.Event, error)
	List(ctx context.Context, filter domain.EventFilter) ([]domain.Event, error)
	Update(ctx context.Context, id uuid.UUID, apply func(ev *domain.Event) error) (domain.Event, error)
	AssignCode(ctx context.Context, id uuid.UUID, attempts int, next func() string, apply func(ev *domain.Event, code string) error) (domain.Event, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CompleteEnded(ctx context.Context, now time.Time) (int, error)
	CleanupCompleted(ctx context.Context, now, cutoff time.Time) (int, error)
}

type LifecycleConfig struct {
	CodeAttempts int
	CleanupAfter time.Duration
}

type LifecycleService struct {
	repo     EventRepository
	clock    clock.Clock
	codes    CodeGenerator
	notifier Notifier
	conf     LifecycleConfig
}

func NewLifecycleService(
	repo EventRepository,
	clk clock.Clock,
	codes CodeGenerator,
	notifier Notifier,
	conf LifecycleConfig,
) *LifecycleService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if conf.CodeAttempts <= 0 {
		conf.CodeAttempts = 10
	}
	if conf.CleanupAfter <= 0 {
		conf.CleanupAfter = 24 * time.Hour
	}

	return &LifecycleService{
		repo:     repo,
		clock:    clk,
		codes:    codes,
		notifier: notifier,
		conf:     conf,
	}
}

func (s *LifecycleService) CreateEvent(ctx context.Context, in domain.EventInput, creatorID string) (domain.Event, error) {
	if err := in.Validate(); err != nil {
		return domain.Event{}, err
	}

	now := s.clock.Now()
	created, err := s.repo.Create(ctx, domain.Event{
		ID:          uuid.New(),
		Name:        in.Name,
		Description: in.Description,
		Location:    in.Location,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		PointsValue: in.PointsValue,
		CreatedBy:   creatorID,
		Status:      domain.EventUpcoming,
		Attendees:   []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	s.notifier.Notify(ctx, domain.NewEventNotification(domain.NotifyEventCreated, created, now))

	return created, nil
}

// UpdateEvent applies patch while the event has not started yet. Once it has,
// every patch is refused, valid or not.
func (s *LifecycleService) UpdateEvent(ctx context.Context, id uuid.UUID, patch domain.EventPatch) (domain.Event, error) {
	updated, err := s.repo.Update(ctx, id, func(ev *domain.Event) error {
		now := s.clock.Now()
		if ev.HasStarted(now) {
			return ErrAlreadyStarted
		}
		if err := patch.Validate(); err != nil {
			return err
		}

		patch.Apply(ev)
		if err := ev.ValidateSchedule(); err != nil {
			return err
		}
		ev.UpdatedAt = now

		return nil
	})
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.Update -> %w", err)
	}

	return updated, nil
}

func (s *LifecycleService) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("s.repo.Delete -> %w", err)
	}

	return nil
}

func (s *LifecycleService) GetEvent(ctx context.Context, id uuid.UUID) (domain.Event, error) {
	ev, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	ev.Status = ev.EffectiveStatus(s.clock.Now())

	return ev, nil
}

// ListEvents filters on the effective status, so asking for active events
// returns started upcoming ones too.
func (s *LifecycleService) ListEvents(ctx context.Context, filter domain.EventFilter) ([]domain.Event, error) {
	wanted := make(map[domain.EventStatus]bool, len(filter.Statuses))
	stored := make([]domain.EventStatus, 0, len(filter.Statuses)+1)
	for _, st := range filter.Statuses {
		if !st.IsValid() {
			return nil, domain.NewValidationError(fmt.Errorf("unknown status %q", st))
		}
		wanted[st] = true
		stored = append(stored, st)
		if st == domain.EventActive {
			stored = append(stored, domain.EventUpcoming)
		}
	}

	events, err := s.repo.List(ctx, domain.EventFilter{Statuses: stored, IncludeCleanedUp: filter.IncludeCleanedUp})
	if err != nil {
		return nil, fmt.Errorf("s.repo.List -> %w", err)
	}

	now := s.clock.Now()
	result := make([]domain.Event, 0, len(events))
	for _, ev := range events {
		ev.Status = ev.EffectiveStatus(now)
		if len(wanted) > 0 && !wanted[ev.Status] {
			continue
		}
		result = append(result, ev)
	}

	return result, nil
}

// GenerateAttendanceCode issues a fresh code once the event has started. The
// uniqueness check and the write share one transaction.
func (s *LifecycleService) GenerateAttendanceCode(ctx context.Context, id uuid.UUID) (string, error) {
	ev, err := s.repo.AssignCode(ctx, id, s.conf.CodeAttempts, s.codes.Next, func(ev *domain.Event, code string) error {
		now := s.clock.Now()
		if !ev.HasStarted(now) {
			return ErrNotStarted
		}

		ev.AttendanceCode = &code
		ev.CodeActive = true
		ev.UpdatedAt = now

		return nil
	})
	if err != nil {
		return "", fmt.Errorf("s.repo.AssignCode -> %w", err)
	}

	return *ev.AttendanceCode, nil
}

func (s *LifecycleService) ToggleAttendanceCode(ctx context.Context, id uuid.UUID, active bool) error {
	_, err := s.repo.Update(ctx, id, func(ev *domain.Event) error {
		if ev.AttendanceCode == nil {
			return ErrNoCode
		}

		ev.CodeActive = active
		ev.UpdatedAt = s.clock.Now()

		return nil
	})
	if err != nil {
		return fmt.Errorf("s.repo.Update -> %w", err)
	}

	return nil
}

func (s *LifecycleService) EndEvent(ctx context.Context, id uuid.UUID) error {
	_, err := s.repo.Update(ctx, id, func(ev *domain.Event) error {
		now := s.clock.Now()
		if !ev.HasStarted(now) {
			return ErrNotStarted
		}
		if ev.Status == domain.EventCompleted {
			return ErrAlreadyCompleted
		}

		ev.EndTime = &now
		ev.Status = domain.EventCompleted
		ev.CodeActive = false
		ev.UpdatedAt = now

		return nil
	})
	if err != nil {
		return fmt.Errorf("s.repo.Update -> %w", err)
	}

	return nil
}

// CancelEvent cancels from any state. Only the status changes; a code left
// active is refused at redemption because the event has ended.
func (s *LifecycleService) CancelEvent(ctx context.Context, id uuid.UUID) error {
	now := s.clock.Now()
	cancelled, err := s.repo.Update(ctx, id, func(ev *domain.Event) error {
		ev.Status = domain.EventCancelled
		ev.UpdatedAt = now

		return nil
	})
	if err != nil {
		return fmt.Errorf("s.repo.Update -> %w", err)
	}

	s.notifier.Notify(ctx, domain.NewEventNotification(domain.NotifyEventCancelled, cancelled, now))

	return nil
}

func (s *LifecycleService) CompleteEndedEvents(ctx context.Context) (int, error) {
	count, err := s.repo.CompleteEnded(ctx, s.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("s.repo.CompleteEnded -> %w", err)
	}

	return count, nil
}

func (s *LifecycleService) CleanupCompletedEvents(ctx context.Context) (int, error) {
	now := s.clock.Now()

	count, err := s.repo.CleanupCompleted(ctx, now, now.Add(-s.conf.CleanupAfter))
	if err != nil {
		return 0, fmt.Errorf("s.repo.CleanupCompleted -> %w", err)
	}

	return count, nil
}
