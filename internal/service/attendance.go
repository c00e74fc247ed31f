package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/google/uuid"

	"github.com/vietanh2810/attendance-api/internal/domain"
	"github.com/vietanh2810/attendance-api/internal/pkg/clock"
)

const manualAttendanceReason = "added by administrator"

var codeFormat = regexp2.MustCompile(`\A[0-9]{6}\z`, regexp2.None)

func ValidCodeFormat(code string) bool {
	ok, err := codeFormat.MatchString(code)
	return err == nil && ok
}

type CodeLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (domain.Event, error)
	FindByCode(ctx context.Context, code string) (domain.Event, error)
}

type AttendanceLedger interface {
	Attend(ctx context.Context, eventID uuid.UUID, userID string, apply func(ev domain.Event, user domain.User) (domain.LedgerEntry, error)) (domain.LedgerEntry, error)
}

type AttendanceService struct {
	events   CodeLookup
	ledger   AttendanceLedger
	clock    clock.Clock
	notifier Notifier
}

func NewAttendanceService(events CodeLookup, ledger AttendanceLedger, clk clock.Clock, notifier Notifier) *AttendanceService {
	if notifier == nil {
		notifier = nopNotifier{}
	}

	return &AttendanceService{
		events:   events,
		ledger:   ledger,
		clock:    clk,
		notifier: notifier,
	}
}

// SubmitAttendance redeems code for userID. Rejections come back as an
// unsuccessful result; only missing users and storage failures are errors.
func (s *AttendanceService) SubmitAttendance(ctx context.Context, userID, code string) (domain.AttendanceResult, error) {
	if !ValidCodeFormat(code) {
		return domain.RejectedAttendance(domain.MsgInvalidCodeFormat), nil
	}

	ev, err := s.events.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			return domain.RejectedAttendance(domain.MsgInvalidCode), nil
		}
		return domain.AttendanceResult{}, fmt.Errorf("s.events.FindByCode -> %w", err)
	}

	// Fail fast outside the transaction; the same guards run again on the
	// locked row.
	if err = redeemable(ev, code, s.clock.Now()); err != nil {
		return rejection(err)
	}
	if ev.HasAttendee(userID) {
		return domain.RejectedAttendance(domain.MsgAlreadyAttended), nil
	}

	entry, err := s.ledger.Attend(ctx, ev.ID, userID, func(locked domain.Event, user domain.User) (domain.LedgerEntry, error) {
		now := s.clock.Now()
		if err := redeemable(locked, code, now); err != nil {
			return domain.LedgerEntry{}, err
		}
		if locked.HasAttendee(user.ID) {
			return domain.LedgerEntry{}, ErrAlreadyAttended
		}

		return domain.NewAttendanceEntry(user.ID, locked, "", "", now), nil
	})
	if err != nil {
		if errors.Is(err, ErrEventNotFound) || errors.Is(err, domain.ErrStateConflict) {
			return rejection(err)
		}
		return domain.AttendanceResult{}, fmt.Errorf("s.ledger.Attend -> %w", err)
	}

	s.notifyRecorded(ctx, entry)

	return domain.AttendanceResult{
		Success:      true,
		Message:      domain.MsgAttendanceRecorded,
		PointsEarned: entry.Points,
		EventName:    entry.Snapshot.EventName,
	}, nil
}

// AddAttendee records userID as an attendee without any code or time check.
func (s *AttendanceService) AddAttendee(ctx context.Context, eventID uuid.UUID, userID, adminID string) (domain.LedgerEntry, error) {
	entry, err := s.ledger.Attend(ctx, eventID, userID, func(ev domain.Event, user domain.User) (domain.LedgerEntry, error) {
		if ev.HasAttendee(user.ID) {
			return domain.LedgerEntry{}, ErrAlreadyAttended
		}

		return domain.NewAttendanceEntry(user.ID, ev, adminID, manualAttendanceReason, s.clock.Now()), nil
	})
	if err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("s.ledger.Attend -> %w", err)
	}

	s.notifyRecorded(ctx, entry)

	return entry, nil
}

func (s *AttendanceService) ListAttendees(ctx context.Context, eventID uuid.UUID) ([]string, error) {
	ev, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("s.events.FindByID -> %w", err)
	}

	return ev.Attendees, nil
}

func (s *AttendanceService) notifyRecorded(ctx context.Context, entry domain.LedgerEntry) {
	n := domain.Notification{
		Kind:       domain.NotifyAttendanceRecorded,
		UserID:     entry.UserID,
		Points:     entry.Points,
		OccurredAt: entry.CreatedAt,
	}
	if entry.Snapshot != nil {
		n.EventID = entry.Snapshot.EventID
		n.EventName = entry.Snapshot.EventName
		n.Location = entry.Snapshot.Location
		n.StartTime = entry.Snapshot.EventDate
	}
	s.notifier.Notify(ctx, n)
}

func redeemable(ev domain.Event, code string, now time.Time) error {
	switch {
	case ev.AttendanceCode == nil || *ev.AttendanceCode != code:
		return ErrInvalidCode
	case !ev.CodeActive:
		return ErrCodeNotActive
	case !ev.HasStarted(now):
		return ErrNotStarted
	case ev.HasEnded(now):
		return ErrEventEnded
	}
	return nil
}

var rejectionMessages = []struct {
	err error
	msg string
}{
	{ErrEventNotFound, domain.MsgInvalidCode},
	{ErrInvalidCode, domain.MsgInvalidCode},
	{ErrCodeNotActive, domain.MsgCodeNotActive},
	{ErrNotStarted, domain.MsgNotStarted},
	{ErrEventEnded, domain.MsgEventEnded},
	{ErrAlreadyAttended, domain.MsgAlreadyAttended},
}

func rejection(err error) (domain.AttendanceResult, error) {
	for _, r := range rejectionMessages {
		if errors.Is(err, r.err) {
			return domain.RejectedAttendance(r.msg), nil
		}
	}
	return domain.AttendanceResult{}, err
}
