package domain

import (
	"time"

	"github.com/google/uuid"
)

type LedgerSource string

const (
	LedgerAttendance LedgerSource = "attendance"
	LedgerManual     LedgerSource = "manual"
)

// LedgerEntry is one immutable, signed change to a user's balance. Attendance
// credits and manual adjustments share this journal, so a balance is always
// the sum of its entries.
type LedgerEntry struct {
	ID         uuid.UUID      `json:"id"`
	UserID     string         `json:"user_id"`
	Source     LedgerSource   `json:"source"`
	Points     int            `json:"points"`
	Reason     string         `json:"reason,omitempty"`
	AdjustedBy string         `json:"adjusted_by,omitempty"`
	EventID    *uuid.UUID     `json:"event_id,omitempty"`
	Snapshot   *AttendedEvent `json:"snapshot,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// PointAdjustment is the manual view of a ledger entry.
type PointAdjustment struct {
	UserID     string    `json:"user_id"`
	Points     int       `json:"points"`
	Reason     string    `json:"reason"`
	AdjustedBy string    `json:"adjusted_by"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewAttendanceEntry(userID string, ev Event, adjustedBy, reason string, at time.Time) LedgerEntry {
	eventID := ev.ID
	snapshot := ev.Snapshot(at)
	return LedgerEntry{
		ID:         uuid.New(),
		UserID:     userID,
		Source:     LedgerAttendance,
		Points:     ev.PointsValue,
		Reason:     reason,
		AdjustedBy: adjustedBy,
		EventID:    &eventID,
		Snapshot:   &snapshot,
		CreatedAt:  at,
	}
}

func NewManualEntry(userID string, delta int, reason, adjustedBy string, at time.Time) LedgerEntry {
	return LedgerEntry{
		ID:         uuid.New(),
		UserID:     userID,
		Source:     LedgerManual,
		Points:     delta,
		Reason:     reason,
		AdjustedBy: adjustedBy,
		CreatedAt:  at,
	}
}

func (le LedgerEntry) Adjustment() (PointAdjustment, bool) {
	if le.Source != LedgerManual {
		return PointAdjustment{}, false
	}
	return PointAdjustment{
		UserID:     le.UserID,
		Points:     le.Points,
		Reason:     le.Reason,
		AdjustedBy: le.AdjustedBy,
		CreatedAt:  le.CreatedAt,
	}, true
}

// AttendedEventsFrom returns the attendance snapshots in journal order.
func AttendedEventsFrom(entries []LedgerEntry) []AttendedEvent {
	attended := make([]AttendedEvent, 0)
	for _, e := range entries {
		if e.Source == LedgerAttendance && e.Snapshot != nil {
			attended = append(attended, *e.Snapshot)
		}
	}
	return attended
}

type LedgerStatement struct {
	UserID         string        `json:"user_id"`
	Balance        int           `json:"balance"`
	DerivedBalance int           `json:"derived_balance"`
	InSync         bool          `json:"in_sync"`
	Entries        []LedgerEntry `json:"entries"`

	Adjustments []PointAdjustment `json:"adjustments"`
}

// NewLedgerStatement compares the cached balance of user against the sum of
// its journal.
func NewLedgerStatement(user User, entries []LedgerEntry) LedgerStatement {
	derived := 0
	adjustments := make([]PointAdjustment, 0)
	for _, e := range entries {
		derived += e.Points
		if adj, ok := e.Adjustment(); ok {
			adjustments = append(adjustments, adj)
		}
	}
	return LedgerStatement{
		UserID:         user.ID,
		Balance:        user.Points,
		DerivedBalance: derived,
		InSync:         derived == user.Points,
		Entries:        entries,
		Adjustments:    adjustments,
	}
}
