package dao

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrEventNotFound         = errors.New("event not found")
	ErrUserNotFound          = errors.New("user not found")
	ErrCodeTaken             = errors.New("attendance code is active on another event")
	ErrCodeAttemptsExhausted = errors.New("no free attendance code found")
	ErrAlreadyAttended       = errors.New("user already attended event")
)

const (
	activeCodeIndex       = "idx_events_active_code"
	attendeePrimaryKey    = "event_attendees_pkey"
	attendanceLedgerIndex = "idx_ledger_attendance_once"
)

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == pgerrcode.UniqueViolation &&
		pgErr.ConstraintName == constraint
}
