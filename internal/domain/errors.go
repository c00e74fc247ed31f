package domain

import (
	"errors"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Error kinds. Every error returned by the services matches exactly one of
// these through errors.Is.
var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("not found")
	ErrStateConflict = errors.New("state conflict")
	ErrExhausted     = errors.New("exhausted")
	ErrStorage       = errors.New("storage failure")
)

var (
	ErrEventNotFound = &NotFoundError{Entity: "event"}
	ErrUserNotFound  = &NotFoundError{Entity: "user"}

	ErrAlreadyStarted   = &StateConflictError{Reason: "event has already started"}
	ErrNotStarted       = &StateConflictError{Reason: "event has not started yet"}
	ErrAlreadyCompleted = &StateConflictError{Reason: "event is already completed"}
	ErrEventEnded       = &StateConflictError{Reason: "event has ended"}
	ErrNoCode           = &StateConflictError{Reason: "no attendance code has been generated"}
	ErrCodeInUse        = &StateConflictError{Reason: "attendance code is active on another event"}
	ErrInvalidCode      = &StateConflictError{Reason: "invalid code"}
	ErrCodeNotActive    = &StateConflictError{Reason: "code not active"}
	ErrAlreadyAttended  = &StateConflictError{Reason: "already attended"}

	ErrCodeGenerationExhausted = &ExhaustionError{Reason: "attendance code generation exhausted"}
)

type ValidationError struct {
	Err error
}

// NewValidationError wraps err, returning nil when err is nil.
func NewValidationError(err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Err: err}
}

func (e *ValidationError) Error() string        { return "validation failed: " + e.Err.Error() }
func (e *ValidationError) Unwrap() error        { return e.Err }
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Fields lists the offending field names in sorted order.
func (e *ValidationError) Fields() []string {
	var errs validation.Errors
	if !errors.As(e.Err, &errs) {
		return nil
	}
	fields := make([]string, 0, len(errs))
	for name := range errs {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	return fields
}

type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string        { return e.Entity + " not found" }
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

type StateConflictError struct {
	Reason string
}

func (e *StateConflictError) Error() string        { return e.Reason }
func (e *StateConflictError) Is(target error) bool { return target == ErrStateConflict }

type ExhaustionError struct {
	Reason string
}

func (e *ExhaustionError) Error() string        { return e.Reason }
func (e *ExhaustionError) Is(target error) bool { return target == ErrExhausted }

// StorageError is a transaction or I/O failure of the underlying store.
// Callers may retry with backoff.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string        { return e.Op + ": " + e.Err.Error() }
func (e *StorageError) Unwrap() error        { return e.Err }
func (e *StorageError) Is(target error) bool { return target == ErrStorage }
