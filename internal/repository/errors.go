package repository

import (
	"errors"

	"github.com/vietanh2810/attendance-api/internal/domain"
	"github.com/vietanh2810/attendance-api/internal/repository/dao"
)

var (
	ErrEventNotFound           = domain.ErrEventNotFound
	ErrUserNotFound            = domain.ErrUserNotFound
	ErrCodeInUse               = domain.ErrCodeInUse
	ErrCodeGenerationExhausted = domain.ErrCodeGenerationExhausted
	ErrAlreadyAttended         = domain.ErrAlreadyAttended
)

var daoErrors = map[error]error{
	dao.ErrEventNotFound:         ErrEventNotFound,
	dao.ErrUserNotFound:          ErrUserNotFound,
	dao.ErrCodeTaken:             ErrCodeInUse,
	dao.ErrCodeAttemptsExhausted: ErrCodeGenerationExhausted,
	dao.ErrAlreadyAttended:       ErrAlreadyAttended,
}

// classify translates dao sentinels into domain errors. Domain errors raised
// by callbacks pass through untouched; anything else is a storage failure.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	for daoErr, domainErr := range daoErrors {
		if errors.Is(err, daoErr) {
			return domainErr
		}
	}

	for _, kind := range []error{
		domain.ErrValidation,
		domain.ErrNotFound,
		domain.ErrStateConflict,
		domain.ErrExhausted,
		domain.ErrStorage,
	} {
		if errors.Is(err, kind) {
			return err
		}
	}

	return &domain.StorageError{Op: op, Err: err}
}
