package service

import (
	"context"

	"github.com/vietanh2810/attendance-api/internal/domain"
	"github.com/vietanh2810/attendance-api/internal/repository"
)

var (
	ErrEventNotFound           = repository.ErrEventNotFound
	ErrUserNotFound            = repository.ErrUserNotFound
	ErrCodeInUse               = repository.ErrCodeInUse
	ErrCodeGenerationExhausted = repository.ErrCodeGenerationExhausted
	ErrAlreadyAttended         = repository.ErrAlreadyAttended

	ErrAlreadyStarted   = domain.ErrAlreadyStarted
	ErrNotStarted       = domain.ErrNotStarted
	ErrAlreadyCompleted = domain.ErrAlreadyCompleted
	ErrEventEnded       = domain.ErrEventEnded
	ErrNoCode           = domain.ErrNoCode
	ErrInvalidCode      = domain.ErrInvalidCode
	ErrCodeNotActive    = domain.ErrCodeNotActive
)

type Notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, domain.Notification) {}
