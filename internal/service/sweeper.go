package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/vietanh2810/attendance-api/internal/domain"
	"github.com/vietanh2810/attendance-api/internal/pkg/clock"
)

type LifecycleSweeps interface {
	CompleteEndedEvents(ctx context.Context) (int, error)
	CleanupCompletedEvents(ctx context.Context) (int, error)
}

// Sweeper runs the time driven lifecycle transitions. It holds no state, so
// any number of triggers may call Run; repeated runs are no-ops.
type Sweeper struct {
	lifecycle LifecycleSweeps
	clock     clock.Clock
}

func NewSweeper(lifecycle LifecycleSweeps, clk clock.Clock) *Sweeper {
	return &Sweeper{
		lifecycle: lifecycle,
		clock:     clk,
	}
}

// Run completes ended events, then flags old completed events as cleaned up.
// Cleanup still runs when completion fails.
func (s *Sweeper) Run(ctx context.Context) (domain.SweepResult, error) {
	started := s.clock.Now()

	var result domain.SweepResult
	var errs []error

	completed, err := s.lifecycle.CompleteEndedEvents(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("s.lifecycle.CompleteEndedEvents -> %w", err))
	}
	result.CompletedCount = completed

	cleaned, err := s.lifecycle.CleanupCompletedEvents(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("s.lifecycle.CleanupCompletedEvents -> %w", err))
	}
	result.CleanedUpCount = cleaned

	if err = errors.Join(errs...); err != nil {
		zap.L().Error("lifecycle sweep failed",
			zap.Int("completed", result.CompletedCount),
			zap.Int("cleaned_up", result.CleanedUpCount),
			zap.Error(err),
		)
		return result, err
	}

	zap.L().Info("lifecycle sweep finished",
		zap.Int("completed", result.CompletedCount),
		zap.Int("cleaned_up", result.CleanedUpCount),
		zap.Duration("took", s.clock.Now().Sub(started)),
	)

	return result, nil
}
