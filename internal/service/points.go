package service

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/vietanh2810/attendance-api/internal/domain"
	"github.com/vietanh2810/attendance-api/internal/pkg/clock"
)

type AccountRepository interface {
	Adjust(ctx context.Context, entry domain.LedgerEntry) (domain.User, error)
	Entries(ctx context.Context, userID string) ([]domain.LedgerEntry, error)
	EnsureUser(ctx context.Context, user domain.User) (domain.User, error)
	FindUser(ctx context.Context, id string) (domain.User, error)
}

type PointsService struct {
	repo  AccountRepository
	clock clock.Clock
}

func NewPointsService(repo AccountRepository, clk clock.Clock) *PointsService {
	return &PointsService{
		repo:  repo,
		clock: clk,
	}
}

// AddPoints journals a manual adjustment of delta points and returns the new
// balance. Balances may go negative.
func (s *PointsService) AddPoints(ctx context.Context, userID string, delta int, reason, adminID string) (int, error) {
	err := validation.Errors{
		"user_id":     validation.Validate(userID, validation.Required),
		"points":      validation.Validate(delta, validation.Required),
		"reason":      validation.Validate(reason, validation.Required),
		"adjusted_by": validation.Validate(adminID, validation.Required),
	}.Filter()
	if err != nil {
		return 0, domain.NewValidationError(err)
	}

	entry := domain.NewManualEntry(userID, delta, reason, adminID, s.clock.Now())
	user, err := s.repo.Adjust(ctx, entry)
	if err != nil {
		return 0, fmt.Errorf("s.repo.Adjust -> %w", err)
	}

	return user.Points, nil
}

func (s *PointsService) GetAccount(ctx context.Context, userID string) (domain.User, error) {
	user, err := s.repo.FindUser(ctx, userID)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.FindUser -> %w", err)
	}

	return user, nil
}

// GetLedger returns the journal of userID along with a check of the cached
// balance against it.
func (s *PointsService) GetLedger(ctx context.Context, userID string) (domain.LedgerStatement, error) {
	user, err := s.repo.FindUser(ctx, userID)
	if err != nil {
		return domain.LedgerStatement{}, fmt.Errorf("s.repo.FindUser -> %w", err)
	}

	entries, err := s.repo.Entries(ctx, userID)
	if err != nil {
		return domain.LedgerStatement{}, fmt.Errorf("s.repo.Entries -> %w", err)
	}

	return domain.NewLedgerStatement(user, entries), nil
}

func (s *PointsService) EnsureAccount(ctx context.Context, userID, name string) (domain.User, error) {
	err := validation.Errors{
		"user_id": validation.Validate(userID, validation.Required),
		"name":    validation.Validate(name, validation.Required, validation.Length(1, 100)),
	}.Filter()
	if err != nil {
		return domain.User{}, domain.NewValidationError(err)
	}

	now := s.clock.Now()
	user, err := s.repo.EnsureUser(ctx, domain.User{
		ID:        userID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.EnsureUser -> %w", err)
	}

	return user, nil
}
