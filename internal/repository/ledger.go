package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/vietanh2810/attendance-api/internal/domain"
	"github.com/vietanh2810/attendance-api/internal/repository/dao"
)

type LedgerDAO interface {
	Attend(ctx context.Context, eventID uuid.UUID, userID string, apply func(ev dao.Event, user dao.User) (dao.LedgerEntry, error)) (dao.Event, dao.User, dao.LedgerEntry, error)
	Adjust(ctx context.Context, entry dao.LedgerEntry) (dao.User, error)
	Entries(ctx context.Context, userID string) ([]dao.LedgerEntry, error)
}

type UserDAO interface {
	Ensure(ctx context.Context, user dao.User) (dao.User, error)
	FindByID(ctx context.Context, id string) (dao.User, error)
}

type LedgerRepository struct {
	ledger LedgerDAO
	users  UserDAO
}

func NewLedgerRepository(ledger LedgerDAO, users UserDAO) *LedgerRepository {
	return &LedgerRepository{
		ledger: ledger,
		users:  users,
	}
}

// Attend hands the locked event and user to apply, which returns the entry to
// credit or an error to abort. The attendee row, the entry and the balance
// change commit together.
func (r *LedgerRepository) Attend(
	ctx context.Context,
	eventID uuid.UUID,
	userID string,
	apply func(ev domain.Event, user domain.User) (domain.LedgerEntry, error),
) (domain.LedgerEntry, error) {
	_, _, created, err := r.ledger.Attend(ctx, eventID, userID, func(ev dao.Event, user dao.User) (dao.LedgerEntry, error) {
		entry, err := apply(eventDaoToDomain(ev), r.userDaoToDomain(user))
		if err != nil {
			return dao.LedgerEntry{}, err
		}
		return r.entryDomainToDao(entry)
	})
	if err != nil {
		return domain.LedgerEntry{}, classify("r.ledger.Attend", err)
	}

	return r.entryDaoToDomain(created)
}

// Adjust journals entry and returns the user with the new balance.
func (r *LedgerRepository) Adjust(ctx context.Context, entry domain.LedgerEntry) (domain.User, error) {
	row, err := r.entryDomainToDao(entry)
	if err != nil {
		return domain.User{}, err
	}

	user, err := r.ledger.Adjust(ctx, row)
	if err != nil {
		return domain.User{}, classify("r.ledger.Adjust", err)
	}

	return r.userDaoToDomain(user), nil
}

func (r *LedgerRepository) Entries(ctx context.Context, userID string) ([]domain.LedgerEntry, error) {
	rows, err := r.ledger.Entries(ctx, userID)
	if err != nil {
		return nil, classify("r.ledger.Entries", err)
	}

	entries := make([]domain.LedgerEntry, 0, len(rows))
	for _, row := range rows {
		entry, err := r.entryDaoToDomain(row)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func (r *LedgerRepository) EnsureUser(ctx context.Context, user domain.User) (domain.User, error) {
	stored, err := r.users.Ensure(ctx, dao.User{
		ID:        user.ID,
		Name:      user.Name,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	})
	if err != nil {
		return domain.User{}, classify("r.users.Ensure", err)
	}

	return r.withHistory(ctx, r.userDaoToDomain(stored))
}

// FindUser returns the account together with its attendance history.
func (r *LedgerRepository) FindUser(ctx context.Context, id string) (domain.User, error) {
	found, err := r.users.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, classify("r.users.FindByID", err)
	}

	return r.withHistory(ctx, r.userDaoToDomain(found))
}

func (r *LedgerRepository) withHistory(ctx context.Context, user domain.User) (domain.User, error) {
	entries, err := r.Entries(ctx, user.ID)
	if err != nil {
		return domain.User{}, err
	}
	user.AttendedEvents = domain.AttendedEventsFrom(entries)

	return user, nil
}

func (r *LedgerRepository) userDaoToDomain(u dao.User) domain.User {
	return domain.User{
		ID:             u.ID,
		Name:           u.Name,
		Points:         u.Points,
		AttendedEvents: []domain.AttendedEvent{},
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func (r *LedgerRepository) entryDomainToDao(e domain.LedgerEntry) (dao.LedgerEntry, error) {
	row := dao.LedgerEntry{
		ID:         e.ID,
		UserID:     e.UserID,
		Source:     string(e.Source),
		Points:     e.Points,
		Reason:     e.Reason,
		AdjustedBy: e.AdjustedBy,
		EventID:    e.EventID,
		CreatedAt:  e.CreatedAt,
	}

	if e.Snapshot != nil {
		b, err := json.Marshal(e.Snapshot)
		if err != nil {
			return dao.LedgerEntry{}, fmt.Errorf("json.Marshal -> %w", err)
		}
		row.Snapshot = datatypes.JSON(b)
	}

	return row, nil
}

func (r *LedgerRepository) entryDaoToDomain(row dao.LedgerEntry) (domain.LedgerEntry, error) {
	entry := domain.LedgerEntry{
		ID:         row.ID,
		UserID:     row.UserID,
		Source:     domain.LedgerSource(row.Source),
		Points:     row.Points,
		Reason:     row.Reason,
		AdjustedBy: row.AdjustedBy,
		EventID:    row.EventID,
		CreatedAt:  row.CreatedAt,
	}

	if len(row.Snapshot) > 0 {
		var snapshot domain.AttendedEvent
		if err := json.Unmarshal(row.Snapshot, &snapshot); err != nil {
			return domain.LedgerEntry{}, &domain.StorageError{Op: "json.Unmarshal", Err: err}
		}
		entry.Snapshot = &snapshot
	}

	return entry, nil
}
