package dao

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type LedgerEntry struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey"`
	UserID     string         `gorm:"not null;index:idx_ledger_user;uniqueIndex:idx_ledger_attendance_once,where:source = 'attendance'"`
	Source     string         `gorm:"not null"`
	Points     int            `gorm:"not null"`
	Reason     string         `gorm:"not null"`
	AdjustedBy string         `gorm:"not null"`
	EventID    *uuid.UUID     `gorm:"type:uuid;uniqueIndex:idx_ledger_attendance_once"`
	Snapshot   datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt  time.Time      `gorm:"not null;autoCreateTime:false"`
}

func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

type LedgerDAO struct {
	db *gorm.DB
}

func NewLedgerDAO(db *gorm.DB) *LedgerDAO {
	return &LedgerDAO{
		db: db,
	}
}

// Attend records userID as an attendee of the event and credits the ledger
// entry built by apply, all in one transaction. apply sees the locked event
// and user rows and may reject the attendance by returning an error.
func (d *LedgerDAO) Attend(
	ctx context.Context,
	eventID uuid.UUID,
	userID string,
	apply func(ev Event, user User) (LedgerEntry, error),
) (Event, User, LedgerEntry, error) {
	var (
		ev    Event
		user  User
		entry LedgerEntry
	)

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if ev, err = lockEvent(tx, eventID); err != nil {
			return err
		}
		if user, err = lockUser(tx, userID); err != nil {
			return err
		}

		if entry, err = apply(ev, user); err != nil {
			return err
		}

		attendee := EventAttendee{EventID: eventID, UserID: userID, CreatedAt: entry.CreatedAt}
		err = tx.Create(&attendee).Error
		if isUniqueViolation(err, attendeePrimaryKey) {
			return ErrAlreadyAttended
		}
		if err != nil {
			return err
		}
		ev.Attendees = append(ev.Attendees, attendee)

		err = tx.Create(&entry).Error
		if isUniqueViolation(err, attendanceLedgerIndex) {
			return ErrAlreadyAttended
		}
		if err != nil {
			return err
		}

		return addPoints(tx, &user, entry.Points, entry.CreatedAt)
	})
	if err != nil {
		return Event{}, User{}, LedgerEntry{}, err
	}

	return ev, user, entry, nil
}

// Adjust appends entry to the journal of its user and applies its points to
// the cached balance.
func (d *LedgerDAO) Adjust(ctx context.Context, entry LedgerEntry) (User, error) {
	var user User

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if user, err = lockUser(tx, entry.UserID); err != nil {
			return err
		}

		if err = tx.Create(&entry).Error; err != nil {
			return err
		}

		return addPoints(tx, &user, entry.Points, entry.CreatedAt)
	})
	if err != nil {
		return User{}, err
	}

	return user, nil
}

func (d *LedgerDAO) Entries(ctx context.Context, userID string) ([]LedgerEntry, error) {
	var entries []LedgerEntry

	result := d.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at").
		Order("id").
		Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}

	return entries, nil
}
