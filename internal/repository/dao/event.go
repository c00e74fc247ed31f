package dao

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Event struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Name           string     `gorm:"not null"`
	Description    string     `gorm:"not null"`
	Location       string     `gorm:"not null"`
	StartTime      time.Time  `gorm:"not null;index"`
	EndTime        *time.Time `gorm:"index"`
	PointsValue    int        `gorm:"not null"`
	CreatedBy      string     `gorm:"not null"`
	Status         string     `gorm:"not null;index"`
	AttendanceCode *string    `gorm:"size:6;uniqueIndex:idx_events_active_code,where:code_active = true"`
	CodeActive     bool       `gorm:"not null"`
	CleanedUp      bool       `gorm:"not null"`

	Attendees []EventAttendee `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime:false"`
}

func (Event) TableName() string {
	return "events"
}

type EventAttendee struct {
	EventID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    string    `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime:false"`
}

func (EventAttendee) TableName() string {
	return "event_attendees"
}

// columns lists every mutable column of ev; the map form makes gorm write
// zero values and keeps associations out of the update.
func (ev Event) columns() map[string]interface{} {
	return map[string]interface{}{
		"name":            ev.Name,
		"description":     ev.Description,
		"location":        ev.Location,
		"start_time":      ev.StartTime,
		"end_time":        ev.EndTime,
		"points_value":    ev.PointsValue,
		"status":          ev.Status,
		"attendance_code": ev.AttendanceCode,
		"code_active":     ev.CodeActive,
		"cleaned_up":      ev.CleanedUp,
		"updated_at":      ev.UpdatedAt,
	}
}

type EventDAO struct {
	db *gorm.DB
}

func NewEventDAO(db *gorm.DB) *EventDAO {
	return &EventDAO{
		db: db,
	}
}

func (d *EventDAO) Insert(ctx context.Context, ev Event) (Event, error) {
	result := d.db.WithContext(ctx).Omit(clause.Associations).Create(&ev)
	if result.Error != nil {
		return Event{}, result.Error
	}

	return ev, nil
}

func (d *EventDAO) FindByID(ctx context.Context, id uuid.UUID) (Event, error) {
	var ev Event

	result := d.db.WithContext(ctx).
		Preload("Attendees", withAttendeeOrder).
		First(&ev, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Event{}, ErrEventNotFound
		}

		return Event{}, result.Error
	}

	return ev, nil
}

// FindByCode returns the event holding code, preferring the one on which the
// code is currently active.
func (d *EventDAO) FindByCode(ctx context.Context, code string) (Event, error) {
	var ev Event

	result := d.db.WithContext(ctx).
		Preload("Attendees", withAttendeeOrder).
		Where("attendance_code = ?", code).
		Order("code_active DESC").
		Order("updated_at DESC").
		First(&ev)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Event{}, ErrEventNotFound
		}

		return Event{}, result.Error
	}

	return ev, nil
}

func (d *EventDAO) List(ctx context.Context, statuses []string, includeCleanedUp bool) ([]Event, error) {
	var events []Event

	query := d.db.WithContext(ctx).Preload("Attendees", withAttendeeOrder)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	if !includeCleanedUp {
		query = query.Where("cleaned_up = ?", false)
	}

	result := query.Order("start_time").Find(&events)
	if result.Error != nil {
		return nil, result.Error
	}

	return events, nil
}

// Update locks the event row, lets apply mutate the loaded copy and writes
// it back in the same transaction. An error from apply aborts the update.
func (d *EventDAO) Update(ctx context.Context, id uuid.UUID, apply func(ev *Event) error) (Event, error) {
	var updated Event

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ev, err := lockEvent(tx, id)
		if err != nil {
			return err
		}

		if err = apply(&ev); err != nil {
			return err
		}

		err = tx.Model(&Event{ID: id}).Updates(ev.columns()).Error
		if isUniqueViolation(err, activeCodeIndex) {
			return ErrCodeTaken
		}
		if err != nil {
			return err
		}

		updated = ev
		return nil
	})
	if err != nil {
		return Event{}, err
	}

	return updated, nil
}

// AssignCode draws up to attempts candidates from next and stores the first
// one that no other event holds as an active code. Each write runs in its own
// savepoint so a lost race on the unique index only discards that attempt.
func (d *EventDAO) AssignCode(
	ctx context.Context,
	id uuid.UUID,
	attempts int,
	next func() string,
	apply func(ev *Event, code string) error,
) (Event, error) {
	var updated Event

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ev, err := lockEvent(tx, id)
		if err != nil {
			return err
		}

		for i := 0; i < attempts; i++ {
			code := next()

			var taken int64
			err = tx.Model(&Event{}).
				Where("attendance_code = ? AND code_active = ? AND id <> ?", code, true, id).
				Count(&taken).Error
			if err != nil {
				return err
			}
			if taken > 0 {
				continue
			}

			candidate := ev
			if err = apply(&candidate, code); err != nil {
				return err
			}

			err = tx.Transaction(func(sp *gorm.DB) error {
				return sp.Model(&Event{ID: id}).Updates(candidate.columns()).Error
			})
			if isUniqueViolation(err, activeCodeIndex) {
				continue
			}
			if err != nil {
				return err
			}

			updated = candidate
			return nil
		}

		return ErrCodeAttemptsExhausted
	})
	if err != nil {
		return Event{}, err
	}

	return updated, nil
}

func (d *EventDAO) Delete(ctx context.Context, id uuid.UUID) error {
	result := d.db.WithContext(ctx).Delete(&Event{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEventNotFound
	}

	return nil
}

// CompleteEnded moves every event in one of the from statuses whose end time
// is before now to status to. The update re-checks the selection so rows
// changed in between are left alone.
func (d *EventDAO) CompleteEnded(ctx context.Context, now time.Time, from []string, to string) (int, error) {
	var count int

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uuid.UUID
		err := tx.Model(&Event{}).
			Where("end_time IS NOT NULL AND end_time < ? AND status IN ?", now, from).
			Pluck("id", &ids).Error
		if err != nil || len(ids) == 0 {
			return err
		}

		result := tx.Model(&Event{}).
			Where("id IN ? AND end_time < ? AND status IN ?", ids, now, from).
			Updates(map[string]interface{}{
				"status":     to,
				"updated_at": now,
			})
		if result.Error != nil {
			return result.Error
		}

		count = int(result.RowsAffected)
		return nil
	})
	if err != nil {
		return 0, err
	}

	return count, nil
}

// CleanupCompleted flags events in status whose end time is before cutoff
// as cleaned up.
func (d *EventDAO) CleanupCompleted(ctx context.Context, now, cutoff time.Time, status string) (int, error) {
	var count int

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uuid.UUID
		err := tx.Model(&Event{}).
			Where("status = ? AND end_time < ? AND cleaned_up = ?", status, cutoff, false).
			Pluck("id", &ids).Error
		if err != nil || len(ids) == 0 {
			return err
		}

		result := tx.Model(&Event{}).
			Where("id IN ? AND status = ? AND end_time < ? AND cleaned_up = ?", ids, status, cutoff, false).
			Updates(map[string]interface{}{
				"cleaned_up": true,
				"updated_at": now,
			})
		if result.Error != nil {
			return result.Error
		}

		count = int(result.RowsAffected)
		return nil
	})
	if err != nil {
		return 0, err
	}

	return count, nil
}

func lockEvent(tx *gorm.DB, id uuid.UUID) (Event, error) {
	var ev Event

	result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&ev, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Event{}, ErrEventNotFound
		}

		return Event{}, result.Error
	}

	if err := withAttendeeOrder(tx).Where("event_id = ?", id).Find(&ev.Attendees).Error; err != nil {
		return Event{}, err
	}

	return ev, nil
}

func withAttendeeOrder(db *gorm.DB) *gorm.DB {
	return db.Order("created_at").Order("user_id")
}
