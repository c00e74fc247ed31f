package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vietanh2810/attendance-api/internal/domain"
	"github.com/vietanh2810/attendance-api/internal/repository/dao"
)

type EventDAO interface {
	Insert(ctx context.Context, ev dao.Event) (dao.Event, error)
	FindByID(ctx context.Context, id uuid.UUID) (dao.Event, error)
	FindByCode(ctx context.Context, code string) (dao.Event, error)
	List(ctx context.Context, statuses []string, includeCleanedUp bool) ([]dao.Event, error)
	Update(ctx context.Context, id uuid.UUID, apply func(ev *dao.Event) error) (dao.Event, error)
	AssignCode(ctx context.Context, id uuid.UUID, attempts int, next func() string, apply func(ev *dao.Event, code string) error) (dao.Event, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CompleteEnded(ctx context.Context, now time.Time, from []string, to string) (int, error)
	CleanupCompleted(ctx context.Context, now, cutoff time.Time, status string) (int, error)
}

type EventRepository struct {
	dao EventDAO
}

func NewEventRepository(dao EventDAO) *EventRepository {
	return &EventRepository{
		dao: dao,
	}
}

func (r *EventRepository) Create(ctx context.Context, ev domain.Event) (domain.Event, error) {
	created, err := r.dao.Insert(ctx, eventDomainToDao(ev))
	if err != nil {
		return domain.Event{}, classify("r.dao.Insert", err)
	}

	return eventDaoToDomain(created), nil
}

func (r *EventRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.Event, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Event{}, classify("r.dao.FindByID", err)
	}

	return eventDaoToDomain(found), nil
}

func (r *EventRepository) FindByCode(ctx context.Context, code string) (domain.Event, error) {
	found, err := r.dao.FindByCode(ctx, code)
	if err != nil {
		return domain.Event{}, classify("r.dao.FindByCode", err)
	}

	return eventDaoToDomain(found), nil
}

func (r *EventRepository) List(ctx context.Context, filter domain.EventFilter) ([]domain.Event, error) {
	statuses := make([]string, 0, len(filter.Statuses))
	for _, s := range filter.Statuses {
		statuses = append(statuses, string(s))
	}

	found, err := r.dao.List(ctx, statuses, filter.IncludeCleanedUp)
	if err != nil {
		return nil, classify("r.dao.List", err)
	}

	events := make([]domain.Event, 0, len(found))
	for _, ev := range found {
		events = append(events, eventDaoToDomain(ev))
	}

	return events, nil
}

// Update runs apply against the locked event and persists the result.
func (r *EventRepository) Update(
	ctx context.Context,
	id uuid.UUID,
	apply func(ev *domain.Event) error,
) (domain.Event, error) {
	updated, err := r.dao.Update(ctx, id, func(row *dao.Event) error {
		ev := eventDaoToDomain(*row)
		if err := apply(&ev); err != nil {
			return err
		}
		copyEventFields(ev, row)
		return nil
	})
	if err != nil {
		return domain.Event{}, classify("r.dao.Update", err)
	}

	return eventDaoToDomain(updated), nil
}

func (r *EventRepository) AssignCode(
	ctx context.Context,
	id uuid.UUID,
	attempts int,
	next func() string,
	apply func(ev *domain.Event, code string) error,
) (domain.Event, error) {
	updated, err := r.dao.AssignCode(ctx, id, attempts, next, func(row *dao.Event, code string) error {
		ev := eventDaoToDomain(*row)
		if err := apply(&ev, code); err != nil {
			return err
		}
		copyEventFields(ev, row)
		return nil
	})
	if err != nil {
		return domain.Event{}, classify("r.dao.AssignCode", err)
	}

	return eventDaoToDomain(updated), nil
}

func (r *EventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.dao.Delete(ctx, id); err != nil {
		return classify("r.dao.Delete", err)
	}

	return nil
}

// CompleteEnded completes upcoming or active events whose end time is before now.
func (r *EventRepository) CompleteEnded(ctx context.Context, now time.Time) (int, error) {
	from := []string{string(domain.EventUpcoming), string(domain.EventActive)}

	count, err := r.dao.CompleteEnded(ctx, now, from, string(domain.EventCompleted))
	if err != nil {
		return 0, classify("r.dao.CompleteEnded", err)
	}

	return count, nil
}

func (r *EventRepository) CleanupCompleted(ctx context.Context, now, cutoff time.Time) (int, error) {
	count, err := r.dao.CleanupCompleted(ctx, now, cutoff, string(domain.EventCompleted))
	if err != nil {
		return 0, classify("r.dao.CleanupCompleted", err)
	}

	return count, nil
}

func copyEventFields(ev domain.Event, row *dao.Event) {
	row.Name = ev.Name
	row.Description = ev.Description
	row.Location = ev.Location
	row.StartTime = ev.StartTime
	row.EndTime = ev.EndTime
	row.PointsValue = ev.PointsValue
	row.Status = string(ev.Status)
	row.AttendanceCode = ev.AttendanceCode
	row.CodeActive = ev.CodeActive
	row.CleanedUp = ev.CleanedUp
	row.UpdatedAt = ev.UpdatedAt
}

func eventDomainToDao(ev domain.Event) dao.Event {
	row := dao.Event{
		ID:        ev.ID,
		CreatedBy: ev.CreatedBy,
		CreatedAt: ev.CreatedAt,
	}
	copyEventFields(ev, &row)

	return row
}

func eventDaoToDomain(row dao.Event) domain.Event {
	attendees := make([]string, 0, len(row.Attendees))
	for _, a := range row.Attendees {
		attendees = append(attendees, a.UserID)
	}

	return domain.Event{
		ID:             row.ID,
		Name:           row.Name,
		Description:    row.Description,
		Location:       row.Location,
		StartTime:      row.StartTime,
		EndTime:        row.EndTime,
		PointsValue:    row.PointsValue,
		CreatedBy:      row.CreatedBy,
		Status:         domain.EventStatus(row.Status),
		AttendanceCode: row.AttendanceCode,
		CodeActive:     row.CodeActive,
		Attendees:      attendees,
		CleanedUp:      row.CleanedUp,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}
