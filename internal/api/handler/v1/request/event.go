package request

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/vietanh2810/attendance-api/internal/domain"
)

type CreateEventRequest struct {
	Name        string     `json:"name" example:"Go meetup"`
	Description string     `json:"description" example:"Monthly meetup"`
	Location    string     `json:"location" example:"Hall A"`
	StartTime   time.Time  `json:"start_time" example:"2025-03-01T18:00:00Z"`
	EndTime     *time.Time `json:"end_time,omitempty" example:"2025-03-01T20:00:00Z"`
	PointsValue int        `json:"points_value" example:"10"`
}

func (req *CreateEventRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Length(0, 120)),
		validation.Field(&req.Description, validation.Length(0, 2000)),
		validation.Field(&req.Location, validation.Length(0, 200)),
	)
}

func (req *CreateEventRequest) Input() domain.EventInput {
	return domain.EventInput{
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		PointsValue: req.PointsValue,
	}
}

type UpdateEventRequest struct {
	Name        *string    `json:"name,omitempty"`
	Description *string    `json:"description,omitempty"`
	Location    *string    `json:"location,omitempty"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	PointsValue *int       `json:"points_value,omitempty"`
}

func (req *UpdateEventRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Length(0, 120)),
		validation.Field(&req.Description, validation.Length(0, 2000)),
		validation.Field(&req.Location, validation.Length(0, 200)),
	)
}

func (req *UpdateEventRequest) Patch() domain.EventPatch {
	return domain.EventPatch{
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		PointsValue: req.PointsValue,
	}
}

type ToggleCodeRequest struct {
	Active *bool `json:"active" example:"true"`
}

func (req *ToggleCodeRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Active, validation.NotNil),
	)
}
