package request

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// SubmitAttendanceRequest is not validated here: a malformed code is an
// ordinary rejected result.
type SubmitAttendanceRequest struct {
	Code string `json:"code" example:"482913"`
}

type AddAttendeeRequest struct {
	UserID string `json:"user_id" example:"auth0|5f7c8ec7c33c6c004bbafe82"`
}

func (req *AddAttendeeRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.UserID, validation.Required, is.PrintableASCII, validation.Length(1, 128)),
	)
}

type AddPointsRequest struct {
	Points int    `json:"points" example:"25"`
	Reason string `json:"reason" example:"helped at the registration desk"`
}

func (req *AddPointsRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Points, validation.Required),
		validation.Field(&req.Reason, validation.Required, validation.Length(1, 255)),
	)
}

type EnsureAccountRequest struct {
	Name string `json:"name" example:"Ann Lee"`
}

func (req *EnsureAccountRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 100)),
	)
}
