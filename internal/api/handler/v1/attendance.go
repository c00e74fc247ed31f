package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vietanh2810/attendance-api/internal/api/handler/v1/request"
	"github.com/vietanh2810/attendance-api/internal/api/handler/v1/response"
	"github.com/vietanh2810/attendance-api/internal/domain"
	"github.com/vietanh2810/attendance-api/internal/service"
)

type AttendanceService interface {
	SubmitAttendance(ctx context.Context, userID, code string) (domain.AttendanceResult, error)
	AddAttendee(ctx context.Context, eventID uuid.UUID, userID, adminID string) (domain.LedgerEntry, error)
	ListAttendees(ctx context.Context, eventID uuid.UUID) ([]string, error)
}

type AttendanceHandler struct {
	svc AttendanceService
}

func NewAttendanceHandler(svc AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{
		svc: svc,
	}
}

// HandleSubmitAttendance godoc
// @Summary      Redeem an attendance code
// @Description  Records the caller as an attendee and credits the event's points. A rejected code still answers 200 with success=false and the reason.
// @Tags         attendance
// @Accept       json
// @Produce      json
// @Param        input  body      request.SubmitAttendanceRequest  true  "Code"
// @Success      200    {object}  domain.AttendanceResult
// @Failure      400    {object}  response.Err
// @Failure      401    {object}  response.Err
// @Failure      404    {object}  response.Err
// @Failure      500    {object}  response.Err
// @Router       /attendance [post]
// @Security BearerAuth
func (h *AttendanceHandler) HandleSubmitAttendance(ctx *gin.Context) {
	principal, respErr := getPrincipal(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.SubmitAttendanceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	result, err := h.svc.SubmitAttendance(ctx.Request.Context(), principal.ID, req.Code)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("user", "id", principal.ID))
			return
		}

		err = fmt.Errorf("HandleSubmitAttendance -> h.svc.SubmitAttendance -> %w", err)
		response.RenderErr(ctx, response.FromDomain(err))
		return
	}

	ctx.JSON(http.StatusOK, result)
}

// HandleAddAttendee godoc
// @Summary      Add an attendee
// @Description  Records a user as attendee without a code and credits the event's points. Admins only.
// @Tags         attendance
// @Accept       json
// @Produce      json
// @Param        eventID  path      string                      true  "Event ID"
// @Param        input    body      request.AddAttendeeRequest  true  "User"
// @Success      201      {object}  domain.LedgerEntry
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Router       /events/{eventID}/attendees [post]
// @Security BearerAuth
func (h *AttendanceHandler) HandleAddAttendee(ctx *gin.Context) {
	principal, respErr := getPrincipal(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	eventID, respErr := getEventID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.AddAttendeeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	entry, err := h.svc.AddAttendee(ctx.Request.Context(), eventID, req.UserID, principal.ID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			response.RenderErr(ctx, response.ErrNotFound("event", "id", eventID))
		case errors.Is(err, service.ErrUserNotFound):
			response.RenderErr(ctx, response.ErrNotFound("user", "id", req.UserID))
		default:
			err = fmt.Errorf("HandleAddAttendee -> h.svc.AddAttendee -> %w", err)
			response.RenderErr(ctx, response.FromDomain(err))
		}
		return
	}

	ctx.JSON(http.StatusCreated, entry)
}

// HandleListAttendees godoc
// @Summary      List attendees
// @Tags         attendance
// @Produce      json
// @Param        eventID  path      string  true  "Event ID"
// @Success      200      {object}  response.Attendees
// @Failure      401      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Router       /events/{eventID}/attendees [get]
// @Security BearerAuth
func (h *AttendanceHandler) HandleListAttendees(ctx *gin.Context) {
	eventID, respErr := getEventID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	attendees, err := h.svc.ListAttendees(ctx.Request.Context(), eventID)
	if err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("event", "id", eventID))
			return
		}

		err = fmt.Errorf("HandleListAttendees -> h.svc.ListAttendees -> %w", err)
		response.RenderErr(ctx, response.FromDomain(err))
		return
	}

	ctx.JSON(http.StatusOK, response.Attendees{EventID: eventID.String(), UserIDs: attendees})
}
