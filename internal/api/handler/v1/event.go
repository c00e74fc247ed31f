package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vietanh2810/attendance-api/internal/api/handler/v1/request"
	"github.com/vietanh2810/attendance-api/internal/api/handler/v1/response"
	"github.com/vietanh2810/attendance-api/internal/domain"
	"github.com/vietanh2810/attendance-api/internal/service"
)

type LifecycleService interface {
	CreateEvent(ctx context.Context, in domain.EventInput, creatorID string) (domain.Event, error)
	UpdateEvent(ctx context.Context, id uuid.UUID, patch domain.EventPatch) (domain.Event, error)
	DeleteEvent(ctx context.Context, id uuid.UUID) error
	GetEvent(ctx context.Context, id uuid.UUID) (domain.Event, error)
	ListEvents(ctx context.Context, filter domain.EventFilter) ([]domain.Event, error)
	GenerateAttendanceCode(ctx context.Context, id uuid.UUID) (string, error)
	ToggleAttendanceCode(ctx context.Context, id uuid.UUID, active bool) error
	EndEvent(ctx context.Context, id uuid.UUID) error
	CancelEvent(ctx context.Context, id uuid.UUID) error
}

type EventHandler struct {
	svc LifecycleService
}

func NewEventHandler(svc LifecycleService) *EventHandler {
	return &EventHandler{
		svc: svc,
	}
}

// HandleCreateEvent godoc
// @Summary      Create an event
// @Description  Creates an upcoming event. Organizers and admins only.
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        input  body      request.CreateEventRequest  true  "Event details"
// @Success      201    {object}  domain.Event
// @Failure      400    {object}  response.Err
// @Failure      401    {object}  response.Err
// @Failure      403    {object}  response.Err
// @Failure      500    {object}  response.Err
// @Router       /events [post]
// @Security BearerAuth
func (h *EventHandler) HandleCreateEvent(ctx *gin.Context) {
	principal, respErr := getPrincipal(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.CreateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	created, err := h.svc.CreateEvent(ctx.Request.Context(), req.Input(), principal.ID)
	if err != nil {
		err = fmt.Errorf("HandleCreateEvent -> h.svc.CreateEvent -> %w", err)
		response.RenderErr(ctx, response.FromDomain(err))
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// HandleListEvents godoc
// @Summary      List events
// @Description  Lists events, optionally filtered by effective status. Cleaned up events are only listed for admins asking for them.
// @Tags         events
// @Produce      json
// @Param        status              query     string  false  "Comma separated statuses (upcoming, active, completed, cancelled)"
// @Param        include_cleaned_up  query     bool    false  "Include cleaned up events (admin only)"
// @Success      200  {array}   domain.Event
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /events [get]
// @Security BearerAuth
func (h *EventHandler) HandleListEvents(ctx *gin.Context) {
	principal, respErr := getPrincipal(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var filter domain.EventFilter
	for _, raw := range ctx.QueryArray("status") {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				filter.Statuses = append(filter.Statuses, domain.EventStatus(s))
			}
		}
	}

	if raw := ctx.Query("include_cleaned_up"); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("include_cleaned_up: %w", err)))
			return
		}
		filter.IncludeCleanedUp = include && principal.IsAdmin()
	}

	events, err := h.svc.ListEvents(ctx.Request.Context(), filter)
	if err != nil {
		err = fmt.Errorf("HandleListEvents -> h.svc.ListEvents -> %w", err)
		response.RenderErr(ctx, response.FromDomain(err))
		return
	}

	ctx.JSON(http.StatusOK, events)
}

// HandleGetEvent godoc
// @Summary      Get an event
// @Tags         events
// @Produce      json
// @Param        eventID  path      string  true  "Event ID"
// @Success      200      {object}  domain.Event
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID} [get]
// @Security BearerAuth
func (h *EventHandler) HandleGetEvent(ctx *gin.Context) {
	id, respErr := getEventID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	ev, err := h.svc.GetEvent(ctx.Request.Context(), id)
	if err != nil {
		h.renderErr(ctx, "HandleGetEvent -> h.svc.GetEvent", id, err)
		return
	}

	ctx.JSON(http.StatusOK, ev)
}

// HandleUpdateEvent godoc
// @Summary      Edit an event
// @Description  Edits an event that has not started yet.
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        eventID  path      string                      true  "Event ID"
// @Param        input    body      request.UpdateEventRequest  true  "Fields to change"
// @Success      200      {object}  domain.Event
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID} [patch]
// @Security BearerAuth
func (h *EventHandler) HandleUpdateEvent(ctx *gin.Context) {
	id, respErr := getEventID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.UpdateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	updated, err := h.svc.UpdateEvent(ctx.Request.Context(), id, req.Patch())
	if err != nil {
		h.renderErr(ctx, "HandleUpdateEvent -> h.svc.UpdateEvent", id, err)
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

// HandleDeleteEvent godoc
// @Summary      Delete an event
// @Description  Deletes an event for good. Ledger history is kept. Admins only.
// @Tags         events
// @Param        eventID  path  string  true  "Event ID"
// @Success      204
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /events/{eventID} [delete]
// @Security BearerAuth
func (h *EventHandler) HandleDeleteEvent(ctx *gin.Context) {
	id, respErr := getEventID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if err := h.svc.DeleteEvent(ctx.Request.Context(), id); err != nil {
		h.renderErr(ctx, "HandleDeleteEvent -> h.svc.DeleteEvent", id, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleGenerateCode godoc
// @Summary      Generate an attendance code
// @Description  Issues a fresh six digit code and activates it. The event must have started.
// @Tags         events
// @Produce      json
// @Param        eventID  path      string  true  "Event ID"
// @Success      201      {object}  response.AttendanceCode
// @Failure      401      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      503      {object}  response.Err
// @Router       /events/{eventID}/code [post]
// @Security BearerAuth
func (h *EventHandler) HandleGenerateCode(ctx *gin.Context) {
	id, respErr := getEventID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	code, err := h.svc.GenerateAttendanceCode(ctx.Request.Context(), id)
	if err != nil {
		h.renderErr(ctx, "HandleGenerateCode -> h.svc.GenerateAttendanceCode", id, err)
		return
	}

	ctx.JSON(http.StatusCreated, response.AttendanceCode{EventID: id.String(), Code: code})
}

// HandleToggleCode godoc
// @Summary      Activate or deactivate the attendance code
// @Tags         events
// @Accept       json
// @Param        eventID  path  string                     true  "Event ID"
// @Param        input    body  request.ToggleCodeRequest  true  "Desired state"
// @Success      204
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Router       /events/{eventID}/code [put]
// @Security BearerAuth
func (h *EventHandler) HandleToggleCode(ctx *gin.Context) {
	id, respErr := getEventID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.ToggleCodeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := h.svc.ToggleAttendanceCode(ctx.Request.Context(), id, *req.Active); err != nil {
		h.renderErr(ctx, "HandleToggleCode -> h.svc.ToggleAttendanceCode", id, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleEndEvent godoc
// @Summary      End an event now
// @Tags         events
// @Param        eventID  path  string  true  "Event ID"
// @Success      204
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Router       /events/{eventID}/end [post]
// @Security BearerAuth
func (h *EventHandler) HandleEndEvent(ctx *gin.Context) {
	id, respErr := getEventID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if err := h.svc.EndEvent(ctx.Request.Context(), id); err != nil {
		h.renderErr(ctx, "HandleEndEvent -> h.svc.EndEvent", id, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleCancelEvent godoc
// @Summary      Cancel an event
// @Tags         events
// @Param        eventID  path  string  true  "Event ID"
// @Success      204
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Router       /events/{eventID}/cancel [post]
// @Security BearerAuth
func (h *EventHandler) HandleCancelEvent(ctx *gin.Context) {
	id, respErr := getEventID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if err := h.svc.CancelEvent(ctx.Request.Context(), id); err != nil {
		h.renderErr(ctx, "HandleCancelEvent -> h.svc.CancelEvent", id, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *EventHandler) renderErr(ctx *gin.Context, op string, id uuid.UUID, err error) {
	if errors.Is(err, service.ErrEventNotFound) {
		response.RenderErr(ctx, response.ErrNotFound("event", "id", id))
		return
	}

	response.RenderErr(ctx, response.FromDomain(fmt.Errorf("%s -> %w", op, err)))
}
