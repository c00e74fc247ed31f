package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vietanh2810/attendance-api/internal/api/handler/v1/request"
	"github.com/vietanh2810/attendance-api/internal/api/handler/v1/response"
	"github.com/vietanh2810/attendance-api/internal/domain"
	"github.com/vietanh2810/attendance-api/internal/service"
)

var errNotSelf = errors.New("only the account owner or an admin may read this account")

type PointsService interface {
	AddPoints(ctx context.Context, userID string, delta int, reason, adminID string) (int, error)
	GetAccount(ctx context.Context, userID string) (domain.User, error)
	GetLedger(ctx context.Context, userID string) (domain.LedgerStatement, error)
	EnsureAccount(ctx context.Context, userID, name string) (domain.User, error)
}

type UserHandler struct {
	svc PointsService
}

func NewUserHandler(svc PointsService) *UserHandler {
	return &UserHandler{
		svc: svc,
	}
}

// HandleGetMe godoc
// @Summary      Get the caller's account
// @Tags         users
// @Produce      json
// @Success      200  {object}  domain.User
// @Failure      401  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Router       /users/me [get]
// @Security BearerAuth
func (h *UserHandler) HandleGetMe(ctx *gin.Context) {
	principal, respErr := getPrincipal(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	h.renderAccount(ctx, principal.ID)
}

// HandleEnsureMe godoc
// @Summary      Open the caller's account
// @Description  Creates the points account of the caller if it does not exist yet.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        input  body      request.EnsureAccountRequest  true  "Display name"
// @Success      200    {object}  domain.User
// @Failure      400    {object}  response.Err
// @Failure      401    {object}  response.Err
// @Router       /users/me [post]
// @Security BearerAuth
func (h *UserHandler) HandleEnsureMe(ctx *gin.Context) {
	principal, respErr := getPrincipal(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.EnsureAccountRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	user, err := h.svc.EnsureAccount(ctx.Request.Context(), principal.ID, req.Name)
	if err != nil {
		err = fmt.Errorf("HandleEnsureMe -> h.svc.EnsureAccount -> %w", err)
		response.RenderErr(ctx, response.FromDomain(err))
		return
	}

	ctx.JSON(http.StatusOK, user)
}

// HandleGetUser godoc
// @Summary      Get an account
// @Tags         users
// @Produce      json
// @Param        userID  path      string  true  "User ID"
// @Success      200     {object}  domain.User
// @Failure      401     {object}  response.Err
// @Failure      403     {object}  response.Err
// @Failure      404     {object}  response.Err
// @Router       /users/{userID} [get]
// @Security BearerAuth
func (h *UserHandler) HandleGetUser(ctx *gin.Context) {
	userID, respErr := h.readableUserID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	h.renderAccount(ctx, userID)
}

// HandleGetLedger godoc
// @Summary      Get a points ledger
// @Description  Lists the ledger entries of the user with the manual adjustments among them, and checks the cached balance against their sum.
// @Tags         users
// @Produce      json
// @Param        userID  path      string  true  "User ID"
// @Success      200     {object}  domain.LedgerStatement
// @Failure      401     {object}  response.Err
// @Failure      403     {object}  response.Err
// @Failure      404     {object}  response.Err
// @Router       /users/{userID}/ledger [get]
// @Security BearerAuth
func (h *UserHandler) HandleGetLedger(ctx *gin.Context) {
	userID, respErr := h.readableUserID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	statement, err := h.svc.GetLedger(ctx.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("user", "id", userID))
			return
		}

		err = fmt.Errorf("HandleGetLedger -> h.svc.GetLedger -> %w", err)
		response.RenderErr(ctx, response.FromDomain(err))
		return
	}

	ctx.JSON(http.StatusOK, statement)
}

// HandleAddPoints godoc
// @Summary      Adjust a user's points
// @Description  Adds (or with a negative value removes) points and journals the adjustment. Admins only.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        userID  path      string                    true  "User ID"
// @Param        input   body      request.AddPointsRequest  true  "Adjustment"
// @Success      200     {object}  response.PointsAdjusted
// @Failure      400     {object}  response.Err
// @Failure      401     {object}  response.Err
// @Failure      403     {object}  response.Err
// @Failure      404     {object}  response.Err
// @Router       /users/{userID}/points [post]
// @Security BearerAuth
func (h *UserHandler) HandleAddPoints(ctx *gin.Context) {
	principal, respErr := getPrincipal(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	userID := ctx.Param("userID")

	var req request.AddPointsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	total, err := h.svc.AddPoints(ctx.Request.Context(), userID, req.Points, req.Reason, principal.ID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("user", "id", userID))
			return
		}

		err = fmt.Errorf("HandleAddPoints -> h.svc.AddPoints -> %w", err)
		response.RenderErr(ctx, response.FromDomain(err))
		return
	}

	ctx.JSON(http.StatusOK, response.PointsAdjusted{
		UserID:      userID,
		Points:      req.Points,
		TotalPoints: total,
	})
}

func (h *UserHandler) readableUserID(ctx *gin.Context) (string, *response.Err) {
	principal, respErr := getPrincipal(ctx)
	if respErr != nil {
		return "", respErr
	}

	userID := ctx.Param("userID")
	if userID != principal.ID && !principal.IsAdmin() {
		return "", response.ErrPermissionDenied(errNotSelf)
	}

	return userID, nil
}

func (h *UserHandler) renderAccount(ctx *gin.Context, userID string) {
	user, err := h.svc.GetAccount(ctx.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("user", "id", userID))
			return
		}

		err = fmt.Errorf("h.svc.GetAccount -> %w", err)
		response.RenderErr(ctx, response.FromDomain(err))
		return
	}

	ctx.JSON(http.StatusOK, user)
}
