package v1

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vietanh2810/attendance-api/internal/api/handler/v1/response"
	"github.com/vietanh2810/attendance-api/internal/domain"
)

type SweepService interface {
	Run(ctx context.Context) (domain.SweepResult, error)
}

type AdminHandler struct {
	sweeper SweepService
}

func NewAdminHandler(sweeper SweepService) *AdminHandler {
	return &AdminHandler{
		sweeper: sweeper,
	}
}

// HandleSweep godoc
// @Summary      Run the lifecycle sweep
// @Description  Completes ended events and hides events completed more than a day ago. Safe to repeat. Admins only.
// @Tags         admin
// @Produce      json
// @Success      200  {object}  domain.SweepResult
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /admin/sweep [post]
// @Security BearerAuth
func (h *AdminHandler) HandleSweep(ctx *gin.Context) {
	result, err := h.sweeper.Run(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("HandleSweep -> h.sweeper.Run -> %w", err)
		response.RenderErr(ctx, response.FromDomain(err))
		return
	}

	ctx.JSON(http.StatusOK, result)
}
