package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vietanh2810/attendance-api/internal/api/handler/v1/response"
	"github.com/vietanh2810/attendance-api/internal/api/middleware"
	"github.com/vietanh2810/attendance-api/internal/domain"
)

var errNoPrincipal = errors.New("no authenticated principal")

// HandleHealthcheck godoc
// @Summary      Healthcheck
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       / [get]
func HandleHealthcheck(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func getPrincipal(ctx *gin.Context) (domain.Principal, *response.Err) {
	p, ok := middleware.Principal(ctx)
	if !ok {
		return domain.Principal{}, response.ErrUnauthorized(errNoPrincipal)
	}

	return p, nil
}

func getEventID(ctx *gin.Context) (uuid.UUID, *response.Err) {
	id, err := uuid.Parse(ctx.Param("eventID"))
	if err != nil {
		return uuid.Nil, response.ErrBadRequest(err)
	}

	return id, nil
}
