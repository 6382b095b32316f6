package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edupanel/scheduling-api/internal/dto"
	appErrors "github.com/edupanel/scheduling-api/pkg/errors"
	"github.com/edupanel/scheduling-api/pkg/response"
)

type projector interface {
	ProjectWeek(ctx context.Context, weekStart string) ([]dto.GridCell, error)
	ProjectMonth(ctx context.Context, year, month int) ([]dto.GridCell, error)
}

// GridHandler serves the projected weekly grid and monthly calendar.
type GridHandler struct {
	service projector
}

// NewGridHandler constructs handler.
func NewGridHandler(svc projector) *GridHandler {
	return &GridHandler{service: svc}
}

// Week godoc
// @Summary Project the weekly grid
// @Tags Grid
// @Produce json
// @Param weekStart query string true "Any date inside the week (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /schedules/grid [get]
func (h *GridHandler) Week(c *gin.Context) {
	weekStart := c.Query("weekStart")
	if weekStart == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "weekStart is required"))
		return
	}
	cells, err := h.service.ProjectWeek(c.Request.Context(), weekStart)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cells, nil)
}

// Month godoc
// @Summary Project the monthly calendar
// @Tags Grid
// @Produce json
// @Param year query int true "Year"
// @Param month query int true "Month (1-12)"
// @Success 200 {object} response.Envelope
// @Router /schedules/calendar [get]
func (h *GridHandler) Month(c *gin.Context) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil || year < 2000 || year > 2200 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "year must be a number between 2000 and 2200"))
		return
	}
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "month must be a number between 1 and 12"))
		return
	}
	cells, err := h.service.ProjectMonth(c.Request.Context(), year, month)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cells, nil)
}
