package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edupanel/scheduling-api/internal/dto"
	"github.com/edupanel/scheduling-api/internal/models"
	appErrors "github.com/edupanel/scheduling-api/pkg/errors"
	"github.com/edupanel/scheduling-api/pkg/response"
)

type scheduleManager interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleRecord, *models.Pagination, error)
	GetByID(ctx context.Context, id string) (*models.ScheduleRecord, error)
	Create(ctx context.Context, req dto.CreateScheduleRequest) (*models.ScheduleRecord, error)
	Reschedule(ctx context.Context, id string, req dto.RescheduleRequest) (*models.ScheduleRecord, error)
	Delete(ctx context.Context, id string) error
}

// ScheduleHandler manages the row-level schedule endpoints.
type ScheduleHandler struct {
	service scheduleManager
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(svc scheduleManager) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// List godoc
// @Summary List schedule rows
// @Tags Schedules
// @Produce json
// @Param groupId query string false "Filter by group"
// @Param teacherId query string false "Filter by teacher"
// @Param classroomId query string false "Filter by classroom"
// @Param dayOfWeek query int false "Filter by day (monday=1)"
// @Param recurrence query string false "Filter by recurrence"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	var filter models.ScheduleFilter
	filter.GroupID = c.Query("groupId")
	filter.TeacherID = c.Query("teacherId")
	filter.ClassroomID = c.Query("classroomId")
	filter.Recurrence = c.Query("recurrence")
	if day, err := strconv.Atoi(c.Query("dayOfWeek")); err == nil {
		filter.DayOfWeek = day
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = limit
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	records, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}

// Get godoc
// @Summary Get one schedule row
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id} [get]
func (h *ScheduleHandler) Get(c *gin.Context) {
	rec, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rec, nil)
}

// Create godoc
// @Summary Create a schedule row
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body dto.CreateScheduleRequest true "Schedule payload"
// @Success 201 {object} response.Envelope
// @Router /schedules [post]
func (h *ScheduleHandler) Create(c *gin.Context) {
	var req dto.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rec, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rec)
}

// Reschedule godoc
// @Summary Move a schedule row to a new slot
// @Tags Schedules
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body dto.RescheduleRequest true "New placement"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/reschedule [patch]
func (h *ScheduleHandler) Reschedule(c *gin.Context) {
	var req dto.RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rec, err := h.service.Reschedule(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rec, nil)
}

// Delete godoc
// @Summary Delete a schedule row
// @Tags Schedules
// @Param id path string true "Schedule ID"
// @Success 204
// @Router /schedules/{id} [delete]
func (h *ScheduleHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
