package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edupanel/scheduling-api/internal/dto"
	"github.com/edupanel/scheduling-api/internal/service"
	appErrors "github.com/edupanel/scheduling-api/pkg/errors"
	"github.com/edupanel/scheduling-api/pkg/response"
)

type draftBuilder interface {
	BuildDraft(ctx context.Context, req dto.DraftRequest) (*dto.DraftResponse, error)
}

type scheduleOptimizer interface {
	Optimize(ctx context.Context, req dto.OptimizeRequest) (*dto.OptimizedScheduleResponse, error)
}

type batchValidator interface {
	ValidateBatch(ctx context.Context, req dto.ValidateRequest) (*dto.ValidationResult, error)
}

type batchApplier interface {
	Apply(ctx context.Context, req dto.ApplyRequest) (*dto.ApplyResult, error)
}

// PipelineHandler exposes the four-stage generation pipeline.
type PipelineHandler struct {
	drafts    draftBuilder
	optimizer scheduleOptimizer
	validator batchValidator
	applier   batchApplier
	metrics   *service.MetricsService
}

// NewPipelineHandler constructs the pipeline handler. metrics may be nil.
func NewPipelineHandler(drafts draftBuilder, optimizer scheduleOptimizer, validator batchValidator, applier batchApplier, metrics *service.MetricsService) *PipelineHandler {
	return &PipelineHandler{drafts: drafts, optimizer: optimizer, validator: validator, applier: applier, metrics: metrics}
}

// Draft godoc
// @Summary Build a draft schedule
// @Tags Pipeline
// @Accept json
// @Produce json
// @Param payload body dto.DraftRequest true "Generation parameters"
// @Success 200 {object} response.Envelope
// @Router /schedules/pipeline/draft [post]
func (h *PipelineHandler) Draft(c *gin.Context) {
	var req dto.DraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.drafts.BuildDraft(c.Request.Context(), req)
	h.metrics.ObservePipelineStage("draft", err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Optimize godoc
// @Summary Optimize a draft via the reasoning service
// @Tags Pipeline
// @Accept json
// @Produce json
// @Param payload body dto.OptimizeRequest true "Draft to optimize"
// @Success 200 {object} response.Envelope
// @Router /schedules/pipeline/optimize [post]
func (h *PipelineHandler) Optimize(c *gin.Context) {
	var req dto.OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.optimizer.Optimize(c.Request.Context(), req)
	h.metrics.ObservePipelineStage("optimize", err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Validate godoc
// @Summary Validate an optimized batch against the live schedule
// @Tags Pipeline
// @Accept json
// @Produce json
// @Param payload body dto.ValidateRequest true "Batch to validate"
// @Success 200 {object} response.Envelope
// @Router /schedules/pipeline/validate [post]
func (h *PipelineHandler) Validate(c *gin.Context) {
	var req dto.ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.validator.ValidateBatch(c.Request.Context(), req)
	h.metrics.ObservePipelineStage("validate", err)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.AddConflicts(len(result.Conflicts))
	response.JSON(c, http.StatusOK, result, nil)
}

// Apply godoc
// @Summary Persist a validated batch
// @Tags Pipeline
// @Accept json
// @Produce json
// @Param payload body dto.ApplyRequest true "Batch to persist"
// @Success 200 {object} response.Envelope
// @Router /schedules/pipeline/apply [post]
func (h *PipelineHandler) Apply(c *gin.Context) {
	var req dto.ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.applier.Apply(c.Request.Context(), req)
	h.metrics.ObservePipelineStage("apply", err)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.AddLessonsCreated(result.CreatedCount)
	response.JSON(c, http.StatusOK, result, nil)
}
