package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edupanel/scheduling-api/internal/dto"
	"github.com/edupanel/scheduling-api/internal/models"
	appErrors "github.com/edupanel/scheduling-api/pkg/errors"
)

type corpusReader interface {
	FindAll(ctx context.Context) ([]models.ScheduleRecord, error)
}

// ValidatorService is the authoritative pre-apply gate: it re-checks an
// optimized batch against itself and against the live schedule, ignoring
// whatever the optimizer claimed about conflicts.
type ValidatorService struct {
	schedules corpusReader
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewValidatorService creates a validator service.
func NewValidatorService(schedules corpusReader, validate *validator.Validate, logger *zap.Logger) *ValidatorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ValidatorService{schedules: schedules, validate: validate, logger: logger}
}

// ValidateBatch checks every batch item pairwise against the rest of the
// batch and against all persisted rows. Structurally invalid items fail the
// whole request; conflicts are collected, not short-circuited.
func (s *ValidatorService) ValidateBatch(ctx context.Context, req dto.ValidateRequest) (*dto.ValidationResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid validate request")
	}

	for i := range req.Generated {
		if err := req.Generated[i].Validate(); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status,
				fmt.Sprintf("item %d is structurally invalid", i))
		}
	}

	records, err := s.schedules.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	live := make([]models.LessonOccurrence, len(records))
	for i := range records {
		live[i] = records[i].ToOccurrence()
	}

	var conflicts []models.ConflictDescriptor
	for i := range req.Generated {
		conflicts = append(conflicts, DetectConflicts(req.Generated[i], live)...)
		// Pairwise within the batch, each pair checked once.
		conflicts = append(conflicts, DetectConflicts(req.Generated[i], req.Generated[:i])...)
	}

	result := &dto.ValidationResult{Conflicts: conflicts, IsOK: len(conflicts) == 0}
	if result.Conflicts == nil {
		result.Conflicts = []models.ConflictDescriptor{}
	}

	s.logger.Info("batch validated",
		zap.Int("items", len(req.Generated)),
		zap.Int("conflicts", len(conflicts)))

	return result, nil
}
