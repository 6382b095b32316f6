package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edupanel/scheduling-api/internal/dto"
	"github.com/edupanel/scheduling-api/internal/models"
	"github.com/edupanel/scheduling-api/pkg/config"
	appErrors "github.com/edupanel/scheduling-api/pkg/errors"
)

type scheduleWriter interface {
	FindAll(ctx context.Context) ([]models.ScheduleRecord, error)
	Create(ctx context.Context, rec *models.ScheduleRecord) error
}

type cacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// ApplierService persists a validated batch one row at a time. The batch is
// deliberately not atomic: each item is conflict-checked against the live
// schedule plus everything already applied in this run, and a failing item
// is recorded and skipped while the loop continues.
type ApplierService struct {
	schedules scheduleWriter
	catalog   snapshotProvider
	cache     cacheInvalidator
	cfg       config.SchedulerConfig
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewApplierService creates an applier. cache may be nil.
func NewApplierService(schedules scheduleWriter, catalog snapshotProvider, cache cacheInvalidator, cfg config.SchedulerConfig, validate *validator.Validate, logger *zap.Logger) *ApplierService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApplierService{schedules: schedules, catalog: catalog, cache: cache, cfg: cfg, validate: validate, logger: logger}
}

// Apply persists the batch sequentially and reports per-item outcomes.
func (s *ApplierService) Apply(ctx context.Context, req dto.ApplyRequest) (*dto.ApplyResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid apply request")
	}
	if s.cfg.MaxBatchSize > 0 && len(req.Generated) > s.cfg.MaxBatchSize {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed,
			fmt.Sprintf("batch of %d exceeds the limit of %d", len(req.Generated), s.cfg.MaxBatchSize))
	}

	snapshot, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	records, err := s.schedules.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	corpus := make([]models.LessonOccurrence, len(records))
	for i := range records {
		corpus[i] = records[i].ToOccurrence()
	}

	result := &dto.ApplyResult{
		Created: []models.ScheduleRecord{},
		Errors:  []dto.ApplyError{},
	}

	for _, item := range req.Generated {
		occ, err := prepareOccurrence(item, snapshot)
		if err != nil {
			result.Errors = append(result.Errors, dto.ApplyError{TempID: item.TempID, Reason: err.Error()})
			continue
		}

		if conflicts := DetectConflicts(occ, corpus); len(conflicts) > 0 {
			result.Errors = append(result.Errors, dto.ApplyError{TempID: item.TempID, Reason: describeConflicts(conflicts)})
			continue
		}

		rec := models.RecordFromOccurrence(occ)
		if err := s.schedules.Create(ctx, &rec); err != nil {
			s.logger.Error("failed to persist schedule row", zap.String("tempId", item.TempID), zap.Error(err))
			result.Errors = append(result.Errors, dto.ApplyError{TempID: item.TempID, Reason: "storage error"})
			continue
		}

		// Later items in the batch must see this row as occupied.
		applied := rec.ToOccurrence()
		corpus = append(corpus, applied)
		result.Created = append(result.Created, rec)
	}
	result.CreatedCount = len(result.Created)

	if result.CreatedCount > 0 && s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, gridCachePattern); err != nil {
			s.logger.Warn("failed to invalidate grid cache", zap.Error(err))
		}
	}

	s.logger.Info("batch applied",
		zap.Int("requested", len(req.Generated)),
		zap.Int("created", result.CreatedCount),
		zap.Int("failed", len(result.Errors)))

	return result, nil
}

func describeConflicts(conflicts []models.ConflictDescriptor) string {
	parts := make([]string, len(conflicts))
	for i, c := range conflicts {
		parts[i] = fmt.Sprintf("%s: %s", c.Type, c.Description)
	}
	return "conflict: " + strings.Join(parts, "; ")
}
