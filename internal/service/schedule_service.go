package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edupanel/scheduling-api/internal/dto"
	"github.com/edupanel/scheduling-api/internal/models"
	appErrors "github.com/edupanel/scheduling-api/pkg/errors"
)

type scheduleStore interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleRecord, int, error)
	FindAll(ctx context.Context) ([]models.ScheduleRecord, error)
	FindByID(ctx context.Context, id string) (*models.ScheduleRecord, error)
	Create(ctx context.Context, rec *models.ScheduleRecord) error
	Update(ctx context.Context, rec *models.ScheduleRecord) error
	Delete(ctx context.Context, id string) error
}

// ScheduleService covers the row-level operations outside the pipeline:
// listing, single creation and the drag-to-move reschedule.
type ScheduleService struct {
	repo     scheduleStore
	catalog  snapshotProvider
	cache    cacheInvalidator
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

// NewScheduleService creates a schedule service. cache may be nil.
func NewScheduleService(repo scheduleStore, catalog snapshotProvider, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{repo: repo, catalog: catalog, cache: cache, validate: validate, logger: logger, now: time.Now}
}

// List returns schedule rows with read-time status derivation.
func (s *ScheduleService) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleRecord, *models.Pagination, error) {
	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, err
	}

	now := s.now().UTC()
	for i := range records {
		s.deriveStatus(&records[i], now)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}

	return records, models.NewPagination(page, size, total), nil
}

// GetByID loads one schedule row.
func (s *ScheduleService) GetByID(ctx context.Context, id string) (*models.ScheduleRecord, error) {
	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, err
	}
	s.deriveStatus(rec, s.now().UTC())
	return rec, nil
}

// Create inserts one row after reference resolution and conflict checking.
func (s *ScheduleService) Create(ctx context.Context, req dto.CreateScheduleRequest) (*models.ScheduleRecord, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule request")
	}

	snapshot, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	occ, err := prepareOccurrence(req.ToOccurrence(), snapshot)
	if err != nil {
		return nil, err
	}

	if err := s.checkConflicts(ctx, occ); err != nil {
		return nil, err
	}

	rec := models.RecordFromOccurrence(occ)
	if err := s.repo.Create(ctx, &rec); err != nil {
		return nil, err
	}

	s.invalidateGrids(ctx)
	return &rec, nil
}

// Reschedule moves an existing row. Only placement fields and an operator
// status override may change; identity fields are immutable.
func (s *ScheduleService) Reschedule(ctx context.Context, id string, req dto.RescheduleRequest) (*models.ScheduleRecord, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reschedule request")
	}

	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, err
	}

	if req.DayOfWeek != nil {
		rec.DayOfWeek = *req.DayOfWeek
	}
	if req.Date != nil {
		rec.Date = req.Date
	}
	if req.StartTime != nil {
		rec.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		rec.EndTime = *req.EndTime
	}
	if req.Status != nil {
		rec.Status = *req.Status
	}

	occ := rec.ToOccurrence()
	if err := occ.Validate(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "reschedule produces an invalid placement")
	}

	// The moved row's own persisted copy is excluded by identity.
	if err := s.checkConflicts(ctx, occ); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, err
	}

	s.invalidateGrids(ctx)
	return rec, nil
}

// Delete removes one schedule row.
func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateGrids(ctx)
	return nil
}

func (s *ScheduleService) checkConflicts(ctx context.Context, occ models.LessonOccurrence) error {
	records, err := s.repo.FindAll(ctx)
	if err != nil {
		return err
	}
	corpus := make([]models.LessonOccurrence, len(records))
	for i := range records {
		corpus[i] = records[i].ToOccurrence()
	}
	if conflicts := DetectConflicts(occ, corpus); len(conflicts) > 0 {
		return appErrors.Clone(appErrors.ErrConflict, describeConflicts(conflicts))
	}
	return nil
}

func (s *ScheduleService) deriveStatus(rec *models.ScheduleRecord, now time.Time) {
	occ := rec.ToOccurrence()
	rec.Status = string(occ.DeriveStatus(now))
}

func (s *ScheduleService) invalidateGrids(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, gridCachePattern); err != nil {
		s.logger.Warn("failed to invalidate grid cache", zap.Error(err))
	}
}

// prepareOccurrence resolves a period preset and re-checks catalog
// references for a single occurrence, mirroring the applier's per-item
// preparation.
func prepareOccurrence(occ models.LessonOccurrence, snapshot *models.CatalogSnapshot) (models.LessonOccurrence, error) {
	if occ.PeriodID != nil && *occ.PeriodID != "" {
		period := snapshot.PeriodByID(*occ.PeriodID)
		if period == nil {
			return occ, errUnknownPeriod(*occ.PeriodID)
		}
		occ.StartDate = strPtr(period.StartDate)
		occ.EndDate = strPtr(period.EndDate)
		occ.PeriodID = nil
	}

	if occ.Recurrence == models.RecurrenceBiweekly && (occ.AnchorDate == nil || *occ.AnchorDate == "") && occ.StartDate != nil {
		occ.AnchorDate = occ.StartDate
	}

	if err := occ.Validate(); err != nil {
		return occ, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	if _, err := resolveGroup(snapshot, occ.GroupID); err != nil {
		return occ, appErrors.Wrap(err, appErrors.ErrResolution.Code, appErrors.ErrResolution.Status, err.Error())
	}
	if _, err := resolveTeacher(snapshot, occ.TeacherID); err != nil {
		return occ, appErrors.Wrap(err, appErrors.ErrResolution.Code, appErrors.ErrResolution.Status, err.Error())
	}
	if _, err := resolveStudyPlan(snapshot, occ.StudyPlanID, occ.GroupID, occ.SubjectName); err != nil {
		return occ, appErrors.Wrap(err, appErrors.ErrResolution.Code, appErrors.ErrResolution.Status, err.Error())
	}
	if occ.ClassroomID != nil && *occ.ClassroomID != "" {
		if room := resolveRoom(snapshot, *occ.ClassroomID); room == nil {
			return occ, appErrors.Clone(appErrors.ErrResolution, "unknown classroom "+*occ.ClassroomID)
		}
	}

	return occ, nil
}

func errUnknownPeriod(id string) error {
	return appErrors.Clone(appErrors.ErrResolution, "unknown period "+id)
}
