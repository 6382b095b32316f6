package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/edupanel/scheduling-api/internal/models"
)

const catalogSnapshotKey = "catalog:snapshot"

type catalogReader interface {
	GetGroups(ctx context.Context) ([]models.Group, error)
	GetTeachers(ctx context.Context) ([]models.Teacher, error)
	GetClassrooms(ctx context.Context) ([]models.Classroom, error)
	GetStudyPlans(ctx context.Context, groupID string) ([]models.StudyPlan, error)
	GetPeriods(ctx context.Context) ([]models.AcademicPeriod, error)
}

type catalogCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// CatalogService serves immutable reference-data snapshots to the pipeline
// stages. Snapshots are cached briefly so one pipeline run hits the catalog
// tables once.
type CatalogService struct {
	repo    catalogReader
	cache   catalogCache
	ttl     time.Duration
	metrics *MetricsService
	logger  *zap.Logger
}

// NewCatalogService creates a catalog service. cache and metrics may be nil.
func NewCatalogService(repo catalogReader, cache catalogCache, ttl time.Duration, metrics *MetricsService, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{repo: repo, cache: cache, ttl: ttl, metrics: metrics, logger: logger}
}

// Snapshot returns the current catalog view, from cache when fresh.
func (s *CatalogService) Snapshot(ctx context.Context) (*models.CatalogSnapshot, error) {
	if s.cache != nil {
		var cached models.CatalogSnapshot
		if err := s.cache.Get(ctx, catalogSnapshotKey, &cached); err == nil {
			s.metrics.RecordCacheOperation(true)
			return &cached, nil
		}
		s.metrics.RecordCacheOperation(false)
	}

	groups, err := s.repo.GetGroups(ctx)
	if err != nil {
		return nil, err
	}
	teachers, err := s.repo.GetTeachers(ctx)
	if err != nil {
		return nil, err
	}
	rooms, err := s.repo.GetClassrooms(ctx)
	if err != nil {
		return nil, err
	}
	plans, err := s.repo.GetStudyPlans(ctx, "")
	if err != nil {
		return nil, err
	}
	periods, err := s.repo.GetPeriods(ctx)
	if err != nil {
		return nil, err
	}

	snapshot := &models.CatalogSnapshot{
		Groups:     groups,
		Teachers:   teachers,
		Classrooms: rooms,
		StudyPlans: plans,
		Periods:    periods,
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, catalogSnapshotKey, snapshot, s.ttl); err != nil {
			s.logger.Warn("failed to cache catalog snapshot", zap.Error(err))
		}
	}

	return snapshot, nil
}
