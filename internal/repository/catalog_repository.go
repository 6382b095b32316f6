package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/edupanel/scheduling-api/internal/models"
)

// CatalogRepository reads the reference catalogs the engine resolves
// against. The engine never mutates these.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository creates a catalog repository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// GetGroups returns all class groups.
func (r *CatalogRepository) GetGroups(ctx context.Context) ([]models.Group, error) {
	const query = `SELECT id, name, grade, created_at FROM groups ORDER BY grade ASC, name ASC`
	var groups []models.Group
	if err := r.db.SelectContext(ctx, &groups, query); err != nil {
		return nil, fmt.Errorf("get groups: %w", err)
	}
	return groups, nil
}

// GetTeachers returns the active teacher roster.
func (r *CatalogRepository) GetTeachers(ctx context.Context) ([]models.Teacher, error) {
	const query = `SELECT id, full_name, active FROM teachers WHERE active = TRUE ORDER BY full_name ASC`
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query); err != nil {
		return nil, fmt.Errorf("get teachers: %w", err)
	}
	return teachers, nil
}

// GetClassrooms returns all bookable rooms.
func (r *CatalogRepository) GetClassrooms(ctx context.Context) ([]models.Classroom, error) {
	const query = `SELECT id, name, capacity, room_type FROM classrooms ORDER BY name ASC`
	var rooms []models.Classroom
	if err := r.db.SelectContext(ctx, &rooms, query); err != nil {
		return nil, fmt.Errorf("get classrooms: %w", err)
	}
	return rooms, nil
}

// GetStudyPlans returns study plans, optionally filtered by group.
func (r *CatalogRepository) GetStudyPlans(ctx context.Context, groupID string) ([]models.StudyPlan, error) {
	var plans []models.StudyPlan
	if groupID != "" {
		const query = `SELECT id, group_id, subject_name, teacher_id, weekly_hours FROM study_plans WHERE group_id = $1 ORDER BY subject_name ASC`
		if err := r.db.SelectContext(ctx, &plans, query, groupID); err != nil {
			return nil, fmt.Errorf("get study plans: %w", err)
		}
		return plans, nil
	}
	const query = `SELECT id, group_id, subject_name, teacher_id, weekly_hours FROM study_plans ORDER BY group_id ASC, subject_name ASC`
	if err := r.db.SelectContext(ctx, &plans, query); err != nil {
		return nil, fmt.Errorf("get study plans: %w", err)
	}
	return plans, nil
}

// GetPeriods returns the named academic periods.
func (r *CatalogRepository) GetPeriods(ctx context.Context) ([]models.AcademicPeriod, error) {
	const query = `SELECT id, name, start_date, end_date FROM academic_periods ORDER BY start_date ASC`
	var periods []models.AcademicPeriod
	if err := r.db.SelectContext(ctx, &periods, query); err != nil {
		return nil, fmt.Errorf("get academic periods: %w", err)
	}
	return periods, nil
}
