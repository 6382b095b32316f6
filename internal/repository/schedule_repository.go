package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edupanel/scheduling-api/internal/models"
)

const scheduleColumns = "id, group_id, teacher_id, classroom_id, study_plan_id, subject_name, recurrence, day_of_week, date, start_time, end_time, start_date, end_date, anchor_date, status, created_at, updated_at"

// ScheduleRepository provides persistence for schedule rows.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// List returns schedule rows with optional filtering and pagination.
func (r *ScheduleRepository) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleRecord, int, error) {
	base := "FROM schedules WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.GroupID != "" {
		conditions = append(conditions, fmt.Sprintf("group_id = $%d", len(args)+1))
		args = append(args, filter.GroupID)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.ClassroomID != "" {
		conditions = append(conditions, fmt.Sprintf("classroom_id = $%d", len(args)+1))
		args = append(args, filter.ClassroomID)
	}
	if filter.DayOfWeek >= 1 && filter.DayOfWeek <= 7 {
		conditions = append(conditions, fmt.Sprintf("day_of_week = $%d", len(args)+1))
		args = append(args, filter.DayOfWeek)
	}
	if filter.Recurrence != "" {
		conditions = append(conditions, fmt.Sprintf("recurrence = $%d", len(args)+1))
		args = append(args, filter.Recurrence)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"day_of_week": true,
		"start_time":  true,
		"date":        true,
		"created_at":  true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "day_of_week"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s, start_time ASC LIMIT %d OFFSET %d", scheduleColumns, base, sortBy, order, size, offset)
	var records []models.ScheduleRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list schedules: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count schedules: %w", err)
	}

	return records, total, nil
}

// FindAll returns the entire live schedule. The validator and applier use
// this as the conflict corpus.
func (r *ScheduleRepository) FindAll(ctx context.Context) ([]models.ScheduleRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM schedules ORDER BY day_of_week ASC, start_time ASC", scheduleColumns)
	var records []models.ScheduleRecord
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("find all schedules: %w", err)
	}
	return records, nil
}

// FindByID loads a schedule row by id.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.ScheduleRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM schedules WHERE id = $1", scheduleColumns)
	var rec models.ScheduleRecord
	if err := r.db.GetContext(ctx, &rec, query, id); err != nil {
		return nil, err
	}
	return &rec, nil
}

// FindByGroup returns schedule rows for a group ordered by day/time.
func (r *ScheduleRepository) FindByGroup(ctx context.Context, groupID string) ([]models.ScheduleRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM schedules WHERE group_id = $1 ORDER BY day_of_week ASC, start_time ASC", scheduleColumns)
	var records []models.ScheduleRecord
	if err := r.db.SelectContext(ctx, &records, query, groupID); err != nil {
		return nil, fmt.Errorf("find schedules by group: %w", err)
	}
	return records, nil
}

// FindByTeacher returns schedule rows taught by a teacher.
func (r *ScheduleRepository) FindByTeacher(ctx context.Context, teacherID string) ([]models.ScheduleRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM schedules WHERE teacher_id = $1 ORDER BY day_of_week ASC, start_time ASC", scheduleColumns)
	var records []models.ScheduleRecord
	if err := r.db.SelectContext(ctx, &records, query, teacherID); err != nil {
		return nil, fmt.Errorf("find schedules by teacher: %w", err)
	}
	return records, nil
}

// FindByClassroom returns schedule rows booked into a classroom.
func (r *ScheduleRepository) FindByClassroom(ctx context.Context, classroomID string) ([]models.ScheduleRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM schedules WHERE classroom_id = $1 ORDER BY day_of_week ASC, start_time ASC", scheduleColumns)
	var records []models.ScheduleRecord
	if err := r.db.SelectContext(ctx, &records, query, classroomID); err != nil {
		return nil, fmt.Errorf("find schedules by classroom: %w", err)
	}
	return records, nil
}

// FindByDayOfWeek returns schedule rows for one weekday.
func (r *ScheduleRepository) FindByDayOfWeek(ctx context.Context, dayOfWeek int) ([]models.ScheduleRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM schedules WHERE day_of_week = $1 ORDER BY start_time ASC", scheduleColumns)
	var records []models.ScheduleRecord
	if err := r.db.SelectContext(ctx, &records, query, dayOfWeek); err != nil {
		return nil, fmt.Errorf("find schedules by day: %w", err)
	}
	return records, nil
}

// Create inserts one schedule row, assigning id and timestamps.
func (r *ScheduleRepository) Create(ctx context.Context, rec *models.ScheduleRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	const query = `
INSERT INTO schedules (id, group_id, teacher_id, classroom_id, study_plan_id, subject_name, recurrence, day_of_week, date, start_time, end_time, start_date, end_date, anchor_date, status, created_at, updated_at)
VALUES (:id, :group_id, :teacher_id, :classroom_id, :study_plan_id, :subject_name, :recurrence, :day_of_week, :date, :start_time, :end_time, :start_date, :end_date, :anchor_date, :status, :created_at, :updated_at)`

	if _, err := r.db.NamedExecContext(ctx, query, rec); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

// Update rewrites the mutable columns of a schedule row.
func (r *ScheduleRepository) Update(ctx context.Context, rec *models.ScheduleRecord) error {
	rec.UpdatedAt = time.Now().UTC()

	const query = `
UPDATE schedules
SET day_of_week = :day_of_week,
    date = :date,
    start_time = :start_time,
    end_time = :end_time,
    classroom_id = :classroom_id,
    status = :status,
    updated_at = :updated_at
WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, rec)
	if err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update schedule %s: no rows affected", rec.ID)
	}
	return nil
}

// Delete removes one schedule row.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM schedules WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("delete schedule %s: no rows affected", id)
	}
	return nil
}
