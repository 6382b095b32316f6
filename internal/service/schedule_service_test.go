package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupanel/scheduling-api/internal/dto"
	"github.com/edupanel/scheduling-api/internal/models"
	appErrors "github.com/edupanel/scheduling-api/pkg/errors"
)

type scheduleStoreStub struct {
	records []models.ScheduleRecord
	updated *models.ScheduleRecord
	deleted []string
}

func (s *scheduleStoreStub) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleRecord, int, error) {
	return s.records, len(s.records), nil
}

func (s *scheduleStoreStub) FindAll(ctx context.Context) ([]models.ScheduleRecord, error) {
	return s.records, nil
}

func (s *scheduleStoreStub) FindByID(ctx context.Context, id string) (*models.ScheduleRecord, error) {
	for i := range s.records {
		if s.records[i].ID == id {
			rec := s.records[i]
			return &rec, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *scheduleStoreStub) Create(ctx context.Context, rec *models.ScheduleRecord) error {
	if rec.ID == "" {
		rec.ID = "new-id"
	}
	s.records = append(s.records, *rec)
	return nil
}

func (s *scheduleStoreStub) Update(ctx context.Context, rec *models.ScheduleRecord) error {
	s.updated = rec
	return nil
}

func (s *scheduleStoreStub) Delete(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func scheduleServiceFixture(store *scheduleStoreStub, cache *invalidatorStub) *ScheduleService {
	svc := NewScheduleService(store, &snapshotStub{snapshot: testSnapshot()}, cache, nil, nil)
	svc.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	return svc
}

func TestScheduleServiceCreate(t *testing.T) {
	store := &scheduleStoreStub{}
	cache := &invalidatorStub{}
	svc := scheduleServiceFixture(store, cache)

	rec, err := svc.Create(context.Background(), dto.CreateScheduleRequest{
		GroupID:     "group-1",
		TeacherID:   "teacher-1",
		StudyPlanID: "plan-1",
		SubjectName: "Math",
		Recurrence:  "weekly",
		DayOfWeek:   1,
		StartTime:   "09:00",
		EndTime:     "10:00",
		PeriodID:    strPtr("period-1"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	require.NotNil(t, rec.StartDate)
	assert.Equal(t, "2026-01-05", *rec.StartDate)
	assert.Contains(t, cache.patterns, "schedule:grid:*")
}

func TestScheduleServiceCreateConflict(t *testing.T) {
	store := &scheduleStoreStub{records: []models.ScheduleRecord{
		storedLesson("live-1", "group-1", "teacher-2", 1, "09:00", "10:00"),
	}}
	svc := scheduleServiceFixture(store, &invalidatorStub{})

	_, err := svc.Create(context.Background(), dto.CreateScheduleRequest{
		GroupID:     "group-1",
		TeacherID:   "teacher-1",
		StudyPlanID: "plan-1",
		SubjectName: "Math",
		Recurrence:  "weekly",
		DayOfWeek:   1,
		StartTime:   "09:30",
		EndTime:     "10:30",
		StartDate:   strPtr("2026-01-05"),
		EndDate:     strPtr("2026-05-29"),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceCreateUnresolvableReference(t *testing.T) {
	svc := scheduleServiceFixture(&scheduleStoreStub{}, &invalidatorStub{})

	_, err := svc.Create(context.Background(), dto.CreateScheduleRequest{
		GroupID:     "group-1",
		TeacherID:   "teacher-1",
		StudyPlanID: "plan-1",
		SubjectName: "Math",
		Recurrence:  "weekly",
		DayOfWeek:   1,
		StartTime:   "09:00",
		EndTime:     "10:00",
		ClassroomID: strPtr("room-404"),
		StartDate:   strPtr("2026-01-05"),
		EndDate:     strPtr("2026-05-29"),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrResolution.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceRescheduleExcludesSelf(t *testing.T) {
	store := &scheduleStoreStub{records: []models.ScheduleRecord{
		storedLesson("row-1", "group-1", "teacher-1", 1, "09:00", "10:00"),
	}}
	cache := &invalidatorStub{}
	svc := scheduleServiceFixture(store, cache)

	// Shifting by 30 minutes still overlaps the row's own persisted copy;
	// that must not count as a conflict.
	newStart := "09:30"
	newEnd := "10:30"
	rec, err := svc.Reschedule(context.Background(), "row-1", dto.RescheduleRequest{
		StartTime: &newStart,
		EndTime:   &newEnd,
	})
	require.NoError(t, err)
	assert.Equal(t, "09:30", rec.StartTime)
	require.NotNil(t, store.updated)
	assert.Contains(t, cache.patterns, "schedule:grid:*")
}

func TestScheduleServiceRescheduleConflict(t *testing.T) {
	store := &scheduleStoreStub{records: []models.ScheduleRecord{
		storedLesson("row-1", "group-1", "teacher-1", 1, "09:00", "10:00"),
		storedLesson("row-2", "group-1", "teacher-2", 2, "09:00", "10:00"),
	}}
	svc := scheduleServiceFixture(store, &invalidatorStub{})

	day := 2
	_, err := svc.Reschedule(context.Background(), "row-1", dto.RescheduleRequest{
		DayOfWeek: &day,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceRescheduleNotFound(t *testing.T) {
	svc := scheduleServiceFixture(&scheduleStoreStub{}, &invalidatorStub{})

	start := "09:00"
	_, err := svc.Reschedule(context.Background(), "missing", dto.RescheduleRequest{StartTime: &start})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceGetDerivesStatus(t *testing.T) {
	date := "2026-01-05"
	store := &scheduleStoreStub{records: []models.ScheduleRecord{{
		ID:          "row-1",
		GroupID:     "group-1",
		TeacherID:   "teacher-1",
		StudyPlanID: "plan-1",
		SubjectName: "Math",
		Recurrence:  string(models.RecurrenceOnce),
		Date:        &date,
		StartTime:   "09:00",
		EndTime:     "10:00",
		Status:      string(models.StatusUpcoming),
	}}}
	svc := scheduleServiceFixture(store, nil)
	svc.now = func() time.Time { return time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC) }

	rec, err := svc.GetByID(context.Background(), "row-1")
	require.NoError(t, err)
	assert.Equal(t, string(models.StatusCompleted), rec.Status)
}

func TestScheduleServiceDelete(t *testing.T) {
	store := &scheduleStoreStub{records: []models.ScheduleRecord{
		storedLesson("row-1", "group-1", "teacher-1", 1, "09:00", "10:00"),
	}}
	cache := &invalidatorStub{}
	svc := scheduleServiceFixture(store, cache)

	require.NoError(t, svc.Delete(context.Background(), "row-1"))
	assert.Equal(t, []string{"row-1"}, store.deleted)

	err := svc.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
