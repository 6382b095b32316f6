package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupanel/scheduling-api/internal/dto"
	"github.com/edupanel/scheduling-api/internal/models"
	appErrors "github.com/edupanel/scheduling-api/pkg/errors"
)

type scheduleWriterStub struct {
	records   []models.ScheduleRecord
	created   []models.ScheduleRecord
	createErr error
}

func (s *scheduleWriterStub) FindAll(ctx context.Context) ([]models.ScheduleRecord, error) {
	return s.records, nil
}

func (s *scheduleWriterStub) Create(ctx context.Context, rec *models.ScheduleRecord) error {
	if s.createErr != nil {
		return s.createErr
	}
	if rec.ID == "" {
		rec.ID = "generated-id"
	}
	s.created = append(s.created, *rec)
	return nil
}

type invalidatorStub struct {
	patterns []string
}

func (s *invalidatorStub) DeleteByPattern(ctx context.Context, pattern string) error {
	s.patterns = append(s.patterns, pattern)
	return nil
}

func applierFixture(writer *scheduleWriterStub, cache *invalidatorStub) *ApplierService {
	return NewApplierService(writer, &snapshotStub{snapshot: testSnapshot()}, cache, testSchedulerConfig(), nil, nil)
}

func batchItem(tempID string, day int, start, end string, room *string) models.LessonOccurrence {
	return models.LessonOccurrence{
		TempID:      tempID,
		GroupID:     "group-1",
		TeacherID:   "teacher-1",
		ClassroomID: room,
		StudyPlanID: "plan-1",
		SubjectName: "Math",
		Recurrence:  models.RecurrenceWeekly,
		DayOfWeek:   day,
		StartTime:   start,
		EndTime:     end,
		StartDate:   strPtr("2026-01-05"),
		EndDate:     strPtr("2026-05-29"),
	}
}

func TestApplierPartialBatch(t *testing.T) {
	writer := &scheduleWriterStub{}
	cache := &invalidatorStub{}
	svc := applierFixture(writer, cache)

	// The third item books room-1 at a slot the first item just took for a
	// different group: it must fail while the first two stay persisted.
	third := batchItem("tmp-3", 1, "08:00", "09:00", strPtr("room-1"))
	third.GroupID = "group-2"
	third.TeacherID = "teacher-2"
	third.StudyPlanID = "plan-3"

	result, err := svc.Apply(context.Background(), dto.ApplyRequest{
		Generated: []models.LessonOccurrence{
			batchItem("tmp-1", 1, "08:00", "09:00", strPtr("room-1")),
			batchItem("tmp-2", 2, "08:00", "09:00", strPtr("room-1")),
			third,
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.CreatedCount)
	require.Len(t, result.Created, 2)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "tmp-3", result.Errors[0].TempID)
	assert.Contains(t, result.Errors[0].Reason, "room")

	require.Len(t, writer.created, 2)
	assert.Contains(t, cache.patterns, "schedule:grid:*")
}

func TestApplierConflictWithLiveSchedule(t *testing.T) {
	writer := &scheduleWriterStub{records: []models.ScheduleRecord{
		storedLesson("live-1", "group-1", "teacher-2", 1, "08:00", "09:00"),
	}}
	svc := applierFixture(writer, &invalidatorStub{})

	result, err := svc.Apply(context.Background(), dto.ApplyRequest{
		Generated: []models.LessonOccurrence{
			batchItem("tmp-1", 1, "08:30", "09:30", nil),
		},
	})
	require.NoError(t, err)
	assert.Zero(t, result.CreatedCount)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "tmp-1", result.Errors[0].TempID)
	assert.Empty(t, writer.created)
}

func TestApplierResolvesPeriodPreset(t *testing.T) {
	writer := &scheduleWriterStub{}
	svc := applierFixture(writer, &invalidatorStub{})

	item := batchItem("tmp-1", 1, "08:00", "09:00", nil)
	item.StartDate = nil
	item.EndDate = nil
	item.PeriodID = strPtr("period-1")

	result, err := svc.Apply(context.Background(), dto.ApplyRequest{
		Generated: []models.LessonOccurrence{item},
	})
	require.NoError(t, err)
	require.Equal(t, 1, result.CreatedCount)

	rec := result.Created[0]
	require.NotNil(t, rec.StartDate)
	assert.Equal(t, "2026-01-05", *rec.StartDate)
	require.NotNil(t, rec.EndDate)
	assert.Equal(t, "2026-05-29", *rec.EndDate)
	assert.Equal(t, string(models.StatusUpcoming), rec.Status)
}

func TestApplierBiweeklyGetsAnchor(t *testing.T) {
	writer := &scheduleWriterStub{}
	svc := applierFixture(writer, &invalidatorStub{})

	item := batchItem("tmp-1", 1, "08:00", "09:00", nil)
	item.Recurrence = models.RecurrenceBiweekly

	result, err := svc.Apply(context.Background(), dto.ApplyRequest{
		Generated: []models.LessonOccurrence{item},
	})
	require.NoError(t, err)
	require.Equal(t, 1, result.CreatedCount)
	require.NotNil(t, result.Created[0].AnchorDate)
	assert.Equal(t, "2026-01-05", *result.Created[0].AnchorDate)
}

func TestApplierUnknownReference(t *testing.T) {
	writer := &scheduleWriterStub{}
	svc := applierFixture(writer, &invalidatorStub{})

	item := batchItem("tmp-1", 1, "08:00", "09:00", nil)
	item.TeacherID = "teacher-404"

	result, err := svc.Apply(context.Background(), dto.ApplyRequest{
		Generated: []models.LessonOccurrence{item},
	})
	require.NoError(t, err)
	assert.Zero(t, result.CreatedCount)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Reason, "teacher-404")
}

func TestApplierStorageErrorContinues(t *testing.T) {
	writer := &scheduleWriterStub{createErr: errors.New("connection reset")}
	svc := applierFixture(writer, &invalidatorStub{})

	result, err := svc.Apply(context.Background(), dto.ApplyRequest{
		Generated: []models.LessonOccurrence{
			batchItem("tmp-1", 1, "08:00", "09:00", nil),
			batchItem("tmp-2", 2, "08:00", "09:00", nil),
		},
	})
	require.NoError(t, err)
	assert.Zero(t, result.CreatedCount)
	assert.Len(t, result.Errors, 2)
}

func TestApplierBatchLimit(t *testing.T) {
	cfg := testSchedulerConfig()
	cfg.MaxBatchSize = 1
	svc := NewApplierService(&scheduleWriterStub{}, &snapshotStub{snapshot: testSnapshot()}, nil, cfg, nil, nil)

	_, err := svc.Apply(context.Background(), dto.ApplyRequest{
		Generated: []models.LessonOccurrence{
			batchItem("tmp-1", 1, "08:00", "09:00", nil),
			batchItem("tmp-2", 2, "08:00", "09:00", nil),
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}
