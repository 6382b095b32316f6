package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupanel/scheduling-api/internal/dto"
	"github.com/edupanel/scheduling-api/internal/models"
	appErrors "github.com/edupanel/scheduling-api/pkg/errors"
)

type corpusStub struct {
	records []models.ScheduleRecord
	err     error
}

func (s *corpusStub) FindAll(ctx context.Context) ([]models.ScheduleRecord, error) {
	return s.records, s.err
}

func storedLesson(id, groupID, teacherID string, day int, start, end string) models.ScheduleRecord {
	return models.ScheduleRecord{
		ID:          id,
		GroupID:     groupID,
		TeacherID:   teacherID,
		StudyPlanID: "plan-1",
		SubjectName: "Math",
		Recurrence:  string(models.RecurrenceWeekly),
		DayOfWeek:   day,
		StartTime:   start,
		EndTime:     end,
		StartDate:   strPtr("2026-01-05"),
		EndDate:     strPtr("2026-05-29"),
		Status:      string(models.StatusUpcoming),
	}
}

func TestValidatorCleanBatch(t *testing.T) {
	corpus := &corpusStub{records: []models.ScheduleRecord{
		storedLesson("live-1", "group-1", "teacher-1", 1, "08:00", "09:00"),
	}}
	svc := NewValidatorService(corpus, nil, nil)

	result, err := svc.ValidateBatch(context.Background(), dto.ValidateRequest{
		Generated: []models.LessonOccurrence{
			weeklyOccurrence(2, "2026-01-05", "2026-05-29"),
		},
	})
	require.NoError(t, err)
	assert.True(t, result.IsOK)
	assert.Empty(t, result.Conflicts)
	assert.NotNil(t, result.Conflicts, "conflicts serializes as [] not null")
}

func TestValidatorConflictAgainstLiveSchedule(t *testing.T) {
	corpus := &corpusStub{records: []models.ScheduleRecord{
		storedLesson("live-1", "group-9", "teacher-1", 3, "09:00", "10:00"),
	}}
	svc := NewValidatorService(corpus, nil, nil)

	candidate := weeklyOccurrence(3, "2026-01-05", "2026-05-29")
	result, err := svc.ValidateBatch(context.Background(), dto.ValidateRequest{
		Generated: []models.LessonOccurrence{candidate},
	})
	require.NoError(t, err)
	assert.False(t, result.IsOK)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, models.ConflictTeacher, result.Conflicts[0].Type)
}

func TestValidatorConflictWithinBatch(t *testing.T) {
	svc := NewValidatorService(&corpusStub{}, nil, nil)

	a := weeklyOccurrence(3, "2026-01-05", "2026-05-29")
	a.TempID = "tmp-1"
	b := weeklyOccurrence(3, "2026-01-05", "2026-05-29")
	b.TempID = "tmp-2"
	b.TeacherID = "teacher-2"

	result, err := svc.ValidateBatch(context.Background(), dto.ValidateRequest{
		Generated: []models.LessonOccurrence{a, b},
	})
	require.NoError(t, err)
	assert.False(t, result.IsOK)
	// Same group, same slot: reported once for the pair.
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, models.ConflictGroup, result.Conflicts[0].Type)
}

func TestValidatorStructurallyInvalidItem(t *testing.T) {
	svc := NewValidatorService(&corpusStub{}, nil, nil)

	bad := weeklyOccurrence(3, "2026-01-05", "2026-05-29")
	bad.EndTime = "08:00" // before start

	_, err := svc.ValidateBatch(context.Background(), dto.ValidateRequest{
		Generated: []models.LessonOccurrence{bad},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
