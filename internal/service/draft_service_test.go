package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupanel/scheduling-api/internal/dto"
	"github.com/edupanel/scheduling-api/internal/models"
	"github.com/edupanel/scheduling-api/pkg/config"
	appErrors "github.com/edupanel/scheduling-api/pkg/errors"
)

type snapshotStub struct {
	snapshot *models.CatalogSnapshot
	err      error
}

func (s *snapshotStub) Snapshot(ctx context.Context) (*models.CatalogSnapshot, error) {
	return s.snapshot, s.err
}

func testSnapshot() *models.CatalogSnapshot {
	return &models.CatalogSnapshot{
		Groups: []models.Group{
			{ID: "group-1", Name: "10А", Grade: 10},
			{ID: "group-2", Name: "10Б", Grade: 10},
		},
		Teachers: []models.Teacher{
			{ID: "teacher-1", FullName: "Anna Petrova", Active: true},
			{ID: "teacher-2", FullName: "Boris Ivanov", Active: true},
		},
		Classrooms: []models.Classroom{
			{ID: "room-1", Name: "101", Capacity: 30},
			{ID: "room-2", Name: "202", Capacity: 25},
		},
		StudyPlans: []models.StudyPlan{
			{ID: "plan-1", GroupID: "group-1", SubjectName: "Math", TeacherID: "teacher-1", WeeklyHours: 3},
			{ID: "plan-2", GroupID: "group-1", SubjectName: "Physics", TeacherID: "teacher-2", WeeklyHours: 2},
			{ID: "plan-3", GroupID: "group-2", SubjectName: "Math", TeacherID: "teacher-1", WeeklyHours: 2},
		},
		Periods: []models.AcademicPeriod{
			{ID: "period-1", Name: "Spring term", StartDate: "2026-01-05", EndDate: "2026-05-29"},
		},
	}
}

func testSchedulerConfig() config.SchedulerConfig {
	return config.SchedulerConfig{
		WorkdayStart:    "08:00",
		WorkdayEnd:      "18:00",
		LessonMinutes:   60,
		MaxBatchSize:    256,
		ExcludeWeekends: true,
		MaxConsecutive:  4,
		MinBreakMinutes: 30,
	}
}

func TestDraftServicePlacesAllDemand(t *testing.T) {
	svc := NewDraftService(&snapshotStub{snapshot: testSnapshot()}, testSchedulerConfig(), nil, nil)

	resp, err := svc.BuildDraft(context.Background(), dto.DraftRequest{
		Params: dto.GenerationParams{
			GroupIDs: []string{"group-1", "group-2"},
			PeriodID: strPtr("period-1"),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 7, resp.Stats.Requested)
	assert.Equal(t, 7, resp.Stats.Placed)
	assert.Empty(t, resp.Stats.Missed)
	require.Len(t, resp.Draft, 7)

	// The draft itself is conflict free.
	for i, occ := range resp.Draft {
		rest := append(append([]models.LessonOccurrence{}, resp.Draft[:i]...), resp.Draft[i+1:]...)
		assert.Empty(t, DetectConflicts(occ, rest))
	}

	for _, occ := range resp.Draft {
		assert.NotEmpty(t, occ.TempID)
		assert.Equal(t, models.RecurrenceWeekly, occ.Recurrence)
		assert.LessOrEqual(t, occ.DayOfWeek, 5, "weekends are excluded")
		require.NotNil(t, occ.StartDate)
		assert.Equal(t, "2026-01-05", *occ.StartDate)
		require.NoError(t, occ.Validate())
	}
}

func TestDraftServiceUnknownGroup(t *testing.T) {
	svc := NewDraftService(&snapshotStub{snapshot: testSnapshot()}, testSchedulerConfig(), nil, nil)

	_, err := svc.BuildDraft(context.Background(), dto.DraftRequest{
		Params: dto.GenerationParams{
			GroupIDs: []string{"group-404"},
			PeriodID: strPtr("period-1"),
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrResolution.Code, appErrors.FromError(err).Code)
}

func TestDraftServiceUnknownPeriod(t *testing.T) {
	svc := NewDraftService(&snapshotStub{snapshot: testSnapshot()}, testSchedulerConfig(), nil, nil)

	_, err := svc.BuildDraft(context.Background(), dto.DraftRequest{
		Params: dto.GenerationParams{
			GroupIDs: []string{"group-1"},
			PeriodID: strPtr("period-404"),
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrResolution.Code, appErrors.FromError(err).Code)
}

func TestDraftServiceMissesWhenCapacityExhausted(t *testing.T) {
	cfg := testSchedulerConfig()
	cfg.WorkdayStart = "08:00"
	cfg.WorkdayEnd = "09:00" // one slot per day, five slots per week

	snapshot := testSnapshot()
	snapshot.StudyPlans = []models.StudyPlan{
		{ID: "plan-1", GroupID: "group-1", SubjectName: "Math", TeacherID: "teacher-1", WeeklyHours: 7},
	}
	svc := NewDraftService(&snapshotStub{snapshot: snapshot}, cfg, nil, nil)

	resp, err := svc.BuildDraft(context.Background(), dto.DraftRequest{
		Params: dto.GenerationParams{
			GroupIDs: []string{"group-1"},
			PeriodID: strPtr("period-1"),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 7, resp.Stats.Requested)
	assert.Equal(t, 5, resp.Stats.Placed)
	require.Len(t, resp.Stats.Missed, 2)
	assert.Equal(t, "group-1", resp.Stats.Missed[0].GroupID)
	assert.Equal(t, "Math", resp.Stats.Missed[0].SubjectName)
	assert.NotEmpty(t, resp.Stats.Missed[0].Reason)
}

func TestDraftServiceBatchLimit(t *testing.T) {
	cfg := testSchedulerConfig()
	cfg.MaxBatchSize = 3

	svc := NewDraftService(&snapshotStub{snapshot: testSnapshot()}, cfg, nil, nil)

	_, err := svc.BuildDraft(context.Background(), dto.DraftRequest{
		Params: dto.GenerationParams{
			GroupIDs: []string{"group-1", "group-2"},
			PeriodID: strPtr("period-1"),
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestDraftServiceShortGapContinuesRun(t *testing.T) {
	svc := NewDraftService(&snapshotStub{snapshot: testSnapshot()}, testSchedulerConfig(), nil, nil)
	constraints := models.GenerationConstraints{MaxConsecutiveHours: 2, MinBreakMinutes: 120}

	occ := func(start, end string) models.LessonOccurrence {
		return models.LessonOccurrence{
			GroupID: "group-1", TeacherID: "teacher-1", DayOfWeek: 1,
			StartTime: start, EndTime: end, Recurrence: models.RecurrenceWeekly,
		}
	}
	draft := []models.LessonOccurrence{occ("08:00", "09:00"), occ("09:00", "10:00")}
	candidate := occ("11:00", "12:00")

	// A 60-minute gap is below the 120-minute minimum break, so the run
	// from 08:00 is still live and the limit of two is already reached.
	assert.False(t, svc.consecutiveOK(candidate, 11*60, 60, constraints, draft))

	// A full break ends the run.
	rested := occ("12:00", "13:00")
	assert.True(t, svc.consecutiveOK(rested, 12*60, 60, constraints, draft))

	// Adjacency still counts as consecutive regardless of the break setting.
	adjacent := occ("10:00", "11:00")
	assert.False(t, svc.consecutiveOK(adjacent, 10*60, 60, constraints, draft))
}

func TestDraftServiceExplicitWindow(t *testing.T) {
	svc := NewDraftService(&snapshotStub{snapshot: testSnapshot()}, testSchedulerConfig(), nil, nil)

	resp, err := svc.BuildDraft(context.Background(), dto.DraftRequest{
		Params: dto.GenerationParams{
			GroupIDs:  []string{"group-1"},
			StartDate: strPtr("2026-02-02"),
			EndDate:   strPtr("2026-03-27"),
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Draft)
	assert.Equal(t, "2026-02-02", *resp.Draft[0].StartDate)
	assert.Equal(t, "2026-03-27", *resp.Draft[0].EndDate)
}
