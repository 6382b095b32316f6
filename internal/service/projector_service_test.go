package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupanel/scheduling-api/internal/dto"
	"github.com/edupanel/scheduling-api/internal/models"
	appErrors "github.com/edupanel/scheduling-api/pkg/errors"
)

type gridCacheStub struct {
	store map[string][]dto.GridCell
	hits  int
}

func (s *gridCacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	if cells, ok := s.store[key]; ok {
		s.hits++
		*(dest.(*[]dto.GridCell)) = cells
		return nil
	}
	return appErrors.ErrCacheMiss
}

func (s *gridCacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if s.store == nil {
		s.store = map[string][]dto.GridCell{}
	}
	s.store[key] = value.([]dto.GridCell)
	return nil
}

func fixedProjector(records []models.ScheduleRecord, cache *gridCacheStub) *ProjectorService {
	var c catalogCache
	if cache != nil {
		c = cache
	}
	svc := NewProjectorService(&corpusStub{records: records}, c, time.Minute, nil)
	svc.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	return svc
}

func TestProjectWeekExpandsTemplates(t *testing.T) {
	records := []models.ScheduleRecord{
		storedLesson("row-1", "group-1", "teacher-1", 1, "09:00", "10:00"),
		storedLesson("row-2", "group-1", "teacher-2", 3, "11:00", "12:00"),
	}
	svc := fixedProjector(records, nil)

	cells, err := svc.ProjectWeek(context.Background(), "2026-01-05")
	require.NoError(t, err)
	require.Len(t, cells, 2)

	assert.Equal(t, "2026-01-05", cells[0].Date)
	assert.Equal(t, 1, cells[0].DayOfWeek)
	assert.Equal(t, "2026-01-07", cells[1].Date)
	assert.Equal(t, 3, cells[1].DayOfWeek)
	require.NotNil(t, cells[0].Occurrence.Date)
	assert.Equal(t, models.StatusUpcoming, cells[0].Occurrence.Status)
}

func TestProjectWeekNormalizesToMonday(t *testing.T) {
	records := []models.ScheduleRecord{
		storedLesson("row-1", "group-1", "teacher-1", 1, "09:00", "10:00"),
	}
	svc := fixedProjector(records, nil)

	// Thursday resolves to the same week as its monday.
	fromThursday, err := svc.ProjectWeek(context.Background(), "2026-01-08")
	require.NoError(t, err)
	fromMonday, err := svc.ProjectWeek(context.Background(), "2026-01-05")
	require.NoError(t, err)
	assert.Equal(t, fromMonday, fromThursday)
}

func TestProjectWeekDatedRowOverridesTemplate(t *testing.T) {
	template := storedLesson("row-1", "group-1", "teacher-1", 1, "09:00", "10:00")

	// An operator moved this one occurrence into a specific room.
	override := models.ScheduleRecord{
		ID:          "row-2",
		GroupID:     "group-1",
		TeacherID:   "teacher-1",
		StudyPlanID: "plan-1",
		SubjectName: "Math",
		Recurrence:  string(models.RecurrenceOnce),
		Date:        strPtr("2026-01-05"),
		StartTime:   "09:00",
		EndTime:     "10:00",
		Status:      string(models.StatusUpcoming),
	}

	svc := fixedProjector([]models.ScheduleRecord{template, override}, nil)

	cells, err := svc.ProjectWeek(context.Background(), "2026-01-05")
	require.NoError(t, err)
	require.Len(t, cells, 1, "dated row and template collapse into one cell")
	assert.Equal(t, "row-2", cells[0].Occurrence.ID)

	// Order of rows must not change the winner.
	svc = fixedProjector([]models.ScheduleRecord{override, template}, nil)
	cells, err = svc.ProjectWeek(context.Background(), "2026-01-05")
	require.NoError(t, err)
	require.Len(t, cells, 1)
	assert.Equal(t, "row-2", cells[0].Occurrence.ID)
}

func TestProjectWeekUsesCache(t *testing.T) {
	cache := &gridCacheStub{}
	svc := fixedProjector([]models.ScheduleRecord{
		storedLesson("row-1", "group-1", "teacher-1", 1, "09:00", "10:00"),
	}, cache)

	first, err := svc.ProjectWeek(context.Background(), "2026-01-05")
	require.NoError(t, err)
	second, err := svc.ProjectWeek(context.Background(), "2026-01-05")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.hits)
}

func TestProjectMonth(t *testing.T) {
	records := []models.ScheduleRecord{
		storedLesson("row-1", "group-1", "teacher-1", 1, "09:00", "10:00"),
	}
	svc := fixedProjector(records, nil)

	cells, err := svc.ProjectMonth(context.Background(), 2026, 1)
	require.NoError(t, err)
	// Mondays in January 2026 on or after the template's startDate.
	var dates []string
	for _, cell := range cells {
		dates = append(dates, cell.Date)
	}
	assert.Equal(t, []string{"2026-01-05", "2026-01-12", "2026-01-19", "2026-01-26"}, dates)
}

func TestProjectMonthInvalid(t *testing.T) {
	svc := fixedProjector(nil, nil)
	_, err := svc.ProjectMonth(context.Background(), 2026, 13)
	require.Error(t, err)
}

func TestProjectWeekDerivesCompletedStatus(t *testing.T) {
	records := []models.ScheduleRecord{
		storedLesson("row-1", "group-1", "teacher-1", 1, "09:00", "10:00"),
	}
	svc := fixedProjector(records, nil)
	svc.now = func() time.Time { return time.Date(2026, 1, 6, 12, 0, 0, 0, time.UTC) }

	cells, err := svc.ProjectWeek(context.Background(), "2026-01-05")
	require.NoError(t, err)
	require.Len(t, cells, 1)
	assert.Equal(t, models.StatusCompleted, cells[0].Occurrence.Status)
}
