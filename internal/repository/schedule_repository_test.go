package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupanel/scheduling-api/internal/models"
)

func newScheduleRepoMock(t *testing.T) (*ScheduleRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewScheduleRepository(sqlx.NewDb(db, "postgres")), mock
}

func scheduleRows() *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "group_id", "teacher_id", "classroom_id", "study_plan_id", "subject_name",
		"recurrence", "day_of_week", "date", "start_time", "end_time",
		"start_date", "end_date", "anchor_date", "status", "created_at", "updated_at",
	}).AddRow("row-1", "group-1", "teacher-1", nil, "plan-1", "Math",
		"weekly", 1, nil, "09:00", "10:00",
		"2026-01-05", "2026-05-29", nil, "upcoming", now, now)
}

func TestScheduleRepositoryListFilters(t *testing.T) {
	repo, mock := newScheduleRepoMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM schedules WHERE 1=1 AND group_id = $1 AND day_of_week = $2")).
		WithArgs("group-1", 3).
		WillReturnRows(scheduleRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM schedules WHERE 1=1 AND group_id = $1 AND day_of_week = $2")).
		WithArgs("group-1", 3).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	records, total, err := repo.List(context.Background(), models.ScheduleFilter{
		GroupID:   "group-1",
		DayOfWeek: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, records, 1)
	assert.Equal(t, "row-1", records[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryListRejectsUnknownSort(t *testing.T) {
	repo, mock := newScheduleRepoMock(t)

	// An unlisted sort column silently falls back to day_of_week.
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY day_of_week ASC")).
		WillReturnRows(scheduleRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, _, err := repo.List(context.Background(), models.ScheduleFilter{
		SortBy: "group_id; DROP TABLE schedules",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryFindAll(t *testing.T) {
	repo, mock := newScheduleRepoMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM schedules ORDER BY day_of_week ASC, start_time ASC")).
		WillReturnRows(scheduleRows())

	records, err := repo.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Math", records[0].SubjectName)
}

func TestScheduleRepositoryCreateAssignsID(t *testing.T) {
	repo, mock := newScheduleRepoMock(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedules")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec := models.ScheduleRecord{
		GroupID:     "group-1",
		TeacherID:   "teacher-1",
		StudyPlanID: "plan-1",
		SubjectName: "Math",
		Recurrence:  "weekly",
		DayOfWeek:   1,
		StartTime:   "09:00",
		EndTime:     "10:00",
		Status:      "upcoming",
	}
	require.NoError(t, repo.Create(context.Background(), &rec))
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryUpdateNoRows(t *testing.T) {
	repo, mock := newScheduleRepoMock(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE schedules")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	rec := models.ScheduleRecord{ID: "missing"}
	err := repo.Update(context.Background(), &rec)
	require.Error(t, err)
}

func TestScheduleRepositoryDeleteNoRows(t *testing.T) {
	repo, mock := newScheduleRepoMock(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedules WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	require.Error(t, err)
}
