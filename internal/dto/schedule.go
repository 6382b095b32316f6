package dto

import "github.com/edupanel/scheduling-api/internal/models"

// CreateScheduleRequest creates a single schedule row outside the pipeline.
type CreateScheduleRequest struct {
	GroupID     string  `json:"groupId" validate:"required"`
	TeacherID   string  `json:"teacherId" validate:"required"`
	ClassroomID *string `json:"classroomId,omitempty"`
	StudyPlanID string  `json:"studyPlanId" validate:"required"`
	SubjectName string  `json:"subjectName" validate:"required"`
	Recurrence  string  `json:"recurrence" validate:"required,oneof=weekly biweekly once"`
	DayOfWeek   int     `json:"dayOfWeek" validate:"omitempty,min=1,max=7"`
	Date        *string `json:"date,omitempty"`
	StartTime   string  `json:"startTime" validate:"required"`
	EndTime     string  `json:"endTime" validate:"required"`
	StartDate   *string `json:"startDate,omitempty"`
	EndDate     *string `json:"endDate,omitempty"`
	PeriodID    *string `json:"periodId,omitempty"`
	AnchorDate  *string `json:"anchorDate,omitempty"`
}

// ToOccurrence maps the request onto the engine model for validation and
// conflict checking.
func (r *CreateScheduleRequest) ToOccurrence() models.LessonOccurrence {
	return models.LessonOccurrence{
		GroupID:     r.GroupID,
		TeacherID:   r.TeacherID,
		ClassroomID: r.ClassroomID,
		StudyPlanID: r.StudyPlanID,
		SubjectName: r.SubjectName,
		Recurrence:  models.Recurrence(r.Recurrence),
		DayOfWeek:   r.DayOfWeek,
		Date:        r.Date,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		PeriodID:    r.PeriodID,
		AnchorDate:  r.AnchorDate,
	}
}

// RescheduleRequest is the drag-to-move mutation: only the placement fields
// of an already-persisted row may change, plus an operator status override.
type RescheduleRequest struct {
	DayOfWeek *int    `json:"dayOfWeek,omitempty" validate:"omitempty,min=1,max=7"`
	Date      *string `json:"date,omitempty"`
	StartTime *string `json:"startTime,omitempty"`
	EndTime   *string `json:"endTime,omitempty"`
	Status    *string `json:"status,omitempty" validate:"omitempty,oneof=upcoming completed cancelled"`
}

// GridQuery selects a week for the grid projection.
type GridQuery struct {
	WeekStart string `form:"weekStart" validate:"required"`
}

// CalendarQuery selects a month for the calendar projection.
type CalendarQuery struct {
	Year  int `form:"year" validate:"required,min=2000,max=2200"`
	Month int `form:"month" validate:"required,min=1,max=12"`
}

// GridCell is one projected occurrence on a concrete date.
type GridCell struct {
	Date       string                  `json:"date"`
	DayOfWeek  int                     `json:"dayOfWeek"`
	Occurrence models.LessonOccurrence `json:"occurrence"`
}
