package models

import "time"

// ScheduleRecord is a stored schedule row: one template row for a
// weekly/biweekly occurrence, one dated row for a once occurrence.
type ScheduleRecord struct {
	ID          string    `db:"id" json:"id"`
	GroupID     string    `db:"group_id" json:"group_id"`
	TeacherID   string    `db:"teacher_id" json:"teacher_id"`
	ClassroomID *string   `db:"classroom_id" json:"classroom_id,omitempty"`
	StudyPlanID string    `db:"study_plan_id" json:"study_plan_id"`
	SubjectName string    `db:"subject_name" json:"subject_name"`
	Recurrence  string    `db:"recurrence" json:"recurrence"`
	DayOfWeek   int       `db:"day_of_week" json:"day_of_week"`
	Date        *string   `db:"date" json:"date,omitempty"`
	StartTime   string    `db:"start_time" json:"start_time"`
	EndTime     string    `db:"end_time" json:"end_time"`
	StartDate   *string   `db:"start_date" json:"start_date,omitempty"`
	EndDate     *string   `db:"end_date" json:"end_date,omitempty"`
	AnchorDate  *string   `db:"anchor_date" json:"anchor_date,omitempty"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ToOccurrence lifts a stored row into the engine's occurrence model.
func (r *ScheduleRecord) ToOccurrence() LessonOccurrence {
	return LessonOccurrence{
		ID:          r.ID,
		Date:        r.Date,
		DayOfWeek:   r.DayOfWeek,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		GroupID:     r.GroupID,
		TeacherID:   r.TeacherID,
		ClassroomID: r.ClassroomID,
		StudyPlanID: r.StudyPlanID,
		SubjectName: r.SubjectName,
		Recurrence:  Recurrence(r.Recurrence),
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		AnchorDate:  r.AnchorDate,
		Status:      OccurrenceStatus(r.Status),
	}
}

// RecordFromOccurrence projects an occurrence back onto the storage shape.
// The applier resolves period presets to explicit dates before this point.
func RecordFromOccurrence(o LessonOccurrence) ScheduleRecord {
	rec := ScheduleRecord{
		ID:          o.ID,
		GroupID:     o.GroupID,
		TeacherID:   o.TeacherID,
		ClassroomID: o.ClassroomID,
		StudyPlanID: o.StudyPlanID,
		SubjectName: o.SubjectName,
		Recurrence:  string(o.Recurrence),
		DayOfWeek:   o.DayOfWeek,
		Date:        o.Date,
		StartTime:   o.StartTime,
		EndTime:     o.EndTime,
		StartDate:   o.StartDate,
		EndDate:     o.EndDate,
		AnchorDate:  o.AnchorDate,
		Status:      string(o.Status),
	}
	if rec.Status == "" {
		rec.Status = string(StatusUpcoming)
	}
	return rec
}

// ScheduleFilter describes query params for listing schedule rows.
type ScheduleFilter struct {
	GroupID     string
	TeacherID   string
	ClassroomID string
	DayOfWeek   int
	Recurrence  string
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}
