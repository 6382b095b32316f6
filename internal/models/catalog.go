package models

import "time"

// Group is a class-group of students.
type Group struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Grade     int       `db:"grade" json:"grade"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Teacher is the minimal roster view the engine needs.
type Teacher struct {
	ID       string `db:"id" json:"id"`
	FullName string `db:"full_name" json:"full_name"`
	Active   bool   `db:"active" json:"active"`
}

// Classroom is a bookable physical room; online lessons carry no room.
type Classroom struct {
	ID       string `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	Capacity int    `db:"capacity" json:"capacity"`
	RoomType string `db:"room_type" json:"room_type"`
}

// StudyPlan links a curriculum subject to a group with its weekly demand.
type StudyPlan struct {
	ID          string `db:"id" json:"id"`
	GroupID     string `db:"group_id" json:"group_id"`
	SubjectName string `db:"subject_name" json:"subject_name"`
	TeacherID   string `db:"teacher_id" json:"teacher_id"`
	WeeklyHours int    `db:"weekly_hours" json:"weekly_hours"`
}

// AcademicPeriod is a named preset resolving to a concrete date range.
type AcademicPeriod struct {
	ID        string `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	StartDate string `db:"start_date" json:"start_date"`
	EndDate   string `db:"end_date" json:"end_date"`
}

// CatalogSnapshot is the immutable reference-data view passed explicitly
// into the draft builder, optimizer adapter and applier.
type CatalogSnapshot struct {
	Groups     []Group          `json:"groups"`
	Teachers   []Teacher        `json:"teachers"`
	Classrooms []Classroom      `json:"classrooms"`
	StudyPlans []StudyPlan      `json:"study_plans"`
	Periods    []AcademicPeriod `json:"periods"`
}

// PeriodByID returns the named period, nil when absent.
func (s *CatalogSnapshot) PeriodByID(id string) *AcademicPeriod {
	for i := range s.Periods {
		if s.Periods[i].ID == id {
			return &s.Periods[i]
		}
	}
	return nil
}

// StudyPlanByID returns the study plan, nil when absent.
func (s *CatalogSnapshot) StudyPlanByID(id string) *StudyPlan {
	for i := range s.StudyPlans {
		if s.StudyPlans[i].ID == id {
			return &s.StudyPlans[i]
		}
	}
	return nil
}
