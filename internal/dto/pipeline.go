package dto

import (
	"encoding/json"

	"github.com/edupanel/scheduling-api/internal/models"
)

// GenerationParams drives one draft→optimize→validate→apply run.
type GenerationParams struct {
	GroupIDs    []string                     `json:"groupIds" validate:"required,min=1,dive,required"`
	PeriodID    *string                      `json:"periodId,omitempty"`
	StartDate   *string                      `json:"startDate,omitempty"`
	EndDate     *string                      `json:"endDate,omitempty"`
	Constraints models.GenerationConstraints `json:"constraints"`
}

// MissedPlacement records a (group, subject) demand the draft builder could
// not place, with the literal reason.
type MissedPlacement struct {
	GroupID     string `json:"groupId"`
	SubjectName string `json:"subjectName"`
	Reason      string `json:"reason"`
}

// DraftStats summarises a draft build.
type DraftStats struct {
	Requested int               `json:"requested"`
	Placed    int               `json:"placed"`
	Missed    []MissedPlacement `json:"missed"`
}

// DraftRequest asks the draft builder for an initial assignment.
type DraftRequest struct {
	Params GenerationParams `json:"params" validate:"required"`
}

// DraftResponse carries the seed schedule for the optimizer.
type DraftResponse struct {
	Draft []models.LessonOccurrence `json:"draft"`
	Stats DraftStats                `json:"stats"`
}

// OptimizeRequest sends a draft plus its constraints to the reasoning
// service.
type OptimizeRequest struct {
	Draft  []models.LessonOccurrence `json:"draft" validate:"required,min=1"`
	Params GenerationParams          `json:"params"`
}

// OptimizerStatistics is advisory output from the reasoning service.
type OptimizerStatistics struct {
	TotalLessons    int `json:"totalLessons"`
	ReassignedRooms int `json:"reassignedRooms"`
	ReassignedTimes int `json:"reassignedTimes"`
}

// OptimizedScheduleResponse is the normalized optimizer output. Confidence
// and conflict counts are advisory; the validator is the source of truth.
type OptimizedScheduleResponse struct {
	Generated   []models.LessonOccurrence   `json:"generatedSchedule"`
	Conflicts   []models.ConflictDescriptor `json:"conflicts"`
	Suggestions []string                    `json:"suggestions"`
	Statistics  OptimizerStatistics         `json:"statistics"`
	Confidence  float64                     `json:"confidence"`
	ItemErrors  []string                    `json:"itemErrors,omitempty"`
}

// ValidateRequest re-checks an optimized batch before apply.
type ValidateRequest struct {
	Generated []models.LessonOccurrence `json:"generated" validate:"required,min=1"`
}

// ValidationResult gates the apply stage.
type ValidationResult struct {
	Conflicts []models.ConflictDescriptor `json:"conflicts"`
	IsOK      bool                        `json:"isOk"`
}

// ApplyRequest persists a validated batch.
type ApplyRequest struct {
	Generated []models.LessonOccurrence `json:"generated" validate:"required,min=1"`
}

// ApplyError is a per-item failure; the batch continues past it.
type ApplyError struct {
	TempID string `json:"tempId,omitempty"`
	Reason string `json:"reason"`
}

// ApplyResult reports per-record success and failure. The batch is not
// atomic: created rows stay even when later items fail.
type ApplyResult struct {
	CreatedCount int                     `json:"createdCount"`
	Created      []models.ScheduleRecord `json:"created"`
	Errors       []ApplyError            `json:"errors"`
}

// RawOptimizedItem mirrors the loosely-typed shapes the reasoning service
// actually returns: field names and value types vary between runs, so the
// alias-prone fields are untyped and coerced during normalization.
type RawOptimizedItem struct {
	GroupID     interface{} `json:"groupId"`
	Group       interface{} `json:"group"`
	GroupName   interface{} `json:"groupName"`
	TeacherID   interface{} `json:"teacherId"`
	Teacher     interface{} `json:"teacher"`
	TeacherName interface{} `json:"teacherName"`
	ClassroomID interface{} `json:"classroomId"`
	Classroom   interface{} `json:"classroom"`
	RoomID      interface{} `json:"roomId"`
	Room        interface{} `json:"room"`
	Day         interface{} `json:"day"`
	DayOfWeek   interface{} `json:"dayOfWeek"`
	Date        string      `json:"date"`
	StartTime   string      `json:"startTime"`
	EndTime     string      `json:"endTime"`
	Subject     interface{} `json:"subject"`
	SubjectName interface{} `json:"subjectName"`
	StudyPlanID interface{} `json:"studyPlanId"`
	Recurrence  string      `json:"recurrence"`
	TempID      string      `json:"tempId"`
}

// RawOptimizerConflict is the advisory conflict shape from the model.
type RawOptimizerConflict struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

// RawOptimizerResponse tolerates the schedule list arriving under any of the
// keys observed in practice.
type RawOptimizerResponse struct {
	GeneratedSchedule []RawOptimizedItem     `json:"generatedSchedule"`
	Schedule          []RawOptimizedItem     `json:"schedule"`
	Lessons           []RawOptimizedItem     `json:"lessons"`
	Conflicts         []RawOptimizerConflict `json:"conflicts"`
	Suggestions       []string               `json:"suggestions"`
	Statistics        map[string]interface{} `json:"statistics"`
	Confidence        json.Number            `json:"confidence"`
}

// Items returns the schedule list regardless of which key carried it.
func (r *RawOptimizerResponse) Items() []RawOptimizedItem {
	if len(r.GeneratedSchedule) > 0 {
		return r.GeneratedSchedule
	}
	if len(r.Schedule) > 0 {
		return r.Schedule
	}
	return r.Lessons
}
