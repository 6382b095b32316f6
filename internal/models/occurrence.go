package models

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DateLayout is the wire format for calendar dates.
	DateLayout = "2006-01-02"
	// ClockLayout is the wire format for times of day.
	ClockLayout = "15:04"
)

// Recurrence identifies how often a lesson occurrence repeats.
type Recurrence string

const (
	RecurrenceWeekly   Recurrence = "weekly"
	RecurrenceBiweekly Recurrence = "biweekly"
	RecurrenceOnce     Recurrence = "once"
)

// OccurrenceStatus is derived at read time unless set by an operator.
type OccurrenceStatus string

const (
	StatusUpcoming  OccurrenceStatus = "upcoming"
	StatusCompleted OccurrenceStatus = "completed"
	StatusCancelled OccurrenceStatus = "cancelled"
)

// LessonOccurrence is the atomic unit the scheduling engine reasons about:
// one concrete or templated lesson placement. Drafts carry a TempID until
// the applier persists them and assigns a real ID.
type LessonOccurrence struct {
	ID          string           `json:"id,omitempty"`
	TempID      string           `json:"tempId,omitempty"`
	Date        *string          `json:"date,omitempty"`
	DayOfWeek   int              `json:"dayOfWeek,omitempty"`
	StartTime   string           `json:"startTime"`
	EndTime     string           `json:"endTime"`
	GroupID     string           `json:"groupId"`
	TeacherID   string           `json:"teacherId"`
	ClassroomID *string          `json:"classroomId,omitempty"`
	StudyPlanID string           `json:"studyPlanId"`
	SubjectName string           `json:"subjectName"`
	Recurrence  Recurrence       `json:"recurrence"`
	StartDate   *string          `json:"startDate,omitempty"`
	EndDate     *string          `json:"endDate,omitempty"`
	PeriodID    *string          `json:"periodId,omitempty"`
	AnchorDate  *string          `json:"anchorDate,omitempty"`
	Status      OccurrenceStatus `json:"status,omitempty"`
}

// ConflictType names the shared resource a conflicting pair collides on.
type ConflictType string

const (
	ConflictTeacher ConflictType = "teacher"
	ConflictRoom    ConflictType = "room"
	ConflictGroup   ConflictType = "group"
)

// ConflictDescriptor is produced by the conflict detector and consumed by
// the validator's pass/fail gate and the UI.
type ConflictDescriptor struct {
	Type        ConflictType `json:"type"`
	Description string       `json:"description"`
	Severity    string       `json:"severity"`
}

// GenerationConstraints is pure input to a generation run; never mutated.
type GenerationConstraints struct {
	WorkingHoursStart   string             `json:"workingHoursStart" validate:"required"`
	WorkingHoursEnd     string             `json:"workingHoursEnd" validate:"required"`
	MaxConsecutiveHours int                `json:"maxConsecutiveHours" validate:"omitempty,min=1,max=12"`
	MinBreakMinutes     int                `json:"minBreakMinutes" validate:"omitempty,min=0"`
	ExcludeWeekends     bool               `json:"excludeWeekends"`
	RoomPreferences     map[string]float64 `json:"roomPreferences,omitempty"`
}

// DayKey is the canonical day variant: a recurring weekday or a concrete
// date. Canonicalisation happens once at the model boundary so the pipeline
// never juggles three day representations.
type DayKey struct {
	Dated     bool
	DayOfWeek int
	Date      string
}

// DayKey canonicalises the occurrence's day. Dated occurrences derive the
// weekday from the date; recurring ones carry it explicitly.
func (o *LessonOccurrence) DayKey() (DayKey, error) {
	if o.Date != nil && *o.Date != "" {
		day, err := ParseDate(*o.Date)
		if err != nil {
			return DayKey{}, err
		}
		return DayKey{Dated: true, DayOfWeek: ISOWeekday(day), Date: *o.Date}, nil
	}
	if o.DayOfWeek < 1 || o.DayOfWeek > 7 {
		return DayKey{}, fmt.Errorf("occurrence has neither a date nor a valid dayOfWeek (%d)", o.DayOfWeek)
	}
	return DayKey{DayOfWeek: o.DayOfWeek}, nil
}

// Identity returns the stable identity used for self-conflict skips.
func (o *LessonOccurrence) Identity() string {
	if o.ID != "" {
		return o.ID
	}
	return o.TempID
}

// Validate enforces structural invariants: time parseability and ordering,
// day-of-week range, and recurrence mutual exclusivity.
func (o *LessonOccurrence) Validate() error {
	start, err := ParseClock(o.StartTime)
	if err != nil {
		return fmt.Errorf("startTime: %w", err)
	}
	end, err := ParseClock(o.EndTime)
	if err != nil {
		return fmt.Errorf("endTime: %w", err)
	}
	if end <= start {
		return fmt.Errorf("endTime %q must be after startTime %q", o.EndTime, o.StartTime)
	}
	if o.GroupID == "" || o.TeacherID == "" {
		return fmt.Errorf("groupId and teacherId are required")
	}

	switch o.Recurrence {
	case RecurrenceOnce:
		if o.Date == nil || *o.Date == "" {
			return fmt.Errorf("a once occurrence requires a date")
		}
		if _, err := ParseDate(*o.Date); err != nil {
			return fmt.Errorf("date: %w", err)
		}
		if o.StartDate != nil || o.EndDate != nil || o.PeriodID != nil {
			return fmt.Errorf("a once occurrence forbids startDate, endDate and periodId")
		}
	case RecurrenceWeekly, RecurrenceBiweekly:
		if o.Date != nil && *o.Date != "" {
			return fmt.Errorf("a %s occurrence forbids a concrete date", o.Recurrence)
		}
		if o.DayOfWeek < 1 || o.DayOfWeek > 7 {
			return fmt.Errorf("dayOfWeek must be 1-7, got %d", o.DayOfWeek)
		}
		hasRange := o.StartDate != nil && *o.StartDate != "" && o.EndDate != nil && *o.EndDate != ""
		hasPeriod := o.PeriodID != nil && *o.PeriodID != ""
		if !hasRange && !hasPeriod {
			return fmt.Errorf("a %s occurrence requires a periodId or an explicit startDate/endDate pair", o.Recurrence)
		}
		if hasRange {
			from, err := ParseDate(*o.StartDate)
			if err != nil {
				return fmt.Errorf("startDate: %w", err)
			}
			to, err := ParseDate(*o.EndDate)
			if err != nil {
				return fmt.Errorf("endDate: %w", err)
			}
			if to.Before(from) {
				return fmt.Errorf("endDate %q precedes startDate %q", *o.EndDate, *o.StartDate)
			}
		}
	default:
		return fmt.Errorf("unknown recurrence %q", o.Recurrence)
	}
	return nil
}

// DeriveStatus resolves the read-time status: operator-set terminal states
// win, otherwise a dated occurrence whose end instant has passed is
// completed and everything else is upcoming.
func (o *LessonOccurrence) DeriveStatus(now time.Time) OccurrenceStatus {
	if o.Status == StatusCancelled || o.Status == StatusCompleted {
		return o.Status
	}
	if o.Date != nil && *o.Date != "" {
		day, err := ParseDate(*o.Date)
		if err != nil {
			return StatusUpcoming
		}
		endMin, err := ParseClock(o.EndTime)
		if err != nil {
			return StatusUpcoming
		}
		end := day.Add(time.Duration(endMin) * time.Minute)
		if now.After(end) {
			return StatusCompleted
		}
	}
	return StatusUpcoming
}

// ParseClock parses HH:MM into minutes since midnight.
func ParseClock(raw string) (int, error) {
	t, err := time.Parse(ClockLayout, strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, want HH:MM", raw)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ParseDate parses YYYY-MM-DD into a UTC midnight instant.
func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", raw)
	}
	return t, nil
}

// ISOWeekday maps time.Weekday onto the monday=1 … sunday=7 contract.
func ISOWeekday(t time.Time) int {
	d := int(t.Weekday())
	if d == 0 {
		return 7
	}
	return d
}

// WeekStart returns the Monday of the week containing t.
func WeekStart(t time.Time) time.Time {
	return t.AddDate(0, 0, 1-ISOWeekday(t))
}

var dayNameIndex = map[string]int{
	"monday":    1,
	"tuesday":   2,
	"wednesday": 3,
	"thursday":  4,
	"friday":    5,
	"saturday":  6,
	"sunday":    7,
}

var dayIndexName = map[int]string{
	1: "monday",
	2: "tuesday",
	3: "wednesday",
	4: "thursday",
	5: "friday",
	6: "saturday",
	7: "sunday",
}

// DayNameToIndex resolves an english day name to its 1-7 index, 0 when
// unknown.
func DayNameToIndex(name string) int {
	return dayNameIndex[strings.ToLower(strings.TrimSpace(name))]
}

// DayIndexToName is the inverse of DayNameToIndex.
func DayIndexToName(day int) string {
	return dayIndexName[day]
}
