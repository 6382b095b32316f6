package service

import (
	"fmt"
	"time"

	"github.com/edupanel/scheduling-api/internal/models"
)

const conflictSeverityHard = "hard"

// DetectConflicts checks one candidate placement against a corpus of
// existing placements and returns a descriptor for every shared resource
// the candidate would double-book. Pure: no side effects, O(len(corpus)),
// deterministic for identical inputs and order.
//
// Malformed time strings are a caller contract violation and are rejected
// at the API boundary; here an unparsable corpus entry is skipped rather
// than reported.
func DetectConflicts(candidate models.LessonOccurrence, corpus []models.LessonOccurrence) []models.ConflictDescriptor {
	candStart, err := models.ParseClock(candidate.StartTime)
	if err != nil {
		return nil
	}
	candEnd, err := models.ParseClock(candidate.EndTime)
	if err != nil {
		return nil
	}

	var conflicts []models.ConflictDescriptor
	for i := range corpus {
		existing := &corpus[i]

		// An occurrence never conflicts with itself.
		if id := candidate.Identity(); id != "" && id == existing.Identity() {
			continue
		}

		if !daysCoincide(candidate, *existing) {
			continue
		}

		exStart, err := models.ParseClock(existing.StartTime)
		if err != nil {
			continue
		}
		exEnd, err := models.ParseClock(existing.EndTime)
		if err != nil {
			continue
		}

		// Half-open intervals: touching boundaries do not conflict.
		if !(candStart < exEnd && candEnd > exStart) {
			continue
		}

		window := fmt.Sprintf("%s %s-%s", dayLabel(*existing), existing.StartTime, existing.EndTime)
		if candidate.TeacherID == existing.TeacherID {
			conflicts = append(conflicts, models.ConflictDescriptor{
				Type:        models.ConflictTeacher,
				Description: fmt.Sprintf("teacher %s is already booked %s", existing.TeacherID, window),
				Severity:    conflictSeverityHard,
			})
		}
		if candidate.ClassroomID != nil && existing.ClassroomID != nil && *candidate.ClassroomID == *existing.ClassroomID {
			conflicts = append(conflicts, models.ConflictDescriptor{
				Type:        models.ConflictRoom,
				Description: fmt.Sprintf("classroom %s is already booked %s", *existing.ClassroomID, window),
				Severity:    conflictSeverityHard,
			})
		}
		if candidate.GroupID == existing.GroupID {
			conflicts = append(conflicts, models.ConflictDescriptor{
				Type:        models.ConflictGroup,
				Description: fmt.Sprintf("group %s already has a lesson %s", existing.GroupID, window),
				Severity:    conflictSeverityHard,
			})
		}
	}
	return conflicts
}

// daysCoincide resolves both occurrences to a comparison day and reports
// whether they can land on the same calendar date under recurrence
// expansion.
func daysCoincide(a, b models.LessonOccurrence) bool {
	ka, err := a.DayKey()
	if err != nil {
		return false
	}
	kb, err := b.DayKey()
	if err != nil {
		return false
	}

	switch {
	case ka.Dated && kb.Dated:
		return ka.Date == kb.Date
	case ka.Dated:
		return templateCoversDate(b, ka.Date, ka.DayOfWeek)
	case kb.Dated:
		return templateCoversDate(a, kb.Date, kb.DayOfWeek)
	default:
		if ka.DayOfWeek != kb.DayOfWeek {
			return false
		}
		if !rangesIntersect(a, b) {
			return false
		}
		// Two biweekly templates on the same weekday only meet when their
		// anchor weeks share parity.
		if a.Recurrence == models.RecurrenceBiweekly && b.Recurrence == models.RecurrenceBiweekly {
			return anchorsShareParity(a, b)
		}
		return true
	}
}

// templateCoversDate reports whether a recurring template projects onto the
// given concrete date.
func templateCoversDate(tpl models.LessonOccurrence, date string, weekday int) bool {
	if tpl.DayOfWeek != weekday {
		return false
	}
	day, err := models.ParseDate(date)
	if err != nil {
		return false
	}
	if tpl.StartDate != nil && *tpl.StartDate != "" {
		if from, err := models.ParseDate(*tpl.StartDate); err == nil && day.Before(from) {
			return false
		}
	}
	if tpl.EndDate != nil && *tpl.EndDate != "" {
		if to, err := models.ParseDate(*tpl.EndDate); err == nil && day.After(to) {
			return false
		}
	}
	if tpl.Recurrence == models.RecurrenceBiweekly {
		anchorWeek, err := anchorWeekStart(tpl, date)
		if err != nil {
			return false
		}
		return evenWeeksSince(anchorWeek, day)
	}
	return true
}

// rangesIntersect treats a missing bound as unbounded.
func rangesIntersect(a, b models.LessonOccurrence) bool {
	aFrom, aTo, okA := effectiveRange(a)
	bFrom, bTo, okB := effectiveRange(b)
	if !okA || !okB {
		return false
	}
	if aTo != nil && bFrom != nil && aTo.Before(*bFrom) {
		return false
	}
	if bTo != nil && aFrom != nil && bTo.Before(*aFrom) {
		return false
	}
	return true
}

func effectiveRange(o models.LessonOccurrence) (from, to *time.Time, ok bool) {
	if o.StartDate != nil && *o.StartDate != "" {
		parsed, err := models.ParseDate(*o.StartDate)
		if err != nil {
			return nil, nil, false
		}
		from = &parsed
	}
	if o.EndDate != nil && *o.EndDate != "" {
		parsed, err := models.ParseDate(*o.EndDate)
		if err != nil {
			return nil, nil, false
		}
		to = &parsed
	}
	return from, to, true
}

// anchorsShareParity compares the anchor weeks of two biweekly templates.
func anchorsShareParity(a, b models.LessonOccurrence) bool {
	anchorA, errA := anchorWeekStart(a, "")
	anchorB, errB := anchorWeekStart(b, "")
	if errA != nil || errB != nil {
		// Without any anchor information parity cannot rule the pair out.
		return true
	}
	return evenWeeksSince(anchorA, anchorB)
}

func dayLabel(o models.LessonOccurrence) string {
	if o.Date != nil && *o.Date != "" {
		return *o.Date
	}
	return models.DayIndexToName(o.DayOfWeek)
}
