package service

import (
	"fmt"
	"time"

	"github.com/edupanel/scheduling-api/internal/models"
)

// ExpandOccurrence produces the concrete calendar dates on which the
// occurrence falls within [windowStart, windowEnd], both inclusive.
// The template is never mutated and the result is deterministic, so two
// calls with the same window return the same date set.
//
// Period presets are resolved to explicit start/end dates before expansion;
// this function only looks at StartDate/EndDate.
func ExpandOccurrence(occ models.LessonOccurrence, windowStart, windowEnd string) ([]string, error) {
	from, err := models.ParseDate(windowStart)
	if err != nil {
		return nil, fmt.Errorf("windowStart: %w", err)
	}
	to, err := models.ParseDate(windowEnd)
	if err != nil {
		return nil, fmt.Errorf("windowEnd: %w", err)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("window end %s precedes start %s", windowEnd, windowStart)
	}

	if occ.Recurrence == models.RecurrenceOnce {
		if occ.Date == nil || *occ.Date == "" {
			return nil, fmt.Errorf("once occurrence without a date")
		}
		day, err := models.ParseDate(*occ.Date)
		if err != nil {
			return nil, err
		}
		if day.Before(from) || day.After(to) {
			return nil, nil
		}
		return []string{*occ.Date}, nil
	}

	if occ.DayOfWeek < 1 || occ.DayOfWeek > 7 {
		return nil, fmt.Errorf("recurring occurrence with dayOfWeek %d", occ.DayOfWeek)
	}

	// Clamp the window to the template's effective range.
	if occ.StartDate != nil && *occ.StartDate != "" {
		bound, err := models.ParseDate(*occ.StartDate)
		if err != nil {
			return nil, fmt.Errorf("startDate: %w", err)
		}
		if bound.After(from) {
			from = bound
		}
	}
	if occ.EndDate != nil && *occ.EndDate != "" {
		bound, err := models.ParseDate(*occ.EndDate)
		if err != nil {
			return nil, fmt.Errorf("endDate: %w", err)
		}
		if bound.Before(to) {
			to = bound
		}
	}
	if to.Before(from) {
		return nil, nil
	}

	anchorWeek, err := anchorWeekStart(occ, windowStart)
	if err != nil {
		return nil, err
	}

	// First date in range on the template's weekday.
	offset := (occ.DayOfWeek - models.ISOWeekday(from) + 7) % 7
	cursor := from.AddDate(0, 0, offset)

	var dates []string
	for !cursor.After(to) {
		if occ.Recurrence != models.RecurrenceBiweekly || evenWeeksSince(anchorWeek, cursor) {
			dates = append(dates, cursor.Format(models.DateLayout))
		}
		cursor = cursor.AddDate(0, 0, 7)
	}
	return dates, nil
}

// anchorWeekStart resolves the Monday of the biweekly parity anchor.
// Fallback order when no anchor was recorded: AnchorDate, then StartDate,
// then the window's start (the last resort makes parity window-relative;
// see DESIGN.md).
func anchorWeekStart(occ models.LessonOccurrence, windowStart string) (time.Time, error) {
	pick := windowStart
	if occ.AnchorDate != nil && *occ.AnchorDate != "" {
		pick = *occ.AnchorDate
	} else if occ.StartDate != nil && *occ.StartDate != "" {
		pick = *occ.StartDate
	}
	anchor, err := models.ParseDate(pick)
	if err != nil {
		return time.Time{}, fmt.Errorf("anchor date: %w", err)
	}
	return models.WeekStart(anchor), nil
}

// evenWeeksSince reports whether t falls an even number of weeks after the
// anchor week's Monday.
func evenWeeksSince(anchorWeek time.Time, t time.Time) bool {
	days := int(models.WeekStart(t).Sub(anchorWeek).Hours() / 24)
	weeks := days / 7
	if weeks < 0 {
		weeks = -weeks
	}
	return weeks%2 == 0
}
