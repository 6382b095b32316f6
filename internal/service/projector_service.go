package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/edupanel/scheduling-api/internal/dto"
	"github.com/edupanel/scheduling-api/internal/models"
	appErrors "github.com/edupanel/scheduling-api/pkg/errors"
)

const (
	gridCachePattern  = "schedule:grid:*"
	gridWeekKeyFormat = "schedule:grid:week:%s"
	gridMonthKeyFmt   = "schedule:grid:month:%04d-%02d"
)

// ProjectorService expands stored rows onto concrete dates for the weekly
// grid and monthly calendar views. Projections are cached until the applier
// or a reschedule invalidates them.
type ProjectorService struct {
	schedules corpusReader
	cache     catalogCache
	ttl       time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewProjectorService creates a projector. cache may be nil.
func NewProjectorService(schedules corpusReader, cache catalogCache, ttl time.Duration, logger *zap.Logger) *ProjectorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectorService{schedules: schedules, cache: cache, ttl: ttl, logger: logger, now: time.Now}
}

// ProjectWeek returns the grid cells for the week containing weekStart. The
// input date is normalized to its monday.
func (s *ProjectorService) ProjectWeek(ctx context.Context, weekStart string) ([]dto.GridCell, error) {
	day, err := models.ParseDate(weekStart)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid weekStart")
	}
	monday := models.WeekStart(day)
	from := monday.Format(models.DateLayout)
	to := monday.AddDate(0, 0, 6).Format(models.DateLayout)

	key := fmt.Sprintf(gridWeekKeyFormat, from)
	if s.cache != nil {
		var cached []dto.GridCell
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	cells, err := s.project(ctx, from, to)
	if err != nil {
		return nil, err
	}

	s.cacheCells(ctx, key, cells)
	return cells, nil
}

// ProjectMonth returns the calendar cells for one month.
func (s *ProjectorService) ProjectMonth(ctx context.Context, year, month int) ([]dto.GridCell, error) {
	if month < 1 || month > 12 {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid month %d", month))
	}
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	from := first.Format(models.DateLayout)
	to := last.Format(models.DateLayout)

	key := fmt.Sprintf(gridMonthKeyFmt, year, month)
	if s.cache != nil {
		var cached []dto.GridCell
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	cells, err := s.project(ctx, from, to)
	if err != nil {
		return nil, err
	}

	s.cacheCells(ctx, key, cells)
	return cells, nil
}

// project expands every stored row into the window and collapses duplicates.
// When a dated row and a recurring template land on the same cell, the dated
// row wins: it is the operator's explicit override of the template.
func (s *ProjectorService) project(ctx context.Context, from, to string) ([]dto.GridCell, error) {
	records, err := s.schedules.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	type entry struct {
		cell  dto.GridCell
		dated bool
	}
	seen := make(map[string]entry)

	for i := range records {
		occ := records[i].ToOccurrence()
		dates, err := ExpandOccurrence(occ, from, to)
		if err != nil {
			s.logger.Warn("skipping unexpandable schedule row",
				zap.String("id", records[i].ID), zap.Error(err))
			continue
		}
		dated := occ.Recurrence == models.RecurrenceOnce

		for _, date := range dates {
			day, err := models.ParseDate(date)
			if err != nil {
				continue
			}
			projected := occ
			projected.Date = strPtr(date)
			projected.Status = projected.DeriveStatus(now)

			key := cellKey(date, projected)
			if prev, ok := seen[key]; ok && (prev.dated || !dated) {
				continue
			}
			seen[key] = entry{
				cell: dto.GridCell{
					Date:       date,
					DayOfWeek:  models.ISOWeekday(day),
					Occurrence: projected,
				},
				dated: dated,
			}
		}
	}

	cells := make([]dto.GridCell, 0, len(seen))
	for _, e := range seen {
		cells = append(cells, e.cell)
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Date != cells[j].Date {
			return cells[i].Date < cells[j].Date
		}
		if cells[i].Occurrence.StartTime != cells[j].Occurrence.StartTime {
			return cells[i].Occurrence.StartTime < cells[j].Occurrence.StartTime
		}
		return cells[i].Occurrence.GroupID < cells[j].Occurrence.GroupID
	})

	return cells, nil
}

func (s *ProjectorService) cacheCells(ctx context.Context, key string, cells []dto.GridCell) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, cells, s.ttl); err != nil {
		s.logger.Warn("failed to cache projection", zap.String("key", key), zap.Error(err))
	}
}

// cellKey identifies one rendered lesson slot regardless of which stored row
// produced it.
func cellKey(date string, occ models.LessonOccurrence) string {
	room := ""
	if occ.ClassroomID != nil {
		room = *occ.ClassroomID
	}
	return fmt.Sprintf("%s|%s|%s|%s|%s|%s", date, occ.StartTime, occ.SubjectName, occ.GroupID, occ.TeacherID, room)
}
