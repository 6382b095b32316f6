package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edupanel/scheduling-api/internal/dto"
	"github.com/edupanel/scheduling-api/internal/models"
	"github.com/edupanel/scheduling-api/pkg/config"
	appErrors "github.com/edupanel/scheduling-api/pkg/errors"
)

type snapshotProvider interface {
	Snapshot(ctx context.Context) (*models.CatalogSnapshot, error)
}

// DraftService builds the deterministic seed schedule the optimizer works
// from: a greedy first-fit walk over (group, study plan, weekly hour) demand.
type DraftService struct {
	catalog  snapshotProvider
	cfg      config.SchedulerConfig
	validate *validator.Validate
	logger   *zap.Logger
}

// NewDraftService creates a draft builder.
func NewDraftService(catalog snapshotProvider, cfg config.SchedulerConfig, validate *validator.Validate, logger *zap.Logger) *DraftService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DraftService{catalog: catalog, cfg: cfg, validate: validate, logger: logger}
}

// BuildDraft places every demanded weekly hour into the first free slot that
// respects working hours, weekend exclusion and the consecutive-lesson limit.
// Demands that fit nowhere are reported as missed, never silently dropped.
func (s *DraftService) BuildDraft(ctx context.Context, req dto.DraftRequest) (*dto.DraftResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid draft request")
	}

	snapshot, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	windowStart, windowEnd, err := resolveWindow(req.Params, snapshot)
	if err != nil {
		return nil, err
	}

	constraints := s.effectiveConstraints(req.Params.Constraints)
	dayStart, err := models.ParseClock(constraints.WorkingHoursStart)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid workingHoursStart")
	}
	dayEnd, err := models.ParseClock(constraints.WorkingHoursEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid workingHoursEnd")
	}
	if dayEnd <= dayStart {
		return nil, appErrors.Clone(appErrors.ErrValidation, "workingHoursEnd must be after workingHoursStart")
	}

	lessonMinutes := s.cfg.LessonMinutes
	if lessonMinutes <= 0 {
		lessonMinutes = 60
	}

	days := []int{1, 2, 3, 4, 5}
	if !constraints.ExcludeWeekends {
		days = append(days, 6, 7)
	}

	groupsByID := make(map[string]models.Group, len(snapshot.Groups))
	for _, g := range snapshot.Groups {
		groupsByID[g.ID] = g
	}

	var plans []models.StudyPlan
	requested := 0
	for _, groupID := range req.Params.GroupIDs {
		if _, ok := groupsByID[groupID]; !ok {
			return nil, appErrors.Clone(appErrors.ErrResolution, fmt.Sprintf("unknown group %q", groupID))
		}
		for _, plan := range snapshot.StudyPlans {
			if plan.GroupID == groupID {
				plans = append(plans, plan)
				requested += plan.WeeklyHours
			}
		}
	}

	if s.cfg.MaxBatchSize > 0 && requested > s.cfg.MaxBatchSize {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed,
			fmt.Sprintf("draft would produce %d lessons, limit is %d", requested, s.cfg.MaxBatchSize))
	}

	var draft []models.LessonOccurrence
	var missed []dto.MissedPlacement

	rooms := roomsByPreference(snapshot.Classrooms, constraints.RoomPreferences)

	for _, plan := range plans {
		for hour := 0; hour < plan.WeeklyHours; hour++ {
			occ, ok := s.placeOne(plan, hour, days, dayStart, dayEnd, lessonMinutes, constraints, windowStart, windowEnd, req.Params.PeriodID, rooms, draft)
			if !ok {
				missed = append(missed, dto.MissedPlacement{
					GroupID:     plan.GroupID,
					SubjectName: plan.SubjectName,
					Reason:      "no free slot within working hours",
				})
				continue
			}
			draft = append(draft, occ)
		}
	}

	s.logger.Info("draft built",
		zap.Int("requested", requested),
		zap.Int("placed", len(draft)),
		zap.Int("missed", len(missed)))

	return &dto.DraftResponse{
		Draft: draft,
		Stats: dto.DraftStats{Requested: requested, Placed: len(draft), Missed: missed},
	}, nil
}

// placeOne finds the first conflict-free slot for one demanded hour. Day
// iteration rotates with the hour index so a subject's hours spread across
// the week instead of stacking on monday.
func (s *DraftService) placeOne(plan models.StudyPlan, hour int, days []int, dayStart, dayEnd, lessonMinutes int, constraints models.GenerationConstraints, windowStart, windowEnd string, periodID *string, rooms []models.Classroom, draft []models.LessonOccurrence) (models.LessonOccurrence, bool) {
	for i := 0; i < len(days); i++ {
		day := days[(hour+i)%len(days)]
		for slot := dayStart; slot+lessonMinutes <= dayEnd; slot += lessonMinutes {
			candidate := models.LessonOccurrence{
				TempID:      uuid.NewString(),
				DayOfWeek:   day,
				StartTime:   formatClock(slot),
				EndTime:     formatClock(slot + lessonMinutes),
				GroupID:     plan.GroupID,
				TeacherID:   plan.TeacherID,
				StudyPlanID: plan.ID,
				SubjectName: plan.SubjectName,
				Recurrence:  models.RecurrenceWeekly,
				StartDate:   strPtr(windowStart),
				EndDate:     strPtr(windowEnd),
				PeriodID:    periodID,
			}

			if len(DetectConflicts(candidate, draft)) > 0 {
				continue
			}
			if !s.consecutiveOK(candidate, slot, lessonMinutes, constraints, draft) {
				continue
			}
			// Best effort: a lesson without a free room stays online.
			candidate.ClassroomID = pickRoom(candidate, rooms, draft)
			return candidate, true
		}
	}
	return models.LessonOccurrence{}, false
}

// pickRoom returns the most preferred room free at the candidate's slot,
// nil when every room is taken.
func pickRoom(candidate models.LessonOccurrence, rooms []models.Classroom, draft []models.LessonOccurrence) *string {
	for i := range rooms {
		trial := candidate
		trial.ClassroomID = &rooms[i].ID
		free := true
		for _, c := range DetectConflicts(trial, draft) {
			if c.Type == models.ConflictRoom {
				free = false
				break
			}
		}
		if free {
			return &rooms[i].ID
		}
	}
	return nil
}

// roomsByPreference orders rooms by descending preference weight, then name
// for a stable walk.
func roomsByPreference(rooms []models.Classroom, prefs map[string]float64) []models.Classroom {
	ordered := make([]models.Classroom, len(rooms))
	copy(ordered, rooms)
	sort.SliceStable(ordered, func(i, j int) bool {
		wi, wj := prefs[ordered[i].ID], prefs[ordered[j].ID]
		if wi != wj {
			return wi > wj
		}
		return ordered[i].Name < ordered[j].Name
	})
	return ordered
}

// consecutiveOK rejects a slot that would extend a group's consecutive run
// past the limit. A run only ends at a gap of at least MinBreakMinutes;
// shorter gaps keep the run going.
func (s *DraftService) consecutiveOK(candidate models.LessonOccurrence, slot, lessonMinutes int, constraints models.GenerationConstraints, draft []models.LessonOccurrence) bool {
	max := constraints.MaxConsecutiveHours
	if max <= 0 {
		return true
	}
	minBreak := constraints.MinBreakMinutes

	run := 0
	cursor := slot
	for {
		// Nearest earlier lesson of the same group on the same day.
		prevEnd, prevStart, found := -1, 0, false
		for i := range draft {
			if draft[i].GroupID != candidate.GroupID || draft[i].DayOfWeek != candidate.DayOfWeek {
				continue
			}
			end, err := models.ParseClock(draft[i].EndTime)
			if err != nil || end > cursor || end <= prevEnd {
				continue
			}
			start, err := models.ParseClock(draft[i].StartTime)
			if err != nil {
				continue
			}
			prevEnd, prevStart, found = end, start, true
		}
		if !found {
			break
		}
		if gap := cursor - prevEnd; gap > 0 && gap >= minBreak {
			break
		}
		run++
		cursor = prevStart
	}

	return run < max
}

// effectiveConstraints fills unset constraint fields from scheduler config.
func (s *DraftService) effectiveConstraints(c models.GenerationConstraints) models.GenerationConstraints {
	if c.WorkingHoursStart == "" {
		c.WorkingHoursStart = s.cfg.WorkdayStart
	}
	if c.WorkingHoursEnd == "" {
		c.WorkingHoursEnd = s.cfg.WorkdayEnd
	}
	if c.MaxConsecutiveHours <= 0 {
		c.MaxConsecutiveHours = s.cfg.MaxConsecutive
	}
	if c.MinBreakMinutes <= 0 {
		c.MinBreakMinutes = s.cfg.MinBreakMinutes
	}
	if !c.ExcludeWeekends {
		c.ExcludeWeekends = s.cfg.ExcludeWeekends
	}
	return c
}

// resolveWindow turns generation params into explicit window dates. A period
// preset wins over explicit dates; having neither is a validation error.
func resolveWindow(params dto.GenerationParams, snapshot *models.CatalogSnapshot) (string, string, error) {
	if params.PeriodID != nil && *params.PeriodID != "" {
		period := snapshot.PeriodByID(*params.PeriodID)
		if period == nil {
			return "", "", appErrors.Clone(appErrors.ErrResolution, fmt.Sprintf("unknown period %q", *params.PeriodID))
		}
		return period.StartDate, period.EndDate, nil
	}
	if params.StartDate != nil && *params.StartDate != "" && params.EndDate != nil && *params.EndDate != "" {
		from, err := models.ParseDate(*params.StartDate)
		if err != nil {
			return "", "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid startDate")
		}
		to, err := models.ParseDate(*params.EndDate)
		if err != nil {
			return "", "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid endDate")
		}
		if to.Before(from) {
			return "", "", appErrors.Clone(appErrors.ErrValidation, "endDate precedes startDate")
		}
		return *params.StartDate, *params.EndDate, nil
	}
	return "", "", appErrors.Clone(appErrors.ErrValidation, "a periodId or startDate/endDate pair is required")
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func strPtr(s string) *string {
	return &s
}
