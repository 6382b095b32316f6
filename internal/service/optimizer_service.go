package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edupanel/scheduling-api/internal/dto"
	"github.com/edupanel/scheduling-api/internal/models"
	appErrors "github.com/edupanel/scheduling-api/pkg/errors"
	"github.com/edupanel/scheduling-api/pkg/reasoning"
)

type completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// OptimizerService sends a draft to the reasoning service and normalizes
// whatever comes back into validated occurrences. The model's output is
// treated as untrusted: every reference is re-resolved against the catalog
// and items that cannot be repaired are dropped with a recorded error.
type OptimizerService struct {
	reasoner completer
	catalog  snapshotProvider
	metrics  *MetricsService
	validate *validator.Validate
	logger   *zap.Logger
}

// NewOptimizerService creates an optimizer adapter. metrics may be nil.
func NewOptimizerService(reasoner completer, catalog snapshotProvider, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *OptimizerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OptimizerService{reasoner: reasoner, catalog: catalog, metrics: metrics, validate: validate, logger: logger}
}

// Optimize runs one draft through the reasoning service.
func (s *OptimizerService) Optimize(ctx context.Context, req dto.OptimizeRequest) (*dto.OptimizedScheduleResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid optimize request")
	}

	snapshot, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	prompt := buildOptimizerPrompt(req, snapshot)

	started := time.Now()
	raw, err := s.reasoner.Complete(ctx, prompt)
	s.metrics.ObserveReasoningCall(time.Since(started))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrReasoning.Code, appErrors.ErrReasoning.Status, "reasoning service call failed")
	}

	payload := reasoning.ExtractJSON(raw)
	if payload == "" {
		s.logger.Warn("reasoning response contained no JSON", zap.Int("rawLen", len(raw)))
		return nil, appErrors.Clone(appErrors.ErrReasoning, "reasoning response contained no parseable JSON")
	}

	var parsed dto.RawOptimizerResponse
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrReasoning.Code, appErrors.ErrReasoning.Status, "reasoning response did not match the expected shape")
	}

	items := parsed.Items()
	if len(items) == 0 {
		return nil, appErrors.Clone(appErrors.ErrReasoning, "reasoning response carried an empty schedule")
	}

	window := fallbackWindow(req, snapshot)

	resp := &dto.OptimizedScheduleResponse{
		Suggestions: parsed.Suggestions,
		Statistics:  mapStatistics(parsed.Statistics),
	}
	if conf, err := parsed.Confidence.Float64(); err == nil {
		resp.Confidence = conf
	}
	for _, c := range parsed.Conflicts {
		resp.Conflicts = append(resp.Conflicts, models.ConflictDescriptor{
			Type:        models.ConflictType(c.Type),
			Description: c.Description,
			Severity:    c.Severity,
		})
	}

	for i, item := range items {
		occ, err := s.normalizeItem(item, snapshot, window)
		if err != nil {
			resp.ItemErrors = append(resp.ItemErrors, fmt.Sprintf("item %d: %v", i, err))
			continue
		}
		resp.Generated = append(resp.Generated, occ)
	}

	if len(resp.Generated) == 0 {
		return nil, appErrors.Clone(appErrors.ErrReasoning,
			fmt.Sprintf("no optimizer item survived normalization (%d errors)", len(resp.ItemErrors)))
	}

	s.logger.Info("optimizer batch normalized",
		zap.Int("returned", len(items)),
		zap.Int("accepted", len(resp.Generated)),
		zap.Int("rejected", len(resp.ItemErrors)))

	return resp, nil
}

// normalizeItem coerces one loosely-typed optimizer item into a validated
// occurrence with all references re-resolved against the catalog.
func (s *OptimizerService) normalizeItem(item dto.RawOptimizedItem, snapshot *models.CatalogSnapshot, window [2]string) (models.LessonOccurrence, error) {
	var zero models.LessonOccurrence

	group, err := resolveGroup(snapshot, coerceString(item.GroupID), coerceString(item.Group), coerceString(item.GroupName))
	if err != nil {
		return zero, err
	}
	teacher, err := resolveTeacher(snapshot, coerceString(item.TeacherID), coerceString(item.Teacher), coerceString(item.TeacherName))
	if err != nil {
		return zero, err
	}

	subject := firstNonEmpty(coerceString(item.SubjectName), coerceString(item.Subject))
	plan, err := resolveStudyPlan(snapshot, coerceString(item.StudyPlanID), group.ID, subject)
	if err != nil {
		return zero, err
	}
	if subject == "" {
		subject = plan.SubjectName
	}

	occ := models.LessonOccurrence{
		TempID:      item.TempID,
		GroupID:     group.ID,
		TeacherID:   teacher.ID,
		StudyPlanID: plan.ID,
		SubjectName: subject,
		StartTime:   strings.TrimSpace(item.StartTime),
		EndTime:     strings.TrimSpace(item.EndTime),
		Recurrence:  models.Recurrence(strings.ToLower(strings.TrimSpace(item.Recurrence))),
	}
	if occ.TempID == "" {
		occ.TempID = uuid.NewString()
	}

	// Rooms are optional: an unresolvable room downgrades to online rather
	// than rejecting the item.
	if room := resolveRoom(snapshot, coerceString(item.ClassroomID), coerceString(item.Classroom), coerceString(item.RoomID), coerceString(item.Room)); room != nil {
		occ.ClassroomID = &room.ID
	}

	if item.Date != "" {
		date := strings.TrimSpace(item.Date)
		occ.Date = &date
		if occ.Recurrence == "" {
			occ.Recurrence = models.RecurrenceOnce
		}
	} else {
		day, err := coerceDay(item.DayOfWeek, item.Day)
		if err != nil {
			return zero, err
		}
		occ.DayOfWeek = day
		if occ.Recurrence == "" {
			occ.Recurrence = models.RecurrenceWeekly
		}
		if window[0] != "" {
			occ.StartDate = strPtr(window[0])
			occ.EndDate = strPtr(window[1])
		}
	}

	if err := occ.Validate(); err != nil {
		return zero, err
	}
	return occ, nil
}

// buildOptimizerPrompt renders the strict JSON-only instruction set. Catalog
// names are listed verbatim so the model can only answer with resolvable
// references.
func buildOptimizerPrompt(req dto.OptimizeRequest, snapshot *models.CatalogSnapshot) string {
	var b strings.Builder

	b.WriteString("You are a school timetable optimizer. Rearrange the draft schedule below to remove conflicts and balance teacher and group load.\n\n")

	b.WriteString("Rules:\n")
	b.WriteString("- Respond with a single JSON object and nothing else. No prose, no markdown fences.\n")
	b.WriteString("- Keep every lesson from the draft; change only day, time and room.\n")
	b.WriteString("- Preserve each lesson's tempId unchanged.\n")
	b.WriteString("- Days are numbered monday=1 through sunday=7.\n")
	b.WriteString("- Times are HH:MM, 24-hour. A lesson ending 10:00 does not clash with one starting 10:00.\n")
	b.WriteString("- Use ONLY the exact ids and names listed below. Never invent a group, teacher or room.\n")

	if req.Params.Constraints.WorkingHoursStart != "" {
		fmt.Fprintf(&b, "- Working hours: %s to %s.\n", req.Params.Constraints.WorkingHoursStart, req.Params.Constraints.WorkingHoursEnd)
	}
	if req.Params.Constraints.ExcludeWeekends {
		b.WriteString("- Weekends are excluded: use days 1-5 only.\n")
	}
	if req.Params.Constraints.MaxConsecutiveHours > 0 {
		fmt.Fprintf(&b, "- A group may have at most %d consecutive lessons before a break of %d minutes.\n",
			req.Params.Constraints.MaxConsecutiveHours, req.Params.Constraints.MinBreakMinutes)
	}

	b.WriteString("\nGroups (id: name):\n")
	for _, g := range snapshot.Groups {
		fmt.Fprintf(&b, "- %s: %s\n", g.ID, g.Name)
	}
	b.WriteString("\nTeachers (id: name):\n")
	for _, t := range snapshot.Teachers {
		fmt.Fprintf(&b, "- %s: %s\n", t.ID, t.FullName)
	}
	b.WriteString("\nClassrooms (id: name):\n")
	for _, r := range snapshot.Classrooms {
		fmt.Fprintf(&b, "- %s: %s\n", r.ID, r.Name)
	}

	b.WriteString("\nDraft schedule JSON:\n")
	if draft, err := json.Marshal(req.Draft); err == nil {
		b.Write(draft)
	}

	b.WriteString("\n\nRespond with exactly this shape:\n")
	b.WriteString(`{"generatedSchedule":[{"tempId":"...","groupId":"...","teacherId":"...","classroomId":"...","studyPlanId":"...","subjectName":"...","dayOfWeek":1,"startTime":"08:00","endTime":"09:00","recurrence":"weekly"}],"conflicts":[],"suggestions":[],"statistics":{"totalLessons":0,"reassignedRooms":0,"reassignedTimes":0},"confidence":0.95}`)
	b.WriteString("\n")

	return b.String()
}

// fallbackWindow picks the effective date window for recurring items the
// model returned without one: the request params first, then the draft's own
// stamps.
func fallbackWindow(req dto.OptimizeRequest, snapshot *models.CatalogSnapshot) [2]string {
	if start, end, err := resolveWindow(req.Params, snapshot); err == nil {
		return [2]string{start, end}
	}
	for _, occ := range req.Draft {
		if occ.StartDate != nil && *occ.StartDate != "" && occ.EndDate != nil && *occ.EndDate != "" {
			return [2]string{*occ.StartDate, *occ.EndDate}
		}
	}
	return [2]string{}
}

func mapStatistics(raw map[string]interface{}) dto.OptimizerStatistics {
	return dto.OptimizerStatistics{
		TotalLessons:    coerceInt(raw["totalLessons"]),
		ReassignedRooms: coerceInt(raw["reassignedRooms"]),
		ReassignedTimes: coerceInt(raw["reassignedTimes"]),
	}
}

func resolveGroup(snapshot *models.CatalogSnapshot, candidates ...string) (*models.Group, error) {
	for _, ref := range candidates {
		if ref == "" {
			continue
		}
		for i := range snapshot.Groups {
			if snapshot.Groups[i].ID == ref {
				return &snapshot.Groups[i], nil
			}
		}
		for i := range snapshot.Groups {
			if snapshot.Groups[i].Name == ref {
				return &snapshot.Groups[i], nil
			}
		}
		lower := strings.ToLower(ref)
		for i := range snapshot.Groups {
			if strings.Contains(strings.ToLower(snapshot.Groups[i].Name), lower) {
				return &snapshot.Groups[i], nil
			}
		}
	}
	return nil, fmt.Errorf("group %q not found in catalog", firstNonEmpty(candidates...))
}

func resolveTeacher(snapshot *models.CatalogSnapshot, candidates ...string) (*models.Teacher, error) {
	for _, ref := range candidates {
		if ref == "" {
			continue
		}
		for i := range snapshot.Teachers {
			if snapshot.Teachers[i].ID == ref {
				return &snapshot.Teachers[i], nil
			}
		}
		for i := range snapshot.Teachers {
			if snapshot.Teachers[i].FullName == ref {
				return &snapshot.Teachers[i], nil
			}
		}
		lower := strings.ToLower(ref)
		for i := range snapshot.Teachers {
			if strings.Contains(strings.ToLower(snapshot.Teachers[i].FullName), lower) {
				return &snapshot.Teachers[i], nil
			}
		}
	}
	return nil, fmt.Errorf("teacher %q not found in catalog", firstNonEmpty(candidates...))
}

func resolveRoom(snapshot *models.CatalogSnapshot, candidates ...string) *models.Classroom {
	for _, ref := range candidates {
		if ref == "" {
			continue
		}
		for i := range snapshot.Classrooms {
			if snapshot.Classrooms[i].ID == ref {
				return &snapshot.Classrooms[i]
			}
		}
		for i := range snapshot.Classrooms {
			if snapshot.Classrooms[i].Name == ref {
				return &snapshot.Classrooms[i]
			}
		}
		lower := strings.ToLower(ref)
		for i := range snapshot.Classrooms {
			if strings.Contains(strings.ToLower(snapshot.Classrooms[i].Name), lower) {
				return &snapshot.Classrooms[i]
			}
		}
	}
	return nil
}

func resolveStudyPlan(snapshot *models.CatalogSnapshot, planID, groupID, subject string) (*models.StudyPlan, error) {
	if planID != "" {
		if plan := snapshot.StudyPlanByID(planID); plan != nil {
			return plan, nil
		}
	}
	if subject != "" {
		for i := range snapshot.StudyPlans {
			if snapshot.StudyPlans[i].GroupID == groupID && snapshot.StudyPlans[i].SubjectName == subject {
				return &snapshot.StudyPlans[i], nil
			}
		}
		lower := strings.ToLower(subject)
		for i := range snapshot.StudyPlans {
			if snapshot.StudyPlans[i].GroupID == groupID && strings.Contains(strings.ToLower(snapshot.StudyPlans[i].SubjectName), lower) {
				return &snapshot.StudyPlans[i], nil
			}
		}
	}
	return nil, fmt.Errorf("study plan for group %q subject %q not found in catalog", groupID, subject)
}

// coerceDay accepts day-of-week as a number, a numeric string or an english
// day name, first value wins.
func coerceDay(values ...interface{}) (int, error) {
	for _, v := range values {
		switch d := v.(type) {
		case nil:
			continue
		case float64:
			return int(d), nil
		case int:
			return d, nil
		case string:
			trimmed := strings.TrimSpace(d)
			if trimmed == "" {
				continue
			}
			if n, err := strconv.Atoi(trimmed); err == nil {
				return n, nil
			}
			if n := models.DayNameToIndex(trimmed); n != 0 {
				return n, nil
			}
			return 0, fmt.Errorf("unrecognized day %q", d)
		}
	}
	return 0, fmt.Errorf("item carries neither a date nor a day of week")
}

func coerceString(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case float64:
		if s == float64(int64(s)) {
			return strconv.FormatInt(int64(s), 10)
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	case json.Number:
		return s.String()
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", s))
	}
}

func coerceInt(v interface{}) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i
		}
	}
	return 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
