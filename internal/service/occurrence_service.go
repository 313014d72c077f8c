package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/uniroom-api/internal/models"
	appErrors "github.com/noah-isme/uniroom-api/pkg/errors"
)

type occurrenceScheduleStore interface {
	FindByID(ctx context.Context, id string) (*models.RecurringSchedule, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.RecurringSchedule, error)
	ListActive(ctx context.Context, q models.ActiveScheduleQuery) ([]models.RecurringSchedule, error)
}

type occurrenceExceptionStore interface {
	FindByScheduleAndDate(ctx context.Context, exec sqlx.ExtContext, scheduleID string, date time.Time) (*models.ScheduleException, error)
	FindRelocatedOnto(ctx context.Context, scheduleID string, date time.Time) (*models.ScheduleException, error)
	ListBySchedules(ctx context.Context, exec sqlx.ExtContext, scheduleIDs []string, from, to time.Time) ([]models.ScheduleException, error)
	ListRelocatedInto(ctx context.Context, from, to time.Time) ([]models.ScheduleException, error)
}

// OccurrenceService resolves dated occurrences and weekly timetables.
type OccurrenceService struct {
	schedules  occurrenceScheduleStore
	exceptions occurrenceExceptionStore
	slots      *TimeSlotService
	logger     *zap.Logger
}

// NewOccurrenceService constructs the service.
func NewOccurrenceService(schedules occurrenceScheduleStore, exceptions occurrenceExceptionStore, slots *TimeSlotService, logger *zap.Logger) *OccurrenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OccurrenceService{schedules: schedules, exceptions: exceptions, slots: slots, logger: logger}
}

// Resolve returns the occurrence of an entry on date. An exception on that
// original date wins, then an occurrence relocated onto date, then the plain
// weekly occurrence.
func (s *OccurrenceService) Resolve(ctx context.Context, scheduleID string, date time.Time) (*models.ResolvedOccurrence, error) {
	entry, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		return nil, notFoundOr(err, "schedule not found", "failed to load schedule")
	}
	date = models.TruncateDate(date)

	if entry.OccursOn(date) {
		exc, err := s.exceptions.FindByScheduleAndDate(ctx, nil, entry.ID, date)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exception")
		}
		if exc != nil {
			occ := ResolveOccurrence(*entry, date, exc)
			return &occ, nil
		}
	}

	relocated, err := s.exceptions.FindRelocatedOnto(ctx, entry.ID, date)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load relocated occurrence")
	}
	if relocated != nil {
		occ := ResolveOccurrence(*entry, relocated.ExceptionDate, relocated)
		return &occ, nil
	}

	if !entry.OccursOn(date) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule has no occurrence on "+models.FormatDate(date))
	}
	occ := ResolveOccurrence(*entry, date, nil)
	return &occ, nil
}

type occurrenceKey struct {
	scheduleID string
	original   string
}

// Weekly returns every occurrence of active entries in the seven days from
// weekStart, exceptions overlaid, ordered by date then slot. Occurrences
// relocated into the week from outside it are included once. An occurrence
// of the week moved to a date outside it stays listed as a moved-away row:
// it carries its effective Date and is ordered under its OriginalDate.
func (s *OccurrenceService) Weekly(ctx context.Context, weekStart time.Time, filter models.OccurrenceFilter) ([]models.ResolvedOccurrence, error) {
	weekStart = models.TruncateDate(weekStart)
	weekEnd := weekStart.AddDate(0, 0, 6)

	entries, err := s.schedules.ListActive(ctx, models.ActiveScheduleQuery{
		WindowStart:  weekStart,
		WindowEnd:    weekEnd,
		ClassID:      filter.ClassID,
		DepartmentID: filter.DepartmentID,
		TeacherID:    filter.TeacherID,
		RoomID:       filter.RoomID,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list active schedules")
	}

	byID := make(map[string]models.RecurringSchedule, len(entries))
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		byID[entry.ID] = entry
		ids = append(ids, entry.ID)
	}
	list, err := s.exceptions.ListBySchedules(ctx, nil, ids, weekStart, weekEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exceptions")
	}
	idx := indexExceptions(list)

	seen := make(map[occurrenceKey]bool)
	var result []models.ResolvedOccurrence
	for _, entry := range entries {
		for d := 0; d < 7; d++ {
			date := weekStart.AddDate(0, 0, d)
			if !entry.OccursOn(date) {
				continue
			}
			seen[occurrenceKey{entry.ID, models.FormatDate(date)}] = true
			result = append(result, ResolveOccurrence(entry, date, idx.lookup(entry.ID, date)))
		}
	}

	incoming, err := s.relocatedInto(ctx, weekStart, weekEnd, byID)
	if err != nil {
		return nil, err
	}
	for _, item := range incoming {
		key := occurrenceKey{item.entry.ID, models.FormatDate(item.exc.ExceptionDate)}
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, ResolveOccurrence(item.entry, item.exc.ExceptionDate, item.exc))
	}

	filtered := result[:0]
	for _, occ := range result {
		if matchesOccurrence(occ, byID, filter) {
			filtered = append(filtered, occ)
		}
	}
	s.sortOccurrences(ctx, filtered, weekStart, weekEnd)
	if filtered == nil {
		filtered = []models.ResolvedOccurrence{}
	}
	return filtered, nil
}

type relocatedOccurrence struct {
	entry models.RecurringSchedule
	exc   *models.ScheduleException
}

func (s *OccurrenceService) relocatedInto(ctx context.Context, from, to time.Time, known map[string]models.RecurringSchedule) ([]relocatedOccurrence, error) {
	excs, err := s.exceptions.ListRelocatedInto(ctx, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load relocated occurrences")
	}
	if len(excs) == 0 {
		return nil, nil
	}
	var missing []string
	for _, exc := range excs {
		if _, ok := known[exc.RecurringScheduleID]; !ok {
			missing = append(missing, exc.RecurringScheduleID)
		}
	}
	if len(missing) > 0 {
		owners, err := s.schedules.FindByIDs(ctx, missing)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load relocated entries")
		}
		for _, owner := range owners {
			known[owner.ID] = owner
		}
	}

	result := make([]relocatedOccurrence, 0, len(excs))
	for i := range excs {
		exc := &excs[i]
		entry, ok := known[exc.RecurringScheduleID]
		if !ok || !entry.IsActive() || !entry.OccursOn(exc.ExceptionDate) {
			continue
		}
		result = append(result, relocatedOccurrence{entry: entry, exc: exc})
	}
	return result, nil
}

func matchesOccurrence(occ models.ResolvedOccurrence, entries map[string]models.RecurringSchedule, filter models.OccurrenceFilter) bool {
	if filter.ClassID != "" && occ.ClassID != filter.ClassID {
		return false
	}
	if filter.DepartmentID != "" {
		entry := entries[occ.RecurringScheduleID]
		if entry.DepartmentID == nil || *entry.DepartmentID != filter.DepartmentID {
			return false
		}
	}
	if filter.TeacherID != "" && occ.TeacherID != filter.TeacherID && occ.OriginalTeacherID != filter.TeacherID {
		return false
	}
	if filter.RoomID != "" && stringValue(occ.RoomID) != filter.RoomID && stringValue(occ.OriginalRoomID) != filter.RoomID {
		return false
	}
	return true
}

func (s *OccurrenceService) sortOccurrences(ctx context.Context, list []models.ResolvedOccurrence, weekStart, weekEnd time.Time) {
	if len(list) < 2 {
		return
	}
	listedOn := func(occ models.ResolvedOccurrence) time.Time {
		if occ.Date.Before(weekStart) || occ.Date.After(weekEnd) {
			return occ.OriginalDate
		}
		return occ.Date
	}
	order := s.slots.order(ctx)
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if da, db := listedOn(a), listedOn(b); !da.Equal(db) {
			return da.Before(db)
		}
		if a.TimeSlotID != b.TimeSlotID {
			oa, okA := order[a.TimeSlotID]
			ob, okB := order[b.TimeSlotID]
			if okA && okB && oa != ob {
				return oa < ob
			}
			return a.TimeSlotID < b.TimeSlotID
		}
		if a.ClassID != b.ClassID {
			return a.ClassID < b.ClassID
		}
		return a.RecurringScheduleID < b.RecurringScheduleID
	})
}
