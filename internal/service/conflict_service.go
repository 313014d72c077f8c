package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/uniroom-api/internal/dto"
	"github.com/noah-isme/uniroom-api/internal/models"
	"github.com/noah-isme/uniroom-api/pkg/database"
	appErrors "github.com/noah-isme/uniroom-api/pkg/errors"
)

type conflictScheduleStore interface {
	FindOverlapping(ctx context.Context, exec sqlx.ExtContext, dimension models.ConflictDimension, q models.ConflictQuery) ([]models.RecurringSchedule, error)
	ListOnSlot(ctx context.Context, exec sqlx.ExtContext, date time.Time, timeSlotID string) ([]models.RecurringSchedule, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.RecurringSchedule, error)
}

type conflictExceptionStore interface {
	ListBySchedules(ctx context.Context, exec sqlx.ExtContext, scheduleIDs []string, from, to time.Time) ([]models.ScheduleException, error)
	ListRelocationsInto(ctx context.Context, exec sqlx.ExtContext, dimension models.ConflictDimension, q models.ConflictQuery) ([]models.ScheduleException, error)
	ListSubstitutionsFor(ctx context.Context, exec sqlx.ExtContext, q models.ConflictQuery) ([]models.ScheduleException, error)
}

// slotLocker takes a transaction-scoped lock on a slot key.
type slotLocker func(ctx context.Context, tx sqlx.ExtContext, key string) error

// ConflictService detects room and teacher double bookings. Checks read
// through exec so they observe the caller's transaction.
type ConflictService struct {
	schedules    conflictScheduleStore
	exceptions   conflictExceptionStore
	metrics      *MetricsService
	logger       *zap.Logger
	maxRangeDays int
	lock         slotLocker
}

// NewConflictService constructs the checker. maxRangeDays bounds the query
// window; zero disables the bound.
func NewConflictService(schedules conflictScheduleStore, exceptions conflictExceptionStore, metrics *MetricsService, maxRangeDays int, logger *zap.Logger) *ConflictService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictService{
		schedules:    schedules,
		exceptions:   exceptions,
		metrics:      metrics,
		logger:       logger,
		maxRangeDays: maxRangeDays,
		lock:         database.LockSlot,
	}
}

// CheckRoomConflict reports active entries and relocated occurrences that
// occupy q.RoomID on q's weekday and slot inside the window.
func (s *ConflictService) CheckRoomConflict(ctx context.Context, exec sqlx.ExtContext, q models.ConflictQuery) (*models.ConflictReport, error) {
	if strings.TrimSpace(q.RoomID) == "" {
		return nil, validationError("roomId is required")
	}
	return s.check(ctx, exec, models.ConflictDimensionRoom, q)
}

// CheckTeacherConflict reports active entries, relocated occurrences and
// substitutions that occupy q.TeacherID on q's weekday and slot.
func (s *ConflictService) CheckTeacherConflict(ctx context.Context, exec sqlx.ExtContext, q models.ConflictQuery) (*models.ConflictReport, error) {
	if strings.TrimSpace(q.TeacherID) == "" {
		return nil, validationError("teacherId is required")
	}
	return s.check(ctx, exec, models.ConflictDimensionTeacher, q)
}

// Check parses a read-only conflict check request and runs it for dimension.
func (s *ConflictService) Check(ctx context.Context, dimension models.ConflictDimension, req dto.ConflictCheckRequest) (*models.ConflictReport, error) {
	start, err := parseDateField("startDate", req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDateField("endDate", req.EndDate)
	if err != nil {
		return nil, err
	}
	q := models.ConflictQuery{
		RoomID:            strings.TrimSpace(req.RoomID),
		TeacherID:         strings.TrimSpace(req.TeacherID),
		DayOfWeek:         req.DayOfWeek,
		TimeSlotID:        req.TimeSlotID,
		StartDate:         start,
		EndDate:           end,
		ExcludeScheduleID: req.ExcludeScheduleID,
	}
	if dimension == models.ConflictDimensionTeacher {
		return s.CheckTeacherConflict(ctx, nil, q)
	}
	return s.CheckRoomConflict(ctx, nil, q)
}

// EnsureAvailable locks the claim's slot keys and fails with a conflict error
// when either the room or the teacher is taken. It must run inside the
// transaction that persists the claim.
func (s *ConflictService) EnsureAvailable(ctx context.Context, tx sqlx.ExtContext, claim models.SlotClaim) error {
	keys := claim.LockKeys()
	sort.Strings(keys)
	for _, key := range keys {
		if err := s.lock(ctx, tx, key); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock slot")
		}
	}

	q := models.ConflictQuery{
		TeacherID:         claim.TeacherID,
		DayOfWeek:         claim.DayOfWeek,
		TimeSlotID:        claim.TimeSlotID,
		StartDate:         claim.StartDate,
		EndDate:           claim.EndDate,
		ExcludeScheduleID: claim.ExcludeScheduleID,
	}
	var reports []models.ConflictReport
	if claim.RoomID != nil && *claim.RoomID != "" {
		q.RoomID = *claim.RoomID
		report, err := s.check(ctx, tx, models.ConflictDimensionRoom, q)
		if err != nil {
			return err
		}
		if report.Conflict {
			reports = append(reports, *report)
		}
	}
	if claim.TeacherID != "" {
		report, err := s.check(ctx, tx, models.ConflictDimensionTeacher, q)
		if err != nil {
			return err
		}
		if report.Conflict {
			reports = append(reports, *report)
		}
	}
	if len(reports) == 0 {
		return nil
	}
	conflict := &models.ScheduleConflictError{Reports: reports}
	return appErrors.Wrap(conflict, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, conflict.Error())
}

func (s *ConflictService) validate(q models.ConflictQuery) error {
	if !models.ValidDayOfWeek(q.DayOfWeek) {
		return validationError("dayOfWeek must be between 1 (Sunday) and 7 (Saturday)")
	}
	if strings.TrimSpace(q.TimeSlotID) == "" {
		return validationError("timeSlotId is required")
	}
	if q.StartDate.IsZero() || q.EndDate.IsZero() {
		return validationError("startDate and endDate are required")
	}
	if q.EndDate.Before(q.StartDate) {
		return validationError("endDate must not be before startDate")
	}
	if s.maxRangeDays > 0 && q.EndDate.Sub(q.StartDate) > time.Duration(s.maxRangeDays)*24*time.Hour {
		return validationError("date range is too long")
	}
	return nil
}

func (s *ConflictService) check(ctx context.Context, exec sqlx.ExtContext, dimension models.ConflictDimension, q models.ConflictQuery) (*models.ConflictReport, error) {
	q.StartDate = models.TruncateDate(q.StartDate)
	q.EndDate = models.TruncateDate(q.EndDate)
	if err := s.validate(q); err != nil {
		return nil, err
	}

	candidates, err := s.schedules.FindOverlapping(ctx, exec, dimension, q)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check conflicts")
	}
	entries, err := s.dropFreed(ctx, exec, dimension, q, candidates)
	if err != nil {
		return nil, err
	}

	excs, err := s.exceptions.ListRelocationsInto(ctx, exec, dimension, q)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check relocated occurrences")
	}
	if dimension == models.ConflictDimensionTeacher {
		subs, err := s.exceptions.ListSubstitutionsFor(ctx, exec, q)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check substitutions")
		}
		excs = append(excs, subs...)
	}

	report := &models.ConflictReport{
		Dimension:             dimension,
		ConflictingEntries:    entries,
		ConflictingExceptions: excs,
	}
	if report.ConflictingEntries == nil {
		report.ConflictingEntries = []models.RecurringSchedule{}
	}
	if report.ConflictingExceptions == nil {
		report.ConflictingExceptions = []models.ScheduleException{}
	}
	report.Conflict = len(entries) > 0 || len(excs) > 0
	s.metrics.RecordConflictCheck(dimension, report.Conflict)
	if report.Conflict {
		s.logger.Debug("schedule conflict detected",
			zap.String("dimension", string(dimension)),
			zap.Int("entries", len(entries)),
			zap.Int("exceptions", len(excs)))
	}
	return report, nil
}

// dropFreed removes candidates whose every shared occurrence is released by
// an exception. A candidate with no shared occurrence date never conflicts.
func (s *ConflictService) dropFreed(ctx context.Context, exec sqlx.ExtContext, dimension models.ConflictDimension, q models.ConflictQuery, candidates []models.RecurringSchedule) ([]models.RecurringSchedule, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	list, err := s.exceptions.ListBySchedules(ctx, exec, ids, q.StartDate, q.EndDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exceptions")
	}
	idx := indexExceptions(list)

	var kept []models.RecurringSchedule
	for _, candidate := range candidates {
		from := models.MaxDate(models.TruncateDate(candidate.StartDate), q.StartDate)
		to := models.MinDate(models.TruncateDate(candidate.EndDate), q.EndDate)
		for _, date := range models.OccurrenceDates(q.DayOfWeek, from, to) {
			if !frees(dimension, candidate, idx.lookup(candidate.ID, date)) {
				kept = append(kept, candidate)
				break
			}
		}
	}
	return kept, nil
}

// roomOccupancy is the state of every room on one date and slot.
type roomOccupancy struct {
	occupied map[string]bool
	freedBy  map[string]string
}

// occupancyOn resolves which rooms are held on date in slot once exceptions
// are overlaid.
func (s *ConflictService) occupancyOn(ctx context.Context, date time.Time, timeSlotID string) (*roomOccupancy, error) {
	date = models.TruncateDate(date)
	occ := &roomOccupancy{occupied: map[string]bool{}, freedBy: map[string]string{}}

	entries, err := s.schedules.ListOnSlot(ctx, nil, date, timeSlotID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slot occupancy")
	}
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	list, err := s.exceptions.ListBySchedules(ctx, nil, ids, date, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exceptions")
	}
	idx := indexExceptions(list)
	for _, entry := range entries {
		room := entry.RoomValue()
		if freesRoom(entry, idx.lookup(entry.ID, date)) {
			occ.freedBy[room] = entry.ID
			continue
		}
		occ.occupied[room] = true
	}

	relocations, err := s.exceptions.ListRelocationsInto(ctx, nil, "", models.ConflictQuery{
		DayOfWeek:  models.DayOfWeek(date),
		TimeSlotID: timeSlotID,
		StartDate:  date,
		EndDate:    date,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load relocated occurrences")
	}
	var unresolved []string
	for _, exc := range relocations {
		if exc.NewRoomID != nil && *exc.NewRoomID != "" {
			occ.occupied[*exc.NewRoomID] = true
			continue
		}
		unresolved = append(unresolved, exc.RecurringScheduleID)
	}
	if len(unresolved) > 0 {
		owners, err := s.schedules.FindByIDs(ctx, unresolved)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load relocated entries")
		}
		for _, owner := range owners {
			if room := owner.RoomValue(); room != "" {
				occ.occupied[room] = true
			}
		}
	}
	for room := range occ.occupied {
		delete(occ.freedBy, room)
	}
	return occ, nil
}
