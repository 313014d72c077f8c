package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/uniroom-api/internal/dto"
	"github.com/noah-isme/uniroom-api/internal/models"
	appErrors "github.com/noah-isme/uniroom-api/pkg/errors"
)

type recurringScheduleStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, schedule *models.RecurringSchedule) error
	FindByID(ctx context.Context, id string) (*models.RecurringSchedule, error)
	LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.RecurringSchedule, error)
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.RecurringSchedule, int, error)
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.ScheduleStatus) error
}

// ScheduleService manages recurring timetable entries.
type ScheduleService struct {
	repo      recurringScheduleStore
	refs      *ReferenceService
	conflicts *ConflictService
	uow       unitOfWork
	audit     auditLogger
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService constructs the schedule service.
func NewScheduleService(repo recurringScheduleStore, refs *ReferenceService, conflicts *ConflictService, uow unitOfWork, audit auditLogger, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{repo: repo, refs: refs, conflicts: conflicts, uow: uow, audit: audit, validator: validate, logger: logger}
}

// List returns recurring entries matching the query.
func (s *ScheduleService) List(ctx context.Context, query dto.ScheduleQuery) ([]models.RecurringSchedule, *models.Pagination, error) {
	filter := models.ScheduleFilter{
		ClassID:      query.ClassID,
		TeacherID:    query.TeacherID,
		RoomID:       query.RoomID,
		DepartmentID: query.DepartmentID,
		TimeSlotID:   query.TimeSlotID,
		DayOfWeek:    query.DayOfWeek,
		Status:       models.ScheduleStatus(strings.ToLower(query.Status)),
		Page:         query.Page,
		PageSize:     query.PageSize,
	}
	if filter.DayOfWeek != 0 && !models.ValidDayOfWeek(filter.DayOfWeek) {
		return nil, nil, validationError("dayOfWeek must be between 1 and 7")
	}
	schedules, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	return schedules, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a single recurring entry.
func (s *ScheduleService) Get(ctx context.Context, id string) (*models.RecurringSchedule, error) {
	schedule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "schedule not found", "failed to load schedule")
	}
	return schedule, nil
}

// Create inserts an active recurring entry after a conflict check on its
// room and teacher, both inside one transaction.
func (s *ScheduleService) Create(ctx context.Context, req dto.CreateScheduleRequest, actor models.Actor) (*models.RecurringSchedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	start, err := parseDateField("startDate", req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDateField("endDate", req.EndDate)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, validationError("endDate must not be before startDate")
	}

	schedule := &models.RecurringSchedule{
		ClassID:     strings.TrimSpace(req.ClassID),
		ClassTypeID: trimmedPtr(req.ClassTypeID),
		GroupNumber: req.GroupNumber,
		TeacherID:   strings.TrimSpace(req.TeacherID),
		RoomID:      trimmedPtr(req.RoomID),
		DayOfWeek:   req.DayOfWeek,
		TimeSlotID:  strings.TrimSpace(req.TimeSlotID),
		StartDate:   start,
		EndDate:     end,
		Status:      models.ScheduleStatusActive,
	}
	if err := s.refs.Check(ctx, ScheduleRefs{
		ClassID:     schedule.ClassID,
		ClassTypeID: stringValue(schedule.ClassTypeID),
		TeacherIDs:  []string{schedule.TeacherID},
		TimeSlotIDs: []string{schedule.TimeSlotID},
		RoomIDs:     []string{schedule.RoomValue()},
	}); err != nil {
		return nil, err
	}

	err = s.uow.Do(ctx, func(ctx context.Context, tx sqlx.ExtContext) error {
		claim := models.SlotClaim{
			RoomID:     schedule.RoomID,
			TeacherID:  schedule.TeacherID,
			DayOfWeek:  schedule.DayOfWeek,
			TimeSlotID: schedule.TimeSlotID,
			StartDate:  schedule.StartDate,
			EndDate:    schedule.EndDate,
		}
		if err := s.conflicts.EnsureAvailable(ctx, tx, claim); err != nil {
			return err
		}
		return s.repo.Create(ctx, tx, schedule)
	})
	if err != nil {
		return nil, txError(err, "failed to create schedule")
	}

	emitAudit(ctx, s.audit, s.logger, actorID(actor), models.AuditActionScheduleCreate, "recurring_schedule", schedule.ID, nil, schedule)
	s.logger.Info("schedule created",
		zap.String("schedule_id", schedule.ID),
		zap.String("class_id", schedule.ClassID),
		zap.Int("day_of_week", schedule.DayOfWeek),
		zap.String("time_slot_id", schedule.TimeSlotID))
	return schedule, nil
}

// Cancel retires an entry permanently. It stops conflicting and drops out
// of every view.
func (s *ScheduleService) Cancel(ctx context.Context, id string, actor models.Actor) (*models.RecurringSchedule, error) {
	var before models.RecurringSchedule
	var after *models.RecurringSchedule
	err := s.uow.Do(ctx, func(ctx context.Context, tx sqlx.ExtContext) error {
		schedule, err := s.repo.LockByID(ctx, tx, id)
		if err != nil {
			return notFoundOr(err, "schedule not found", "failed to load schedule")
		}
		if schedule.Status == models.ScheduleStatusCancelled {
			return appErrors.Clone(appErrors.ErrInvalidState, "schedule already cancelled")
		}
		before = *schedule
		if err := s.repo.UpdateStatus(ctx, tx, id, models.ScheduleStatusCancelled); err != nil {
			return notFoundOr(err, "schedule not found", "failed to cancel schedule")
		}
		schedule.Status = models.ScheduleStatusCancelled
		after = schedule
		return nil
	})
	if err != nil {
		return nil, txError(err, "failed to cancel schedule")
	}
	emitAudit(ctx, s.audit, s.logger, actorID(actor), models.AuditActionScheduleCancel, "recurring_schedule", id, before, after)
	return after, nil
}

func actorID(actor models.Actor) string {
	if actor == nil {
		return ""
	}
	return actor.UserID()
}
