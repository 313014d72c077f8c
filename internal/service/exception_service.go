package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/uniroom-api/internal/dto"
	"github.com/noah-isme/uniroom-api/internal/models"
	"github.com/noah-isme/uniroom-api/internal/repository"
	appErrors "github.com/noah-isme/uniroom-api/pkg/errors"
)

type exceptionStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, exc *models.ScheduleException) error
	Upsert(ctx context.Context, exec sqlx.ExtContext, exc *models.ScheduleException) error
	FindByID(ctx context.Context, id string) (*models.ScheduleException, error)
	FindByScheduleAndDate(ctx context.Context, exec sqlx.ExtContext, scheduleID string, date time.Time) (*models.ScheduleException, error)
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.ScheduleException, error)
	ListEntryRelocationsOnto(ctx context.Context, exec sqlx.ExtContext, scheduleID string, date time.Time, timeSlotID string, skip time.Time) ([]models.ScheduleException, error)
	Delete(ctx context.Context, exec sqlx.ExtContext, id string) error
}

type scheduleLocker interface {
	FindByID(ctx context.Context, id string) (*models.RecurringSchedule, error)
	LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.RecurringSchedule, error)
}

// ExceptionService records one-off overrides of recurring occurrences.
type ExceptionService struct {
	repo      exceptionStore
	schedules scheduleLocker
	refs      *ReferenceService
	conflicts *ConflictService
	uow       unitOfWork
	audit     auditLogger
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExceptionService constructs the exception service.
func NewExceptionService(repo exceptionStore, schedules scheduleLocker, refs *ReferenceService, conflicts *ConflictService, uow unitOfWork, audit auditLogger, validate *validator.Validate, logger *zap.Logger) *ExceptionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExceptionService{repo: repo, schedules: schedules, refs: refs, conflicts: conflicts, uow: uow, audit: audit, validator: validate, logger: logger}
}

// List returns the exceptions of one entry by date.
func (s *ExceptionService) List(ctx context.Context, scheduleID string) ([]models.ScheduleException, error) {
	if _, err := s.schedules.FindByID(ctx, scheduleID); err != nil {
		return nil, notFoundOr(err, "schedule not found", "failed to load schedule")
	}
	list, err := s.repo.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exceptions")
	}
	if list == nil {
		list = []models.ScheduleException{}
	}
	return list, nil
}

// Create records an exception entered directly by an administrator. A
// second exception for the same date is rejected.
func (s *ExceptionService) Create(ctx context.Context, scheduleID string, req dto.CreateExceptionRequest, actor models.Actor) (*models.ScheduleException, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exception payload")
	}
	exc, err := exceptionFromRequest(scheduleID, req)
	if err != nil {
		return nil, err
	}
	exc.CreatedBy = optionalString(actorID(actor))

	err = s.uow.Do(ctx, func(ctx context.Context, tx sqlx.ExtContext) error {
		entry, err := s.schedules.LockByID(ctx, tx, scheduleID)
		if err != nil {
			return notFoundOr(err, "schedule not found", "failed to load schedule")
		}
		return s.Apply(ctx, tx, entry, exc, false)
	})
	if err != nil {
		return nil, txError(err, "failed to create exception")
	}
	emitAudit(ctx, s.audit, s.logger, actorID(actor), models.AuditActionExceptionCreate, "schedule_exception", exc.ID, nil, exc)
	return exc, nil
}

// Apply validates exc against a locked entry, checks the placement it
// claims and persists it inside tx. With upsert an existing exception for
// the same date is replaced instead of rejected.
func (s *ExceptionService) Apply(ctx context.Context, tx sqlx.ExtContext, entry *models.RecurringSchedule, exc *models.ScheduleException, upsert bool) error {
	if !entry.IsActive() {
		return appErrors.Clone(appErrors.ErrInvalidState, "schedule is not active")
	}
	exc.RecurringScheduleID = entry.ID
	exc.ExceptionDate = models.TruncateDate(exc.ExceptionDate)
	if !entry.OccursOn(exc.ExceptionDate) {
		return validationError("exceptionDate is not an occurrence of the schedule")
	}
	if err := validateExceptionFields(exc); err != nil {
		return err
	}
	if err := s.refs.Check(ctx, ScheduleRefs{
		TeacherIDs:  []string{stringValue(exc.SubstituteTeacherID)},
		TimeSlotIDs: []string{stringValue(exc.NewTimeSlotID)},
		RoomIDs:     []string{stringValue(exc.NewRoomID)},
	}); err != nil {
		return err
	}

	if !upsert {
		existing, err := s.repo.FindByScheduleAndDate(ctx, tx, entry.ID, exc.ExceptionDate)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exception")
		}
		if existing != nil {
			return validationError("an exception already exists for this date")
		}
	}

	if exc.ExceptionType != models.ExceptionTypeCancelled {
		placed := effectivePlacement(*entry, exc)
		if err := s.ensureNotSelfBooked(ctx, tx, entry, placed.Date, placed.TimeSlotID, exc.ExceptionDate); err != nil {
			return err
		}
	}

	if claim, ok := exceptionClaim(*entry, exc); ok {
		if err := s.conflicts.EnsureAvailable(ctx, tx, claim); err != nil {
			return err
		}
	}

	var err error
	if upsert {
		err = s.repo.Upsert(ctx, tx, exc)
	} else {
		err = s.repo.Create(ctx, tx, exc)
	}
	if errors.Is(err, repository.ErrDuplicate) {
		return validationError("an exception already exists for this date")
	}
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save exception")
	}
	return nil
}

// Delete removes an exception and restores the original occurrence, which
// must still be free.
func (s *ExceptionService) Delete(ctx context.Context, id string, actor models.Actor) error {
	var removed *models.ScheduleException
	err := s.uow.Do(ctx, func(ctx context.Context, tx sqlx.ExtContext) error {
		exc, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return notFoundOr(err, "exception not found", "failed to load exception")
		}
		entry, err := s.schedules.LockByID(ctx, tx, exc.RecurringScheduleID)
		if err != nil {
			return notFoundOr(err, "schedule not found", "failed to load schedule")
		}
		if entry.IsActive() && (freesRoom(*entry, exc) || freesTeacher(*entry, exc)) {
			restore := models.SlotClaim{
				RoomID:            entry.RoomID,
				TeacherID:         entry.TeacherID,
				DayOfWeek:         entry.DayOfWeek,
				TimeSlotID:        entry.TimeSlotID,
				StartDate:         exc.ExceptionDate,
				EndDate:           exc.ExceptionDate,
				ExcludeScheduleID: entry.ID,
			}
			if err := s.conflicts.EnsureAvailable(ctx, tx, restore); err != nil {
				return err
			}
			if err := s.ensureNotSelfBooked(ctx, tx, entry, exc.ExceptionDate, entry.TimeSlotID, exc.ExceptionDate); err != nil {
				return err
			}
		}
		if err := s.repo.Delete(ctx, tx, id); err != nil {
			return notFoundOr(err, "exception not found", "failed to delete exception")
		}
		removed = exc
		return nil
	})
	if err != nil {
		return txError(err, "failed to delete exception")
	}
	emitAudit(ctx, s.audit, s.logger, actorID(actor), models.AuditActionExceptionDelete, "schedule_exception", id, removed, nil)
	return nil
}

// ensureNotSelfBooked fails when the entry itself already holds date and
// slot, through its weekly occurrence or through another of its relocated
// occurrences. The occurrence originally on skip is the one being placed.
func (s *ExceptionService) ensureNotSelfBooked(ctx context.Context, tx sqlx.ExtContext, entry *models.RecurringSchedule, date time.Time, timeSlotID string, skip time.Time) error {
	date = models.TruncateDate(date)
	if !models.SameDate(date, skip) && timeSlotID == entry.TimeSlotID && entry.OccursOn(date) {
		existing, err := s.repo.FindByScheduleAndDate(ctx, tx, entry.ID, date)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exception")
		}
		if existing == nil || !vacatesSlot(*entry, existing) {
			return selfBookingError(*entry, nil)
		}
	}

	relocated, err := s.repo.ListEntryRelocationsOnto(ctx, tx, entry.ID, date, timeSlotID, skip)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check relocated occurrences")
	}
	if len(relocated) > 0 {
		return selfBookingError(*entry, relocated)
	}
	return nil
}

func selfBookingError(entry models.RecurringSchedule, relocated []models.ScheduleException) error {
	if relocated == nil {
		relocated = []models.ScheduleException{}
	}
	conflict := &models.ScheduleConflictError{
		Message: "occurrence would overlap another occurrence of the same schedule",
		Reports: []models.ConflictReport{{
			Dimension:             models.ConflictDimensionTeacher,
			Conflict:              true,
			ConflictingEntries:    []models.RecurringSchedule{entry},
			ConflictingExceptions: relocated,
		}},
	}
	return appErrors.Wrap(conflict, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, conflict.Error())
}

func exceptionFromRequest(scheduleID string, req dto.CreateExceptionRequest) (*models.ScheduleException, error) {
	date, err := parseDateField("exceptionDate", req.ExceptionDate)
	if err != nil {
		return nil, err
	}
	newDate, err := parseOptionalDate("newDate", req.NewDate)
	if err != nil {
		return nil, err
	}
	return &models.ScheduleException{
		RecurringScheduleID: scheduleID,
		ExceptionDate:       date,
		ExceptionType:       req.ExceptionType,
		NewDate:             newDate,
		NewTimeSlotID:       trimmedPtr(req.NewTimeSlotID),
		NewRoomID:           trimmedPtr(req.NewRoomID),
		SubstituteTeacherID: trimmedPtr(req.SubstituteTeacherID),
		Reason:              strings.TrimSpace(req.Reason),
		Note:                trimmedPtr(req.Note),
	}, nil
}

// validateExceptionFields enforces the type-conditional field rules.
func validateExceptionFields(exc *models.ScheduleException) error {
	if !exc.ExceptionType.Valid() {
		return validationError("unknown exception type")
	}
	if strings.TrimSpace(exc.Reason) == "" {
		return validationError("reason is required")
	}
	relocation := 0
	for _, set := range []bool{exc.NewDate != nil, exc.NewTimeSlotID != nil, exc.NewRoomID != nil} {
		if set {
			relocation++
		}
	}
	switch exc.ExceptionType {
	case models.ExceptionTypeMoved:
		if relocation != 3 {
			return validationError("moved exceptions require newDate, newTimeSlotId and newRoomId")
		}
	case models.ExceptionTypeExam:
		if relocation != 0 && relocation != 3 {
			return validationError("exam relocation requires newDate, newTimeSlotId and newRoomId together")
		}
	case models.ExceptionTypeSubstitute:
		if exc.SubstituteTeacherID == nil {
			return validationError("substitute exceptions require substituteTeacherId")
		}
		if exc.HasRelocation() {
			return validationError("substitute exceptions cannot relocate the occurrence")
		}
	case models.ExceptionTypeCancelled:
		if exc.HasRelocation() || exc.SubstituteTeacherID != nil {
			return validationError("cancelled exceptions take no placement fields")
		}
	}
	if exc.ExceptionType != models.ExceptionTypeSubstitute && exc.SubstituteTeacherID != nil {
		return validationError("substituteTeacherId is only valid for substitute exceptions")
	}
	return nil
}

// exceptionClaim returns what the overridden occurrence newly occupies.
// Cancellations claim nothing.
func exceptionClaim(entry models.RecurringSchedule, exc *models.ScheduleException) (models.SlotClaim, bool) {
	switch exc.ExceptionType {
	case models.ExceptionTypeMoved, models.ExceptionTypeExam:
		placed := effectivePlacement(entry, exc)
		if !placementChanged(entry, exc.ExceptionDate, placed) {
			return models.SlotClaim{}, false
		}
		claim := models.SlotClaim{
			DayOfWeek:         models.DayOfWeek(placed.Date),
			TimeSlotID:        placed.TimeSlotID,
			StartDate:         placed.Date,
			EndDate:           placed.Date,
			ExcludeScheduleID: entry.ID,
		}
		if placed.RoomID != "" {
			room := placed.RoomID
			claim.RoomID = &room
		}
		if timeChanged(entry, exc.ExceptionDate, placed) {
			claim.TeacherID = entry.TeacherID
		}
		return claim, true
	case models.ExceptionTypeSubstitute:
		if !freesTeacher(entry, exc) {
			return models.SlotClaim{}, false
		}
		return models.SlotClaim{
			TeacherID:         *exc.SubstituteTeacherID,
			DayOfWeek:         entry.DayOfWeek,
			TimeSlotID:        entry.TimeSlotID,
			StartDate:         exc.ExceptionDate,
			EndDate:           exc.ExceptionDate,
			ExcludeScheduleID: entry.ID,
		}, true
	}
	return models.SlotClaim{}, false
}
