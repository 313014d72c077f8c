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
	appErrors "github.com/noah-isme/uniroom-api/pkg/errors"
)

type roomRequestStore interface {
	Create(ctx context.Context, req *models.RoomRequest) error
	FindByID(ctx context.Context, id string) (*models.RoomRequest, error)
	LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.RoomRequest, error)
	List(ctx context.Context, filter models.RoomRequestFilter) ([]models.RoomRequest, int, error)
	UpdateDecision(ctx context.Context, exec sqlx.ExtContext, decision models.RequestDecision) error
	ListStalePending(ctx context.Context, asOf time.Time) ([]models.RoomRequest, error)
}

type requestScheduleStore interface {
	FindByID(ctx context.Context, id string) (*models.RecurringSchedule, error)
	LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.RecurringSchedule, error)
	UpdateAssignment(ctx context.Context, exec sqlx.ExtContext, schedule *models.RecurringSchedule) error
}

const (
	decisionApproved = "approved"
	decisionRejected = "rejected"
	decisionConflict = "conflict"
	sweeperActor     = "system"
)

var errRequestDecided = errors.New("room request already decided")

// RoomRequestOption customises the request service.
type RoomRequestOption func(*RoomRequestService)

// WithRoomRequestClock overrides the clock used for decisions and to pick
// the start of permanent change windows.
func WithRoomRequestClock(now func() time.Time) RoomRequestOption {
	return func(s *RoomRequestService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRoomRequestMetrics records decision counters.
func WithRoomRequestMetrics(metrics *MetricsService) RoomRequestOption {
	return func(s *RoomRequestService) {
		s.metrics = metrics
	}
}

// RoomRequestService runs the teacher request workflow: submit, then a
// reviewer approves or rejects. Approval applies the request's effect and
// the decision in one transaction.
type RoomRequestService struct {
	repo       roomRequestStore
	schedules  requestScheduleStore
	exceptions *ExceptionService
	refs       *ReferenceService
	conflicts  *ConflictService
	uow        unitOfWork
	audit      auditLogger
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// NewRoomRequestService constructs the workflow service.
func NewRoomRequestService(repo roomRequestStore, schedules requestScheduleStore, exceptions *ExceptionService, refs *ReferenceService, conflicts *ConflictService, uow unitOfWork, audit auditLogger, validate *validator.Validate, logger *zap.Logger, opts ...RoomRequestOption) *RoomRequestService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &RoomRequestService{
		repo:       repo,
		schedules:  schedules,
		exceptions: exceptions,
		refs:       refs,
		conflicts:  conflicts,
		uow:        uow,
		audit:      audit,
		validator:  validate,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit files a pending request. Teachers may only target their own entries.
func (s *RoomRequestService) Submit(ctx context.Context, req dto.SubmitRoomRequest, actor models.Actor) (*models.RoomRequest, error) {
	if actor == nil || !actor.Can(models.CapabilitySubmitRequest) {
		return nil, appErrors.ErrForbidden
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room request payload")
	}
	request, err := requestFromPayload(req)
	if err != nil {
		return nil, err
	}
	request.RequesterID = actor.UserID()
	if err := validateRequestFields(request); err != nil {
		return nil, err
	}

	if request.ClassScheduleID != nil {
		entry, err := s.schedules.FindByID(ctx, *request.ClassScheduleID)
		if err != nil {
			return nil, notFoundOr(err, "schedule not found", "failed to load schedule")
		}
		if teacher, ok := actor.(models.TeacherActor); ok && entry.TeacherID != teacher.TeacherID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "schedule belongs to another teacher")
		}
		if !entry.IsActive() {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "schedule is not active")
		}
		if !request.Permanent && !entry.OccursOn(request.RequestDate) {
			return nil, validationError("requestDate is not an occurrence of the schedule")
		}
	}
	if err := s.refs.Check(ctx, ScheduleRefs{
		TeacherIDs:  []string{stringValue(request.SubstituteTeacherID)},
		TimeSlotIDs: []string{stringValue(request.TimeSlotID), stringValue(request.MovedToTimeSlotID)},
		RoomIDs:     []string{stringValue(request.TargetRoomID)},
	}); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit room request")
	}
	emitAudit(ctx, s.audit, s.logger, actor.UserID(), models.AuditActionRequestSubmit, "room_request", request.ID, nil, request)
	return request, nil
}

// List returns requests visible to actor. Teachers only see their own.
func (s *RoomRequestService) List(ctx context.Context, query dto.RoomRequestQuery, actor models.Actor) ([]models.RoomRequest, *models.Pagination, error) {
	filter := models.RoomRequestFilter{
		Status:          models.RequestStatus(strings.ToLower(query.Status)),
		RequestType:     models.RequestType(strings.ToLower(query.RequestType)),
		ClassScheduleID: query.ClassScheduleID,
		Page:            query.Page,
		PageSize:        query.PageSize,
	}
	switch actor.(type) {
	case models.AdminActor:
	case models.TeacherActor:
		filter.RequesterID = actor.UserID()
	default:
		return nil, nil, appErrors.ErrForbidden
	}
	list, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list room requests")
	}
	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	return list, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one request visible to actor.
func (s *RoomRequestService) Get(ctx context.Context, id string, actor models.Actor) (*models.RoomRequest, error) {
	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "room request not found", "failed to load room request")
	}
	switch actor.(type) {
	case models.AdminActor:
	case models.TeacherActor:
		if request.RequesterID != actor.UserID() {
			return nil, appErrors.ErrForbidden
		}
	default:
		return nil, appErrors.ErrForbidden
	}
	return request, nil
}

// Approve applies a pending request and marks it approved atomically. On a
// conflict nothing is written and the request stays pending.
func (s *RoomRequestService) Approve(ctx context.Context, id string, reviewer models.Actor, note string) (*models.ApprovalResult, error) {
	if reviewer == nil || !reviewer.Can(models.CapabilityReviewRequest) {
		return nil, appErrors.ErrForbidden
	}
	var result *models.ApprovalResult
	err := s.uow.Do(ctx, func(ctx context.Context, tx sqlx.ExtContext) error {
		request, err := s.lockPending(ctx, tx, id)
		if err != nil {
			return err
		}
		result = &models.ApprovalResult{}
		if err := s.applyEffect(ctx, tx, request, reviewer.UserID(), result); err != nil {
			return err
		}
		decidedAt := s.now().UTC()
		decision := models.RequestDecision{
			ID:        request.ID,
			Status:    models.RequestStatusApproved,
			DecidedBy: reviewer.UserID(),
			DecidedAt: decidedAt,
			Note:      optionalString(note),
		}
		if err := s.repo.UpdateDecision(ctx, tx, decision); err != nil {
			return decisionError(err)
		}
		request.Status = models.RequestStatusApproved
		request.ApprovedBy = &decision.DecidedBy
		request.ApprovedAt = &decidedAt
		if decision.Note != nil {
			request.Note = decision.Note
		}
		result.Request = *request
		return nil
	})
	if err != nil {
		if models.AsScheduleConflict(err) != nil {
			s.metrics.RecordRequestDecision(decisionConflict)
		}
		return nil, txError(err, "failed to approve room request")
	}
	s.metrics.RecordRequestDecision(decisionApproved)
	emitAudit(ctx, s.audit, s.logger, reviewer.UserID(), models.AuditActionRequestApprove, "room_request", id, nil, result)
	s.logger.Info("room request approved", zap.String("request_id", id), zap.String("reviewer", reviewer.UserID()))
	return result, nil
}

// Reject closes a pending request without side effects.
func (s *RoomRequestService) Reject(ctx context.Context, id string, reviewer models.Actor, note string) (*models.RoomRequest, error) {
	if reviewer == nil || !reviewer.Can(models.CapabilityReviewRequest) {
		return nil, appErrors.ErrForbidden
	}
	var rejected *models.RoomRequest
	err := s.uow.Do(ctx, func(ctx context.Context, tx sqlx.ExtContext) error {
		request, err := s.lockPending(ctx, tx, id)
		if err != nil {
			return err
		}
		decidedAt := s.now().UTC()
		decision := models.RequestDecision{
			ID:        request.ID,
			Status:    models.RequestStatusRejected,
			DecidedBy: reviewer.UserID(),
			DecidedAt: decidedAt,
			Note:      optionalString(note),
		}
		if err := s.repo.UpdateDecision(ctx, tx, decision); err != nil {
			return decisionError(err)
		}
		request.Status = models.RequestStatusRejected
		request.ApprovedBy = &decision.DecidedBy
		request.ApprovedAt = &decidedAt
		if decision.Note != nil {
			request.Note = decision.Note
		}
		rejected = request
		return nil
	})
	if err != nil {
		return nil, txError(err, "failed to reject room request")
	}
	s.metrics.RecordRequestDecision(decisionRejected)
	emitAudit(ctx, s.audit, s.logger, reviewer.UserID(), models.AuditActionRequestReject, "room_request", id, nil, rejected)
	return rejected, nil
}

// ExpireStale rejects pending requests whose date is before asOf and
// returns how many were closed. Each rejection runs in its own unit of work;
// requests decided in the meantime are skipped.
func (s *RoomRequestService) ExpireStale(ctx context.Context, asOf time.Time) (int, error) {
	stale, err := s.repo.ListStalePending(ctx, models.TruncateDate(asOf))
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list stale requests")
	}
	note := "expired: request date has passed"
	expired := 0
	for _, candidate := range stale {
		id := candidate.ID
		err := s.uow.Do(ctx, func(ctx context.Context, tx sqlx.ExtContext) error {
			request, err := s.repo.LockByID(ctx, tx, id)
			if err != nil {
				return err
			}
			if request.IsTerminal() {
				return errRequestDecided
			}
			return s.repo.UpdateDecision(ctx, tx, models.RequestDecision{
				ID:        id,
				Status:    models.RequestStatusRejected,
				DecidedBy: sweeperActor,
				DecidedAt: s.now().UTC(),
				Note:      &note,
			})
		})
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, errRequestDecided) {
			continue
		}
		if err != nil {
			s.logger.Warn("failed to expire room request", zap.String("request_id", id), zap.Error(err))
			continue
		}
		expired++
		emitAudit(ctx, s.audit, s.logger, "", models.AuditActionRequestExpire, "room_request", id, nil, nil)
	}
	s.metrics.RecordExpiredRequests(expired)
	return expired, nil
}

func (s *RoomRequestService) lockPending(ctx context.Context, tx sqlx.ExtContext, id string) (*models.RoomRequest, error) {
	request, err := s.repo.LockByID(ctx, tx, id)
	if err != nil {
		return nil, notFoundOr(err, "room request not found", "failed to load room request")
	}
	if request.IsTerminal() {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "room request already "+string(request.Status))
	}
	return request, nil
}

func decisionError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrInvalidState, "room request is no longer pending")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record decision")
}

// applyEffect performs the write a request asks for inside tx.
func (s *RoomRequestService) applyEffect(ctx context.Context, tx sqlx.ExtContext, request *models.RoomRequest, reviewerID string, result *models.ApprovalResult) error {
	if request.ClassScheduleID == nil {
		return s.conflicts.EnsureAvailable(ctx, tx, models.SlotClaim{
			RoomID:     request.TargetRoomID,
			DayOfWeek:  models.DayOfWeek(request.RequestDate),
			TimeSlotID: stringValue(request.TimeSlotID),
			StartDate:  request.RequestDate,
			EndDate:    request.RequestDate,
		})
	}

	entry, err := s.schedules.LockByID(ctx, tx, *request.ClassScheduleID)
	if err != nil {
		return notFoundOr(err, "schedule not found", "failed to load schedule")
	}
	if !entry.IsActive() {
		return appErrors.Clone(appErrors.ErrInvalidState, "schedule is not active")
	}

	if request.Permanent {
		updated, err := s.applyPermanent(ctx, tx, request, *entry)
		if err != nil {
			return err
		}
		result.RecurringScheduleUpdate = updated
		return nil
	}

	exc := oneOffException(request, *entry)
	exc.CreatedBy = optionalString(reviewerID)
	if err := s.exceptions.Apply(ctx, tx, entry, exc, true); err != nil {
		return err
	}
	result.ScheduleException = exc
	return nil
}

// applyPermanent rewrites the weekly pattern. The new placement is checked
// from today, or the entry start if later, to the entry end.
func (s *RoomRequestService) applyPermanent(ctx context.Context, tx sqlx.ExtContext, request *models.RoomRequest, entry models.RecurringSchedule) (*models.RecurringSchedule, error) {
	updated := entry
	switch request.RequestType {
	case models.RequestTypeRoom:
		updated.RoomID = request.TargetRoomID
	case models.RequestTypeScheduleChange:
		updated.DayOfWeek = *request.MovedToDayOfWeek
		updated.TimeSlotID = *request.MovedToTimeSlotID
		if request.TargetRoomID != nil {
			updated.RoomID = request.TargetRoomID
		}
	default:
		return nil, validationError("exception requests cannot be permanent")
	}

	from := models.MaxDate(models.TruncateDate(entry.StartDate), models.TruncateDate(s.now()))
	to := models.TruncateDate(entry.EndDate)
	if from.After(to) {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "schedule validity window has ended")
	}
	claim := models.SlotClaim{
		RoomID:            updated.RoomID,
		DayOfWeek:         updated.DayOfWeek,
		TimeSlotID:        updated.TimeSlotID,
		StartDate:         from,
		EndDate:           to,
		ExcludeScheduleID: entry.ID,
	}
	if updated.DayOfWeek != entry.DayOfWeek || updated.TimeSlotID != entry.TimeSlotID {
		claim.TeacherID = entry.TeacherID
	}
	if err := s.conflicts.EnsureAvailable(ctx, tx, claim); err != nil {
		return nil, err
	}
	if err := s.schedules.UpdateAssignment(ctx, tx, &updated); err != nil {
		return nil, notFoundOr(err, "schedule not found", "failed to update schedule")
	}
	return &updated, nil
}

// oneOffException translates a one-off request into the exception it creates.
func oneOffException(request *models.RoomRequest, entry models.RecurringSchedule) *models.ScheduleException {
	exc := &models.ScheduleException{
		RecurringScheduleID: entry.ID,
		ExceptionDate:       request.RequestDate,
		Reason:              request.Reason,
		Note:                request.Note,
	}
	switch request.RequestType {
	case models.RequestTypeRoom:
		date := request.RequestDate
		slot := entry.TimeSlotID
		exc.ExceptionType = models.ExceptionTypeMoved
		exc.NewDate = &date
		exc.NewTimeSlotID = &slot
		exc.NewRoomID = request.TargetRoomID
	case models.RequestTypeScheduleChange:
		exc.ExceptionType = models.ExceptionTypeMoved
		exc.NewDate = request.MovedToDate
		exc.NewTimeSlotID = request.MovedToTimeSlotID
		exc.NewRoomID = request.TargetRoomID
		if exc.NewRoomID == nil {
			exc.NewRoomID = entry.RoomID
		}
	case models.RequestTypeException:
		exc.ExceptionType = *request.ExceptionType
		exc.NewDate = request.MovedToDate
		exc.NewTimeSlotID = request.MovedToTimeSlotID
		exc.NewRoomID = request.TargetRoomID
		exc.SubstituteTeacherID = request.SubstituteTeacherID
	}
	return exc
}

func requestFromPayload(req dto.SubmitRoomRequest) (*models.RoomRequest, error) {
	date, err := parseDateField("requestDate", req.RequestDate)
	if err != nil {
		return nil, err
	}
	movedTo, err := parseOptionalDate("movedToDate", req.MovedToDate)
	if err != nil {
		return nil, err
	}
	return &models.RoomRequest{
		RequestType:         req.RequestType,
		ClassScheduleID:     trimmedPtr(req.ClassScheduleID),
		RequestDate:         date,
		TimeSlotID:          trimmedPtr(req.TimeSlotID),
		Reason:              strings.TrimSpace(req.Reason),
		Status:              models.RequestStatusPending,
		Permanent:           req.Permanent,
		MovedToDate:         movedTo,
		MovedToTimeSlotID:   trimmedPtr(req.MovedToTimeSlotID),
		MovedToDayOfWeek:    req.MovedToDayOfWeek,
		TargetRoomID:        trimmedPtr(req.TargetRoomID),
		ExceptionType:       req.ExceptionType,
		SubstituteTeacherID: trimmedPtr(req.SubstituteTeacherID),
	}, nil
}

// validateRequestFields enforces which fields each request type needs.
func validateRequestFields(r *models.RoomRequest) error {
	if r.Reason == "" {
		return validationError("reason is required")
	}
	switch r.RequestType {
	case models.RequestTypeRoom:
		if r.TargetRoomID == nil {
			return validationError("room requests require targetRoomId")
		}
		if r.ClassScheduleID == nil {
			if r.TimeSlotID == nil {
				return validationError("room requests without a schedule require timeSlotId")
			}
			if r.Permanent {
				return validationError("room requests without a schedule cannot be permanent")
			}
		}
	case models.RequestTypeScheduleChange:
		if r.ClassScheduleID == nil {
			return validationError("schedule changes require classScheduleId")
		}
		if r.MovedToTimeSlotID == nil {
			return validationError("schedule changes require movedToTimeSlotId")
		}
		if r.Permanent && r.MovedToDayOfWeek == nil {
			return validationError("permanent schedule changes require movedToDayOfWeek")
		}
		if !r.Permanent && r.MovedToDate == nil {
			return validationError("one-off schedule changes require movedToDate")
		}
	case models.RequestTypeException:
		if r.ClassScheduleID == nil {
			return validationError("exception requests require classScheduleId")
		}
		if r.Permanent {
			return validationError("exception requests cannot be permanent")
		}
		if r.ExceptionType == nil || !r.ExceptionType.Valid() {
			return validationError("exception requests require a valid exceptionType")
		}
		candidate := oneOffException(r, models.RecurringSchedule{})
		return validateExceptionFields(candidate)
	default:
		return validationError("unknown request type")
	}
	return nil
}
