package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uniroom-api/internal/dto"
	"github.com/noah-isme/uniroom-api/internal/models"
	appErrors "github.com/noah-isme/uniroom-api/pkg/errors"
)

var teacherT1 = models.TeacherActor{ID: "user-t1", TeacherID: "T1"}

func oneOffRoomRequest() dto.SubmitRoomRequest {
	return dto.SubmitRoomRequest{
		RequestType:     models.RequestTypeRoom,
		ClassScheduleID: strPtr("E"),
		RequestDate:     "2024-10-08",
		TargetRoomID:    strPtr("R102"),
		Reason:          "need a bigger board",
	}
}

func TestRoomRequestSubmit(t *testing.T) {
	f := newFixture(day("2024-10-01"), entryE())

	req, err := f.requestSvc.Submit(context.Background(), oneOffRoomRequest(), teacherT1)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, req.Status)
	assert.Equal(t, "user-t1", req.RequesterID)
	assert.Equal(t, []string{models.AuditActionRequestSubmit}, f.audit.actions())
}

func TestRoomRequestSubmitRules(t *testing.T) {
	f := newFixture(day("2024-10-01"), entryE())
	ctx := context.Background()

	other := models.TeacherActor{ID: "user-t2", TeacherID: "T2"}
	_, err := f.requestSvc.Submit(ctx, oneOffRoomRequest(), other)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	_, err = f.requestSvc.Submit(ctx, oneOffRoomRequest(), models.StudentActor{ID: "s1"})
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	notOccurrence := oneOffRoomRequest()
	notOccurrence.RequestDate = "2024-10-09"
	_, err = f.requestSvc.Submit(ctx, notOccurrence, teacherT1)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	noTarget := oneOffRoomRequest()
	noTarget.TargetRoomID = nil
	_, err = f.requestSvc.Submit(ctx, noTarget, teacherT1)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	bare := oneOffRoomRequest()
	bare.ClassScheduleID = nil
	_, err = f.requestSvc.Submit(ctx, bare, teacherT1)
	assert.True(t, errors.Is(err, appErrors.ErrValidation), "bare requests need a slot")

	change := dto.SubmitRoomRequest{
		RequestType: models.RequestTypeScheduleChange, ClassScheduleID: strPtr("E"),
		RequestDate: "2024-10-08", Reason: "clash", Permanent: true, MovedToTimeSlotID: strPtr("S2"),
	}
	_, err = f.requestSvc.Submit(ctx, change, teacherT1)
	assert.True(t, errors.Is(err, appErrors.ErrValidation), "permanent change needs a weekday")

	excType := models.ExceptionTypeSubstitute
	exception := dto.SubmitRoomRequest{
		RequestType: models.RequestTypeException, ClassScheduleID: strPtr("E"),
		RequestDate: "2024-10-08", Reason: "conference", ExceptionType: &excType,
	}
	_, err = f.requestSvc.Submit(ctx, exception, teacherT1)
	assert.True(t, errors.Is(err, appErrors.ErrValidation), "substitute needs a teacher")

	unknownRoom := oneOffRoomRequest()
	unknownRoom.TargetRoomID = strPtr("R999")
	_, err = f.requestSvc.Submit(ctx, unknownRoom, teacherT1)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	assert.Empty(t, f.requests.items)
}

func TestRoomRequestApproveOneOffCreatesMovedException(t *testing.T) {
	f := newFixture(day("2024-10-01"), entryE())
	ctx := context.Background()
	req, err := f.requestSvc.Submit(ctx, oneOffRoomRequest(), teacherT1)
	require.NoError(t, err)

	result, err := f.requestSvc.Approve(ctx, req.ID, admin, "ok")
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusApproved, result.Request.Status)
	assert.Equal(t, "admin-1", *result.Request.ApprovedBy)
	require.NotNil(t, result.ScheduleException)
	assert.Nil(t, result.RecurringScheduleUpdate)
	assert.Equal(t, models.ExceptionTypeMoved, result.ScheduleException.ExceptionType)
	assert.Equal(t, "R102", *result.ScheduleException.NewRoomID)

	occ, err := f.occSvc.Resolve(ctx, "E", day("2024-10-08"))
	require.NoError(t, err)
	assert.Equal(t, "R102", *occ.RoomID)
	assert.Equal(t, day("2024-10-08"), occ.Date)

	_, err = f.requestSvc.Approve(ctx, req.ID, admin, "")
	assert.True(t, errors.Is(err, appErrors.ErrInvalidState))
	_, err = f.requestSvc.Reject(ctx, req.ID, admin, "")
	assert.True(t, errors.Is(err, appErrors.ErrInvalidState))
}

func TestRoomRequestApproveConflictLeavesRequestPending(t *testing.T) {
	blocker := entryE()
	blocker.ID = "B"
	blocker.ClassID = "C2"
	blocker.TeacherID = "T2"
	blocker.RoomID = strPtr("R102")
	f := newFixture(day("2024-10-01"), entryE(), blocker)
	ctx := context.Background()

	req, err := f.requestSvc.Submit(ctx, oneOffRoomRequest(), teacherT1)
	require.NoError(t, err)

	_, err = f.requestSvc.Approve(ctx, req.ID, admin, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
	require.NotNil(t, models.AsScheduleConflict(err))

	stored, err := f.requestSvc.Get(ctx, req.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, stored.Status)
	assert.Nil(t, stored.ApprovedBy)
	assert.Empty(t, f.exceptions.items)
}

func TestRoomRequestApprovePermanentRoomChange(t *testing.T) {
	f := newFixture(day("2024-10-01"), entryE())
	ctx := context.Background()
	submit := oneOffRoomRequest()
	submit.Permanent = true

	req, err := f.requestSvc.Submit(ctx, submit, teacherT1)
	require.NoError(t, err)
	result, err := f.requestSvc.Approve(ctx, req.ID, admin, "")
	require.NoError(t, err)
	require.NotNil(t, result.RecurringScheduleUpdate)
	assert.Equal(t, "R102", *result.RecurringScheduleUpdate.RoomID)
	assert.Equal(t, "R102", *f.schedules.items["E"].RoomID)
}

func TestRoomRequestApprovePermanentChecksFromToday(t *testing.T) {
	// A September-only booking of R102 ends before "today" and must not block.
	past := entryE()
	past.ID = "P"
	past.ClassID = "C2"
	past.TeacherID = "T2"
	past.RoomID = strPtr("R102")
	past.EndDate = day("2024-09-30")
	f := newFixture(day("2024-10-01"), entryE(), past)
	ctx := context.Background()

	submit := oneOffRoomRequest()
	submit.Permanent = true
	req, err := f.requestSvc.Submit(ctx, submit, teacherT1)
	require.NoError(t, err)
	_, err = f.requestSvc.Approve(ctx, req.ID, admin, "")
	assert.NoError(t, err)
}

func TestRoomRequestApprovePermanentScheduleChange(t *testing.T) {
	f := newFixture(day("2024-10-01"), entryE())
	ctx := context.Background()
	req, err := f.requestSvc.Submit(ctx, dto.SubmitRoomRequest{
		RequestType: models.RequestTypeScheduleChange, ClassScheduleID: strPtr("E"),
		RequestDate: "2024-10-08", Reason: "lab clash", Permanent: true,
		MovedToDayOfWeek: intPtr(5), MovedToTimeSlotID: strPtr("S2"),
	}, teacherT1)
	require.NoError(t, err)

	result, err := f.requestSvc.Approve(ctx, req.ID, admin, "")
	require.NoError(t, err)
	updated := f.schedules.items["E"]
	assert.Equal(t, 5, updated.DayOfWeek)
	assert.Equal(t, "S2", updated.TimeSlotID)
	assert.Equal(t, "R101", *updated.RoomID)
	assert.Equal(t, updated.ID, result.RecurringScheduleUpdate.ID)
}

func TestRoomRequestApproveExceptionRequest(t *testing.T) {
	f := newFixture(day("2024-10-01"), entryE())
	ctx := context.Background()
	excType := models.ExceptionTypeCancelled
	req, err := f.requestSvc.Submit(ctx, dto.SubmitRoomRequest{
		RequestType: models.RequestTypeException, ClassScheduleID: strPtr("E"),
		RequestDate: "2024-10-15", Reason: "field trip", ExceptionType: &excType,
	}, teacherT1)
	require.NoError(t, err)

	result, err := f.requestSvc.Approve(ctx, req.ID, admin, "")
	require.NoError(t, err)
	assert.Equal(t, models.ExceptionTypeCancelled, result.ScheduleException.ExceptionType)

	occ, err := f.occSvc.Resolve(ctx, "E", day("2024-10-15"))
	require.NoError(t, err)
	assert.False(t, occ.Occurring)
}

func TestRoomRequestApproveBareRequestIsAdvisory(t *testing.T) {
	f := newFixture(day("2024-10-01"), entryE())
	ctx := context.Background()
	bare := dto.SubmitRoomRequest{
		RequestType: models.RequestTypeRoom, RequestDate: "2024-10-08", TimeSlotID: strPtr("S1"),
		TargetRoomID: strPtr("R101"), Reason: "review session",
	}
	req, err := f.requestSvc.Submit(ctx, bare, teacherT1)
	require.NoError(t, err)
	_, err = f.requestSvc.Approve(ctx, req.ID, admin, "")
	assert.True(t, errors.Is(err, appErrors.ErrConflict), "R101 holds E on that Tuesday")

	bare.TargetRoomID = strPtr("R103")
	req, err = f.requestSvc.Submit(ctx, bare, teacherT1)
	require.NoError(t, err)
	result, err := f.requestSvc.Approve(ctx, req.ID, admin, "")
	require.NoError(t, err)
	assert.Nil(t, result.ScheduleException)
	assert.Nil(t, result.RecurringScheduleUpdate)
}

func TestRoomRequestReject(t *testing.T) {
	f := newFixture(day("2024-10-01"), entryE())
	ctx := context.Background()
	req, err := f.requestSvc.Submit(ctx, oneOffRoomRequest(), teacherT1)
	require.NoError(t, err)

	_, err = f.requestSvc.Reject(ctx, req.ID, teacherT1, "")
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	rejected, err := f.requestSvc.Reject(ctx, req.ID, admin, "room unavailable")
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusRejected, rejected.Status)
	assert.Equal(t, "admin-1", *rejected.ApprovedBy)
	assert.Equal(t, "room unavailable", *rejected.Note)
	assert.Empty(t, f.exceptions.items)

	_, err = f.requestSvc.Approve(ctx, "missing", admin, "")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestRoomRequestListVisibility(t *testing.T) {
	f := newFixture(day("2024-10-01"), entryE())
	ctx := context.Background()
	mine, err := f.requestSvc.Submit(ctx, oneOffRoomRequest(), teacherT1)
	require.NoError(t, err)
	_, err = f.requestSvc.Submit(ctx, oneOffRoomRequest(), admin)
	require.NoError(t, err)

	list, pagination, err := f.requestSvc.List(ctx, dto.RoomRequestQuery{}, teacherT1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)
	assert.Equal(t, 1, pagination.TotalCount)

	list, _, err = f.requestSvc.List(ctx, dto.RoomRequestQuery{}, admin)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, _, err = f.requestSvc.List(ctx, dto.RoomRequestQuery{}, models.StudentActor{ID: "s"})
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	_, err = f.requestSvc.Get(ctx, list[1].ID, models.TeacherActor{ID: "user-t2", TeacherID: "T2"})
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}

func TestRoomRequestExpireStale(t *testing.T) {
	f := newFixture(day("2024-10-20"), entryE())
	ctx := context.Background()
	old, err := f.requestSvc.Submit(ctx, oneOffRoomRequest(), teacherT1)
	require.NoError(t, err)
	future := oneOffRoomRequest()
	future.RequestDate = "2024-10-22"
	upcoming, err := f.requestSvc.Submit(ctx, future, teacherT1)
	require.NoError(t, err)

	calls := f.uow.calls
	n, err := f.requestSvc.ExpireStale(ctx, day("2024-10-20"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, calls+1, f.uow.calls)
	assert.Equal(t, models.RequestStatusRejected, f.requests.items[old.ID].Status)
	assert.Equal(t, sweeperActor, *f.requests.items[old.ID].ApprovedBy)
	assert.Equal(t, models.RequestStatusPending, f.requests.items[upcoming.ID].Status)
}

// staleListStore serves a fixed stale listing so the sweeper can race a
// reviewer.
type staleListStore struct {
	*requestStoreStub
	stale []models.RoomRequest
}

func (s staleListStore) ListStalePending(ctx context.Context, asOf time.Time) ([]models.RoomRequest, error) {
	return s.stale, nil
}

func TestRoomRequestExpireStaleSkipsDecided(t *testing.T) {
	f := newFixture(day("2024-10-20"), entryE())
	ctx := context.Background()
	req, err := f.requestSvc.Submit(ctx, oneOffRoomRequest(), teacherT1)
	require.NoError(t, err)

	listed := f.requests.items[req.ID]
	decided := listed
	decided.Status = models.RequestStatusApproved
	f.requests.items[req.ID] = decided

	store := staleListStore{requestStoreStub: f.requests, stale: []models.RoomRequest{listed}}
	svc := NewRoomRequestService(store, f.schedules, f.excSvc, f.refs, f.conflicts, f.uow, f.audit, nil, nil,
		WithRoomRequestClock(func() time.Time { return day("2024-10-20") }))

	n, err := svc.ExpireStale(ctx, day("2024-10-20"))
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, models.RequestStatusApproved, f.requests.items[req.ID].Status)
	assert.NotContains(t, f.audit.actions(), models.AuditActionRequestExpire)
}
