package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uniroom-api/internal/dto"
	"github.com/noah-isme/uniroom-api/internal/middleware"
	"github.com/noah-isme/uniroom-api/internal/models"
	appErrors "github.com/noah-isme/uniroom-api/pkg/errors"
)

type scheduleServiceMock struct {
	createResp *models.RecurringSchedule
	createErr  error
	lastCreate dto.CreateScheduleRequest
	lastActor  models.Actor
	lastQuery  dto.ScheduleQuery
}

func (m *scheduleServiceMock) List(ctx context.Context, query dto.ScheduleQuery) ([]models.RecurringSchedule, *models.Pagination, error) {
	m.lastQuery = query
	return []models.RecurringSchedule{{ID: "E"}}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, nil
}

func (m *scheduleServiceMock) Get(ctx context.Context, id string) (*models.RecurringSchedule, error) {
	if id != "E" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
	}
	return &models.RecurringSchedule{ID: id}, nil
}

func (m *scheduleServiceMock) Create(ctx context.Context, req dto.CreateScheduleRequest, actor models.Actor) (*models.RecurringSchedule, error) {
	m.lastCreate = req
	m.lastActor = actor
	return m.createResp, m.createErr
}

func (m *scheduleServiceMock) Cancel(ctx context.Context, id string, actor models.Actor) (*models.RecurringSchedule, error) {
	return &models.RecurringSchedule{ID: id, Status: models.ScheduleStatusCancelled}, nil
}

func newTestContext(method, target string, body []byte, actor models.Actor) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	if actor != nil {
		c.Set(middleware.ContextActorKey, actor)
	}
	return c, w
}

type envelope struct {
	Data  json.RawMessage  `json:"data"`
	Error *appErrors.Error `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestScheduleHandlerCreate(t *testing.T) {
	mockSvc := &scheduleServiceMock{createResp: &models.RecurringSchedule{ID: "sched-1"}}
	h := NewScheduleHandler(mockSvc)

	body := []byte(`{"classId":"C1","teacherId":"T1","roomId":"R101","dayOfWeek":3,"timeSlotId":"S1","startDate":"2024-09-01","endDate":"2024-12-15"}`)
	c, w := newTestContext(http.MethodPost, "/schedules", body, models.AdminActor{ID: "admin-1"})
	h.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 3, mockSvc.lastCreate.DayOfWeek)
	assert.Equal(t, "R101", *mockSvc.lastCreate.RoomID)
	assert.Equal(t, "admin-1", mockSvc.lastActor.UserID())
}

func TestScheduleHandlerCreateConflict(t *testing.T) {
	conflict := &models.ScheduleConflictError{Reports: []models.ConflictReport{{
		Dimension:          models.ConflictDimensionRoom,
		Conflict:           true,
		ConflictingEntries: []models.RecurringSchedule{{ID: "E"}},
	}}}
	mockSvc := &scheduleServiceMock{createErr: appErrors.Wrap(conflict, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, conflict.Error())}
	h := NewScheduleHandler(mockSvc)

	c, w := newTestContext(http.MethodPost, "/schedules", []byte(`{"classId":"C2"}`), models.AdminActor{ID: "admin-1"})
	h.Create(c)

	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"conflictingEntries"`)
	assert.Equal(t, appErrors.ErrConflict.Code, decodeEnvelope(t, w).Error.Code)
}

func TestScheduleHandlerCreateRequiresActor(t *testing.T) {
	h := NewScheduleHandler(&scheduleServiceMock{})
	c, w := newTestContext(http.MethodPost, "/schedules", []byte(`{}`), nil)
	h.Create(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestScheduleHandlerCreateInvalidBody(t *testing.T) {
	h := NewScheduleHandler(&scheduleServiceMock{})
	c, w := newTestContext(http.MethodPost, "/schedules", []byte(`{"classId":`), models.AdminActor{ID: "admin-1"})
	h.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleHandlerListAndGet(t *testing.T) {
	mockSvc := &scheduleServiceMock{}
	h := NewScheduleHandler(mockSvc)

	c, w := newTestContext(http.MethodGet, "/schedules?classId=C1&dayOfWeek=3&limit=5", nil, nil)
	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "C1", mockSvc.lastQuery.ClassID)
	assert.Equal(t, 3, mockSvc.lastQuery.DayOfWeek)
	assert.Equal(t, 5, mockSvc.lastQuery.PageSize)

	c, w = newTestContext(http.MethodGet, "/schedules/missing", nil, nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	h.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
