package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uniroom-api/internal/dto"
	"github.com/noah-isme/uniroom-api/internal/models"
	appErrors "github.com/noah-isme/uniroom-api/pkg/errors"
)

type roomRequestServiceMock struct {
	lastSubmit dto.SubmitRoomRequest
	lastQuery  dto.RoomRequestQuery
	lastNote   string
	lastID     string
	approveErr error
}

func (m *roomRequestServiceMock) Submit(ctx context.Context, req dto.SubmitRoomRequest, actor models.Actor) (*models.RoomRequest, error) {
	m.lastSubmit = req
	return &models.RoomRequest{ID: "req-1", RequesterID: actor.UserID(), Status: models.RequestStatusPending}, nil
}

func (m *roomRequestServiceMock) List(ctx context.Context, query dto.RoomRequestQuery, actor models.Actor) ([]models.RoomRequest, *models.Pagination, error) {
	m.lastQuery = query
	return []models.RoomRequest{}, &models.Pagination{Page: 1, PageSize: 20}, nil
}

func (m *roomRequestServiceMock) Get(ctx context.Context, id string, actor models.Actor) (*models.RoomRequest, error) {
	return nil, appErrors.Clone(appErrors.ErrForbidden, "not your request")
}

func (m *roomRequestServiceMock) Approve(ctx context.Context, id string, reviewer models.Actor, note string) (*models.ApprovalResult, error) {
	m.lastID = id
	m.lastNote = note
	if m.approveErr != nil {
		return nil, m.approveErr
	}
	return &models.ApprovalResult{Request: models.RoomRequest{ID: id, Status: models.RequestStatusApproved}}, nil
}

func (m *roomRequestServiceMock) Reject(ctx context.Context, id string, reviewer models.Actor, note string) (*models.RoomRequest, error) {
	m.lastID = id
	m.lastNote = note
	return &models.RoomRequest{ID: id, Status: models.RequestStatusRejected}, nil
}

var teacher = models.TeacherActor{ID: "user-t1", TeacherID: "T1"}

func TestRoomRequestHandlerSubmit(t *testing.T) {
	mockSvc := &roomRequestServiceMock{}
	h := NewRoomRequestHandler(mockSvc)

	body := []byte(`{"requestType":"room_request","classScheduleId":"E","requestDate":"2024-10-08","reason":"projector","targetRoomId":"R102"}`)
	c, w := newTestContext(http.MethodPost, "/room-requests", body, teacher)
	h.Submit(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, models.RequestTypeRoom, mockSvc.lastSubmit.RequestType)
	assert.Equal(t, "R102", *mockSvc.lastSubmit.TargetRoomID)
	assert.Contains(t, w.Body.String(), `"user-t1"`)
}

func TestRoomRequestHandlerApproveWithoutBody(t *testing.T) {
	mockSvc := &roomRequestServiceMock{}
	h := NewRoomRequestHandler(mockSvc)

	c, w := newTestContext(http.MethodPost, "/room-requests/req-1/approve", nil, models.AdminActor{ID: "admin-1"})
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}
	h.Approve(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-1", mockSvc.lastID)
	assert.Empty(t, mockSvc.lastNote)
}

func TestRoomRequestHandlerApproveTerminal(t *testing.T) {
	mockSvc := &roomRequestServiceMock{approveErr: appErrors.Clone(appErrors.ErrInvalidState, "request is already approved")}
	h := NewRoomRequestHandler(mockSvc)

	c, w := newTestContext(http.MethodPost, "/room-requests/req-1/approve", []byte(`{"note":"again"}`), models.AdminActor{ID: "admin-1"})
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}
	h.Approve(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "again", mockSvc.lastNote)
	assert.Equal(t, appErrors.ErrInvalidState.Code, decodeEnvelope(t, w).Error.Code)
}

func TestRoomRequestHandlerReject(t *testing.T) {
	mockSvc := &roomRequestServiceMock{}
	h := NewRoomRequestHandler(mockSvc)

	c, w := newTestContext(http.MethodPost, "/room-requests/req-2/reject", []byte(`{"note":"room closed"}`), models.AdminActor{ID: "admin-1"})
	c.Params = gin.Params{{Key: "id", Value: "req-2"}}
	h.Reject(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "room closed", mockSvc.lastNote)
}

func TestRoomRequestHandlerListAndGet(t *testing.T) {
	mockSvc := &roomRequestServiceMock{}
	h := NewRoomRequestHandler(mockSvc)

	c, w := newTestContext(http.MethodGet, "/room-requests?status=pending&page=2", nil, teacher)
	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pending", mockSvc.lastQuery.Status)
	assert.Equal(t, 2, mockSvc.lastQuery.Page)

	c, w = newTestContext(http.MethodGet, "/room-requests/req-9", nil, teacher)
	c.Params = gin.Params{{Key: "id", Value: "req-9"}}
	h.Get(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
