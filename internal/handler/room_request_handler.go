package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uniroom-api/internal/dto"
	"github.com/noah-isme/uniroom-api/internal/models"
	"github.com/noah-isme/uniroom-api/pkg/response"
)

type roomRequestService interface {
	Submit(ctx context.Context, req dto.SubmitRoomRequest, actor models.Actor) (*models.RoomRequest, error)
	List(ctx context.Context, query dto.RoomRequestQuery, actor models.Actor) ([]models.RoomRequest, *models.Pagination, error)
	Get(ctx context.Context, id string, actor models.Actor) (*models.RoomRequest, error)
	Approve(ctx context.Context, id string, reviewer models.Actor, note string) (*models.ApprovalResult, error)
	Reject(ctx context.Context, id string, reviewer models.Actor, note string) (*models.RoomRequest, error)
}

// RoomRequestHandler manages the teacher request workflow.
type RoomRequestHandler struct {
	service roomRequestService
}

// NewRoomRequestHandler constructs handler.
func NewRoomRequestHandler(svc roomRequestService) *RoomRequestHandler {
	return &RoomRequestHandler{service: svc}
}

// Submit godoc
// @Summary Submit room or schedule change request
// @Tags RoomRequests
// @Accept json
// @Produce json
// @Param payload body dto.SubmitRoomRequest true "Request payload"
// @Success 201 {object} response.Envelope
// @Router /room-requests [post]
func (h *RoomRequestHandler) Submit(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.SubmitRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, err)
		return
	}
	request, err := h.service.Submit(c.Request.Context(), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// List godoc
// @Summary List room requests
// @Description Teachers only see their own requests.
// @Tags RoomRequests
// @Produce json
// @Param status query string false "pending, approved or rejected"
// @Param requestType query string false "room_request, schedule_change or exception"
// @Param classScheduleId query string false "Schedule ID"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /room-requests [get]
func (h *RoomRequestHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var query dto.RoomRequestQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		invalidQuery(c, err)
		return
	}
	items, pagination, err := h.service.List(c.Request.Context(), query, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get room request
// @Tags RoomRequests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /room-requests/{id} [get]
func (h *RoomRequestHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	request, err := h.service.Get(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Approve godoc
// @Summary Approve room request
// @Description Applies the request effect after a conflict check. A conflict leaves the request pending.
// @Tags RoomRequests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.ReviewRoomRequest false "Reviewer note"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /room-requests/{id}/approve [post]
func (h *RoomRequestHandler) Approve(c *gin.Context) {
	actor, note, ok := bindReview(c)
	if !ok {
		return
	}
	result, err := h.service.Approve(c.Request.Context(), c.Param("id"), actor, note)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Reject godoc
// @Summary Reject room request
// @Tags RoomRequests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.ReviewRoomRequest false "Reviewer note"
// @Success 200 {object} response.Envelope
// @Router /room-requests/{id}/reject [post]
func (h *RoomRequestHandler) Reject(c *gin.Context) {
	actor, note, ok := bindReview(c)
	if !ok {
		return
	}
	request, err := h.service.Reject(c.Request.Context(), c.Param("id"), actor, note)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// bindReview reads the optional reviewer note; an empty body is allowed.
func bindReview(c *gin.Context) (models.Actor, string, bool) {
	actor, ok := actorFromContext(c)
	if !ok {
		return nil, "", false
	}
	var req dto.ReviewRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		invalidPayload(c, err)
		return nil, "", false
	}
	return actor, req.Note, true
}
