package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uniroom-api/internal/dto"
	"github.com/noah-isme/uniroom-api/internal/models"
	"github.com/noah-isme/uniroom-api/pkg/response"
)

type exceptionService interface {
	List(ctx context.Context, scheduleID string) ([]models.ScheduleException, error)
	Create(ctx context.Context, scheduleID string, req dto.CreateExceptionRequest, actor models.Actor) (*models.ScheduleException, error)
	Delete(ctx context.Context, id string, actor models.Actor) error
}

// ExceptionHandler manages per-date schedule exceptions.
type ExceptionHandler struct {
	service exceptionService
}

// NewExceptionHandler constructs handler.
func NewExceptionHandler(svc exceptionService) *ExceptionHandler {
	return &ExceptionHandler{service: svc}
}

// List godoc
// @Summary List exceptions of a schedule
// @Tags Exceptions
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/exceptions [get]
func (h *ExceptionHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Create godoc
// @Summary Create schedule exception
// @Tags Exceptions
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body dto.CreateExceptionRequest true "Exception payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedules/{id}/exceptions [post]
func (h *ExceptionHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateExceptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, err)
		return
	}
	exc, err := h.service.Create(c.Request.Context(), c.Param("id"), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, exc)
}

// Delete godoc
// @Summary Delete schedule exception
// @Description Restores the recurring occurrence on the exception date.
// @Tags Exceptions
// @Param id path string true "Exception ID"
// @Success 204
// @Router /exceptions/{id} [delete]
func (h *ExceptionHandler) Delete(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), actor); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
