package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uniroom-api/internal/dto"
	"github.com/noah-isme/uniroom-api/internal/models"
	"github.com/noah-isme/uniroom-api/pkg/response"
)

type conflictChecker interface {
	Check(ctx context.Context, dimension models.ConflictDimension, req dto.ConflictCheckRequest) (*models.ConflictReport, error)
}

// ConflictHandler exposes read-only double booking checks.
type ConflictHandler struct {
	service conflictChecker
}

// NewConflictHandler constructs handler.
func NewConflictHandler(svc conflictChecker) *ConflictHandler {
	return &ConflictHandler{service: svc}
}

// CheckRoom godoc
// @Summary Check room conflicts
// @Tags Conflicts
// @Accept json
// @Produce json
// @Param payload body dto.ConflictCheckRequest true "Candidate claim"
// @Success 200 {object} response.Envelope
// @Router /conflicts/room [post]
func (h *ConflictHandler) CheckRoom(c *gin.Context) {
	h.check(c, models.ConflictDimensionRoom)
}

// CheckTeacher godoc
// @Summary Check teacher conflicts
// @Tags Conflicts
// @Accept json
// @Produce json
// @Param payload body dto.ConflictCheckRequest true "Candidate claim"
// @Success 200 {object} response.Envelope
// @Router /conflicts/teacher [post]
func (h *ConflictHandler) CheckTeacher(c *gin.Context) {
	h.check(c, models.ConflictDimensionTeacher)
}

func (h *ConflictHandler) check(c *gin.Context, dimension models.ConflictDimension) {
	var req dto.ConflictCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, err)
		return
	}
	report, err := h.service.Check(c.Request.Context(), dimension, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}
