package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uniroom-api/internal/dto"
	"github.com/noah-isme/uniroom-api/internal/middleware"
	"github.com/noah-isme/uniroom-api/internal/models"
	"github.com/noah-isme/uniroom-api/pkg/response"
)

type roomService interface {
	List(ctx context.Context, query dto.RoomQuery) ([]models.Room, bool, error)
	Get(ctx context.Context, id string) (*models.Room, error)
	Available(ctx context.Context, query dto.AvailableRoomsQuery) ([]models.AvailableRoom, error)
}

type timeSlotService interface {
	ListCached(ctx context.Context) ([]models.TimeSlot, bool, error)
	Get(ctx context.Context, id string) (*models.TimeSlot, error)
}

// CatalogHandler serves rooms and time slots.
type CatalogHandler struct {
	rooms roomService
	slots timeSlotService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(rooms roomService, slots timeSlotService) *CatalogHandler {
	return &CatalogHandler{rooms: rooms, slots: slots}
}

// ListRooms godoc
// @Summary List rooms
// @Tags Rooms
// @Produce json
// @Param roomType query string false "theory, practice or lab"
// @Param building query string false "Building"
// @Param status query string false "available, maintenance or occupied"
// @Param departmentId query string false "Owning department"
// @Param minCapacity query int false "Minimum seats"
// @Success 200 {object} response.Envelope
// @Router /rooms [get]
func (h *CatalogHandler) ListRooms(c *gin.Context) {
	var query dto.RoomQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		invalidQuery(c, err)
		return
	}
	rooms, hit, err := h.rooms.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, rooms, nil, middleware.ExtractMeta(c))
}

// GetRoom godoc
// @Summary Get room
// @Tags Rooms
// @Produce json
// @Param id path string true "Room ID"
// @Success 200 {object} response.Envelope
// @Router /rooms/{id} [get]
func (h *CatalogHandler) GetRoom(c *gin.Context) {
	room, err := h.rooms.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, room, nil)
}

// AvailableRooms godoc
// @Summary Rooms free on a date and slot
// @Description Exceptions are overlaid; rooms freed only by an exception are flagged.
// @Tags Rooms
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param timeSlotId query string true "Time slot"
// @Param minCapacity query int false "Minimum seats"
// @Param classId query string false "Size for this class"
// @Param classTypeId query string false "Size for this class group"
// @Param roomType query string false "theory, practice or lab"
// @Param building query string false "Building"
// @Success 200 {object} response.Envelope
// @Router /rooms/available [get]
func (h *CatalogHandler) AvailableRooms(c *gin.Context) {
	var query dto.AvailableRoomsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		invalidQuery(c, err)
		return
	}
	rooms, err := h.rooms.Available(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rooms, nil)
}

// ListTimeSlots godoc
// @Summary List time slots
// @Tags TimeSlots
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /time-slots [get]
func (h *CatalogHandler) ListTimeSlots(c *gin.Context) {
	slots, hit, err := h.slots.ListCached(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, slots, nil, middleware.ExtractMeta(c))
}

// GetTimeSlot godoc
// @Summary Get time slot
// @Tags TimeSlots
// @Produce json
// @Param id path string true "Time slot ID"
// @Success 200 {object} response.Envelope
// @Router /time-slots/{id} [get]
func (h *CatalogHandler) GetTimeSlot(c *gin.Context) {
	slot, err := h.slots.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot, nil)
}
