package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uniroom-api/internal/dto"
	"github.com/noah-isme/uniroom-api/internal/middleware"
	"github.com/noah-isme/uniroom-api/internal/models"
	"github.com/noah-isme/uniroom-api/internal/service"
	"github.com/noah-isme/uniroom-api/pkg/response"
)

type occurrenceService interface {
	Resolve(ctx context.Context, scheduleID string, date time.Time) (*models.ResolvedOccurrence, error)
	Weekly(ctx context.Context, weekStart time.Time, filter models.OccurrenceFilter) ([]models.ResolvedOccurrence, error)
}

type timetableExporter interface {
	Weekly(ctx context.Context, weekStart time.Time, filter models.OccurrenceFilter, format string) (*service.ExportResult, error)
}

// OccurrenceHandler serves resolved occurrences and weekly timetables.
type OccurrenceHandler struct {
	service  occurrenceService
	exporter timetableExporter
}

// NewOccurrenceHandler constructs handler.
func NewOccurrenceHandler(svc occurrenceService, exporter timetableExporter) *OccurrenceHandler {
	return &OccurrenceHandler{service: svc, exporter: exporter}
}

// Weekly godoc
// @Summary Weekly timetable
// @Description Seven days from weekStart with exceptions overlaid.
// @Tags Occurrences
// @Produce json
// @Param weekStart query string true "First day of the week (YYYY-MM-DD)"
// @Param departmentId query string false "Filter by department"
// @Param classId query string false "Filter by class"
// @Param teacherId query string false "Original or substitute teacher"
// @Param roomId query string false "Original or effective room"
// @Success 200 {object} response.Envelope
// @Router /occurrences/weekly [get]
func (h *OccurrenceHandler) Weekly(c *gin.Context) {
	weekStart, filter, ok := bindWeekly(c)
	if !ok {
		return
	}
	list, err := h.service.Weekly(c.Request.Context(), weekStart, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, middleware.MetaWeekStart, models.FormatDate(weekStart))
	middleware.SetMeta(c, middleware.MetaCount, len(list))
	response.JSON(c, http.StatusOK, list, nil, middleware.ExtractMeta(c))
}

// Export godoc
// @Summary Export weekly timetable
// @Tags Occurrences
// @Produce octet-stream
// @Param weekStart query string true "First day of the week (YYYY-MM-DD)"
// @Param format query string false "csv, pdf or xlsx"
// @Success 200 {file} binary
// @Router /occurrences/weekly/export [get]
func (h *OccurrenceHandler) Export(c *gin.Context) {
	weekStart, filter, ok := bindWeekly(c)
	if !ok {
		return
	}
	result, err := h.exporter.Weekly(c.Request.Context(), weekStart, filter, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, result.Filename, result.ContentType, result.Body)
}

// Resolve godoc
// @Summary Resolve one occurrence
// @Tags Occurrences
// @Produce json
// @Param id path string true "Schedule ID"
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/{id}/occurrences/{date} [get]
func (h *OccurrenceHandler) Resolve(c *gin.Context) {
	date, ok := parseDateParam(c, "date", c.Param("date"))
	if !ok {
		return
	}
	occ, err := h.service.Resolve(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, occ, nil)
}

func bindWeekly(c *gin.Context) (time.Time, models.OccurrenceFilter, bool) {
	var query dto.WeeklyOccurrenceQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		invalidQuery(c, err)
		return time.Time{}, models.OccurrenceFilter{}, false
	}
	weekStart, ok := parseDateParam(c, "weekStart", query.WeekStart)
	if !ok {
		return time.Time{}, models.OccurrenceFilter{}, false
	}
	return weekStart, models.OccurrenceFilter{
		DepartmentID: query.DepartmentID,
		ClassID:      query.ClassID,
		TeacherID:    query.TeacherID,
		RoomID:       query.RoomID,
	}, true
}
