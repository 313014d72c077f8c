package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/uniroom-api/internal/models"
	appErrors "github.com/noah-isme/uniroom-api/pkg/errors"
	"github.com/noah-isme/uniroom-api/pkg/export"
)

var timetableHeaders = []string{"Date", "Day", "Slot", "Start", "End", "Class", "Room", "Teacher", "Status", "Original Date", "Reason"}

// ExportResult is a rendered file ready to stream.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
}

type weeklySource interface {
	Weekly(ctx context.Context, weekStart time.Time, filter models.OccurrenceFilter) ([]models.ResolvedOccurrence, error)
}

// ExportService renders weekly timetables through the export registry.
type ExportService struct {
	occurrences weeklySource
	slots       *TimeSlotService
	renderers   export.Registry
	logger      *zap.Logger
}

// NewExportService constructs an ExportService. A nil registry wires every
// built-in renderer.
func NewExportService(occurrences weeklySource, slots *TimeSlotService, renderers export.Registry, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if renderers == nil {
		renderers = export.NewRegistry()
	}
	return &ExportService{occurrences: occurrences, slots: slots, renderers: renderers, logger: logger}
}

// Weekly renders the timetable of the week starting at weekStart.
func (s *ExportService) Weekly(ctx context.Context, weekStart time.Time, filter models.OccurrenceFilter, rawFormat string) (*ExportResult, error) {
	format, err := export.ParseFormat(strings.ToLower(strings.TrimSpace(rawFormat)))
	if err != nil {
		return nil, validationError(err.Error())
	}
	occurrences, err := s.occurrences.Weekly(ctx, weekStart, filter)
	if err != nil {
		return nil, err
	}

	dataset := s.timetable(ctx, weekStart, occurrences)
	body, err := s.renderers.Render(format, dataset)
	if err != nil {
		s.logger.Error("render timetable", zap.String("format", string(format)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable")
	}
	return &ExportResult{
		Filename:    fmt.Sprintf("timetable_%s.%s", models.FormatDate(weekStart), format),
		ContentType: format.ContentType(),
		Body:        body,
	}, nil
}

func (s *ExportService) timetable(ctx context.Context, weekStart time.Time, occurrences []models.ResolvedOccurrence) export.Dataset {
	slots := map[string]models.TimeSlot{}
	if s.slots != nil {
		if list, err := s.slots.List(ctx); err == nil {
			for _, slot := range list {
				slots[slot.ID] = slot
			}
		} else {
			s.logger.Warn("timetable export without slot labels", zap.Error(err))
		}
	}

	rows := make([]map[string]string, 0, len(occurrences))
	for _, occ := range occurrences {
		slot := slots[occ.TimeSlotID]
		label := slot.Label
		if label == "" {
			label = occ.TimeSlotID
		}
		row := map[string]string{
			"Date":    models.FormatDate(occ.Date),
			"Day":     occ.Date.Weekday().String(),
			"Slot":    label,
			"Start":   slot.StartTime,
			"End":     slot.EndTime,
			"Class":   occ.ClassID,
			"Room":    stringValue(occ.RoomID),
			"Teacher": occ.TeacherID,
			"Status":  string(occ.Status),
			"Reason":  stringValue(occ.Reason),
		}
		if !models.SameDate(occ.Date, occ.OriginalDate) {
			row["Original Date"] = models.FormatDate(occ.OriginalDate)
		}
		rows = append(rows, row)
	}
	return export.Dataset{
		Title:   fmt.Sprintf("Timetable week of %s", models.FormatDate(weekStart)),
		Headers: timetableHeaders,
		Rows:    rows,
	}
}
