package service

import (
	"time"

	"github.com/noah-isme/uniroom-api/internal/models"
)

// ResolveOccurrence overlays exc, which may be nil, onto the occurrence of
// entry on its original date. It performs no I/O.
func ResolveOccurrence(entry models.RecurringSchedule, date time.Time, exc *models.ScheduleException) models.ResolvedOccurrence {
	date = models.TruncateDate(date)
	occ := models.ResolvedOccurrence{
		RecurringScheduleID: entry.ID,
		ClassID:             entry.ClassID,
		ClassTypeID:         entry.ClassTypeID,
		GroupNumber:         entry.GroupNumber,
		Date:                date,
		OriginalDate:        date,
		DayOfWeek:           models.DayOfWeek(date),
		TimeSlotID:          entry.TimeSlotID,
		RoomID:              entry.RoomID,
		TeacherID:           entry.TeacherID,
		OriginalTimeSlotID:  entry.TimeSlotID,
		OriginalRoomID:      entry.RoomID,
		OriginalTeacherID:   entry.TeacherID,
		Status:              models.OccurrenceScheduled,
		Occurring:           entry.IsActive(),
	}

	if entry.Status == models.ScheduleStatusCancelled {
		occ.Status = models.OccurrenceCancelled
		occ.Occurring = false
		return occ
	}
	if exc == nil {
		return occ
	}

	excType := exc.ExceptionType
	excID := exc.ID
	occ.ExceptionType = &excType
	occ.ExceptionID = &excID
	occ.Altered = true
	if exc.Reason != "" {
		reason := exc.Reason
		occ.Reason = &reason
	}
	occ.Note = exc.Note

	switch exc.ExceptionType {
	case models.ExceptionTypeCancelled:
		occ.Status = models.OccurrenceCancelled
		occ.Occurring = false
		occ.OriginalSlotFreed = true
	case models.ExceptionTypeSubstitute:
		occ.Status = models.OccurrenceSubstitute
		if exc.SubstituteTeacherID != nil {
			occ.TeacherID = *exc.SubstituteTeacherID
		}
	case models.ExceptionTypeMoved, models.ExceptionTypeExam:
		occ.Status = models.OccurrenceMoved
		if exc.ExceptionType == models.ExceptionTypeExam {
			occ.Status = models.OccurrenceExam
		}
		placed := effectivePlacement(entry, exc)
		occ.Date = placed.Date
		occ.DayOfWeek = models.DayOfWeek(placed.Date)
		occ.TimeSlotID = placed.TimeSlotID
		if placed.RoomID != "" {
			room := placed.RoomID
			occ.RoomID = &room
		}
		occ.OriginalSlotFreed = placementChanged(entry, exc.ExceptionDate, placed)
	}
	return occ
}

// effectivePlacement returns where an occurrence lands once exc applies.
// Relocation fields left empty keep the original value.
func effectivePlacement(entry models.RecurringSchedule, exc *models.ScheduleException) models.Placement {
	placed := models.Placement{
		Date:       models.TruncateDate(exc.ExceptionDate),
		TimeSlotID: entry.TimeSlotID,
		RoomID:     entry.RoomValue(),
		TeacherID:  entry.TeacherID,
	}
	switch exc.ExceptionType {
	case models.ExceptionTypeMoved, models.ExceptionTypeExam:
		if exc.NewDate != nil {
			placed.Date = models.TruncateDate(*exc.NewDate)
		}
		if exc.NewTimeSlotID != nil && *exc.NewTimeSlotID != "" {
			placed.TimeSlotID = *exc.NewTimeSlotID
		}
		if exc.NewRoomID != nil && *exc.NewRoomID != "" {
			placed.RoomID = *exc.NewRoomID
		}
	case models.ExceptionTypeSubstitute:
		if exc.SubstituteTeacherID != nil {
			placed.TeacherID = *exc.SubstituteTeacherID
		}
	}
	return placed
}

func placementChanged(entry models.RecurringSchedule, original time.Time, placed models.Placement) bool {
	return !models.SameDate(placed.Date, original) || placed.TimeSlotID != entry.TimeSlotID || placed.RoomID != entry.RoomValue()
}

func timeChanged(entry models.RecurringSchedule, original time.Time, placed models.Placement) bool {
	return !models.SameDate(placed.Date, original) || placed.TimeSlotID != entry.TimeSlotID
}

// freesRoom reports whether exc releases the entry's room at its original
// date and slot.
func freesRoom(entry models.RecurringSchedule, exc *models.ScheduleException) bool {
	if exc == nil {
		return false
	}
	switch exc.ExceptionType {
	case models.ExceptionTypeCancelled:
		return true
	case models.ExceptionTypeMoved, models.ExceptionTypeExam:
		return placementChanged(entry, exc.ExceptionDate, effectivePlacement(entry, exc))
	}
	return false
}

// freesTeacher reports whether exc releases the entry's teacher at its
// original date and slot.
func freesTeacher(entry models.RecurringSchedule, exc *models.ScheduleException) bool {
	if exc == nil {
		return false
	}
	switch exc.ExceptionType {
	case models.ExceptionTypeCancelled:
		return true
	case models.ExceptionTypeSubstitute:
		return exc.SubstituteTeacherID != nil && *exc.SubstituteTeacherID != entry.TeacherID
	case models.ExceptionTypeMoved, models.ExceptionTypeExam:
		return timeChanged(entry, exc.ExceptionDate, effectivePlacement(entry, exc))
	}
	return false
}

// vacatesSlot reports whether exc takes the occurrence away from its
// original date and slot altogether.
func vacatesSlot(entry models.RecurringSchedule, exc *models.ScheduleException) bool {
	if exc == nil {
		return false
	}
	switch exc.ExceptionType {
	case models.ExceptionTypeCancelled:
		return true
	case models.ExceptionTypeMoved, models.ExceptionTypeExam:
		return timeChanged(entry, exc.ExceptionDate, effectivePlacement(entry, exc))
	}
	return false
}

func frees(dimension models.ConflictDimension, entry models.RecurringSchedule, exc *models.ScheduleException) bool {
	if dimension == models.ConflictDimensionTeacher {
		return freesTeacher(entry, exc)
	}
	return freesRoom(entry, exc)
}

// exceptionIndex keys exceptions by entry and original date.
type exceptionIndex map[string]map[string]*models.ScheduleException

func indexExceptions(list []models.ScheduleException) exceptionIndex {
	idx := make(exceptionIndex, len(list))
	for i := range list {
		exc := &list[i]
		byDate, ok := idx[exc.RecurringScheduleID]
		if !ok {
			byDate = make(map[string]*models.ScheduleException)
			idx[exc.RecurringScheduleID] = byDate
		}
		byDate[models.FormatDate(exc.ExceptionDate)] = exc
	}
	return idx
}

func (idx exceptionIndex) lookup(scheduleID string, date time.Time) *models.ScheduleException {
	if byDate, ok := idx[scheduleID]; ok {
		return byDate[models.FormatDate(date)]
	}
	return nil
}
