package models

import "time"

// OccurrenceStatus is the effective state of one dated occurrence.
type OccurrenceStatus string

const (
	OccurrenceScheduled  OccurrenceStatus = "scheduled"
	OccurrenceCancelled  OccurrenceStatus = "cancelled"
	OccurrenceExam       OccurrenceStatus = "exam"
	OccurrenceMoved      OccurrenceStatus = "moved"
	OccurrenceSubstitute OccurrenceStatus = "substitute"
)

// ResolvedOccurrence is one calendar-dated instance of a recurring entry
// after exception overlay. Original* fields describe the weekly pattern,
// the unprefixed fields the effective placement.
type ResolvedOccurrence struct {
	RecurringScheduleID string           `json:"recurringScheduleId"`
	ClassID             string           `json:"classId"`
	ClassTypeID         *string          `json:"classTypeId,omitempty"`
	GroupNumber         *int             `json:"groupNumber,omitempty"`
	Date                time.Time        `json:"date"`
	OriginalDate        time.Time        `json:"originalDate"`
	DayOfWeek           int              `json:"dayOfWeek"`
	TimeSlotID          string           `json:"timeSlotId"`
	RoomID              *string          `json:"roomId,omitempty"`
	TeacherID           string           `json:"teacherId"`
	OriginalTimeSlotID  string           `json:"originalTimeSlotId"`
	OriginalRoomID      *string          `json:"originalRoomId,omitempty"`
	OriginalTeacherID   string           `json:"originalTeacherId"`
	Status              OccurrenceStatus `json:"status"`
	Occurring           bool             `json:"occurring"`
	Altered             bool             `json:"altered"`
	ExceptionType       *ExceptionType   `json:"exceptionType,omitempty"`
	ExceptionID         *string          `json:"exceptionId,omitempty"`
	Reason              *string          `json:"reason,omitempty"`
	Note                *string          `json:"note,omitempty"`
	OriginalSlotFreed   bool             `json:"originalSlotFreed"`
}

// OccurrenceFilter narrows the weekly view. Room and teacher match either the
// original or the effective value of an occurrence.
type OccurrenceFilter struct {
	DepartmentID string
	ClassID      string
	TeacherID    string
	RoomID       string
}
