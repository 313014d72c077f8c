package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ScheduleStatus is the lifecycle state of a recurring entry.
type ScheduleStatus string

const (
	ScheduleStatusActive    ScheduleStatus = "active"
	ScheduleStatusCancelled ScheduleStatus = "cancelled"
	ScheduleStatusPending   ScheduleStatus = "pending"
)

// RecurringSchedule binds a class to a weekly day, slot, room and teacher over
// a validity window. A nil RoomID means the entry awaits room assignment.
type RecurringSchedule struct {
	ID           string         `db:"id" json:"id"`
	ClassID      string         `db:"class_id" json:"classId"`
	ClassTypeID  *string        `db:"class_type_id" json:"classTypeId,omitempty"`
	GroupNumber  *int           `db:"group_number" json:"groupNumber,omitempty"`
	TeacherID    string         `db:"teacher_id" json:"teacherId"`
	RoomID       *string        `db:"room_id" json:"roomId,omitempty"`
	DayOfWeek    int            `db:"day_of_week" json:"dayOfWeek"`
	TimeSlotID   string         `db:"time_slot_id" json:"timeSlotId"`
	StartDate    time.Time      `db:"start_date" json:"startDate"`
	EndDate      time.Time      `db:"end_date" json:"endDate"`
	Status       ScheduleStatus `db:"status" json:"status"`
	DepartmentID *string        `db:"department_id" json:"departmentId,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updatedAt"`
}

// IsActive reports whether the entry participates in conflicts and views.
func (s *RecurringSchedule) IsActive() bool {
	return s.Status == ScheduleStatusActive
}

// OccursOn reports whether the weekly pattern produces an occurrence on date.
func (s *RecurringSchedule) OccursOn(date time.Time) bool {
	date = TruncateDate(date)
	return DayOfWeek(date) == s.DayOfWeek &&
		!date.Before(TruncateDate(s.StartDate)) &&
		!date.After(TruncateDate(s.EndDate))
}

// RoomValue returns the assigned room or an empty string.
func (s *RecurringSchedule) RoomValue() string {
	if s.RoomID == nil {
		return ""
	}
	return *s.RoomID
}

// ScheduleFilter describes query params for listing recurring entries.
type ScheduleFilter struct {
	ClassID      string
	TeacherID    string
	RoomID       string
	DepartmentID string
	TimeSlotID   string
	DayOfWeek    int
	Status       ScheduleStatus
	Page         int
	PageSize     int
}

// ActiveScheduleQuery selects active entries intersecting a date window.
// Teacher and room filters also match entries whose exceptions reassign the
// occurrence to that teacher or room inside the window.
type ActiveScheduleQuery struct {
	WindowStart  time.Time
	WindowEnd    time.Time
	ClassID      string
	DepartmentID string
	TeacherID    string
	RoomID       string
}

// ConflictDimension names the resource a conflict check is keyed on.
type ConflictDimension string

const (
	ConflictDimensionRoom    ConflictDimension = "room"
	ConflictDimensionTeacher ConflictDimension = "teacher"
)

// ConflictQuery is a candidate weekly claim. RoomID is read by room checks,
// TeacherID by teacher checks.
type ConflictQuery struct {
	RoomID            string
	TeacherID         string
	DayOfWeek         int
	TimeSlotID        string
	StartDate         time.Time
	EndDate           time.Time
	ExcludeScheduleID string
}

// ConflictReport is the verdict of one conflict check.
type ConflictReport struct {
	Dimension             ConflictDimension   `json:"dimension"`
	Conflict              bool                `json:"conflict"`
	ConflictingEntries    []RecurringSchedule `json:"conflictingEntries"`
	ConflictingExceptions []ScheduleException `json:"conflictingExceptions"`
}

// SlotClaim is everything a write wants to occupy: a room (optional) and a
// teacher on a weekday slot over a date window.
type SlotClaim struct {
	RoomID            *string
	TeacherID         string
	DayOfWeek         int
	TimeSlotID        string
	StartDate         time.Time
	EndDate           time.Time
	ExcludeScheduleID string
}

// LockKeys returns the advisory lock keys for the claim in a stable order.
func (c SlotClaim) LockKeys() []string {
	keys := make([]string, 0, 2)
	if c.RoomID != nil && *c.RoomID != "" {
		keys = append(keys, fmt.Sprintf("room:%s:%d:%s", *c.RoomID, c.DayOfWeek, c.TimeSlotID))
	}
	if c.TeacherID != "" {
		keys = append(keys, fmt.Sprintf("teacher:%s:%d:%s", c.TeacherID, c.DayOfWeek, c.TimeSlotID))
	}
	return keys
}

// ScheduleConflictError is returned when a claim collides with existing
// entries or exceptions.
type ScheduleConflictError struct {
	Message string           `json:"message"`
	Reports []ConflictReport `json:"reports"`
}

// Error implements the error interface for conflict errors.
func (e *ScheduleConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Message != "" {
		return e.Message
	}
	dims := make([]string, 0, len(e.Reports))
	for _, r := range e.Reports {
		dims = append(dims, string(r.Dimension))
	}
	return fmt.Sprintf("schedule conflict on %s", strings.Join(dims, ", "))
}

// AsScheduleConflict extracts a conflict error from a chain.
func AsScheduleConflict(err error) *ScheduleConflictError {
	var conflict *ScheduleConflictError
	if errors.As(err, &conflict) {
		return conflict
	}
	return nil
}
