package models

import "time"

// ExceptionType enumerates one-off overrides of a recurring occurrence.
type ExceptionType string

const (
	ExceptionTypeCancelled  ExceptionType = "cancelled"
	ExceptionTypeExam       ExceptionType = "exam"
	ExceptionTypeMoved      ExceptionType = "moved"
	ExceptionTypeSubstitute ExceptionType = "substitute"
)

// Valid reports whether t is a known exception type.
func (t ExceptionType) Valid() bool {
	switch t {
	case ExceptionTypeCancelled, ExceptionTypeExam, ExceptionTypeMoved, ExceptionTypeSubstitute:
		return true
	}
	return false
}

// ScheduleException overrides one occurrence of a recurring entry. At most
// one exists per (RecurringScheduleID, ExceptionDate).
type ScheduleException struct {
	ID                  string        `db:"id" json:"id"`
	RecurringScheduleID string        `db:"recurring_schedule_id" json:"recurringScheduleId"`
	ExceptionDate       time.Time     `db:"exception_date" json:"exceptionDate"`
	ExceptionType       ExceptionType `db:"exception_type" json:"exceptionType"`
	NewDate             *time.Time    `db:"new_date" json:"newDate,omitempty"`
	NewTimeSlotID       *string       `db:"new_time_slot_id" json:"newTimeSlotId,omitempty"`
	NewRoomID           *string       `db:"new_room_id" json:"newRoomId,omitempty"`
	SubstituteTeacherID *string       `db:"substitute_teacher_id" json:"substituteTeacherId,omitempty"`
	Reason              string        `db:"reason" json:"reason"`
	Note                *string       `db:"note" json:"note,omitempty"`
	CreatedBy           *string       `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt           time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time     `db:"updated_at" json:"updatedAt"`
}

// HasRelocation reports whether any of the relocation fields is set.
func (e *ScheduleException) HasRelocation() bool {
	return e.NewDate != nil || e.NewTimeSlotID != nil || e.NewRoomID != nil
}

// Placement is where and when an occurrence takes place.
type Placement struct {
	Date       time.Time
	TimeSlotID string
	RoomID     string
	TeacherID  string
}

// ExceptionFilter narrows exception listings.
type ExceptionFilter struct {
	RecurringScheduleID string
	From                *time.Time
	To                  *time.Time
}
