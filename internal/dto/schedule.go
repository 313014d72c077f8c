package dto

import "github.com/noah-isme/uniroom-api/internal/models"

// CreateScheduleRequest binds a class to a weekly slot over a validity window.
type CreateScheduleRequest struct {
	ClassID     string  `json:"classId" validate:"required"`
	ClassTypeID *string `json:"classTypeId"`
	GroupNumber *int    `json:"groupNumber" validate:"omitempty,min=1"`
	TeacherID   string  `json:"teacherId" validate:"required"`
	RoomID      *string `json:"roomId"`
	DayOfWeek   int     `json:"dayOfWeek" validate:"required,min=1,max=7"`
	TimeSlotID  string  `json:"timeSlotId" validate:"required"`
	StartDate   string  `json:"startDate" validate:"required"`
	EndDate     string  `json:"endDate" validate:"required"`
}

// ScheduleQuery mirrors supported listing filters.
type ScheduleQuery struct {
	ClassID      string `form:"classId"`
	TeacherID    string `form:"teacherId"`
	RoomID       string `form:"roomId"`
	DepartmentID string `form:"departmentId"`
	TimeSlotID   string `form:"timeSlotId"`
	DayOfWeek    int    `form:"dayOfWeek"`
	Status       string `form:"status"`
	Page         int    `form:"page"`
	PageSize     int    `form:"limit"`
}

// CreateExceptionRequest overrides one occurrence of a recurring entry.
type CreateExceptionRequest struct {
	ExceptionDate       string               `json:"exceptionDate" validate:"required"`
	ExceptionType       models.ExceptionType `json:"exceptionType" validate:"required,oneof=cancelled exam moved substitute"`
	NewDate             *string              `json:"newDate"`
	NewTimeSlotID       *string              `json:"newTimeSlotId"`
	NewRoomID           *string              `json:"newRoomId"`
	SubstituteTeacherID *string              `json:"substituteTeacherId"`
	Reason              string               `json:"reason" validate:"required"`
	Note                *string              `json:"note"`
}

// ConflictCheckRequest is a candidate weekly claim submitted for checking.
type ConflictCheckRequest struct {
	RoomID            string `json:"roomId"`
	TeacherID         string `json:"teacherId"`
	DayOfWeek         int    `json:"dayOfWeek" validate:"required,min=1,max=7"`
	TimeSlotID        string `json:"timeSlotId" validate:"required"`
	StartDate         string `json:"startDate" validate:"required"`
	EndDate           string `json:"endDate" validate:"required"`
	ExcludeScheduleID string `json:"excludeScheduleId"`
}
