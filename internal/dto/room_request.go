package dto

import "github.com/noah-isme/uniroom-api/internal/models"

// SubmitRoomRequest payload for teacher change requests. Which optional
// fields are required depends on RequestType and Permanent.
type SubmitRoomRequest struct {
	RequestType         models.RequestType    `json:"requestType" validate:"required,oneof=room_request schedule_change exception"`
	ClassScheduleID     *string               `json:"classScheduleId"`
	RequestDate         string                `json:"requestDate" validate:"required"`
	TimeSlotID          *string               `json:"timeSlotId"`
	Reason              string                `json:"reason" validate:"required"`
	Permanent           bool                  `json:"permanent"`
	MovedToDate         *string               `json:"movedToDate"`
	MovedToTimeSlotID   *string               `json:"movedToTimeSlotId"`
	MovedToDayOfWeek    *int                  `json:"movedToDayOfWeek" validate:"omitempty,min=1,max=7"`
	TargetRoomID        *string               `json:"targetRoomId"`
	ExceptionType       *models.ExceptionType `json:"exceptionType"`
	SubstituteTeacherID *string               `json:"substituteTeacherId"`
}

// ReviewRoomRequest captures the reviewer note.
type ReviewRoomRequest struct {
	Note string `json:"note"`
}

// RoomRequestQuery mirrors supported listing filters.
type RoomRequestQuery struct {
	Status          string `form:"status"`
	RequestType     string `form:"requestType"`
	ClassScheduleID string `form:"classScheduleId"`
	Page            int    `form:"page"`
	PageSize        int    `form:"limit"`
}
