package models

import "time"

// RequestType enumerates teacher-submitted change requests.
type RequestType string

const (
	RequestTypeRoom           RequestType = "room_request"
	RequestTypeScheduleChange RequestType = "schedule_change"
	RequestTypeException      RequestType = "exception"
)

// RequestStatus captures workflow states; approved and rejected are terminal.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// RoomRequest is a pending, approved or rejected change request. ApprovedBy
// and ApprovedAt record whoever decided the request, approve or reject.
type RoomRequest struct {
	ID                  string         `db:"id" json:"id"`
	RequestType         RequestType    `db:"request_type" json:"requestType"`
	ClassScheduleID     *string        `db:"class_schedule_id" json:"classScheduleId,omitempty"`
	RequesterID         string         `db:"requester_id" json:"requesterId"`
	RequestDate         time.Time      `db:"request_date" json:"requestDate"`
	TimeSlotID          *string        `db:"time_slot_id" json:"timeSlotId,omitempty"`
	Reason              string         `db:"reason" json:"reason"`
	Status              RequestStatus  `db:"status" json:"status"`
	Permanent           bool           `db:"permanent" json:"permanent"`
	MovedToDate         *time.Time     `db:"moved_to_date" json:"movedToDate,omitempty"`
	MovedToTimeSlotID   *string        `db:"moved_to_time_slot_id" json:"movedToTimeSlotId,omitempty"`
	MovedToDayOfWeek    *int           `db:"moved_to_day_of_week" json:"movedToDayOfWeek,omitempty"`
	TargetRoomID        *string        `db:"target_room_id" json:"targetRoomId,omitempty"`
	ExceptionType       *ExceptionType `db:"exception_type" json:"exceptionType,omitempty"`
	SubstituteTeacherID *string        `db:"substitute_teacher_id" json:"substituteTeacherId,omitempty"`
	ApprovedBy          *string        `db:"approved_by" json:"approvedBy,omitempty"`
	ApprovedAt          *time.Time     `db:"approved_at" json:"approvedAt,omitempty"`
	Note                *string        `db:"note" json:"note,omitempty"`
	CreatedAt           time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time      `db:"updated_at" json:"updatedAt"`
}

// IsTerminal reports whether the request has been decided.
func (r *RoomRequest) IsTerminal() bool {
	return r.Status == RequestStatusApproved || r.Status == RequestStatusRejected
}

// RoomRequestFilter constrains listing queries.
type RoomRequestFilter struct {
	Status          RequestStatus
	RequestType     RequestType
	RequesterID     string
	ClassScheduleID string
	Page            int
	PageSize        int
}

// RequestDecision stamps the outcome of a review.
type RequestDecision struct {
	ID        string
	Status    RequestStatus
	DecidedBy string
	DecidedAt time.Time
	Note      *string
}

// ApprovalResult reports what an approval wrote. At most one of
// ScheduleException and RecurringScheduleUpdate is set; both are nil for
// bare room requests.
type ApprovalResult struct {
	Request                 RoomRequest        `json:"request"`
	ScheduleException       *ScheduleException `json:"scheduleException,omitempty"`
	RecurringScheduleUpdate *RecurringSchedule `json:"recurringScheduleUpdate,omitempty"`
}
