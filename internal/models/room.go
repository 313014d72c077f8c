package models

import "time"

// RoomType classifies rooms by teaching use.
type RoomType string

const (
	RoomTypeTheory   RoomType = "theory"
	RoomTypePractice RoomType = "practice"
	RoomTypeLab      RoomType = "lab"
)

// RoomStatus is advisory metadata; conflict checks never consult it.
type RoomStatus string

const (
	RoomStatusAvailable   RoomStatus = "available"
	RoomStatusMaintenance RoomStatus = "maintenance"
	RoomStatusOccupied    RoomStatus = "occupied"
)

// Room is a bookable teaching space.
type Room struct {
	ID           string     `db:"id" json:"id"`
	Code         string     `db:"code" json:"code"`
	Name         string     `db:"name" json:"name"`
	Capacity     int        `db:"capacity" json:"capacity"`
	Building     string     `db:"building" json:"building"`
	Floor        string     `db:"floor" json:"floor"`
	RoomType     RoomType   `db:"room_type" json:"roomType"`
	Status       RoomStatus `db:"status" json:"status"`
	DepartmentID *string    `db:"department_id" json:"departmentId,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

// RoomFilter narrows the room catalog.
type RoomFilter struct {
	RoomType     RoomType
	Building     string
	Status       RoomStatus
	DepartmentID string
	MinCapacity  int
}

// AvailableRoom is a room free for the queried date and slot. FreedByException
// is set when the room is normally booked but an exception released it.
type AvailableRoom struct {
	Room
	FreedByException bool    `json:"freedByException"`
	FreedScheduleID  *string `json:"freedScheduleId,omitempty"`
}
