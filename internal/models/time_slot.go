package models

import "time"

// Shift groups time slots for display.
type Shift string

const (
	ShiftMorning   Shift = "morning"
	ShiftAfternoon Shift = "afternoon"
	ShiftEvening   Shift = "evening"
)

// TimeSlot is an immutable named teaching period.
type TimeSlot struct {
	ID        string    `db:"id" json:"id"`
	Label     string    `db:"label" json:"label"`
	StartTime string    `db:"start_time" json:"startTime"`
	EndTime   string    `db:"end_time" json:"endTime"`
	Shift     Shift     `db:"shift" json:"shift"`
	Order     int       `db:"sort_order" json:"order"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
