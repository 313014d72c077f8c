package models

import "time"

// Class is a course section consumed from the academic catalog.
type Class struct {
	ID           string    `db:"id" json:"id"`
	Code         string    `db:"code" json:"code"`
	Name         string    `db:"name" json:"name"`
	DepartmentID string    `db:"department_id" json:"departmentId"`
	MaxStudents  int       `db:"max_students" json:"maxStudents"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// ClassKind distinguishes lecture and practice components.
type ClassKind string

const (
	ClassKindTheory   ClassKind = "theory"
	ClassKindPractice ClassKind = "practice"
)

// ClassType is a theory component or a numbered practice group of a class.
type ClassType struct {
	ID          string    `db:"id" json:"id"`
	ClassID     string    `db:"class_id" json:"classId"`
	Kind        ClassKind `db:"kind" json:"kind"`
	GroupNumber *int      `db:"group_number" json:"groupNumber,omitempty"`
	MaxStudents int       `db:"max_students" json:"maxStudents"`
}
