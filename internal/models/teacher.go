package models

// Teacher is an instructor consumed from the staff catalog.
type Teacher struct {
	ID           string  `db:"id" json:"id"`
	FullName     string  `db:"full_name" json:"fullName"`
	DepartmentID *string `db:"department_id" json:"departmentId,omitempty"`
	UserID       *string `db:"user_id" json:"userId,omitempty"`
	Active       bool    `db:"active" json:"active"`
}
