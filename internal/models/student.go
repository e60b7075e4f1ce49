package models

import "time"

// Student represents a presenter registered in the department.
type Student struct {
	ID         string    `db:"id" json:"id"`
	Code       string    `db:"code" json:"student_id"`
	FullName   string    `db:"full_name" json:"name"`
	Email      string    `db:"email" json:"email"`
	Department string    `db:"department" json:"department"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates search parameters for listing students.
type StudentFilter struct {
	Search     string
	Department string
	Page       int
	PageSize   int
}
