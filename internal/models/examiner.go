package models

import "time"

// Examiner represents an academic staff member who can sit on a
// presentation panel. Code is the human-readable identifier handed out
// to clients (e.g. "EX2025001"); conflict checks always use ID.
type Examiner struct {
	ID         string    `db:"id" json:"id"`
	Code       string    `db:"code" json:"examiner_id"`
	FullName   string    `db:"full_name" json:"name"`
	Email      string    `db:"email" json:"email"`
	Phone      *string   `db:"phone" json:"phone,omitempty"`
	Department string    `db:"department" json:"department"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// ExaminerFilter captures filtering options for listing examiners.
type ExaminerFilter struct {
	Search     string
	Department string
	Page       int
	PageSize   int
}
