package models

import "time"

// Module is a taught course unit. Code is generated per department
// ("M<DEPT><seq>") and immutable once assigned; timetable lectures
// reference modules by this code.
type Module struct {
	ID         string    `db:"id" json:"id"`
	Code       string    `db:"code" json:"module_code"`
	Name       string    `db:"name" json:"module_name"`
	Department string    `db:"department" json:"department"`
	LecturerID string    `db:"lecturer_id" json:"lecturer_in_charge"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// ModuleFilter captures filtering options for listing modules.
type ModuleFilter struct {
	Search     string
	Department string
	Page       int
	PageSize   int
}
