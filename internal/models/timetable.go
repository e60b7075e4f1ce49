package models

import "time"

// Lecture is one recurring timetable entry for a student group. The
// weekly lecture load of a department's examiners feeds the slot
// suggestion engine's date ranking.
type Lecture struct {
	ID         string    `db:"id" json:"id"`
	GroupID    string    `db:"group_id" json:"group_id"`
	ModuleCode string    `db:"module_code" json:"module_code"`
	ExaminerID string    `db:"examiner_id" json:"lecturer_id"`
	VenueID    string    `db:"venue_id" json:"venue_id"`
	DayOfWeek  string    `db:"day_of_week" json:"day"`
	StartTime  string    `db:"start_time" json:"start_time"`
	EndTime    string    `db:"end_time" json:"end_time"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// LectureFilter describes query params for listing lectures.
type LectureFilter struct {
	GroupID    string
	ExaminerID string
	VenueID    string
	DayOfWeek  string
	Page       int
	PageSize   int
}
