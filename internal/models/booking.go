package models

import "time"

// TimeRange is a half-open [StartTime, EndTime) window within the
// operating day, both ends as zero-padded 24-hour "HH:MM" strings.
type TimeRange struct {
	StartTime string `json:"startTime" validate:"required,len=5"`
	EndTime   string `json:"endTime" validate:"required,len=5"`
}

// Booking represents one scheduled presentation session binding
// students, examiners, a venue, a date and a time range.
type Booking struct {
	ID              string    `db:"id" json:"id"`
	Title           string    `db:"title" json:"title"`
	Department      string    `db:"department" json:"department"`
	Date            string    `db:"date" json:"date"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	TimeRange       TimeRange `json:"timeRange"`
	NumExaminers    int       `db:"num_examiners" json:"num_of_examiners"`
	VenueID         string    `db:"venue_id" json:"venue_id"`
	StudentIDs      []string  `json:"student_ids"`
	ExaminerIDs     []string  `json:"examiner_ids"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// BookingFilter describes query params for listing bookings.
type BookingFilter struct {
	Date       string
	Department string
	VenueID    string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// AvailabilityFilter narrows bookings consulted by the free-slot scan:
// same date, optionally same department, and touching the queried venue
// or at least one queried participant.
type AvailabilityFilter struct {
	Date        string
	Department  string
	VenueID     string
	StudentIDs  []string
	ExaminerIDs []string
}

// SlotConflict identifies an existing booking blocking a candidate slot.
type SlotConflict struct {
	BookingID string    `json:"booking_id"`
	Dimension string    `json:"dimension"`
	TimeRange TimeRange `json:"timeRange"`
}

// Conflict dimensions reported by the overlap checker.
const (
	ConflictDimensionExaminer = "examiner"
	ConflictDimensionVenue    = "venue"
	ConflictDimensionStudent  = "student"
)
