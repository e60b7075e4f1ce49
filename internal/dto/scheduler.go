package dto

import "github.com/unidept/presentation-scheduler/internal/models"

// AvailabilityRequest asks for the free windows on a date for a given
// venue/participant combination. Venue, students and examiners are
// supplied as human-readable codes and resolved at the boundary.
type AvailabilityRequest struct {
	Date            string   `json:"date" validate:"required"`
	Department      string   `json:"department"`
	StudentCodes    []string `json:"students"`
	ExaminerCodes   []string `json:"examiners"`
	VenueCode       string   `json:"venue"`
	DurationMinutes int      `json:"duration" validate:"required,min=1"`
}

// FreeSlot is one emitted gap. Available is always true: windows too
// narrow for the requested duration are omitted, not flagged.
type FreeSlot struct {
	TimeSlot    string `json:"timeSlot"`
	StartMinute int    `json:"start_minute"`
	EndMinute   int    `json:"end_minute"`
	Available   bool   `json:"available"`
}

// SuggestSlotRequest asks the engine for a non-conflicting slot.
type SuggestSlotRequest struct {
	StudentIDs      []string `json:"studentIds" validate:"required,min=1"`
	NumExaminers    int      `json:"numExaminers" validate:"required,min=1"`
	DurationMinutes int      `json:"duration" validate:"required,min=1"`
	Department      string   `json:"department"`
}

// SuggestSlotResponse carries the winning combination. Examiners always
// has exactly the requested count when the engine reports success.
type SuggestSlotResponse struct {
	Date       string            `json:"date"`
	Department string            `json:"department"`
	Examiners  []models.Examiner `json:"examiners"`
	Venue      models.Venue      `json:"venue"`
	TimeRange  models.TimeRange  `json:"timeRange"`
}
