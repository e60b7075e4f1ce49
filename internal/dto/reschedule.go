package dto

import "github.com/unidept/presentation-scheduler/internal/models"

// CreateRescheduleRequest proposes moving an existing booking.
type CreateRescheduleRequest struct {
	BookingID string           `json:"presentation_id" validate:"required"`
	Date      string           `json:"date" validate:"required"`
	TimeRange models.TimeRange `json:"timeRange" validate:"required"`
	VenueID   string           `json:"venue_id" validate:"required"`
	Reason    string           `json:"reason" validate:"required"`
}

// Reschedule decision actions.
const (
	RescheduleActionApprove = "Approve"
	RescheduleActionReject  = "Reject"
)

// DecideRescheduleRequest carries the reviewer's verdict.
type DecideRescheduleRequest struct {
	Action string `json:"action" validate:"required,oneof=Approve Reject"`
}

// RescheduleDecision reports the outcome of a decision. AutoRejected is
// set when an approval attempt failed availability and the request was
// downgraded to Rejected.
type RescheduleDecision struct {
	Request      *models.RescheduleRequest `json:"request"`
	Message      string                    `json:"message"`
	AutoRejected bool                      `json:"auto_rejected"`
}
