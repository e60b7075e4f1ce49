package models

import "time"

// RescheduleStatus captures workflow states for reschedule requests.
type RescheduleStatus string

const (
	RescheduleStatusPending  RescheduleStatus = "Pending"
	RescheduleStatusApproved RescheduleStatus = "Approved"
	RescheduleStatusRejected RescheduleStatus = "Rejected"
)

// Terminal reports whether no further transition is allowed.
func (s RescheduleStatus) Terminal() bool {
	return s == RescheduleStatusApproved || s == RescheduleStatusRejected
}

// RescheduleRequest is a proposal to move an existing booking to a new
// slot, subject to approval.
type RescheduleRequest struct {
	ID              string           `db:"id" json:"id"`
	BookingID       string           `db:"booking_id" json:"presentation_id"`
	RequestedByID   string           `db:"requested_by_id" json:"requested_by_id"`
	RequestedByRole UserRole         `db:"requested_by_role" json:"requested_by_role"`
	Date            string           `db:"date" json:"date"`
	TimeRange       TimeRange        `json:"timeRange"`
	VenueID         string           `db:"venue_id" json:"venue_id"`
	Reason          string           `db:"reason" json:"reason"`
	Status          RescheduleStatus `db:"status" json:"status"`
	DecidedBy       *string          `db:"decided_by" json:"decided_by,omitempty"`
	DecidedAt       *time.Time       `db:"decided_at" json:"decided_at,omitempty"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
}

// RescheduleFilter constrains reschedule request listings.
type RescheduleFilter struct {
	Status      []RescheduleStatus
	BookingID   string
	RequestedBy string
	Page        int
	PageSize    int
}
