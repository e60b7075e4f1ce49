package models

import "time"

// Venue is a bookable room. A booking references exactly one venue.
type Venue struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"venue_id"`
	Location  string    `db:"location" json:"location"`
	Capacity  int       `db:"capacity" json:"capacity"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
