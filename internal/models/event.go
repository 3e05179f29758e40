package models

import "time"

// Event is a dated happening published by a society admin.
type Event struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Date        time.Time `db:"date" json:"date"`
	Banner      string    `db:"banner" json:"banner"`
	Venue       string    `db:"venue" json:"venue"`
	SocietyID   string    `db:"society_id" json:"society"`
	SocietyName string    `db:"society_name" json:"societyName"`
	CreatedBy   *string   `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
	Happened    bool      `db:"-" json:"happened"`
}

// CreateEventRequest is the multipart body of an admin event submission.
type CreateEventRequest struct {
	Title       string `form:"title" validate:"required,max=200"`
	Description string `form:"description" validate:"required"`
	Date        string `form:"date" validate:"required"`
	Venue       string `form:"venue" validate:"required"`
	Banner      string `form:"-"`
}

// SocietyEvents groups events with the society that runs them.
type SocietyEvents struct {
	Society  Society `json:"society"`
	Upcoming []Event `json:"upcoming"`
	Past     []Event `json:"past"`
}
