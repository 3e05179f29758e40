package models

import (
	"time"

	"github.com/lib/pq"
)

// Society is a campus club. A society has at most one admin.
type Society struct {
	ID                string         `db:"id" json:"id"`
	Name              string         `db:"name" json:"name"`
	Description       string         `db:"description" json:"description"`
	Logo              string         `db:"logo" json:"logo"`
	Email             string         `db:"email" json:"email"`
	Instagram         string         `db:"instagram" json:"instagram"`
	IsRecruitmentOpen bool           `db:"is_recruitment_open" json:"isRecruitmentOpen"`
	RecurringEvents   pq.StringArray `db:"recurring_events" json:"recurringEvents"`
	AdminID           *string        `db:"admin_id" json:"admin,omitempty"`
	CreatedAt         time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updatedAt"`
}

// AdministeredBy reports whether userID is the society's admin.
func (s *Society) AdministeredBy(userID string) bool {
	return s.AdminID != nil && *s.AdminID == userID
}

// SocietySummary is the compact form embedded in other payloads.
type SocietySummary struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	Logo string `db:"logo" json:"logo"`
}

// SocietyFilter captures listing criteria.
type SocietyFilter struct {
	Page   int
	Limit  int
	Search string
}

// SocietyPage is one page of the public society listing.
type SocietyPage struct {
	Societies  []Society `json:"societies"`
	TotalPages int       `json:"totalPages"`
	Total      int       `json:"total"`
}
