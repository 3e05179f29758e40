package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleSuperAdmin UserRole = "superadmin"
	RoleAdmin      UserRole = "admin"
	RoleStudent    UserRole = "student"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleStudent:
		return true
	}
	return false
}

// User represents an application user stored in the users table.
type User struct {
	ID               string    `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	Email            string    `db:"email" json:"email"`
	PasswordHash     string    `db:"password_hash" json:"-"`
	Role             UserRole  `db:"role" json:"role"`
	Avatar           string    `db:"avatar" json:"avatar"`
	Verified         bool      `db:"verified" json:"isVerified"`
	AdminOf          *string   `db:"admin_of" json:"adminOf,omitempty"`
	PendingSocietyID *string   `db:"pending_society_id" json:"pendingSociety,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time `db:"updated_at" json:"updatedAt"`
}

// IsPendingAdmin is true for admin accounts still waiting for approval.
func (u *User) IsPendingAdmin() bool {
	return u.Role == RoleAdmin && !u.Verified
}

// PendingAdmin is an unverified admin together with the society they asked to run.
type PendingAdmin struct {
	User
	RequestedSociety *SocietySummary `json:"requestedSociety,omitempty"`
}
