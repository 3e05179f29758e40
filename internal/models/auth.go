package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RegisterRequest creates a student or a pending admin account.
type RegisterRequest struct {
	Name             string   `json:"name" form:"name" validate:"required,min=2,max=100"`
	Email            string   `json:"email" form:"email" validate:"required,email"`
	Password         string   `json:"password" form:"password" validate:"required,min=6"`
	Role             UserRole `json:"role" form:"role" validate:"required,oneof=student admin"`
	PendingSocietyID string   `json:"pendingSociety" form:"pendingSociety" validate:"omitempty,uuid"`
	Avatar           string   `json:"-" form:"-"`
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued tokens and user info.
type LoginResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresIn    int64     `json:"expiresIn"`
	User         UserInfo  `json:"user"`
	IssuedAt     time.Time `json:"issuedAt"`
}

// RefreshTokenRequest exchanges a refresh token for a new access token.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
	IP           string `json:"-"`
	UserAgent    string `json:"-"`
}

// RefreshTokenResponse returns the refreshed tokens.
type RefreshTokenResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresIn    int64     `json:"expiresIn"`
	IssuedAt     time.Time `json:"issuedAt"`
}

// ChangePasswordRequest payload for updating password.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

// UpdateAccountRequest changes the caller's display name and email.
type UpdateAccountRequest struct {
	Name  string `json:"name" validate:"required,min=2,max=100"`
	Email string `json:"email" validate:"required,email"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Role     UserRole `json:"role"`
	Avatar   string   `json:"avatar"`
	Verified bool     `json:"isVerified"`
	AdminOf  *string  `json:"adminOf,omitempty"`
}

// NewUserInfo projects the public part of a user.
func NewUserInfo(u *User) UserInfo {
	return UserInfo{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Role:     u.Role,
		Avatar:   u.Avatar,
		Verified: u.Verified,
		AdminOf:  u.AdminOf,
	}
}

// JWTClaims represents the JWT payload for access tokens. It is also the caller identity
// handed to every service operation.
type JWTClaims struct {
	UserID  string   `json:"userId"`
	Role    UserRole `json:"role"`
	Email   string   `json:"email"`
	Name    string   `json:"name"`
	AdminOf string   `json:"adminOf,omitempty"`
	jwt.RegisteredClaims
}
