package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token and the claims it carries.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresIn int64     `json:"expires_in"`
	IssuedAt  time.Time `json:"issued_at"`
	User      UserInfo  `json:"user"`
}

// RegisterRequest creates a new account. SchoolID is required for
// teacher and student roles.
type RegisterRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=6"`
	Name     string  `json:"name" validate:"required"`
	Role     string  `json:"role" validate:"required,oneof=admin teacher student"`
	SchoolID *string `json:"school_id" validate:"omitempty"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	Name     string   `json:"name"`
	Role     UserRole `json:"role"`
	SchoolID *string  `json:"school_id,omitempty"`
}

// SessionClaims is the JWT payload for session tokens. SchoolID scopes
// every downstream entitlement decision; handlers trust only these
// gate-verified fields, never client-supplied identity.
type SessionClaims struct {
	UserID   string   `json:"user_id"`
	Email    string   `json:"email"`
	Role     UserRole `json:"role"`
	SchoolID *string  `json:"school_id,omitempty"`
	Name     string   `json:"name"`
	jwt.RegisteredClaims
}

// Tenant returns the claims' school id or empty when unbound.
func (c *SessionClaims) Tenant() string {
	if c == nil || c.SchoolID == nil {
		return ""
	}
	return *c.SchoolID
}
