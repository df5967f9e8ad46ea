// Package domain holds the entities the admin front end works with, as seen
// from the RECOVA core API. Authoritative storage is the core's; this layer
// only mirrors its wire shapes.
package domain

import "time"

// Role is the access role attached to a user profile. The DIRECTOR role
// unlocks client management and remark abbreviations in the UI; the core API
// enforces it independently.
type Role struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

const RoleDirector = "DIRECTOR"

// User is the profile record returned by GET /auth/me.
type User struct {
	ID           int    `json:"id"`
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	EmployeeCode string `json:"employee_code,omitempty"`
	Department   string `json:"department,omitempty"`
	Designation  string `json:"designation,omitempty"`
	Status       string `json:"status,omitempty"`
	Role         Role   `json:"role"`
}

// IsDirector reports whether the user may manage clients and abbreviations.
func (u *User) IsDirector() bool {
	return u.Role.Code == RoleDirector
}

// TokenResponse is the body of a successful POST /auth/login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Session pairs a bearer token with the profile it authenticates. Created on
// login, restored from a persisted token at startup, destroyed on logout or
// on any 401 from the core API.
type Session struct {
	Token     string    `json:"access_token"`
	User      User      `json:"user"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}
