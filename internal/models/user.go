package models

import (
	"time"
)

// User is the minimal account row the trust core needs: identity,
// credentials, verification state, and role for admin gating.
type User struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"`
	Name          string     `json:"name"`
	EmailVerified bool       `json:"email_verified"`
	Role          string     `json:"role"` // "user" or "admin"
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
