package models

import "time"

// TokenType identifies what a verification token proves.
type TokenType string

const (
	TokenEmailVerification TokenType = "EMAIL_VERIFICATION"
	TokenPasswordReset     TokenType = "PASSWORD_RESET"
)

// VerificationToken is a single-use, typed, expiring credential. Only
// the SHA-256 hash of the issued string is stored. The transition
// UsedAt nil -> timestamp is terminal and irreversible.
type VerificationToken struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	TokenHash string     `json:"-"`
	Type      TokenType  `json:"type"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// IsExpired checks if the token has expired.
func (t *VerificationToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// IsUsed checks if the token has already been consumed.
func (t *VerificationToken) IsUsed() bool {
	return t.UsedAt != nil
}

// IsValid checks if the token can still be consumed.
func (t *VerificationToken) IsValid() bool {
	return !t.IsExpired() && !t.IsUsed()
}
