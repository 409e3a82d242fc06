package models

import "time"

// Issuer values for warnings not created by a human reviewer.
const (
	WarningIssuerSystem    = "SYSTEM"
	WarningIssuerAutomated = "AUTOMATED_SYSTEM"
)

// UserWarning records a single enforcement warning against a user.
// Warnings are append-only: never mutated or deleted, kept forever as
// the audit trail the escalation decisions are computed from.
type UserWarning struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Reason      string    `json:"reason"`
	IssuedBy    string    `json:"issued_by"`
	IsAutomated bool      `json:"is_automated"`
	CreatedAt   time.Time `json:"created_at"`
}
