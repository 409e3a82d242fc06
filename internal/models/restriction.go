package models

import "time"

// RestrictionType identifies what a restriction limits.
type RestrictionType string

const (
	RestrictionMessaging   RestrictionType = "MESSAGING_RESTRICTION"
	RestrictionSuspension  RestrictionType = "ACCOUNT_SUSPENSION"
	RestrictionFeatureLock RestrictionType = "FEATURE_LOCK"
)

// Action identifies a guarded user operation for permission checks.
type Action string

const (
	ActionSendMessage         Action = "MESSAGE"
	ActionCreateBooking       Action = "BOOKING"
	ActionCreateEvent         Action = "EVENT"
	ActionCreateVendorProfile Action = "VENDOR_PROFILE"
)

// Blocks reports whether an active restriction of this type prevents
// the given action. Suspension blocks everything; the narrower types
// each block a single action.
func (t RestrictionType) Blocks(action Action) bool {
	switch t {
	case RestrictionSuspension:
		return true
	case RestrictionMessaging:
		return action == ActionSendMessage
	case RestrictionFeatureLock:
		return action == ActionCreateBooking
	}
	return false
}

// UserRestriction is a time-bounded or permanent limitation on a user.
// ExpiresAt == nil means permanent. At most one active row exists per
// (user, type); repeat offenses extend the existing row. Expiry is a
// computed predicate, not a write: rows are only ever deactivated by
// explicit administrative removal.
type UserRestriction struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	Type          RestrictionType `json:"type"`
	Reason        string          `json:"reason"`
	ExpiresAt     *time.Time      `json:"expires_at,omitempty"`
	IsActive      bool            `json:"is_active"`
	RemovedBy     *string         `json:"removed_by,omitempty"`
	RemovedAt     *time.Time      `json:"removed_at,omitempty"`
	RemovalReason *string         `json:"removal_reason,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// IsPermanent reports whether the restriction never expires.
func (r *UserRestriction) IsPermanent() bool {
	return r.ExpiresAt == nil
}

// ActiveAt reports whether the restriction is in force at the given
// instant: not removed, and either permanent or not yet expired.
func (r *UserRestriction) ActiveAt(now time.Time) bool {
	return r.IsActive && (r.ExpiresAt == nil || !r.ExpiresAt.Before(now))
}
