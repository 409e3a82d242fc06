package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRestrictionTypeBlocks(t *testing.T) {
	tests := []struct {
		name    string
		rType   RestrictionType
		action  Action
		blocked bool
	}{
		{"suspension blocks messaging", RestrictionSuspension, ActionSendMessage, true},
		{"suspension blocks bookings", RestrictionSuspension, ActionCreateBooking, true},
		{"suspension blocks events", RestrictionSuspension, ActionCreateEvent, true},
		{"suspension blocks vendor profiles", RestrictionSuspension, ActionCreateVendorProfile, true},
		{"messaging restriction blocks messaging", RestrictionMessaging, ActionSendMessage, true},
		{"messaging restriction allows bookings", RestrictionMessaging, ActionCreateBooking, false},
		{"feature lock blocks bookings", RestrictionFeatureLock, ActionCreateBooking, true},
		{"feature lock allows messaging", RestrictionFeatureLock, ActionSendMessage, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.blocked, tt.rType.Blocks(tt.action))
		})
	}
}

func TestRestrictionActiveAt(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	permanent := &UserRestriction{IsActive: true, ExpiresAt: nil}
	assert.True(t, permanent.ActiveAt(now))
	assert.True(t, permanent.IsPermanent())

	current := &UserRestriction{IsActive: true, ExpiresAt: &future}
	assert.True(t, current.ActiveAt(now))
	assert.False(t, current.IsPermanent())

	// Expiry is evaluated at read time; the row needs no write to lapse
	lapsed := &UserRestriction{IsActive: true, ExpiresAt: &past}
	assert.False(t, lapsed.ActiveAt(now))

	removed := &UserRestriction{IsActive: false, ExpiresAt: &future}
	assert.False(t, removed.ActiveAt(now))
}

func TestReportStatusTransitions(t *testing.T) {
	assert.True(t, ReportPendingReview.CanTransitionTo(ReportInReview))
	assert.True(t, ReportPendingReview.CanTransitionTo(ReportResolved))
	assert.True(t, ReportInReview.CanTransitionTo(ReportResolved))

	// One-directional: no path backwards from a later state
	assert.False(t, ReportInReview.CanTransitionTo(ReportPendingReview))
	assert.False(t, ReportResolved.CanTransitionTo(ReportInReview))
	assert.False(t, ReportResolved.CanTransitionTo(ReportPendingReview))
	assert.False(t, ReportResolved.CanTransitionTo(ReportResolved))
	assert.False(t, ReportPendingReview.CanTransitionTo(ReportPendingReview))
}
