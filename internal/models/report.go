package models

import "time"

// ReportStatus is the review state of a moderation report.
type ReportStatus string

const (
	ReportPendingReview ReportStatus = "PENDING_REVIEW"
	ReportInReview      ReportStatus = "IN_REVIEW"
	ReportResolved      ReportStatus = "RESOLVED"
)

// CanTransitionTo enforces the one-directional review flow
// PENDING_REVIEW -> IN_REVIEW -> RESOLVED.
func (s ReportStatus) CanTransitionTo(next ReportStatus) bool {
	switch s {
	case ReportPendingReview:
		return next == ReportInReview || next == ReportResolved
	case ReportInReview:
		return next == ReportResolved
	}
	return false
}

// ModerationReport records a scanner-triggered or user-submitted
// complaint about content. FlaggedKeywords carries the scanner's
// matched terms for automated reports.
type ModerationReport struct {
	ID              string       `json:"id"`
	ReporterID      string       `json:"reporter_id"`
	ReportedUserID  string       `json:"reported_user_id"`
	ContentID       *string      `json:"content_id,omitempty"`
	ContentType     string       `json:"content_type"`
	Reason          string       `json:"reason"`
	FlaggedKeywords []string     `json:"flagged_keywords,omitempty"`
	Severity        string       `json:"severity"`
	Status          ReportStatus `json:"status"`
	IsAutomated     bool         `json:"is_automated"`
	ReviewedBy      *string      `json:"reviewed_by,omitempty"`
	ResolutionNotes *string      `json:"resolution_notes,omitempty"`
	ReviewedAt      *time.Time   `json:"reviewed_at,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
}
