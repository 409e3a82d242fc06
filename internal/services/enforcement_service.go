package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/eventlane/eventlane/internal/models"
	"github.com/eventlane/eventlane/internal/moderation"
	"github.com/jackc/pgx/v5"
)

// EnforcementMessageRepository is the subset of MessageRepository the
// enforcement service needs.
type EnforcementMessageRepository interface {
	GetByID(ctx context.Context, id string) (*models.Message, error)
}

// EnforcementWarningRepository handles the append-only warning record.
type EnforcementWarningRepository interface {
	Create(ctx context.Context, w *models.UserWarning) (*models.UserWarning, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	ListByUser(ctx context.Context, userID string) ([]*models.UserWarning, error)
}

// EnforcementReportRepository handles moderation reports, including the
// transactional operations used by report resolution.
type EnforcementReportRepository interface {
	Create(ctx context.Context, report *models.ModerationReport) (*models.ModerationReport, error)
	GetByID(ctx context.Context, id string) (*models.ModerationReport, error)
	CountAgainstUserSince(ctx context.Context, userID string, since time.Time) (int, error)
	CountConfirmedViolationsTx(ctx context.Context, tx pgx.Tx, userID string) (int, error)
	UpdateStatusTx(ctx context.Context, tx pgx.Tx, id string, from, to models.ReportStatus, reviewerID, notes string) (*models.ModerationReport, error)
}

// EnforcementRestrictionRepository handles restriction rows.
type EnforcementRestrictionRepository interface {
	Apply(ctx context.Context, restriction *models.UserRestriction) (*models.UserRestriction, error)
	ApplyTx(ctx context.Context, tx pgx.Tx, restriction *models.UserRestriction) (*models.UserRestriction, error)
	ListActiveByUser(ctx context.Context, userID string) ([]*models.UserRestriction, error)
	Remove(ctx context.Context, id, removedBy, reason string) error
}

// TxRunner runs a function inside a database transaction.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(pgx.Tx) error) error
}

// EnforcementConfig holds the escalation policy knobs.
type EnforcementConfig struct {
	RepeatOffenseRestriction time.Duration // messaging restriction for HIGH severity or repeat MEDIUM
	FirstOffenseRestriction  time.Duration // messaging restriction for a first MEDIUM offense
	ReportWindow             time.Duration // trailing window for counting manual reports
	ReportThreshold          int           // manual reports within the window that trigger a restriction
	SecondViolationDuration  time.Duration // messaging restriction on the second confirmed violation
	SuspensionThreshold      int           // confirmed violations that trigger permanent suspension
}

// DefaultEnforcementConfig returns the production escalation policy.
func DefaultEnforcementConfig() EnforcementConfig {
	return EnforcementConfig{
		RepeatOffenseRestriction: 7 * 24 * time.Hour,
		FirstOffenseRestriction:  24 * time.Hour,
		ReportWindow:             30 * 24 * time.Hour,
		ReportThreshold:          3,
		SecondViolationDuration:  30 * 24 * time.Hour,
		SuspensionThreshold:      3,
	}
}

// PermissionDecision is the outcome of a guard check before a sensitive
// action. A denial is an expected policy outcome, not an error.
type PermissionDecision struct {
	CanPerform bool   `json:"can_perform"`
	Reason     string `json:"reason,omitempty"`
}

// EnforcementService is the escalation engine: it turns scanner
// verdicts and report history into warnings, restrictions, and
// suspensions, and answers permission checks for sensitive actions.
//
// Note the lookback asymmetry carried over from the original policy:
// the automated path counts warnings all-time, while the manual-report
// path uses a rolling window. Flagged for product review; both
// behaviors are preserved deliberately.
type EnforcementService struct {
	tx           TxRunner
	messages     EnforcementMessageRepository
	warnings     EnforcementWarningRepository
	reports      EnforcementReportRepository
	restrictions EnforcementRestrictionRepository
	config       EnforcementConfig
	logger       *slog.Logger
}

// NewEnforcementService creates a new EnforcementService.
func NewEnforcementService(
	tx TxRunner,
	messages EnforcementMessageRepository,
	warnings EnforcementWarningRepository,
	reports EnforcementReportRepository,
	restrictions EnforcementRestrictionRepository,
	config EnforcementConfig,
	logger *slog.Logger,
) *EnforcementService {
	return &EnforcementService{
		tx:           tx,
		messages:     messages,
		warnings:     warnings,
		reports:      reports,
		restrictions: restrictions,
		config:       config,
		logger:       logger,
	}
}

// OnMessageSent scans a persisted message and escalates if it carries
// circumvention signals. The decision table:
//
//	HIGH severity            -> warning + messaging restriction (repeat-offense duration)
//	MEDIUM, prior warnings   -> warning + messaging restriction (repeat-offense duration)
//	MEDIUM, first offense    -> warning + messaging restriction (first-offense duration)
//	LOW                      -> warning only
func (s *EnforcementService) OnMessageSent(ctx context.Context, messageID string) (moderation.Verdict, error) {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		s.logger.Error("failed to load message for scanning",
			slog.String("message_id", messageID),
			slog.Any("error", err))
		return moderation.Verdict{}, fmt.Errorf("failed to load message: %w", err)
	}

	verdict := moderation.Scan(msg.Body)
	if !verdict.Flagged {
		return verdict, nil
	}

	reason := fmt.Sprintf("Platform circumvention detected in message (severity %s)", verdict.Severity)

	_, err = s.reports.Create(ctx, &models.ModerationReport{
		ReporterID:      msg.SenderID,
		ReportedUserID:  msg.SenderID,
		ContentID:       &msg.ID,
		ContentType:     "MESSAGE",
		Reason:          reason,
		FlaggedKeywords: verdict.Terms,
		Severity:        string(verdict.Severity),
		IsAutomated:     true,
	})
	if err != nil {
		return verdict, fmt.Errorf("failed to record automated report: %w", err)
	}

	// All-time lookback, unlike the manual path's rolling window.
	warningCount, err := s.warnings.CountByUser(ctx, msg.SenderID)
	if err != nil {
		return verdict, fmt.Errorf("failed to count warnings: %w", err)
	}

	if err := s.issueWarning(ctx, msg.SenderID, reason, models.WarningIssuerAutomated, true); err != nil {
		return verdict, err
	}

	var restrictFor time.Duration
	switch {
	case verdict.Severity == moderation.SeverityHigh:
		restrictFor = s.config.RepeatOffenseRestriction
	case verdict.Severity == moderation.SeverityMedium && warningCount >= 1:
		restrictFor = s.config.RepeatOffenseRestriction
	case verdict.Severity == moderation.SeverityMedium:
		restrictFor = s.config.FirstOffenseRestriction
	default:
		// LOW: warning only.
		return verdict, nil
	}

	expiresAt := time.Now().Add(restrictFor)
	if _, err := s.restrictions.Apply(ctx, &models.UserRestriction{
		UserID:    msg.SenderID,
		Type:      models.RestrictionMessaging,
		Reason:    reason,
		ExpiresAt: &expiresAt,
	}); err != nil {
		return verdict, err
	}

	s.logger.Info("automated enforcement applied",
		slog.String("user_id", msg.SenderID),
		slog.String("severity", string(verdict.Severity)),
		slog.Duration("restriction", restrictFor))

	return verdict, nil
}

// FileReport records a user-submitted report and escalates based on the
// number of reports against the target within the trailing window:
// at the threshold a messaging restriction is applied, below it the
// target receives a warning.
func (s *EnforcementService) FileReport(ctx context.Context, reporterID, reportedUserID, contentRef, reason string) (*models.ModerationReport, error) {
	var contentID *string
	if contentRef != "" {
		contentID = &contentRef
	}

	report, err := s.reports.Create(ctx, &models.ModerationReport{
		ReporterID:     reporterID,
		ReportedUserID: reportedUserID,
		ContentID:      contentID,
		ContentType:    "USER_REPORT",
		Reason:         reason,
		Severity:       string(moderation.SeverityMedium),
		IsAutomated:    false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	since := time.Now().Add(-s.config.ReportWindow)
	recentReports, err := s.reports.CountAgainstUserSince(ctx, reportedUserID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count recent reports: %w", err)
	}

	switch {
	case recentReports >= s.config.ReportThreshold:
		expiresAt := time.Now().Add(s.config.RepeatOffenseRestriction)
		escalationReason := fmt.Sprintf("Multiple user reports (%d in the last %d days)",
			recentReports, int(s.config.ReportWindow.Hours()/24))
		if _, err := s.restrictions.Apply(ctx, &models.UserRestriction{
			UserID:    reportedUserID,
			Type:      models.RestrictionMessaging,
			Reason:    escalationReason,
			ExpiresAt: &expiresAt,
		}); err != nil {
			return nil, err
		}
		s.logger.Info("report threshold reached, restriction applied",
			slog.String("user_id", reportedUserID),
			slog.Int("recent_reports", recentReports))
	case recentReports >= 1:
		if err := s.issueWarning(ctx, reportedUserID, "Reported by another user: "+reason, models.WarningIssuerSystem, false); err != nil {
			return nil, err
		}
	}

	return report, nil
}

// ResolveReport advances a report through the one-directional review
// flow. When a resolution confirms a violation, the consequential
// restriction is written in the same transaction as the resolution:
// either both commit or neither does.
func (s *EnforcementService) ResolveReport(ctx context.Context, reportID, reviewerID string, status models.ReportStatus, notes string) (*models.ModerationReport, error) {
	report, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}

	if !report.Status.CanTransitionTo(status) {
		return nil, models.ErrInvalidStatusTransition
	}

	var resolved *models.ModerationReport
	err = s.tx.WithTransaction(ctx, func(tx pgx.Tx) error {
		updated, err := s.reports.UpdateStatusTx(ctx, tx, reportID, report.Status, status, reviewerID, notes)
		if err != nil {
			return err
		}
		resolved = updated

		if status != models.ReportResolved || !indicatesViolation(notes) {
			return nil
		}

		// Count includes the report just resolved in this transaction.
		confirmed, err := s.reports.CountConfirmedViolationsTx(ctx, tx, report.ReportedUserID)
		if err != nil {
			return err
		}

		switch {
		case confirmed >= s.config.SuspensionThreshold:
			_, err = s.restrictions.ApplyTx(ctx, tx, &models.UserRestriction{
				UserID:    report.ReportedUserID,
				Type:      models.RestrictionSuspension,
				Reason:    fmt.Sprintf("Permanent suspension after %d confirmed violations", confirmed),
				ExpiresAt: nil,
			})
		case confirmed == 2:
			expiresAt := time.Now().Add(s.config.SecondViolationDuration)
			_, err = s.restrictions.ApplyTx(ctx, tx, &models.UserRestriction{
				UserID:    report.ReportedUserID,
				Type:      models.RestrictionMessaging,
				Reason:    "Second confirmed violation",
				ExpiresAt: &expiresAt,
			})
		}
		return err
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to resolve report",
			slog.String("report_id", reportID),
			slog.String("reviewer_id", reviewerID),
			slog.Any("error", err))
		return nil, err
	}

	return resolved, nil
}

// CanPerform checks whether any currently-active restriction blocks the
// action. The first matching restriction short-circuits. Expiry is
// evaluated as a predicate at read time; no write is needed for a
// lapsed restriction to stop blocking.
func (s *EnforcementService) CanPerform(ctx context.Context, userID string, action models.Action) (PermissionDecision, error) {
	active, err := s.restrictions.ListActiveByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to load active restrictions",
			slog.String("user_id", userID),
			slog.Any("error", err))
		return PermissionDecision{}, fmt.Errorf("failed to load restrictions: %w", err)
	}

	now := time.Now()
	for _, restriction := range active {
		if !restriction.ActiveAt(now) {
			continue
		}
		if restriction.Type.Blocks(action) {
			return PermissionDecision{CanPerform: false, Reason: restrictionReason(restriction.Type)}, nil
		}
	}

	return PermissionDecision{CanPerform: true}, nil
}

// RemoveRestriction lifts a restriction by administrative override.
func (s *EnforcementService) RemoveRestriction(ctx context.Context, restrictionID, adminID, reason string) error {
	if err := s.restrictions.Remove(ctx, restrictionID, adminID, reason); err != nil {
		return err
	}

	s.logger.Info("restriction removed by administrator",
		slog.String("restriction_id", restrictionID),
		slog.String("admin_id", adminID))

	return nil
}

// UserStanding returns a user's active restrictions and warning history.
func (s *EnforcementService) UserStanding(ctx context.Context, userID string) ([]*models.UserRestriction, []*models.UserWarning, error) {
	restrictions, err := s.restrictions.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	warnings, err := s.warnings.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	return restrictions, warnings, nil
}

func (s *EnforcementService) issueWarning(ctx context.Context, userID, reason, issuedBy string, automated bool) error {
	_, err := s.warnings.Create(ctx, &models.UserWarning{
		UserID:      userID,
		Reason:      reason,
		IssuedBy:    issuedBy,
		IsAutomated: automated,
	})
	if err != nil {
		return fmt.Errorf("failed to issue warning: %w", err)
	}
	return nil
}

// indicatesViolation decides whether resolution notes confirm a
// violation. The reviewer's free text drives escalation, so the check
// is a case-insensitive substring match on "violation".
func indicatesViolation(notes string) bool {
	return strings.Contains(strings.ToLower(notes), "violation")
}

func restrictionReason(t models.RestrictionType) string {
	switch t {
	case models.RestrictionSuspension:
		return "account_suspended"
	case models.RestrictionMessaging:
		return "messaging_restricted"
	case models.RestrictionFeatureLock:
		return "feature_locked"
	}
	return "action_restricted"
}
