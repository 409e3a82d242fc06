package integration

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventlane/eventlane/internal/models"
	"github.com/eventlane/eventlane/internal/moderation"
	"github.com/eventlane/eventlane/internal/services"
	"github.com/jackc/pgx/v5"
)

var testDB *TestDB

func TestMain(m *testing.M) {
	ctx := context.Background()

	db, err := SetupTestDatabase(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up test database: %v\n", err)
		os.Exit(1)
	}
	testDB = db

	code := m.Run()

	if err := testDB.Teardown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to tear down test database: %v\n", err)
	}
	os.Exit(code)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func resetTables(t *testing.T) {
	t.Helper()
	require.NoError(t, testDB.CleanupTables(context.Background()))
}

func TestRestrictionApplyMergesIntoActiveRow(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	_, _, _, _, restrictionRepo, _ := InitializeRepositories(testDB.DB)

	user, err := SeedUser(ctx, testDB.Pool, "restricted@example.com", "EventPlanner42", true)
	require.NoError(t, err)

	oneHour := time.Now().Add(time.Hour)
	first, err := restrictionRepo.Apply(ctx, &models.UserRestriction{
		UserID:    user.ID,
		Type:      models.RestrictionMessaging,
		Reason:    "first offense",
		ExpiresAt: &oneHour,
	})
	require.NoError(t, err)
	require.True(t, first.IsActive)

	// A later expiry extends the same row.
	twoHours := time.Now().Add(2 * time.Hour)
	extended, err := restrictionRepo.Apply(ctx, &models.UserRestriction{
		UserID:    user.ID,
		Type:      models.RestrictionMessaging,
		Reason:    "second offense",
		ExpiresAt: &twoHours,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, extended.ID)
	require.NotNil(t, extended.ExpiresAt)
	assert.WithinDuration(t, twoHours, *extended.ExpiresAt, time.Second)

	// An earlier expiry never shortens it.
	thirtyMin := time.Now().Add(30 * time.Minute)
	unchanged, err := restrictionRepo.Apply(ctx, &models.UserRestriction{
		UserID:    user.ID,
		Type:      models.RestrictionMessaging,
		Reason:    "third offense",
		ExpiresAt: &thirtyMin,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, unchanged.ID)
	require.NotNil(t, unchanged.ExpiresAt)
	assert.WithinDuration(t, twoHours, *unchanged.ExpiresAt, time.Second)

	// A nil expiry upgrades the row to permanent.
	permanent, err := restrictionRepo.Apply(ctx, &models.UserRestriction{
		UserID: user.ID,
		Type:   models.RestrictionMessaging,
		Reason: "escalated to permanent",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, permanent.ID)
	assert.Nil(t, permanent.ExpiresAt)

	var count int
	err = testDB.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM user_restrictions WHERE user_id = $1 AND type = $2`,
		user.ID, models.RestrictionMessaging).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "repeat applies must merge, not duplicate")
}

func TestRestrictionRemoveAllowsFreshRow(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	_, _, _, _, restrictionRepo, _ := InitializeRepositories(testDB.DB)

	user, err := SeedUser(ctx, testDB.Pool, "paroled@example.com", "EventPlanner42", true)
	require.NoError(t, err)
	admin, err := SeedUser(ctx, testDB.Pool, "admin@example.com", "EventPlanner42", true)
	require.NoError(t, err)

	restriction, err := restrictionRepo.Apply(ctx, &models.UserRestriction{
		UserID: user.ID,
		Type:   models.RestrictionMessaging,
		Reason: "spamming",
	})
	require.NoError(t, err)

	require.NoError(t, restrictionRepo.Remove(ctx, restriction.ID, admin.ID, "appeal accepted"))

	active, err := restrictionRepo.ListActiveByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, active)

	// Removing twice is a no-op failure, not a silent success.
	err = restrictionRepo.Remove(ctx, restriction.ID, admin.ID, "again")
	assert.ErrorIs(t, err, models.ErrNotFound)

	// A new offense after removal creates a fresh row.
	fresh, err := restrictionRepo.Apply(ctx, &models.UserRestriction{
		UserID: user.ID,
		Type:   models.RestrictionMessaging,
		Reason: "reoffended",
	})
	require.NoError(t, err)
	assert.NotEqual(t, restriction.ID, fresh.ID)
}

func TestTokenConsumeExactlyOnce(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	_, _, _, _, _, tokenRepo := InitializeRepositories(testDB.DB)
	tokenService := services.NewTokenService(tokenRepo, testLogger())

	user, err := SeedUser(ctx, testDB.Pool, "verify@example.com", "EventPlanner42", false)
	require.NoError(t, err)

	plain, err := tokenService.Issue(ctx, user.ID, models.TokenEmailVerification, time.Hour)
	require.NoError(t, err)

	var wg sync.WaitGroup
	successes := make(chan string, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if userID, err := tokenService.Consume(ctx, plain, models.TokenEmailVerification); err == nil {
				successes <- userID
			}
		}()
	}
	wg.Wait()
	close(successes)

	var winners []string
	for userID := range successes {
		winners = append(winners, userID)
	}
	require.Len(t, winners, 1, "concurrent redemption must succeed exactly once")
	assert.Equal(t, user.ID, winners[0])
}

func TestTokenLatestWins(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	_, _, _, _, _, tokenRepo := InitializeRepositories(testDB.DB)
	tokenService := services.NewTokenService(tokenRepo, testLogger())

	user, err := SeedUser(ctx, testDB.Pool, "reset@example.com", "EventPlanner42", true)
	require.NoError(t, err)

	first, err := tokenService.Issue(ctx, user.ID, models.TokenPasswordReset, time.Hour)
	require.NoError(t, err)
	second, err := tokenService.Issue(ctx, user.ID, models.TokenPasswordReset, time.Hour)
	require.NoError(t, err)

	_, err = tokenService.Consume(ctx, first, models.TokenPasswordReset)
	assert.ErrorIs(t, err, models.ErrTokenInvalid)

	userID, err := tokenService.Consume(ctx, second, models.TokenPasswordReset)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
}

func TestReportResolutionIsConditional(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	_, _, _, reportRepo, _, _ := InitializeRepositories(testDB.DB)

	reporter, err := SeedUser(ctx, testDB.Pool, "reporter@example.com", "EventPlanner42", true)
	require.NoError(t, err)
	target, err := SeedUser(ctx, testDB.Pool, "target@example.com", "EventPlanner42", true)
	require.NoError(t, err)
	admin, err := SeedUser(ctx, testDB.Pool, "reviewer@example.com", "EventPlanner42", true)
	require.NoError(t, err)

	report, err := reportRepo.Create(ctx, &models.ModerationReport{
		ReporterID:     reporter.ID,
		ReportedUserID: target.ID,
		ContentType:    "USER_REPORT",
		Reason:         "off-platform payment request",
		Severity:       string(moderation.SeverityMedium),
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReportPendingReview, report.Status)

	err = testDB.DB.WithTransaction(ctx, func(tx pgx.Tx) error {
		_, err := reportRepo.UpdateStatusTx(ctx, tx, report.ID, models.ReportPendingReview, models.ReportInReview, admin.ID, "")
		return err
	})
	require.NoError(t, err)

	// A second reviewer still holding the PENDING_REVIEW snapshot loses.
	err = testDB.DB.WithTransaction(ctx, func(tx pgx.Tx) error {
		_, err := reportRepo.UpdateStatusTx(ctx, tx, report.ID, models.ReportPendingReview, models.ReportInReview, admin.ID, "")
		return err
	})
	assert.ErrorIs(t, err, models.ErrConflict)

	err = testDB.DB.WithTransaction(ctx, func(tx pgx.Tx) error {
		_, err := reportRepo.UpdateStatusTx(ctx, tx, report.ID, models.ReportInReview, models.ReportResolved, admin.ID, "confirmed violation")
		return err
	})
	require.NoError(t, err)

	resolved, err := reportRepo.GetByID(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportResolved, resolved.Status)
	require.NotNil(t, resolved.ResolutionNotes)
	assert.Equal(t, "confirmed violation", *resolved.ResolutionNotes)
}

func TestAutomatedEnforcementRoundTrip(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	_, messageRepo, warningRepo, reportRepo, restrictionRepo, _ := InitializeRepositories(testDB.DB)

	enforcement := services.NewEnforcementService(
		testDB.DB, messageRepo, warningRepo, reportRepo, restrictionRepo,
		services.DefaultEnforcementConfig(), testLogger())

	sender, err := SeedUser(ctx, testDB.Pool, "sender@example.com", "EventPlanner42", true)
	require.NoError(t, err)
	recipient, err := SeedUser(ctx, testDB.Pool, "recipient@example.com", "EventPlanner42", true)
	require.NoError(t, err)

	msg, err := messageRepo.Create(ctx, &models.Message{
		SenderID:    sender.ID,
		RecipientID: recipient.ID,
		Body:        "whatsapp me at 555-123-4567 and we can settle up on venmo",
	})
	require.NoError(t, err)

	verdict, err := enforcement.OnMessageSent(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, moderation.SeverityHigh, verdict.Severity)

	decision, err := enforcement.CanPerform(ctx, sender.ID, models.ActionSendMessage)
	require.NoError(t, err)
	assert.False(t, decision.CanPerform)
	assert.Equal(t, "messaging_restricted", decision.Reason)

	// Bookings are untouched by a messaging restriction.
	decision, err = enforcement.CanPerform(ctx, sender.ID, models.ActionCreateBooking)
	require.NoError(t, err)
	assert.True(t, decision.CanPerform)

	warnings, err := warningRepo.ListByUser(ctx, sender.ID)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, models.WarningIssuerAutomated, warnings[0].IssuedBy)
}
