package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/eventlane/eventlane/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeTxRunner runs the function with a nil transaction; the fake repos
// below ignore the tx argument.
type fakeTxRunner struct{}

func (fakeTxRunner) WithTransaction(_ context.Context, fn func(pgx.Tx) error) error {
	return fn(nil)
}

type fakeMessageRepo struct {
	GetByIDFunc func(ctx context.Context, id string) (*models.Message, error)
}

func (f *fakeMessageRepo) GetByID(ctx context.Context, id string) (*models.Message, error) {
	return f.GetByIDFunc(ctx, id)
}

type fakeWarningRepo struct {
	warnings []*models.UserWarning
	count    int
}

func (f *fakeWarningRepo) Create(_ context.Context, w *models.UserWarning) (*models.UserWarning, error) {
	f.warnings = append(f.warnings, w)
	return w, nil
}

func (f *fakeWarningRepo) CountByUser(context.Context, string) (int, error) {
	return f.count, nil
}

func (f *fakeWarningRepo) ListByUser(context.Context, string) ([]*models.UserWarning, error) {
	return f.warnings, nil
}

type fakeReportRepo struct {
	created   []*models.ModerationReport
	reports   map[string]*models.ModerationReport
	updated   []*models.ModerationReport
	recent    int
	confirmed int
}

func newFakeReportRepo() *fakeReportRepo {
	return &fakeReportRepo{reports: make(map[string]*models.ModerationReport)}
}

func (f *fakeReportRepo) Create(_ context.Context, r *models.ModerationReport) (*models.ModerationReport, error) {
	if r.Status == "" {
		r.Status = models.ReportPendingReview
	}
	f.created = append(f.created, r)
	return r, nil
}

func (f *fakeReportRepo) GetByID(_ context.Context, id string) (*models.ModerationReport, error) {
	r, ok := f.reports[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return r, nil
}

func (f *fakeReportRepo) CountAgainstUserSince(context.Context, string, time.Time) (int, error) {
	return f.recent, nil
}

func (f *fakeReportRepo) CountConfirmedViolationsTx(context.Context, pgx.Tx, string) (int, error) {
	return f.confirmed, nil
}

func (f *fakeReportRepo) UpdateStatusTx(_ context.Context, _ pgx.Tx, id string, from, to models.ReportStatus, reviewerID, notes string) (*models.ModerationReport, error) {
	r, ok := f.reports[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if r.Status != from {
		return nil, models.ErrConflict
	}
	r.Status = to
	r.ReviewedBy = &reviewerID
	r.ResolutionNotes = &notes
	f.updated = append(f.updated, r)
	return r, nil
}

type fakeRestrictionRepo struct {
	applied []*models.UserRestriction
	active  []*models.UserRestriction
	removed []string
}

func (f *fakeRestrictionRepo) Apply(_ context.Context, r *models.UserRestriction) (*models.UserRestriction, error) {
	r.IsActive = true
	f.applied = append(f.applied, r)
	return r, nil
}

func (f *fakeRestrictionRepo) ApplyTx(ctx context.Context, _ pgx.Tx, r *models.UserRestriction) (*models.UserRestriction, error) {
	return f.Apply(ctx, r)
}

func (f *fakeRestrictionRepo) ListActiveByUser(context.Context, string) ([]*models.UserRestriction, error) {
	return f.active, nil
}

func (f *fakeRestrictionRepo) Remove(_ context.Context, id, _, _ string) error {
	f.removed = append(f.removed, id)
	return nil
}

type fakeUserRepo struct {
	byID    map[string]*models.User
	byEmail map[string]*models.User
	nextID  int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:    make(map[string]*models.User),
		byEmail: make(map[string]*models.User),
	}
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User) (*models.User, error) {
	if _, exists := f.byEmail[user.Email]; exists {
		return nil, models.ErrConflict
	}
	f.nextID++
	created := *user
	created.ID = fmt.Sprintf("user-%d", f.nextID)
	f.byID[created.ID] = &created
	f.byEmail[created.Email] = &created
	return &created, nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, models.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) MarkEmailVerified(_ context.Context, id string) error {
	u, ok := f.byID[id]
	if !ok {
		return models.ErrNotFound
	}
	u.EmailVerified = true
	return nil
}

func (f *fakeUserRepo) UpdatePasswordHash(_ context.Context, id, passwordHash string) error {
	u, ok := f.byID[id]
	if !ok {
		return models.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

type fakeEmailService struct {
	verificationTokens []string
	resetTokens        []string
	failSends          bool
}

func (f *fakeEmailService) SendVerificationEmail(_ context.Context, _, token string, _ time.Time) error {
	if f.failSends {
		return errors.New("smtp unreachable")
	}
	f.verificationTokens = append(f.verificationTokens, token)
	return nil
}

func (f *fakeEmailService) SendPasswordResetEmail(_ context.Context, _, token string, _ time.Time) error {
	if f.failSends {
		return errors.New("smtp unreachable")
	}
	f.resetTokens = append(f.resetTokens, token)
	return nil
}

type fakeTokenIssuer struct{}

func (fakeTokenIssuer) GenerateAccessToken(userID, _ string) (string, error) {
	return "signed-token-for-" + userID, nil
}

type fakeTokenRepo struct {
	tokens  map[string]*models.VerificationToken
	deleted int
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]*models.VerificationToken)}
}

func (f *fakeTokenRepo) Create(_ context.Context, t *models.VerificationToken) (*models.VerificationToken, error) {
	f.tokens[t.TokenHash] = t
	return t, nil
}

func (f *fakeTokenRepo) DeleteUnusedByUserAndType(_ context.Context, userID string, tokenType models.TokenType) error {
	for hash, t := range f.tokens {
		if t.UserID == userID && t.Type == tokenType && t.UsedAt == nil {
			delete(f.tokens, hash)
			f.deleted++
		}
	}
	return nil
}

func (f *fakeTokenRepo) Consume(_ context.Context, tokenHash string, tokenType models.TokenType) (*models.VerificationToken, error) {
	t, ok := f.tokens[tokenHash]
	if !ok || t.Type != tokenType || t.UsedAt != nil || time.Now().After(t.ExpiresAt) {
		return nil, models.ErrNotFound
	}
	now := time.Now()
	t.UsedAt = &now
	return t, nil
}

func (f *fakeTokenRepo) CleanupExpired(context.Context) (int64, error) {
	var n int64
	for hash, t := range f.tokens {
		if time.Now().After(t.ExpiresAt) {
			delete(f.tokens, hash)
			n++
		}
	}
	return n, nil
}
