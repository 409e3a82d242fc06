package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventlane/eventlane/internal/models"
)

func TestTokenService_IssueAndConsume(t *testing.T) {
	repo := newFakeTokenRepo()
	svc := NewTokenService(repo, testLogger())

	plain, err := svc.Issue(context.Background(), "user-1", models.TokenEmailVerification, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, plain)
	assert.NotContains(t, repo.tokens, plain, "only the hash is persisted")

	userID, err := svc.Consume(context.Background(), plain, models.TokenEmailVerification)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestTokenService_ConsumeIsSingleUse(t *testing.T) {
	repo := newFakeTokenRepo()
	svc := NewTokenService(repo, testLogger())

	plain, err := svc.Issue(context.Background(), "user-1", models.TokenPasswordReset, time.Hour)
	require.NoError(t, err)

	_, err = svc.Consume(context.Background(), plain, models.TokenPasswordReset)
	require.NoError(t, err)

	_, err = svc.Consume(context.Background(), plain, models.TokenPasswordReset)
	assert.ErrorIs(t, err, models.ErrTokenInvalid)
}

func TestTokenService_IssueInvalidatesPriorTokens(t *testing.T) {
	repo := newFakeTokenRepo()
	svc := NewTokenService(repo, testLogger())

	first, err := svc.Issue(context.Background(), "user-1", models.TokenEmailVerification, time.Hour)
	require.NoError(t, err)

	second, err := svc.Issue(context.Background(), "user-1", models.TokenEmailVerification, time.Hour)
	require.NoError(t, err)

	_, err = svc.Consume(context.Background(), first, models.TokenEmailVerification)
	assert.ErrorIs(t, err, models.ErrTokenInvalid, "an older token stops being redeemable")

	userID, err := svc.Consume(context.Background(), second, models.TokenEmailVerification)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestTokenService_IssueDoesNotInvalidateOtherTypes(t *testing.T) {
	repo := newFakeTokenRepo()
	svc := NewTokenService(repo, testLogger())

	verify, err := svc.Issue(context.Background(), "user-1", models.TokenEmailVerification, time.Hour)
	require.NoError(t, err)

	_, err = svc.Issue(context.Background(), "user-1", models.TokenPasswordReset, time.Hour)
	require.NoError(t, err)

	_, err = svc.Consume(context.Background(), verify, models.TokenEmailVerification)
	assert.NoError(t, err)
}

func TestTokenService_ConsumeRejectsWrongType(t *testing.T) {
	repo := newFakeTokenRepo()
	svc := NewTokenService(repo, testLogger())

	plain, err := svc.Issue(context.Background(), "user-1", models.TokenEmailVerification, time.Hour)
	require.NoError(t, err)

	_, err = svc.Consume(context.Background(), plain, models.TokenPasswordReset)
	assert.ErrorIs(t, err, models.ErrTokenInvalid)
}

func TestTokenService_ConsumeRejectsExpired(t *testing.T) {
	repo := newFakeTokenRepo()
	svc := NewTokenService(repo, testLogger())

	plain, err := svc.Issue(context.Background(), "user-1", models.TokenPasswordReset, -time.Minute)
	require.NoError(t, err)

	_, err = svc.Consume(context.Background(), plain, models.TokenPasswordReset)
	assert.ErrorIs(t, err, models.ErrTokenInvalid)
}

func TestTokenService_ConsumeRejectsEmptyAndUnknown(t *testing.T) {
	svc := NewTokenService(newFakeTokenRepo(), testLogger())

	_, err := svc.Consume(context.Background(), "", models.TokenEmailVerification)
	assert.ErrorIs(t, err, models.ErrTokenInvalid)

	_, err = svc.Consume(context.Background(), "never-issued", models.TokenEmailVerification)
	assert.ErrorIs(t, err, models.ErrTokenInvalid)
}

func TestTokenService_CleanupExpired(t *testing.T) {
	repo := newFakeTokenRepo()
	svc := NewTokenService(repo, testLogger())

	_, err := svc.Issue(context.Background(), "user-1", models.TokenEmailVerification, -time.Minute)
	require.NoError(t, err)
	_, err = svc.Issue(context.Background(), "user-2", models.TokenEmailVerification, time.Hour)
	require.NoError(t, err)

	removed, err := svc.CleanupExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	assert.Len(t, repo.tokens, 1)
}
