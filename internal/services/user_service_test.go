package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventlane/eventlane/internal/models"
	"github.com/eventlane/eventlane/pkg/auth"
)

func newUserService(emailSvc *fakeEmailService) (*UserService, *fakeUserRepo) {
	users := newFakeUserRepo()
	tokens := NewTokenService(newFakeTokenRepo(), testLogger())
	svc := NewUserService(users, tokens, emailSvc, fakeTokenIssuer{},
		24*time.Hour, 30*time.Minute, testLogger())
	return svc, users
}

func TestRegister_CreatesUserAndSendsVerification(t *testing.T) {
	emailSvc := &fakeEmailService{}
	svc, users := newUserService(emailSvc)

	user, err := svc.Register(context.Background(), "planner@example.com", "EventPlanner42", "Pat Planner")
	require.NoError(t, err)

	assert.Equal(t, "user", user.Role)
	assert.False(t, user.EmailVerified)
	assert.NoError(t, auth.ComparePassword(user.PasswordHash, "EventPlanner42"))
	require.Len(t, emailSvc.verificationTokens, 1)

	stored, err := users.GetByEmail(context.Background(), "planner@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.ID)
}

func TestRegister_DuplicateEmailConflicts(t *testing.T) {
	svc, _ := newUserService(&fakeEmailService{})

	_, err := svc.Register(context.Background(), "planner@example.com", "EventPlanner42", "Pat")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "planner@example.com", "EventPlanner42", "Pat Again")
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestRegister_SucceedsWhenEmailSendFails(t *testing.T) {
	svc, users := newUserService(&fakeEmailService{failSends: true})

	_, err := svc.Register(context.Background(), "planner@example.com", "EventPlanner42", "Pat")
	require.NoError(t, err, "a failed verification send must not fail registration")

	_, err = users.GetByEmail(context.Background(), "planner@example.com")
	assert.NoError(t, err)
}

func TestLogin(t *testing.T) {
	svc, _ := newUserService(&fakeEmailService{})
	user, err := svc.Register(context.Background(), "planner@example.com", "EventPlanner42", "Pat")
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		resp, err := svc.Login(context.Background(), "planner@example.com", "EventPlanner42")
		require.NoError(t, err)
		assert.Equal(t, "signed-token-for-"+user.ID, resp.AccessToken)
		assert.Equal(t, user.ID, resp.User.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "planner@example.com", "WrongPassword9")
		assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "nobody@example.com", "EventPlanner42")
		assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	})
}

func TestVerifyEmail_RoundTrip(t *testing.T) {
	emailSvc := &fakeEmailService{}
	svc, users := newUserService(emailSvc)

	user, err := svc.Register(context.Background(), "planner@example.com", "EventPlanner42", "Pat")
	require.NoError(t, err)
	require.Len(t, emailSvc.verificationTokens, 1)

	require.NoError(t, svc.VerifyEmail(context.Background(), emailSvc.verificationTokens[0]))

	stored, err := users.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, stored.EmailVerified)

	// The link is single-use.
	err = svc.VerifyEmail(context.Background(), emailSvc.verificationTokens[0])
	assert.ErrorIs(t, err, models.ErrTokenInvalid)
}

func TestVerifyEmail_RejectsGarbageToken(t *testing.T) {
	svc, _ := newUserService(&fakeEmailService{})

	err := svc.VerifyEmail(context.Background(), "not-a-real-token")
	assert.ErrorIs(t, err, models.ErrTokenInvalid)
}

func TestRequestPasswordReset_UnknownEmailIsSilent(t *testing.T) {
	emailSvc := &fakeEmailService{}
	svc, _ := newUserService(emailSvc)

	err := svc.RequestPasswordReset(context.Background(), "nobody@example.com")
	assert.NoError(t, err, "unknown addresses must be indistinguishable from known ones")
	assert.Empty(t, emailSvc.resetTokens)
}

func TestResetPassword_RoundTrip(t *testing.T) {
	emailSvc := &fakeEmailService{}
	svc, users := newUserService(emailSvc)

	user, err := svc.Register(context.Background(), "planner@example.com", "EventPlanner42", "Pat")
	require.NoError(t, err)

	require.NoError(t, svc.RequestPasswordReset(context.Background(), "planner@example.com"))
	require.Len(t, emailSvc.resetTokens, 1)

	require.NoError(t, svc.ResetPassword(context.Background(), emailSvc.resetTokens[0], "FreshPassword7"))

	stored, err := users.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.NoError(t, auth.ComparePassword(stored.PasswordHash, "FreshPassword7"))
	assert.Error(t, auth.ComparePassword(stored.PasswordHash, "EventPlanner42"))

	// The reset token is spent.
	err = svc.ResetPassword(context.Background(), emailSvc.resetTokens[0], "AnotherPassword3")
	assert.ErrorIs(t, err, models.ErrTokenInvalid)
}

func TestResendVerification(t *testing.T) {
	emailSvc := &fakeEmailService{}
	svc, _ := newUserService(emailSvc)

	user, err := svc.Register(context.Background(), "planner@example.com", "EventPlanner42", "Pat")
	require.NoError(t, err)
	require.Len(t, emailSvc.verificationTokens, 1)

	require.NoError(t, svc.ResendVerification(context.Background(), user.ID))
	require.Len(t, emailSvc.verificationTokens, 2)

	// The older link stopped working when the new one was issued.
	err = svc.VerifyEmail(context.Background(), emailSvc.verificationTokens[0])
	assert.ErrorIs(t, err, models.ErrTokenInvalid)

	require.NoError(t, svc.VerifyEmail(context.Background(), emailSvc.verificationTokens[1]))

	// Already verified: nothing to resend.
	err = svc.ResendVerification(context.Background(), user.ID)
	assert.ErrorIs(t, err, models.ErrBadRequest)
}
