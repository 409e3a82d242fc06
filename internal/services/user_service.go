package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/eventlane/eventlane/internal/models"
	"github.com/eventlane/eventlane/pkg/auth"
)

// UserRepository defines the user persistence operations the service needs.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	MarkEmailVerified(ctx context.Context, id string) error
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
}

// AccessTokenIssuer mints signed access tokens for authenticated users.
type AccessTokenIssuer interface {
	GenerateAccessToken(userID, email string) (string, error)
}

// UserService handles registration, login and the email-token flows.
type UserService struct {
	userRepo    UserRepository
	tokens      *TokenService
	email       EmailService
	tokenIssuer AccessTokenIssuer
	verifyTTL   time.Duration
	resetTTL    time.Duration
	logger      *slog.Logger
}

func NewUserService(
	userRepo UserRepository,
	tokens *TokenService,
	email EmailService,
	tokenIssuer AccessTokenIssuer,
	verifyTTL, resetTTL time.Duration,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		userRepo:    userRepo,
		tokens:      tokens,
		email:       email,
		tokenIssuer: tokenIssuer,
		verifyTTL:   verifyTTL,
		resetTTL:    resetTTL,
		logger:      logger,
	}
}

// Register creates a new account and sends a verification email. The email
// send is best-effort; a failed send does not fail registration since the
// user can request a fresh token later.
func (s *UserService) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, models.ErrConflict
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, models.ErrInternalServer
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user, err := s.userRepo.Create(ctx, &models.User{
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Role:         "user",
	})
	if err != nil {
		return nil, err
	}

	if err := s.sendVerification(ctx, user); err != nil {
		s.logger.Warn("failed to send verification email",
			slog.String("user_id", user.ID),
			slog.Any("error", err))
	}

	return user, nil
}

// Login authenticates a user and returns a signed access token.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, models.ErrInternalServer
	}

	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, models.ErrInvalidCredentials
	}

	accessToken, err := s.tokenIssuer.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		s.logger.Error("failed to generate access token",
			slog.String("user_id", user.ID),
			slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &models.AuthResponse{
		AccessToken: accessToken,
		User:        user,
	}, nil
}

// VerifyEmail consumes a verification token and marks the account verified.
func (s *UserService) VerifyEmail(ctx context.Context, token string) error {
	userID, err := s.tokens.Consume(ctx, token, models.TokenEmailVerification)
	if err != nil {
		return err
	}

	if err := s.userRepo.MarkEmailVerified(ctx, userID); err != nil {
		s.logger.Error("failed to mark email verified",
			slog.String("user_id", userID),
			slog.Any("error", err))
		return models.ErrInternalServer
	}

	return nil
}

// RequestPasswordReset issues a reset token for the account, if one exists.
// It always reports success to the caller so email addresses cannot be
// enumerated through this endpoint.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil
		}
		return models.ErrInternalServer
	}

	raw, err := s.tokens.Issue(ctx, user.ID, models.TokenPasswordReset, s.resetTTL)
	if err != nil {
		return models.ErrInternalServer
	}

	if err := s.email.SendPasswordResetEmail(ctx, user.Email, raw, time.Now().Add(s.resetTTL)); err != nil {
		s.logger.Error("failed to send password reset email",
			slog.String("user_id", user.ID),
			slog.Any("error", err))
		return models.ErrInternalServer
	}

	return nil
}

// ResetPassword consumes a reset token and sets the new password.
func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) error {
	userID, err := s.tokens.Consume(ctx, token, models.TokenPasswordReset)
	if err != nil {
		return err
	}

	passwordHash, err := auth.HashPassword(newPassword)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.userRepo.UpdatePasswordHash(ctx, userID, passwordHash); err != nil {
		return models.ErrInternalServer
	}

	return nil
}

// ResendVerification issues a fresh verification token, invalidating any
// outstanding one.
func (s *UserService) ResendVerification(ctx context.Context, userID string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return models.ErrBadRequest
	}
	return s.sendVerification(ctx, user)
}

func (s *UserService) sendVerification(ctx context.Context, user *models.User) error {
	raw, err := s.tokens.Issue(ctx, user.ID, models.TokenEmailVerification, s.verifyTTL)
	if err != nil {
		return err
	}
	return s.email.SendVerificationEmail(ctx, user.Email, raw, time.Now().Add(s.verifyTTL))
}
