package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/eventlane/eventlane/internal/models"
)

// TokenRepository defines the interface for verification token operations
type TokenRepository interface {
	Create(ctx context.Context, token *models.VerificationToken) (*models.VerificationToken, error)
	DeleteUnusedByUserAndType(ctx context.Context, userID string, tokenType models.TokenType) error
	Consume(ctx context.Context, tokenHash string, tokenType models.TokenType) (*models.VerificationToken, error)
	CleanupExpired(ctx context.Context) (int64, error)
}

// TokenService issues and consumes single-use, typed, expiring tokens.
// Issuing invalidates all prior unused tokens of the same type for the
// user; consumption is exactly-once even under concurrent redemption.
type TokenService struct {
	repo   TokenRepository
	logger *slog.Logger
}

// NewTokenService creates a new TokenService
func NewTokenService(repo TokenRepository, logger *slog.Logger) *TokenService {
	return &TokenService{repo: repo, logger: logger}
}

// Issue generates a high-entropy token of the given type. Only the
// SHA-256 hash is persisted; the plain string is returned to the caller
// once and cannot be recovered.
func (s *TokenService) Issue(ctx context.Context, userID string, tokenType models.TokenType, ttl time.Duration) (string, error) {
	// Latest wins: prior unused tokens of this type stop being redeemable.
	if err := s.repo.DeleteUnusedByUserAndType(ctx, userID, tokenType); err != nil {
		s.logger.Error("failed to invalidate prior tokens",
			slog.String("user_id", userID),
			slog.String("type", string(tokenType)),
			slog.Any("error", err))
		return "", fmt.Errorf("failed to invalidate prior tokens: %w", err)
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		s.logger.Error("failed to generate random token", slog.Any("error", err))
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	plainToken := base64.URLEncoding.EncodeToString(tokenBytes)

	_, err := s.repo.Create(ctx, &models.VerificationToken{
		UserID:    userID,
		TokenHash: hashToken(plainToken),
		Type:      tokenType,
		ExpiresAt: time.Now().Add(ttl),
	})
	if err != nil {
		s.logger.Error("failed to create verification token",
			slog.String("user_id", userID),
			slog.String("type", string(tokenType)),
			slog.Any("error", err))
		return "", fmt.Errorf("failed to create token: %w", err)
	}

	return plainToken, nil
}

// Consume redeems a token of the given type exactly once, returning the
// owning user ID. A missing, already-used, or expired token yields
// ErrTokenInvalid; expired tokens are left untouched so a retried
// consume is naturally idempotent.
func (s *TokenService) Consume(ctx context.Context, plainToken string, tokenType models.TokenType) (string, error) {
	if plainToken == "" {
		return "", models.ErrTokenInvalid
	}

	token, err := s.repo.Consume(ctx, hashToken(plainToken), tokenType)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("token rejected",
				slog.String("type", string(tokenType)))
			return "", models.ErrTokenInvalid
		}
		s.logger.Error("failed to consume token",
			slog.String("type", string(tokenType)),
			slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	return token.UserID, nil
}

// CleanupExpired removes rows past their expiry for storage hygiene.
func (s *TokenService) CleanupExpired(ctx context.Context) (int64, error) {
	return s.repo.CleanupExpired(ctx)
}

func hashToken(plainToken string) string {
	hash := sha256.Sum256([]byte(plainToken))
	return hex.EncodeToString(hash[:])
}
