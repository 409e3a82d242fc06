package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// EmailService defines the interface for sending token-bearing emails
type EmailService interface {
	SendVerificationEmail(ctx context.Context, email, token string, expiresAt time.Time) error
	SendPasswordResetEmail(ctx context.Context, email, token string, expiresAt time.Time) error
}

// AWSSESEmailService sends emails using AWS SES
type AWSSESEmailService struct {
	sesClient   *ses.Client
	fromAddress string
	baseURL     string
	logger      *slog.Logger
}

// NewAWSSESEmailService creates a new AWS SES email service
func NewAWSSESEmailService(region, fromAddress, baseURL string, logger *slog.Logger) (*AWSSESEmailService, error) {
	cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSESEmailService{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		baseURL:     baseURL,
		logger:      logger,
	}, nil
}

// SendVerificationEmail sends an email verification link
func (s *AWSSESEmailService) SendVerificationEmail(ctx context.Context, email, token string, expiresAt time.Time) error {
	link := fmt.Sprintf("%s/verify-email?token=%s", s.baseURL, token)
	hours := int(time.Until(expiresAt).Hours())

	body := fmt.Sprintf(`Verify Your Email Address

Welcome to Eventlane! To complete your registration, open the link below:

%s

This link expires in %d hours and can be used once.

If you didn't create this account, you can ignore this email.
`, link, hours)

	return s.send(ctx, email, "Verify your email address", body)
}

// SendPasswordResetEmail sends a password reset link
func (s *AWSSESEmailService) SendPasswordResetEmail(ctx context.Context, email, token string, expiresAt time.Time) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, token)
	minutes := int(time.Until(expiresAt).Minutes())

	body := fmt.Sprintf(`Reset Your Password

A password reset was requested for your Eventlane account. Open the link below to choose a new password:

%s

This link expires in %d minutes and can be used once.

If you didn't request a reset, you can ignore this email; your password is unchanged.
`, link, minutes)

	return s.send(ctx, email, "Reset your password", body)
}

func (s *AWSSESEmailService) send(ctx context.Context, email, subject, textBody string) error {
	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{email},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(subject),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data: aws.String(textBody),
				},
			},
		},
	}

	result, err := s.sesClient.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("failed to send email via SES",
			slog.String("subject", subject),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("email sent",
		slog.String("subject", subject),
		slog.String("message_id", *result.MessageId))

	return nil
}

// LogEmailService is the development implementation: it logs instead of
// sending, so flows are exercisable without SES credentials.
type LogEmailService struct {
	logger *slog.Logger
}

// NewLogEmailService creates an EmailService that only logs.
func NewLogEmailService(logger *slog.Logger) *LogEmailService {
	return &LogEmailService{logger: logger}
}

func (s *LogEmailService) SendVerificationEmail(_ context.Context, email, token string, expiresAt time.Time) error {
	s.logger.Info("verification email (not sent: email disabled)",
		slog.String("email", email),
		slog.String("token", token),
		slog.Time("expires_at", expiresAt))
	return nil
}

func (s *LogEmailService) SendPasswordResetEmail(_ context.Context, email, token string, expiresAt time.Time) error {
	s.logger.Info("password reset email (not sent: email disabled)",
		slog.String("email", email),
		slog.String("token", token),
		slog.Time("expires_at", expiresAt))
	return nil
}
