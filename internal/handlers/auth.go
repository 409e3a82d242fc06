package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/eventlane/eventlane/internal/models"
	pkgauth "github.com/eventlane/eventlane/pkg/auth"
	pkghttp "github.com/eventlane/eventlane/pkg/http"
	pkglogger "github.com/eventlane/eventlane/pkg/logger"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Register(ctx context.Context, email, password, name string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.AuthResponse, error)
	VerifyEmail(ctx context.Context, token string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service  AuthServiceInterface
	audit    *pkglogger.AuditLogger
	ipConfig *pkghttp.IPConfig
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface, audit *pkglogger.AuditLogger, ipConfig *pkghttp.IPConfig) *AuthHandler {
	return &AuthHandler{
		service:  service,
		audit:    audit,
		ipConfig: ipConfig,
	}
}

// Request DTOs

// RegisterRequest represents the request body for registration
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required,min=1,max=100"`
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// VerifyEmailRequest represents the request body for email verification
type VerifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

// PasswordResetRequest represents the request body for requesting a reset
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// PasswordResetConfirmRequest represents the request body for completing a reset
type PasswordResetConfirmRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

// Register handles user registration
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := pkgauth.ValidatePassword(req.Password); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	user, err := h.service.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "An account with this email already exists")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, user)
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	ipAddress := pkghttp.ExtractClientIP(r, h.ipConfig)

	authResp, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.audit.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login",
			IPAddress:     ipAddress,
			Success:       false,
			FailureReason: "invalid credentials",
		})

		switch {
		case errors.Is(err, models.ErrInvalidCredentials):
			pkghttp.WriteUnauthorized(w, "Authentication failed")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	h.audit.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login",
		UserID:    authResp.User.ID,
		IPAddress: ipAddress,
		Success:   true,
	})

	pkghttp.WriteJSON(w, http.StatusOK, authResp)
}

// VerifyEmail handles email verification token redemption
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req VerifyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.VerifyEmail(r.Context(), req.Token); err != nil {
		switch {
		case errors.Is(err, models.ErrTokenInvalid):
			pkghttp.WriteError(w, http.StatusBadRequest, "invalid_token", "Verification link is invalid or has expired")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}

// RequestPasswordReset handles a password reset request. The response is
// identical whether or not the account exists.
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := h.service.RequestPasswordReset(r.Context(), req.Email); err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "if an account exists for that address, a reset email has been sent",
	})
}

// ResetPassword completes a password reset with a token
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := pkgauth.ValidatePassword(req.NewPassword); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, models.ErrTokenInvalid):
			pkghttp.WriteError(w, http.StatusBadRequest, "invalid_token", "Reset link is invalid or has expired")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
}
