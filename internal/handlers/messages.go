package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eventlane/eventlane/internal/auth"
	"github.com/eventlane/eventlane/internal/models"
	"github.com/eventlane/eventlane/internal/moderation"
	pkghttp "github.com/eventlane/eventlane/pkg/http"
)

// MessageRepositoryInterface defines the message persistence operations the handler needs
type MessageRepositoryInterface interface {
	Create(ctx context.Context, msg *models.Message) (*models.Message, error)
	GetByID(ctx context.Context, id string) (*models.Message, error)
}

// MessageScreener runs post-send content screening and escalation
type MessageScreener interface {
	OnMessageSent(ctx context.Context, messageID string) (moderation.Verdict, error)
}

// MessageHandler handles messaging HTTP requests
type MessageHandler struct {
	messageRepo MessageRepositoryInterface
	screener    MessageScreener
	logger      *slog.Logger
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(messageRepo MessageRepositoryInterface, screener MessageScreener, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{
		messageRepo: messageRepo,
		screener:    screener,
		logger:      logger,
	}
}

// SendMessageRequest represents the request body for sending a message
type SendMessageRequest struct {
	RecipientID string `json:"recipient_id" validate:"required,uuid"`
	Body        string `json:"body" validate:"required,min=1,max=5000"`
}

// Send persists a message and screens it. Screening happens after the
// send: flagged content produces reports and escalations, not a failed
// request, so senders learn nothing about what tripped the scanner.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if req.RecipientID == claims.UserID {
		pkghttp.WriteBadRequest(w, "Cannot send a message to yourself")
		return
	}

	msg, err := h.messageRepo.Create(r.Context(), &models.Message{
		SenderID:    claims.UserID,
		RecipientID: req.RecipientID,
		Body:        req.Body,
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Recipient not found")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	if _, err := h.screener.OnMessageSent(r.Context(), msg.ID); err != nil {
		// The message is already delivered; a screening failure is an
		// operational problem, not the sender's.
		h.logger.Error("message screening failed",
			slog.String("message_id", msg.ID),
			slog.Any("error", err))
	}

	pkghttp.WriteJSON(w, http.StatusCreated, msg)
}

// Get returns a message the caller participates in
func (h *MessageHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	msg, err := h.messageRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Message not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	if msg.SenderID != claims.UserID && msg.RecipientID != claims.UserID {
		pkghttp.WriteNotFound(w, "Message not found")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, msg)
}
