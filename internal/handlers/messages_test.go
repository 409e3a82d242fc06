package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eventlane/eventlane/internal/models"
	"github.com/eventlane/eventlane/internal/moderation"
)

func newMessageHandler(repo *fakeMessageRepo, screener *fakeScreener) *MessageHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewMessageHandler(repo, screener, logger)
}

func TestSendMessage_Success(t *testing.T) {
	repo := &fakeMessageRepo{
		CreateFunc: func(ctx context.Context, msg *models.Message) (*models.Message, error) {
			msg.ID = "11111111-1111-1111-1111-111111111111"
			return msg, nil
		},
	}
	screener := &fakeScreener{}
	handler := newMessageHandler(repo, screener)

	req := NewTestRequest(t, "POST", "/messages", SendMessageRequest{
		RecipientID: "22222222-2222-2222-2222-222222222222",
		Body:        "Looking forward to the tasting next week!",
	})
	req = WithAuthContext(req, "33333333-3333-3333-3333-333333333333", "organizer@example.com")
	w := httptest.NewRecorder()

	handler.Send(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, screener.Calls, "every sent message should be screened")

	var msg models.Message
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &msg))
	assert.Equal(t, "33333333-3333-3333-3333-333333333333", msg.SenderID)
}

func TestSendMessage_ScreeningFailureDoesNotFailRequest(t *testing.T) {
	repo := &fakeMessageRepo{
		CreateFunc: func(ctx context.Context, msg *models.Message) (*models.Message, error) {
			msg.ID = "11111111-1111-1111-1111-111111111111"
			return msg, nil
		},
	}
	screener := &fakeScreener{
		OnMessageSentFunc: func(ctx context.Context, messageID string) (moderation.Verdict, error) {
			return moderation.Verdict{}, errors.New("scanner backend down")
		},
	}
	handler := newMessageHandler(repo, screener)

	req := NewTestRequest(t, "POST", "/messages", SendMessageRequest{
		RecipientID: "22222222-2222-2222-2222-222222222222",
		Body:        "hello",
	})
	req = WithAuthContext(req, "33333333-3333-3333-3333-333333333333", "organizer@example.com")
	w := httptest.NewRecorder()

	handler.Send(w, req)

	assert.Equal(t, http.StatusCreated, w.Code, "delivered message must not be failed by screening")
}

func TestSendMessage_Unauthenticated(t *testing.T) {
	handler := newMessageHandler(&fakeMessageRepo{}, &fakeScreener{})

	req := NewTestRequest(t, "POST", "/messages", SendMessageRequest{
		RecipientID: "22222222-2222-2222-2222-222222222222",
		Body:        "hello",
	})
	w := httptest.NewRecorder()

	handler.Send(w, req)

	AssertErrorResponse(t, w, http.StatusUnauthorized, "unauthorized")
}

func TestSendMessage_ToSelf(t *testing.T) {
	handler := newMessageHandler(&fakeMessageRepo{}, &fakeScreener{})

	req := NewTestRequest(t, "POST", "/messages", SendMessageRequest{
		RecipientID: "33333333-3333-3333-3333-333333333333",
		Body:        "hello",
	})
	req = WithAuthContext(req, "33333333-3333-3333-3333-333333333333", "organizer@example.com")
	w := httptest.NewRecorder()

	handler.Send(w, req)

	AssertErrorResponse(t, w, http.StatusBadRequest, "bad_request")
}

func TestGetMessage_NonParticipantSeesNotFound(t *testing.T) {
	repo := &fakeMessageRepo{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Message, error) {
			return &models.Message{
				ID:          id,
				SenderID:    "11111111-1111-1111-1111-111111111111",
				RecipientID: "22222222-2222-2222-2222-222222222222",
				Body:        "private",
			}, nil
		},
	}
	handler := newMessageHandler(repo, &fakeScreener{})

	req := NewTestRequest(t, "GET", "/messages/44444444-4444-4444-4444-444444444444", nil)
	req = WithURLParam(req, "id", "44444444-4444-4444-4444-444444444444")
	req = WithAuthContext(req, "99999999-9999-9999-9999-999999999999", "outsider@example.com")
	w := httptest.NewRecorder()

	handler.Get(w, req)

	AssertErrorResponse(t, w, http.StatusNotFound, "not_found")
}
