package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/eventlane/eventlane/internal/auth"
	"github.com/eventlane/eventlane/internal/models"
	"github.com/eventlane/eventlane/internal/moderation"
	pkghttp "github.com/eventlane/eventlane/pkg/http"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithAuthContext adds user claims to request context for testing authenticated endpoints
func WithAuthContext(req *http.Request, userID, email string) *http.Request {
	claims := &models.TokenClaims{
		UserID: userID,
		Email:  email,
	}
	ctx := context.WithValue(req.Context(), auth.UserContextKey, claims)
	return req.WithContext(ctx)
}

// WithURLParam adds a chi route parameter to the request context
func WithURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

// fakeMessageRepo implements MessageRepositoryInterface for testing
type fakeMessageRepo struct {
	CreateFunc  func(ctx context.Context, msg *models.Message) (*models.Message, error)
	GetByIDFunc func(ctx context.Context, id string) (*models.Message, error)
}

func (f *fakeMessageRepo) Create(ctx context.Context, msg *models.Message) (*models.Message, error) {
	return f.CreateFunc(ctx, msg)
}

func (f *fakeMessageRepo) GetByID(ctx context.Context, id string) (*models.Message, error) {
	return f.GetByIDFunc(ctx, id)
}

// fakeScreener implements MessageScreener for testing
type fakeScreener struct {
	OnMessageSentFunc func(ctx context.Context, messageID string) (moderation.Verdict, error)
	Calls             int
}

func (f *fakeScreener) OnMessageSent(ctx context.Context, messageID string) (moderation.Verdict, error) {
	f.Calls++
	if f.OnMessageSentFunc != nil {
		return f.OnMessageSentFunc(ctx, messageID)
	}
	return moderation.Verdict{}, nil
}
