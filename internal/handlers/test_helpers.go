package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BradenHooton/gatehouse/internal/auth"
	"github.com/BradenHooton/gatehouse/internal/models"
	"github.com/BradenHooton/gatehouse/internal/services"
	pkghttp "github.com/BradenHooton/gatehouse/pkg/http"
	"github.com/stretchr/testify/assert"
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

// WithPrincipalContext adds an authenticated principal to the request context
func WithPrincipalContext(req *http.Request, accountID string) *http.Request {
	now := time.Now()
	principal := &models.Principal{
		AccountID: accountID,
		TokenID:   "test-jti",
		IssuedAt:  now,
		ExpiresAt: now.Add(30 * time.Minute),
	}
	return req.WithContext(auth.WithPrincipal(req.Context(), principal))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	contentType := w.Header().Get("Content-Type")
	assert.Equal(t, "application/json", contentType, "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
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

// MockAuthGateway implements AuthGatewayInterface for testing
type MockAuthGateway struct {
	AuthenticateFunc func(ctx context.Context, identity, secret string) (*services.AuthResult, error)
}

func (m *MockAuthGateway) Authenticate(ctx context.Context, identity, secret string) (*services.AuthResult, error) {
	if m.AuthenticateFunc == nil {
		return nil, models.ErrInvalidCredentials
	}
	return m.AuthenticateFunc(ctx, identity, secret)
}

// MockUserService implements UserServiceInterface for testing
type MockUserService struct {
	RegisterFunc      func(ctx context.Context, username, email, password string) (*models.Account, error)
	GetFunc           func(ctx context.Context, id string) (*models.Account, error)
	UpdateProfileFunc func(ctx context.Context, id, username, email string) (*models.Account, error)
}

func (m *MockUserService) Register(ctx context.Context, username, email, password string) (*models.Account, error) {
	if m.RegisterFunc == nil {
		return nil, models.ErrConflict
	}
	return m.RegisterFunc(ctx, username, email, password)
}

func (m *MockUserService) Get(ctx context.Context, id string) (*models.Account, error) {
	if m.GetFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetFunc(ctx, id)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, id, username, email string) (*models.Account, error) {
	if m.UpdateProfileFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdateProfileFunc(ctx, id, username, email)
}
