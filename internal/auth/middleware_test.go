package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/gatehouse/internal/auth"
	"github.com/BradenHooton/gatehouse/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockAuthorizer implements auth.Authorizer for testing
type MockAuthorizer struct {
	AuthorizeFunc func(ctx context.Context, token string) (*models.Principal, error)
}

func (m *MockAuthorizer) Authorize(ctx context.Context, token string) (*models.Principal, error) {
	if m.AuthorizeFunc != nil {
		return m.AuthorizeFunc(ctx, token)
	}
	return nil, models.ErrUnauthorized
}

func TestAuthMiddleware(t *testing.T) {
	authorizer := &MockAuthorizer{
		AuthorizeFunc: func(ctx context.Context, token string) (*models.Principal, error) {
			switch token {
			case "good":
				return &models.Principal{AccountID: "acc-1"}, nil
			case "outage":
				return nil, models.ErrUnavailable
			}
			return nil, models.ErrUnauthorized
		},
	}

	var seen *models.Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = auth.GetPrincipalFromContext(r)
		w.WriteHeader(http.StatusOK)
	})
	handler := auth.AuthMiddleware(authorizer)(next)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "valid token", header: "Bearer good", wantStatus: http.StatusOK},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic good", wantStatus: http.StatusUnauthorized},
		{name: "rejected token", header: "Bearer bad", wantStatus: http.StatusUnauthorized},
		{name: "store outage", header: "Bearer outage", wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/auth/users/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				require.NotNil(t, seen)
				assert.Equal(t, "acc-1", seen.AccountID)
			} else {
				assert.Nil(t, seen)
			}
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestGetPrincipalFromContext_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, auth.GetPrincipalFromContext(req))
}
