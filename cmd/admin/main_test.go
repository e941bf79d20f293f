package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/BradenHooton/gatehouse/internal/models"
	"github.com/BradenHooton/gatehouse/internal/services"
	pkgauth "github.com/BradenHooton/gatehouse/pkg/auth"
	pkglogger "github.com/BradenHooton/gatehouse/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestUserService(t *testing.T, repo *services.MockUserRepository) *services.UserService {
	t.Helper()
	hasher, err := pkgauth.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return services.NewUserService(repo, hasher, logger, pkglogger.NewAuditLogger(logger))
}

func TestRun_Deactivate(t *testing.T) {
	var gotID string
	var gotActive *bool
	repo := &services.MockUserRepository{
		SetActiveFunc: func(ctx context.Context, id string, active bool) error {
			gotID, gotActive = id, &active
			return nil
		},
	}

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"deactivate", "acc-1"}, newTestUserService(t, repo), &stdout, &stderr)

	require.NoError(t, err)
	assert.Equal(t, "acc-1", gotID)
	require.NotNil(t, gotActive)
	assert.False(t, *gotActive)
	assert.Contains(t, stdout.String(), "account acc-1 deactivated")
}

func TestRun_DeactivateUnknownAccount(t *testing.T) {
	repo := &services.MockUserRepository{
		SetActiveFunc: func(ctx context.Context, id string, active bool) error {
			return models.ErrNotFound
		},
	}

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"deactivate", "missing"}, newTestUserService(t, repo), &stdout, &stderr)

	assert.EqualError(t, err, "account missing not found")
	assert.Empty(t, stdout.String())
}

func TestRun_Usage(t *testing.T) {
	repo := &services.MockUserRepository{
		SetActiveFunc: func(ctx context.Context, id string, active bool) error {
			t.Fatal("SetActive should not be called")
			return nil
		},
	}
	svc := newTestUserService(t, repo)

	tests := []struct {
		name string
		args []string
	}{
		{"no command", nil},
		{"unknown command", []string{"delete", "acc-1"}},
		{"missing id", []string{"deactivate"}},
		{"extra args", []string{"deactivate", "acc-1", "acc-2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Error(t, run(context.Background(), tt.args, svc, &stdout, &stderr))
			assert.Contains(t, stderr.String(), "usage: admin")
		})
	}
}
