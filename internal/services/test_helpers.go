package services

import (
	"context"
	"sync"
	"time"

	"github.com/BradenHooton/gatehouse/internal/models"
)

// MockUserRepository implements UserStore, PasswordRehasher and
// UserRepository for testing
type MockUserRepository struct {
	FindByIdentityFunc     func(ctx context.Context, identity string) (*models.Account, error)
	TouchOnLoginFunc       func(ctx context.Context, accountID string) error
	UpdatePasswordHashFunc func(ctx context.Context, accountID, hash string) error
	CreateFunc             func(ctx context.Context, account *models.Account) (*models.Account, error)
	GetByIDFunc            func(ctx context.Context, id string) (*models.Account, error)
	UpdateProfileFunc      func(ctx context.Context, id, username, email string) (*models.Account, error)
	SetActiveFunc          func(ctx context.Context, id string, active bool) error
}

func (m *MockUserRepository) FindByIdentity(ctx context.Context, identity string) (*models.Account, error) {
	if m.FindByIdentityFunc != nil {
		return m.FindByIdentityFunc(ctx, identity)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) TouchOnLogin(ctx context.Context, accountID string) error {
	if m.TouchOnLoginFunc != nil {
		return m.TouchOnLoginFunc(ctx, accountID)
	}
	return nil
}

func (m *MockUserRepository) UpdatePasswordHash(ctx context.Context, accountID, hash string) error {
	if m.UpdatePasswordHashFunc != nil {
		return m.UpdatePasswordHashFunc(ctx, accountID, hash)
	}
	return nil
}

func (m *MockUserRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, id, username, email string) (*models.Account, error) {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, id, username, email)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) SetActive(ctx context.Context, id string, active bool) error {
	if m.SetActiveFunc != nil {
		return m.SetActiveFunc(ctx, id, active)
	}
	return nil
}

// SpyHasher wraps a PasswordHasher and records which hashes were verified
type SpyHasher struct {
	PasswordHasher

	mu       sync.Mutex
	verified []string
	delay    time.Duration
}

// NewSpyHasher creates a SpyHasher; delay is added to every Verify call
func NewSpyHasher(inner PasswordHasher, delay time.Duration) *SpyHasher {
	return &SpyHasher{PasswordHasher: inner, delay: delay}
}

func (s *SpyHasher) Verify(secret, hash string) bool {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	s.verified = append(s.verified, hash)
	s.mu.Unlock()
	return s.PasswordHasher.Verify(secret, hash)
}

// Verified returns the hashes passed to Verify so far
func (s *SpyHasher) Verified() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.verified...)
}

// NewTestAccount creates an active account for testing
func NewTestAccount(id, username, passwordHash string) *models.Account {
	now := time.Now()
	return &models.Account{
		ID:                id,
		Username:          username,
		Email:             username + "@example.com",
		PasswordHash:      passwordHash,
		IsActive:          true,
		CredentialVersion: 1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}
