package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BradenHooton/gatehouse/internal/models"
	pkgauth "github.com/BradenHooton/gatehouse/pkg/auth"
	pkglogger "github.com/BradenHooton/gatehouse/pkg/logger"
)

// UserRepository defines the interface for account data access
type UserRepository interface {
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	UpdateProfile(ctx context.Context, id, username, email string) (*models.Account, error)
	SetActive(ctx context.Context, id string, active bool) error
}

// UserService handles account registration and profile management
type UserService struct {
	repo        UserRepository
	hasher      PasswordHasher
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewUserService creates a new UserService
func NewUserService(repo UserRepository, hasher PasswordHasher, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *UserService {
	return &UserService{
		repo:        repo,
		hasher:      hasher,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// Register creates a new active account
func (s *UserService) Register(ctx context.Context, username, email, password string) (*models.Account, error) {
	username = NormalizeIdentity(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if username == "" {
		return nil, fmt.Errorf("%w: username is required", models.ErrInvalidInput)
	}
	if strings.Contains(username, "@") {
		return nil, fmt.Errorf("%w: username must not contain @", models.ErrInvalidInput)
	}
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", models.ErrInvalidInput)
	}

	if err := pkgauth.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	account, err := s.repo.Create(ctx, &models.Account{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			s.logger.Info("registration failed: account already exists")
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create account", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("account registered", slog.String("account_id", account.ID))
	s.auditLogger.LogAccountAction(ctx, pkglogger.EventUserRegistered, account.ID, nil)

	return account, nil
}

// Get retrieves an account by ID
func (s *UserService) Get(ctx context.Context, id string) (*models.Account, error) {
	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("account not found", slog.String("account_id", id))
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get account", slog.String("account_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return account, nil
}

// UpdateProfile renames an account and/or changes its email. Empty values keep
// the current ones. Tokens already issued stay valid because they are bound to
// the account ID.
func (s *UserService) UpdateProfile(ctx context.Context, id, username, email string) (*models.Account, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	username = NormalizeIdentity(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" {
		username = current.Username
	}
	if email == "" {
		email = current.Email
	}
	if strings.Contains(username, "@") {
		return nil, fmt.Errorf("%w: username must not contain @", models.ErrInvalidInput)
	}

	updated, err := s.repo.UpdateProfile(ctx, id, username, email)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrConflict):
			return nil, models.ErrConflict
		case errors.Is(err, models.ErrNotFound):
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to update account", slog.String("account_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	metadata := map[string]string{}
	if updated.Username != current.Username {
		metadata["renamed"] = "true"
	}
	s.auditLogger.LogAccountAction(ctx, pkglogger.EventUserUpdated, id, metadata)

	return updated, nil
}

// Deactivate disables an account. Existing tokens are not revoked; the
// account simply can no longer obtain new ones.
func (s *UserService) Deactivate(ctx context.Context, id string) error {
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to deactivate account", slog.String("account_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("account deactivated", slog.String("account_id", id))
	s.auditLogger.LogAccountAction(ctx, pkglogger.EventUserDisabled, id, nil)
	return nil
}
