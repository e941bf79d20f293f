package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BradenHooton/gatehouse/internal/auth"
	"github.com/BradenHooton/gatehouse/internal/models"
	pkgauth "github.com/BradenHooton/gatehouse/pkg/auth"
	pkglogger "github.com/BradenHooton/gatehouse/pkg/logger"
)

// UserStore is the account lookup the gateway depends on
type UserStore interface {
	// FindByIdentity returns models.ErrNotFound when no account matches
	FindByIdentity(ctx context.Context, identity string) (*models.Account, error)
	// TouchOnLogin records a successful login; failures are only logged
	TouchOnLogin(ctx context.Context, accountID string) error
}

// PasswordRehasher is optionally implemented by a UserStore to upgrade
// hashes created under an older bcrypt cost
type PasswordRehasher interface {
	UpdatePasswordHash(ctx context.Context, accountID, hash string) error
}

// PasswordHasher hashes and verifies secrets
type PasswordHasher interface {
	Hash(secret string) (string, error)
	Verify(secret, hash string) bool
	DummyHash() string
	NeedsRehash(hash string) bool
}

// AuthGatewayConfig holds gateway tuning
type AuthGatewayConfig struct {
	Timeout time.Duration    // Upper bound on a single Authenticate call; 0 means caller ctx only
	Timing  *auth.TimingDelay // Optional response-time floor
}

// AuthResult is returned by a successful Authenticate
type AuthResult struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int // Seconds
	ExpiresAt   time.Time
	AccountID   string
}

// AuthGateway orchestrates login and token authorization on top of the
// hasher, token manager and attempt tracker
type AuthGateway struct {
	store       UserStore
	rehasher    PasswordRehasher
	hasher      PasswordHasher
	tm          *auth.TokenManager
	tracker     *auth.AttemptTracker
	config      AuthGatewayConfig
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewAuthGateway creates a new AuthGateway
func NewAuthGateway(
	store UserStore,
	hasher PasswordHasher,
	tm *auth.TokenManager,
	tracker *auth.AttemptTracker,
	config AuthGatewayConfig,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *AuthGateway {
	rehasher, _ := store.(PasswordRehasher)
	return &AuthGateway{
		store:       store,
		rehasher:    rehasher,
		hasher:      hasher,
		tm:          tm,
		tracker:     tracker,
		config:      config,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// NormalizeIdentity trims and lower-cases a login identity. The result is
// both the store lookup key and the attempt tracker key.
func NormalizeIdentity(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}

// Authenticate verifies identity and secret and issues an access token.
//
// Errors: models.ErrInvalidInput, *models.AccountLockedError (matches
// models.ErrAccountLocked), models.ErrInvalidCredentials,
// models.ErrAccountInactive, models.ErrUnavailable.
func (g *AuthGateway) Authenticate(ctx context.Context, identity, secret string) (*AuthResult, error) {
	start := time.Now()

	key := NormalizeIdentity(identity)
	if key == "" || secret == "" {
		return nil, fmt.Errorf("%w: identity and secret are required", models.ErrInvalidInput)
	}
	if len(secret) > pkgauth.MaxSecretBytes {
		return nil, fmt.Errorf("%w: secret exceeds %d bytes", models.ErrInvalidInput, pkgauth.MaxSecretBytes)
	}

	// Locked keys are rejected before any hashing work
	if until, locked := g.tracker.LockedUntil(key); locked {
		g.logger.Info("login rejected: account locked", slog.String("identity", pkglogger.SanitizedIdentity(key)))
		g.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
			EventType:     pkglogger.EventLoginFailed,
			Identity:      key,
			FailureReason: "account_locked",
		})
		return nil, &models.AccountLockedError{Until: until}
	}

	if g.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()
	}

	account, err := g.store.FindByIdentity(ctx, key)
	found := err == nil
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		g.logger.Error("failed to look up account", slog.Any("error", err))
		return nil, models.ErrUnavailable
	}

	// Unknown identities are verified against the dummy hash so they cost the
	// same as a wrong password
	hash := g.hasher.DummyHash()
	if found {
		hash = account.PasswordHash
	}

	match, err := g.verify(ctx, secret, hash)
	if err != nil {
		g.logger.Warn("login aborted before password check completed", slog.Any("error", err))
		return nil, models.ErrUnavailable
	}

	if !found || !match {
		g.recordFailure(ctx, key, account)
		g.pad(ctx, start, false)
		return nil, models.ErrInvalidCredentials
	}

	if !account.IsActive {
		g.logger.Info("login blocked: account inactive", slog.String("account_id", account.ID))
		g.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
			EventType:     pkglogger.EventLoginFailed,
			AccountID:     account.ID,
			FailureReason: "account_inactive",
		})
		g.pad(ctx, start, false)
		return nil, models.ErrAccountInactive
	}

	g.tracker.Clear(key)

	lifetime := g.tm.Lifetime()
	token, err := g.tm.MintWithVersion(account.ID, lifetime, account.CredentialVersion)
	if err != nil {
		g.logger.Error("failed to mint access token", slog.String("account_id", account.ID), slog.Any("error", err))
		return nil, models.ErrUnavailable
	}

	g.afterLogin(ctx, account, secret)

	g.logger.Info("user logged in", slog.String("account_id", account.ID))
	g.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType: pkglogger.EventLoginSuccess,
		AccountID: account.ID,
		Success:   true,
	})
	g.pad(ctx, start, true)

	return &AuthResult{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(lifetime / time.Second),
		ExpiresAt:   start.Add(lifetime),
		AccountID:   account.ID,
	}, nil
}

// Authorize resolves a bearer token to a principal. Every token failure is
// reported as models.ErrUnauthorized; the specific reason is only logged.
func (g *AuthGateway) Authorize(ctx context.Context, token string) (*models.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, models.ErrUnauthorized
	}

	claims, err := g.tm.Verify(token)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrTokenExpired):
			g.logger.InfoContext(ctx, "token rejected", slog.String("reason", "expired"))
		case errors.Is(err, models.ErrSignatureInvalid):
			g.logger.WarnContext(ctx, "token rejected", slog.String("reason", "signature_invalid"))
		default:
			g.logger.WarnContext(ctx, "token rejected", slog.String("reason", "malformed"))
		}
		return nil, models.ErrUnauthorized
	}

	return &models.Principal{
		AccountID:         claims.Subject,
		TokenID:           claims.ID,
		CredentialVersion: claims.CredentialVersion,
		IssuedAt:          claims.IssuedAt.Time,
		ExpiresAt:         claims.ExpiresAt.Time,
	}, nil
}

// verify runs the bcrypt comparison off the request goroutine so a cancelled
// ctx returns promptly. The comparison itself still runs to completion.
func (g *AuthGateway) verify(ctx context.Context, secret, hash string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	done := make(chan bool, 1)
	go func() {
		done <- g.hasher.Verify(secret, hash)
	}()

	select {
	case ok := <-done:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (g *AuthGateway) recordFailure(ctx context.Context, key string, account *models.Account) {
	result := g.tracker.RecordFailure(key)

	event := pkglogger.AuditEvent{
		EventType:     pkglogger.EventLoginFailed,
		Identity:      key,
		FailureReason: "invalid_credentials",
	}
	if account != nil {
		event.AccountID = account.ID
	}
	g.logger.Info("login failed: invalid credentials", slog.Int("failures", result.Failures))
	g.auditLogger.LogAuthAttempt(ctx, event)

	if result.JustLocked {
		g.logger.Warn("account locked after repeated failures",
			slog.String("identity", pkglogger.SanitizedIdentity(key)),
			slog.Int("failures", result.Failures),
			slog.Time("locked_until", result.LockedUntil))
		g.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
			EventType:     pkglogger.EventAccountLocked,
			AccountID:     event.AccountID,
			Identity:      key,
			FailureReason: "threshold_reached",
			Metadata:      map[string]string{"locked_until": result.LockedUntil.UTC().Format(time.RFC3339)},
		})
	}
}

// afterLogin performs best-effort bookkeeping; failures never fail the login
func (g *AuthGateway) afterLogin(ctx context.Context, account *models.Account, secret string) {
	if err := g.store.TouchOnLogin(ctx, account.ID); err != nil {
		g.logger.Warn("failed to record last login", slog.String("account_id", account.ID), slog.Any("error", err))
	}

	if g.rehasher == nil || !g.hasher.NeedsRehash(account.PasswordHash) {
		return
	}
	hash, err := g.hasher.Hash(secret)
	if err != nil {
		g.logger.Warn("failed to rehash password", slog.String("account_id", account.ID), slog.Any("error", err))
		return
	}
	if err := g.rehasher.UpdatePasswordHash(ctx, account.ID, hash); err != nil {
		g.logger.Warn("failed to store upgraded password hash", slog.String("account_id", account.ID), slog.Any("error", err))
		return
	}
	g.logger.Info("password hash upgraded", slog.String("account_id", account.ID))
}

func (g *AuthGateway) pad(ctx context.Context, start time.Time, success bool) {
	if err := g.config.Timing.WaitFrom(ctx, start, success); err != nil {
		g.logger.Debug("timing floor cut short", slog.Any("error", err))
	}
}
