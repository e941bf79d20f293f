package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BradenHooton/gatehouse/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenOption configures a TokenManager
type TokenOption func(*TokenManager)

// WithTokenClock overrides the time source used for minting and expiry checks
func WithTokenClock(now func() time.Time) TokenOption {
	return func(tm *TokenManager) {
		tm.now = now
	}
}

// TokenManager mints and verifies signed access tokens. It holds no per-token
// state: a token stays valid until it expires or the secret is rotated.
type TokenManager struct {
	secret   []byte
	method   *jwt.SigningMethodHMAC
	lifetime time.Duration
	now      func() time.Time
}

// NewTokenManager creates a new TokenManager. algorithm is one of HS256,
// HS384 or HS512; empty selects HS256.
func NewTokenManager(secret, algorithm string, lifetime time.Duration, opts ...TokenOption) (*TokenManager, error) {
	if secret == "" {
		return nil, errors.New("token signing secret is required")
	}
	if lifetime <= 0 {
		return nil, fmt.Errorf("token lifetime must be positive, got %s", lifetime)
	}

	method, err := signingMethod(algorithm)
	if err != nil {
		return nil, err
	}

	tm := &TokenManager{
		secret:   []byte(secret),
		method:   method,
		lifetime: roundUpTTL(lifetime),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(tm)
	}

	return tm, nil
}

func signingMethod(algorithm string) (*jwt.SigningMethodHMAC, error) {
	switch strings.ToUpper(strings.TrimSpace(algorithm)) {
	case "", "HS256":
		return jwt.SigningMethodHS256, nil
	case "HS384":
		return jwt.SigningMethodHS384, nil
	case "HS512":
		return jwt.SigningMethodHS512, nil
	default:
		return nil, fmt.Errorf("unsupported signing algorithm: %s", algorithm)
	}
}

func roundUpTTL(ttl time.Duration) time.Duration {
	return (ttl + jwt.TimePrecision - 1).Truncate(jwt.TimePrecision)
}

// Lifetime returns the default token lifetime, rounded up to whole seconds
func (tm *TokenManager) Lifetime() time.Duration {
	return tm.lifetime
}

// Algorithm returns the JWT alg header value used for signing
func (tm *TokenManager) Algorithm() string {
	return tm.method.Alg()
}

// Mint creates a token for subject valid for ttl
func (tm *TokenManager) Mint(subject string, ttl time.Duration) (string, error) {
	return tm.MintWithVersion(subject, ttl, 0)
}

// MintWithVersion creates a token that also carries the account's credential
// version. exp and iat are whole seconds, so ttl is rounded up to the next
// second; a token never lives shorter than requested.
func (tm *TokenManager) MintWithVersion(subject string, ttl time.Duration, version int) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", fmt.Errorf("%w: token subject is required", models.ErrInvalidInput)
	}
	if ttl <= 0 {
		return "", fmt.Errorf("%w: token ttl must be positive", models.ErrInvalidInput)
	}
	ttl = roundUpTTL(ttl)

	issuedAt := tm.now().Truncate(jwt.TimePrecision)

	claims := &models.TokenClaims{
		CredentialVersion: version,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(tm.method, claims)

	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, nil
}

// Verify checks the signature and expiry of tokenString and returns its claims.
// Errors are one of models.ErrSignatureInvalid, models.ErrTokenExpired or
// models.ErrTokenMalformed. The signature is checked before expiry.
func (tm *TokenManager) Verify(tokenString string) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}

	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			return tm.secret, nil
		},
		jwt.WithValidMethods([]string{tm.method.Alg()}),
		jwt.WithStrictDecoding(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		return nil, classifyTokenError(err)
	}

	if claims.Subject == "" || claims.IssuedAt == nil {
		return nil, fmt.Errorf("%w: missing sub or iat claim", models.ErrTokenMalformed)
	}

	return claims, nil
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", models.ErrTokenMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", models.ErrSignatureInvalid, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", models.ErrTokenExpired, err)
	default:
		// Missing required claims and similar structural problems
		return fmt.Errorf("%w: %v", models.ErrTokenMalformed, err)
	}
}
