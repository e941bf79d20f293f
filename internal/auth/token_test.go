package auth_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/BradenHooton/gatehouse/internal/auth"
	"github.com/BradenHooton/gatehouse/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-that-is-at-least-32-bytes-long"

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func newTestTokenManager(t *testing.T, clock *fakeClock) *auth.TokenManager {
	t.Helper()
	tm, err := auth.NewTokenManager(testSecret, "HS256", 15*time.Minute, auth.WithTokenClock(clock.Now))
	require.NoError(t, err)
	return tm
}

func TestNewTokenManager_Validation(t *testing.T) {
	_, err := auth.NewTokenManager("", "HS256", time.Minute)
	assert.Error(t, err, "empty secret")

	_, err = auth.NewTokenManager(testSecret, "RS256", time.Minute)
	assert.Error(t, err, "asymmetric algorithms are not supported")

	_, err = auth.NewTokenManager(testSecret, "HS256", 0)
	assert.Error(t, err, "zero lifetime")

	tm, err := auth.NewTokenManager(testSecret, "", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "HS256", tm.Algorithm())

	tm, err = auth.NewTokenManager(testSecret, "hs512", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "HS512", tm.Algorithm())
}

func TestMintAndVerify(t *testing.T) {
	clock := newFakeClock()
	tm := newTestTokenManager(t, clock)

	token, err := tm.Mint("account-123", 10*time.Minute)
	require.NoError(t, err)

	claims, err := tm.Verify(token)
	require.NoError(t, err)

	assert.Equal(t, "account-123", claims.Subject)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, clock.now, claims.IssuedAt.Time, 0)
	assert.Equal(t, 10*time.Minute, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestMint_FractionalTTLRoundsUp(t *testing.T) {
	clock := newFakeClock()
	clock.Advance(250 * time.Millisecond)
	tm := newTestTokenManager(t, clock)

	tests := []struct {
		ttl      time.Duration
		expected time.Duration
	}{
		{ttl: time.Nanosecond, expected: time.Second},
		{ttl: 500 * time.Millisecond, expected: time.Second},
		{ttl: 1500 * time.Millisecond, expected: 2 * time.Second},
		{ttl: 2 * time.Second, expected: 2 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.ttl.String(), func(t *testing.T) {
			token, err := tm.Mint("account-123", tt.ttl)
			require.NoError(t, err)

			claims, err := tm.Verify(token)
			require.NoError(t, err)

			lifetime := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
			assert.Equal(t, tt.expected, lifetime)
			assert.GreaterOrEqual(t, lifetime, tt.ttl, "token must not be shorter than requested")
		})
	}
}

func TestNewTokenManager_FractionalLifetime(t *testing.T) {
	tm, err := auth.NewTokenManager(testSecret, "HS256", 1500*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, tm.Lifetime())
}

func TestMint_UniqueTokenIDs(t *testing.T) {
	tm := newTestTokenManager(t, newFakeClock())

	first, err := tm.Mint("account-123", time.Minute)
	require.NoError(t, err)
	second, err := tm.Mint("account-123", time.Minute)
	require.NoError(t, err)

	c1, err := tm.Verify(first)
	require.NoError(t, err)
	c2, err := tm.Verify(second)
	require.NoError(t, err)

	assert.NotEqual(t, c1.ID, c2.ID)
}

func TestMint_RejectsInvalidInput(t *testing.T) {
	tm := newTestTokenManager(t, newFakeClock())

	tests := []struct {
		name    string
		subject string
		ttl     time.Duration
	}{
		{name: "zero ttl", subject: "account-123", ttl: 0},
		{name: "negative ttl", subject: "account-123", ttl: -time.Minute},
		{name: "empty subject", subject: "", ttl: time.Minute},
		{name: "blank subject", subject: "   ", ttl: time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tm.Mint(tt.subject, tt.ttl)
			assert.ErrorIs(t, err, models.ErrInvalidInput)
		})
	}
}

func TestVerify_Expiry(t *testing.T) {
	clock := newFakeClock()
	tm := newTestTokenManager(t, clock)

	token, err := tm.Mint("account-123", time.Minute)
	require.NoError(t, err)

	clock.Advance(59 * time.Second)
	_, err = tm.Verify(token)
	require.NoError(t, err, "token should be valid just before expiry")

	// Valid iff now < exp, so the exact expiry instant is already expired
	clock.Advance(time.Second)
	_, err = tm.Verify(token)
	assert.ErrorIs(t, err, models.ErrTokenExpired)

	clock.Advance(time.Hour)
	_, err = tm.Verify(token)
	assert.ErrorIs(t, err, models.ErrTokenExpired)
}

func TestVerify_RotatedSecret(t *testing.T) {
	clock := newFakeClock()
	tm := newTestTokenManager(t, clock)

	token, err := tm.Mint("account-123", time.Minute)
	require.NoError(t, err)

	rotated, err := auth.NewTokenManager(testSecret+"-rotated", "HS256", time.Minute, auth.WithTokenClock(clock.Now))
	require.NoError(t, err)

	_, err = rotated.Verify(token)
	assert.ErrorIs(t, err, models.ErrSignatureInvalid)
}

func TestVerify_SignatureCheckedBeforeExpiry(t *testing.T) {
	clock := newFakeClock()
	tm := newTestTokenManager(t, clock)

	token, err := tm.Mint("account-123", time.Minute)
	require.NoError(t, err)

	clock.Advance(time.Hour)

	other, err := auth.NewTokenManager("a-completely-different-secret-value", "HS256", time.Minute, auth.WithTokenClock(clock.Now))
	require.NoError(t, err)

	_, err = other.Verify(token)
	assert.ErrorIs(t, err, models.ErrSignatureInvalid)
	assert.NotErrorIs(t, err, models.ErrTokenExpired)
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	clock := newFakeClock()
	tm := newTestTokenManager(t, clock)

	claims := jwt.RegisteredClaims{
		Subject:   "account-123",
		IssuedAt:  jwt.NewNumericDate(clock.now),
		ExpiresAt: jwt.NewNumericDate(clock.now.Add(time.Minute)),
	}

	t.Run("HS512 with same secret", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = tm.Verify(token)
		assert.ErrorIs(t, err, models.ErrSignatureInvalid)
	})

	t.Run("alg none", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = tm.Verify(token)
		assert.ErrorIs(t, err, models.ErrSignatureInvalid)
	})
}

func TestVerify_Malformed(t *testing.T) {
	tm := newTestTokenManager(t, newFakeClock())

	for _, token := range []string{"", "not-a-token", "a.b", "a.b.c.d", "!!!.@@@.###"} {
		_, err := tm.Verify(token)
		assert.ErrorIs(t, err, models.ErrTokenMalformed, "token %q", token)
	}
}

func TestVerify_MissingRequiredClaims(t *testing.T) {
	clock := newFakeClock()
	tm := newTestTokenManager(t, clock)

	sign := func(claims jwt.Claims) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		return token
	}

	noExp := sign(jwt.RegisteredClaims{Subject: "account-123", IssuedAt: jwt.NewNumericDate(clock.now)})
	_, err := tm.Verify(noExp)
	assert.ErrorIs(t, err, models.ErrTokenMalformed)

	noSub := sign(jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(clock.now),
		ExpiresAt: jwt.NewNumericDate(clock.now.Add(time.Minute)),
	})
	_, err = tm.Verify(noSub)
	assert.ErrorIs(t, err, models.ErrTokenMalformed)
}

func TestVerify_SingleCharacterTamper(t *testing.T) {
	tm := newTestTokenManager(t, newFakeClock())

	token, err := tm.Mint("account-123", time.Minute)
	require.NoError(t, err)

	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

	for i := 0; i < len(token); i++ {
		if token[i] == '.' {
			continue
		}
		replacement := alphabet[(strings.IndexByte(alphabet, token[i])+1)%len(alphabet)]
		tampered := token[:i] + string(replacement) + token[i+1:]

		claims, err := tm.Verify(tampered)
		if assert.Error(t, err, "tamper at index %d produced a valid token", i) {
			assert.True(t,
				errorIsAny(err, models.ErrSignatureInvalid, models.ErrTokenMalformed),
				"tamper at index %d: unexpected error %v", i, err)
		}
		assert.Nil(t, claims)
	}
}

func TestMintWithVersion(t *testing.T) {
	tm := newTestTokenManager(t, newFakeClock())

	token, err := tm.MintWithVersion("account-123", time.Minute, 7)
	require.NoError(t, err)

	claims, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, 7, claims.CredentialVersion)
}

func errorIsAny(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
