package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultCost    = 12
	MaxSecretBytes = 72 // bcrypt only reads the first 72 bytes; longer secrets are rejected
	MinPasswordLen = 8
)

// ErrInvalidSecret is returned for empty secrets and secrets longer than MaxSecretBytes.
var ErrInvalidSecret = errors.New("secret must be between 1 and 72 bytes")

// PasswordValidationError holds validation error details (internal use only)
type PasswordValidationError struct {
	Errors []string
}

func (e *PasswordValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "password validation failed"
	}
	// Return generic error to users - never expose specific requirements to prevent enumeration attacks
	return "invalid password"
}

// Common weak passwords to reject
var commonPasswords = map[string]bool{
	"password":     true,
	"12345678":     true,
	"qwerty":       true,
	"abc123":       true,
	"password123":  true,
	"password123!": true,
	"123456":       true,
	"admin":        true,
	"letmein":      true,
	"welcome":      true,
	"monkey":       true,
	"dragon":       true,
	"master":       true,
	"123123":       true,
	"passw0rd":     true,
	"shadow":       true,
	"sunshine":     true,
	"princess":     true,
	"starwars":     true,
	"football":     true,
	"trustno1":     true,
}

// Hasher hashes and verifies secrets with bcrypt. The cost is embedded in
// every hash, so hashes created under an older cost keep verifying after
// the configured cost is raised.
type Hasher struct {
	cost      int
	dummyHash []byte
}

// NewHasher creates a Hasher and precomputes the dummy hash used to keep
// verification effort constant when there is nothing real to compare against.
func NewHasher(cost int) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, cost)
	}

	seed := make([]byte, 32)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("failed to generate dummy secret: %w", err)
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(seed)), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to generate dummy hash: %w", err)
	}

	return &Hasher{cost: cost, dummyHash: dummy}, nil
}

// Cost returns the bcrypt cost applied to new hashes.
func (h *Hasher) Cost() int {
	return h.cost
}

// DummyHash returns a valid hash of a random secret nobody knows.
func (h *Hasher) DummyHash() string {
	return string(h.dummyHash)
}

// Hash returns a salted bcrypt hash of secret.
func (h *Hasher) Hash(secret string) (string, error) {
	if err := checkSecret(secret); err != nil {
		return "", err
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// Verify reports whether secret matches hash. Every call performs exactly one
// bcrypt comparison: malformed hashes are swapped for the dummy hash and
// invalid secrets for a placeholder, and both still report false.
func (h *Hasher) Verify(secret, hash string) bool {
	target := []byte(hash)
	wellFormed := true
	if _, err := bcrypt.Cost(target); err != nil {
		target = h.dummyHash
		wellFormed = false
	}

	candidate := []byte(secret)
	validSecret := checkSecret(secret) == nil
	if !validSecret {
		candidate = []byte("placeholder")
	}

	match := bcrypt.CompareHashAndPassword(target, candidate) == nil
	return match && wellFormed && validSecret
}

// NeedsRehash reports whether hash was created with a lower cost than the
// one currently configured.
func (h *Hasher) NeedsRehash(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return false
	}
	return cost < h.cost
}

func checkSecret(secret string) error {
	if secret == "" || len(secret) > MaxSecretBytes {
		return ErrInvalidSecret
	}
	return nil
}

// ValidatePassword enforces strong password requirements for new passwords.
// It is not applied at login.
func ValidatePassword(password string) error {
	issues := make([]string, 0)

	if len(password) < MinPasswordLen {
		issues = append(issues, fmt.Sprintf("must be at least %d characters", MinPasswordLen))
	}
	if len(password) > MaxSecretBytes {
		issues = append(issues, fmt.Sprintf("must be at most %d bytes", MaxSecretBytes))
	}

	hasUpper := false
	hasLower := false
	hasDigit := false
	hasSpecial := false

	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}

	if !hasUpper {
		issues = append(issues, "must contain at least one uppercase letter")
	}
	if !hasLower {
		issues = append(issues, "must contain at least one lowercase letter")
	}
	if !hasDigit {
		issues = append(issues, "must contain at least one digit")
	}
	if !hasSpecial {
		issues = append(issues, "must contain at least one special character")
	}

	// Check against common passwords (case-insensitive)
	if commonPasswords[strings.ToLower(password)] {
		issues = append(issues, "is too common, please choose a more unique password")
	}

	if len(issues) > 0 {
		return &PasswordValidationError{Errors: issues}
	}

	return nil
}
