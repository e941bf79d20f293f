package auth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func newTestHasher(t *testing.T, cost int) *Hasher {
	t.Helper()
	h, err := NewHasher(cost)
	if err != nil {
		t.Fatalf("NewHasher(%d) failed: %v", cost, err)
	}
	return h
}

func TestNewHasher_RejectsOutOfRangeCost(t *testing.T) {
	for _, cost := range []int{0, bcrypt.MinCost - 1, bcrypt.MaxCost + 1} {
		if _, err := NewHasher(cost); err == nil {
			t.Errorf("NewHasher(%d) expected error, got nil", cost)
		}
	}
}

func TestHashAndVerify(t *testing.T) {
	h := newTestHasher(t, bcrypt.MinCost)
	secret := "SecureP@ss123"

	hash, err := h.Hash(secret)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	if hash == "" {
		t.Error("hash should not be empty")
	}
	if strings.Contains(hash, secret) {
		t.Error("hash should not contain the plaintext secret")
	}

	if !h.Verify(secret, hash) {
		t.Error("Verify with correct secret should succeed")
	}
	// Repeated verification must agree
	if !h.Verify(secret, hash) {
		t.Error("second Verify with correct secret should succeed")
	}
	if h.Verify("WrongPassword123!", hash) {
		t.Error("Verify with wrong secret should fail")
	}
}

func TestHash_SaltedPerCall(t *testing.T) {
	h := newTestHasher(t, bcrypt.MinCost)

	first, err := h.Hash("same-secret")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	second, err := h.Hash("same-secret")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	if first == second {
		t.Error("two hashes of the same secret should differ")
	}
	if !h.Verify("same-secret", first) || !h.Verify("same-secret", second) {
		t.Error("both hashes should verify")
	}
}

func TestHash_RejectsInvalidSecrets(t *testing.T) {
	h := newTestHasher(t, bcrypt.MinCost)

	tests := []struct {
		name   string
		secret string
	}{
		{name: "empty", secret: ""},
		{name: "one byte over limit", secret: strings.Repeat("a", MaxSecretBytes+1)},
		{name: "multibyte over limit", secret: strings.Repeat("é", 37)}, // 74 bytes
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Hash(tt.secret)
			if !errors.Is(err, ErrInvalidSecret) {
				t.Errorf("expected ErrInvalidSecret, got %v", err)
			}
		})
	}

	// Exactly at the limit is accepted
	if _, err := h.Hash(strings.Repeat("a", MaxSecretBytes)); err != nil {
		t.Errorf("secret of %d bytes should be accepted, got %v", MaxSecretBytes, err)
	}
}

func TestVerify_NoTruncation(t *testing.T) {
	h := newTestHasher(t, bcrypt.MinCost)
	base := strings.Repeat("x", MaxSecretBytes)

	hash, err := h.Hash(base)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	// bcrypt would silently ignore the suffix; Verify must not
	if h.Verify(base+"suffix", hash) {
		t.Error("oversized secret sharing a 72 byte prefix must not verify")
	}
}

func TestVerify_MalformedHash(t *testing.T) {
	h := newTestHasher(t, bcrypt.MinCost)

	for _, hash := range []string{"", "not-a-hash", "$2a$04$short", h.DummyHash()[:20]} {
		if h.Verify("anything", hash) {
			t.Errorf("Verify should fail for malformed hash %q", hash)
		}
	}
}

func TestVerify_DummyHashNeverMatchesEmptyInput(t *testing.T) {
	h := newTestHasher(t, bcrypt.MinCost)

	if h.DummyHash() == "" {
		t.Fatal("dummy hash should be generated at construction")
	}
	if h.Verify("", h.DummyHash()) {
		t.Error("empty secret must never verify")
	}
	if h.Verify("placeholder", h.DummyHash()) {
		t.Error("placeholder must not match the dummy hash")
	}
}

func TestVerify_OlderCostStillVerifies(t *testing.T) {
	low := newTestHasher(t, bcrypt.MinCost)
	high := newTestHasher(t, bcrypt.MinCost+2)

	hash, err := low.Hash("SecureP@ss123")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	if !high.Verify("SecureP@ss123", hash) {
		t.Error("hash created under a lower cost should verify after the cost is raised")
	}
	if !high.NeedsRehash(hash) {
		t.Error("lower-cost hash should need rehash")
	}
	if low.NeedsRehash(hash) {
		t.Error("hash at the configured cost should not need rehash")
	}
	if high.NeedsRehash("garbage") {
		t.Error("malformed hash should not report rehash")
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name       string
		password   string
		shouldFail bool
	}{
		{name: "valid strong password", password: "SecureP@ss123"},
		{name: "too short", password: "Pass@1", shouldFail: true},
		{name: "missing uppercase", password: "securepass@123", shouldFail: true},
		{name: "missing lowercase", password: "SECUREPASS@123", shouldFail: true},
		{name: "missing digit", password: "SecurePass@xyz", shouldFail: true},
		{name: "missing special character", password: "SecurePass123", shouldFail: true},
		{name: "common password rejected", password: "password123", shouldFail: true},
		{name: "valid with symbols", password: "MyP@ssw0rd!"},
		{name: "too long", password: "Aa1@" + strings.Repeat("b", MaxSecretBytes), shouldFail: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)

			if tt.shouldFail {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if err.Error() != "invalid password" {
					t.Errorf("error message should be generic, got: %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("expected no error, got: %v", err)
			}
		})
	}
}
