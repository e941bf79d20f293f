package config

import (
	"os"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret-32-characters-long!!")
	t.Setenv("DB_PASSWORD", "test")
}

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	durations := []struct {
		name     string
		actual   time.Duration
		expected time.Duration
	}{
		{"ReadTimeout", cfg.Server.ReadTimeout, 15 * time.Second},
		{"WriteTimeout", cfg.Server.WriteTimeout, 15 * time.Second},
		{"IdleTimeout", cfg.Server.IdleTimeout, 60 * time.Second},
		{"TokenLifetime", cfg.Auth.TokenLifetime, 30 * time.Minute},
		{"AuthTimeout", cfg.Auth.AuthTimeout, 5 * time.Second},
		{"TimingFloor", cfg.Auth.TimingFloor, 0},
		{"LockoutWindow", cfg.Lockout.Window, 15 * time.Minute},
		{"LockoutDuration", cfg.Lockout.Duration, time.Minute},
		{"AttemptMaxAge", cfg.Lockout.MaxAge, 30 * time.Minute},
		{"SweepInterval", cfg.Lockout.SweepInterval, time.Minute},
	}
	for _, tt := range durations {
		if tt.actual != tt.expected {
			t.Errorf("%s: got %v, want %v", tt.name, tt.actual, tt.expected)
		}
	}

	if cfg.Auth.JWTAlgorithm != "HS256" {
		t.Errorf("JWTAlgorithm: got %s, want HS256", cfg.Auth.JWTAlgorithm)
	}
	if cfg.Auth.BcryptCost != 12 {
		t.Errorf("BcryptCost: got %d, want 12", cfg.Auth.BcryptCost)
	}
	if cfg.Lockout.Threshold != 5 {
		t.Errorf("Threshold: got %d, want 5", cfg.Lockout.Threshold)
	}
	if cfg.Lockout.MaxRecords != 10000 {
		t.Errorf("MaxRecords: got %d, want 10000", cfg.Lockout.MaxRecords)
	}
	if cfg.Server.LoginRequestsPerMinute != 20 {
		t.Errorf("LoginRequestsPerMinute: got %d, want 20", cfg.Server.LoginRequestsPerMinute)
	}
	if !cfg.Database.AutoMigrate {
		t.Error("AutoMigrate should default to true")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Clearenv()
	setRequiredEnv(t)
	t.Setenv("SERVER_READ_TIMEOUT", "30s")
	t.Setenv("JWT_ALGORITHM", "hs512")
	t.Setenv("TOKEN_LIFETIME", "1h")
	t.Setenv("BCRYPT_COST", "10")
	t.Setenv("LOCKOUT_THRESHOLD", "3")
	t.Setenv("LOCKOUT_DURATION", "5m")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.1, 10.0.0.2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("ReadTimeout: got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Auth.JWTAlgorithm != "HS512" {
		t.Errorf("JWTAlgorithm: got %s, want HS512", cfg.Auth.JWTAlgorithm)
	}
	if cfg.Auth.TokenLifetime != time.Hour {
		t.Errorf("TokenLifetime: got %v", cfg.Auth.TokenLifetime)
	}
	if cfg.Auth.BcryptCost != 10 {
		t.Errorf("BcryptCost: got %d", cfg.Auth.BcryptCost)
	}
	if cfg.Lockout.Threshold != 3 || cfg.Lockout.Duration != 5*time.Minute {
		t.Errorf("Lockout: got %+v", cfg.Lockout)
	}
	if len(cfg.Server.TrustedProxies) != 2 || cfg.Server.TrustedProxies[1] != "10.0.0.2" {
		t.Errorf("TrustedProxies: got %v", cfg.Server.TrustedProxies)
	}
}

func TestLoad_InvalidDurationFallsBackToDefault(t *testing.T) {
	os.Clearenv()
	setRequiredEnv(t)
	t.Setenv("TOKEN_LIFETIME", "not-a-duration")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}
	if cfg.Auth.TokenLifetime != 30*time.Minute {
		t.Errorf("TokenLifetime: got %v, want default", cfg.Auth.TokenLifetime)
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{"JWT_SECRET": ""}},
		{"short secret", map[string]string{"JWT_SECRET": "short"}},
		{"short secret in production", map[string]string{"ENV": "production", "JWT_SECRET": "twenty-characters-ab"}},
		{"missing db password", map[string]string{"DB_PASSWORD": ""}},
		{"unsupported algorithm", map[string]string{"JWT_ALGORITHM": "RS256"}},
		{"bcrypt cost too low", map[string]string{"BCRYPT_COST": "3"}},
		{"bcrypt cost too high", map[string]string{"BCRYPT_COST": "32"}},
		{"zero threshold", map[string]string{"LOCKOUT_THRESHOLD": "0"}},
		{"max age shorter than window", map[string]string{"ATTEMPT_MAX_AGE": "1m"}},
		{"negative timing floor", map[string]string{"TIMING_FLOOR": "-1s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			setRequiredEnv(t)
			for key, value := range tt.env {
				t.Setenv(key, value)
			}

			if _, err := Load(); err == nil {
				t.Error("Load() = nil, want error")
			}
		})
	}
}

func TestValidateJWTSecret_WeakValue(t *testing.T) {
	if err := validateJWTSecret("changeme", "development"); err == nil {
		t.Error("expected error for short weak secret")
	}
	if err := validateJWTSecret("a-long-enough-development-secret", "development"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
