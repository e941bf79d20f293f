package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Auth     AuthConfig
	Lockout  LockoutConfig
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
	AutoMigrate       bool
}

type ServerConfig struct {
	Port                   string
	Env                    string
	LogLevel               string
	TrustedProxies         []string
	ReadTimeout            time.Duration
	WriteTimeout           time.Duration
	IdleTimeout            time.Duration
	ShutdownTimeout        time.Duration
	LoginRequestsPerMinute int
}

type AuthConfig struct {
	JWTSecret     string
	JWTAlgorithm  string
	TokenLifetime time.Duration
	BcryptCost    int
	AuthTimeout   time.Duration
	TimingFloor   time.Duration
	TimingJitter  time.Duration
}

type LockoutConfig struct {
	Threshold     int
	Window        time.Duration
	Duration      time.Duration
	MaxAge        time.Duration
	SweepInterval time.Duration
	MaxRecords    int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	env := getEnv("ENV", "development")

	cfg := &Config{
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "gatehouse"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
			AutoMigrate:       getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		Server: ServerConfig{
			Port:                   getEnv("PORT", "8080"),
			Env:                    env,
			LogLevel:               getEnv("LOG_LEVEL", "info"),
			TrustedProxies:         parseList(getEnv("TRUSTED_PROXIES", "")),
			ReadTimeout:            getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:           getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:            getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout:        getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			LoginRequestsPerMinute: getEnvAsInt("LOGIN_REQUESTS_PER_MINUTE", 20),
		},
		Auth: AuthConfig{
			JWTSecret:     jwtSecret,
			JWTAlgorithm:  strings.ToUpper(getEnv("JWT_ALGORITHM", "HS256")),
			TokenLifetime: getEnvAsDuration("TOKEN_LIFETIME", 30*time.Minute),
			BcryptCost:    getEnvAsInt("BCRYPT_COST", 12),
			AuthTimeout:   getEnvAsDuration("AUTH_TIMEOUT", 5*time.Second),
			TimingFloor:   getEnvAsDuration("TIMING_FLOOR", 0),
			TimingJitter:  getEnvAsDuration("TIMING_JITTER", 0),
		},
		Lockout: LockoutConfig{
			Threshold:     getEnvAsInt("LOCKOUT_THRESHOLD", 5),
			Window:        getEnvAsDuration("LOCKOUT_WINDOW", 15*time.Minute),
			Duration:      getEnvAsDuration("LOCKOUT_DURATION", 1*time.Minute),
			MaxAge:        getEnvAsDuration("ATTEMPT_MAX_AGE", 30*time.Minute),
			SweepInterval: getEnvAsDuration("ATTEMPT_SWEEP_INTERVAL", 1*time.Minute),
			MaxRecords:    getEnvAsInt("ATTEMPT_MAX_RECORDS", 10000),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	// Validate JWT secret strength
	if err := validateJWTSecret(jwtSecret, env); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Auth.JWTAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("JWT_ALGORITHM must be one of HS256, HS384, HS512 (got %s)", c.Auth.JWTAlgorithm)
	}

	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d (got %d)", bcrypt.MinCost, bcrypt.MaxCost, c.Auth.BcryptCost)
	}
	if c.Auth.TokenLifetime < time.Second {
		return fmt.Errorf("TOKEN_LIFETIME must be at least 1s (got %s)", c.Auth.TokenLifetime)
	}
	if c.Auth.AuthTimeout < 0 || c.Auth.TimingFloor < 0 || c.Auth.TimingJitter < 0 {
		return fmt.Errorf("AUTH_TIMEOUT, TIMING_FLOOR and TIMING_JITTER must not be negative")
	}

	if c.Lockout.Threshold < 1 {
		return fmt.Errorf("LOCKOUT_THRESHOLD must be at least 1 (got %d)", c.Lockout.Threshold)
	}
	if c.Lockout.Window <= 0 || c.Lockout.Duration <= 0 {
		return fmt.Errorf("LOCKOUT_WINDOW and LOCKOUT_DURATION must be positive")
	}
	if c.Lockout.MaxAge < c.Lockout.Window {
		return fmt.Errorf("ATTEMPT_MAX_AGE (%s) must not be shorter than LOCKOUT_WINDOW (%s)", c.Lockout.MaxAge, c.Lockout.Window)
	}
	if c.Lockout.SweepInterval <= 0 {
		return fmt.Errorf("ATTEMPT_SWEEP_INTERVAL must be positive")
	}

	return nil
}

// validateJWTSecret enforces minimum security standards for JWT secret
func validateJWTSecret(secret, env string) error {
	// Minimum length based on environment
	minLength := 16 // Development minimum
	if env == "production" {
		minLength = 32 // Production requires stronger secret (256 bits)
	}

	if len(secret) < minLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	// Check against common weak secrets
	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("JWT_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func parseList(raw string) []string {
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
