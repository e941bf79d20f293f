package auth

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"time"
)

// TimingConfig holds configuration for the login response-time floor
type TimingConfig struct {
	Floor          time.Duration // Minimum total duration of a padded attempt
	Jitter         time.Duration // Random extra delay in [0, Jitter)
	DelayOnSuccess bool          // If true, pad successful logins too
}

// TimingDelay pads authentication attempts up to a minimum duration. It sits
// on top of the dummy hash verification and is disabled when Floor and Jitter
// are both zero.
type TimingDelay struct {
	config TimingConfig
}

// NewTimingDelay creates a new TimingDelay instance
func NewTimingDelay(config TimingConfig) *TimingDelay {
	return &TimingDelay{
		config: config,
	}
}

// Enabled reports whether any padding is configured
func (td *TimingDelay) Enabled() bool {
	return td != nil && (td.config.Floor > 0 || td.config.Jitter > 0)
}

// cryptoRandDuration returns a secure random duration in [0, max)
func cryptoRandDuration(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}

	randomBytes := make([]byte, 8)
	if _, err := rand.Read(randomBytes); err != nil {
		return 0
	}

	randomValue := binary.BigEndian.Uint64(randomBytes)
	return time.Duration(randomValue % uint64(max))
}

// target returns the total duration an attempt should take
func (td *TimingDelay) target() time.Duration {
	return td.config.Floor + cryptoRandDuration(td.config.Jitter)
}

// WaitFrom sleeps until at least Floor (+ jitter) has elapsed since start.
// It returns early with ctx.Err() if ctx ends first.
func (td *TimingDelay) WaitFrom(ctx context.Context, start time.Time, success bool) error {
	if !td.Enabled() {
		return nil
	}
	if success && !td.config.DelayOnSuccess {
		return nil
	}

	remaining := td.target() - time.Since(start)
	if remaining <= 0 {
		return nil
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
