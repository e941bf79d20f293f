package auth

import (
	"sync"
	"time"
)

// LockoutConfig holds the failed-login lockout policy
type LockoutConfig struct {
	Threshold  int           // Failures within Window that trigger a lockout
	Window     time.Duration // Span in which failures accumulate
	Lockout    time.Duration // Cooldown once the threshold is reached
	MaxRecords int           // Soft cap on tracked keys; 0 disables the cap
}

// DefaultLockoutConfig returns 5 failures / 15 minute window / 1 minute lockout
func DefaultLockoutConfig() LockoutConfig {
	return LockoutConfig{
		Threshold:  5,
		Window:     15 * time.Minute,
		Lockout:    time.Minute,
		MaxRecords: 10000,
	}
}

// AttemptResult describes the state of a key after RecordFailure
type AttemptResult struct {
	Failures    int
	Locked      bool
	JustLocked  bool // This failure caused the lockout
	LockedUntil time.Time
}

// TrackerOption configures an AttemptTracker
type TrackerOption func(*AttemptTracker)

// WithTrackerClock overrides the time source
func WithTrackerClock(now func() time.Time) TrackerOption {
	return func(t *AttemptTracker) {
		t.now = now
	}
}

type attemptRecord struct {
	mu          sync.Mutex
	failures    int
	windowStart time.Time
	lockedUntil time.Time
	removed     bool // Set once the record is unlinked from the map
}

// lockActive reports whether the record is locked at now, resetting it when
// the lock has run out. Caller must hold r.mu.
func (r *attemptRecord) lockActive(now time.Time) bool {
	if r.lockedUntil.IsZero() {
		return false
	}
	if now.Before(r.lockedUntil) {
		return true
	}
	r.failures = 0
	r.windowStart = time.Time{}
	r.lockedUntil = time.Time{}
	return false
}

// stale reports whether the record can be evicted. Caller must hold r.mu.
func (r *attemptRecord) stale(now time.Time, maxAge time.Duration) bool {
	if r.lockActive(now) {
		return false
	}
	return now.Sub(r.windowStart) > maxAge
}

// AttemptTracker counts failed logins per key and locks a key out after
// repeated failures inside a sliding window. Records for different keys never
// contend beyond the map lookup; updates to the same key are serialized.
type AttemptTracker struct {
	config  LockoutConfig
	now     func() time.Time
	mu      sync.RWMutex
	records map[string]*attemptRecord
}

// NewAttemptTracker creates a new AttemptTracker
func NewAttemptTracker(config LockoutConfig, opts ...TrackerOption) *AttemptTracker {
	defaults := DefaultLockoutConfig()
	if config.Threshold <= 0 {
		config.Threshold = defaults.Threshold
	}
	if config.Window <= 0 {
		config.Window = defaults.Window
	}
	if config.Lockout <= 0 {
		config.Lockout = defaults.Lockout
	}
	if config.MaxRecords < 0 {
		config.MaxRecords = 0
	}

	t := &AttemptTracker{
		config:  config,
		now:     time.Now,
		records: make(map[string]*attemptRecord),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Config returns the active lockout policy
func (t *AttemptTracker) Config() LockoutConfig {
	return t.config
}

// RecordFailure registers a failed attempt for key. A window older than
// config.Window restarts the count at 1. Failures recorded while the key is
// locked neither extend the lock nor grow the count.
func (t *AttemptTracker) RecordFailure(key string) AttemptResult {
	for {
		rec := t.getOrCreate(key)

		rec.mu.Lock()
		if rec.removed {
			// Cleared or swept between lookup and lock
			rec.mu.Unlock()
			continue
		}

		now := t.now()
		if rec.lockActive(now) {
			result := AttemptResult{Failures: rec.failures, Locked: true, LockedUntil: rec.lockedUntil}
			rec.mu.Unlock()
			return result
		}

		if rec.failures == 0 || now.Sub(rec.windowStart) >= t.config.Window {
			rec.failures = 0
			rec.windowStart = now
		}
		rec.failures++

		result := AttemptResult{Failures: rec.failures}
		if rec.failures >= t.config.Threshold {
			rec.lockedUntil = now.Add(t.config.Lockout)
			result.Locked = true
			result.JustLocked = true
			result.LockedUntil = rec.lockedUntil
		}
		rec.mu.Unlock()
		return result
	}
}

// IsLocked reports whether key is currently locked out. An expired lock is
// reset so the next failure starts a fresh count.
func (t *AttemptTracker) IsLocked(key string) bool {
	_, locked := t.LockedUntil(key)
	return locked
}

// LockedUntil returns the lock expiry for key and whether it is still in force
func (t *AttemptTracker) LockedUntil(key string) (time.Time, bool) {
	rec := t.lookup(key)
	if rec == nil {
		return time.Time{}, false
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.removed || !rec.lockActive(t.now()) {
		return time.Time{}, false
	}
	return rec.lockedUntil, true
}

// Failures returns the current failure count for key
func (t *AttemptTracker) Failures(key string) int {
	rec := t.lookup(key)
	if rec == nil {
		return 0
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.removed {
		return 0
	}
	rec.lockActive(t.now())
	return rec.failures
}

// Clear removes the record for key. Other keys are untouched.
func (t *AttemptTracker) Clear(key string) {
	t.mu.Lock()
	rec, ok := t.records[key]
	if ok {
		delete(t.records, key)
	}
	t.mu.Unlock()

	if ok {
		rec.mu.Lock()
		rec.removed = true
		rec.mu.Unlock()
	}
}

// SweepExpired removes unlocked records whose window started more than
// maxAge ago and returns how many were removed. Keys are snapshotted first and
// locked one at a time; records busy with a concurrent update are skipped.
func (t *AttemptTracker) SweepExpired(maxAge time.Duration) int {
	t.mu.RLock()
	keys := make([]string, 0, len(t.records))
	for key := range t.records {
		keys = append(keys, key)
	}
	t.mu.RUnlock()

	removed := 0
	for _, key := range keys {
		if t.evictIfStale(key, maxAge) {
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys
func (t *AttemptTracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.records)
}

func (t *AttemptTracker) evictIfStale(key string, maxAge time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[key]
	if !ok || !rec.mu.TryLock() {
		return false
	}
	defer rec.mu.Unlock()

	if !rec.stale(t.now(), maxAge) {
		return false
	}
	delete(t.records, key)
	rec.removed = true
	return true
}

func (t *AttemptTracker) lookup(key string) *attemptRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.records[key]
}

func (t *AttemptTracker) getOrCreate(key string) *attemptRecord {
	if rec := t.lookup(key); rec != nil {
		return rec
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if rec, ok := t.records[key]; ok {
		return rec
	}
	if t.config.MaxRecords > 0 && len(t.records) >= t.config.MaxRecords {
		t.evictUnlockedLocked()
	}

	rec := &attemptRecord{}
	t.records[key] = rec
	return rec
}

// evictUnlockedLocked drops records that are not currently locked until the
// map is back under the cap. Locked records are kept so a full map can never
// be used to lift a lockout. Caller must hold t.mu for writing.
func (t *AttemptTracker) evictUnlockedLocked() {
	now := t.now()
	for key, rec := range t.records {
		if len(t.records) < t.config.MaxRecords {
			return
		}
		if !rec.mu.TryLock() {
			continue
		}
		if !rec.lockActive(now) {
			delete(t.records, key)
			rec.removed = true
		}
		rec.mu.Unlock()
	}
}
