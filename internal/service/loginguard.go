package service

import (
	"sync"
	"time"
)

const guardCleanupPeriod = 5 * time.Minute

type attemptState struct {
	count       int
	windowStart time.Time
	lockedUntil time.Time
}

// LoginAttemptGuard tracks consecutive failed logins per normalized
// email and locks the identity out once the threshold is reached.
// State is in-memory on purpose: this is brute-force mitigation, not
// an audit trail, and does not need to survive a restart.
type LoginAttemptGuard struct {
	mu          sync.Mutex
	attempts    map[string]*attemptState
	maxAttempts int
	lockout     time.Duration
	lastCleanup time.Time
	now         func() time.Time
}

func NewLoginAttemptGuard(maxAttempts int, lockout time.Duration) *LoginAttemptGuard {
	return &LoginAttemptGuard{
		attempts:    make(map[string]*attemptState),
		maxAttempts: maxAttempts,
		lockout:     lockout,
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

func (g *LoginAttemptGuard) cleanup(now time.Time) {
	if now.Sub(g.lastCleanup) < guardCleanupPeriod {
		return
	}
	g.lastCleanup = now

	for key, state := range g.attempts {
		if now.Sub(state.windowStart) > g.lockout && now.After(state.lockedUntil) {
			delete(g.attempts, key)
		}
	}
}

// IsLocked reports whether the key is currently locked out. A lock that
// has expired resets the counter to zero.
func (g *LoginAttemptGuard) IsLocked(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	state, exists := g.attempts[key]
	if !exists {
		return false
	}

	now := g.now()
	if !state.lockedUntil.IsZero() {
		if now.Before(state.lockedUntil) {
			return true
		}
		delete(g.attempts, key)
	}
	return false
}

// RecordFailure counts a failed attempt and locks the key once the
// count reaches the threshold within the tracking window.
func (g *LoginAttemptGuard) RecordFailure(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.cleanup(now)

	state, exists := g.attempts[key]
	if !exists || now.Sub(state.windowStart) > g.lockout {
		state = &attemptState{windowStart: now}
		g.attempts[key] = state
	}

	state.count++
	if state.count >= g.maxAttempts {
		state.lockedUntil = now.Add(g.lockout)
	}
}

// RecordSuccess resets the counter for the key.
func (g *LoginAttemptGuard) RecordSuccess(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.attempts, key)
}
