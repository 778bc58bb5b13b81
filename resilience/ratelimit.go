package resilience

import (
	"sync"
	"time"

	"github.com/jonwraymond/bookingkit/health"
)

// RateLimiterConfig configures the adaptive rate limiter.
type RateLimiterConfig struct {
	// Rate is the number of admissions allowed per second when the
	// system is healthy.
	// Default: 100
	Rate float64

	// Burst is the maximum burst size.
	// Default: 10
	Burst int
}

// Health multipliers applied to the configured refill rate.
const (
	multiplierHealthy   = 1.0
	multiplierDegraded  = 0.6
	multiplierUnhealthy = 0.2
)

// RateLimiter implements a token bucket whose refill rate scales with
// observed system health. The bucket refills continuously at
// Rate × multiplier, capped at Burst tokens; each admission consumes
// one token.
type RateLimiter struct {
	mu          sync.Mutex
	rate        float64
	burst       int
	multiplier  float64
	tokens      float64
	lastRefresh time.Time
}

// NewRateLimiter creates a new rate limiter at full (healthy) rate.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	// Apply defaults
	if config.Rate <= 0 {
		config.Rate = 100
	}
	if config.Burst <= 0 {
		config.Burst = 10
	}

	return &RateLimiter{
		rate:        config.Rate,
		burst:       config.Burst,
		multiplier:  multiplierHealthy,
		tokens:      float64(config.Burst),
		lastRefresh: time.Now(),
	}
}

// Allow checks if one admission is allowed under the rate limit.
func (rl *RateLimiter) Allow() bool {
	return rl.AllowN(1)
}

// AllowN checks if n admissions are allowed.
func (rl *RateLimiter) AllowN(n int) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refillLocked()

	if rl.tokens >= float64(n) {
		rl.tokens -= float64(n)
		return true
	}

	return false
}

// SetHealth updates the adaptive multiplier and returns the resulting
// value. The new multiplier applies to all subsequent refills
// immediately.
func (rl *RateLimiter) SetHealth(status health.Status) float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Settle accrued tokens under the old multiplier first.
	rl.refillLocked()

	switch status {
	case health.StatusDegraded:
		rl.multiplier = multiplierDegraded
	case health.StatusUnhealthy:
		rl.multiplier = multiplierUnhealthy
	default:
		rl.multiplier = multiplierHealthy
	}

	return rl.multiplier
}

// Multiplier returns the current adaptive multiplier.
func (rl *RateLimiter) Multiplier() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.multiplier
}

// SetRate swaps the configured rate and burst size. Tokens above the
// new burst cap are discarded.
func (rl *RateLimiter) SetRate(rate float64, burst int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refillLocked()

	if rate > 0 {
		rl.rate = rate
	}
	if burst > 0 {
		rl.burst = burst
		if rl.tokens > float64(burst) {
			rl.tokens = float64(burst)
		}
	}
}

// Rate returns the configured healthy-state rate.
func (rl *RateLimiter) Rate() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.rate
}

// Tokens returns the current number of available tokens.
func (rl *RateLimiter) Tokens() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refillLocked()
	return rl.tokens
}

// Reset refills the limiter to full burst capacity.
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.tokens = float64(rl.burst)
	rl.lastRefresh = time.Now()
}

func (rl *RateLimiter) refillLocked() {
	now := time.Now()
	elapsed := now.Sub(rl.lastRefresh)
	rl.lastRefresh = now

	// Add tokens based on elapsed time and the health multiplier
	tokensToAdd := elapsed.Seconds() * rl.rate * rl.multiplier
	rl.tokens += tokensToAdd

	// Cap at burst size
	if rl.tokens > float64(rl.burst) {
		rl.tokens = float64(rl.burst)
	}
}
