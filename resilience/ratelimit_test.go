package resilience

import (
	"sync"
	"testing"
	"time"

	"github.com/jonwraymond/bookingkit/health"
)

func TestNewRateLimiter(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{})

	if rl.Rate() != 100 {
		t.Errorf("Rate = %f, want 100", rl.Rate())
	}
	if rl.burst != 10 {
		t.Errorf("Burst = %d, want 10", rl.burst)
	}
	if rl.Multiplier() != 1.0 {
		t.Errorf("Multiplier = %f, want 1.0", rl.Multiplier())
	}
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Rate:  10, // 10 per second
		Burst: 5,
	})

	// Should allow burst
	for i := 0; i < 5; i++ {
		if !rl.Allow() {
			t.Errorf("Allow() = false on attempt %d, want true", i)
		}
	}

	// Should deny after burst
	if rl.Allow() {
		t.Error("Allow() = true after burst exhausted, want false")
	}
}

func TestRateLimiter_AllowN(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Rate:  10,
		Burst: 5,
	})

	// Should allow N tokens
	if !rl.AllowN(3) {
		t.Error("AllowN(3) = false, want true")
	}

	// Should allow remaining tokens
	if !rl.AllowN(2) {
		t.Error("AllowN(2) = false, want true")
	}

	// Should deny when not enough tokens
	if rl.AllowN(1) {
		t.Error("AllowN(1) = true when empty, want false")
	}
}

func TestRateLimiter_Refill(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Rate:  1000, // 1000 per second = 1 per ms
		Burst: 5,
	})

	// Exhaust tokens
	for i := 0; i < 5; i++ {
		rl.Allow()
	}

	// Wait for refill
	time.Sleep(10 * time.Millisecond)

	// Should have some tokens now
	if !rl.Allow() {
		t.Error("Allow() = false after refill, want true")
	}
}

func TestRateLimiter_SetHealth(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Rate:  100,
		Burst: 10,
	})

	tests := []struct {
		status health.Status
		want   float64
	}{
		{health.StatusHealthy, 1.0},
		{health.StatusDegraded, 0.6},
		{health.StatusUnhealthy, 0.2},
		{health.StatusHealthy, 1.0},
	}

	for _, tt := range tests {
		if got := rl.SetHealth(tt.status); got != tt.want {
			t.Errorf("SetHealth(%v) = %f, want %f", tt.status, got, tt.want)
		}
		if got := rl.Multiplier(); got != tt.want {
			t.Errorf("Multiplier() after %v = %f, want %f", tt.status, got, tt.want)
		}
	}
}

func TestRateLimiter_DegradedRefillIsSlower(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Rate:  1000,
		Burst: 100,
	})

	// Exhaust tokens, then refill while unhealthy
	for i := 0; i < 100; i++ {
		rl.Allow()
	}
	rl.SetHealth(health.StatusUnhealthy)

	time.Sleep(20 * time.Millisecond)

	// At 20% of 1000/s, ~20ms accrues roughly 4 tokens, never the ~20
	// a healthy limiter would accrue.
	tokens := rl.Tokens()
	if tokens > 15 {
		t.Errorf("Tokens after unhealthy refill = %f, want well below healthy rate", tokens)
	}
	if tokens < 1 {
		t.Errorf("Tokens after unhealthy refill = %f, want some refill", tokens)
	}
}

func TestRateLimiter_SetRate(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Rate:  100,
		Burst: 10,
	})

	rl.SetRate(50, 5)

	if rl.Rate() != 50 {
		t.Errorf("Rate after SetRate = %f, want 50", rl.Rate())
	}

	// Tokens above the new burst cap are discarded
	if tokens := rl.Tokens(); tokens > 5.1 {
		t.Errorf("Tokens after shrink = %f, want <= 5", tokens)
	}
}

func TestRateLimiter_Tokens(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Rate:  100,
		Burst: 10,
	})

	tokens := rl.Tokens()
	if tokens != 10 {
		t.Errorf("Initial tokens = %f, want 10", tokens)
	}

	rl.Allow()
	rl.Allow()

	tokens = rl.Tokens()
	if tokens < 7.9 || tokens > 8.1 {
		t.Errorf("After 2 allows, tokens = %f, want ~8", tokens)
	}
}

func TestRateLimiter_Reset(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Rate:  100,
		Burst: 10,
	})

	// Exhaust tokens
	for i := 0; i < 10; i++ {
		rl.Allow()
	}

	tokens := rl.Tokens()
	if tokens > 0.5 {
		t.Errorf("Tokens after exhaust = %f, want ~0", tokens)
	}

	rl.Reset()

	tokens = rl.Tokens()
	if tokens != 10 {
		t.Errorf("Tokens after reset = %f, want 10", tokens)
	}
}

func TestRateLimiter_Concurrent(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Rate:  1000,
		Burst: 100,
	})

	var wg sync.WaitGroup
	allowed := 0
	var mu sync.Mutex

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.Allow() {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	// Should have allowed around 100 (burst size)
	if allowed < 90 || allowed > 110 {
		t.Errorf("Concurrent allowed = %d, want ~100", allowed)
	}
}
