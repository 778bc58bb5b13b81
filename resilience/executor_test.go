package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewExecutor(t *testing.T) {
	e := NewExecutor()

	if e.breakers != nil {
		t.Error("Default executor should not have circuit breakers")
	}
	if e.retry != nil {
		t.Error("Default executor should not have retry")
	}
	if e.rateLimiter != nil {
		t.Error("Default executor should not have rate limiter")
	}
	if e.timeout != nil {
		t.Error("Default executor should not have timeout")
	}
}

func TestExecutor_WithOptions(t *testing.T) {
	reg := NewBreakerRegistry(CircuitBreakerConfig{})
	retry := NewRetry(RetryConfig{})
	rl := NewRateLimiter(RateLimiterConfig{})

	e := NewExecutor(
		WithBreakerRegistry(reg),
		WithRetry(retry),
		WithRateLimiter(rl),
		WithTimeout(time.Second),
	)

	if e.breakers != reg {
		t.Error("BreakerRegistry not set")
	}
	if e.retry != retry {
		t.Error("Retry not set")
	}
	if e.rateLimiter != rl {
		t.Error("RateLimiter not set")
	}
	if e.timeout == nil {
		t.Error("Timeout not set")
	}
}

func TestExecutor_ExecuteNoPatterns(t *testing.T) {
	e := NewExecutor()

	executed := false
	err := e.Execute(context.Background(), "availability", func(ctx context.Context) error {
		executed = true
		return nil
	})

	if err != nil {
		t.Errorf("Execute() error = %v", err)
	}
	if !executed {
		t.Error("Operation was not executed")
	}
}

func TestExecutor_ExecuteWithTimeout(t *testing.T) {
	e := NewExecutor(
		WithTimeout(20 * time.Millisecond),
	)

	t.Run("completes in time", func(t *testing.T) {
		err := e.Execute(context.Background(), "availability", func(ctx context.Context) error {
			return nil
		})
		if err != nil {
			t.Errorf("Execute() error = %v", err)
		}
	})

	t.Run("times out", func(t *testing.T) {
		err := e.Execute(context.Background(), "availability", func(ctx context.Context) error {
			time.Sleep(100 * time.Millisecond)
			return nil
		})
		if err != ErrTimeout {
			t.Errorf("Execute() error = %v, want ErrTimeout", err)
		}
	})
}

func TestExecutor_ExecuteWithRetry(t *testing.T) {
	e := NewExecutor(
		WithRetry(NewRetry(RetryConfig{
			MaxRetries:     3,
			InitialBackoff: time.Millisecond,
		})),
	)

	attempts := 0
	testErr := errors.New("transient error")

	err := e.Execute(context.Background(), "availability", func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return testErr
		}
		return nil
	})

	if err != nil {
		t.Errorf("Execute() error = %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestExecutor_ExecuteWithBreakerRegistry(t *testing.T) {
	reg := NewBreakerRegistry(CircuitBreakerConfig{
		FailureThreshold: 2,
		ResetTimeout:     time.Hour,
	})

	e := NewExecutor(
		WithBreakerRegistry(reg),
	)

	testErr := errors.New("test error")

	// Trip the availability breaker
	for i := 0; i < 2; i++ {
		_ = e.Execute(context.Background(), "availability", func(ctx context.Context) error {
			return testErr
		})
	}

	// Availability should be blocked
	err := e.Execute(context.Background(), "availability", func(ctx context.Context) error {
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Execute() error = %v, want ErrCircuitOpen", err)
	}

	// Booking uses a separate breaker and stays available
	err = e.Execute(context.Background(), "booking", func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Errorf("Execute() on healthy service error = %v", err)
	}
}

func TestExecutor_ExecuteWithRateLimiter(t *testing.T) {
	e := NewExecutor(
		WithRateLimiter(NewRateLimiter(RateLimiterConfig{
			Rate:  10,
			Burst: 1,
		})),
	)

	// First should succeed
	err := e.Execute(context.Background(), "availability", func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Errorf("First Execute() error = %v", err)
	}

	// Second should be rate limited
	err = e.Execute(context.Background(), "availability", func(ctx context.Context) error {
		return nil
	})
	if err != ErrRateLimitExceeded {
		t.Errorf("Second Execute() error = %v, want ErrRateLimitExceeded", err)
	}
}

func TestExecutor_RetryReadmitsThroughLimiter(t *testing.T) {
	// One token per attempt: burst 2 covers the first attempt and one
	// retry, then admission fails with a non-retryable error.
	e := NewExecutor(
		WithRateLimiter(NewRateLimiter(RateLimiterConfig{
			Rate:  0.001,
			Burst: 2,
		})),
		WithRetry(NewRetry(RetryConfig{
			MaxRetries:     5,
			InitialBackoff: time.Millisecond,
			RetryIf: func(err error) bool {
				return err != ErrRateLimitExceeded
			},
		})),
	)

	attempts := 0
	err := e.Execute(context.Background(), "availability", func(ctx context.Context) error {
		attempts++
		return errors.New("transient error")
	})

	if err != ErrRateLimitExceeded {
		t.Errorf("Execute() error = %v, want ErrRateLimitExceeded", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}

func TestExecutor_ComposedPatterns(t *testing.T) {
	attempts := 0

	e := NewExecutor(
		WithRateLimiter(NewRateLimiter(RateLimiterConfig{
			Rate:  1000,
			Burst: 10,
		})),
		WithBreakerRegistry(NewBreakerRegistry(CircuitBreakerConfig{
			FailureThreshold: 10,
		})),
		WithRetry(NewRetry(RetryConfig{
			MaxRetries:     3,
			InitialBackoff: time.Millisecond,
		})),
		WithTimeout(time.Second),
	)

	testErr := errors.New("transient error")

	// Should retry and eventually succeed
	err := e.Execute(context.Background(), "availability", func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return testErr
		}
		return nil
	})

	if err != nil {
		t.Errorf("Execute() error = %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestWithTimeoutConfig(t *testing.T) {
	timeout := NewTimeout(TimeoutConfig{Timeout: 5 * time.Second})
	e := NewExecutor(WithTimeoutConfig(timeout))

	if e.timeout != timeout {
		t.Error("Timeout not set correctly with WithTimeoutConfig")
	}
}
