// Package resilience provides the protective patterns used when
// calling rate-limited, failure-prone booking suppliers.
//
// This package implements common resilience patterns that can be
// composed together to keep a burst of customer traffic from
// overwhelming or being taken down by a struggling supplier.
//
// # Patterns
//
// The package provides the following resilience patterns:
//
//   - Circuit Breaker: Stops requests to a failing supplier service
//     after a run of consecutive failures, then probes for recovery
//     with a bounded number of trial requests.
//
//   - Retry: Retries failed operations with exponential backoff and
//     jitter, re-admitting every attempt through the full chain.
//
//   - Rate Limiter: An adaptive token bucket whose refill rate scales
//     down as observed system health degrades.
//
//   - Bulkhead: Limits concurrent operations to prevent resource
//     exhaustion; resizable at runtime.
//
//   - Timeout: Ensures each attempt completes within a time limit.
//
// # Usage
//
// Each pattern can be used independently or composed together:
//
//	// Per-service circuit breakers
//	breakers := resilience.NewBreakerRegistry(resilience.CircuitBreakerConfig{
//	    FailureThreshold: 5,
//	    SuccessThreshold: 3,
//	    ResetTimeout:     30 * time.Second,
//	})
//
//	// Retry with exponential backoff
//	retry := resilience.NewRetry(resilience.RetryConfig{
//	    MaxRetries:     3,
//	    InitialBackoff: 100 * time.Millisecond,
//	    MaxBackoff:     10 * time.Second,
//	    Multiplier:     2.0,
//	})
//
//	// Adaptive rate limiter
//	rl := resilience.NewRateLimiter(resilience.RateLimiterConfig{
//	    Rate:  100, // admissions per second when healthy
//	    Burst: 10,
//	})
//
//	// Compose patterns
//	executor := resilience.NewExecutor(
//	    resilience.WithBreakerRegistry(breakers),
//	    resilience.WithRetry(retry),
//	    resilience.WithRateLimiter(rl),
//	    resilience.WithTimeout(5*time.Second),
//	)
//
//	err := executor.Execute(ctx, "availability", func(ctx context.Context) error {
//	    return callSupplier(ctx)
//	})
package resilience
