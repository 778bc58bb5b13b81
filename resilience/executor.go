package resilience

import (
	"context"
	"time"
)

// Executor composes the resilience patterns around a call to one
// downstream service.
type Executor struct {
	rateLimiter *RateLimiter
	breakers    *BreakerRegistry
	retry       *Retry
	timeout     *Timeout
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates a new resilience executor.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithBreakerRegistry adds per-service circuit breaking to the executor.
func WithBreakerRegistry(r *BreakerRegistry) ExecutorOption {
	return func(e *Executor) {
		e.breakers = r
	}
}

// WithRetry adds retry logic to the executor.
func WithRetry(r *Retry) ExecutorOption {
	return func(e *Executor) {
		e.retry = r
	}
}

// WithRateLimiter adds rate limiting to the executor.
func WithRateLimiter(rl *RateLimiter) ExecutorOption {
	return func(e *Executor) {
		e.rateLimiter = rl
	}
}

// WithTimeout adds a per-attempt timeout to the executor.
func WithTimeout(timeout time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.timeout = NewTimeout(TimeoutConfig{Timeout: timeout})
	}
}

// WithTimeoutConfig adds a per-attempt timeout with custom config.
func WithTimeoutConfig(t *Timeout) ExecutorOption {
	return func(e *Executor) {
		e.timeout = t
	}
}

// Execute runs the operation against the named downstream service
// through all configured resilience patterns.
//
// Each attempt, the first included, passes through the full admission
// chain again:
//  1. Rate Limiter - one token per attempt
//  2. Circuit Breaker - per-service failure isolation
//  3. Timeout - bounds the attempt
//
// Retry wraps the whole chain, so a recovering or newly opened breaker
// is observed between attempts rather than only once up front.
func (e *Executor) Execute(ctx context.Context, service string, op func(context.Context) error) error {
	attempt := op

	if e.timeout != nil {
		inner := attempt
		attempt = func(ctx context.Context) error {
			return e.timeout.Execute(ctx, inner)
		}
	}

	if e.breakers != nil {
		inner := attempt
		attempt = func(ctx context.Context) error {
			return e.breakers.Get(service).Execute(ctx, inner)
		}
	}

	if e.rateLimiter != nil {
		inner := attempt
		attempt = func(ctx context.Context) error {
			if !e.rateLimiter.Allow() {
				return ErrRateLimitExceeded
			}
			return inner(ctx)
		}
	}

	if e.retry != nil {
		return e.retry.Execute(ctx, attempt)
	}
	return attempt(ctx)
}
