package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// RetryConfig configures the retry behavior.
type RetryConfig struct {
	// MaxRetries is the number of additional attempts after the first.
	// Default: 3
	MaxRetries int

	// InitialBackoff is the base delay before the first retry.
	// Default: 100ms
	InitialBackoff time.Duration

	// MaxBackoff caps the base delay between retries.
	// Default: 10s
	MaxBackoff time.Duration

	// Multiplier grows the base delay per retry.
	// Default: 2.0
	Multiplier float64

	// JitterFactor spreads each delay uniformly across a window of
	// base*JitterFactor centered on the base. Must be in [0, 1].
	// Default: 0.1
	JitterFactor float64

	// RetryIf determines if an error should trigger a retry.
	// Default: all non-nil errors trigger retry.
	RetryIf func(err error) bool

	// OnRetry is called before each retry attempt.
	OnRetry func(attempt int, err error, delay time.Duration)
}

func (c *RetryConfig) applyDefaults() {
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	} else if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 100 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 10 * time.Second
	}
	if c.Multiplier <= 0 {
		c.Multiplier = 2.0
	}
	if c.JitterFactor < 0 || c.JitterFactor > 1 {
		c.JitterFactor = 0.1
	}
	if c.RetryIf == nil {
		c.RetryIf = func(err error) bool { return err != nil }
	}
}

// Retry implements retry with exponential backoff and jitter.
type Retry struct {
	config RetryConfig
}

// NewRetry creates a new retry handler.
func NewRetry(config RetryConfig) *Retry {
	config.applyDefaults()
	return &Retry{config: config}
}

// Execute runs the operation until it succeeds, returns a
// non-retryable error, or MaxRetries additional attempts are spent.
// The operation itself is invoked fresh on every attempt, so admission
// checks composed into it are re-evaluated each time.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !r.config.RetryIf(err) {
			return err
		}
		if attempt >= r.config.MaxRetries {
			break
		}

		delay := r.Backoff(attempt)

		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt+1, err, delay)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return lastErr
}

// Backoff returns the jittered delay following the given zero-based
// failed attempt. With base = min(initial*multiplier^attempt, max) and
// j = JitterFactor, the delay is uniform in
// [base*(1-j/2), base*(1-j/2) + base*j].
func (r *Retry) Backoff(attempt int) time.Duration {
	base := float64(r.config.InitialBackoff) * math.Pow(r.config.Multiplier, float64(attempt))
	if ceiling := float64(r.config.MaxBackoff); base > ceiling {
		base = ceiling
	}

	j := r.config.JitterFactor
	lo := base * (1 - j/2)
	// #nosec G404 -- jitter is non-cryptographic timing variance.
	return time.Duration(lo + rand.Float64()*base*j)
}

// Config returns the retry configuration.
func (r *Retry) Config() RetryConfig {
	return r.config
}
