package resilience

import (
	"context"
	"sync/atomic"
	"time"
)

// TimeoutConfig configures the timeout wrapper.
type TimeoutConfig struct {
	// Timeout is the maximum duration for one attempt.
	// Default: 5 seconds
	Timeout time.Duration
}

// Timeout bounds operations to a wall-clock budget. The budget can be
// swapped at runtime; attempts already running keep the budget they
// started with.
type Timeout struct {
	timeout atomic.Int64 // nanoseconds
}

// NewTimeout creates a new timeout wrapper.
func NewTimeout(config TimeoutConfig) *Timeout {
	// Apply defaults
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}

	t := &Timeout{}
	t.timeout.Store(int64(config.Timeout))
	return t
}

// Execute runs the operation with the current timeout. A deadline
// already present on ctx is honored when it is sooner.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, t.Timeout())
	defer cancel()

	done := make(chan error, 1)

	go func() {
		done <- op(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return ErrTimeout
		}
		return ctx.Err()
	}
}

// Timeout returns the current per-attempt budget.
func (t *Timeout) Timeout() time.Duration {
	return time.Duration(t.timeout.Load())
}

// SetTimeout swaps the per-attempt budget for subsequent attempts.
func (t *Timeout) SetTimeout(timeout time.Duration) {
	if timeout > 0 {
		t.timeout.Store(int64(timeout))
	}
}

// ExecuteWithTimeout is a convenience function to run an operation with
// a one-off timeout.
func ExecuteWithTimeout(ctx context.Context, timeout time.Duration, op func(context.Context) error) error {
	t := NewTimeout(TimeoutConfig{Timeout: timeout})
	return t.Execute(ctx, op)
}
