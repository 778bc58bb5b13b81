package resilience

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for resilience operations.
var (
	// ErrCircuitOpen is returned when the circuit breaker is open.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrMaxRetriesExceeded is returned when max retry attempts are exhausted.
	ErrMaxRetriesExceeded = errors.New("resilience: max retries exceeded")

	// ErrRateLimitExceeded is returned when the rate limit is exceeded.
	ErrRateLimitExceeded = errors.New("resilience: rate limit exceeded")

	// ErrBulkheadFull is returned when the bulkhead is at capacity.
	ErrBulkheadFull = errors.New("resilience: bulkhead at capacity")

	// ErrTimeout is returned when an operation times out.
	ErrTimeout = errors.New("resilience: operation timed out")
)

// CircuitOpenError reports a request rejected by an open circuit
// breaker. RetryAfter is the remaining open interval, zero when the
// breaker is half-open and all trial slots are taken.
type CircuitOpenError struct {
	Service    string
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *CircuitOpenError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("resilience: circuit breaker open for %s, retry after %s", e.Service, e.RetryAfter)
	}
	return fmt.Sprintf("resilience: circuit breaker open for %s", e.Service)
}

// Is reports true for ErrCircuitOpen so callers can match with
// errors.Is without knowing the concrete type.
func (e *CircuitOpenError) Is(target error) bool {
	return target == ErrCircuitOpen
}
