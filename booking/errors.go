package booking

import (
	"errors"
	"fmt"

	"github.com/jonwraymond/bookingkit/resilience"
)

// Sentinel errors for request outcomes. Structured detail, where it
// exists, is attached via wrapping types that satisfy errors.Is against
// these sentinels.
var (
	// ErrRateLimitExceeded is returned when local admission rejects the
	// request; the caller should back off.
	ErrRateLimitExceeded = errors.New("booking: rate limit exceeded")

	// ErrQueueFull is returned when the target priority queue is at
	// capacity.
	ErrQueueFull = errors.New("booking: request queue full")

	// ErrRequestPreempted is returned when a queued request is displaced
	// by a higher-priority arrival.
	ErrRequestPreempted = errors.New("booking: preempted by higher priority request")

	// ErrRequestCancelled is returned when a queued request is cancelled
	// via CancelRequest.
	ErrRequestCancelled = errors.New("booking: request cancelled")

	// ErrTimeout is returned when an attempt exceeds the configured
	// timeout or the request exceeds its deadline.
	ErrTimeout = errors.New("booking: request timed out")

	// ErrClientPaused is returned when the client is paused and not
	// accepting new admissions.
	ErrClientPaused = errors.New("booking: client paused")

	// ErrInvalidConfig is returned for configuration errors.
	ErrInvalidConfig = errors.New("booking: invalid configuration")

	// ErrMissingIdempotencyKey is returned for a booking without an
	// idempotency key. Retried bookings must be deduplicable downstream.
	ErrMissingIdempotencyKey = errors.New("booking: idempotency key is required")
)

// NetworkError reports a transport-level transient failure. Always
// retryable.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("booking: network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ResponseError reports a remote-reported failure outcome.
// Retryability follows the remote hint.
type ResponseError struct {
	StatusCode int
	Message    string
	Retryable  bool
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("booking: api error: %d - %s", e.StatusCode, e.Message)
}

// IsRetryable reports whether the error represents a transient failure
// that may be retried. Local scheduling and admission outcomes are
// never retryable; deadline expiry is terminal.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return true
	}
	var respErr *ResponseError
	if errors.As(err, &respErr) {
		return respErr.Retryable
	}
	if errors.Is(err, resilience.ErrTimeout) || errors.Is(err, ErrTimeout) {
		return true
	}
	return false
}
