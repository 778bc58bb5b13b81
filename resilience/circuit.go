package resilience

import (
	"context"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means the circuit is operating normally.
	StateClosed State = iota
	// StateOpen means the circuit is blocking all requests.
	StateOpen
	// StateHalfOpen means the circuit is testing if the service recovered.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures the circuit breaker.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive failures before
	// opening the circuit.
	// Default: 5
	FailureThreshold int

	// SuccessThreshold is the number of consecutive half-open trial
	// successes required to close the circuit.
	// Default: 3
	SuccessThreshold int

	// ResetTimeout is how long to wait in the open state before
	// attempting recovery.
	// Default: 30 seconds
	ResetTimeout time.Duration

	// HalfOpenMaxRequests is the max concurrent trial requests allowed
	// in the half-open state.
	// Default: 1
	HalfOpenMaxRequests int

	// OnStateChange is called when the circuit state changes.
	OnStateChange func(from, to State)

	// IsFailure determines if an error should count as a failure.
	// Default: all non-nil errors are failures.
	IsFailure func(err error) bool
}

func (c *CircuitBreakerConfig) applyDefaults() {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.SuccessThreshold <= 0 {
		c.SuccessThreshold = 3
	}
	if c.ResetTimeout <= 0 {
		c.ResetTimeout = 30 * time.Second
	}
	if c.HalfOpenMaxRequests <= 0 {
		c.HalfOpenMaxRequests = 1
	}
	if c.IsFailure == nil {
		c.IsFailure = func(err error) bool { return err != nil }
	}
}

// CircuitBreaker tracks consecutive failures for one downstream service
// and fast-fails while the service is presumed unhealthy.
//
// Invariant: the breaker is in exactly one state at a time, and both
// consecutive counters reset to zero on every transition.
type CircuitBreaker struct {
	service string

	mu             sync.Mutex
	config         CircuitBreakerConfig
	state          State
	failures       int
	successes      int
	lastTransition time.Time
	openedAt       time.Time
	halfOpenActive int // trials currently in flight
}

// NewCircuitBreaker creates a new circuit breaker for the named
// downstream service.
func NewCircuitBreaker(service string, config CircuitBreakerConfig) *CircuitBreaker {
	config.applyDefaults()

	return &CircuitBreaker{
		service:        service,
		config:         config,
		state:          StateClosed,
		lastTransition: time.Now(),
	}
}

// Service returns the downstream service name this breaker guards.
func (cb *CircuitBreaker) Service() string {
	return cb.service
}

// Execute runs the operation through the circuit breaker. When the
// circuit is open, or half-open with all trial slots taken, the
// operation is not invoked and a *CircuitOpenError carrying the
// remaining reset time is returned.
func (cb *CircuitBreaker) Execute(ctx context.Context, op func(context.Context) error) error {
	trial, err := cb.beforeRequest()
	if err != nil {
		return err
	}

	err = op(ctx)
	cb.afterRequest(trial, err)
	return err
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentStateLocked()
}

// Reset forces the circuit breaker back to closed with zero counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	oldState := cb.state
	cb.transitionLocked(StateClosed)
	cb.mu.Unlock()

	if oldState != StateClosed && cb.config.OnStateChange != nil {
		cb.config.OnStateChange(oldState, StateClosed)
	}
}

// beforeRequest decides whether the request may proceed. The returned
// bool marks the request as a half-open trial whose slot must be
// given back in afterRequest.
func (cb *CircuitBreaker) beforeRequest() (bool, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.currentStateLocked() {
	case StateOpen:
		return false, &CircuitOpenError{
			Service:    cb.service,
			RetryAfter: cb.retryAfterLocked(),
		}

	case StateHalfOpen:
		if cb.halfOpenActive >= cb.config.HalfOpenMaxRequests {
			return false, &CircuitOpenError{Service: cb.service}
		}
		cb.halfOpenActive++
		return true, nil
	}

	return false, nil
}

func (cb *CircuitBreaker) afterRequest(trial bool, err error) {
	cb.mu.Lock()

	if trial && cb.halfOpenActive > 0 {
		cb.halfOpenActive--
	}

	isFailure := cb.config.IsFailure(err)
	oldState := cb.state

	switch cb.state {
	case StateClosed:
		if isFailure {
			cb.failures++
			if cb.failures >= cb.config.FailureThreshold {
				cb.transitionLocked(StateOpen)
			}
		} else {
			// A single success resets the consecutive-failure count
			cb.failures = 0
		}

	case StateHalfOpen:
		if isFailure {
			// Any trial failure reopens immediately and restarts the
			// open timer.
			cb.transitionLocked(StateOpen)
		} else {
			cb.successes++
			if cb.successes >= cb.config.SuccessThreshold {
				cb.transitionLocked(StateClosed)
			}
		}
	}

	newState := cb.state
	cb.mu.Unlock()

	if oldState != newState && cb.config.OnStateChange != nil {
		cb.config.OnStateChange(oldState, newState)
	}
}

// currentStateLocked lazily advances Open to HalfOpen once the reset
// timeout has elapsed.
func (cb *CircuitBreaker) currentStateLocked() State {
	if cb.state == StateOpen && time.Since(cb.openedAt) >= cb.config.ResetTimeout {
		cb.transitionLocked(StateHalfOpen)
		if cb.config.OnStateChange != nil {
			cb.config.OnStateChange(StateOpen, StateHalfOpen)
		}
	}
	return cb.state
}

func (cb *CircuitBreaker) transitionLocked(state State) {
	cb.state = state
	cb.failures = 0
	cb.successes = 0
	cb.lastTransition = time.Now()

	switch state {
	case StateOpen:
		cb.openedAt = cb.lastTransition
	case StateHalfOpen:
		cb.halfOpenActive = 0
	}
}

func (cb *CircuitBreaker) retryAfterLocked() time.Duration {
	remaining := cb.config.ResetTimeout - time.Since(cb.openedAt)
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// setConfig swaps the breaker's thresholds. State and counters carry
// over; the new thresholds apply to subsequent decisions.
func (cb *CircuitBreaker) setConfig(config CircuitBreakerConfig) {
	config.applyDefaults()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.config = config
}

// Metrics returns current circuit breaker metrics.
func (cb *CircuitBreaker) Metrics() CircuitBreakerMetrics {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return CircuitBreakerMetrics{
		Service:        cb.service,
		State:          cb.currentStateLocked(),
		Failures:       cb.failures,
		Successes:      cb.successes,
		HalfOpenActive: cb.halfOpenActive,
		LastTransition: cb.lastTransition,
	}
}

// CircuitBreakerMetrics contains circuit breaker statistics.
type CircuitBreakerMetrics struct {
	Service        string
	State          State
	Failures       int
	Successes      int
	HalfOpenActive int
	LastTransition time.Time
}
