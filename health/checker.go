package health

import (
	"context"
	"time"
)

// Status is the observed health of a component. The zero value is
// healthy so an unreported component does not drag the aggregate down.
type Status int

const (
	// StatusHealthy means the component is operating normally.
	StatusHealthy Status = iota
	// StatusDegraded means the component works but with elevated
	// errors or latency. The client scales admission down in response.
	StatusDegraded
	// StatusUnhealthy means the component is effectively unusable.
	StatusUnhealthy
)

var statusNames = [...]string{"healthy", "degraded", "unhealthy"}

func (s Status) String() string {
	if s < StatusHealthy || s > StatusUnhealthy {
		return "unknown"
	}
	return statusNames[s]
}

// Result is one evaluation of a check.
type Result struct {
	Status Status

	// Message is a short human-readable explanation of the status.
	Message string

	// Details carries check-specific measurements, e.g. error rates or
	// byte counts.
	Details map[string]any

	// Duration is how long the evaluation took.
	Duration time.Duration

	// Timestamp is when the evaluation ran.
	Timestamp time.Time

	// Error is the underlying failure for unhealthy results.
	Error error
}

// Healthy builds a healthy result with the given message.
func Healthy(message string) Result {
	return Result{Status: StatusHealthy, Message: message, Timestamp: time.Now()}
}

// Degraded builds a degraded result with the given message.
func Degraded(message string) Result {
	return Result{Status: StatusDegraded, Message: message, Timestamp: time.Now()}
}

// Unhealthy builds an unhealthy result carrying the causing error.
func Unhealthy(message string, err error) Result {
	return Result{Status: StatusUnhealthy, Message: message, Error: err, Timestamp: time.Now()}
}

// WithDetails returns a copy of the result with details attached.
func (r Result) WithDetails(details map[string]any) Result {
	r.Details = details
	return r
}

// WithDuration returns a copy of the result with the duration set.
func (r Result) WithDuration(d time.Duration) Result {
	r.Duration = d
	return r
}

// Checker evaluates the health of one component. Check must respect
// ctx cancellation; a checker that cannot finish in time should report
// what it knows rather than block.
type Checker interface {
	Name() string
	Check(ctx context.Context) Result
}

// CheckerFunc adapts a plain function into a named Checker.
type CheckerFunc struct {
	name string
	fn   func(context.Context) Result
}

// NewCheckerFunc wraps fn as a Checker registered under name.
func NewCheckerFunc(name string, fn func(context.Context) Result) *CheckerFunc {
	return &CheckerFunc{name: name, fn: fn}
}

func (f *CheckerFunc) Name() string { return f.name }

func (f *CheckerFunc) Check(ctx context.Context) Result { return f.fn(ctx) }
