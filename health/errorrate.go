package health

import (
	"context"
	"fmt"
	"sync"
)

// ErrorRateCheckerConfig configures an error-rate checker.
type ErrorRateCheckerConfig struct {
	// WarningRatio is the failure ratio that triggers degraded status.
	// Default: 0.1
	WarningRatio float64

	// CriticalRatio is the failure ratio that triggers unhealthy
	// status. Default: 0.5
	CriticalRatio float64

	// MinSamples is the minimum number of outcomes in the window before
	// the ratio is trusted. Below it the checker reports healthy.
	// Default: 10
	MinSamples int64
}

// ErrorRateChecker derives health from the failure ratio of a request
// counter pair between consecutive checks. Wire it to a client's
// succeeded/failed counters to close the loop between supplier errors
// and adaptive rate limiting.
type ErrorRateChecker struct {
	name   string
	source func() (succeeded, failed int64)
	config ErrorRateCheckerConfig

	mu            sync.Mutex
	lastSucceeded int64
	lastFailed    int64
}

// NewErrorRateChecker creates a checker reading cumulative succeeded
// and failed counts from source.
func NewErrorRateChecker(name string, source func() (succeeded, failed int64), config ErrorRateCheckerConfig) *ErrorRateChecker {
	if config.WarningRatio <= 0 || config.WarningRatio >= 1 {
		config.WarningRatio = 0.1
	}
	if config.CriticalRatio <= 0 || config.CriticalRatio > 1 {
		config.CriticalRatio = 0.5
	}
	if config.CriticalRatio < config.WarningRatio {
		config.CriticalRatio = config.WarningRatio
	}
	if config.MinSamples <= 0 {
		config.MinSamples = 10
	}

	return &ErrorRateChecker{
		name:   name,
		source: source,
		config: config,
	}
}

// Name returns the name of this checker.
func (c *ErrorRateChecker) Name() string {
	return c.name
}

// Check computes the failure ratio since the previous check.
func (c *ErrorRateChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	succeeded, failed := c.source()

	c.mu.Lock()
	deltaSucceeded := succeeded - c.lastSucceeded
	deltaFailed := failed - c.lastFailed
	c.lastSucceeded = succeeded
	c.lastFailed = failed
	c.mu.Unlock()

	total := deltaSucceeded + deltaFailed
	details := map[string]any{
		"window_succeeded": deltaSucceeded,
		"window_failed":    deltaFailed,
	}

	if total < c.config.MinSamples {
		return Healthy("insufficient samples in window").WithDetails(details)
	}

	ratio := float64(deltaFailed) / float64(total)
	details["failure_ratio"] = ratio

	switch {
	case ratio >= c.config.CriticalRatio:
		return Unhealthy(
			fmt.Sprintf("failure ratio critical: %.0f%%", ratio*100),
			ErrCheckFailed,
		).WithDetails(details)
	case ratio >= c.config.WarningRatio:
		return Degraded(
			fmt.Sprintf("failure ratio elevated: %.0f%%", ratio*100),
		).WithDetails(details)
	default:
		return Healthy(
			fmt.Sprintf("failure ratio normal: %.0f%%", ratio*100),
		).WithDetails(details)
	}
}
