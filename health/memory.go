package health

import (
	"context"
	"fmt"
	"runtime"
)

// MemoryCheckerConfig configures the process memory check.
type MemoryCheckerConfig struct {
	// WarningThreshold is the heap usage fraction at which the check
	// reports degraded, in (0, 1). Default: 0.8
	WarningThreshold float64

	// CriticalThreshold is the heap usage fraction at which the check
	// reports unhealthy, in (0, 1). Default: 0.95
	CriticalThreshold float64

	// MaxAlloc is the allocation budget in bytes that the thresholds
	// apply against. Zero uses the runtime's reserved system memory.
	MaxAlloc uint64
}

// MemoryChecker reports health from the Go runtime's memory
// statistics. Heavy queueing pressure shows up as heap growth before
// it shows up anywhere else, which makes this a useful local signal
// next to the downstream error-rate check.
type MemoryChecker struct {
	config MemoryCheckerConfig
}

// NewMemoryChecker creates a memory checker. Out-of-range thresholds
// fall back to the defaults; an inverted pair is spread apart.
func NewMemoryChecker(config MemoryCheckerConfig) *MemoryChecker {
	if config.WarningThreshold <= 0 || config.WarningThreshold >= 1 {
		config.WarningThreshold = 0.8
	}
	if config.CriticalThreshold <= 0 || config.CriticalThreshold >= 1 {
		config.CriticalThreshold = 0.95
	}
	if config.CriticalThreshold < config.WarningThreshold {
		config.CriticalThreshold = config.WarningThreshold + 0.1
		if config.CriticalThreshold > 1 {
			config.CriticalThreshold = 0.99
		}
	}
	return &MemoryChecker{config: config}
}

func (m *MemoryChecker) Name() string { return "memory" }

// Check implements Checker.
func (m *MemoryChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context cancelled", err)
	}

	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	budget := m.config.MaxAlloc
	if budget == 0 {
		budget = stats.Sys
	}
	if budget == 0 {
		return Healthy("memory stats unavailable").WithDetails(map[string]any{
			"alloc_bytes": stats.Alloc,
			"sys_bytes":   stats.Sys,
			"num_gc":      stats.NumGC,
		})
	}

	usage := float64(stats.Alloc) / float64(budget)
	details := map[string]any{
		"alloc_bytes":   stats.Alloc,
		"budget_bytes":  budget,
		"usage_percent": usage * 100,
		"heap_alloc":    stats.HeapAlloc,
		"heap_in_use":   stats.HeapInuse,
		"heap_objects":  stats.HeapObjects,
		"num_gc":        stats.NumGC,
		"goroutines":    runtime.NumGoroutine(),
	}

	switch {
	case usage >= m.config.CriticalThreshold:
		msg := fmt.Sprintf("memory usage critical: %.1f%%", usage*100)
		return Unhealthy(msg, ErrCheckFailed).WithDetails(details)
	case usage >= m.config.WarningThreshold:
		return Degraded(fmt.Sprintf("memory usage high: %.1f%%", usage*100)).WithDetails(details)
	default:
		return Healthy(fmt.Sprintf("memory usage normal: %.1f%%", usage*100)).WithDetails(details)
	}
}

// ForceGC runs a collection so a following Check sees settled numbers.
func (m *MemoryChecker) ForceGC() {
	runtime.GC()
}
