package health

import (
	"context"
	"sync"
	"time"
)

// AggregatorConfig configures check evaluation.
type AggregatorConfig struct {
	// Timeout bounds one full evaluation across all checks.
	// Default: 10 seconds
	Timeout time.Duration

	// Parallel evaluates checks concurrently.
	// Default: true
	Parallel bool
}

// Aggregator holds a registry of named checks and folds their results
// into one overall status: unhealthy if anything is unhealthy,
// degraded if anything is degraded, healthy otherwise.
type Aggregator struct {
	config AggregatorConfig

	mu       sync.RWMutex
	checkers map[string]Checker
	order    []string
}

// NewAggregator creates an aggregator. The optional config overrides
// the defaults.
func NewAggregator(config ...AggregatorConfig) *Aggregator {
	cfg := AggregatorConfig{Timeout: 10 * time.Second, Parallel: true}
	if len(config) > 0 {
		cfg = config[0]
		if cfg.Timeout <= 0 {
			cfg.Timeout = 10 * time.Second
		}
	}
	return &Aggregator{
		config:   cfg,
		checkers: make(map[string]Checker),
	}
}

// Register adds or replaces the check registered under name.
func (a *Aggregator) Register(name string, checker Checker) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.checkers[name]; !ok {
		a.order = append(a.order, name)
	}
	a.checkers[name] = checker
}

// Unregister removes the check registered under name, if any.
func (a *Aggregator) Unregister(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.checkers[name]; !ok {
		return
	}
	delete(a.checkers, name)
	for i, n := range a.order {
		if n == name {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
}

// CheckerNames returns registered check names in registration order.
func (a *Aggregator) CheckerNames() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	names := make([]string, len(a.order))
	copy(names, a.order)
	return names
}

// Check evaluates the single named check.
func (a *Aggregator) Check(ctx context.Context, name string) (Result, error) {
	a.mu.RLock()
	checker, ok := a.checkers[name]
	a.mu.RUnlock()
	if !ok {
		return Result{}, ErrCheckerNotFound
	}
	return a.evaluate(ctx, checker), nil
}

// CheckAll evaluates every registered check and returns results keyed
// by name. The whole evaluation is bounded by the configured timeout.
func (a *Aggregator) CheckAll(ctx context.Context) map[string]Result {
	a.mu.RLock()
	snapshot := make(map[string]Checker, len(a.checkers))
	for name, checker := range a.checkers {
		snapshot[name] = checker
	}
	a.mu.RUnlock()

	results := make(map[string]Result, len(snapshot))
	if len(snapshot) == 0 {
		return results
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	if !a.config.Parallel {
		for name, checker := range snapshot {
			results[name] = a.evaluate(ctx, checker)
		}
		return results
	}

	var wg sync.WaitGroup
	var resMu sync.Mutex
	for name, checker := range snapshot {
		wg.Add(1)
		go func(name string, checker Checker) {
			defer wg.Done()
			r := a.evaluate(ctx, checker)
			resMu.Lock()
			results[name] = r
			resMu.Unlock()
		}(name, checker)
	}
	wg.Wait()
	return results
}

// OverallStatus folds a result set into the worst status present. An
// empty set is healthy.
func (a *Aggregator) OverallStatus(results map[string]Result) Status {
	worst := StatusHealthy
	for _, r := range results {
		if r.Status > worst {
			worst = r.Status
		}
		if worst == StatusUnhealthy {
			break
		}
	}
	return worst
}

// evaluate runs one check in its own goroutine so a stuck checker
// cannot hold the evaluation past the deadline.
func (a *Aggregator) evaluate(ctx context.Context, checker Checker) Result {
	start := time.Now()
	ch := make(chan Result, 1)

	go func() {
		r := checker.Check(ctx)
		r.Duration = time.Since(start)
		if r.Timestamp.IsZero() {
			r.Timestamp = start
		}
		ch <- r
	}()

	select {
	case r := <-ch:
		return r
	case <-ctx.Done():
		return Result{
			Status:    StatusUnhealthy,
			Message:   "check timed out",
			Error:     ErrCheckTimeout,
			Duration:  time.Since(start),
			Timestamp: start,
		}
	}
}

// Checker adapts the aggregator itself into a single Checker, so one
// aggregate can nest inside another.
func (a *Aggregator) Checker() Checker {
	return &aggregateChecker{agg: a}
}

type aggregateChecker struct {
	agg *Aggregator
}

func (c *aggregateChecker) Name() string { return "aggregate" }

func (c *aggregateChecker) Check(ctx context.Context) Result {
	results := c.agg.CheckAll(ctx)
	status := c.agg.OverallStatus(results)

	details := make(map[string]any, len(results))
	for name, r := range results {
		details[name] = map[string]any{
			"status":   r.Status.String(),
			"message":  r.Message,
			"duration": r.Duration.String(),
		}
	}

	message := "all checks passed"
	switch status {
	case StatusDegraded:
		message = "some checks degraded"
	case StatusUnhealthy:
		message = "some checks failed"
	}

	return Result{
		Status:    status,
		Message:   message,
		Details:   details,
		Timestamp: time.Now(),
	}
}
