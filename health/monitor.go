package health

import (
	"context"
	"sync"
	"time"
)

// MonitorConfig configures a background health monitor.
type MonitorConfig struct {
	// Interval is how often the checks are evaluated.
	// Default: 30 seconds
	Interval time.Duration

	// Checks are the checkers to evaluate. Each is registered under its
	// own name.
	Checks []Checker

	// OnStatus receives the aggregate status after every evaluation.
	OnStatus func(Status)
}

// Monitor periodically evaluates a set of health checks and reports
// the aggregate status. It is the feedback loop between observed
// system health and adaptive rate limiting.
type Monitor struct {
	agg      *Aggregator
	interval time.Duration
	onStatus func(Status)

	started   bool
	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// NewMonitor creates a monitor. It does not start evaluating until
// Start is called.
func NewMonitor(config MonitorConfig) *Monitor {
	if config.Interval <= 0 {
		config.Interval = 30 * time.Second
	}

	agg := NewAggregator()
	for _, check := range config.Checks {
		agg.Register(check.Name(), check)
	}

	return &Monitor{
		agg:      agg,
		interval: config.Interval,
		onStatus: config.OnStatus,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins periodic evaluation. Calling Start more than once has
// no effect.
func (m *Monitor) Start() {
	m.startOnce.Do(func() {
		m.started = true
		go m.loop()
	})
}

// Stop halts evaluation and waits for the loop to exit. Safe to call
// more than once, including before Start.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
	})
	if m.started {
		<-m.done
	}
}

// RunOnce evaluates all checks immediately and reports the aggregate
// status, invoking OnStatus as a periodic evaluation would.
func (m *Monitor) RunOnce(ctx context.Context) Status {
	results := m.agg.CheckAll(ctx)
	status := m.agg.OverallStatus(results)
	if m.onStatus != nil {
		m.onStatus(status)
	}
	return status
}

// Aggregator exposes the monitor's underlying aggregator, e.g. to
// mount HTTP health handlers over the same checks.
func (m *Monitor) Aggregator() *Aggregator {
	return m.agg
}

func (m *Monitor) loop() {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.RunOnce(context.Background())
		}
	}
}
