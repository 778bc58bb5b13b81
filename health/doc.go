// Package health provides health checking primitives for a booking
// client and the service embedding it.
//
// A Checker is any component that can report its health status. The
// Status type represents the health state: Healthy, Degraded, or
// Unhealthy. The aggregate status feeds the adaptive rate limiter so
// admission slows down while the supplier struggles.
//
// # Basic Usage
//
//	check := health.NewErrorRateChecker("supplier", counters, health.ErrorRateCheckerConfig{
//	    WarningRatio:  0.10,
//	    CriticalRatio: 0.50,
//	})
//
//	result := check.Check(ctx)
//	if result.Status == health.StatusUnhealthy {
//	    log.Printf("supplier critical: %s", result.Message)
//	}
//
// # Aggregating Health Checks
//
// Use Aggregator to combine multiple health checks into a single
// composite check:
//
//	agg := health.NewAggregator()
//	agg.Register("supplier", supplierChecker)
//	agg.Register("memory", memChecker)
//
//	results := agg.CheckAll(ctx)
//	overall := agg.OverallStatus(results)
//
// # Background Monitoring
//
// Monitor evaluates checks on an interval and reports the aggregate
// status through a callback:
//
//	mon := health.NewMonitor(health.MonitorConfig{
//	    Interval: 30 * time.Second,
//	    Checks:   []health.Checker{supplierChecker},
//	    OnStatus: func(s health.Status) { client.SetSystemHealth(s) },
//	})
//	mon.Start()
//	defer mon.Stop()
//
// # HTTP Endpoints
//
// The package provides HTTP handlers for common health check patterns:
//
//	http.Handle("/healthz", health.LivenessHandler())
//	http.Handle("/readyz", health.ReadinessHandler(aggregator))
//	http.Handle("/health", health.DetailedHandler(aggregator))
package health
