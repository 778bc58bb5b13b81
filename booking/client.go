package booking

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jonwraymond/bookingkit/cache"
	"github.com/jonwraymond/bookingkit/health"
	"github.com/jonwraymond/bookingkit/observe"
	"github.com/jonwraymond/bookingkit/resilience"
	"github.com/jonwraymond/bookingkit/scheduler"
	"github.com/jonwraymond/bookingkit/secret"
	"github.com/jonwraymond/bookingkit/stats"
)

// Breaker service names. Availability and booking trip independently so
// a failing search path never blocks confirmations.
const (
	serviceAvailability = "availability"
	serviceBooking      = "booking"
)

// clientState is the configuration snapshot a request runs under.
// UpdateConfig swaps the whole snapshot; in-flight requests keep the
// one they started with.
type clientState struct {
	config    ClientConfig
	transport Transport
}

// Client is the resilient supplier client. It schedules requests by
// priority, admits them through an adaptive rate limit, guards the
// supplier with per-service circuit breakers, and retries transient
// failures with jittered exponential backoff.
type Client struct {
	state atomic.Pointer[clientState]

	limiter  *resilience.RateLimiter
	breakers *resilience.BreakerRegistry
	sched    *scheduler.Scheduler
	stats    *stats.Aggregator

	cache    *cache.AvailabilityCache
	logger   observe.Logger
	resolver *secret.Resolver
	monitor  *health.Monitor
	callmw   *observe.Middleware

	customTransport Transport
	healthChecks    []health.Checker
	observer        observe.Observer

	paused atomic.Bool
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTransport replaces the HTTP transport, typically with a
// StubTransport in tests. A custom transport survives UpdateConfig.
func WithTransport(t Transport) ClientOption {
	return func(c *Client) { c.customTransport = t }
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(logger observe.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// WithObserver instruments every supplier attempt with the observer's
// tracer, meter, and logger. Implies WithLogger(obs.Logger()) unless a
// logger was set explicitly.
func WithObserver(obs observe.Observer) ClientOption {
	return func(c *Client) { c.observer = obs }
}

// WithSecretResolver sets the resolver used for APIKey and BaseURL
// secret references.
func WithSecretResolver(r *secret.Resolver) ClientOption {
	return func(c *Client) { c.resolver = r }
}

// WithAvailabilityCache serves repeat searches from cache and populates
// it from supplier responses.
func WithAvailabilityCache(ac *cache.AvailabilityCache) ClientOption {
	return func(c *Client) { c.cache = ac }
}

// WithHealthChecks starts a background monitor that evaluates the
// checks every HealthCheckInterval and feeds the aggregate status into
// the adaptive rate limiter.
func WithHealthChecks(checks ...health.Checker) ClientOption {
	return func(c *Client) { c.healthChecks = checks }
}

// NewClient creates a client from the configuration. Secret references
// in credential fields are resolved before validation.
func NewClient(config ClientConfig, opts ...ClientOption) (*Client, error) {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}
	if c.observer != nil {
		if c.logger == nil {
			c.logger = c.observer.Logger()
		}
		mw, err := observe.MiddlewareFromObserver(c.observer)
		if err != nil {
			return nil, err
		}
		c.callmw = mw
	}
	if c.logger == nil {
		c.logger = observe.NopLogger()
	}

	config.applyDefaults()
	if err := config.resolveSecrets(context.Background(), c.resolver); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	c.limiter = resilience.NewRateLimiter(resilience.RateLimiterConfig{
		Rate:  config.MaxRequestsPerSecond,
		Burst: config.MaxBurstSize,
	})
	c.breakers = resilience.NewBreakerRegistry(config.CircuitBreaker)
	c.stats = stats.New()
	c.sched = scheduler.New(scheduler.Config{
		QueueSizePerPriority: config.QueueSizePerPriority,
		MaxConcurrent:        config.MaxConcurrentRequests,
		OnPreempt: func(correlationID string) {
			c.logger.Warn(context.Background(), "request preempted",
				observe.Field{Key: "correlation_id", Value: correlationID})
		},
	})

	c.state.Store(&clientState{
		config:    config,
		transport: c.transportFor(config),
	})

	if len(c.healthChecks) > 0 {
		c.monitor = health.NewMonitor(health.MonitorConfig{
			Interval: config.HealthCheckInterval,
			Checks:   c.healthChecks,
			OnStatus: func(status health.Status) {
				c.SetSystemHealth(status)
			},
		})
		c.monitor.Start()
	}

	return c, nil
}

func (c *Client) transportFor(config ClientConfig) Transport {
	if c.customTransport != nil {
		return c.customTransport
	}
	return NewHTTPTransport(config.BaseURL, config.APIKey)
}

// Close stops background work. In-flight requests are unaffected.
func (c *Client) Close() {
	if c.monitor != nil {
		c.monitor.Stop()
	}
}

// Search implements ApiClient. An empty correlation id is filled in
// with a generated one, visible to the caller through req.Context.
func (c *Client) Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	start := time.Now()
	state := c.state.Load()

	if req.Context.CorrelationID == "" {
		req.Context.CorrelationID = uuid.NewString()
	}

	if err := c.preflight(req.Context.Deadline); err != nil {
		return nil, err
	}

	if resp, ok := c.cachedSearch(req); ok {
		c.stats.RecordSuccess(time.Since(start))
		resp.ProcessingTime = time.Since(start)
		return resp, nil
	}

	priority := req.Priority
	if !priority.Valid() {
		priority = PriorityMedium
	}

	var resp *SearchResponse
	err := c.run(ctx, state, serviceAvailability, "search", scheduler.Request{
		CorrelationID: req.Context.CorrelationID,
		Priority:      priority,
		Deadline:      req.Context.Deadline,
	}, func(ctx context.Context) error {
		r, err := state.transport.Search(ctx, req)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})

	elapsed := time.Since(start)
	if err = c.finish(ctx, "search", req.Context.CorrelationID, err, elapsed); err != nil {
		return nil, err
	}

	resp.ProcessingTime = elapsed
	c.storeSearch(req, resp)
	return resp, nil
}

// Book implements ApiClient. Bookings are never scheduled below High
// priority and must carry an idempotency key.
func (c *Client) Book(ctx context.Context, req *BookingRequest) (*BookingResponse, error) {
	start := time.Now()
	state := c.state.Load()

	if req.IdempotencyKey == "" {
		return nil, ErrMissingIdempotencyKey
	}
	if req.Context.CorrelationID == "" {
		req.Context.CorrelationID = uuid.NewString()
	}

	if err := c.preflight(req.Context.Deadline); err != nil {
		return nil, err
	}

	priority := req.Priority
	if !priority.Valid() {
		priority = PriorityMedium
	}
	if priority < PriorityHigh {
		priority = PriorityHigh
	}

	var resp *BookingResponse
	err := c.run(ctx, state, serviceBooking, "book", scheduler.Request{
		CorrelationID: req.Context.CorrelationID,
		Priority:      priority,
		Deadline:      req.Context.Deadline,
	}, func(ctx context.Context) error {
		r, err := state.transport.Book(ctx, req)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})

	elapsed := time.Since(start)
	if err = c.finish(ctx, "book", req.Context.CorrelationID, err, elapsed); err != nil {
		return nil, err
	}

	resp.ProcessingTime = elapsed
	return resp, nil
}

// preflight rejects requests before they touch the scheduler.
func (c *Client) preflight(deadline time.Time) error {
	if c.paused.Load() {
		c.stats.RecordThrottled()
		return ErrClientPaused
	}
	if !deadline.IsZero() && !time.Now().Before(deadline) {
		c.stats.RecordTimeout()
		return ErrTimeout
	}
	return nil
}

// run takes the request through scheduling, admission, the circuit
// breaker, the per-attempt timeout, and retries. The first attempt's
// admission token is consumed atomically with enqueue; every retry
// attempt re-admits through the limiter. The request deadline bounds
// the whole pipeline: once it passes, backoff waits and pending
// retries resolve with ErrTimeout.
func (c *Client) run(ctx context.Context, state *clientState, service, operation string, req scheduler.Request, op func(context.Context) error) error {
	c.stats.RequestStarted()
	defer c.stats.RequestFinished()

	if !req.Deadline.IsZero() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, req.Deadline)
		defer cancel()
	}

	release, err := c.sched.Acquire(ctx, req, func() error {
		if !c.limiter.Allow() {
			return ErrRateLimitExceeded
		}
		return nil
	})
	if err != nil {
		return err
	}
	defer release()

	breaker := c.breakers.Get(service)
	retryConfig := state.config.Retry
	if retryConfig.RetryIf == nil {
		retryConfig.RetryIf = IsRetryable
	}
	userOnRetry := retryConfig.OnRetry
	retryConfig.OnRetry = func(attempt int, attemptErr error, delay time.Duration) {
		c.stats.RecordRetry()
		c.logger.Debug(context.Background(), "retrying request",
			observe.Field{Key: "correlation_id", Value: req.CorrelationID},
			observe.Field{Key: "service", Value: service},
			observe.Field{Key: "attempt", Value: attempt},
			observe.Field{Key: "delay", Value: delay.String()},
			observe.Field{Key: "error", Value: attemptErr.Error()})
		if userOnRetry != nil {
			userOnRetry(attempt, attemptErr, delay)
		}
	}

	invoke := func(ctx context.Context) error {
		c.stats.RecordSent()
		return resilience.ExecuteWithTimeout(ctx, state.config.Timeout, op)
	}
	if c.callmw != nil {
		meta := observe.CallMeta{
			Service:       service,
			Operation:     operation,
			CorrelationID: req.CorrelationID,
			Priority:      req.Priority.String(),
		}
		wrapped := c.callmw.Wrap(func(ctx context.Context, _ observe.CallMeta) error {
			c.stats.RecordSent()
			return resilience.ExecuteWithTimeout(ctx, state.config.Timeout, op)
		})
		invoke = func(ctx context.Context) error { return wrapped(ctx, meta) }
	}

	attempts := 0
	return resilience.NewRetry(retryConfig).Execute(ctx, func(ctx context.Context) error {
		attempts++
		if attempts > 1 {
			if !c.limiter.Allow() {
				return ErrRateLimitExceeded
			}
		}
		return breaker.Execute(ctx, invoke)
	})
}

// finish maps a terminal outcome to its public error and records
// exactly one outcome counter.
func (c *Client) finish(ctx context.Context, op, correlationID string, err error, elapsed time.Duration) error {
	switch {
	case err == nil:
		c.stats.RecordSuccess(elapsed)
		return nil

	case errors.Is(err, resilience.ErrCircuitOpen):
		c.stats.RecordCircuitBroken()

	case errors.Is(err, ErrRateLimitExceeded):
		c.stats.RecordThrottled()

	case errors.Is(err, scheduler.ErrQueueFull):
		c.stats.RecordThrottled()
		err = ErrQueueFull

	case errors.Is(err, scheduler.ErrPreempted):
		c.stats.RecordPreempted()
		err = ErrRequestPreempted

	case errors.Is(err, scheduler.ErrCancelled), errors.Is(err, context.Canceled):
		c.stats.RecordCancelled()
		err = ErrRequestCancelled

	case errors.Is(err, scheduler.ErrDeadlineExceeded),
		errors.Is(err, resilience.ErrTimeout),
		errors.Is(err, ErrTimeout),
		errors.Is(err, context.DeadlineExceeded):
		c.stats.RecordTimeout()
		err = ErrTimeout

	default:
		c.stats.RecordFailure(elapsed)
	}

	c.logger.Warn(ctx, "request failed",
		observe.Field{Key: "op", Value: op},
		observe.Field{Key: "correlation_id", Value: correlationID},
		observe.Field{Key: "elapsed", Value: elapsed.String()},
		observe.Field{Key: "error", Value: err.Error()})
	return err
}

// cachedSearch assembles a response from cache when every requested
// hotel has a fresh entry for the stay window.
func (c *Client) cachedSearch(req *SearchRequest) (*SearchResponse, bool) {
	if c.cache == nil || len(req.HotelIDs) == 0 {
		return nil, false
	}

	results := make([]SearchResult, 0, len(req.HotelIDs))
	for _, id := range req.HotelIDs {
		avail, ok := c.cache.Get(cache.Key{
			HotelID:  id,
			CheckIn:  req.CheckIn,
			CheckOut: req.CheckOut,
		})
		if !ok {
			return nil, false
		}
		results = append(results, SearchResult{
			HotelID:   id,
			Available: avail.Available,
			Price:     avail.Price,
			Currency:  avail.Currency,
		})
	}

	return &SearchResponse{
		SearchID: fmt.Sprintf("cache-%s", uuid.NewString()),
		Results:  results,
	}, true
}

// storeSearch populates the availability cache from a live response.
func (c *Client) storeSearch(req *SearchRequest, resp *SearchResponse) {
	if c.cache == nil {
		return
	}
	for _, result := range resp.Results {
		c.cache.Set(cache.Key{
			HotelID:  result.HotelID,
			CheckIn:  req.CheckIn,
			CheckOut: req.CheckOut,
		}, cache.Availability{
			Available: result.Available,
			Price:     result.Price,
			Currency:  result.Currency,
		})
	}
}

// Stats implements ApiClient.
func (c *Client) Stats() ClientStats {
	snap := c.stats.Snapshot()
	depths := c.sched.Depths()

	total := 0
	for _, d := range depths {
		total += d
	}

	open := false
	for _, m := range c.breakers.Metrics() {
		if m.State == resilience.StateOpen {
			open = true
			break
		}
	}

	multiplier := c.limiter.Multiplier()

	return ClientStats{
		RequestsSent:          snap.Sent,
		RequestsSucceeded:     snap.Succeeded,
		RequestsFailed:        snap.Failed,
		RequestsThrottled:     snap.Throttled,
		RequestsRetried:       snap.Retried,
		RequestsPreempted:     snap.Preempted,
		RequestsTimedOut:      snap.TimedOut,
		RequestsCircuitBroken: snap.CircuitBroken,
		RequestsCancelled:     snap.Cancelled,

		AverageResponseTime: snap.Latency.Avg,
		P95ResponseTime:     snap.Latency.P95,
		P99ResponseTime:     snap.Latency.P99,
		MaxResponseTime:     snap.Latency.Max,

		ActiveRequests:       snap.ActiveRequests,
		QueueDepth:           total,
		QueueDepthByPriority: depths,
		CircuitBreakerOpen:   open,

		CurrentRateLimit:       c.limiter.Rate() * multiplier,
		AdaptiveRateMultiplier: multiplier,
	}
}

// SetSystemHealth implements ApiClient.
func (c *Client) SetSystemHealth(status SystemHealth) float64 {
	multiplier := c.limiter.SetHealth(status)
	c.logger.Info(context.Background(), "system health updated",
		observe.Field{Key: "status", Value: status.String()},
		observe.Field{Key: "rate_multiplier", Value: multiplier})
	return multiplier
}

// CancelRequest implements ApiClient.
func (c *Client) CancelRequest(correlationID string) bool {
	return c.sched.Cancel(correlationID)
}

// UpdateConfig implements ApiClient.
func (c *Client) UpdateConfig(config ClientConfig) error {
	config.applyDefaults()
	if err := config.resolveSecrets(context.Background(), c.resolver); err != nil {
		return err
	}
	if err := config.Validate(); err != nil {
		return err
	}

	c.state.Store(&clientState{
		config:    config,
		transport: c.transportFor(config),
	})

	c.limiter.SetRate(config.MaxRequestsPerSecond, config.MaxBurstSize)
	c.breakers.SetConfig(config.CircuitBreaker)
	c.sched.UpdateLimits(config.QueueSizePerPriority, config.MaxConcurrentRequests)

	c.logger.Info(context.Background(), "configuration updated",
		observe.Field{Key: "rate", Value: config.MaxRequestsPerSecond},
		observe.Field{Key: "burst", Value: config.MaxBurstSize},
		observe.Field{Key: "max_concurrent", Value: config.MaxConcurrentRequests})
	return nil
}

// Pause implements ApiClient.
func (c *Client) Pause(ctx context.Context, drain bool) error {
	c.paused.Store(true)
	if !drain {
		return nil
	}
	return c.sched.Quiesce(ctx)
}

// Resume implements ApiClient.
func (c *Client) Resume() {
	c.paused.Store(false)
}

// ResetCircuitBreakers implements ApiClient.
func (c *Client) ResetCircuitBreakers() int {
	n := c.breakers.ResetAll()
	c.logger.Info(context.Background(), "circuit breakers reset",
		observe.Field{Key: "count", Value: n})
	return n
}

var _ ApiClient = (*Client)(nil)
