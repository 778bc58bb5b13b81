package resilience

import "sync"

// BreakerRegistry holds one circuit breaker per downstream service
// name. Breakers are created lazily on first use and share the
// registry's current configuration.
type BreakerRegistry struct {
	mu       sync.RWMutex
	config   CircuitBreakerConfig
	breakers map[string]*CircuitBreaker
}

// NewBreakerRegistry creates a registry whose breakers use the given
// configuration.
func NewBreakerRegistry(config CircuitBreakerConfig) *BreakerRegistry {
	config.applyDefaults()

	return &BreakerRegistry{
		config:   config,
		breakers: make(map[string]*CircuitBreaker),
	}
}

// Get returns the breaker for the service, creating it if needed.
func (r *BreakerRegistry) Get(service string) *CircuitBreaker {
	r.mu.RLock()
	cb := r.breakers[service]
	r.mu.RUnlock()
	if cb != nil {
		return cb
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if cb = r.breakers[service]; cb == nil {
		cb = NewCircuitBreaker(service, r.config)
		r.breakers[service] = cb
	}
	return cb
}

// ResetAll forces every breaker back to closed and returns the number
// of breakers reset.
func (r *BreakerRegistry) ResetAll() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, cb := range r.breakers {
		cb.Reset()
	}
	return len(r.breakers)
}

// SetConfig swaps the configuration used by existing and future
// breakers. Existing breakers keep their state and counters.
func (r *BreakerRegistry) SetConfig(config CircuitBreakerConfig) {
	config.applyDefaults()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.config = config
	for _, cb := range r.breakers {
		cb.setConfig(config)
	}
}

// Metrics returns the metrics of every breaker keyed by service name.
func (r *BreakerRegistry) Metrics() map[string]CircuitBreakerMetrics {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]CircuitBreakerMetrics, len(r.breakers))
	for name, cb := range r.breakers {
		out[name] = cb.Metrics()
	}
	return out
}
