package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jonwraymond/bookingkit/resilience"
	"github.com/jonwraymond/bookingkit/secret"
)

// ClientConfig configures a Client. The zero value is not usable; fill
// in at least BaseURL and APIKey and rely on defaults for the rest.
type ClientConfig struct {
	// BaseURL is the supplier endpoint. Supports ${ENV} expansion.
	BaseURL string

	// APIKey authenticates against the supplier. Supports ${ENV}
	// expansion and secretref resolution, e.g.
	// "secretref:vault:supplier/api-key".
	APIKey string

	// MaxRequestsPerSecond is the steady-state admission rate.
	// Default: 10
	MaxRequestsPerSecond float64

	// MaxBurstSize is the admission burst capacity.
	// Default: 20
	MaxBurstSize int

	// MaxConcurrentRequests is the execute-phase concurrency ceiling.
	// Default: 5
	MaxConcurrentRequests int

	// Timeout bounds each individual attempt.
	// Default: 5s
	Timeout time.Duration

	// Retry governs re-attempts of transient failures.
	Retry resilience.RetryConfig

	// CircuitBreaker governs the per-service breakers.
	CircuitBreaker resilience.CircuitBreakerConfig

	// QueueSizePerPriority is the capacity of each priority queue.
	// Default: 100
	QueueSizePerPriority int

	// HealthCheckInterval is how often the health monitor re-evaluates
	// system health. Default: 30s
	HealthCheckInterval time.Duration
}

func (c *ClientConfig) applyDefaults() {
	if c.MaxRequestsPerSecond <= 0 {
		c.MaxRequestsPerSecond = 10
	}
	if c.MaxBurstSize <= 0 {
		c.MaxBurstSize = 20
	}
	if c.MaxConcurrentRequests <= 0 {
		c.MaxConcurrentRequests = 5
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.QueueSizePerPriority <= 0 {
		c.QueueSizePerPriority = 100
	}
	if c.HealthCheckInterval <= 0 {
		c.HealthCheckInterval = 30 * time.Second
	}
}

// Validate reports the first configuration problem found. Called by
// NewClient and UpdateConfig after defaults are applied.
func (c *ClientConfig) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("%w: base URL is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: API key is required", ErrInvalidConfig)
	}
	if c.MaxRequestsPerSecond <= 0 {
		return fmt.Errorf("%w: max requests per second must be positive", ErrInvalidConfig)
	}
	if c.MaxBurstSize < 1 {
		return fmt.Errorf("%w: max burst size must be at least 1", ErrInvalidConfig)
	}
	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("%w: max retries must not be negative", ErrInvalidConfig)
	}
	if j := c.Retry.JitterFactor; j < 0 || j > 1 {
		return fmt.Errorf("%w: jitter factor must be in [0, 1]", ErrInvalidConfig)
	}
	return nil
}

// resolveSecrets expands environment references and secret refs in the
// credential-bearing fields. A nil resolver still performs strict env
// expansion.
func (c *ClientConfig) resolveSecrets(ctx context.Context, resolver *secret.Resolver) error {
	baseURL, err := resolver.ResolveValue(ctx, c.BaseURL)
	if err != nil {
		return fmt.Errorf("%w: resolve base URL: %v", ErrInvalidConfig, err)
	}
	apiKey, err := resolver.ResolveValue(ctx, c.APIKey)
	if err != nil {
		return fmt.Errorf("%w: resolve API key: %v", ErrInvalidConfig, err)
	}
	c.BaseURL = baseURL
	c.APIKey = apiKey
	return nil
}
