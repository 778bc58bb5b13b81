package booking

import (
	"context"
	"time"

	"github.com/jonwraymond/bookingkit/health"
	"github.com/jonwraymond/bookingkit/scheduler"
)

// Priority determines scheduling order for a request. Booking requests
// are always scheduled at High or above regardless of the declared
// value.
type Priority = scheduler.Priority

// Priority levels, lowest to highest.
const (
	PriorityLow      = scheduler.PriorityLow
	PriorityMedium   = scheduler.PriorityMedium
	PriorityHigh     = scheduler.PriorityHigh
	PriorityCritical = scheduler.PriorityCritical
)

// SystemHealth is the observed health of the overall system, used to
// scale the admission rate.
type SystemHealth = health.Status

// System health levels.
const (
	Healthy   = health.StatusHealthy
	Degraded  = health.StatusDegraded
	Unhealthy = health.StatusUnhealthy
)

// ClientInfo describes the end client a request originated from.
type ClientInfo struct {
	IP        string
	UserAgent string
	Country   string
}

// RequestContext carries per-request metadata through the pipeline.
type RequestContext struct {
	// UserID and SessionID identify the originating caller, when known.
	UserID    string
	SessionID string

	// CorrelationID uniquely identifies the logical request. Generated
	// when left empty.
	CorrelationID string

	// ClientInfo describes the end client, when known.
	ClientInfo *ClientInfo

	// Deadline is the absolute time after which the request must fail
	// with a timeout regardless of queue or retry state. Zero means no
	// deadline.
	Deadline time.Time
}

// SearchRequest asks the supplier for availability across hotels for a
// stay window.
type SearchRequest struct {
	HotelIDs []string
	CheckIn  string // YYYY-MM-DD
	CheckOut string // YYYY-MM-DD
	Guests   int

	Priority       Priority
	IdempotencyKey string
	Context        RequestContext
}

// SearchResult is the availability outcome for one hotel.
type SearchResult struct {
	HotelID   string
	Available bool
	Price     float64
	Currency  string
}

// SearchResponse is the resolved outcome of a search.
type SearchResponse struct {
	SearchID           string
	Results            []SearchResult
	RateLimitRemaining int
	ProcessingTime     time.Duration
}

// PaymentInfo is the tokenized payment detail attached to a booking.
// Raw card data never passes through this client.
type PaymentInfo struct {
	CardType string
	LastFour string
	Expiry   string
	Token    string
}

// BookingRequest confirms a reservation from an earlier search.
type BookingRequest struct {
	SearchID  string
	HotelID   string
	GuestName string
	Payment   PaymentInfo

	Priority Priority

	// IdempotencyKey is mandatory so a retried booking is not
	// double-executed downstream.
	IdempotencyKey string
	Context        RequestContext
}

// BookingResponse is the resolved outcome of a booking.
type BookingResponse struct {
	BookingID          string
	Status             string
	ConfirmationCode   string
	RateLimitRemaining int
	ProcessingTime     time.Duration
}

// ClientStats is an instantaneous snapshot of client activity. Counter
// fields are monotonic across successive snapshots.
type ClientStats struct {
	RequestsSent          int64
	RequestsSucceeded     int64
	RequestsFailed        int64
	RequestsThrottled     int64
	RequestsRetried       int64
	RequestsPreempted     int64
	RequestsTimedOut      int64
	RequestsCircuitBroken int64
	RequestsCancelled     int64

	AverageResponseTime time.Duration
	P95ResponseTime     time.Duration
	P99ResponseTime     time.Duration
	MaxResponseTime     time.Duration

	ActiveRequests       int64
	QueueDepth           int
	QueueDepthByPriority [4]int
	CircuitBreakerOpen   bool

	CurrentRateLimit       float64
	AdaptiveRateMultiplier float64
}

// ApiClient is the capability surface of a resilient booking client.
// There is one production implementation (Client) and a stub transport
// for deterministic tests.
type ApiClient interface {
	// Search requests availability. Speculative searches should use Low
	// or Medium priority.
	Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error)

	// Book confirms a reservation. Scheduled at High priority or above.
	Book(ctx context.Context, req *BookingRequest) (*BookingResponse, error)

	// Stats returns a snapshot of client activity without blocking
	// in-flight requests.
	Stats() ClientStats

	// SetSystemHealth adjusts the adaptive rate multiplier and returns
	// the resulting value.
	SetSystemHealth(status SystemHealth) float64

	// CancelRequest cancels a still-queued request by correlation id.
	// Returns false when the request is already executing or unknown.
	CancelRequest(correlationID string) bool

	// UpdateConfig atomically swaps the active configuration. In-flight
	// requests continue under the configuration they started with.
	UpdateConfig(config ClientConfig) error

	// Pause stops accepting new admissions. With drain it waits until
	// queued and in-flight work resolves before returning.
	Pause(ctx context.Context, drain bool) error

	// Resume re-enables admission.
	Resume()

	// ResetCircuitBreakers forces every breaker to closed and returns
	// the count reset.
	ResetCircuitBreakers() int
}
