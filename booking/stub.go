package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// StubTransport is a scriptable in-memory Transport for tests and local
// development. By default every search reports each requested hotel as
// available and every booking confirms; failure injection, artificial
// latency, and full outage mode can be layered on top.
type StubTransport struct {
	mu sync.Mutex

	searchCalls int
	bookCalls   int

	failuresLeft int
	failErr      error
	latency      time.Duration
	outage       bool

	searchFn func(ctx context.Context, req *SearchRequest) (*SearchResponse, error)
	bookFn   func(ctx context.Context, req *BookingRequest) (*BookingResponse, error)
}

// NewStubTransport creates a stub that succeeds on every call.
func NewStubTransport() *StubTransport {
	return &StubTransport{}
}

// FailNext makes the next n calls fail with err. A nil err injects a
// generic network error.
func (s *StubTransport) FailNext(n int, err error) {
	if err == nil {
		err = &NetworkError{Op: "stub", Err: errors.New("injected failure")}
	}
	s.mu.Lock()
	s.failuresLeft = n
	s.failErr = err
	s.mu.Unlock()
}

// SetLatency delays every call by d before responding.
func (s *StubTransport) SetLatency(d time.Duration) {
	s.mu.Lock()
	s.latency = d
	s.mu.Unlock()
}

// SetOutage switches outage mode on or off. During an outage every call
// fails with a network error.
func (s *StubTransport) SetOutage(on bool) {
	s.mu.Lock()
	s.outage = on
	s.mu.Unlock()
}

// SetSearchFunc overrides search handling entirely.
func (s *StubTransport) SetSearchFunc(fn func(ctx context.Context, req *SearchRequest) (*SearchResponse, error)) {
	s.mu.Lock()
	s.searchFn = fn
	s.mu.Unlock()
}

// SetBookFunc overrides booking handling entirely.
func (s *StubTransport) SetBookFunc(fn func(ctx context.Context, req *BookingRequest) (*BookingResponse, error)) {
	s.mu.Lock()
	s.bookFn = fn
	s.mu.Unlock()
}

// SearchCalls returns the number of search attempts received.
func (s *StubTransport) SearchCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searchCalls
}

// BookCalls returns the number of booking attempts received.
func (s *StubTransport) BookCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bookCalls
}

// Search implements Transport.
func (s *StubTransport) Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	fn, err := s.begin(ctx, &s.searchCalls)
	if err != nil {
		return nil, err
	}
	if fn != nil {
		return nil, fn
	}

	s.mu.Lock()
	custom := s.searchFn
	calls := s.searchCalls
	s.mu.Unlock()

	if custom != nil {
		return custom(ctx, req)
	}

	results := make([]SearchResult, 0, len(req.HotelIDs))
	for _, id := range req.HotelIDs {
		results = append(results, SearchResult{
			HotelID:   id,
			Available: true,
			Price:     100,
			Currency:  "USD",
		})
	}
	return &SearchResponse{
		SearchID: fmt.Sprintf("stub-search-%d", calls),
		Results:  results,
	}, nil
}

// Book implements Transport.
func (s *StubTransport) Book(ctx context.Context, req *BookingRequest) (*BookingResponse, error) {
	fn, err := s.begin(ctx, &s.bookCalls)
	if err != nil {
		return nil, err
	}
	if fn != nil {
		return nil, fn
	}

	s.mu.Lock()
	custom := s.bookFn
	calls := s.bookCalls
	s.mu.Unlock()

	if custom != nil {
		return custom(ctx, req)
	}

	return &BookingResponse{
		BookingID:        fmt.Sprintf("stub-booking-%d", calls),
		Status:           "confirmed",
		ConfirmationCode: fmt.Sprintf("CONF-%d", calls),
	}, nil
}

// begin counts the call, applies latency, and returns any injected
// failure for this call.
func (s *StubTransport) begin(ctx context.Context, counter *int) (injected error, err error) {
	s.mu.Lock()
	*counter++
	latency := s.latency
	if s.outage {
		injected = &NetworkError{Op: "stub", Err: errors.New("supplier outage")}
	} else if s.failuresLeft > 0 {
		s.failuresLeft--
		injected = s.failErr
	}
	s.mu.Unlock()

	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return injected, nil
}
