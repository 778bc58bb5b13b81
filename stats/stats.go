// Package stats accumulates request counters and latency estimates for
// a booking client. Writers touch only atomic counters and a fixed-size
// sample ring, so the hot path never blocks on readers taking a
// snapshot.
package stats

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// sampleRingSize is the number of latency samples retained for
// percentile estimation. Power of two so the write cursor wraps with a
// mask.
const sampleRingSize = 1024

// Aggregator accumulates monotonic counters, gauges, and latency
// samples. The zero value is not usable; use New.
type Aggregator struct {
	sent           atomic.Int64
	succeeded      atomic.Int64
	failed         atomic.Int64
	throttled      atomic.Int64
	retried        atomic.Int64
	preempted      atomic.Int64
	timedOut       atomic.Int64
	circuitBroken  atomic.Int64
	cancelled      atomic.Int64
	activeRequests atomic.Int64

	latency latencyRing
}

// New creates an empty aggregator.
func New() *Aggregator {
	return &Aggregator{}
}

// RecordSent counts a request handed to the transport.
func (a *Aggregator) RecordSent() { a.sent.Add(1) }

// RecordSuccess counts a resolved success and records its latency.
func (a *Aggregator) RecordSuccess(latency time.Duration) {
	a.succeeded.Add(1)
	a.latency.observe(latency)
}

// RecordFailure counts a terminal failure and records its latency.
func (a *Aggregator) RecordFailure(latency time.Duration) {
	a.failed.Add(1)
	a.latency.observe(latency)
}

// RecordThrottled counts a request rejected by rate limiting or queue
// capacity.
func (a *Aggregator) RecordThrottled() { a.throttled.Add(1) }

// RecordRetry counts one retry attempt.
func (a *Aggregator) RecordRetry() { a.retried.Add(1) }

// RecordPreempted counts a queued request displaced by a higher
// priority arrival.
func (a *Aggregator) RecordPreempted() { a.preempted.Add(1) }

// RecordTimeout counts a request that exceeded its attempt timeout or
// deadline.
func (a *Aggregator) RecordTimeout() { a.timedOut.Add(1) }

// RecordCircuitBroken counts a request fast-failed by an open breaker.
func (a *Aggregator) RecordCircuitBroken() { a.circuitBroken.Add(1) }

// RecordCancelled counts a queued request cancelled by its caller.
func (a *Aggregator) RecordCancelled() { a.cancelled.Add(1) }

// RequestStarted increments the active-request gauge.
func (a *Aggregator) RequestStarted() { a.activeRequests.Add(1) }

// RequestFinished decrements the active-request gauge.
func (a *Aggregator) RequestFinished() { a.activeRequests.Add(-1) }

// Snapshot is an instantaneous, internally consistent view of the
// counters. Counter fields are monotonic across successive snapshots.
type Snapshot struct {
	Sent          int64
	Succeeded     int64
	Failed        int64
	Throttled     int64
	Retried       int64
	Preempted     int64
	TimedOut      int64
	CircuitBroken int64
	Cancelled     int64

	ActiveRequests int64

	Latency LatencySummary
}

// Snapshot returns the current counter values and latency summary
// without blocking writers.
func (a *Aggregator) Snapshot() Snapshot {
	return Snapshot{
		Sent:           a.sent.Load(),
		Succeeded:      a.succeeded.Load(),
		Failed:         a.failed.Load(),
		Throttled:      a.throttled.Load(),
		Retried:        a.retried.Load(),
		Preempted:      a.preempted.Load(),
		TimedOut:       a.timedOut.Load(),
		CircuitBroken:  a.circuitBroken.Load(),
		Cancelled:      a.cancelled.Load(),
		ActiveRequests: a.activeRequests.Load(),
		Latency:        a.latency.summary(),
	}
}

// LatencySummary describes the retained latency samples.
type LatencySummary struct {
	Count int64
	Avg   time.Duration
	P95   time.Duration
	P99   time.Duration
	Max   time.Duration
}

// latencyRing keeps the most recent latency samples in a fixed-size
// ring. Writers take a short mutex only to store one sample; percentile
// computation copies the ring and sorts outside the lock.
type latencyRing struct {
	mu      sync.Mutex
	samples [sampleRingSize]int64
	cursor  int64
	count   int64
	sum     int64
	max     int64
}

func (r *latencyRing) observe(d time.Duration) {
	ns := int64(d)
	if ns < 0 {
		ns = 0
	}

	r.mu.Lock()
	r.samples[r.cursor&(sampleRingSize-1)] = ns
	r.cursor++
	r.count++
	r.sum += ns
	if ns > r.max {
		r.max = ns
	}
	r.mu.Unlock()
}

func (r *latencyRing) summary() LatencySummary {
	r.mu.Lock()
	count := r.count
	sum := r.sum
	max := r.max

	retained := count
	if retained > sampleRingSize {
		retained = sampleRingSize
	}
	buf := make([]int64, retained)
	copy(buf, r.samples[:retained])
	r.mu.Unlock()

	s := LatencySummary{Count: count, Max: time.Duration(max)}
	if count == 0 {
		return s
	}
	s.Avg = time.Duration(sum / count)

	sort.Slice(buf, func(i, j int) bool { return buf[i] < buf[j] })
	s.P95 = time.Duration(percentile(buf, 95))
	s.P99 = time.Duration(percentile(buf, 99))
	return s
}

// percentile returns the pth percentile of sorted samples using
// nearest-rank.
func percentile(sorted []int64, p int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := (p*len(sorted) + 99) / 100
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}
