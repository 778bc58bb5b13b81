package resilience

import (
	"context"
	"sync"
	"time"
)

// BulkheadConfig configures the bulkhead.
type BulkheadConfig struct {
	// MaxConcurrent is the maximum number of concurrent operations.
	// Default: 10
	MaxConcurrent int

	// MaxWait is the maximum time Acquire waits for a slot.
	// Default: 0 (no waiting, fail immediately)
	MaxWait time.Duration
}

// Bulkhead limits concurrent operations. Its capacity can be resized at
// runtime; operations already holding a slot are unaffected.
type Bulkhead struct {
	maxWait time.Duration

	mu        sync.Mutex
	capacity  int
	active    int
	maxActive int
	rejected  int64
	freed     chan struct{} // closed and replaced when a slot may free
}

// NewBulkhead creates a new bulkhead.
func NewBulkhead(config BulkheadConfig) *Bulkhead {
	// Apply defaults
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 10
	}

	return &Bulkhead{
		maxWait:  config.MaxWait,
		capacity: config.MaxConcurrent,
		freed:    make(chan struct{}),
	}
}

// TryAcquire acquires a slot without waiting. It returns false when the
// bulkhead is at capacity.
func (b *Bulkhead) TryAcquire() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.active >= b.capacity {
		return false
	}
	b.active++
	if b.active > b.maxActive {
		b.maxActive = b.active
	}
	return true
}

// Acquire acquires a slot, waiting up to MaxWait if configured.
// Returns ErrBulkheadFull if no slot becomes available.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	if b.TryAcquire() {
		return nil
	}

	if b.maxWait <= 0 {
		b.reject()
		return ErrBulkheadFull
	}

	timer := time.NewTimer(b.maxWait)
	defer timer.Stop()

	for {
		b.mu.Lock()
		freed := b.freed
		b.mu.Unlock()

		select {
		case <-freed:
			if b.TryAcquire() {
				return nil
			}
		case <-timer.C:
			b.reject()
			return ErrBulkheadFull
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Release releases a slot.
func (b *Bulkhead) Release() {
	b.mu.Lock()
	if b.active > 0 {
		b.active--
	}
	b.signalLocked()
	b.mu.Unlock()
}

// Resize changes the capacity. Shrinking below the active count does
// not interrupt running operations; slots drain until the new capacity
// is honored.
func (b *Bulkhead) Resize(maxConcurrent int) {
	if maxConcurrent <= 0 {
		return
	}

	b.mu.Lock()
	grew := maxConcurrent > b.capacity
	b.capacity = maxConcurrent
	if grew {
		b.signalLocked()
	}
	b.mu.Unlock()
}

// Available returns the number of free slots.
func (b *Bulkhead) Available() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	free := b.capacity - b.active
	if free < 0 {
		free = 0
	}
	return free
}

// Execute runs the operation within the bulkhead.
func (b *Bulkhead) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := b.Acquire(ctx); err != nil {
		return err
	}
	defer b.Release()

	return op(ctx)
}

// Metrics returns current bulkhead metrics.
func (b *Bulkhead) Metrics() BulkheadMetrics {
	b.mu.Lock()
	defer b.mu.Unlock()

	available := b.capacity - b.active
	if available < 0 {
		available = 0
	}

	return BulkheadMetrics{
		Active:        b.active,
		MaxActive:     b.maxActive,
		Available:     available,
		MaxConcurrent: b.capacity,
		Rejected:      b.rejected,
	}
}

func (b *Bulkhead) reject() {
	b.mu.Lock()
	b.rejected++
	b.mu.Unlock()
}

// signalLocked wakes waiters that a slot may be available.
func (b *Bulkhead) signalLocked() {
	close(b.freed)
	b.freed = make(chan struct{})
}

// BulkheadMetrics contains bulkhead statistics.
type BulkheadMetrics struct {
	Active        int
	MaxActive     int
	Available     int
	MaxConcurrent int
	Rejected      int64
}
