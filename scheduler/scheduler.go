package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/jonwraymond/bookingkit/resilience"
)

// Config configures the scheduler.
type Config struct {
	// QueueSizePerPriority is the capacity of each priority queue.
	// Default: 100
	QueueSizePerPriority int

	// MaxConcurrent is the maximum number of requests in the execute
	// phase at once.
	// Default: 10
	MaxConcurrent int

	// OnPreempt is called with the correlation id of each preempted
	// entry.
	OnPreempt func(correlationID string)
}

// Request describes an entry to be scheduled.
type Request struct {
	// CorrelationID uniquely identifies the request while queued.
	CorrelationID string

	// Priority determines dispatch order.
	Priority Priority

	// Deadline is the absolute time after which the entry must not
	// dispatch. Zero means no deadline.
	Deadline time.Time
}

// Release returns an execution slot to the scheduler. It is safe to
// call more than once; only the first call has effect.
type Release func()

type entryState int

const (
	stateQueued entryState = iota
	stateDispatched
	statePreempted
	stateCancelled
	stateExpired
)

// entry is a queued request. All fields after construction are guarded
// by the scheduler mutex.
type entry struct {
	id         string
	priority   Priority
	enqueuedAt time.Time
	state      entryState
	done       chan error // buffered; receives exactly one resolution
}

// Scheduler dispatches requests in priority order under a concurrency
// ceiling.
type Scheduler struct {
	slots     *resilience.Bulkhead
	onPreempt func(string)

	mu       sync.Mutex
	queueCap int
	queues   [numPriorities][]*entry
	index    map[string]*entry
}

// New creates a scheduler.
func New(config Config) *Scheduler {
	// Apply defaults
	if config.QueueSizePerPriority <= 0 {
		config.QueueSizePerPriority = 100
	}
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 10
	}

	return &Scheduler{
		slots:     resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: config.MaxConcurrent}),
		onPreempt: config.OnPreempt,
		queueCap:  config.QueueSizePerPriority,
		index:     make(map[string]*entry),
	}
}

// Acquire admits the request and blocks until it is granted an
// execution slot, preempted, cancelled, or expired. The admit callback,
// if non-nil, runs while the queue reservation is held so that
// admission accounting and enqueue form one atomic step; a non-nil
// error from admit aborts the acquire and is returned unchanged.
//
// On success the returned Release must be called when execution ends.
func (s *Scheduler) Acquire(ctx context.Context, req Request, admit func() error) (Release, error) {
	if !req.Priority.Valid() {
		req.Priority = PriorityLow
	}

	e := &entry{
		id:         req.CorrelationID,
		priority:   req.Priority,
		enqueuedAt: time.Now(),
		done:       make(chan error, 1),
	}

	s.mu.Lock()

	if _, exists := s.index[e.id]; exists {
		s.mu.Unlock()
		return nil, ErrDuplicateID
	}

	// Fast path: a slot is free and nothing of equal or higher priority
	// is waiting, so the request can bypass the queue entirely.
	if !s.queuedAtOrAboveLocked(req.Priority) && s.slots.TryAcquire() {
		if admit != nil {
			if err := admit(); err != nil {
				s.slots.Release()
				s.dispatchLocked()
				s.mu.Unlock()
				return nil, err
			}
		}
		s.mu.Unlock()
		return s.releaseFunc(), nil
	}

	// The request must queue. Capacity and admission are settled first:
	// an arrival that is rejected here never entered the system and
	// must not have displaced queued work.
	if len(s.queues[req.Priority]) >= s.queueCap {
		s.mu.Unlock()
		return nil, ErrQueueFull
	}
	if admit != nil {
		if err := admit(); err != nil {
			s.mu.Unlock()
			return nil, err
		}
	}

	// The execute phase is saturated. An admitted higher-priority
	// arrival may displace one queued entry of strictly lower priority;
	// work already executing is never interrupted.
	var victimID string
	if s.slots.Available() == 0 {
		if victim := s.victimLocked(req.Priority); victim != nil {
			s.removeLocked(victim)
			victim.state = statePreempted
			victim.done <- ErrPreempted
			victimID = victim.id
		}
	}

	e.state = stateQueued
	s.queues[req.Priority] = append(s.queues[req.Priority], e)
	s.index[e.id] = e
	s.dispatchLocked()
	s.mu.Unlock()
	s.notifyPreempt(victimID)

	var deadlineCh <-chan time.Time
	if !req.Deadline.IsZero() {
		timer := time.NewTimer(time.Until(req.Deadline))
		defer timer.Stop()
		deadlineCh = timer.C
	}

	select {
	case err := <-e.done:
		if err != nil {
			return nil, err
		}
		return s.releaseFunc(), nil

	case <-ctx.Done():
		if s.abort(e, stateCancelled) {
			return nil, ctx.Err()
		}
		return nil, s.resolveLostRace(e, ctx.Err())

	case <-deadlineCh:
		if s.abort(e, stateExpired) {
			return nil, ErrDeadlineExceeded
		}
		return nil, s.resolveLostRace(e, ErrDeadlineExceeded)
	}
}

// Cancel removes a still-queued entry and resolves its caller with
// ErrCancelled. It returns false when the entry has already dispatched
// or is unknown; in-flight work is never interrupted.
func (s *Scheduler) Cancel(correlationID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.index[correlationID]
	if e == nil || e.state != stateQueued {
		return false
	}

	s.removeLocked(e)
	e.state = stateCancelled
	e.done <- ErrCancelled
	return true
}

// Depths returns the current queue depth per priority, indexed by
// Priority.
func (s *Scheduler) Depths() [4]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var depths [4]int
	for i := range s.queues {
		depths[i] = len(s.queues[i])
	}
	return depths
}

// Queued returns the total number of queued entries.
func (s *Scheduler) Queued() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for i := range s.queues {
		total += len(s.queues[i])
	}
	return total
}

// Active returns the number of requests in the execute phase.
func (s *Scheduler) Active() int {
	return s.slots.Metrics().Active
}

// UpdateLimits swaps the queue capacity and concurrency ceiling.
// Entries already queued or executing are unaffected; a raised ceiling
// dispatches eligible entries immediately.
func (s *Scheduler) UpdateLimits(queueSizePerPriority, maxConcurrent int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if queueSizePerPriority > 0 {
		s.queueCap = queueSizePerPriority
	}
	if maxConcurrent > 0 {
		s.slots.Resize(maxConcurrent)
	}
	s.dispatchLocked()
}

// Quiesce blocks until no entries are queued or executing, or the
// context is done.
func (s *Scheduler) Quiesce(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	for {
		if s.Queued() == 0 && s.Active() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// dispatchLocked grants free slots to the highest-priority oldest
// entries.
func (s *Scheduler) dispatchLocked() {
	for {
		var next *entry
		for lvl := numPriorities - 1; lvl >= 0; lvl-- {
			if len(s.queues[lvl]) > 0 {
				next = s.queues[lvl][0]
				break
			}
		}
		if next == nil {
			return
		}
		if !s.slots.TryAcquire() {
			return
		}
		s.removeLocked(next)
		next.state = stateDispatched
		next.done <- nil
	}
}

// victimLocked returns the lowest-priority, oldest queued entry
// strictly below the given priority, or nil.
func (s *Scheduler) victimLocked(below Priority) *entry {
	for lvl := Priority(0); lvl < below; lvl++ {
		if len(s.queues[lvl]) > 0 {
			return s.queues[lvl][0]
		}
	}
	return nil
}

// queuedAtOrAboveLocked reports whether any entry of priority >= p is
// queued.
func (s *Scheduler) queuedAtOrAboveLocked(p Priority) bool {
	for lvl := int(p); lvl < numPriorities; lvl++ {
		if len(s.queues[lvl]) > 0 {
			return true
		}
	}
	return false
}

// removeLocked removes the entry from its queue and the index.
func (s *Scheduler) removeLocked(e *entry) {
	q := s.queues[e.priority]
	for i, cand := range q {
		if cand == e {
			s.queues[e.priority] = append(q[:i], q[i+1:]...)
			break
		}
	}
	delete(s.index, e.id)
}

// abort resolves an entry that is still queued. It returns false when
// the entry was already resolved (e.g. dispatched) first.
func (s *Scheduler) abort(e *entry, state entryState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.state != stateQueued {
		return false
	}
	s.removeLocked(e)
	e.state = state
	return true
}

// resolveLostRace handles an entry whose dispatch raced with a local
// cancellation or deadline. The buffered resolution is consumed; a
// granted slot is returned immediately since the caller will not
// execute.
func (s *Scheduler) resolveLostRace(e *entry, cause error) error {
	err := <-e.done
	if err != nil {
		return err
	}
	s.release()
	return cause
}

func (s *Scheduler) releaseFunc() Release {
	var once sync.Once
	return func() {
		once.Do(s.release)
	}
}

func (s *Scheduler) release() {
	s.mu.Lock()
	s.slots.Release()
	s.dispatchLocked()
	s.mu.Unlock()
}

func (s *Scheduler) notifyPreempt(correlationID string) {
	if correlationID != "" && s.onPreempt != nil {
		s.onPreempt(correlationID)
	}
}
