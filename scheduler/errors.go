package scheduler

import "errors"

// Sentinel errors for scheduling outcomes.
var (
	// ErrQueueFull is returned when the target priority queue is at capacity.
	ErrQueueFull = errors.New("scheduler: queue full")

	// ErrPreempted is returned when a queued entry is displaced by a
	// higher-priority arrival.
	ErrPreempted = errors.New("scheduler: preempted by higher priority request")

	// ErrCancelled is returned when a queued entry is cancelled.
	ErrCancelled = errors.New("scheduler: request cancelled")

	// ErrDeadlineExceeded is returned when an entry's deadline elapses
	// while it is still queued.
	ErrDeadlineExceeded = errors.New("scheduler: request deadline exceeded")

	// ErrDuplicateID is returned when an entry with the same correlation
	// id is already queued.
	ErrDuplicateID = errors.New("scheduler: duplicate correlation id")
)
