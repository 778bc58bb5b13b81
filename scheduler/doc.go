// Package scheduler provides priority scheduling for outbound requests.
//
// The scheduler maintains one bounded FIFO queue per priority level and
// grants execution slots in strict priority order: the oldest entry of
// the highest non-empty priority dispatches first. The number of
// concurrently executing requests is capped by a bulkhead; while the
// cap is reached, arriving higher-priority requests may preempt queued
// (never executing) lower-priority entries.
//
// A caller admits a request with Acquire, which blocks until the
// request is granted a slot, preempted, cancelled, or expired. Acquire
// returns a release function that must be called exactly once when the
// request finishes executing.
//
//	sched := scheduler.New(scheduler.Config{
//	    QueueSizePerPriority: 100,
//	    MaxConcurrent:        10,
//	})
//
//	release, err := sched.Acquire(ctx, scheduler.Request{
//	    CorrelationID: "req-1",
//	    Priority:      scheduler.PriorityHigh,
//	}, nil)
//	if err != nil {
//	    return err
//	}
//	defer release()
//	// ... perform the outbound call ...
//
// Cancellation by correlation id is honored only while an entry is
// queued; once dispatched, a request runs to completion.
package scheduler
