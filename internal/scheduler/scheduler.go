// Package scheduler provides the deferred-callback primitives the booking core
// is built on: one-shot and repeating timers that are cancellable by handle.
package scheduler

import "time"

// Handle identifies one scheduled task. The zero Handle never refers to a task.
type Handle uint64

// Valid reports whether h refers to a scheduled task (it may since have fired).
func (h Handle) Valid() bool { return h != 0 }

// Scheduler runs callbacks after a delay. Implementations guarantee that
// callbacks never run concurrently with each other, and that a callback whose
// handle was cancelled does not run afterwards.
type Scheduler interface {
	// ScheduleOnce runs fn once after delay.
	ScheduleOnce(delay time.Duration, fn func()) Handle
	// ScheduleRepeating runs fn every interval until cancelled.
	ScheduleRepeating(interval time.Duration, fn func()) Handle
	// Cancel stops the task. Unknown, zero or already-fired handles are ignored.
	Cancel(h Handle)
}
