package scheduler

import (
	"time"
)

// Manual is a Scheduler driven by a virtual clock. Nothing fires until Advance
// is called; due callbacks then run on the caller's goroutine in time order
// (ties in scheduling order). Manual is not safe for concurrent use.
type Manual struct {
	now   time.Time
	next  Handle
	seq   uint64
	tasks map[Handle]*manualTask
}

type manualTask struct {
	at       time.Time
	interval time.Duration
	seq      uint64
	fn       func()
}

// NewManual returns a Manual scheduler whose clock starts at start.
func NewManual(start time.Time) *Manual {
	return &Manual{
		now:   start,
		tasks: make(map[Handle]*manualTask),
	}
}

// Now returns the virtual time.
func (m *Manual) Now() time.Time { return m.now }

// Pending returns the number of scheduled tasks that have not been cancelled
// or completed.
func (m *Manual) Pending() int { return len(m.tasks) }

// ScheduleOnce implements Scheduler.
func (m *Manual) ScheduleOnce(delay time.Duration, fn func()) Handle {
	if delay < 0 {
		delay = 0
	}
	return m.add(delay, 0, fn)
}

// ScheduleRepeating implements Scheduler. Intervals below a millisecond are
// raised to one millisecond.
func (m *Manual) ScheduleRepeating(interval time.Duration, fn func()) Handle {
	if interval < time.Millisecond {
		interval = time.Millisecond
	}
	return m.add(interval, interval, fn)
}

func (m *Manual) add(delay, interval time.Duration, fn func()) Handle {
	m.next++
	m.seq++
	m.tasks[m.next] = &manualTask{
		at:       m.now.Add(delay),
		interval: interval,
		seq:      m.seq,
		fn:       fn,
	}
	return m.next
}

// Cancel implements Scheduler.
func (m *Manual) Cancel(h Handle) {
	delete(m.tasks, h)
}

// Advance moves the clock forward by d, running every callback that becomes
// due. Callbacks may schedule or cancel tasks; newly scheduled tasks that fall
// inside the window run in the same call.
func (m *Manual) Advance(d time.Duration) {
	target := m.now.Add(d)
	for {
		h, task := m.earliest()
		if task == nil || task.at.After(target) {
			break
		}
		m.run(h, task)
	}
	m.now = target
}

// Step fires the single earliest pending task regardless of its due time,
// moving the clock to it. Returns false when nothing is pending.
func (m *Manual) Step() bool {
	h, task := m.earliest()
	if task == nil {
		return false
	}
	m.run(h, task)
	return true
}

func (m *Manual) run(h Handle, task *manualTask) {
	m.now = task.at
	if task.interval > 0 {
		m.seq++
		task.at = task.at.Add(task.interval)
		task.seq = m.seq
	} else {
		delete(m.tasks, h)
	}
	task.fn()
}

// earliest returns the next task to run, ties broken by scheduling order, or
// a nil task when nothing is pending.
func (m *Manual) earliest() (Handle, *manualTask) {
	var (
		bestH Handle
		best  *manualTask
	)
	for h, t := range m.tasks {
		if best == nil || t.at.Before(best.at) || (t.at.Equal(best.at) && t.seq < best.seq) {
			bestH, best = h, t
		}
	}
	return bestH, best
}
