package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mark3labs/barberia/internal/logger"
)

// ErrLoopStopped is returned by Do when the loop is no longer running.
var ErrLoopStopped = errors.New("scheduler loop stopped")

// Loop is a real-time Scheduler that executes every callback on a single
// goroutine (the one calling Run). Work from other goroutines enters the loop
// through Do or Post, which gives callers the same single-threaded ordering the
// booking core expects.
type Loop struct {
	mu     sync.Mutex
	next   Handle
	timers map[Handle]*loopTimer

	work    chan func()
	done    chan struct{}
	started chan struct{}
	once    sync.Once
	log     *logger.Logger
}

type loopTimer struct {
	timer    *time.Timer
	interval time.Duration
	fn       func()
}

// NewLoop creates a loop. Call Run to start executing work.
func NewLoop() *Loop {
	return &Loop{
		timers:  make(map[Handle]*loopTimer),
		work:    make(chan func(), 64),
		done:    make(chan struct{}),
		started: make(chan struct{}),
		log:     logger.Named("scheduler"),
	}
}

// Run executes posted work and timer callbacks until ctx is cancelled.
// All timers are stopped on return.
func (l *Loop) Run(ctx context.Context) {
	l.once.Do(func() { close(l.started) })
	defer l.shutdown()

	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-l.work:
			fn()
		}
	}
}

func (l *Loop) shutdown() {
	l.mu.Lock()
	defer l.mu.Unlock()

	select {
	case <-l.done:
		return
	default:
	}
	close(l.done)
	for h, t := range l.timers {
		t.timer.Stop()
		delete(l.timers, h)
	}
	l.log.Debug("loop stopped")
}

// Post queues fn to run on the loop goroutine without waiting for it.
// Returns false if the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.work <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Do runs fn on the loop goroutine and waits for it to finish.
// It must not be called from inside a loop callback.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrLoopStopped
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ScheduleOnce implements Scheduler.
func (l *Loop) ScheduleOnce(delay time.Duration, fn func()) Handle {
	return l.add(delay, 0, fn)
}

// ScheduleRepeating implements Scheduler.
func (l *Loop) ScheduleRepeating(interval time.Duration, fn func()) Handle {
	if interval < time.Millisecond {
		interval = time.Millisecond
	}
	return l.add(interval, interval, fn)
}

func (l *Loop) add(delay, interval time.Duration, fn func()) Handle {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.next++
	h := l.next
	t := &loopTimer{interval: interval, fn: fn}
	t.timer = time.AfterFunc(delay, func() { l.Post(func() { l.fire(h) }) })
	l.timers[h] = t
	return h
}

// fire runs on the loop goroutine. A timer cancelled after its AfterFunc
// already queued the fire is no longer in the map and is skipped.
func (l *Loop) fire(h Handle) {
	l.mu.Lock()
	t, ok := l.timers[h]
	if !ok {
		l.mu.Unlock()
		return
	}
	if t.interval > 0 {
		t.timer = time.AfterFunc(t.interval, func() { l.Post(func() { l.fire(h) }) })
	} else {
		delete(l.timers, h)
	}
	l.mu.Unlock()

	t.fn()
}

// Cancel implements Scheduler.
func (l *Loop) Cancel(h Handle) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if t, ok := l.timers[h]; ok {
		t.timer.Stop()
		delete(l.timers, h)
	}
}

// Started is closed once Run has begun.
func (l *Loop) Started() <-chan struct{} { return l.started }
