package tui

import (
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/mark3labs/barberia/internal/scheduler"
)

// TimerMsg is delivered when a scheduled callback is due.
type TimerMsg struct {
	Handle scheduler.Handle
}

// Scheduler implements scheduler.Scheduler on top of tea.Tick so every
// callback runs inside the program's Update. Scheduling only queues a command;
// the model must hand Cmd() back to Bubbletea after each Update.
type Scheduler struct {
	next   scheduler.Handle
	tasks  map[scheduler.Handle]*teaTask
	queued []tea.Cmd
}

type teaTask struct {
	interval time.Duration // zero for one-shot tasks
	fn       func()
}

// NewScheduler returns an empty Scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{tasks: make(map[scheduler.Handle]*teaTask)}
}

// ScheduleOnce implements scheduler.Scheduler.
func (s *Scheduler) ScheduleOnce(delay time.Duration, fn func()) scheduler.Handle {
	return s.add(delay, 0, fn)
}

// ScheduleRepeating implements scheduler.Scheduler.
func (s *Scheduler) ScheduleRepeating(interval time.Duration, fn func()) scheduler.Handle {
	if interval < time.Millisecond {
		interval = time.Millisecond
	}
	return s.add(interval, interval, fn)
}

// Cancel implements scheduler.Scheduler. The tick already handed to Bubbletea
// still arrives but finds no task.
func (s *Scheduler) Cancel(h scheduler.Handle) {
	delete(s.tasks, h)
}

// Pending returns the number of live tasks.
func (s *Scheduler) Pending() int { return len(s.tasks) }

// Fire runs the task behind msg if it is still scheduled.
func (s *Scheduler) Fire(msg TimerMsg) {
	t, ok := s.tasks[msg.Handle]
	if !ok {
		return
	}
	if t.interval > 0 {
		s.queued = append(s.queued, tick(msg.Handle, t.interval))
	} else {
		delete(s.tasks, msg.Handle)
	}
	t.fn()
}

// Cmd returns the ticks queued since the last call.
func (s *Scheduler) Cmd() tea.Cmd {
	if len(s.queued) == 0 {
		return nil
	}
	cmds := s.queued
	s.queued = nil
	return tea.Batch(cmds...)
}

func (s *Scheduler) add(delay, interval time.Duration, fn func()) scheduler.Handle {
	if delay < time.Millisecond {
		delay = time.Millisecond
	}
	s.next++
	s.tasks[s.next] = &teaTask{interval: interval, fn: fn}
	s.queued = append(s.queued, tick(s.next, delay))
	return s.next
}

func tick(h scheduler.Handle, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return TimerMsg{Handle: h}
	})
}
