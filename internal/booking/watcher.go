package booking

import (
	"github.com/mark3labs/barberia/internal/logger"
	"github.com/mark3labs/barberia/internal/scheduler"
)

// WatcherState is the confirmation watcher's state machine position.
type WatcherState int

const (
	WatcherIdle WatcherState = iota
	WatcherPolling
	WatcherConfirmed
)

func (s WatcherState) String() string {
	switch s {
	case WatcherPolling:
		return "polling"
	case WatcherConfirmed:
		return "confirmed"
	default:
		return "idle"
	}
}

// WatcherSnapshot is a read-only view of the watcher.
type WatcherSnapshot struct {
	State         WatcherState `json:"state"`
	Attempts      int          `json:"attempts"`
	MaxAttempts   int          `json:"max_attempts"`
	ManualVisible bool         `json:"manual_visible"`
}

// Watcher polls the embedded calendar for confirmation text while the wizard
// sits on the calendar step. It holds at most one poll timer and one grace
// timer; Start always cancels the previous pair first.
type Watcher struct {
	sched      scheduler.Scheduler
	frame      FrameReader
	matcher    *Matcher
	affordance Affordance
	timing     Timing
	log        *logger.Logger

	// eligible reports whether the wizard still wants a manual fallback.
	eligible    func() bool
	onConfirmed func(ConfirmSource, string)
	emit        func(Event)

	state         WatcherState
	attempts      int
	poll          scheduler.Handle
	grace         scheduler.Handle
	manualVisible bool
}

func newWatcher(sched scheduler.Scheduler, frame FrameReader, matcher *Matcher, affordance Affordance, timing Timing) *Watcher {
	return &Watcher{
		sched:       sched,
		frame:       frame,
		matcher:     matcher,
		affordance:  affordance,
		timing:      timing,
		log:         logger.Named("watcher"),
		eligible:    func() bool { return true },
		onConfirmed: func(ConfirmSource, string) {},
		emit:        func(Event) {},
	}
}

// Start begins a fresh polling cycle.
func (w *Watcher) Start() {
	w.cancelTimers()
	w.attempts = 0
	w.state = WatcherPolling
	w.poll = w.sched.ScheduleRepeating(w.timing.PollInterval, w.tick)
	w.grace = w.sched.ScheduleOnce(w.timing.GracePeriod, w.offerManual)
	w.log.Debug("polling every %s, manual fallback after %s", w.timing.PollInterval, w.timing.GracePeriod)
	w.emit(Event{Type: EventWatcherStarted})
}

// Stop cancels polling and removes the manual affordance. Safe to call in any
// state.
func (w *Watcher) Stop() {
	wasPolling := w.state == WatcherPolling
	w.cancelTimers()
	w.removeManual()
	w.state = WatcherIdle
	if wasPolling {
		w.log.Debug("stopped after %d attempts", w.attempts)
		w.emit(Event{Type: EventWatcherStopped, Attempts: w.attempts})
	}
}

// ConfirmManually is the manual affordance's click handler. It only acts while
// the affordance is shown and returns whether it did.
func (w *Watcher) ConfirmManually() bool {
	if !w.manualVisible {
		return false
	}
	w.confirm(SourceManual, "")
	return true
}

// Snapshot returns the current watcher state.
func (w *Watcher) Snapshot() WatcherSnapshot {
	return WatcherSnapshot{
		State:         w.state,
		Attempts:      w.attempts,
		MaxAttempts:   w.timing.MaxAttempts,
		ManualVisible: w.manualVisible,
	}
}

// Active reports whether the watcher is polling.
func (w *Watcher) Active() bool { return w.state == WatcherPolling }

func (w *Watcher) tick() {
	if w.state != WatcherPolling {
		return
	}

	text, ok := w.frame.TryReadConfirmationText()
	if ok {
		if phrase, found := w.matcher.Match(text); found {
			w.log.Info("confirmation detected (%q) after %d attempts", phrase, w.attempts)
			w.confirm(SourceAuto, phrase)
			return
		}
	} else {
		w.log.Debug("calendar frame unreadable on attempt %d", w.attempts+1)
	}

	w.attempts++
	if w.timing.MaxAttempts > 0 && w.attempts >= w.timing.MaxAttempts {
		w.cancelTimers()
		w.state = WatcherIdle
		w.log.Info("gave up after %d attempts", w.attempts)
		w.emit(Event{Type: EventWatcherTimedOut, Attempts: w.attempts})
	}
}

func (w *Watcher) offerManual() {
	w.grace = 0
	if w.state != WatcherPolling || w.manualVisible || !w.eligible() {
		return
	}
	w.manualVisible = true
	w.affordance.ShowManualConfirm()
	w.emit(Event{Type: EventManualOffered, Attempts: w.attempts})
}

func (w *Watcher) confirm(source ConfirmSource, phrase string) {
	w.cancelTimers()
	w.removeManual()
	w.state = WatcherConfirmed
	w.onConfirmed(source, phrase)
}

func (w *Watcher) removeManual() {
	if !w.manualVisible {
		return
	}
	w.manualVisible = false
	w.affordance.RemoveManualConfirm()
}

func (w *Watcher) cancelTimers() {
	w.sched.Cancel(w.poll)
	w.sched.Cancel(w.grace)
	w.poll, w.grace = 0, 0
}
