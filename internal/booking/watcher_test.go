package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_PollsOncePerIntervalOnCalendar(t *testing.T) {
	h := newHarness(t)
	h.reachCalendar(t)

	assert.Equal(t, 0, h.frame.reads, "first poll waits one interval")
	h.sched.Advance(time.Second)
	assert.Equal(t, 1, h.frame.reads)
	h.sched.Advance(4 * time.Second)
	assert.Equal(t, 5, h.frame.reads)

	snap := h.c.Snapshot().Watcher
	assert.Equal(t, WatcherPolling, snap.State)
	assert.Equal(t, 5, snap.Attempts)
	assert.Equal(t, 180, snap.MaxAttempts)
}

func TestWatcher_ReenteringCalendarKeepsSingleCycle(t *testing.T) {
	h := newHarness(t)
	h.reachCalendar(t)
	h.settle()

	for i := 0; i < 3; i++ {
		require.True(t, h.c.Retreat())
		h.settle()
		require.True(t, h.c.Advance())
		h.settle()
	}

	before := h.frame.reads
	h.sched.Advance(time.Second)
	assert.Equal(t, before+1, h.frame.reads, "one read per interval after re-entry")
	assert.Equal(t, 1, h.c.Snapshot().Watcher.Attempts, "attempt counter restarts")
}

func TestWatcher_LeavingCalendarStopsPolling(t *testing.T) {
	tests := []struct {
		name  string
		leave func(h *harness)
	}{
		{"advance", func(h *harness) { h.c.Advance() }},
		{"retreat", func(h *harness) { h.c.Retreat() }},
		{"jump", func(h *harness) { _ = h.c.JumpTo(StepBarber) }},
		{"reset", func(h *harness) { h.c.Reset() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.reachCalendar(t)
			h.sched.Advance(3 * time.Second)
			require.Equal(t, 3, h.frame.reads)

			tt.leave(h)
			require.NotEqual(t, StepCalendar, h.c.Step())
			h.sched.Advance(time.Minute)

			assert.Equal(t, 3, h.frame.reads, "no poll after leaving the calendar")
			assert.Equal(t, 0, h.aff.shows, "no manual control after leaving")
			assert.Equal(t, WatcherIdle, h.c.Snapshot().Watcher.State)
			assert.Equal(t, 1, h.count(EventWatcherStopped))
		})
	}
}

func TestWatcher_PhraseMatchConfirms(t *testing.T) {
	phrases := []string{
		"Reserva Confirmada",
		"Your APPOINTMENT CONFIRMED, see you soon",
		"Cita   confirmada\n para el martes",
		"Thank you for booking with us",
	}

	for _, text := range phrases {
		t.Run(text, func(t *testing.T) {
			h := newHarness(t)
			h.reachCalendar(t)
			h.frame.text, h.frame.readable = text, true

			h.sched.Advance(time.Second)

			assert.True(t, h.c.Confirmed())
			assert.Equal(t, 1, h.count(EventConfirmed))
			e, _ := h.lastEvent(EventConfirmed)
			assert.Equal(t, SourceAuto, e.Source)
			assert.NotEmpty(t, e.Phrase)
			assert.Equal(t, FeedbackConfirmed, h.pres.last().kind)
			assert.Equal(t, WatcherConfirmed, h.c.Snapshot().Watcher.State)

			reads := h.frame.reads
			h.sched.Advance(10 * time.Second)
			assert.Equal(t, reads, h.frame.reads, "polling stops on confirmation")
			assert.Equal(t, 0, h.aff.shows, "no manual control once confirmed")
		})
	}
}

func TestWatcher_UnrelatedOrUnreadableTextKeepsPolling(t *testing.T) {
	h := newHarness(t)
	h.reachCalendar(t)

	h.frame.text, h.frame.readable = "Select a date", true
	h.sched.Advance(2 * time.Second)
	h.frame.text, h.frame.readable = "", false
	h.sched.Advance(2 * time.Second)

	assert.False(t, h.c.Confirmed())
	assert.Equal(t, 4, h.c.Snapshot().Watcher.Attempts)
	assert.Equal(t, WatcherPolling, h.c.Snapshot().Watcher.State)
}

func TestWatcher_DuplicateConfirmationIgnoredUntilCooldown(t *testing.T) {
	h := newHarness(t)
	h.reachCalendar(t)
	h.frame.text, h.frame.readable = "Reserva confirmada", true
	h.sched.Advance(time.Second)
	require.True(t, h.c.Confirmed())
	feedbackCount := len(h.pres.feedback)

	h.c.ConfirmBooking(SourceManual, "")
	h.c.ConfirmBooking(SourceAuto, "confirmed")
	assert.False(t, h.c.ConfirmManually(), "manual control is gone")

	assert.Equal(t, 1, h.count(EventConfirmed))
	assert.Equal(t, feedbackCount, len(h.pres.feedback))

	h.sched.Advance(179 * time.Second)
	assert.Equal(t, StepCalendar, h.c.Step())
	assert.True(t, h.c.Snapshot().CooldownPending)

	h.sched.Advance(time.Second)
	assert.Equal(t, StepContact, h.c.Step())
	assert.False(t, h.c.Confirmed())
	assert.Equal(t, 1, h.count(EventCooldownElapsed))
}

func TestWatcher_CooldownAfterLeavingCalendar(t *testing.T) {
	h := newHarness(t)
	h.reachCalendar(t)
	h.frame.text, h.frame.readable = "Booking confirmed", true
	h.sched.Advance(time.Second)
	require.True(t, h.c.Confirmed())

	// The visitor can move on before the cooldown ends; no step change is
	// forced if they already reached the contact step.
	require.True(t, h.c.Advance())
	stepChanges := h.count(EventStepChanged)
	h.sched.Advance(180 * time.Second)

	assert.Equal(t, StepContact, h.c.Step())
	assert.Equal(t, stepChanges, h.count(EventStepChanged))
	assert.False(t, h.c.Confirmed())
}

func TestWatcher_ManualAffordanceAfterGrace(t *testing.T) {
	h := newHarness(t)
	h.reachCalendar(t)

	h.sched.Advance(9900 * time.Millisecond)
	assert.False(t, h.aff.visible, "not before the grace period")

	h.sched.Advance(100 * time.Millisecond)
	assert.True(t, h.aff.visible)
	assert.Equal(t, 1, h.aff.shows)
	assert.Equal(t, 1, h.count(EventManualOffered))

	h.sched.Advance(30 * time.Second)
	assert.Equal(t, 1, h.aff.shows, "shown at most once per cycle")
	assert.True(t, h.c.Snapshot().Watcher.ManualVisible)

	require.True(t, h.c.ConfirmManually())
	assert.True(t, h.c.Confirmed())
	assert.False(t, h.aff.visible)
	assert.Equal(t, 1, h.aff.removes)
	e, ok := h.lastEvent(EventConfirmed)
	require.True(t, ok)
	assert.Equal(t, SourceManual, e.Source)

	assert.False(t, h.c.ConfirmManually(), "second click does nothing")
	assert.Equal(t, 1, h.count(EventConfirmed))
}

func TestWatcher_ManualNotOfferedWhenLeftBeforeGrace(t *testing.T) {
	h := newHarness(t)
	h.reachCalendar(t)
	h.sched.Advance(5 * time.Second)

	require.True(t, h.c.Retreat())
	h.sched.Advance(time.Minute)

	assert.Equal(t, 0, h.aff.shows)
	assert.False(t, h.c.ConfirmManually())
}

func TestWatcher_TimeoutGoesIdleWithoutConfirming(t *testing.T) {
	h := newHarness(t)
	h.reachCalendar(t)

	h.sched.Advance(181 * time.Second)

	snap := h.c.Snapshot()
	assert.Equal(t, WatcherIdle, snap.Watcher.State)
	assert.Equal(t, 180, snap.Watcher.Attempts)
	assert.Equal(t, 180, h.frame.reads)
	assert.False(t, snap.Confirmed)
	assert.Equal(t, StepCalendar, snap.Step, "no auto-advance on timeout")
	assert.Equal(t, 1, h.count(EventWatcherTimedOut))
	assert.Equal(t, 0, h.count(EventConfirmed))

	// The manual control offered during polling stays usable.
	assert.True(t, h.aff.visible)
	require.True(t, h.c.ConfirmManually())
	assert.True(t, h.c.Confirmed())
}

func TestWatcher_TimeoutBeforeGraceNeverOffersManual(t *testing.T) {
	h := newHarness(t)
	h.c.Close()

	c, err := New(Config{
		Scheduler:  h.sched,
		Frame:      h.frame,
		Affordance: h.aff,
		Timing:     Timing{MaxAttempts: 3},
	})
	require.NoError(t, err)
	c.sel = Selection{EmployeeID: "A", EmployeeName: "Ana", ServiceID: "B", ServiceName: "Corte"}
	require.NoError(t, c.JumpTo(StepCalendar))

	h.sched.Advance(time.Minute)
	assert.Equal(t, WatcherIdle, c.Snapshot().Watcher.State)
	assert.Equal(t, 0, h.aff.shows, "grace timer cancelled with the poll timer")
	assert.False(t, c.ConfirmManually())
}

func TestWatcher_NotRestartedWhileConfirmed(t *testing.T) {
	h := newHarness(t)
	h.reachCalendar(t)
	h.frame.text, h.frame.readable = "Booking confirmed", true
	h.sched.Advance(time.Second)
	require.True(t, h.c.Confirmed())

	h.settle()
	require.True(t, h.c.Retreat())
	h.settle()
	require.True(t, h.c.Advance())
	reads := h.frame.reads
	h.sched.Advance(5 * time.Second)

	assert.Equal(t, reads, h.frame.reads)
	assert.Equal(t, 1, h.count(EventWatcherStarted))
}
