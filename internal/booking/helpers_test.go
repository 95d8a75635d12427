package booking

import (
	"testing"
	"time"

	"github.com/mark3labs/barberia/internal/scheduler"
	"github.com/stretchr/testify/require"
)

var testEpoch = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

type fakeFrame struct {
	text     string
	readable bool
	reads    int
}

func (f *fakeFrame) TryReadConfirmationText() (string, bool) {
	f.reads++
	return f.text, f.readable
}

type feedback struct {
	kind    FeedbackKind
	message string
}

type recordingPresenter struct {
	renders  []Step
	feedback []feedback
}

func (p *recordingPresenter) Render(step Step, _ Selection, _ bool) {
	p.renders = append(p.renders, step)
}

func (p *recordingPresenter) Feedback(kind FeedbackKind, message string) {
	p.feedback = append(p.feedback, feedback{kind, message})
}

func (p *recordingPresenter) last() feedback {
	if len(p.feedback) == 0 {
		return feedback{}
	}
	return p.feedback[len(p.feedback)-1]
}

type recordingAffordance struct {
	shows   int
	removes int
	visible bool
}

func (a *recordingAffordance) ShowManualConfirm() {
	a.shows++
	a.visible = true
}

func (a *recordingAffordance) RemoveManualConfirm() {
	a.removes++
	a.visible = false
}

type harness struct {
	c      *Controller
	sched  *scheduler.Manual
	frame  *fakeFrame
	pres   *recordingPresenter
	aff    *recordingAffordance
	events []Event
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		sched: scheduler.NewManual(testEpoch),
		frame: &fakeFrame{},
		pres:  &recordingPresenter{},
		aff:   &recordingAffordance{},
	}
	c, err := New(Config{
		Scheduler:  h.sched,
		Frame:      h.frame,
		Presenter:  h.pres,
		Affordance: h.aff,
		Clock:      h.sched.Now,
		Observers:  []Observer{ObserverFunc(func(e Event) { h.events = append(h.events, e) })},
	})
	require.NoError(t, err)
	h.c = c
	t.Cleanup(c.Close)
	return h
}

// reachCalendar drives the wizard through the public API to the calendar step
// and leaves the transition lock held.
func (h *harness) reachCalendar(t *testing.T) {
	t.Helper()
	require.NoError(t, h.c.SelectEmployee("A", "Ana"))
	h.sched.Advance(800 * time.Millisecond)
	require.Equal(t, StepService, h.c.Step())

	require.NoError(t, h.c.SelectService("B", "Corte", 25000))
	h.sched.Advance(800 * time.Millisecond)
	require.Equal(t, StepSummary, h.c.Step())

	h.settle()
	require.True(t, h.c.Advance())
	require.Equal(t, StepCalendar, h.c.Step())
}

// settle lets the transition lock expire without reaching the first poll.
func (h *harness) settle() {
	h.sched.Advance(500 * time.Millisecond)
}

func (h *harness) count(typ EventType) int {
	n := 0
	for _, e := range h.events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

func (h *harness) lastEvent(typ EventType) (Event, bool) {
	for i := len(h.events) - 1; i >= 0; i-- {
		if h.events[i].Type == typ {
			return h.events[i], true
		}
	}
	return Event{}, false
}
