package booking

import "time"

// FeedbackKind classifies a message shown to the visitor.
type FeedbackKind int

const (
	FeedbackInfo      FeedbackKind = iota
	FeedbackSuccess                // transient, a selection was recorded
	FeedbackWarning                // transient, a navigation was refused
	FeedbackConfirmed              // persistent for the whole cooldown window
)

func (k FeedbackKind) String() string {
	switch k {
	case FeedbackSuccess:
		return "success"
	case FeedbackWarning:
		return "warning"
	case FeedbackConfirmed:
		return "confirmed"
	default:
		return "info"
	}
}

// Presenter renders wizard state. It is called synchronously on the wizard's
// execution thread and must not call back into the Controller.
type Presenter interface {
	Render(step Step, sel Selection, confirmed bool)
	Feedback(kind FeedbackKind, message string)
}

// Affordance is the floating "I already booked" control offered while the
// calendar is being watched. Both methods must tolerate repeated calls.
type Affordance interface {
	ShowManualConfirm()
	RemoveManualConfirm()
}

// FrameReader inspects the embedded calendar. ok is false when the content
// cannot be read right now; that is expected and never an error.
type FrameReader interface {
	TryReadConfirmationText() (text string, ok bool)
}

// FrameReaderFunc adapts a function to FrameReader.
type FrameReaderFunc func() (string, bool)

// TryReadConfirmationText implements FrameReader.
func (f FrameReaderFunc) TryReadConfirmationText() (string, bool) { return f() }

// ConfirmSource tells how a booking confirmation was detected.
type ConfirmSource string

const (
	SourceAuto   ConfirmSource = "auto"
	SourceManual ConfirmSource = "manual"
)

// EventType names a wizard lifecycle event.
type EventType string

const (
	EventStepChanged      EventType = "step_changed"
	EventEmployeeSelected EventType = "employee_selected"
	EventServiceSelected  EventType = "service_selected"
	EventValidationFailed EventType = "validation_failed"
	EventWatcherStarted   EventType = "watcher_started"
	EventWatcherStopped   EventType = "watcher_stopped"
	EventWatcherTimedOut  EventType = "watcher_timed_out"
	EventManualOffered    EventType = "manual_offered"
	EventConfirmed        EventType = "confirmed"
	EventCooldownElapsed  EventType = "cooldown_elapsed"
	EventReset            EventType = "reset"
)

// Event describes something that happened inside the wizard. Fields that do
// not apply to a given type are left zero.
type Event struct {
	Type      EventType     `json:"type"`
	At        time.Time     `json:"at"`
	From      Step          `json:"from"`
	Step      Step          `json:"step"`
	Selection Selection     `json:"selection"`
	Source    ConfirmSource `json:"source,omitempty"`
	Attempts  int           `json:"attempts,omitempty"`
	Phrase    string        `json:"phrase,omitempty"`
	Message   string        `json:"message,omitempty"`
}

// Observer receives wizard events on the wizard's execution thread.
// Implementations that do I/O must hand the event off instead of blocking.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe implements Observer.
func (f ObserverFunc) Observe(e Event) { f(e) }

type nopPresenter struct{}

func (nopPresenter) Render(Step, Selection, bool)  {}
func (nopPresenter) Feedback(FeedbackKind, string) {}

type nopAffordance struct{}

func (nopAffordance) ShowManualConfirm()   {}
func (nopAffordance) RemoveManualConfirm() {}
