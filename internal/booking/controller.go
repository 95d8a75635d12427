// Package booking implements the barbershop booking wizard: a five-step state
// machine and the watcher that detects a completed booking inside the embedded
// calendar.
//
// A Controller is not safe for concurrent use. Every method, and every
// callback it schedules, must run on one execution thread; the Scheduler passed
// in Config decides which one.
package booking

import (
	"fmt"
	"time"

	"github.com/mark3labs/barberia/internal/catalog"
	"github.com/mark3labs/barberia/internal/logger"
	"github.com/mark3labs/barberia/internal/scheduler"
)

// Config wires a Controller to its collaborators. Scheduler and Frame are
// required; everything else has a usable default.
type Config struct {
	Scheduler  scheduler.Scheduler
	Frame      FrameReader
	Presenter  Presenter
	Affordance Affordance
	Observers  []Observer
	Phrases    []string
	Timing     Timing
	Compact    bool             // compact device class, slower auto-advance
	Clock      func() time.Time // event timestamps, defaults to time.Now
}

// Snapshot is a read-only copy of the wizard state.
type Snapshot struct {
	Step               Step            `json:"step"`
	Selection          Selection       `json:"selection"`
	Confirmed          bool            `json:"confirmed"`
	Transitioning      bool            `json:"transitioning"`
	CooldownPending    bool            `json:"cooldown_pending"`
	AutoAdvancePending bool            `json:"auto_advance_pending"`
	Watcher            WatcherSnapshot `json:"watcher"`
}

// Controller owns the wizard state and its transition rules.
type Controller struct {
	sched     scheduler.Scheduler
	presenter Presenter
	observers []Observer
	timing    Timing
	compact   bool
	clock     func() time.Time
	watcher   *Watcher
	log       *logger.Logger

	step          Step
	sel           Selection
	confirmed     bool
	transitioning bool

	lock            scheduler.Handle
	employeeAdvance scheduler.Handle
	serviceAdvance  scheduler.Handle
	cooldown        scheduler.Handle
}

// New creates a controller positioned on the first step.
func New(cfg Config) (*Controller, error) {
	if cfg.Scheduler == nil {
		return nil, fmt.Errorf("booking: scheduler is required")
	}
	if cfg.Frame == nil {
		return nil, fmt.Errorf("booking: calendar frame reader is required")
	}
	if cfg.Presenter == nil {
		cfg.Presenter = nopPresenter{}
	}
	if cfg.Affordance == nil {
		cfg.Affordance = nopAffordance{}
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	timing := cfg.Timing.withDefaults()

	c := &Controller{
		sched:     cfg.Scheduler,
		presenter: cfg.Presenter,
		observers: cfg.Observers,
		timing:    timing,
		compact:   cfg.Compact,
		clock:     cfg.Clock,
		log:       logger.Named("booking"),
		step:      StepBarber,
	}

	c.watcher = newWatcher(cfg.Scheduler, cfg.Frame, NewMatcher(cfg.Phrases), cfg.Affordance, timing)
	c.watcher.eligible = func() bool { return c.step == StepCalendar && !c.confirmed }
	c.watcher.onConfirmed = c.ConfirmBooking
	c.watcher.emit = c.emit

	return c, nil
}

// AddObserver registers an observer for subsequent events.
func (c *Controller) AddObserver(o Observer) {
	c.observers = append(c.observers, o)
}

// SetCompact switches the device class used for the auto-advance delay.
func (c *Controller) SetCompact(compact bool) {
	c.compact = compact
}

// Render pushes the current state to the presenter.
func (c *Controller) Render() {
	c.presenter.Render(c.step, c.sel, c.confirmed)
}

// Step returns the current step.
func (c *Controller) Step() Step { return c.step }

// Selection returns the current selection.
func (c *Controller) Selection() Selection { return c.sel }

// Confirmed reports whether a confirmation is being processed.
func (c *Controller) Confirmed() bool { return c.confirmed }

// Snapshot returns a copy of the wizard and watcher state.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		Step:               c.step,
		Selection:          c.sel,
		Confirmed:          c.confirmed,
		Transitioning:      c.transitioning,
		CooldownPending:    c.cooldown.Valid(),
		AutoAdvancePending: c.employeeAdvance.Valid() || c.serviceAdvance.Valid(),
		Watcher:            c.watcher.Snapshot(),
	}
}

// Advance moves to the next step. It returns false, changing nothing, on the
// last step or while a transition is settling.
func (c *Controller) Advance() bool {
	if c.transitioning || c.step >= LastStep {
		return false
	}
	c.moveTo(c.step + 1)
	return true
}

// Retreat moves to the previous step. It returns false on the first step or
// while a transition is settling.
func (c *Controller) Retreat() bool {
	if c.transitioning || c.step <= StepBarber {
		return false
	}
	c.moveTo(c.step - 1)
	return true
}

// JumpTo moves directly to step. Jumping forward requires the barber and
// service selections that precede step; otherwise a *ValidationError is
// returned and the visitor gets a warning. Jumping to the current step or
// while a transition settles is a no-op.
func (c *Controller) JumpTo(step Step) error {
	if !step.Valid() {
		return fmt.Errorf("%w: %d", ErrStepOutOfRange, int(step))
	}
	if step == c.step || c.transitioning {
		return nil
	}
	if step > c.step {
		if missing, ok := c.missingBefore(step); ok {
			verr := &ValidationError{
				Target:  step,
				Missing: missing,
				Message: "Complete the previous steps first",
			}
			c.log.Debug("refused jump to %d: step %d incomplete", step, missing)
			c.presenter.Feedback(FeedbackWarning, verr.Message)
			c.emit(Event{Type: EventValidationFailed, Step: step, Message: verr.Message})
			return verr
		}
	}
	c.moveTo(step)
	return nil
}

// CanReach reports whether a forward jump to step would be allowed by the
// selection prerequisites.
func (c *Controller) CanReach(step Step) bool {
	if !step.Valid() {
		return false
	}
	_, missing := c.missingBefore(step)
	return !missing
}

func (c *Controller) missingBefore(step Step) (Step, bool) {
	if step >= StepService && !c.sel.HasEmployee() {
		return StepBarber, true
	}
	if step >= StepSummary && !c.sel.HasService() {
		return StepService, true
	}
	return 0, false
}

// SelectEmployee records the barber and schedules the move past the barber
// step once the selection feedback has played.
func (c *Controller) SelectEmployee(id, name string) error {
	if id == "" || name == "" {
		return fmt.Errorf("%w: barber needs an id and a name", ErrInvalidSelection)
	}
	c.sched.Cancel(c.employeeAdvance)
	c.sel.EmployeeID, c.sel.EmployeeName = id, name

	c.presenter.Feedback(FeedbackSuccess, "Barber selected: "+name)
	c.emit(Event{Type: EventEmployeeSelected})
	c.Render()

	c.employeeAdvance = c.sched.ScheduleOnce(c.advanceDelay(), func() {
		c.employeeAdvance = 0
		if c.sel.HasEmployee() && c.step == StepBarber {
			c.Advance()
		}
	})
	return nil
}

// SelectService records the service and schedules the move past the service
// step once the selection feedback has played.
func (c *Controller) SelectService(id, name string, price int) error {
	if id == "" || name == "" {
		return fmt.Errorf("%w: service needs an id and a name", ErrInvalidSelection)
	}
	if price < 0 {
		return fmt.Errorf("%w: negative price %d", ErrInvalidSelection, price)
	}
	c.sched.Cancel(c.serviceAdvance)
	c.sel.ServiceID, c.sel.ServiceName, c.sel.ServicePrice = id, name, price

	msg := "Service selected: " + name
	if price > 0 {
		msg += " - " + catalog.FormatPrice(price)
	}
	c.presenter.Feedback(FeedbackSuccess, msg)
	c.emit(Event{Type: EventServiceSelected})
	c.Render()

	c.serviceAdvance = c.sched.ScheduleOnce(c.advanceDelay(), func() {
		c.serviceAdvance = 0
		if c.sel.HasService() && c.step == StepService {
			c.Advance()
		}
	})
	return nil
}

// ConfirmManually forwards a click on the manual confirm control. It returns
// false when the control is not on screen.
func (c *Controller) ConfirmManually() bool {
	return c.watcher.ConfirmManually()
}

// Reset clears the selection and confirmation, cancels every pending timer and
// returns to the first step.
func (c *Controller) Reset() {
	c.cancelAll()
	from := c.step
	c.sel = Selection{}
	c.confirmed = false
	c.transitioning = false
	c.step = StepBarber

	c.log.Info("wizard reset from step %d", from)
	c.emit(Event{Type: EventReset, From: from})
	if from != c.step {
		c.emit(Event{Type: EventStepChanged, From: from})
	}
	c.Render()
	c.presenter.Feedback(FeedbackInfo, "Selection cleared")
}

// Close cancels every outstanding timer. The controller must not be used
// afterwards.
func (c *Controller) Close() {
	c.cancelAll()
}

func (c *Controller) cancelAll() {
	c.watcher.Stop()
	for _, h := range []scheduler.Handle{c.lock, c.employeeAdvance, c.serviceAdvance, c.cooldown} {
		c.sched.Cancel(h)
	}
	c.lock, c.employeeAdvance, c.serviceAdvance, c.cooldown = 0, 0, 0, 0
}

// moveTo performs a transition. Leaving the calendar step stops the watcher
// before anything else happens.
func (c *Controller) moveTo(target Step) {
	from := c.step
	if target != StepCalendar {
		c.watcher.Stop()
	}

	c.step = target
	c.holdTransitionLock()
	c.log.Debug("step %d -> %d", from, target)

	c.Render()
	c.emit(Event{Type: EventStepChanged, From: from})

	if target == StepCalendar && !c.confirmed {
		c.watcher.Start()
	}
}

func (c *Controller) holdTransitionLock() {
	if c.timing.TransitionLock <= 0 {
		return
	}
	c.sched.Cancel(c.lock)
	c.transitioning = true
	c.lock = c.sched.ScheduleOnce(c.timing.TransitionLock, func() {
		c.lock = 0
		c.transitioning = false
	})
}

// ConfirmBooking records a confirmation from source; phrase is the matched
// text for automatic detection. The watcher calls it for both paths. Only the
// first signal per cooldown window is processed.
func (c *Controller) ConfirmBooking(source ConfirmSource, phrase string) {
	if c.confirmed {
		c.log.Debug("ignoring duplicate %s confirmation", source)
		return
	}
	c.confirmed = true
	if c.watcher.Active() {
		c.watcher.Stop()
	}

	c.log.Info("booking confirmed (%s)", source)
	c.emit(Event{Type: EventConfirmed, Source: source, Phrase: phrase})
	c.Render()
	c.presenter.Feedback(FeedbackConfirmed, "Booking confirmed! We look forward to seeing you.")

	c.cooldown = c.sched.ScheduleOnce(c.timing.Cooldown, c.finishCooldown)
}

func (c *Controller) finishCooldown() {
	c.cooldown = 0
	if c.step != StepContact {
		c.moveTo(StepContact)
	}
	c.confirmed = false
	c.emit(Event{Type: EventCooldownElapsed})
	c.Render()
}

func (c *Controller) advanceDelay() time.Duration {
	if c.compact {
		return c.timing.CompactAdvanceDelay
	}
	return c.timing.AdvanceDelay
}

func (c *Controller) emit(e Event) {
	e.At = c.clock()
	e.Step = c.stepFor(e)
	e.Selection = c.sel
	for _, o := range c.observers {
		o.Observe(e)
	}
}

// stepFor keeps an explicit target step on validation events and otherwise
// stamps the current step.
func (c *Controller) stepFor(e Event) Step {
	if e.Type == EventValidationFailed {
		return e.Step
	}
	return c.step
}
