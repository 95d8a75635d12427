// Package tui renders the booking wizard in the terminal. The Model is the
// wizard's presenter and manual-confirm affordance, and its Scheduler runs
// every wizard timer inside Update so the controller stays single-threaded.
package tui

import (
	"errors"
	"time"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/mark3labs/barberia/internal/booking"
	"github.com/mark3labs/barberia/internal/catalog"
	"github.com/mark3labs/barberia/internal/logger"
	"github.com/mark3labs/barberia/internal/state"
	"github.com/mark3labs/barberia/internal/tui/theme"
)

// compactWidth is the widest terminal treated as a compact display.
const compactWidth = 80

var log = logger.Named("tui")

// CatalogMsg swaps the barber and service cards, e.g. after a config reload.
type CatalogMsg struct {
	Catalog *catalog.Catalog
}

// Options configures a Model.
type Options struct {
	Catalog   *catalog.Catalog
	Frame     booking.FrameReader
	Timing    booking.Timing
	Phrases   []string
	Observers []booking.Observer
	UIState   *state.UIState
	Clock     func() time.Time
}

// Model is the Bubbletea model of the booking wizard.
type Model struct {
	ctrl    *booking.Controller
	sched   *Scheduler
	catalog *catalog.Catalog
	ui      *state.UIState

	// Last state pushed by the controller.
	step      booking.Step
	sel       booking.Selection
	confirmed bool
	manual    bool

	cursor   [2]int // barber, service
	spinner  spinner.Model
	spinning bool
	toast    *Toast
	cmds     []tea.Cmd

	width    int
	height   int
	compact  bool
	quitting bool
}

// New builds the model and its controller.
func New(opts Options) (*Model, error) {
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	if opts.UIState == nil {
		opts.UIState = state.DefaultUIState()
	}

	m := &Model{
		sched:   NewScheduler(),
		catalog: opts.Catalog,
		ui:      opts.UIState,
		toast:   NewToast(),
		spinner: spinner.New(
			spinner.WithSpinner(spinner.MiniDot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Current().Primary))),
		),
	}
	m.cursor[0] = max(0, opts.Catalog.EmployeeIndex(opts.UIState.LastBarber))
	m.cursor[1] = max(0, opts.Catalog.ServiceIndex(opts.UIState.LastService))

	observers := append([]booking.Observer{booking.ObserverFunc(m.remember)}, opts.Observers...)
	ctrl, err := booking.New(booking.Config{
		Scheduler:  m.sched,
		Frame:      opts.Frame,
		Presenter:  m,
		Affordance: m,
		Observers:  observers,
		Phrases:    opts.Phrases,
		Timing:     opts.Timing,
		Compact:    m.compact,
		Clock:      opts.Clock,
	})
	if err != nil {
		return nil, err
	}
	m.ctrl = ctrl
	m.applyCompact()
	ctrl.Render()
	return m, nil
}

// Controller returns the wizard controller. It must only be used from Update.
func (m *Model) Controller() *booking.Controller { return m.ctrl }

// UIState returns the preferences updated during the session.
func (m *Model) UIState() *state.UIState { return m.ui }

// Step returns the step currently on screen.
func (m *Model) Step() booking.Step { return m.step }

// ManualVisible reports whether the "I already booked" button is shown.
func (m *Model) ManualVisible() bool { return m.manual }

// Compact reports whether the compact layout is in use.
func (m *Model) Compact() bool { return m.compact }

// Toast returns the feedback toast.
func (m *Model) Toast() *Toast { return m.toast }

// Render implements booking.Presenter.
func (m *Model) Render(step booking.Step, sel booking.Selection, confirmed bool) {
	if m.confirmed && !confirmed && m.toast.Kind() == booking.FeedbackConfirmed {
		m.toast.Clear()
	}
	m.step, m.sel, m.confirmed = step, sel, confirmed
	if i := m.catalog.EmployeeIndex(sel.EmployeeID); i >= 0 {
		m.cursor[0] = i
	}
	if i := m.catalog.ServiceIndex(sel.ServiceID); i >= 0 {
		m.cursor[1] = i
	}
}

// Feedback implements booking.Presenter. While a booking is confirmed the
// confirmation message stays on screen and other feedback is only logged.
func (m *Model) Feedback(kind booking.FeedbackKind, message string) {
	if m.confirmed && kind != booking.FeedbackConfirmed && m.toast.Kind() == booking.FeedbackConfirmed && m.toast.IsVisible() {
		log.Debug("confirmation pinned, not showing %q", message)
		return
	}
	m.queue(m.toast.Show(kind, message))
}

// ShowManualConfirm implements booking.Affordance.
func (m *Model) ShowManualConfirm() { m.manual = true }

// RemoveManualConfirm implements booking.Affordance.
func (m *Model) RemoveManualConfirm() { m.manual = false }

// SetCatalog replaces the cards and keeps the cursors in range.
func (m *Model) SetCatalog(cat *catalog.Catalog) {
	if cat == nil {
		return
	}
	m.catalog = cat
	m.cursor[0] = clamp(m.cursor[0], len(cat.Employees))
	m.cursor[1] = clamp(m.cursor[1], len(cat.Services))
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.flush()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TimerMsg:
		m.sched.Fire(msg)

	case ToastDismissMsg:
		m.toast.Update(msg)

	case spinner.TickMsg:
		if m.step != booking.StepCalendar {
			m.spinning = false
			break
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.queue(cmd)

	case CatalogMsg:
		m.SetCatalog(msg.Catalog)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.applyCompact()

	case tea.KeyPressMsg:
		if m.handleKey(msg) {
			m.quitting = true
			m.ctrl.Close()
			return m, tea.Quit
		}
	}
	return m, m.flush()
}

// handleKey applies a key press and reports whether the program should quit.
func (m *Model) handleKey(msg tea.KeyPressMsg) bool {
	key := msg.String()
	switch key {
	case "ctrl+c":
		return true
	case "esc":
		switch m.ctrl.Step() {
		case booking.StepBarber:
			return true
		case booking.LastStep:
			m.ctrl.Reset()
		default:
			m.ctrl.Retreat()
		}
	case "left", "h":
		m.ctrl.Retreat()
	case "right", "l", "space", " ":
		m.ctrl.Advance()
	case "home":
		m.jumpTo(booking.StepBarber)
	case "end":
		m.jumpTo(booking.LastStep)
	case "1", "2", "3", "4", "5":
		m.jumpTo(booking.Step(key[0] - '1'))
	case "up", "k":
		m.moveCursor(-1)
	case "down", "j":
		m.moveCursor(1)
	case "enter":
		m.activate()
	case "r":
		m.ctrl.Reset()
	}
	return false
}

// jumpTo moves to target. Blocked forward jumps already show a warning.
func (m *Model) jumpTo(target booking.Step) {
	if err := m.ctrl.JumpTo(target); err != nil {
		var verr *booking.ValidationError
		if !errors.As(err, &verr) {
			log.Warn("jump to %d: %v", target, err)
		}
	}
}

func (m *Model) moveCursor(delta int) {
	switch m.step {
	case booking.StepBarber:
		m.cursor[0] = wrap(m.cursor[0]+delta, len(m.catalog.Employees))
	case booking.StepService:
		m.cursor[1] = wrap(m.cursor[1]+delta, len(m.catalog.Services))
	}
}

// activate presses whatever enter means on the current step.
func (m *Model) activate() {
	var err error
	switch m.step {
	case booking.StepBarber:
		if len(m.catalog.Employees) == 0 {
			return
		}
		e := m.catalog.Employees[m.cursor[0]]
		err = m.ctrl.SelectEmployee(e.ID, e.Name)
	case booking.StepService:
		if len(m.catalog.Services) == 0 {
			return
		}
		s := m.catalog.Services[m.cursor[1]]
		err = m.ctrl.SelectService(s.ID, s.Name, s.Price)
	case booking.StepSummary:
		m.ctrl.Advance()
	case booking.StepCalendar:
		if m.manual {
			m.ctrl.ConfirmManually()
		}
	}
	if err != nil {
		log.Warn("selection refused: %v", err)
	}
}

// remember keeps the last chosen cards so the next session starts on them.
func (m *Model) remember(e booking.Event) {
	switch e.Type {
	case booking.EventEmployeeSelected:
		m.ui.RememberSelection(e.Selection.EmployeeID, "")
	case booking.EventServiceSelected:
		m.ui.RememberSelection("", e.Selection.ServiceID)
	}
}

func (m *Model) applyCompact() {
	switch {
	case m.ui.Compact != nil:
		m.compact = *m.ui.Compact
	default:
		m.compact = m.width > 0 && m.width <= compactWidth
	}
	if m.ctrl != nil {
		m.ctrl.SetCompact(m.compact)
	}
}

func (m *Model) queue(cmd tea.Cmd) {
	if cmd != nil {
		m.cmds = append(m.cmds, cmd)
	}
}

// flush hands queued timers, toasts and the spinner back to Bubbletea.
func (m *Model) flush() tea.Cmd {
	if m.step == booking.StepCalendar && !m.spinning {
		m.spinning = true
		m.queue(m.spinner.Tick)
	}
	m.queue(m.sched.Cmd())
	if len(m.cmds) == 0 {
		return nil
	}
	cmds := m.cmds
	m.cmds = nil
	return tea.Batch(cmds...)
}

func wrap(i, n int) int {
	if n == 0 {
		return 0
	}
	return ((i % n) + n) % n
}

func clamp(i, n int) int {
	if i >= n {
		return max(0, n-1)
	}
	return max(0, i)
}
