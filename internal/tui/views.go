package tui

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/mark3labs/barberia/internal/booking"
	"github.com/mark3labs/barberia/internal/catalog"
	"github.com/mark3labs/barberia/internal/tui/theme"
)

const (
	defaultWidth  = 100
	defaultHeight = 30
	modalWidth    = 72
)

var stepLabels = [booking.TotalSteps]string{"Barber", "Service", "Summary", "Calendar", "Contact"}

// View implements tea.Model.
func (m *Model) View() tea.View {
	var view tea.View
	view.AltScreen = true

	if m.quitting {
		view.AltScreen = false
		view.Content = lipgloss.NewLayer("")
		return view
	}

	w, h := m.width, m.height
	if w <= 0 {
		w = defaultWidth
	}
	if h <= 0 {
		h = defaultHeight
	}

	canvas := uv.NewScreenBuffer(w, h)
	m.Draw(canvas, canvas.Bounds())
	view.Content = lipgloss.NewLayer(canvas.Render())
	return view
}

// Draw renders the wizard modal centered in area with the toast on top.
func (m *Model) Draw(scr uv.Screen, area uv.Rectangle) {
	modal := lipgloss.Place(area.Dx(), area.Dy(), lipgloss.Center, lipgloss.Center, m.renderModal())
	uv.NewStyledString(modal).Draw(scr, area)

	toast := m.toast.View(area.Dx())
	if toast == "" {
		return
	}
	tw, th := lipgloss.Width(toast), lipgloss.Height(toast)
	x := max(area.Min.X, area.Max.X-tw-1)
	y := max(area.Min.Y, area.Max.Y-th-1)
	uv.NewStyledString(toast).Draw(scr, uv.Rectangle{
		Min: uv.Position{X: x, Y: y},
		Max: uv.Position{X: x + tw, Y: y + th},
	})
}

// contentWidth is the usable width inside the modal.
func (m *Model) contentWidth() int {
	w := modalWidth
	if m.width > 0 && m.width-8 < w {
		w = m.width - 8
	}
	return max(w, 20)
}

func (m *Model) renderModal() string {
	s := theme.Current().S()
	width := m.contentWidth()

	sections := []string{
		s.Title.Render("Barbería · Book your visit"),
		m.renderStepBar(),
		"",
		m.renderBody(width),
		"",
		m.renderButtons(width),
		m.renderHints(),
	}
	return s.Modal.Width(width + 6).Render(strings.Join(sections, "\n"))
}

// renderStepBar shows where the visitor is. Steps that cannot be reached yet
// are dimmed; compact layouts only name the current step.
func (m *Model) renderStepBar() string {
	s := theme.Current().S()
	if m.compact {
		return s.Subtitle.Render(fmt.Sprintf("Step %d of %d: %s", m.step+1, booking.TotalSteps, m.step))
	}

	th := theme.Current()
	parts := make([]string, 0, booking.TotalSteps)
	for i, label := range stepLabels {
		step := booking.Step(i)
		text := fmt.Sprintf("%d %s", i+1, label)
		switch {
		case step == m.step:
			parts = append(parts, s.StepActive.Render(text))
		case step < m.step:
			parts = append(parts, s.StepDone.Render("✓ "+label))
		case m.ctrl.CanReach(step):
			parts = append(parts, s.Subtitle.Render(text))
		default:
			parts = append(parts, s.StepLocked.Render(text))
		}
	}
	progress := float64(m.step) / float64(booking.TotalSteps-1)
	sep := lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Blend(th.BgSurface1, th.Primary, progress))).
		Render(" ─ ")
	return strings.Join(parts, sep)
}

func (m *Model) renderBody(width int) string {
	switch m.step {
	case booking.StepBarber:
		return m.renderBarbers()
	case booking.StepService:
		return m.renderServices()
	case booking.StepSummary:
		return m.renderSummary()
	case booking.StepCalendar:
		return m.renderCalendar()
	default:
		return renderMarkdown(contactMarkdown(m.sel), width)
	}
}

func (m *Model) renderBarbers() string {
	s := theme.Current().S()
	cards := make([]string, 0, len(m.catalog.Employees))
	for i, e := range m.catalog.Employees {
		text := e.Name
		if e.Specialty != "" && !m.compact {
			text += "\n" + s.Muted.Render(e.Specialty)
		}
		cards = append(cards, m.card(text, i == m.cursor[0], e.ID == m.sel.EmployeeID))
	}
	return s.Subtitle.Render(booking.StepBarber.String()) + "\n" + m.layoutCards(cards)
}

func (m *Model) renderServices() string {
	s := theme.Current().S()
	cards := make([]string, 0, len(m.catalog.Services))
	for i, svc := range m.catalog.Services {
		text := svc.Name + "  " + s.Price.Render(catalog.FormatPrice(svc.Price))
		if svc.Minutes > 0 && !m.compact {
			text += "\n" + s.Muted.Render(fmt.Sprintf("%d min", svc.Minutes))
		}
		cards = append(cards, m.card(text, i == m.cursor[1], svc.ID == m.sel.ServiceID))
	}
	return s.Subtitle.Render(booking.StepService.String()) + "\n" + m.layoutCards(cards)
}

func (m *Model) card(text string, cursor, chosen bool) string {
	s := theme.Current().S()
	switch {
	case chosen:
		return s.CardChosen.Render("✓ " + text)
	case cursor:
		return s.CardCursor.Render("› " + text)
	default:
		return s.Card.Render("  " + text)
	}
}

// layoutCards stacks cards vertically on compact displays and in rows of two
// otherwise.
func (m *Model) layoutCards(cards []string) string {
	if len(cards) == 0 {
		return theme.Current().S().Muted.Render("Nothing to choose from yet.")
	}
	if m.compact {
		return lipgloss.JoinVertical(lipgloss.Left, cards...)
	}
	var rows []string
	for i := 0; i < len(cards); i += 2 {
		row := cards[i:min(i+2, len(cards))]
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m *Model) renderSummary() string {
	s := theme.Current().S()
	orDash := func(v string) string {
		if v == "" {
			return s.Muted.Render("not selected")
		}
		return v
	}
	price := s.Muted.Render("-")
	if m.sel.HasService() {
		price = s.Price.Render(catalog.FormatPrice(m.sel.ServicePrice))
	}
	lines := []string{
		s.Subtitle.Render(booking.StepSummary.String()),
		"",
		"Barber:  " + orDash(m.sel.EmployeeName),
		"Service: " + orDash(m.sel.ServiceName),
		"Price:   " + price,
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderCalendar() string {
	s := theme.Current().S()
	lines := []string{s.Subtitle.Render(booking.StepCalendar.String()), ""}

	snap := m.ctrl.Snapshot()
	switch {
	case m.confirmed:
		lines = append(lines, s.Confirmed.Render("✓ Booking confirmed! We look forward to seeing you."))
	case snap.Watcher.State == booking.WatcherPolling:
		lines = append(lines, fmt.Sprintf("%s Waiting for your booking in the calendar (%d/%d)",
			m.spinner.View(), snap.Watcher.Attempts, snap.Watcher.MaxAttempts))
	default:
		lines = append(lines, "Pick a time in the calendar to finish your booking.")
	}

	if m.manual {
		lines = append(lines, "", renderButtonBar([]button{{Label: "I already booked", State: buttonFocused}}, m.contentWidth()))
	}
	return strings.Join(lines, "\n")
}

// renderButtons shows the back and next buttons for the current step.
func (m *Model) renderButtons(width int) string {
	back := buttonNormal
	if m.step == booking.StepBarber {
		back = buttonDisabled
	}
	next := buttonNormal
	if m.step == booking.LastStep {
		next = buttonDisabled
	}
	return renderButtonBar([]button{
		{Label: "← Back", State: back},
		{Label: "Next →", State: next},
	}, width)
}

func (m *Model) renderHints() string {
	pairs := []string{"←/→", "step", "1-5", "jump"}
	switch m.step {
	case booking.StepBarber, booking.StepService:
		pairs = append(pairs, "↑/↓", "move", "enter", "select")
	case booking.StepSummary:
		pairs = append(pairs, "enter", "continue")
	case booking.StepCalendar:
		if m.manual {
			pairs = append(pairs, "enter", "I already booked")
		}
	}
	esc := "back"
	switch m.step {
	case booking.StepBarber:
		esc = "quit"
	case booking.LastStep:
		esc = "start over"
	}
	pairs = append(pairs, "r", "reset", "esc", esc)
	return renderHintBar(pairs...)
}

// renderHintBar renders key/description pairs: "↑/↓ move • enter select".
func renderHintBar(pairs ...string) string {
	if len(pairs) == 0 || len(pairs)%2 != 0 {
		return ""
	}
	s := theme.Current().S()
	var b strings.Builder
	for i := 0; i < len(pairs); i += 2 {
		if i > 0 {
			b.WriteString(" " + s.HintSep.Render("•") + " ")
		}
		b.WriteString(s.HintKey.Render(pairs[i]) + " " + s.HintDesc.Render(pairs[i+1]))
	}
	return b.String()
}
