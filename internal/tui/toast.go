package tui

import (
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/mark3labs/barberia/internal/booking"
	"github.com/mark3labs/barberia/internal/tui/theme"
)

// ToastDismissMsg is sent when a toast should be dismissed. Seq identifies the
// toast it was scheduled for so a stale dismissal does not hide a newer one.
type ToastDismissMsg struct {
	Seq int
}

const toastDuration = 3 * time.Second

// Toast is a minimal notification shown in the bottom-right corner. Success,
// warning and info messages auto-dismiss; the confirmation message stays
// until it is replaced or cleared.
type Toast struct {
	message string
	kind    booking.FeedbackKind
	visible bool
	seq     int
}

// NewToast creates a new Toast component.
func NewToast() *Toast {
	return &Toast{}
}

// Show displays msg and returns the dismissal command, if any.
func (t *Toast) Show(kind booking.FeedbackKind, msg string) tea.Cmd {
	t.seq++
	t.message = msg
	t.kind = kind
	t.visible = true
	if kind == booking.FeedbackConfirmed {
		return nil
	}
	seq := t.seq
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return ToastDismissMsg{Seq: seq}
	})
}

// Clear hides the toast immediately.
func (t *Toast) Clear() {
	t.visible = false
	t.message = ""
}

// Update handles messages for the toast component.
func (t *Toast) Update(msg tea.Msg) {
	if m, ok := msg.(ToastDismissMsg); ok && m.Seq == t.seq {
		t.Clear()
	}
}

// View renders the toast, or "" when hidden. The toast never exceeds width.
func (t *Toast) View(width int) string {
	if !t.visible || t.message == "" {
		return ""
	}

	th := theme.Current()
	bg := th.Info
	switch t.kind {
	case booking.FeedbackSuccess, booking.FeedbackConfirmed:
		bg = th.Success
	case booking.FeedbackWarning:
		bg = th.Warning
	}
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(th.BgBase)).
		Background(lipgloss.Color(bg)).
		Padding(0, 1).
		Bold(true)

	content := style.Render(t.message)
	if width > 2 && lipgloss.Width(content) > width-2 {
		content = style.Width(width - 2).Render(t.message)
	}
	return content
}

// IsVisible returns whether the toast is currently visible.
func (t *Toast) IsVisible() bool {
	return t.visible
}

// Message returns the current message, or "" when hidden.
func (t *Toast) Message() string {
	if !t.visible {
		return ""
	}
	return t.message
}

// Kind returns the feedback kind of the current message.
func (t *Toast) Kind() booking.FeedbackKind {
	return t.kind
}
