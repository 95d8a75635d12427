package tui

import (
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/mark3labs/barberia/internal/tui/theme"
)

type buttonState int

const (
	buttonNormal buttonState = iota
	buttonDisabled
	buttonFocused
)

type button struct {
	Label string
	State buttonState
}

// renderButtonBar renders buttons side by side, centered in width.
func renderButtonBar(buttons []button, width int) string {
	if len(buttons) == 0 {
		return ""
	}

	th := theme.Current()
	base := lipgloss.NewStyle().Padding(0, 2).MarginLeft(1).MarginRight(1)
	normal := base.
		Foreground(lipgloss.Color(th.FgBase)).
		Background(lipgloss.Color(th.BgSurface0))
	disabled := base.
		Foreground(lipgloss.Color(th.FgMuted)).
		Background(lipgloss.Color(th.BgMantle))
	focused := base.
		Foreground(lipgloss.Color(th.BgBase)).
		Background(lipgloss.Color(th.Secondary)).
		Bold(true)

	rendered := make([]string, 0, len(buttons))
	for _, btn := range buttons {
		switch btn.State {
		case buttonDisabled:
			rendered = append(rendered, disabled.Render(btn.Label))
		case buttonFocused:
			rendered = append(rendered, focused.Render(btn.Label))
		default:
			rendered = append(rendered, normal.Render(btn.Label))
		}
	}
	return lipgloss.Place(width, 1, lipgloss.Center, lipgloss.Center, strings.Join(rendered, ""))
}
