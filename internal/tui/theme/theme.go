// Package theme holds the palette and pre-built styles of the booking TUI.
package theme

import (
	"fmt"
	"sync"

	"charm.land/lipgloss/v2"
)

// Theme defines the color palette for the TUI.
type Theme struct {
	Name   string
	IsDark bool

	// Semantic colors
	Primary   string
	Secondary string
	Accent    string

	// Background hierarchy (dark→light)
	BgBase     string
	BgMantle   string
	BgSurface0 string
	BgSurface1 string

	// Foreground hierarchy (dim→bright)
	FgMuted  string
	FgSubtle string
	FgBase   string

	// Status colors
	Success string
	Warning string
	Info    string

	styles     *Styles
	stylesOnce sync.Once
}

// Styles contains the pre-built lipgloss styles for the TUI.
type Styles struct {
	Title      lipgloss.Style
	Subtitle   lipgloss.Style
	Muted      lipgloss.Style
	Modal      lipgloss.Style
	Card       lipgloss.Style
	CardCursor lipgloss.Style
	CardChosen lipgloss.Style
	Price      lipgloss.Style
	StepDone   lipgloss.Style
	StepActive lipgloss.Style
	StepLocked lipgloss.Style
	HintKey    lipgloss.Style
	HintDesc   lipgloss.Style
	HintSep    lipgloss.Style
	Confirmed  lipgloss.Style
}

var (
	current     *Theme
	currentOnce sync.Once
)

// Current returns the active theme.
func Current() *Theme {
	currentOnce.Do(func() {
		current = NewCatppuccinMocha()
	})
	return current
}

// S returns the pre-built styles for this theme.
// Styles are lazily initialized on first call.
func (t *Theme) S() *Styles {
	t.stylesOnce.Do(func() {
		t.styles = t.buildStyles()
	})
	return t.styles
}

func (t *Theme) buildStyles() *Styles {
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(t.BgSurface1)).
		Foreground(lipgloss.Color(t.FgBase)).
		Padding(0, 1)

	return &Styles{
		Title: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Primary)).
			Bold(true),
		Subtitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Secondary)),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.FgMuted)),
		Modal: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t.Secondary)).
			Padding(1, 2),
		Card: card,
		CardCursor: card.
			BorderForeground(lipgloss.Color(t.Secondary)).
			Bold(true),
		CardChosen: card.
			BorderForeground(lipgloss.Color(t.Success)).
			Foreground(lipgloss.Color(t.Success)),
		Price: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Accent)).
			Bold(true),
		StepDone: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Success)),
		StepActive: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.BgBase)).
			Background(lipgloss.Color(t.Primary)).
			Bold(true).
			Padding(0, 1),
		StepLocked: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.FgMuted)),
		HintKey: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.FgSubtle)).
			Bold(true),
		HintDesc: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.FgMuted)),
		HintSep: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.BgSurface1)),
		Confirmed: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Success)).
			Bold(true),
	}
}

// Blend mixes two #RRGGBB colors; pos 0 returns a, pos 1 returns b.
func Blend(a, b string, pos float64) string {
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	r1, g1, b1 := parseHex(a)
	r2, g2, b2 := parseHex(b)
	mix := func(x, y uint8) uint8 {
		return uint8(float64(x)*(1-pos) + float64(y)*pos)
	}
	return fmt.Sprintf("#%02x%02x%02x", mix(r1, r2), mix(g1, g2), mix(b1, b2))
}

func parseHex(hex string) (r, g, b uint8) {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	if len(hex) == 6 {
		_, _ = fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b)
	}
	return r, g, b
}
