package tui

import (
	"fmt"
	"strings"

	"charm.land/glamour/v2"
	"github.com/mark3labs/barberia/internal/booking"
	"github.com/mark3labs/barberia/internal/catalog"
)

// contactMarkdown is the closing card shown on the contact step.
func contactMarkdown(sel booking.Selection) string {
	var b strings.Builder
	b.WriteString("## See you soon!\n\n")
	if sel.HasEmployee() {
		fmt.Fprintf(&b, "- **Barber:** %s\n", sel.EmployeeName)
	}
	if sel.HasService() {
		fmt.Fprintf(&b, "- **Service:** %s\n", sel.ServiceName)
		if sel.ServicePrice > 0 {
			fmt.Fprintf(&b, "- **Price:** %s\n", catalog.FormatPrice(sel.ServicePrice))
		}
	}
	b.WriteString("\nNeed to change something? Reply to the confirmation email or call the shop ")
	b.WriteString("and mention your barber's name.\n")
	return b.String()
}

// renderMarkdown renders markdown with glamour, falling back to the raw text.
func renderMarkdown(content string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}
	rendered, err := r.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(rendered, "\n")
}
