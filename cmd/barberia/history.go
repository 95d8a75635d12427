package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/mark3labs/barberia/internal/catalog"
	"github.com/mark3labs/barberia/internal/journal"
	"github.com/mark3labs/barberia/internal/nats"
	"github.com/mark3labs/barberia/internal/tui/theme"
	"github.com/spf13/cobra"
)

var historyFlags struct {
	session string
	jsonOut bool
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List confirmed bookings from the journal",
	Long: `Replay the booking journal in the data directory and list every confirmed
booking along with session totals. Use --session to restrict the listing to a
single wizard session.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyFlags.session, "session", "", "Only show this session")
	historyCmd.Flags().BoolVar(&historyFlags.jsonOut, "json", false, "Print the history as JSON")
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	emb, err := nats.Open(ctx, filepath.Join(cfg.DataDir, "nats"))
	if err != nil {
		return fmt.Errorf("opening journal: %w", err)
	}
	defer func() { _ = emb.Close() }()

	h, err := journal.LoadHistory(ctx, emb.Stream, historyFlags.session)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if historyFlags.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(h)
	}
	printHistory(out, h)
	return nil
}

func printHistory(out io.Writer, h *journal.History) {
	s := theme.Current().S()
	if len(h.Bookings) == 0 {
		fmt.Fprintln(out, s.Muted.Render("No confirmed bookings yet."))
	} else {
		fmt.Fprintln(out, historyTable(h.Bookings))
	}
	fmt.Fprintln(out, s.Muted.Render(fmt.Sprintf(
		"%d sessions · %d events · %d timed out · %d resets",
		len(h.Sessions), h.Events, h.TimedOut, h.Resets)))
	if h.Malformed > 0 {
		fmt.Fprintln(out, s.Muted.Render(fmt.Sprintf("%d unreadable records skipped", h.Malformed)))
	}
}

func historyTable(bookings []journal.Booking) string {
	t := theme.Current()
	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(t.Primary)).Padding(0, 1)
	cell := lipgloss.NewStyle().Foreground(lipgloss.Color(t.FgBase)).Padding(0, 1)

	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color(t.BgSurface1))).
		Headers("CONFIRMED", "BARBER", "SERVICE", "PRICE", "SOURCE", "SESSION").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
	for _, b := range bookings {
		tbl.Row(
			b.ConfirmedAt.Local().Format("2006-01-02 15:04"),
			b.EmployeeName,
			b.ServiceName,
			catalog.FormatPrice(b.Price),
			string(b.Source),
			b.Session,
		)
	}
	return tbl.String()
}
