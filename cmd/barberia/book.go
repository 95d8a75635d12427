package main

import (
	"context"
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/mark3labs/barberia/internal/booking"
	"github.com/mark3labs/barberia/internal/calendar"
	"github.com/mark3labs/barberia/internal/config"
	"github.com/mark3labs/barberia/internal/logger"
	"github.com/mark3labs/barberia/internal/state"
	"github.com/mark3labs/barberia/internal/tui"
	"github.com/spf13/cobra"
)

var bookFlags struct {
	noJournal     bool
	simulateAfter time.Duration
	compact       bool
}

var bookCmd = &cobra.Command{
	Use:   "book",
	Short: "Open the booking wizard",
	Long: `Open the full-screen booking wizard.

Choose a barber and a service, review the summary and book a time in the
calendar. The calendar page configured as calendar_url is fetched in the
background and watched for a confirmation message. Bookings are recorded in the
journal under the data directory unless --no-journal is given.`,
	RunE: runBook,
}

func init() {
	bookCmd.Flags().BoolVar(&bookFlags.noJournal, "no-journal", false, "Do not record wizard events")
	bookCmd.Flags().DurationVar(&bookFlags.simulateAfter, "simulate-after", 0, "Ignore calendar_url and fake a confirmation this long after start")
	bookCmd.Flags().BoolVar(&bookFlags.compact, "compact", false, "Force the compact layout")
}

func runBook(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cat, err := cfg.Catalog()
	if err != nil {
		return err
	}

	var frame booking.FrameReader
	if bookFlags.simulateAfter > 0 {
		static := calendar.NewStaticFrame()
		time.AfterFunc(bookFlags.simulateAfter, func() { static.Set("Reserva confirmada") })
		frame = static
	} else {
		frame, err = frameFor(ctx, cfg.CalendarURL, cfg.PollInterval, nil)
		if err != nil {
			return err
		}
	}

	ui := state.Load(cfg.DataDir)
	if cmd.Flags().Changed("compact") {
		ui.Compact = &bookFlags.compact
	}

	var observers []booking.Observer
	var session string
	if !bookFlags.noJournal {
		rec, err := openRecorder(ctx, cfg.DataDir)
		if err != nil {
			return err
		}
		defer func() { _ = rec.Close() }()
		observers = append(observers, rec.journal)
		session = rec.journal.Session()
	}
	if r := hookRunner(ctx, session); r != nil {
		observers = append(observers, r)
		defer waitHooks(r)
	}

	model, err := tui.New(tui.Options{
		Catalog:   cat,
		Frame:     frame,
		Timing:    cfg.Timing(),
		Phrases:   cfg.Phrases,
		Observers: observers,
		UIState:   ui,
	})
	if err != nil {
		return fmt.Errorf("creating wizard: %w", err)
	}

	p := tea.NewProgram(model)

	path, err := config.Watch(func(reloaded *config.Config) {
		next, err := reloaded.Catalog()
		if err != nil {
			return
		}
		p.Send(tui.CatalogMsg{Catalog: next})
	})
	if err != nil {
		logger.Warn("config watch disabled: %v", err)
	} else if path != "" {
		logger.Debug("watching %s for catalog changes", path)
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running wizard: %w", err)
	}

	if err := state.Save(cfg.DataDir, model.UIState()); err != nil {
		logger.Warn("saving UI state: %v", err)
	}
	return nil
}
