package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/mark3labs/barberia/internal/booking"
	"github.com/mark3labs/barberia/internal/calendar"
	"github.com/mark3labs/barberia/internal/catalog"
	"github.com/mark3labs/barberia/internal/logger"
	"github.com/mark3labs/barberia/internal/scheduler"
	"github.com/mark3labs/barberia/internal/tui/theme"
	"github.com/spf13/cobra"
)

var watchFlags struct {
	barber        string
	service       string
	simulate      bool
	simulateAfter int
	jsonOut       bool
	verbose       bool
	noJournal     bool
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the calendar for a confirmation without the UI",
	Long: `Select a barber and a service, open the calendar step and watch the
calendar page for a confirmation message, printing every wizard event.

The command ends once the confirmation cooldown has elapsed or the watcher gives
up. With --simulate no network is used: a virtual clock drives the watcher and
the calendar reports a confirmation after --simulate-after polls.`,
	RunE: runWatch,
}

func init() {
	f := watchCmd.Flags()
	f.StringVar(&watchFlags.barber, "barber", "", "Barber id (default: first barber)")
	f.StringVar(&watchFlags.service, "service", "", "Service id (default: first service)")
	f.BoolVar(&watchFlags.simulate, "simulate", false, "Run against a simulated calendar on a virtual clock")
	f.IntVar(&watchFlags.simulateAfter, "simulate-after", 5, "Polls before the simulated calendar confirms, 0 never confirms")
	f.BoolVar(&watchFlags.jsonOut, "json", false, "Print events as JSON lines")
	f.BoolVarP(&watchFlags.verbose, "verbose", "v", false, "Also print logs to stderr")
	f.BoolVar(&watchFlags.noJournal, "no-journal", false, "Do not record wizard events")
}

// watchResult summarizes a finished watch session.
type watchResult struct {
	Confirmed bool
	Source    booking.ConfirmSource
	Attempts  int
	Step      booking.Step
}

// eventPrinter writes one line per wizard event.
type eventPrinter struct {
	out     io.Writer
	jsonOut bool
}

func (p eventPrinter) Observe(e booking.Event) {
	if p.jsonOut {
		data, err := json.Marshal(e)
		if err != nil {
			return
		}
		fmt.Fprintln(p.out, string(data))
		return
	}

	th := theme.Current()
	s := th.S()
	line := fmt.Sprintf("%s  %-18s step=%d", e.At.Format("15:04:05"), e.Type, e.Step)
	switch e.Type {
	case booking.EventConfirmed:
		line = s.Confirmed.Render(line + " source=" + string(e.Source))
	case booking.EventWatcherTimedOut, booking.EventValidationFailed:
		line = lipgloss.NewStyle().Foreground(lipgloss.Color(th.Warning)).Render(fmt.Sprintf("%s attempts=%d %s", line, e.Attempts, e.Message))
	case booking.EventWatcherStopped, booking.EventManualOffered:
		line = fmt.Sprintf("%s attempts=%d", line, e.Attempts)
	}
	fmt.Fprintln(p.out, line)
}

// resultTracker records the outcome and reports when the session is over.
type resultTracker struct {
	result watchResult
	done   bool
}

func (t *resultTracker) Observe(e booking.Event) {
	switch e.Type {
	case booking.EventConfirmed:
		t.result.Confirmed = true
		t.result.Source = e.Source
	case booking.EventWatcherStopped, booking.EventWatcherTimedOut:
		t.result.Attempts = e.Attempts
	}
	t.result.Step = e.Step
	if e.Type == booking.EventCooldownElapsed || (e.Type == booking.EventWatcherTimedOut && !t.result.Confirmed) {
		t.done = true
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchFlags.verbose {
		logger.Default.SetOutput(os.Stderr)
	}

	cat, err := cfg.Catalog()
	if err != nil {
		return err
	}
	barber, service, err := pickCards(cat, watchFlags.barber, watchFlags.service)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	observers := []booking.Observer{eventPrinter{out: cmd.OutOrStdout(), jsonOut: watchFlags.jsonOut}}
	var session string
	if !watchFlags.noJournal {
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

	var result watchResult
	if watchFlags.simulate {
		result, err = simulateWatch(barber, service, cfg.Timing(), cfg.Phrases, watchFlags.simulateAfter, observers...)
	} else {
		result, err = liveWatch(ctx, barber, service, observers...)
	}
	if err != nil {
		return err
	}

	if result.Confirmed {
		fmt.Fprintf(cmd.OutOrStdout(), "\nBooked %s with %s (%s)\n", service.Name, barber.Name, result.Source)
		return nil
	}
	return fmt.Errorf("no confirmation after %d attempts", result.Attempts)
}

func pickCards(cat *catalog.Catalog, barberID, serviceID string) (catalog.Employee, catalog.Service, error) {
	if len(cat.Employees) == 0 || len(cat.Services) == 0 {
		return catalog.Employee{}, catalog.Service{}, fmt.Errorf("catalog needs at least one barber and one service")
	}
	barber, service := cat.Employees[0], cat.Services[0]
	if barberID != "" {
		var ok bool
		if barber, ok = cat.Employee(barberID); !ok {
			return barber, service, fmt.Errorf("unknown barber %q", barberID)
		}
	}
	if serviceID != "" {
		var ok bool
		if service, ok = cat.Service(serviceID); !ok {
			return barber, service, fmt.Errorf("unknown service %q", serviceID)
		}
	}
	return barber, service, nil
}

// openCalendar records the selection and jumps straight to the calendar step.
func openCalendar(ctrl *booking.Controller, barber catalog.Employee, service catalog.Service) error {
	if err := ctrl.SelectEmployee(barber.ID, barber.Name); err != nil {
		return err
	}
	if err := ctrl.SelectService(service.ID, service.Name, service.Price); err != nil {
		return err
	}
	return ctrl.JumpTo(booking.StepCalendar)
}

// simulateWatch runs a whole session on a virtual clock against a calendar
// that confirms after confirmAfter polls.
func simulateWatch(barber catalog.Employee, service catalog.Service, timing booking.Timing, phrases []string, confirmAfter int, observers ...booking.Observer) (watchResult, error) {
	sched := scheduler.NewManual(time.Now())
	frame := calendar.NewStaticFrame()
	tracker := &resultTracker{}

	timing.TransitionLock = -1
	ctrl, err := booking.New(booking.Config{
		Scheduler: sched,
		Frame: booking.FrameReaderFunc(func() (string, bool) {
			if confirmAfter > 0 && frame.Reads() >= confirmAfter-1 {
				frame.Set("Reserva confirmada")
			}
			return frame.TryReadConfirmationText()
		}),
		Observers: append([]booking.Observer{tracker}, observers...),
		Phrases:   phrases,
		Timing:    timing,
		Clock:     sched.Now,
	})
	if err != nil {
		return watchResult{}, err
	}
	defer ctrl.Close()

	if err := openCalendar(ctrl, barber, service); err != nil {
		return watchResult{}, err
	}

	for !tracker.done && sched.Step() {
	}
	return tracker.result, nil
}

// liveWatch runs a session in real time on a scheduler loop.
func liveWatch(ctx context.Context, barber catalog.Employee, service catalog.Service, observers ...booking.Observer) (watchResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loop := scheduler.NewLoop()
	go loop.Run(ctx)
	<-loop.Started()

	frame, err := frameFor(ctx, cfg.CalendarURL, cfg.PollInterval, nil)
	if err != nil {
		return watchResult{}, err
	}

	tracker := &resultTracker{}
	finished := make(chan struct{})
	var closeOnce bool
	ctrl, err := booking.New(booking.Config{
		Scheduler: loop,
		Frame:     frame,
		Observers: append([]booking.Observer{tracker, booking.ObserverFunc(func(booking.Event) {
			if tracker.done && !closeOnce {
				closeOnce = true
				close(finished)
			}
		})}, observers...),
		Phrases: cfg.Phrases,
		Timing:  cfg.Timing(),
	})
	if err != nil {
		return watchResult{}, err
	}

	var openErr error
	if err := loop.Do(ctx, func() { openErr = openCalendar(ctrl, barber, service) }); err != nil {
		return watchResult{}, err
	}
	if openErr != nil {
		return watchResult{}, openErr
	}

	select {
	case <-finished:
	case <-ctx.Done():
	}

	var result watchResult
	if err := loop.Do(context.Background(), func() {
		result = tracker.result
		ctrl.Close()
	}); err != nil {
		// Interrupted: the loop has already exited.
		result = tracker.result
	}
	return result, nil
}
