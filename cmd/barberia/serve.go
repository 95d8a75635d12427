package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/barberia/internal/booking"
	"github.com/mark3labs/barberia/internal/config"
	"github.com/mark3labs/barberia/internal/logger"
	"github.com/mark3labs/barberia/internal/mcpserver"
	"github.com/mark3labs/barberia/internal/metrics"
	"github.com/mark3labs/barberia/internal/scheduler"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var serveFlags struct {
	listen    string
	noJournal bool
	noMetrics bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Drive the booking wizard over MCP",
	Long: `Run the booking wizard headless and expose it as MCP tools over streamable
HTTP at /mcp. Agents can list barbers and services, select them, navigate the
steps and confirm manually while the calendar watcher runs in the background.

Prometheus metrics for the wizard are served at /metrics.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.listen, "listen", "", "Address to listen on (default: listen from config)")
	serveCmd.Flags().BoolVar(&serveFlags.noJournal, "no-journal", false, "Do not record wizard events")
	serveCmd.Flags().BoolVar(&serveFlags.noMetrics, "no-metrics", false, "Do not serve /metrics")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat, err := cfg.Catalog()
	if err != nil {
		return err
	}

	loop := scheduler.NewLoop()
	go loop.Run(ctx)
	<-loop.Started()

	var opts []mcpserver.Option
	var observers []booking.Observer
	var onBreaker func(from, to string)
	var session string
	if !serveFlags.noMetrics {
		reg := prometheus.NewRegistry()
		m := metrics.NewBookingMetrics(reg)
		observers = append(observers, m)
		onBreaker = m.ObserveBreaker
		opts = append(opts, mcpserver.WithHandler("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}
	if !serveFlags.noJournal {
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

	frame, err := frameFor(ctx, cfg.CalendarURL, cfg.PollInterval, onBreaker)
	if err != nil {
		return err
	}

	ctrl, err := booking.New(booking.Config{
		Scheduler: loop,
		Frame:     frame,
		Observers: observers,
		Phrases:   cfg.Phrases,
		Timing:    cfg.Timing(),
	})
	if err != nil {
		return fmt.Errorf("creating wizard: %w", err)
	}

	srv := mcpserver.New(loop, ctrl, cat, opts...)

	listen := cfg.Listen
	if serveFlags.listen != "" {
		listen = serveFlags.listen
	}
	addr, err := srv.Start(ctx, listen)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "MCP endpoint: %s\n", srv.URL())
	if !serveFlags.noMetrics {
		fmt.Fprintf(cmd.OutOrStdout(), "Metrics:      http://%s/metrics\n", addr)
	}

	if path, err := config.Watch(func(reloaded *config.Config) {
		next, err := reloaded.Catalog()
		if err != nil {
			logger.Warn("reloaded catalog rejected: %v", err)
			return
		}
		srv.SetCatalog(next)
	}); err != nil {
		logger.Warn("config watch disabled: %v", err)
	} else if path != "" {
		logger.Debug("watching %s for catalog changes", path)
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Warn("%v", err)
	}
	// The loop exits with ctx, which cancels the wizard's timers with it.
	return nil
}
