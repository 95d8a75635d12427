package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/barberia/internal/booking"
	"github.com/mark3labs/barberia/internal/calendar"
	"github.com/mark3labs/barberia/internal/hooks"
	"github.com/mark3labs/barberia/internal/journal"
	"github.com/mark3labs/barberia/internal/logger"
	"github.com/mark3labs/barberia/internal/nats"
)

// recorder is an open booking journal backed by the embedded NATS server.
type recorder struct {
	nats    *nats.Embedded
	journal *journal.Journal
}

// openRecorder starts the embedded server under <data-dir>/nats and a journal
// for a fresh session.
func openRecorder(ctx context.Context, dataDir string) (*recorder, error) {
	emb, err := nats.Open(ctx, filepath.Join(dataDir, "nats"))
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	j := journal.New(emb.JS, journal.NewSessionID())
	j.Start(ctx)
	logger.Info("journal session %s", j.Session())
	return &recorder{nats: emb, journal: j}, nil
}

// Close flushes pending events and stops the server.
func (r *recorder) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.journal.Close(ctx); err != nil {
		logger.Warn("journal flush: %v", err)
	}
	return r.nats.Close()
}

// frameFor returns the calendar reader for url, fetching in the background
// until ctx is done. Without a url the frame stays unreadable and only the
// manual confirmation can complete a booking.
func frameFor(ctx context.Context, url string, interval time.Duration, onBreaker func(from, to string)) (booking.FrameReader, error) {
	if url == "" {
		logger.Warn("no calendar_url configured, automatic confirmation disabled")
		return calendar.NewStaticFrame(), nil
	}
	frame, err := calendar.NewHTTPFrame(url, calendar.HTTPOptions{
		Interval:        interval,
		OnBreakerChange: onBreaker,
	})
	if err != nil {
		return nil, err
	}
	go frame.Run(ctx)
	return frame, nil
}

// hookRunner loads hooks from the working directory. It returns nil when none
// are configured.
func hookRunner(ctx context.Context, session string) *hooks.Runner {
	wd, err := os.Getwd()
	if err != nil {
		return nil
	}
	hc, err := hooks.LoadConfig(wd)
	if err != nil {
		logger.Warn("hooks disabled: %v", err)
		return nil
	}
	if hc.Empty() {
		return nil
	}
	return hooks.NewRunner(ctx, hc, wd, session)
}

// waitHooks gives running hooks a chance to finish before exit.
func waitHooks(r *hooks.Runner) {
	ctx, cancel := context.WithTimeout(context.Background(), hooks.DefaultTimeout*time.Second)
	defer cancel()
	if err := r.Wait(ctx); err != nil {
		logger.Warn("hooks still running at exit: %v", err)
	}
}
