package hooks

import (
	"context"
	"strings"
	"sync"

	"github.com/mark3labs/barberia/internal/booking"
)

// Runner is a booking.Observer that runs the configured hooks when a booking
// is confirmed or the watcher gives up. Commands run on their own goroutine so
// the wizard thread never waits on them.
type Runner struct {
	ctx     context.Context
	cfg     *Config
	workDir string
	session string
	wg      sync.WaitGroup
}

// NewRunner creates a runner. Hooks keep running after ctx is cancelled so a
// shutdown can Wait for them; each is bounded by its own timeout.
func NewRunner(ctx context.Context, cfg *Config, workDir, session string) *Runner {
	return &Runner{ctx: context.WithoutCancel(ctx), cfg: cfg, workDir: workDir, session: session}
}

// Observe implements booking.Observer.
func (r *Runner) Observe(e booking.Event) {
	var list []*HookConfig
	switch e.Type {
	case booking.EventConfirmed:
		list = r.cfg.Hooks.OnConfirmed
	case booking.EventWatcherTimedOut:
		list = r.cfg.Hooks.OnTimedOut
	}
	if len(list) == 0 {
		return
	}

	vars := VariablesFor(r.session, e)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for _, h := range list {
			out, err := Execute(r.ctx, h, r.workDir, vars)
			if err != nil {
				return
			}
			if out = strings.TrimSpace(out); out != "" {
				log.Info("%s hook: %s", e.Type, out)
			}
		}
	}()
}

// Wait blocks until running hooks finish or ctx is done.
func (r *Runner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
