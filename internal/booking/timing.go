package booking

import "time"

// Timing groups every delay the wizard uses.
type Timing struct {
	PollInterval        time.Duration // between calendar inspections
	MaxAttempts         int           // polls before the watcher quietly gives up
	GracePeriod         time.Duration // before the manual confirm control appears
	Cooldown            time.Duration // confirmation message shown before moving on
	TransitionLock      time.Duration // navigation ignored while a transition settles
	AdvanceDelay        time.Duration // selection feedback before auto-advance
	CompactAdvanceDelay time.Duration // same, on compact displays
}

// DefaultTiming returns the production delays.
func DefaultTiming() Timing {
	return Timing{
		PollInterval:        time.Second,
		MaxAttempts:         180,
		GracePeriod:         10 * time.Second,
		Cooldown:            180 * time.Second,
		TransitionLock:      500 * time.Millisecond,
		AdvanceDelay:        800 * time.Millisecond,
		CompactAdvanceDelay: 1000 * time.Millisecond,
	}
}

// withDefaults fills zero fields from DefaultTiming. TransitionLock is kept as
// given when negative so callers can disable it.
func (t Timing) withDefaults() Timing {
	d := DefaultTiming()
	if t.PollInterval <= 0 {
		t.PollInterval = d.PollInterval
	}
	if t.MaxAttempts <= 0 {
		t.MaxAttempts = d.MaxAttempts
	}
	if t.GracePeriod <= 0 {
		t.GracePeriod = d.GracePeriod
	}
	if t.Cooldown <= 0 {
		t.Cooldown = d.Cooldown
	}
	if t.TransitionLock == 0 {
		t.TransitionLock = d.TransitionLock
	}
	if t.AdvanceDelay <= 0 {
		t.AdvanceDelay = d.AdvanceDelay
	}
	if t.CompactAdvanceDelay <= 0 {
		t.CompactAdvanceDelay = d.CompactAdvanceDelay
	}
	return t
}
