// Package calendar reads the embedded scheduling widget so the booking watcher
// can look for confirmation text.
package calendar

import (
	"sync"
)

// StaticFrame is a frame whose content is set by hand. It backs the simulate
// mode and tests.
type StaticFrame struct {
	mu       sync.Mutex
	text     string
	readable bool
	reads    int
}

// NewStaticFrame returns an unreadable frame.
func NewStaticFrame() *StaticFrame {
	return &StaticFrame{}
}

// Set makes the frame readable with the given text.
func (f *StaticFrame) Set(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text, f.readable = text, true
}

// SetUnreadable simulates a cross-origin frame.
func (f *StaticFrame) SetUnreadable() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text, f.readable = "", false
}

// Reads returns how many times the frame has been inspected.
func (f *StaticFrame) Reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

// TryReadConfirmationText implements booking.FrameReader.
func (f *StaticFrame) TryReadConfirmationText() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	return f.text, f.readable
}
