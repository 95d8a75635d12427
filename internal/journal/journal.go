// Package journal records booking wizard events in JetStream and rebuilds the
// booking history from them.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/mark3labs/barberia/internal/booking"
	"github.com/mark3labs/barberia/internal/logger"
	"github.com/mark3labs/barberia/internal/nats"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/xid"
)

// Record is one journaled controller event.
type Record struct {
	ID        string                `json:"id"`
	Session   string                `json:"session"`
	Type      booking.EventType     `json:"type"`
	Timestamp time.Time             `json:"timestamp"`
	From      booking.Step          `json:"from"`
	Step      booking.Step          `json:"step"`
	Selection booking.Selection     `json:"selection"`
	Source    booking.ConfirmSource `json:"source,omitempty"`
	Attempts  int                   `json:"attempts,omitempty"`
	Phrase    string                `json:"phrase,omitempty"`
	Message   string                `json:"message,omitempty"`
}

// FromEvent converts a controller event into a record for session.
func FromEvent(session string, e booking.Event) Record {
	return Record{
		ID:        xid.New().String(),
		Session:   session,
		Type:      e.Type,
		Timestamp: e.At,
		From:      e.From,
		Step:      e.Step,
		Selection: e.Selection,
		Source:    e.Source,
		Attempts:  e.Attempts,
		Phrase:    e.Phrase,
		Message:   e.Message,
	}
}

// NewSessionID returns a fresh, sortable session identifier.
func NewSessionID() string {
	return xid.New().String()
}

// Journal is a booking.Observer that publishes events asynchronously so the
// controller thread never waits on JetStream.
type Journal struct {
	js      jetstream.JetStream
	session string
	log     *logger.Logger

	mu      sync.Mutex
	closed  bool
	queue   chan Record
	done    chan struct{}
	dropped int
}

// New creates a journal for session. Start must be called before events are
// published.
func New(js jetstream.JetStream, session string) *Journal {
	return &Journal{
		js:      js,
		session: session,
		log:     logger.Named("journal"),
		queue:   make(chan Record, 256),
		done:    make(chan struct{}),
	}
}

// Session returns the session the journal writes to.
func (j *Journal) Session() string { return j.session }

// Start launches the publishing goroutine. It stops once Close has drained
// the queue; cancelling ctx does not abort pending publishes, Close bounds
// the flush instead.
func (j *Journal) Start(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		defer close(j.done)
		for rec := range j.queue {
			if err := j.Publish(ctx, rec); err != nil {
				j.log.Warn("dropping %s event: %v", rec.Type, err)
			}
		}
	}()
}

// Observe implements booking.Observer. It never blocks; events are dropped
// when the queue is full or the journal is closed.
func (j *Journal) Observe(e booking.Event) {
	rec := FromEvent(j.session, e)

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return
	}
	select {
	case j.queue <- rec:
	default:
		j.dropped++
		j.log.Warn("queue full, dropped %s event (%d total)", rec.Type, j.dropped)
	}
}

// Close stops accepting events and waits for queued ones to be published.
func (j *Journal) Close(ctx context.Context) error {
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		return nil
	}
	j.closed = true
	close(j.queue)
	j.mu.Unlock()

	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("flushing journal: %w", ctx.Err())
	}
}

// Publish appends a record to the event stream on subject
// barberia.<session>.<type>.
func (j *Journal) Publish(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		rec.ID = xid.New().String()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	if rec.Session == "" {
		rec.Session = j.session
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}

	subject := nats.SubjectForEvent(rec.Session, string(rec.Type))
	ack, err := j.js.Publish(ctx, subject, data)
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}
	j.log.Debug("published %s seq=%d", rec.Type, ack.Sequence)
	return nil
}
