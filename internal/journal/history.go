package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/mark3labs/barberia/internal/booking"
	"github.com/mark3labs/barberia/internal/nats"
	"github.com/nats-io/nats.go/jetstream"
)

// Booking is a confirmed appointment reconstructed from the journal.
type Booking struct {
	ID           string                `json:"id"`
	Session      string                `json:"session"`
	EmployeeID   string                `json:"employee_id"`
	EmployeeName string                `json:"employee_name"`
	ServiceID    string                `json:"service_id"`
	ServiceName  string                `json:"service_name"`
	Price        int                   `json:"price"`
	ConfirmedAt  time.Time             `json:"confirmed_at"`
	Source       booking.ConfirmSource `json:"source"`
}

// History is the reduced view of the journal.
type History struct {
	Sessions  []string  `json:"sessions"`
	Bookings  []Booking `json:"bookings"`
	Events    int       `json:"events"`
	TimedOut  int       `json:"timed_out"`
	Resets    int       `json:"resets"`
	Malformed int       `json:"malformed"`
}

// Apply folds one record into the history.
func (h *History) Apply(rec Record) {
	h.Events++
	if !containsString(h.Sessions, rec.Session) {
		h.Sessions = append(h.Sessions, rec.Session)
	}
	switch rec.Type {
	case booking.EventConfirmed:
		h.Bookings = append(h.Bookings, Booking{
			ID:           rec.ID,
			Session:      rec.Session,
			EmployeeID:   rec.Selection.EmployeeID,
			EmployeeName: rec.Selection.EmployeeName,
			ServiceID:    rec.Selection.ServiceID,
			ServiceName:  rec.Selection.ServiceName,
			Price:        rec.Selection.ServicePrice,
			ConfirmedAt:  rec.Timestamp,
			Source:       rec.Source,
		})
	case booking.EventWatcherTimedOut:
		h.TimedOut++
	case booking.EventReset:
		h.Resets++
	}
}

// LoadHistory replays the journal. An empty session replays every session.
// Bookings are returned oldest first.
func LoadHistory(ctx context.Context, stream jetstream.Stream, session string) (*History, error) {
	filter := nats.SubjectAll
	if session != "" {
		filter = nats.SubjectForSession(session)
	}

	consumer, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		FilterSubject: filter,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("creating consumer: %w", err)
	}
	defer func() {
		_ = stream.DeleteConsumer(context.WithoutCancel(ctx), consumer.CachedInfo().Name)
	}()

	h := &History{}
	const batchSize = 1000
	for {
		msgs, err := consumer.FetchNoWait(batchSize)
		if err != nil {
			break
		}

		n := 0
		for msg := range msgs.Messages() {
			n++
			var rec Record
			if err := json.Unmarshal(msg.Data(), &rec); err != nil {
				h.Malformed++
				_ = msg.Ack()
				continue
			}
			h.Apply(rec)
			_ = msg.Ack()
		}
		if n < batchSize {
			break
		}
	}

	sort.SliceStable(h.Bookings, func(a, b int) bool {
		return h.Bookings[a].ConfirmedAt.Before(h.Bookings[b].ConfirmedAt)
	})
	return h, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
