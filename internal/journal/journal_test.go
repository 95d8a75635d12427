package journal

import (
	"context"
	"testing"
	"time"

	"github.com/mark3labs/barberia/internal/booking"
	"github.com/mark3labs/barberia/internal/nats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openNATS(t *testing.T) *nats.Embedded {
	t.Helper()
	e, err := nats.Open(context.Background(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

var sel = booking.Selection{
	EmployeeID:   "carlos-mendoza",
	EmployeeName: "Carlos Mendoza",
	ServiceID:    "corte-clasico",
	ServiceName:  "Corte Clásico",
	ServicePrice: 25000,
}

func TestHistory_Apply(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	h := &History{}

	h.Apply(Record{Session: "s1", Type: booking.EventStepChanged})
	h.Apply(Record{Session: "s1", Type: booking.EventWatcherTimedOut})
	h.Apply(Record{ID: "r1", Session: "s1", Type: booking.EventConfirmed, Timestamp: at, Selection: sel, Source: booking.SourceManual})
	h.Apply(Record{Session: "s2", Type: booking.EventReset})

	assert.Equal(t, 4, h.Events)
	assert.Equal(t, []string{"s1", "s2"}, h.Sessions)
	assert.Equal(t, 1, h.TimedOut)
	assert.Equal(t, 1, h.Resets)
	require.Len(t, h.Bookings, 1)
	assert.Equal(t, Booking{
		ID:           "r1",
		Session:      "s1",
		EmployeeID:   "carlos-mendoza",
		EmployeeName: "Carlos Mendoza",
		ServiceID:    "corte-clasico",
		ServiceName:  "Corte Clásico",
		Price:        25000,
		ConfirmedAt:  at,
		Source:       booking.SourceManual,
	}, h.Bookings[0])
}

func TestFromEvent(t *testing.T) {
	at := time.Now()
	rec := FromEvent("sess", booking.Event{
		Type:      booking.EventConfirmed,
		At:        at,
		Step:      booking.StepCalendar,
		Selection: sel,
		Source:    booking.SourceAuto,
		Phrase:    "reserva confirmada",
	})

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "sess", rec.Session)
	assert.Equal(t, at, rec.Timestamp)
	assert.Equal(t, booking.StepCalendar, rec.Step)
	assert.Equal(t, "reserva confirmada", rec.Phrase)
	assert.NotEqual(t, rec.ID, FromEvent("sess", booking.Event{}).ID)
}

func TestJournal_ObserveAndReplay(t *testing.T) {
	ctx := context.Background()
	e := openNATS(t)

	first := New(e.JS, NewSessionID())
	first.Start(ctx)
	first.Observe(booking.Event{Type: booking.EventEmployeeSelected, At: time.Now(), Selection: sel})
	first.Observe(booking.Event{Type: booking.EventConfirmed, At: time.Now(), Step: booking.StepCalendar, Selection: sel, Source: booking.SourceAuto})
	require.NoError(t, first.Close(ctx))

	second := New(e.JS, NewSessionID())
	second.Start(ctx)
	second.Observe(booking.Event{Type: booking.EventWatcherTimedOut, At: time.Now(), Attempts: 180})
	require.NoError(t, second.Close(ctx))

	all, err := LoadHistory(ctx, e.Stream, "")
	require.NoError(t, err)
	assert.Equal(t, 3, all.Events)
	assert.Len(t, all.Sessions, 2)
	assert.Equal(t, 1, all.TimedOut)
	require.Len(t, all.Bookings, 1)
	assert.Equal(t, first.Session(), all.Bookings[0].Session)
	assert.Equal(t, 25000, all.Bookings[0].Price)
	assert.Equal(t, booking.SourceAuto, all.Bookings[0].Source)

	only, err := LoadHistory(ctx, e.Stream, second.Session())
	require.NoError(t, err)
	assert.Equal(t, 1, only.Events)
	assert.Empty(t, only.Bookings)

	again, err := LoadHistory(ctx, e.Stream, "")
	require.NoError(t, err)
	assert.Equal(t, 3, again.Events, "replay is repeatable")
}

func TestJournal_ObserveAfterCloseIsIgnored(t *testing.T) {
	ctx := context.Background()
	e := openNATS(t)

	j := New(e.JS, "closed-session")
	j.Start(ctx)
	require.NoError(t, j.Close(ctx))
	require.NoError(t, j.Close(ctx), "second close is a no-op")

	assert.NotPanics(t, func() {
		j.Observe(booking.Event{Type: booking.EventReset})
	})

	h, err := LoadHistory(ctx, e.Stream, "closed-session")
	require.NoError(t, err)
	assert.Equal(t, 0, h.Events)
}

func TestJournal_CloseFlushesAfterCancel(t *testing.T) {
	e := openNATS(t)

	ctx, cancel := context.WithCancel(context.Background())
	j := New(e.JS, NewSessionID())
	j.Start(ctx)
	cancel()
	j.Observe(booking.Event{Type: booking.EventConfirmed, At: time.Now(), Step: booking.StepCalendar, Selection: sel, Source: booking.SourceManual})

	flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer flushCancel()
	require.NoError(t, j.Close(flushCtx))

	h, err := LoadHistory(context.Background(), e.Stream, j.Session())
	require.NoError(t, err)
	require.Len(t, h.Bookings, 1, "queued record published despite the cancelled start context")
	assert.Equal(t, booking.SourceManual, h.Bookings[0].Source)
}

func TestLoadHistory_SkipsMalformed(t *testing.T) {
	ctx := context.Background()
	e := openNATS(t)

	_, err := e.JS.Publish(ctx, nats.SubjectForEvent("bad", "confirmed"), []byte("{not json"))
	require.NoError(t, err)
	j := New(e.JS, "bad")
	require.NoError(t, j.Publish(ctx, Record{Type: booking.EventReset}))

	h, err := LoadHistory(ctx, e.Stream, "bad")
	require.NoError(t, err)
	assert.Equal(t, 1, h.Malformed)
	assert.Equal(t, 1, h.Events)
	assert.Equal(t, 1, h.Resets)
}
