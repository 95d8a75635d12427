package nats

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

const (
	streamName = "barberia_events"

	// SubjectAll matches every booking event of every session.
	SubjectAll = "barberia.>"
)

// SubjectForSession returns the wildcard subject pattern for all events in a session.
// Example: "barberia.cq1v2.>"
func SubjectForSession(session string) string {
	return fmt.Sprintf("barberia.%s.>", session)
}

// SubjectForEvent returns the specific subject for an event type in a session.
// Example: "barberia.cq1v2.confirmed"
func SubjectForEvent(session, eventType string) string {
	return fmt.Sprintf("barberia.%s.%s", session, eventType)
}

// SetupStream creates or updates the JetStream stream for booking events with
// 90-day retention.
func SetupStream(ctx context.Context, js jetstream.JetStream) (jetstream.Stream, error) {
	return js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{SubjectAll},
		Storage:  jetstream.FileStorage,
		MaxAge:   90 * 24 * time.Hour,
	})
}
