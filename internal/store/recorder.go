package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"

	"github.com/reStrike-d-o-o/reStrike-VTA/internal/event"
	"github.com/reStrike-d-o-o/reStrike-VTA/internal/metrics"
)

// EventRecorder is an event sink that appends every published event to the
// event store, bound to one match. The full event payload is kept as JSON so
// later tooling can replay a bout without knowing every event shape.
type EventRecorder struct {
	events  EventStore
	matchID int64
	timeout time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewEventRecorder creates a recorder writing to the given event store.
func NewEventRecorder(events EventStore, matchID int64, timeout time.Duration,
	logger *slog.Logger, m *metrics.Metrics) *EventRecorder {

	return &EventRecorder{
		events:  events,
		matchID: matchID,
		timeout: timeout,
		logger:  logger,
		metrics: m,
	}
}

// Publish persists one event. A write slower than the configured timeout is
// abandoned and reported as an error.
func (r *EventRecorder) Publish(ctx context.Context, ev event.Event) error {
	details, err := json.Marshal(ev)
	if err != nil {
		r.metrics.RecordStoreWrite("event", false)
		return fmt.Errorf("failed to encode event: %w", err)
	}

	record := &MatchEvent{
		MatchID:   r.matchID,
		Type:      string(ev.Kind()),
		Timestamp: time.Now().UTC(),
		Athlete:   athleteLabel(ev),
		Details:   string(details),
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	id, err := r.events.Append(ctx, record)
	if err != nil {
		r.metrics.RecordStoreWrite("event", false)
		return fmt.Errorf("failed to record event: %w", err)
	}
	r.metrics.RecordStoreWrite("event", true)

	r.logger.Debug("Event recorded",
		slog.Int64("event_id", id),
		slog.String("kind", record.Type),
	)
	return nil
}

// athleteLabel extracts the attributed athlete for the indexed column.
func athleteLabel(ev event.Event) string {
	var a event.Athlete
	switch e := ev.(type) {
	case event.Point:
		a = e.Athlete
	case event.HitLevel:
		a = e.Athlete
	case event.InjuryTime:
		a = e.Athlete
	case event.Challenge:
		a = e.By
	default:
		return ""
	}

	switch a {
	case event.Athlete1:
		return "athlete1"
	case event.Athlete2:
		return "athlete2"
	default:
		return ""
	}
}
