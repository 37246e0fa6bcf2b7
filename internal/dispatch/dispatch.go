package dispatch

import (
	"context"
	"log/slog"
	"sync"

	"github.com/reStrike-d-o-o/reStrike-VTA/internal/event"
	"github.com/reStrike-d-o-o/reStrike-VTA/internal/metrics"
	"github.com/reStrike-d-o-o/reStrike-VTA/internal/protocol"
)

// Dispatcher validates messages against the definition table and routes
// them to their decoder. Decoded events go to the sink. Messages without a
// definition or without a decoder are dropped with a debug log; nothing on
// this path returns an error to the receive loop.
type Dispatcher struct {
	table   *protocol.Table
	sink    event.Sink
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu        sync.RWMutex
	matched   uint64
	unmatched uint64
	unrouted  uint64
	published uint64
}

// Statistics is a point-in-time snapshot of dispatcher counters.
type Statistics struct {
	MatchedMessages   uint64 `json:"matched_messages"`
	UnmatchedMessages uint64 `json:"unmatched_messages"`
	UnroutedMessages  uint64 `json:"unrouted_messages"`
	PublishedEvents   uint64 `json:"published_events"`
}

// New creates a dispatcher that resolves streams in table and publishes
// decoded events to sink.
func New(table *protocol.Table, sink event.Sink, logger *slog.Logger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		table:   table,
		sink:    sink,
		logger:  logger,
		metrics: m,
	}
}

// Dispatch processes one decoded message. It never fails; every outcome is
// logging, metrics, and at most one published event.
func (d *Dispatcher) Dispatch(ctx context.Context, msg *protocol.Message) {
	if _, ok := d.table.Lookup(msg.Stream); !ok {
		d.logger.Debug("No protocol definition found for stream",
			slog.String("stream", msg.Stream))
		d.metrics.RecordMessageUnmatched()
		d.bump(&d.unmatched)
		return
	}

	d.logger.Debug("Processing message",
		slog.String("stream", msg.Stream),
		slog.Int("arguments", len(msg.Arguments)))
	d.metrics.RecordMessageMatched()
	d.bump(&d.matched)

	build := route(msg.Stream)
	if build == nil {
		d.logger.Debug("Unhandled stream type",
			slog.String("stream", msg.Stream))
		d.metrics.RecordMessageUnrouted()
		d.bump(&d.unrouted)
		return
	}

	ev, ok := build(msg)
	if !ok {
		return
	}

	d.metrics.RecordEventPublished(string(ev.Kind()))
	d.bump(&d.published)
	if err := d.sink.Publish(ctx, ev); err != nil {
		d.logger.Warn("Event sink error",
			slog.String("stream", msg.Stream),
			slog.String("kind", string(ev.Kind())),
			slog.String("error", err.Error()))
	}
}

// GetStatistics returns a snapshot of the dispatcher counters.
func (d *Dispatcher) GetStatistics() Statistics {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return Statistics{
		MatchedMessages:   d.matched,
		UnmatchedMessages: d.unmatched,
		UnroutedMessages:  d.unrouted,
		PublishedEvents:   d.published,
	}
}

func (d *Dispatcher) bump(counter *uint64) {
	d.mu.Lock()
	*counter++
	d.mu.Unlock()
}
