package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Sink consumes decoded events. The dispatcher publishes synchronously from
// the receive loop, so implementations must return quickly; anything that
// talks to the network belongs behind an AsyncSink.
type Sink interface {
	Publish(ctx context.Context, ev Event) error
}

// Sinks fans an event out to several sinks in order. All sinks are
// attempted; their errors are joined.
type Sinks []Sink

// Publish implements Sink.
func (s Sinks) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, sink := range s {
		if err := sink.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogSink writes each event's broadcast wording to the structured log. This
// is the sink operators watch during a bout.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a log sink on the given logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Publish implements Sink. It never returns an error.
func (s *LogSink) Publish(_ context.Context, ev Event) error {
	switch e := ev.(type) {
	case Point:
		s.logger.Info(fmt.Sprintf("Athlete %d scored: %s", e.Athlete, e.Type.Label()),
			slog.String("stream", e.Stream))
	case HitLevel:
		s.logger.Info(fmt.Sprintf("Athlete %d hit level: %d", e.Athlete, e.Level),
			slog.String("stream", e.Stream))
	case Warnings:
		s.logger.Info(fmt.Sprintf("Warnings/Gam-jeom update: %s", e.Raw),
			slog.String("stream", e.Stream))
	case InjuryTime:
		s.logger.Info(fmt.Sprintf("Injury time for %s: %s", injuredName(e.Athlete), e.Time),
			slog.String("stream", e.Stream))
	case Challenge:
		s.logger.Info(fmt.Sprintf("Challenge from %s: %q", challengerName(e.By), e.Args),
			slog.String("stream", e.Stream))
	case BreakTime:
		s.logger.Info(fmt.Sprintf("Break time: %s", e.Time),
			slog.String("stream", e.Stream))
	case WinnerRounds:
		s.logger.Info(fmt.Sprintf("Winner rounds update: %s", e.Raw),
			slog.String("stream", e.Stream))
	case MatchWinner:
		s.logger.Info(fmt.Sprintf("Winner: %s %s", e.Name, e.Classification),
			slog.String("stream", e.Stream))
	case Clock:
		s.logger.Info(fmt.Sprintf("Clock: %s %s", e.Time, e.Action),
			slog.String("stream", e.Stream))
	case Score:
		s.logger.Info(fmt.Sprintf("Score update %s: %q", e.Stream, e.Args),
			slog.String("stream", e.Stream))
	default:
		s.logger.Info("Event", slog.String("kind", string(ev.Kind())))
	}
	return nil
}

// injuredName renders the injury-clock wording for an athlete.
func injuredName(a Athlete) string {
	switch a {
	case Athlete1:
		return "Athlete 1"
	case Athlete2:
		return "Athlete 2"
	default:
		return "Unidentified athlete"
	}
}

// challengerName renders the challenge wording for its origin.
func challengerName(a Athlete) string {
	switch a {
	case Athlete1:
		return "Athlete 1"
	case Athlete2:
		return "Athlete 2"
	default:
		return "Referee"
	}
}

// AsyncSink decouples a slow consumer from the receive loop with a bounded
// queue. Publish never blocks: when the queue is full the event is dropped
// and counted, matching the no-back-pressure contract of the loop.
type AsyncSink struct {
	name    string
	inner   Sink
	logger  *slog.Logger
	onDrop  func()
	queue   chan Event
	wg      sync.WaitGroup
	mu      sync.Mutex
	dropped uint64
	closed  bool
}

// NewAsyncSink starts a worker delivering queued events to inner. onDrop,
// if non-nil, is called once per discarded event.
func NewAsyncSink(name string, inner Sink, size int, logger *slog.Logger, onDrop func()) *AsyncSink {
	s := &AsyncSink{
		name:   name,
		inner:  inner,
		logger: logger,
		onDrop: onDrop,
		queue:  make(chan Event, size),
	}
	s.wg.Add(1)
	go s.run()
	return s
}

func (s *AsyncSink) run() {
	defer s.wg.Done()
	for ev := range s.queue {
		if err := s.inner.Publish(context.Background(), ev); err != nil {
			s.logger.Warn("Event sink failed",
				slog.String("sink", s.name),
				slog.String("kind", string(ev.Kind())),
				slog.String("error", err.Error()))
		}
	}
}

// Publish implements Sink. It never returns an error.
func (s *AsyncSink) Publish(_ context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	select {
	case s.queue <- ev:
	default:
		s.dropped++
		if s.onDrop != nil {
			s.onDrop()
		}
		s.logger.Warn("Event queue full, dropping event",
			slog.String("sink", s.name),
			slog.String("kind", string(ev.Kind())),
			slog.Uint64("dropped_total", s.dropped))
	}
	return nil
}

// Dropped reports how many events were discarded because the queue was
// full.
func (s *AsyncSink) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Close stops the worker after the queued events are delivered.
func (s *AsyncSink) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()
	s.wg.Wait()
}
