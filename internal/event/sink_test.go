package event

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"testing"
)

// recordingHandler captures slog messages so tests can assert the exact
// broadcast wording.
type recordingHandler struct {
	mu   sync.Mutex
	msgs []string
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	h.msgs = append(h.msgs, r.Message)
	h.mu.Unlock()
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler      { return h }

func (h *recordingHandler) messages() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.msgs...)
}

// captureSink records published events; when block is set, Publish waits
// until it is closed.
type captureSink struct {
	mu     sync.Mutex
	events []Event
	block  chan struct{}
}

func (c *captureSink) Publish(_ context.Context, ev Event) error {
	if c.block != nil {
		<-c.block
	}
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
	return nil
}

func (c *captureSink) snapshot() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLogSinkWording(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
		want string
	}{
		{
			name: "head point",
			ev:   Point{Stream: "pt1", Athlete: Athlete1, Type: PointHead, Code: "3"},
			want: "Athlete 1 scored: Head point",
		},
		{
			name: "unknown point type",
			ev:   Point{Stream: "pt2", Athlete: Athlete2, Type: PointUnknown, Code: "9"},
			want: "Athlete 2 scored: Unknown point type",
		},
		{
			name: "hit level",
			ev:   HitLevel{Stream: "hl2", Athlete: Athlete2, Level: 75},
			want: "Athlete 2 hit level: 75",
		},
		{
			name: "warnings keep raw payload",
			ev:   Warnings{Stream: "wg1", Raw: "wg1;1;wg2;2;"},
			want: "Warnings/Gam-jeom update: wg1;1;wg2;2;",
		},
		{
			name: "injury unidentified athlete",
			ev:   InjuryTime{Stream: "ij0", Athlete: AthleteNone, Time: "0:45"},
			want: "Injury time for Unidentified athlete: 0:45",
		},
		{
			name: "injury athlete 2",
			ev:   InjuryTime{Stream: "ij2", Athlete: Athlete2, Time: "1:23"},
			want: "Injury time for Athlete 2: 1:23",
		},
		{
			name: "challenge from referee",
			ev:   Challenge{Stream: "ch0", By: AthleteNone},
			want: `Challenge from Referee: []`,
		},
		{
			name: "challenge from athlete 1",
			ev:   Challenge{Stream: "ch1", By: Athlete1, Args: []string{"accepted"}},
			want: `Challenge from Athlete 1: ["accepted"]`,
		},
		{
			name: "break time",
			ev:   BreakTime{Stream: "brk", Time: "0:59"},
			want: "Break time: 0:59",
		},
		{
			name: "winner rounds",
			ev:   WinnerRounds{Stream: "wrd", Raw: "wrd;1;2;1;"},
			want: "Winner rounds update: wrd;1;2;1;",
		},
		{
			name: "match winner",
			ev:   MatchWinner{Stream: "wmh", Name: "KIM Y.", Classification: "PTF"},
			want: "Winner: KIM Y. PTF",
		},
		{
			name: "clock with action",
			ev:   Clock{Stream: "clk", Time: "1:30", Action: "start"},
			want: "Clock: 1:30 start",
		},
		{
			name: "generic score",
			ev:   Score{Stream: "sc1", Args: []string{"7"}},
			want: `Score update sc1: ["7"]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &recordingHandler{}
			sink := NewLogSink(slog.New(h))

			if err := sink.Publish(context.Background(), tt.ev); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			msgs := h.messages()
			if len(msgs) != 1 {
				t.Fatalf("expected 1 log message, got %d", len(msgs))
			}
			if msgs[0] != tt.want {
				t.Errorf("expected %q, got %q", tt.want, msgs[0])
			}
		})
	}
}

func TestPointTypeLabels(t *testing.T) {
	want := map[PointType]string{
		PointPunch:         "Punch point",
		PointBody:          "Body point",
		PointHead:          "Head point",
		PointTechnicalBody: "Technical body point",
		PointTechnicalHead: "Technical head point",
		PointUnknown:       "Unknown point type",
		PointType(42):      "Unknown point type",
	}
	for pt, label := range want {
		if got := pt.Label(); got != label {
			t.Errorf("PointType(%d).Label(): expected %q, got %q", pt, label, got)
		}
	}
}

func TestSinksFanOut(t *testing.T) {
	a := &captureSink{}
	b := &captureSink{}
	sinks := Sinks{a, b}

	ev := BreakTime{Stream: "brk", Time: "0:30"}
	if err := sinks.Publish(context.Background(), ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(a.snapshot()) != 1 || len(b.snapshot()) != 1 {
		t.Error("expected both sinks to receive the event")
	}
}

func TestAsyncSinkDeliversInOrder(t *testing.T) {
	inner := &captureSink{}
	sink := NewAsyncSink("test", inner, 8, discardLogger(), nil)

	for i := 0; i < 5; i++ {
		if err := sink.Publish(context.Background(), Point{Code: strconv.Itoa(i)}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	sink.Close()

	events := inner.snapshot()
	if len(events) != 5 {
		t.Fatalf("expected 5 delivered events, got %d", len(events))
	}
	for i, ev := range events {
		if ev.(Point).Code != strconv.Itoa(i) {
			t.Errorf("event %d out of order: %v", i, ev)
		}
	}
}

func TestAsyncSinkDropsWhenFull(t *testing.T) {
	block := make(chan struct{})
	inner := &captureSink{block: block}

	var hookCalls uint64
	var hookMu sync.Mutex
	sink := NewAsyncSink("test", inner, 1, discardLogger(), func() {
		hookMu.Lock()
		hookCalls++
		hookMu.Unlock()
	})

	for i := 0; i < 5; i++ {
		if err := sink.Publish(context.Background(), BreakTime{Time: "0:01"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	dropped := sink.Dropped()
	if dropped < 3 {
		t.Errorf("expected at least 3 drops with a blocked worker, got %d", dropped)
	}

	hookMu.Lock()
	calls := hookCalls
	hookMu.Unlock()
	if calls != dropped {
		t.Errorf("drop hook calls (%d) do not match dropped count (%d)", calls, dropped)
	}

	close(block)
	sink.Close()

	if got := uint64(len(inner.snapshot())) + sink.Dropped(); got != 5 {
		t.Errorf("delivered+dropped should equal published: got %d", got)
	}

	// Publishing after Close is a no-op, not a panic.
	if err := sink.Publish(context.Background(), BreakTime{Time: "0:02"}); err != nil {
		t.Errorf("publish after close: %v", err)
	}
}
