package server

import (
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/reStrike-d-o-o/reStrike-VTA/internal/config"
	"github.com/reStrike-d-o-o/reStrike-VTA/internal/dispatch"
	"github.com/reStrike-d-o-o/reStrike-VTA/internal/event"
	"github.com/reStrike-d-o-o/reStrike-VTA/internal/metrics"
	"github.com/reStrike-d-o-o/reStrike-VTA/internal/protocol"
)

// chanSink forwards published events to a channel so tests can wait for them.
type chanSink struct {
	ch chan event.Event
}

func (s *chanSink) Publish(_ context.Context, ev event.Event) error {
	s.ch <- ev
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testStack wires a complete receive pipeline on an ephemeral loopback port.
type testStack struct {
	server *UDPServer
	client *net.UDPConn
	events chan event.Event
}

func newTestStack(t *testing.T, schema SchemaSource) *testStack {
	t.Helper()

	cfg := &config.ServerConfig{
		UDPPort:     0,
		BindAddress: "127.0.0.1",
		BufferSize:  1024,
	}

	sink := &chanSink{ch: make(chan event.Event, 64)}
	table := protocol.NewTable()
	m := metrics.NewMetrics(prometheus.NewRegistry())
	dispatcher := dispatch.New(table, sink, discardLogger(), m)

	srv := NewUDPServer(cfg, discardLogger(), dispatcher, table, schema, m)
	if err := srv.Start(); err != nil {
		t.Fatalf("failed to start UDP server: %v", err)
	}
	t.Cleanup(func() { srv.Stop() })

	addr, ok := srv.LocalAddr().(*net.UDPAddr)
	if !ok {
		t.Fatal("server did not report its UDP address")
	}

	client, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		t.Fatalf("failed to dial UDP server: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return &testStack{server: srv, client: client, events: sink.ch}
}

func (ts *testStack) send(t *testing.T, payload []byte) {
	t.Helper()
	if _, err := ts.client.Write(payload); err != nil {
		t.Fatalf("failed to send datagram: %v", err)
	}
}

func (ts *testStack) waitForEvent(t *testing.T) event.Event {
	t.Helper()
	select {
	case ev := <-ts.events:
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for a dispatched event")
		return nil
	}
}

func TestUDPServerDispatchesDatagrams(t *testing.T) {
	ts := newTestStack(t, EmbeddedSchemaSource())

	ts.send(t, []byte("pt1;2;"))
	ev := ts.waitForEvent(t)
	point, ok := ev.(event.Point)
	if !ok {
		t.Fatalf("expected a point event, got %T", ev)
	}
	if point.Athlete != event.Athlete1 {
		t.Errorf("expected athlete 1, got %d", point.Athlete)
	}
	if point.Type != event.PointBody {
		t.Errorf("expected body point, got %d", point.Type)
	}

	ts.send(t, []byte("hl2;80;"))
	ev = ts.waitForEvent(t)
	hit, ok := ev.(event.HitLevel)
	if !ok {
		t.Fatalf("expected a hit level event, got %T", ev)
	}
	if hit.Athlete != event.Athlete2 || hit.Level != 80 {
		t.Errorf("unexpected hit level event: %+v", hit)
	}

	ts.send(t, []byte("clk;1:23;stop;"))
	ev = ts.waitForEvent(t)
	clock, ok := ev.(event.Clock)
	if !ok {
		t.Fatalf("expected a clock event, got %T", ev)
	}
	if clock.Time != "1:23" || clock.Action != "stop" {
		t.Errorf("unexpected clock event: %+v", clock)
	}
}

// TestUDPServerHandlesBackToBackDatagrams sends a burst without pausing
// between datagrams. The socket must queue them while the loop is busy with
// an earlier one; every datagram in the burst has to come out as an event,
// in arrival order.
func TestUDPServerHandlesBackToBackDatagrams(t *testing.T) {
	ts := newTestStack(t, EmbeddedSchemaSource())

	burst := []string{
		"pt1;1;",
		"pt2;3;",
		"hl1;50;",
		"wg1;1;",
		"clk;1:00;start;",
		"sc1;4;",
	}
	for _, payload := range burst {
		ts.send(t, []byte(payload))
	}

	wantStreams := []string{"pt1", "pt2", "hl1", "wg1", "clk", "sc1"}
	for i, want := range wantStreams {
		ev := ts.waitForEvent(t)
		var got string
		switch e := ev.(type) {
		case event.Point:
			got = e.Stream
		case event.HitLevel:
			got = e.Stream
		case event.Warnings:
			got = e.Stream
		case event.Clock:
			got = e.Stream
		case event.Score:
			got = e.Stream
		default:
			t.Fatalf("burst event %d: unexpected type %T", i, ev)
		}
		if got != want {
			t.Fatalf("burst event %d: expected stream %q, got %q", i, want, got)
		}
	}

	stats := ts.server.GetStatistics()
	if stats.DatagramsReceived != uint64(len(burst)) {
		t.Errorf("expected %d datagrams received, got %d", len(burst), stats.DatagramsReceived)
	}
}

func TestUDPServerSurvivesBadDatagrams(t *testing.T) {
	ts := newTestStack(t, EmbeddedSchemaSource())

	// 0xff is never valid UTF-8.
	ts.send(t, []byte{0xff, 0xfe, 0x70, 0x74})
	// Empty stream code fails message parsing.
	ts.send(t, []byte(";;"))
	// The loop must still be alive for well-formed traffic.
	ts.send(t, []byte("pt1;3;"))

	ev := ts.waitForEvent(t)
	point, ok := ev.(event.Point)
	if !ok {
		t.Fatalf("expected a point event, got %T", ev)
	}
	if point.Type != event.PointHead {
		t.Errorf("expected head point, got %d", point.Type)
	}

	// Datagrams are handled in arrival order, so by the time the point
	// event came out both bad datagrams were fully accounted for.
	stats := ts.server.GetStatistics()
	if stats.DatagramsReceived != 3 {
		t.Errorf("expected 3 datagrams received, got %d", stats.DatagramsReceived)
	}
	if stats.NonUTF8Datagrams != 1 {
		t.Errorf("expected 1 non-UTF8 datagram, got %d", stats.NonUTF8Datagrams)
	}
	if stats.ParseErrors != 1 {
		t.Errorf("expected 1 parse error, got %d", stats.ParseErrors)
	}
	if stats.MessagesParsed != 1 {
		t.Errorf("expected 1 parsed message, got %d", stats.MessagesParsed)
	}
}

func TestUDPServerTruncatesOversizedDatagrams(t *testing.T) {
	ts := newTestStack(t, EmbeddedSchemaSource())

	// Everything past the first kilobyte is dropped by the read buffer;
	// the prefix still parses and dispatches.
	payload := "pt2;5;" + strings.Repeat("x", 1500)
	ts.send(t, []byte(payload))

	ev := ts.waitForEvent(t)
	point, ok := ev.(event.Point)
	if !ok {
		t.Fatalf("expected a point event, got %T", ev)
	}
	if point.Athlete != event.Athlete2 {
		t.Errorf("expected athlete 2, got %d", point.Athlete)
	}
	if point.Type != event.PointTechnicalHead {
		t.Errorf("expected technical head point, got %d", point.Type)
	}
}

func TestUDPServerUnknownStreamsProduceNoEvents(t *testing.T) {
	ts := newTestStack(t, EmbeddedSchemaSource())

	ts.send(t, []byte("zz9;1;"))
	ts.send(t, []byte("pt1;1;"))

	ev := ts.waitForEvent(t)
	if _, ok := ev.(event.Point); !ok {
		t.Fatalf("expected the point event to be first, got %T", ev)
	}
	select {
	case ev := <-ts.events:
		t.Fatalf("unexpected extra event: %+v", ev)
	default:
	}
}

const testSchemaDoc = `MAIN_STREAMS:
pt1;Athlete 1 point
pt2;Athlete 2 point
REQUIRED_ARGUMENTS:
pointType;point value
EXAMPLES:
pt1;3;
`

func TestLoadSchemaFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.txt")
	if err := os.WriteFile(path, []byte(testSchemaDoc), 0o644); err != nil {
		t.Fatalf("failed to write schema file: %v", err)
	}

	ts := newTestStack(t, FileSchemaSource(path))

	stats := ts.server.GetStatistics()
	if stats.Definitions != 1 {
		t.Fatalf("expected 1 definition after start, got %d", stats.Definitions)
	}

	// Growing the file and reloading must pick up the new family.
	extended := testSchemaDoc + "---\nMAIN_STREAMS:\nclk;Match clock\nREQUIRED_ARGUMENTS:\ntime;current time\n"
	if err := os.WriteFile(path, []byte(extended), 0o644); err != nil {
		t.Fatalf("failed to rewrite schema file: %v", err)
	}

	count, err := ts.server.LoadSchema()
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 definitions after reload, got %d", count)
	}

	ts.send(t, []byte("clk;0:30;start;"))
	ev := ts.waitForEvent(t)
	if _, ok := ev.(event.Clock); !ok {
		t.Fatalf("expected a clock event after reload, got %T", ev)
	}
}

func TestUDPServerStartFailsOnBusyPort(t *testing.T) {
	first := newTestStack(t, EmbeddedSchemaSource())
	addr := first.server.LocalAddr().(*net.UDPAddr)

	cfg := &config.ServerConfig{
		UDPPort:     addr.Port,
		BindAddress: "127.0.0.1",
		BufferSize:  1024,
	}
	sink := &chanSink{ch: make(chan event.Event, 1)}
	table := protocol.NewTable()
	m := metrics.NewMetrics(prometheus.NewRegistry())
	dispatcher := dispatch.New(table, sink, discardLogger(), m)

	srv := NewUDPServer(cfg, discardLogger(), dispatcher, table, EmbeddedSchemaSource(), m)
	if err := srv.Start(); err == nil {
		srv.Stop()
		t.Fatal("expected start to fail on an already bound port")
	}
}

func TestUDPServerStopIsClean(t *testing.T) {
	cfg := &config.ServerConfig{
		UDPPort:     0,
		BindAddress: "127.0.0.1",
		BufferSize:  1024,
	}
	sink := &chanSink{ch: make(chan event.Event, 1)}
	table := protocol.NewTable()
	m := metrics.NewMetrics(prometheus.NewRegistry())
	dispatcher := dispatch.New(table, sink, discardLogger(), m)

	srv := NewUDPServer(cfg, discardLogger(), dispatcher, table, EmbeddedSchemaSource(), m)
	if err := srv.Start(); err != nil {
		t.Fatalf("failed to start UDP server: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- srv.Stop() }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("stop returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("stop did not complete")
	}
}
