package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/reStrike-d-o-o/reStrike-VTA/internal/config"
	"github.com/reStrike-d-o-o/reStrike-VTA/internal/dispatch"
	"github.com/reStrike-d-o-o/reStrike-VTA/internal/metrics"
	"github.com/reStrike-d-o-o/reStrike-VTA/internal/protocol"
)

// SchemaSource supplies the bytes of the grammar document. The server does
// not care whether they come from a file, the embedded default, or the
// network.
type SchemaSource func() ([]byte, error)

// FileSchemaSource reads the grammar document from a file path on every
// load, so edits are picked up by a reload.
func FileSchemaSource(path string) SchemaSource {
	return func() ([]byte, error) { return os.ReadFile(path) }
}

// EmbeddedSchemaSource serves the grammar document compiled into the
// binary.
func EmbeddedSchemaSource() SchemaSource {
	return func() ([]byte, error) { return protocol.DefaultSchema, nil }
}

// UDPServer receives PSS datagrams from the scoring console. Datagrams are
// handled strictly sequentially: the current one is decoded and dispatched
// before the next is read, so events always follow arrival order. The only
// operation that runs concurrently with the loop is a schema reload, which
// the definition table applies atomically.
type UDPServer struct {
	conn       *net.UDPConn
	config     *config.ServerConfig
	logger     *slog.Logger
	dispatcher *dispatch.Dispatcher
	table      *protocol.Table
	schema     SchemaSource
	metrics    *metrics.Metrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Basic counters for the monitoring API
	mu                sync.RWMutex
	datagramsReceived uint64
	messagesParsed    uint64
	parseErrors       uint64
	nonUTF8Datagrams  uint64
}

// NewUDPServer creates a new UDP server instance
func NewUDPServer(cfg *config.ServerConfig, logger *slog.Logger, dispatcher *dispatch.Dispatcher, table *protocol.Table, schema SchemaSource, m *metrics.Metrics) *UDPServer {
	ctx, cancel := context.WithCancel(context.Background())

	return &UDPServer{
		config:     cfg,
		logger:     logger,
		dispatcher: dispatcher,
		table:      table,
		schema:     schema,
		metrics:    m,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start binds the UDP socket, loads the protocol definitions, and begins
// receiving. A bind failure is returned to the caller; a definition load
// failure is not, the server then starts with an empty table.
func (s *UDPServer) Start() error {
	addr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", s.config.BindAddress, s.config.UDPPort))
	if err != nil {
		return fmt.Errorf("failed to resolve UDP address: %w", err)
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on UDP: %w", err)
	}

	s.conn = conn

	if _, err := s.LoadSchema(); err != nil {
		s.logger.Warn("Failed to load protocol definitions, starting with an empty table",
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("UDP server started",
		slog.String("address", addr.String()),
		slog.Int("buffer_size", s.config.BufferSize),
	)

	s.wg.Add(1)
	go s.receiveLoop()

	return nil
}

// Stop gracefully stops the UDP server
func (s *UDPServer) Stop() error {
	s.logger.Info("Stopping UDP server...")

	// Cancel context to signal shutdown
	s.cancel()

	// Close UDP connection to unblock the receive loop
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			s.logger.Warn("Error closing UDP connection", slog.String("error", err.Error()))
		}
	}

	// Wait for the receive loop to finish
	s.wg.Wait()

	s.mu.RLock()
	datagramsReceived := s.datagramsReceived
	messagesParsed := s.messagesParsed
	parseErrors := s.parseErrors
	s.mu.RUnlock()

	s.logger.Info("UDP server stopped",
		slog.Uint64("datagrams_received", datagramsReceived),
		slog.Uint64("messages_parsed", messagesParsed),
		slog.Uint64("parse_errors", parseErrors),
	)

	return nil
}

// LoadSchema fetches the grammar document from the schema source and
// installs the parsed definitions, replacing the table content in one step.
// It is safe to call while the receive loop is running.
func (s *UDPServer) LoadSchema() (int, error) {
	data, err := s.schema()
	if err != nil {
		s.metrics.RecordSchemaReloadError()
		return 0, fmt.Errorf("failed to read schema source: %w", err)
	}

	defs, err := protocol.ParseSchema(data)
	if err != nil {
		s.metrics.RecordSchemaReloadError()
		return 0, fmt.Errorf("failed to parse schema: %w", err)
	}

	s.table.Replace(defs)
	s.metrics.RecordSchemaReload(len(defs))
	s.logger.Info("Loaded protocol definitions", slog.Int("definitions", len(defs)))

	return len(defs), nil
}

// receiveLoop is the main datagram receiving loop. One datagram is fully
// handled before the next read; there is no processing queue.
func (s *UDPServer) receiveLoop() {
	defer s.wg.Done()

	// The slice caps how much of one datagram is read; the kernel socket
	// buffer keeps its default size so back-to-back datagrams queue while
	// the previous one is still being handled.
	buffer := make([]byte, s.config.BufferSize)

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Info("Receive loop stopping due to context cancellation")
			return
		default:
			// Continue to receive datagrams
		}

		// Set read deadline to check for context cancellation periodically
		if err := s.conn.SetReadDeadline(time.Now().Add(1 * time.Second)); err != nil {
			s.logger.Error("Failed to set read deadline", slog.String("error", err.Error()))
			continue
		}

		// A datagram longer than the buffer is truncated silently.
		n, remoteAddr, err := s.conn.ReadFromUDP(buffer)
		if err != nil {
			// Check if this is a timeout (expected during graceful shutdown)
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue // Check context and try again
			}

			// Check if we're shutting down
			select {
			case <-s.ctx.Done():
				return
			default:
				s.logger.Error("Failed to read UDP datagram", slog.String("error", err.Error()))
				continue
			}
		}

		s.metrics.RecordDatagramReceived()
		s.bump(&s.datagramsReceived)

		data := buffer[:n]
		if !utf8.Valid(data) {
			s.logger.Warn("Received non-UTF8 data",
				slog.String("remote_addr", remoteAddr.String()),
				slog.Int("size", n),
			)
			s.metrics.RecordNonUTF8Datagram()
			s.bump(&s.nonUTF8Datagrams)
			continue
		}

		text := string(data)
		s.logger.Debug("Received UDP message",
			slog.String("remote_addr", remoteAddr.String()),
			slog.String("payload", text),
		)

		msg, err := protocol.ParseMessage(text)
		if err != nil {
			s.logger.Warn("Failed to parse message",
				slog.String("remote_addr", remoteAddr.String()),
				slog.String("error", err.Error()),
			)
			s.metrics.RecordParseError()
			s.bump(&s.parseErrors)
			continue
		}

		s.metrics.RecordMessageParsed()
		s.bump(&s.messagesParsed)

		s.dispatcher.Dispatch(s.ctx, msg)
	}
}

// GetStatistics returns current server statistics
func (s *UDPServer) GetStatistics() ServerStatistics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return ServerStatistics{
		DatagramsReceived: s.datagramsReceived,
		MessagesParsed:    s.messagesParsed,
		ParseErrors:       s.parseErrors,
		NonUTF8Datagrams:  s.nonUTF8Datagrams,
		Definitions:       uint64(s.table.Len()),
	}
}

// ServerStatistics represents server performance metrics
type ServerStatistics struct {
	DatagramsReceived uint64 `json:"datagrams_received"`
	MessagesParsed    uint64 `json:"messages_parsed"`
	ParseErrors       uint64 `json:"parse_errors"`
	NonUTF8Datagrams  uint64 `json:"non_utf8_datagrams"`
	Definitions       uint64 `json:"definitions"`
}

func (s *UDPServer) bump(counter *uint64) {
	s.mu.Lock()
	*counter++
	s.mu.Unlock()
}

// LocalAddr returns the bound UDP address, nil before Start.
func (s *UDPServer) LocalAddr() net.Addr {
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}
