package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/reStrike-d-o-o/reStrike-VTA/internal/config"
	"github.com/reStrike-d-o-o/reStrike-VTA/internal/dispatch"
	"github.com/reStrike-d-o-o/reStrike-VTA/internal/event"
	"github.com/reStrike-d-o-o/reStrike-VTA/internal/license"
	"github.com/reStrike-d-o-o/reStrike-VTA/internal/match"
	"github.com/reStrike-d-o-o/reStrike-VTA/internal/metrics"
	"github.com/reStrike-d-o-o/reStrike-VTA/internal/obsremote"
	"github.com/reStrike-d-o-o/reStrike-VTA/internal/protocol"
	"github.com/reStrike-d-o-o/reStrike-VTA/internal/server"
	"github.com/reStrike-d-o-o/reStrike-VTA/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the PSS ingestion service",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := initLogger(cfg.Logging)

	logger.Info("Service starting",
		slog.String("service", server.ServiceName),
		slog.String("version", server.ServiceVersion),
		slog.String("config_path", configPath),
	)

	logger.Info("Configuration loaded",
		slog.Int("udp_port", cfg.Server.UDPPort),
		slog.String("bind_address", cfg.Server.BindAddress),
		slog.Int("buffer_size", cfg.Server.BufferSize),
		slog.String("schema_path", cfg.Server.SchemaPath),
		slog.Bool("http_enabled", cfg.HTTP.Enabled),
		slog.Bool("obs_enabled", cfg.OBS.Enabled),
		slog.Bool("storage_enabled", cfg.Storage.Enabled),
		slog.String("log_level", cfg.Logging.Level),
	)

	checkLicense(cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appMetrics := metrics.NewMetrics(prometheus.DefaultRegisterer)
	logger.Info("Prometheus metrics initialized")

	table := protocol.NewTable()

	var schemaSource server.SchemaSource
	if cfg.Server.SchemaPath != "" {
		schemaSource = server.FileSchemaSource(cfg.Server.SchemaPath)
	} else {
		schemaSource = server.EmbeddedSchemaSource()
	}

	// Events fan out to the operator log, the live tracker, and optionally
	// the match recorder and the OBS clip trigger. The slow consumers sit
	// behind bounded async queues so they cannot stall the receive loop.
	tracker := match.NewTracker()
	sinks := event.Sinks{event.NewLogSink(logger), tracker}

	var closers []func()

	if cfg.Storage.Enabled {
		st, err := store.Open(&cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to open match store: %w", err)
		}
		defer st.Close()

		matchID, err := st.Matches().Create(ctx, &store.Match{
			Name:   cfg.Storage.MatchName,
			Date:   time.Now().UTC(),
			Status: store.MatchStatusLive,
		})
		if err != nil {
			return fmt.Errorf("failed to create match record: %w", err)
		}
		logger.Info("Match record created",
			slog.Int64("match_id", matchID),
			slog.String("driver", cfg.Storage.Driver))

		recorder := store.NewEventRecorder(st.Events(), matchID,
			cfg.Storage.GetWriteTimeout(), logger, appMetrics)
		async := event.NewAsyncSink("recorder", recorder, cfg.Storage.QueueSize,
			logger, func() { appMetrics.RecordSinkDrop("recorder") })
		sinks = append(sinks, async)
		closers = append(closers, async.Close)
	}

	if cfg.OBS.Enabled {
		obsClient := obsremote.NewClient(&cfg.OBS, logger, appMetrics)
		if err := obsClient.Connect(ctx); err != nil {
			logger.Warn("OBS connection failed, replay clips disabled until restart",
				slog.String("error", err.Error()))
		}
		trigger := obsremote.NewClipTrigger(obsClient, logger)
		async := event.NewAsyncSink("obs", trigger, cfg.OBS.QueueSize,
			logger, func() { appMetrics.RecordSinkDrop("obs") })
		sinks = append(sinks, async)
		closers = append(closers, async.Close, obsClient.Close)
	}

	dispatcher := dispatch.New(table, sinks, logger, appMetrics)

	udpServer := server.NewUDPServer(&cfg.Server, logger, dispatcher, table, schemaSource, appMetrics)
	logger.Info("UDP server initialized")

	var httpServer *server.HTTPServer
	if cfg.HTTP.Enabled {
		httpServer = server.NewHTTPServer(&cfg.HTTP, logger, cfg, udpServer, dispatcher, table, tracker, appMetrics)
		logger.Info("HTTP API server initialized",
			slog.String("address", fmt.Sprintf("%s:%d", cfg.HTTP.Address, cfg.HTTP.Port)),
		)
	}

	if err := udpServer.Start(); err != nil {
		return fmt.Errorf("failed to start UDP server: %w", err)
	}

	if httpServer != nil {
		if err := httpServer.Start(); err != nil {
			udpServer.Stop()
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Service started successfully, waiting for signals...",
		slog.String("udp_address", fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.UDPPort)),
	)

	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("Context cancelled, shutting down")
	}

	logger.Info("Starting graceful shutdown...")

	// Stop HTTP first (stop accepting new requests), then the receive loop.
	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := httpServer.Stop(shutdownCtx); err != nil {
			logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := udpServer.Stop(); err != nil {
		logger.Error("Error stopping UDP server", slog.String("error", err.Error()))
	}

	// Drain the async sinks, then close their backing services.
	for _, closeFn := range closers {
		closeFn()
	}

	udpStats := udpServer.GetStatistics()
	dispatchStats := dispatcher.GetStatistics()
	logger.Info("Final server statistics",
		slog.Uint64("datagrams_received", udpStats.DatagramsReceived),
		slog.Uint64("messages_parsed", udpStats.MessagesParsed),
		slog.Uint64("parse_errors", udpStats.ParseErrors),
		slog.Uint64("matched_messages", dispatchStats.MatchedMessages),
		slog.Uint64("published_events", dispatchStats.PublishedEvents),
	)

	logger.Info("Service stopped")
	return nil
}

// checkLicense reports license status at startup. An invalid or missing
// license is a warning, never a refusal to start.
func checkLicense(cfg *config.Config, logger *slog.Logger) {
	if cfg.License.KeyPath == "" {
		logger.Warn("No license key configured, running unlicensed")
		return
	}

	lic, err := license.Check(cfg.License.KeyPath)
	if err != nil {
		attrs := []any{
			slog.String("key_path", cfg.License.KeyPath),
			slog.String("error", err.Error()),
		}
		if lic != nil {
			attrs = append(attrs, slog.String("licensee", lic.Licensee))
		}
		logger.Warn("License check failed, continuing", attrs...)
		return
	}

	logger.Info("License valid",
		slog.String("licensee", lic.Licensee),
		slog.String("expires", lic.Expires.Format("2006-01-02")))
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	// Parse log level
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo // default fallback
	}

	// Configure handler options
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug, // Add source info for debug level
	}

	// Determine output destination
	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout", "":
		output = os.Stdout
	default:
		// Assume it's a file path
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stdout\n", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}

	// Create handler based on format
	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	case "text", "":
		handler = slog.NewTextHandler(output, opts)
	default:
		// Default to text format
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
