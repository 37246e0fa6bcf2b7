package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/reStrike-d-o-o/reStrike-VTA/internal/config"
	"github.com/reStrike-d-o-o/reStrike-VTA/internal/dispatch"
	"github.com/reStrike-d-o-o/reStrike-VTA/internal/match"
	"github.com/reStrike-d-o-o/reStrike-VTA/internal/metrics"
	"github.com/reStrike-d-o-o/reStrike-VTA/internal/protocol"
)

// Service identity reported by the monitoring API, the startup log, and the
// version command.
const (
	ServiceName    = "restrike-vta"
	ServiceVersion = "1.0.0"
)

// HTTPServer provides HTTP API endpoints for monitoring and management
type HTTPServer struct {
	server     *http.Server
	logger     *slog.Logger
	config     *config.Config
	udpServer  *UDPServer
	dispatcher *dispatch.Dispatcher
	table      *protocol.Table
	tracker    *match.Tracker
	metrics    *metrics.Metrics

	startTime time.Time
}

// NewHTTPServer creates a new HTTP API server
func NewHTTPServer(cfg *config.HTTPConfig, logger *slog.Logger, appConfig *config.Config,
	udpServer *UDPServer, dispatcher *dispatch.Dispatcher, table *protocol.Table,
	tracker *match.Tracker, m *metrics.Metrics) *HTTPServer {

	h := &HTTPServer{
		logger:     logger,
		config:     appConfig,
		udpServer:  udpServer,
		dispatcher: dispatcher,
		table:      table,
		tracker:    tracker,
		metrics:    m,
		startTime:  time.Now(),
	}

	// Create HTTP server with routes
	mux := http.NewServeMux()
	h.setupRoutes(mux)

	h.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Address, cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return h
}

// setupRoutes configures HTTP API routes
func (h *HTTPServer) setupRoutes(mux *http.ServeMux) {
	// Health check endpoint
	mux.HandleFunc("/health", h.withMetrics("/health", h.handleHealth))

	// Protocol definition endpoints
	mux.HandleFunc("/schema", h.withMetrics("/schema", h.handleSchema))
	mux.HandleFunc("/schema/reload", h.withMetrics("/schema/reload", h.handleSchemaReload))
	mux.HandleFunc("/schema/", h.withMetrics("/schema/{code}", h.handleSchemaDetail))

	// Current match state endpoint
	mux.HandleFunc("/match", h.withMetrics("/match", h.handleMatch))

	// Configuration endpoint
	mux.HandleFunc("/config", h.withMetrics("/config", h.handleConfig))

	// Statistics endpoint
	mux.HandleFunc("/stats", h.withMetrics("/stats", h.handleStats))

	// Prometheus metrics endpoint (no metrics needed for metrics endpoint)
	mux.Handle("/metrics", promhttp.Handler())

	// Root endpoint with API documentation
	mux.HandleFunc("/", h.withMetrics("/", h.handleRoot))
}

// withMetrics wraps an HTTP handler with metrics collection
func (h *HTTPServer) withMetrics(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		// Create a response writer wrapper to capture status code
		ww := &responseWriter{ResponseWriter: w, statusCode: 200}

		// Call the original handler
		handler(ww, r)

		// Record metrics
		duration := time.Since(startTime).Seconds()
		statusCode := fmt.Sprintf("%d", ww.statusCode)

		h.metrics.RecordHTTPRequest(r.Method, endpoint, statusCode, duration)

		// Record error if status code indicates an error
		if ww.statusCode >= 400 {
			errorType := "client_error"
			if ww.statusCode >= 500 {
				errorType = "server_error"
			}
			h.metrics.RecordHTTPError(r.Method, endpoint, errorType)
		}
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start starts the HTTP server
func (h *HTTPServer) Start() error {
	h.logger.Info("Starting HTTP API server",
		slog.String("address", h.server.Addr),
	)

	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.logger.Error("HTTP server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Stop gracefully stops the HTTP server
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.logger.Info("Stopping HTTP API server...")

	return h.server.Shutdown(ctx)
}

// handleHealth implements the /health endpoint
func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(h.startTime)
	udpStats := h.udpServer.GetStatistics()
	dispatchStats := h.dispatcher.GetStatistics()

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"uptime":    uptime.String(),
		"service": map[string]interface{}{
			"name":    ServiceName,
			"version": ServiceVersion,
		},
		"components": map[string]interface{}{
			"udp_server": map[string]interface{}{
				"status":             "running",
				"datagrams_received": udpStats.DatagramsReceived,
				"messages_parsed":    udpStats.MessagesParsed,
				"parse_errors":       udpStats.ParseErrors,
				"definitions":        udpStats.Definitions,
			},
			"dispatcher": map[string]interface{}{
				"status":           "running",
				"matched_messages": dispatchStats.MatchedMessages,
				"published_events": dispatchStats.PublishedEvents,
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

// handleSchema implements the /schema endpoint
func (h *HTTPServer) handleSchema(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	families := h.table.Families()
	definitions := make([]map[string]interface{}, 0, len(families))
	for _, def := range families {
		definitions = append(definitions, definitionDoc(def))
	}

	response := map[string]interface{}{
		"total_definitions": len(definitions),
		"timestamp":         time.Now().UTC(),
		"definitions":       definitions,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleSchemaReload implements the POST /schema/reload endpoint
func (h *HTTPServer) handleSchemaReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	count, err := h.udpServer.LoadSchema()
	if err != nil {
		h.logger.Error("Schema reload failed", slog.String("error", err.Error()))
		http.Error(w, "Schema reload failed", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"status":      "reloaded",
		"definitions": count,
		"timestamp":   time.Now().UTC(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleSchemaDetail implements the /schema/{code} endpoint
func (h *HTTPServer) handleSchemaDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Extract stream code from URL path
	code := r.URL.Path[len("/schema/"):]
	if code == "" {
		http.Error(w, "Stream code required", http.StatusBadRequest)
		return
	}

	def, ok := h.table.Lookup(code)
	if !ok {
		http.Error(w, "Unknown stream code", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(definitionDoc(def))
}

// handleMatch implements the /match endpoint
func (h *HTTPServer) handleMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.tracker == nil {
		http.Error(w, "Match tracking not enabled", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.tracker.Snapshot())
}

// handleConfig implements the /config endpoint
func (h *HTTPServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Secrets are masked before the configuration leaves the process
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.config.Redacted())
}

// handleStats implements the /stats endpoint
func (h *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	udpStats := h.udpServer.GetStatistics()
	dispatchStats := h.dispatcher.GetStatistics()
	uptime := time.Since(h.startTime)

	stats := map[string]interface{}{
		"uptime":    uptime.String(),
		"timestamp": time.Now().UTC(),
		"udp":       udpStats,
		"dispatch":  dispatchStats,
	}
	if h.tracker != nil {
		stats["match"] = h.tracker.Snapshot()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// handleRoot implements the / endpoint with API documentation
func (h *HTTPServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	apiDoc := map[string]interface{}{
		"service": "reStrike VTA Telemetry Service",
		"version": ServiceVersion,
		"endpoints": map[string]interface{}{
			"GET /":               "API documentation",
			"GET /health":         "Service health check",
			"GET /schema":         "List loaded protocol definitions",
			"GET /schema/{code}":  "Get the definition owning a stream code",
			"POST /schema/reload": "Reload protocol definitions from the schema source",
			"GET /match":          "Current match state",
			"GET /config":         "Get service configuration",
			"GET /stats":          "Get service statistics",
			"GET /metrics":        "Prometheus metrics",
		},
		"timestamp": time.Now().UTC(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(apiDoc)
}

// definitionDoc renders a protocol definition for API responses
func definitionDoc(def *protocol.Definition) map[string]interface{} {
	return map[string]interface{}{
		"key":                def.Key,
		"main_streams":       def.MainStreams,
		"required_arguments": def.RequiredArguments,
		"optional_arguments": def.OptionalArguments,
		"examples":           def.Examples,
	}
}
