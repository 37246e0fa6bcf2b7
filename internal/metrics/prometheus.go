package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the PSS ingestion service
type Metrics struct {
	// UDP datagram metrics
	DatagramsReceived prometheus.Counter
	MessagesParsed    prometheus.Counter
	ParseErrors       prometheus.Counter
	NonUTF8Datagrams  prometheus.Counter

	// Dispatch metrics
	MessagesMatched   prometheus.Counter
	MessagesUnmatched prometheus.Counter
	MessagesUnrouted  prometheus.Counter
	EventsPublished   *prometheus.CounterVec
	SinkDrops         *prometheus.CounterVec

	// Schema metrics
	SchemaReloads      prometheus.Counter
	SchemaReloadErrors prometheus.Counter
	SchemaDefinitions  prometheus.Gauge

	// Collaborator metrics
	OBSRequests *prometheus.CounterVec
	StoreWrites *prometheus.CounterVec

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates all metrics and registers them with reg. Tests pass a
// private registry; the binary passes prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// UDP datagram metrics
		DatagramsReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "pss_datagrams_received_total",
			Help: "Total number of UDP datagrams received",
		}),
		MessagesParsed: factory.NewCounter(prometheus.CounterOpts{
			Name: "pss_messages_parsed_total",
			Help: "Total number of datagrams decoded into messages",
		}),
		ParseErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "pss_parse_errors_total",
			Help: "Total number of datagrams rejected by the message parser",
		}),
		NonUTF8Datagrams: factory.NewCounter(prometheus.CounterOpts{
			Name: "pss_non_utf8_datagrams_total",
			Help: "Total number of datagrams dropped for invalid UTF-8",
		}),

		// Dispatch metrics
		MessagesMatched: factory.NewCounter(prometheus.CounterOpts{
			Name: "pss_messages_matched_total",
			Help: "Total number of messages matching a protocol definition",
		}),
		MessagesUnmatched: factory.NewCounter(prometheus.CounterOpts{
			Name: "pss_messages_unmatched_total",
			Help: "Total number of messages without a protocol definition",
		}),
		MessagesUnrouted: factory.NewCounter(prometheus.CounterOpts{
			Name: "pss_messages_unrouted_total",
			Help: "Total number of matched messages without a semantic decoder",
		}),
		EventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pss_events_published_total",
			Help: "Total number of decoded events published to sinks",
		}, []string{"kind"}),
		SinkDrops: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pss_sink_dropped_events_total",
			Help: "Total number of events dropped by saturated sink queues",
		}, []string{"sink"}),

		// Schema metrics
		SchemaReloads: factory.NewCounter(prometheus.CounterOpts{
			Name: "pss_schema_reloads_total",
			Help: "Total number of successful schema loads",
		}),
		SchemaReloadErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "pss_schema_reload_errors_total",
			Help: "Total number of failed schema loads",
		}),
		SchemaDefinitions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "pss_schema_definitions",
			Help: "Number of protocol definition families currently loaded",
		}),

		// Collaborator metrics
		OBSRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pss_obs_requests_total",
			Help: "Total number of OBS remote requests by type and result",
		}, []string{"request", "result"}),
		StoreWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pss_store_writes_total",
			Help: "Total number of store writes by entity and result",
		}, []string{"entity", "result"}),

		// HTTP API metrics
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pss_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pss_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pss_http_errors_total",
			Help: "Total number of HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// RecordDatagramReceived increments the datagrams received counter
func (m *Metrics) RecordDatagramReceived() {
	m.DatagramsReceived.Inc()
}

// RecordMessageParsed increments the parsed messages counter
func (m *Metrics) RecordMessageParsed() {
	m.MessagesParsed.Inc()
}

// RecordParseError increments the parse errors counter
func (m *Metrics) RecordParseError() {
	m.ParseErrors.Inc()
}

// RecordNonUTF8Datagram increments the non-UTF-8 drop counter
func (m *Metrics) RecordNonUTF8Datagram() {
	m.NonUTF8Datagrams.Inc()
}

// RecordMessageMatched increments the matched messages counter
func (m *Metrics) RecordMessageMatched() {
	m.MessagesMatched.Inc()
}

// RecordMessageUnmatched increments the unmatched messages counter
func (m *Metrics) RecordMessageUnmatched() {
	m.MessagesUnmatched.Inc()
}

// RecordMessageUnrouted increments the unrouted messages counter
func (m *Metrics) RecordMessageUnrouted() {
	m.MessagesUnrouted.Inc()
}

// RecordEventPublished increments the published events counter for a kind
func (m *Metrics) RecordEventPublished(kind string) {
	m.EventsPublished.WithLabelValues(kind).Inc()
}

// RecordSinkDrop increments the dropped events counter for a sink
func (m *Metrics) RecordSinkDrop(sink string) {
	m.SinkDrops.WithLabelValues(sink).Inc()
}

// RecordSchemaReload records a successful schema load and the new family count
func (m *Metrics) RecordSchemaReload(definitions int) {
	m.SchemaReloads.Inc()
	m.SchemaDefinitions.Set(float64(definitions))
}

// RecordSchemaReloadError increments the failed schema load counter
func (m *Metrics) RecordSchemaReloadError() {
	m.SchemaReloadErrors.Inc()
}

// RecordOBSRequest records an OBS remote request outcome
func (m *Metrics) RecordOBSRequest(request string, success bool) {
	m.OBSRequests.WithLabelValues(request, resultLabel(success)).Inc()
}

// RecordStoreWrite records a store write outcome for an entity
func (m *Metrics) RecordStoreWrite(entity string, success bool) {
	m.StoreWrites.WithLabelValues(entity, resultLabel(success)).Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records an HTTP error
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}

func resultLabel(success bool) string {
	if success {
		return "ok"
	}
	return "error"
}
