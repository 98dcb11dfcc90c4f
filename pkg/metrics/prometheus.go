package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	registry *prometheus.Registry

	// HTTP Request Metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// WebSocket Metrics
	websocketConnections   prometheus.Gauge
	websocketMessagesTotal *prometheus.CounterVec

	// Call Metrics
	callsStartedTotal   prometheus.Counter
	callsEndedTotal     prometheus.Counter
	callsActive         prometheus.Gauge
	callDuration        prometheus.Histogram
	callJoinsTotal      prometheus.Counter
	callLeavesTotal     prometheus.Counter
	speakerTurnsTotal   prometheus.Counter
	callOpsFailedTotal  *prometheus.CounterVec
	speakerQueueDepth   *prometheus.GaugeVec
}

// NewMetrics creates a registry and registers all application metrics on it
func NewMetrics(serviceName string) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	factory := promauto.With(registry)
	constLabels := prometheus.Labels{"service": serviceName}

	return &Metrics{
		registry: registry,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "http_requests_total",
				Help:        "Total number of HTTP requests",
				ConstLabels: constLabels,
			},
			[]string{"method", "endpoint", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "http_request_duration_seconds",
				Help:        "HTTP request latency in seconds",
				ConstLabels: constLabels,
				Buckets:     prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		httpRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name:        "http_requests_in_flight",
				Help:        "Number of HTTP requests currently being processed",
				ConstLabels: constLabels,
			},
		),

		websocketConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name:        "websocket_connections",
				Help:        "Number of active WebSocket connections",
				ConstLabels: constLabels,
			},
		),
		websocketMessagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "websocket_messages_total",
				Help:        "Total number of WebSocket messages",
				ConstLabels: constLabels,
			},
			[]string{"type", "direction"},
		),

		callsStartedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name:        "calls_started_total",
				Help:        "Total number of calls started",
				ConstLabels: constLabels,
			},
		),
		callsEndedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name:        "calls_ended_total",
				Help:        "Total number of calls ended",
				ConstLabels: constLabels,
			},
		),
		callsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name:        "calls_active",
				Help:        "Number of calls currently running",
				ConstLabels: constLabels,
			},
		),
		callDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:        "call_duration_seconds",
				Help:        "Duration of ended calls in seconds",
				ConstLabels: constLabels,
				Buckets:     []float64{60, 300, 600, 1800, 3600, 7200},
			},
		),
		callJoinsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name:        "call_joins_total",
				Help:        "Total number of successful call joins",
				ConstLabels: constLabels,
			},
		),
		callLeavesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name:        "call_leaves_total",
				Help:        "Total number of participants that left a call",
				ConstLabels: constLabels,
			},
		),
		speakerTurnsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name:        "speaker_turns_total",
				Help:        "Total number of speaker-queue advances",
				ConstLabels: constLabels,
			},
		),
		callOpsFailedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "call_operations_failed_total",
				Help:        "Total number of rejected call operations",
				ConstLabels: constLabels,
			},
			[]string{"operation", "code"},
		),
		speakerQueueDepth: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name:        "speaker_queue_depth",
				Help:        "Number of users waiting for the floor per call",
				ConstLabels: constLabels,
			},
			[]string{"call_id"},
		),
	}
}

// GetRegistry returns the registry backing these metrics
func (m *Metrics) GetRegistry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records a completed HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint string, status int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// IncrementHTTPRequestsInFlight increments the in-flight request gauge
func (m *Metrics) IncrementHTTPRequestsInFlight() {
	m.httpRequestsInFlight.Inc()
}

// DecrementHTTPRequestsInFlight decrements the in-flight request gauge
func (m *Metrics) DecrementHTTPRequestsInFlight() {
	m.httpRequestsInFlight.Dec()
}

// WebSocket metrics

func (m *Metrics) IncrementWebSocketConnections() {
	m.websocketConnections.Inc()
}

func (m *Metrics) DecrementWebSocketConnections() {
	m.websocketConnections.Dec()
}

func (m *Metrics) RecordWebSocketMessage(msgType, direction string) {
	m.websocketMessagesTotal.WithLabelValues(msgType, direction).Inc()
}

// Call metrics

func (m *Metrics) RecordCallStarted() {
	m.callsStartedTotal.Inc()
	m.callsActive.Inc()
}

func (m *Metrics) RecordCallEnded(duration time.Duration) {
	m.callsEndedTotal.Inc()
	m.callsActive.Dec()
	m.callDuration.Observe(duration.Seconds())
}

func (m *Metrics) RecordCallJoin() {
	m.callJoinsTotal.Inc()
}

func (m *Metrics) RecordCallLeave() {
	m.callLeavesTotal.Inc()
}

func (m *Metrics) RecordSpeakerTurn() {
	m.speakerTurnsTotal.Inc()
}

func (m *Metrics) RecordCallOpFailure(operation, code string) {
	m.callOpsFailedTotal.WithLabelValues(operation, code).Inc()
}

// SetSpeakerQueueDepth tracks the current queue length for a call
func (m *Metrics) SetSpeakerQueueDepth(callID string, depth int) {
	m.speakerQueueDepth.WithLabelValues(callID).Set(float64(depth))
}

// ClearSpeakerQueueDepth drops the per-call queue gauge after the call ends
func (m *Metrics) ClearSpeakerQueueDepth(callID string) {
	m.speakerQueueDepth.DeleteLabelValues(callID)
}
