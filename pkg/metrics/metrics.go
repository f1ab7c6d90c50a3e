package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors
type Metrics struct {
	serviceName string
	registry    *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Kafka metrics
	KafkaEventsPublished *prometheus.CounterVec
	KafkaPublishDuration *prometheus.HistogramVec

	// Database metrics
	DBOperations        *prometheus.CounterVec
	DBOperationDuration *prometheus.HistogramVec
	DBConnectionsOpen   prometheus.Gauge

	// Outbox metrics
	OutboxPending    prometheus.Gauge
	OutboxPublished  *prometheus.CounterVec
	OutboxRetries    *prometheus.CounterVec
	OutboxPublishAge *prometheus.HistogramVec

	// Downstream metrics
	ExternalCalls        *prometheus.CounterVec
	ExternalCallDuration *prometheus.HistogramVec
	CacheLookups         *prometheus.CounterVec

	// Business metrics
	ShipmentsCreated     *prometheus.CounterVec
	PackagesCreated      *prometheus.CounterVec
	PackagesReused       *prometheus.CounterVec
	IdentifierCollisions *prometheus.CounterVec

	// Idempotency metrics
	IdempotencyRequests *prometheus.CounterVec

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec
}

// Config holds metrics configuration
type Config struct {
	ServiceName string
	Namespace   string
}

// DefaultConfig returns default metrics configuration
func DefaultConfig(serviceName string) *Config {
	return &Config{
		ServiceName: serviceName,
		Namespace:   "logistics",
	}
}

// New creates a new Metrics instance backed by its own registry
func New(config *Config) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	ns := config.Namespace
	m := &Metrics{
		serviceName: config.ServiceName,
		registry:    registry,
	}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "http_requests_total", Help: "Total number of HTTP requests"},
		[]string{"service", "method", "path", "status"},
	)
	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"service", "method", "path"},
	)
	m.HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   ns,
			Name:        "http_requests_in_flight",
			Help:        "Number of HTTP requests currently being processed",
			ConstLabels: prometheus.Labels{"service": config.ServiceName},
		},
	)

	m.KafkaEventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "kafka_events_published_total", Help: "Total number of Kafka events published"},
		[]string{"service", "topic", "event_type", "status"},
	)
	m.KafkaPublishDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "kafka_publish_duration_seconds",
			Help:      "Kafka publish duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"service", "topic"},
	)

	m.DBOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "db_operations_total", Help: "Total number of SQL operations"},
		[]string{"service", "table", "operation", "status"},
	)
	m.DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "db_operation_duration_seconds",
			Help:      "SQL operation duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"service", "table", "operation"},
	)
	m.DBConnectionsOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   ns,
			Name:        "db_connections_open",
			Help:        "Number of open database connections",
			ConstLabels: prometheus.Labels{"service": config.ServiceName},
		},
	)

	m.OutboxPending = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   ns,
			Name:        "outbox_pending_events",
			Help:        "Unpublished events fetched in the last outbox poll",
			ConstLabels: prometheus.Labels{"service": config.ServiceName},
		},
	)
	m.OutboxPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "outbox_events_published_total", Help: "Outbox events delivered or failed"},
		[]string{"service", "event_type", "status"},
	)
	m.OutboxRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "outbox_event_retries_total", Help: "Outbox delivery retries"},
		[]string{"service", "event_type"},
	)
	m.OutboxPublishAge = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "outbox_publish_duration_seconds",
			Help:      "Time spent delivering a single outbox event",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"service", "event_type"},
	)

	m.ExternalCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "external_calls_total", Help: "Calls to downstream services"},
		[]string{"service", "downstream", "operation", "status"},
	)
	m.ExternalCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "external_call_duration_seconds",
			Help:      "Downstream call duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"service", "downstream", "operation"},
	)
	m.CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "cache_lookups_total", Help: "Cache lookups by result"},
		[]string{"service", "cache", "result"},
	)

	m.ShipmentsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "shipments_created_total", Help: "Total number of shipments created"},
		[]string{"service", "carrier_type"},
	)
	m.PackagesCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "packages_created_total", Help: "Total number of packages created"},
		[]string{"service", "source"},
	)
	m.PackagesReused = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "packages_reused_total", Help: "Package specs resolved to an existing package"},
		[]string{"service"},
	)
	m.IdentifierCollisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "identifier_collisions_total", Help: "Generated identifiers rejected because they already existed"},
		[]string{"service", "kind"},
	)

	m.IdempotencyRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "idempotency_requests_total", Help: "Requests carrying an Idempotency-Key by outcome"},
		[]string{"service", "method", "outcome"},
	)

	m.CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: ns, Name: "circuit_breaker_state", Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)"},
		[]string{"service", "name"},
	)
	m.CircuitBreakerTrips = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "circuit_breaker_trips_total", Help: "Total number of circuit breaker trips"},
		[]string{"service", "name"},
	)

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.KafkaEventsPublished,
		m.KafkaPublishDuration,
		m.DBOperations,
		m.DBOperationDuration,
		m.DBConnectionsOpen,
		m.OutboxPending,
		m.OutboxPublished,
		m.OutboxRetries,
		m.OutboxPublishAge,
		m.ExternalCalls,
		m.ExternalCallDuration,
		m.CacheLookups,
		m.ShipmentsCreated,
		m.PackagesCreated,
		m.PackagesReused,
		m.IdentifierCollisions,
		m.IdempotencyRequests,
		m.CircuitBreakerState,
		m.CircuitBreakerTrips,
	)

	return m
}

// Handler returns an HTTP handler for metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(m.serviceName, method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(m.serviceName, method, path).Observe(duration.Seconds())
}

// IncrementHTTPRequestsInFlight increments in-flight requests
func (m *Metrics) IncrementHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

// DecrementHTTPRequestsInFlight decrements in-flight requests
func (m *Metrics) DecrementHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}

// RecordKafkaPublish records a Kafka publish event
func (m *Metrics) RecordKafkaPublish(topic, eventType string, success bool, duration time.Duration) {
	m.KafkaEventsPublished.WithLabelValues(m.serviceName, topic, eventType, statusLabel(success)).Inc()
	m.KafkaPublishDuration.WithLabelValues(m.serviceName, topic).Observe(duration.Seconds())
}

// RecordDBOperation records a SQL operation against a table
func (m *Metrics) RecordDBOperation(table, operation string, success bool, duration time.Duration) {
	m.DBOperations.WithLabelValues(m.serviceName, table, operation, statusLabel(success)).Inc()
	m.DBOperationDuration.WithLabelValues(m.serviceName, table, operation).Observe(duration.Seconds())
}

// SetDBConnections sets the number of open database connections
func (m *Metrics) SetDBConnections(count int) {
	m.DBConnectionsOpen.Set(float64(count))
}

// SetOutboxPending sets the size of the last unpublished batch
func (m *Metrics) SetOutboxPending(count int) {
	m.OutboxPending.Set(float64(count))
}

// RecordOutboxPublish records the outcome of delivering one outbox event
func (m *Metrics) RecordOutboxPublish(eventType string, success bool, duration time.Duration) {
	m.OutboxPublished.WithLabelValues(m.serviceName, eventType, statusLabel(success)).Inc()
	m.OutboxPublishAge.WithLabelValues(m.serviceName, eventType).Observe(duration.Seconds())
}

// RecordOutboxRetry records a failed delivery that will be retried
func (m *Metrics) RecordOutboxRetry(eventType string) {
	m.OutboxRetries.WithLabelValues(m.serviceName, eventType).Inc()
}

// RecordExternalCall records a call to a downstream service
func (m *Metrics) RecordExternalCall(downstream, operation string, success bool, duration time.Duration) {
	m.ExternalCalls.WithLabelValues(m.serviceName, downstream, operation, statusLabel(success)).Inc()
	m.ExternalCallDuration.WithLabelValues(m.serviceName, downstream, operation).Observe(duration.Seconds())
}

// RecordCacheLookup records a cache hit or miss
func (m *Metrics) RecordCacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(m.serviceName, cache, result).Inc()
}

// RecordShipmentCreated records a shipment creation
func (m *Metrics) RecordShipmentCreated(carrierType string) {
	m.ShipmentsCreated.WithLabelValues(m.serviceName, carrierType).Inc()
}

// RecordPackagesCreated records packages created by a workflow ("package" or "shipment")
func (m *Metrics) RecordPackagesCreated(source string, count int) {
	m.PackagesCreated.WithLabelValues(m.serviceName, source).Add(float64(count))
}

// RecordPackageReused records a package spec that resolved to an existing package
func (m *Metrics) RecordPackageReused() {
	m.PackagesReused.WithLabelValues(m.serviceName).Inc()
}

// RecordIdentifierCollision records a generated number that already existed
func (m *Metrics) RecordIdentifierCollision(kind string) {
	m.IdentifierCollisions.WithLabelValues(m.serviceName, kind).Inc()
}

// RecordIdempotency records how a keyed request was handled: "miss", "replay",
// "mismatch", "in_flight" or "storage_error"
func (m *Metrics) RecordIdempotency(method, outcome string) {
	m.IdempotencyRequests.WithLabelValues(m.serviceName, method, outcome).Inc()
}

// SetCircuitBreakerState sets the circuit breaker state
func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	m.CircuitBreakerState.WithLabelValues(m.serviceName, name).Set(float64(state))
}

// RecordCircuitBreakerTrip records a circuit breaker trip
func (m *Metrics) RecordCircuitBreakerTrip(name string) {
	m.CircuitBreakerTrips.WithLabelValues(m.serviceName, name).Inc()
}
