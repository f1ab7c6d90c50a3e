package kafka

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/wms-platform/shipment-service/pkg/cloudevents"
	"github.com/wms-platform/shipment-service/pkg/logging"
	"github.com/wms-platform/shipment-service/pkg/metrics"
	"github.com/wms-platform/shipment-service/pkg/resilience"
)

// EventPublisher publishes a single CloudEvent to a topic
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event *cloudevents.CloudEvent) error
}

// CircuitBreakerProducer wraps an EventPublisher with circuit breaker protection
type CircuitBreakerProducer struct {
	producer       EventPublisher
	circuitBreaker *resilience.CircuitBreaker
	closer         func() error
}

// NewCircuitBreakerProducer creates a new circuit breaker protected Kafka producer
func NewCircuitBreakerProducer(producer EventPublisher, logger *logging.Logger, m *metrics.Metrics) *CircuitBreakerProducer {
	config := &resilience.CircuitBreakerConfig{
		Name:                  "kafka-producer",
		MaxRequests:           5,
		Interval:              time.Minute,
		Timeout:               30 * time.Second,
		FailureThreshold:      5,
		FailureRatioThreshold: 0.5,
		MinRequestsToTrip:     10,
	}

	var slogLogger *slog.Logger
	if logger != nil && logger.Logger != nil {
		slogLogger = logger.Logger
	} else {
		slogLogger = slog.Default()
	}

	var observers []resilience.StateObserver
	if m != nil {
		observers = append(observers, func(name string, from, to gobreaker.State) {
			m.SetCircuitBreakerState(name, resilience.StateValue(to))
			if to == gobreaker.StateOpen {
				m.RecordCircuitBreakerTrip(name)
			}
		})
	}

	p := &CircuitBreakerProducer{
		producer:       producer,
		circuitBreaker: resilience.NewCircuitBreaker(config, slogLogger, observers...),
	}
	if c, ok := producer.(interface{ Close() error }); ok {
		p.closer = c.Close
	}
	return p
}

// PublishEvent publishes a CloudEvent with circuit breaker protection
func (p *CircuitBreakerProducer) PublishEvent(ctx context.Context, topic string, event *cloudevents.CloudEvent) error {
	_, err := p.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return nil, p.producer.PublishEvent(ctx, topic, event)
	})
	return err
}

// State returns the breaker state
func (p *CircuitBreakerProducer) State() gobreaker.State {
	return p.circuitBreaker.State()
}

// Close closes the underlying producer
func (p *CircuitBreakerProducer) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer()
}

// NewProductionProducer creates a fully configured Kafka producer with instrumentation and circuit breaker
func NewProductionProducer(config *Config, m *metrics.Metrics, logger *logging.Logger) *CircuitBreakerProducer {
	baseProducer := NewProducer(config)
	instrumentedProducer := NewInstrumentedProducer(baseProducer, m, logger)
	return NewCircuitBreakerProducer(instrumentedProducer, logger, m)
}
