package outbox

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/shipment-service/pkg/cloudevents"
	"github.com/wms-platform/shipment-service/pkg/logging"
)

type memoryRepository struct {
	mu      sync.Mutex
	events  map[string]*OutboxEvent
	order   []string
	deleted int64
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{events: make(map[string]*OutboxEvent)}
}

func (r *memoryRepository) Save(_ context.Context, e *OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[e.ID] = e
	r.order = append(r.order, e.ID)
	return nil
}

func (r *memoryRepository) SaveAll(ctx context.Context, events []*OutboxEvent) error {
	for _, e := range events {
		_ = r.Save(ctx, e)
	}
	return nil
}

func (r *memoryRepository) FindUnpublished(_ context.Context, limit int) ([]*OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*OutboxEvent
	for _, id := range r.order {
		e := r.events[id]
		if e.ShouldRetry() {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *memoryRepository) MarkPublished(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.events[id].PublishedAt = &now
	return nil
}

func (r *memoryRepository) IncrementRetry(_ context.Context, id string, msg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[id].RetryCount++
	r.events[id].LastError = msg
	return nil
}

func (r *memoryRepository) DeletePublished(context.Context, time.Duration) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted++
	return 0, nil
}

func (r *memoryRepository) GetByID(_ context.Context, id string) (*OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[id], nil
}

func (r *memoryRepository) FindByAggregateID(context.Context, string) ([]*OutboxEvent, error) {
	return nil, nil
}

type recordingProducer struct {
	mu     sync.Mutex
	err    error
	topics []string
	events []*cloudevents.CloudEvent
}

func (p *recordingProducer) PublishEvent(_ context.Context, topic string, e *cloudevents.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.events = append(p.events, e)
	return nil
}

func testLogger() *logging.Logger {
	cfg := logging.DefaultConfig("outbox-test")
	cfg.Output = io.Discard
	return logging.New(cfg)
}

func newEvent(t *testing.T, shipmentID string) *OutboxEvent {
	t.Helper()
	ce := cloudevents.NewEventFactory(cloudevents.SourceShipmentService).CreateShipmentCreatedEvent(
		context.Background(),
		cloudevents.ShipmentCreatedData{ShipmentID: shipmentID, ShipmentNumber: "SJA2403beef", CustomerID: "c-1", Status: "ShipmentCreated"},
	)
	e, err := NewOutboxEventFromCloudEvent(shipmentID, "Shipment", "logistics.shipment.events", ce)
	require.NoError(t, err)
	return e
}

func TestPublisherProcessOnceMarksPublished(t *testing.T) {
	repo := newMemoryRepository()
	event := newEvent(t, "s-1")
	require.NoError(t, repo.Save(context.Background(), event))

	producer := &recordingProducer{}
	p := NewPublisher(repo, producer, testLogger(), nil, nil)

	p.ProcessOnce(context.Background())

	require.Len(t, producer.events, 1)
	assert.Equal(t, "logistics.shipment.events", producer.topics[0])
	assert.Equal(t, cloudevents.ShipmentCreated, producer.events[0].Type)
	assert.True(t, event.IsPublished())
	assert.Equal(t, 1, p.Stats()["published"])
}

func TestPublisherProcessOnceIncrementsRetryOnFailure(t *testing.T) {
	repo := newMemoryRepository()
	event := newEvent(t, "s-2")
	require.NoError(t, repo.Save(context.Background(), event))

	producer := &recordingProducer{err: errors.New("broker unavailable")}
	p := NewPublisher(repo, producer, testLogger(), nil, nil)

	p.ProcessOnce(context.Background())

	assert.False(t, event.IsPublished())
	assert.Equal(t, 1, event.RetryCount)
	assert.Contains(t, event.LastError, "broker unavailable")
	assert.Equal(t, 1, p.Stats()["failed"])
}

func TestPublisherSkipsExhaustedEvents(t *testing.T) {
	repo := newMemoryRepository()
	event := newEvent(t, "s-3")
	event.RetryCount = event.MaxRetries
	require.NoError(t, repo.Save(context.Background(), event))

	producer := &recordingProducer{}
	p := NewPublisher(repo, producer, testLogger(), nil, nil)

	p.ProcessOnce(context.Background())

	assert.Empty(t, producer.events)
}

func TestPublisherStartStop(t *testing.T) {
	repo := newMemoryRepository()
	require.NoError(t, repo.Save(context.Background(), newEvent(t, "s-4")))

	producer := &recordingProducer{}
	p := NewPublisher(repo, producer, testLogger(), nil, &PublisherConfig{
		PollInterval:    10 * time.Millisecond,
		BatchSize:       10,
		Retention:       time.Hour,
		CleanupInterval: time.Hour,
	})

	require.NoError(t, p.Start(context.Background()))
	assert.Error(t, p.Start(context.Background()))
	assert.True(t, p.IsRunning())

	assert.Eventually(t, func() bool {
		return p.Stats()["published"] == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, p.Stop())
	assert.False(t, p.IsRunning())
	assert.Error(t, p.Stop())
}

func TestOutboxEventRoundTripsCloudEvent(t *testing.T) {
	event := newEvent(t, "s-5")

	ce, err := event.ToCloudEvent()
	require.NoError(t, err)
	assert.Equal(t, "shipment/s-5", ce.Subject)
	assert.Equal(t, "c-1", ce.CustomerID)
	assert.Equal(t, DefaultMaxRetries, event.MaxRetries)
}
