package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/ehr-booking/internal/model"
	"github.com/jwalitptl/ehr-booking/internal/repository/memory"
	"github.com/jwalitptl/ehr-booking/pkg/metrics"
)

type fakeBroker struct {
	mu       sync.Mutex
	fail     bool
	messages map[string][][]byte
}

func (b *fakeBroker) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail {
		return errors.New("broker down")
	}
	if b.messages == nil {
		b.messages = make(map[string][][]byte)
	}
	b.messages[channel] = append(b.messages[channel], payload)
	return nil
}

func (b *fakeBroker) Close() error { return nil }

type MockBroker struct {
	mock.Mock
}

func (m *MockBroker) Publish(ctx context.Context, channel string, payload []byte) error {
	args := m.Called(ctx, channel, payload)
	return args.Error(0)
}

func (m *MockBroker) Close() error {
	return m.Called().Error(0)
}

func appendEvent(t *testing.T, store *memory.Store, eventType string) *model.OutboxEvent {
	t.Helper()
	payload, err := json.Marshal(map[string]string{"type": eventType})
	require.NoError(t, err)
	e := &model.OutboxEvent{EventType: eventType, AggregateID: uuid.New(), Payload: payload}
	require.NoError(t, store.Outbox().Create(context.Background(), e))
	return e
}

func newProcessor(t *testing.T, store *memory.Store, broker *fakeBroker, maxRetries int) (*OutboxProcessor, *metrics.Metrics) {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry(), "test")
	p, err := NewOutboxProcessor(store, broker, OutboxProcessorConfig{
		BatchSize:    10,
		PollInterval: time.Second,
		MaxRetries:   maxRetries,
	}, zerolog.Nop(), m)
	require.NoError(t, err)
	return p, m
}

func TestProcessBatchPublishes(t *testing.T) {
	store := memory.NewStore()
	broker := &fakeBroker{}
	p, m := newProcessor(t, store, broker, 3)

	appendEvent(t, store, model.EventSlotCreated)
	appendEvent(t, store, model.EventAppointmentBooked)

	n, err := p.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, broker.messages["ehr.slot.created"], 1)
	assert.Len(t, broker.messages["ehr.appointment.booked"], 1)
	assert.Equal(t, float64(2), testutil.ToFloat64(m.OutboxEventsProcessed))

	pending, err := store.Outbox().GetPending(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestProcessBatchPublishesStoredPayload(t *testing.T) {
	store := memory.NewStore()
	broker := new(MockBroker)
	p, err := NewOutboxProcessor(store, broker, OutboxProcessorConfig{
		BatchSize:    10,
		PollInterval: time.Second,
		MaxRetries:   3,
	}, zerolog.Nop(), nil)
	require.NoError(t, err)

	e := appendEvent(t, store, model.EventAppointmentBooked)
	broker.On("Publish", mock.Anything, "ehr.appointment.booked", []byte(e.Payload)).Return(nil).Once()

	n, err := p.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	broker.AssertExpectations(t)
}

func TestProcessBatchRetriesThenGivesUp(t *testing.T) {
	store := memory.NewStore()
	broker := &fakeBroker{fail: true}
	p, m := newProcessor(t, store, broker, 2)
	ctx := context.Background()

	appendEvent(t, store, model.EventStaffCreated)

	n, err := p.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	pending, err := store.Outbox().GetPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].RetryCount)
	assert.Equal(t, "broker down", model.StringValue(pending[0].ErrorMessage))

	_, err = p.ProcessBatch(ctx)
	require.NoError(t, err)

	pending, err = store.Outbox().GetPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.OutboxEventsFailed))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.OutboxRetries.WithLabelValues(model.EventStaffCreated)))
}

func TestOutboxProcessorConfigValidation(t *testing.T) {
	_, err := NewOutboxProcessor(memory.NewStore(), &fakeBroker{}, OutboxProcessorConfig{}, zerolog.Nop(), nil)
	assert.Error(t, err)
}

func TestOutboxCleanup(t *testing.T) {
	store := memory.NewStore()
	broker := &fakeBroker{}
	p, _ := newProcessor(t, store, broker, 3)
	ctx := context.Background()

	appendEvent(t, store, model.EventSlotCreated)
	_, err := p.ProcessBatch(ctx)
	require.NoError(t, err)
	unsent := appendEvent(t, store, model.EventSlotUpdated)

	w := NewOutboxCleanupWorker(store.Outbox(), time.Hour, time.Minute, zerolog.Nop())
	rows, err := w.Cleanup(ctx)
	require.NoError(t, err)
	assert.Zero(t, rows)

	w.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	rows, err = w.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	pending, err := store.Outbox().GetPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, unsent.ID, pending[0].ID)
}
