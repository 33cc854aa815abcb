package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingConsumer struct {
	types []string
	seen  []*Envelope
	err   error
}

func (c *recordingConsumer) EventTypes() []string { return c.types }

func (c *recordingConsumer) Handle(_ context.Context, event *Envelope) error {
	c.seen = append(c.seen, event)
	return c.err
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	return m.Called(ctx, routingKey, payload).Error(0)
}

func (m *mockPublisher) Close() error {
	return m.Called().Error(0)
}

func envelopeBytes(t *testing.T, routingKey string) []byte {
	t.Helper()
	raw, err := json.Marshal(Envelope{
		EventID:     uuid.New(),
		AggregateID: uuid.New(),
		RoutingKey:  routingKey,
		OccurredAt:  time.Now().UTC(),
		Data:        json.RawMessage(`{"status":"CONFIRMED"}`),
	})
	require.NoError(t, err)
	return raw
}

func TestInProcessEventBus_DispatchesByRoutingKey(t *testing.T) {
	bus := NewInProcessEventBus(quietLogger())
	booked := &recordingConsumer{types: []string{"booking.appointment.booked"}}
	other := &recordingConsumer{types: []string{"availability.hours.set"}}
	bus.RegisterConsumer(booked)
	bus.RegisterConsumer(other)

	err := bus.Publish(context.Background(), "booking.appointment.booked", envelopeBytes(t, "booking.appointment.booked"))

	require.NoError(t, err)
	require.Len(t, booked.seen, 1)
	assert.JSONEq(t, `{"status":"CONFIRMED"}`, string(booked.seen[0].Data))
	assert.Empty(t, other.seen)
}

func TestInProcessEventBus_ReturnsConsumerErrors(t *testing.T) {
	bus := NewInProcessEventBus(quietLogger())
	failing := &recordingConsumer{types: []string{"k"}, err: errors.New("mailer down")}
	healthy := &recordingConsumer{types: []string{"k"}}
	bus.RegisterConsumer(failing)
	bus.RegisterConsumer(healthy)

	err := bus.Publish(context.Background(), "k", envelopeBytes(t, "k"))

	assert.ErrorContains(t, err, "mailer down")
	assert.Len(t, healthy.seen, 1, "remaining consumers still run")
}

func TestInProcessEventBus_RejectsMalformedPayload(t *testing.T) {
	bus := NewInProcessEventBus(quietLogger())
	assert.Error(t, bus.Publish(context.Background(), "k", []byte("not json")))
}

func TestBreakerPublisher_OpensAfterThreshold(t *testing.T) {
	next := new(mockPublisher)
	next.On("Publish", mock.Anything, "k", mock.Anything).Return(errors.New("connection refused"))

	var transitions []gobreaker.State
	p := NewBreakerPublisher(next, BreakerConfig{Name: "test", FailureThreshold: 2, Timeout: time.Minute}, quietLogger(),
		func(to gobreaker.State) { transitions = append(transitions, to) })

	ctx := context.Background()
	assert.EqualError(t, p.Publish(ctx, "k", nil), "connection refused")
	assert.EqualError(t, p.Publish(ctx, "k", nil), "connection refused")
	assert.ErrorIs(t, p.Publish(ctx, "k", nil), ErrPublisherUnavailable)

	assert.Equal(t, gobreaker.StateOpen, p.State())
	assert.Equal(t, []gobreaker.State{gobreaker.StateOpen}, transitions)
	next.AssertNumberOfCalls(t, "Publish", 2)
}

func TestBreakerPublisher_IgnoresCancellation(t *testing.T) {
	next := new(mockPublisher)
	next.On("Publish", mock.Anything, "k", mock.Anything).Return(context.Canceled)

	p := NewBreakerPublisher(next, BreakerConfig{Name: "test", FailureThreshold: 1}, quietLogger(), nil)
	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, p.Publish(context.Background(), "k", nil), context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, p.State())
}

func TestNoopPublisher(t *testing.T) {
	p := NewNoopPublisher(quietLogger())
	assert.NoError(t, p.Publish(context.Background(), "k", []byte("{}")))
	assert.NoError(t, p.Close())
}
