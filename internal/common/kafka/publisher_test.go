package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/common/events"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func newTestPublisher(w *fakeWriter) *Publisher {
	return &Publisher{writer: w, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestPublish(t *testing.T) {
	t.Parallel()

	w := &fakeWriter{}
	p := newTestPublisher(w)

	event, err := events.NewEvent(events.EventOrderPlaced, events.AggregateCheckoutSession, "sess-1",
		events.OrderPlacedData{SessionID: "sess-1", OrderNumber: "ORD-1"})
	require.NoError(t, err)
	event.WithCorrelation("corr-1", "")

	require.NoError(t, p.Publish(context.Background(), event))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "sess-1", string(msg.Key))
	assert.Contains(t, msg.Headers, kafka.Header{Key: "event_type", Value: []byte(events.EventOrderPlaced)})
	assert.Contains(t, msg.Headers, kafka.Header{Key: "correlation_id", Value: []byte("corr-1")})

	var got events.Event
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, event.ID, got.ID)

	var data events.OrderPlacedData
	require.NoError(t, got.DecodeData(&data))
	assert.Equal(t, "ORD-1", data.OrderNumber)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublish_WriteError(t *testing.T) {
	t.Parallel()

	p := newTestPublisher(&fakeWriter{err: errors.New("leader not available")})
	event, err := events.NewEvent(events.EventOrderFailed, events.AggregateCheckoutSession, "sess-1", nil)
	require.NoError(t, err)

	err = p.Publish(context.Background(), event)
	assert.ErrorContains(t, err, "leader not available")
}
