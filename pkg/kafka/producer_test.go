package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zycart/zycart-backend/pkg/config"
	"github.com/zycart/zycart-backend/pkg/outbox"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishMapsMessage(t *testing.T) {
	w := &recordingWriter{}
	p := &Producer{w: w}

	err := p.Publish(context.Background(), outbox.Message{
		Topic:      "zycart-order-events",
		Key:        "order-1",
		Data:       []byte(`{"version":1}`),
		Attributes: map[string]string{"event_type": "order_placed"},
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "zycart-order-events", msg.Topic)
	assert.Equal(t, []byte("order-1"), msg.Key)
	assert.JSONEq(t, `{"version":1}`, string(msg.Value))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, []byte("order_placed"), msg.Headers[0].Value)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishRequiresTopicAndSurfacesErrors(t *testing.T) {
	w := &recordingWriter{}
	p := &Producer{w: w}
	require.Error(t, p.Publish(context.Background(), outbox.Message{Key: "k"}))

	w.err = errors.New("leader not available")
	err := p.Publish(context.Background(), outbox.Message{Topic: "t", Key: "k"})
	require.ErrorIs(t, err, w.err)
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer(config.KafkaConfig{}, nil, nil)
	require.ErrorIs(t, err, errNoBrokers)

	p, err := NewProducer(config.KafkaConfig{Brokers: []string{"localhost:9092"}}, []string{"t"}, nil)
	require.NoError(t, err)
	require.NoError(t, p.Close())
}

func TestPingAggregatesDialErrors(t *testing.T) {
	p := &Producer{
		brokers: []string{"k1:9092", "k2:9092"},
		dial: func(context.Context, string, string) (*kafka.Conn, error) {
			return nil, errors.New("refused")
		},
	}
	err := p.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "k1:9092")
	assert.Contains(t, err.Error(), "k2:9092")
}
