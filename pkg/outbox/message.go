package outbox

import (
	"time"

	"github.com/zycart/zycart-backend/pkg/db/models"
)

// Message is the broker-neutral form of an outbox row handed to a sink.
type Message struct {
	Topic      string
	Key        string
	Data       []byte
	Attributes map[string]string
}

// NewMessage builds the broker message for row. The aggregate id is used as
// the ordering key so events for one order stay in sequence.
func NewMessage(topic string, row models.OutboxEvent, envelope PayloadEnvelope) Message {
	return Message{
		Topic: topic,
		Key:   row.AggregateID.String(),
		Data:  row.Payload,
		Attributes: map[string]string{
			"event_id":       envelope.EventID,
			"event_type":     string(row.EventType),
			"aggregate_type": string(row.AggregateType),
			"aggregate_id":   row.AggregateID.String(),
			"created_at":     row.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
	}
}
