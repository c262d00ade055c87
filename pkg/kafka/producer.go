package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/multierr"

	"github.com/zycart/zycart-backend/pkg/config"
	"github.com/zycart/zycart-backend/pkg/logger"
	"github.com/zycart/zycart-backend/pkg/outbox"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type dialFunc func(ctx context.Context, network, address string) (*kafka.Conn, error)

// Producer publishes outbox messages to Kafka. Messages are keyed by aggregate
// id and hashed onto partitions so one order's events stay ordered.
type Producer struct {
	w       messageWriter
	brokers []string
	topics  []string
	dial    dialFunc
}

var errNoBrokers = errors.New("at least one kafka broker is required")

// NewProducer builds a topic-less writer; each message carries its own topic.
func NewProducer(cfg config.KafkaConfig, topics []string, logg *logger.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errNoBrokers
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  maxAttempts,
		WriteTimeout: writeTimeout,
		ReadTimeout:  writeTimeout,
		BatchTimeout: cfg.BatchTimeout,
	}

	if logg != nil {
		ctx := logg.WithFields(context.Background(), map[string]any{"brokers": cfg.Brokers, "topics": topics})
		logg.Info(ctx, "kafka producer initialized")
	}

	return &Producer{w: w, brokers: cfg.Brokers, topics: topics, dial: kafka.DialContext}, nil
}

// Publish writes msg synchronously.
func (p *Producer) Publish(ctx context.Context, msg outbox.Message) error {
	if msg.Topic == "" {
		return errors.New("kafka message topic is required")
	}
	headers := make([]kafka.Header, 0, len(msg.Attributes))
	for k, v := range msg.Attributes {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return p.w.WriteMessages(ctx, kafka.Message{
		Topic:   msg.Topic,
		Key:     []byte(msg.Key),
		Value:   msg.Data,
		Headers: headers,
	})
}

// Ping dials the first reachable broker and checks the configured topics have
// partitions.
func (p *Producer) Ping(ctx context.Context) error {
	var errs error
	for _, broker := range p.brokers {
		conn, err := p.dial(ctx, "tcp", broker)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("dial %s: %w", broker, err))
			continue
		}
		_, err = conn.ReadPartitions(p.topics...)
		closeErr := conn.Close()
		if err != nil {
			return fmt.Errorf("read partitions: %w", err)
		}
		return closeErr
	}
	return errs
}

// Close flushes pending writes and releases the writer.
func (p *Producer) Close() error {
	if p == nil || p.w == nil {
		return nil
	}
	return p.w.Close()
}
