package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zycart/zycart-backend/pkg/config"
	"github.com/zycart/zycart-backend/pkg/db/models"
	"github.com/zycart/zycart-backend/pkg/enums"
	"github.com/zycart/zycart-backend/pkg/logger"
	"github.com/zycart/zycart-backend/pkg/metrics"
	"github.com/zycart/zycart-backend/pkg/outbox"
	"github.com/zycart/zycart-backend/pkg/outbox/registry"
)

const (
	defaultBatchSize      = 50
	defaultPollInterval   = 500 * time.Millisecond
	defaultPublishTimeout = 15 * time.Second
	defaultMaxAttempts    = 10
	maxBackoff            = 10 * time.Second
	jitterWindow          = 250 * time.Millisecond
)

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

// sink is the broker the publisher delivers to: Pub/Sub or Kafka.
type sink interface {
	Ping(context.Context) error
	Publish(context.Context, outbox.Message) error
}

type outboxRepository interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error) error
}

type deadLetterStore interface {
	RecordTx(tx *gorm.DB, event models.OutboxEvent, reason enums.OutboxDLQErrorReason, cause error) error
}

type registryResolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

type PublisherParams struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          dbClient
	Sink        sink
	Repository  outboxRepository
	Registry    registryResolver
	DeadLetters deadLetterStore
	Metrics     *metrics.OutboxMetrics
}

// Publisher drains outbox_events to the configured broker. Each batch is
// claimed and settled inside one transaction.
type Publisher struct {
	logg         *logger.Logger
	db           dbClient
	repo         outboxRepository
	sink         sink
	sinkName     string
	registry     registryResolver
	deadLetters  deadLetterStore
	metrics      *metrics.OutboxMetrics
	batchSize    int
	maxAttempts  int
	pollInterval time.Duration
}

func NewPublisher(params PublisherParams) (*Publisher, error) {
	switch {
	case params.Config == nil:
		return nil, errors.New("config is required")
	case params.Logger == nil:
		return nil, errors.New("logger is required")
	case params.DB == nil:
		return nil, errors.New("database client is required")
	case params.Sink == nil:
		return nil, errors.New("event sink is required")
	case params.Repository == nil:
		return nil, errors.New("outbox repository is required")
	case params.Registry == nil:
		return nil, errors.New("event registry is required")
	case params.DeadLetters == nil:
		return nil, errors.New("dead letter store is required")
	}

	cfg := params.Config.Outbox
	p := &Publisher{
		logg:         params.Logger,
		db:           params.DB,
		repo:         params.Repository,
		sink:         params.Sink,
		sinkName:     params.Config.Eventing.PublisherKind(),
		registry:     params.Registry,
		deadLetters:  params.DeadLetters,
		metrics:      params.Metrics,
		batchSize:    defaultBatchSize,
		maxAttempts:  defaultMaxAttempts,
		pollInterval: defaultPollInterval,
	}
	if cfg.BatchSize > 0 {
		p.batchSize = cfg.BatchSize
	}
	if cfg.MaxAttempts > 0 {
		p.maxAttempts = cfg.MaxAttempts
	}
	if cfg.PollIntervalMS > 0 {
		p.pollInterval = time.Duration(cfg.PollIntervalMS) * time.Millisecond
	}
	return p, nil
}

func (p *Publisher) checkDependencies(ctx context.Context) error {
	if err := p.db.Ping(ctx); err != nil {
		p.logg.Error(ctx, "database ping failed", err)
		return fmt.Errorf("database ping failed: %w", err)
	}
	if err := p.sink.Ping(ctx); err != nil {
		p.logg.Error(ctx, p.sinkName+" ping failed", err)
		return fmt.Errorf("%s ping failed: %w", p.sinkName, err)
	}
	return nil
}

// Run polls until ctx is done. A full batch is followed immediately by the
// next one; an empty batch waits one poll interval; a failed batch backs off.
func (p *Publisher) Run(ctx context.Context) error {
	if err := p.checkDependencies(ctx); err != nil {
		return err
	}

	backoff := p.pollInterval
	for {
		if err := ctx.Err(); err != nil {
			p.logg.Info(ctx, "outbox publisher stopping")
			return err
		}

		processed, err := p.processBatch(ctx)
		var wait time.Duration
		switch {
		case err != nil:
			p.logg.Error(ctx, "outbox publisher batch error", err)
			backoff = nextBackoff(backoff, p.pollInterval, maxBackoff)
			wait = withJitter(backoff)
		case processed:
			backoff = p.pollInterval
			continue
		default:
			backoff = p.pollInterval
			wait = withJitter(p.pollInterval)
		}
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func (p *Publisher) processBatch(ctx context.Context) (bool, error) {
	var claimed int
	start := time.Now()
	err := p.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := p.repo.FetchUnpublishedForPublish(tx, p.batchSize, p.maxAttempts)
		if err != nil {
			return err
		}
		claimed = len(events)
		for _, event := range events {
			if err := p.settle(ctx, tx, event); err != nil {
				return err
			}
		}
		return nil
	})
	if claimed > 0 {
		p.metrics.ObserveBatch(time.Since(start))
	}
	return claimed > 0, err
}

// settle publishes one event and records the outcome. Only storage errors are
// returned; publish failures are recorded on the row.
func (p *Publisher) settle(ctx context.Context, tx *gorm.DB, event models.OutboxEvent) error {
	resolved, err := p.registry.Resolve(event)
	if err != nil {
		return p.deadLetter(ctx, tx, event, outbox.PayloadEnvelope{}, "", enums.OutboxDLQReasonNonRetryable, err)
	}

	topic := resolved.Descriptor.Topic
	pubErr := p.publish(ctx, event, resolved)
	if pubErr == nil {
		if err := p.repo.MarkPublishedTx(tx, event.ID); err != nil {
			return fmt.Errorf("mark published %s: %w", event.ID, err)
		}
		p.metrics.IncPublished(string(event.EventType), topic)
		p.logg.Info(p.logg.WithFields(ctx, eventFields(event, resolved.Envelope, topic)), "outbox event published")
		return nil
	}

	var nonRetry registry.NonRetryableError
	if errors.As(pubErr, &nonRetry) {
		return p.deadLetter(ctx, tx, event, resolved.Envelope, topic, enums.OutboxDLQReasonNonRetryable, pubErr)
	}
	if event.AttemptCount+1 >= p.maxAttempts {
		return p.deadLetter(ctx, tx, event, resolved.Envelope, topic, enums.OutboxDLQReasonMaxAttempts,
			fmt.Errorf("max publish attempts reached: %w", pubErr))
	}

	fields := eventFields(event, resolved.Envelope, topic)
	fields["attempt_count"] = event.AttemptCount + 1
	fields["error"] = pubErr.Error()
	p.logg.Warn(p.logg.WithFields(ctx, fields), "outbox publish failed")
	p.metrics.IncFailed(string(event.EventType))
	if err := p.repo.MarkFailedTx(tx, event.ID, pubErr); err != nil {
		return fmt.Errorf("mark failure %s: %w", event.ID, err)
	}
	return nil
}

func (p *Publisher) deadLetter(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, envelope outbox.PayloadEnvelope, topic string, reason enums.OutboxDLQErrorReason, cause error) error {
	fields := eventFields(event, envelope, topic)
	fields["error_reason"] = reason
	fields["error"] = cause.Error()
	p.logg.Warn(p.logg.WithFields(ctx, fields), "outbox event dead-lettered")

	if err := p.deadLetters.RecordTx(tx, event, reason, cause); err != nil {
		return fmt.Errorf("record dead letter %s: %w", event.ID, err)
	}
	if err := p.repo.MarkTerminalTx(tx, event.ID, cause); err != nil {
		return fmt.Errorf("mark terminal %s: %w", event.ID, err)
	}
	p.metrics.IncDeadLettered(string(reason))
	return nil
}

func (p *Publisher) publish(ctx context.Context, event models.OutboxEvent, resolved *registry.ResolvedEvent) error {
	topic := resolved.Descriptor.Topic
	if topic == "" {
		return registry.NewNonRetryableError(fmt.Errorf("no topic configured for %s", event.EventType))
	}
	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()
	return p.sink.Publish(publishCtx, outbox.NewMessage(topic, event, resolved.Envelope))
}

func eventFields(event models.OutboxEvent, envelope outbox.PayloadEnvelope, topic string) map[string]any {
	fields := map[string]any{
		"outbox_id":      event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID.String(),
		"attempt_count":  event.AttemptCount,
	}
	if envelope.EventID != "" {
		fields["event_id"] = envelope.EventID
		fields["occurred_at"] = envelope.OccurredAt.Format(time.RFC3339Nano)
	}
	if topic != "" {
		fields["topic"] = topic
	}
	if event.LastError != nil {
		fields["last_error"] = *event.LastError
	}
	return fields
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, base, limit time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	return min(current*2, limit)
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + rand.N(jitterWindow)
}
