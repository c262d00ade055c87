package main

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/zycart/zycart-backend/pkg/config"
	"github.com/zycart/zycart-backend/pkg/kafka"
	"github.com/zycart/zycart-backend/pkg/logger"
	"github.com/zycart/zycart-backend/pkg/pubsub"
)

type closableSink interface {
	sink
	Close() error
}

// newSink builds the broker selected by ZYCART_EVENTING_PUBLISHER.
func newSink(ctx context.Context, cfg *config.Config, topics []string, logg *logger.Logger) (closableSink, error) {
	switch cfg.Eventing.PublisherKind() {
	case config.PublisherKafka:
		return kafka.NewProducer(cfg.Kafka, topics, logg)
	case config.PublisherPubSub:
		return pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, topics, logg)
	default:
		return nil, fmt.Errorf("unsupported publisher %q", cfg.Eventing.Publisher)
	}
}

func closeAll(closers ...func() error) error {
	var errs error
	for _, c := range closers {
		errs = multierr.Append(errs, c())
	}
	return errs
}
