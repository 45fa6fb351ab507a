// Package relay selects the record publisher named by configuration.
package relay

import (
	"fmt"

	"github.com/next-trace/scg-dispatch/adapters/inmemory"
	"github.com/next-trace/scg-dispatch/adapters/kafka"
	natsadapter "github.com/next-trace/scg-dispatch/adapters/nats"
	"github.com/next-trace/scg-dispatch/adapters/rabbitmq"
	"github.com/next-trace/scg-dispatch/config"
	"github.com/next-trace/scg-dispatch/contract/dispatch"
	berr "github.com/next-trace/scg-dispatch/contract/errors"
)

// FromConfig connects the relay for cfg.Kind. For RelayNone the publisher is nil and the
// dispatcher records nothing. The cleanup is never nil.
func FromConfig(cfg config.RelayConfig) (dispatch.RecordPublisher, dispatch.PublishOptions, func(), error) {
	opts := dispatch.PublishOptions{SubjectOverride: cfg.Subject}
	noop := func() {}

	switch cfg.Kind {
	case "", config.RelayNone:
		return nil, opts, noop, nil
	case config.RelayMemory:
		return inmemory.New(), opts, noop, nil
	case config.RelayNATS:
		ad, cleanup, err := natsadapter.NewWithNATS(natsadapter.Config{
			URL:           cfg.NATS.URL,
			Name:          cfg.NATS.Name,
			ConnTimeout:   cfg.NATS.ConnTimeout,
			MaxReconnects: cfg.NATS.MaxReconnects,
		})
		if err != nil {
			return nil, opts, noop, err
		}

		return ad, opts, cleanup, nil
	case config.RelayKafka:
		ad, cleanup, err := kafka.NewWithKgo(kafka.Config{
			Brokers:    cfg.Kafka.Brokers,
			ClientID:   cfg.Kafka.ClientID,
			Idempotent: cfg.Kafka.Idempotent,
		})
		if err != nil {
			return nil, opts, noop, err
		}

		return ad, opts, cleanup, nil
	case config.RelayRabbitMQ:
		ad, cleanup, err := rabbitmq.NewWithAMQPConn(rabbitmq.Config{
			URL:         cfg.RabbitMQ.URL,
			ConnTimeout: cfg.RabbitMQ.ConnTimeout,
		})
		if err != nil {
			return nil, opts, noop, err
		}

		return ad, opts, cleanup, nil
	default:
		return nil, opts, noop, fmt.Errorf("%w: unknown relay kind %q", berr.ErrInvalidConfig, cfg.Kind)
	}
}
