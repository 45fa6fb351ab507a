package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	json "github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/next-trace/scg-dispatch/contract/dispatch"
	berr "github.com/next-trace/scg-dispatch/contract/errors"
)

const (
	// Exchange is the topic exchange dispatch records are published to.
	Exchange       = "dispatch"
	recordsRouting = "records."
)

type PubMsg struct {
	Exchange   string
	RoutingKey string
	Body       []byte
	Headers    map[string]string
}

type Publisher interface {
	Publish(ctx context.Context, m PubMsg) error
}

type Adapter struct {
	Publisher  Publisher
	Propagator dispatch.HeaderPropagator // optional, for context propagation into headers
}

var _ dispatch.RecordPublisher = (*Adapter)(nil)

func New(p Publisher) *Adapter { return &Adapter{Publisher: p} }

// NewWithPropagator allows configuring a HeaderPropagator for context propagation.
func NewWithPropagator(p Publisher, hp dispatch.HeaderPropagator) *Adapter {
	return &Adapter{Publisher: p, Propagator: hp}
}

func (a *Adapter) PublishRecord(ctx context.Context, rec dispatch.Record, opts dispatch.PublishOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if a.Publisher == nil {
		return fmt.Errorf("rabbitmq publish record: %w", berr.ErrRelayNotConfigured)
	}

	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("rabbitmq publish record serialize: %w", errors.Join(berr.ErrSerializationFailed, err))
	}

	hdrs := recordHeaders(rec, opts)
	// Inject tracing context via configured propagator (keeps adapter decoupled)
	if a.Propagator != nil {
		a.Propagator.Inject(ctx, hdrs)
	}

	msg := PubMsg{
		Exchange:   Exchange,
		RoutingKey: routingForRecord(rec, opts),
		Body:       body,
		Headers:    hdrs,
	}
	if err := a.Publisher.Publish(ctx, msg); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		return fmt.Errorf("rabbitmq publish record: %w", errors.Join(berr.ErrPublishFailed, err))
	}

	return nil
}

func routingForRecord(rec dispatch.Record, o dispatch.PublishOptions) string {
	if o.SubjectOverride != "" {
		return o.SubjectOverride
	}

	return recordsRouting + string(rec.Path)
}

// recordHeaders copies caller headers so the caller's map is never mutated.
func recordHeaders(rec dispatch.Record, o dispatch.PublishOptions) map[string]string {
	h := make(map[string]string, len(o.Headers)+4)
	for k, v := range o.Headers {
		h[k] = v
	}

	h["x-dispatch-handled"] = strconv.FormatBool(rec.Handled)
	h["x-dispatch-version"] = strconv.FormatUint(uint64(rec.Version), 10)

	if rec.BrokerID != "" {
		h["x-dispatch-broker"] = string(rec.BrokerID)
	}

	return h
}

func toTable(headers map[string]string) amqp.Table {
	if len(headers) == 0 {
		return nil
	}

	h := amqp.Table{}
	for k, v := range headers {
		h[k] = v
	}

	return h
}

// amqpChannel is the part of *amqp.Channel the publishers use.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type amqpChannelPublisher struct {
	ch         amqpChannel
	persistent bool
}

func (p amqpChannelPublisher) Publish(ctx context.Context, m PubMsg) error {
	msg := amqp.Publishing{
		Headers:     toTable(m.Headers),
		Body:        m.Body,
		ContentType: "application/json",
	}
	if p.persistent {
		msg.DeliveryMode = amqp.Persistent
	}

	return p.ch.PublishWithContext(ctx, m.Exchange, m.RoutingKey, false, false, msg)
}

// NewWithAMQPChannel wraps an existing channel. The caller owns the channel and is
// responsible for declaring Exchange on it.
func NewWithAMQPChannel(ch *amqp.Channel) *Adapter {
	return newChannelAdapter(ch)
}

func newChannelAdapter(ch amqpChannel) *Adapter {
	return &Adapter{Publisher: amqpChannelPublisher{ch: ch}}
}
