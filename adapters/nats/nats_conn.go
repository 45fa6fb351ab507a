package nats

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	berr "github.com/next-trace/scg-dispatch/contract/errors"
)

// Config describes the NATS connection records are relayed over.
type Config struct {
	URL           string
	Name          string
	ConnTimeout   time.Duration
	MaxReconnects int
}

// msgConn is the part of *nats.Conn the relay publishes through.
type msgConn interface {
	PublishMsg(m *nats.Msg) error
	Flush() error
}

type natsClient struct{ nc msgConn }

// Publish sends one record message and flushes so relay errors surface per record.
func (c natsClient) Publish(subject string, data []byte, headers map[string]string) error {
	if err := c.nc.PublishMsg(recordMsg(subject, data, headers)); err != nil {
		return err
	}

	return c.nc.Flush()
}

// recordMsg maps the flat record headers onto single-valued NATS headers.
func recordMsg(subject string, data []byte, headers map[string]string) *nats.Msg {
	msg := nats.NewMsg(subject)
	msg.Data = data

	for k, v := range headers {
		msg.Header.Set(k, v)
	}

	return msg
}

func connectOptions(cfg Config) []nats.Option {
	var opts []nats.Option

	if cfg.Name != "" {
		opts = append(opts, nats.Name(cfg.Name))
	}

	if cfg.ConnTimeout > 0 {
		opts = append(opts, nats.Timeout(cfg.ConnTimeout))
	}

	if cfg.MaxReconnects != 0 {
		opts = append(opts, nats.MaxReconnects(cfg.MaxReconnects))
	}

	return opts
}

// NewWithNATS connects to cfg.URL and returns an Adapter plus a cleanup that drains the
// connection.
func NewWithNATS(cfg Config) (*Adapter, func(), error) {
	if cfg.URL == "" {
		return nil, nil, fmt.Errorf("%w: nats url required", berr.ErrRelayNotConfigured)
	}

	nc, err := nats.Connect(cfg.URL, connectOptions(cfg)...)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: nats connect: %w", berr.ErrPublishFailed, err)
	}

	cleanup := func() {
		if !nc.IsClosed() {
			_ = nc.Drain()
			nc.Close()
		}
	}

	return New(natsClient{nc: nc}), cleanup, nil
}
