package rabbitmq

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	berr "github.com/next-trace/scg-dispatch/contract/errors"
)

// Concrete AMQP connection-backed constructor and publisher wrapper with auto-reconnect.

const exchangeKind = "topic"

type Config struct {
	URL         string
	ConnTimeout time.Duration
}

// amqpConn is the part of *amqp.Connection the reconnect loop uses.
type amqpConn interface {
	NotifyClose(receiver chan *amqp.Error) chan *amqp.Error
	Close() error
}

type dialFunc func() (amqpConn, amqpChannel, error)

type reconnectingPublisher struct {
	cfg    Config
	dial   dialFunc
	mu     sync.RWMutex
	conn   amqpConn
	ch     amqpChannel
	closed chan struct{}
	ready  chan struct{} // closed once the first channel is ready
}

func newReconnectingPublisher(cfg Config) (*reconnectingPublisher, func()) {
	rp := newPublisher(cfg, nil)
	go rp.run()

	cleanup := func() { rp.close() }

	return rp, cleanup
}

// newPublisher builds the publisher without starting its loop. A nil dial uses AMQP.
func newPublisher(cfg Config, dial dialFunc) *reconnectingPublisher {
	rp := &reconnectingPublisher{
		cfg:    cfg,
		dial:   dial,
		closed: make(chan struct{}),
		ready:  make(chan struct{}),
	}
	if rp.dial == nil {
		rp.dial = rp.dialAMQP
	}

	return rp
}

func (rp *reconnectingPublisher) Publish(ctx context.Context, m PubMsg) error {
	// Fast path: ensure channel available
	rp.mu.RLock()
	ch := rp.ch
	rp.mu.RUnlock()

	if ch == nil {
		// Wait for readiness or context cancellation
		select {
		case <-rp.ready:
		case <-rp.closed:
			return fmt.Errorf("%w: rabbitmq publisher closed", berr.ErrPublishFailed)
		case <-ctx.Done():
			return ctx.Err()
		}

		rp.mu.RLock()
		ch = rp.ch
		rp.mu.RUnlock()

		if ch == nil {
			return fmt.Errorf("%w: rabbitmq not connected", berr.ErrPublishFailed)
		}
	}

	return amqpChannelPublisher{ch: ch, persistent: true}.Publish(ctx, m)
}

func (rp *reconnectingPublisher) dialAMQP() (amqpConn, amqpChannel, error) {
	conn, err := amqp.DialConfig(rp.cfg.URL, amqp.Config{
		Locale:     "en_US",
		Properties: amqp.Table{"product": "scg-dispatch"},
		Dial:       amqp.DefaultDial(rp.cfg.ConnTimeout),
	})
	if err != nil {
		return nil, nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}

	if err := ch.ExchangeDeclare(Exchange, exchangeKind, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()

		return nil, nil, err
	}

	return conn, ch, nil
}

func (rp *reconnectingPublisher) run() {
	backoff := time.Second

	const maxBackoff = 30 * time.Second

	rng := rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // non-crypto RNG is acceptable for backoff jitter
	readyOnce := sync.Once{}

	for {
		select {
		case <-rp.closed:
			return
		default:
		}

		conn, ch, err := rp.dial()
		if err != nil {
			// exponential backoff with jitter
			sleep := min(backoff+time.Duration(rng.Int63n(int64(backoff/2))), maxBackoff)

			t := time.NewTimer(sleep)
			select {
			case <-rp.closed:
				t.Stop()
				return
			case <-t.C:
			}

			backoff = min(backoff*2, maxBackoff)

			continue
		}

		backoff = time.Second

		if !rp.store(conn, ch) {
			_ = ch.Close()
			_ = conn.Close()

			return
		}

		readyOnce.Do(func() { close(rp.ready) })

		// Block on connection close notifications to trigger reconnect
		notify := conn.NotifyClose(make(chan *amqp.Error, 1))
		select {
		case <-rp.closed:
			return
		case <-notify:
			rp.mu.Lock()
			rp.ch = nil
			rp.conn = nil
			rp.mu.Unlock()

			_ = ch.Close()
			_ = conn.Close()
		}
	}
}

// store publishes a fresh connection unless close already ran.
func (rp *reconnectingPublisher) store(conn amqpConn, ch amqpChannel) bool {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	select {
	case <-rp.closed:
		return false
	default:
	}

	rp.conn = conn
	rp.ch = ch

	return true
}

func (rp *reconnectingPublisher) close() {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	select {
	case <-rp.closed:
		return
	default:
		close(rp.closed)
	}

	if rp.ch != nil {
		_ = rp.ch.Close()
		rp.ch = nil
	}

	if rp.conn != nil {
		_ = rp.conn.Close()
		rp.conn = nil
	}
}

// NewWithAMQPConn dials RabbitMQ with auto-reconnect, declares Exchange, and returns Adapter and cleanup.
func NewWithAMQPConn(cfg Config) (*Adapter, func(), error) {
	if cfg.URL == "" {
		return nil, nil, fmt.Errorf("%w: rabbitmq url required", berr.ErrRelayNotConfigured)
	}

	pub, cleanup := newReconnectingPublisher(cfg)

	return New(pub), cleanup, nil
}
