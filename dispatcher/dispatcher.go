package dispatcher

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alphadose/haxmap"
	"github.com/google/uuid"

	"github.com/next-trace/scg-dispatch/contract/dispatch"
	"github.com/next-trace/scg-dispatch/registry"
)

// Dispatcher resolves requests through a Registry and runs the selected broker.
//
// The registry lock is only held while matching; brokers run outside it, concurrently
// with each other and with later registrations. Dispatcher never reports errors of its
// own: a request nobody serves yields a not-found Outcome, and broker errors are
// returned as-is.
//
// Dispatcher is concurrency-safe and contains no global state; see Default for the
// process-wide instance.
type Dispatcher struct {
	reg *registry.Registry

	// run middleware executed in registration order
	mw []Middleware

	rec     dispatch.RecordPublisher
	recOpts dispatch.PublishOptions

	stats  *haxmap.Map[dispatch.Path, *pathCounters]
	logger *slog.Logger

	closed    atomic.Bool
	closeOnce sync.Once
	cleanup   []func()
}

// Option configures a Dispatcher instance.
type Option func(*Dispatcher)

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithRegistry makes the dispatcher use an existing registry instead of a fresh one.
func WithRegistry(r *registry.Registry) Option {
	return func(d *Dispatcher) {
		if r != nil {
			d.reg = r
		}
	}
}

// WithMiddleware registers run middleware. Middlewares are executed in registration order.
func WithMiddleware(mw ...Middleware) Option {
	return func(d *Dispatcher) { d.mw = append(d.mw, mw...) }
}

// WithRecorder relays a Record of every publish call to pub.
// Relay failures are logged and never reach publish callers.
func WithRecorder(pub dispatch.RecordPublisher, opts dispatch.PublishOptions) Option {
	return func(d *Dispatcher) {
		d.rec = pub
		d.recOpts = opts
	}
}

// WithCleanup registers a function run by Close, e.g. the cleanup returned by an
// adapter constructor. Cleanups run in reverse registration order.
func WithCleanup(fn func()) Option {
	return func(d *Dispatcher) {
		if fn != nil {
			d.cleanup = append(d.cleanup, fn)
		}
	}
}

// New constructs a Dispatcher with its own empty registry.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		reg:    registry.New(),
		stats:  haxmap.New[dispatch.Path, *pathCounters](),
		logger: slog.New(slog.DiscardHandler),
	}

	for _, o := range opts {
		o(d)
	}

	return d
}

var _ dispatch.Dispatcher = (*Dispatcher)(nil)

// Register adds a broker. Registering an id that is already present is a no-op.
func (d *Dispatcher) Register(b dispatch.Broker) {
	if !d.reg.Append(b) {
		d.logger.Debug("broker already registered, ignoring",
			slog.String("broker_id", string(b.ID())),
			slog.Any("version", b.Version()),
		)
	}
}

// Unregister removes the broker with the given id, if any.
func (d *Dispatcher) Unregister(id dispatch.ID) {
	d.reg.Remove(id)
}

// Brokers returns the registered brokers in matching order (ascending version).
func (d *Dispatcher) Brokers() []dispatch.Broker { return d.reg.Snapshot() }

// Publish resolves a broker for the request and runs it, waiting for it to return.
func (d *Dispatcher) Publish(ctx context.Context, path dispatch.Path, params any, version dispatch.Version) dispatch.Outcome {
	return d.publish(ctx, dispatch.Request{Path: path, Params: params, Version: version})
}

// PublishRequest is Publish for an already built Request.
func (d *Dispatcher) PublishRequest(ctx context.Context, req dispatch.Request) dispatch.Outcome {
	return d.publish(ctx, req)
}

// PublishWithMiddleware publishes with additional per-call middleware, run after the
// dispatcher-wide chain.
func (d *Dispatcher) PublishWithMiddleware(
	ctx context.Context,
	req dispatch.Request,
	mws ...Middleware,
) dispatch.Outcome {
	return d.publish(ctx, req, mws...)
}

// PublishAsync publishes on a new goroutine and passes the outcome to done.
// A request nobody serves is delivered as a not-found outcome with nil result and error.
// done may be nil when the caller does not care about the outcome.
func (d *Dispatcher) PublishAsync(
	ctx context.Context,
	path dispatch.Path,
	params any,
	version dispatch.Version,
	done func(dispatch.Outcome),
) {
	req := dispatch.Request{Path: path, Params: params, Version: version}

	go func() {
		out := d.publish(ctx, req)
		if done != nil {
			done(out)
		}
	}()
}

// Call publishes and returns the broker's result and error. found is false when no broker
// matched, in which case result and err are nil.
func (d *Dispatcher) Call(
	ctx context.Context,
	path dispatch.Path,
	params any,
	version dispatch.Version,
) (result any, found bool, err error) {
	out := d.Publish(ctx, path, params, version)
	return out.Result, out.Handled, out.Err
}

func (d *Dispatcher) publish(ctx context.Context, req dispatch.Request, mws ...Middleware) dispatch.Outcome {
	started := time.Now()

	b, ok := d.reg.Match(req.Path, req.Params, req.Version)
	if !ok {
		out := dispatch.NotFound()
		d.observe(ctx, req, out, started)

		return out
	}

	res, err := d.run(ctx, b, req, mws)
	out := dispatch.Completed(b.ID(), res, err)
	d.observe(ctx, req, out, started)

	return out
}

func (d *Dispatcher) run(ctx context.Context, b dispatch.Broker, req dispatch.Request, mws []Middleware) (any, error) {
	final := func(ctx context.Context, inv Invocation) (any, error) {
		return b.Run(ctx, inv.Request.Path, inv.Request.Params)
	}

	if len(d.mw)+len(mws) == 0 {
		return final(ctx, Invocation{Broker: b.ID(), Request: req})
	}

	// Combine global and per-call middleware
	chain := make([]Middleware, 0, len(d.mw)+len(mws))
	chain = append(chain, d.mw...)
	chain = append(chain, mws...)

	// Build chain so the first registered middleware runs first
	h := Handler(final)
	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](h)
	}

	return h(ctx, Invocation{Broker: b.ID(), Request: req})
}

func (d *Dispatcher) observe(ctx context.Context, req dispatch.Request, out dispatch.Outcome, started time.Time) {
	d.count(req.Path, out)

	if d.rec == nil || d.closed.Load() {
		return
	}

	rec := dispatch.Record{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Path:      req.Path,
		Version:   req.Version,
		Handled:   out.Handled,
		BrokerID:  out.BrokerID,
		StartedAt: started.UTC(),
		Elapsed:   time.Since(started),
	}
	if out.Err != nil {
		rec.Error = out.Err.Error()
	}

	if err := d.rec.PublishRecord(ctx, rec, d.recOpts); err != nil {
		d.logger.WarnContext(ctx, "relay dispatch record",
			slog.String("path", string(req.Path)),
			slog.String("record_id", rec.ID),
			slog.String("error", err.Error()),
		)
	}
}

// Close runs registered cleanups once and stops relaying records. Registered brokers stay
// registered and publishing keeps working.
func (d *Dispatcher) Close() error {
	d.closeOnce.Do(func() {
		d.closed.Store(true)

		for i := len(d.cleanup) - 1; i >= 0; i-- {
			d.cleanup[i]()
		}
	})

	return nil
}
