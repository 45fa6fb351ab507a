package dispatch

import "context"

// Dispatcher is the contract-only view of the concrete dispatcher.
// It is intended for consumers that want to depend only on contracts.
type Dispatcher interface {
	// Registration
	Register(b Broker)
	Unregister(id ID)

	// Publish resolves and runs a broker, waiting for it to finish.
	Publish(ctx context.Context, path Path, params any, version Version) Outcome
	// PublishAsync does the same on a separate goroutine and hands the outcome to done.
	PublishAsync(ctx context.Context, path Path, params any, version Version, done func(Outcome))

	// Lifecycle
	Close() error
}
