package dispatcher

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"github.com/next-trace/scg-dispatch/contract/dispatch"
)

// RunFunc is the body of a function-backed broker.
type RunFunc func(ctx context.Context, path dispatch.Path, params any) (any, error)

// MatchFunc is an extra acceptance test for a function-backed broker. It only runs for
// paths the broker serves.
type MatchFunc func(path dispatch.Path, params any, version dispatch.Version) bool

// FuncBroker is a dispatch.Broker backed by plain functions.
type FuncBroker struct {
	id      dispatch.ID
	paths   []dispatch.Path
	version dispatch.Version
	run     RunFunc
	match   MatchFunc
}

// BrokerOption configures a FuncBroker.
type BrokerOption func(*FuncBroker)

// WithMatch adds a predicate that can veto requests for the broker's paths.
func WithMatch(fn MatchFunc) BrokerOption {
	return func(b *FuncBroker) { b.match = fn }
}

// NewBroker builds a function-backed broker. An empty id is replaced with a UUIDv7.
func NewBroker(
	id dispatch.ID,
	paths []dispatch.Path,
	version dispatch.Version,
	run RunFunc,
	opts ...BrokerOption,
) *FuncBroker {
	if id == "" {
		id = dispatch.ID(uuid.Must(uuid.NewV7()).String())
	}

	b := &FuncBroker{
		id:      id,
		paths:   slices.Clone(paths),
		version: version,
		run:     run,
	}

	for _, o := range opts {
		o(b)
	}

	return b
}

var _ dispatch.Broker = (*FuncBroker)(nil)

func (b *FuncBroker) ID() dispatch.ID           { return b.id }
func (b *FuncBroker) Paths() []dispatch.Path    { return b.paths }
func (b *FuncBroker) Version() dispatch.Version { return b.version }

// Match accepts requests for the broker's paths that also pass the optional predicate.
func (b *FuncBroker) Match(path dispatch.Path, params any, version dispatch.Version) bool {
	if !dispatch.DefaultMatch(b, path) {
		return false
	}

	return b.match == nil || b.match(path, params, version)
}

// Run calls the broker function. A broker built without one returns nil, nil.
func (b *FuncBroker) Run(ctx context.Context, path dispatch.Path, params any) (any, error) {
	if b.run == nil {
		return nil, nil
	}

	return b.run(ctx, path, params)
}
