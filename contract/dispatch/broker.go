package dispatch

import (
	"context"
	"slices"
)

// ID identifies a registered broker. Only equality is used.
type ID string

// Path selects which brokers are eligible for a request. Only equality is used.
type Path string

// Version distinguishes multiple broker implementations of the same path.
// Zero means unversioned.
type Version uint

// Broker is a registered handler capable of servicing requests for one or more paths.
//
// Brokers are owned by the caller. The registry keeps a reference for as long as the
// broker stays registered and only ever calls the methods below; it never mutates a broker.
// Any internal state a broker keeps is its own to protect.
type Broker interface {
	ID() ID
	Paths() []Path
	Version() Version

	// Match may veto a request the broker nominally serves. It is called while the
	// registry lock is held and must not call back into the registry.
	// Implementations that have no extra condition delegate to DefaultMatch.
	Match(path Path, params any, version Version) bool

	// Run services the request. Parameters are untyped; the broker casts them.
	// Implementations must be safe for concurrent use by multiple goroutines.
	Run(ctx context.Context, path Path, params any) (any, error)
}

// DefaultMatch reports whether path is one of the broker's paths.
func DefaultMatch(b Broker, path Path) bool {
	return slices.Contains(b.Paths(), path)
}
