/*
Package registry holds the ordered set of registered brokers and selects the broker that
services a (path, parameters, version) request.
*/
package registry

import (
	"slices"
	"sync"

	"github.com/next-trace/scg-dispatch/contract/dispatch"
)

// Registry is the ordered, id-unique collection of brokers.
//
// Brokers are kept sorted by ascending version; equal versions keep registration order.
// Append, Remove and Match are serialized through a single mutex, so no call observes
// a partially inserted or partially sorted collection. The zero value is ready to use.
type Registry struct {
	mu      sync.Mutex
	brokers []dispatch.Broker
}

// New constructs an empty Registry.
func New() *Registry { return &Registry{} }

// Append registers b unless a broker with the same id is already present, in which case
// it reports false and leaves the existing entry where it is.
func (r *Registry) Append(b dispatch.Broker) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := b.ID()
	if slices.ContainsFunc(r.brokers, func(x dispatch.Broker) bool { return x.ID() == id }) {
		return false
	}

	r.brokers = append(r.brokers, b)
	slices.SortStableFunc(r.brokers, func(a, b dispatch.Broker) int {
		switch {
		case a.Version() < b.Version():
			return -1
		case a.Version() > b.Version():
			return 1
		default:
			return 0
		}
	})

	return true
}

// Remove unregisters every broker with the given id and reports how many were removed.
func (r *Registry) Remove(id dispatch.ID) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	before := len(r.brokers)
	r.brokers = slices.DeleteFunc(r.brokers, func(x dispatch.Broker) bool { return x.ID() == id })

	return before - len(r.brokers)
}

// Match selects the broker for a request.
//
// Brokers serving path whose version equals version are tried first, highest position
// first; a broker whose Match predicate rejects the request is not tried again. Then the
// remaining path matches are tried the same way, regardless of version. Among equal
// versions the later registration wins.
//
// Predicates run with the registry locked and must not call back into r.
func (r *Registry) Match(path dispatch.Path, params any, version dispatch.Version) (dispatch.Broker, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		pathMatches    []dispatch.Broker
		versionMatches []int // indices into pathMatches
	)

	for _, b := range r.brokers {
		if !slices.Contains(b.Paths(), path) {
			continue
		}

		if b.Version() == version {
			versionMatches = append(versionMatches, len(pathMatches))
		}

		pathMatches = append(pathMatches, b)
	}

	rejected := make([]bool, len(pathMatches))

	for i := len(versionMatches) - 1; i >= 0; i-- {
		idx := versionMatches[i]
		if pathMatches[idx].Match(path, params, version) {
			return pathMatches[idx], true
		}

		rejected[idx] = true
	}

	for i := len(pathMatches) - 1; i >= 0; i-- {
		if rejected[i] {
			continue
		}

		if pathMatches[i].Match(path, params, version) {
			return pathMatches[i], true
		}
	}

	return nil, false
}

// Len returns the number of registered brokers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.brokers)
}

// Contains reports whether a broker with the given id is registered.
func (r *Registry) Contains(id dispatch.ID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.ContainsFunc(r.brokers, func(x dispatch.Broker) bool { return x.ID() == id })
}

// Snapshot returns a copy of the registered brokers in registry order.
func (r *Registry) Snapshot() []dispatch.Broker {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.brokers)
}

// Paths returns the distinct paths served by registered brokers, in first-seen order.
func (r *Registry) Paths() []dispatch.Path {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []dispatch.Path

	for _, b := range r.brokers {
		for _, p := range b.Paths() {
			if !slices.Contains(out, p) {
				out = append(out, p)
			}
		}
	}

	return out
}
