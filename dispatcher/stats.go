package dispatcher

import (
	"sync/atomic"

	"github.com/next-trace/scg-dispatch/contract/dispatch"
)

// PathStats counts publish calls for one path.
type PathStats struct {
	Published uint64
	Handled   uint64
	NotFound  uint64
	// Failed counts handled calls whose broker returned an error.
	Failed uint64
}

type pathCounters struct {
	published atomic.Uint64
	handled   atomic.Uint64
	notFound  atomic.Uint64
	failed    atomic.Uint64
}

func (c *pathCounters) snapshot() PathStats {
	return PathStats{
		Published: c.published.Load(),
		Handled:   c.handled.Load(),
		NotFound:  c.notFound.Load(),
		Failed:    c.failed.Load(),
	}
}

func (d *Dispatcher) count(path dispatch.Path, out dispatch.Outcome) {
	c, _ := d.stats.GetOrCompute(path, func() *pathCounters { return &pathCounters{} })

	c.published.Add(1)

	switch {
	case !out.Handled:
		c.notFound.Add(1)
	case out.Err != nil:
		c.handled.Add(1)
		c.failed.Add(1)
	default:
		c.handled.Add(1)
	}
}

// Stats returns the counters for path. Paths never published report zeros.
func (d *Dispatcher) Stats(path dispatch.Path) PathStats {
	c, ok := d.stats.Get(path)
	if !ok {
		return PathStats{}
	}

	return c.snapshot()
}

// AllStats returns the counters of every path published so far.
func (d *Dispatcher) AllStats() map[dispatch.Path]PathStats {
	out := make(map[dispatch.Path]PathStats, d.stats.Len())

	d.stats.ForEach(func(p dispatch.Path, c *pathCounters) bool {
		out[p] = c.snapshot()
		return true
	})

	return out
}
