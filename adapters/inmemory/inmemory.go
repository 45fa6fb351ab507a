package inmemory

import (
	"context"
	"slices"
	"sync"

	"github.com/next-trace/scg-dispatch/contract/dispatch"
)

// Recorder is a thread-safe in-memory implementation of dispatch.RecordPublisher.
// It keeps every published record for testing and examples.
type Recorder struct {
	mu      sync.Mutex
	Records []dispatch.Record
	Options []dispatch.PublishOptions
}

func (r *Recorder) PublishRecord(ctx context.Context, rec dispatch.Record, opts dispatch.PublishOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	r.Records = append(r.Records, rec)
	r.Options = append(r.Options, opts)
	r.mu.Unlock()

	return nil
}

// Snapshot returns a copy of the records published so far.
func (r *Recorder) Snapshot() []dispatch.Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.Records)
}

// Len returns the number of records published so far.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.Records)
}

// Reset drops all recorded records.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.Records = nil
	r.Options = nil
	r.mu.Unlock()
}

var _ dispatch.RecordPublisher = (*Recorder)(nil)

// New creates a new in-memory recorder.
func New() *Recorder { return &Recorder{} }
