package dispatcher

import (
	"context"

	"github.com/next-trace/scg-dispatch/contract/dispatch"
)

// BatchOptions controls Batch execution behavior.
// OnProgress is called after each request completes with done and total.
// OnOutcome is called with the index and outcome of each request.
type BatchOptions struct {
	OnProgress func(done, total int)
	OnOutcome  func(index int, req dispatch.Request, out dispatch.Outcome)
}

// BatchOpt configures BatchOptions.
type BatchOpt func(*BatchOptions)

// WithBatchProgress sets the progress callback.
func WithBatchProgress(fn func(done, total int)) BatchOpt {
	return func(o *BatchOptions) { o.OnProgress = fn }
}

// WithBatchOutcome sets the per-request outcome callback.
func WithBatchOutcome(fn func(index int, req dispatch.Request, out dispatch.Outcome)) BatchOpt {
	return func(o *BatchOptions) { o.OnOutcome = fn }
}

// Batch publishes the requests sequentially and returns their outcomes in order.
// It stops before the next request once ctx is done and returns the outcomes gathered so
// far together with ctx.Err(). Broker errors stay inside the outcomes.
func (d *Dispatcher) Batch(ctx context.Context, reqs []dispatch.Request, opts ...BatchOpt) ([]dispatch.Outcome, error) {
	var o BatchOptions
	for _, f := range opts {
		f(&o)
	}

	total := len(reqs)
	outs := make([]dispatch.Outcome, 0, total)

	for i, req := range reqs {
		if err := ctx.Err(); err != nil { // canceled or deadline exceeded
			return outs, err
		}

		out := d.publish(ctx, req)
		outs = append(outs, out)

		if o.OnOutcome != nil {
			o.OnOutcome(i, req, out)
		}

		if o.OnProgress != nil {
			o.OnProgress(i+1, total)
		}
	}

	return outs, nil
}
