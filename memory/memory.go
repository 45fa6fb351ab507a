package memory

import (
	"github.com/next-trace/scg-dispatch/adapters/inmemory"
	"github.com/next-trace/scg-dispatch/contract/dispatch"
	"github.com/next-trace/scg-dispatch/dispatcher"
)

// New constructs a dispatcher that relays its records to an in-memory recorder, and
// returns it together with the recorder and a cleanup function that closes the dispatcher.
// Extra options are applied after the recorder is wired.
func New(opts ...dispatcher.Option) (*dispatcher.Dispatcher, *inmemory.Recorder, func()) {
	rec := inmemory.New()

	all := append([]dispatcher.Option{dispatcher.WithRecorder(rec, dispatch.PublishOptions{})}, opts...)
	d := dispatcher.New(all...)
	cleanup := func() { _ = d.Close() }

	return d, rec, cleanup
}
