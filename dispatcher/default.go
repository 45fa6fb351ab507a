package dispatcher

import "sync"

var (
	defaultOnce sync.Once
	defaultInst *Dispatcher
)

// Default returns the process-wide Dispatcher, creating it on first use.
// Code that needs isolation (tests in particular) should construct its own with New.
func Default() *Dispatcher {
	defaultOnce.Do(func() { defaultInst = New() })
	return defaultInst
}
