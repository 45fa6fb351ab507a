package dispatch

// Request is the transient value built for a single publish call.
type Request struct {
	Path    Path
	Params  any
	Version Version
}

// Outcome is the result of a publish call.
//
// Handled is false when no broker matched (not found). Otherwise BrokerID names the
// broker that ran and Result/Err carry its return values unchanged.
type Outcome struct {
	Handled  bool
	BrokerID ID
	Result   any
	Err      error
}

// NotFound returns the outcome for a request no broker accepted.
func NotFound() Outcome { return Outcome{} }

// Completed returns the outcome for a request the broker id ran.
func Completed(id ID, result any, err error) Outcome {
	return Outcome{Handled: true, BrokerID: id, Result: result, Err: err}
}

// Found reports whether a broker handled the request.
func (o Outcome) Found() bool { return o.Handled }
