package dispatch

import "time"

// Record describes a finished publish call. Parameters and results are never included.
type Record struct {
	ID        string        `json:"id"`
	Path      Path          `json:"path"`
	Version   Version       `json:"version"`
	Handled   bool          `json:"handled"`
	BrokerID  ID            `json:"broker_id,omitempty"`
	Error     string        `json:"error,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	Elapsed   time.Duration `json:"elapsed"`
}
