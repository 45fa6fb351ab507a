package nats

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/next-trace/scg-dispatch/contract/dispatch"
	berr "github.com/next-trace/scg-dispatch/contract/errors"
)

const recordsPrefix = "dispatch.records."

// Client is a minimal NATS-like publisher interface decoupled from any concrete library.
// Users can provide a wrapper around their NATS connection to satisfy this.
type Client interface {
	// Publish publishes a message to a subject with optional headers.
	Publish(subject string, data []byte, headers map[string]string) error
}

// Adapter implements dispatch.RecordPublisher using an injected NATS-like Client.
type Adapter struct {
	Client Client
}

var _ dispatch.RecordPublisher = (*Adapter)(nil)

// New creates a new NATS adapter instance with the provided client.
func New(c Client) *Adapter { return &Adapter{Client: c} }

func (a *Adapter) PublishRecord(ctx context.Context, rec dispatch.Record, opts dispatch.PublishOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if a.Client == nil {
		return fmt.Errorf("nats publish record: %w", berr.ErrRelayNotConfigured)
	}

	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("nats publish record serialize: %w", errors.Join(berr.ErrSerializationFailed, err))
	}

	if err := a.Client.Publish(subjectForRecord(rec, opts), body, recordHeaders(rec, opts)); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		return fmt.Errorf("nats publish record: %w", errors.Join(berr.ErrPublishFailed, err))
	}

	return nil
}

// helpers

var subjectReplacer = strings.NewReplacer(" ", "_", "\t", "_", "*", "_", ">", "_")

func subjectForRecord(rec dispatch.Record, o dispatch.PublishOptions) string {
	if o.SubjectOverride != "" {
		return o.SubjectOverride
	}

	token := subjectReplacer.Replace(string(rec.Path))
	if token == "" {
		token = "_"
	}

	return recordsPrefix + token
}

func recordHeaders(rec dispatch.Record, o dispatch.PublishOptions) map[string]string {
	h := make(map[string]string, len(o.Headers)+3)
	for k, v := range o.Headers {
		h[k] = v
	}

	h["x-dispatch-handled"] = strconv.FormatBool(rec.Handled)
	h["x-dispatch-version"] = strconv.FormatUint(uint64(rec.Version), 10)

	if rec.BrokerID != "" {
		h["x-dispatch-broker"] = string(rec.BrokerID)
	}

	return h
}
