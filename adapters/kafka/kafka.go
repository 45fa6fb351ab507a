package kafka

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/next-trace/scg-dispatch/contract/dispatch"
	berr "github.com/next-trace/scg-dispatch/contract/errors"
)

// DefaultTopic receives dispatch records unless PublishOptions.SubjectOverride names another.
const DefaultTopic = "dispatch-records"

// Writer is a minimal Kafka-like writer interface.
// Users can adapt segmentio/kafka-go or any other client to this.
type Writer interface {
	Write(ctx context.Context, topic string, key, value []byte, headers map[string]string) error
}

// Adapter implements dispatch.RecordPublisher using an injected Writer.
// Records are keyed by path so that records of one path stay ordered within a partition.
type Adapter struct {
	Writer Writer
}

var _ dispatch.RecordPublisher = (*Adapter)(nil)

// New creates a new Kafka adapter instance with the provided writer.
func New(w Writer) *Adapter { return &Adapter{Writer: w} }

func (a *Adapter) PublishRecord(ctx context.Context, rec dispatch.Record, opts dispatch.PublishOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if a.Writer == nil {
		return fmt.Errorf("kafka publish record: %w", berr.ErrRelayNotConfigured)
	}

	val, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("kafka publish record serialize: %w", errors.Join(berr.ErrSerializationFailed, err))
	}

	topic := topicForRecord(opts)

	if err = a.Writer.Write(ctx, topic, []byte(rec.Path), val, recordHeaders(rec, opts)); err != nil {
		return wrapProduceErr(topic, err)
	}

	return nil
}

// helpers (duplicated for simplicity and test isolation)

func topicForRecord(o dispatch.PublishOptions) string {
	if o.SubjectOverride != "" {
		return o.SubjectOverride
	}

	return DefaultTopic
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

func wrapProduceErr(topic string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	return fmt.Errorf("kafka publish record to %q: %w", topic, errors.Join(berr.ErrPublishFailed, err))
}
