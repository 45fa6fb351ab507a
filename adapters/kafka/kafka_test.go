package kafka_test

import (
	"context"
	"errors"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/next-trace/scg-dispatch/adapters/kafka"
	"github.com/next-trace/scg-dispatch/contract/dispatch"
	berr "github.com/next-trace/scg-dispatch/contract/errors"
)

type fakeWriter struct {
	calls []struct {
		topic   string
		key     []byte
		value   []byte
		headers map[string]string
	}
	err error
}

func (f *fakeWriter) Write(_ context.Context, topic string, key, value []byte, headers map[string]string) error {
	f.calls = append(f.calls, struct {
		topic   string
		key     []byte
		value   []byte
		headers map[string]string
	}{topic, key, value, headers})

	return f.err
}

func TestKafka_PublishRecord(t *testing.T) {
	fw := &fakeWriter{}
	ad := kafka.New(fw)

	rec := dispatch.Record{ID: "r1", Path: "echo", Version: 1, Handled: true, BrokerID: "a", Error: "denied"}
	if err := ad.PublishRecord(t.Context(), rec, dispatch.PublishOptions{Headers: map[string]string{"h": "1"}}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(fw.calls) != 1 {
		t.Fatalf("want 1, got %d", len(fw.calls))
	}

	c := fw.calls[0]
	if c.topic != kafka.DefaultTopic {
		t.Fatalf("topic: %s", c.topic)
	}

	if string(c.key) != "echo" {
		t.Fatalf("key: %s", c.key)
	}

	if c.headers["h"] != "1" || c.headers["x-dispatch-broker"] != "a" || c.headers["x-dispatch-handled"] != "true" {
		t.Fatalf("headers: %+v", c.headers)
	}

	var got dispatch.Record
	if err := json.Unmarshal(c.value, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got.ID != "r1" || got.Error != "denied" || got.BrokerID != "a" {
		t.Fatalf("value: %+v", got)
	}
}

func TestKafka_TopicOverride(t *testing.T) {
	fw := &fakeWriter{}
	ad := kafka.New(fw)

	if err := ad.PublishRecord(t.Context(), dispatch.Record{Path: "p"}, dispatch.PublishOptions{SubjectOverride: "audit"}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if fw.calls[0].topic != "audit" {
		t.Fatalf("topic: %s", fw.calls[0].topic)
	}
}

func TestKafka_Errors(t *testing.T) {
	if err := kafka.New(nil).PublishRecord(t.Context(), dispatch.Record{}, dispatch.PublishOptions{}); !errors.Is(err, berr.ErrRelayNotConfigured) {
		t.Fatalf("want ErrRelayNotConfigured, got %v", err)
	}

	err := kafka.New(&fakeWriter{err: errors.New("broker down")}).
		PublishRecord(t.Context(), dispatch.Record{}, dispatch.PublishOptions{})
	if !errors.Is(err, berr.ErrPublishFailed) {
		t.Fatalf("want ErrPublishFailed, got %v", err)
	}

	err = kafka.New(&fakeWriter{err: context.DeadlineExceeded}).
		PublishRecord(t.Context(), dispatch.Record{}, dispatch.PublishOptions{})
	if !errors.Is(err, context.DeadlineExceeded) || errors.Is(err, berr.ErrPublishFailed) {
		t.Fatalf("want bare deadline error, got %v", err)
	}
}

func TestNewWithKgo_NoBrokers(t *testing.T) {
	_, _, err := kafka.NewWithKgo(kafka.Config{})
	if !errors.Is(err, berr.ErrRelayNotConfigured) {
		t.Fatalf("want ErrRelayNotConfigured, got %v", err)
	}
}
