package inmemory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/next-trace/scg-dispatch/adapters/inmemory"
	"github.com/next-trace/scg-dispatch/contract/dispatch"
)

func TestInmemory_PublishRecordings(t *testing.T) {
	r := inmemory.New()

	opts := dispatch.PublishOptions{SubjectOverride: "audit"}
	if err := r.PublishRecord(t.Context(), dispatch.Record{ID: "1", Path: "echo", Handled: true}, opts); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if err := r.PublishRecord(t.Context(), dispatch.Record{ID: "2", Path: "nope"}, dispatch.PublishOptions{}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	snap := r.Snapshot()
	if len(snap) != 2 || snap[0].ID != "1" || snap[1].Path != "nope" {
		t.Fatalf("snapshot=%+v", snap)
	}

	if r.Options[0].SubjectOverride != "audit" {
		t.Fatalf("options=%+v", r.Options)
	}

	snap[0].ID = "mutated"
	if r.Snapshot()[0].ID != "1" {
		t.Fatalf("snapshot must be a copy")
	}

	r.Reset()

	if r.Len() != 0 {
		t.Fatalf("want empty after reset, got %d", r.Len())
	}
}

func TestInmemory_CanceledContext(t *testing.T) {
	r := inmemory.New()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	if err := r.PublishRecord(ctx, dispatch.Record{}, dispatch.PublishOptions{}); err == nil {
		t.Fatalf("expected context error")
	}

	if r.Len() != 0 {
		t.Fatalf("canceled publish must not record")
	}
}

func TestInmemory_ConcurrentSafety(t *testing.T) {
	r := inmemory.New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_ = r.PublishRecord(t.Context(), dispatch.Record{Path: "p"}, dispatch.PublishOptions{})
		}()
	}

	wg.Wait()

	if r.Len() != 50 {
		t.Fatalf("records=%d", r.Len())
	}
}
