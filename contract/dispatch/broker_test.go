package dispatch_test

import (
	"context"
	"errors"
	"testing"

	"github.com/next-trace/scg-dispatch/contract/dispatch"
)

type pathBroker struct{ paths []dispatch.Path }

func (pathBroker) ID() dispatch.ID           { return "p" }
func (b pathBroker) Paths() []dispatch.Path  { return b.paths }
func (pathBroker) Version() dispatch.Version { return 0 }
func (b pathBroker) Match(p dispatch.Path, _ any, _ dispatch.Version) bool {
	return dispatch.DefaultMatch(b, p)
}

func (pathBroker) Run(context.Context, dispatch.Path, any) (any, error) { return nil, nil }

func TestDefaultMatch(t *testing.T) {
	b := pathBroker{paths: []dispatch.Path{"echo", "upper"}}

	if !dispatch.DefaultMatch(b, "upper") {
		t.Fatalf("want upper to match")
	}

	if dispatch.DefaultMatch(b, "lower") {
		t.Fatalf("want lower to be rejected")
	}

	if dispatch.DefaultMatch(pathBroker{}, "") {
		t.Fatalf("broker without paths must not match")
	}
}

func TestOutcomeConstructors(t *testing.T) {
	nf := dispatch.NotFound()
	if nf.Found() || nf.Result != nil || nf.Err != nil || nf.BrokerID != "" {
		t.Fatalf("not found outcome carries data: %+v", nf)
	}

	boom := errors.New("boom")

	c := dispatch.Completed("a", "res", boom)
	if !c.Found() || c.BrokerID != "a" || c.Result != "res" || !errors.Is(c.Err, boom) {
		t.Fatalf("completed outcome mismatch: %+v", c)
	}
}
