package reactive

import (
	"slices"
	"testing"

	"github.com/kbukum/rxkit/errors"
)

func expectViolation(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Fatal("expected protocol violation panic")
		}
		err, ok := r.(error)
		if !ok || !errors.IsCode(err, errors.ErrCodeProtocolViolation) {
			t.Fatalf("expected PROTOCOL_VIOLATION, got %v", r)
		}
	}()
	fn()
}

// demandProbe sums every demand that reaches the point where it is inserted.
type demandProbe struct {
	total    Demand
	requests int
	cancels  int
}

func (p *demandProbe) wrap(upstream Publisher[int]) Publisher[int] {
	return HandleEvents(upstream, func() Hooks[int] {
		return Hooks[int]{
			OnRequest: func(d Demand, _ bool) {
				p.total = p.total.Add(d)
				p.requests++
			},
			OnCancel: func() { p.cancels++ },
		}
	})
}

func assertValues(t *testing.T, got, want []int) {
	t.Helper()
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func assertFinished(t *testing.T, c *Collector[int]) {
	t.Helper()
	comp, ok := c.Completion()
	if !ok {
		t.Fatal("expected completion")
	}
	if !comp.IsFinished() {
		t.Fatalf("expected finished, got %s", comp)
	}
}
