package reactive

import (
	stderrors "errors"
	"testing"
)

var errTest = stderrors.New("test failure")

func TestJust_WaitsForDemand(t *testing.T) {
	c := NewCollector[int](None)
	Just(5).Subscribe(c)

	if !c.Subscribed() {
		t.Fatal("expected subscription before any value")
	}
	if len(c.Values()) != 0 {
		t.Fatalf("no value may arrive without demand, got %v", c.Values())
	}
	if _, ok := c.Completion(); ok {
		t.Fatal("completion must wait until the value is delivered")
	}

	c.Request(Max(1))
	assertValues(t, c.Values(), []int{5})
	assertFinished(t, c)
}

func TestFromSlice_BoundedDemand(t *testing.T) {
	c := NewCollector[int](Max(2))
	FromSlice([]int{1, 2, 3, 4}).Subscribe(c)
	assertValues(t, c.Values(), []int{1, 2})

	c.Request(Max(1))
	assertValues(t, c.Values(), []int{1, 2, 3})
	if _, ok := c.Completion(); ok {
		t.Fatal("unexpected completion with a value left")
	}

	c.Request(Max(5))
	assertValues(t, c.Values(), []int{1, 2, 3, 4})
	assertFinished(t, c)
}

func TestFromSlice_DemandReturnedFromOnNext(t *testing.T) {
	c := NewCollector[int](Max(1), WithDemandPerValue(Max(1)))
	FromSlice([]int{1, 2, 3}).Subscribe(c)
	assertValues(t, c.Values(), []int{1, 2, 3})
	assertFinished(t, c)
}

func TestEmpty_CompletesWithoutDemand(t *testing.T) {
	c := NewCollector[int](None)
	Empty[int]().Subscribe(c)
	assertFinished(t, c)
}

func TestFail(t *testing.T) {
	c := NewCollector[int](None)
	Fail[int](errTest).Subscribe(c)
	comp, ok := c.Completion()
	if !ok || comp.Err() != errTest {
		t.Fatalf("expected failure %v, got %v", errTest, comp)
	}
}

func TestFromSliceThenFail(t *testing.T) {
	values, comp, ok := Collect(FromSliceThenFail([]int{1, 2}, errTest))
	if !ok {
		t.Fatal("expected completion")
	}
	assertValues(t, values, []int{1, 2})
	if comp.Err() != errTest {
		t.Errorf("expected %v, got %v", errTest, comp.Err())
	}
}

func TestCancel_IsIdempotentAndStopsDelivery(t *testing.T) {
	c := NewCollector[int](Max(1))
	FromSlice([]int{1, 2, 3}).Subscribe(c)

	c.Cancel()
	c.Cancel()
	c.Request(Max(10))

	assertValues(t, c.Values(), []int{1})
	if _, ok := c.Completion(); ok {
		t.Error("no completion may follow cancel")
	}
}

func TestCancel_ReentrantFromOnNext(t *testing.T) {
	c := NewCollector[int](Unlimited, WithCancelAfter(2))
	FromSlice([]int{1, 2, 3, 4}).Subscribe(c)
	assertValues(t, c.Values(), []int{1, 2})
	if _, ok := c.Completion(); ok {
		t.Error("no completion may follow cancel")
	}
}

func TestRequestAfterCancel_IsNoop(t *testing.T) {
	var sub Subscription
	var got []int
	FromSlice([]int{1, 2}).Subscribe(&funcSubscriber{
		onSubscribe: func(s Subscription) { sub = s },
		onNext: func(v int) Demand {
			got = append(got, v)
			return None
		},
	})
	sub.Cancel()
	sub.Request(Unlimited)
	sub.Cancel()
	if len(got) != 0 {
		t.Errorf("expected no values, got %v", got)
	}
}

func TestPublisher_ResubscriptionIsIndependent(t *testing.T) {
	p := FromSlice([]int{1, 2, 3})

	first := NewCollector[int](Max(1))
	second := NewCollector[int](Unlimited)
	p.Subscribe(first)
	p.Subscribe(second)

	assertValues(t, first.Values(), []int{1})
	assertValues(t, second.Values(), []int{1, 2, 3})
	assertFinished(t, second)
	if _, ok := first.Completion(); ok {
		t.Error("first run must not be advanced by the second")
	}
}

func TestEmitter_LongSynchronousChainDoesNotRecurse(t *testing.T) {
	items := make([]int, 100000)
	c := NewCollector[int](Max(1), WithDemandPerValue(Max(1)))
	FromSlice(items).Subscribe(c)
	if len(c.Values()) != len(items) {
		t.Fatalf("got %d values", len(c.Values()))
	}
	assertFinished(t, c)
}

// funcSubscriber is a minimal Subscriber for tests that need raw access.
type funcSubscriber struct {
	onSubscribe func(Subscription)
	onNext      func(int) Demand
	onComplete  func(Completion)
}

func (f *funcSubscriber) OnSubscribe(s Subscription) {
	if f.onSubscribe != nil {
		f.onSubscribe(s)
	}
}

func (f *funcSubscriber) OnNext(v int) Demand {
	if f.onNext != nil {
		return f.onNext(v)
	}
	return None
}

func (f *funcSubscriber) OnComplete(c Completion) {
	if f.onComplete != nil {
		f.onComplete(c)
	}
}
