package ircengine

import "testing"

// TestProcessLifecycle checks that a process returning 0, 0, -1 across
// three invocations, each spaced by at least one work slot, is then
// dequeued with its free hook called exactly once.
func TestProcessLifecycle(t *testing.T) {
	calls := 0
	returns := []int{0, 0, -1}
	freed := 0

	fn := func(e *Engine, arg interface{}) int {
		r := returns[calls]
		calls++
		return r
	}
	free := func(arg interface{}) {
		freed++
	}

	pq := NewProcessQueue(nil)
	pq.Enqueue(fn, nil, free, "test", "unit-test", 0)

	now := int64(0)
	for calls < 3 {
		now += 100
		pq.Tick(nil, now)
	}

	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
	if freed != 1 {
		t.Fatalf("freed = %d, want exactly 1", freed)
	}
	if pq.Count() != 0 {
		t.Fatalf("expected process removed after returning negative, count = %d", pq.Count())
	}
}

// TestProcessWorkSlotSpacing checks that a process is never stepped
// twice within the same work slot.
func TestProcessWorkSlotSpacing(t *testing.T) {
	var callTimes []int64
	var current int64

	fn := func(e *Engine, arg interface{}) int {
		callTimes = append(callTimes, current)
		return 0
	}

	pq := NewProcessQueue(nil)
	pq.Enqueue(fn, nil, nil, "test", "unit-test", 0)

	for now := int64(0); now <= 2000; now += 50 {
		current = now
		pq.Tick(nil, now)
	}

	for i := 1; i < len(callTimes); i++ {
		if callTimes[i]-callTimes[i-1] < workSlotMs {
			t.Fatalf("process stepped twice within one work slot: %v", callTimes)
		}
	}
	if len(callTimes) == 0 {
		t.Fatalf("process never stepped")
	}
}

// TestProcessFairness checks that with two processes queued, the
// scheduler visits both round-robin rather than starving one.
func TestProcessFairness(t *testing.T) {
	var order []string

	makeFn := func(name string) ProcessFn {
		return func(e *Engine, arg interface{}) int {
			order = append(order, name)
			return 0
		}
	}

	pq := NewProcessQueue(nil)
	pq.Enqueue(makeFn("a"), nil, nil, "a", "unit-test", 0)
	pq.Enqueue(makeFn("b"), nil, nil, "b", "unit-test", 0)

	now := int64(0)
	for len(order) < 4 {
		now += workSlotMs + 1
		pq.Tick(nil, now)
	}

	if order[0] != "a" || order[1] != "b" || order[2] != "a" || order[3] != "b" {
		t.Fatalf("expected alternating a/b order, got %v", order)
	}
}

func TestDequeueByPidFreesArg(t *testing.T) {
	freed := 0
	free := func(arg interface{}) {
		freed++
	}
	fn := func(e *Engine, arg interface{}) int {
		return 0
	}

	pq := NewProcessQueue(nil)
	pid := pq.Enqueue(fn, nil, free, "test", "unit-test", 0)

	if !pq.DequeueByPid(pid) {
		t.Fatalf("expected DequeueByPid to succeed")
	}
	if freed != 1 {
		t.Fatalf("freed = %d, want 1", freed)
	}
	if pq.FindByPid(pid) != nil {
		t.Fatalf("expected process gone after dequeue")
	}
}
