package inputqueue_test

import (
	"testing"

	"tinykernel/internal/inputqueue"
	"tinykernel/internal/kconfig"
)

func TestPushPopFIFOOrder(t *testing.T) {
	r := inputqueue.New[int]()
	for i := 0; i < 5; i++ {
		if !r.Push(i) {
			t.Fatalf("Push(%d) failed unexpectedly", i)
		}
	}
	if r.Count() != 5 {
		t.Fatalf("Count = %d, want 5", r.Count())
	}
	for i := 0; i < 5; i++ {
		v, ok := r.Pop()
		if !ok || v != i {
			t.Fatalf("Pop() = %d, %v, want %d, true", v, ok, i)
		}
	}
}

func TestPopEmptyFails(t *testing.T) {
	r := inputqueue.New[string]()
	if _, ok := r.Pop(); ok {
		t.Fatal("Pop on empty ring should fail")
	}
}

func TestPushOverflowFails(t *testing.T) {
	r := inputqueue.New[int]()
	for i := 0; i < kconfig.InputQueueCapacity; i++ {
		if !r.Push(i) {
			t.Fatalf("Push %d should succeed within capacity", i)
		}
	}
	if r.Push(999) {
		t.Fatal("Push beyond capacity should fail")
	}
}

func TestWrapAroundAfterPops(t *testing.T) {
	r := inputqueue.New[int]()
	for i := 0; i < kconfig.InputQueueCapacity; i++ {
		r.Push(i)
	}
	for i := 0; i < 10; i++ {
		r.Pop()
	}
	for i := 0; i < 10; i++ {
		if !r.Push(1000 + i) {
			t.Fatalf("Push after draining room should succeed (i=%d)", i)
		}
	}
	if r.Count() != kconfig.InputQueueCapacity {
		t.Fatalf("Count = %d, want %d", r.Count(), kconfig.InputQueueCapacity)
	}
}
