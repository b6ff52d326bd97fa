package task_test

import (
	"testing"

	"tinykernel/internal/task"
)

type countingEntry struct {
	runs int
}

func (c *countingEntry) Run(t *task.Task) { c.runs++ }

func TestCreateAssignsSequentialIDs(t *testing.T) {
	tb := task.NewTable()
	e := &countingEntry{}
	t1, err := tb.Create("idle", e)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t2, err := tb.Create("worker", e)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if t1.ID != 1 || t2.ID != 2 {
		t.Fatalf("IDs = %d, %d, want 1, 2", t1.ID, t2.ID)
	}
	if t1.State != task.Runnable || t2.State != task.Runnable {
		t.Fatal("new tasks should start Runnable")
	}
}

func TestCreateRejectsOverCapacity(t *testing.T) {
	tb := task.NewTable()
	e := &countingEntry{}
	var lastErr error
	for i := 0; i < 100; i++ {
		if _, err := tb.Create("t", e); err != nil {
			lastErr = err
			break
		}
	}
	if lastErr == nil {
		t.Fatal("Create should eventually fail once the table is full")
	}
}

func TestGetUnknownID(t *testing.T) {
	tb := task.NewTable()
	if _, ok := tb.Get(0); ok {
		t.Fatal("Get(0) should miss")
	}
	if _, ok := tb.Get(5); ok {
		t.Fatal("Get of an unallocated slot should miss")
	}
}

func TestContextSwitchBookkeeping(t *testing.T) {
	tb := task.NewTable()
	tk, _ := tb.Create("idle", &countingEntry{})

	tk.ContextSwitchIn(0x1000, 7)
	if tk.Ctx.SwitchesIn != 1 || tk.State != task.Running {
		t.Fatalf("switch in: ctx=%+v state=%v", tk.Ctx, tk.State)
	}

	tk.ContextSwitchOut(0x1004, 5)
	if tk.Ctx.SwitchesOut != 1 || tk.State != task.Runnable {
		t.Fatalf("switch out: ctx=%+v state=%v", tk.Ctx, tk.State)
	}
	if tk.Ctx.LastPC != 0x1004 || tk.Ctx.LastCause != 5 {
		t.Fatalf("switch out did not snapshot pc/cause: %+v", tk.Ctx)
	}
}
