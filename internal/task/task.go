// Package task implements the slot-allocated task control block table the
// scheduler round-robins over. Entry points are expressed as the Entry
// interface (a single Run method) rather than a raw function pointer,
// following the "callable abstraction" design note: it lets tests supply a
// struct collaborator that records how many times it ran.
package task

import (
	"fmt"

	"tinykernel/internal/kconfig"
	"tinykernel/internal/kerr"
)

// State is a task's position in its lifecycle. Once created, a task's
// state never returns to Unused within a run.
type State int

const (
	Unused State = iota
	Runnable
	Running
)

func (s State) String() string {
	switch s {
	case Unused:
		return "unused"
	case Runnable:
		return "runnable"
	case Running:
		return "running"
	default:
		return "invalid"
	}
}

// Entry is a task's body, invoked once per scheduling quantum.
type Entry interface {
	Run(t *Task)
}

// EntryFunc adapts a plain function to the Entry interface.
type EntryFunc func(t *Task)

// Run implements Entry.
func (f EntryFunc) Run(t *Task) { f(t) }

// Context holds the scheduling bookkeeping a task accumulates across
// context switches.
type Context struct {
	SwitchesIn  uint64
	SwitchesOut uint64
	LastPC      uint64
	LastCause   uint64
}

// Task is one control block. ID is a stable 1-based slot index.
type Task struct {
	ID       uint32
	Name     string
	State    State
	RunCount uint64
	Ctx      Context
	entry    Entry
}

// ContextSwitchOut records a task being preempted: increments SwitchesOut,
// snapshots the trapping pc/cause, and demotes Running to Runnable.
func (t *Task) ContextSwitchOut(pc, cause uint64) {
	t.Ctx.SwitchesOut++
	t.Ctx.LastPC = pc
	t.Ctx.LastCause = cause
	if t.State == Running {
		t.State = Runnable
	}
}

// ContextSwitchIn records a task being scheduled in: increments SwitchesIn,
// snapshots the trapping pc/cause, and promotes the task to Running.
func (t *Task) ContextSwitchIn(pc, cause uint64) {
	t.Ctx.SwitchesIn++
	t.Ctx.LastPC = pc
	t.Ctx.LastCause = cause
	t.State = Running
}

// RunEntry invokes the task's entry body, if one was supplied at Create.
func (t *Task) RunEntry() {
	if t.entry != nil {
		t.entry.Run(t)
	}
}

// Table is the fixed-capacity, slot-allocated task control block pool.
type Table struct {
	tasks []*Task
}

// NewTable returns an empty task table.
func NewTable() *Table {
	return &Table{}
}

// Create allocates the next 1-based task slot, bounded by
// kconfig.TaskMaxTasks, and leaves the new task in the Runnable state.
func (tb *Table) Create(name string, entry Entry) (*Task, error) {
	if len(tb.tasks) >= kconfig.TaskMaxTasks {
		return nil, fmt.Errorf("task: %w: table full at %d tasks", kerr.ErrNoSpace, kconfig.TaskMaxTasks)
	}
	t := &Task{
		ID:    uint32(len(tb.tasks)) + 1,
		Name:  name,
		State: Runnable,
		entry: entry,
	}
	tb.tasks = append(tb.tasks, t)
	return t, nil
}

// Get returns the task with the given 1-based id.
func (tb *Table) Get(id uint32) (*Task, bool) {
	if id == 0 || int(id) > len(tb.tasks) {
		return nil, false
	}
	return tb.tasks[id-1], true
}

// All returns every task in slot order.
func (tb *Table) All() []*Task {
	return append([]*Task(nil), tb.tasks...)
}
