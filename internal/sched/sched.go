// Package sched implements the round-robin scheduler that the trap
// dispatcher drives on every timer tick, in the style of the reference
// tree's scheduler_bootstrap.go (a fixed runnable queue scanned from the
// current slot) but reworked as an ordinary synchronous method instead of
// a goroutine-per-task runtime.
package sched

import (
	"tinykernel/internal/kconfig"
	"tinykernel/internal/klog"
	"tinykernel/internal/task"
)

// Scheduler round-robins a fixed set of runnable task ids over a task
// table, advancing one slot per Tick.
type Scheduler struct {
	table   *task.Table
	logger  *klog.Logger
	queue   []uint32
	current int

	running        bool
	switchLogCount int

	alternationCount     int
	alternationConfirmed bool
}

// New returns a scheduler bound to table, logging through logger.
func New(table *task.Table, logger *klog.Logger) *Scheduler {
	return &Scheduler{table: table, logger: logger}
}

// AddRunnable appends a task id to the round-robin queue. The first task
// added occupies the initial current slot.
func (s *Scheduler) AddRunnable(id uint32) {
	s.queue = append(s.queue, id)
}

// Start marks the scheduler as live and logs its initial policy line.
func (s *Scheduler) Start() {
	s.running = true
	if t, ok := s.table.Get(s.queue[0]); ok {
		t.State = task.Running
	}
	s.logger.Linef("SCHED", "policy=round-robin runnable=%d", len(s.queue))
}

// Running reports whether the scheduler has been started.
func (s *Scheduler) Running() bool { return s.running }

// AlternationConfirmed reports whether the two-task alternation self-test
// has fired.
func (s *Scheduler) AlternationConfirmed() bool { return s.alternationConfirmed }

// Tick advances the scheduler by one quantum. pc and cause are the
// trapping frame's program counter and cause, recorded into the
// outgoing and incoming tasks' context for diagnostics.
func (s *Scheduler) Tick(pc, cause uint64) {
	if !s.running || len(s.queue) == 0 {
		return
	}

	prevIdx := s.current
	prevID := s.queue[prevIdx]
	prevTask, _ := s.table.Get(prevID)
	if prevTask != nil {
		prevTask.ContextSwitchOut(pc, cause)
	}

	n := len(s.queue)
	nextIdx := -1
	for i := 1; i <= n; i++ {
		idx := (prevIdx + i) % n
		id := s.queue[idx]
		if t, ok := s.table.Get(id); ok && t.State == task.Runnable {
			nextIdx = idx
			break
		}
	}
	if nextIdx == -1 {
		// nothing else runnable: re-admit prev if it can run
		if prevTask != nil {
			prevTask.State = task.Runnable
			nextIdx = prevIdx
		} else {
			return
		}
	}

	s.current = nextIdx
	nextTask, _ := s.table.Get(s.queue[nextIdx])
	nextTask.ContextSwitchIn(pc, cause)

	switched := prevTask == nil || prevTask.ID != nextTask.ID
	if switched {
		prevID := uint32(0)
		if prevTask != nil {
			prevID = prevTask.ID
		}
		if s.switchLogCount < kconfig.SchedSwitchLogLimit {
			s.logger.Linef("SWITCH", "task %d -> task %d", prevID, nextTask.ID)
			s.logger.Linef("TASK", "%d running", nextTask.ID)
			s.switchLogCount++
		}
		s.trackAlternation(prevID, nextTask.ID)
	}

	nextTask.RunCount++
	nextTask.RunEntry()
	if nextTask.State == task.Running {
		nextTask.State = task.Runnable
	}
}

// trackAlternation counts transitions between the scheduler's first two
// task ids (1 and 2) in either direction; after the fourth such
// transition it logs a one-time confirmation line.
func (s *Scheduler) trackAlternation(prevID, nextID uint32) {
	if s.alternationConfirmed {
		return
	}
	isAlternating := (prevID == 1 && nextID == 2) || (prevID == 2 && nextID == 1)
	if !isAlternating {
		return
	}
	s.alternationCount++
	if s.alternationCount >= kconfig.SchedAlternationTarget {
		s.alternationConfirmed = true
		s.logger.Line("SCHED_TEST", "alternating tasks confirmed")
	}
}
