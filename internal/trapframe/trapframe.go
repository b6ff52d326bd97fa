// Package trapframe decodes RISC-V trap frames and dispatches them, the
// hosted counterpart of the reference tree's trap entry assembly plus
// trap.c's cause switch. mcause's top bit distinguishes an interrupt from
// a synchronous exception; the remaining bits are the cause code.
package trapframe

import "tinykernel/internal/klog"

const (
	// causeInterruptBit is set in mcause when the trap is an interrupt
	// rather than a synchronous exception.
	causeInterruptBit = uint64(1) << 63

	// Standard RISC-V interrupt cause codes (the supervisor/machine timer
	// pair the clock rides on).
	causeSupervisorTimer = 5
	causeMachineTimer    = 7

	// causeBreakpoint is the synchronous exception code raised by ebreak,
	// used for the trap self-test.
	causeBreakpoint = 3
)

// Frame is a saved trap frame: general-purpose registers plus the trio of
// CSRs the dispatcher needs to decode and resume from a trap.
type Frame struct {
	Regs   [31]uint64
	Status uint64
	EPC    uint64
	Cause  uint64
	TVal   uint64
	// Insn is the raw trapping instruction word, used only to tell a
	// 4-byte instruction from a 2-byte compressed one when advancing EPC
	// past a breakpoint.
	Insn uint32
}

// Interrupt reports whether Cause is an interrupt rather than an
// exception.
func (f *Frame) Interrupt() bool {
	return f.Cause&causeInterruptBit != 0
}

// Code returns Cause with the interrupt bit masked off.
func (f *Frame) Code() uint64 {
	return f.Cause &^ causeInterruptBit
}

// Action tells the caller what to do after Dispatch returns.
type Action int

const (
	// Continue resumes the interrupted task at Frame.EPC.
	Continue Action = iota
	// Halt means the trap was not recognized and the kernel should stop.
	Halt
)

// TickSource receives timer interrupts. *clock.Clock implements this.
type TickSource interface {
	HandleTick()
}

// Dispatcher routes decoded trap frames to their handlers: timer
// interrupts go to the clock, breakpoints exercise the self-test, and
// everything else halts.
type Dispatcher struct {
	logger        *klog.Logger
	clock         TickSource
	selfTestArmed bool
}

// New returns a Dispatcher that hands timer ticks to clock and logs
// through logger.
func New(logger *klog.Logger, clock TickSource) *Dispatcher {
	return &Dispatcher{logger: logger, clock: clock}
}

// ArmSelfTest arms the breakpoint self-test: the next breakpoint
// exception Dispatch sees will be treated as the expected self-test trap
// rather than an unexpected one.
func (d *Dispatcher) ArmSelfTest() {
	d.selfTestArmed = true
}

// SelfTestArmed reports whether the self-test is still waiting for its
// breakpoint.
func (d *Dispatcher) SelfTestArmed() bool {
	return d.selfTestArmed
}

// Dispatch decodes f.Cause and handles the trap, advancing f.EPC past a
// handled breakpoint so the caller can resume execution there.
func (d *Dispatcher) Dispatch(f *Frame) Action {
	if f.Interrupt() {
		switch f.Code() {
		case causeSupervisorTimer, causeMachineTimer:
			d.clock.HandleTick()
			return Continue
		default:
			d.logger.Linef("TRAP_UNEXPECTED", "interrupt cause=0x%x pc=0x%x", f.Code(), f.EPC)
			return Halt
		}
	}

	if f.Code() == causeBreakpoint && d.selfTestArmed {
		d.selfTestArmed = false
		d.logger.Linef("TRAP_TEST", "breakpoint at pc=0x%x handled", f.EPC)
		d.advancePastBreakpoint(f)
		return Continue
	}

	d.logger.Linef("TRAP_UNEXPECTED", "exception cause=0x%x pc=0x%x tval=0x%x", f.Code(), f.EPC, f.TVal)
	return Halt
}

// advancePastBreakpoint steps EPC over the trapping instruction: 4 bytes
// for a normal instruction (low two bits are 0b11), 2 bytes for a
// compressed one.
func (d *Dispatcher) advancePastBreakpoint(f *Frame) {
	if f.Insn&0x3 == 0x3 {
		f.EPC += 4
	} else {
		f.EPC += 2
	}
}

// RunSelfTest exercises the breakpoint self-test end to end: it arms the
// flag, dispatches a synthetic breakpoint frame carrying insn, and
// reports whether the dispatcher cleared the armed flag as expected. It
// mirrors the reference tree's boot-time trap self-test, adapted to run
// without a real ebreak instruction.
func (d *Dispatcher) RunSelfTest(pc uint64, insn uint32) bool {
	d.ArmSelfTest()
	f := &Frame{Cause: causeBreakpoint, EPC: pc, Insn: insn}
	d.Dispatch(f)
	passed := !d.selfTestArmed
	if passed {
		d.logger.Line("TRAP_SELFTEST", "passed")
	} else {
		d.logger.Line("TRAP_SELFTEST", "failed")
	}
	return passed
}
