package trapframe_test

import (
	"strings"
	"testing"

	"tinykernel/internal/hal"
	"tinykernel/internal/klog"
	"tinykernel/internal/trapframe"
)

type tickCounter struct {
	ticks int
}

func (t *tickCounter) HandleTick() { t.ticks++ }

const interruptBit = uint64(1) << 63

func TestDispatchTimerInterrupt(t *testing.T) {
	tc := &tickCounter{}
	d := trapframe.New(klog.New(hal.NewBufferConsole()), tc)

	f := &trapframe.Frame{Cause: interruptBit | 5, EPC: 0x8000}
	if action := d.Dispatch(f); action != trapframe.Continue {
		t.Fatalf("action = %v, want Continue", action)
	}
	if tc.ticks != 1 {
		t.Fatalf("ticks = %d, want 1", tc.ticks)
	}
}

func TestDispatchUnexpectedInterruptHalts(t *testing.T) {
	d := trapframe.New(klog.New(hal.NewBufferConsole()), &tickCounter{})
	f := &trapframe.Frame{Cause: interruptBit | 9, EPC: 0x8000}
	if action := d.Dispatch(f); action != trapframe.Halt {
		t.Fatalf("action = %v, want Halt", action)
	}
}

func TestDispatchUnarmedBreakpointHalts(t *testing.T) {
	d := trapframe.New(klog.New(hal.NewBufferConsole()), &tickCounter{})
	f := &trapframe.Frame{Cause: 3, EPC: 0x8000}
	if action := d.Dispatch(f); action != trapframe.Halt {
		t.Fatalf("action = %v, want Halt", action)
	}
}

func TestRunSelfTestPassesForFullInstruction(t *testing.T) {
	con := hal.NewBufferConsole()
	d := trapframe.New(klog.New(con), &tickCounter{})

	if passed := d.RunSelfTest(0x8000, 0x00000073); !passed {
		t.Fatal("self test should pass")
	}
	if d.SelfTestArmed() {
		t.Fatal("self test flag should be cleared after dispatch")
	}
	if !strings.Contains(string(con.Captured()), "TRAP_SELFTEST: passed") {
		t.Fatalf("log missing pass line, got:\n%s", con.Captured())
	}
}

func TestAdvancePastBreakpointCompressed(t *testing.T) {
	d := trapframe.New(klog.New(hal.NewBufferConsole()), &tickCounter{})
	d.ArmSelfTest()
	f := &trapframe.Frame{Cause: 3, EPC: 0x9000, Insn: 0x9002}
	d.Dispatch(f)
	if f.EPC != 0x9002 {
		t.Fatalf("EPC = %#x, want %#x (compressed +2)", f.EPC, 0x9002)
	}
}

func TestAdvancePastBreakpointFullWidth(t *testing.T) {
	d := trapframe.New(klog.New(hal.NewBufferConsole()), &tickCounter{})
	d.ArmSelfTest()
	f := &trapframe.Frame{Cause: 3, EPC: 0x9000, Insn: 0x00000073}
	d.Dispatch(f)
	if f.EPC != 0x9004 {
		t.Fatalf("EPC = %#x, want %#x (full width +4)", f.EPC, 0x9004)
	}
}
