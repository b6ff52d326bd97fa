package main

import (
	"path/filepath"
	"testing"

	"tinykernel/internal/hal"
	"tinykernel/internal/otfs"
	"tinykernel/internal/wm"
)

func newTestKernel(t *testing.T) *Kernel {
	t.Helper()
	return Boot(hal.NewBufferConsole(), hal.NewSimClock())
}

// Scenario 1: boot, render twice, fingerprints equal.
func TestBootRenderIsDeterministic(t *testing.T) {
	k := newTestKernel(t)
	_, fp1 := k.Render(320, 240)
	_, fp2 := k.Render(320, 240)
	if fp1 != fp2 {
		t.Fatalf("fingerprints differ across identical renders: %x != %x", fp1, fp2)
	}
}

// Scenario 2: format empty image, mount, write note, unmount, mount, read
// note back and it matches.
func TestOTFSRoundTripThroughRemount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")
	if err := otfs.Format(path); err != nil {
		t.Fatalf("Format: %v", err)
	}

	fs := otfs.New()
	if err := fs.Mount(path); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	fd, err := fs.Open("note.txt", otfs.OpenFlags{Write: true, Create: true})
	if err != nil {
		t.Fatalf("Open for write: %v", err)
	}
	want := "bootstrapped file content"
	if _, err := fs.Write(fd, []byte(want)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := fs.Close(fd); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := fs.Unmount(); err != nil {
		t.Fatalf("Unmount: %v", err)
	}

	fs2 := otfs.New()
	if err := fs2.Mount(path); err != nil {
		t.Fatalf("remount: %v", err)
	}
	defer fs2.Unmount()

	rfd, err := fs2.Open("note.txt", otfs.OpenFlags{Read: true})
	if err != nil {
		t.Fatalf("Open for read after remount: %v", err)
	}
	buf := make([]byte, len(want))
	n, err := fs2.Read(rfd, buf)
	if err != nil || n != len(want) || string(buf) != want {
		t.Fatalf("read back = %q (%d, %v), want %q", buf[:n], n, err, want)
	}
}

// Scenario 3: activate left, type "echo hello" + Enter; activate right, type
// "echo hi" + Enter. Each session's executed-line count shows that only the
// active window's session received the line.
func TestTwoTerminalTypingRoutesByActiveWindow(t *testing.T) {
	k := newTestKernel(t)

	k.Layers.Activate(k.Left.Window())
	k.TypeToActive("echo hello")
	if k.Left.LinesExecuted() != 1 {
		t.Fatalf("left LinesExecuted = %d, want 1", k.Left.LinesExecuted())
	}
	if k.Right.LinesExecuted() != 0 {
		t.Fatalf("right LinesExecuted = %d, want 0 (not focused)", k.Right.LinesExecuted())
	}

	k.Layers.Activate(k.Right.Window())
	k.TypeToActive("echo hi")
	if k.Right.LinesExecuted() != 1 {
		t.Fatalf("right LinesExecuted = %d, want 1", k.Right.LinesExecuted())
	}
	if k.Left.LinesExecuted() != 1 {
		t.Fatalf("left LinesExecuted changed after switching focus: %d", k.Left.LinesExecuted())
	}
}

// Scenario 4: mkdir /projects; cd /projects; mkdir notes; listing the
// working directory then yields exactly one entry, notes.
func TestMkdirCdMkdirLsThroughTerminal(t *testing.T) {
	k := newTestKernel(t)
	k.Layers.Activate(k.Left.Window())

	for _, line := range []string{"mkdir /projects", "cd /projects", "mkdir notes"} {
		k.TypeToActive(line)
	}

	entries, err := k.FS.Ls(".")
	if err != nil {
		t.Fatalf("Ls: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "notes" {
		t.Fatalf("entries = %+v, want exactly [notes]", entries)
	}
}

// Scenario 5: echo foo > /tmp/out writes "echo: foo\n" into /tmp/out.
func TestRedirectionThroughTerminal(t *testing.T) {
	k := newTestKernel(t)
	k.Layers.Activate(k.Right.Window())
	k.TypeToActive("echo foo > /tmp/out")

	content, err := k.FS.Cat("/tmp/out")
	if err != nil || content != "echo: foo\n" {
		t.Fatalf("Cat(/tmp/out) = %q, %v, want %q", content, err, "echo: foo\n")
	}
}

// Scenario 6: six timer ticks cause tasks 1 and 2 to alternate exactly
// three times each.
func TestSixTicksAlternateBootstrapTasks(t *testing.T) {
	k := newTestKernel(t)
	t1, _ := k.Tasks.Get(1)
	t2, _ := k.Tasks.Get(2)

	for i := 0; i < 6; i++ {
		k.Scheduler.Tick(0x1000+uint64(i*4), 5)
	}

	if t1.Ctx.SwitchesIn != 3 || t2.Ctx.SwitchesIn != 3 {
		t.Fatalf("switches in = %d, %d, want 3, 3", t1.Ctx.SwitchesIn, t2.Ctx.SwitchesIn)
	}
	if !k.Scheduler.AlternationConfirmed() {
		t.Fatal("scheduler should confirm alternation after six ticks")
	}
}

// Clicking a window's title bar focuses it and starts a drag; a held-left
// Move while bound repositions the window's frame; Button-up ends the
// drag. Exercises DispatchMouse -> MouseEvents -> MouseRouter end to end,
// the same path a real pointer driver would take.
func TestMouseClickFocusesAndDragsWindow(t *testing.T) {
	k := newTestKernel(t)

	left := k.Left.Window()
	startFrame := left.Frame

	k.DispatchMouse(wm.MouseEvent{Kind: wm.MouseButtonDown, X: 10, Y: 10, Buttons: wm.MouseButtonLeft})
	if k.Layers.Active() != left {
		t.Fatalf("Active() = %v, want left window focused by the click", k.Layers.Active())
	}

	k.DispatchMouse(wm.MouseEvent{Kind: wm.MouseMove, X: 60, Y: 80, Buttons: wm.MouseButtonLeft})
	wantX := startFrame.X + (60 - 10)
	wantY := startFrame.Y + (80 - 10)
	if left.Frame.X != wantX || left.Frame.Y != wantY {
		t.Fatalf("left.Frame = %+v, want X=%d Y=%d", left.Frame, wantX, wantY)
	}

	k.DispatchMouse(wm.MouseEvent{Kind: wm.MouseButtonUp, X: 60, Y: 80, Buttons: wm.MouseButtonLeft})

	movedFrame := left.Frame
	k.DispatchMouse(wm.MouseEvent{Kind: wm.MouseMove, X: 65, Y: 85, Buttons: wm.MouseButtonLeft})
	if left.Frame != movedFrame {
		t.Fatalf("left.Frame moved after button up ended the drag: got %+v, want unchanged %+v", left.Frame, movedFrame)
	}
}

// Clicking a window's content area (not its title bar) focuses it without
// starting a drag.
func TestMouseClickOnContentFocusesWithoutDrag(t *testing.T) {
	k := newTestKernel(t)

	right := k.Right.Window()
	content := right.ContentRect()
	x, y := content.X+5, content.Y+5

	k.DispatchMouse(wm.MouseEvent{Kind: wm.MouseButtonDown, X: x, Y: y, Buttons: wm.MouseButtonLeft})
	if k.Layers.Active() != right {
		t.Fatalf("Active() = %v, want right window focused by the click", k.Layers.Active())
	}

	startFrame := right.Frame
	k.DispatchMouse(wm.MouseEvent{Kind: wm.MouseMove, X: x + 20, Y: y + 20, Buttons: wm.MouseButtonLeft})
	if right.Frame != startFrame {
		t.Fatalf("right.Frame = %+v, want unchanged %+v (no drag from a content click)", right.Frame, startFrame)
	}
}
