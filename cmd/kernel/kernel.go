// Package main boots the hosted kernel: it wires every internal/
// subsystem together the way a real board-support package would call
// each subsystem's Init in sequence, then hands control to a blocking
// input loop. Grounded on the teacher tree's kernel.go boot sequence
// (uartInit, then a fixed call order before the idle loop), adapted from
// MMIO register pokes to constructing and composing the hosted Go types
// built in internal/.
package main

import (
	"image"

	"tinykernel/internal/clock"
	"tinykernel/internal/hal"
	"tinykernel/internal/inputqueue"
	"tinykernel/internal/kconfig"
	"tinykernel/internal/keyboard"
	"tinykernel/internal/klog"
	"tinykernel/internal/pagealloc"
	"tinykernel/internal/sched"
	"tinykernel/internal/task"
	"tinykernel/internal/terminal"
	"tinykernel/internal/trapframe"
	"tinykernel/internal/vfs"
	"tinykernel/internal/wm"
)

// bootPageRange is the physical range handed to the page allocator at
// boot, sized generously past what the two bootstrap tasks and the
// shell ever touch.
const bootPageRange = 64 * kconfig.PageSize

// Kernel is every booted subsystem, held together the way a single
// global kernel instance would be on bare metal (see SPEC_FULL.md §9's
// concurrency note) but expressed as an ordinary Go
// value instead of package-level globals, so a test can boot as many
// independent kernels as it needs.
type Kernel struct {
	Logger *klog.Logger

	Pages      *pagealloc.Pool
	Tasks      *task.Table
	Scheduler  *sched.Scheduler
	Clock      *clock.Clock
	Dispatcher *trapframe.Dispatcher

	KeyDecoder  *keyboard.Decoder
	KeyEvents   *inputqueue.Ring[keyboard.Event]
	MouseEvents *inputqueue.Ring[wm.MouseEvent]

	Layers      *wm.LayerStack
	KeyRouter   *wm.EndpointKeyboardRouter
	MouseRouter *wm.DragFocusRouter

	FS    *vfs.Context
	Left  *terminal.Session
	Right *terminal.Session
}

// bootEntry is the trivial body every bootstrap task runs: it does
// nothing beyond existing, so the scheduler has something runnable to
// alternate between at boot (scenario 6's "tasks 1 and 2 alternate").
type bootEntry struct{ name string }

func (e bootEntry) Run(t *task.Task) {}

// Boot brings up every subsystem against console (the UART stand-in) and
// timer (the SBI-deadline stand-in), in the fixed order a real boot
// sequence would: page allocator, task table, scheduler, clock, trap
// dispatcher, input queues, window manager, and finally the two terminal
// sessions the desktop starts with.
func Boot(console *hal.BufferConsole, timer hal.Timer) *Kernel {
	logger := klog.New(console)
	logger.Line("BOOT", "kernel starting")

	pages := pagealloc.Init(0, bootPageRange)
	logger.Linef("BOOT", "page pool: %d pages", pages.TotalPages())

	tasks := task.NewTable()
	t1, _ := tasks.Create("left-shell", bootEntry{"left-shell"})
	t2, _ := tasks.Create("right-shell", bootEntry{"right-shell"})
	scheduler := sched.New(tasks, logger)
	scheduler.AddRunnable(t1.ID)
	scheduler.AddRunnable(t2.ID)
	scheduler.Start()

	clk := clock.New(timer, logger)
	clk.Init()
	dispatcher := trapframe.New(logger, clk)

	keyDecoder := keyboard.New()
	keyEvents := inputqueue.New[keyboard.Event]()
	mouseEvents := inputqueue.New[wm.MouseEvent]()

	layers := wm.NewLayerStack()
	leftWindow := wm.NewWindow("left",
		wm.Rect{X: 0, Y: 0, W: 200, H: 150},
		wm.DefaultStyle(0x303030, 0x205080, 0x101010), 1)
	rightWindow := wm.NewWindow("right",
		wm.Rect{X: 220, Y: 0, W: 200, H: 150},
		wm.DefaultStyle(0x303030, 0x802050, 0x101010), 2)
	layers.Add(leftWindow)
	layers.Add(rightWindow)

	fs := vfs.NewContext()
	left := terminal.NewSession(leftWindow.EndpointID, leftWindow, console, fs, pages)
	right := terminal.NewSession(rightWindow.EndpointID, rightWindow, console, fs, pages)

	keyRouter := wm.NewEndpointKeyboardRouter(layers)
	keyRouter.Register(leftWindow, left, left)
	keyRouter.Register(rightWindow, right, right)

	mouseRouter := wm.NewDragFocusRouter(layers, wm.MouseSinkFunc(func(kind wm.DispatchKind, w *wm.Window, ev wm.MouseEvent) {
		if w != nil && kind == wm.DispatchClickDown {
			logger.Linef("WM", "focus -> %s", w.Title)
		}
	}))

	logger.Line("BOOT", "ready")

	return &Kernel{
		Logger:      logger,
		Pages:       pages,
		Tasks:       tasks,
		Scheduler:   scheduler,
		Clock:       clk,
		Dispatcher:  dispatcher,
		KeyDecoder:  keyDecoder,
		KeyEvents:   keyEvents,
		MouseEvents: mouseEvents,
		Layers:      layers,
		KeyRouter:   keyRouter,
		MouseRouter: mouseRouter,
		FS:          fs,
		Left:        left,
		Right:       right,
	}
}

// Render composites the current window layer stack at width x height,
// returning the pixel buffer and its FNV-1a fingerprint.
func (k *Kernel) Render(width, height int) (*image.RGBA, uint32) {
	scene := wm.Scene{
		Background:   0x000000,
		Layers:       k.Layers,
		ActiveWindow: k.Layers.Active(),
	}
	return wm.Render(scene, width, height)
}

// TypeToActive routes text and a trailing Enter to whichever terminal
// session is bound to the layer stack's currently active window,
// exercising the same KeyRouter.Push/DispatchPending path a real
// keystroke would take after the keyboard decoder.
func (k *Kernel) TypeToActive(text string) {
	for _, r := range text {
		k.KeyRouter.Push(keyboard.Event{Kind: keyboard.KindText, Text: r})
	}
	k.KeyRouter.Push(keyboard.Event{Kind: keyboard.KindControl, Code: keyboard.Enter})
	k.KeyRouter.DispatchPending()
}

// DispatchMouse feeds one decoded mouse event through the same path a
// real pointer driver would: queued on MouseEvents, drained in order, and
// handed to MouseRouter, whose drag state machine hit-tests the layer
// stack, activates whatever window is clicked, and repositions a window
// dragged by its title bar.
func (k *Kernel) DispatchMouse(ev wm.MouseEvent) {
	if !k.MouseEvents.Push(ev) {
		return
	}
	for {
		queued, ok := k.MouseEvents.Pop()
		if !ok {
			return
		}
		k.MouseRouter.Handle(queued)
	}
}
