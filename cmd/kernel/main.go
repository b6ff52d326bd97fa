package main

import (
	"tinykernel/internal/hal"
)

// main boots the kernel against a host-side BufferConsole and a simulated
// timer,
// then blocks reading UART bytes into the keyboard decoder forever — the
// one place in this module allowed to loop without returning, matching
// the teacher's own idle-loop-after-boot convention. A real board would
// feed raw scancodes in here; lacking actual hardware to poll, this
// loop stands in for "wait for the next byte" with a buffered channel
// fed by Console.TryReadByte, the hosted counterpart of the teacher's
// SimpleChannel/goSignalChan blocking-receive pattern in goroutine.go.
func main() {
	console := hal.NewBufferConsole()
	timer := hal.NewSimClock()
	k := Boot(console, timer)

	bytes := make(chan byte, 256)
	go func() {
		for {
			if b, ok := console.TryReadByte(); ok {
				bytes <- b
			}
		}
	}()

	for b := range bytes {
		if ev, ok := k.KeyDecoder.Feed(b); ok {
			k.KeyRouter.Push(ev)
			k.KeyRouter.DispatchPending()
		}
	}
}
